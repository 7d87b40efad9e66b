package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinylisp/lispc/internal/config"
	"github.com/tinylisp/lispc/internal/diag"
	"github.com/tinylisp/lispc/internal/parser"
)

func compileSrc(t *testing.T, src string) string {
	t.Helper()
	p := parser.New(src)
	program, errs := p.Parse()
	for _, r := range errs {
		require.NotEqual(t, diag.ErrorKind, r.Kind, "unexpected parse error: %s", r.Message)
	}

	prefix := filepath.Join(t.TempDir(), "prog")
	require.NoError(t, Compile(program, prefix, config.Default()))

	out, err := os.ReadFile(prefix + ".asm")
	require.NoError(t, err)
	return string(out)
}

func TestCodegen_IntegerLiteral(t *testing.T) {
	asm := compileSrc(t, "42")
	assert.Contains(t, asm, "mov rdi, 42")
	assert.Contains(t, asm, "call lispvalue_create_int")
	assert.Contains(t, asm, "mov rax, 60")
	assert.Contains(t, asm, "syscall")
}

func TestCodegen_If(t *testing.T) {
	asm := compileSrc(t, "(if #t 10 20)")
	assert.Contains(t, asm, "call lisp_is_truthy")
	assert.Contains(t, asm, "cmp rax, 0")
	assert.Contains(t, asm, "je L_else_1")
	assert.Contains(t, asm, "jmp L_end_if_1")
	assert.Contains(t, asm, "L_else_1:")
	assert.Contains(t, asm, "L_end_if_1:")
}

func TestCodegen_IfWithoutElseZeroesRax(t *testing.T) {
	asm := compileSrc(t, "(if #t 10)")
	assert.Contains(t, asm, "xor rax, rax")
}

func TestCodegen_GlobalDefAndReference(t *testing.T) {
	asm := compileSrc(t, "(def x 7) x")
	assert.Contains(t, asm, "global_var_x: dq 0")
	assert.Contains(t, asm, "mov [global_var_x], rax")
	assert.Contains(t, asm, "mov rax, [global_var_x]")
}

func TestCodegen_SimpleFunctionCall(t *testing.T) {
	asm := compileSrc(t, "(def (inc n) (+ n 1)) (inc 41)")
	assert.Contains(t, asm, "L_func_1:")
	assert.Contains(t, asm, "push r12")
	assert.Contains(t, asm, "push rdi")  // the parameter n, bound via arg-reg 0
	assert.Contains(t, asm, "call lisp_add")
	assert.Contains(t, asm, "num_free")
	assert.Contains(t, asm, "mov rdx, 0 ; num_free")
}

func TestCodegen_LetNestedScopes(t *testing.T) {
	asm := compileSrc(t, "(let ((x 10)) (let ((y 20)) (+ x y)))")
	assert.Contains(t, asm, "mov rax, [rbp-8]")
	assert.Contains(t, asm, "mov rax, [rbp-16]")
	assert.Contains(t, asm, "add rsp, 8")
}

func TestCodegen_ClosureCapture(t *testing.T) {
	asm := compileSrc(t, "(def (make-adder n) (lambda (x) (+ x n))) ((make-adder 5) 7)")
	assert.Contains(t, asm, "call lispcell_create")
	assert.Contains(t, asm, "call lispvalue_create_cell")
	assert.Contains(t, asm, "call lispvalue_create_closure")
	assert.Contains(t, asm, "mov r12, rax")
	assert.Contains(t, asm, "mov rax, [r12+8]")
	assert.Contains(t, asm, "call rax")
}

func TestCodegen_VariadicFoldOnThreeArgs(t *testing.T) {
	asm := compileSrc(t, "(+ 1 2 3)")
	// Two calls to lisp_add for the fold over three arguments.
	count := 0
	for i := 0; i+len("call lisp_add") <= len(asm); i++ {
		if asm[i:i+len("call lisp_add")] == "call lisp_add" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestCodegen_MoreThanSixArgsSpillsToStack(t *testing.T) {
	asm := compileSrc(t, "(def (f a b c d e f2 g) a) (f 1 2 3 4 5 6 7)")
	assert.Contains(t, asm, "add rsp, 8")
}

func TestCodegen_QuotePanics(t *testing.T) {
	p := parser.New("'(1 2 3)")
	program, _ := p.Parse()
	prefix := filepath.Join(t.TempDir(), "prog")
	err := Compile(program, prefix, config.Default())
	assert.Error(t, err)
}

func TestCodegen_FloatLiteralUsesDataSection(t *testing.T) {
	asm := compileSrc(t, "3.5")
	assert.Contains(t, asm, "L_float_1: dq 3.5")
	assert.Contains(t, asm, "movsd xmm0, [L_float_1]")
	assert.Contains(t, asm, "call lispvalue_create_float")
}
