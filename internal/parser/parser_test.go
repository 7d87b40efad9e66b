package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinylisp/lispc/internal/ast"
	"github.com/tinylisp/lispc/internal/diag"
)

func parseOK(t *testing.T, src string) []ast.Node {
	t.Helper()
	p := New(src)
	program, errs := p.Parse()
	require.Empty(t, errorsOnly(errs), "unexpected parse errors: %v", errs)
	return program
}

func errorsOnly(records []diag.Record) []diag.Record {
	var out []diag.Record
	for _, r := range records {
		if r.Kind == diag.ErrorKind {
			out = append(out, r)
		}
	}
	return out
}

func TestParser_Literals(t *testing.T) {
	program := parseOK(t, "1 2.5 #t #f")
	require.Len(t, program, 4)

	lit0, ok := program[0].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.Int, lit0.Kind)
	assert.Equal(t, int64(1), lit0.IntVal)

	lit1, ok := program[1].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.Float, lit1.Kind)
	assert.Equal(t, 2.5, lit1.FloatVal)

	lit2, ok := program[2].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.Bool, lit2.Kind)
	assert.True(t, lit2.BoolVal)

	lit3, ok := program[3].(*ast.Literal)
	require.True(t, ok)
	assert.False(t, lit3.BoolVal)
}

func TestParser_EmptyListIsFalse(t *testing.T) {
	program := parseOK(t, "()")
	require.Len(t, program, 1)
	lit, ok := program[0].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, ast.Bool, lit.Kind)
	assert.False(t, lit.BoolVal)
}

func TestParser_Call(t *testing.T) {
	program := parseOK(t, "(+ 1 2)")
	require.Len(t, program, 1)
	call, ok := program[0].(*ast.Call)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.Variable)
	require.True(t, ok)
	assert.Equal(t, "+", callee.Name)
	require.Len(t, call.Args, 2)
}

func TestParser_DefVariable(t *testing.T) {
	program := parseOK(t, "(def x 42)")
	require.Len(t, program, 1)
	def, ok := program[0].(*ast.Def)
	require.True(t, ok)
	assert.Equal(t, "x", def.Name)
	lit, ok := def.Value.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, int64(42), lit.IntVal)
}

func TestParser_DefFunctionSugar(t *testing.T) {
	program := parseOK(t, "(def (square x) (* x x))")
	require.Len(t, program, 1)
	def, ok := program[0].(*ast.Def)
	require.True(t, ok)
	assert.Equal(t, "square", def.Name)
	fn, ok := def.Value.(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, fn.Params)
	assert.Empty(t, fn.FreeVars)
	assert.Len(t, fn.Body, 1)
}

func TestParser_RecursiveFunctionSelfReference(t *testing.T) {
	program := parseOK(t, "(def (count-down n) (if (= n 0) 0 (count-down (- n 1))))")
	require.Len(t, program, 1)
	def := program[0].(*ast.Def)
	fn := def.Value.(*ast.Function)
	assert.Equal(t, "count-down", fn.Name)
	assert.Empty(t, fn.FreeVars)
}

func TestParser_ClosureCapturesOuterParam(t *testing.T) {
	// (def (make-adder n) (lambda (x) (+ x n))) — the inner lambda
	// captures n, the outer function's own parameter.
	program := parseOK(t, "(def (make-adder n) (lambda (x) (+ x n)))")
	require.Len(t, program, 1)
	def := program[0].(*ast.Def)
	outer := def.Value.(*ast.Function)
	require.Len(t, outer.Body, 1)
	inner, ok := outer.Body[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, []string{"n"}, inner.FreeVars)
}

func TestParser_Let(t *testing.T) {
	program := parseOK(t, "(let ((a 1) (b (+ a 1))) (+ a b))")
	require.Len(t, program, 1)
	let, ok := program[0].(*ast.Let)
	require.True(t, ok)
	require.Len(t, let.Bindings, 2)
	assert.Equal(t, "a", let.Bindings[0].Name)
	assert.Equal(t, "b", let.Bindings[1].Name)
	require.Len(t, let.Body, 1)
}

func TestParser_If(t *testing.T) {
	program := parseOK(t, "(if #t 1 2)")
	require.Len(t, program, 1)
	ifNode, ok := program[0].(*ast.If)
	require.True(t, ok)
	assert.NotNil(t, ifNode.Cond)
	assert.NotNil(t, ifNode.Then)
	assert.NotNil(t, ifNode.Else)
}

func TestParser_IfWithoutElse(t *testing.T) {
	program := parseOK(t, "(if #t 1)")
	require.Len(t, program, 1)
	ifNode := program[0].(*ast.If)
	assert.Nil(t, ifNode.Else)
}

func TestParser_Quote(t *testing.T) {
	program := parseOK(t, "'(1 2 3)")
	require.Len(t, program, 1)
	_, ok := program[0].(*ast.Quote)
	assert.True(t, ok)
}

func TestParser_UndefinedVariable(t *testing.T) {
	p := New("(+ 1 unknown-name)")
	_, errs := p.Parse()
	errs = errorsOnly(errs)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Undefined variable: 'unknown-name'")
}

func TestParser_RedefinitionIsWarningNotError(t *testing.T) {
	p := New("(def x 1) (def x 2)")
	program, errs := p.Parse()
	require.Len(t, program, 2)
	require.Empty(t, errorsOnly(errs))
	var warnings []diag.Record
	for _, r := range errs {
		if r.Kind == diag.WarningKind {
			warnings = append(warnings, r)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "Redefinition of variable 'x'")
}

func TestParser_UnclosedListRecoversAtNextOpenParen(t *testing.T) {
	p := New("(def x 1 2\n(def y 3)")
	program, errs := p.Parse()
	require.NotEmpty(t, errorsOnly(errs))
	// Recovery should still find the second, well-formed top-level form.
	require.Len(t, program, 1)
	def, ok := program[0].(*ast.Def)
	require.True(t, ok)
	assert.Equal(t, "y", def.Name)
}

func TestParser_EmptyFunctionBodyIsError(t *testing.T) {
	p := New("(lambda (x))")
	_, errs := p.Parse()
	errs = errorsOnly(errs)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "body cannot be empty")
}

func TestParser_TooManyArgsToIf(t *testing.T) {
	p := New("(if #t 1 2 3)")
	_, errs := p.Parse()
	errs = errorsOnly(errs)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Too many arguments")
}
