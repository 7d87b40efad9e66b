package emit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinylisp/lispc/internal/asmwriter"
)

func newTestEmitter(t *testing.T) (*Emitter, *asmwriter.Writer, string) {
	t.Helper()
	prefix := filepath.Join(t.TempDir(), "prog")
	w, err := asmwriter.New(prefix)
	require.NoError(t, err)
	return New(w), w, prefix
}

func consolidate(t *testing.T, w *asmwriter.Writer, prefix string) string {
	t.Helper()
	require.NoError(t, w.Consolidate())
	out, err := os.ReadFile(prefix + ".asm")
	require.NoError(t, err)
	return string(out)
}

func TestEmitter_BasicInstructions(t *testing.T) {
	e, w, prefix := newTestEmitter(t)
	e.Global("main")
	e.Label("main")
	e.Push(RBP)
	e.Mov(RBP, RSP)
	e.MovImm(RDI, 5, "literal int")
	e.Call("lispvalue_create_int")
	e.Pop(RBP)
	e.Ret()

	content := consolidate(t, w, prefix)
	assert.Contains(t, content, "\tglobal main\n")
	assert.Contains(t, content, "main:\n")
	assert.Contains(t, content, "\tpush rbp\n")
	assert.Contains(t, content, "\tmov rbp, rsp\n")
	assert.Contains(t, content, "\tmov rdi, 5 ; literal int\n")
	assert.Contains(t, content, "\tcall lispvalue_create_int\n")
	assert.Contains(t, content, "\tret\n")
}

func TestEmitter_MemoryOperands(t *testing.T) {
	e, w, prefix := newTestEmitter(t)
	e.MovFromMem(RAX, RBP, -8)
	e.MovToMem(RBP, -16, RAX)
	e.MovFromLabel(RAX, "global_var_x")

	content := consolidate(t, w, prefix)
	assert.Contains(t, content, "mov rax, [rbp-8]")
	assert.Contains(t, content, "mov [rbp-16], rax")
	assert.Contains(t, content, "mov rax, [global_var_x]")
}

func TestEmitter_MovsdRequiresXMMEndpoint(t *testing.T) {
	e, _, _ := newTestEmitter(t)
	assert.Panics(t, func() { e.Movsd(RAX, RCX) })
	assert.NotPanics(t, func() { e.Movsd(XMM0, RAX) })
}

func TestEmitter_DataEmitters(t *testing.T) {
	e, w, prefix := newTestEmitter(t)
	e.DataZero("global_var_x")
	e.DataInt("L_int_1", 42)
	e.DataFloat("L_float_1", 3.5)
	e.DataString("L_str_1", "hi")

	content := consolidate(t, w, prefix)
	assert.Contains(t, content, "global_var_x: dq 0")
	assert.Contains(t, content, "L_int_1: dq 42")
	assert.Contains(t, content, "L_float_1: dq 3.5")
	assert.Contains(t, content, "L_str_1: db 104, 105, 0")
}

func TestEmitter_AddSubSkipZero(t *testing.T) {
	e, w, prefix := newTestEmitter(t)
	e.AddImm(RSP, 0)
	e.AddImm(RSP, 16)
	e.SubImm(RSP, 0)

	content := consolidate(t, w, prefix)
	assert.NotContains(t, content, "add rsp, 0")
	assert.Contains(t, content, "add rsp, 16")
	assert.NotContains(t, content, "sub rsp, 0")
}
