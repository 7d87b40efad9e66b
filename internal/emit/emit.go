// Package emit is a thin, strongly-typed API over the assembly
// writer: one method per instruction shape the code generator needs,
// so the generator itself never hand-formats a NASM mnemonic string.
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinylisp/lispc/internal/asmwriter"
)

// Reg names one of the fixed register operands the emitter accepts.
type Reg string

const (
	RAX  Reg = "rax"
	RCX  Reg = "rcx"
	RDX  Reg = "rdx"
	RBX  Reg = "rbx"
	RSP  Reg = "rsp"
	RBP  Reg = "rbp"
	RSI  Reg = "rsi"
	RDI  Reg = "rdi"
	R8   Reg = "r8"
	R9   Reg = "r9"
	R10  Reg = "r10"
	R11  Reg = "r11"
	R12  Reg = "r12"
	R13  Reg = "r13"
	R14  Reg = "r14"
	R15  Reg = "r15"
	XMM0 Reg = "xmm0"
)

// ArgRegs is the System V AMD64 integer argument-register order.
var ArgRegs = [6]Reg{RDI, RSI, RDX, RCX, R8, R9}

func (r Reg) isXMM() bool { return strings.HasPrefix(string(r), "xmm") }

// Emitter wraps an asmwriter.Writer with one method per instruction
// shape. Every emitter accepts a variadic comment: if present, its
// first element is appended to the line as "; <comment>", unless
// EmitComments is false.
type Emitter struct {
	w            *asmwriter.Writer
	EmitComments bool
}

// New wraps w with comments enabled by default.
func New(w *asmwriter.Writer) *Emitter {
	return &Emitter{w: w, EmitComments: true}
}

func (e *Emitter) suffix(comment []string) string {
	if !e.EmitComments || len(comment) == 0 || comment[0] == "" {
		return ""
	}
	return " ; " + comment[0]
}

func (e *Emitter) line(format string, args ...interface{}) {
	e.w.WriteText(format, args...)
}

// Label emits a bare "<name>:" line.
func (e *Emitter) Label(name string) {
	e.line("%s:", name)
}

// Global emits "global <name>".
func (e *Emitter) Global(name string) {
	e.line("global %s", name)
}

// Extern emits "extern <name>".
func (e *Emitter) Extern(name string) {
	e.line("extern %s", name)
}

// Comment emits a standalone comment line.
func (e *Emitter) Comment(format string, args ...interface{}) {
	e.line("; "+format, args...)
}

// Mov emits "mov <dst>, <src>" between two GPRs.
func (e *Emitter) Mov(dst, src Reg, comment ...string) {
	e.line("mov %s, %s%s", dst, src, e.suffix(comment))
}

// MovImm emits "mov <dst>, <imm>".
func (e *Emitter) MovImm(dst Reg, imm int64, comment ...string) {
	e.line("mov %s, %d%s", dst, imm, e.suffix(comment))
}

// MovFromMem emits "mov <dst>, [<base> + <offset>]" (offset may be
// negative; zero is rendered without a sign).
func (e *Emitter) MovFromMem(dst, base Reg, offset int, comment ...string) {
	e.line("mov %s, [%s%s]%s", dst, base, offsetTerm(offset), e.suffix(comment))
}

// MovLabelAddr emits "mov <dst>, <label>" — loads the label's address
// itself (no brackets), e.g. to pass a function's entry point as a
// value.
func (e *Emitter) MovLabelAddr(dst Reg, label string, comment ...string) {
	e.line("mov %s, %s%s", dst, label, e.suffix(comment))
}

// MovFromLabel emits "mov <dst>, [<label>]".
func (e *Emitter) MovFromLabel(dst Reg, label string, comment ...string) {
	e.line("mov %s, [%s]%s", dst, label, e.suffix(comment))
}

// MovToMem emits "mov [<base> + <offset>], <src>".
func (e *Emitter) MovToMem(base Reg, offset int, src Reg, comment ...string) {
	e.line("mov [%s%s], %s%s", base, offsetTerm(offset), src, e.suffix(comment))
}

// MovToLabel emits "mov [<label>], <src>".
func (e *Emitter) MovToLabel(label string, src Reg, comment ...string) {
	e.line("mov [%s], %s%s", label, src, e.suffix(comment))
}

// Movsd emits a scalar-double move; dst or src must be xmm0, per
// spec.md's register-placement assertion.
func (e *Emitter) Movsd(dst, src Reg, comment ...string) {
	if !dst.isXMM() && !src.isXMM() {
		panic("emit: movsd requires an xmm0 endpoint")
	}
	e.line("movsd %s, %s%s", dst, src, e.suffix(comment))
}

// MovsdFromLabel emits "movsd xmm0, [<label>]".
func (e *Emitter) MovsdFromLabel(label string, comment ...string) {
	e.line("movsd %s, [%s]%s", XMM0, label, e.suffix(comment))
}

func offsetTerm(offset int) string {
	if offset == 0 {
		return ""
	}
	if offset > 0 {
		return fmt.Sprintf("+%d", offset)
	}
	return fmt.Sprintf("%d", offset)
}

// Push emits "push <reg>".
func (e *Emitter) Push(reg Reg, comment ...string) {
	if reg.isXMM() {
		panic("emit: cannot push an xmm register")
	}
	e.line("push %s%s", reg, e.suffix(comment))
}

// PushImm emits "push <imm>".
func (e *Emitter) PushImm(imm int64, comment ...string) {
	e.line("push %d%s", imm, e.suffix(comment))
}

// PushMem emits "push qword [<label>]".
func (e *Emitter) PushMem(label string, comment ...string) {
	e.line("push qword [%s]%s", label, e.suffix(comment))
}

// Pop emits "pop <reg>".
func (e *Emitter) Pop(reg Reg, comment ...string) {
	if reg.isXMM() {
		panic("emit: cannot pop an xmm register")
	}
	e.line("pop %s%s", reg, e.suffix(comment))
}

// Call emits "call <label>".
func (e *Emitter) Call(label string, comment ...string) {
	e.line("call %s%s", label, e.suffix(comment))
}

// CallReg emits "call <reg>".
func (e *Emitter) CallReg(reg Reg, comment ...string) {
	e.line("call %s%s", reg, e.suffix(comment))
}

// Ret emits "ret".
func (e *Emitter) Ret() {
	e.line("ret")
}

// Jmp emits "jmp <label>".
func (e *Emitter) Jmp(label string) {
	e.line("jmp %s", label)
}

// Je emits "je <label>".
func (e *Emitter) Je(label string) {
	e.line("je %s", label)
}

// Jne emits "jne <label>".
func (e *Emitter) Jne(label string) {
	e.line("jne %s", label)
}

// Cmp emits "cmp <reg>, <imm>".
func (e *Emitter) Cmp(reg Reg, imm int64, comment ...string) {
	e.line("cmp %s, %d%s", reg, imm, e.suffix(comment))
}

// Xor emits "xor <dst>, <src>" (used to zero a register; notably
// "xor rax, rax" before every variadic runtime call per the System V
// convention for vector-register counts).
func (e *Emitter) Xor(dst, src Reg) {
	e.line("xor %s, %s", dst, src)
}

// AddImm emits "add <reg>, <imm>".
func (e *Emitter) AddImm(reg Reg, imm int64, comment ...string) {
	if imm == 0 {
		return
	}
	e.line("add %s, %d%s", reg, imm, e.suffix(comment))
}

// SubImm emits "sub <reg>, <imm>".
func (e *Emitter) SubImm(reg Reg, imm int64, comment ...string) {
	if imm == 0 {
		return
	}
	e.line("sub %s, %d%s", reg, imm, e.suffix(comment))
}

// Syscall emits "syscall".
func (e *Emitter) Syscall() {
	e.line("syscall")
}

// DataInt emits "<label>: dq <value>" in .data.
func (e *Emitter) DataInt(label string, value int64) {
	e.w.WriteData("%s: dq %d", label, value)
}

// DataFloat emits "<label>: dq <value>" in .data, formatted so NASM
// parses it as a floating-point constant.
func (e *Emitter) DataFloat(label string, value float64) {
	s := strconv.FormatFloat(value, 'g', -1, 64)
	if !strings.Contains(s, ".") {
		// NASM reads a constant without a period as an integer.
		if i := strings.IndexByte(s, 'e'); i >= 0 {
			s = s[:i] + ".0" + s[i:]
		} else {
			s += ".0"
		}
	}
	e.w.WriteData("%s: dq %s", label, s)
}

// DataZero emits "<label>: dq 0" — a reserved, zero-initialized
// global slot.
func (e *Emitter) DataZero(label string) {
	e.w.WriteData("%s: dq 0", label)
}

// DataString emits "<label>: db <byte>, <byte>, ..., 0" — a
// zero-terminated byte sequence. Part of the documented instruction-
// emitter surface; the code generator never calls it, since
// spec.md's Non-goals exclude strings as a compiled runtime value.
func (e *Emitter) DataString(label, value string) {
	bytes := make([]string, 0, len(value)+1)
	for i := 0; i < len(value); i++ {
		bytes = append(bytes, strconv.Itoa(int(value[i])))
	}
	bytes = append(bytes, "0")
	e.w.WriteData("%s: db %s", label, strings.Join(bytes, ", "))
}
