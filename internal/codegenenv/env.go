// Package codegenenv tracks where the code generator has put each
// live variable — on the stack, in a global label, or in a closure's
// captured-environment array — plus the per-function stack-offset
// cursor and a monotonic label counter shared across one compile.
package codegenenv

import (
	"fmt"
	"strings"
)

// LocationKind tags which of the three storage classes a variable
// lives in.
type LocationKind int

const (
	Stack LocationKind = iota
	Global
	CapturedEnv
)

// Location is where one variable lives, resolved at code-generation
// time from the lexical scope it was declared in.
type Location struct {
	Kind        LocationKind
	StackOffset int    // Stack: signed byte offset from rbp
	GlobalLabel string // Global: e.g. "global_var_x"
	EnvIndex    int    // CapturedEnv: index into the closure's free_vars array
}

type scope map[string]Location

// Env is the code generator's scope stack: one frame per function
// body or let-block currently being compiled, plus the always-present
// global frame at the bottom.
type Env struct {
	scopes             []scope
	currentStackOffset int
	labelCounter       int
}

// New creates an Env with just the global scope pushed.
func New() *Env {
	return &Env{scopes: []scope{make(scope)}}
}

// EnterScope pushes a fresh, empty scope (a new function body or a
// let-block).
func (e *Env) EnterScope() {
	e.scopes = append(e.scopes, make(scope))
}

// ExitScope pops the innermost scope. It is a programming error to
// call this on the global scope.
func (e *Env) ExitScope() {
	if len(e.scopes) <= 1 {
		panic("codegenenv: cannot exit the global scope")
	}
	e.scopes = e.scopes[:len(e.scopes)-1]
}

// AddStackVariable allocates the next 8-byte stack slot for name in
// the current scope and returns its rbp-relative offset.
func (e *Env) AddStackVariable(name string) int {
	e.currentStackOffset -= 8
	e.top()[name] = Location{Kind: Stack, StackOffset: e.currentStackOffset}
	return e.currentStackOffset
}

// AddGlobalVariable assigns name a sanitized global label in the
// global scope and returns that label.
func (e *Env) AddGlobalVariable(name string) string {
	label := "global_var_" + sanitizeForLabel(name)
	e.scopes[0][name] = Location{Kind: Global, GlobalLabel: label}
	return label
}

// AddFreeVariable records that name is captured from the enclosing
// closure's environment at the given index, in the current (the
// compiling function's) scope.
func (e *Env) AddFreeVariable(name string, index int) {
	e.top()[name] = Location{Kind: CapturedEnv, EnvIndex: index}
}

// Lookup searches the scope stack from innermost outward.
func (e *Env) Lookup(name string) (Location, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if loc, ok := e.scopes[i][name]; ok {
			return loc, true
		}
	}
	return Location{}, false
}

func (e *Env) top() scope {
	return e.scopes[len(e.scopes)-1]
}

// ResetStackOffset sets the stack-offset cursor to initial; call this
// when starting a new function body (the prologue's reserved space
// begins at 0 and grows negative).
func (e *Env) ResetStackOffset(initial int) {
	e.currentStackOffset = initial
}

func (e *Env) GetStackOffset() int { return e.currentStackOffset }

func (e *Env) SetStackOffset(offset int) { e.currentStackOffset = offset }

// AddStackSpace reserves bytes more of stack (moving the cursor more
// negative), e.g. for a spilled call argument. bytes must be a
// multiple of 8.
func (e *Env) AddStackSpace(bytes int) {
	if bytes%8 != 0 {
		panic("codegenenv: stack space must be a multiple of 8")
	}
	e.currentStackOffset -= bytes
}

// RemoveStackSpace gives back bytes of previously reserved stack.
// bytes must be a multiple of 8.
func (e *Env) RemoveStackSpace(bytes int) {
	if bytes%8 != 0 {
		panic("codegenenv: stack space must be a multiple of 8")
	}
	e.currentStackOffset += bytes
}

// NextLabel mints a fresh, compile-unique label of the form
// "<prefix>_<n>", e.g. "L_else_3". The counter is per-Env (so per
// compile), not process-global, so repeated compiles in the same
// process (as in tests) never collide with each other's confusion
// potential while still being unique within one compile's output.
func (e *Env) NextLabel(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, e.NextID())
}

// NextID mints the next raw numeric suffix, for callers that need the
// same number to build a matched pair of labels (e.g. "L_func_3" and
// "L_func_end_3").
func (e *Env) NextID() int {
	e.labelCounter++
	return e.labelCounter
}

func sanitizeForLabel(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
