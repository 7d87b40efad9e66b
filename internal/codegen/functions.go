package codegen

import (
	"fmt"

	"github.com/tinylisp/lispc/internal/ast"
	"github.com/tinylisp/lispc/internal/codegenenv"
	"github.com/tinylisp/lispc/internal/emit"
)

// genFunction emits both phases spec.md §4.6.2 describes: the
// function body at a fresh L_func_n (jumped over so control never
// falls into it), then the closure-object construction at the call
// site the Function node occupies. ownerDefName is the name of the
// def whose value this function is, for both (def (name ...) ...) and
// (def name (lambda ...)), or "" for a lambda not bound directly by a
// def; it is compared against each free variable to detect the
// self-reference sentinel case.
func (c *Compiler) genFunction(fn *ast.Function, ownerDefName string) {
	id := c.env.NextID()
	funcLabel := fmt.Sprintf("L_func_%d", id)
	endLabel := fmt.Sprintf("L_func_end_%d", id)

	c.emitter.Jmp(endLabel)

	displayName := fn.Name
	if displayName == "" {
		displayName = "anonymous"
	}
	c.emitter.Comment("function %s", displayName)
	c.emitter.Label(funcLabel)
	c.emitter.Push(emit.RBP)
	c.emitter.Mov(emit.RBP, emit.RSP)

	enclosingOffset := c.env.GetStackOffset()
	c.env.EnterScope()
	c.env.ResetStackOffset(0)
	c.emitter.Push(emit.R12, "save caller's closure pointer")
	c.env.AddStackSpace(8)

	for i, param := range fn.Params {
		if i < 6 {
			c.emitter.Push(emit.ArgRegs[i], "param "+param)
		} else {
			offset := 16 + (i-6)*8
			c.emitter.MovFromMem(emit.RAX, emit.RBP, offset, "stack-passed param "+param)
			c.emitter.Push(emit.RAX, "param "+param)
		}
		c.env.AddStackVariable(param)
	}

	for i, name := range fn.FreeVars {
		c.env.AddFreeVariable(name, i)
	}

	for _, expr := range fn.Body {
		c.genNode(expr)
	}

	c.emitter.Pop(emit.R12)
	c.emitter.Mov(emit.RSP, emit.RBP)
	c.emitter.Pop(emit.RBP)
	c.emitter.Ret()
	c.env.ExitScope()
	c.env.SetStackOffset(enclosingOffset)

	c.emitter.Label(endLabel)

	c.genClosureBuild(fn, funcLabel, ownerDefName)
}

// genClosureBuild implements phase B: allocate the heap closure
// object via the variadic lispvalue_create_closure runtime call.
func (c *Compiler) genClosureBuild(fn *ast.Function, funcLabel, ownerDefName string) {
	m := len(fn.FreeVars)

	// Push captured values in reverse order so their relative order
	// after all pushes matches fn.FreeVars.
	for i := m - 1; i >= 0; i-- {
		c.pushCapturedValue(fn.FreeVars[i], ownerDefName)
	}

	c.emitter.MovLabelAddr(emit.RDI, funcLabel, "code_ptr")
	c.emitter.MovImm(emit.RSI, int64(len(fn.Params)), "arity")
	c.emitter.MovImm(emit.RDX, int64(m), "num_free")

	variadicRegs := [3]emit.Reg{emit.RCX, emit.R8, emit.R9}
	leading := m
	if leading > 3 {
		leading = 3
	}
	for i := 0; i < leading; i++ {
		c.emitter.Pop(variadicRegs[i])
	}

	c.emitter.Xor(emit.RAX, emit.RAX)
	c.emitter.Call("lispvalue_create_closure")

	if m > 3 {
		c.emitter.AddImm(emit.RSP, int64((m-3)*8))
	}
}

// pushCapturedValue pushes one free variable's value in the form the
// new closure's free_vars array expects: a plain global word, a
// freshly boxed cell for a stack local, the self-reference sentinel,
// or a cell pointer already carried by the enclosing closure.
func (c *Compiler) pushCapturedValue(name, ownerDefName string) {
	if ownerDefName != "" && name == ownerDefName {
		c.emitter.PushImm(0, "self-reference sentinel")
		return
	}

	loc, ok := c.env.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("no codegen location for captured variable '%s'", name))
	}

	switch loc.Kind {
	case codegenenv.Global:
		c.emitter.PushMem(loc.GlobalLabel)
	case codegenenv.Stack:
		c.emitter.MovFromMem(emit.RDI, emit.RBP, loc.StackOffset)
		c.emitter.Call("lispcell_create")
		c.emitter.Mov(emit.RDI, emit.RAX)
		c.emitter.Call("lispvalue_create_cell")
		c.emitter.Push(emit.RAX)
	case codegenenv.CapturedEnv:
		offset := closureHeaderSize + loc.EnvIndex*8
		c.emitter.MovFromMem(emit.RAX, emit.R12, offset, "existing captured cell")
		c.emitter.Push(emit.RAX)
	default:
		panic(fmt.Sprintf("unhandled VarLocation kind %v", loc.Kind))
	}
}
