package codegen

import (
	"github.com/tinylisp/lispc/internal/ast"
	"github.com/tinylisp/lispc/internal/emit"
)

// genCall dispatches between the builtin call path (callee is a
// Variable whose name is in the fixed builtin-name table) and the
// general closure-call path.
func (c *Compiler) genCall(call *ast.Call) {
	saved := c.env.GetStackOffset()
	defer c.env.SetStackOffset(saved)
	if v, ok := call.Callee.(*ast.Variable); ok {
		if label, isBuiltin := builtinTable[v.Name]; isBuiltin {
			c.genBuiltinCall(v.Name, label, call.Args)
			return
		}
	}
	c.genClosureCall(call)
}

// pushArgsRightmostFirst evaluates args in source (left-to-right)
// order but pushes them rightmost-first, so after all pushes argument
// 0 sits on top of the stack. Each push moves the stack-offset cursor,
// so a let evaluated inside a later argument binds below the pushed
// values; genCall restores the cursor once the call is complete.
func (c *Compiler) pushArgsRightmostFirst(args []ast.Node) {
	for i := len(args) - 1; i >= 0; i-- {
		c.genNode(args[i])
		c.emitter.Push(emit.RAX)
		c.env.AddStackSpace(8)
	}
}

func (c *Compiler) genBuiltinCall(name, label string, args []ast.Node) {
	if variadicBuiltins[name] && len(args) > 2 {
		c.genVariadicFold(label, args)
		return
	}

	c.pushArgsRightmostFirst(args)

	regCount := len(args)
	if regCount > 6 {
		regCount = 6
	}
	for i := 0; i < regCount; i++ {
		c.emitter.Pop(emit.ArgRegs[i])
	}
	c.emitter.Call(label)
	if len(args) > 6 {
		c.emitter.AddImm(emit.RSP, int64((len(args)-6)*8))
	}
}

// genVariadicFold implements the left-fold for "+ - *" called with
// more than two arguments: pop the first two, call, then repeatedly
// fold in each remaining popped argument against the running result.
func (c *Compiler) genVariadicFold(label string, args []ast.Node) {
	c.pushArgsRightmostFirst(args)

	c.emitter.Pop(emit.RDI)
	c.emitter.Pop(emit.RSI)
	c.emitter.Call(label)

	for i := 2; i < len(args); i++ {
		c.emitter.Mov(emit.RDI, emit.RAX)
		c.emitter.Pop(emit.RSI)
		c.emitter.Call(label)
	}
}

// genClosureCall evaluates the callee to a closure pointer, saves it
// in r12 (the register a function body reads its captured
// environment through), and invokes its code_ptr.
func (c *Compiler) genClosureCall(call *ast.Call) {
	c.pushArgsRightmostFirst(call.Args)

	c.genNode(call.Callee)
	c.emitter.Mov(emit.R12, emit.RAX, "callee closure pointer")

	regCount := len(call.Args)
	if regCount > 6 {
		regCount = 6
	}
	for i := 0; i < regCount; i++ {
		c.emitter.Pop(emit.ArgRegs[i])
	}

	c.emitter.MovFromMem(emit.RAX, emit.R12, 8, "code_ptr")
	c.emitter.CallReg(emit.RAX)

	if len(call.Args) > 6 {
		c.emitter.AddImm(emit.RSP, int64((len(call.Args)-6)*8))
	}
}
