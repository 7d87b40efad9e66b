package codegen

import (
	"fmt"

	"github.com/tinylisp/lispc/internal/ast"
	"github.com/tinylisp/lispc/internal/codegenenv"
	"github.com/tinylisp/lispc/internal/emit"
)

func (c *Compiler) genLiteral(n *ast.Literal) {
	switch n.Kind {
	case ast.Int:
		c.emitter.MovImm(emit.RDI, n.IntVal)
		c.emitter.Call("lispvalue_create_int")
	case ast.Float:
		label := c.env.NextLabel("L_float")
		c.emitter.DataFloat(label, n.FloatVal)
		c.emitter.MovsdFromLabel(label)
		c.emitter.Call("lispvalue_create_float")
	case ast.Bool:
		v := int64(0)
		if n.BoolVal {
			v = 1
		}
		c.emitter.MovImm(emit.RDI, v)
		c.emitter.Call("lispvalue_create_bool")
	case ast.String:
		panic("string literals are not compiled: reached codegen with an unimplemented AST variant")
	default:
		panic(fmt.Sprintf("unhandled literal kind %v", n.Kind))
	}
}

func (c *Compiler) genVariable(n *ast.Variable) {
	loc, ok := c.env.Lookup(n.Name)
	if !ok {
		panic(fmt.Sprintf("no codegen location for variable '%s' (reserved but unimplemented builtin?)", n.Name))
	}
	switch loc.Kind {
	case codegenenv.Global:
		c.emitter.MovFromLabel(emit.RAX, loc.GlobalLabel)
	case codegenenv.Stack:
		c.emitter.MovFromMem(emit.RAX, emit.RBP, loc.StackOffset)
	case codegenenv.CapturedEnv:
		c.genCapturedLoad(loc.EnvIndex)
	default:
		panic(fmt.Sprintf("unhandled VarLocation kind %v", loc.Kind))
	}
}

// genCapturedLoad implements the three-step indirect load for an
// Env(index) location: slot -> cell-box -> cell -> boxed value.
func (c *Compiler) genCapturedLoad(index int) {
	offset := closureHeaderSize + index*8
	c.emitter.MovFromMem(emit.RAX, emit.R12, offset, "captured slot (cell-box)")
	c.emitter.MovFromMem(emit.RAX, emit.RAX, 0, "cell")
	c.emitter.MovFromMem(emit.RAX, emit.RAX, 0, "boxed value")
}

// genDef implements spec.md §4.6.1's Def generation: a Function value
// gets its global slot reserved before the function body is built (so
// label ordering matches the documented layout); any other value is
// generated first, then stored.
func (c *Compiler) genDef(n *ast.Def) {
	if fn, ok := n.Value.(*ast.Function); ok {
		label := c.env.AddGlobalVariable(n.Name)
		c.emitter.DataZero(label)
		c.genFunction(fn, n.Name)
		c.emitter.MovToLabel(label, emit.RAX)
		return
	}
	c.genNode(n.Value)
	label := c.env.AddGlobalVariable(n.Name)
	c.emitter.DataZero(label)
	c.emitter.MovToLabel(label, emit.RAX)
}

// genLet pushes each binding's value onto the stack in order,
// recording its location, then evaluates the body; the last
// expression's rax is the Let's result.
func (c *Compiler) genLet(n *ast.Let) {
	saved := c.env.GetStackOffset()
	c.env.EnterScope()
	for _, binding := range n.Bindings {
		c.genNode(binding.Value)
		c.emitter.Push(emit.RAX, "let binding "+binding.Name)
		c.env.AddStackVariable(binding.Name)
	}
	for _, expr := range n.Body {
		c.genNode(expr)
	}
	if len(n.Bindings) > 0 {
		c.emitter.AddImm(emit.RSP, int64(len(n.Bindings)*8))
	}
	c.env.SetStackOffset(saved)
	c.env.ExitScope()
}

// genIf mints a matched else/end-if label pair and emits the standard
// truthiness-test-then-branch shape.
func (c *Compiler) genIf(n *ast.If) {
	id := c.env.NextID()
	elseLabel := fmt.Sprintf("L_else_%d", id)
	endLabel := fmt.Sprintf("L_end_if_%d", id)

	c.genNode(n.Cond)
	c.emitter.Mov(emit.RDI, emit.RAX)
	c.emitter.Call("lisp_is_truthy")
	c.emitter.Cmp(emit.RAX, 0)
	c.emitter.Je(elseLabel)

	c.genNode(n.Then)
	c.emitter.Jmp(endLabel)

	c.emitter.Label(elseLabel)
	if n.Else != nil {
		c.genNode(n.Else)
	} else {
		c.emitter.Xor(emit.RAX, emit.RAX)
	}
	c.emitter.Label(endLabel)
}
