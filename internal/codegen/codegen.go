// Package codegen walks a scope-resolved AST and emits a complete
// NASM x86-64 assembly program against the boxed-value runtime ABI
// spec.md's §6 fixes: every value lives on the heap behind a tagged
// union pointer, primitives are runtime calls, and first-class
// functions are heap closures capturing cells.
package codegen

import (
	"fmt"

	"github.com/tinylisp/lispc/internal/emit"

	"github.com/tinylisp/lispc/internal/ast"
	"github.com/tinylisp/lispc/internal/asmwriter"
	"github.com/tinylisp/lispc/internal/codegenenv"
	"github.com/tinylisp/lispc/internal/config"
)

// runtimeExterns lists the runtime entry points the generated
// program calls directly, independent of which builtins a given
// program happens to use.
var runtimeExterns = []string{
	"lispvalue_create_int",
	"lispvalue_create_float",
	"lispvalue_create_bool",
	"lispvalue_create_closure",
	"lispcell_create",
	"lispvalue_create_cell",
	"lisp_is_truthy",
}

// builtinOrder and builtinTable together are the fixed mapping from
// surface operator names to the runtime symbols that implement them.
// builtinOrder exists purely so the prologue's extern declarations
// come out in a deterministic order.
var builtinOrder = []string{"print-debug", "+", "-", "*", "="}

var builtinTable = map[string]string{
	"print-debug": "lisp_print",
	"+":           "lisp_add",
	"-":           "lisp_subtract",
	"*":           "lisp_multiply",
	"=":           "lisp_equal",
}

// variadicBuiltins fold left-to-right over more than two arguments;
// see spec.md's design note on "(- 10 3 2)" preserving left-fold
// Scheme semantics.
var variadicBuiltins = map[string]bool{"+": true, "-": true, "*": true}

// closureHeaderSize is the byte offset of the first captured value in
// a closure object, per spec.md §6's fixed layout: tag, code_ptr,
// arity, num_free, each 8 bytes.
const closureHeaderSize = 32

// Compiler holds the state threaded through one compile: the output
// writer, the instruction emitter, and the variable-location
// environment.
type Compiler struct {
	writer  *asmwriter.Writer
	emitter *emit.Emitter
	env     *codegenenv.Env
}

// Compile emits outputPrefix+".asm" for program. program must be the
// output of a parse with no recorded errors; reaching a Quote or a
// string Literal here is a fatal programming error, reported as a
// plain error rather than a positioned diagnostic (see spec.md §7).
// cfg.EmitComments controls whether the generated assembly carries
// "; <comment>" trailers.
func Compile(program []ast.Node, outputPrefix string, cfg config.Config) (err error) {
	writer, openErr := asmwriter.New(outputPrefix)
	if openErr != nil {
		return openErr
	}

	emitter := emit.New(writer)
	emitter.EmitComments = cfg.EmitComments

	c := &Compiler{
		writer:  writer,
		emitter: emitter,
		env:     codegenenv.New(),
	}

	defer func() {
		if r := recover(); r != nil {
			writer.Close()
			err = fmt.Errorf("codegen: %v", r)
		}
	}()

	c.prologue()
	for _, node := range program {
		c.env.ResetStackOffset(0)
		c.genNode(node)
	}
	c.epilogue()

	return writer.Consolidate()
}

func (c *Compiler) prologue() {
	c.emitter.Global("main")
	for _, sym := range runtimeExterns {
		c.emitter.Extern(sym)
	}
	for _, name := range builtinOrder {
		c.emitter.Extern(builtinTable[name])
	}
	c.emitter.Label("main")
	c.emitter.Push(emit.RBP)
	c.emitter.Mov(emit.RBP, emit.RSP)
}

func (c *Compiler) epilogue() {
	c.emitter.MovImm(emit.RAX, 60, "exit")
	c.emitter.MovImm(emit.RDI, 0)
	c.emitter.Syscall()
}

// genNode dispatches on the AST variant, leaving every node's result
// (a boxed-value pointer) in rax.
func (c *Compiler) genNode(node ast.Node) {
	switch n := node.(type) {
	case *ast.Literal:
		c.genLiteral(n)
	case *ast.Variable:
		c.genVariable(n)
	case *ast.Function:
		c.genFunction(n, "")
	case *ast.Call:
		c.genCall(n)
	case *ast.If:
		c.genIf(n)
	case *ast.Def:
		c.genDef(n)
	case *ast.Let:
		c.genLet(n)
	case *ast.Quote:
		panic("quote is not compiled: reached codegen with an unimplemented AST variant")
	case *ast.Placeholder:
		panic("placeholder node reached codegen")
	default:
		panic(fmt.Sprintf("unhandled AST node type %T", node))
	}
}
