// Package parserenv implements the parser's lexical scope chain and
// the free-variable bookkeeping codegen needs for closure conversion.
package parserenv

import "github.com/tinylisp/lispc/internal/ast"

// builtinNames seeds the global scope so that references to any of
// these resolve even though nothing ever assigns them a real value.
var builtinNames = []string{
	"+", "-", "*", "/", "=", "<", ">", "<=", ">=",
	"let", "lambda", "if", "def", "quote", "print-debug",
}

// Placeholder is the sentinel value bound for names that are in
// scope but have no codegen-relevant node yet (parameters, and a
// function's own name while its body is being parsed).
var Placeholder ast.Node = &ast.Placeholder{}

// scope is one frame of the lexical scope chain.
type scope struct {
	vars       map[string]ast.Node
	parent     *scope
	isGlobal   bool
	isFunction bool
	freeVars   map[string]bool
	freeOrder  []string // first-reference order, for determinism
}

func newScope(parent *scope, isGlobal, isFunction bool) *scope {
	return &scope{
		vars:       make(map[string]ast.Node),
		parent:     parent,
		isGlobal:   isGlobal,
		isFunction: isFunction,
		freeVars:   make(map[string]bool),
	}
}

func (s *scope) recordFree(name string) {
	if s.freeVars[name] {
		return
	}
	s.freeVars[name] = true
	s.freeOrder = append(s.freeOrder, name)
}

// Env is a stack of scopes rooted at a single global scope.
type Env struct {
	top *scope
}

// New creates an Env with the builtins pre-bound in the global scope.
func New() *Env {
	global := newScope(nil, true, false)
	for _, name := range builtinNames {
		global.vars[name] = Placeholder
	}
	return &Env{top: global}
}

// EnterFunction pushes a new function-body scope (for lambda/def
// function bodies): its free-variable set is what ends up as the
// owning ast.Function's FreeVars.
func (e *Env) EnterFunction() {
	e.top = newScope(e.top, false, true)
}

// EnterLet pushes a new non-function lexical scope (for let bodies).
func (e *Env) EnterLet() {
	e.top = newScope(e.top, false, false)
}

// ExitScope pops the innermost scope and returns the free-variable
// names it accumulated, in first-reference order. Valid for both
// function and let scopes, though only function scopes' results are
// ever consumed (a Let doesn't appear on the AST with its own
// free-variable list).
func (e *Env) ExitScope() []string {
	s := e.top
	e.top = s.parent
	return s.freeOrder
}

// Define binds name to node in the innermost scope. It reports
// whether name already existed in that exact scope (global
// redefinition is the only case spec.md treats specially, as a
// warning rather than an error).
func (e *Env) Define(name string, node ast.Node) (existed bool) {
	_, existed = e.top.vars[name]
	e.top.vars[name] = node
	return existed
}

// DefineGlobal binds name in the root scope regardless of current
// nesting; used for (def ...), which always produces a global.
func (e *Env) DefineGlobal(name string, node ast.Node) (existed bool) {
	root := e.top
	for root.parent != nil {
		root = root.parent
	}
	_, existed = root.vars[name]
	root.vars[name] = node
	return existed
}

// Lookup searches the scope chain innermost-outward. A hit in a
// non-global scope that lies outside the nearest enclosing function
// scope is recorded as a free variable of that function scope; names
// bound by the function itself (its parameters) or by let scopes
// inside it are local and are not recorded.
func (e *Env) Lookup(name string) (ast.Node, bool) {
	innermost := e.top
	for s := e.top; s != nil; s = s.parent {
		node, ok := s.vars[name]
		if !ok {
			continue
		}
		if s != innermost && !s.isGlobal {
			markFreeInNearestFunction(innermost, s, name)
		}
		return node, true
	}
	return nil, false
}

func markFreeInNearestFunction(from, owner *scope, name string) {
	for s := from; s != nil && s != owner; s = s.parent {
		if s.isFunction {
			s.recordFree(name)
			return
		}
		if s.isGlobal {
			return
		}
	}
}
