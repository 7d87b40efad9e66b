// Package ast defines the tagged node variants produced by the
// parser and consumed by the code generator.
//
// Nodes are plain structs satisfying the Node interface; the code
// generator dispatches on concrete type with a type switch rather
// than a visitor, since the node set is small and fixed (spec.md
// never asks for extensibility here).
package ast

import "github.com/tinylisp/lispc/internal/token"

// Node is the common interface every AST node implements.
type Node interface {
	// Loc returns the source span the node was parsed from.
	Loc() token.Location
}

// LiteralKind tags the payload of a Literal node.
type LiteralKind int

const (
	Int LiteralKind = iota
	Float
	String // reserved: parsed, never reachable by codegen
	Bool
)

// Literal is a self-evaluating constant: an integer, float, string
// (unreachable past parsing), or boolean.
type Literal struct {
	Location token.Location
	Kind     LiteralKind
	IntVal   int64
	FloatVal float64
	StrVal   string
	BoolVal  bool
}

func (n *Literal) Loc() token.Location { return n.Location }

// Variable is a reference to a name that resolved to a binding in
// some enclosing scope at parse time (global, local, or captured).
type Variable struct {
	Location token.Location
	Name     string
}

func (n *Variable) Loc() token.Location { return n.Location }

// Function is a lambda: zero or more parameters, the names it
// captures from enclosing non-global scopes (in first-reference
// order), and a non-empty body.
type Function struct {
	Location token.Location
	Name     string // "" for anonymous lambdas; set for (def (name ...) ...)
	Params   []string
	FreeVars []string
	Body     []Node
}

func (n *Function) Loc() token.Location { return n.Location }

// Call applies Callee to Args.
type Call struct {
	Location token.Location
	Callee   Node
	Args     []Node
}

func (n *Call) Loc() token.Location { return n.Location }

// If is a conditional; Else is nil when the two-armed form was used.
type If struct {
	Location token.Location
	Cond     Node
	Then     Node
	Else     Node
}

func (n *If) Loc() token.Location { return n.Location }

// Def binds Name to the value of Value in the global scope.
type Def struct {
	Location token.Location
	Name     string
	Value    Node
}

func (n *Def) Loc() token.Location { return n.Location }

// LetBinding is one (name expr) pair inside a Let form.
type LetBinding struct {
	Name  string
	Value Node
}

// Let sequentially binds Bindings (each visible to later ones) and
// evaluates Body in the resulting scope.
type Let struct {
	Location token.Location
	Bindings []LetBinding
	Body     []Node
}

func (n *Let) Loc() token.Location { return n.Location }

// Quote wraps an unevaluated inner expression. Parsed but never
// reachable by codegen (spec.md's Non-goals exclude quote/quasiquote
// semantics; reaching this node during code generation is a fatal
// programming error, not a user-facing one).
type Quote struct {
	Location token.Location
	Inner    Node
}

func (n *Quote) Loc() token.Location { return n.Location }

// Placeholder marks a name that is in scope but has no codegen-
// relevant value yet: function parameters during body parsing, and
// the name a (def (f ...) ...) binds to itself before its body is
// parsed (enabling recursive self-reference).
type Placeholder struct {
	Location token.Location
}

func (n *Placeholder) Loc() token.Location { return n.Location }
