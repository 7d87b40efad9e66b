// Package parser turns a lexer's token stream into a scope-resolved
// abstract syntax tree, recording free variables per function for
// the code generator's closure conversion.
//
// The parser is a straightforward recursive-descent implementation
// (the grammar has no operator precedence to resolve — every
// compound form is fully parenthesized) with single-token lookahead
// and panic-mode error recovery.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tinylisp/lispc/internal/ast"
	"github.com/tinylisp/lispc/internal/diag"
	"github.com/tinylisp/lispc/internal/lexer"
	"github.com/tinylisp/lispc/internal/parserenv"
	"github.com/tinylisp/lispc/internal/token"
)

// Parser holds the token stream, the current lookahead token, the
// parser-time scope chain, and accumulated diagnostics.
type Parser struct {
	lx        *lexer.Lexer
	cur       token.Token
	env       *parserenv.Env
	errors    []diag.Record
	panicMode bool
}

// New creates a Parser over src, primed with builtins pre-bound in
// the global scope (see parserenv.New) and its first lookahead token.
func New(src string) *Parser {
	p := &Parser{lx: lexer.New(src), env: parserenv.New()}
	p.nextToken()
	return p
}

// Parse consumes the whole token stream and returns the top-level
// program (one Node per top-level expression) plus every diagnostic
// recorded along the way. The caller must not proceed to code
// generation if diag.HasErrors reports true.
func (p *Parser) Parse() ([]ast.Node, []diag.Record) {
	var program []ast.Node
	p.skipTrivia()
	for p.cur.Kind != token.Eof {
		node, ok := p.parseExpr()
		if ok {
			program = append(program, node)
		} else {
			p.synchronize()
		}
		p.skipTrivia()
	}
	return program, p.errors
}

func (p *Parser) nextToken() {
	p.cur = p.lx.Next()
}

func (p *Parser) skipTrivia() {
	for p.cur.Kind == token.Whitespace || p.cur.Kind == token.Comment {
		p.nextToken()
	}
}

func (p *Parser) errorAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.errors = append(p.errors, diag.Record{Kind: diag.ErrorKind, Token: tok, Message: message})
}

func (p *Parser) warnAt(tok token.Token, message string) {
	if p.panicMode {
		return
	}
	p.errors = append(p.errors, diag.Record{Kind: diag.WarningKind, Token: tok, Message: message})
}

// synchronize discards tokens until it sees '(' or end of input,
// re-enabling error reporting; this is the sole recovery point after
// a cascade-suppressing panic.
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.cur.Kind != token.Eof {
		if p.cur.Kind == token.LParen {
			return
		}
		p.nextToken()
	}
}

// specialForms maps a list's head symbol to the parser that consumes
// the rest of the form, up to (but not including) its closing ')'.
var specialForms = map[string]func(*Parser, token.Location) (ast.Node, bool){
	"if":     (*Parser).parseIf,
	"def":    (*Parser).parseDef,
	"let":    (*Parser).parseLet,
	"lambda": (*Parser).parseLambda,
	"quote":  (*Parser).parseQuote,
}

// parseExpr parses exactly one expr per the grammar:
//
//	expr := atom | list | "'" expr
func (p *Parser) parseExpr() (ast.Node, bool) {
	p.skipTrivia()
	switch p.cur.Kind {
	case token.LParen:
		return p.parseList()
	case token.Quote:
		loc := p.cur.Loc
		p.nextToken()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		return &ast.Quote{Location: loc, Inner: inner}, true
	case token.Symbol, token.Number, token.String:
		return p.parseAtom()
	case token.Eof:
		p.errorAt(p.cur, "Unexpected end of input")
		return nil, false
	case token.RParen:
		p.errorAt(p.cur, "Unexpected ')'")
		return nil, false
	case token.Error:
		p.errorAt(p.cur, p.cur.Message)
		return nil, false
	default:
		p.errorAt(p.cur, "Unexpected token")
		return nil, false
	}
}

func (p *Parser) parseAtom() (ast.Node, bool) {
	tok := p.cur
	switch tok.Kind {
	case token.Number:
		node := parseNumberLiteral(tok)
		p.nextToken()
		return node, true
	case token.String:
		node := &ast.Literal{Location: tok.Loc, Kind: ast.String, StrVal: tok.Lexeme}
		p.nextToken()
		return node, true
	case token.Symbol:
		return p.parseSymbolAtom(tok)
	default:
		p.errorAt(tok, "Unrecognized atom type")
		return nil, false
	}
}

func parseNumberLiteral(tok token.Token) ast.Node {
	if strings.Contains(tok.Lexeme, ".") {
		f, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ast.Literal{Location: tok.Loc, Kind: ast.Float, FloatVal: f}
	}
	i, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
	return &ast.Literal{Location: tok.Loc, Kind: ast.Int, IntVal: i}
}

func (p *Parser) parseSymbolAtom(tok token.Token) (ast.Node, bool) {
	switch tok.Lexeme {
	case "#t":
		p.nextToken()
		return &ast.Literal{Location: tok.Loc, Kind: ast.Bool, BoolVal: true}, true
	case "#f":
		p.nextToken()
		return &ast.Literal{Location: tok.Loc, Kind: ast.Bool, BoolVal: false}, true
	}

	if _, ok := p.env.Lookup(tok.Lexeme); !ok {
		p.errorAt(tok, fmt.Sprintf("Undefined variable: '%s'", tok.Lexeme))
		return nil, false
	}
	p.nextToken()
	return &ast.Variable{Location: tok.Loc, Name: tok.Lexeme}, true
}

// parseList implements:
//
//	list := "(" (empty | special_form | call) ")"
//	empty := ε            ; parsed as literal false
func (p *Parser) parseList() (ast.Node, bool) {
	openLoc := p.cur.Loc
	p.nextToken() // consume '('
	p.skipTrivia()

	if p.cur.Kind == token.RParen {
		closeLoc := p.cur.Loc
		p.nextToken()
		return &ast.Literal{Location: token.Location{Start: openLoc.Start, End: closeLoc.End}, Kind: ast.Bool, BoolVal: false}, true
	}

	firstExpr, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	var result ast.Node
	if v, isVar := firstExpr.(*ast.Variable); isVar {
		if handler, isSpecial := specialForms[v.Name]; isSpecial {
			result, ok = handler(p, openLoc)
			if !ok {
				return nil, false
			}
		}
	}
	if result == nil {
		result, ok = p.parseCall(openLoc, firstExpr)
		if !ok {
			return nil, false
		}
	}

	p.skipTrivia()
	if p.cur.Kind != token.RParen {
		p.errorAt(p.cur, "Expected ')' to close the list.")
		return nil, false
	}
	p.nextToken()
	return result, true
}

func (p *Parser) parseCall(loc token.Location, callee ast.Node) (ast.Node, bool) {
	var args []ast.Node
	p.skipTrivia()
	for p.cur.Kind != token.RParen && p.cur.Kind != token.Eof {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		p.skipTrivia()
	}
	return &ast.Call{Location: loc, Callee: callee, Args: args}, true
}

// parseBody parses expressions until end (usually RParen) or Eof,
// returning whatever it collected and whether parsing succeeded.
func (p *Parser) parseBody(end token.Kind) ([]ast.Node, bool) {
	var body []ast.Node
	p.skipTrivia()
	for p.cur.Kind != end && p.cur.Kind != token.Eof {
		expr, ok := p.parseExpr()
		if !ok {
			return body, false
		}
		body = append(body, expr)
		p.skipTrivia()
	}
	return body, true
}

// parseIf implements "(if cond then)" or "(if cond then else)".
func (p *Parser) parseIf(loc token.Location) (ast.Node, bool) {
	cond, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	then, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	var elseNode ast.Node
	p.skipTrivia()
	if p.cur.Kind != token.RParen {
		elseNode, ok = p.parseExpr()
		if !ok {
			return nil, false
		}
		p.skipTrivia()
		if p.cur.Kind != token.RParen {
			p.errorAt(p.cur, "Too many arguments for 'if' expression.")
			return nil, false
		}
	}
	return &ast.If{Location: loc, Cond: cond, Then: then, Else: elseNode}, true
}

// parseDef dispatches between the two "def" shapes: a plain variable
// binding, or the (def (name params...) body...) function sugar.
func (p *Parser) parseDef(loc token.Location) (ast.Node, bool) {
	p.skipTrivia()
	switch p.cur.Kind {
	case token.Symbol:
		return p.parseDefVariable(loc)
	case token.LParen:
		return p.parseDefFunction(loc)
	default:
		p.errorAt(p.cur, "Expected a symbol or a list after 'def'.")
		return nil, false
	}
}

func (p *Parser) parseDefVariable(loc token.Location) (ast.Node, bool) {
	nameTok := p.cur
	name := nameTok.Lexeme
	p.nextToken()

	value, ok := p.parseExpr()
	if !ok {
		return nil, false
	}

	p.skipTrivia()
	if p.cur.Kind != token.RParen {
		p.errorAt(p.cur, "Too many arguments for 'def'.")
		return nil, false
	}

	if p.env.DefineGlobal(name, value) {
		p.warnAt(nameTok, fmt.Sprintf("Redefinition of variable '%s'", name))
	}
	return &ast.Def{Location: loc, Name: name, Value: value}, true
}

func (p *Parser) parseDefFunction(loc token.Location) (ast.Node, bool) {
	p.nextToken() // consume '(' of "(name params...)"
	p.skipTrivia()
	if p.cur.Kind != token.Symbol {
		p.errorAt(p.cur, "Expected a symbol.")
		return nil, false
	}
	nameTok := p.cur
	name := nameTok.Lexeme
	p.nextToken()

	var params []string
	p.skipTrivia()
	for p.cur.Kind == token.Symbol {
		params = append(params, p.cur.Lexeme)
		p.nextToken()
		p.skipTrivia()
	}
	if p.cur.Kind != token.RParen {
		p.errorAt(p.cur, "Expected ')' to close parameter list.")
		return nil, false
	}
	p.nextToken() // consume ')'

	// Registered with a Placeholder before the body is parsed so that
	// recursive self-reference inside the body resolves.
	existed := p.env.DefineGlobal(name, parserenv.Placeholder)

	p.env.EnterFunction()
	for _, param := range params {
		p.env.Define(param, parserenv.Placeholder)
	}
	body, bodyOK := p.parseBody(token.RParen)
	freeVars := p.env.ExitScope()
	if !bodyOK {
		return nil, false
	}
	if len(body) == 0 {
		p.errorAt(p.cur, "Function body cannot be empty.")
		return nil, false
	}

	fn := &ast.Function{Location: loc, Name: name, Params: params, FreeVars: freeVars, Body: body}
	p.env.DefineGlobal(name, fn)
	if existed {
		p.warnAt(nameTok, fmt.Sprintf("Redefinition of variable '%s'", name))
	}
	return &ast.Def{Location: loc, Name: name, Value: fn}, true
}

// parseLet implements "(let ((name expr)...) body...)" with
// sequential bindings: each name is visible to later binding
// expressions and to the body.
func (p *Parser) parseLet(loc token.Location) (ast.Node, bool) {
	p.skipTrivia()
	if p.cur.Kind != token.LParen {
		p.errorAt(p.cur, "Expected '(' for let-bindings.")
		return nil, false
	}
	p.nextToken()
	p.env.EnterLet()

	var bindings []ast.LetBinding
	p.skipTrivia()
	for p.cur.Kind != token.RParen {
		if p.cur.Kind != token.LParen {
			p.errorAt(p.cur, "Expected '(' for a binding pair.")
			p.env.ExitScope()
			return nil, false
		}
		p.nextToken()
		p.skipTrivia()
		if p.cur.Kind != token.Symbol {
			p.errorAt(p.cur, "Expected a symbol for binding name.")
			p.env.ExitScope()
			return nil, false
		}
		name := p.cur.Lexeme
		p.nextToken()

		value, ok := p.parseExpr()
		if !ok {
			p.env.ExitScope()
			return nil, false
		}

		p.skipTrivia()
		if p.cur.Kind != token.RParen {
			p.errorAt(p.cur, "Expected ')' to close binding pair.")
			p.env.ExitScope()
			return nil, false
		}
		p.nextToken()

		p.env.Define(name, value)
		bindings = append(bindings, ast.LetBinding{Name: name, Value: value})
		p.skipTrivia()
	}
	p.nextToken() // consume ')' of the bindings list

	body, ok := p.parseBody(token.RParen)
	p.env.ExitScope()
	if !ok {
		return nil, false
	}
	if len(body) == 0 {
		p.errorAt(p.cur, "Let body cannot be empty.")
		return nil, false
	}
	return &ast.Let{Location: loc, Bindings: bindings, Body: body}, true
}

// parseLambda implements "(lambda (params...) body...)".
func (p *Parser) parseLambda(loc token.Location) (ast.Node, bool) {
	p.skipTrivia()
	if p.cur.Kind != token.LParen {
		p.errorAt(p.cur, "Expected '(' for function parameter list.")
		return nil, false
	}
	p.nextToken()

	var params []string
	p.skipTrivia()
	for p.cur.Kind == token.Symbol {
		params = append(params, p.cur.Lexeme)
		p.nextToken()
		p.skipTrivia()
	}
	if p.cur.Kind != token.RParen {
		p.errorAt(p.cur, "Expected ')' to close parameter list.")
		return nil, false
	}
	p.nextToken()

	p.env.EnterFunction()
	for _, param := range params {
		p.env.Define(param, parserenv.Placeholder)
	}
	body, ok := p.parseBody(token.RParen)
	freeVars := p.env.ExitScope()
	if !ok {
		return nil, false
	}
	if len(body) == 0 {
		p.errorAt(p.cur, "Function body cannot be empty.")
		return nil, false
	}
	return &ast.Function{Location: loc, Params: params, FreeVars: freeVars, Body: body}, true
}

// parseQuote implements "(quote expr)": parsed, never compiled.
func (p *Parser) parseQuote(loc token.Location) (ast.Node, bool) {
	inner, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	return &ast.Quote{Location: loc, Inner: inner}, true
}
