package lexer

import "github.com/tinylisp/lispc/internal/token"

// Tokenize runs lx to completion and returns every token it produced,
// including the trailing Eof. Mainly useful for tests and debugging;
// the parser drives the lexer one token at a time instead.
func Tokenize(src string) []token.Token {
	lx := New(src)
	var toks []token.Token
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.Eof {
			break
		}
	}
	return toks
}
