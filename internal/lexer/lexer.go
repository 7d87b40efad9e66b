// Package lexer turns Lisp source text into a stream of tokens.
//
// The lexer is pull-style: each call to Next returns exactly one
// token and advances the internal cursor. Whitespace and comments are
// emitted as tokens (Whitespace, Comment) rather than silently
// dropped, so the parser — not the lexer — decides what to skip.
package lexer

import (
	"strconv"
	"strings"

	"github.com/tinylisp/lispc/internal/token"
)

// symbolContinue is the character class a maximal symbol/number run
// may contain once started.
const symbolContinue = "#!$%&*+-./:<=>?@^_~"

// Lexer scans a fixed source buffer and yields tokens on demand.
type Lexer struct {
	src    string
	pos    int
	line   int
	col    int
	length int
}

// New creates a Lexer positioned at the start of src.
func New(src string) *Lexer {
	return &Lexer{src: src, pos: 0, line: 1, col: 1, length: len(src)}
}

func (lx *Lexer) current() byte {
	if lx.pos >= lx.length {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *Lexer) here() token.Position {
	return token.Position{Line: lx.line, Col: lx.col}
}

// advance consumes one byte, tracking line/column.
func (lx *Lexer) advance() {
	if lx.pos >= lx.length {
		return
	}
	if lx.src[lx.pos] == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	lx.pos++
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSymbolContinue(b byte) bool {
	return isDigit(b) || isAlpha(b) || strings.IndexByte(symbolContinue, b) >= 0
}

func isStructural(b byte) bool {
	switch b {
	case 0, '(', ')', '\'', '"':
		return true
	}
	return isSpace(b)
}

// Next returns the next token in the stream, terminating with exactly
// one Eof token once the source is exhausted.
func (lx *Lexer) Next() token.Token {
	start := lx.here()

	switch c := lx.current(); {
	case c == 0:
		return lx.finish(token.Eof, "", start)

	case isSpace(c):
		begin := lx.pos
		for isSpace(lx.current()) {
			lx.advance()
		}
		return lx.finish(token.Whitespace, lx.src[begin:lx.pos], start)

	case c == ';':
		begin := lx.pos
		for lx.current() != '\n' && lx.current() != 0 {
			lx.advance()
		}
		return lx.finish(token.Comment, lx.src[begin:lx.pos], start)

	case c == '(':
		lx.advance()
		return lx.finish(token.LParen, "(", start)

	case c == ')':
		lx.advance()
		return lx.finish(token.RParen, ")", start)

	case c == '\'':
		lx.advance()
		return lx.finish(token.Quote, "'", start)

	case c == '"':
		return lx.readString(start)

	case isDigit(c) || c == '+' || c == '-' || isSymbolContinue(c):
		return lx.readSymbolOrNumber(start)

	default:
		lit := string(c)
		lx.advance()
		tok := lx.finish(token.Error, lit, start)
		tok.Message = "Illegal character: '" + lit + "'"
		return tok
	}
}

func (lx *Lexer) finish(kind token.Kind, lexeme string, start token.Position) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Loc:    token.Location{Start: start, End: lx.here()},
	}
}

func (lx *Lexer) readString(start token.Position) token.Token {
	begin := lx.pos
	lx.advance() // opening quote
	for lx.current() != '"' {
		if lx.current() == 0 {
			tok := lx.finish(token.Error, lx.src[begin:lx.pos], start)
			tok.Message = "Unterminated string literal"
			return tok
		}
		lx.advance()
	}
	lx.advance() // closing quote
	return lx.finish(token.String, lx.src[begin:lx.pos], start)
}

func (lx *Lexer) readSymbolOrNumber(start token.Position) token.Token {
	begin := lx.pos
	for !isStructural(lx.current()) && lx.current() != ';' {
		lx.advance()
	}
	lexeme := lx.src[begin:lx.pos]

	if isNumericLexeme(lexeme) {
		return lx.finish(token.Number, lexeme, start)
	}
	return lx.finish(token.Symbol, lexeme, start)
}

// isNumericLexeme reports whether lexeme parses in its entirety as a
// decimal number, contains at least one digit, and is not the bare
// string "+" or "-".
func isNumericLexeme(lexeme string) bool {
	if lexeme == "+" || lexeme == "-" {
		return false
	}
	hasDigit := false
	for i := 0; i < len(lexeme); i++ {
		if isDigit(lexeme[i]) {
			hasDigit = true
			break
		}
	}
	if !hasDigit {
		return false
	}
	if strings.Contains(lexeme, ".") {
		_, err := strconv.ParseFloat(lexeme, 64)
		return err == nil
	}
	_, err := strconv.ParseInt(lexeme, 10, 64)
	return err == nil
}
