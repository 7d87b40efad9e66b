package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tinylisp/lispc/internal/token"
)

type kindLexemePair struct {
	Kind   token.Kind
	Lexeme string
}

func kinds(toks []token.Token) []kindLexemePair {
	out := make([]kindLexemePair, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.Eof {
			continue
		}
		out = append(out, kindLexemePair{t.Kind, t.Lexeme})
	}
	return out
}

func TestLexer_Tokenize_Atoms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []kindLexemePair
	}{
		{
			name: "integers and operators",
			src:  "(+ 1 2)",
			want: []kindLexemePair{
				{token.LParen, "("},
				{token.Symbol, "+"},
				{token.Whitespace, " "},
				{token.Number, "1"},
				{token.Whitespace, " "},
				{token.Number, "2"},
				{token.RParen, ")"},
			},
		},
		{
			name: "float literal",
			src:  "3.14",
			want: []kindLexemePair{{token.Number, "3.14"}},
		},
		{
			name: "negative number vs bare minus",
			src:  "-5 - 3",
			want: []kindLexemePair{
				{token.Number, "-5"},
				{token.Whitespace, " "},
				{token.Symbol, "-"},
				{token.Whitespace, " "},
				{token.Number, "3"},
			},
		},
		{
			name: "booleans are symbols at the lexer layer",
			src:  "#t #f",
			want: []kindLexemePair{
				{token.Symbol, "#t"},
				{token.Whitespace, " "},
				{token.Symbol, "#f"},
			},
		},
		{
			name: "quote",
			src:  "'(1 2)",
			want: []kindLexemePair{
				{token.Quote, "'"},
				{token.LParen, "("},
				{token.Number, "1"},
				{token.Whitespace, " "},
				{token.Number, "2"},
				{token.RParen, ")"},
			},
		},
		{
			name: "comment skipped to end of line",
			src:  "; a comment\n42",
			want: []kindLexemePair{
				{token.Comment, "; a comment"},
				{token.Whitespace, "\n"},
				{token.Number, "42"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := kinds(Tokenize(tc.src))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLexer_UnterminatedString(t *testing.T) {
	toks := Tokenize(`"abc`)
	assert.Len(t, toks, 2) // Error token + Eof
	assert.Equal(t, token.Error, toks[0].Kind)
	assert.Equal(t, "Unterminated string literal", toks[0].Message)
}

func TestLexer_IllegalCharacter(t *testing.T) {
	toks := Tokenize("{}")
	assert.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, token.Error, toks[0].Kind)
	assert.Contains(t, toks[0].Message, "Illegal character")
}

func TestLexer_EofIsTerminal(t *testing.T) {
	toks := Tokenize("(foo)")
	assert.Equal(t, token.Eof, toks[len(toks)-1].Kind)
	count := 0
	for _, tok := range toks {
		if tok.Kind == token.Eof {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestLexer_PositionsAdvanceAcrossLines(t *testing.T) {
	toks := Tokenize("1\n22")
	require := assert.New(t)
	require.Equal(token.Number, toks[0].Kind)
	require.Equal(token.Position{Line: 1, Col: 1}, toks[0].Loc.Start)
	last := toks[len(toks)-2] // the "22" Number token, before Eof
	require.Equal(token.Number, last.Kind)
	require.Equal(token.Position{Line: 2, Col: 1}, last.Loc.Start)
}
