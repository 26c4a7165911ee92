package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextTokenBasic(t *testing.T) {
	l := New("let mut x = 1 + 2.5 >= 3")
	var got []TokenType
	for {
		tok := l.NextToken()
		got = append(got, tok.Type)
		if tok.Type == TOKEN_EOF {
			break
		}
	}
	assert.Equal(t, []TokenType{
		TOKEN_LET, TOKEN_MUT, TOKEN_IDENT, TOKEN_ASSIGN, TOKEN_NUMBER,
		TOKEN_PLUS, TOKEN_NUMBER, TOKEN_GE, TOKEN_NUMBER, TOKEN_EOF,
	}, got)
}

func TestArrowAndDotDot(t *testing.T) {
	l := New("(x) => x..10..=20")
	var lits []string
	for {
		tok := l.NextToken()
		if tok.Type == TOKEN_EOF {
			break
		}
		lits = append(lits, tok.Literal)
	}
	assert.Contains(t, lits, "=>")
	assert.Contains(t, lits, "..")
	assert.Contains(t, lits, "..=")
}

func TestStringInterpolation(t *testing.T) {
	l := New(`"hello ${name}!"`)
	tok := l.NextToken()
	if assert.Equal(t, TOKEN_STRING, tok.Type) {
		assert.Equal(t, []StringSegment{
			{Literal: "hello "},
			{Expr: "name"},
			{Literal: "!"},
		}, tok.Segments)
	}
}

func TestLineComment(t *testing.T) {
	l := New("1 // comment\n2")
	a := l.NextToken()
	b := l.NextToken()
	assert.Equal(t, "1", a.Literal)
	assert.Equal(t, "2", b.Literal)
}
