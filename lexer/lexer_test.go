package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAll(t *testing.T, src string) []Token {
	t.Helper()
	l := New(src)
	require.NoError(t, l.Lex())
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == TokenEOF {
			return out
		}
	}
}

func TestLexSimplePredicate(t *testing.T) {
	toks := lexAll(t, "u => u.age > 18")
	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{
		TokenIdent, TokenArrow, TokenIdent, TokenDot, TokenIdent, TokenOp, TokenNumber, TokenEOF,
	}, types)
}

func TestLexStrictEqualityIsThreeCharOperator(t *testing.T) {
	toks := lexAll(t, "u=>u.isActive===true")
	var ops []string
	for _, tok := range toks {
		if tok.Type == TokenOp {
			ops = append(ops, tok.Value)
		}
	}
	assert.Equal(t, []string{"==="}, ops)
}

func TestLexStringEscapesAndQuoteStyles(t *testing.T) {
	toks := lexAll(t, `u => u.name == "it\"s" && u.x == 'y'`)
	var strs []string
	for _, tok := range toks {
		if tok.Type == TokenString {
			strs = append(strs, tok.Value)
		}
	}
	assert.Equal(t, []string{`it"s`, "y"}, strs)
}

func TestLexBooleanAndNullKeywords(t *testing.T) {
	toks := lexAll(t, "u => u.a == null || u.b == true || u.c == false")
	var kinds []TokenType
	for _, tok := range toks {
		if tok.Type == TokenTrue || tok.Type == TokenFalse || tok.Type == TokenNull {
			kinds = append(kinds, tok.Type)
		}
	}
	assert.Equal(t, []TokenType{TokenNull, TokenTrue, TokenFalse}, kinds)
}

func TestLexSpreadToken(t *testing.T) {
	toks := lexAll(t, "(u,o)=>({...u, total:o.amount})")
	var sawSpread bool
	for _, tok := range toks {
		if tok.Type == TokenSpread {
			sawSpread = true
		}
	}
	assert.True(t, sawSpread)
}

func TestLexUnterminatedStringIsError(t *testing.T) {
	l := New(`u => u.name == "oops`)
	err := l.Lex()
	assert.Error(t, err)
}

func TestLexUnknownCharacterIsError(t *testing.T) {
	l := New("u => u.age & 1")
	err := l.Lex()
	assert.Error(t, err)
}

func TestLexLineCommentsAreSkipped(t *testing.T) {
	toks := lexAll(t, "u => u.age > 18 // adults only")
	assert.Equal(t, TokenEOF, toks[len(toks)-1].Type)
	for _, tok := range toks {
		assert.NotContains(t, tok.Value, "adults")
	}
}
