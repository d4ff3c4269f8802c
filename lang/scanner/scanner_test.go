package scanner_test

import (
	"testing"

	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s scanner.Scanner
	s.Init([]byte(src))

	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF || tok.Kind == token.ERROR {
			break
		}
	}
	return toks
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	toks := scanAll(t, `class A < B { fun f(x) { return x + 1; } }`)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.CLASS, toks[0].Kind)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, token.LT, toks[2].Kind)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestScanOperators(t *testing.T) {
	toks := scanAll(t, `!= == >= <= ++ -- // comment\n* /`)
	kinds := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Contains(t, kinds, token.BANGEQ)
	assert.Contains(t, kinds, token.EQEQ)
	assert.Contains(t, kinds, token.GEQ)
	assert.Contains(t, kinds, token.LEQ)
	assert.Contains(t, kinds, token.PLUSPLUS)
	assert.Contains(t, kinds, token.MINUSMINUS)
}

func TestScanComments(t *testing.T) {
	toks := scanAll(t, "1 // line comment\n2 /* block\ncomment */ 3")
	require.Len(t, toks, 4) // 1, 2, 3, EOF
	assert.Equal(t, "1", toks[0].Lexeme)
	assert.Equal(t, "2", toks[1].Lexeme)
	assert.Equal(t, "3", toks[2].Lexeme)
	assert.Equal(t, 3, toks[2].Line)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"A\tB\n"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `"A\tB\n"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"abc`)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.ERROR, toks[0].Kind)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, `3.14 42`)
	require.Len(t, toks, 3)
	assert.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "3.14", toks[0].Lexeme)
	assert.Equal(t, "42", toks[1].Lexeme)
}

func TestScanLineNumbers(t *testing.T) {
	toks := scanAll(t, "var a = 1;\nvar b = 2;")
	assert.Equal(t, 1, toks[0].Line)
	// find 'b' token
	for _, tok := range toks {
		if tok.Lexeme == "b" {
			assert.Equal(t, 2, tok.Line)
		}
	}
}
