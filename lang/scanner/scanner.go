// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scanner tokenizes glox source text into the stream of tokens
// consumed by the compiler. It has no notion of scope, precedence or
// grammar: it only recognizes the token kinds enumerated in package token.
package scanner

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/mna/glox/lang/token"
)

// Scanner produces a stream of tokens from source bytes. The zero value is
// not usable; call Init first.
type Scanner struct {
	src []byte

	cur  rune // current character, -1 at end of file
	off  int  // byte offset of cur
	roff int  // byte offset following cur

	line int // current line, 1-based
}

// Init prepares s to scan src from the beginning.
func (s *Scanner) Init(src []byte) {
	s.src = src
	s.off = 0
	s.roff = 0
	s.line = 1
	s.cur = ' '
	s.advance()
}

// advance reads the next rune into s.cur; s.cur == -1 means end of file.
func (s *Scanner) advance() {
	if s.cur == '\n' {
		s.line++
	}
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = -1
		return
	}

	s.off = s.roff
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
	}
	s.roff += w
	s.cur = r
}

// peek returns the byte following the current character without advancing
// the scanner, or 0 at end of file.
func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

// advanceIf advances and returns true if the current rune equals r.
func (s *Scanner) advanceIf(r rune) bool {
	if s.cur == r {
		s.advance()
		return true
	}
	return false
}

// Scan returns the next token in the source.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespaceAndComments()

	line := s.line
	start := s.off

	switch cur := s.cur; {
	case isAlpha(cur):
		lit := s.identifier()
		return token.Token{Kind: token.Lookup(lit), Lexeme: lit, Line: line}

	case isDigit(cur):
		lit := s.number()
		return token.Token{Kind: token.NUMBER, Lexeme: lit, Line: line}

	case cur == '"':
		lit, ok := s.stringLiteral()
		if !ok {
			return s.errorf(line, "unterminated string")
		}
		return token.Token{Kind: token.STRING, Lexeme: lit, Line: line}
	}

	cur := s.cur
	s.advance() // always make progress

	switch cur {
	case -1:
		return token.Token{Kind: token.EOF, Line: line}
	case '(':
		return s.tok(token.LPAREN, start, line)
	case ')':
		return s.tok(token.RPAREN, start, line)
	case '[':
		return s.tok(token.LBRACK, start, line)
	case ']':
		return s.tok(token.RBRACK, start, line)
	case '{':
		return s.tok(token.LBRACE, start, line)
	case '}':
		return s.tok(token.RBRACE, start, line)
	case ',':
		return s.tok(token.COMMA, start, line)
	case '.':
		return s.tok(token.DOT, start, line)
	case ';':
		return s.tok(token.SEMI, start, line)
	case '*':
		return s.tok(token.STAR, start, line)
	case ':':
		return s.tok(token.COLON, start, line)
	case '+':
		if s.advanceIf('+') {
			return s.tok(token.PLUSPLUS, start, line)
		}
		return s.tok(token.PLUS, start, line)
	case '-':
		if s.advanceIf('-') {
			return s.tok(token.MINUSMINUS, start, line)
		}
		return s.tok(token.MINUS, start, line)
	case '/':
		return s.tok(token.SLASH, start, line)
	case '!':
		if s.advanceIf('=') {
			return s.tok(token.BANGEQ, start, line)
		}
		return s.tok(token.BANG, start, line)
	case '=':
		if s.advanceIf('=') {
			return s.tok(token.EQEQ, start, line)
		}
		return s.tok(token.EQ, start, line)
	case '<':
		if s.advanceIf('=') {
			return s.tok(token.LEQ, start, line)
		}
		return s.tok(token.LT, start, line)
	case '>':
		if s.advanceIf('=') {
			return s.tok(token.GEQ, start, line)
		}
		return s.tok(token.GT, start, line)
	default:
		return s.errorf(line, "unexpected character '%c'", cur)
	}
}

func (s *Scanner) tok(kind token.Kind, start, line int) token.Token {
	return token.Token{Kind: kind, Lexeme: string(s.src[start:s.off]), Line: line}
}

func (s *Scanner) errorf(line int, format string, args ...any) token.Token {
	return token.Token{Kind: token.ERROR, Lexeme: fmt.Sprintf(format, args...), Line: line}
}

// skipWhitespaceAndComments skips spaces, tabs, newlines, "//" line
// comments and non-nesting "/* */" block comments.
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.cur {
		case ' ', '\t', '\r', '\n':
			s.advance()
		case '/':
			if s.peek() == '/' {
				for s.cur != '\n' && s.cur != -1 {
					s.advance()
				}
				continue
			}
			if s.peek() == '*' {
				s.advance() // consume '/'
				s.advance() // consume '*'
				for !(s.cur == '*' && s.peek() == '/') && s.cur != -1 {
					s.advance()
				}
				if s.cur != -1 {
					s.advance() // consume '*'
					s.advance() // consume '/'
				}
				continue
			}
			return
		default:
			return
		}
	}
}

func (s *Scanner) identifier() string {
	start := s.off
	for isAlpha(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

func (s *Scanner) number() string {
	start := s.off
	for isDigit(s.cur) {
		s.advance()
	}
	if s.cur == '.' && isDigit(rune(s.peek())) {
		s.advance()
		for isDigit(s.cur) {
			s.advance()
		}
	}
	return string(s.src[start:s.off])
}

// stringLiteral scans a double-quoted string, recognizing only \\ and \" to
// avoid terminating early on an escaped quote. Escape processing itself is
// left to the compiler.
func (s *Scanner) stringLiteral() (string, bool) {
	start := s.off
	s.advance() // opening quote
	for s.cur != '"' {
		if s.cur == -1 {
			return "", false
		}
		if s.cur == '\\' {
			s.advance()
			if s.cur == -1 {
				return "", false
			}
		}
		s.advance()
	}
	s.advance() // closing quote
	return string(s.src[start:s.off]), true
}

func isAlpha(r rune) bool {
	return r == '_' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' ||
		r >= utf8.RuneSelf && unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
