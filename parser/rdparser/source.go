// Copyright © 2024 The nxt authors

package rdparser

import (
	"github.com/luthersystems/nxt/parser/lexer"
	"github.com/luthersystems/nxt/parser/token"
)

// TokenSource provides lookahead over significant tokens while keeping the
// trivia between them available to the tree builder.
type TokenSource struct {
	toks []*token.Token
	pos  int // index of the next unconsumed token, trivia included
	errs []*lexer.Error
}

// NewTokenSource lexes everything scanner produces.
func NewTokenSource(scanner *token.Scanner) *TokenSource {
	toks, errs := lexer.Tokenize(scanner)
	return &TokenSource{toks: toks, errs: errs}
}

// LexErrors returns the errors reported by the lexer.
func (s *TokenSource) LexErrors() []*lexer.Error {
	return s.errs
}

// Peek returns the next significant token.
func (s *TokenSource) Peek() *token.Token {
	return s.PeekN(0)
}

// PeekN returns the significant token n positions ahead. Past the end it
// returns the EOF token.
func (s *TokenSource) PeekN(n int) *token.Token {
	for i := s.pos; i < len(s.toks); i++ {
		tok := s.toks[i]
		if tok.IsTrivia() {
			continue
		}
		if n == 0 || tok.Type == token.EOF {
			return tok
		}
		n--
	}
	return s.toks[len(s.toks)-1]
}

// PeekType returns the type of the next significant token.
func (s *TokenSource) PeekType() token.Type {
	return s.Peek().Type
}

// Adjacent reports whether the next token follows without any trivia.
func (s *TokenSource) Adjacent() bool {
	return s.pos < len(s.toks) && !s.toks[s.pos].IsTrivia()
}

// Trivia consumes and returns the trivia tokens before the next
// significant token.
func (s *TokenSource) Trivia() []*token.Token {
	start := s.pos
	for s.pos < len(s.toks) && s.toks[s.pos].IsTrivia() {
		s.pos++
	}
	return s.toks[start:s.pos]
}

// Next consumes the next significant token. The EOF token is never
// consumed.
func (s *TokenSource) Next() *token.Token {
	s.Trivia()
	tok := s.toks[s.pos]
	if tok.Type != token.EOF {
		s.pos++
	}
	return tok
}

// IsEOF reports whether only trivia remains.
func (s *TokenSource) IsEOF() bool {
	return s.PeekType() == token.EOF
}
