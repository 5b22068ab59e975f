// Copyright © 2024 The nxt authors

package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerEmit(t *testing.T) {
	s := NewScanner("test.nix", []byte("let x"))
	assert.Equal(t, 3, s.AcceptSeq(func(c rune) bool { return c != ' ' }))
	tok := s.EmitToken(LET)
	assert.Equal(t, &Token{Type: LET, Text: "let", Span: Span{0, 3}}, tok)

	require.True(t, s.AcceptSpace())
	s.Ignore()
	require.True(t, s.AcceptRune('x'))
	tok = s.EmitToken(IDENT)
	assert.Equal(t, Span{4, 5}, tok.Span)
	assert.True(t, s.EOF())
	assert.False(t, s.AcceptRune('x'))
	assert.Error(t, s.ScanRune())
}

func TestScannerAcceptString(t *testing.T) {
	s := NewScanner("", []byte("${x}"))
	assert.False(t, s.AcceptString("$$"))
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.AcceptString("${"))
	assert.Equal(t, "${", s.Text())

	r, ok := s.PeekAt(1)
	require.True(t, ok)
	assert.Equal(t, '}', r)
	_, ok = s.PeekAt(2)
	assert.False(t, ok)
}

func TestScannerInvalidUTF8(t *testing.T) {
	s := NewScanner("", []byte{'a', 0xff, 'b'})
	require.True(t, s.AcceptRune('a'))
	_, ok := s.Peek()
	assert.False(t, ok)
	assert.Error(t, s.ScanRune())
	tok := s.EmitToken(ERROR)
	assert.Equal(t, Span{0, 2}, tok.Span)
	assert.True(t, s.AcceptRune('b'))
}

func TestScannerMultibyte(t *testing.T) {
	s := NewScanner("", []byte("λx"))
	assert.Equal(t, 2, s.AcceptSeq(func(rune) bool { return true }))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 'x', s.Rune())
}
