// Copyright © 2024 The nxt authors

package token

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner facilitates construction of tokens from an in-memory source
// buffer. Tokens are the text scanned between calls to EmitToken or Ignore.
type Scanner struct {
	file  string
	src   []byte
	start int // start of the current token
	next  int // offset of the rune following the last scanned rune
	c     Rune
}

// NewScanner initializes and returns a new Scanner over src.
func NewScanner(file string, src []byte) *Scanner {
	return &Scanner{file: file, src: src}
}

// File returns the name the scanner was created with.
func (s *Scanner) File() string {
	return s.file
}

// EmitToken returns a token containing the text scanned since the last call
// to either EmitToken or Ignore.
func (s *Scanner) EmitToken(typ Type) *Token {
	tok := &Token{
		Type: typ,
		Text: s.Text(),
		Span: Span{Start: s.start, End: s.next},
	}
	s.Ignore()
	return tok
}

// Ignore causes the scanner to skip all text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Ignore() {
	s.start = s.next
}

// Text returns a string containing text scanned since the last call to
// either EmitToken or Ignore.
func (s *Scanner) Text() string {
	return string(s.src[s.start:s.next])
}

// Len returns the number of bytes scanned for the current token.
func (s *Scanner) Len() int {
	return s.next - s.start
}

// Rune returns the last rune scanned.
func (s *Scanner) Rune() rune {
	return s.c.C
}

// Offset returns the offset of the next rune to be scanned.
func (s *Scanner) Offset() int {
	return s.next
}

// Peek returns the next rune to be scanned, if there are any. Peek returns
// a false second value at EOF or before an invalid utf-8 sequence.
func (s *Scanner) Peek() (rune, bool) {
	return s.PeekAt(0)
}

// PeekAt returns the rune n runes past the next one without scanning it.
func (s *Scanner) PeekAt(n int) (rune, bool) {
	pos := s.next
	for {
		if pos >= len(s.src) {
			return 0, false
		}
		c, size := utf8.DecodeRune(s.src[pos:])
		if (Rune{c, size}).IsRuneError() {
			return utf8.RuneError, false
		}
		if n == 0 {
			return c, true
		}
		pos += size
		n--
	}
}

// HasPrefix reports whether the unscanned input starts with literal.
func (s *Scanner) HasPrefix(literal string) bool {
	return strings.HasPrefix(string(s.src[s.next:min(len(s.src), s.next+len(literal))]), literal)
}

// ScanRune scans the next rune into the current token. An invalid utf-8
// sequence is scanned as a single byte and reported as an error.
func (s *Scanner) ScanRune() error {
	if s.EOF() {
		return fmt.Errorf("unexpected end of input")
	}
	c, n := utf8.DecodeRune(s.src[s.next:])
	s.c = Rune{c, n}
	s.next += n
	if s.c.IsRuneError() {
		return fmt.Errorf("invalid utf-8 sequence in source text starting with byte %q", s.src[s.next-1])
	}
	return nil
}

// EOF reports whether the whole input has been scanned.
func (s *Scanner) EOF() bool {
	return s.next >= len(s.src)
}

func (s *Scanner) Accept(fn func(rune) bool) bool {
	peek, ok := s.Peek()
	if !ok {
		return false
	}
	if fn(peek) {
		return s.ScanRune() == nil
	}
	return false
}

func (s *Scanner) AcceptRune(c rune) bool {
	peek, ok := s.Peek()
	if !ok {
		return false
	}
	if peek == c {
		return s.ScanRune() == nil
	}
	return false
}

func (s *Scanner) AcceptDigit() bool {
	return s.Accept(func(c rune) bool { return '0' <= c && c <= '9' })
}

func (s *Scanner) AcceptSpace() bool {
	return s.Accept(unicode.IsSpace)
}

func (s *Scanner) AcceptAny(charset string) bool {
	if len(charset) == 1 {
		return s.AcceptRune(rune(charset[0]))
	}
	return s.Accept(func(c rune) bool { return strings.ContainsRune(charset, c) })
}

func (s *Scanner) AcceptSeq(fn func(rune) bool) int {
	var n int
	for s.Accept(fn) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqRune(c rune) int {
	var n int
	for s.AcceptRune(c) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqAny(charset string) int {
	var n int
	for s.AcceptAny(charset) {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqDigit() int {
	var n int
	for s.AcceptDigit() {
		n++
	}
	return n
}

func (s *Scanner) AcceptSeqSpace() int {
	var n int
	for s.AcceptSpace() {
		n++
	}
	return n
}

// AcceptString scans literal if the input starts with it. Nothing is
// scanned when the input does not match.
func (s *Scanner) AcceptString(literal string) bool {
	if !s.HasPrefix(literal) {
		return false
	}
	for range literal {
		if err := s.ScanRune(); err != nil {
			return false
		}
	}
	return true
}

// AcceptBytes scans the next n bytes unconditionally, stopping at EOF.
func (s *Scanner) AcceptBytes(n int) {
	end := min(len(s.src), s.next+n)
	for s.next < end {
		_ = s.ScanRune()
	}
}

// Rune contains a rune read by Scanner along with its encoded length.
type Rune struct {
	C rune
	N int
}

// IsRuneError returns true if Rune represents an invalid utf-8 sequence read
// by utf8.DecodeRune.
func (r Rune) IsRuneError() bool {
	return r.C == utf8.RuneError && r.N == 1
}
