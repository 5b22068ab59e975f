// Copyright © 2024 The nxt authors

// Package lexer splits Nix source text into tokens. The lexer is lossless:
// whitespace and comments are emitted as trivia tokens so that the
// concatenated token text always reproduces the input.
package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/luthersystems/nxt/parser/token"
)

// LexFn reads one token in a particular lexical context.
type LexFn func(*Lexer) *token.Token

const (
	pathChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789._-+"
	uriChars   = pathChars + "%/?:@&=$,!~*'"
	identChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_'-"
)

// frame is one entry of the context stack. Strings and interpolated paths
// push frames; `${` pushes an expression frame that is popped by the
// matching `}`.
type frame struct {
	lex    LexFn
	depth  int  // open braces inside an expression frame
	interp bool // expression frame opened by ${
}

type Lexer struct {
	scanner *token.Scanner
	stack   []frame
	errs    []*Error
}

// Error is a lexical error. The offending text is still emitted as an ERROR
// token so that no input is lost.
type Error struct {
	Span    token.Span
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

func New(s *token.Scanner) *Lexer {
	return &Lexer{
		scanner: s,
		stack:   []frame{{lex: (*Lexer).readToken}},
	}
}

// Tokenize reads every token of the input, including the final EOF token,
// along with any lexical errors.
func Tokenize(s *token.Scanner) ([]*token.Token, []*Error) {
	lex := New(s)
	var toks []*token.Token
	for {
		tok := lex.ReadToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, lex.Errors()
		}
	}
}

// Errors returns the lexical errors encountered so far.
func (lex *Lexer) Errors() []*Error {
	return lex.errs
}

// ReadToken returns the next token. At the end of input it returns EOF
// tokens indefinitely.
func (lex *Lexer) ReadToken() *token.Token {
	return lex.top().lex(lex)
}

func (lex *Lexer) top() *frame {
	return &lex.stack[len(lex.stack)-1]
}

func (lex *Lexer) push(fn LexFn, interp bool) {
	lex.stack = append(lex.stack, frame{lex: fn, interp: interp})
}

func (lex *Lexer) pop() {
	if len(lex.stack) > 1 {
		lex.stack = lex.stack[:len(lex.stack)-1]
	}
}

func (lex *Lexer) readToken() *token.Token {
	s := lex.scanner
	if s.EOF() {
		return s.EmitToken(token.EOF)
	}
	c, ok := s.Peek()
	if !ok {
		err := s.ScanRune()
		return lex.errorf("%v", err)
	}
	switch {
	case unicode.IsSpace(c):
		s.AcceptSeqSpace()
		return s.EmitToken(token.WHITESPACE)
	case c == '#':
		s.AcceptSeq(func(c rune) bool { return c != '\n' })
		return s.EmitToken(token.COMMENT)
	case s.HasPrefix("/*"):
		return lex.readBlockComment()
	}
	if n, interp := lex.pathAhead(); n > 0 {
		s.AcceptBytes(n)
		if interp {
			lex.push((*Lexer).readPathRest, false)
		}
		return s.EmitToken(token.PATH)
	}
	if s.HasPrefix("<") {
		if n := lex.searchPathAhead(); n > 0 {
			s.AcceptBytes(n)
			return s.EmitToken(token.PATH)
		}
	}
	if n := lex.uriAhead(); n > 0 {
		s.AcceptBytes(n)
		return s.EmitToken(token.URI)
	}
	switch {
	case isIdentStart(c):
		s.AcceptSeq(isIdentChar)
		if typ, ok := token.Keyword(s.Text()); ok {
			return s.EmitToken(typ)
		}
		return s.EmitToken(token.IDENT)
	case isDigit(c):
		return lex.readNumber()
	case c == '.' && lex.digitAt(1):
		return lex.readNumber()
	case c == '"':
		s.AcceptRune('"')
		lex.push((*Lexer).readString, false)
		return s.EmitToken(token.STRING_START)
	case s.HasPrefix("''"):
		s.AcceptString("''")
		lex.push((*Lexer).readIndString, false)
		return s.EmitToken(token.IND_STRING_START)
	case s.HasPrefix("${"):
		s.AcceptString("${")
		lex.push((*Lexer).readToken, true)
		return s.EmitToken(token.INTERPOL_START)
	case c == '{':
		s.AcceptRune('{')
		lex.top().depth++
		return s.EmitToken(token.BRACE_L)
	case c == '}':
		s.AcceptRune('}')
		top := lex.top()
		if top.depth > 0 {
			top.depth--
			return s.EmitToken(token.BRACE_R)
		}
		if top.interp {
			lex.pop()
			return s.EmitToken(token.INTERPOL_END)
		}
		return s.EmitToken(token.BRACE_R)
	}
	for _, op := range operators {
		if s.AcceptString(op.text) {
			return s.EmitToken(op.typ)
		}
	}
	_ = s.ScanRune()
	return lex.errorf("unexpected character %q", s.Rune())
}

// operators are ordered so that longer operators are tried first.
var operators = []struct {
	text string
	typ  token.Type
}{
	{"...", token.ELLIPSIS},
	{"//", token.UPDATE},
	{"++", token.CONCAT},
	{"==", token.EQUAL},
	{"!=", token.NOT_EQUAL},
	{"<=", token.LESS_OR_EQ},
	{">=", token.MORE_OR_EQ},
	{"&&", token.AND},
	{"||", token.OR_OR},
	{"->", token.IMPLICATION},
	{"|>", token.PIPE_RIGHT},
	{"<|", token.PIPE_LEFT},
	{"(", token.PAREN_L},
	{")", token.PAREN_R},
	{"[", token.BRACKET_L},
	{"]", token.BRACKET_R},
	{"=", token.ASSIGN},
	{":", token.COLON},
	{";", token.SEMICOLON},
	{",", token.COMMA},
	{".", token.DOT},
	{"@", token.AT},
	{"?", token.QUESTION},
	{"+", token.ADD},
	{"-", token.SUB},
	{"*", token.MUL},
	{"/", token.DIV},
	{"!", token.NOT},
	{"<", token.LESS},
	{">", token.MORE},
}

func (lex *Lexer) readBlockComment() *token.Token {
	s := lex.scanner
	s.AcceptString("/*")
	for !s.EOF() {
		if s.AcceptString("*/") {
			return s.EmitToken(token.COMMENT)
		}
		_ = s.ScanRune()
	}
	return lex.errorf("unterminated block comment")
}

func (lex *Lexer) readNumber() *token.Token {
	s := lex.scanner
	s.AcceptSeqDigit()
	typ := token.INT
	if c, ok := s.Peek(); ok && c == '.' && (lex.digitAt(1) || s.Len() > 0 && !lex.runeAtIs(1, '.')) {
		s.AcceptRune('.')
		s.AcceptSeqDigit()
		typ = token.FLOAT
	}
	if c, ok := s.Peek(); ok && (c == 'e' || c == 'E') {
		sign, _ := s.PeekAt(1)
		if lex.digitAt(1) || (sign == '+' || sign == '-') && lex.digitAt(2) {
			s.AcceptAny("eE")
			s.AcceptAny("+-")
			s.AcceptSeqDigit()
			typ = token.FLOAT
		}
	}
	return s.EmitToken(typ)
}

func (lex *Lexer) readString() *token.Token {
	s := lex.scanner
	switch {
	case s.EOF():
		return s.EmitToken(token.EOF)
	case s.AcceptRune('"'):
		lex.pop()
		return s.EmitToken(token.STRING_END)
	case s.AcceptString("${"):
		lex.push((*Lexer).readToken, true)
		return s.EmitToken(token.INTERPOL_START)
	}
	for !s.EOF() && !s.HasPrefix(`"`) && !s.HasPrefix("${") {
		switch {
		case s.AcceptRune('\\'):
			_ = s.ScanRune()
		case s.AcceptString("$$"):
		default:
			_ = s.ScanRune()
		}
	}
	return s.EmitToken(token.STRING_CONTENT)
}

func (lex *Lexer) readIndString() *token.Token {
	s := lex.scanner
	switch {
	case s.EOF():
		return s.EmitToken(token.EOF)
	case lex.indEscapeAhead():
	case s.AcceptString("''"):
		lex.pop()
		return s.EmitToken(token.IND_STRING_END)
	case s.AcceptString("${"):
		lex.push((*Lexer).readToken, true)
		return s.EmitToken(token.INTERPOL_START)
	}
	for !s.EOF() && !s.HasPrefix("${") {
		if lex.indEscapeAhead() {
			continue
		}
		if s.HasPrefix("''") {
			break
		}
		if !s.AcceptString("$$") {
			_ = s.ScanRune()
		}
	}
	return s.EmitToken(token.STRING_CONTENT)
}

// indEscapeAhead scans an indented-string escape (''$ ''' or ''\x) if one
// follows.
func (lex *Lexer) indEscapeAhead() bool {
	s := lex.scanner
	if !s.HasPrefix("''") {
		return false
	}
	next, ok := s.PeekAt(2)
	if !ok {
		return false
	}
	switch next {
	case '$', '\'':
		s.AcceptBytes(3)
		return true
	case '\\':
		s.AcceptBytes(3)
		_ = s.ScanRune()
		return true
	}
	return false
}

// readPathRest continues an interpolated path after an interpolation.
func (lex *Lexer) readPathRest() *token.Token {
	s := lex.scanner
	if s.AcceptString("${") {
		lex.push((*Lexer).readToken, true)
		return s.EmitToken(token.INTERPOL_START)
	}
	s.AcceptSeqAny(pathChars + "/")
	if s.Len() == 0 {
		lex.pop()
		return lex.ReadToken()
	}
	if !s.HasPrefix("${") {
		lex.pop()
	}
	return s.EmitToken(token.PATH)
}

// pathAhead returns the byte length of a path literal starting at the
// current offset and whether it stops at an interpolation. A path needs at
// least one slash followed by a path character or an interpolation.
func (lex *Lexer) pathAhead() (int, bool) {
	rest := lex.rest()
	i := 0
	if strings.HasPrefix(rest, "~/") {
		i = 1
	} else {
		i = spanOf(rest, 0, pathChars)
	}
	segments := 0
	for i < len(rest) && rest[i] == '/' {
		j := i + 1
		if strings.HasPrefix(rest[j:], "${") {
			return j, true
		}
		k := spanOf(rest, j, pathChars)
		if k == j {
			break
		}
		segments++
		i = k
		if strings.HasPrefix(rest[i:], "${") {
			return i, true
		}
	}
	if segments == 0 {
		return 0, false
	}
	return i, false
}

// searchPathAhead returns the length of a <search/path> literal.
func (lex *Lexer) searchPathAhead() int {
	rest := lex.rest()
	i := 1
	for {
		j := spanOf(rest, i, pathChars)
		if j == i {
			return 0
		}
		if j < len(rest) && rest[j] == '>' {
			return j + 1
		}
		if j >= len(rest) || rest[j] != '/' {
			return 0
		}
		i = j + 1
	}
}

// uriAhead returns the length of a URI literal (scheme:rest).
func (lex *Lexer) uriAhead() int {
	rest := lex.rest()
	if rest == "" || !isLetter(rune(rest[0])) {
		return 0
	}
	i := spanOf(rest, 1, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789+-.")
	if i >= len(rest) || rest[i] != ':' {
		return 0
	}
	j := spanOf(rest, i+1, uriChars)
	if j == i+1 {
		return 0
	}
	return j
}

func (lex *Lexer) rest() string {
	// Only ASCII characters take part in path, URI and number decisions, so
	// a bounded prefix avoids copying the whole remaining input.
	s := lex.scanner
	var sb strings.Builder
	for i := 0; i < 4096; i++ {
		c, ok := s.PeekAt(i)
		if !ok || c >= unicode.MaxASCII || unicode.IsSpace(c) {
			break
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func (lex *Lexer) digitAt(n int) bool {
	c, ok := lex.scanner.PeekAt(n)
	return ok && isDigit(c)
}

func (lex *Lexer) runeAtIs(n int, want rune) bool {
	c, ok := lex.scanner.PeekAt(n)
	return ok && c == want
}

func (lex *Lexer) errorf(format string, v ...interface{}) *token.Token {
	tok := lex.scanner.EmitToken(token.ERROR)
	lex.errs = append(lex.errs, &Error{Span: tok.Span, Message: fmt.Sprintf(format, v...)})
	return tok
}

func spanOf(s string, i int, charset string) int {
	for i < len(s) && strings.IndexByte(charset, s[i]) >= 0 {
		i++
	}
	return i
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isIdentStart(c rune) bool {
	return isLetter(c) || c == '_'
}

func isIdentChar(c rune) bool {
	return c < unicode.MaxASCII && strings.ContainsRune(identChars, c)
}
