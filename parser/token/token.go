// Copyright © 2024 The nxt authors

// Package token defines the lexical tokens of the Nix expression language,
// byte spans, and the conversion from byte offsets to line/column locations.
package token

import "fmt"

type Token struct {
	Type Type
	Text string
	Span Span
}

// IsTrivia reports whether tok carries no syntax (whitespace or a comment).
func (tok *Token) IsTrivia() bool {
	return tok.Type.IsTrivia()
}

func (tok *Token) String() string {
	return fmt.Sprintf("%s %q %s", tok.Type, tok.Text, tok.Span)
}

type Type uint

// Type constants used by the nix lexer/parser.
const (
	INVALID Type = iota
	ERROR
	EOF

	// Trivia
	WHITESPACE
	COMMENT

	// Atoms & literals
	IDENT
	INT
	FLOAT
	PATH
	URI

	// Keywords
	LET
	IN
	REC
	WITH
	INHERIT
	ASSERT
	IF
	THEN
	ELSE
	OR

	// Strings
	STRING_START     // "
	STRING_END       // "
	IND_STRING_START // ''
	IND_STRING_END   // ''
	STRING_CONTENT
	INTERPOL_START // ${
	INTERPOL_END   // } closing an interpolation

	// Delimiters
	PAREN_L
	PAREN_R
	BRACE_L
	BRACE_R
	BRACKET_L
	BRACKET_R

	// Punctuation
	ASSIGN
	COLON
	SEMICOLON
	COMMA
	DOT
	ELLIPSIS
	AT
	QUESTION

	// Operators
	CONCAT
	UPDATE
	ADD
	SUB
	MUL
	DIV
	NOT
	EQUAL
	NOT_EQUAL
	LESS
	LESS_OR_EQ
	MORE
	MORE_OR_EQ
	AND
	OR_OR
	IMPLICATION
	PIPE_RIGHT
	PIPE_LEFT

	numTokenTypes
)

func (typ Type) String() string {
	typeStrings := [numTokenTypes]string{
		INVALID:          "invalid",
		ERROR:            "error",
		EOF:              "end of input",
		WHITESPACE:       "whitespace",
		COMMENT:          "comment",
		IDENT:            "identifier",
		INT:              "integer",
		FLOAT:            "float",
		PATH:             "path",
		URI:              "uri",
		LET:              "let",
		IN:               "in",
		REC:              "rec",
		WITH:             "with",
		INHERIT:          "inherit",
		ASSERT:           "assert",
		IF:               "if",
		THEN:             "then",
		ELSE:             "else",
		OR:               "or",
		STRING_START:     `"`,
		STRING_END:       `"`,
		IND_STRING_START: "''",
		IND_STRING_END:   "''",
		STRING_CONTENT:   "string content",
		INTERPOL_START:   "${",
		INTERPOL_END:     "}",
		PAREN_L:          "(",
		PAREN_R:          ")",
		BRACE_L:          "{",
		BRACE_R:          "}",
		BRACKET_L:        "[",
		BRACKET_R:        "]",
		ASSIGN:           "=",
		COLON:            ":",
		SEMICOLON:        ";",
		COMMA:            ",",
		DOT:              ".",
		ELLIPSIS:         "...",
		AT:               "@",
		QUESTION:         "?",
		CONCAT:           "++",
		UPDATE:           "//",
		ADD:              "+",
		SUB:              "-",
		MUL:              "*",
		DIV:              "/",
		NOT:              "!",
		EQUAL:            "==",
		NOT_EQUAL:        "!=",
		LESS:             "<",
		LESS_OR_EQ:       "<=",
		MORE:             ">",
		MORE_OR_EQ:       ">=",
		AND:              "&&",
		OR_OR:            "||",
		IMPLICATION:      "->",
		PIPE_RIGHT:       "|>",
		PIPE_LEFT:        "<|",
	}
	if typ >= numTokenTypes {
		return typeStrings[INVALID]
	}
	return typeStrings[typ]
}

// IsTrivia reports whether tokens of type typ carry no syntax.
func (typ Type) IsTrivia() bool {
	return typ == WHITESPACE || typ == COMMENT
}

var keywords = map[string]Type{
	"let":     LET,
	"in":      IN,
	"rec":     REC,
	"with":    WITH,
	"inherit": INHERIT,
	"assert":  ASSERT,
	"if":      IF,
	"then":    THEN,
	"else":    ELSE,
	"or":      OR,
}

// Keyword returns the keyword type for an identifier-shaped word.
func Keyword(word string) (Type, bool) {
	typ, ok := keywords[word]
	return typ, ok
}

// Span is a half-open byte range [Start, End) of the source text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by s.
func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether offset lies within s. An empty span contains its
// own start offset.
func (s Span) Contains(offset int) bool {
	if s.Start == s.End {
		return offset == s.Start
	}
	return s.Start <= offset && offset < s.End
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	return Span{Start: min(s.Start, other.Start), End: max(s.End, other.End)}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Location is a human-facing source position.
type Location struct {
	File string // a name representing the source stream
	Pos  int    // byte offset
	Line int    // line number (starting at 1)
	Col  int    // column in runes (starting at 1)
}

func (loc *Location) String() string {
	switch {
	case loc.Pos < 0:
		return loc.File
	case loc.Line == 0:
		return fmt.Sprintf("%s[%d]", loc.File, loc.Pos)
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}
