// Copyright © 2024 The nxt authors

package rdparser

import (
	"strings"
	"testing"

	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shape renders the inner nodes of a tree as Kind(child child ...).
func shape(n *syntax.Node) string {
	var sb strings.Builder
	var walk func(n *syntax.Node)
	walk = func(n *syntax.Node) {
		sb.WriteString(n.Kind.String())
		nodes := n.Nodes()
		if len(nodes) == 0 {
			return
		}
		sb.WriteString("(")
		for i, c := range nodes {
			if i > 0 {
				sb.WriteString(" ")
			}
			walk(c)
		}
		sb.WriteString(")")
	}
	walk(n)
	return sb.String()
}

func parse(t *testing.T, source string) *syntax.Root {
	t.Helper()
	root := New("test.nix", []byte(source)).Parse()
	require.NotNil(t, root.Node)
	assert.Equal(t, source, root.Node.Text(), "tree must reproduce the source")
	return root
}

func TestParser(t *testing.T) {
	tests := []struct {
		source string
		shape  string
	}{
		{`1`, `Root(Literal)`},
		{`x`, `Root(Ident)`},
		{`let a = 1; in a`, `Root(LetIn(Binding(Attrpath(Name) Literal) Ident))`},
		{`rec { a = 1; b = a; }`, `Root(AttrSet(Binding(Attrpath(Name) Literal) Binding(Attrpath(Name) Ident)))`},
		{`{ }`, `Root(AttrSet)`},
		{`x: x`, `Root(Lambda(Name Ident))`},
		{`{}: 1`, `Root(Lambda(Pattern Literal))`},
		{`{ a, b ? 1, ... }@args: a`, `Root(Lambda(Pattern(PatEntry(Name) PatEntry(Name Literal) PatBind(Name)) Ident))`},
		{`args @ { a }: a`, `Root(Lambda(Pattern(PatBind(Name) PatEntry(Name)) Ident))`},
		{`with pkgs; hello`, `Root(With(Ident Ident))`},
		{`assert a; b`, `Root(Assert(Ident Ident))`},
		{`if a then b else c`, `Root(IfElse(Ident Ident Ident))`},
		{`f x y`, `Root(Apply(Apply(Ident Ident) Ident))`},
		{`a.b.c or d`, `Root(Select(Ident Attrpath(Name Name) Ident))`},
		{`1 + 2 * 3`, `Root(BinOp(Literal BinOp(Literal Literal)))`},
		{`1 - 2 - 3`, `Root(BinOp(BinOp(Literal Literal) Literal))`},
		{`a -> b -> c`, `Root(BinOp(Ident BinOp(Ident Ident)))`},
		{`a // b // c`, `Root(BinOp(Ident BinOp(Ident Ident)))`},
		{`-a ? b`, `Root(HasAttr(UnaryOp(Ident) Attrpath(Name)))`},
		{`!a && b`, `Root(BinOp(UnaryOp(Ident) Ident))`},
		{`"a${b}c"`, `Root(String(Interpol(Ident)))`},
		{`./foo/${x}/bar`, `Root(Path(Interpol(Ident)))`},
		{`{ inherit a; inherit (b) c; }`, `Root(AttrSet(Inherit(Name) Inherit(InheritFrom(Ident) Name)))`},
		{`{ ${a} = 1; "b" = 2; }`, `Root(AttrSet(Binding(Attrpath(Dynamic(Ident)) Literal) Binding(Attrpath(String) Literal)))`},
		{`[ 1 a.b (f x) ]`, `Root(List(Literal Select(Ident Attrpath(Name)) Paren(Apply(Ident Ident))))`},
		{`let { a = 1; body = a; }`, `Root(LegacyLet(Binding(Attrpath(Name) Literal) Binding(Attrpath(Name) Ident)))`},
	}
	for _, test := range tests {
		t.Run(test.source, func(t *testing.T) {
			root := parse(t, test.source)
			assert.Empty(t, root.Errors)
			assert.Equal(t, test.shape, shape(root.Node))
		})
	}
}

func TestParserSpans(t *testing.T) {
	root := parse(t, "  # leading\n  x  \n")
	assert.Empty(t, root.Errors)
	ident := root.Node.Child(syntax.KindIdent)
	require.NotNil(t, ident)
	assert.Equal(t, token.Span{Start: 14, End: 15}, ident.Span)
	assert.Equal(t, ident.Span, root.Node.Span)

	root = parse(t, "let a = 1; in a")
	let := root.Node.Child(syntax.KindLetIn)
	require.NotNil(t, let)
	assert.Equal(t, token.Span{Start: 0, End: 15}, let.Span)
	binding := let.Child(syntax.KindBinding)
	require.NotNil(t, binding)
	assert.Equal(t, token.Span{Start: 4, End: 10}, binding.Span)
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		source  string
		message string
		span    token.Span
	}{
		{`let a = ; in a`, `expected expression, found ";"`, token.Span{Start: 8, End: 9}},
		{`(a`, `expected ")", found end of input`, token.Span{Start: 2, End: 2}},
		{`{ a = 1 }`, `expected ";", found "}"`, token.Span{Start: 8, End: 9}},
		{`1 2 )`, `expected end of input, found ")"`, token.Span{Start: 4, End: 5}},
		{`"abc`, `unterminated string`, token.Span{Start: 4, End: 4}},
	}
	for _, test := range tests {
		t.Run(test.source, func(t *testing.T) {
			root := parse(t, test.source)
			require.Len(t, root.Errors, 1)
			assert.Equal(t, test.message, root.Errors[0].Message)
			assert.Equal(t, test.span, root.Errors[0].Span)
		})
	}
}

func TestParserLexErrors(t *testing.T) {
	root := parse(t, `a $ b`)
	require.Len(t, root.Errors, 1)
	assert.Contains(t, root.Errors[0].Message, "unexpected character")
	assert.Equal(t, 2, root.Errors[0].Span.Start)
	assert.Equal(t, "Root(Ident Error)", shape(root.Node))
}

func TestParserRecovery(t *testing.T) {
	root := parse(t, "let a = 1; + ; b = 2; in a")
	require.NotEmpty(t, root.Errors)
	let := root.Node.Child(syntax.KindLetIn)
	require.NotNil(t, let)
	var bindings []*syntax.Node
	for _, n := range let.Nodes() {
		if n.Kind == syntax.KindBinding {
			bindings = append(bindings, n)
		}
	}
	assert.Len(t, bindings, 2)
	assert.NotNil(t, let.Child(syntax.KindError))
}

func TestParserMalformed(t *testing.T) {
	inputs := []string{
		``, `}`, `)`, `in`, `let`, `{`, `[`, `a.`, `x: `, `{ a, `, `inherit`,
		`rec`, `${`, `''`, `"${`, `let a = 1`, `if`, `with`, `{ ... }:`,
		`a ? `, `- -`, `!`, `{ a = { b = 1; in x`, `[ ; ]`, `{ @ }: x`,
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			root := parse(t, input)
			assert.NotEmpty(t, root.Errors)
			for i := 1; i < len(root.Errors); i++ {
				assert.LessOrEqual(t, root.Errors[i-1].Span.Start, root.Errors[i].Span.Start)
			}
		})
	}
}
