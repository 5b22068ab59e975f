// Copyright © 2024 The nxt authors

package astutil

import (
	"strings"

	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// LetIn is a view of a `let ... in body` expression.
type LetIn struct{ Node *syntax.Node }

// AsLetIn returns a LetIn view if n is a let expression.
func AsLetIn(n *syntax.Node) (LetIn, bool) {
	return LetIn{n}, n != nil && n.Kind == syntax.KindLetIn
}

// Entries returns the bindings and inherits of the let, in source order.
func (v LetIn) Entries() []*syntax.Node {
	return entries(v.Node.NodesBefore(token.IN))
}

// Body returns the expression after `in`, or nil when it is missing.
func (v LetIn) Body() *syntax.Node {
	return first(v.Node.NodesAfter(token.IN))
}

// AttrSet is a view of an attribute set. Legacy `let { ... }` expressions
// are presented as recursive sets.
type AttrSet struct{ Node *syntax.Node }

func AsAttrSet(n *syntax.Node) (AttrSet, bool) {
	ok := n != nil && (n.Kind == syntax.KindAttrSet || n.Kind == syntax.KindLegacyLet)
	return AttrSet{n}, ok
}

// Rec reports whether the set's keys are in scope for its own values.
func (v AttrSet) Rec() bool {
	return v.Node.Kind == syntax.KindLegacyLet || v.Node.Find(token.REC) != nil
}

func (v AttrSet) Entries() []*syntax.Node {
	return entries(v.Node.Nodes())
}

// Binding is a view of `attrpath = value;`.
type Binding struct{ Node *syntax.Node }

func AsBinding(n *syntax.Node) (Binding, bool) {
	return Binding{n}, n != nil && n.Kind == syntax.KindBinding
}

func (v Binding) Attrpath() Attrpath {
	return Attrpath{v.Node.Child(syntax.KindAttrpath)}
}

// Value returns the bound expression, or nil when it is missing.
func (v Binding) Value() *syntax.Node {
	return first(v.Node.NodesAfter(token.ASSIGN))
}

// Attrpath is a view of a dotted attribute path. The zero Attrpath has no
// segments.
type Attrpath struct{ Node *syntax.Node }

// Segments returns the Name, String and Dynamic nodes of the path.
func (v Attrpath) Segments() []*syntax.Node {
	if v.Node == nil {
		return nil
	}
	return v.Node.Nodes()
}

// Inherit is a view of `inherit a b;` or `inherit (from) a b;`.
type Inherit struct{ Node *syntax.Node }

func AsInherit(n *syntax.Node) (Inherit, bool) {
	return Inherit{n}, n != nil && n.Kind == syntax.KindInherit
}

// From returns the source expression of `inherit (from)`, or nil.
func (v Inherit) From() *syntax.Node {
	from := v.Node.Child(syntax.KindInheritFrom)
	if from == nil {
		return nil
	}
	return first(from.Nodes())
}

// Attrs returns the inherited attribute nodes.
func (v Inherit) Attrs() []*syntax.Node {
	var attrs []*syntax.Node
	for _, n := range v.Node.Nodes() {
		if n.Kind != syntax.KindInheritFrom {
			attrs = append(attrs, n)
		}
	}
	return attrs
}

// Lambda is a view of a function expression.
type Lambda struct{ Node *syntax.Node }

func AsLambda(n *syntax.Node) (Lambda, bool) {
	return Lambda{n}, n != nil && n.Kind == syntax.KindLambda
}

// Param returns the Name node of a simple `x: body` lambda, or nil.
func (v Lambda) Param() *syntax.Node {
	return v.Node.Child(syntax.KindName)
}

// Pattern returns the destructuring pattern, if the lambda has one.
func (v Lambda) Pattern() (Pattern, bool) {
	n := v.Node.Child(syntax.KindPattern)
	return Pattern{n}, n != nil
}

func (v Lambda) Body() *syntax.Node {
	return first(v.Node.NodesAfter(token.COLON))
}

// Pattern is a view of `{ a, b ? d, ... } @ name`.
type Pattern struct{ Node *syntax.Node }

func (v Pattern) Entries() []PatEntry {
	var fields []PatEntry
	for _, n := range v.Node.Nodes() {
		if n.Kind == syntax.KindPatEntry {
			fields = append(fields, PatEntry{n})
		}
	}
	return fields
}

// Bind returns the Name node bound with `@`, or nil.
func (v Pattern) Bind() *syntax.Node {
	bind := v.Node.Child(syntax.KindPatBind)
	if bind == nil {
		return nil
	}
	return bind.Child(syntax.KindName)
}

// BindFirst reports whether the `@` name is written before the braces.
func (v Pattern) BindFirst() bool {
	nodes := v.Node.Nodes()
	return len(nodes) > 0 && nodes[0].Kind == syntax.KindPatBind
}

// Ellipsis reports whether the pattern accepts extra attributes.
func (v Pattern) Ellipsis() bool {
	return v.Node.Find(token.ELLIPSIS) != nil
}

// PatEntry is a view of a single pattern field.
type PatEntry struct{ Node *syntax.Node }

func (v PatEntry) Name() *syntax.Node {
	return v.Node.Child(syntax.KindName)
}

// Default returns the default expression after `?`, or nil.
func (v PatEntry) Default() *syntax.Node {
	return first(v.Node.NodesAfter(token.QUESTION))
}

// With is a view of `with namespace; body`.
type With struct{ Node *syntax.Node }

func AsWith(n *syntax.Node) (With, bool) {
	return With{n}, n != nil && n.Kind == syntax.KindWith
}

func (v With) Namespace() *syntax.Node {
	return first(v.Node.NodesBefore(token.SEMICOLON))
}

func (v With) Body() *syntax.Node {
	return first(v.Node.NodesAfter(token.SEMICOLON))
}

// Ident is a view of a variable reference.
type Ident struct{ Node *syntax.Node }

func AsIdent(n *syntax.Node) (Ident, bool) {
	return Ident{n}, n != nil && n.Kind == syntax.KindIdent
}

func (v Ident) Name() string {
	return v.Node.SignificantText()
}

// StaticName returns the name an attribute segment denotes when it is
// known without evaluation: a plain name or a string without
// interpolation.
func StaticName(seg *syntax.Node) (string, bool) {
	switch seg.Kind {
	case syntax.KindName:
		return seg.SignificantText(), true
	case syntax.KindString:
		if seg.Child(syntax.KindInterpol) != nil || seg.Find(token.STRING_START) == nil {
			return "", false
		}
		var sb strings.Builder
		for _, c := range seg.Children {
			if c.IsToken() && c.Token.Type == token.STRING_CONTENT {
				sb.WriteString(unescape(c.Token.Text))
			}
		}
		return sb.String(), true
	}
	return "", false
}

func unescape(s string) string {
	if !strings.ContainsAny(s, `\$`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(s[i])
			}
		case c == '$' && i+1 < len(s) && s[i+1] == '$':
			sb.WriteByte('$')
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func entries(nodes []*syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	for _, n := range nodes {
		switch n.Kind {
		case syntax.KindBinding, syntax.KindInherit, syntax.KindError:
			out = append(out, n)
		}
	}
	return out
}

func first(nodes []*syntax.Node) *syntax.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}
