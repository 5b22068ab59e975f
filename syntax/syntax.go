// Copyright © 2024 The nxt authors

// Package syntax defines the lossless syntax tree produced by the parser.
//
// Every byte of the source belongs to exactly one leaf token, including
// whitespace and comments, so the original text can be reconstructed from
// the tree. Trees are immutable once built.
package syntax

import (
	"fmt"
	"strings"

	"github.com/luthersystems/nxt/parser/token"
)

// Kind tags a Node.
type Kind uint8

const (
	KindToken Kind = iota // leaf holding a single token
	KindRoot
	KindError // input the parser could not make sense of

	KindIdent   // variable reference
	KindName    // attribute, parameter or pattern field name
	KindLiteral // number or URI
	KindString
	KindInterpol
	KindPath

	KindList
	KindAttrSet
	KindLegacyLet // let { ...; body = e; }
	KindLetIn
	KindWith
	KindAssert
	KindIfElse
	KindLambda
	KindPattern
	KindPatEntry
	KindPatBind

	KindApply
	KindSelect
	KindHasAttr
	KindBinOp
	KindUnaryOp
	KindParen

	KindBinding
	KindInherit
	KindInheritFrom
	KindAttrpath
	KindDynamic

	numKinds
)

var kindNames = [numKinds]string{
	KindToken:       "Token",
	KindRoot:        "Root",
	KindError:       "Error",
	KindIdent:       "Ident",
	KindName:        "Name",
	KindLiteral:     "Literal",
	KindString:      "String",
	KindInterpol:    "Interpol",
	KindPath:        "Path",
	KindList:        "List",
	KindAttrSet:     "AttrSet",
	KindLegacyLet:   "LegacyLet",
	KindLetIn:       "LetIn",
	KindWith:        "With",
	KindAssert:      "Assert",
	KindIfElse:      "IfElse",
	KindLambda:      "Lambda",
	KindPattern:     "Pattern",
	KindPatEntry:    "PatEntry",
	KindPatBind:     "PatBind",
	KindApply:       "Apply",
	KindSelect:      "Select",
	KindHasAttr:     "HasAttr",
	KindBinOp:       "BinOp",
	KindUnaryOp:     "UnaryOp",
	KindParen:       "Paren",
	KindBinding:     "Binding",
	KindInherit:     "Inherit",
	KindInheritFrom: "InheritFrom",
	KindAttrpath:    "Attrpath",
	KindDynamic:     "Dynamic",
}

func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("Kind(%d)", k)
	}
	return kindNames[k]
}

// Node is an element of the syntax tree. Leaves (KindToken) carry a token;
// inner nodes carry ordered children. Span covers the node's significant
// tokens and excludes surrounding trivia.
type Node struct {
	Kind     Kind
	Span     token.Span
	Token    *token.Token
	Children []*Node
}

// IsToken reports whether n is a leaf.
func (n *Node) IsToken() bool {
	return n.Kind == KindToken
}

// IsTrivia reports whether n is a whitespace or comment leaf.
func (n *Node) IsTrivia() bool {
	return n.Kind == KindToken && n.Token.IsTrivia()
}

// Nodes returns the inner-node children of n in order.
func (n *Node) Nodes() []*Node {
	var nodes []*Node
	for _, c := range n.Children {
		if !c.IsToken() {
			nodes = append(nodes, c)
		}
	}
	return nodes
}

// Child returns the first inner-node child of the given kind.
func (n *Node) Child(kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Find returns the first leaf token of type typ among n's direct children.
func (n *Node) Find(typ token.Type) *token.Token {
	for _, c := range n.Children {
		if c.IsToken() && c.Token.Type == typ {
			return c.Token
		}
	}
	return nil
}

// NodesAfter returns the inner-node children that follow the first direct
// leaf of type typ. It returns nil when there is no such leaf.
func (n *Node) NodesAfter(typ token.Type) []*Node {
	for i, c := range n.Children {
		if c.IsToken() && c.Token.Type == typ {
			return (&Node{Children: n.Children[i+1:]}).Nodes()
		}
	}
	return nil
}

// NodesBefore returns the inner-node children that precede the first direct
// leaf of type typ, or all of them when there is no such leaf.
func (n *Node) NodesBefore(typ token.Type) []*Node {
	for i, c := range n.Children {
		if c.IsToken() && c.Token.Type == typ {
			return (&Node{Children: n.Children[:i]}).Nodes()
		}
	}
	return n.Nodes()
}

// Tokens calls fn for each leaf token under n in source order.
func (n *Node) Tokens(fn func(*token.Token)) {
	if n.IsToken() {
		fn(n.Token)
		return
	}
	for _, c := range n.Children {
		c.Tokens(fn)
	}
}

// Text returns the source text covered by n, trivia included.
func (n *Node) Text() string {
	var sb strings.Builder
	n.Tokens(func(tok *token.Token) { sb.WriteString(tok.Text) })
	return sb.String()
}

// SignificantText returns n's text with trivia leaves removed.
func (n *Node) SignificantText() string {
	var sb strings.Builder
	n.Tokens(func(tok *token.Token) {
		if !tok.IsTrivia() {
			sb.WriteString(tok.Text)
		}
	})
	return sb.String()
}

// Walk calls fn for n and each inner node below it in pre-order. When fn
// returns false the children of that node are skipped.
func (n *Node) Walk(fn func(*Node) bool) {
	if n.IsToken() || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Error is a syntax error recorded by the parser.
type Error struct {
	Span    token.Span
	Message string
}

func (err *Error) Error() string {
	return err.Message
}

// Root is a parsed source file.
type Root struct {
	Filename string
	Source   []byte
	Node     *Node
	Errors   []*Error
}

// Lines returns a line index for the source.
func (r *Root) Lines() *token.LineIndex {
	return token.NewLineIndex(r.Filename, r.Source)
}

// Comments calls fn for each comment token in source order.
func (r *Root) Comments(fn func(*token.Token)) {
	r.Node.Tokens(func(tok *token.Token) {
		if tok.Type == token.COMMENT {
			fn(tok)
		}
	})
}

// Dump writes an indented rendering of the tree, one node per line.
func Dump(sb *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsToken() {
		fmt.Fprintf(sb, "%s%s %q %s\n", indent, n.Token.Type, n.Token.Text, n.Token.Span)
		return
	}
	fmt.Fprintf(sb, "%s%s %s\n", indent, n.Kind, n.Span)
	for _, c := range n.Children {
		Dump(sb, c, depth+1)
	}
}
