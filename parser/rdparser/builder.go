// Copyright © 2024 The nxt authors

package rdparser

import (
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// builder assembles a lossless tree from a stack of open nodes. Trivia is
// attached to whichever node is open when the following token is consumed,
// so a new node never starts with the trivia that precedes it.
type builder struct {
	src   *TokenSource
	stack []openNode
}

type openNode struct {
	node *syntax.Node
	pos  int // offset used for the span when the node has no tokens
}

// checkpoint marks a position in the open node so that a node started
// later can adopt the children added after it.
type checkpoint int

func (b *builder) top() *syntax.Node {
	return b.stack[len(b.stack)-1].node
}

func (b *builder) flushTrivia() {
	for _, tok := range b.src.Trivia() {
		b.addLeaf(tok)
	}
}

func (b *builder) addLeaf(tok *token.Token) {
	top := b.top()
	top.Children = append(top.Children, &syntax.Node{Kind: syntax.KindToken, Span: tok.Span, Token: tok})
}

func (b *builder) start(kind syntax.Kind) {
	if len(b.stack) > 0 {
		b.flushTrivia()
	}
	b.stack = append(b.stack, openNode{
		node: &syntax.Node{Kind: kind},
		pos:  b.src.Peek().Span.Start,
	})
}

func (b *builder) checkpoint() checkpoint {
	b.flushTrivia()
	return checkpoint(len(b.top().Children))
}

// startAt opens a node of the given kind that adopts every child added to
// the current node since cp.
func (b *builder) startAt(cp checkpoint, kind syntax.Kind) {
	parent := b.top()
	n := &syntax.Node{Kind: kind}
	n.Children = append(n.Children, parent.Children[cp:]...)
	parent.Children = parent.Children[:cp]
	pos := b.src.Peek().Span.Start
	if len(n.Children) > 0 {
		pos = n.Children[0].Span.Start
	}
	b.stack = append(b.stack, openNode{node: n, pos: pos})
}

// bump consumes the next significant token into the open node.
func (b *builder) bump() *token.Token {
	b.flushTrivia()
	tok := b.src.Next()
	if tok.Type != token.EOF {
		b.addLeaf(tok)
	}
	return tok
}

func (b *builder) finish() *syntax.Node {
	open := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	n := open.node
	n.Span = significantSpan(n, open.pos)
	if len(b.stack) > 0 {
		parent := b.top()
		parent.Children = append(parent.Children, n)
	}
	return n
}

// significantSpan covers the non-trivia leaves of n. A node without any is
// given an empty span at pos.
func significantSpan(n *syntax.Node, pos int) token.Span {
	var span token.Span
	found := false
	for _, c := range n.Children {
		if c.IsTrivia() {
			continue
		}
		if !c.IsToken() && c.Span.Len() == 0 {
			continue
		}
		if !found {
			span, found = c.Span, true
			continue
		}
		span = span.Cover(c.Span)
	}
	if !found {
		return token.Span{Start: pos, End: pos}
	}
	return span
}
