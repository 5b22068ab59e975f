// Copyright © 2024 The nxt authors

// Package astutil provides typed, read-only views over the Nix syntax tree
// and the semantic event stream consumed by the scope resolver.
//
// These helpers are used by the analysis, lint and lsp packages. None of
// them modify the tree.
package astutil

import (
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// Walk calls fn for every inner node under root, depth-first. parent is nil
// for root itself.
func Walk(root *syntax.Node, fn func(node *syntax.Node, parent *syntax.Node, depth int)) {
	walkNode(root, nil, 0, fn)
}

func walkNode(node *syntax.Node, parent *syntax.Node, depth int, fn func(*syntax.Node, *syntax.Node, int)) {
	if node == nil || node.IsToken() {
		return
	}
	fn(node, parent, depth)
	for _, child := range node.Children {
		walkNode(child, node, depth+1, fn)
	}
}

// WalkKind calls fn for every inner node of the given kind under root.
func WalkKind(root *syntax.Node, kind syntax.Kind, fn func(node *syntax.Node)) {
	Walk(root, func(node *syntax.Node, _ *syntax.Node, _ int) {
		if node.Kind == kind {
			fn(node)
		}
	})
}

// PathTo returns the chain of inner nodes from root down to the innermost
// node whose span contains offset. It returns nil when root does not
// contain offset.
func PathTo(root *syntax.Node, offset int) []*syntax.Node {
	if !covers(root.Span, offset) {
		return nil
	}
	path := []*syntax.Node{root}
	for {
		next := childAt(path[len(path)-1], offset)
		if next == nil {
			return path
		}
		path = append(path, next)
	}
}

// NodeAt returns the innermost inner node containing offset, or nil.
func NodeAt(root *syntax.Node, offset int) *syntax.Node {
	path := PathTo(root, offset)
	if len(path) == 0 {
		return nil
	}
	return path[len(path)-1]
}

func childAt(n *syntax.Node, offset int) *syntax.Node {
	for _, c := range n.Children {
		if !c.IsToken() && covers(c.Span, offset) {
			return c
		}
	}
	return nil
}

// covers is Span.Contains extended to the end offset, so that a cursor just
// after an identifier still selects it.
func covers(span token.Span, offset int) bool {
	return span.Start <= offset && offset <= span.End
}
