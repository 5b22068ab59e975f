// Copyright © 2024 The nxt authors

package astutil

import (
	"strings"

	"github.com/luthersystems/nxt/syntax"
)

// AttrConflict is an attribute defined twice in one set or let, in a way
// Nix refuses to merge.
type AttrConflict struct {
	Path  []string     // static attribute path, outermost first
	Node  *syntax.Node // segment or inherited name of the later definition
	First *syntax.Node // where the attribute was first defined
}

// Name returns the dotted attribute path.
func (c AttrConflict) Name() string {
	return strings.Join(c.Path, ".")
}

// attrNode is one attribute of the set being checked. Attributes created by
// a nested path, or defined as a plain attribute set literal, can be
// extended by later definitions; everything else is final.
type attrNode struct {
	first     *syntax.Node
	mergeable bool
	children  map[string]*attrNode
}

func newAttrNode(first *syntax.Node, mergeable bool) *attrNode {
	return &attrNode{first: first, mergeable: mergeable, children: make(map[string]*attrNode)}
}

// AttrConflicts returns the conflicting definitions among the entries of a
// let or attribute set, in source order. Nested paths with a common prefix
// merge (`a.b = 1; a.c = 2;`), as do two plain attribute set literals.
// Redefining a value, or mixing a value with a nested path, conflicts.
// Entries with a dynamic segment are not checked past it.
func AttrConflicts(entries []*syntax.Node) []AttrConflict {
	var out []AttrConflict
	addAttrEntries(newAttrNode(nil, true), nil, entries, func(c AttrConflict) {
		out = append(out, c)
	})
	return out
}

func addAttrEntries(set *attrNode, prefix []string, entries []*syntax.Node, report func(AttrConflict)) {
	for _, entry := range entries {
		switch entry.Kind {
		case syntax.KindBinding:
			b := Binding{entry}
			addAttrPath(set, prefix, b.Attrpath().Segments(), b.Value(), report)
		case syntax.KindInherit:
			for _, attr := range (Inherit{entry}).Attrs() {
				name, ok := StaticName(attr)
				if !ok {
					continue
				}
				if prev := set.children[name]; prev != nil {
					report(AttrConflict{Path: pathWith(prefix, name), Node: attr, First: prev.first})
					continue
				}
				set.children[name] = newAttrNode(attr, false)
			}
		}
	}
}

func addAttrPath(set *attrNode, prefix []string, segs []*syntax.Node, value *syntax.Node, report func(AttrConflict)) {
	cur := set
	path := prefix
	for i, seg := range segs {
		name, ok := StaticName(seg)
		if !ok {
			return
		}
		path = pathWith(path, name)
		prev := cur.children[name]
		if i < len(segs)-1 {
			switch {
			case prev == nil:
				prev = newAttrNode(seg, true)
				cur.children[name] = prev
			case !prev.mergeable:
				report(AttrConflict{Path: path, Node: seg, First: prev.first})
				return
			}
			cur = prev
			continue
		}

		lit, isSet := plainSetLiteral(value)
		switch {
		case prev == nil:
			node := newAttrNode(seg, isSet)
			cur.children[name] = node
			if isSet {
				// Conflicts inside the literal belong to the literal itself.
				addAttrEntries(node, path, lit.Entries(), func(AttrConflict) {})
			}
		case prev.mergeable && isSet:
			addAttrEntries(prev, path, lit.Entries(), report)
		default:
			report(AttrConflict{Path: path, Node: seg, First: prev.first})
		}
	}
}

// plainSetLiteral returns value as a non-recursive attribute set literal.
func plainSetLiteral(value *syntax.Node) (AttrSet, bool) {
	for value != nil && value.Kind == syntax.KindParen {
		value = first(value.Nodes())
	}
	if value == nil || value.Kind != syntax.KindAttrSet {
		return AttrSet{}, false
	}
	set := AttrSet{value}
	return set, !set.Rec()
}

func pathWith(prefix []string, name string) []string {
	path := make([]string, len(prefix), len(prefix)+1)
	copy(path, prefix)
	return append(path, name)
}
