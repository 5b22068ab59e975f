// Copyright © 2024 The nxt authors

package analysis

import (
	"fmt"

	"github.com/luthersystems/nxt/intern"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// Resolution is the outcome of resolving a reference.
type Resolution uint8

const (
	// Resolved references have a lexical definition.
	Resolved Resolution = iota + 1
	// Dynamic references may be provided by an enclosing `with`.
	Dynamic
	// Unresolved references have no possible binding.
	Unresolved
)

func (r Resolution) String() string {
	switch r {
	case Resolved:
		return "resolved"
	case Dynamic:
		return "dynamic"
	case Unresolved:
		return "unresolved"
	}
	return fmt.Sprintf("Resolution(%d)", r)
}

// Reference records a use of a name. References are immutable once
// created.
type Reference struct {
	Symbol intern.Symbol
	Name   string
	Span   token.Span
	Node   *syntax.Node
	Scope  ScopeID // the scope the name was used in
	Outer  bool    // lookup started at the parent of Scope

	Resolution Resolution
	Def        DefID   // set when Resolved
	With       ScopeID // innermost `with` crossed, set when Dynamic
}
