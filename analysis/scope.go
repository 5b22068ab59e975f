// Copyright © 2024 The nxt authors

package analysis

import (
	"github.com/luthersystems/nxt/arena"
	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/intern"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// ScopeKind classifies the kind of scope.
type ScopeKind = astutil.ScopeKind

const (
	ScopePrelude = astutil.ScopePrelude // global builtins
	ScopeFile    = astutil.ScopeFile
	ScopeLet     = astutil.ScopeLet
	ScopeRec     = astutil.ScopeRec
	ScopeLambda  = astutil.ScopeLambda
	ScopeWith    = astutil.ScopeWith // dynamic marker
)

// Handles into the arenas of one analysis pass.
type (
	ScopeID = arena.Handle[Scope]
	DefID   = arena.Handle[Definition]
	RefID   = arena.Handle[Reference]
)

// Scope represents a lexical scope in the source, or the dynamic marker
// introduced by `with`.
type Scope struct {
	Kind    ScopeKind
	Parent  ScopeID // zero for the prelude
	Span    token.Span
	Node    *syntax.Node // the node that introduced this scope, nil for the prelude
	Dynamic bool

	// Defs maps each name bound in the scope to its canonical Definition.
	// Order lists every Definition bound in the scope, duplicates included.
	Defs     map[intern.Symbol]DefID
	Order    []DefID
	Children []ScopeID

	closed bool
}

// Closed reports whether the scope has been exited. A closed scope is never
// modified again.
func (s *Scope) Closed() bool {
	return s.closed
}

// LookupLocal resolves a symbol only in this scope (not parents).
func (s *Scope) LookupLocal(sym intern.Symbol) (DefID, bool) {
	id, ok := s.Defs[sym]
	return id, ok
}
