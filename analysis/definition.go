// Copyright © 2024 The nxt authors

package analysis

import (
	"strings"

	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/intern"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// DefKind classifies a definition.
type DefKind = astutil.DefKind

const (
	DefBuiltin      = astutil.DefBuiltin
	DefLet          = astutil.DefLet
	DefInherit      = astutil.DefInherit
	DefRecAttr      = astutil.DefRecAttr
	DefParam        = astutil.DefParam
	DefPatternField = astutil.DefPatternField
	DefPatternBind  = astutil.DefPatternBind
)

// Definition represents a name bound in a scope. Only Referenced and
// References change after the definition is created.
type Definition struct {
	Scope  ScopeID
	Symbol intern.Symbol
	Name   string
	Kind   DefKind
	Span   token.Span   // the binding name; empty for builtins
	Node   *syntax.Node // nil for builtins

	Referenced bool
	References int

	// DuplicateOf is the canonical earlier definition of the same name in
	// the same scope, or zero.
	DuplicateOf DefID
}

// IsBuiltin reports whether d belongs to the prelude.
func (d *Definition) IsBuiltin() bool {
	return d.Kind == DefBuiltin
}

// IsDuplicate reports whether d repeats a name already bound in its scope.
func (d *Definition) IsDuplicate() bool {
	return d.DuplicateOf.Valid()
}

// IsDiscard reports whether the name follows the convention for values
// that are deliberately left unused.
func (d *Definition) IsDiscard() bool {
	return IsDiscardName(d.Name)
}

// IsDiscardName reports whether name is `_` or starts with an underscore.
// Builtins such as __toString are not discards.
func IsDiscardName(name string) bool {
	return strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "__")
}
