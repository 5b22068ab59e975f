// Copyright © 2024 The nxt authors

// Package analysis provides scope-aware semantic analysis for Nix source.
//
// The analyzer consumes the event stream of a syntax tree, builds the scope
// tree, and resolves every reference to a definition, to an enclosing
// `with`, or to nothing. It is designed to be used by lint analyzers for
// semantic checks like unresolved-reference and unused-binding.
//
// All scopes, definitions and references of one pass live in arenas owned
// by the pass's Result and are addressed by handle.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/luthersystems/nxt/arena"
	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/intern"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// ErrInternal marks a broken invariant inside the analyzer itself, as
// opposed to a problem with the analyzed source.
var ErrInternal = errors.New("internal analysis error")

// Config controls the behavior of the analyzer.
type Config struct {
	// Filename is the source file being analyzed. It defaults to the
	// tree's filename.
	Filename string

	// ExtraBuiltins are additional names bound in the prelude, such as
	// arguments injected by the caller of an expression.
	ExtraBuiltins []string
}

// Result holds the output of semantic analysis.
type Result struct {
	Filename string
	Tree     *syntax.Root
	Interner *intern.Interner

	Scopes *arena.Arena[Scope]
	Defs   *arena.Arena[Definition]
	Refs   *arena.Arena[Reference]

	Prelude ScopeID
	File    ScopeID
}

// Analyze performs semantic analysis of a parsed file. It fails only when
// ctx is done or the analyzer breaks one of its own invariants; problems in
// the source are part of the result.
func Analyze(ctx context.Context, root *syntax.Root, cfg *Config) (res *Result, err error) {
	if cfg == nil {
		cfg = &Config{}
	}
	filename := cfg.Filename
	defer func() {
		if p := recover(); p != nil {
			perr, ok := p.(error)
			if !ok {
				perr = fmt.Errorf("%v", p)
			}
			res, err = nil, fmt.Errorf("%s: %w: %w", filename, ErrInternal, perr)
		}
	}()
	if filename == "" {
		filename = root.Filename
	}

	pass := arena.NewPass()
	res = &Result{
		Filename: filename,
		Tree:     root,
		Interner: intern.New(),
		Scopes:   arena.New[Scope](pass),
		Defs:     arena.New[Definition](pass),
		Refs:     arena.New[Reference](pass),
	}
	r := &resolver{res: res}
	res.Prelude = r.push(ScopePrelude, token.Span{}, nil, false)
	prelude := res.Scopes.Get(res.Prelude)
	for _, names := range [][]string{builtinNames, cfg.ExtraBuiltins} {
		for _, name := range names {
			sym := res.Interner.Intern(name)
			if _, ok := prelude.Defs[sym]; !ok {
				r.bind(res.Prelude, sym, DefBuiltin, token.Span{}, nil)
			}
		}
	}

	for ev := range astutil.Events(root, res.Interner) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		if err := r.step(ev); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	if len(r.stack) != 1 {
		return nil, fmt.Errorf("%s: %w: %d scopes left open", filename, ErrInternal, len(r.stack)-1)
	}
	prelude.closed = true
	return res, nil
}

// Scope returns the scope with the given handle.
func (res *Result) Scope(id ScopeID) *Scope {
	return res.Scopes.Get(id)
}

// Def returns the definition with the given handle.
func (res *Result) Def(id DefID) *Definition {
	return res.Defs.Get(id)
}

// Ref returns the reference with the given handle.
func (res *Result) Ref(id RefID) *Reference {
	return res.Refs.Get(id)
}

// Lookup resolves sym lexically from scope outward, skipping `with`
// markers.
func (res *Result) Lookup(scope ScopeID, sym intern.Symbol) (DefID, bool) {
	for id := scope; id.Valid(); id = res.Scopes.Get(id).Parent {
		if def, ok := res.Scopes.Get(id).Defs[sym]; ok {
			return def, true
		}
	}
	return DefID{}, false
}

// Definitions iterates over every definition outside the prelude, in the
// order they were bound.
func (res *Result) Definitions() iter.Seq2[DefID, *Definition] {
	return func(yield func(DefID, *Definition) bool) {
		for id, def := range res.Defs.All() {
			if def.IsBuiltin() {
				continue
			}
			if !yield(id, def) {
				return
			}
		}
	}
}

// References iterates over every reference in the order of use.
func (res *Result) References() iter.Seq2[RefID, *Reference] {
	return res.Refs.All()
}

// ReferenceAt returns the reference whose span contains offset. An offset
// just past the end of a name still selects it.
func (res *Result) ReferenceAt(offset int) (RefID, bool) {
	for id, ref := range res.Refs.All() {
		if within(ref.Span, offset) {
			return id, true
		}
	}
	return RefID{}, false
}

// DefinitionAt returns the definition whose binding name contains offset.
func (res *Result) DefinitionAt(offset int) (DefID, bool) {
	for id, def := range res.Definitions() {
		if within(def.Span, offset) {
			return id, true
		}
	}
	return DefID{}, false
}

// ReferencesTo returns the references resolved to def.
func (res *Result) ReferencesTo(def DefID) []RefID {
	var refs []RefID
	for id, ref := range res.Refs.All() {
		if ref.Resolution == Resolved && ref.Def == def {
			refs = append(refs, id)
		}
	}
	return refs
}

// Shadowed returns the definition of def's name in the nearest enclosing
// lexical scope outside the prelude, if there is one.
func (res *Result) Shadowed(def DefID) (DefID, bool) {
	d := res.Defs.Get(def)
	parent := res.Scopes.Get(d.Scope).Parent
	for id := parent; id.Valid(); id = res.Scopes.Get(id).Parent {
		scope := res.Scopes.Get(id)
		if scope.Dynamic || scope.Kind == ScopePrelude {
			continue
		}
		if outer, ok := scope.Defs[d.Symbol]; ok {
			return outer, true
		}
	}
	return DefID{}, false
}

func within(span token.Span, offset int) bool {
	return span.Start <= offset && offset <= span.End && span.Len() > 0
}
