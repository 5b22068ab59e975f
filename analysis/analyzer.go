// Copyright © 2024 The nxt authors

package analysis

import (
	"fmt"

	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/intern"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// resolver turns the event stream of one tree into scopes, definitions
// and references. It keeps the stack of open scopes; the bottom of the
// stack is always the prelude.
type resolver struct {
	res   *Result
	stack []ScopeID
}

func (r *resolver) step(ev astutil.Event) error {
	switch ev.Kind {
	case astutil.EnterScope:
		id := r.push(ev.Scope, ev.Span, ev.Node, false)
		if ev.Scope == ScopeFile && !r.res.File.Valid() {
			r.res.File = id
		}
	case astutil.EnterDynamicScope:
		r.push(ScopeWith, ev.Span, ev.Node, true)
	case astutil.Bind:
		if len(r.stack) < 2 {
			return fmt.Errorf("%w: bind outside of any scope", ErrInternal)
		}
		r.bind(r.top(), ev.Symbol, ev.Def, ev.Span, ev.Node)
	case astutil.Use:
		if len(r.stack) < 2 {
			return fmt.Errorf("%w: use outside of any scope", ErrInternal)
		}
		r.use(ev)
	case astutil.ExitScope:
		return r.pop()
	default:
		return fmt.Errorf("%w: unknown event %v", ErrInternal, ev.Kind)
	}
	return nil
}

func (r *resolver) top() ScopeID {
	return r.stack[len(r.stack)-1]
}

func (r *resolver) push(kind ScopeKind, span token.Span, node *syntax.Node, dynamic bool) ScopeID {
	scope := Scope{
		Kind:    kind,
		Span:    span,
		Node:    node,
		Dynamic: dynamic,
		Defs:    make(map[intern.Symbol]DefID),
	}
	if len(r.stack) > 0 {
		scope.Parent = r.top()
	}
	id := r.res.Scopes.Alloc(scope)
	if scope.Parent.Valid() {
		parent := r.res.Scopes.Get(scope.Parent)
		parent.Children = append(parent.Children, id)
	}
	r.stack = append(r.stack, id)
	return id
}

func (r *resolver) pop() error {
	switch len(r.stack) {
	case 0:
		return fmt.Errorf("%w: exit with no open scope", ErrInternal)
	case 1:
		return fmt.Errorf("%w: exit of the prelude scope", ErrInternal)
	}
	r.res.Scopes.Get(r.top()).closed = true
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

// bind defines sym in the given scope. A repeated name keeps the earlier
// definition canonical and records the new one as its duplicate.
func (r *resolver) bind(id ScopeID, sym intern.Symbol, kind DefKind, span token.Span, node *syntax.Node) DefID {
	scope := r.res.Scopes.Get(id)
	def := Definition{
		Scope:  id,
		Symbol: sym,
		Name:   r.res.Interner.MustLookup(sym),
		Kind:   kind,
		Span:   span,
		Node:   node,
	}
	prev, dup := scope.Defs[sym]
	if dup {
		def.DuplicateOf = prev
	}
	h := r.res.Defs.Alloc(def)
	if !dup {
		scope.Defs[sym] = h
	}
	scope.Order = append(scope.Order, h)
	return h
}

// use records a reference and resolves it. Lexical definitions win over
// any `with` crossed on the way, at every depth.
func (r *resolver) use(ev astutil.Event) {
	ref := Reference{
		Symbol: ev.Symbol,
		Name:   r.res.Interner.MustLookup(ev.Symbol),
		Span:   ev.Span,
		Node:   ev.Node,
		Scope:  r.top(),
		Outer:  ev.Outer,
	}
	start := len(r.stack) - 1
	if ev.Outer {
		start--
	}
	for i := start; i >= 0; i-- {
		scope := r.res.Scopes.Get(r.stack[i])
		if scope.Dynamic {
			if !ref.With.Valid() {
				ref.With = r.stack[i]
			}
			continue
		}
		if def, ok := scope.Defs[ev.Symbol]; ok {
			ref.Resolution, ref.Def = Resolved, def
			break
		}
	}
	if ref.Resolution == 0 && isHiddenBuiltin(ref.Name) {
		ref.Resolution = Resolved
		ref.Def = r.bind(r.res.Prelude, ev.Symbol, DefBuiltin, token.Span{}, nil)
	}
	switch {
	case ref.Resolution == Resolved:
		ref.With = ScopeID{}
		def := r.res.Defs.Get(ref.Def)
		def.Referenced = true
		def.References++
	case ref.With.Valid():
		ref.Resolution = Dynamic
	default:
		ref.Resolution = Unresolved
	}
	r.res.Refs.Alloc(ref)
}
