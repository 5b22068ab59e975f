// Copyright © 2024 The nxt authors

package astutil

import (
	"fmt"
	"iter"

	"github.com/luthersystems/nxt/intern"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// EventKind tags an Event.
type EventKind uint8

const (
	EnterScope EventKind = iota + 1
	EnterDynamicScope
	Bind
	Use
	ExitScope
)

func (k EventKind) String() string {
	switch k {
	case EnterScope:
		return "enter"
	case EnterDynamicScope:
		return "enter-dynamic"
	case Bind:
		return "bind"
	case Use:
		return "use"
	case ExitScope:
		return "exit"
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// ScopeKind identifies the construct that introduced a scope.
type ScopeKind uint8

const (
	ScopePrelude ScopeKind = iota + 1
	ScopeFile
	ScopeLet
	ScopeRec
	ScopeLambda
	ScopeWith
)

func (k ScopeKind) String() string {
	switch k {
	case ScopePrelude:
		return "prelude"
	case ScopeFile:
		return "file"
	case ScopeLet:
		return "let"
	case ScopeRec:
		return "rec"
	case ScopeLambda:
		return "lambda"
	case ScopeWith:
		return "with"
	}
	return fmt.Sprintf("ScopeKind(%d)", k)
}

// DefKind identifies how a name was bound.
type DefKind uint8

const (
	DefBuiltin DefKind = iota + 1
	DefLet
	DefInherit
	DefRecAttr
	DefParam
	DefPatternField
	DefPatternBind
)

func (k DefKind) String() string {
	switch k {
	case DefBuiltin:
		return "builtin"
	case DefLet:
		return "let"
	case DefInherit:
		return "inherit"
	case DefRecAttr:
		return "rec-attr"
	case DefParam:
		return "param"
	case DefPatternField:
		return "pattern-field"
	case DefPatternBind:
		return "pattern-bind"
	}
	return fmt.Sprintf("DefKind(%d)", k)
}

// Event is a single step of the semantic walk of a tree.
//
// Scope is set for EnterScope, Def for Bind. Symbol is set for Bind and Use.
// Outer marks a Use that must be resolved starting from the scope enclosing
// the current one, as for `inherit a;` inside a let.
type Event struct {
	Kind   EventKind
	Scope  ScopeKind
	Def    DefKind
	Symbol intern.Symbol
	Span   token.Span
	Node   *syntax.Node
	Outer  bool
}

func (ev Event) String() string {
	switch ev.Kind {
	case EnterScope:
		return fmt.Sprintf("%s %s %s", ev.Kind, ev.Scope, ev.Span)
	case Bind:
		return fmt.Sprintf("%s %s #%d %s", ev.Kind, ev.Def, ev.Symbol, ev.Span)
	case Use:
		if ev.Outer {
			return fmt.Sprintf("%s outer #%d %s", ev.Kind, ev.Symbol, ev.Span)
		}
		return fmt.Sprintf("%s #%d %s", ev.Kind, ev.Symbol, ev.Span)
	}
	return fmt.Sprintf("%s %s", ev.Kind, ev.Span)
}

// Outcome is the result of one step of the walk.
type Outcome uint8

const (
	// Continue means the step completed and the walk goes on.
	Continue Outcome = iota
	// Skipped means the step met an Error node and emitted nothing for it.
	Skipped
	// Stop means the consumer asked the walk to end.
	Stop
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Skipped:
		return "skipped"
	case Stop:
		return "stop"
	}
	return fmt.Sprintf("Outcome(%d)", o)
}

// Events returns the semantic event sequence of root, interning names into
// in. The sequence is produced lazily. Iteration may be abandoned at any
// point, or driven step by step with iter.Pull.
func Events(root *syntax.Root, in *intern.Interner) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		WalkEvents(root, in, yield)
	}
}

// WalkEvents calls fn for each event of root in order and reports how the
// walk ended. The walk ends early with Stop when fn returns false.
func WalkEvents(root *syntax.Root, in *intern.Interner, fn func(Event) bool) Outcome {
	w := &walker{in: in, fn: fn}
	return w.file(root.Node)
}

type walker struct {
	in *intern.Interner
	fn func(Event) bool
}

func (w *walker) emit(ev Event) Outcome {
	if !w.fn(ev) {
		return Stop
	}
	return Continue
}

func (w *walker) enter(kind ScopeKind, n *syntax.Node) Outcome {
	return w.emit(Event{Kind: EnterScope, Scope: kind, Span: n.Span, Node: n})
}

func (w *walker) exit(n *syntax.Node) Outcome {
	return w.emit(Event{Kind: ExitScope, Span: n.Span, Node: n})
}

func (w *walker) bind(def DefKind, name string, n *syntax.Node) Outcome {
	return w.emit(Event{Kind: Bind, Def: def, Symbol: w.in.Intern(name), Span: n.Span, Node: n})
}

func (w *walker) use(name string, n *syntax.Node, outer bool) Outcome {
	return w.emit(Event{Kind: Use, Symbol: w.in.Intern(name), Span: n.Span, Node: n, Outer: outer})
}

func (w *walker) file(n *syntax.Node) Outcome {
	if w.enter(ScopeFile, n) == Stop {
		return Stop
	}
	if w.all(n.Nodes()) == Stop {
		return Stop
	}
	return w.exit(n)
}

func (w *walker) all(nodes []*syntax.Node) Outcome {
	for _, n := range nodes {
		if w.expr(n) == Stop {
			return Stop
		}
	}
	return Continue
}

func (w *walker) expr(n *syntax.Node) Outcome {
	if n == nil {
		return Continue
	}
	switch n.Kind {
	case syntax.KindError:
		return Skipped
	case syntax.KindName, syntax.KindToken:
		return Continue
	case syntax.KindIdent:
		return w.use(Ident{n}.Name(), n, false)
	case syntax.KindLetIn:
		let := LetIn{n}
		return w.recursive(ScopeLet, DefLet, n, let.Entries(), let.Body())
	case syntax.KindAttrSet, syntax.KindLegacyLet:
		set := AttrSet{n}
		if set.Rec() {
			return w.recursive(ScopeRec, DefRecAttr, n, set.Entries(), nil)
		}
		return w.plainSet(set)
	case syntax.KindLambda:
		return w.lambda(Lambda{n})
	case syntax.KindWith:
		return w.with(With{n})
	case syntax.KindAttrpath:
		return w.attrpath(Attrpath{n})
	}
	return w.all(n.Nodes())
}

// recursive walks a let or rec set: every name is bound before any value
// is walked, so that bindings can refer to each other.
func (w *walker) recursive(scope ScopeKind, def DefKind, n *syntax.Node, entries []*syntax.Node, body *syntax.Node) Outcome {
	if w.enter(scope, n) == Stop {
		return Stop
	}
	if w.bindEntries(entries, def) == Stop {
		return Stop
	}
	for _, entry := range entries {
		var out Outcome
		switch entry.Kind {
		case syntax.KindBinding:
			out = w.bindingValue(Binding{entry})
		case syntax.KindInherit:
			out = w.inherit(Inherit{entry}, true)
		}
		if out == Stop {
			return Stop
		}
	}
	if w.expr(body) == Stop {
		return Stop
	}
	return w.exit(n)
}

// bindEntries emits the Bind events of a let or rec set. Only the first
// segment of an attribute path binds. Definitions that Nix merges into one
// attribute bind it once; a conflicting redefinition binds it again.
func (w *walker) bindEntries(entries []*syntax.Node, def DefKind) Outcome {
	redefined := make(map[*syntax.Node]bool)
	for _, c := range AttrConflicts(entries) {
		if len(c.Path) == 1 {
			redefined[c.Node] = true
		}
	}
	bound := make(map[string]bool)
	for _, entry := range entries {
		switch entry.Kind {
		case syntax.KindBinding:
			segs := Binding{entry}.Attrpath().Segments()
			if len(segs) == 0 {
				continue
			}
			name, ok := StaticName(segs[0])
			if !ok || (bound[name] && !redefined[segs[0]]) {
				continue
			}
			bound[name] = true
			if w.bind(def, name, segs[0]) == Stop {
				return Stop
			}
		case syntax.KindInherit:
			for _, attr := range (Inherit{entry}).Attrs() {
				name, ok := StaticName(attr)
				if !ok {
					continue
				}
				bound[name] = true
				if w.bind(DefInherit, name, attr) == Stop {
					return Stop
				}
			}
		}
	}
	return Continue
}

func (w *walker) bindingValue(b Binding) Outcome {
	if w.attrpath(b.Attrpath()) == Stop {
		return Stop
	}
	return w.expr(b.Value())
}

// attrpath walks the expressions embedded in an attribute path. Static
// names are not references.
func (w *walker) attrpath(path Attrpath) Outcome {
	for _, seg := range path.Segments() {
		if seg.Kind == syntax.KindName {
			continue
		}
		if w.all(seg.Nodes()) == Stop {
			return Stop
		}
	}
	return Continue
}

// inherit walks an inherit entry. Without a source expression each name
// is a reference; inside a let or rec set it resolves from the enclosing
// scope, since the name it binds would otherwise find itself.
func (w *walker) inherit(in Inherit, outer bool) Outcome {
	if from := in.From(); from != nil {
		return w.expr(from)
	}
	for _, attr := range in.Attrs() {
		name, ok := StaticName(attr)
		if !ok {
			if w.expr(attr) == Stop {
				return Stop
			}
			continue
		}
		if w.use(name, attr, outer) == Stop {
			return Stop
		}
	}
	return Continue
}

func (w *walker) plainSet(set AttrSet) Outcome {
	for _, entry := range set.Entries() {
		var out Outcome
		switch entry.Kind {
		case syntax.KindBinding:
			out = w.bindingValue(Binding{entry})
		case syntax.KindInherit:
			out = w.inherit(Inherit{entry}, false)
		}
		if out == Stop {
			return Stop
		}
	}
	return Continue
}

func (w *walker) lambda(fn Lambda) Outcome {
	if w.enter(ScopeLambda, fn.Node) == Stop {
		return Stop
	}
	if param := fn.Param(); param != nil {
		if w.bind(DefParam, param.SignificantText(), param) == Stop {
			return Stop
		}
	}
	pat, hasPattern := fn.Pattern()
	if hasPattern {
		bind := pat.Bind()
		if bind != nil && pat.BindFirst() {
			if w.bind(DefPatternBind, bind.SignificantText(), bind) == Stop {
				return Stop
			}
		}
		for _, field := range pat.Entries() {
			name := field.Name()
			if name == nil {
				continue
			}
			if w.bind(DefPatternField, name.SignificantText(), name) == Stop {
				return Stop
			}
		}
		if bind != nil && !pat.BindFirst() {
			if w.bind(DefPatternBind, bind.SignificantText(), bind) == Stop {
				return Stop
			}
		}
		for _, field := range pat.Entries() {
			if w.expr(field.Default()) == Stop {
				return Stop
			}
		}
	}
	if w.expr(fn.Body()) == Stop {
		return Stop
	}
	return w.exit(fn.Node)
}

func (w *walker) with(with With) Outcome {
	if w.expr(with.Namespace()) == Stop {
		return Stop
	}
	if w.emit(Event{Kind: EnterDynamicScope, Scope: ScopeWith, Span: with.Node.Span, Node: with.Node}) == Stop {
		return Stop
	}
	if w.expr(with.Body()) == Stop {
		return Stop
	}
	return w.exit(with.Node)
}
