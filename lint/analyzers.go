// Copyright © 2024 The nxt authors

package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// AnalyzerUnusedBinding reports definitions that are never referenced.
var AnalyzerUnusedBinding = &Analyzer{
	Name:     "unused-binding",
	Severity: SeverityWarning,
	Doc:      "Report bindings that are never used.\n\nA let binding, inherited name, function parameter or pattern field that no expression refers to is usually dead code or a misspelled reference. Attributes of a `rec` set are not reported because they are part of the set's value. Parameters and pattern fields whose name starts with an underscore are deliberately unused and are not reported.",
	Run: func(pass *Pass) error {
		res := pass.Semantics
		for _, def := range res.Definitions() {
			if def.Referenced || def.IsDuplicate() {
				continue
			}
			if res.Scope(def.Scope).Kind == analysis.ScopeRec {
				continue
			}
			switch def.Kind {
			case analysis.DefParam, analysis.DefPatternField, analysis.DefPatternBind:
				if def.IsDiscard() {
					continue
				}
			}
			pass.Reportf(def.Span, "%s %q is never used", describeDef(def.Kind), def.Name)
		}
		return nil
	},
}

// AnalyzerUnresolvedReference reports names that are not bound anywhere.
var AnalyzerUnresolvedReference = &Analyzer{
	Name:     "unresolved-reference",
	Severity: SeverityError,
	Doc:      "Report references to names that are not bound.\n\nA name that is not bound by an enclosing let, rec set, function or builtin fails when evaluated. Names that may be provided by an enclosing `with` are never reported, since their presence cannot be known without evaluating the program.",
	Run: func(pass *Pass) error {
		for _, ref := range pass.Semantics.References() {
			if ref.Resolution != analysis.Unresolved {
				continue
			}
			pass.Reportf(ref.Span, "undefined variable %q", ref.Name)
		}
		return nil
	},
}

// AnalyzerShadowedBinding reports bindings that hide an outer binding of the
// same name.
var AnalyzerShadowedBinding = &Analyzer{
	Name:     "shadowed-binding",
	Severity: SeverityWarning,
	Doc:      "Report bindings that shadow an outer binding.\n\nRebinding a name that is already bound in an enclosing scope makes the outer binding unreachable inside the inner scope, which is easy to misread. Builtins and names brought in by `with` are not considered. Names starting with an underscore are ignored.",
	Run: func(pass *Pass) error {
		res := pass.Semantics
		for id, def := range res.Definitions() {
			if def.IsDiscard() || def.IsDuplicate() {
				continue
			}
			outerID, ok := res.Shadowed(id)
			if !ok {
				continue
			}
			if def.Kind == analysis.DefInherit && inheritsFrom(res, def, outerID) {
				continue
			}
			outer := res.Def(outerID)
			pass.Report(Diagnostic{
				Span:    def.Span,
				Message: fmt.Sprintf("%s %q shadows an outer binding", describeDef(def.Kind), def.Name),
				Related: []Related{{Span: outer.Span, Message: "shadowed binding is here"}},
			})
		}
		return nil
	},
}

// AnalyzerDuplicateBinding reports names and attributes defined twice.
var AnalyzerDuplicateBinding = &Analyzer{
	Name:     "duplicate-binding",
	Severity: SeverityError,
	Doc:      "Report names and attributes defined more than once.\n\nNix rejects a let, attribute set or pattern that defines the same name twice, including an attribute given both a value and a nested path (`a.b = 1; a = 2;`). Nested paths with a common prefix and plain attribute set literals merge and are not reported. References resolve to the first definition.",
	Run: func(pass *Pass) error {
		res := pass.Semantics
		for _, def := range res.Definitions() {
			if !def.IsDuplicate() {
				continue
			}
			first := res.Def(def.DuplicateOf)
			pass.Report(Diagnostic{
				Span:    def.Span,
				Message: fmt.Sprintf("%q is already defined", def.Name),
				Related: []Related{{Span: first.Span, Message: "first defined here"}},
			})
		}
		seen := make(map[*syntax.Node]bool)
		astutil.Walk(pass.Tree.Node, func(n, _ *syntax.Node, _ int) {
			var (
				entries []*syntax.Node
				scoped  bool // top-level names are Definitions, reported above
			)
			switch n.Kind {
			case syntax.KindLetIn:
				entries, scoped = astutil.LetIn{Node: n}.Entries(), true
			case syntax.KindAttrSet, syntax.KindLegacyLet:
				set := astutil.AttrSet{Node: n}
				entries, scoped = set.Entries(), set.Rec()
			default:
				return
			}
			for _, c := range astutil.AttrConflicts(entries) {
				if (scoped && len(c.Path) == 1) || seen[c.Node] {
					continue
				}
				seen[c.Node] = true
				pass.Report(Diagnostic{
					Span:    c.Node.Span,
					Message: fmt.Sprintf("%q is already defined", c.Name()),
					Related: []Related{{Span: c.First.Span, Message: "first defined here"}},
				})
			}
		})
		return nil
	},
}

// AnalyzerSyntaxError reports the errors found by the parser.
var AnalyzerSyntaxError = &Analyzer{
	Name:     "syntax-error",
	Severity: SeverityError,
	Doc:      "Report syntax errors.\n\nThe parser recovers from malformed input so the rest of the file can still be checked. Each error it recovered from is reported here.",
	Run: func(pass *Pass) error {
		for _, err := range pass.Tree.Errors {
			pass.Reportf(err.Span, "%s", err.Message)
		}
		return nil
	},
}

// AnalyzerUselessRec reports `rec` sets whose attributes never refer to
// each other.
var AnalyzerUselessRec = &Analyzer{
	Name:     "useless-rec",
	Severity: SeverityInfo,
	Doc:      "Report `rec` attribute sets that do not need to be recursive.\n\nWhen no attribute of a `rec { ... }` set is referenced from inside the set, the `rec` keyword has no effect and can be removed.",
	Run: func(pass *Pass) error {
		res := pass.Semantics
		for _, scope := range res.Scopes.All() {
			if scope.Kind != analysis.ScopeRec || scope.Node == nil || scope.Node.Kind != syntax.KindAttrSet {
				continue
			}
			used := false
			for _, id := range scope.Order {
				if res.Def(id).Referenced {
					used = true
					break
				}
			}
			if used {
				continue
			}
			rec := scope.Node.Find(token.REC)
			if rec == nil {
				continue
			}
			pass.ReportWithNotes(Diagnostic{
				Span:    rec.Span,
				Message: "rec set never refers to its own attributes",
			}, "remove the rec keyword")
		}
		return nil
	},
}

// AnalyzerEmptyLet reports let expressions without bindings.
var AnalyzerEmptyLet = &Analyzer{
	Name:     "empty-let",
	Severity: SeverityInfo,
	Doc:      "Report `let in` expressions with no bindings.\n\nA let without bindings is equivalent to its body.",
	Run: func(pass *Pass) error {
		astutil.WalkKind(pass.Tree.Node, syntax.KindLetIn, func(n *syntax.Node) {
			let, _ := astutil.AsLetIn(n)
			if len(let.Entries()) > 0 || hasError(n) {
				return
			}
			span := n.Span
			if kw := n.Find(token.LET); kw != nil {
				span = kw.Span
			}
			pass.Reportf(span, "let expression has no bindings")
		})
		return nil
	},
}

// AnalyzerBuiltinShadow reports bindings that hide a global builtin. It is
// not enabled by default.
var AnalyzerBuiltinShadow = &Analyzer{
	Name:     "builtin-shadow",
	Severity: SeverityInfo,
	Optional: true,
	Doc:      "Report bindings that hide a global builtin.\n\nBinding a name such as `toString` or `map` hides the builtin of the same name for the rest of the scope. This is common in package sets, so the check must be requested explicitly.",
	Run: func(pass *Pass) error {
		res := pass.Semantics
		for _, def := range res.Definitions() {
			if def.IsDuplicate() || !analysis.IsBuiltinName(def.Name) {
				continue
			}
			if def.Kind == analysis.DefRecAttr {
				continue
			}
			pass.Reportf(def.Span, "%s %q hides the builtin of the same name", describeDef(def.Kind), def.Name)
		}
		return nil
	},
}

func describeDef(kind analysis.DefKind) string {
	switch kind {
	case analysis.DefParam:
		return "parameter"
	case analysis.DefPatternField:
		return "pattern field"
	case analysis.DefPatternBind:
		return "pattern binding"
	case analysis.DefInherit:
		return "inherited binding"
	case analysis.DefRecAttr:
		return "attribute"
	default:
		return "binding"
	}
}

// inheritsFrom reports whether def is an `inherit name;` whose value is
// the outer definition itself.
func inheritsFrom(res *analysis.Result, def *analysis.Definition, outer analysis.DefID) bool {
	for _, ref := range res.References() {
		if ref.Outer && ref.Node == def.Node {
			return ref.Resolution == analysis.Resolved && ref.Def == outer
		}
	}
	return false
}

func hasError(n *syntax.Node) bool {
	found := false
	n.Walk(func(c *syntax.Node) bool {
		if c.Kind == syntax.KindError {
			found = true
		}
		return !found
	})
	return found
}

// DefaultAnalyzers returns the analyzers that run when none are selected.
func DefaultAnalyzers() []*Analyzer {
	var analyzers []*Analyzer
	for _, a := range AllAnalyzers() {
		if !a.Optional {
			analyzers = append(analyzers, a)
		}
	}
	return analyzers
}

// AllAnalyzers returns every built-in analyzer, including optional ones.
func AllAnalyzers() []*Analyzer {
	return []*Analyzer{
		AnalyzerSyntaxError,
		AnalyzerUnresolvedReference,
		AnalyzerDuplicateBinding,
		AnalyzerUnusedBinding,
		AnalyzerShadowedBinding,
		AnalyzerUselessRec,
		AnalyzerEmptyLet,
		AnalyzerBuiltinShadow,
	}
}

// AnalyzerNames returns the sorted names of all built-in analyzers.
func AnalyzerNames() []string {
	analyzers := AllAnalyzers()
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	sort.Strings(names)
	return names
}

// AnalyzerDoc returns a formatted documentation string for all analyzers.
func AnalyzerDoc() string {
	var b strings.Builder
	for _, a := range AllAnalyzers() {
		name := a.Name
		if a.Optional {
			name += " (optional)"
		}
		fmt.Fprintf(&b, "  %s [%s]\n", name, a.Severity)
		summary, _, _ := strings.Cut(a.Doc, "\n")
		fmt.Fprintf(&b, "%s\n\n", indent.String(wordwrap.String(summary, 72), 4))
	}
	return b.String()
}

// AnalyzerHelp returns the full documentation of one analyzer.
func AnalyzerHelp(a *Analyzer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n\n", a.Name, a.Severity)
	for _, para := range strings.Split(a.Doc, "\n\n") {
		fmt.Fprintf(&b, "%s\n\n", indent.String(wordwrap.String(para, 72), 2))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
