// Copyright © 2024 The nxt authors

package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/luthersystems/nxt/arena"
	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/intern"
	"github.com/luthersystems/nxt/parser"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, source string) *Result {
	t.Helper()
	return analyzeConfig(t, source, nil)
}

func analyzeConfig(t *testing.T, source string, cfg *Config) *Result {
	t.Helper()
	root := parser.Parse("test.nix", []byte(source))
	res, err := Analyze(context.Background(), root, cfg)
	require.NoError(t, err)
	return res
}

func references(res *Result) []*Reference {
	var refs []*Reference
	for _, ref := range res.References() {
		refs = append(refs, ref)
	}
	return refs
}

func definitions(res *Result) []*Definition {
	var defs []*Definition
	for _, def := range res.Definitions() {
		defs = append(defs, def)
	}
	return defs
}

func TestEveryUseIsResolved(t *testing.T) {
	source := `let a = 1; f = x: x; in [ a b (with z; c) (f a) { inherit a; } ]`
	res := analyze(t, source)

	uses := 0
	for ev := range astutil.Events(parser.Parse("test.nix", []byte(source)), intern.New()) {
		if ev.Kind == astutil.Use {
			uses++
		}
	}
	refs := references(res)
	assert.Len(t, refs, uses)
	for _, ref := range refs {
		assert.Contains(t, []Resolution{Resolved, Dynamic, Unresolved}, ref.Resolution, ref.Name)
	}
}

func TestShadowing(t *testing.T) {
	res := analyze(t, `let x = 1; in let x = 2; in x`)
	defs := definitions(res)
	require.Len(t, defs, 2)
	refs := references(res)
	require.Len(t, refs, 1)

	require.Equal(t, Resolved, refs[0].Resolution)
	inner := res.Def(refs[0].Def)
	assert.Equal(t, 18, inner.Span.Start)
	assert.True(t, inner.Referenced)
	assert.False(t, defs[0].Referenced)

	outer, ok := res.Shadowed(refs[0].Def)
	require.True(t, ok)
	assert.Equal(t, 4, res.Def(outer).Span.Start)
}

func TestRepeatedLetKeyword(t *testing.T) {
	// A second "let" cannot start a binding: the parser recovers past
	// "let x = 2;" and the body refers to the only binding left.
	root := parser.Parse("test.nix", []byte(`let x = 1; let x = 2; in x`))
	require.Len(t, root.Errors, 1)
	assert.Equal(t, token.Span{Start: 11, End: 14}, root.Errors[0].Span)

	res, err := Analyze(context.Background(), root, nil)
	require.NoError(t, err)
	defs := definitions(res)
	require.Len(t, defs, 1)
	assert.Equal(t, 4, defs[0].Span.Start)
	refs := references(res)
	require.Len(t, refs, 1)
	assert.Equal(t, 25, refs[0].Span.Start)
	require.Equal(t, Resolved, refs[0].Resolution)
	assert.Equal(t, 4, res.Def(refs[0].Def).Span.Start)
}

func TestSelfReference(t *testing.T) {
	res := analyze(t, `let x = x + 1; in x`)
	defs := definitions(res)
	require.Len(t, defs, 1)
	for _, ref := range references(res) {
		require.Equal(t, Resolved, ref.Resolution)
		assert.Equal(t, 4, res.Def(ref.Def).Span.Start)
	}
	assert.Equal(t, 2, defs[0].References)

	res = analyze(t, `rec { a = b; b = a; }`)
	for _, ref := range references(res) {
		assert.Equal(t, Resolved, ref.Resolution, ref.Name)
	}
}

func TestWith(t *testing.T) {
	res := analyze(t, `with {}; c`)
	refs := references(res)
	require.Len(t, refs, 1)
	assert.Equal(t, Dynamic, refs[0].Resolution)
	assert.True(t, refs[0].With.Valid())
	assert.True(t, res.Scope(refs[0].With).Dynamic)

	res = analyze(t, `let c = 1; in with { c = 2; }; c`)
	refs = references(res)
	require.Len(t, refs, 1)
	assert.Equal(t, Resolved, refs[0].Resolution)
	assert.False(t, refs[0].With.Valid())

	res = analyze(t, `with a; with b; true`)
	refs = references(res)
	require.Len(t, refs, 3)
	assert.Equal(t, Unresolved, refs[0].Resolution)
	assert.Equal(t, Dynamic, refs[1].Resolution)
	assert.Equal(t, Resolved, refs[2].Resolution)
	assert.True(t, res.Def(refs[2].Def).IsBuiltin())
}

func TestUnresolved(t *testing.T) {
	res := analyze(t, `b`)
	refs := references(res)
	require.Len(t, refs, 1)
	assert.Equal(t, Unresolved, refs[0].Resolution)
	assert.False(t, refs[0].Def.Valid())
	assert.Equal(t, "b", refs[0].Name)
}

func TestDuplicates(t *testing.T) {
	res := analyze(t, `let a = 1; a = 2; in a`)
	defs := definitions(res)
	require.Len(t, defs, 2)
	assert.False(t, defs[0].IsDuplicate())
	require.True(t, defs[1].IsDuplicate())
	assert.Equal(t, defs[0], res.Def(defs[1].DuplicateOf))

	refs := references(res)
	require.Len(t, refs, 1)
	assert.Equal(t, defs[0], res.Def(refs[0].Def))

	scope := res.Scope(defs[0].Scope)
	assert.Len(t, scope.Defs, 1)
	assert.Len(t, scope.Order, 2)
}

func TestInherit(t *testing.T) {
	res := analyze(t, `let a = 1; in let inherit a; in a`)
	defs := definitions(res)
	require.Len(t, defs, 2)
	refs := references(res)
	require.Len(t, refs, 2)

	assert.True(t, refs[0].Outer)
	assert.Equal(t, defs[0], res.Def(refs[0].Def))
	assert.Equal(t, defs[1], res.Def(refs[1].Def))
	assert.Equal(t, DefInherit, defs[1].Kind)

	res = analyze(t, `let inherit a; in a`)
	refs = references(res)
	require.Len(t, refs, 2)
	assert.Equal(t, Unresolved, refs[0].Resolution)
	assert.Equal(t, Resolved, refs[1].Resolution)
}

func TestBuiltins(t *testing.T) {
	res := analyze(t, `__add (map toString [ true null ]) builtins`)
	for _, ref := range references(res) {
		require.Equal(t, Resolved, ref.Resolution, ref.Name)
		assert.True(t, res.Def(ref.Def).IsBuiltin(), ref.Name)
	}
	assert.Empty(t, definitions(res))

	res = analyzeConfig(t, `pkgs.hello`, &Config{ExtraBuiltins: []string{"pkgs", "map"}})
	refs := references(res)
	require.Len(t, refs, 1)
	assert.Equal(t, Resolved, refs[0].Resolution)

	assert.True(t, IsBuiltinName("derivation"))
	assert.True(t, IsBuiltinName("__toJSON"))
	assert.False(t, IsBuiltinName("pkgs"))
	assert.Contains(t, Builtins(), "import")
}

func TestScopeTree(t *testing.T) {
	res := analyze(t, `let a = 1; in x: a`)
	prelude := res.Scope(res.Prelude)
	assert.Equal(t, ScopePrelude, prelude.Kind)
	assert.False(t, prelude.Parent.Valid())
	require.Equal(t, []ScopeID{res.File}, prelude.Children)

	file := res.Scope(res.File)
	require.Len(t, file.Children, 1)
	let := res.Scope(file.Children[0])
	assert.Equal(t, ScopeLet, let.Kind)
	require.Len(t, let.Children, 1)
	lambda := res.Scope(let.Children[0])
	assert.Equal(t, ScopeLambda, lambda.Kind)
	assert.Equal(t, file.Children[0], lambda.Parent)

	for _, scope := range res.Scopes.All() {
		assert.True(t, scope.Closed())
	}

	def, ok := res.Lookup(let.Children[0], res.Interner.Intern("a"))
	require.True(t, ok)
	assert.Equal(t, DefLet, res.Def(def).Kind)
	_, ok = res.Lookup(let.Children[0], res.Interner.Intern("zzz"))
	assert.False(t, ok)
}

func TestPositionQueries(t *testing.T) {
	res := analyze(t, `let abc = 1; in abc + abc`)
	def, ok := res.DefinitionAt(5)
	require.True(t, ok)
	assert.Equal(t, "abc", res.Def(def).Name)

	ref, ok := res.ReferenceAt(16)
	require.True(t, ok)
	assert.Equal(t, def, res.Ref(ref).Def)

	// The cursor just past a name still selects it.
	ref, ok = res.ReferenceAt(25)
	require.True(t, ok)
	assert.Equal(t, 22, res.Ref(ref).Span.Start)

	assert.Len(t, res.ReferencesTo(def), 2)

	_, ok = res.ReferenceAt(13)
	assert.False(t, ok)
}

func TestDiscardNames(t *testing.T) {
	assert.True(t, IsDiscardName("_"))
	assert.True(t, IsDiscardName("_unused"))
	assert.False(t, IsDiscardName("__toString"))
	assert.False(t, IsDiscardName("x"))
}

func TestAnalyzeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := parser.Parse("test.nix", []byte(`let a = 1; in a`))
	_, err := Analyze(ctx, root, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "test.nix")
}

func TestAnalyzeRecoversPanics(t *testing.T) {
	_, err := Analyze(context.Background(), &syntax.Root{Filename: "broken.nix"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Contains(t, err.Error(), "broken.nix")
}

func TestResolverInvariants(t *testing.T) {
	pass := arena.NewPass()
	res := &Result{
		Interner: intern.New(),
		Scopes:   arena.New[Scope](pass),
		Defs:     arena.New[Definition](pass),
		Refs:     arena.New[Reference](pass),
	}
	r := &resolver{res: res}

	err := r.step(astutil.Event{Kind: astutil.ExitScope})
	assert.True(t, errors.Is(err, ErrInternal))

	res.Prelude = r.push(ScopePrelude, token.Span{}, nil, false)
	err = r.step(astutil.Event{Kind: astutil.ExitScope})
	assert.ErrorIs(t, err, ErrInternal)

	err = r.step(astutil.Event{Kind: astutil.Bind, Symbol: res.Interner.Intern("a")})
	assert.ErrorIs(t, err, ErrInternal)

	err = r.step(astutil.Event{Kind: astutil.EventKind(99)})
	assert.ErrorIs(t, err, ErrInternal)
}
