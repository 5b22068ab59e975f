// Copyright © 2024 The nxt authors

package astutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrConflicts(t *testing.T) {
	tests := []struct {
		source    string
		conflicts []string
	}{
		{`{ a = 1; b = 2; }`, nil},
		{`{ a = 1; a = 2; }`, []string{"a"}},
		{`{ a.b = 1; a.c = 2; }`, nil},
		{`{ a.b = 1; a.b = 2; }`, []string{"a.b"}},
		{`{ a.b = 1; a = 2; }`, []string{"a"}},
		{`{ a = 2; a.b = 1; }`, []string{"a"}},
		{`{ a = { b = 1; }; a.c = 2; a = { d = 3; }; }`, nil},
		{`{ a = ({ b = 1; }); a.c = 2; }`, nil},
		{`{ a = { b = 1; }; a.b = 2; }`, []string{"a.b"}},
		{`{ a = rec { b = 1; }; a.c = 2; }`, []string{"a"}},
		{`{ a = { b = 1; b = 2; }; }`, nil},
		{`{ inherit a; a = 1; }`, []string{"a"}},
		{`{ a = 1; inherit a; }`, []string{"a"}},
		{`{ ${x} = 1; ${x} = 2; }`, nil},
		{`{ "a" = 1; a = 2; }`, []string{"a"}},
	}
	for _, test := range tests {
		t.Run(test.source, func(t *testing.T) {
			set, ok := AsAttrSet(parseExpr(t, test.source))
			require.True(t, ok)
			var names []string
			for _, c := range AttrConflicts(set.Entries()) {
				names = append(names, c.Name())
			}
			assert.Equal(t, test.conflicts, names)
		})
	}
}

func TestAttrConflictSpans(t *testing.T) {
	let, ok := AsLetIn(parseExpr(t, `let a.b = 1; a = 2; in a`))
	require.True(t, ok)
	conflicts := AttrConflicts(let.Entries())
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, []string{"a"}, c.Path)
	assert.Equal(t, 13, c.Node.Span.Start)
	assert.Equal(t, 4, c.First.Span.Start)
}
