// Copyright © 2024 The nxt authors

package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	name string
	next Handle[node]
}

func TestAllocGet(t *testing.T) {
	a := New[node](NewPass())
	first := a.Alloc(node{name: "a"})
	second := a.Alloc(node{name: "b", next: first})

	assert.True(t, first.Valid())
	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, first.Index())
	assert.Equal(t, 2, second.Index())
	assert.Equal(t, 2, a.Len())

	assert.Equal(t, "a", a.Get(first).name)
	assert.Equal(t, "a", a.Get(a.Get(second).next).name)
	assert.False(t, a.Get(first).next.Valid())
}

func TestGetPointersAreStable(t *testing.T) {
	a := New[int](NewPass())
	h := a.Alloc(7)
	p := a.Get(h)
	for i := 0; i < 3*chunkSize; i++ {
		a.Alloc(i)
	}
	*p = 8
	assert.Equal(t, 8, *a.Get(h))
	assert.Equal(t, 3*chunkSize+1, a.Len())
	last := Handle[int]{pass: a.Pass(), index: uint32(a.Len())}
	assert.Equal(t, 3*chunkSize-1, *a.Get(last))
}

func TestAllInAllocationOrder(t *testing.T) {
	a := New[string](NewPass())
	for _, s := range []string{"x", "y", "z"} {
		a.Alloc(s)
	}
	var got []string
	for h, v := range a.All() {
		assert.True(t, a.Contains(h))
		got = append(got, *v)
	}
	assert.Equal(t, []string{"x", "y", "z"}, got)

	var count int
	a.Each(func(Handle[string], *string) { count++ })
	assert.Equal(t, 3, count)
}

func TestPassesAreUnique(t *testing.T) {
	assert.NotEqual(t, NewPass(), NewPass())
}

func requireHandlePanic(t *testing.T, reason string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok)
		var herr *HandleError
		require.True(t, errors.As(err, &herr))
		assert.Equal(t, reason, herr.Reason)
	}()
	fn()
}

func TestHandleMisuse(t *testing.T) {
	a := New[int](NewPass())
	b := New[int](NewPass())
	h := a.Alloc(1)
	b.Alloc(2)

	assert.False(t, b.Contains(h))
	requireHandlePanic(t, "handle from another pass", func() { b.Get(h) })
	requireHandlePanic(t, "zero handle", func() { a.Get(Handle[int]{}) })
	requireHandlePanic(t, "index out of range", func() {
		a.Get(Handle[int]{pass: a.Pass(), index: 5})
	})
}

func TestHandleString(t *testing.T) {
	var none Handle[int]
	assert.Equal(t, "#none", none.String())
	a := New[int](NewPass())
	h := a.Alloc(1)
	assert.Contains(t, h.String(), ".1")
}
