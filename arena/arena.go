// Copyright © 2024 The nxt authors

// Package arena provides typed, pass-scoped value stores addressed by integer
// handles instead of pointers.
//
// Every analysis pass draws a fresh Pass from NewPass and allocates its
// arenas with it. Handles remember the pass that issued them, so a handle
// carried over from another pass is detected on use rather than silently
// aliasing an unrelated value.
package arena

import (
	"fmt"
	"iter"
	"sync/atomic"

	"fortio.org/safecast"
)

// chunkSize is the number of values stored per backing chunk. Chunks never
// move once allocated, so pointers returned by Get stay valid across Alloc.
const chunkSize = 256

// Pass identifies one analysis pass. The zero Pass is never issued.
type Pass uint32

var passCounter atomic.Uint32

// NewPass returns a process-wide unique Pass.
func NewPass() Pass {
	return Pass(passCounter.Add(1))
}

// Handle addresses a value of type T in the Arena that issued it. The zero
// Handle is the "none" handle and is never issued.
type Handle[T any] struct {
	pass  Pass
	index uint32
}

// Valid reports whether h was issued by an arena (it is not the zero handle).
func (h Handle[T]) Valid() bool {
	return h.index != 0
}

// Pass returns the pass h belongs to.
func (h Handle[T]) Pass() Pass {
	return h.pass
}

// Index returns the 1-based allocation index of h, or 0 for the zero handle.
func (h Handle[T]) Index() int {
	return int(h.index)
}

func (h Handle[T]) String() string {
	if !h.Valid() {
		return "#none"
	}
	return fmt.Sprintf("#%d.%d", h.pass, h.index)
}

// Arena is an append-only store of T values for one pass.
type Arena[T any] struct {
	pass   Pass
	chunks [][]T
	n      int // number of values, excluding the reserved slot 0
}

// New returns an empty arena bound to pass.
func New[T any](pass Pass) *Arena[T] {
	a := &Arena[T]{pass: pass}
	a.chunks = append(a.chunks, make([]T, 1, chunkSize)) // slot 0 is reserved
	return a
}

// Pass returns the pass the arena belongs to.
func (a *Arena[T]) Pass() Pass {
	return a.pass
}

// Alloc stores v and returns its handle.
func (a *Arena[T]) Alloc(v T) Handle[T] {
	index, err := safecast.Conv[uint32](a.n + 1)
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	last := len(a.chunks) - 1
	if len(a.chunks[last]) == chunkSize {
		a.chunks = append(a.chunks, make([]T, 0, chunkSize))
		last++
	}
	a.chunks[last] = append(a.chunks[last], v)
	a.n++
	return Handle[T]{pass: a.pass, index: index}
}

// Get returns a pointer to the value addressed by h. It panics with
// *HandleError when h is the zero handle, was issued for another pass, or
// is out of range.
func (a *Arena[T]) Get(h Handle[T]) *T {
	if err := a.check(h); err != nil {
		panic(err)
	}
	i := int(h.index)
	return &a.chunks[i/chunkSize][i%chunkSize]
}

// Contains reports whether h addresses a value in a.
func (a *Arena[T]) Contains(h Handle[T]) bool {
	return a.check(h) == nil
}

func (a *Arena[T]) check(h Handle[T]) error {
	switch {
	case !h.Valid():
		return &HandleError{Pass: a.pass, HandlePass: h.pass, Index: h.Index(), Reason: "zero handle"}
	case h.pass != a.pass:
		return &HandleError{Pass: a.pass, HandlePass: h.pass, Index: h.Index(), Reason: "handle from another pass"}
	case int(h.index) > a.n:
		return &HandleError{Pass: a.pass, HandlePass: h.pass, Index: h.Index(), Reason: "index out of range"}
	}
	return nil
}

// Len returns the number of allocated values.
func (a *Arena[T]) Len() int {
	return a.n
}

// All iterates over every value in allocation order.
func (a *Arena[T]) All() iter.Seq2[Handle[T], *T] {
	return func(yield func(Handle[T], *T) bool) {
		for i := 1; i <= a.n; i++ {
			h := Handle[T]{pass: a.pass, index: uint32(i)} // #nosec G115 -- bounded by Alloc
			if !yield(h, &a.chunks[i/chunkSize][i%chunkSize]) {
				return
			}
		}
	}
}

// Each calls fn for every value in allocation order.
func (a *Arena[T]) Each(fn func(Handle[T], *T)) {
	for h, v := range a.All() {
		fn(h, v)
	}
}

// HandleError reports misuse of a handle.
type HandleError struct {
	Pass       Pass // pass of the arena that was queried
	HandlePass Pass // pass recorded in the handle
	Index      int
	Reason     string
}

func (err *HandleError) Error() string {
	return fmt.Sprintf("arena: invalid handle #%d.%d for pass %d: %s", err.HandlePass, err.Index, err.Pass, err.Reason)
}
