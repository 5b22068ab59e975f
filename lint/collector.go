// Copyright © 2024 The nxt authors

package lint

import (
	"cmp"
	"slices"
	"sync"
)

// Collector accumulates diagnostics from concurrently running analyzers.
// Recording is append-only; nothing is dropped or merged.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record adds d to the collection. It is safe for concurrent use.
func (c *Collector) Record(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}

// Finish returns the recorded diagnostics in a deterministic order: by
// start offset, then severity (errors first), end offset, analyzer and
// message. It does not consume the collection, so repeated calls return
// equal results.
func (c *Collector) Finish() []Diagnostic {
	c.mu.Lock()
	diags := slices.Clone(c.diags)
	c.mu.Unlock()
	slices.SortStableFunc(diags, compareDiagnostics)
	return diags
}

func compareDiagnostics(a, b Diagnostic) int {
	return cmp.Or(
		cmp.Compare(a.Span.Start, b.Span.Start),
		cmp.Compare(a.Severity, b.Severity),
		cmp.Compare(a.Span.End, b.Span.End),
		cmp.Compare(a.Analyzer, b.Analyzer),
		cmp.Compare(a.Message, b.Message),
		cmp.Compare(a.Pos.File, b.Pos.File),
	)
}
