// Copyright © 2024 The nxt authors

package profile

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// PhaseStat is the aggregated time of all spans with one name.
type PhaseStat struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean is the average span duration.
func (s PhaseStat) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Summary is a span exporter that aggregates span durations by name.
type Summary struct {
	mu     sync.Mutex
	phases map[string]*PhaseStat
}

var _ sdktrace.SpanExporter = (*Summary)(nil)

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{phases: make(map[string]*PhaseStat)}
}

// ExportSpans implements sdktrace.SpanExporter.
func (s *Summary) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, span := range spans {
		stat, ok := s.phases[span.Name()]
		if !ok {
			stat = &PhaseStat{Name: span.Name()}
			s.phases[span.Name()] = stat
		}
		d := span.EndTime().Sub(span.StartTime())
		stat.Count++
		stat.Total += d
		stat.Max = max(stat.Max, d)
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter.
func (s *Summary) Shutdown(context.Context) error {
	return nil
}

// Phases returns the phase statistics, longest total first.
func (s *Summary) Phases() []PhaseStat {
	s.mu.Lock()
	stats := make([]PhaseStat, 0, len(s.phases))
	for _, stat := range s.phases {
		stats = append(stats, *stat)
	}
	s.mu.Unlock()
	slices.SortFunc(stats, func(a, b PhaseStat) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return stats
}

// WriteTo writes the phase table to w.
func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "phase\tcalls\ttotal\tmean\tmax\t") //nolint:errcheck // reported by Flush
	for _, stat := range s.Phases() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t\n", //nolint:errcheck // reported by Flush
			stat.Name, stat.Count, round(stat.Total), round(stat.Mean()), round(stat.Max))
	}
	err := tw.Flush()
	return cw.n, err
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Microsecond)
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
