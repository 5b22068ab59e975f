// Copyright © 2024 The nxt authors

// Package profile records how long each phase of a run takes. Phases are
// OpenTelemetry spans; until a Profiler is started they go to the global
// no-op tracer provider.
package profile

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of phase spans.
const TracerName = "nxt"

// Phase names used by the linter.
const (
	PhaseRead    = "read"
	PhaseParse   = "parse"
	PhaseResolve = "resolve"
	PhaseCheck   = "check"
)

// Phase starts a span for one phase of work on file. The returned function
// ends the span.
func Phase(ctx context.Context, name, file string) (context.Context, func()) {
	opts := []trace.SpanStartOption{}
	if file != "" {
		opts = append(opts, trace.WithAttributes(semconv.CodeFilepath(file)))
	}
	ctx, span := otel.Tracer(TracerName).Start(ctx, name, opts...)
	return ctx, func() { span.End() }
}

// Profiler installs a tracer provider that aggregates phase spans.
type Profiler struct {
	provider *sdktrace.TracerProvider
	previous trace.TracerProvider
	summary  *Summary
	enabled  bool
}

// Option configures a Profiler.
type Option func(*config)

type config struct {
	exporters []sdktrace.SpanExporter
}

// WithExporter also sends every phase span to exp.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(c *config) {
		c.exporters = append(c.exporters, exp)
	}
}

// New creates a disabled Profiler.
func New(opts ...Option) *Profiler {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	p := &Profiler{summary: NewSummary()}
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSyncer(p.summary),
	}
	for _, exp := range cfg.exporters {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exp))
	}
	p.provider = sdktrace.NewTracerProvider(tpOpts...)
	return p
}

// Enable makes the profiler the global tracer provider.
func (p *Profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	p.previous = otel.GetTracerProvider()
	otel.SetTracerProvider(p.provider)
	return nil
}

// Complete flushes outstanding spans and restores the previous tracer
// provider.
func (p *Profiler) Complete(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	p.enabled = false
	otel.SetTracerProvider(p.previous)
	return p.provider.Shutdown(ctx)
}

// Summary returns the aggregated phase timings.
func (p *Profiler) Summary() *Summary {
	return p.summary
}
