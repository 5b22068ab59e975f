// Copyright © 2024 The nxt authors

// Package lint provides static analysis for Nix source files.
//
// The linter is modeled after go vet: each check is an independent Analyzer
// that receives a parsed tree and its semantic analysis and reports
// diagnostics. The framework handles parsing, running analyzers
// concurrently, collecting results, and formatting output.
//
// Analyzers only read the tree and the analysis result, so embedders can
// define custom checks alongside the built-in set.
package lint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/parser"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/profile"
	"github.com/luthersystems/nxt/syntax"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

var log = commonlog.GetLogger("nxt.lint")

// InternalErrorName is the analyzer name of the diagnostic reported for a
// file whose analysis failed.
const InternalErrorName = "internal-error"

// Severity indicates the severity level of a lint diagnostic.
type Severity int

const (
	severityUnset Severity = iota // unexported zero sentinel for default detection
	SeverityError
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity parses the name of a severity.
func ParseSeverity(name string) (Severity, error) {
	switch name {
	case "error":
		return SeverityError, nil
	case "warning":
		return SeverityWarning, nil
	case "info":
		return SeverityInfo, nil
	}
	return severityUnset, fmt.Errorf("unknown severity: %q", name)
}

// MarshalJSON serializes the severity as a JSON string.
// An unset severity (zero value) is marshaled as "warning".
func (s Severity) MarshalJSON() ([]byte, error) {
	if s == severityUnset {
		return json.Marshal("warning")
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON deserializes a severity from a JSON string.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sev, err := ParseSeverity(str)
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Analyzer defines a single lint check.
type Analyzer struct {
	// Name is a short identifier for this check (e.g. "unused-binding").
	Name string

	// Doc is a human-readable description. The first line is a short summary.
	Doc string

	// Severity is the default severity for diagnostics from this analyzer.
	Severity Severity

	// Optional analyzers only run when selected by name.
	Optional bool

	// Run executes the check. It should call pass.Report() for each finding.
	// Run must not modify the tree or the analysis result.
	Run func(pass *Pass) error
}

// Pass provides context to a running analyzer.
type Pass struct {
	// Analyzer is the currently running check.
	Analyzer *Analyzer

	// Filename is the source file being analyzed.
	Filename string

	// Tree is the parsed source.
	Tree *syntax.Root

	// Lines maps byte offsets in the source to lines and columns.
	Lines *token.LineIndex

	// Semantics holds the scopes, definitions and references of the file.
	Semantics *analysis.Result

	severity  Severity // configured override, if any
	collector *Collector
}

// Report records a diagnostic finding. Positions are derived from the
// diagnostic's span when they are not set.
func (p *Pass) Report(d Diagnostic) {
	d.Analyzer = p.Analyzer.Name
	switch {
	case p.severity != severityUnset:
		d.Severity = p.severity
	case d.Severity == severityUnset:
		d.Severity = p.Analyzer.Severity
	}
	if d.Pos.Line == 0 {
		d.Pos = p.position(d.Span.Start)
		d.End = p.position(d.Span.End)
	}
	for i := range d.Related {
		if d.Related[i].Pos.Line == 0 {
			d.Related[i].Pos = p.position(d.Related[i].Span.Start)
		}
	}
	p.collector.Record(d)
}

// ReportWithNotes records a diagnostic with additional hint text.
func (p *Pass) ReportWithNotes(d Diagnostic, notes ...string) {
	d.Notes = append(d.Notes, notes...)
	p.Report(d)
}

// Reportf is a convenience for reporting a diagnostic at a span.
func (p *Pass) Reportf(span token.Span, format string, args ...interface{}) {
	p.Report(Diagnostic{
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Pass) position(offset int) Position {
	loc := p.Lines.Location(offset)
	return Position{File: p.Filename, Line: loc.Line, Col: loc.Col}
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	// Pos is the source location of the start of the problem.
	Pos Position `json:"pos"`

	// End is the source location just past the problem.
	End Position `json:"end"`

	// Span is the byte range of the problem in the source.
	Span token.Span `json:"span"`

	// Message is a human-readable description of the problem.
	Message string `json:"message"`

	// Analyzer is the name of the check that found this problem.
	Analyzer string `json:"analyzer"`

	// Severity is the severity level of the diagnostic.
	Severity Severity `json:"severity"`

	// Notes are optional hint text lines for the user.
	Notes []string `json:"notes,omitempty"`

	// Related are secondary locations that explain the problem.
	Related []Related `json:"related,omitempty"`
}

// Related is a secondary location attached to a diagnostic.
type Related struct {
	Pos     Position   `json:"pos"`
	Span    token.Span `json:"span"`
	Message string     `json:"message"`
}

// Position identifies a location in source code.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col,omitempty"`
}

// String returns the position in file:line format.
func (p Position) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// String returns the diagnostic in go vet style: file:line: message (analyzer)
// with optional note lines appended.
func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Analyzer)
	for _, r := range d.Related {
		s += fmt.Sprintf("\n  %s: %s", r.Pos, r.Message)
	}
	for _, n := range d.Notes {
		s += "\n  = note: " + n
	}
	return s
}

// InternalError reports that a file could not be analyzed because the
// engine or an analyzer failed.
type InternalError struct {
	Filename string
	Analyzer string // empty when the semantic analysis failed
	Err      error
}

func (e *InternalError) Error() string {
	if e.Analyzer != "" {
		return fmt.Sprintf("%s: analyzer %s: %v", e.Filename, e.Analyzer, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Filename, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Linter runs a set of analyzers over source files.
type Linter struct {
	Analyzers []*Analyzer

	// Severity overrides the default severity of analyzers by name.
	Severity map[string]Severity

	// Builtins are extra names treated as globally bound.
	Builtins []string

	// Jobs limits how many analyzers, and how many files, are processed
	// at once. Zero means one per CPU.
	Jobs int
}

func (l *Linter) jobs() int {
	if l.Jobs > 0 {
		return l.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// LintFile analyzes a single source file and returns all diagnostics.
func (l *Linter) LintFile(source []byte, filename string) ([]Diagnostic, error) {
	return l.LintFileContext(context.Background(), source, filename)
}

// LintFileContext is LintFile with a context that can stop the analysis.
func (l *Linter) LintFileContext(ctx context.Context, source []byte, filename string) ([]Diagnostic, error) {
	_, end := profile.Phase(ctx, profile.PhaseParse, filename)
	root := parser.Parse(filename, source)
	end()
	return l.LintTree(ctx, root)
}

// LintTree analyzes a parsed file. The only error it returns is the
// context's; a failure inside the analysis yields a single internal-error
// diagnostic instead.
func (l *Linter) LintTree(ctx context.Context, root *syntax.Root) ([]Diagnostic, error) {
	_, diags, err := l.Check(ctx, root)
	return diags, err
}

// Check is LintTree that also returns the semantic analysis the analyzers
// ran on. The result is nil when the analysis failed.
func (l *Linter) Check(ctx context.Context, root *syntax.Root) (*analysis.Result, []Diagnostic, error) {
	filename := root.Filename
	_, end := profile.Phase(ctx, profile.PhaseResolve, filename)
	semantics, err := analysis.Analyze(ctx, root, &analysis.Config{
		Filename:      filename,
		ExtraBuiltins: l.Builtins,
	})
	end()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, nil, err
		}
		return nil, internalDiagnostics(&InternalError{Filename: filename, Err: err}), nil
	}
	diags, err := l.Run(ctx, semantics)
	return semantics, diags, err
}

// Run runs every analyzer over a finished analysis and returns the
// surviving diagnostics in Collector order.
func (l *Linter) Run(ctx context.Context, semantics *analysis.Result) ([]Diagnostic, error) {
	ctx, end := profile.Phase(ctx, profile.PhaseCheck, semantics.Filename)
	defer end()
	root := semantics.Tree
	lines := root.Lines()
	collector := NewCollector()

	g := new(errgroup.Group)
	g.SetLimit(l.jobs())
	for _, analyzer := range l.Analyzers {
		pass := &Pass{
			Analyzer:  analyzer,
			Filename:  semantics.Filename,
			Tree:      root,
			Lines:     lines,
			Semantics: semantics,
			severity:  l.Severity[analyzer.Name],
			collector: collector,
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return runAnalyzer(pass)
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return internalDiagnostics(err), nil
	}
	return filterSuppressed(collector.Finish(), root, lines), nil
}

func runAnalyzer(pass *Pass) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &InternalError{
				Filename: pass.Filename,
				Analyzer: pass.Analyzer.Name,
				Err:      fmt.Errorf("%w: panic: %v", analysis.ErrInternal, p),
			}
		}
	}()
	if err := pass.Analyzer.Run(pass); err != nil {
		return &InternalError{Filename: pass.Filename, Analyzer: pass.Analyzer.Name, Err: err}
	}
	return nil
}

func internalDiagnostics(err error) []Diagnostic {
	var ierr *InternalError
	file := ""
	if errors.As(err, &ierr) {
		file = ierr.Filename
	}
	log.Errorf("%v", err)
	return []Diagnostic{{
		Pos:      Position{File: file},
		End:      Position{File: file},
		Message:  fmt.Sprintf("analysis aborted: %v", err),
		Analyzer: InternalErrorName,
		Severity: SeverityError,
	}}
}

// FileResult holds the outcome of linting one path.
type FileResult struct {
	Filename    string
	Diagnostics []Diagnostic
	Err         error // the file could not be read, or ctx was done
}

// LintPaths lints each file independently, several at a time. Results are
// returned in the order of paths. A failure in one file never affects the
// others.
func (l *Linter) LintPaths(ctx context.Context, paths []string) []FileResult {
	results := make([]FileResult, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(l.jobs())
	for i, path := range paths {
		g.Go(func() error {
			results[i] = l.lintPath(ctx, path)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (l *Linter) lintPath(ctx context.Context, path string) FileResult {
	res := FileResult{Filename: path}
	_, end := profile.Phase(ctx, profile.PhaseRead, path)
	source, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
	end()
	if err != nil {
		res.Err = err
		return res
	}
	log.Debugf("linting %s", path)
	res.Diagnostics, res.Err = l.LintFileContext(ctx, source, path)
	return res
}

// FormatText writes diagnostics in go vet text format.
func FormatText(w io.Writer, diags []Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String()) //nolint:errcheck // best-effort output to writer
	}
}

// FormatJSON writes diagnostics as JSON.
func FormatJSON(w io.Writer, diags []Diagnostic) error {
	if diags == nil {
		diags = []Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
