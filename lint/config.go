// Copyright © 2024 The nxt authors

package lint

import (
	"fmt"
	"slices"
	"strings"
)

// Config selects and tunes the analyzers of a Linter.
type Config struct {
	// Checks names the analyzers to run. Empty means the default set.
	Checks []string `mapstructure:"checks"`

	// Exclude names analyzers to skip, even when listed in Checks.
	Exclude []string `mapstructure:"exclude"`

	// Severity maps analyzer names to "error", "warning" or "info".
	Severity map[string]string `mapstructure:"severity"`

	// Builtins are extra names treated as globally bound.
	Builtins []string `mapstructure:"builtins"`

	Jobs int `mapstructure:"jobs"`
}

// UnknownAnalyzerError is returned for a configured analyzer name that does
// not exist.
type UnknownAnalyzerError struct {
	Name string
}

func (e *UnknownAnalyzerError) Error() string {
	return fmt.Sprintf("unknown analyzer: %s (available: %s)", e.Name, strings.Join(AnalyzerNames(), ", "))
}

// NewLinter builds a Linter from cfg. A nil cfg yields the default set.
func NewLinter(cfg *Config) (*Linter, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	analyzers, err := SelectAnalyzers(cfg.Checks, cfg.Exclude)
	if err != nil {
		return nil, err
	}
	severity := make(map[string]Severity, len(cfg.Severity))
	for name, level := range cfg.Severity {
		if _, ok := analyzerByName(name); !ok {
			return nil, &UnknownAnalyzerError{Name: name}
		}
		sev, err := ParseSeverity(strings.TrimSpace(level))
		if err != nil {
			return nil, fmt.Errorf("analyzer %s: %w", name, err)
		}
		severity[name] = sev
	}
	return &Linter{
		Analyzers: analyzers,
		Severity:  severity,
		Builtins:  cfg.Builtins,
		Jobs:      cfg.Jobs,
	}, nil
}

// SelectAnalyzers returns the analyzers named in checks, or the default set
// when checks is empty, minus those named in exclude.
func SelectAnalyzers(checks, exclude []string) ([]*Analyzer, error) {
	var selected []*Analyzer
	if len(checks) == 0 {
		selected = DefaultAnalyzers()
	}
	for _, name := range checks {
		a, ok := analyzerByName(strings.TrimSpace(name))
		if !ok {
			return nil, &UnknownAnalyzerError{Name: name}
		}
		if !slices.Contains(selected, a) {
			selected = append(selected, a)
		}
	}
	for _, name := range exclude {
		a, ok := analyzerByName(strings.TrimSpace(name))
		if !ok {
			return nil, &UnknownAnalyzerError{Name: name}
		}
		selected = slices.DeleteFunc(selected, func(s *Analyzer) bool { return s == a })
	}
	return selected, nil
}

func analyzerByName(name string) (*Analyzer, bool) {
	for _, a := range AllAnalyzers() {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
