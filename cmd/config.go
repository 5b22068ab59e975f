// Copyright © 2024 The nxt authors

package cmd

import (
	"fmt"
	"maps"
	"strings"

	"github.com/luthersystems/nxt/lint"
	"github.com/spf13/pflag"
)

// Configuration keys.
const (
	keyChecks   = "lint.checks"
	keyDisable  = "lint.disable"
	keyExclude  = "lint.exclude"
	keyJobs     = "lint.jobs"
	keySeverity = "lint.severity"
	keyBuiltins = "lint.builtins"
	keyColor    = "color"
)

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// lintFlags are the command line settings that override the configuration
// file. Empty values leave the configured value in place.
type lintFlags struct {
	checks   string
	disable  []string
	jobs     int
	severity map[string]string
}

func (f *lintFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.checks, "checks", "",
		"Comma-separated list of checks to run (default: all non-optional checks).")
	flags.StringSliceVar(&f.disable, "disable", nil,
		"Checks to skip (may be repeated or comma-separated).")
	flags.IntVar(&f.jobs, "jobs", 0,
		"Number of files and checks processed at once (default: one per CPU).")
	flags.StringToStringVar(&f.severity, "severity", nil,
		"Override the severity of a check, as check=error|warning|info.")
}

// lintConfig merges the configuration file, the environment and flags.
func (c *cmdConfig) lintConfig(flags *lintFlags) *lint.Config {
	v := c.settings()
	cfg := &lint.Config{
		Checks:   splitList(v.GetStringSlice(keyChecks)),
		Exclude:  splitList(v.GetStringSlice(keyDisable)),
		Jobs:     v.GetInt(keyJobs),
		Severity: v.GetStringMapString(keySeverity),
		Builtins: append(splitList(v.GetStringSlice(keyBuiltins)), c.builtins...),
	}
	if flags == nil {
		return cfg
	}
	if flags.checks != "" {
		cfg.Checks = splitList([]string{flags.checks})
	}
	cfg.Exclude = append(cfg.Exclude, flags.disable...)
	if flags.jobs > 0 {
		cfg.Jobs = flags.jobs
	}
	if len(flags.severity) > 0 {
		if cfg.Severity == nil {
			cfg.Severity = make(map[string]string, len(flags.severity))
		}
		maps.Copy(cfg.Severity, flags.severity)
	}
	return cfg
}

// linter builds the linter described by the merged configuration.
func (c *cmdConfig) linter(flags *lintFlags) (*lint.Linter, error) {
	cfg := c.lintConfig(flags)
	l, err := lint.NewLinter(cfg)
	if err != nil {
		return nil, err
	}
	l.Analyzers = append(l.Analyzers, c.analyzers...)
	log.Debugf("checks: %s", analyzerList(l.Analyzers))
	return l, nil
}

// excludes returns the file patterns to skip.
func (c *cmdConfig) excludes(extra []string) []string {
	return append(splitList(c.settings().GetStringSlice(keyExclude)), extra...)
}

// splitList flattens comma-separated entries, as found in environment
// variables, and drops empty names.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, name := range strings.Split(item, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

func analyzerList(analyzers []*lint.Analyzer) string {
	names := make([]string, len(analyzers))
	for i, a := range analyzers {
		names[i] = a.Name
	}
	return fmt.Sprint(names)
}
