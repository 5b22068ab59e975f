// Copyright © 2024 The nxt authors

package cmd

import (
	"fmt"
	"io"

	"github.com/luthersystems/nxt/lint"
	"github.com/spf13/cobra"
)

const stdinName = "<stdin>"

// LintCommand creates the "lint" cobra command. Embedders can pass
// WithBuiltins or WithAnalyzers to adapt the checks to their own files.
func LintCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)

	var (
		flags    lintFlags
		jsonOut  bool
		listAll  bool
		excludes []string
	)

	cmd := &cobra.Command{
		Use:   "lint [flags] [files...]",
		Short: "Run static analysis checks on Nix source files",
		Long: `Run static analysis checks on Nix source files.

The linter resolves every variable to its binding and reports likely
mistakes, similar to "go vet" for Go. Each check is an independent analyzer
that examines the parsed tree and its scopes and reports diagnostics.

With no files, reads from stdin. Directories, and arguments ending in
"/...", are searched recursively for .nix files. Diagnostics are written
to stderr, or to stdout as JSON with --json.

Exit codes:
  0  No problems found
  1  One or more problems were reported
  2  Bad invocation (invalid flags, unreadable files)

To suppress a specific diagnostic, add a comment on the same line:
  x = 1; # nolint:unused-binding

To suppress all checks on a line:
  x = 1; # nolint

Available checks (use --checks to select specific ones):
` + lint.AnalyzerDoc() + `
Examples:
  nxt lint default.nix                          # Lint a single file
  nxt lint ./...                                # Lint a whole tree
  nxt lint --json default.nix                   # Output diagnostics as JSON
  nxt lint --checks=unused-binding default.nix  # Run only specific checks
  nxt lint --disable=empty-let ./...            # Skip a check
  nxt lint --severity shadowed-binding=info .   # Lower the severity of a check
  nxt lint --exclude=vendor ./...               # Exclude a directory
  cat default.nix | nxt lint                    # Lint from stdin`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAll {
				for _, name := range lint.AnalyzerNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			l, err := cfg.linter(&flags)
			if err != nil {
				return usageError(cmd, err)
			}

			var (
				results []lint.FileResult
				sources = map[string][]byte{}
			)
			if len(args) == 0 {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return usageError(cmd, fmt.Errorf("reading stdin: %w", err))
				}
				sources[stdinName] = src
				diags, err := l.LintFileContext(cmd.Context(), src, stdinName)
				results = append(results, lint.FileResult{Filename: stdinName, Diagnostics: diags, Err: err})
			} else {
				paths, err := expandArgs(args, cfg.excludes(excludes))
				if err != nil {
					return usageError(cmd, err)
				}
				log.Infof("linting %d files", len(paths))
				results = l.LintPaths(cmd.Context(), paths)
			}
			return report(cmd, results, sources, jsonOut)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&jsonOut, "json", false,
		"Output diagnostics as JSON.")
	cmd.Flags().BoolVar(&listAll, "list", false,
		"List available checks and exit.")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil,
		"Glob pattern for files or directories to exclude (may be repeated).")

	return cmd
}

// report prints the diagnostics of results and returns the exit status as
// an error.
func report(cmd *cobra.Command, results []lint.FileResult, sources map[string][]byte, jsonOut bool) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	var (
		diags  []lint.Diagnostic
		failed bool
	)
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", r.Filename, r.Err)
			failed = true
			continue
		}
		diags = append(diags, r.Diagnostics...)
	}

	if jsonOut {
		if err := lint.FormatJSON(stdout, diags); err != nil {
			return usageError(cmd, err)
		}
	} else if len(diags) > 0 {
		mode := colorMode()
		if err := lint.Render(stderr, newRenderer(sources), diags); err != nil {
			return usageError(cmd, err)
		}
		fmt.Fprintln(stderr)
		printSummary(stderr, diags, mode)
	}

	switch {
	case failed:
		return &exitError{code: 2}
	case len(diags) > 0:
		return &exitError{code: 1}
	}
	return nil
}

// usageError reports err and returns the exit status for a bad invocation.
func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "nxt %s: %v\n", cmd.Name(), err)
	return &exitError{code: 2}
}
