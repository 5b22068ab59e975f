// Copyright © 2024 The nxt authors

package cmd

import (
	"fmt"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/docs"
	"github.com/luthersystems/nxt/lint"
	"github.com/spf13/cobra"
)

// DocCommand creates the "doc" cobra command, which shows the
// documentation of the lint checks.
func DocCommand() *cobra.Command {
	var listBuiltins, guide bool

	cmd := &cobra.Command{
		Use:   "doc [flags] [CHECK...]",
		Short: "Show documentation for lint checks",
		Long: `Show the documentation of the named lint checks, or a summary of every
check when no name is given.

Use -b to list the names that are always in scope, such as builtins and
true, false and null. Use --guide to read how names are resolved, how to
suppress diagnostics and how to configure nxt.

Examples:
  nxt doc                    Summarize all checks
  nxt doc unused-binding     Show the documentation of one check
  nxt doc -b                 List the global names
  nxt doc --guide            Show the user guide`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if guide {
				fmt.Fprint(out, docs.Guide)
				return nil
			}
			if listBuiltins {
				for _, name := range analysis.Builtins() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			if len(args) == 0 {
				fmt.Fprint(out, lint.AnalyzerDoc())
				return nil
			}
			analyzers, err := lint.SelectAnalyzers(args, nil)
			if err != nil {
				return usageError(cmd, err)
			}
			for i, a := range analyzers {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprint(out, lint.AnalyzerHelp(a))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&listBuiltins, "builtins", "b", false,
		"List the globally bound names.")
	cmd.Flags().BoolVar(&guide, "guide", false,
		"Show the nxt user guide.")
	return cmd
}
