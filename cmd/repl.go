// Copyright © 2024 The nxt authors

package cmd

import (
	"os"
	"path/filepath"

	"github.com/luthersystems/nxt/repl"
	"github.com/spf13/cobra"
)

// ReplCommand creates the "repl" cobra command.
func ReplCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)

	return &cobra.Command{
		Use:   "repl",
		Short: "Check Nix expressions interactively",
		Long: `Start an interactive loop that lints each Nix expression as it is
entered.

An expression may span several lines; the prompt changes to "..." until it
is complete, and a blank line checks whatever has been typed so far. Each
entry is checked as a file of its own. Line editing, completion of global
names and command history are supported via readline.

Commands:
  :checks   List the checks that run on each entry
  :help     Show this help
  :quit     Leave the loop (as does Ctrl-D)

Example session:
  nxt> let x = 1; in y
  error[unresolved-reference]: undefined variable "y"
    --> <repl:1>:1:15
  ...
  nxt> { a = 1; }
  no problems`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := cfg.linter(nil)
			if err != nil {
				return usageError(cmd, err)
			}
			return repl.RunRepl(filepath.Base(os.Args[0])+"> ",
				repl.WithLinter(l),
				repl.WithColor(colorMode()),
			)
		},
	}
}
