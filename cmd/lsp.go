// Copyright © 2024 The nxt authors

package cmd

import (
	"fmt"

	"github.com/luthersystems/nxt/lsp"
	"github.com/spf13/cobra"
)

// LSPCommand creates the "lsp" cobra command. The server runs the checks
// selected by the configuration file, and embedders can pass WithBuiltins
// or WithAnalyzers to extend them.
func LSPCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)

	var (
		stdio bool
		port  int
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the Nix Language Server Protocol server",
		Long: `Start an LSP server for Nix source files.

The language server provides real-time IDE features including diagnostics,
hover, go-to-definition, find references, highlights, completion, document
symbols, folding, rename and quick fixes.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  nxt lsp                            Start with stdio transport
  nxt lsp --stdio                    Same as above (explicit)
  nxt lsp --port 7998                Start with TCP on port 7998
  nxt lsp --log-file /tmp/nxt.log -v Log requests to a file

Editor configuration (VS Code):
  Install a generic LSP client extension and configure it to run
  "nxt lsp --stdio" for .nix files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := cfg.linter(nil)
			if err != nil {
				return usageError(cmd, err)
			}
			srv := lsp.New(lsp.WithLinter(l), lsp.WithDebug(debug))

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				log.Noticef("nxt LSP server listening on %s", addr)
				return srv.RunTCP(addr)
			}
			return srv.RunStdio()
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")
	cmd.Flags().BoolVar(&debug, "debug", false,
		"Log every protocol message")

	return cmd
}
