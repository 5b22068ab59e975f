// Copyright © 2024 The nxt authors

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/parser"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
	"github.com/spf13/cobra"
)

// DumpCommand creates the "dump" cobra command, which prints the syntax
// tree of a file and the resolution of every name it uses.
func DumpCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts...)

	var treeOnly, refsOnly bool

	cmd := &cobra.Command{
		Use:   "dump [flags] [file]",
		Short: "Print the syntax tree and name resolution of a Nix file",
		Long: `Print the lossless syntax tree of a Nix file followed by every variable
reference and what it resolves to. With no file, reads from stdin.

Each reference is printed as

  line:col name -> resolution

where the resolution is the binding it refers to, the innermost "with"
that may provide it, or "unresolved".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if treeOnly && refsOnly {
				return usageError(cmd, fmt.Errorf("--tree and --refs cannot be used together"))
			}
			name, src, err := readInput(cmd, args)
			if err != nil {
				return usageError(cmd, err)
			}
			root := parser.Parse(name, src)
			res, err := analysis.Analyze(cmd.Context(), root, &analysis.Config{
				ExtraBuiltins: cfg.lintConfig(nil).Builtins,
			})
			if err != nil {
				return err
			}

			out := bufio.NewWriter(cmd.OutOrStdout())
			defer out.Flush() //nolint:errcheck // best-effort flush on exit
			if !refsOnly {
				var sb strings.Builder
				syntax.Dump(&sb, root.Node, 0)
				_, _ = out.WriteString(sb.String())
				for _, e := range root.Errors {
					fmt.Fprintf(out, "error %s: %s\n", e.Span, e.Message)
				}
			}
			if !treeOnly {
				if !refsOnly {
					fmt.Fprintln(out)
				}
				dumpReferences(out, res)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&treeOnly, "tree", false, "Print only the syntax tree.")
	cmd.Flags().BoolVar(&refsOnly, "refs", false, "Print only the references.")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, []byte, error) {
	if len(args) == 0 {
		src, err := io.ReadAll(cmd.InOrStdin())
		return stdinName, src, err
	}
	src, err := os.ReadFile(args[0]) //nolint:gosec // CLI tool reads user-specified files
	return args[0], src, err
}

// dumpReferences writes one line per reference in the order of use.
func dumpReferences(w io.Writer, res *analysis.Result) {
	lines := res.Tree.Lines()
	for _, ref := range res.References() {
		loc := lines.Location(ref.Span.Start)
		fmt.Fprintf(w, "%d:%d %s -> %s\n", loc.Line, loc.Col, ref.Name, describeResolution(res, lines, ref))
	}
}

func describeResolution(res *analysis.Result, lines *token.LineIndex, ref *analysis.Reference) string {
	switch ref.Resolution {
	case analysis.Resolved:
		def := res.Def(ref.Def)
		if def.IsBuiltin() {
			return "builtin"
		}
		loc := lines.Location(def.Span.Start)
		return fmt.Sprintf("%s %s at %d:%d", def.Kind, def.Name, loc.Line, loc.Col)
	case analysis.Dynamic:
		loc := lines.Location(res.Scope(ref.With).Span.Start)
		return fmt.Sprintf("dynamic (with at %d:%d)", loc.Line, loc.Col)
	default:
		return ref.Resolution.String()
	}
}
