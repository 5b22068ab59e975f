// Copyright © 2024 The nxt authors

// Package repl implements an interactive loop that lints each Nix
// expression typed at the prompt and prints its diagnostics.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/nxt/diagnostic"
	"github.com/luthersystems/nxt/lint"
	"github.com/luthersystems/nxt/parser"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("nxt.repl")

type config struct {
	stdin  io.ReadCloser
	stderr io.WriteCloser
	linter *lint.Linter
	color  diagnostic.ColorMode
}

func newConfig(opts ...Option) *config {
	config := &config{
		linter: &lint.Linter{Analyzers: lint.DefaultAnalyzers()},
		color:  diagnostic.ColorAuto,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output of the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithLinter sets the linter applied to each expression.
func WithLinter(l *lint.Linter) Option {
	return func(c *config) {
		c.linter = l
	}
}

// WithColor sets the color mode of rendered diagnostics.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// RunRepl reads expressions until end of input or :quit.
func RunRepl(prompt string, opts ...Option) error {
	cfg := newConfig(opts...)
	out := io.Writer(os.Stderr)
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	sess := newSession(cfg, out)
	cont := strings.Repeat(" ", max(len(prompt)-4, 0)) + "... "

	hist := historyPath()
	ensureHistoryFilePermissions(hist)
	rlCfg := &readline.Config{
		Stdout:            out,
		Stderr:            out,
		Prompt:            prompt,
		HistoryFile:       hist,
		HistorySearchFold: true,
		AutoComplete:      &nameCompleter{},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	for {
		if sess.pending() {
			rl.SetPrompt(cont)
		} else {
			rl.SetPrompt(prompt)
		}
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			sess.reset()
			continue
		}
		if err != nil {
			// Lint whatever is left when the input ends.
			sess.flush()
			return nil
		}
		if sess.feed(line) {
			return nil
		}
	}
}

// session accumulates input lines into entries and lints each complete
// entry as its own file.
type session struct {
	linter   *lint.Linter
	out      io.Writer
	renderer *diagnostic.Renderer
	buf      strings.Builder
	entries  int
	sources  map[string]string
}

func newSession(cfg *config, out io.Writer) *session {
	s := &session{
		linter:  cfg.linter,
		out:     out,
		sources: make(map[string]string),
	}
	s.renderer = &diagnostic.Renderer{
		Color: cfg.color,
		SourceReader: func(name string) ([]byte, error) {
			src, ok := s.sources[name]
			if !ok {
				return nil, os.ErrNotExist
			}
			return []byte(src), nil
		},
	}
	return s
}

func (s *session) pending() bool {
	return s.buf.Len() > 0
}

func (s *session) reset() {
	s.buf.Reset()
}

// feed adds one input line. It reports whether the session should end.
func (s *session) feed(line string) (quit bool) {
	trimmed := strings.TrimSpace(line)
	if !s.pending() && strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed)
	}
	if trimmed == "" {
		// A blank line ends an incomplete entry.
		if s.pending() {
			s.flush()
		}
		return false
	}
	s.buf.WriteString(line)
	s.buf.WriteString("\n")
	if !incomplete(s.buf.String()) {
		s.flush()
	}
	return false
}

// flush lints the buffered entry.
func (s *session) flush() {
	if !s.pending() {
		return
	}
	src := s.buf.String()
	s.buf.Reset()
	s.entries++
	name := fmt.Sprintf("<repl:%d>", s.entries)
	s.sources[name] = src

	diags, err := s.linter.LintFileContext(context.Background(), []byte(src), name)
	if err != nil {
		log.Errorf("%s: %v", name, err)
		fmt.Fprintln(s.out, err) //nolint:errcheck // best-effort REPL output
		return
	}
	if len(diags) == 0 {
		fmt.Fprintln(s.out, "no problems") //nolint:errcheck // best-effort REPL output
		return
	}
	if err := lint.Render(s.out, s.renderer, diags); err != nil {
		log.Errorf("render: %v", err)
	}
}

func (s *session) command(cmd string) (quit bool) {
	switch cmd {
	case ":q", ":quit":
		return true
	case ":checks":
		for _, a := range s.linter.Analyzers {
			fmt.Fprintf(s.out, "%s [%s]\n", a.Name, a.Severity) //nolint:errcheck // best-effort REPL output
		}
	case ":help", ":h":
		fmt.Fprint(s.out, helpText) //nolint:errcheck // best-effort REPL output
	default:
		fmt.Fprintf(s.out, "unknown command %s, try :help\n", cmd) //nolint:errcheck // best-effort REPL output
	}
	return false
}

const helpText = `Enter a Nix expression to check it. Expressions may span several lines;
a blank line ends an incomplete one.

  :checks   list the enabled checks
  :help     show this text
  :quit     leave the REPL
`

// incomplete reports whether src stops before the end of an expression,
// meaning more input should be read.
func incomplete(src string) bool {
	root := parser.Parse("", []byte(src))
	for _, err := range root.Errors {
		if strings.HasSuffix(err.Message, "found end of input") ||
			strings.HasPrefix(err.Message, "unterminated") {
			return true
		}
	}
	return false
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nxt_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the owner.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //nolint:gosec // path is under the user's home
	if err != nil {
		log.Debugf("history file: %v", err)
		return
	}
	_ = f.Close()
	if err := os.Chmod(path, 0o600); err != nil {
		log.Debugf("history file: %v", err)
	}
}
