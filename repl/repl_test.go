// Copyright © 2024 The nxt authors

package repl

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthersystems/nxt/diagnostic"
	"github.com/luthersystems/nxt/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() (*session, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := newConfig(WithColor(diagnostic.ColorNever))
	return newSession(cfg, &out), &out
}

func runReplWithString(t *testing.T, input string) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	go func() {
		defer inW.Close() //nolint:errcheck // test cleanup
		_, _ = io.WriteString(inW, input)
	}()

	go func() {
		_ = RunRepl("nix> ", WithStdin(inR), WithStderr(outW), WithColor(diagnostic.ColorNever))
		inR.Close()  //nolint:errcheck,gosec // test cleanup
		outW.Close() //nolint:errcheck,gosec // test cleanup
	}()

	var output bytes.Buffer
	_, _ = io.Copy(&output, outR)
	outR.Close() //nolint:errcheck,gosec // test cleanup
	return output.String()
}

func TestEnsureHistoryFilePermissions_CreatesWithRestrictedMode(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".nxt_history")

	// File does not exist yet.
	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err, "history file should be created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "new history file should have mode 0600")
}

func TestEnsureHistoryFilePermissions_RestrictsExistingFile(t *testing.T) {
	dir := t.TempDir()
	histFile := filepath.Join(dir, ".nxt_history")

	// Create the file with overly permissive mode.
	err := os.WriteFile(histFile, []byte("some history"), 0644)
	require.NoError(t, err)

	ensureHistoryFilePermissions(histFile)

	info, err := os.Stat(histFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "existing history file should be restricted to 0600")

	// Verify contents are preserved.
	data, err := os.ReadFile(histFile)
	require.NoError(t, err)
	assert.Equal(t, "some history", string(data))
}

func TestEnsureHistoryFilePermissions_EmptyPathNoOp(t *testing.T) {
	// Should not panic or error with empty path.
	ensureHistoryFilePermissions("")
}

func TestSessionClean(t *testing.T) {
	s, out := testSession()
	assert.False(t, s.feed("let x = 1; in x"))
	assert.Equal(t, "no problems\n", out.String())
	assert.False(t, s.pending())
}

func TestSessionDiagnostics(t *testing.T) {
	s, out := testSession()
	s.feed("let x = 1; in y")
	got := out.String()
	assert.Contains(t, got, `error[unresolved-reference]: undefined variable "y"`)
	assert.Contains(t, got, "--> <repl:1>:1:15")
	assert.Contains(t, got, " 1 |  let x = 1; in y")
	assert.Contains(t, got, `warning[unused-binding]: binding "x" is never used`)
}

func TestSessionMultiLine(t *testing.T) {
	s, out := testSession()
	s.feed("let")
	assert.True(t, s.pending())
	s.feed("  a = 1;")
	assert.True(t, s.pending())
	assert.Empty(t, out.String())
	s.feed("in a")
	assert.False(t, s.pending())
	assert.Equal(t, "no problems\n", out.String())
}

func TestSessionBlankLineEndsEntry(t *testing.T) {
	s, out := testSession()
	s.feed("let a = 1;")
	require.True(t, s.pending())
	s.feed("")
	assert.False(t, s.pending())
	assert.Contains(t, out.String(), "syntax-error")
}

func TestSessionEntriesAreSeparateFiles(t *testing.T) {
	s, out := testSession()
	s.feed("1")
	s.feed("nope")
	assert.Contains(t, out.String(), "<repl:2>:1:1")
	assert.Len(t, s.sources, 2)
}

func TestSessionCommands(t *testing.T) {
	s, out := testSession()
	assert.False(t, s.feed(":checks"))
	assert.Contains(t, out.String(), "unused-binding [warning]")

	out.Reset()
	assert.False(t, s.feed(":help"))
	assert.Contains(t, out.String(), ":quit")

	out.Reset()
	assert.False(t, s.feed(":bogus"))
	assert.Contains(t, out.String(), "unknown command :bogus")

	assert.True(t, s.feed(":q"))
	assert.True(t, s.feed(":quit"))
}

func TestSessionWithLinter(t *testing.T) {
	var out bytes.Buffer
	cfg := newConfig(WithColor(diagnostic.ColorNever), WithLinter(&lint.Linter{
		Analyzers: []*lint.Analyzer{lint.AnalyzerUnresolvedReference},
	}))
	s := newSession(cfg, &out)
	s.feed("let x = 1; in 2")
	assert.Equal(t, "no problems\n", out.String())
}

func TestIncomplete(t *testing.T) {
	for src, want := range map[string]bool{
		"let x = 1;":      true,
		"{ a = 1;":        true,
		`"abc`:            true,
		"1 +":             true,
		"1 + 1":           false,
		"let x = 1; in x": false,
		"1 )":             false,
	} {
		assert.Equal(t, want, incomplete(src), src)
	}
}

func TestRunRepl(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Clean",
			input:    "let a = 1; in a\n",
			expected: "no problems",
		},
		{
			name:     "Error",
			input:    "fnord\n",
			expected: `undefined variable "fnord"`,
		},
		{
			name:     "Unterminated at end of input",
			input:    "let a = 1;\n",
			expected: "syntax-error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := runReplWithString(t, tc.input)
			require.Contains(t, got, tc.expected)
		})
	}
}
