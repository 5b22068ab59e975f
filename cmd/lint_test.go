// Copyright © 2024 The nxt authors

package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/nxt/lint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs cmd with args and returns its output and exit status.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	var exit *exitError
	switch {
	case err == nil:
		code = 0
	case errors.As(err, &exit):
		code = exit.code
	default:
		t.Fatalf("unexpected error: %v", err)
	}
	return out.String(), errOut.String(), code
}

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func decodeDiagnostics(t *testing.T, out string) []lint.Diagnostic {
	t.Helper()
	var diags []lint.Diagnostic
	require.NoError(t, json.Unmarshal([]byte(out), &diags))
	return diags
}

func TestLintCommand_DefaultFlags(t *testing.T) {
	cmd := LintCommand()
	assert.Equal(t, "lint [flags] [files...]", cmd.Use)

	for _, name := range []string{"json", "checks", "list", "exclude", "disable", "jobs", "severity"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestLintCommand_Clean(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.nix", "let x = 1; in x\n")
	stdout, stderr, code := execute(t, LintCommand(WithViper(viper.New())), "", path)
	assert.Equal(t, 0, code)
	assert.Empty(t, stdout)
	assert.Empty(t, stderr)
}

func TestLintCommand_Problems(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.nix", "let x = 1; in y\n")
	_, stderr, code := execute(t, LintCommand(WithViper(viper.New())), "", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error[unresolved-reference]")
	assert.Contains(t, stderr, `undefined variable "y"`)
	assert.Contains(t, stderr, "warning[unused-binding]")
	assert.Contains(t, stderr, path+":1:15")
	assert.Contains(t, stderr, "2 problems (1 error, 1 warning, 0 info)")
}

func TestLintCommand_Stdin(t *testing.T) {
	_, stderr, code := execute(t, LintCommand(WithViper(viper.New())), "y\n")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "<stdin>:1:1")
	// The snippet is read from the buffered input.
	assert.Contains(t, stderr, "1 |  y")
}

func TestLintCommand_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.nix", "let x = 1; in y\n")
	stdout, _, code := execute(t, LintCommand(WithViper(viper.New())), "",
		"--json", "--checks", "unresolved-reference", path)
	assert.Equal(t, 1, code)
	diags := decodeDiagnostics(t, stdout)
	require.Len(t, diags, 1)
	assert.Equal(t, "unresolved-reference", diags[0].Analyzer)
	assert.Equal(t, lint.SeverityError, diags[0].Severity)
	assert.Equal(t, 1, diags[0].Pos.Line)
	assert.Equal(t, 15, diags[0].Pos.Col)
}

func TestLintCommand_JSONClean(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.nix", "{ a = 1; }\n")
	stdout, _, code := execute(t, LintCommand(WithViper(viper.New())), "", "--json", path)
	assert.Equal(t, 0, code)
	assert.Equal(t, "[]\n", stdout)
}

func TestLintCommand_Severity(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.nix", "y\n")
	stdout, _, code := execute(t, LintCommand(WithViper(viper.New())), "",
		"--json", "--severity", "unresolved-reference=info", path)
	assert.Equal(t, 1, code)
	diags := decodeDiagnostics(t, stdout)
	require.Len(t, diags, 1)
	assert.Equal(t, lint.SeverityInfo, diags[0].Severity)
}

func TestLintCommand_Disable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.nix", "y\n")
	_, _, code := execute(t, LintCommand(WithViper(viper.New())), "", "--disable", "unresolved-reference", path)
	assert.Equal(t, 0, code)
}

func TestLintCommand_UnknownCheck(t *testing.T) {
	_, stderr, code := execute(t, LintCommand(WithViper(viper.New())), "", "--checks", "nope")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown analyzer: nope")
}

func TestLintCommand_BadSeverity(t *testing.T) {
	_, stderr, code := execute(t, LintCommand(WithViper(viper.New())), "",
		"--severity", "unused-binding=fatal")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown severity")
}

func TestLintCommand_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.nix")
	_, stderr, code := execute(t, LintCommand(WithViper(viper.New())), "", missing)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, missing)
}

func TestLintCommand_List(t *testing.T) {
	stdout, _, code := execute(t, LintCommand(), "", "--list")
	assert.Equal(t, 0, code)
	assert.Equal(t, strings.Join(lint.AnalyzerNames(), "\n")+"\n", stdout)
}

func TestLintCommand_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.nix", "y\n")
	writeFile(t, dir, "b.nix", "z\n")
	stdout, _, code := execute(t, LintCommand(WithViper(viper.New())), "", "--json", dir+"/...")
	assert.Equal(t, 1, code)
	diags := decodeDiagnostics(t, stdout)
	require.Len(t, diags, 2)
	assert.Equal(t, filepath.Join(dir, "a.nix"), diags[0].Pos.File)
	assert.Equal(t, filepath.Join(dir, "b.nix"), diags[1].Pos.File)
}

func TestLintCommand_WithBuiltins(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pkg.nix", "pkgs.hello\n")

	_, _, code := execute(t, LintCommand(WithViper(viper.New())), "", path)
	assert.Equal(t, 1, code)

	_, _, code = execute(t, LintCommand(WithViper(viper.New()), WithBuiltins("pkgs")), "", path)
	assert.Equal(t, 0, code)
}

func TestLintCommand_WithAnalyzers(t *testing.T) {
	custom := &lint.Analyzer{
		Name:     "no-null",
		Doc:      "Report null literals.",
		Severity: lint.SeverityWarning,
		Run: func(pass *lint.Pass) error {
			for _, ref := range pass.Semantics.References() {
				if ref.Name == "null" {
					pass.Reportf(ref.Span, "null is not allowed here")
				}
			}
			return nil
		},
	}
	path := writeFile(t, t.TempDir(), "null.nix", "null\n")
	stdout, _, code := execute(t, LintCommand(WithViper(viper.New()), WithAnalyzers(custom)), "", "--json", path)
	assert.Equal(t, 1, code)
	diags := decodeDiagnostics(t, stdout)
	require.Len(t, diags, 1)
	assert.Equal(t, "no-null", diags[0].Analyzer)
}

func TestLintCommand_Config(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.nix", "let x = 1; in y\n")
	cfgPath := writeFile(t, dir, "nxt.yaml", `lint:
  disable: [unused-binding]
  severity:
    unresolved-reference: warning
`)
	v := viper.New()
	v.SetConfigFile(cfgPath)
	require.NoError(t, v.ReadInConfig())

	stdout, _, code := execute(t, LintCommand(WithViper(v)), "", "--json", path)
	assert.Equal(t, 1, code)
	diags := decodeDiagnostics(t, stdout)
	require.Len(t, diags, 1)
	assert.Equal(t, "unresolved-reference", diags[0].Analyzer)
	assert.Equal(t, lint.SeverityWarning, diags[0].Severity)
}

func TestLintConfig_FlagsOverrideSettings(t *testing.T) {
	v := viper.New()
	v.Set(keyChecks, "unused-binding, shadowed-binding")
	v.Set(keyJobs, 2)
	v.Set(keySeverity, map[string]string{"unused-binding": "info"})
	cfg := newCmdConfig(WithViper(v), WithBuiltins("pkgs"))

	got := cfg.lintConfig(nil)
	assert.Equal(t, []string{"unused-binding", "shadowed-binding"}, got.Checks)
	assert.Equal(t, 2, got.Jobs)
	assert.Equal(t, []string{"pkgs"}, got.Builtins)

	got = cfg.lintConfig(&lintFlags{
		checks:   "empty-let",
		jobs:     8,
		severity: map[string]string{"empty-let": "error"},
	})
	assert.Equal(t, []string{"empty-let"}, got.Checks)
	assert.Equal(t, 8, got.Jobs)
	assert.Equal(t, map[string]string{"unused-binding": "info", "empty-let": "error"}, got.Severity)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", "", " c "}))
	assert.Nil(t, splitList(nil))
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		v, q int
		want int
	}{
		{0, 0, 0},
		{1, 0, 2},
		{2, 0, 3},
		{0, 1, -1},
		{0, 2, -2},
		{0, 3, -4},
	}
	for _, tt := range tests {
		got, err := verbosity(tt.v, tt.q)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "-v=%d -q=%d", tt.v, tt.q)
	}

	_, err := verbosity(1, 1)
	assert.Error(t, err)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 problem", plural(1, "problem"))
	assert.Equal(t, "0 errors", plural(0, "error"))
	assert.Equal(t, "3 info", plural(3, "info"))
}
