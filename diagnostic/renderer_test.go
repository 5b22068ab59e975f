// Copyright © 2024 The nxt authors

package diagnostic

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRenderer returns a Renderer with colors disabled and a fake source reader.
func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color: ColorNever,
		SourceReader: func(name string) ([]byte, error) {
			s, ok := sources[name]
			if !ok {
				return nil, errors.New("not found: " + name)
			}
			return []byte(s), nil
		},
	}
}

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func TestRenderError(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.nix": "let a = 1; in b",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Code:     "unresolved-reference",
		Message:  `undefined variable "b"`,
		Spans:    []Span{{File: "test.nix", Line: 1, Col: 15, EndCol: 16, Label: "not bound"}},
	})

	want := strings.Join([]string{
		`error[unresolved-reference]: undefined variable "b"`,
		"  --> test.nix:1:15",
		"   |",
		" 1 |  let a = 1; in b",
		"   |  " + strings.Repeat(" ", 14) + "^ not bound",
		"   |",
		"",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderSecondarySpan(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.nix": "let\n  a = 1;\n  a = 2;\nin a",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  `"a" is already defined`,
		Spans: []Span{
			{File: "test.nix", Line: 3, Col: 3, EndCol: 4},
			{File: "test.nix", Line: 2, Col: 3, EndCol: 4, Label: "first defined here"},
		},
	})
	assert.Contains(t, got, "--> test.nix:3:3")
	assert.Contains(t, got, "::: test.nix:2:3")
	assert.Contains(t, got, "- first defined here")
	assert.Equal(t, 1, strings.Count(got, "^"))
}

func TestRenderWarning(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.nix": "x:\n  let unused = 1; in x",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  `binding "unused" is never used`,
		Spans:    []Span{{File: "test.nix", Line: 2, Col: 7}},
	})
	assert.Contains(t, got, `warning: binding "unused" is never used`)
	assert.Contains(t, got, "--> test.nix:2:7")
	assert.Contains(t, got, "  let unused = 1; in x")
	assert.Contains(t, got, "      ^^^^^^\n")
}

func TestRenderNoSource(t *testing.T) {
	got := render(t, testRenderer(nil), Diagnostic{
		Severity: SeverityError,
		Message:  "some error",
		Spans:    []Span{{File: "<stdin>", Line: 5, Col: 3}},
	})
	assert.Contains(t, got, "error: some error")
	assert.Contains(t, got, "--> <stdin>:5:3")
	assert.Contains(t, got, "|")
	assert.NotContains(t, got, "^")
}

func TestRenderNotes(t *testing.T) {
	r := testRenderer(map[string]string{"test.nix": "rec { a = 1; }"})
	got := render(t, r, Diagnostic{
		Severity: SeverityInfo,
		Message:  "rec set never refers to its own attributes",
		Spans:    []Span{{File: "test.nix", Line: 1, Col: 1, EndCol: 4}},
		Notes:    []string{"remove the rec keyword"},
	})
	assert.True(t, strings.HasPrefix(got, "info: "))
	assert.Contains(t, got, "^^^")
	assert.Contains(t, got, "= note: remove the rec keyword")
}

func TestRenderWideRunes(t *testing.T) {
	r := testRenderer(map[string]string{"test.nix": `{ "名前" = x; }`})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  `undefined variable "x"`,
		Spans:    []Span{{File: "test.nix", Line: 1, Col: 10, EndCol: 11}},
	})
	// two wide runes take four cells
	assert.Contains(t, got, "|  "+strings.Repeat(" ", 11)+"^\n")
}

func TestRenderTabs(t *testing.T) {
	r := testRenderer(map[string]string{"test.nix": "\tfoo"})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "m",
		Spans:    []Span{{File: "test.nix", Line: 1, Col: 2}},
	})
	assert.Contains(t, got, "|      foo\n")
	assert.Contains(t, got, "|      ^^^\n")
}

func TestRenderMultipleDiagnostics(t *testing.T) {
	r := testRenderer(map[string]string{"test.nix": "a\nb"})
	diags := []Diagnostic{
		{Severity: SeverityError, Message: "first", Spans: []Span{{File: "test.nix", Line: 1, Col: 1}}},
		{Severity: SeverityError, Message: "second", Spans: []Span{{File: "test.nix", Line: 2, Col: 1}}},
	}
	var buf bytes.Buffer
	require.NoError(t, r.RenderAll(&buf, diags))
	got := buf.String()
	assert.GreaterOrEqual(t, len(strings.Split(got, "\n\n")), 2)
	assert.Contains(t, got, "first")
	assert.Contains(t, got, "second")
}

func TestRenderNoSpans(t *testing.T) {
	got := render(t, testRenderer(nil), Diagnostic{
		Severity: SeverityError,
		Code:     "internal-error",
		Message:  "analysis aborted",
	})
	assert.Equal(t, "error[internal-error]: analysis aborted\n", got)
}

func TestRenderColor(t *testing.T) {
	r := testRenderer(map[string]string{"test.nix": "b"})
	r.Color = ColorAlways
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "m",
		Spans:    []Span{{File: "test.nix", Line: 1, Col: 1}},
	})
	assert.Contains(t, got, "\033[1;31merror")
	assert.Contains(t, got, "\033[1;34m-->")

	r.Color = ColorNever
	plain := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "m",
		Spans:    []Span{{File: "test.nix", Line: 1, Col: 1}},
	})
	assert.NotContains(t, plain, "\033[")
	assert.Equal(t, plain, ansiEscape.ReplaceAllString(got, ""))
}

var ansiEscape = regexp.MustCompile("\033\\[[0-9;]*m")

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]ColorMode{"": ColorAuto, "auto": ColorAuto, "always": ColorAlways, "never": ColorNever} {
		got, err := ParseColorMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseColorMode("sometimes")
	assert.Error(t, err)
}

func TestUseColor(t *testing.T) {
	assert.True(t, UseColor(ColorAlways, nil))
	assert.False(t, UseColor(ColorNever, nil))
	assert.False(t, UseColor(ColorAuto, nil))
}
