// Copyright © 2024 The nxt authors

package diagnostic

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

const tabWidth = 4

// Renderer formats diagnostics as annotated source snippets.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode

	// SourceReader reads source file contents. If nil, os.ReadFile is used.
	SourceReader func(string) ([]byte, error)
}

// Render writes a single diagnostic to w.
func (r *Renderer) Render(w io.Writer, d Diagnostic) error {
	p := newPalette(UseColor(r.Color, fileFromWriter(w)))
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}

	r.writeHeader(ew, d, p)
	for i, span := range d.Spans {
		r.writeSpan(ew, span, i == 0, d.Severity, p)
	}
	for _, note := range d.Notes {
		ew.printf("   %s note: %s\n", p.note().Sprint("="), note)
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

// RenderAll writes all diagnostics to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, d); err != nil {
			return err
		}
	}
	return nil
}

// errWriter wraps a writer and captures the first error, short-circuiting
// subsequent writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

func (r *Renderer) writeHeader(ew *errWriter, d Diagnostic, p palette) {
	sev := d.Severity.String()
	if d.Code != "" {
		sev = fmt.Sprintf("%s[%s]", sev, d.Code)
	}
	ew.printf("%s: %s\n", p.header(d.Severity).Sprint(sev), p.bold().Sprint(d.Message))
}

func (r *Renderer) writeSpan(ew *errWriter, span Span, primary bool, sev Severity, p palette) {
	loc := span.File
	if span.Line > 0 {
		loc = fmt.Sprintf("%s:%d", span.File, span.Line)
		if span.Col > 0 {
			loc = fmt.Sprintf("%s:%d:%d", span.File, span.Line, span.Col)
		}
	}
	arrow := "-->"
	if !primary {
		arrow = ":::"
	}
	gutter := p.gutter()
	ew.printf("  %s %s\n", gutter.Sprint(arrow), loc)

	source, ok := r.readSourceLine(span.File, span.Line)
	if !ok {
		ew.printf("   %s\n", gutter.Sprint("|"))
		return
	}

	lineStr := strconv.Itoa(span.Line)
	margin := gutter.Sprint(strings.Repeat(" ", len(lineStr)) + " |")

	ew.printf(" %s\n", margin)
	ew.printf(" %s  %s\n", gutter.Sprint(lineStr+" |"), expandTabs(source))

	col := max(span.Col, 1)
	endCol := span.EndCol
	if endCol <= col {
		endCol = detectEndCol(source, col)
	}
	prefix := runePrefix(source, col-1)
	marked := runePrefix(source, endCol-1)[len(prefix):]
	underLen := max(displayWidth(marked), 1)

	mark, style := "^", p.severity(sev)
	if !primary {
		mark, style = "-", gutter
	}
	ew.printf(" %s  %s%s", margin,
		strings.Repeat(" ", displayWidth(prefix)), style.Sprint(strings.Repeat(mark, underLen)))
	if span.Label != "" {
		ew.printf(" %s", style.Sprint(span.Label))
	}
	ew.print("\n")
	ew.printf(" %s\n", margin)
}

func (r *Renderer) readSourceLine(file string, line int) (string, bool) {
	if line <= 0 || file == "" {
		return "", false
	}
	reader := r.SourceReader
	if reader == nil {
		reader = func(name string) ([]byte, error) {
			return os.ReadFile(name) //nolint:gosec // reads user-specified source files for display
		}
	}
	data, err := reader(file)
	if err != nil {
		return "", false
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for i := 1; scanner.Scan(); i++ {
		if i == line {
			return strings.TrimSuffix(scanner.Text(), "\r"), true
		}
	}
	return "", false
}

// detectEndCol returns the column just past the identifier-like word that
// starts at col, or col+1 when there is none.
func detectEndCol(source string, col int) int {
	rest := source[len(runePrefix(source, col-1)):]
	n := 0
	for _, ch := range rest {
		if !isWordRune(ch) {
			break
		}
		n++
	}
	return col + max(n, 1)
}

func isWordRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || strings.ContainsRune("_'-.", ch)
}

// runePrefix returns the first n runes of s.
func runePrefix(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// displayWidth returns the number of terminal cells s occupies, expanding
// tabs and counting wide runes twice.
func displayWidth(s string) int {
	return runewidth.StringWidth(expandTabs(s))
}

// fileFromWriter attempts to extract an *os.File from a writer for terminal
// detection. Returns nil if the writer is not backed by a file.
func fileFromWriter(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
