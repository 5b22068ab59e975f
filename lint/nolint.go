// Copyright © 2024 The nxt authors

package lint

import (
	"slices"
	"strings"

	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
)

// filterSuppressed removes diagnostics on lines with nolint comments.
// Internal errors are never suppressed.
func filterSuppressed(diags []Diagnostic, root *syntax.Root, lines *token.LineIndex) []Diagnostic {
	directives := nolintDirectives(root, lines)
	if len(directives) == 0 {
		return diags
	}
	filtered := diags[:0:0]
	for _, d := range diags {
		if !suppressed(directives, d) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

func suppressed(directives map[int]string, d Diagnostic) bool {
	if d.Analyzer == InternalErrorName {
		return false
	}
	directive, ok := directives[d.Pos.Line]
	if !ok {
		return false
	}
	if directive == "" {
		return true
	}
	return slices.ContainsFunc(strings.Split(directive, ","), func(name string) bool {
		return strings.TrimSpace(name) == d.Analyzer
	})
}

// nolintDirectives maps each line holding a nolint comment to "" (all
// analyzers) or a comma separated list of analyzer names. A block comment
// applies to the line it starts on.
func nolintDirectives(root *syntax.Root, lines *token.LineIndex) map[int]string {
	directives := make(map[int]string)
	if root == nil || root.Node == nil {
		return directives
	}
	root.Comments(func(tok *token.Token) {
		text := tok.Text
		switch {
		case strings.HasPrefix(text, "#"):
			text = strings.TrimPrefix(text, "#")
		case strings.HasPrefix(text, "/*"):
			text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		}
		text = strings.TrimSpace(text)
		if !strings.HasPrefix(text, "nolint") {
			return
		}
		rest := strings.TrimPrefix(text, "nolint")
		line := lines.Location(tok.Span.Start).Line
		switch {
		case rest == "":
			directives[line] = ""
		case strings.HasPrefix(rest, ":"):
			directives[line] = strings.TrimPrefix(rest, ":")
		}
	})
	return directives
}
