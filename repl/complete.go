// Copyright © 2024 The nxt authors

package repl

import (
	"sort"
	"strings"

	"github.com/luthersystems/nxt/analysis"
)

var keywords = []string{
	"assert", "else", "if", "in", "inherit", "let", "or", "rec", "then", "with",
}

// nameCompleter implements readline.AutoCompleter by offering builtins and
// keywords.
type nameCompleter struct{}

func (c *nameCompleter) Do(line []rune, pos int) ([][]rune, int) {
	// Extract the word being typed, backwards from the cursor.
	start := pos
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	prefix := string(line[start:pos])
	if prefix == "" {
		return nil, 0
	}

	candidates := collectNames(prefix)
	if len(candidates) == 0 {
		return nil, 0
	}

	// Build completions: each entry is the suffix to append.
	result := make([][]rune, 0, len(candidates))
	for _, name := range candidates {
		result = append(result, []rune(name[len(prefix):]))
	}
	return result, len(prefix)
}

func collectNames(prefix string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, names := range [][]string{analysis.Builtins(), keywords} {
		for _, name := range names {
			if strings.HasPrefix(name, prefix) && !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}
	sort.Strings(result)
	return result
}

func isIdentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return r == '_' || r == '\'' || r == '-'
}
