// Copyright © 2024 The nxt authors

package lsp

import (
	"cmp"
	"slices"
	"strings"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/syntax"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var nixKeywords = []string{
	"assert", "else", "if", "in", "inherit", "let", "or", "rec", "then", "with",
}

// textDocumentCompletion handles the textDocument/completion request.
func (s *Server) textDocumentCompletion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	offset := positionToOffset(snap.lines, params.Position)
	if inStringText(snap.tree.Node, offset) {
		return nil, nil
	}
	prefix := wordBefore(snap.content, offset)

	var items []protocol.CompletionItem
	if snap.analysis != nil {
		items = scopeCompletions(snap.analysis, scopeAt(snap.analysis, offset), prefix)
	}
	for _, kw := range nixKeywords {
		if strings.HasPrefix(kw, prefix) {
			kind := protocol.CompletionItemKindKeyword
			items = append(items, protocol.CompletionItem{Label: kw, Kind: &kind})
		}
	}
	return items, nil
}

// scopeCompletions returns the names visible from scope that start with
// prefix. Inner definitions hide outer ones of the same name.
func scopeCompletions(res *analysis.Result, scope analysis.ScopeID, prefix string) []protocol.CompletionItem {
	seen := make(map[string]bool)
	var items []protocol.CompletionItem
	for id := scope; id.Valid(); id = res.Scope(id).Parent {
		var defs []*analysis.Definition
		for _, def := range res.Scope(id).Defs {
			d := res.Def(def)
			if seen[d.Name] || !strings.HasPrefix(d.Name, prefix) {
				continue
			}
			seen[d.Name] = true
			defs = append(defs, d)
		}
		slices.SortFunc(defs, func(a, b *analysis.Definition) int {
			return cmp.Compare(a.Name, b.Name)
		})
		for _, d := range defs {
			items = append(items, completionItem(d))
		}
	}
	return items
}

func completionItem(def *analysis.Definition) protocol.CompletionItem {
	kind := protocol.CompletionItemKindVariable
	switch def.Kind {
	case analysis.DefBuiltin:
		kind = protocol.CompletionItemKindFunction
	case analysis.DefRecAttr:
		kind = protocol.CompletionItemKindField
	}
	return protocol.CompletionItem{
		Label:  def.Name,
		Kind:   &kind,
		Detail: strPtr(defKindLabel(def.Kind)),
	}
}

// wordBefore returns the identifier characters immediately preceding
// offset in content.
func wordBefore(content string, offset int) string {
	if offset > len(content) {
		offset = len(content)
	}
	start := offset
	for start > 0 && isIdentChar(content[start-1]) {
		start--
	}
	return content[start:offset]
}

func isIdentChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '_' || c == '\'' || c == '-'
}

// inStringText reports whether offset lies in the literal text of a string,
// outside any interpolation.
func inStringText(root *syntax.Node, offset int) bool {
	n := astutil.NodeAt(root, offset)
	return n != nil && n.Kind == syntax.KindString && n.Span.Start < offset && offset < n.Span.End
}
