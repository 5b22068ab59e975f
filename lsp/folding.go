// Copyright © 2024 The nxt authors

package lsp

import (
	"strings"

	"github.com/luthersystems/nxt/astutil"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line sets, lets, lists and strings and
// for comment blocks.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	tree := doc.tree
	lines := doc.lines
	doc.mu.Unlock()

	ranges := nodeFoldingRanges(tree.Node, lines)
	ranges = append(ranges, commentFoldingRanges(tree, lines)...)
	return ranges, nil
}

// nodeFoldingRanges emits a region for each foldable node spanning more
// than one line.
func nodeFoldingRanges(root *syntax.Node, lines *token.LineIndex) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	astutil.Walk(root, func(n, _ *syntax.Node, _ int) {
		switch n.Kind {
		case syntax.KindAttrSet, syntax.KindLetIn, syntax.KindLegacyLet,
			syntax.KindList, syntax.KindString:
		default:
			return
		}
		start := lines.Location(n.Span.Start).Line
		end := lines.Location(n.Span.End).Line
		if end > start {
			ranges = append(ranges, foldingRange(start, end, protocol.FoldingRangeKindRegion))
		}
	})
	return ranges
}

// commentFoldingRanges folds multi-line block comments and runs of two or
// more line comments on consecutive lines.
func commentFoldingRanges(root *syntax.Root, lines *token.LineIndex) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	runStart, runEnd := -1, -1
	flush := func() {
		if runStart >= 0 && runEnd > runStart {
			ranges = append(ranges, foldingRange(runStart, runEnd, protocol.FoldingRangeKindComment))
		}
		runStart, runEnd = -1, -1
	}
	root.Comments(func(tok *token.Token) {
		start := lines.Location(tok.Span.Start).Line
		if strings.HasPrefix(tok.Text, "/*") {
			flush()
			end := lines.Location(tok.Span.End).Line
			if end > start {
				ranges = append(ranges, foldingRange(start, end, protocol.FoldingRangeKindComment))
			}
			return
		}
		if runStart >= 0 && start == runEnd+1 {
			runEnd = start
			return
		}
		flush()
		runStart, runEnd = start, start
	})
	flush()
	return ranges
}

// foldingRange converts 1-based lines to an LSP folding range.
func foldingRange(start, end int, kind protocol.FoldingRangeKind) protocol.FoldingRange {
	k := string(kind)
	return protocol.FoldingRange{
		StartLine: uinteger(start - 1),
		EndLine:   uinteger(end - 1),
		Kind:      &k,
	}
}
