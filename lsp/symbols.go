// Copyright © 2024 The nxt authors

package lsp

import (
	"cmp"
	"slices"

	"github.com/luthersystems/nxt/analysis"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil || snap.analysis == nil {
		return nil, nil
	}

	var defs []*analysis.Definition
	for _, def := range snap.analysis.Definitions() {
		if def.IsDuplicate() {
			continue
		}
		switch def.Kind {
		case analysis.DefLet, analysis.DefInherit, analysis.DefRecAttr:
			defs = append(defs, def)
		}
	}
	slices.SortFunc(defs, func(a, b *analysis.Definition) int {
		return cmp.Compare(a.Span.Start, b.Span.Start)
	})

	symbols := make([]protocol.DocumentSymbol, 0, len(defs))
	for _, def := range defs {
		r := spanToRange(snap.lines, def.Span)
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           def.Name,
			Detail:         strPtr(defKindLabel(def.Kind)),
			Kind:           mapSymbolKind(def.Kind),
			Range:          r,
			SelectionRange: r,
		})
	}
	return symbols, nil
}

// mapSymbolKind converts an analysis.DefKind to an LSP SymbolKind.
func mapSymbolKind(kind analysis.DefKind) protocol.SymbolKind {
	switch kind {
	case analysis.DefRecAttr:
		return protocol.SymbolKindField
	case analysis.DefInherit:
		return protocol.SymbolKindProperty
	case analysis.DefBuiltin:
		return protocol.SymbolKindFunction
	default:
		return protocol.SymbolKindVariable
	}
}
