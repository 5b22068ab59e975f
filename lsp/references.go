// Copyright © 2024 The nxt authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentReferences handles the textDocument/references request.
func (s *Server) textDocumentReferences(_ *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	offset := positionToOffset(snap.lines, params.Position)
	id, _, ok := symbolAt(snap.analysis, offset)
	if !ok {
		return nil, nil
	}
	res := snap.analysis
	def := res.Def(id)

	var locs []protocol.Location
	if params.Context.IncludeDeclaration && !def.IsBuiltin() {
		locs = append(locs, location(snap.uri, snap.lines, def.Span))
	}
	for _, ref := range res.ReferencesTo(id) {
		locs = append(locs, location(snap.uri, snap.lines, res.Ref(ref).Span))
	}
	return locs, nil
}

// textDocumentDocumentHighlight handles the textDocument/documentHighlight
// request. The binding site is a write; every use is a read.
func (s *Server) textDocumentDocumentHighlight(_ *glsp.Context, params *protocol.DocumentHighlightParams) ([]protocol.DocumentHighlight, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	offset := positionToOffset(snap.lines, params.Position)
	id, _, ok := symbolAt(snap.analysis, offset)
	if !ok {
		return nil, nil
	}
	res := snap.analysis
	def := res.Def(id)

	var highlights []protocol.DocumentHighlight
	if !def.IsBuiltin() {
		write := protocol.DocumentHighlightKindWrite
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: spanToRange(snap.lines, def.Span),
			Kind:  &write,
		})
	}
	for _, ref := range res.ReferencesTo(id) {
		read := protocol.DocumentHighlightKindRead
		highlights = append(highlights, protocol.DocumentHighlight{
			Range: spanToRange(snap.lines, res.Ref(ref).Span),
			Kind:  &read,
		})
	}
	return highlights, nil
}
