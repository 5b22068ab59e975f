// Copyright © 2024 The nxt authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	offset := positionToOffset(snap.lines, params.Position)
	id, _, ok := symbolAt(snap.analysis, offset)
	if !ok {
		return nil, nil
	}
	def := snap.analysis.Def(id)
	// Builtins have no navigable source.
	if def.IsBuiltin() {
		return nil, nil
	}
	return location(snap.uri, snap.lines, def.Span), nil
}
