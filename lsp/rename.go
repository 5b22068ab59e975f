// Copyright © 2024 The nxt authors

package lsp

import (
	"errors"
	"fmt"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/parser/token"
	"github.com/luthersystems/nxt/syntax"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentPrepareRename validates that the symbol under the cursor
// is renameable and returns its range.
func (s *Server) textDocumentPrepareRename(_ *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}
	offset := positionToOffset(snap.lines, params.Position)
	id, ref, ok := symbolAt(snap.analysis, offset)
	if !ok {
		return nil, nil
	}
	def := snap.analysis.Def(id)
	// prepareRename returns null, not an error, for non-renameable names.
	if renameBlocked(snap.analysis, id) != nil {
		return nil, nil
	}
	span := def.Span
	if ref != nil {
		span = ref.Span
	}
	return &protocol.RangeWithPlaceholder{
		Range:       spanToRange(snap.lines, span),
		Placeholder: def.Name,
	}, nil
}

// textDocumentRename handles the textDocument/rename request.
func (s *Server) textDocumentRename(_ *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, errors.New("document not found")
	}
	offset := positionToOffset(snap.lines, params.Position)
	id, _, ok := symbolAt(snap.analysis, offset)
	if !ok {
		return nil, errors.New("no symbol at position")
	}
	if err := renameBlocked(snap.analysis, id); err != nil {
		return nil, err
	}
	if !isIdentifier(params.NewName) {
		return nil, fmt.Errorf("invalid identifier: %q", params.NewName)
	}

	res := snap.analysis
	def := res.Def(id)
	edits := []protocol.TextEdit{{
		Range:   spanToRange(snap.lines, def.Span),
		NewText: params.NewName,
	}}
	for _, dup := range res.Scope(def.Scope).Order {
		if d := res.Def(dup); d.DuplicateOf == id {
			edits = append(edits, protocol.TextEdit{
				Range:   spanToRange(snap.lines, d.Span),
				NewText: params.NewName,
			})
		}
	}
	for _, ref := range res.ReferencesTo(id) {
		edits = append(edits, protocol.TextEdit{
			Range:   spanToRange(snap.lines, res.Ref(ref).Span),
			NewText: params.NewName,
		})
	}
	return &protocol.WorkspaceEdit{
		Changes: map[protocol.DocumentUri][]protocol.TextEdit{snap.uri: edits},
	}, nil
}

// renameBlocked returns an error when renaming def would change more than
// variable names, such as attribute names visible to other code.
func renameBlocked(res *analysis.Result, id analysis.DefID) error {
	def := res.Def(id)
	switch def.Kind {
	case analysis.DefBuiltin:
		return fmt.Errorf("cannot rename builtin: %s", def.Name)
	case analysis.DefRecAttr:
		return fmt.Errorf("cannot rename attribute: %s", def.Name)
	case analysis.DefInherit:
		return fmt.Errorf("cannot rename inherited binding: %s", def.Name)
	}
	for _, ref := range res.ReferencesTo(id) {
		// Names used by an inherit are attribute names as well.
		if res.Ref(ref).Node.Kind != syntax.KindIdent {
			return fmt.Errorf("cannot rename %s: it is inherited by name", def.Name)
		}
	}
	return nil
}

// isIdentifier reports whether name is a valid Nix identifier.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	if _, ok := token.Keyword(name); ok {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && (c >= '0' && c <= '9' || c == '\'' || c == '-'):
		default:
			return false
		}
	}
	return true
}
