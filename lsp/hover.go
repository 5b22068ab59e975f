// Copyright © 2024 The nxt authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/luthersystems/nxt/analysis"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentHover handles the textDocument/hover request.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil || snap.analysis == nil {
		return nil, nil
	}
	offset := positionToOffset(snap.lines, params.Position)
	res := snap.analysis

	var content string
	var span *protocol.Range
	if id, ok := res.ReferenceAt(offset); ok {
		ref := res.Ref(id)
		content = hoverReference(snap, ref)
		r := spanToRange(snap.lines, ref.Span)
		span = &r
	} else if id, ok := res.DefinitionAt(offset); ok {
		def := res.Def(id)
		content = hoverDefinition(snap, id, def)
		r := spanToRange(snap.lines, def.Span)
		span = &r
	}
	if content == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
		Range: span,
	}, nil
}

func hoverReference(snap *snapshot, ref *analysis.Reference) string {
	res := snap.analysis
	switch ref.Resolution {
	case analysis.Resolved:
		return hoverDefinition(snap, ref.Def, res.Def(ref.Def))
	case analysis.Dynamic:
		var sb strings.Builder
		fmt.Fprintf(&sb, "**dynamic** `%s`", ref.Name)
		if ref.With.Valid() {
			line := snap.lines.Location(res.Scope(ref.With).Span.Start).Line
			fmt.Fprintf(&sb, "\n\nMay be provided by the `with` on line %d.", line)
		}
		return sb.String()
	default:
		return fmt.Sprintf("**undefined** `%s`", ref.Name)
	}
}

// hoverDefinition builds Markdown hover text for a definition.
func hoverDefinition(snap *snapshot, id analysis.DefID, def *analysis.Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** `%s`", defKindLabel(def.Kind), def.Name)
	if def.IsBuiltin() {
		return sb.String()
	}
	if def.IsDuplicate() {
		id = def.DuplicateOf
		def = snap.analysis.Def(id)
	}
	loc := snap.lines.Location(def.Span.Start)
	fmt.Fprintf(&sb, "\n\n*Defined at line %d, column %d*", loc.Line, loc.Col)
	switch n := len(snap.analysis.ReferencesTo(id)); n {
	case 0:
		sb.WriteString("\n\nNever used.")
	case 1:
		sb.WriteString("\n\n1 reference.")
	default:
		fmt.Fprintf(&sb, "\n\n%d references.", n)
	}
	return sb.String()
}

func defKindLabel(kind analysis.DefKind) string {
	switch kind {
	case analysis.DefBuiltin:
		return "builtin"
	case analysis.DefParam:
		return "parameter"
	case analysis.DefPatternField:
		return "pattern field"
	case analysis.DefPatternBind:
		return "pattern binding"
	case analysis.DefInherit:
		return "inherit"
	case analysis.DefRecAttr:
		return "attribute"
	default:
		return "let"
	}
}
