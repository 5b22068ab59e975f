// Copyright © 2024 The nxt authors

package lsp

import (
	"fmt"
	"slices"

	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/lint"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentCodeAction handles the textDocument/codeAction request.
// It returns quick-fix actions for diagnostics in the requested range.
func (s *Server) textDocumentCodeAction(_ *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	// If the client only wants specific kinds, check we support them.
	if len(params.Context.Only) > 0 && !slices.Contains(params.Context.Only, protocol.CodeActionKindQuickFix) {
		return nil, nil
	}
	snap := s.snapshot(params.TextDocument.URI)
	if snap == nil {
		return nil, nil
	}

	var actions []protocol.CodeAction
	for _, diag := range params.Context.Diagnostics {
		// Only handle diagnostics we published.
		if diag.Source == nil || *diag.Source != lintSource || diag.Code == nil {
			continue
		}
		name, ok := diag.Code.Value.(string)
		if !ok || name == lint.InternalErrorName {
			continue
		}
		switch name {
		case lint.AnalyzerUselessRec.Name:
			actions = append(actions, removeRecAction(snap, diag))
		case lint.AnalyzerUnusedBinding.Name:
			if a, ok := discardAction(snap, diag); ok {
				actions = append(actions, a)
			}
		}
		actions = append(actions, suppressLintAction(snap, diag, name))
	}
	if len(actions) == 0 {
		return nil, nil
	}
	return actions, nil
}

func quickFix(title, uri string, diag protocol.Diagnostic, edits ...protocol.TextEdit) protocol.CodeAction {
	kind := protocol.CodeActionKindQuickFix
	return protocol.CodeAction{
		Title:       title,
		Kind:        &kind,
		Diagnostics: []protocol.Diagnostic{diag},
		Edit: &protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
		},
	}
}

// suppressLintAction adds a `# nolint:name` comment to the end of the
// diagnostic's first line.
func suppressLintAction(snap *snapshot, diag protocol.Diagnostic, analyzer string) protocol.CodeAction {
	line := int(diag.Range.Start.Line) + 1
	lineEnd := protocol.Position{
		Line:      diag.Range.Start.Line,
		Character: uinteger(snap.lines.UTF16Col(snap.lines.Offset(line, 1<<30))),
	}
	return quickFix(fmt.Sprintf("Suppress with # nolint:%s", analyzer), snap.uri, diag, protocol.TextEdit{
		Range:   protocol.Range{Start: lineEnd, End: lineEnd},
		NewText: " # nolint:" + analyzer,
	})
}

// removeRecAction deletes the rec keyword and the blank that follows it.
func removeRecAction(snap *snapshot, diag protocol.Diagnostic) protocol.CodeAction {
	end := positionToOffset(snap.lines, diag.Range.End)
	for end < len(snap.content) && (snap.content[end] == ' ' || snap.content[end] == '\t') {
		end++
	}
	a := quickFix("Remove rec keyword", snap.uri, diag, protocol.TextEdit{
		Range:   protocol.Range{Start: diag.Range.Start, End: offsetToPosition(snap.lines, end)},
		NewText: "",
	})
	a.IsPreferred = boolPtr(true)
	return a
}

// discardAction prefixes an unused parameter with an underscore. Pattern
// fields are skipped since their names are part of the function's
// interface.
func discardAction(snap *snapshot, diag protocol.Diagnostic) (protocol.CodeAction, bool) {
	res := snap.analysis
	if res == nil {
		return protocol.CodeAction{}, false
	}
	id, ok := res.DefinitionAt(positionToOffset(snap.lines, diag.Range.Start))
	if !ok {
		return protocol.CodeAction{}, false
	}
	def := res.Def(id)
	if def.Kind != analysis.DefParam && def.Kind != analysis.DefPatternBind {
		return protocol.CodeAction{}, false
	}
	return quickFix(fmt.Sprintf("Rename to _%s", def.Name), snap.uri, diag, protocol.TextEdit{
		Range:   protocol.Range{Start: diag.Range.Start, End: diag.Range.Start},
		NewText: "_",
	}), true
}
