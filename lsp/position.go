// Copyright © 2024 The nxt authors

package lsp

import (
	"strings"

	"fortio.org/safecast"
	"github.com/luthersystems/nxt/analysis"
	"github.com/luthersystems/nxt/parser/token"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// uinteger converts a non-negative int to protocol.UInteger, clamping
// values that do not fit.
func uinteger(n int) protocol.UInteger {
	v, err := safecast.Conv[protocol.UInteger](n)
	if err != nil {
		if n < 0 {
			return 0
		}
		return protocol.UInteger(^uint32(0))
	}
	return v
}

// offsetToPosition converts a byte offset to a 0-based LSP position with a
// UTF-16 character offset.
func offsetToPosition(lines *token.LineIndex, offset int) protocol.Position {
	loc := lines.Location(offset)
	return protocol.Position{
		Line:      uinteger(loc.Line - 1),
		Character: uinteger(lines.UTF16Col(offset)),
	}
}

// spanToRange converts a byte span to an LSP range.
func spanToRange(lines *token.LineIndex, span token.Span) protocol.Range {
	return protocol.Range{
		Start: offsetToPosition(lines, span.Start),
		End:   offsetToPosition(lines, span.End),
	}
}

// positionToOffset converts a 0-based LSP position to a byte offset.
func positionToOffset(lines *token.LineIndex, pos protocol.Position) int {
	return lines.Offset(int(pos.Line)+1, int(pos.Character))
}

// location returns the LSP location of span in the document uri.
func location(uri string, lines *token.LineIndex, span token.Span) protocol.Location {
	return protocol.Location{URI: uri, Range: spanToRange(lines, span)}
}

// symbolAt finds the definition named at offset. When the cursor is on a
// reference, the reference is returned too. ok is false when nothing
// resolvable sits under the cursor.
func symbolAt(res *analysis.Result, offset int) (def analysis.DefID, ref *analysis.Reference, ok bool) {
	if res == nil {
		return def, nil, false
	}
	if id, found := res.ReferenceAt(offset); found {
		r := res.Ref(id)
		if r.Resolution != analysis.Resolved {
			return def, r, false
		}
		return r.Def, r, true
	}
	if id, found := res.DefinitionAt(offset); found {
		d := res.Def(id)
		if d.IsDuplicate() {
			return d.DuplicateOf, nil, true
		}
		return id, nil, true
	}
	return def, nil, false
}

// scopeAt returns the innermost scope whose span contains offset.
func scopeAt(res *analysis.Result, offset int) analysis.ScopeID {
	best := res.File
	if !best.Valid() {
		return res.Prelude
	}
	for {
		next, ok := childScopeAt(res, best, offset)
		if !ok {
			return best
		}
		best = next
	}
}

func childScopeAt(res *analysis.Result, parent analysis.ScopeID, offset int) (analysis.ScopeID, bool) {
	for _, child := range res.Scope(parent).Children {
		span := res.Scope(child).Span
		if span.Start <= offset && offset <= span.End {
			return child, true
		}
	}
	return analysis.ScopeID{}, false
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
