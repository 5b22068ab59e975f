// Copyright © 2024 The nxt authors

package lint

import (
	"io"

	"github.com/luthersystems/nxt/diagnostic"
)

// Annotated converts d for the annotated source renderer. Related locations
// become secondary spans labeled with their message.
func (d Diagnostic) Annotated() diagnostic.Diagnostic {
	out := diagnostic.Diagnostic{
		Severity: annotatedSeverity(d.Severity),
		Code:     d.Analyzer,
		Message:  d.Message,
	}
	if d.Pos.Line > 0 {
		out.Spans = append(out.Spans, annotatedSpan(d.Pos, d.End, ""))
	}
	for _, rel := range d.Related {
		if rel.Pos.Line > 0 {
			out.Spans = append(out.Spans, annotatedSpan(rel.Pos, Position{}, rel.Message))
		}
	}
	out.Notes = append(out.Notes, d.Notes...)
	if d.Analyzer != InternalErrorName {
		out.Notes = append(out.Notes, "to suppress: add \"# nolint:"+d.Analyzer+"\" as a comment on this line")
	}
	return out
}

func annotatedSpan(pos, end Position, label string) diagnostic.Span {
	span := diagnostic.Span{
		File:  pos.File,
		Line:  pos.Line,
		Col:   pos.Col,
		Label: label,
	}
	if end.Line == pos.Line && end.Col > pos.Col {
		span.EndCol = end.Col
	}
	return span
}

func annotatedSeverity(sev Severity) diagnostic.Severity {
	switch sev {
	case SeverityError:
		return diagnostic.SeverityError
	case SeverityInfo:
		return diagnostic.SeverityInfo
	default:
		return diagnostic.SeverityWarning
	}
}

// Render writes diags to w as annotated source snippets.
func Render(w io.Writer, r *diagnostic.Renderer, diags []Diagnostic) error {
	annotated := make([]diagnostic.Diagnostic, len(diags))
	for i, d := range diags {
		annotated[i] = d.Annotated()
	}
	return r.RenderAll(w, annotated)
}
