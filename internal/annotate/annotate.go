package annotate

import (
	"sort"

	"github.com/civitas-ai/civitas/models"
)

// Segment is one renderable run of document text. A segment with a SpanID is
// a highlighted legal element; otherwise it is a plain text run. Concatenating
// the Text of all segments in order reproduces the document text exactly.
type Segment struct {
	Text    string          `json:"text"`
	SpanID  string          `json:"span_id,omitempty"`
	Kind    models.SpanKind `json:"kind,omitempty"`
	Tooltip string          `json:"tooltip,omitempty"`
}

// Highlighted reports whether the segment carries an annotation.
func (s Segment) Highlighted() bool { return s.SpanID != "" }

// Render splits rawText into interleaved plain and highlighted segments.
//
// Spans are sorted by start (stable, ties keep list order). Out-of-range
// offsets are clamped instead of rejected so bad annotation data degrades to
// a cosmetically wrong render rather than a broken page. Degenerate spans
// (start == end after clamping) are skipped. Overlaps resolve first-start-wins:
// a span starting before the cursor left by an earlier span is dropped.
// Render never fails and never loses text.
func Render(rawText string, spans []models.Span) []Segment {
	if len(spans) == 0 {
		return []Segment{{Text: rawText}}
	}

	sorted := make([]models.Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	n := len(rawText)
	var segs []Segment
	cursor := 0
	for _, sp := range sorted {
		start := clamp(sp.Start, 0, n)
		end := clamp(sp.End, 0, n)
		if end <= start {
			continue
		}
		if start < cursor {
			// overlap with an already-emitted span: first start wins
			continue
		}
		if start > cursor {
			segs = append(segs, Segment{Text: rawText[cursor:start]})
		}
		segs = append(segs, Segment{
			Text:    rawText[start:end],
			SpanID:  sp.ID,
			Kind:    sp.Kind,
			Tooltip: sp.Tooltip,
		})
		cursor = end
	}
	if cursor < n {
		segs = append(segs, Segment{Text: rawText[cursor:]})
	}
	if len(segs) == 0 {
		// every span was degenerate or clamped away
		segs = append(segs, Segment{Text: rawText})
	}
	return segs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
