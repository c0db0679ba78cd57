package writer

import (
	"strings"

	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
)

// Box is the Markdown writer's unit of composition: rendered text plus its
// two candidate margins. Before and After are runs of layout whitespace
// ("\n\n" for block, "\n" for newline, "" for inline) that only materialize
// when two boxes are joined. Boxes are never mutated after creation;
// concatenation always produces a new box.
type Box struct {
	Text     string
	Before   string
	After    string
	Mappings []mapping.Node
	Media    []Occurrence
}

// Margin constants for the three layout kinds.
const (
	marginBlock   = "\n\n"
	marginNewline = "\n"
	marginInline  = ""
)

// IsZero reports whether the box carries nothing at all. Concatenation with
// a zero box is an identity operation.
func (b Box) IsZero() bool {
	return b.Text == "" && b.Before == "" && b.After == "" &&
		len(b.Mappings) == 0 && len(b.Media) == 0
}

// whitespaceOnly reports whether the box contributes nothing but whitespace.
func (b Box) whitespaceOnly() bool {
	return len(b.Media) == 0 && strings.TrimSpace(b.Text) == ""
}

// transparent reports whether the box consists entirely of multimedia
// placeholders destined to be hoisted out of the linear text (no "here"
// occurrences). Transparent boxes must not prevent margin consolidation
// between the text boxes on either side of them.
func (b Box) transparent() bool {
	if len(b.Media) == 0 || len(b.Text) != len(b.Media) {
		return false
	}
	if strings.Trim(b.Text, Placeholder) != "" {
		return false
	}
	for _, m := range b.Media {
		if m.Position == ir.PositionHere {
			return false
		}
	}
	return true
}

// withMargins returns a copy of the box with the given margins.
func (b Box) withMargins(before, after string) Box {
	b.Before = before
	b.After = after
	return b
}

// consolidateMargins joins two adjoining margins, keeping only one copy of
// the longest suffix of after that is also a prefix of before. Margins of
// different character composition never collapse.
func consolidateMargins(after, before string) string {
	max := len(after)
	if len(before) < max {
		max = len(before)
	}
	for k := max; k > 0; k-- {
		if after[len(after)-k:] == before[:k] {
			return after + before[k:]
		}
	}
	return after + before
}

// Concat joins two boxes, materializing their adjoining margins into the
// text. Concatenating with a zero box returns the other box unchanged.
func Concat(a, b Box) Box {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	glue := consolidateMargins(a.After, b.Before)
	out := Box{
		Text:   a.Text + glue + b.Text,
		Before: a.Before,
		After:  b.After,
	}
	out.Mappings = append(out.Mappings, a.Mappings...)
	out.Mappings = mapping.Extend(out.Mappings, b.Mappings, len(a.Text)+len(glue))
	out.Media = append(out.Media, a.Media...)
	out.Media = appendMediaShifted(out.Media, b.Media, len(a.Text)+len(glue))
	return out
}

// concatAll composes a sequence of boxes into one. Whitespace-only boxes
// adjacent to a block-margin boundary are elided first (re-scanning until a
// fixed point), then boxes are joined left to right with transparent
// placeholder boxes passed through without breaking margin consolidation.
func concatAll(boxes []Box) Box {
	live := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		if !b.IsZero() {
			live = append(live, b)
		}
	}
	live = elideBlankRuns(live)

	var out Box
	var pending []Box
	for _, b := range live {
		if b.transparent() {
			pending = append(pending, b)
			continue
		}
		out = joinWithPending(out, pending, b)
		pending = nil
	}
	for _, p := range pending {
		out = appendTransparent(out, p)
	}
	return out
}

// elideBlankRuns drops whitespace-only boxes that sit against a block
// margin, iterating until no further boxes are eligible.
func elideBlankRuns(boxes []Box) []Box {
	for {
		changed := false
		for i := 0; i < len(boxes); i++ {
			if !boxes[i].whitespaceOnly() {
				continue
			}
			prevBlock := i > 0 && boxes[i-1].After == marginBlock
			nextBlock := i+1 < len(boxes) && boxes[i+1].Before == marginBlock
			if prevBlock || nextBlock {
				boxes = append(boxes[:i], boxes[i+1:]...)
				changed = true
				i--
			}
		}
		if !changed {
			return boxes
		}
	}
}

// joinWithPending concatenates a and b with any buffered transparent boxes
// emitted between them, consolidating a.After with b.Before as if the
// transparent boxes were not there.
func joinWithPending(a Box, pending []Box, b Box) Box {
	if a.IsZero() && len(pending) == 0 {
		return b
	}
	if a.IsZero() {
		// Leading transparent content: no solid text yet, so no margins
		// materialize; b's own margins survive as candidates.
		out := Box{Before: b.Before, After: b.After}
		for _, p := range pending {
			out = appendTransparent(out, p)
		}
		out.Text += b.Text
		offset := len(out.Text) - len(b.Text)
		out.Mappings = mapping.Extend(out.Mappings, b.Mappings, offset)
		out.Media = appendMediaShifted(out.Media, b.Media, offset)
		return out
	}

	glue := consolidateMargins(a.After, b.Before)
	out := Box{Text: a.Text, Before: a.Before, After: b.After}
	out.Mappings = append(out.Mappings, a.Mappings...)
	out.Media = append(out.Media, a.Media...)
	for _, p := range pending {
		out = appendTransparent(out, p)
	}
	offset := len(out.Text) + len(glue)
	out.Text += glue + b.Text
	out.Mappings = mapping.Extend(out.Mappings, b.Mappings, offset)
	out.Media = appendMediaShifted(out.Media, b.Media, offset)
	return out
}

// appendTransparent appends a transparent box's placeholder content at the
// end of out's text without touching out's margins.
func appendTransparent(out Box, p Box) Box {
	offset := len(out.Text)
	out.Text += p.Text
	out.Mappings = mapping.Extend(out.Mappings, p.Mappings, offset)
	out.Media = appendMediaShifted(out.Media, p.Media, offset)
	return out
}

func appendMediaShifted(dst []Occurrence, src []Occurrence, offset int) []Occurrence {
	for _, m := range src {
		m.Index += offset
		dst = append(dst, m)
	}
	return dst
}

// shiftMediaIndented adjusts occurrence indexes for text about to have every
// line prefixed by width columns, mirroring mapping.ShiftIndented.
func shiftMediaIndented(media []Occurrence, text string, width int) []Occurrence {
	if width == 0 {
		return media
	}
	for i := range media {
		pos := media[i].Index
		if pos > len(text) {
			pos = len(text)
		}
		media[i].Index += width * (strings.Count(text[:pos], "\n") + 1)
	}
	return media
}
