package writer

import (
	"fmt"
	"strings"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
)

// markdownWriter renders IR subtrees as flowed Markdown using box-model
// composition. The CSV and TSV writers reuse the same recursive walk with a
// table dialect plugged in and every non-table tag rejected, so future
// markup languages inherit the walker instead of reimplementing it.
type markdownWriter struct {
	tree *ir.Tree
	opts *Options
	errs *pmlerrors.Collection
	disp *dispatcher

	// dialect overrides table layout; nil means GitHub-flavored pipes.
	dialect tableDialect
	// restricted rejects every tag that is not part of a table.
	restricted bool
}

// tableDialect lays out a collected table in a concrete delimited syntax.
type tableDialect interface {
	render(header, body []renderedRow) Box
}

// write renders a node as the top of a Markdown (or delimited) document.
// The entry node's outer margins never materialize.
func (w *markdownWriter) write(id ir.NodeID) Result {
	var b Box
	if w.tree.Node(id).Tag == ir.TagEnv {
		b = concatAll(w.envBoxes(id))
		if len(b.Text) > 0 {
			n := w.tree.Node(id)
			b.Mappings = append(b.Mappings, mapping.Node{
				InputStart: n.Start, InputEnd: n.End,
				OutputStart: 0, OutputEnd: len(b.Text) - 1,
			})
		}
	} else {
		b = w.box(id)
	}
	return Result{Text: b.Text, Mappings: b.Mappings, Media: b.Media}
}

// box renders one element to a Box. Every non-empty box gains one mapping
// node spanning the element's full input range to its full output range, in
// addition to the mappings contributed by its children; mappings nest and
// are never merged across levels.
func (w *markdownWriter) box(id ir.NodeID) Box {
	n := w.tree.Node(id)

	if w.restricted {
		switch n.Tag {
		case ir.TagTable, ir.TagTableHead, ir.TagTableBody, ir.TagTableRow, ir.TagTableCell:
		default:
			w.disp.addErrorf(id, pmlerrors.NewUnsupported("element", string(n.Tag)),
				"element <%s> not implemented for delimited markup", n.Tag)
			return Box{}
		}
	}

	var b Box
	switch n.Tag {
	case ir.TagParagraph:
		b = w.paragraphBox(id)

	case ir.TagSpan:
		b = concatAll(w.childBoxes(id))

	case ir.TagBold:
		b = w.wrapInline(id, "**", "**")
	case ir.TagItalic:
		b = w.wrapInline(id, "*", "*")
	case ir.TagStrikethrough:
		b = w.wrapInline(id, "~~", "~~")
	case ir.TagUnderline:
		b = w.wrapInline(id, "__", "__")

	case ir.TagCode:
		b = w.codeBox(id)

	case ir.TagHeader:
		b = w.headerBox(id)

	case ir.TagNewline:
		count, ok := w.tree.IntAttr(id, ir.AttrCount)
		if !ok {
			count = 1
		}
		b = Box{Text: strings.Repeat("\n", count)}

	case ir.TagList:
		b = w.listBox(id)

	case ir.TagTable:
		b = w.tableBox(id)

	case ir.TagItem:
		w.disp.addErrorf(id, nil, "<item> outside <list>")
		return Box{}
	case ir.TagTableHead, ir.TagTableBody, ir.TagTableRow, ir.TagTableCell:
		w.disp.addErrorf(id, nil, "<%s> outside <table>", n.Tag)
		return Box{}

	case ir.TagEnv:
		r := w.disp.writeEnv(id)
		// The nested writer already recorded the env's own mapping.
		return Box{
			Text: r.Text, Before: marginBlock, After: marginBlock,
			Mappings: r.Mappings, Media: r.Media,
		}

	case ir.TagImage, ir.TagAudio:
		b = w.mediaBox(id)

	case ir.TagAny, ir.TagObject:
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("element", string(n.Tag)),
			"<%s> is only valid in a serialize context", n.Tag)
		return Box{}

	default:
		w.disp.addErrorf(id, pmlerrors.ErrUnknownTag, "unimplemented element <%s>", n.Tag)
		return Box{}
	}

	if len(b.Text) > 0 {
		b.Mappings = append(b.Mappings, mapping.Node{
			InputStart: n.Start, InputEnd: n.End,
			OutputStart: 0, OutputEnd: len(b.Text) - 1,
		})
	}
	return b
}

// envBoxes renders an env's direct children. Delimited markup has no place
// for prose outside a table, so in restricted mode solid text runs at env
// level are rejected instead of leaking into the output.
func (w *markdownWriter) envBoxes(id ir.NodeID) []Box {
	if !w.restricted {
		return w.childBoxes(id)
	}
	n := w.tree.Node(id)
	boxes := make([]Box, 0, len(n.Children))
	for _, c := range n.Children {
		if c.IsText() {
			if strings.TrimSpace(c.Text) != "" {
				w.disp.addErrorf(id, nil, "stray text in delimited markup")
			}
			continue
		}
		boxes = append(boxes, w.box(c.Node))
	}
	return boxes
}

// childBoxes renders each ordered child (text run or element) to its own box.
// Text runs map one-to-one back to their IR range.
func (w *markdownWriter) childBoxes(id ir.NodeID) []Box {
	n := w.tree.Node(id)
	boxes := make([]Box, 0, len(n.Children))
	for _, c := range n.Children {
		if c.IsText() {
			if c.Text == "" {
				continue
			}
			boxes = append(boxes, Box{
				Text: c.Text,
				Mappings: []mapping.Node{{
					InputStart: c.Start, InputEnd: c.End,
					OutputStart: 0, OutputEnd: len(c.Text) - 1,
				}},
			})
			continue
		}
		boxes = append(boxes, w.box(c.Node))
	}
	return boxes
}

// paragraphBox renders a paragraph. Paragraphs are block boxes unless
// blank-line="false" degrades them to single line breaks, the form list
// items and captioned examples want.
func (w *markdownWriter) paragraphBox(id ir.NodeID) Box {
	b := concatAll(w.childBoxes(id))
	if v, ok := w.tree.BoolAttr(id, ir.AttrBlankLine); ok && !v {
		return b.withMargins(marginNewline, marginNewline)
	}
	return b.withMargins(marginBlock, marginBlock)
}

// wrapInline surrounds the concatenated children with a Markdown inline
// delimiter pair. An empty body renders nothing at all, and a body that is
// only hoisted placeholders passes through unwrapped so no bare delimiter
// pair survives once the placeholders are stripped.
func (w *markdownWriter) wrapInline(id ir.NodeID, open, close string) Box {
	inner := concatAll(w.childBoxes(id))
	if inner.Text == "" && len(inner.Media) == 0 {
		return Box{}
	}
	if inner.transparent() {
		return inner
	}
	b := Box{Text: open + inner.Text + close}
	b.Mappings = mapping.Shift(inner.Mappings, len(open))
	b.Media = appendMediaShifted(nil, inner.Media, len(open))
	return b
}

// codeBox renders inline code spans or fenced code blocks depending on the
// inline attribute (default true).
func (w *markdownWriter) codeBox(id ir.NodeID) Box {
	inline := true
	if v, ok := w.tree.BoolAttr(id, ir.AttrInline); ok {
		inline = v
	}
	if inline {
		return w.wrapInline(id, "`", "`")
	}
	inner := concatAll(w.childBoxes(id))
	open := "```\n"
	b := Box{
		Text:   open + inner.Text + "\n```",
		Before: marginBlock,
		After:  marginBlock,
	}
	b.Mappings = mapping.Shift(inner.Mappings, len(open))
	b.Media = appendMediaShifted(nil, inner.Media, len(open))
	return b
}

// headerBox renders a header at its declared level plus the configured base
// offset minus one, expressed by repetition of '#'.
func (w *markdownWriter) headerBox(id ir.NodeID) Box {
	level, ok := w.tree.IntAttr(id, ir.AttrLevel)
	if !ok {
		level = 1
	}
	depth := level + w.opts.BaseHeaderLevel - 1
	if depth < 1 {
		depth = 1
	}
	inner := concatAll(w.childBoxes(id))
	prefix := strings.Repeat("#", depth) + " "
	b := Box{
		Text:   prefix + inner.Text,
		Before: marginBlock,
		After:  marginBlock,
	}
	b.Mappings = mapping.Shift(inner.Mappings, len(prefix))
	b.Media = appendMediaShifted(nil, inner.Media, len(prefix))
	return b
}

// listBox renders a list. Markers are chosen per list-style; indices restart
// for every list and increment only for element children, so stray text runs
// between items do not renumber anything. Each item's continuation lines are
// indented to align under its marker.
func (w *markdownWriter) listBox(id ir.NodeID) Box {
	style, ok := w.tree.Attr(id, ir.AttrListStyle)
	if !ok {
		style = "dash"
	}
	switch style {
	case "decimal", "latin", "star", "dash", "plus":
	default:
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("list-style", style),
			"unknown list-style %q", style)
		return Box{}
	}

	n := w.tree.Node(id)
	var boxes []Box
	index := 0
	for _, c := range n.Children {
		if c.IsText() {
			if c.Text == "" {
				continue
			}
			boxes = append(boxes, Box{
				Text: c.Text,
				Mappings: []mapping.Node{{
					InputStart: c.Start, InputEnd: c.End,
					OutputStart: 0, OutputEnd: len(c.Text) - 1,
				}},
			})
			continue
		}
		index++
		if w.tree.Node(c.Node).Tag != ir.TagItem {
			w.disp.addErrorf(c.Node, nil, "<%s> inside <list>, expected <item>", w.tree.Node(c.Node).Tag)
			continue
		}
		boxes = append(boxes, w.itemBox(c.Node, listMarker(style, index)))
	}

	return concatAll(boxes).withMargins(marginBlock, marginBlock)
}

// itemBox renders one list item: the marker on the first line, every
// continuation line indented by the marker's literal width.
func (w *markdownWriter) itemBox(id ir.NodeID, marker string) Box {
	inner := concatAll(w.childBoxes(id))
	width := len(marker)

	lines := strings.Split(inner.Text, "\n")
	indent := strings.Repeat(" ", width)
	for i, line := range lines {
		if i == 0 {
			lines[i] = marker + line
		} else {
			lines[i] = indent + line
		}
	}

	b := Box{
		Text:     strings.Join(lines, "\n"),
		Before:   marginNewline,
		After:    marginNewline,
		Mappings: mapping.ShiftIndented(inner.Mappings, inner.Text, width),
		Media:    shiftMediaIndented(inner.Media, inner.Text, width),
	}

	n := w.tree.Node(id)
	if len(b.Text) > 0 {
		b.Mappings = append(b.Mappings, mapping.Node{
			InputStart: n.Start, InputEnd: n.End,
			OutputStart: 0, OutputEnd: len(b.Text) - 1,
		})
	}
	return b
}

// listMarker returns the literal marker text for a list style, including its
// trailing space. Ordered markers derive from the one-based item index.
func listMarker(style string, index int) string {
	switch style {
	case "decimal":
		return fmt.Sprintf("%d. ", index)
	case "latin":
		return latinNumeral(index) + ". "
	case "star":
		return "* "
	case "plus":
		return "+ "
	default:
		return "- "
	}
}

// latinNumeral converts a one-based index to a, b, ..., z, aa, ab, ...
func latinNumeral(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// mediaBox renders an img or audio element. A base64 payload emits exactly
// one placeholder character and records an occurrence; alt-only media emits
// the alt text literally with no occurrence.
func (w *markdownWriter) mediaBox(id ir.NodeID) Box {
	occ, alt, ok := mediaOccurrence(w.tree, w.errs, id)
	if !ok {
		return Box{}
	}
	if occ != nil {
		return Box{Text: Placeholder, Media: []Occurrence{*occ}}
	}
	return Box{Text: alt}
}

// mediaOccurrence resolves an img/audio node to either an occurrence (base64
// payload present), a literal alt text, or a recorded error. The returned
// occurrence has Index 0, relative to its own placeholder.
func mediaOccurrence(tree *ir.Tree, errs *pmlerrors.Collection, id ir.NodeID) (*Occurrence, string, bool) {
	n := tree.Node(id)

	pos := ir.PositionHere
	if v, ok := tree.Attr(id, ir.AttrPosition); ok {
		pos = ir.Position(v)
		if !pos.IsValid() {
			addNodeError(tree, errs, id, pmlerrors.NewUnsupported("position", v),
				"unknown position %q", v)
			return nil, "", false
		}
	}

	mime, ok := tree.Attr(id, ir.AttrType)
	if !ok {
		if n.Tag == ir.TagAudio {
			mime = "audio/mpeg"
		} else {
			mime = "image/png"
		}
	}

	alt, hasAlt := tree.Attr(id, ir.AttrAlt)
	if b64, hasB64 := tree.Attr(id, ir.AttrBase64); hasB64 {
		return &Occurrence{
			Type:     mime,
			Base64:   b64,
			Alt:      alt,
			Position: pos,
			Index:    0,
		}, "", true
	}
	if hasAlt {
		return nil, alt, true
	}
	addNodeError(tree, errs, id, nil, "<%s> carries neither base64 nor alt", n.Tag)
	return nil, "", false
}
