package writer

import (
	"fmt"
	"strings"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/encoding"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
	"github.com/pmlang/pml/core/xmltree"
)

// htmlWriter renders a markup env as HTML. Elements are built through the
// xmltree document model and serialized compactly, so escaping is uniform
// and never hand-assembled.
//
// Mappings are coarse for HTML: escaping rewrites text content, so character
// positions inside the output no longer correspond to IR positions and only
// the env itself is mapped.
type htmlWriter struct {
	tree *ir.Tree
	opts *Options
	errs *pmlerrors.Collection
	disp *dispatcher
}

func (w *htmlWriter) write(id ir.NodeID) Result {
	n := w.tree.Node(id)
	var sb strings.Builder
	for _, c := range n.Children {
		if c.IsText() {
			sb.WriteString(encoding.EscapeHTML(c.Text))
			continue
		}
		child := w.tree.Node(c.Node)
		switch child.Tag {
		case ir.TagEnv:
			sb.WriteString(encoding.EscapeHTML(w.nestedEnv(c.Node)))
		case ir.TagNewline:
			count, ok := w.tree.IntAttr(c.Node, ir.AttrCount)
			if !ok {
				count = 1
			}
			sb.WriteString(strings.Repeat("<br/>", count))
		default:
			el := w.element(c.Node, false)
			if el != nil {
				sb.WriteString(el.Serialize(xmltree.FormatOptions{}))
			}
		}
	}

	res := Result{Text: sb.String()}
	if len(res.Text) > 0 {
		res.Mappings = append(res.Mappings, mapping.Node{
			InputStart: n.Start, InputEnd: n.End,
			OutputStart: 0, OutputEnd: len(res.Text) - 1,
		})
	}
	return res
}

// nestedEnv renders an env nested inside HTML content. Its output lands as
// escaped text; multimedia has no textual form and is rejected, however
// deeply the carrying element is nested.
func (w *htmlWriter) nestedEnv(id ir.NodeID) string {
	if pres, ok := w.tree.Attr(id, ir.AttrPresentation); ok &&
		ir.Presentation(pres) == ir.PresentationMultimedia {
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("presentation", pres),
			"multimedia env has no HTML form")
		return ""
	}
	r := w.disp.writeEnv(id)
	if len(r.Media) > 0 {
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("content", "multimedia"),
			"nested env carries multimedia, which has no HTML form")
		return ""
	}
	return r.Text
}

// element builds the HTML element for one IR node, or returns nil after
// recording an error for tags with no HTML form. inHead switches table
// cells from td to th.
func (w *htmlWriter) element(id ir.NodeID, inHead bool) *xmltree.Element {
	n := w.tree.Node(id)

	var el *xmltree.Element
	switch n.Tag {
	case ir.TagParagraph:
		el = xmltree.NewElement("p")
	case ir.TagSpan:
		el = xmltree.NewElement("span")
	case ir.TagBold:
		el = xmltree.NewElement("b")
	case ir.TagItalic:
		el = xmltree.NewElement("i")
	case ir.TagStrikethrough:
		el = xmltree.NewElement("s")
	case ir.TagUnderline:
		el = xmltree.NewElement("u")

	case ir.TagHeader:
		level, ok := w.tree.IntAttr(id, ir.AttrLevel)
		if !ok {
			level = 1
		}
		depth := level + w.opts.BaseHeaderLevel - 1
		if depth < 1 {
			depth = 1
		}
		if depth > 6 {
			depth = 6
		}
		el = xmltree.NewElement(fmt.Sprintf("h%d", depth))

	case ir.TagCode:
		inline := true
		if v, ok := w.tree.BoolAttr(id, ir.AttrInline); ok {
			inline = v
		}
		if inline {
			el = xmltree.NewElement("code")
		} else {
			pre := xmltree.NewElement("pre")
			code := xmltree.NewElement("code")
			pre.AddChild(code)
			w.fillChildren(code, id, inHead)
			return pre
		}

	case ir.TagList:
		style, ok := w.tree.Attr(id, ir.AttrListStyle)
		if !ok {
			style = "dash"
		}
		switch style {
		case "decimal":
			el = xmltree.NewElement("ol")
		case "latin":
			el = xmltree.NewElement("ol")
			el.SetAttr("type", "a")
		case "star", "dash", "plus":
			el = xmltree.NewElement("ul")
		default:
			w.disp.addErrorf(id, pmlerrors.NewUnsupported("list-style", style),
				"unknown list-style %q", style)
			return nil
		}
	case ir.TagItem:
		el = xmltree.NewElement("li")

	case ir.TagTable:
		el = xmltree.NewElement("table")
	case ir.TagTableHead:
		el = xmltree.NewElement("thead")
		w.fillChildren(el, id, true)
		return el
	case ir.TagTableBody:
		el = xmltree.NewElement("tbody")
	case ir.TagTableRow:
		el = xmltree.NewElement("tr")
	case ir.TagTableCell:
		if inHead {
			el = xmltree.NewElement("th")
		} else {
			el = xmltree.NewElement("td")
		}

	case ir.TagImage, ir.TagAudio:
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("element", string(n.Tag)),
			"<%s> has no HTML form", n.Tag)
		return nil
	case ir.TagAny, ir.TagObject:
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("element", string(n.Tag)),
			"<%s> is only valid in a serialize context", n.Tag)
		return nil

	default:
		w.disp.addErrorf(id, pmlerrors.ErrUnknownTag, "unimplemented element <%s>", n.Tag)
		return nil
	}

	w.fillChildren(el, id, inHead)
	return el
}

func (w *htmlWriter) fillChildren(el *xmltree.Element, id ir.NodeID, inHead bool) {
	for _, c := range w.tree.Node(id).Children {
		if c.IsText() {
			if c.Text != "" {
				el.AddText(c.Text)
			}
			continue
		}
		child := w.tree.Node(c.Node)
		switch child.Tag {
		case ir.TagEnv:
			if text := w.nestedEnv(c.Node); text != "" {
				el.AddText(text)
			}
		case ir.TagNewline:
			count, ok := w.tree.IntAttr(c.Node, ir.AttrCount)
			if !ok {
				count = 1
			}
			for i := 0; i < count; i++ {
				el.AddChild(xmltree.NewElement("br"))
			}
		default:
			if sub := w.element(c.Node, inHead); sub != nil {
				el.AddChild(sub)
			}
		}
	}
}
