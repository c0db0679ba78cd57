package writer

import (
	"strings"

	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
)

// renderedCell is one table cell after its children have been rendered but
// before the table is laid out.
type renderedCell struct {
	text     string
	mappings []mapping.Node
	media    []Occurrence
	start    int // IR range of the tcell element
	end      int
}

// renderedRow is one table row ready for layout.
type renderedRow struct {
	cells []renderedCell
	start int
	end   int
}

// tableBox collects a table's rows and hands them to the active dialect.
// Header rows come from thead; tbody rows and rows placed directly under the
// table are body rows. When no header is declared the first body row is
// promoted, since every supported table syntax requires one.
func (w *markdownWriter) tableBox(id ir.NodeID) Box {
	var header, body []renderedRow

	n := w.tree.Node(id)
	for _, c := range n.Children {
		if c.IsText() {
			if strings.TrimSpace(c.Text) != "" {
				w.disp.addErrorf(id, nil, "stray text inside <table>")
			}
			continue
		}
		child := w.tree.Node(c.Node)
		switch child.Tag {
		case ir.TagTableHead:
			header = append(header, w.collectRows(c.Node)...)
		case ir.TagTableBody:
			body = append(body, w.collectRows(c.Node)...)
		case ir.TagTableRow:
			body = append(body, w.rowOf(c.Node))
		default:
			w.disp.addErrorf(c.Node, nil, "<%s> inside <table>, expected <thead>, <tbody> or <trow>", child.Tag)
		}
	}

	if len(header) == 0 && len(body) > 0 {
		header = body[:1]
		body = body[1:]
	}
	if len(header) == 0 {
		return Box{}
	}

	dialect := w.dialect
	if dialect == nil {
		collapse := w.opts.TableCollapse
		if v, ok := w.tree.BoolAttr(id, ir.AttrCollapse); ok {
			collapse = v
		}
		dialect = &pipeDialect{collapse: collapse}
	}
	return dialect.render(header, body).withMargins(marginBlock, marginBlock)
}

// collectRows gathers the trow children of a thead or tbody section.
func (w *markdownWriter) collectRows(id ir.NodeID) []renderedRow {
	var rows []renderedRow
	for _, c := range w.tree.Node(id).Children {
		if c.IsText() {
			continue
		}
		if w.tree.Node(c.Node).Tag != ir.TagTableRow {
			w.disp.addErrorf(c.Node, nil, "<%s> inside <%s>, expected <trow>",
				w.tree.Node(c.Node).Tag, w.tree.Node(id).Tag)
			continue
		}
		rows = append(rows, w.rowOf(c.Node))
	}
	return rows
}

// rowOf renders the tcell children of a trow.
func (w *markdownWriter) rowOf(id ir.NodeID) renderedRow {
	n := w.tree.Node(id)
	row := renderedRow{start: n.Start, end: n.End}
	for _, c := range n.Children {
		if c.IsText() {
			continue
		}
		child := w.tree.Node(c.Node)
		if child.Tag != ir.TagTableCell {
			w.disp.addErrorf(c.Node, nil, "<%s> inside <trow>, expected <tcell>", child.Tag)
			continue
		}
		inner := concatAll(w.childBoxes(c.Node))
		row.cells = append(row.cells, renderedCell{
			text:     inner.Text,
			mappings: inner.Mappings,
			media:    inner.Media,
			start:    child.Start,
			end:      child.End,
		})
	}
	return row
}

// pipeDialect lays tables out in pipe-delimited Markdown: header rows, a
// dash separator sized to the measured column widths, then body rows.
type pipeDialect struct {
	// collapse caps separator dashes at 3 so wide columns do not inflate
	// the rendered text.
	collapse bool
}

func (p *pipeDialect) render(header, body []renderedRow) Box {
	cols := 0
	for _, r := range append(append([]renderedRow{}, header...), body...) {
		if len(r.cells) > cols {
			cols = len(r.cells)
		}
	}
	if cols == 0 {
		return Box{}
	}

	widths := make([]int, cols)
	for i := range widths {
		widths[i] = 1
	}
	for _, r := range append(append([]renderedRow{}, header...), body...) {
		for i, c := range r.cells {
			if len(c.text) > widths[i] {
				widths[i] = len(c.text)
			}
		}
	}

	var out Box
	emitRow := func(r renderedRow) {
		lineStart := len(out.Text)
		var sb strings.Builder
		for i := 0; i < cols; i++ {
			text := ""
			if i < len(r.cells) {
				text = r.cells[i].text
			}
			sb.WriteString("| ")
			cellStart := lineStart + sb.Len()
			sb.WriteString(text)
			sb.WriteString(strings.Repeat(" ", widths[i]-len(text)))
			sb.WriteString(" ")

			if i < len(r.cells) {
				c := r.cells[i]
				out.Mappings = mapping.Extend(out.Mappings, c.mappings, cellStart)
				out.Media = appendMediaShifted(out.Media, c.media, cellStart)
				if len(c.text) > 0 {
					out.Mappings = append(out.Mappings, mapping.Node{
						InputStart: c.start, InputEnd: c.end,
						OutputStart: cellStart, OutputEnd: cellStart + len(c.text) - 1,
					})
				}
			}
		}
		sb.WriteString("|")
		line := sb.String()
		out.Text += line
		out.Mappings = append(out.Mappings, mapping.Node{
			InputStart: r.start, InputEnd: r.end,
			OutputStart: lineStart, OutputEnd: lineStart + len(line) - 1,
		})
		out.Text += "\n"
	}

	for _, r := range header {
		emitRow(r)
	}

	var sep strings.Builder
	for _, wd := range widths {
		if p.collapse && wd > 3 {
			wd = 3
		}
		sep.WriteString("| ")
		sep.WriteString(strings.Repeat("-", wd))
		sep.WriteString(" ")
	}
	sep.WriteString("|")
	out.Text += sep.String() + "\n"

	for _, r := range body {
		emitRow(r)
	}

	out.Text = strings.TrimSuffix(out.Text, "\n")
	return out
}
