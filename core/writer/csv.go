package writer

import (
	"strings"

	"github.com/pmlang/pml/core/mapping"
)

// delimitedDialect lays tables out as CSV or TSV records. Header rows come
// first, then body rows, one record per line with no trailing newline.
//
// Mapping granularity is coarser here than in the pipe dialect: each cell
// maps as a whole onto its emitted (possibly quoted) field, because quoting
// rewrites the cell text and character positions inside it no longer
// correspond to the source.
type delimitedDialect struct {
	sep byte
}

func (d *delimitedDialect) render(header, body []renderedRow) Box {
	var out Box
	emitRow := func(r renderedRow) {
		lineStart := len(out.Text)
		var sb strings.Builder
		for i, c := range r.cells {
			if i > 0 {
				sb.WriteByte(d.sep)
			}
			fieldStart := lineStart + sb.Len()
			field := d.quote(c.text)
			sb.WriteString(field)
			if len(field) > 0 {
				out.Mappings = append(out.Mappings, mapping.Node{
					InputStart: c.start, InputEnd: c.end,
					OutputStart: fieldStart, OutputEnd: fieldStart + len(field) - 1,
				})
			}
		}
		line := sb.String()
		out.Text += line
		if len(line) > 0 {
			out.Mappings = append(out.Mappings, mapping.Node{
				InputStart: r.start, InputEnd: r.end,
				OutputStart: lineStart, OutputEnd: lineStart + len(line) - 1,
			})
		}
		out.Text += "\n"
	}

	for _, r := range header {
		emitRow(r)
	}
	for _, r := range body {
		emitRow(r)
	}
	out.Text = strings.TrimSuffix(out.Text, "\n")
	return out
}

// quote wraps a field in double quotes when it contains the separator, a
// quote, or a line break, doubling any embedded quotes.
func (d *delimitedDialect) quote(field string) string {
	if !strings.ContainsAny(field, string(d.sep)+"\"\n\r") {
		return field
	}
	return "\"" + strings.ReplaceAll(field, "\"", "\"\"") + "\""
}
