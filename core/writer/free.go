package writer

import (
	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
)

// freeWriter emits text runs byte for byte. No margins, no escaping, no
// layout: what the IR carries is what comes out, which is what prompt
// sections with significant whitespace need.
type freeWriter struct {
	tree *ir.Tree
	errs *pmlerrors.Collection
	disp *dispatcher
}

func (w *freeWriter) write(id ir.NodeID) Result {
	n := w.tree.Node(id)
	var res Result
	for _, c := range n.Children {
		if c.IsText() {
			if c.Text == "" {
				continue
			}
			start := len(res.Text)
			res.Text += c.Text
			res.Mappings = append(res.Mappings, mapping.Node{
				InputStart: c.Start, InputEnd: c.End,
				OutputStart: start, OutputEnd: start + len(c.Text) - 1,
			})
			continue
		}
		child := w.tree.Node(c.Node)
		if child.Tag != ir.TagEnv {
			w.disp.addErrorf(c.Node, pmlerrors.NewUnsupported("element", string(child.Tag)),
				"<%s> is not valid in free-form content", child.Tag)
			continue
		}
		r := w.disp.writeEnv(c.Node)
		offset := len(res.Text)
		res.Text += r.Text
		res.Mappings = mapping.Extend(res.Mappings, r.Mappings, offset)
		res.Media = appendMediaShifted(res.Media, r.Media, offset)
	}

	if len(res.Text) > 0 {
		res.Mappings = append(res.Mappings, mapping.Node{
			InputStart: n.Start, InputEnd: n.End,
			OutputStart: 0, OutputEnd: len(res.Text) - 1,
		})
	}
	return res
}
