package writer

import (
	"strings"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
)

// multimediaWriter renders an env whose only purpose is carrying media.
// Each img or audio child emits one placeholder character; text between
// them must be whitespace.
type multimediaWriter struct {
	tree *ir.Tree
	errs *pmlerrors.Collection
	disp *dispatcher
}

func (w *multimediaWriter) write(id ir.NodeID) Result {
	n := w.tree.Node(id)
	var res Result
	for _, c := range n.Children {
		if c.IsText() {
			if strings.TrimSpace(c.Text) != "" {
				w.disp.addErrorf(id, nil, "text content is not valid in a multimedia env")
			}
			continue
		}
		child := w.tree.Node(c.Node)
		if child.Tag != ir.TagImage && child.Tag != ir.TagAudio {
			w.disp.addErrorf(c.Node, pmlerrors.NewUnsupported("element", string(child.Tag)),
				"<%s> is not valid in a multimedia env", child.Tag)
			continue
		}
		occ, alt, ok := mediaOccurrence(w.tree, w.errs, c.Node)
		if !ok {
			continue
		}
		if occ == nil {
			res.Text += alt
			continue
		}
		occ.Index = len(res.Text)
		res.Text += Placeholder
		res.Media = append(res.Media, *occ)
	}
	if len(res.Text) > 0 {
		res.Mappings = append(res.Mappings, mapping.Node{
			InputStart: n.Start, InputEnd: n.End,
			OutputStart: 0, OutputEnd: len(res.Text) - 1,
		})
	}
	return res
}
