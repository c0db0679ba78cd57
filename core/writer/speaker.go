package writer

import (
	"sort"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
)

// SpeakerNode is one contiguous output range attributed to a single speaker.
// Ranges are inclusive and together cover the rendered text without gaps or
// overlaps.
type SpeakerNode struct {
	Start   int
	End     int
	Speaker ir.Speaker
}

// segment is a provisional speaker claim over an output range. Segments are
// recorded in tree walk order; when several segments cover the same
// position, the deepest (latest-starting, latest-recorded) one wins.
type segment struct {
	start, end int
	speaker    ir.Speaker
}

type assigner struct {
	tree *ir.Tree
	errs *pmlerrors.Collection

	// index resolves a node's IR range to the last mapping recorded for
	// that exact range.
	index map[[2]int]segment

	def            ir.Speaker
	sawSystem      bool
	sawAnyExplicit bool
	segments       []segment
}

// AssignSpeakers colors the rendered output with speaker ranges derived from
// the IR's speaker attributes. Unlabeled documents default to the human
// turn; see the promotion and relabel rules below.
func AssignSpeakers(tree *ir.Tree, res Result, errs *pmlerrors.Collection) []SpeakerNode {
	if res.Text == "" {
		return nil
	}

	a := &assigner{
		tree:  tree,
		errs:  errs,
		index: make(map[[2]int]segment, len(res.Mappings)),
		def:   ir.SpeakerSystem,
	}
	for _, m := range res.Mappings {
		a.index[[2]int{m.InputStart, m.InputEnd}] = segment{start: m.OutputStart, end: m.OutputEnd}
	}

	a.walk(tree.Root(), nil)
	nodes := a.sweep()

	// A document that never declares a system speaker and colors as one
	// single system segment is an undecorated user turn, not a prompt.
	if len(nodes) == 1 && nodes[0].Speaker == ir.SpeakerSystem && !a.sawSystem {
		nodes[0].Speaker = ir.SpeakerHuman
	}
	return nodes
}

// walk records a provisional segment for every node whose exact IR range has
// a mapping, carrying the innermost explicit speaker down the tree. The
// global default starts as system and is promoted to human the first time an
// explicit human speaker appears.
func (a *assigner) walk(id ir.NodeID, inherited *ir.Speaker) {
	n := a.tree.Node(id)

	explicit := inherited
	if v, ok := a.tree.Attr(id, ir.AttrSpeaker); ok {
		sp := ir.Speaker(v)
		if !sp.IsValid() {
			addNodeError(a.tree, a.errs, id, pmlerrors.NewUnsupported("speaker", v),
				"unknown speaker %q", v)
		} else {
			a.sawAnyExplicit = true
			if sp == ir.SpeakerSystem {
				a.sawSystem = true
			}
			if sp == ir.SpeakerHuman && a.def == ir.SpeakerSystem {
				a.def = ir.SpeakerHuman
			}
			explicit = &sp
			if _, mapped := a.index[[2]int{n.Start, n.End}]; !mapped {
				a.errs.Warn("speaker %q declared on node %d..%d with no mapped output", v, n.Start, n.End)
			}
		}
	}

	speaker := a.def
	if explicit != nil {
		speaker = *explicit
	}
	if m, ok := a.index[[2]int{n.Start, n.End}]; ok {
		a.segments = append(a.segments, segment{start: m.start, end: m.end, speaker: speaker})
	}

	for _, c := range n.Children {
		if c.IsText() {
			continue
		}
		a.walk(c.Node, explicit)
	}
}

// sweep converts overlapping provisional segments into disjoint speaker
// nodes. At every breakpoint the covering segment with the greatest start
// wins; among equals the one recorded last wins.
func (a *assigner) sweep() []SpeakerNode {
	if len(a.segments) == 0 {
		return nil
	}

	bpSet := make(map[int]struct{}, len(a.segments)*2)
	for _, s := range a.segments {
		bpSet[s.start] = struct{}{}
		bpSet[s.end+1] = struct{}{}
	}
	bps := make([]int, 0, len(bpSet))
	for bp := range bpSet {
		bps = append(bps, bp)
	}
	sort.Ints(bps)

	var nodes []SpeakerNode
	for i := 0; i+1 < len(bps); i++ {
		bp, next := bps[i], bps[i+1]
		best := -1
		for j, s := range a.segments {
			if s.start <= bp && bp <= s.end {
				if best == -1 || s.start >= a.segments[best].start {
					best = j
				}
			}
		}
		if best == -1 {
			continue
		}
		sp := a.segments[best].speaker
		if len(nodes) > 0 && nodes[len(nodes)-1].Speaker == sp && nodes[len(nodes)-1].End == bp-1 {
			nodes[len(nodes)-1].End = next - 1
			continue
		}
		nodes = append(nodes, SpeakerNode{Start: bp, End: next - 1, Speaker: sp})
	}
	return nodes
}
