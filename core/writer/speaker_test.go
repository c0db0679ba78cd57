package writer

import (
	"testing"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
)

func assign(t *testing.T, src string) ([]SpeakerNode, Result, *pmlerrors.Collection) {
	t.Helper()
	tree, err := ir.Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	errs := pmlerrors.NewCollection()
	res := Write(tree, nil, errs)
	return AssignSpeakers(tree, res, errs), res, errs
}

func TestDefaultPromotionToHuman(t *testing.T) {
	nodes, res, _ := assign(t, `<p>hello</p>`)
	if len(nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1", len(nodes))
	}
	if nodes[0].Speaker != ir.SpeakerHuman {
		t.Errorf("speaker = %q, want human", nodes[0].Speaker)
	}
	if nodes[0].Start != 0 || nodes[0].End != len(res.Text)-1 {
		t.Errorf("range = %d-%d, want 0-%d", nodes[0].Start, nodes[0].End, len(res.Text)-1)
	}
}

func TestExplicitSystemStaysSystem(t *testing.T) {
	nodes, _, _ := assign(t, `<p speaker="system">You are terse.</p>`)
	if len(nodes) != 1 || nodes[0].Speaker != ir.SpeakerSystem {
		t.Fatalf("nodes = %+v, want one system segment", nodes)
	}
}

func TestTwoSpeakersContiguous(t *testing.T) {
	nodes, res, _ := assign(t,
		mdEnv+`<p speaker="system">Be brief</p><p speaker="human">Hi</p></env>`)
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2: %+v", len(nodes), nodes)
	}
	if nodes[0].Speaker != ir.SpeakerSystem || nodes[1].Speaker != ir.SpeakerHuman {
		t.Errorf("speakers = %q, %q, want system, human", nodes[0].Speaker, nodes[1].Speaker)
	}
	if nodes[0].Start != 0 {
		t.Errorf("first segment starts at %d, want 0", nodes[0].Start)
	}
	if nodes[1].Start != nodes[0].End+1 {
		t.Errorf("gap between segments: %d then %d", nodes[0].End, nodes[1].Start)
	}
	if nodes[1].End != len(res.Text)-1 {
		t.Errorf("last segment ends at %d, want %d", nodes[1].End, len(res.Text)-1)
	}
}

func TestSpeakerInheritance(t *testing.T) {
	nodes, _, _ := assign(t,
		mdEnv+`<p speaker="ai">I think <b>deeply</b></p></env>`)
	if len(nodes) != 1 || nodes[0].Speaker != ir.SpeakerAI {
		t.Fatalf("nodes = %+v, want one ai segment", nodes)
	}
}

func TestDeeperSegmentWins(t *testing.T) {
	nodes, res, _ := assign(t,
		mdEnv+`<p speaker="system">shared <b speaker="ai">inner</b></p></env>`)
	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2: %+v", len(nodes), nodes)
	}
	if nodes[0].Speaker != ir.SpeakerSystem || nodes[1].Speaker != ir.SpeakerAI {
		t.Errorf("speakers = %+v", nodes)
	}
	if nodes[1].End != len(res.Text)-1 {
		t.Errorf("inner segment should reach output end, got %d", nodes[1].End)
	}
}

func TestInvalidSpeakerRecorded(t *testing.T) {
	_, _, errs := assign(t, `<p speaker="narrator">x</p>`)
	if errs.Len() != 1 {
		t.Errorf("Len = %d, want 1", errs.Len())
	}
}

func TestEmptyOutputNoSegments(t *testing.T) {
	tree, err := ir.Parse(`<env presentation="markup" markup-lang="markdown"></env>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	errs := pmlerrors.NewCollection()
	res := Write(tree, nil, errs)
	if nodes := AssignSpeakers(tree, res, errs); nodes != nil {
		t.Errorf("nodes = %+v, want nil", nodes)
	}
}
