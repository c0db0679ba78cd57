package writer

import (
	"strings"
	"testing"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
)

func TestErrorIsolation(t *testing.T) {
	src := mdEnv +
		`<p>one</p><p>two</p>` +
		`<env presentation="serialize" serializer="json"><obj original-start-index="3" original-end-index="9"/></env>` +
		`<p>three</p></env>`
	res, errs := render(t, src)

	if res.Text != "one\n\ntwo\n\nthree" {
		t.Errorf("Text = %q, want %q", res.Text, "one\n\ntwo\n\nthree")
	}
	if errs.Len() != 1 {
		t.Fatalf("Len = %d, want 1: %v", errs.Len(), errs.Errors())
	}

	we := errs.Errors()[0]
	if we.SourceStart != 3 || we.SourceEnd != 9 {
		t.Errorf("source range = %d-%d, want 3-9", we.SourceStart, we.SourceEnd)
	}
	if !strings.Contains(we.Fragment, "<obj") {
		t.Errorf("Fragment = %q, want the obj element", we.Fragment)
	}
}

func TestMappingCoverage(t *testing.T) {
	srcs := []string{
		`<p>hello</p>`,
		mdEnv + `<h level="1">T</h><p>body <b>bold</b></p><list><item>li</item></list></env>`,
		tableIR,
		`<env presentation="serialize" serializer="json"><any type="integer">5</any></env>`,
		`<env presentation="free">raw  text</env>`,
	}
	for _, src := range srcs {
		res := renderClean(t, src)
		if !mapping.Covered(res.Mappings, len(res.Text)) {
			t.Errorf("Render(%q): output not fully covered by mappings", src)
		}
	}
}

func TestMissingPresentation(t *testing.T) {
	_, errs := render(t, `<env><p>x</p></env>`)
	if errs.Len() != 1 {
		t.Fatalf("Len = %d, want 1", errs.Len())
	}
}

func TestUnknownPresentation(t *testing.T) {
	_, errs := render(t, `<env presentation="telepathy"><p>x</p></env>`)
	if errs.Len() != 1 {
		t.Fatalf("Len = %d, want 1", errs.Len())
	}
	if !pmlerrors.Is(errs.First(), pmlerrors.ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", errs.First())
	}
}

func TestUnknownMarkupLang(t *testing.T) {
	_, errs := render(t, `<env presentation="markup" markup-lang="asciidoc"><p>x</p></env>`)
	if errs.Len() != 1 {
		t.Errorf("Len = %d, want 1", errs.Len())
	}
}

func TestUnknownSerializer(t *testing.T) {
	_, errs := render(t, `<env presentation="serialize" serializer="toml"><any>x</any></env>`)
	if errs.Len() != 1 {
		t.Errorf("Len = %d, want 1", errs.Len())
	}
}

func TestFreeWriterVerbatim(t *testing.T) {
	res := renderClean(t, `<env presentation="free">  two  spaces
and a newline </env>`)
	want := "  two  spaces\nand a newline "
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestFreeWriterRejectsElements(t *testing.T) {
	_, errs := render(t, `<env presentation="free"><p>x</p></env>`)
	if errs.Len() != 1 {
		t.Errorf("Len = %d, want 1", errs.Len())
	}
}

func TestFreeWriterNestsEnvs(t *testing.T) {
	res := renderClean(t, `<env presentation="free">data: <env presentation="serialize" serializer="json"><any type="integer">1</any></env></env>`)
	if res.Text != "data: 1" {
		t.Errorf("Text = %q, want %q", res.Text, "data: 1")
	}
}

func TestMultimediaEnv(t *testing.T) {
	res := renderClean(t, `<env presentation="multimedia"><img base64="QUJD" type="image/png"/> <audio base64="REVG"/></env>`)
	if res.Text != Placeholder+Placeholder {
		t.Errorf("Text = %q, want two placeholders", res.Text)
	}
	if len(res.Media) != 2 {
		t.Fatalf("Media = %+v, want 2", res.Media)
	}
	if res.Media[0].Type != "image/png" || res.Media[1].Type != "audio/mpeg" {
		t.Errorf("types = %q, %q", res.Media[0].Type, res.Media[1].Type)
	}
}

func TestMultimediaEnvRejectsText(t *testing.T) {
	_, errs := render(t, `<env presentation="multimedia">words</env>`)
	if errs.Len() != 1 {
		t.Errorf("Len = %d, want 1", errs.Len())
	}
}

func TestTopPositionSurvivesDepth(t *testing.T) {
	res := renderClean(t, mdEnv+
		`<p>before</p><p>deep <img base64="QUJD" position="top"/></p><p>after</p></env>`)
	if len(res.Media) != 1 {
		t.Fatalf("Media = %+v, want 1", res.Media)
	}
	occ := res.Media[0]
	if occ.Position != ir.PositionTop {
		t.Errorf("Position = %q, want top", occ.Position)
	}
	if got := res.Text[occ.Index : occ.Index+1]; got != Placeholder {
		t.Errorf("text at index %d = %q, want placeholder", occ.Index, got)
	}
}

func TestWriteNilOptionsUsesDefaults(t *testing.T) {
	tree, err := ir.Parse(`<h>X</h>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	res := Write(tree, nil, pmlerrors.NewCollection())
	if res.Text != "# X" {
		t.Errorf("Text = %q, want %q", res.Text, "# X")
	}
}
