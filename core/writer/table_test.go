package writer

import "testing"

const tableIR = `<table><thead><trow><tcell>a</tcell><tcell>bb</tcell></trow></thead>` +
	`<tbody><trow><tcell>x</tcell><tcell>yyyy</tcell></trow></tbody></table>`

func TestTableColumnSizing(t *testing.T) {
	res := renderClean(t, tableIR)
	want := "| a | bb   |\n| - | ---- |\n| x | yyyy |"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestTableCollapse(t *testing.T) {
	opts := DefaultOptions()
	opts.TableCollapse = true
	res, errs, err := Render(tableIR, opts)
	if err != nil || errs.Len() > 0 {
		t.Fatalf("Render failed: %v %v", err, errs)
	}
	want := "| a | bb   |\n| - | --- |\n| x | yyyy |"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestTableCollapseAttr(t *testing.T) {
	src := `<table collapse="true"><thead><trow><tcell>wide header</tcell></trow></thead></table>`
	res := renderClean(t, src)
	want := "| wide header |\n| --- |"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestTableHeaderPadding(t *testing.T) {
	// Header has fewer cells than the widest body row; it is padded out.
	src := `<table><thead><trow><tcell>a</tcell></trow></thead>` +
		`<tbody><trow><tcell>x</tcell><tcell>y</tcell></trow></tbody></table>`
	res := renderClean(t, src)
	want := "| a |   |\n| - | - |\n| x | y |"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestTableWithoutHeadPromotesFirstRow(t *testing.T) {
	src := `<table><trow><tcell>h</tcell></trow><trow><tcell>v</tcell></trow></table>`
	res := renderClean(t, src)
	want := "| h |\n| - |\n| v |"
	if res.Text != want {
		t.Errorf("Text = %q, want %q", res.Text, want)
	}
}

func TestTableCellOutsideTable(t *testing.T) {
	_, errs := render(t, mdEnv+`<tcell>stray</tcell></env>`)
	if errs.Len() != 1 {
		t.Errorf("Len = %d, want 1", errs.Len())
	}
}

func TestTableMappings(t *testing.T) {
	res := renderClean(t, tableIR)
	// Every character of the rendered table must be covered by the table
	// node's own mapping; cell contents must map to their landing offsets.
	covered := false
	for _, m := range res.Mappings {
		if m.OutputStart == 0 && m.OutputEnd == len(res.Text)-1 {
			covered = true
		}
	}
	if !covered {
		t.Error("no mapping spans the whole table")
	}
}
