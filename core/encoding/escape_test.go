package encoding

import "testing"

func TestEscapeXMLText(t *testing.T) {
	got := EscapeXMLText(`a < b & c > d "e"`)
	want := `a &lt; b &amp; c &gt; d "e"`
	if got != want {
		t.Errorf("EscapeXMLText = %q, want %q", got, want)
	}
}

func TestEscapeXMLAttr(t *testing.T) {
	got := EscapeXMLAttr(`say "hi" & <go>`)
	want := `say &quot;hi&quot; &amp; &lt;go&gt;`
	if got != want {
		t.Errorf("EscapeXMLAttr = %q, want %q", got, want)
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<a href="x">&</a>`)
	want := `&lt;a href=&quot;x&quot;&gt;&amp;&lt;/a&gt;`
	if got != want {
		t.Errorf("EscapeHTML = %q, want %q", got, want)
	}
}

func TestSlugifyXMLName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"with space", "withspace"},
		{"1starts-digit", "_1starts-digit"},
		{"_underscore", "_underscore"},
		{"xmlReserved", "_xmlReserved"},
		{"XMLUpper", "_XMLUpper"},
		{"dot.dash-ok", "dot.dash-ok"},
		{"!!!", "_"},
		{"", "_"},
	}
	for _, tt := range tests {
		if got := SlugifyXMLName(tt.in); got != tt.want {
			t.Errorf("SlugifyXMLName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
