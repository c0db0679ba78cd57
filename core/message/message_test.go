package message

import (
	"encoding/json"
	"testing"

	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/writer"
)

func TestAssembleAllText(t *testing.T) {
	rc := Assemble("just text", nil)
	if len(rc) != 1 || rc[0].Text != "just text" || rc[0].Media != nil {
		t.Fatalf("rc = %+v", rc)
	}
}

func TestAssembleHereSplices(t *testing.T) {
	text := "see " + writer.Placeholder + " there"
	media := []writer.Occurrence{{Type: "image/png", Base64: "QUJD", Position: ir.PositionHere, Index: 4}}

	rc := Assemble(text, media)
	if len(rc) != 3 {
		t.Fatalf("len(rc) = %d, want 3: %+v", len(rc), rc)
	}
	if rc[0].Text != "see " || rc[2].Text != " there" {
		t.Errorf("text parts = %q, %q", rc[0].Text, rc[2].Text)
	}
	if rc[1].Media == nil || rc[1].Media.Type != "image/png" {
		t.Errorf("media part = %+v", rc[1])
	}
}

func TestAssembleTopHoisted(t *testing.T) {
	text := "alpha " + writer.Placeholder + " omega"
	media := []writer.Occurrence{{Type: "image/png", Position: ir.PositionTop, Index: 6}}

	rc := Assemble(text, media)
	if len(rc) != 2 {
		t.Fatalf("len(rc) = %d, want 2: %+v", len(rc), rc)
	}
	if rc[0].Media == nil {
		t.Error("first part should be the hoisted media")
	}
	if rc[1].Text != "alpha  omega" {
		t.Errorf("text = %q, want %q", rc[1].Text, "alpha  omega")
	}
}

func TestAssembleBottomHoisted(t *testing.T) {
	text := writer.Placeholder + "body"
	media := []writer.Occurrence{{Type: "audio/mpeg", Position: ir.PositionBottom, Index: 0}}

	rc := Assemble(text, media)
	if len(rc) != 2 {
		t.Fatalf("len(rc) = %d, want 2: %+v", len(rc), rc)
	}
	if rc[0].Text != "body" || rc[1].Media == nil {
		t.Errorf("rc = %+v", rc)
	}
}

func TestAssembleCoalescesAroundStrippedPlaceholders(t *testing.T) {
	text := "a" + writer.Placeholder + "b"
	media := []writer.Occurrence{{Position: ir.PositionTop, Index: 1}}

	rc := Assemble(text, media)
	if len(rc) != 2 {
		t.Fatalf("len(rc) = %d: %+v", len(rc), rc)
	}
	if rc[1].Text != "ab" {
		t.Errorf("text = %q, want %q", rc[1].Text, "ab")
	}
}

func TestRichContentJSONBareString(t *testing.T) {
	data, err := json.Marshal(RichContent{{Text: "hi"}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"hi"` {
		t.Errorf("JSON = %s, want %q", data, `"hi"`)
	}
}

func TestRichContentJSONMixed(t *testing.T) {
	rc := RichContent{
		{Text: "look"},
		{Media: &Media{Type: "image/png", Base64: "QUJD"}},
	}
	data, err := json.Marshal(rc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `["look",{"type":"image/png","base64":"QUJD"}]`
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}
}

func TestSplitByScope(t *testing.T) {
	text := "Be brief\n\nHi " + writer.Placeholder
	media := []writer.Occurrence{{Type: "image/png", Position: ir.PositionHere, Index: 13}}
	speakers := []writer.SpeakerNode{
		{Start: 0, End: 9, Speaker: ir.SpeakerSystem},
		{Start: 10, End: 13, Speaker: ir.SpeakerHuman},
	}

	msgs := Split(text, media, speakers)
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Speaker != ir.SpeakerSystem || msgs[0].Content[0].Text != "Be brief\n\n" {
		t.Errorf("msg[0] = %+v", msgs[0])
	}
	if msgs[1].Speaker != ir.SpeakerHuman {
		t.Errorf("msg[1].Speaker = %q", msgs[1].Speaker)
	}
	if len(msgs[1].Content) != 2 || msgs[1].Content[1].Media == nil {
		t.Errorf("msg[1].Content = %+v", msgs[1].Content)
	}
}

func TestToOpenAIChat(t *testing.T) {
	msgs := []Message{
		{Speaker: ir.SpeakerSystem, Content: RichContent{{Text: "rules"}}},
		{Speaker: ir.SpeakerHuman, Content: RichContent{
			{Text: "see"},
			{Media: &Media{Type: "image/png", Base64: "QUJD"}},
		}},
		{Speaker: ir.SpeakerAI, Content: RichContent{{Text: "ok"}}},
	}

	chat, err := ToOpenAIChat(msgs)
	if err != nil {
		t.Fatalf("ToOpenAIChat failed: %v", err)
	}
	if chat[0]["role"] != "system" || chat[0]["content"] != "rules" {
		t.Errorf("chat[0] = %+v", chat[0])
	}
	if chat[1]["role"] != "user" {
		t.Errorf("chat[1].role = %v", chat[1]["role"])
	}
	parts := chat[1]["content"].([]map[string]interface{})
	if parts[0]["type"] != "text" || parts[1]["type"] != "image_url" {
		t.Errorf("parts = %+v", parts)
	}
	url := parts[1]["image_url"].(map[string]interface{})["url"].(string)
	if url != "data:image/png;base64,QUJD" {
		t.Errorf("url = %q", url)
	}
	if chat[2]["role"] != "assistant" {
		t.Errorf("chat[2].role = %v", chat[2]["role"])
	}
}

func TestToOpenAIChatUnknownSpeaker(t *testing.T) {
	_, err := ToOpenAIChat([]Message{{Speaker: "narrator", Content: RichContent{{Text: "x"}}}})
	if err == nil {
		t.Error("expected error for unknown speaker")
	}
}

func TestToLangChain(t *testing.T) {
	msgs := []Message{
		{Speaker: ir.SpeakerHuman, Content: RichContent{{Text: "hello"}}},
		{Speaker: ir.SpeakerAI, Content: RichContent{
			{Text: "see"},
			{Media: &Media{Type: "image/png", Base64: "QUJD"}},
		}},
	}

	lc := ToLangChain(msgs)
	if lc[0]["type"] != "human" {
		t.Errorf("lc[0].type = %v", lc[0]["type"])
	}
	if data := lc[0]["data"].(map[string]interface{}); data["content"] != "hello" {
		t.Errorf("lc[0].data = %+v", data)
	}
	parts := lc[1]["data"].(map[string]interface{})["content"].([]map[string]interface{})
	if parts[1]["source_type"] != "base64" || parts[1]["mime_type"] != "image/png" {
		t.Errorf("parts = %+v", parts)
	}
}

func TestFlattenText(t *testing.T) {
	rc := RichContent{
		{Text: "intro"},
		{Media: &Media{Type: "image/png", Alt: "a chart"}},
		{Media: &Media{Type: "audio/mpeg"}},
	}
	got := FlattenText(rc)
	want := "intro\n\n[image/png: a chart]\n\n[audio/mpeg]"
	if got != want {
		t.Errorf("FlattenText = %q, want %q", got, want)
	}
}
