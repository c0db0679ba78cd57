// Package message assembles writer output into rich content and chat
// messages, and converts those into the interchange formats chat runtimes
// consume.
package message

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/writer"
)

// Media is one multimedia content part.
type Media struct {
	Type   string `json:"type"`
	Base64 string `json:"base64"`
	Alt    string `json:"alt,omitempty"`
}

// Part is one element of rich content: either a text run or a media item,
// never both.
type Part struct {
	Text  string
	Media *Media
}

// RichContent is an ordered sequence of content parts.
type RichContent []Part

// MarshalJSON encodes all-text single-part content as a bare string and
// everything else as an array of strings and media objects. Callers must
// not assume the encoded form is always a list.
func (rc RichContent) MarshalJSON() ([]byte, error) {
	if len(rc) == 1 && rc[0].Media == nil {
		return json.Marshal(rc[0].Text)
	}
	parts := make([]interface{}, len(rc))
	for i, p := range rc {
		if p.Media != nil {
			parts[i] = p.Media
		} else {
			parts[i] = p.Text
		}
	}
	return json.Marshal(parts)
}

// Message is one chat turn.
type Message struct {
	Speaker ir.Speaker  `json:"speaker"`
	Content RichContent `json:"content"`
}

// Assemble turns a writer's linear text and its media occurrences into rich
// content. Placeholder characters are stripped; "here" media splice in
// place, "top" media are hoisted to the front and "bottom" media to the back
// regardless of where in the text their placeholders sat. Adjacent text
// parts coalesce and empty text parts are dropped.
func Assemble(text string, media []writer.Occurrence) RichContent {
	occs := make([]writer.Occurrence, len(media))
	copy(occs, media)
	sort.SliceStable(occs, func(i, j int) bool { return occs[i].Index < occs[j].Index })

	var tops, middle, bottoms RichContent
	cursor := 0
	for _, occ := range occs {
		if occ.Index < cursor || occ.Index >= len(text) {
			continue
		}
		if occ.Index > cursor {
			middle = appendText(middle, text[cursor:occ.Index])
		}
		cursor = occ.Index + len(writer.Placeholder)

		part := Part{Media: &Media{Type: occ.Type, Base64: occ.Base64, Alt: occ.Alt}}
		switch occ.Position {
		case ir.PositionTop:
			tops = append(tops, part)
		case ir.PositionBottom:
			bottoms = append(bottoms, part)
		default:
			middle = append(middle, part)
		}
	}
	if cursor < len(text) {
		middle = appendText(middle, text[cursor:])
	}

	out := make(RichContent, 0, len(tops)+len(middle)+len(bottoms))
	out = append(out, tops...)
	for _, p := range middle {
		if p.Media == nil {
			out = appendText(out, p.Text)
			continue
		}
		out = append(out, p)
	}
	out = append(out, bottoms...)
	return out
}

// appendText adds a text part, coalescing with a trailing text part and
// dropping empty strings.
func appendText(rc RichContent, text string) RichContent {
	if text == "" {
		return rc
	}
	if len(rc) > 0 && rc[len(rc)-1].Media == nil {
		rc[len(rc)-1].Text += text
		return rc
	}
	return append(rc, Part{Text: text})
}

// Split cuts the rendered output into one message per speaker range. Media
// occurrences land in the message whose range contains their placeholder.
func Split(text string, media []writer.Occurrence, speakers []writer.SpeakerNode) []Message {
	msgs := make([]Message, 0, len(speakers))
	for _, sn := range speakers {
		start, end := sn.Start, sn.End
		if start < 0 {
			start = 0
		}
		if end >= len(text) {
			end = len(text) - 1
		}
		if start > end {
			continue
		}
		var scoped []writer.Occurrence
		for _, occ := range media {
			if occ.Index >= start && occ.Index <= end {
				occ.Index -= start
				scoped = append(scoped, occ)
			}
		}
		content := Assemble(text[start:end+1], scoped)
		if len(content) == 0 {
			continue
		}
		msgs = append(msgs, Message{Speaker: sn.Speaker, Content: content})
	}
	return msgs
}

// ToOpenAIChat converts messages to the OpenAI chat completion format. A
// single text part collapses to a plain string content; media parts become
// data-URL image parts.
func ToOpenAIChat(msgs []Message) ([]map[string]interface{}, error) {
	roles := map[ir.Speaker]string{
		ir.SpeakerSystem: "system",
		ir.SpeakerHuman:  "user",
		ir.SpeakerAI:     "assistant",
	}

	out := make([]map[string]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		role, ok := roles[msg.Speaker]
		if !ok {
			return nil, fmt.Errorf("unknown speaker %q", msg.Speaker)
		}
		if len(msg.Content) == 1 && msg.Content[0].Media == nil {
			out = append(out, map[string]interface{}{"role": role, "content": msg.Content[0].Text})
			continue
		}
		parts := make([]map[string]interface{}, 0, len(msg.Content))
		for _, p := range msg.Content {
			if p.Media == nil {
				parts = append(parts, map[string]interface{}{"type": "text", "text": p.Text})
				continue
			}
			parts = append(parts, map[string]interface{}{
				"type": "image_url",
				"image_url": map[string]interface{}{
					"url": fmt.Sprintf("data:%s;base64,%s", p.Media.Type, p.Media.Base64),
				},
			})
		}
		out = append(out, map[string]interface{}{"role": role, "content": parts})
	}
	return out, nil
}

// ToLangChain converts messages to the LangChain serialized message format:
// one {type, data} object per message, with base64 image parts.
func ToLangChain(msgs []Message) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		if len(msg.Content) == 1 && msg.Content[0].Media == nil {
			out = append(out, map[string]interface{}{
				"type": string(msg.Speaker),
				"data": map[string]interface{}{"content": msg.Content[0].Text},
			})
			continue
		}
		parts := make([]map[string]interface{}, 0, len(msg.Content))
		for _, p := range msg.Content {
			if p.Media == nil {
				parts = append(parts, map[string]interface{}{"type": "text", "text": p.Text})
				continue
			}
			parts = append(parts, map[string]interface{}{
				"type":        "image",
				"source_type": "base64",
				"data":        p.Media.Base64,
				"mime_type":   p.Media.Type,
			})
		}
		out = append(out, map[string]interface{}{
			"type": string(msg.Speaker),
			"data": map[string]interface{}{"content": parts},
		})
	}
	return out
}

// FlattenText renders rich content as plain text. Media parts degrade to a
// bracketed description built from their MIME type and alt text.
func FlattenText(rc RichContent) string {
	parts := make([]string, 0, len(rc))
	for _, p := range rc {
		if p.Media == nil {
			parts = append(parts, p.Text)
			continue
		}
		if p.Media.Alt != "" {
			parts = append(parts, fmt.Sprintf("[%s: %s]", p.Media.Type, p.Media.Alt))
		} else {
			parts = append(parts, fmt.Sprintf("[%s]", p.Media.Type))
		}
	}
	return strings.Join(parts, "\n\n")
}
