package ir

import (
	"encoding/xml"
	"io"
	"strings"

	pmlerrors "github.com/pmlang/pml/core/errors"
)

// Parse parses an IR string (the XML-like serialization emitted by the
// markup front end) into an arena-indexed Tree.
//
// Byte offsets of every element and text run are recorded against src, which
// is what makes input-to-output mappings possible downstream. The offsets
// come from the decoder's input position, so the parse is done with
// encoding/xml directly rather than a higher-level XML library: none of the
// query-oriented libraries expose token offsets.
//
// Entity expansion is disabled beyond the predefined XML entities; the IR
// producer never emits DTDs.
func Parse(src string) (*Tree, error) {
	dec := xml.NewDecoder(strings.NewReader(src))
	dec.Entity = map[string]string{}

	tree := &Tree{Source: src}
	var stack []NodeID
	rootSeen := false

	for {
		start := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pmlerrors.NewParse("IR", start, err.Error())
		}
		end := int(dec.InputOffset()) - 1

		switch tok := tok.(type) {
		case xml.StartElement:
			tag := Tag(tok.Name.Local)
			if !tag.IsValid() {
				return nil, pmlerrors.Wrapf(pmlerrors.ErrUnknownTag,
					"parsing IR at offset %d: <%s>", start, tok.Name.Local)
			}
			if len(stack) == 0 {
				if rootSeen {
					return nil, pmlerrors.NewParse("IR", start, "multiple root elements")
				}
				rootSeen = true
			}
			id := NodeID(len(tree.Nodes))
			node := Node{Tag: tag, Start: start}
			if len(tok.Attr) > 0 {
				node.Attrs = make(map[string]string, len(tok.Attr))
				for _, a := range tok.Attr {
					node.Attrs[a.Name.Local] = a.Value
				}
			}
			tree.Nodes = append(tree.Nodes, node)
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				tree.Nodes[parent].Children = append(tree.Nodes[parent].Children, Content{
					Node:  id,
					Start: start,
				})
			}
			stack = append(stack, id)

		case xml.EndElement:
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			tree.Nodes[id].End = end
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				children := tree.Nodes[parent].Children
				for i := len(children) - 1; i >= 0; i-- {
					if children[i].Node == id {
						children[i].End = end
						break
					}
				}
			}

		case xml.CharData:
			text := string(tok)
			if len(stack) == 0 {
				if strings.TrimSpace(text) != "" {
					return nil, pmlerrors.NewParse("IR", start, "text outside root element")
				}
				continue
			}
			parent := stack[len(stack)-1]
			tree.Nodes[parent].Children = append(tree.Nodes[parent].Children, Content{
				Node:  InvalidNode,
				Text:  text,
				Start: start,
				End:   end,
			})

		case xml.Comment, xml.ProcInst, xml.Directive:
			// Not part of the IR contract; skipped.
		}
	}

	if len(stack) != 0 {
		return nil, pmlerrors.NewParse("IR", len(src), "unexpected end of input inside element")
	}
	if !rootSeen {
		return nil, pmlerrors.NewParse("IR", 0, "no root element")
	}
	return tree, nil
}
