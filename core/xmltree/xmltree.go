// Package xmltree provides pure Go XML document construction, serialization,
// parsing, and XPath queries. The XML and HTML writers build their output
// through this package; the CLI uses the query side for IR inspection.
//
// Parsing uses the xmlquery library, which wraps Go's encoding/xml and
// inherits its security properties (external entities are never fetched).
package xmltree

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/pmlang/pml/core/encoding"
)

// Element wraps an element node of a document under construction or a parsed
// document.
type Element struct {
	node *xmlquery.Node
}

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// FormatOptions controls serialization behavior.
type FormatOptions struct {
	// Indent is the per-level indentation string. Empty means compact
	// output with no inserted whitespace.
	Indent string
}

// NewElement creates a detached element with the given name.
func NewElement(name string) *Element {
	return &Element{node: &xmlquery.Node{
		Type: xmlquery.ElementNode,
		Data: name,
	}}
}

// SetAttr sets an attribute on the element.
func (e *Element) SetAttr(key, value string) {
	xmlquery.AddAttr(e.node, key, value)
}

// AddChild appends a child element.
func (e *Element) AddChild(child *Element) {
	xmlquery.AddChild(e.node, child.node)
}

// AddText appends a text node child. The text is stored raw and escaped at
// serialization time.
func (e *Element) AddText(text string) {
	xmlquery.AddChild(e.node, &xmlquery.Node{
		Type: xmlquery.TextNode,
		Data: text,
	})
}

// Name returns the element name.
func (e *Element) Name() string {
	if e == nil || e.node == nil {
		return ""
	}
	return e.node.Data
}

// Attr returns the value of a specific attribute.
func (e *Element) Attr(name string) string {
	if e == nil || e.node == nil {
		return ""
	}
	return e.node.SelectAttr(name)
}

// InnerText returns all text content of the element and its descendants.
func (e *Element) InnerText() string {
	if e == nil || e.node == nil {
		return ""
	}
	return e.node.InnerText()
}

// Children returns the child elements, in document order.
func (e *Element) Children() []*Element {
	if e == nil || e.node == nil {
		return nil
	}
	var children []*Element
	for child := e.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Element{node: child})
		}
	}
	return children
}

// Serialize renders the element subtree as XML text.
func (e *Element) Serialize(opts FormatOptions) string {
	var buf bytes.Buffer
	serializeNode(&buf, e.node, 0, opts.Indent)
	if opts.Indent != "" {
		return strings.TrimRight(buf.String(), "\n")
	}
	return buf.String()
}

// serializeNode recursively serializes an element node. With a non-empty
// indent, element children each land on their own line; text-only elements
// stay on one line so no whitespace is injected into text content.
func serializeNode(w *bytes.Buffer, n *xmlquery.Node, depth int, indent string) {
	switch n.Type {
	case xmlquery.ElementNode:
		writeIndent(w, depth, indent)
		w.WriteString("<")
		w.WriteString(n.Data)
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attr.Name.Local)
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}

		if n.FirstChild == nil {
			w.WriteString("/>")
			if indent != "" {
				w.WriteString("\n")
			}
			return
		}

		hasElementChildren := false
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == xmlquery.ElementNode {
				hasElementChildren = true
				break
			}
		}

		w.WriteString(">")
		if hasElementChildren && indent != "" {
			w.WriteString("\n")
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			switch child.Type {
			case xmlquery.ElementNode:
				childIndent := indent
				if !hasElementChildren {
					childIndent = ""
				}
				serializeNode(w, child, depth+1, childIndent)
			case xmlquery.TextNode:
				if hasElementChildren && indent != "" {
					if strings.TrimSpace(child.Data) == "" {
						continue
					}
					writeIndent(w, depth+1, indent)
					w.WriteString(encoding.EscapeXMLText(child.Data))
					w.WriteString("\n")
				} else {
					w.WriteString(encoding.EscapeXMLText(child.Data))
				}
			case xmlquery.CharDataNode:
				w.WriteString("<![CDATA[")
				w.WriteString(child.Data)
				w.WriteString("]]>")
			}
		}
		if hasElementChildren && indent != "" {
			writeIndent(w, depth, indent)
		}
		w.WriteString("</")
		w.WriteString(n.Data)
		w.WriteString(">")
		if indent != "" {
			w.WriteString("\n")
		}

	case xmlquery.TextNode:
		w.WriteString(encoding.EscapeXMLText(n.Data))
	}
}

func writeIndent(w *bytes.Buffer, depth int, indent string) {
	if indent == "" {
		return
	}
	for i := 0; i < depth; i++ {
		w.WriteString(indent)
	}
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the root element of the document, or nil if there is none.
func (d *Document) Root() *Element {
	if d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Element{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query against the document and returns matching
// elements. The expression is compiled first so syntax errors are reported
// distinctly from evaluation failures.
func (d *Document) XPath(expr string) ([]*Element, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	result := make([]*Element, len(nodes))
	for i, n := range nodes {
		result[i] = &Element{node: n}
	}
	return result, nil
}
