package writer

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/encoding"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
	"github.com/pmlang/pml/core/xmltree"
)

// serializeWriter renders a serialize env as JSON, YAML, or XML. The env's
// contents are first parsed into a language-neutral value (nil, bool, int64,
// float64, string, []interface{}, or *Object), then encoded in the declared
// format.
//
// Like HTML, serialized output has no per-character correspondence to the
// IR, so only the env itself is mapped.
type serializeWriter struct {
	tree   *ir.Tree
	opts   *Options
	errs   *pmlerrors.Collection
	disp   *dispatcher
	format ir.Serializer
}

func (w *serializeWriter) write(id ir.NodeID) Result {
	v, ok := w.classify(id)
	if !ok {
		return Result{}
	}

	var text string
	var err error
	switch w.format {
	case ir.SerializerJSON:
		text, err = w.encodeJSON(v)
	case ir.SerializerYAML:
		text, err = w.encodeYAML(v)
	case ir.SerializerXML:
		text, err = w.encodeXML(v)
	}
	if err != nil {
		w.disp.addErrorf(id, err, "encoding %s value", w.format)
		return Result{}
	}

	n := w.tree.Node(id)
	res := Result{Text: text}
	if len(text) > 0 {
		res.Mappings = append(res.Mappings, mapping.Node{
			InputStart: n.Start, InputEnd: n.End,
			OutputStart: 0, OutputEnd: len(text) - 1,
		})
	}
	return res
}

// value parses one node into a serialized value. The second return is false
// when an error was recorded and the node contributes nothing.
func (w *serializeWriter) value(id ir.NodeID) (interface{}, bool) {
	n := w.tree.Node(id)

	switch n.Tag {
	case ir.TagObject:
		data, ok := w.tree.Attr(id, ir.AttrData)
		if !ok {
			w.disp.addErrorf(id, nil, "<obj> missing data attribute")
			return nil, false
		}
		v, err := decodeOrderedJSON(data)
		if err != nil {
			w.disp.addErrorf(id, err, "invalid <obj> data payload")
			return nil, false
		}
		return v, true

	case ir.TagAny:
		typ, _ := w.tree.Attr(id, ir.AttrType)
		if w.singleTextChild(id) && typ != "array" {
			if typ == "" {
				typ = "string"
			}
			return w.castTyped(id, typ)
		}
		return w.classifyWith(id, typ == "array")

	case ir.TagEnv:
		return w.envValue(id)

	case ir.TagImage, ir.TagAudio:
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("element", string(n.Tag)),
			"<%s> has no serialized form", n.Tag)
		return nil, false

	default:
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("element", string(n.Tag)),
			"<%s> is not valid in a serialize context", n.Tag)
		return nil, false
	}
}

// envValue handles an env nested inside serialized content. The same
// serializer splices its value into the surrounding structure; anything else
// renders through its own writer and lands as an opaque string. Multimedia
// anywhere in the nested output is rejected, not stringified.
func (w *serializeWriter) envValue(id ir.NodeID) (interface{}, bool) {
	pres, _ := w.tree.Attr(id, ir.AttrPresentation)
	if ir.Presentation(pres) == ir.PresentationSerialize {
		if ser, ok := w.tree.Attr(id, ir.AttrSerializer); ok && ir.Serializer(ser) == w.format {
			return w.classify(id)
		}
	}
	if ir.Presentation(pres) == ir.PresentationMultimedia {
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("presentation", pres),
			"multimedia env has no serialized form")
		return nil, false
	}
	r := w.disp.writeEnv(id)
	if len(r.Media) > 0 {
		w.disp.addErrorf(id, pmlerrors.NewUnsupported("content", "multimedia"),
			"nested env carries multimedia, which has no serialized form")
		return nil, false
	}
	return r.Text, true
}

// singleTextChild reports whether the node's children amount to exactly one
// text run and no elements.
func (w *serializeWriter) singleTextChild(id ir.NodeID) bool {
	count := 0
	for _, c := range w.tree.Node(id).Children {
		if !c.IsText() {
			return false
		}
		if c.Text != "" {
			count++
		}
	}
	return count == 1
}

func (w *serializeWriter) classify(id ir.NodeID) (interface{}, bool) {
	return w.classifyWith(id, false)
}

// classifyWith derives a value from a node's children: no children is null,
// all named children form an ordered object, all text forms one joined
// string, a single unnamed element splices its own value through, and any
// other mix forms an array with whitespace runs dropped. forceArray skips
// the object and splice cases for nodes explicitly typed as arrays.
func (w *serializeWriter) classifyWith(id ir.NodeID, forceArray bool) (interface{}, bool) {
	n := w.tree.Node(id)

	type entry struct {
		text string
		node ir.NodeID
	}
	var entries []entry
	for _, c := range n.Children {
		if c.IsText() {
			if c.Text == "" {
				continue
			}
			entries = append(entries, entry{text: c.Text, node: ir.InvalidNode})
			continue
		}
		entries = append(entries, entry{node: c.Node})
	}

	if len(entries) == 0 {
		return nil, true
	}

	allNamed := true
	allText := true
	for _, e := range entries {
		if e.node == ir.InvalidNode {
			if strings.TrimSpace(e.text) != "" {
				allNamed = false
			}
			continue
		}
		allText = false
		if _, ok := w.tree.Attr(e.node, ir.AttrName); !ok {
			allNamed = false
		}
	}

	if allText && !forceArray {
		var parts []string
		for _, e := range entries {
			if s := strings.TrimSpace(e.text); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " "), true
	}

	if !forceArray {
		var elems []ir.NodeID
		solid := false
		for _, e := range entries {
			if e.node == ir.InvalidNode {
				if strings.TrimSpace(e.text) != "" {
					solid = true
				}
				continue
			}
			elems = append(elems, e.node)
		}
		if len(elems) == 1 && !solid {
			if _, named := w.tree.Attr(elems[0], ir.AttrName); !named {
				return w.value(elems[0])
			}
		}
	}

	if allNamed && !forceArray {
		obj := NewObject()
		for _, e := range entries {
			if e.node == ir.InvalidNode {
				continue
			}
			name, _ := w.tree.Attr(e.node, ir.AttrName)
			v, ok := w.value(e.node)
			if !ok {
				continue
			}
			obj.Set(name, v)
		}
		return obj, true
	}

	arr := []interface{}{}
	for _, e := range entries {
		if e.node == ir.InvalidNode {
			if strings.TrimSpace(e.text) == "" {
				continue
			}
			arr = append(arr, e.text)
			continue
		}
		v, ok := w.value(e.node)
		if !ok {
			continue
		}
		arr = append(arr, v)
	}
	return arr, true
}

// castTyped casts a node's single text child to the scalar type its type
// attribute declares.
func (w *serializeWriter) castTyped(id ir.NodeID, typ string) (interface{}, bool) {
	n := w.tree.Node(id)
	var text string
	for _, c := range n.Children {
		if c.IsText() {
			text += c.Text
			continue
		}
		w.disp.addErrorf(c.Node, nil, "typed <any> must contain only text")
		return nil, false
	}

	switch typ {
	case "string":
		return text, true
	case "integer":
		v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			w.disp.addErrorf(id, err, "invalid integer %q", strings.TrimSpace(text))
			return nil, false
		}
		return v, true
	case "float":
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			w.disp.addErrorf(id, err, "invalid float %q", strings.TrimSpace(text))
			return nil, false
		}
		return v, true
	case "boolean":
		switch strings.TrimSpace(text) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		w.disp.addErrorf(id, nil, "invalid boolean %q", strings.TrimSpace(text))
		return nil, false
	case "null":
		return nil, true
	}
	w.disp.addErrorf(id, pmlerrors.NewUnsupported("type", typ), "unknown value type %q", typ)
	return nil, false
}

func (w *serializeWriter) encodeJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", w.opts.JSONIndent)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (w *serializeWriter) encodeYAML(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := w.opts.YAMLIndent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	out := buf.String()
	if !w.opts.YAMLKeepTrailingNewline {
		out = strings.TrimSuffix(out, "\n")
	}
	return out, nil
}

func (w *serializeWriter) encodeXML(v interface{}) (string, error) {
	root := xmltree.NewElement(w.opts.XMLRootTag)
	w.buildXML(root, v)
	return root.Serialize(xmltree.FormatOptions{Indent: w.opts.XMLIndent}), nil
}

// buildXML appends a value's XML form under parent. Object keys become child
// elements with slugified names; array items are wrapped in the configured
// item tag.
func (w *serializeWriter) buildXML(parent *xmltree.Element, v interface{}) {
	switch t := v.(type) {
	case nil:
	case *Object:
		for _, k := range t.Keys() {
			child := xmltree.NewElement(encoding.SlugifyXMLName(k))
			val, _ := t.Get(k)
			w.buildXML(child, val)
			parent.AddChild(child)
		}
	case []interface{}:
		for _, item := range t {
			child := xmltree.NewElement(w.opts.XMLItemTag)
			w.buildXML(child, item)
			parent.AddChild(child)
		}
	case string:
		parent.AddText(t)
	case bool:
		parent.AddText(strconv.FormatBool(t))
	case int64:
		parent.AddText(strconv.FormatInt(t, 10))
	case float64:
		parent.AddText(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		parent.AddText(fmtString(t))
	}
}

func fmtString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
