// Package writer renders IR trees into their declared output formats:
// flowed Markdown, HTML, CSV/TSV, JSON/YAML/XML, raw free-form text, or
// multimedia placeholder streams.
//
// Every writer implements the same contract: given a node it returns the
// rendered text plus two parallel side channels, the input-to-output
// mappings and the multimedia occurrences. Structural failures never abort
// a render; they are appended to the per-render error collection and the
// offending node degrades to empty output, so one bad subtree cannot blank
// out its unrelated siblings.
package writer

import (
	"fmt"

	pmlerrors "github.com/pmlang/pml/core/errors"
	"github.com/pmlang/pml/core/ir"
	"github.com/pmlang/pml/core/mapping"
)

// Placeholder is the single ASCII character a writer emits in place of one
// multimedia occurrence. It is stripped again during rich-content assembly
// and never appears in rendered user text.
const Placeholder = "\x00"

// Occurrence records one multimedia element emitted into a writer's linear
// output. Index is the offset of the placeholder character in the output
// string of the writer that emitted it, and is shifted along with the text
// during concatenation.
type Occurrence struct {
	Type     string // MIME type, e.g. "image/png"
	Base64   string
	Alt      string
	Position ir.Position
	Index    int
}

// Result is the output of one writer call: the rendered text and its two
// side channels.
type Result struct {
	Text     string
	Mappings []mapping.Node
	Media    []Occurrence
}

// Options configures writer behavior. A nil Options is equivalent to
// DefaultOptions().
type Options struct {
	// BaseHeaderLevel is added to declared header levels minus one, so a
	// level-1 header under BaseHeaderLevel 2 renders as "##".
	BaseHeaderLevel int
	// TableCollapse caps Markdown separator dashes at 3 regardless of the
	// measured column width.
	TableCollapse bool

	// JSONIndent is the indentation unit for the JSON writer. Empty means
	// compact output.
	JSONIndent string
	// YAMLIndent is the indentation width for the YAML writer.
	YAMLIndent int
	// YAMLKeepTrailingNewline keeps the encoder's trailing newline instead
	// of trimming it.
	YAMLKeepTrailingNewline bool
	// XMLIndent is the indentation unit for the XML writer. Empty means
	// compact output.
	XMLIndent string
	// XMLRootTag is the element wrapping the whole serialized value.
	XMLRootTag string
	// XMLItemTag is the element wrapping each array item.
	XMLItemTag string
}

// DefaultOptions returns the default writer configuration.
func DefaultOptions() *Options {
	return &Options{
		BaseHeaderLevel: 1,
		JSONIndent:      "  ",
		YAMLIndent:      2,
		XMLIndent:       "  ",
		XMLRootTag:      "document",
		XMLItemTag:      "item",
	}
}

// Write renders the tree's root node. Non-env roots are treated as implicit
// Markdown. Structural errors accumulate in errs; the render always runs to
// completion.
func Write(tree *ir.Tree, opts *Options, errs *pmlerrors.Collection) Result {
	if opts == nil {
		opts = DefaultOptions()
	}
	d := &dispatcher{tree: tree, opts: opts, errs: errs}
	return d.writeAny(tree.Root())
}

// Render parses an IR string and renders it in one step.
func Render(src string, opts *Options) (Result, *pmlerrors.Collection, error) {
	tree, err := ir.Parse(src)
	if err != nil {
		return Result{}, nil, err
	}
	errs := pmlerrors.NewCollection()
	return Write(tree, opts, errs), errs, nil
}

// dispatcher routes env nodes to the writer their presentation mode
// declares. It is the seam through which writers recursively delegate to
// each other for nested environments.
type dispatcher struct {
	tree *ir.Tree
	opts *Options
	errs *pmlerrors.Collection
}

// writeAny renders a node of any tag: env nodes dispatch on their declared
// presentation, everything else renders as Markdown.
func (d *dispatcher) writeAny(id ir.NodeID) Result {
	if d.tree.Node(id).Tag == ir.TagEnv {
		return d.writeEnv(id)
	}
	return d.markdown().write(id)
}

// writeEnv inspects an env node's presentation mode and delegates to the
// matching writer. Unknown or missing combinations produce a write error
// against the node's original-source offsets and render empty.
func (d *dispatcher) writeEnv(id ir.NodeID) Result {
	pres, ok := d.tree.Attr(id, ir.AttrPresentation)
	if !ok {
		d.addErrorf(id, nil, "env node missing presentation attribute")
		return Result{}
	}

	switch ir.Presentation(pres) {
	case ir.PresentationMarkup:
		lang, ok := d.tree.Attr(id, ir.AttrMarkupLang)
		if !ok {
			d.addErrorf(id, nil, "markup env missing markup-lang attribute")
			return Result{}
		}
		switch ir.MarkupLang(lang) {
		case ir.MarkupMarkdown:
			return d.markdown().write(id)
		case ir.MarkupHTML:
			return d.html().write(id)
		case ir.MarkupCSV:
			return d.delimited(',').write(id)
		case ir.MarkupTSV:
			return d.delimited('\t').write(id)
		}
		d.addErrorf(id, pmlerrors.NewUnsupported("markup-lang", lang), "unknown markup language %q", lang)
		return Result{}

	case ir.PresentationSerialize:
		ser, ok := d.tree.Attr(id, ir.AttrSerializer)
		if !ok {
			d.addErrorf(id, nil, "serialize env missing serializer attribute")
			return Result{}
		}
		switch ir.Serializer(ser) {
		case ir.SerializerJSON, ir.SerializerYAML, ir.SerializerXML:
			return d.serializer(ir.Serializer(ser)).write(id)
		}
		d.addErrorf(id, pmlerrors.NewUnsupported("serializer", ser), "unknown serializer %q", ser)
		return Result{}

	case ir.PresentationFree:
		return d.free().write(id)

	case ir.PresentationMultimedia:
		return d.multimedia().write(id)
	}

	d.addErrorf(id, pmlerrors.NewUnsupported("presentation", pres), "unknown presentation mode %q", pres)
	return Result{}
}

func (d *dispatcher) markdown() *markdownWriter {
	return &markdownWriter{tree: d.tree, opts: d.opts, errs: d.errs, disp: d}
}

func (d *dispatcher) delimited(sep byte) *markdownWriter {
	return &markdownWriter{
		tree:       d.tree,
		opts:       d.opts,
		errs:       d.errs,
		disp:       d,
		dialect:    &delimitedDialect{sep: sep},
		restricted: true,
	}
}

func (d *dispatcher) html() *htmlWriter {
	return &htmlWriter{tree: d.tree, opts: d.opts, errs: d.errs, disp: d}
}

func (d *dispatcher) serializer(format ir.Serializer) *serializeWriter {
	return &serializeWriter{tree: d.tree, opts: d.opts, errs: d.errs, disp: d, format: format}
}

func (d *dispatcher) free() *freeWriter {
	return &freeWriter{tree: d.tree, errs: d.errs, disp: d}
}

func (d *dispatcher) multimedia() *multimediaWriter {
	return &multimediaWriter{tree: d.tree, errs: d.errs, disp: d}
}

// addErrorf records a write error against a node, carrying the node's IR
// range, its original-source range when the producer recorded one, and the
// offending IR fragment.
func (d *dispatcher) addErrorf(id ir.NodeID, err error, format string, args ...interface{}) {
	addNodeError(d.tree, d.errs, id, err, format, args...)
}

func addNodeError(tree *ir.Tree, errs *pmlerrors.Collection, id ir.NodeID, err error, format string, args ...interface{}) {
	n := tree.Node(id)
	srcStart, srcEnd, _ := tree.OriginalRange(id)
	errs.Add(&pmlerrors.WriteError{
		Message:     fmt.Sprintf(format, args...),
		IRStart:     n.Start,
		IREnd:       n.End,
		SourceStart: srcStart,
		SourceEnd:   srcEnd,
		Fragment:    tree.Fragment(id),
		Err:         err,
	})
}
