package ir

import "strconv"

// types.go - Consolidated IR schema type definitions
// This file contains the core IR (Intermediate Representation) types consumed
// by every format writer. Writers should import these types from core/ir
// rather than defining their own.

// Tag identifies an IR element. The vocabulary is closed: a tag outside this
// set is a hard parse error, never silently skipped.
type Tag string

// Tag constants.
const (
	TagParagraph     Tag = "p"
	TagSpan          Tag = "span"
	TagHeader        Tag = "h"
	TagBold          Tag = "b"
	TagItalic        Tag = "i"
	TagStrikethrough Tag = "s"
	TagUnderline     Tag = "u"
	TagCode          Tag = "code"
	TagNewline       Tag = "nl"
	TagList          Tag = "list"
	TagItem          Tag = "item"
	TagTable         Tag = "table"
	TagTableHead     Tag = "thead"
	TagTableBody     Tag = "tbody"
	TagTableRow      Tag = "trow"
	TagTableCell     Tag = "tcell"
	TagEnv           Tag = "env"
	TagImage         Tag = "img"
	TagAudio         Tag = "audio"
	TagAny           Tag = "any"
	TagObject        Tag = "obj"
)

// validTags is the set of valid tags.
var validTags = map[Tag]bool{
	TagParagraph:     true,
	TagSpan:          true,
	TagHeader:        true,
	TagBold:          true,
	TagItalic:        true,
	TagStrikethrough: true,
	TagUnderline:     true,
	TagCode:          true,
	TagNewline:       true,
	TagList:          true,
	TagItem:          true,
	TagTable:         true,
	TagTableHead:     true,
	TagTableBody:     true,
	TagTableRow:      true,
	TagTableCell:     true,
	TagEnv:           true,
	TagImage:         true,
	TagAudio:         true,
	TagAny:           true,
	TagObject:        true,
}

// IsValid returns true if the tag is part of the IR vocabulary.
func (t Tag) IsValid() bool {
	return validTags[t]
}

// Attribute names with writer-visible semantics. Producers may attach
// additional attributes; writers ignore keys they do not recognize, but
// reject unknown values for the keys below.
const (
	AttrSpeaker       = "speaker"
	AttrOriginalStart = "original-start-index"
	AttrOriginalEnd   = "original-end-index"
	AttrPresentation  = "presentation"
	AttrMarkupLang    = "markup-lang"
	AttrSerializer    = "serializer"
	AttrPosition      = "position"
	AttrType          = "type"
	AttrBase64        = "base64"
	AttrAlt           = "alt"
	AttrName          = "name"
	AttrData          = "data"
	AttrBlankLine     = "blank-line"
	AttrListStyle     = "list-style"
	AttrLevel         = "level"
	AttrInline        = "inline"
	AttrCount         = "count"
	AttrCollapse      = "collapse"
)

// Presentation is the declared presentation mode of an env node.
type Presentation string

// Presentation constants.
const (
	PresentationMarkup     Presentation = "markup"
	PresentationSerialize  Presentation = "serialize"
	PresentationFree       Presentation = "free"
	PresentationMultimedia Presentation = "multimedia"
)

// validPresentations is the set of valid presentation modes.
var validPresentations = map[Presentation]bool{
	PresentationMarkup:     true,
	PresentationSerialize:  true,
	PresentationFree:       true,
	PresentationMultimedia: true,
}

// IsValid returns true if the presentation mode is valid.
func (p Presentation) IsValid() bool {
	return validPresentations[p]
}

// MarkupLang selects a markup writer for presentation="markup".
type MarkupLang string

// MarkupLang constants.
const (
	MarkupMarkdown MarkupLang = "markdown"
	MarkupHTML     MarkupLang = "html"
	MarkupCSV      MarkupLang = "csv"
	MarkupTSV      MarkupLang = "tsv"
)

// validMarkupLangs is the set of valid markup languages.
var validMarkupLangs = map[MarkupLang]bool{
	MarkupMarkdown: true,
	MarkupHTML:     true,
	MarkupCSV:      true,
	MarkupTSV:      true,
}

// IsValid returns true if the markup language is valid.
func (m MarkupLang) IsValid() bool {
	return validMarkupLangs[m]
}

// Serializer selects a serialize writer for presentation="serialize".
type Serializer string

// Serializer constants.
const (
	SerializerJSON Serializer = "json"
	SerializerYAML Serializer = "yaml"
	SerializerXML  Serializer = "xml"
)

// validSerializers is the set of valid serializers.
var validSerializers = map[Serializer]bool{
	SerializerJSON: true,
	SerializerYAML: true,
	SerializerXML:  true,
}

// IsValid returns true if the serializer is valid.
func (s Serializer) IsValid() bool {
	return validSerializers[s]
}

// Speaker is a chat role attached to a subtree via the speaker attribute.
type Speaker string

// Speaker constants.
const (
	SpeakerSystem Speaker = "system"
	SpeakerHuman  Speaker = "human"
	SpeakerAI     Speaker = "ai"
)

// validSpeakers is the set of valid speakers.
var validSpeakers = map[Speaker]bool{
	SpeakerSystem: true,
	SpeakerHuman:  true,
	SpeakerAI:     true,
}

// IsValid returns true if the speaker is valid.
func (s Speaker) IsValid() bool {
	return validSpeakers[s]
}

// Position declares where a multimedia element lands in the final
// rich-content sequence.
type Position string

// Position constants.
const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionHere   Position = "here"
)

// validPositions is the set of valid positions.
var validPositions = map[Position]bool{
	PositionTop:    true,
	PositionBottom: true,
	PositionHere:   true,
}

// IsValid returns true if the position is valid.
func (p Position) IsValid() bool {
	return validPositions[p]
}

// NodeID indexes a node within its Tree's arena. The root is always 0.
type NodeID int

// InvalidNode marks a Content entry that is a raw text run, not an element.
const InvalidNode NodeID = -1

// Node is one element of the IR tree. Start and End are inclusive byte
// offsets of the element (including its tags) in the owning Tree's Source.
type Node struct {
	Tag      Tag
	Attrs    map[string]string
	Start    int
	End      int
	Children []Content
}

// Content is one ordered child of a node: either a raw text run or a child
// element. Start and End are inclusive byte offsets in the Tree's Source.
type Content struct {
	Node  NodeID // InvalidNode for text runs
	Text  string // decoded text, only for text runs
	Start int
	End   int
}

// IsText returns true if this child is a raw text run.
func (c Content) IsText() bool {
	return c.Node == InvalidNode
}

// Tree is an arena-indexed IR tree plus the IR source string it was parsed
// from. Nodes reference each other by index, never by pointer, so a Tree can
// be shared read-only across concurrent render calls.
type Tree struct {
	Source string
	Nodes  []Node
}

// Root returns the root node's ID.
func (t *Tree) Root() NodeID {
	return 0
}

// Node returns the node for an ID. The ID must be valid.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Attr returns the named attribute of a node, and whether it was present.
func (t *Tree) Attr(id NodeID, key string) (string, bool) {
	v, ok := t.Nodes[id].Attrs[key]
	return v, ok
}

// Fragment returns the slice of the IR source covered by a node.
func (t *Tree) Fragment(id NodeID) string {
	n := &t.Nodes[id]
	if n.Start < 0 || n.End >= len(t.Source) || n.End < n.Start {
		return ""
	}
	return t.Source[n.Start : n.End+1]
}

// OriginalRange returns the node's offsets into the original user-authored
// source, if the producer recorded them. Returns (-1, -1, false) otherwise.
func (t *Tree) OriginalRange(id NodeID) (start, end int, ok bool) {
	s, okS := t.IntAttr(id, AttrOriginalStart)
	e, okE := t.IntAttr(id, AttrOriginalEnd)
	if !okS || !okE {
		return -1, -1, false
	}
	return s, e, true
}

// IntAttr returns the named attribute parsed as an integer.
func (t *Tree) IntAttr(id NodeID, key string) (int, bool) {
	v, ok := t.Attr(id, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BoolAttr returns the named attribute parsed as a boolean ("true"/"false").
func (t *Tree) BoolAttr(id NodeID, key string) (value, ok bool) {
	v, present := t.Attr(id, key)
	if !present {
		return false, false
	}
	switch v {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}
