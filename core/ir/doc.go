// Package ir defines the intermediate representation consumed by every
// format writer: a typed, arena-indexed tree of elements from a closed tag
// vocabulary, each carrying its byte range in the IR source string.
//
// The IR is the single compatibility-sensitive surface between the markup
// front end and this writer core. Tag names, attribute names, and their
// accepted value sets are frozen here; unknown tags and unknown values for
// recognized attributes fail loudly rather than being skipped.
//
// Nodes are referenced by index (NodeID) into Tree.Nodes rather than by
// pointer, which keeps the tree trivially shareable read-only across
// concurrent render calls.
package ir
