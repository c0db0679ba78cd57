// Package mapping provides position records that tie ranges of the IR input
// string to ranges of a writer's output string, and the pure functions that
// keep those records correct as text is concatenated, wrapped, or indented.
//
// Ranges are inclusive on both ends. A record is only ever created for a
// non-empty contribution: OutputEnd-OutputStart always equals the length of
// the contributed text minus one, and callers must special-case length zero
// rather than record a zero-length range.
package mapping

import "strings"

// Node records that the input range [InputStart, InputEnd] produced the
// output range [OutputStart, OutputEnd].
type Node struct {
	InputStart  int `json:"irStartIndex"`
	InputEnd    int `json:"irEndIndex"`
	OutputStart int `json:"startIndex"`
	OutputEnd   int `json:"endIndex"`
}

// OutputLen returns the number of output characters the record covers.
func (n Node) OutputLen() int {
	return n.OutputEnd - n.OutputStart + 1
}

// Shift moves the output ranges of all nodes by delta, in place, and returns
// the same slice.
func Shift(nodes []Node, delta int) []Node {
	if delta == 0 {
		return nodes
	}
	for i := range nodes {
		nodes[i].OutputStart += delta
		nodes[i].OutputEnd += delta
	}
	return nodes
}

// Extend appends src to dst with every src output range shifted by offset.
// It is the concatenation step: dst describes text already emitted, src
// describes text about to be appended at position offset.
func Extend(dst []Node, src []Node, offset int) []Node {
	for _, n := range src {
		n.OutputStart += offset
		n.OutputEnd += offset
		dst = append(dst, n)
	}
	return dst
}

// ShiftIndented adjusts output ranges for text that is about to have every
// line prefixed by width columns. text is the unindented text the nodes were
// recorded against. A position on line k (zero-based) moves right by
// width*(k+1): the prefix of its own line plus one prefix per preceding line.
func ShiftIndented(nodes []Node, text string, width int) []Node {
	if width == 0 {
		return nodes
	}
	// Line index for each position is the number of newlines before it.
	lineOf := func(pos int) int {
		if pos > len(text) {
			pos = len(text)
		}
		return strings.Count(text[:pos], "\n")
	}
	for i := range nodes {
		nodes[i].OutputStart += width * (lineOf(nodes[i].OutputStart) + 1)
		nodes[i].OutputEnd += width * (lineOf(nodes[i].OutputEnd) + 1)
	}
	return nodes
}

// Covered reports whether every output index in [0, length) is covered by at
// least one node with valid indices. Used to verify the coverage invariant.
func Covered(nodes []Node, length int) bool {
	if length == 0 {
		return true
	}
	seen := make([]bool, length)
	for _, n := range nodes {
		if n.OutputStart < 0 || n.OutputEnd < n.OutputStart || n.OutputEnd >= length {
			return false
		}
		for i := n.OutputStart; i <= n.OutputEnd; i++ {
			seen[i] = true
		}
	}
	for _, s := range seen {
		if !s {
			return false
		}
	}
	return true
}
