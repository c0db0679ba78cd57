// Package encoding provides shared text escaping and name-mangling utilities.
package encoding

import (
	"strings"
	"unicode"
)

// EscapeXMLText escapes the basic XML entities for text content.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Includes quote escaping in addition to basic XML entities.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// EscapeHTML escapes special characters for HTML content.
// Escapes: & < > "
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// SlugifyXMLName turns an arbitrary object key into a legal XML element name.
// Illegal characters are stripped; if the result does not start with a letter
// or underscore, or collides with the reserved "xml" prefix, it is prefixed
// with an underscore. An empty result becomes a bare underscore.
func SlugifyXMLName(key string) string {
	var b strings.Builder
	for _, r := range key {
		if legalXMLNameRune(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		return "_"
	}
	first := rune(name[0])
	if !unicode.IsLetter(first) && first != '_' {
		return "_" + name
	}
	if strings.HasPrefix(strings.ToLower(name), "xml") {
		return "_" + name
	}
	return name
}

func legalXMLNameRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}
