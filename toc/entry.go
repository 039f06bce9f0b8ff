package toc

import (
	"cmp"
	"slices"
	"strings"
)

// Entry is a single line of the table of contents.
type Entry struct {
	Depth    int
	Order    int
	Line     string
	Children []*Entry

	// Path is slash separated location of the directory or document relative
	// to the root, it is never rendered.
	Path string
}

func (e *Entry) String() string {
	return e.Line
}

func compareEntries(a, b *Entry) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return strings.Compare(a.Line, b.Line)
}

// Sort orders entries and all their descendants by (Order, Line).
func Sort(entries []*Entry) {
	for _, e := range entries {
		Sort(e.Children)
	}
	slices.SortFunc(entries, compareEntries)
}

// Flatten returns rendered lines in pre-order: entry followed by its
// children. Entries are expected to be sorted already.
func Flatten(entries []*Entry) []string {
	return flatten(nil, entries)
}

func flatten(lines []string, entries []*Entry) []string {
	for _, e := range entries {
		lines = append(lines, e.Line)
		lines = flatten(lines, e.Children)
	}
	return lines
}

// Count returns total number of entries in the tree.
func Count(entries []*Entry) int {
	n := len(entries)
	for _, e := range entries {
		n += Count(e.Children)
	}
	return n
}

// EncodePath percent-encodes every segment of slash separated path so it
// could be used as relative Markdown link target. Only unreserved characters
// (RFC 3986) are kept, so a segment like "note:1.md" is never taken for a URI
// scheme.
func EncodePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = escapeSegment(part)
	}
	return strings.Join(parts, "/")
}

const upperhex = "0123456789ABCDEF"

func escapeSegment(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '.' || c == '_' || c == '~'
}

func indent(depth int) string {
	return strings.Repeat("  ", max(depth, 0))
}

func linkLine(depth int, name, target string) string {
	return indent(depth) + "- [" + name + "](" + EncodePath(target) + ")"
}

func plainLine(depth int, name string) string {
	return indent(depth) + "- " + name
}
