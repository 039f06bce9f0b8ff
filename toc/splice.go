package toc

import (
	"fmt"
	"strings"
)

// Splice replaces everything from the first start marker through the first end
// marker following it (markers included) with start marker, lines and end
// marker joined by new lines. Text around markers is kept intact. Only the
// first pair of markers is processed.
func Splice(text, start, end string, lines []string) (string, error) {
	from := strings.Index(text, start)
	if from < 0 {
		return "", fmt.Errorf("%w: start marker %q", ErrMissingMarker, start)
	}
	to := strings.Index(text[from+len(start):], end)
	if to < 0 {
		return "", fmt.Errorf("%w: end marker %q", ErrMissingMarker, end)
	}
	to += from + len(start) + len(end)

	var b strings.Builder
	b.Grow(len(text))
	b.WriteString(text[:from])
	b.WriteString(Block(start, end, lines))
	b.WriteString(text[to:])
	return b.String(), nil
}

// Block returns markers with lines between them as they are put into the
// target document.
func Block(start, end string, lines []string) string {
	parts := make([]string, 0, len(lines)+2)
	parts = append(parts, start)
	parts = append(parts, lines...)
	parts = append(parts, end)
	return strings.Join(parts, "\n")
}
