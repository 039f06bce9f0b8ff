package toc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
)

const (
	// OrderDefault is used for entries without toc-order tag, it sorts after
	// any explicit number a user would put in a document.
	OrderDefault = math.MaxInt - 1
	// OrderLast is assigned by "toc-order: last".
	OrderLast = math.MaxInt
)

// yamlBlock recognizes "---" delimited front matter, its content is skipped
// and never decoded.
var yamlBlock = frontmatter.NewFormat("---", "---", func([]byte, any) error { return nil })

var (
	reComment = regexp.MustCompile(`^\s*<!--((?s:.*?))-->`)

	reName   = regexp.MustCompile(`(?:^|[\s;])toc-name:[ \t]*([^;\r\n]*)`)
	reOrder  = regexp.MustCompile(`(?:^|[\s;])toc-order:[ \t]*([^;\r\n]*)`)
	reIgnore = regexp.MustCompile(`(?:^|[\s;])toc-ignore\s*(?:;|$)`)
)

// Tags holds directives found in the leading region of a document.
type Tags struct {
	// Name is custom display name, empty when not set.
	Name string
	// Order is raw toc-order value, use SortOrder to interpret it.
	Order    string
	HasOrder bool
	Ignored  bool
}

// ExtractTags scans leading region of the document text: optional front
// matter followed by a run of HTML comments. Anything after the first
// non-comment content is never looked at.
func ExtractTags(text string) Tags {
	var tags Tags

	text = strings.TrimPrefix(text, "\uFEFF")
	if body, err := frontmatter.Parse(strings.NewReader(text), &struct{}{}, yamlBlock); err == nil {
		text = string(body)
	}
	for {
		m := reComment.FindStringSubmatchIndex(text)
		if m == nil {
			break
		}
		tags.scan(text[m[2]:m[3]])
		text = text[m[1]:]
	}
	return tags
}

// scan picks directives from a single comment body, first occurrence of every
// directive wins.
func (t *Tags) scan(body string) {
	if t.Name == "" {
		if m := reName.FindStringSubmatch(body); m != nil {
			t.Name = strings.TrimSpace(m[1])
		}
	}
	if !t.HasOrder {
		if m := reOrder.FindStringSubmatch(body); m != nil {
			t.Order, t.HasOrder = strings.TrimSpace(m[1]), true
		}
	}
	if !t.Ignored {
		t.Ignored = reIgnore.MatchString(body)
	}
}

// SortOrder returns sort key requested by the document.
func (t Tags) SortOrder() (int, error) {
	if !t.HasOrder {
		return OrderDefault, nil
	}
	return ParseOrder(t.Order)
}

// ParseOrder interprets toc-order value: "last" in any case or an integer.
func ParseOrder(value string) (int, error) {
	if strings.EqualFold(value, "last") {
		return OrderLast, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTag, value)
	}
	return n, nil
}
