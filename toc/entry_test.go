package toc

import (
	"slices"
	"testing"
)

func TestSort(t *testing.T) {
	t.Run("order is primary key", func(t *testing.T) {
		entries := []*Entry{
			{Order: 2, Line: "- a"},
			{Order: 1, Line: "- z"},
			{Order: OrderDefault, Line: "- 0"},
		}
		Sort(entries)
		want := []string{"- z", "- a", "- 0"}
		if got := Flatten(entries); !slices.Equal(got, want) {
			t.Errorf("Flatten() = %q, want %q", got, want)
		}
	})

	t.Run("line breaks ties", func(t *testing.T) {
		entries := []*Entry{
			{Order: 1, Line: "- b"},
			{Order: 1, Line: "- a"},
			{Order: 1, Line: "- B"},
		}
		Sort(entries)
		want := []string{"- B", "- a", "- b"}
		if got := Flatten(entries); !slices.Equal(got, want) {
			t.Errorf("Flatten() = %q, want %q", got, want)
		}
	})

	t.Run("last sorts after everything in any permutation", func(t *testing.T) {
		base := []*Entry{
			{Order: OrderLast, Line: "- a"},
			{Order: OrderDefault, Line: "- b"},
			{Order: 1 << 40, Line: "- c"},
			{Order: -7, Line: "- d"},
		}
		for i := range base {
			entries := slices.Clone(base)
			// rotate input to check result does not depend on it
			entries = append(entries[i:], entries[:i]...)
			Sort(entries)
			if last := entries[len(entries)-1]; last.Order != OrderLast {
				t.Errorf("rotation %d: last entry = %q (order %d), want order last", i, last.Line, last.Order)
			}
		}
	})

	t.Run("children sorted recursively", func(t *testing.T) {
		root := &Entry{Line: "- root", Children: []*Entry{
			{Order: OrderDefault, Line: "  - y", Children: []*Entry{
				{Order: 3, Line: "    - q"},
				{Order: 2, Line: "    - r"},
			}},
			{Order: OrderDefault, Line: "  - x"},
		}}
		entries := []*Entry{root}
		Sort(entries)
		want := []string{"- root", "  - x", "  - y", "    - r", "    - q"}
		if got := Flatten(entries); !slices.Equal(got, want) {
			t.Errorf("Flatten() = %q, want %q", got, want)
		}
		if Count(entries) != 5 {
			t.Errorf("Count() = %d, want 5", Count(entries))
		}
	})
}

func TestFlattenEmpty(t *testing.T) {
	if got := Flatten(nil); len(got) != 0 {
		t.Errorf("Flatten(nil) = %q, want empty", got)
	}
}

func TestEncodePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"README.md", "README.md"},
		{"a b/c#d.md", "a%20b/c%23d.md"},
		{"docs/guide (old).md", "docs/guide%20%28old%29.md"},
		{"x/y?z/100%.md", "x/y%3Fz/100%25.md"},
		{"ünï/cöde.md", "%C3%BCn%C3%AF/c%C3%B6de.md"},
		{"note:1.md", "note%3A1.md"},
		{"a&b=c.md", "a%26b%3Dc.md"},
		{"x@y/$1+2.md", "x%40y/%241%2B2.md"},
		{"keep-this_one~.md", "keep-this_one~.md"},
	}
	for _, tt := range tests {
		if got := EncodePath(tt.in); got != tt.want {
			t.Errorf("EncodePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLines(t *testing.T) {
	if got := linkLine(2, "Name", "a b/c.md"); got != "    - [Name](a%20b/c.md)" {
		t.Errorf("linkLine() = %q", got)
	}
	if got := plainLine(1, "dir"); got != "  - dir" {
		t.Errorf("plainLine() = %q", got)
	}
	if got := plainLine(-1, "dir"); got != "- dir" {
		t.Errorf("plainLine() with negative depth = %q", got)
	}
}

func TestDump(t *testing.T) {
	entries := []*Entry{
		{Path: ".", Order: OrderDefault, Line: "- root", Children: []*Entry{
			{Path: "a.md", Depth: 1, Order: OrderLast, Line: "  - [a](a.md)"},
			{Path: "b.md", Depth: 1, Order: 2, Line: "  - [b](b.md)"},
		}},
	}

	want := `. depth=0 order=default
  line: "- root"
  a.md depth=1 order=last
    line: "  - [a](a.md)"
  b.md depth=1 order=2
    line: "  - [b](b.md)"
`
	if got := Dump(entries); got != want {
		t.Errorf("Dump() =\n%s\nwant:\n%s", got, want)
	}
}
