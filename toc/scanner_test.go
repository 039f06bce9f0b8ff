package toc

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func defaultOptions() Options {
	return Options{
		FileExtension:   ".md",
		PrimaryFileName: "README.md",
		IgnoreFileName:  ".toc-ignore",
		RootName:        "root",
	}
}

func doc(text string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(text)}
}

func buildLines(t *testing.T, fsys fstest.MapFS, opts Options) []string {
	t.Helper()
	tags, err := NewTagCache(0)
	if err != nil {
		t.Fatalf("NewTagCache() error = %v", err)
	}
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	entries, err := NewScanner(fsys, opts, tags, log).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return Flatten(entries)
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("unexpected table of contents\ngot:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestBuild_Scenario(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/guide.md":  doc("# Guide\n"),
		"docs/README.md": doc("<!-- toc-name: Guide Home; toc-order: 1; -->\n# Home\n"),
		"notes.md":       doc("notes\n"),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- root",
		"  - [Guide Home](docs/README.md)",
		"    - [guide](docs/guide.md)",
		"  - [notes](notes.md)",
	})
}

func TestBuild_RootPrimaryDocument(t *testing.T) {
	fsys := fstest.MapFS{
		"README.md":       doc("<!-- toc-name: Project -->\n<!-- TOC START -->\n<!-- TOC END -->\n"),
		"guide/intro.md":  doc("<!-- toc-order: 2 -->"),
		"guide/setup.md":  doc("<!-- toc-order: 1 -->"),
		"guide/readme.MD": doc("<!-- toc-name: The Guide -->"),
		"zeta.md":         doc(""),
		"alpha.md":        doc(""),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- [Project](README.md)",
		"  - [The Guide](guide/readme.MD)",
		"    - [setup](guide/setup.md)",
		"    - [intro](guide/intro.md)",
		"  - [alpha](alpha.md)",
		"  - [zeta](zeta.md)",
	})
}

func TestBuild_LastSentinel(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md":        doc("<!-- toc-order: last -->"),
		"b.md":        doc("<!-- toc-order: 5 -->"),
		"c.md":        doc(""),
		"d.md":        doc("<!-- toc-order: -1 -->"),
		"z/README.md": doc("<!-- toc-order: LAST -->"),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- root",
		"  - [d](d.md)",
		"  - [b](b.md)",
		"  - [c](c.md)",
		"  - [a](a.md)",
		"  - [z](z/README.md)",
	})
}

func TestBuild_IgnoredDocuments(t *testing.T) {
	fsys := fstest.MapFS{
		"api/README.md": doc("<!-- toc-name: API; toc-order: 1; toc-ignore -->"),
		"api/ref.md":    doc("# Reference"),
		"api/draft.md":  doc("<!-- toc-ignore -->"),
		"hidden/a.md":   doc("<!-- toc-ignore; -->"),
		"hidden/b.md":   doc("---\ntitle: b\n---\n<!-- toc-ignore -->"),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- root",
		"  - api",
		"    - [ref](api/ref.md)",
	})
}

func TestBuild_ExclusionPropagation(t *testing.T) {
	fsys := fstest.MapFS{
		"public/page.md":                doc(""),
		"private/.toc-ignore":           doc(""),
		"private/secret.md":             doc(""),
		"private/deeper/README.md":      doc("<!-- toc-name: Deep -->"),
		"private/deeper/more/notes.md":  doc(""),
		"public/nested/.toc-ignore":     doc(""),
		"public/nested/child/README.md": doc(""),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- root",
		"  - public",
		"    - [page](public/page.md)",
	})
}

func TestBuild_SentinelAtRoot(t *testing.T) {
	fsys := fstest.MapFS{
		".toc-ignore": doc(""),
		"a.md":        doc(""),
		"sub/b.md":    doc(""),
	}

	if got := buildLines(t, fsys, defaultOptions()); len(got) != 0 {
		t.Errorf("expected empty table of contents, got %q", got)
	}
}

func TestBuild_ExcludeRoot(t *testing.T) {
	fsys := fstest.MapFS{
		"README.md":     doc("# Top"),
		"notes.md":      doc(""),
		"docs/guide.md": doc(""),
		"api/README.md": doc("<!-- toc-order: 1 -->"),
		"api/v1/ref.md": doc(""),
	}

	opts := defaultOptions()
	opts.ExcludeRoot = true
	assertLines(t, buildLines(t, fsys, opts), []string{
		"- [api](api/README.md)",
		"  - v1",
		"    - [ref](api/v1/ref.md)",
		"- docs",
		"  - [guide](docs/guide.md)",
	})
}

func TestBuild_PathEncoding(t *testing.T) {
	fsys := fstest.MapFS{
		"a b/c#d.md": doc(""),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- root",
		"  - a b",
		"    - [c#d](a%20b/c%23d.md)",
	})
}

func TestBuild_SchemeLikeFileName(t *testing.T) {
	fsys := fstest.MapFS{
		"note:1.md": doc(""),
		"a&b=c.md":  doc(""),
	}

	lines := buildLines(t, fsys, defaultOptions())
	assertLines(t, lines, []string{
		"- root",
		"  - [a&b=c](a%26b%3Dc.md)",
		"  - [note:1](note%3A1.md)",
	})
	for _, target := range []string{"a%26b%3Dc.md", "note%3A1.md"} {
		u, err := url.Parse(target)
		if err != nil {
			t.Fatalf("url.Parse(%q) error = %v", target, err)
		}
		if u.Scheme != "" || u.IsAbs() {
			t.Errorf("link target %q parsed as absolute URI with scheme %q", target, u.Scheme)
		}
	}
}

func TestBuild_ExtensionFilter(t *testing.T) {
	fsys := fstest.MapFS{
		"only.txt":      doc("text"),
		"images/a.png":  doc("png"),
		"docs/UPPER.MD": doc(""),
		"docs/lower.md": doc(""),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- root",
		"  - docs",
		"    - [UPPER](docs/UPPER.MD)",
		"    - [lower](docs/lower.md)",
	})
}

func TestBuild_MalformedOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"good.md": doc(""),
		"bad.md":  doc("<!-- toc-order: soon -->"),
	}

	_, err := NewScanner(fsys, defaultOptions(), nil, nil).Build(context.Background())
	if !errors.Is(err, ErrMalformedTag) {
		t.Fatalf("Build() error = %v, want ErrMalformedTag", err)
	}
	if !strings.Contains(err.Error(), "bad.md") {
		t.Errorf("error %q does not name the document", err)
	}
}

func TestBuild_MalformedOrderOnIgnoredDocument(t *testing.T) {
	fsys := fstest.MapFS{
		"good.md": doc(""),
		"bad.md":  doc("<!-- toc-ignore; toc-order: soon -->"),
	}

	assertLines(t, buildLines(t, fsys, defaultOptions()), []string{
		"- root",
		"  - [good](good.md)",
	})
}

func TestBuild_Idempotent(t *testing.T) {
	fsys := fstest.MapFS{
		"README.md":          doc("<!-- TOC START -->\n<!-- TOC END -->"),
		"b/README.md":        doc("<!-- toc-order: 3 -->"),
		"b/x.md":             doc(""),
		"a/y.md":             doc("<!-- toc-name: Why -->"),
		"a/deep/deeper/z.md": doc(""),
	}

	first := buildLines(t, fsys, defaultOptions())
	second := buildLines(t, fsys, defaultOptions())
	assertLines(t, second, first)
}

func TestBuild_Cancelled(t *testing.T) {
	fsys := fstest.MapFS{"a/b.md": doc("")}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewScanner(fsys, defaultOptions(), nil, nil).Build(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Build() error = %v, want context.Canceled", err)
	}
}

func TestEligible(t *testing.T) {
	fsys := fstest.MapFS{
		"docs/a/b/c.md":        doc(""),
		"empty/x.txt":          doc(""),
		"ignored/only.md":      doc("<!-- toc-ignore -->"),
		"excluded/.toc-ignore": doc(""),
		"excluded/y.md":        doc(""),
	}

	s := NewScanner(fsys, defaultOptions(), nil, nil)
	tests := []struct {
		dir  string
		want bool
	}{
		{".", true},
		{"docs", true},
		{"docs/a", true},
		{"empty", false},
		{"ignored", false},
		{"excluded", false},
	}
	for _, tt := range tests {
		got, err := s.Eligible(tt.dir)
		if err != nil {
			t.Fatalf("Eligible(%q) error = %v", tt.dir, err)
		}
		if got != tt.want {
			t.Errorf("Eligible(%q) = %v, want %v", tt.dir, got, tt.want)
		}
	}

	if _, err := s.Eligible("missing"); err == nil {
		t.Error("Eligible() expected error for missing directory")
	}
}
