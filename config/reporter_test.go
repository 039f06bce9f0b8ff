package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer r.Close()

	files := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport_Close(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(dir, "stored.log")
	if err := os.WriteFile(stored, []byte("log line"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	r.Store("final.log", stored)
	r.Store("missing.log", filepath.Join(dir, "absent.log"))
	r.StoreData("toc/readme.md", []byte("- a"))

	if err := r.Close(); err != nil {
		t.Fatalf("Report.Close() error: %v", err)
	}

	files := readArchive(t, r.Name())
	if files["final.log"] != "log line" {
		t.Errorf("final.log = %q", files["final.log"])
	}
	if files["toc/readme.md"] != "- a" {
		t.Errorf("toc/readme.md = %q", files["toc/readme.md"])
	}
	if _, ok := files["missing.log"]; ok {
		t.Error("absent file should not be archived")
	}
	manifest := files["MANIFEST"]
	if !strings.Contains(manifest, r.ID()) {
		t.Errorf("MANIFEST does not mention run id %s:\n%s", r.ID(), manifest)
	}
	if strings.Index(manifest, "final.log") > strings.Index(manifest, "toc/readme.md") {
		t.Errorf("MANIFEST entries are not sorted:\n%s", manifest)
	}
}

func TestReport_StoreTwicePanics(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.StoreData("a", []byte("1"))

	defer func() {
		if recover() == nil {
			t.Error("expected panic on overwrite")
		}
	}()
	r.StoreData("a", []byte("2"))
}

func TestReportClose_NilReport(t *testing.T) {
	var r *Report
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
	r.Store("x", "y")
	r.StoreData("x", nil)
	if r.Name() != "" || r.ID() != "" {
		t.Error("nil report should have empty name and id")
	}
}

func TestReportClose_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		dir, path, want string
	}{
		{"toc", "README.md", "toc/readme.md"},
		{"toc", "docs/My Guide.MD", "toc/docs/my-guide.md"},
		{"tree", "a b/c#d.md", "tree/a-b/c-d.md"},
		{"", "???", "_"},
	}
	for _, tt := range tests {
		if got := EntryName(tt.dir, tt.path); got != tt.want {
			t.Errorf("EntryName(%q, %q) = %q, want %q", tt.dir, tt.path, got, tt.want)
		}
	}
}
