package toc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// Options control how directory tree is turned into entries.
type Options struct {
	// ExcludeRoot drops root directory entry (and documents directly in
	// it), everything else moves one level up.
	ExcludeRoot bool
	// FileExtension selects documents, compared case-insensitively.
	FileExtension string
	// PrimaryFileName is document representing its directory, compared
	// case-insensitively.
	PrimaryFileName string
	// IgnoreFileName is sentinel file excluding directory with all its
	// descendants.
	IgnoreFileName string
	// RootName is displayed for root directory without primary document.
	RootName string
}

// Scanner walks file system and produces table of contents entries. It keeps
// per-run caches and is not safe for concurrent use.
type Scanner struct {
	fsys fs.FS
	opts Options
	tags *TagCache
	log  *zap.Logger
	fold cases.Caser

	eligible map[string]bool
	docs     map[string]Tags
}

// NewScanner returns scanner over fsys, root of the tree is "." of fsys.
// Either tags or log could be nil.
func NewScanner(fsys fs.FS, opts Options, tags *TagCache, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.RootName == "" {
		opts.RootName = "."
	}
	return &Scanner{
		fsys:     fsys,
		opts:     opts,
		tags:     tags,
		log:      log,
		fold:     cases.Fold(),
		eligible: make(map[string]bool),
		docs:     make(map[string]Tags),
	}
}

func (s *Scanner) sameName(a, b string) bool {
	return s.fold.String(a) == s.fold.String(b)
}

func (s *Scanner) isDocument(d fs.DirEntry) bool {
	if d.IsDir() {
		return false
	}
	return strings.HasSuffix(s.fold.String(d.Name()), s.fold.String(s.opts.FileExtension))
}

func (s *Scanner) isPrimary(d fs.DirEntry) bool {
	return !d.IsDir() && s.sameName(d.Name(), s.opts.PrimaryFileName)
}

func (s *Scanner) hasSentinel(entries []fs.DirEntry) bool {
	if s.opts.IgnoreFileName == "" {
		return false
	}
	for _, d := range entries {
		if !d.IsDir() && d.Name() == s.opts.IgnoreFileName {
			return true
		}
	}
	return false
}

// documentTags reads document and returns its tags, every document is read
// at most once per scanner.
func (s *Scanner) documentTags(name string) (Tags, error) {
	if tags, ok := s.docs[name]; ok {
		return tags, nil
	}
	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return Tags{}, fmt.Errorf("unable to read document '%s': %w", name, err)
	}
	tags := s.tags.Extract(data)
	s.docs[name] = tags
	return tags, nil
}

// Eligible reports whether directory or any of its descendants holds a
// document which is not ignored. Directories with sentinel file are never
// eligible and their subtrees are not examined.
func (s *Scanner) Eligible(dir string) (bool, error) {
	if ok, cached := s.eligible[dir]; cached {
		return ok, nil
	}
	ok, err := s.checkDir(dir)
	if err != nil {
		return false, err
	}
	s.eligible[dir] = ok
	return ok, nil
}

func (s *Scanner) checkDir(dir string) (bool, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return false, fmt.Errorf("unable to read directory '%s': %w", dir, err)
	}
	if s.hasSentinel(entries) {
		s.log.Debug("Directory excluded", zap.String("dir", dir), zap.String("sentinel", s.opts.IgnoreFileName))
		return false, nil
	}

	var subdirs []string
	for _, d := range entries {
		if d.IsDir() {
			subdirs = append(subdirs, path.Join(dir, d.Name()))
			continue
		}
		if !s.isDocument(d) {
			continue
		}
		tags, err := s.documentTags(path.Join(dir, d.Name()))
		if err != nil {
			return false, err
		}
		if !tags.Ignored {
			return true, nil
		}
	}
	for _, sub := range subdirs {
		ok, err := s.Eligible(sub)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Build walks the tree top-down and returns sorted root entries. Directory
// whose parent produced no entry becomes a root entry itself.
func (s *Scanner) Build(ctx context.Context) ([]*Entry, error) {
	var (
		roots    []*Entry
		registry = make(map[string]*Entry)
		offset   int
	)
	if s.opts.ExcludeRoot {
		offset = 1
	}

	err := fs.WalkDir(s.fsys, ".", func(dir string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := s.Eligible(dir)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Debug("Skipping directory", zap.String("dir", dir))
			return fs.SkipDir
		}
		if dir == "." && s.opts.ExcludeRoot {
			return nil
		}

		entry, err := s.directoryEntry(dir, pathDepth(dir)-offset)
		if err != nil {
			return err
		}

		registry[dir] = entry
		if parent, ok := registry[path.Dir(dir)]; ok && dir != "." {
			parent.Children = append(parent.Children, entry)
		} else {
			roots = append(roots, entry)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipDir) {
		return nil, err
	}

	Sort(roots)
	return roots, nil
}

// directoryEntry creates entry for eligible directory together with entries
// for all its documents.
func (s *Scanner) directoryEntry(dir string, depth int) (*Entry, error) {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read directory '%s': %w", dir, err)
	}

	base := path.Base(dir)
	if dir == "." {
		base = s.opts.RootName
	}
	entry := &Entry{
		Depth: depth,
		Order: OrderDefault,
		Line:  plainLine(depth, base),
		Path:  dir,
	}

	for _, d := range entries {
		if !s.isPrimary(d) {
			continue
		}
		name := path.Join(dir, d.Name())
		tags, err := s.documentTags(name)
		if err != nil {
			return nil, err
		}
		if tags.Ignored {
			s.log.Debug("Primary document ignored", zap.String("file", name))
			break
		}
		if entry.Order, err = tags.SortOrder(); err != nil {
			return nil, fmt.Errorf("document '%s': %w", name, err)
		}
		display := tags.Name
		if display == "" {
			display = base
		}
		entry.Line = linkLine(depth, display, name)
		break
	}

	for _, d := range entries {
		if !s.isDocument(d) || s.isPrimary(d) {
			continue
		}
		name := path.Join(dir, d.Name())
		tags, err := s.documentTags(name)
		if err != nil {
			return nil, err
		}
		if tags.Ignored {
			s.log.Debug("Document ignored", zap.String("file", name))
			continue
		}
		order, err := tags.SortOrder()
		if err != nil {
			return nil, fmt.Errorf("document '%s': %w", name, err)
		}
		display := tags.Name
		if display == "" {
			display = strings.TrimSuffix(d.Name(), path.Ext(d.Name()))
		}
		entry.Children = append(entry.Children, &Entry{
			Depth: depth + 1,
			Order: order,
			Line:  linkLine(depth+1, display, name),
			Path:  name,
		})
	}

	s.log.Debug("Directory added", zap.String("dir", dir), zap.Int("depth", depth), zap.Int("documents", len(entry.Children)))
	return entry, nil
}

func pathDepth(dir string) int {
	if dir == "." {
		return 0
	}
	return strings.Count(dir, "/") + 1
}
