// Package generate implements "generate" command: builds table of contents
// for directory tree and puts it into the target document.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"mdtoc/config"
	"mdtoc/state"
	"mdtoc/toc"
)

// Flags returns command line flags of generate command, every one of them
// overwrites corresponding configuration value when specified.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "table-file", Aliases: []string{"t"}, Usage: "`FILE` (relative to root) which receives table of contents"},
		&cli.StringFlag{Name: "root-path", Aliases: []string{"r"}, Usage: "`DIRECTORY` to scan for documents"},
		&cli.BoolFlag{Name: "exclude-root", Usage: "do not produce entry for root directory itself"},
		&cli.StringFlag{Name: "file-extension", Usage: "`EXT` of files to include into table of contents"},
		&cli.StringFlag{Name: "primary-file-name", Usage: "`NAME` of file representing its directory (case-insensitive)"},
		&cli.StringFlag{Name: "toc-start-tag", Usage: "`MARKER` starting table of contents in target file"},
		&cli.StringFlag{Name: "toc-end-tag", Usage: "`MARKER` ending table of contents in target file"},
		&cli.StringFlag{Name: "toc-ignore-file-name", Usage: "`NAME` of file which excludes directory and its subdirectories"},
		&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "print table of contents instead of updating target file"},
	}
}

func applyFlags(cmd *cli.Command, conf *config.TOCConfig) {
	if cmd.IsSet("table-file") {
		conf.TableFile = cmd.String("table-file")
	}
	if cmd.IsSet("root-path") {
		conf.RootPath = cmd.String("root-path")
	}
	if cmd.IsSet("exclude-root") {
		conf.ExcludeRoot = cmd.Bool("exclude-root")
	}
	if cmd.IsSet("file-extension") {
		conf.FileExtension = cmd.String("file-extension")
	}
	if cmd.IsSet("primary-file-name") {
		conf.PrimaryFileName = cmd.String("primary-file-name")
	}
	if cmd.IsSet("toc-start-tag") {
		conf.StartMarker = cmd.String("toc-start-tag")
	}
	if cmd.IsSet("toc-end-tag") {
		conf.EndMarker = cmd.String("toc-end-tag")
	}
	if cmd.IsSet("toc-ignore-file-name") {
		conf.IgnoreFileName = cmd.String("toc-ignore-file-name")
	}
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("generate")

	if cmd.Args().Len() > 0 {
		log.Warn("Malformed command line, unexpected arguments", zap.Strings("ignoring", cmd.Args().Slice()))
	}

	applyFlags(cmd, &env.Cfg.TOC)
	if err := env.Cfg.Validate(); err != nil {
		return err
	}
	env.DryRun = cmd.Bool("dry-run")

	log.Info("Processing starting", zap.String("root", env.Cfg.TOC.RootPath), zap.String("target", env.Cfg.TOC.TableFile), zap.Bool("dry-run", env.DryRun))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	res, err := Update(ctx, &env.Cfg.TOC, log)
	if err != nil {
		return err
	}
	storeResult(env, res)

	if env.DryRun {
		_, err := fmt.Fprintln(cmd.Root().Writer, toc.Block(env.Cfg.TOC.StartMarker, env.Cfg.TOC.EndMarker, res.Lines))
		return err
	}
	return write(res, log)
}

// Result is produced by Update, target document is not written yet.
type Result struct {
	Root    string
	Target  string
	Entries []*toc.Entry
	Lines   []string

	Original string
	Updated  string
}

func (r *Result) Changed() bool {
	return r.Original != r.Updated
}

// Update builds table of contents according to configuration and prepares
// new content of the target document. Nothing is written to disk.
func Update(ctx context.Context, conf *config.TOCConfig, log *zap.Logger) (*Result, error) {
	root, err := filepath.Abs(conf.RootPath)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve root path '%s': %w", conf.RootPath, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("unable to access root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path '%s' is not a directory", root)
	}

	target, err := findTarget(root, conf.TableFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("unable to read target document: %w", err)
	}
	original := string(data)

	// fail early, before the tree is scanned
	if _, err := toc.Splice(original, conf.StartMarker, conf.EndMarker, nil); err != nil {
		return nil, fmt.Errorf("target document '%s': %w", target, err)
	}

	tags, err := toc.NewTagCache(conf.TagCacheSize)
	if err != nil {
		return nil, err
	}
	scanner := toc.NewScanner(os.DirFS(root), toc.Options{
		ExcludeRoot:     conf.ExcludeRoot,
		FileExtension:   conf.FileExtension,
		PrimaryFileName: conf.PrimaryFileName,
		IgnoreFileName:  conf.IgnoreFileName,
		RootName:        filepath.Base(root),
	}, tags, log)

	entries, err := scanner.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to build table of contents: %w", err)
	}
	lines := toc.Flatten(entries)
	log.Debug("Table of contents built", zap.Int("entries", toc.Count(entries)), zap.Int("cached tags", tags.Len()))

	updated, err := toc.Splice(original, conf.StartMarker, conf.EndMarker, lines)
	if err != nil {
		return nil, fmt.Errorf("target document '%s': %w", target, err)
	}

	return &Result{
		Root:     root,
		Target:   target,
		Entries:  entries,
		Lines:    lines,
		Original: original,
		Updated:  updated,
	}, nil
}

// findTarget looks for target document, its base name is compared
// case-insensitively, exact match is preferred.
func findTarget(root, name string) (string, error) {
	dir, base := filepath.Split(filepath.FromSlash(name))
	dir = filepath.Join(root, dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: '%s' under '%s'", toc.ErrTargetNotFound, name, root)
		}
		return "", fmt.Errorf("unable to read directory '%s': %w", dir, err)
	}

	var found string
	fold := cases.Fold()
	for _, d := range entries {
		if d.IsDir() {
			continue
		}
		if d.Name() == base {
			return filepath.Join(dir, d.Name()), nil
		}
		if len(found) == 0 && fold.String(d.Name()) == fold.String(base) {
			found = filepath.Join(dir, d.Name())
		}
	}
	if len(found) == 0 {
		return "", fmt.Errorf("%w: '%s' under '%s'", toc.ErrTargetNotFound, name, root)
	}
	return found, nil
}

// write replaces target document content, file is only touched when the
// content actually changed.
func write(res *Result, log *zap.Logger) error {
	if !res.Changed() {
		log.Info("Table of contents is up to date", zap.String("file", res.Target))
		return nil
	}

	info, err := os.Stat(res.Target)
	if err != nil {
		return fmt.Errorf("unable to access target document: %w", err)
	}
	if err := os.WriteFile(res.Target, []byte(res.Updated), info.Mode().Perm()); err != nil {
		return fmt.Errorf("unable to write target document: %w", err)
	}
	log.Info("Table of contents has been updated", zap.String("file", res.Target), zap.Int("lines", len(res.Lines)))
	return nil
}

func storeResult(env *state.LocalEnv, res *Result) {
	if env.Rpt == nil {
		return
	}
	rel, err := filepath.Rel(res.Root, res.Target)
	if err != nil {
		rel = filepath.Base(res.Target)
	}
	env.Rpt.StoreData(config.EntryName("original", rel), []byte(res.Original))
	env.Rpt.StoreData(config.EntryName("updated", rel), []byte(res.Updated))
	env.Rpt.StoreData("tree.txt", []byte(toc.Dump(res.Entries)))
	if data, err := config.Dump(env.Cfg); err == nil {
		env.Rpt.StoreData("effective-config.yaml", data)
	}
}
