package caseindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cortexmods/modconvert/internal/defs"
)

// ErrRootNotFound indicates a corpus directory that does not exist.
var ErrRootNotFound = errors.New("caseindex: root not found")

// Root is one tree of files to index. Prefix is prepended to every path so
// a single mod folder can be indexed under its own name.
type Root struct {
	FS     fs.FS
	Prefix string
	Name   string // for logs
}

// DirRoot returns the Root for a directory on disk. A directory that is
// itself a mod folder (Name.rte) is indexed as "Name.rte/...", matching how
// definition files reference it.
func DirRoot(dir string) (Root, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Root{}, fmt.Errorf("%w: %s", ErrRootNotFound, dir)
	}
	r := Root{FS: os.DirFS(dir), Name: dir}
	clean := filepath.Clean(dir)
	if strings.HasSuffix(strings.ToLower(clean), defs.ModSuffix) {
		r.Prefix = filepath.Base(clean)
	}
	return r, nil
}

// BuildOptions controls how files are registered.
type BuildOptions struct {
	// RenameExt registers files with a renamed extension under the name the
	// converted text will use (".bmp" -> ".png").
	RenameExt map[string]string

	// Protected reports bare file names that keep their extension.
	Protected func(name string) bool

	// Ignore lists doublestar patterns of paths to leave out.
	Ignore []string

	Logger *slog.Logger
}

// Build walks every root in order and returns the populated Index.
func Build(ctx context.Context, roots []Root, opts BuildOptions) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, p := range opts.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("caseindex: invalid ignore pattern %q", p)
		}
	}

	ix := New()
	for _, root := range roots {
		before := ix.Len()
		err := doublestar.GlobWalk(root.FS, "**/*", func(p string, d fs.DirEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || ignored(p, opts.Ignore) {
				return nil
			}
			rel := p
			if root.Prefix != "" {
				rel = root.Prefix + "/" + p
			}
			ix.Add(registeredName(rel, opts))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", root.Name, err)
		}
		logger.Debug("indexed case corpus", "root", root.Name, "files", ix.Len()-before)
	}

	if n := ix.Collisions(); n > 0 {
		logger.Debug("case collisions in corpus, first registered wins", "count", n)
	}
	return ix, nil
}

// registeredName applies extension renames to rel unless the file is protected.
func registeredName(rel string, opts BuildOptions) string {
	if len(opts.RenameExt) == 0 {
		return rel
	}
	ext := path.Ext(rel)
	to, ok := opts.RenameExt[strings.ToLower(ext)]
	if !ok {
		return rel
	}
	if opts.Protected != nil && opts.Protected(path.Base(rel)) {
		return rel
	}
	return strings.TrimSuffix(rel, ext) + to
}

func ignored(p string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, p); ok {
			return true
		}
	}
	return false
}
