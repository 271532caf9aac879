// Package archive unpacks zipped mods before a conversion and packs converted
// mods afterwards.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cortexmods/modconvert/internal/defs"
	"github.com/cortexmods/modconvert/internal/fsutil"
)

// ErrUnsafePath indicates an archive entry that would land outside the
// destination folder.
var ErrUnsafePath = errors.New("archive: entry escapes destination")

// ExtractAll extracts every *.zip directly inside dir into dir and returns
// the archives it extracted, in lexical order.
func ExtractAll(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var done []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), defs.ZipExt) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if _, err := Extract(ctx, p, dir); err != nil {
			return done, err
		}
		done = append(done, p)
	}
	return done, nil
}

// Extract unpacks the archive at src into dest and returns the number of
// files written. macOS resource forks are skipped.
func Extract(ctx context.Context, src, dest string) (int, error) {
	r, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		// Reported up front when GODEBUG=zipinsecurepath=0.
		if r != nil {
			r.Close()
		}
		return 0, fmt.Errorf("%w: %s", ErrUnsafePath, src)
	}
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer r.Close()

	n := 0
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		name := strings.TrimSuffix(strings.ReplaceAll(f.Name, `\`, "/"), "/")
		if name == "" || name == "__MACOSX" || strings.HasPrefix(name, "__MACOSX/") {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(name)) {
			return n, fmt.Errorf("%w: %s in %s", ErrUnsafePath, f.Name, src)
		}
		target := filepath.Join(dest, filepath.FromSlash(name))

		if f.FileInfo().IsDir() {
			if err := fsutil.EnsureDir(target); err != nil {
				return n, err
			}
			continue
		}
		if err := fsutil.EnsureDir(filepath.Dir(target)); err != nil {
			return n, err
		}
		if err := extractFile(f, target); err != nil {
			return n, fmt.Errorf("extract %s from %s: %w", f.Name, src, err)
		}
		n++
	}
	return n, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return fsutil.WriteAtomic(target, func(w io.Writer) error {
		_, err := io.Copy(w, rc)
		return err
	})
}

// ZipDir packs the folder src into the archive dst. Entry names start with
// the folder's own name ("MyMod.rte/..."), so extracting the archive next to
// other mods recreates the folder. Returns the number of files packed.
func ZipDir(ctx context.Context, src, dst string) (int, error) {
	base := filepath.Base(filepath.Clean(src))
	var paths []string
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", src, err)
	}
	slices.Sort(paths)

	n := 0
	err = fsutil.WriteAtomic(dst, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, p := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			name := base
			if rel != "." {
				name = base + "/" + filepath.ToSlash(rel)
			}
			added, err := addEntry(zw, p, name)
			if err != nil {
				return err
			}
			if added {
				n++
			}
		}
		return zw.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("zip %s: %w", src, err)
	}
	return n, nil
}

func addEntry(zw *zip.Writer, p, name string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return false, err
	}
	hdr.Name = name
	if info.IsDir() {
		hdr.Name += "/"
		_, err := zw.CreateHeader(hdr)
		return false, err
	}
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return false, err
	}
	f, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return false, err
	}
	return true, nil
}
