// Package driver walks the input folder, decides which folders are mods and
// sends every file to the right converter: definition and script files to the
// text pipeline, images to imageconv, everything else is copied.
package driver

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
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cortexmods/modconvert/internal/archive"
	"github.com/cortexmods/modconvert/internal/convert"
	"github.com/cortexmods/modconvert/internal/defs"
	"github.com/cortexmods/modconvert/internal/fsutil"
	"github.com/cortexmods/modconvert/internal/imageconv"
	"github.com/cortexmods/modconvert/internal/warnings"
)

var (
	// ErrInputNotFound indicates an input folder that does not exist.
	ErrInputNotFound = errors.New("driver: input folder not found")

	// ErrNoMods indicates an input folder without any *.rte folder.
	ErrNoMods = errors.New("driver: no mod folders found")
)

// TextConverter converts one definition or script file.
type TextConverter interface {
	ConvertFile(task convert.FileTask) (convert.Result, error)
}

// Observer is told about progress. Planned is called once before the first
// file, FileDone after every file.
type Observer interface {
	Planned(files int)
	FileDone(rel string)
}

type nopObserver struct{}

func (nopObserver) Planned(int)     {}
func (nopObserver) FileDone(string) {}

// Options configures a Driver.
type Options struct {
	Input  string
	Output string

	// SkipConversion copies images instead of re-encoding them. The text
	// converter is expected to be configured the same way.
	SkipConversion bool

	// Zip packs every converted mod into <Output>/<mod>.zip.
	Zip bool

	// Ignore lists doublestar patterns, matched against paths relative to
	// the input folder ("MyMod.rte/Backup/**").
	Ignore []string

	Logger *slog.Logger
}

// Driver converts a tree of mods.
type Driver struct {
	opts     Options
	text     TextConverter
	images   *imageconv.Converter
	log      warnings.Collector
	observer Observer
	logger   *slog.Logger
}

// New returns a Driver. log receives one banner per mod; the text converter
// appends the file warnings to the same collector.
func New(opts Options, text TextConverter, images *imageconv.Converter, log warnings.Collector) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		opts:     opts,
		text:     text,
		images:   images,
		log:      log,
		observer: nopObserver{},
		logger:   logger,
	}
}

// SetObserver installs a progress observer.
func (d *Driver) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	d.observer = o
}

// Summary describes a finished run.
type Summary struct {
	Mods        []string
	Converted   int // definition and script files
	Images      int
	Copied      int
	Skipped     int
	Corrections int
	Zips        []string
	Elapsed     time.Duration
}

// Files returns the number of files written.
func (s *Summary) Files() int {
	return s.Converted + s.Images + s.Copied
}

// Run converts every mod under the input folder.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	plan, err := d.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if len(plan.Mods) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMods, d.opts.Input)
	}
	d.observer.Planned(plan.Files())

	sum := &Summary{}
	for _, mod := range plan.Mods {
		d.logger.Info("converting mod", "mod", mod.Name, "files", len(mod.Files))
		d.log.BeginMod(mod.Name)
		sum.Mods = append(sum.Mods, mod.Name)

		for _, dir := range mod.Dirs {
			if err := fsutil.EnsureDir(filepath.Join(d.opts.Output, filepath.FromSlash(dir))); err != nil {
				return nil, fmt.Errorf("mod %s: %w", mod.Name, err)
			}
		}
		for _, rel := range mod.Files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := d.processFile(rel, sum); err != nil {
				return nil, err
			}
			d.observer.FileDone(rel)
		}
	}

	if d.opts.Zip {
		for _, mod := range plan.Mods {
			dst := filepath.Join(d.opts.Output, mod.Name+defs.ZipExt)
			if _, err := archive.ZipDir(ctx, filepath.Join(d.opts.Output, mod.Name), dst); err != nil {
				return nil, fmt.Errorf("zip mod %s: %w", mod.Name, err)
			}
			sum.Zips = append(sum.Zips, dst)
		}
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

func (d *Driver) processFile(rel string, sum *Summary) error {
	name := path.Base(rel)
	if strings.EqualFold(name, defs.DesktopINI) {
		sum.Skipped++
		return nil
	}

	in := filepath.Join(d.root(), filepath.FromSlash(rel))
	outRel := OutputName(rel)

	switch {
	case imageconv.IsImage(name):
		if d.opts.SkipConversion {
			return d.copy(in, outRel, sum)
		}
		outRel = path.Join(path.Dir(outRel), d.images.OutputName(path.Base(outRel)))
		out := d.outPath(outRel)
		if err := d.images.Convert(in, out); err != nil {
			return &convert.FileError{Path: in, Op: "convert image", Err: err}
		}
		sum.Images++
		return nil

	case isText(name):
		res, err := d.text.ConvertFile(convert.FileTask{Input: in, Output: d.outPath(outRel), RelPath: rel})
		if err != nil {
			return err
		}
		sum.Converted++
		sum.Corrections += len(res.Corrections)
		return nil

	default:
		return d.copy(in, outRel, sum)
	}
}

func (d *Driver) copy(in, outRel string, sum *Summary) error {
	if err := fsutil.CopyFile(in, d.outPath(outRel)); err != nil {
		return &convert.FileError{Path: in, Op: "copy", Err: err}
	}
	sum.Copied++
	return nil
}

func (d *Driver) outPath(rel string) string {
	return filepath.Join(d.opts.Output, filepath.FromSlash(rel))
}

// root is the folder mod paths are relative to: the input folder, or its
// parent when the input is a single mod.
func (d *Driver) root() string {
	if IsModFolder(d.opts.Input) {
		return filepath.Dir(filepath.Clean(d.opts.Input))
	}
	return d.opts.Input
}

// OutputName returns rel with its extension lower-cased.
func OutputName(rel string) string {
	ext := path.Ext(rel)
	return strings.TrimSuffix(rel, ext) + strings.ToLower(ext)
}

// IsModFolder reports whether a folder name marks a mod.
func IsModFolder(name string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(filepath.Clean(name))), defs.ModSuffix)
}

func isText(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case defs.ExtINI, defs.ExtLua:
		return true
	}
	return false
}

// Mod is one mod folder found under the input folder.
type Mod struct {
	Name  string
	Dirs  []string // slash-separated, relative to the mod root, mod folder first
	Files []string
}

// Plan lists the mods to convert and their files, in lexical order.
type Plan struct {
	Mods []Mod
}

// Files returns the number of files across all mods.
func (p *Plan) Files() int {
	n := 0
	for _, m := range p.Mods {
		n += len(m.Files)
	}
	return n
}

// Plan walks the input folder without writing anything.
func (d *Driver) Plan(ctx context.Context) (*Plan, error) {
	info, err := os.Stat(d.opts.Input)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, d.opts.Input)
	}
	for _, p := range d.opts.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("driver: invalid ignore pattern %q", p)
		}
	}

	root := d.root()
	outAbs, _ := filepath.Abs(d.opts.Output)
	plan := &Plan{}
	mods := make(map[string]int)

	err = filepath.WalkDir(d.opts.Input, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir() {
			if abs, _ := filepath.Abs(p); abs == outAbs {
				return filepath.SkipDir
			}
		}

		relOS, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel := filepath.ToSlash(relOS)
		if rel == "." {
			return nil
		}

		modName, _, _ := strings.Cut(rel, "/")
		if !IsModFolder(modName) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.ignored(rel) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		i, ok := mods[modName]
		if !ok {
			i = len(plan.Mods)
			mods[modName] = i
			plan.Mods = append(plan.Mods, Mod{Name: modName})
		}
		if entry.IsDir() {
			plan.Mods[i].Dirs = append(plan.Mods[i].Dirs, rel)
		} else if entry.Type().IsRegular() {
			plan.Mods[i].Files = append(plan.Mods[i].Files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", d.opts.Input, err)
	}
	return plan, nil
}

func (d *Driver) ignored(rel string) bool {
	for _, pat := range d.opts.Ignore {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
