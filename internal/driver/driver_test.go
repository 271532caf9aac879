package driver

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/cortexmods/modconvert/internal/caseindex"
	"github.com/cortexmods/modconvert/internal/convert"
	"github.com/cortexmods/modconvert/internal/imageconv"
	"github.com/cortexmods/modconvert/internal/rules"
	"github.com/cortexmods/modconvert/internal/warnings"
)

type recorder struct {
	planned int
	done    []string
}

func (r *recorder) Planned(n int)       { r.planned = n }
func (r *recorder) FileDone(rel string) { r.done = append(r.done, rel) }

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readOut(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

type fixture struct {
	input, output string
	log           *warnings.Log
	driver        *Driver
}

func newFixture(t *testing.T, files map[string]string, opts Options, ix caseindex.Lookuper) *fixture {
	t.Helper()

	rs, err := rules.Defaults()
	if err != nil {
		t.Fatalf("Defaults() error: %v", err)
	}
	dir := t.TempDir()
	f := &fixture{
		input:  filepath.Join(dir, "Input"),
		output: filepath.Join(dir, "Output"),
		log:    warnings.NewLog(),
	}
	writeTree(t, f.input, files)

	if opts.Input == "" {
		opts.Input = f.input
	}
	opts.Output = f.output
	p := convert.New(rs, ix, f.log, convert.Options{Convert: !opts.SkipConversion, CaseCheck: ix != nil})
	f.driver = New(opts, p, imageconv.New(rs.IsProtected), f.log)
	return f
}

func TestRun_ConvertsMods(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"Mod.rte/Index.ini":          "DataModule\n\tIconFile = Mod.rte/Icon.bmp\n",
		"Mod.rte/Actors/unit.ini":    "Bitmap = SpriteSheet.bmp\n",
		"Mod.rte/Scripts/Gun.LUA":    "local w = require(\"weapon\")\n",
		"Mod.rte/Scripts/Weapon.lua": "return {}\n",
		"Mod.rte/Sounds/Hit.WAV":     "RIFF",
		"Mod.rte/desktop.ini":        "[.ShellClassInfo]\n",
		"Mod.rte/Empty/.keep":        "",
		"readme.txt":                 "not in a mod",
		"Loose/Other.ini":            "not a mod folder",
	}, Options{}, caseindex.New())
	rec := &recorder{}
	f.driver.SetObserver(rec)

	sum, err := f.driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if !slices.Equal(sum.Mods, []string{"Mod.rte"}) {
		t.Errorf("Mods = %v", sum.Mods)
	}
	if sum.Converted != 4 || sum.Copied != 2 || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if rec.planned != 7 || len(rec.done) != 7 {
		t.Errorf("observer planned %d, saw %d files", rec.planned, len(rec.done))
	}

	if got := readOut(t, f.output, "Mod.rte/Actors/unit.ini"); got != "Bitmap = SpriteSheet.png\n" {
		t.Errorf("unit.ini = %q", got)
	}
	if got := readOut(t, f.output, "Mod.rte/Scripts/Gun.lua"); got != "local w = require(\"weapon\")\n" {
		t.Errorf("Gun.lua = %q (index is empty, nothing to correct)", got)
	}
	if got := readOut(t, f.output, "Mod.rte/Sounds/Hit.wav"); got != "RIFF" {
		t.Errorf("Hit.wav = %q", got)
	}
	for _, rel := range []string{"Mod.rte/desktop.ini", "readme.txt", "Loose/Other.ini"} {
		if _, err := os.Stat(filepath.Join(f.output, filepath.FromSlash(rel))); !os.IsNotExist(err) {
			t.Errorf("%s should not be written", rel)
		}
	}
	if info, err := os.Stat(filepath.Join(f.output, "Mod.rte", "Empty")); err != nil || !info.IsDir() {
		t.Error("folder structure not mirrored")
	}
}

func TestRun_BannerPerMod(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"A.rte/a.ini": "X = 1\n",
		"B.rte/b.ini": "Y = 2\n",
	}, Options{}, nil)
	if _, err := f.driver.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if f.log.Mods() != 2 || f.log.Count() != 0 {
		t.Errorf("Mods() = %d, Count() = %d", f.log.Mods(), f.log.Count())
	}
	s := f.log.String()
	if strings.Index(s, "\tA.rte") > strings.Index(s, "\tB.rte") {
		t.Errorf("mods out of order:\n%s", s)
	}
}

func TestRun_SingleModInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"Solo.rte/Index.ini": "IconFile = Solo.rte/icon.bmp\n",
	}, Options{}, nil)
	f.driver.opts.Input = filepath.Join(f.input, "Solo.rte")

	sum, err := f.driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !slices.Equal(sum.Mods, []string{"Solo.rte"}) {
		t.Errorf("Mods = %v", sum.Mods)
	}
	if got := readOut(t, f.output, "Solo.rte/Index.ini"); got != "IconFile = Solo.rte/icon.png\n" {
		t.Errorf("Index.ini = %q", got)
	}
}

func TestRun_CaseCorrection(t *testing.T) {
	t.Parallel()

	ix := caseindex.New()
	ix.Add("Mod.rte/Images/Door.png")
	f := newFixture(t, map[string]string{
		"Mod.rte/door.ini": "SpriteFile = mod.rte/images/DOOR.bmp\n",
	}, Options{}, ix)

	sum, err := f.driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := readOut(t, f.output, "Mod.rte/door.ini"); got != "SpriteFile = Mod.rte/Images/Door.png\n" {
		t.Errorf("door.ini = %q", got)
	}
	if sum.Corrections != 1 {
		t.Errorf("Corrections = %d", sum.Corrections)
	}
}

func TestRun_SkipConversionCopies(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"Mod.rte/unit.ini": "Bitmap = SpriteSheet.bmp\r\n",
		"Mod.rte/Door.BMP": "BM not decoded",
	}, Options{SkipConversion: true}, nil)

	sum, err := f.driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if got := readOut(t, f.output, "Mod.rte/unit.ini"); got != "Bitmap = SpriteSheet.bmp\r\n" {
		t.Errorf("unit.ini = %q", got)
	}
	if got := readOut(t, f.output, "Mod.rte/Door.bmp"); got != "BM not decoded" {
		t.Errorf("Door.bmp = %q", got)
	}
	if sum.Images != 0 || sum.Copied != 1 || sum.Converted != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRun_IgnorePatterns(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"Mod.rte/a.ini":          "A = 1\n",
		"Mod.rte/.git/config":    "[core]\n",
		"Mod.rte/Backup/old.ini": "B = 2\n",
	}, Options{Ignore: []string{"**/.git/**", "*.rte/Backup/**"}}, nil)

	plan, err := f.driver.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Mods) != 1 || !slices.Equal(plan.Mods[0].Files, []string{"Mod.rte/a.ini"}) {
		t.Errorf("plan = %+v", plan.Mods)
	}

	f.driver.opts.Ignore = []string{"[bad"}
	if _, err := f.driver.Plan(context.Background()); err == nil {
		t.Error("Plan() expected error for invalid pattern")
	}
}

func TestRun_Zip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{
		"Mod.rte/a.ini": "A = x.bmp\n",
	}, Options{Zip: true}, nil)

	sum, err := f.driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := filepath.Join(f.output, "Mod.rte.zip")
	if !slices.Equal(sum.Zips, []string{want}) {
		t.Fatalf("Zips = %v", sum.Zips)
	}
	r, err := zip.OpenReader(want)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var names []string
	for _, zf := range r.File {
		names = append(names, zf.Name)
	}
	if !slices.Contains(names, "Mod.rte/a.ini") {
		t.Errorf("entries = %v", names)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"readme.txt": "x"}, Options{}, nil)
	if _, err := f.driver.Run(context.Background()); !errors.Is(err, ErrNoMods) {
		t.Errorf("Run() error = %v, want ErrNoMods", err)
	}

	f.driver.opts.Input = filepath.Join(f.input, "missing")
	if _, err := f.driver.Run(context.Background()); !errors.Is(err, ErrInputNotFound) {
		t.Errorf("Run() error = %v, want ErrInputNotFound", err)
	}

	g := newFixture(t, map[string]string{"Mod.rte/a.ini": "A = 1\n"}, Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.driver.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRun_CorruptBitmapFailsLoud(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"Mod.rte/Bad.bmp": "nope"}, Options{}, nil)
	_, err := f.driver.Run(context.Background())
	var fe *convert.FileError
	if !errors.As(err, &fe) || !strings.HasSuffix(fe.Path, "Bad.bmp") {
		t.Errorf("Run() error = %v, want FileError for Bad.bmp", err)
	}
}

func TestRun_OutputInsideInputSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t, map[string]string{"Mod.rte/a.ini": "A = 1\n"}, Options{}, nil)
	f.driver.opts.Output = filepath.Join(f.input, "Mod.rte", "Converted")
	writeTree(t, f.driver.opts.Output, map[string]string{"stale.ini": "old"})

	plan, err := f.driver.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if !slices.Equal(plan.Mods[0].Files, []string{"Mod.rte/a.ini"}) {
		t.Errorf("Files = %v", plan.Mods[0].Files)
	}
}

func TestOutputName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Mod.rte/Gun.LUA":  "Mod.rte/Gun.lua",
		"Mod.rte/Door.Png": "Mod.rte/Door.png",
		"Mod.rte/Makefile": "Mod.rte/Makefile",
		"Mod.RTE/Unit.ini": "Mod.RTE/Unit.ini",
	}
	for in, want := range tests {
		if got := OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
