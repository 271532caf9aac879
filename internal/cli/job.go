package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cortexmods/modconvert/internal/archive"
	"github.com/cortexmods/modconvert/internal/caseindex"
	"github.com/cortexmods/modconvert/internal/config"
	"github.com/cortexmods/modconvert/internal/convert"
	"github.com/cortexmods/modconvert/internal/defs"
	"github.com/cortexmods/modconvert/internal/driver"
	"github.com/cortexmods/modconvert/internal/imageconv"
	"github.com/cortexmods/modconvert/internal/rules"
	"github.com/cortexmods/modconvert/internal/ui"
	"github.com/cortexmods/modconvert/internal/warnings"
)

// ErrNoInput is returned when no input folder is configured and none can be
// prompted for.
var ErrNoInput = errors.New("cli: no input folder configured")

// convertFlags mirror the settings section for one run.
type convertFlags struct {
	input          string
	reference      string
	output         string
	rules          string
	report         string
	skipConversion bool
	skipCaseCheck  bool
	zip            bool
	unzip          bool
	bell           bool
}

func addConvertFlags(cmd *cobra.Command, f *convertFlags) {
	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "folder of mods to convert, or a single *.rte folder")
	fl.StringVarP(&f.reference, "reference", "r", "", "game data folder used to reconcile file name casing")
	fl.StringVarP(&f.output, "output", "o", "", "folder the converted mods are written to")
	fl.StringVar(&f.rules, "rules", "", "folder of extra rule tables")
	fl.StringVar(&f.report, "report", "", "write the warning report to this file")
	fl.BoolVar(&f.skipConversion, "skip-conversion", false, "only collect warnings; copy files unchanged")
	fl.BoolVar(&f.skipCaseCheck, "skip-case-check", false, "do not reconcile file name casing")
	fl.BoolVar(&f.zip, "zip", false, "zip every converted mod")
	fl.BoolVar(&f.unzip, "unzip", false, "extract *.zip files in the input folder first")
	fl.BoolVar(&f.bell, "bell", false, "ring the terminal bell when the conversion finishes")
}

// resolveSettings applies the flags the user actually set on top of the
// configured settings.
func resolveSettings(cmd *cobra.Command, base config.SettingsConfig, f convertFlags) config.SettingsConfig {
	s := base
	s.Ignore = slices.Clone(base.Ignore)
	fl := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool, v bool) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	set("input", &s.InputFolder, f.input)
	set("reference", &s.ReferenceFolder, f.reference)
	set("output", &s.OutputFolder, f.output)
	set("rules", &s.RulesFolder, f.rules)
	set("report", &s.ReportFile, f.report)
	setBool("skip-conversion", &s.SkipConversion, f.skipConversion)
	setBool("skip-case-check", &s.SkipCaseCheck, f.skipCaseCheck)
	setBool("zip", &s.OutputZips, f.zip)
	setBool("unzip", &s.UnzipInputs, f.unzip)
	setBool("bell", &s.FinishBell, f.bell)
	return s
}

// completeSettings prompts for missing folders and validates the result.
// The reference folder is optional: without one, casing is reconciled
// against the input tree alone.
func completeSettings(s *config.SettingsConfig, sys config.SystemConfig, prompt ui.Prompt) error {
	if s.InputFolder == "" {
		v, err := prompt.Input("Folder with the mods to convert",
			ui.WithKey("input_folder"),
			ui.WithPlaceholder("Mods"),
			ui.WithValidate(requireDir))
		if err != nil {
			if errors.Is(err, ui.ErrHeadlessNoDefaults) {
				return fmt.Errorf("%w: pass --input or set settings.input_folder", ErrNoInput)
			}
			return err
		}
		s.InputFolder = v
	}
	if s.ReferenceFolder == "" && !s.SkipConversion && !s.SkipCaseCheck {
		v, err := prompt.Input("Game data folder for case checks (empty to skip)",
			ui.WithKey("reference_folder"),
			ui.WithValidate(optionalDir))
		switch {
		case errors.Is(err, ui.ErrHeadlessNoDefaults):
		case err != nil:
			return err
		default:
			s.ReferenceFolder = v
		}
	}
	if err := requireDir(s.InputFolder); err != nil {
		return fmt.Errorf("input folder: %w", err)
	}
	if s.ReferenceFolder != "" {
		if err := requireDir(s.ReferenceFolder); err != nil {
			return fmt.Errorf("reference folder: %w", err)
		}
	}
	return config.Validate(&config.Config{Settings: *s, System: sys}, nil)
}

func requireDir(p string) error {
	if strings.TrimSpace(p) == "" {
		return errors.New("folder is required")
	}
	info, err := os.Stat(p)
	if err != nil {
		return fmt.Errorf("%s: %w", p, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a folder", p)
	}
	return nil
}

func optionalDir(p string) error {
	if strings.TrimSpace(p) == "" {
		return nil
	}
	return requireDir(p)
}

// job is one conversion run over fully resolved settings.
type job struct {
	settings config.SettingsConfig
	logger   *slog.Logger
	progress ui.Progress
}

// outcome is what a finished job reports.
type outcome struct {
	summary  *driver.Summary
	log      *warnings.Log
	rules    *rules.RuleSet
	indexed  int
	unzipped []string
}

// run unpacks archives, loads rules, builds the case index and converts
// every mod.
func (j job) run(ctx context.Context) (*outcome, error) {
	s := j.settings
	out := &outcome{}

	if s.UnzipInputs {
		sp := j.progress.Spinner("Extracting archives")
		done, err := archive.ExtractAll(ctx, s.InputFolder)
		sp.Stop()
		if err != nil {
			return nil, fmt.Errorf("extract archives: %w", err)
		}
		out.unzipped = done
		j.logger.Info("extracted archives", "count", len(done))
	}

	rs, err := rules.Load(rules.Options{Dir: s.RulesFolder, Logger: j.logger})
	if err != nil {
		return nil, err
	}
	out.rules = rs

	convertText := !s.SkipConversion
	var ix caseindex.Lookuper
	if convertText && !s.SkipCaseCheck {
		sp := j.progress.Spinner("Indexing file names")
		built, err := buildIndex(ctx, s, rs, j.logger)
		sp.Stop()
		if err != nil {
			return nil, err
		}
		ix = built
		out.indexed = built.Len()
	}

	out.log = warnings.NewLog()
	pipe := convert.New(rs, ix, out.log, convert.Options{
		Convert:   convertText,
		CaseCheck: ix != nil,
		Logger:    j.logger,
	})
	drv := driver.New(driver.Options{
		Input:          s.InputFolder,
		Output:         s.OutputFolder,
		SkipConversion: s.SkipConversion,
		Zip:            s.OutputZips,
		Ignore:         s.Ignore,
		Logger:         j.logger,
	}, pipe, imageconv.New(rs.IsProtected), out.log)

	obs := ui.NewConversionObserver(j.progress, "Converting")
	drv.SetObserver(obs)
	sum, err := drv.Run(ctx)
	obs.Finish()
	if err != nil {
		return nil, err
	}
	out.summary = sum
	return out, nil
}

// buildIndex indexes the reference folder first, then the input tree, so
// the game's own casing wins over a mod's copy of the same file.
func buildIndex(ctx context.Context, s config.SettingsConfig, rs *rules.RuleSet, logger *slog.Logger) (*caseindex.Index, error) {
	var roots []caseindex.Root
	if s.ReferenceFolder != "" {
		r, err := caseindex.DirRoot(s.ReferenceFolder)
		if err != nil {
			return nil, err
		}
		roots = append(roots, r)
	}
	in, err := caseindex.DirRoot(s.InputFolder)
	if err != nil {
		return nil, err
	}
	roots = append(roots, in)

	ignore := slices.Clone(s.Ignore)
	if p, ok := nestedPattern(s.InputFolder, s.OutputFolder); ok {
		ignore = append(ignore, p)
	}
	return caseindex.Build(ctx, roots, caseindex.BuildOptions{
		RenameExt: map[string]string{defs.ExtBMP: defs.ExtPNG},
		Protected: rs.IsProtected,
		Ignore:    ignore,
		Logger:    logger,
	})
}

// nestedPattern returns a doublestar pattern matching child and everything
// below it when child lies inside parent.
func nestedPattern(parent, child string) (string, bool) {
	p, err1 := filepath.Abs(parent)
	c, err2 := filepath.Abs(child)
	if err1 != nil || err2 != nil {
		return "", false
	}
	rel, err := filepath.Rel(p, c)
	if err != nil || rel == "." || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel) + "/**", true
}
