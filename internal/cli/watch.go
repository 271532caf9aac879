package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/cortexmods/modconvert/internal/config"
	"github.com/cortexmods/modconvert/internal/fsutil"
)

// watchDebounce is how long the input must stay quiet before a re-run.
const watchDebounce = 300 * time.Millisecond

func newWatchCmd() *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Convert, then convert again whenever the input changes",
		Long: `Watch runs a conversion and keeps watching the input folder. Any change
below it (except inside the output folder) triggers a new run once the
folder has been quiet for a moment. Edits to the configuration files are
picked up on the next run. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, f)
		},
	}
	addConvertFlags(cmd, &f)
	return cmd
}

func runWatch(cmd *cobra.Command, f convertFlags) error {
	ctx := cmd.Context()
	cfg := deps.Config.Get()
	s := resolveSettings(cmd, cfg.Settings, f)
	if err := completeSettings(&s, cfg.System, deps.Prompt); err != nil {
		return err
	}

	// Config edits re-resolve the settings; flags still win.
	settings := make(chan config.SettingsConfig, 1)
	if err := deps.Config.Watch(func(c config.Config) {
		next := resolveSettings(cmd, c.Settings, f)
		next.InputFolder = s.InputFolder
		next.ReferenceFolder = s.ReferenceFolder
		select {
		case <-settings:
		default:
		}
		settings <- next
	}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	convertOnce := func(ctx context.Context) error {
		select {
		case next := <-settings:
			s = next
		default:
		}
		j := job{settings: s, logger: deps.Logger, progress: deps.Progress}
		res, err := j.run(ctx)
		if err != nil {
			return err
		}
		finishBell(cmd.ErrOrStderr(), s.FinishBell)
		return report(out, deps.Theme, s.ReportFile, res)
	}
	if err := convertOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		deps.Logger.Error("conversion failed", "error", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init: %w", err)
	}
	defer w.Close()

	skip := []string{s.OutputFolder, s.ReportFile}
	if err := addWatchRecursive(w, s.InputFolder, skip); err != nil {
		return fmt.Errorf("watch %s: %w", s.InputFolder, err)
	}
	cfgDir := config.SectionsDir(deps.Config.ConfigDir(projectFlag(cmd)))
	if info, err := os.Stat(cfgDir); err == nil && info.IsDir() {
		if err := w.Add(cfgDir); err != nil {
			deps.Logger.Warn("cannot watch configuration", "dir", cfgDir, "error", err)
		} else {
			deps.Logger.Debug("watching configuration", "dir", cfgDir)
		}
	}

	_, _ = fmt.Fprintln(out, deps.Theme.Style(deps.Theme.Colors.Muted).Render(
		fmt.Sprintf("Watching %s for changes (Ctrl-C to stop)", s.InputFolder)))

	l := &watchLoop{
		debounce:  watchDebounce,
		skip:      skip,
		configDir: cfgDir,
		add: func(dir string) error {
			return addWatchRecursive(w, dir, skip)
		},
		reload: deps.Config.Reload,
		run:    convertOnce,
		logger: deps.Logger,
		out:    out,
	}
	return l.loop(ctx, w.Events, w.Errors)
}

func projectFlag(cmd *cobra.Command) string {
	if fl := cmd.Flag("project"); fl != nil {
		return fl.Value.String()
	}
	return "."
}

// watchLoop turns a stream of file events into debounced conversion runs.
// Runs happen on the loop goroutine, one at a time.
type watchLoop struct {
	debounce  time.Duration
	skip      []string
	configDir string
	add       func(dir string) error
	reload    func() error
	run       func(ctx context.Context) error
	logger    *slog.Logger
	out       io.Writer
}

func (l *watchLoop) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	timer := time.NewTimer(l.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := false
	reload := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if l.skipped(ev.Name) {
				continue
			}
			if l.configDir != "" && filepath.Dir(ev.Name) == filepath.Clean(l.configDir) {
				reload = true
			} else if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := l.add(ev.Name); err != nil {
						l.logger.Warn("cannot watch new folder", "dir", ev.Name, "error", err)
					}
				}
			}
			l.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(l.debounce)
			pending = true

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			l.logger.Error("watch error", "error", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if reload {
				reload = false
				if err := l.reload(); err != nil {
					l.logger.Error("configuration not reloaded", "error", err)
				}
			}
			if err := l.run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				l.logger.Error("conversion failed", "error", err)
				continue
			}
			_, _ = fmt.Fprintf(l.out, "Converted at %s\n", time.Now().Format(time.TimeOnly))
		}
	}
}

func (l *watchLoop) skipped(name string) bool {
	if fsutil.IsTempFile(name) {
		return true
	}
	for _, dir := range l.skip {
		if dir != "" && within(dir, name) {
			return true
		}
	}
	return false
}

// within reports whether p is dir or lies below it.
func within(dir, p string) bool {
	d, err1 := filepath.Abs(dir)
	a, err2 := filepath.Abs(p)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(d, a)
	return err == nil && (rel == "." || filepath.IsLocal(rel))
}

// addWatchRecursive watches root and every folder below it, except the
// folders in skip and hidden folders such as .git.
func addWatchRecursive(w *fsnotify.Watcher, root string, skip []string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		for _, s := range skip {
			if s != "" && within(s, p) {
				return filepath.SkipDir
			}
		}
		return w.Add(p)
	})
}
