// Package cli provides the Cobra command tree and dependency injection
// wiring for modconvert. This file defines the Dependencies struct
// (Composition Root) that holds the configuration, logger and terminal UI
// shared by every command.
package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cortexmods/modconvert/internal/config"
	"github.com/cortexmods/modconvert/internal/ui"
)

// Dependencies holds the services used by CLI commands. Conversion
// components (rules, case index, pipeline, driver) are built per run from
// the resolved settings, see job.go.
type Dependencies struct {
	Config   *config.ConfigManager
	Logger   *slog.Logger
	Theme    *ui.Theme
	Headless *ui.HeadlessManager
	Progress ui.Progress
	Prompt   ui.Prompt
}

// deps is the global dependencies instance, initialized by InitDependencies.
var deps *Dependencies

// @MX:ANCHOR: Composition root; every command reads deps after the root PersistentPreRunE has configured it.
// InitDependencies creates the dependencies with a silent logger. The real
// logger and UI are installed once the configuration is loaded.
func InitDependencies() {
	deps = &Dependencies{
		Config:   config.NewConfigManager(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Headless: ui.NewHeadlessManager(),
	}
	deps.configureUI(config.NewDefaultSystemConfig())
}

// GetDeps returns the current Dependencies instance.
// Returns nil if InitDependencies has not been called.
func GetDeps() *Dependencies {
	return deps
}

// SetDeps replaces the global dependencies (used for testing).
func SetDeps(d *Dependencies) {
	deps = d
}

// configure installs the logger and UI for the loaded system settings.
func (d *Dependencies) configure(sys config.SystemConfig, verbose bool, stderr io.Writer) {
	d.Logger = newLogger(stderr, sys.LogLevel, sys.LogFormat, verbose)
	slog.SetDefault(d.Logger)
	d.configureUI(sys)
}

func (d *Dependencies) configureUI(sys config.SystemConfig) {
	if d.Headless == nil {
		d.Headless = ui.NewHeadlessManager()
	}
	if sys.NonInteractive {
		d.Headless.ForceHeadless(true)
	}
	noColor := sys.NoColor || os.Getenv("NO_COLOR") != ""
	d.Theme = ui.NewTheme(ui.ThemeConfig{NoColor: noColor})
	d.Progress = ui.NewProgress(d.Theme, d.Headless)
	d.Prompt = ui.NewPrompt(d.Theme, d.Headless)
}

// newLogger builds the process logger. verbose forces debug level.
func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
