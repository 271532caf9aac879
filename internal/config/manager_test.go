package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cortexmods/modconvert/internal/defs"
)

// writeSection creates a section file below root/.modconvert/config/sections.
func writeSection(t *testing.T, root, name, content string) {
	t.Helper()
	dir := SectionsDir(filepath.Join(root, defs.ConfigDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestManager(environ map[string]string) *ConfigManager {
	m := NewConfigManager()
	if environ == nil {
		environ = map[string]string{}
	}
	m.environ = environ
	return m
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	m := newTestManager(nil)
	cfg, err := m.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Settings.OutputFolder != defs.DefaultOutputDir {
		t.Errorf("OutputFolder = %q", cfg.Settings.OutputFolder)
	}
	if !slices.Equal(cfg.Settings.Ignore, DefaultIgnore) {
		t.Errorf("Ignore = %v", cfg.Settings.Ignore)
	}
	if cfg.System.LogLevel != DefaultLogLevel || cfg.System.LogFormat != DefaultLogFormat {
		t.Errorf("System = %+v", cfg.System)
	}
	if len(m.LoadedSections()) != 0 {
		t.Errorf("LoadedSections() = %v", m.LoadedSections())
	}
}

func TestLoad_SectionFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSection(t, root, defs.SettingsYAML, `settings:
  input_folder: Mods
  reference_folder: /games/cccp/Data
  skip_case_check: true
  output_zips: true
  ignore:
    - "**/Backup/**"
`)
	writeSection(t, root, defs.SystemYAML, "system:\n  log_level: debug\n")

	m := newTestManager(nil)
	cfg, err := m.Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	s := cfg.Settings
	if s.InputFolder != "Mods" || s.ReferenceFolder != "/games/cccp/Data" || !s.SkipCaseCheck || !s.OutputZips {
		t.Errorf("Settings = %+v", s)
	}
	if s.OutputFolder != defs.DefaultOutputDir {
		t.Errorf("missing key should keep default, got %q", s.OutputFolder)
	}
	if !slices.Equal(s.Ignore, []string{"**/Backup/**"}) {
		t.Errorf("Ignore = %v", s.Ignore)
	}
	if cfg.System.LogLevel != "debug" || cfg.System.LogFormat != DefaultLogFormat {
		t.Errorf("System = %+v", cfg.System)
	}
	if got := m.LoadedSections(); !got["settings"] || !got["system"] {
		t.Errorf("LoadedSections() = %v", got)
	}
}

func TestLoad_InvalidYAMLUsesDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSection(t, root, defs.SettingsYAML, "settings: [unclosed\n")

	m := newTestManager(nil)
	cfg, err := m.Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Settings.OutputFolder != defs.DefaultOutputDir || m.LoadedSections()["settings"] {
		t.Errorf("invalid file should be skipped, got %+v", cfg.Settings)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSection(t, root, defs.SettingsYAML, "settings:\n  input_folder: FromFile\n  output_folder: Out\n")

	m := newTestManager(map[string]string{
		"MODCONVERT_INPUT_FOLDER":    "FromEnv",
		"MODCONVERT_SKIP_CONVERSION": "true",
		"MODCONVERT_IGNORE":          "**/a/**,**/b/**",
		"MODCONVERT_LOG_LEVEL":       "warn",
		"MODCONVERT_NO_COLOR":        "1",
	})
	cfg, err := m.Load(root)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Settings.InputFolder != "FromEnv" || !cfg.Settings.SkipConversion {
		t.Errorf("Settings = %+v", cfg.Settings)
	}
	if cfg.Settings.OutputFolder != "Out" {
		t.Errorf("unset variable overwrote file value: %q", cfg.Settings.OutputFolder)
	}
	if !slices.Equal(cfg.Settings.Ignore, []string{"**/a/**", "**/b/**"}) {
		t.Errorf("Ignore = %v", cfg.Settings.Ignore)
	}
	if cfg.System.LogLevel != "warn" || !cfg.System.NoColor {
		t.Errorf("System = %+v", cfg.System)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Parallel()

	m := newTestManager(map[string]string{"MODCONVERT_OUTPUT_ZIPS": "maybe"})
	if _, err := m.Load(t.TempDir()); !errors.Is(err, ErrInvalidEnv) {
		t.Errorf("Load() error = %v, want ErrInvalidEnv", err)
	}
}

func TestLoad_ConfigDirOverride(t *testing.T) {
	t.Parallel()

	other := t.TempDir()
	writeSection(t, other, defs.SystemYAML, "system:\n  log_format: json\n")

	m := newTestManager(map[string]string{EnvConfigDir: filepath.Join(other, defs.ConfigDir)})
	cfg, err := m.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.System.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json from overridden dir", cfg.System.LogFormat)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeSection(t, root, defs.SystemYAML, "system:\n  log_level: loud\n")

	m := newTestManager(nil)
	_, err := m.Load(root)
	if !errors.Is(err, ErrInvalidLogLevel) || !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Load() error = %v", err)
	}
	if m.Get() != nil {
		t.Error("Get() should stay nil after a failed Load")
	}
}

func TestReloadAndWatch(t *testing.T) {
	t.Parallel()

	m := newTestManager(nil)
	if err := m.Reload(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Reload() before Load error = %v", err)
	}
	if err := m.Watch(func(Config) {}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Watch() before Load error = %v", err)
	}

	root := t.TempDir()
	if _, err := m.Load(root); err != nil {
		t.Fatal(err)
	}
	var seen []string
	if err := m.Watch(func(c Config) { seen = append(seen, c.Settings.InputFolder) }); err != nil {
		t.Fatal(err)
	}

	writeSection(t, root, defs.SettingsYAML, "settings:\n  input_folder: Mods\n")
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if m.Get().Settings.InputFolder != "Mods" || !slices.Equal(seen, []string{"Mods"}) {
		t.Errorf("after reload: cfg %+v, callbacks %v", m.Get().Settings, seen)
	}

	writeSection(t, root, defs.SystemYAML, "system:\n  log_level: loud\n")
	if err := m.Reload(); err == nil {
		t.Error("Reload() expected validation error")
	}
	if m.Get().Settings.InputFolder != "Mods" {
		t.Error("failed reload replaced the configuration")
	}
}
