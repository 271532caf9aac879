package config

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cortexmods/modconvert/internal/defs"
)

// Loader reads configuration from YAML section files.
// It is thread-safe via sync.RWMutex.
type Loader struct {
	mu             sync.RWMutex
	loadedSections map[string]bool
	logger         *slog.Logger
}

// NewLoader creates a new Loader instance.
func NewLoader() *Loader {
	return &Loader{logger: slog.Default()}
}

// Load reads all configuration section files from the given .modconvert
// directory and returns a merged Config with defaults applied for missing
// fields. Missing files use default values. Invalid YAML files are skipped
// with a warning.
func (l *Loader) Load(configDir string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadedSections = make(map[string]bool)
	cfg := NewDefaultConfig()

	sectionsDir := SectionsDir(configDir)

	// If sections directory does not exist, return defaults
	if _, err := os.Stat(sectionsDir); os.IsNotExist(err) {
		l.logger.Debug("config sections directory not found, using defaults", "path", sectionsDir)
		return cfg, nil
	}

	l.loadSettingsSection(sectionsDir, cfg)
	l.loadSystemSection(sectionsDir, cfg)

	return cfg, nil
}

// SectionsDir returns the section file directory below a config directory.
func SectionsDir(configDir string) string {
	return filepath.Join(filepath.Clean(configDir), defs.ConfigSubdir, defs.SectionsSubdir)
}

// LoadedSections returns a copy of the map indicating which sections
// were successfully loaded from YAML files.
func (l *Loader) LoadedSections() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]bool, len(l.loadedSections))
	maps.Copy(result, l.loadedSections)
	return result
}

// loadSettingsSection loads the settings section from settings.yaml.
func (l *Loader) loadSettingsSection(dir string, cfg *Config) {
	wrapper := &settingsFileWrapper{Settings: cfg.Settings}
	loaded, err := loadYAMLFile(dir, defs.SettingsYAML, wrapper)
	if err != nil {
		l.logger.Warn("failed to load settings config, using defaults", "error", err)
		return
	}
	if loaded {
		cfg.Settings = wrapper.Settings
		l.loadedSections["settings"] = true
	}
}

// loadSystemSection loads the system section from system.yaml.
func (l *Loader) loadSystemSection(dir string, cfg *Config) {
	wrapper := &systemFileWrapper{System: cfg.System}
	loaded, err := loadYAMLFile(dir, defs.SystemYAML, wrapper)
	if err != nil {
		l.logger.Warn("failed to load system config, using defaults", "error", err)
		return
	}
	if loaded {
		cfg.System = wrapper.System
		l.loadedSections["system"] = true
	}
}

// loadYAMLFile reads a YAML file from the given directory and unmarshals it
// into the target struct. Returns (true, nil) if the file was found and parsed,
// (false, nil) if the file does not exist, or (false, error) on failure.
func loadYAMLFile(dir, filename string, target any) (bool, error) {
	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("parse %s: %w", filename, ErrInvalidYAML)
	}

	return true, nil
}
