package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"

	"github.com/cortexmods/modconvert/internal/defs"
)

// EnvPrefix prefixes every environment override (MODCONVERT_INPUT_FOLDER, ...).
const EnvPrefix = "MODCONVERT_"

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = EnvPrefix + "CONFIG_DIR"

// managerState represents the lifecycle state of the ConfigManager.
type managerState int

const (
	stateUninitialized managerState = iota
	stateInitialized
	stateWatching
)

// @MX:ANCHOR: ConfigManager is the single entry point for configuration; every command reads through it.
// ConfigManager provides thread-safe configuration management.
// It must be initialized via Load() before use.
type ConfigManager struct {
	mu             sync.RWMutex
	config         *Config
	root           string
	state          managerState
	loader         *Loader
	callbacks      []func(Config)
	loadedSections map[string]bool

	// environ replaces the process environment when set (tests).
	environ map[string]string
}

// NewConfigManager creates a new ConfigManager instance in uninitialized state.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		loader: NewLoader(),
		state:  stateUninitialized,
	}
}

// @MX:NOTE: Precedence is compiled defaults < section files < MODCONVERT_* variables; command flags are applied by the caller.
// Load reads configuration from the project root's .modconvert/ directory.
// It merges file values with compiled defaults and applies environment
// variable overrides. The configuration is validated before being stored.
func (m *ConfigManager) Load(projectRoot string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.loadLocked(projectRoot)
	if err != nil {
		return nil, err
	}

	m.config = cfg
	m.root = projectRoot
	m.state = stateInitialized

	return cfg, nil
}

// ConfigDir returns the configuration directory Load reads for projectRoot.
func (m *ConfigManager) ConfigDir(projectRoot string) string {
	if envDir := m.getenv(EnvConfigDir); envDir != "" {
		return filepath.Clean(envDir)
	}
	return filepath.Join(filepath.Clean(projectRoot), defs.ConfigDir)
}

func (m *ConfigManager) loadLocked(projectRoot string) (*Config, error) {
	cfg, err := m.loader.Load(m.ConfigDir(projectRoot))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Track which sections were loaded from files
	m.loadedSections = m.loader.LoadedSections()

	// Apply environment variable overrides (higher priority than files)
	if err := applyEnvOverrides(cfg, m.environ); err != nil {
		return nil, err
	}

	// Validate the merged configuration
	if err := Validate(cfg, m.loadedSections); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns the current in-memory configuration.
// Returns nil if the manager has not been initialized via Load().
func (m *ConfigManager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// LoadedSections reports which sections came from files.
func (m *ConfigManager) LoadedSections() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.loadedSections))
	maps.Copy(out, m.loadedSections)
	return out
}

// Reload forces a re-read from disk, replacing the in-memory configuration.
// Returns ErrNotInitialized if Load() has not been called. On error the
// previous configuration stays in place.
func (m *ConfigManager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	cfg, err := m.loadLocked(m.root)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	m.config = cfg

	// Notify registered callbacks
	for _, cb := range m.callbacks {
		cb(*m.config)
	}

	return nil
}

// Watch registers a callback to be invoked when configuration is reloaded.
// Returns ErrNotInitialized if Load() has not been called.
func (m *ConfigManager) Watch(callback func(Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateUninitialized {
		return ErrNotInitialized
	}

	m.callbacks = append(m.callbacks, callback)
	m.state = stateWatching
	return nil
}

func (m *ConfigManager) getenv(key string) string {
	if m.environ != nil {
		return m.environ[key]
	}
	return os.Getenv(key)
}

// applyEnvOverrides applies MODCONVERT_* environment variables to the
// configuration. Unset variables leave the file or default value alone.
// A nil environ reads the process environment.
func applyEnvOverrides(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg.Settings, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnv, err)
	}
	if err := env.ParseWithOptions(&cfg.System, opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnv, err)
	}
	return nil
}
