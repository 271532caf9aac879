package config

import (
	"slices"

	"github.com/cortexmods/modconvert/internal/defs"
)

// Default value constants to avoid magic numbers and strings.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// DefaultIgnore lists the input paths skipped unless configured otherwise.
var DefaultIgnore = []string{"**/.git/**", "**/.svn/**", "**/.DS_Store", "**/Thumbs.db"}

// NewDefaultConfig returns a Config with all fields set to compiled defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Settings: NewDefaultSettingsConfig(),
		System:   NewDefaultSystemConfig(),
	}
}

// NewDefaultSettingsConfig returns a SettingsConfig with default values.
// Input and reference folders have no default; the convert command asks
// for them when they are missing.
func NewDefaultSettingsConfig() SettingsConfig {
	return SettingsConfig{
		OutputFolder: defs.DefaultOutputDir,
		Ignore:       slices.Clone(DefaultIgnore),
	}
}

// NewDefaultSystemConfig returns a SystemConfig with default values.
func NewDefaultSystemConfig() SystemConfig {
	return SystemConfig{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}
