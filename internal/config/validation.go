package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Dynamic token patterns that must not appear in configuration values.
// These indicate unexpanded template variables.
var dynamicTokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\{[^}]+\}`),        // ${VAR}
	regexp.MustCompile(`\{\{[^}]+\}\}`),      // {{VAR}}
	regexp.MustCompile(`\$[A-Z_][A-Z0-9_]*`), // $VAR
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// @MX:ANCHOR: Validate guards every command's configuration.
// Validate checks the configuration for correctness.
// The loadedSections map indicates which sections were loaded from YAML files
// (as opposed to using defaults).
func Validate(cfg *Config, loadedSections map[string]bool) error {
	var errs []ValidationError

	errs = append(errs, validateRequired(cfg, loadedSections)...)
	errs = append(errs, validateSystem(&cfg.System)...)
	errs = append(errs, validateSettings(&cfg.Settings)...)
	errs = append(errs, validateDynamicTokens(cfg)...)

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

// validateRequired checks that required fields are populated for loaded sections.
func validateRequired(cfg *Config, loadedSections map[string]bool) []ValidationError {
	var errs []ValidationError

	if loadedSections["settings"] && strings.TrimSpace(cfg.Settings.OutputFolder) == "" {
		errs = append(errs, ValidationError{
			Field:   "settings.output_folder",
			Message: "required field is empty; remove it from .modconvert/config/sections/settings.yaml to use the default (Output)",
			Wrapped: ErrInvalidConfig,
		})
	}

	return errs
}

// validateSystem checks log level and format values.
func validateSystem(s *SystemConfig) []ValidationError {
	var errs []ValidationError

	if s.LogLevel != "" && !slices.Contains(validLogLevels, strings.ToLower(s.LogLevel)) {
		errs = append(errs, ValidationError{
			Field:   "system.log_level",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLogLevels, ", ")),
			Value:   s.LogLevel,
			Wrapped: ErrInvalidLogLevel,
		})
	}
	if s.LogFormat != "" && !slices.Contains(validLogFormats, strings.ToLower(s.LogFormat)) {
		errs = append(errs, ValidationError{
			Field:   "system.log_format",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLogFormats, ", ")),
			Value:   s.LogFormat,
			Wrapped: ErrInvalidConfig,
		})
	}
	return errs
}

// validateSettings checks folder relationships and ignore patterns.
func validateSettings(s *SettingsConfig) []ValidationError {
	var errs []ValidationError

	if s.InputFolder != "" && s.OutputFolder != "" && samePath(s.InputFolder, s.OutputFolder) {
		errs = append(errs, ValidationError{
			Field:   "settings.output_folder",
			Message: "must differ from settings.input_folder",
			Value:   s.OutputFolder,
			Wrapped: ErrInvalidConfig,
		})
	}

	for i, p := range s.Ignore {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("settings.ignore[%d]", i),
				Message: "is not a valid glob pattern",
				Value:   p,
				Wrapped: ErrInvalidPattern,
			})
		}
	}
	return errs
}

// validateDynamicTokens checks all string fields for unexpanded dynamic tokens.
func validateDynamicTokens(cfg *Config) []ValidationError {
	var errs []ValidationError

	// Settings section
	errs = append(errs, checkStringField("settings.input_folder", cfg.Settings.InputFolder)...)
	errs = append(errs, checkStringField("settings.reference_folder", cfg.Settings.ReferenceFolder)...)
	errs = append(errs, checkStringField("settings.output_folder", cfg.Settings.OutputFolder)...)
	errs = append(errs, checkStringField("settings.rules_folder", cfg.Settings.RulesFolder)...)
	errs = append(errs, checkStringField("settings.report_file", cfg.Settings.ReportFile)...)

	// System section
	errs = append(errs, checkStringField("system.log_level", cfg.System.LogLevel)...)
	errs = append(errs, checkStringField("system.log_format", cfg.System.LogFormat)...)

	return errs
}

// checkStringField checks a single string field for dynamic token patterns.
func checkStringField(field, value string) []ValidationError {
	if value == "" {
		return nil
	}
	for _, pattern := range dynamicTokenPatterns {
		if match := pattern.FindString(value); match != "" {
			return []ValidationError{
				{
					Field:   field,
					Message: fmt.Sprintf("contains unexpanded dynamic token: %s", match),
					Value:   value,
					Wrapped: ErrDynamicToken,
				},
			}
		}
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
