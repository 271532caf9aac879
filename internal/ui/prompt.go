package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// inputConfig collects InputOption settings.
type inputConfig struct {
	key         string
	placeholder string
	defaultVal  string
	validate    func(string) error
}

// InputOption configures Prompt.Input.
type InputOption func(*inputConfig)

// WithKey names the setting the answer belongs to. Headless errors report
// it so the user knows what to configure.
func WithKey(key string) InputOption {
	return func(c *inputConfig) { c.key = key }
}

// WithPlaceholder sets the greyed-out hint.
func WithPlaceholder(s string) InputOption {
	return func(c *inputConfig) { c.placeholder = s }
}

// WithDefault pre-fills the answer.
func WithDefault(s string) InputOption {
	return func(c *inputConfig) { c.defaultVal = s }
}

// WithValidate rejects answers for which fn returns an error.
func WithValidate(fn func(string) error) InputOption {
	return func(c *inputConfig) { c.validate = fn }
}

// promptImpl implements Prompt with huh forms.
type promptImpl struct {
	theme    *Theme
	headless *HeadlessManager
}

// NewPrompt creates a Prompt. Without a terminal, Input answers with the
// WithDefault value.
func NewPrompt(theme *Theme, hm *HeadlessManager) Prompt {
	return &promptImpl{theme: theme, headless: hm}
}

// Input asks for one line of text.
func (p *promptImpl) Input(label string, opts ...InputOption) (string, error) {
	var cfg inputConfig
	for _, o := range opts {
		o(&cfg)
	}
	if p.headless.IsHeadless() {
		return p.inputHeadless(label, cfg)
	}
	return p.inputInteractive(label, cfg)
}

func (p *promptImpl) inputHeadless(label string, cfg inputConfig) (string, error) {
	v := cfg.defaultVal
	if v == "" {
		if cfg.key != "" {
			return "", fmt.Errorf("%w: %s", ErrHeadlessNoDefaults, cfg.key)
		}
		return "", fmt.Errorf("%w: %s", ErrHeadlessNoDefaults, label)
	}
	if cfg.validate != nil {
		if err := cfg.validate(v); err != nil {
			return "", fmt.Errorf("%s: %w", label, err)
		}
	}
	return v, nil
}

func (p *promptImpl) inputInteractive(label string, cfg inputConfig) (string, error) {
	value := cfg.defaultVal
	field := huh.NewInput().
		Title(label).
		Placeholder(cfg.placeholder).
		Value(&value)
	if cfg.validate != nil {
		field = field.Validate(cfg.validate)
	}
	if err := p.run(field); err != nil {
		return "", err
	}
	return value, nil
}

// Confirm asks a yes/no question. Without a terminal it answers defaultVal.
func (p *promptImpl) Confirm(label string, defaultVal bool) (bool, error) {
	if p.headless.IsHeadless() {
		return defaultVal, nil
	}
	return p.confirmInteractive(label, defaultVal)
}

func (p *promptImpl) confirmInteractive(label string, defaultVal bool) (bool, error) {
	value := defaultVal
	field := huh.NewConfirm().
		Title(label).
		Affirmative("Yes").
		Negative("No").
		Value(&value)
	if err := p.run(field); err != nil {
		return false, err
	}
	return value, nil
}

// run shows a single-field form.
func (p *promptImpl) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(p.theme.NoColor)
	if p.theme.NoColor {
		form = form.WithTheme(huh.ThemeBase())
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrCancelled
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}
