// Package ui renders the terminal surface of modconvert: progress while mods
// convert, folder prompts when settings are missing and the summary card.
// Every component falls back to plain line output when stdin is not a
// terminal or colour is disabled.
package ui

import "errors"

var (
	// ErrCancelled is returned when the user aborts a prompt.
	ErrCancelled = errors.New("ui: cancelled by user")

	// ErrHeadlessNoDefaults is returned when a prompt runs without a
	// terminal and no default value is available.
	ErrHeadlessNoDefaults = errors.New("ui: no terminal and no default value")
)

// Progress creates progress indicators.
type Progress interface {
	Start(title string, total int) ProgressBar
	Spinner(title string) Spinner
}

// ProgressBar is a determinate progress indicator.
type ProgressBar interface {
	Increment(n int)
	SetTitle(title string)
	Done()
}

// Spinner is an indeterminate progress indicator.
type Spinner interface {
	SetTitle(title string)
	Stop()
}

// Prompt asks the user for single values.
type Prompt interface {
	Input(label string, opts ...InputOption) (string, error)
	Confirm(label string, defaultVal bool) (bool, error)
}
