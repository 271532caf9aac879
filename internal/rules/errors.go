package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors for rule loading.
var (
	// ErrInvalidRule indicates a rule that cannot be used (empty or bad regex).
	ErrInvalidRule = errors.New("rules: invalid rule")

	// ErrDuplicateKey indicates the same pattern appears twice in one table file.
	ErrDuplicateKey = errors.New("rules: duplicate key")

	// ErrMalformedTable indicates a rule file whose shape is not what its
	// table expects (mapping vs. sequence, non-string values).
	ErrMalformedTable = errors.New("rules: malformed table")

	// ErrRulesDirNotFound indicates the configured rules directory is missing.
	ErrRulesDirNotFound = errors.New("rules: rules directory not found")
)

// LoadError locates a rule file problem.
type LoadError struct {
	File string
	Line int // 1-based; 0 when unknown
	Err  error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
