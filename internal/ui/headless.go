package ui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// HeadlessManager decides whether the run may talk to a user. Prompts need
// stdin on a terminal; the animated progress bar also needs stderr on one,
// since that is where it draws.
type HeadlessManager struct {
	forced *bool
	stdin  uintptr
	stderr uintptr
}

// NewHeadlessManager detects headless mode from the process's stdin and
// stderr.
func NewHeadlessManager() *HeadlessManager {
	return &HeadlessManager{stdin: os.Stdin.Fd(), stderr: os.Stderr.Fd()}
}

// IsHeadless reports whether prompts must not be shown. ForceHeadless
// overrides detection.
func (h *HeadlessManager) IsHeadless() bool {
	if h.forced != nil {
		return *h.forced
	}
	return !isTerminal(h.stdin)
}

// CanAnimate reports whether redrawing progress output is safe. Piping
// stderr to a file or a CI log turns animation off even with an interactive
// stdin.
func (h *HeadlessManager) CanAnimate() bool {
	if h.forced != nil {
		return !*h.forced
	}
	return isTerminal(h.stdin) && isTerminal(h.stderr)
}

// ForceHeadless overrides detection: true for --non-interactive or
// system.non_interactive, false to force the terminal UI.
func (h *HeadlessManager) ForceHeadless(force bool) {
	h.forced = &force
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
