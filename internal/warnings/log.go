// Package warnings collects the human-readable diagnostics produced while
// converting mods. The log is run scoped: it is reset by BeginRun, grows
// monotonically while files are processed and is read once with Finalize.
package warnings

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ModNameSeparator frames every mod banner in the report.
var ModNameSeparator = strings.Repeat("-", 50)

// Title is the sentinel first line of every report. A report that holds
// nothing but the title has nothing worth showing.
const Title = "Conversion warnings (line numbers refer to the input files)"

// Collector is the contract the conversion pipeline writes to.
type Collector interface {
	BeginMod(name string)
	Add(message string)
}

// Log is an append-only, ordered warning report.
// The pipeline is the single writer; the mutex only guards readers such as
// the watch command that may inspect a finished report concurrently.
type Log struct {
	mu      sync.Mutex
	lines   []string
	mods    int
	entries int
}

// NewLog returns a Log that has already begun a run.
func NewLog() *Log {
	l := &Log{}
	l.BeginRun()
	return l
}

// BeginRun discards everything collected so far and starts a new report.
func (l *Log) BeginRun() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = []string{Title}
	l.mods = 0
	l.entries = 0
}

// BeginMod appends a bannered header for the named mod.
func (l *Log) BeginMod(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = append(l.lines, "\n"+strings.Join([]string{ModNameSeparator, "\t" + name, ModNameSeparator}, "\n"))
	l.mods++
}

// Add appends one warning line.
func (l *Log) Add(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = append(l.lines, message)
	l.entries++
}

// Finalize returns a copy of the report and whether it holds more than the
// sentinel title, which decides whether the report is surfaced at all.
func (l *Log) Finalize() ([]string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.lines), len(l.lines) > 1
}

// Count returns the number of warning lines, excluding title and banners.
func (l *Log) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries
}

// Mods returns the number of mod banners written since BeginRun.
func (l *Log) Mods() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mods
}

// String joins the report into a single newline separated text.
func (l *Log) String() string {
	lines, _ := l.Finalize()
	return strings.Join(lines, "\n")
}

// Format renders a line-scanner warning for a matched literal pattern.
func Format(path string, line int, pattern, suggestion string) string {
	return fmt.Sprintf("%s line %d: %s -> %s", path, line, pattern, suggestion)
}
