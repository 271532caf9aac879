// Package diff renders line diffs between an input file and its converted
// form.
package diff

import (
	"fmt"
	"strings"
)

// Op is a line-level edit.
type Op int

const (
	// Equal means the line is unchanged.
	Equal Op = iota
	// Insert means the line exists only in the new text.
	Insert
	// Delete means the line exists only in the old text.
	Delete
)

// Line is one line of an annotated diff. Old and New are 1-based line
// numbers; 0 means the line is absent on that side.
type Line struct {
	Op   Op
	Text string
	Old  int
	New  int
}

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

// Lines aligns a and b on their longest common subsequence and returns the
// full annotated sequence, deletions before insertions within a change.
func Lines(a, b []string) []Line {
	m, n := len(a), len(b)

	// lcs[i][j] is the LCS length of a[i:] and b[j:].
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	out := make([]Line, 0, max(m, n))
	i, j := 0, 0
	for i < m || j < n {
		switch {
		case i < m && j < n && a[i] == b[j]:
			out = append(out, Line{Op: Equal, Text: a[i], Old: i + 1, New: j + 1})
			i++
			j++
		case i < m && (j == n || lcs[i+1][j] >= lcs[i][j+1]):
			out = append(out, Line{Op: Delete, Text: a[i], Old: i + 1})
			i++
		default:
			out = append(out, Line{Op: Insert, Text: b[j], New: j + 1})
			j++
		}
	}
	return out
}

// Changed counts the inserted and deleted lines.
func Changed(lines []Line) int {
	n := 0
	for _, l := range lines {
		if l.Op != Equal {
			n++
		}
	}
	return n
}

// Hunk is a run of lines around one or more changes.
type Hunk struct {
	OldStart, OldCount int
	NewStart, NewCount int
	Lines              []Line
}

// Header returns the "@@ -a,b +c,d @@" header.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// Hunks groups lines into hunks with context unchanged lines on either side.
// Changes closer than twice the context share a hunk.
func Hunks(lines []Line, context int) []Hunk {
	var hunks []Hunk
	for i := 0; i < len(lines); {
		if lines[i].Op == Equal {
			i++
			continue
		}
		start := max(i-context, 0)
		end := i
		for end < len(lines) {
			if lines[end].Op != Equal {
				end++
				continue
			}
			next := end
			for next < len(lines) && next-end <= 2*context && lines[next].Op == Equal {
				next++
			}
			if next < len(lines) && next-end <= 2*context {
				end = next
				continue
			}
			break
		}
		stop := min(end+context, len(lines))
		hunks = append(hunks, newHunk(lines[start:stop], lines[:start]))
		i = stop
	}
	return hunks
}

// newHunk computes header numbers for body; before is everything preceding
// it, used to place hunks whose first line is absent on one side.
func newHunk(body, before []Line) Hunk {
	h := Hunk{Lines: body}
	for _, l := range before {
		if l.Old > 0 {
			h.OldStart = l.Old
		}
		if l.New > 0 {
			h.NewStart = l.New
		}
	}
	oldSet, newSet := false, false
	for _, l := range body {
		if l.Old > 0 {
			if !oldSet {
				h.OldStart, oldSet = l.Old, true
			}
			h.OldCount++
		}
		if l.New > 0 {
			if !newSet {
				h.NewStart, newSet = l.New, true
			}
			h.NewCount++
		}
	}
	return h
}

// Unified renders a unified diff of old and new text. Identical texts give
// an empty string.
func Unified(oldName, newName, oldText, newText string, context int) string {
	lines := Lines(Split(oldText), Split(newText))
	if Changed(lines) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", oldName, newName)
	for _, h := range Hunks(lines, context) {
		sb.WriteString(h.Header())
		sb.WriteByte('\n')
		for _, l := range h.Lines {
			sb.WriteString(Prefix(l.Op) + l.Text + "\n")
		}
	}
	return sb.String()
}

// Prefix returns the unified-diff marker for op.
func Prefix(op Op) string {
	switch op {
	case Insert:
		return "+"
	case Delete:
		return "-"
	}
	return " "
}

// Split splits text into lines without their terminators. A final newline
// does not produce an empty last line.
func Split(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
