package convert

import (
	"strings"

	"github.com/cortexmods/modconvert/internal/rules"
	"github.com/cortexmods/modconvert/internal/warnings"
)

// renamer performs the rename stage: every occurrence of a renamed extension
// is replaced unless the file name it terminates is protected.
type renamer struct {
	rules     []rules.Rule
	protected func(name string) bool
}

func newRenamer(rs *rules.RuleSet) renamer {
	r := renamer{protected: rs.IsProtected}
	for rule := range rs.Stage(rules.StageRename) {
		r.rules = append(r.rules, rule)
	}
	return r
}

func (r renamer) apply(s string) string {
	for _, rule := range r.rules {
		if !strings.Contains(s, rule.Pattern) {
			continue
		}
		s = r.replace(s, rule.Pattern, rule.Replacement)
	}
	return s
}

func (r renamer) replace(s, from, to string) string {
	var b strings.Builder
	b.Grow(len(s))
	rest := 0
	for {
		i := strings.Index(s[rest:], from)
		if i < 0 {
			break
		}
		at := rest + i
		end := at + len(from)
		b.WriteString(s[rest:at])
		if r.protected(s[nameStart(s, at):end]) {
			b.WriteString(from)
		} else {
			b.WriteString(to)
		}
		rest = end
	}
	b.WriteString(s[rest:])
	return b.String()
}

// nameStart returns where the bare file name ending at s[:end] begins.
// Separators, quotes, spaces and operators end a name.
func nameStart(s string, end int) int {
	i := end
	for i > 0 && isNameByte(s[i-1]) {
		i--
	}
	return i
}

func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.', c >= 0x80:
		return true
	}
	return false
}

// Scanner is the per-line stage of the pipeline. It renames image references
// and detects the lines that deserve a warning.
type Scanner struct {
	rename   bool
	renamer  renamer
	warnings []rules.WarningRule
	rs       *rules.RuleSet
}

// NewScanner returns a Scanner for rs. With rename false the scanner only
// collects warnings.
func NewScanner(rs *rules.RuleSet, rename bool) *Scanner {
	return &Scanner{
		rename:   rename,
		renamer:  newRenamer(rs),
		warnings: rs.Warnings(),
		rs:       rs,
	}
}

// ScanLine processes one line (terminator included). lineNumber is 1-based
// and relPath is the path used in warning messages.
func (s *Scanner) ScanLine(line string, lineNumber int, relPath string) (string, []string) {
	var found []string

	// The playsound check looks at the line as written.
	if re, hint := s.rs.Playsound(); re != nil {
		for _, m := range re.FindAllString(line, -1) {
			found = append(found, warnings.Format(relPath, lineNumber, m, hint))
		}
	}

	if s.rename {
		line = s.renamer.apply(line)
	}

	for _, w := range s.warnings {
		if strings.Contains(line, w.Pattern) {
			found = append(found, warnings.Format(relPath, lineNumber, w.Pattern, w.Suggestion))
		}
	}
	return line, found
}
