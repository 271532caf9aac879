// Package rules defines the conversion rule tables applied to mod text files.
//
// Every rule is tagged with the Stage it runs in. The pipeline executes the
// stages in a fixed order:
//
//	rename  -> per line, e.g. ".bmp" -> ".png" (protected names excluded)
//	literal -> whole text, literal substitution in table order
//	case    -> whole text, per-file case corrections (built by the pipeline)
//	regex   -> whole text, regular expressions in table order
//
// Literal rules see text that the rename stage has already changed, so a
// literal pattern ending in a renamed extension is translated before it is
// matched. Case corrections must be computed after the literal stage or they
// would target names that are about to be rewritten.
package rules

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"
)

// Stage identifies when a rule runs.
type Stage int

const (
	StageRename Stage = iota
	StageLiteral
	StageCase
	StageRegex
)

// String returns the stage name used in logs and the rules command.
func (s Stage) String() string {
	switch s {
	case StageRename:
		return "rename"
	case StageLiteral:
		return "literal"
	case StageCase:
		return "case"
	case StageRegex:
		return "regex"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Table names used to tag where a rule came from.
const (
	TableRename     = "rename"
	TableConversion = "conversion"
	TableRegex      = "regex"
	TableAudio      = "audio"
	TableCase       = "case"
)

// Rule is a single pattern -> replacement pair.
type Rule struct {
	Stage       Stage
	Table       string
	Pattern     string
	Replacement string

	re   *regexp.Regexp
	tmpl string // expansion template when it differs from Replacement
}

// Apply runs the rule once over text. Literal and case rules replace every
// literal occurrence; regex rules replace every match using Go template
// syntax ($1, ${name}). A rule never rescans its own output.
func (r Rule) Apply(text string) string {
	if r.re != nil {
		if r.tmpl != "" {
			return r.re.ReplaceAllString(text, r.tmpl)
		}
		return r.re.ReplaceAllString(text, r.Replacement)
	}
	if r.Pattern == "" {
		return text
	}
	return strings.ReplaceAll(text, r.Pattern, r.Replacement)
}

// NewCaseRule builds a case-stage rule from a reconciled reference. A span
// that starts or ends inside a file name only matches on a name boundary, so
// "a.png" never rewrites the front of "a.png.bak".
func NewCaseRule(bad, corrected string) Rule {
	r := Rule{Stage: StageCase, Table: TableCase, Pattern: bad, Replacement: corrected}
	if bad == "" {
		return r
	}
	lead, trail := "()", "()"
	if isNameByte(bad[0]) {
		lead = `(^|[^A-Za-z0-9_.\-/\\\x{80}-\x{10FFFF}])`
	}
	if isNameByte(bad[len(bad)-1]) {
		trail = `([ \t\r]|//|$)`
	}
	r.re = regexp.MustCompile(`(?m)` + lead + regexp.QuoteMeta(bad) + trail)
	r.tmpl = "${1}" + strings.ReplaceAll(corrected, "$", "$$") + "${2}"
	return r
}

// isNameByte reports whether c can be part of a file name.
func isNameByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.', c >= 0x80:
		return true
	}
	return false
}

// WarningRule is a literal pattern that triggers a warning with a suggested
// replacement. Warning rules never change text.
type WarningRule struct {
	Pattern    string
	Suggestion string
}

// RuleSet is the immutable union of all rule tables active for a run.
type RuleSet struct {
	rules     []Rule
	warnings  []WarningRule
	protected map[string]bool

	playsound     *regexp.Regexp
	playsoundHint string
}

// Rules returns every rule in execution order.
func (rs *RuleSet) Rules() []Rule {
	return slices.Clone(rs.rules)
}

// Stage yields the rules of one stage in table order.
func (rs *RuleSet) Stage(stage Stage) iter.Seq[Rule] {
	return func(yield func(Rule) bool) {
		for _, r := range rs.rules {
			if r.Stage != stage {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Warnings returns the literal warning patterns in table order.
func (rs *RuleSet) Warnings() []WarningRule {
	return slices.Clone(rs.warnings)
}

// Playsound returns the expression flagging risky sound playback and the
// suggestion attached to its warnings. The expression is nil when disabled.
func (rs *RuleSet) Playsound() (*regexp.Regexp, string) {
	return rs.playsound, rs.playsoundHint
}

// IsProtected reports whether name (a bare file name) must keep its
// original extension.
func (rs *RuleSet) IsProtected(name string) bool {
	return rs.protected[strings.ToLower(name)]
}

// Protected returns the protected file names, sorted.
func (rs *RuleSet) Protected() []string {
	names := make([]string, 0, len(rs.protected))
	for n := range rs.protected {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Count returns the number of rules per table, plus "warnings" for the
// literal warning table.
func (rs *RuleSet) Count() map[string]int {
	counts := make(map[string]int)
	for _, r := range rs.rules {
		counts[r.Table]++
	}
	counts["warnings"] = len(rs.warnings)
	return counts
}
