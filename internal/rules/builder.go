package rules

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Builder assembles a RuleSet. Rules keep the order in which they are added;
// Build sorts them stage by stage without disturbing the order inside a stage.
type Builder struct {
	rules     []Rule
	index     map[string]int // table + "\x00" + pattern -> position in rules
	warnings  []WarningRule
	warnIndex map[string]int
	protected map[string]bool

	playsound     *regexp.Regexp
	playsoundHint string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		index:     make(map[string]int),
		warnIndex: make(map[string]int),
		protected: make(map[string]bool),
	}
}

// AddRename registers an extension rename for the rename stage.
func (b *Builder) AddRename(from, to string) error {
	if !strings.HasPrefix(from, ".") || !strings.HasPrefix(to, ".") {
		return fmt.Errorf("%w: rename %q -> %q must map extensions", ErrInvalidRule, from, to)
	}
	b.put(Rule{Stage: StageRename, Table: TableRename, Pattern: from, Replacement: to})
	return nil
}

// AddLiteral registers a literal conversion rule. Adding a pattern that the
// table already holds replaces its replacement but keeps its position.
func (b *Builder) AddLiteral(table, pattern, replacement string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty literal pattern in table %q", ErrInvalidRule, table)
	}
	b.put(Rule{Stage: StageLiteral, Table: table, Pattern: pattern, Replacement: replacement})
	return nil
}

// AddRegex compiles and registers a regex rule.
func (b *Builder) AddRegex(table, pattern, replacement string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty regex pattern in table %q", ErrInvalidRule, table)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: table %q: %w", ErrInvalidRule, table, err)
	}
	b.put(Rule{Stage: StageRegex, Table: table, Pattern: pattern, Replacement: replacement, re: re})
	return nil
}

// AddWarning registers a literal warning pattern.
func (b *Builder) AddWarning(pattern, suggestion string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty warning pattern", ErrInvalidRule)
	}
	if i, ok := b.warnIndex[pattern]; ok {
		b.warnings[i].Suggestion = suggestion
		return nil
	}
	b.warnIndex[pattern] = len(b.warnings)
	b.warnings = append(b.warnings, WarningRule{Pattern: pattern, Suggestion: suggestion})
	return nil
}

// SetPlaysound sets the expression that flags risky sound playback.
// An empty pattern disables the check.
func (b *Builder) SetPlaysound(pattern, suggestion string) error {
	if pattern == "" {
		b.playsound, b.playsoundHint = nil, ""
		return nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: playsound: %w", ErrInvalidRule, err)
	}
	b.playsound, b.playsoundHint = re, suggestion
	return nil
}

// Protect marks bare file names whose extension must never be renamed.
func (b *Builder) Protect(names ...string) {
	for _, n := range names {
		b.protected[strings.ToLower(n)] = true
	}
}

func (b *Builder) put(r Rule) {
	key := r.Table + "\x00" + r.Pattern
	if i, ok := b.index[key]; ok {
		b.rules[i] = r
		return
	}
	b.index[key] = len(b.rules)
	b.rules = append(b.rules, r)
}

// Build returns the immutable RuleSet.
func (b *Builder) Build() *RuleSet {
	ordered := slices.Clone(b.rules)
	slices.SortStableFunc(ordered, func(x, y Rule) int {
		return int(x.Stage) - int(y.Stage)
	})
	return &RuleSet{
		rules:         ordered,
		warnings:      slices.Clone(b.warnings),
		protected:     maps.Clone(b.protected),
		playsound:     b.playsound,
		playsoundHint: b.playsoundHint,
	}
}
