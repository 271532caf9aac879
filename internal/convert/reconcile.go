package convert

import (
	"cmp"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/cortexmods/modconvert/internal/caseindex"
	"github.com/cortexmods/modconvert/internal/defs"
	"github.com/cortexmods/modconvert/internal/rules"
)

// Reference is one file reference found on a line.
type Reference struct {
	// Text is the exact span as written, e.g. `SpriteFile = Base.rte/a.png`
	// or `"weapon.lua"`. Corrections replace whole spans so unrelated text
	// that merely contains the same name is left alone.
	Text string

	// Name is the file reference inside Text, starting at Offset.
	Name   string
	Offset int

	// Module marks an extension-less require() module name.
	Module bool
}

// Grammar extracts candidate file references from one line.
type Grammar interface {
	Extract(line string) []Reference
}

// DefinitionGrammar reads "Key = value" lines of .ini definition files.
type DefinitionGrammar struct{}

// ScriptGrammar reads quoted literals and require() calls of .lua scripts.
type ScriptGrammar struct{}

// GrammarFor selects the grammar for a file by its extension.
func GrammarFor(name string) (Grammar, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case defs.ExtINI:
		return DefinitionGrammar{}, true
	case defs.ExtLua:
		return ScriptGrammar{}, true
	default:
		return nil, false
	}
}

var (
	definitionLine = regexp.MustCompile(`^[ \t]*([A-Za-z][\w.]*[ \t]*=[ \t]*)(\S(?:.*\S)?)`)
	quotedLiteral  = regexp.MustCompile(`"([^"\n]*)"|'([^'\n]*)'`)
	requireCall    = regexp.MustCompile(`require[ \t]*\(?[ \t]*["']([^"'\n]+)["'][ \t]*\)?`)
)

// Extract implements Grammar.
func (DefinitionGrammar) Extract(line string) []Reference {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	m := definitionLine.FindStringSubmatchIndex(line)
	if m == nil {
		return nil
	}
	value := line[m[4]:m[5]]
	if !hasAssetExt(value) {
		return nil
	}
	return []Reference{{
		Text:   line[m[2]:m[5]],
		Name:   value,
		Offset: m[4] - m[2],
	}}
}

// Extract implements Grammar.
func (ScriptGrammar) Extract(line string) []Reference {
	var refs []Reference

	calls := requireCall.FindAllStringSubmatchIndex(line, -1)
	for _, m := range calls {
		module := line[m[2]:m[3]]
		refs = append(refs, Reference{
			Text:   line[m[0]:m[1]],
			Name:   module,
			Offset: m[2] - m[0],
			Module: path.Ext(module) == "",
		})
	}

	for _, m := range quotedLiteral.FindAllStringSubmatchIndex(line, -1) {
		if insideAny(m[0], calls) {
			continue
		}
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		name := line[start:end]
		if !hasAssetExt(name) {
			continue
		}
		refs = append(refs, Reference{
			Text:   line[m[0]:m[1]],
			Name:   name,
			Offset: start - m[0],
		})
	}
	return refs
}

func insideAny(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

func hasAssetExt(name string) bool {
	return slices.Contains(defs.AssetExtensions, strings.ToLower(path.Ext(name)))
}

// Correction maps a badly cased reference span to its corrected form.
type Correction struct {
	Bad       string
	Corrected string
	Line      int // first line the reference was seen on
}

// Corrections is the ordered set of corrections found in one file. The first
// correction recorded for a span wins.
type Corrections struct {
	list []Correction
	seen map[string]bool
}

func newCorrections() *Corrections {
	return &Corrections{seen: make(map[string]bool)}
}

func (c *Corrections) add(bad, corrected string, line int) {
	if c.seen[bad] {
		return
	}
	c.seen[bad] = true
	c.list = append(c.list, Correction{Bad: bad, Corrected: corrected, Line: line})
}

// Len returns the number of corrections.
func (c *Corrections) Len() int {
	return len(c.list)
}

// List returns the corrections in discovery order.
func (c *Corrections) List() []Correction {
	return slices.Clone(c.list)
}

// Rules returns the corrections as case-stage rules. Longer spans come first
// so a span that contains another is replaced before the shorter one can
// match inside it; equal lengths keep discovery order.
func (c *Corrections) Rules() []rules.Rule {
	ordered := slices.Clone(c.list)
	slices.SortStableFunc(ordered, func(a, b Correction) int {
		return cmp.Compare(len(b.Bad), len(a.Bad))
	})
	out := make([]rules.Rule, 0, len(ordered))
	for _, x := range ordered {
		out = append(out, rules.NewCaseRule(x.Bad, x.Corrected))
	}
	return out
}

// Apply substitutes every correction over text.
func (c *Corrections) Apply(text string) string {
	for _, r := range c.Rules() {
		text = r.Apply(text)
	}
	return text
}

// Reconcile scans text line by line with g and records a correction for each
// reference whose casing differs from the file found in ix. References the
// index does not know are left alone.
func Reconcile(text string, ix caseindex.Lookuper, g Grammar) *Corrections {
	c := newCorrections()
	for n, line := range strings.Split(text, "\n") {
		for _, ref := range g.Extract(line) {
			canonical, ok := resolve(ix, ref)
			if !ok {
				continue
			}
			fixed := restyle(ref.Name, canonical)
			if fixed == ref.Name {
				continue
			}
			corrected := ref.Text[:ref.Offset] + fixed + ref.Text[ref.Offset+len(ref.Name):]
			c.add(ref.Text, corrected, n+1)
		}
	}
	return c
}

// resolve returns the canonical spelling of ref.Name.
func resolve(ix caseindex.Lookuper, ref Reference) (string, bool) {
	name := ref.Name
	if ref.Module {
		name += defs.ExtLua
	}

	canonical, ok := ix.Lookup(name)
	if !ok && !strings.ContainsAny(name, `/\`) {
		canonical, ok = ix.LookupName(name)
	}
	if !ok {
		canonical, ok = ix.LookupFrame(name)
	}
	if !ok {
		return "", false
	}
	if ref.Module {
		canonical = canonical[:len(canonical)-len(defs.ExtLua)]
	}
	return canonical, true
}

// restyle returns canonical spelled the way written was: a leading "./" or
// "/" and backslash separators are kept.
func restyle(written, canonical string) string {
	body := written
	for _, p := range []string{"./", `.\`, "/", `\`} {
		if strings.HasPrefix(body, p) {
			body = body[len(p):]
			break
		}
	}
	prefix := written[:len(written)-len(body)]

	if len(body) != len(canonical) || !strings.Contains(body, `\`) {
		return prefix + canonical
	}
	out := []byte(canonical)
	for i := range len(body) {
		if body[i] == '\\' && out[i] == '/' {
			out[i] = '\\'
		}
	}
	return prefix + string(out)
}
