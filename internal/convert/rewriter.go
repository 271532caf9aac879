package convert

import (
	"github.com/cortexmods/modconvert/internal/rules"
)

// Rewriter applies the whole-text stages. It works on the full file text
// because literal patterns may span line breaks.
type Rewriter struct {
	literal []rules.Rule
	regex   []rules.Rule
}

// NewRewriter prepares the literal and regex stages of rs. Literal patterns
// are passed through the rename stage once, here, so that a rule written
// against "Foo.bmp" matches the "Foo.png" the scanner already produced.
func NewRewriter(rs *rules.RuleSet) *Rewriter {
	rn := newRenamer(rs)
	w := &Rewriter{}
	for r := range rs.Stage(rules.StageLiteral) {
		r.Pattern = rn.apply(r.Pattern)
		w.literal = append(w.literal, r)
	}
	for r := range rs.Stage(rules.StageRegex) {
		w.regex = append(w.regex, r)
	}
	return w
}

// ApplyLiteral runs every literal rule once, in table order.
func (w *Rewriter) ApplyLiteral(text string) string {
	for _, r := range w.literal {
		text = r.Apply(text)
	}
	return text
}

// ApplyRegex runs every regex rule once, in table order.
func (w *Rewriter) ApplyRegex(text string) string {
	for _, r := range w.regex {
		text = r.Apply(text)
	}
	return text
}

// Rewrite runs the literal stage followed by the regex stage.
func (w *Rewriter) Rewrite(text string) string {
	return w.ApplyRegex(w.ApplyLiteral(text))
}
