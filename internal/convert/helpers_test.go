package convert

import (
	"testing"

	"github.com/cortexmods/modconvert/internal/caseindex"
	"github.com/cortexmods/modconvert/internal/defs"
	"github.com/cortexmods/modconvert/internal/rules"
)

// buildRules returns a rule set with the bmp rename and protected palette
// names in place, plus whatever add registers.
func buildRules(t *testing.T, add func(b *rules.Builder) error) *rules.RuleSet {
	t.Helper()

	b := rules.NewBuilder()
	b.Protect(defs.ProtectedBitmaps...)
	if err := b.AddRename(defs.ExtBMP, defs.ExtPNG); err != nil {
		t.Fatalf("AddRename() error: %v", err)
	}
	if add != nil {
		if err := add(b); err != nil {
			t.Fatalf("building rules: %v", err)
		}
	}
	return b.Build()
}

func newIndex(paths ...string) *caseindex.Index {
	ix := caseindex.New()
	for _, p := range paths {
		ix.Add(p)
	}
	return ix
}
