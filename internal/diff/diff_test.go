package diff

import (
	"slices"
	"strings"
	"testing"
)

func TestLines(t *testing.T) {
	t.Parallel()

	got := Lines([]string{"a", "b", "c"}, []string{"a", "x", "c", "d"})
	want := []Line{
		{Op: Equal, Text: "a", Old: 1, New: 1},
		{Op: Delete, Text: "b", Old: 2},
		{Op: Insert, Text: "x", New: 2},
		{Op: Equal, Text: "c", Old: 3, New: 3},
		{Op: Insert, Text: "d", New: 4},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Lines() = %+v\nwant %+v", got, want)
	}
	if Changed(got) != 3 {
		t.Errorf("Changed() = %d, want 3", Changed(got))
	}
}

func TestLines_Empty(t *testing.T) {
	t.Parallel()

	if got := Lines(nil, nil); len(got) != 0 {
		t.Errorf("Lines(nil, nil) = %v", got)
	}
	got := Lines(nil, []string{"new"})
	if len(got) != 1 || got[0].Op != Insert || got[0].New != 1 {
		t.Errorf("Lines(nil, new) = %+v", got)
	}
}

func TestUnified(t *testing.T) {
	t.Parallel()

	old := "AddActor = AHuman\n\tSpriteFile = ContentFile\n\t\tFilePath = Mod.rte/Unit.bmp\n"
	cur := "AddActor = AHuman\n\tSpriteFile = ContentFile\n\t\tFilePath = Mod.rte/Unit.png\n"

	got := Unified("a/Unit.ini", "b/Unit.ini", old, cur, DefaultContext)
	want := "--- a/Unit.ini\n+++ b/Unit.ini\n" +
		"@@ -1,3 +1,3 @@\n" +
		" AddActor = AHuman\n" +
		" \tSpriteFile = ContentFile\n" +
		"-\t\tFilePath = Mod.rte/Unit.bmp\n" +
		"+\t\tFilePath = Mod.rte/Unit.png\n"
	if got != want {
		t.Errorf("Unified() =\n%s\nwant\n%s", got, want)
	}
}

func TestUnified_Identical(t *testing.T) {
	t.Parallel()

	if got := Unified("a", "b", "same\n", "same\n", DefaultContext); got != "" {
		t.Errorf("Unified(identical) = %q, want empty", got)
	}
}

func TestHunks_SeparateAndMerged(t *testing.T) {
	t.Parallel()

	var a, b []string
	for i := range 20 {
		line := strings.Repeat("x", i+1)
		a = append(a, line)
		b = append(b, line)
	}
	b[1] = "changed-1"
	b[17] = "changed-17"

	hunks := Hunks(Lines(a, b), 2)
	if len(hunks) != 2 {
		t.Fatalf("len(hunks) = %d, want 2", len(hunks))
	}
	if h := hunks[0].Header(); h != "@@ -1,4 +1,4 @@" {
		t.Errorf("first header = %q", h)
	}
	if h := hunks[1].Header(); h != "@@ -16,5 +16,5 @@" {
		t.Errorf("second header = %q", h)
	}

	b[5] = "changed-5"
	if hunks := Hunks(Lines(a, b), 2); len(hunks) != 2 {
		t.Errorf("changes 4 lines apart should share a hunk, got %d hunks", len(hunks))
	}
}

func TestHunks_InsertAtStart(t *testing.T) {
	t.Parallel()

	hunks := Hunks(Lines([]string{"a"}, []string{"new", "a"}), 0)
	if len(hunks) != 1 || hunks[0].Header() != "@@ -0,0 +1,1 @@" {
		t.Errorf("hunks = %+v", hunks)
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	if got := Split("a\nb\n"); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Split() = %q", got)
	}
	if got := Split(""); got != nil {
		t.Errorf("Split(empty) = %q", got)
	}
	if got := Split("a\n\n"); !slices.Equal(got, []string{"a", ""}) {
		t.Errorf("Split(blank last line) = %q", got)
	}
}
