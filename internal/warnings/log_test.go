package warnings

import (
	"strings"
	"testing"
)

func TestNewLog_OnlySentinel(t *testing.T) {
	t.Parallel()

	l := NewLog()
	lines, ok := l.Finalize()
	if ok {
		t.Error("Finalize() reported content for an empty run")
	}
	if len(lines) != 1 || lines[0] != Title {
		t.Errorf("lines = %q, want only the title", lines)
	}
}

func TestBeginMod_NoWarningsYieldsOnlyBanner(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.BeginMod("Test.rte")

	lines, ok := l.Finalize()
	if !ok {
		t.Fatal("Finalize() should report content once a mod banner is written")
	}
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2 (title + banner)", len(lines))
	}

	want := "\n" + ModNameSeparator + "\n\tTest.rte\n" + ModNameSeparator
	if lines[1] != want {
		t.Errorf("banner = %q, want %q", lines[1], want)
	}
	if l.Count() != 0 {
		t.Errorf("Count() = %d, want 0", l.Count())
	}
	if l.Mods() != 1 {
		t.Errorf("Mods() = %d, want 1", l.Mods())
	}
}

func TestAdd_PreservesOrder(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.BeginMod("A.rte")
	l.Add("first")
	l.Add("second 2")
	l.BeginMod("B.rte")
	l.Add("third")

	lines, _ := l.Finalize()
	got := []string{lines[2], lines[3], lines[5]}
	want := []string{"first", "second 2", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if l.Count() != 3 {
		t.Errorf("Count() = %d, want 3", l.Count())
	}
}

func TestBeginRun_Resets(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.BeginMod("A.rte")
	l.Add("something")
	l.BeginRun()

	lines, ok := l.Finalize()
	if ok || len(lines) != 1 {
		t.Errorf("after BeginRun: lines = %q, ok = %v", lines, ok)
	}
	if l.Count() != 0 || l.Mods() != 0 {
		t.Errorf("counters not reset: Count=%d Mods=%d", l.Count(), l.Mods())
	}
}

func TestFinalize_ReturnsCopy(t *testing.T) {
	t.Parallel()

	l := NewLog()
	lines, _ := l.Finalize()
	lines[0] = "mutated"

	again, _ := l.Finalize()
	if again[0] != Title {
		t.Error("Finalize() exposed internal storage")
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	got := Format("Mod.rte/Actors.ini", 12, "GetsHitByMOs", "HitsMOs")
	want := "Mod.rte/Actors.ini line 12: GetsHitByMOs -> HitsMOs"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestString(t *testing.T) {
	t.Parallel()

	l := NewLog()
	l.Add("x")
	if !strings.HasSuffix(l.String(), "\nx") {
		t.Errorf("String() = %q", l.String())
	}
}
