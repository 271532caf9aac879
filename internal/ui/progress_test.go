package ui

import (
	"strings"
	"testing"
)

func headless() *HeadlessManager {
	hm := NewHeadlessManager()
	hm.ForceHeadless(true)
	return hm
}

func TestLineProgressBar(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	p := newProgressImpl(testTheme(), headless(), &buf)
	bar := p.Start("Converting", 3)
	bar.Increment(1)
	bar.SetTitle("Mod.rte/Index.ini")
	bar.Increment(1)
	bar.Done()
	bar.Done()

	want := "[1/3] Converting\n[2/3] Mod.rte/Index.ini\n[3/3] Mod.rte/Index.ini\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestLineSpinner(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	p := newProgressImpl(NewTheme(ThemeConfig{Mode: "dark"}), headless(), &buf)
	s := p.Spinner("Unpacking archives")
	s.SetTitle("Building case index")
	s.Stop()

	if buf.String() != "Unpacking archives\nBuilding case index\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestConversionObserver(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	o := NewConversionObserver(newProgressImpl(testTheme(), headless(), &buf), "Converting")
	o.FileDone("ignored before planning")
	o.Planned(2)
	o.FileDone("A.rte/Index.ini")
	o.FileDone("A.rte/Door.png")
	o.Finish()

	want := "[1/2] A.rte/Index.ini\n[2/2] A.rte/Door.png\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestConversionObserver_FinishWithoutPlan(t *testing.T) {
	t.Parallel()

	o := NewConversionObserver(newProgressImpl(testTheme(), headless(), &strings.Builder{}), "x")
	o.Finish()
}

func TestHeadlessManager_Forced(t *testing.T) {
	t.Parallel()

	hm := NewHeadlessManager()
	hm.ForceHeadless(true)
	if !hm.IsHeadless() || hm.CanAnimate() {
		t.Errorf("forced headless: IsHeadless=%v CanAnimate=%v", hm.IsHeadless(), hm.CanAnimate())
	}
	hm.ForceHeadless(false)
	if hm.IsHeadless() || !hm.CanAnimate() {
		t.Errorf("forced interactive: IsHeadless=%v CanAnimate=%v", hm.IsHeadless(), hm.CanAnimate())
	}
}

func TestProgress_NoAnimationWhenHeadless(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	p := newProgressImpl(testTheme(), headless(), &buf)
	if p.animated() {
		t.Fatal("animated() = true for a headless run")
	}
	sp := p.Spinner("Indexing file names")
	sp.Stop()
	if buf.String() != "Indexing file names\n" {
		t.Errorf("spinner output = %q", buf.String())
	}
}
