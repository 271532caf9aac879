package convert

import (
	"slices"
	"testing"

	"github.com/cortexmods/modconvert/internal/rules"
)

func TestScanLine_Rename(t *testing.T) {
	t.Parallel()

	s := NewScanner(buildRules(t, nil), true)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single", "Bitmap = SpriteSheet.bmp\n", "Bitmap = SpriteSheet.png\n"},
		{"every occurrence", "A.bmp B.bmp\n", "A.png B.png\n"},
		{"path", "\tFilePath = Mod.rte/Images/Door.bmp\n", "\tFilePath = Mod.rte/Images/Door.png\n"},
		{"protected", "Palette = Base.rte/palette.bmp\n", "Palette = Base.rte/palette.bmp\n"},
		{"protected any case", "Mat = PaletteMat.bmp\n", "Mat = PaletteMat.bmp\n"},
		{"protected and renamed", `"palette.bmp", "Hud.bmp"` + "\n", `"palette.bmp", "Hud.png"` + "\n"},
		{"renamed before protected", "Hud.bmp palettemat.bmp\n", "Hud.png palettemat.bmp\n"},
		{"not a protected name", "Other = mypalette.bmp\n", "Other = mypalette.png\n"},
		{"no bmp", "Mass = 10\n", "Mass = 10\n"},
		{"no terminator", "X = a.bmp", "X = a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, warns := s.ScanLine(tt.in, 1, "Mod.rte/unit.ini")
			if got != tt.want {
				t.Errorf("ScanLine(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len(warns) != 0 {
				t.Errorf("unexpected warnings: %v", warns)
			}
		})
	}
}

func TestScanLine_RenameDisabled(t *testing.T) {
	t.Parallel()

	s := NewScanner(buildRules(t, nil), false)
	line := "Bitmap = SpriteSheet.bmp\n"
	if got, _ := s.ScanLine(line, 1, "unit.ini"); got != line {
		t.Errorf("ScanLine() = %q, want unchanged", got)
	}
}

func TestScanLine_PlaysoundUsesLineAsWritten(t *testing.T) {
	t.Parallel()

	rs := buildRules(t, func(b *rules.Builder) error {
		return b.SetPlaysound(`AudioMan:PlaySound\([^)]*\)`, "AudioMan:PlaySound(path, position)")
	})
	s := NewScanner(rs, true)

	got, warns := s.ScanLine(`AudioMan:PlaySound("Mod.rte/Beep.bmp")`+"\n", 7, "Mod.rte/a.lua")
	if got != `AudioMan:PlaySound("Mod.rte/Beep.png")`+"\n" {
		t.Errorf("line = %q", got)
	}
	want := []string{`Mod.rte/a.lua line 7: AudioMan:PlaySound("Mod.rte/Beep.bmp") -> AudioMan:PlaySound(path, position)`}
	if !slices.Equal(warns, want) {
		t.Errorf("warnings = %q, want %q", warns, want)
	}
}

func TestScanLine_LiteralWarnings(t *testing.T) {
	t.Parallel()

	rs := buildRules(t, func(b *rules.Builder) error {
		if err := b.AddWarning("Icon.png", "icons moved to Base.rte/GUIs"); err != nil {
			return err
		}
		return b.AddWarning("ToSceneLayer", "draw through PrimitiveMan")
	})
	s := NewScanner(rs, true)

	_, warns := s.ScanLine("ToSceneLayer(Icon.bmp)\n", 3, "Mod.rte/x.lua")
	want := []string{
		"Mod.rte/x.lua line 3: Icon.png -> icons moved to Base.rte/GUIs",
		"Mod.rte/x.lua line 3: ToSceneLayer -> draw through PrimitiveMan",
	}
	if !slices.Equal(warns, want) {
		t.Errorf("warnings = %q, want %q", warns, want)
	}

	if _, warns := s.ScanLine("nothing here\n", 4, "Mod.rte/x.lua"); len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
}
