package ui

import "github.com/charmbracelet/lipgloss"

// ThemeConfig selects a Theme.
type ThemeConfig struct {
	NoColor bool
	// Mode is "dark" or "light". Anything else picks the adaptive palette.
	Mode string
}

// Colors holds hex colours.
type Colors struct {
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Muted     string
	Border    string
}

// Theme is the colour scheme shared by all components.
type Theme struct {
	NoColor bool
	Mode    string
	Colors  Colors
}

var (
	darkColors = Colors{
		Primary:   "#DA7756",
		Secondary: "#F4A261",
		Success:   "#10B981",
		Warning:   "#F59E0B",
		Error:     "#EF4444",
		Muted:     "#9CA3AF",
		Border:    "#4B5563",
	}
	lightColors = Colors{
		Primary:   "#C45A3C",
		Secondary: "#E07A3F",
		Success:   "#059669",
		Warning:   "#D97706",
		Error:     "#DC2626",
		Muted:     "#6B7280",
		Border:    "#D1D5DB",
	}
)

// NewTheme builds a Theme for cfg.
func NewTheme(cfg ThemeConfig) *Theme {
	t := &Theme{NoColor: cfg.NoColor, Mode: cfg.Mode}
	switch cfg.Mode {
	case "light":
		t.Colors = lightColors
	case "dark":
		t.Colors = darkColors
	default:
		if lipgloss.HasDarkBackground() {
			t.Colors = darkColors
		} else {
			t.Colors = lightColors
		}
	}
	return t
}

// Style returns a foreground style for color, or a plain style when colour
// is disabled. Tabs are kept as is.
func (t *Theme) Style(color string) lipgloss.Style {
	s := lipgloss.NewStyle().TabWidth(lipgloss.NoTabConversion)
	if t.NoColor {
		return s
	}
	return s.Foreground(lipgloss.Color(color))
}

// CardStyle is the rounded box used for summaries.
func (t *Theme) CardStyle() lipgloss.Style {
	s := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	if !t.NoColor {
		s = s.BorderForeground(lipgloss.Color(t.Colors.Border))
	}
	return s
}
