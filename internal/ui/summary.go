package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Stat is one labelled figure on a summary card.
type Stat struct {
	Label string
	Value string
}

// SummaryCard renders a boxed summary: a check mark and title, then one
// aligned line per stat.
func (t *Theme) SummaryCard(title string, stats []Stat) string {
	width := 0
	for _, s := range stats {
		width = max(width, len(s.Label))
	}

	var b strings.Builder
	b.WriteString(t.Style(t.Colors.Success).Render("✓") + " " + t.Style(t.Colors.Primary).Bold(!t.NoColor).Render(title))
	if len(stats) > 0 {
		b.WriteString("\n")
	}
	muted := t.Style(t.Colors.Muted)
	for _, s := range stats {
		fmt.Fprintf(&b, "\n%s  %s", muted.Render(fmt.Sprintf("%-*s", width, s.Label)), s.Value)
	}
	return t.CardStyle().Render(b.String())
}

// Warn renders a warning line.
func (t *Theme) Warn(msg string) string {
	return t.Style(t.Colors.Warning).Render("!") + " " + msg
}

// ReportMarkdown turns a warning report into markdown: the title becomes a
// heading, every mod banner a section and every warning a list item.
func ReportMarkdown(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			fmt.Fprintf(&b, "# %s\n", line)
			continue
		}
		if name, ok := bannerName(line); ok {
			fmt.Fprintf(&b, "\n## %s\n\n", name)
			continue
		}
		fmt.Fprintf(&b, "- `%s`\n", strings.ReplaceAll(line, "`", "'"))
	}
	return b.String()
}

// bannerName extracts the mod name from a "\n---\n\tName\n---" banner.
func bannerName(line string) (string, bool) {
	parts := strings.Split(strings.TrimPrefix(line, "\n"), "\n")
	if len(parts) != 3 || !strings.HasPrefix(parts[1], "\t") || parts[0] == "" || strings.Trim(parts[0], "-") != "" {
		return "", false
	}
	return strings.TrimPrefix(parts[1], "\t"), true
}

// RenderMarkdown renders md for the terminal. Plain ASCII styling is used
// when colour is disabled.
func (t *Theme) RenderMarkdown(md string, width int) (string, error) {
	style := "dark"
	switch {
	case t.NoColor:
		style = "notty"
	case t.Mode == "light":
		style = "light"
	}
	opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(md)
}
