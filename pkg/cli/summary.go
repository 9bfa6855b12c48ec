package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal panels.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Labels and help text
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Border lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Foreground(t.Dim),
		Value:  lipgloss.NewStyle().Bold(true),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
	}
}

// Row is one label/value line of a Panel.
type Row struct {
	Label string
	Value string
}

// Panel renders a titled box of aligned rows.
type Panel struct {
	Styles Styles
	Title  string
	Rows   []Row
}

// Render renders the panel width columns wide. A width too small for the
// content is widened to fit the title.
func (p Panel) Render(width int) string {
	bc := p.Styles.Border
	title := p.Styles.Title.Render(p.Title)
	width = max(width, lipgloss.Width(title)+4)
	inner := width - 4

	labelWidth := 0
	for _, r := range p.Rows {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}

	var lines []string

	// ╭─ title ────╮
	lines = append(lines, bc.Render("╭─")+title+
		bc.Render(strings.Repeat("─", max(0, width-3-lipgloss.Width(title)))+"╮"))

	for _, r := range p.Rows {
		label := p.Styles.Label.Render(r.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(r.Label)))
		text := label + "  " + p.Styles.Value.Render(r.Value)
		if lipgloss.Width(text) > inner {
			room := inner - labelWidth - 2 - 1
			text = label + "  " + p.Styles.Value.Render(truncateString(r.Value, room)+"…")
		}
		lines = append(lines, bc.Render("│")+" "+text+
			strings.Repeat(" ", max(0, inner-lipgloss.Width(text)))+" "+bc.Render("│"))
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))
	return strings.Join(lines, "\n")
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
