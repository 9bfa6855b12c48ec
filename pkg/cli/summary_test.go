package cli

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPanelRender(t *testing.T) {
	p := Panel{
		Styles: NewStyles(DefaultTheme),
		Title:  "nanonanoda",
		Rows: []Row{
			{Label: "input", Value: "tone.wav"},
			{Label: "instances", Value: "ymf262#0x18 ym2203#0x3 ym2203#1x3"},
			{Label: "output", Value: strings.Repeat("x", 200)},
		},
	}
	const width = 60
	out := p.Render(width)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out)
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != width {
			t.Errorf("line %d width = %d, want %d: %q", i, w, width, l)
		}
	}
	if !strings.Contains(out, "tone.wav") || !strings.Contains(out, "ym2203#1x3") {
		t.Errorf("missing values:\n%s", out)
	}
	if !strings.Contains(lines[3], "…") {
		t.Errorf("long value not truncated: %q", lines[3])
	}
}

func TestPanelNarrow(t *testing.T) {
	p := Panel{Styles: NewStyles(DefaultTheme), Title: "a long title"}
	out := p.Render(3)
	if !strings.Contains(out, "a long title") {
		t.Fatalf("title dropped:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	if a, b := lipgloss.Width(lines[0]), lipgloss.Width(lines[len(lines)-1]); a != b {
		t.Errorf("top width %d != bottom width %d", a, b)
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"hello", 0, ""},
		{"日本語", 4, "日本"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.s, tt.width); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}
