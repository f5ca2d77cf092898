package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the semantic colors of the terminal dashboard.
type Theme struct {
	Base    lipgloss.Color
	Surface lipgloss.Color
	Border  lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Income  lipgloss.Color
	Expense lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var defaultTheme = Theme{
	Base:    lipgloss.Color("#1E1E2E"),
	Surface: lipgloss.Color("#2A2A3C"),
	Border:  lipgloss.Color("#45475A"),
	Muted:   lipgloss.Color("#8A8CA5"),
	Text:    lipgloss.Color("#DCDFF0"),
	Primary: lipgloss.Color("#6366F1"),
	Accent:  lipgloss.Color("#EC4899"),
	Income:  lipgloss.Color("#10B981"),
	Expense: lipgloss.Color("#EF4444"),
	Warning: lipgloss.Color("#F59E0B"),
	Error:   lipgloss.Color("#F43F5E"),
}

type styles struct {
	title    lipgloss.Style
	tab      lipgloss.Style
	tabOn    lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	muted    lipgloss.Style
	income   lipgloss.Style
	expense  lipgloss.Style
	errorBar lipgloss.Style
	status   lipgloss.Style
	pane     lipgloss.Style
	selected lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		tab:      lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1),
		tabOn:    lipgloss.NewStyle().Foreground(t.Text).Background(t.Primary).Padding(0, 1),
		label:    lipgloss.NewStyle().Foreground(t.Muted),
		value:    lipgloss.NewStyle().Bold(true).Foreground(t.Text),
		muted:    lipgloss.NewStyle().Foreground(t.Muted),
		income:   lipgloss.NewStyle().Foreground(t.Income),
		expense:  lipgloss.NewStyle().Foreground(t.Expense),
		errorBar: lipgloss.NewStyle().Foreground(t.Text).Background(t.Error).Padding(0, 1),
		status:   lipgloss.NewStyle().Foreground(t.Warning),
		pane:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1),
		selected: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// gradientText colors each line of text from one color to another.
func gradientText(text string, from, to lipgloss.Color) string {
	fr, fg, fb := hexToRGB(string(from))
	tr, tg, tb := hexToRGB(string(to))

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		runes := []rune(line)
		n := len(runes)
		if n == 0 {
			out = append(out, "")
			continue
		}
		var sb strings.Builder
		for i, r := range runes {
			f := 0.0
			if n > 1 {
				f = float64(i) / float64(n-1)
			}
			c := fmt.Sprintf("#%02x%02x%02x", lerp(fr, tr, f), lerp(fg, tg, f), lerp(fb, tb, f))
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(string(r)))
		}
		out = append(out, sb.String())
	}
	return strings.Join(out, "\n")
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + f*(float64(b)-float64(a))))
}

func hexToRGB(hex string) (uint8, uint8, uint8) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 255, 255, 255
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return 255, 255, 255
	}
	return r, g, b
}
