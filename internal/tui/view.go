package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/shopspring/decimal"

	"cashboard/internal/chart"
	"cashboard/internal/core"
)

// Eighth blocks for sub-character bar resolution.
var barChars = [9]rune{' ', '▏', '▎', '▍', '▌', '▋', '▊', '▉', '█'}

// figlet output needs this many columns; narrower terminals get a plain title.
const bannerWidth = 60

func (m Model) View() string {
	if m.quit {
		return ""
	}
	if !m.ready {
		return "\n  Loading..."
	}

	sections := []string{
		m.viewHeader(),
		m.viewTabs(),
		m.styles.pane.Width(max(m.width-4, 20)).Render(m.viewPane()),
	}
	if e := m.viewError(); e != "" {
		sections = append(sections, e)
	}
	if m.status != "" {
		sections = append(sections, m.styles.status.Render(m.status))
	}
	sections = append(sections, m.help.View(keys))

	return lipgloss.NewStyle().Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) viewHeader() string {
	if m.width < bannerWidth {
		return m.styles.title.Render("cashboard")
	}
	fig := figure.NewFigure("cashboard", "small", false)
	banner := strings.TrimRight(strings.Join(fig.Slicify(), "\n"), "\n")
	return gradientText(banner, defaultTheme.Primary, defaultTheme.Accent)
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, len(paneTitles))
	for i, title := range paneTitles {
		label := fmt.Sprintf("%d %s", i+1, title)
		if i == m.pane {
			tabs = append(tabs, m.styles.tabOn.Render(label))
		} else {
			tabs = append(tabs, m.styles.tab.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	if m.snap.Loading {
		row += m.styles.muted.Render("  loading…")
	}
	return row
}

func (m Model) viewPane() string {
	switch m.pane {
	case 1:
		return m.viewChart()
	case 2:
		return m.viewTransactions()
	default:
		return m.viewOverview()
	}
}

func (m Model) viewOverview() string {
	ov := core.NewOverview(m.snap.Transactions, m.snap.Categories, m.now())
	stat := func(label, value string) string {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.label.Render(label),
			m.styles.value.Render(value))
	}
	gap := lipgloss.NewStyle().Width(4).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top,
		stat("Total", m.money.Signed(ov.Total)), gap,
		stat("This month", m.money.Signed(ov.MonthTotal)), gap,
		stat("Transactions", fmt.Sprint(ov.Count)), gap,
		stat("Average", m.money.Format(ov.Average)), gap,
		stat("Categories", fmt.Sprint(ov.CategoryCount)),
	)
}

func (m Model) viewChart() string {
	f := m.frame()
	if len(f.Points) == 0 {
		return m.styles.muted.Render("No categories to show.")
	}

	var lines []string
	if f.View == chart.ViewBar {
		width := max(m.width-50, 10)
		for _, b := range chart.Bars(f.Points) {
			bar := lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(renderBar(b.Fraction, width))
			lines = append(lines, fmt.Sprintf("%s %s %s",
				m.label(b.Point, f.Selected, 20), bar, m.money.Format(b.Magnitude)))
		}
	} else {
		for _, p := range f.Points {
			dot := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("●")
			lines = append(lines, fmt.Sprintf("%s %s %6.1f%%  %s",
				dot, m.label(p, f.Selected, 24), p.Percentage, m.money.Format(p.Magnitude)))
		}
	}

	if n := len(f.Hidden); n > 0 {
		lines = append(lines, m.styles.muted.Render(fmt.Sprintf("%d hidden (h with nothing selected shows them)", n)))
	}
	lines = append(lines, m.styles.muted.Render(fmt.Sprintf("Total %s across %d categories, %s on average",
		m.money.Format(f.Stats.Total), f.Stats.Count, m.money.Format(f.Stats.AveragePerCategory))))
	return strings.Join(lines, "\n")
}

func (m Model) label(p chart.Point, selected *chart.Point, width int) string {
	text := fmt.Sprintf("%-*s", width, truncate(p.Category.Label(), width))
	if selected != nil && selected.Category.ID == p.Category.ID {
		return m.styles.selected.Render(text)
	}
	return text
}

func (m Model) viewTransactions() string {
	rows := m.filter.Apply(m.snap.Transactions)
	header := m.styles.label.Render(fmt.Sprintf("Category: %s   %d of %d   net %s",
		m.filter.Category, len(rows), len(m.snap.Transactions), m.money.Signed(sum(rows))))

	limit := max(m.height-18, 5)
	lines := []string{header}
	for i, t := range rows {
		if i == limit {
			lines = append(lines, m.styles.muted.Render(fmt.Sprintf("… %d more", len(rows)-limit)))
			break
		}
		amount := m.money.Signed(t.Amount)
		if t.Amount.IsNegative() {
			amount = m.styles.expense.Render(amount)
		} else {
			amount = m.styles.income.Render(amount)
		}
		lines = append(lines, fmt.Sprintf("%s  %-28s %-14s %s",
			m.money.Date(t.Date), truncate(t.Description, 28), truncate(t.CategoryName(), 14), amount))
	}
	if len(rows) == 0 {
		lines = append(lines, m.styles.muted.Render("No transactions match."))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewError() string {
	f := m.snap.ActiveFailure(m.now(), m.store.ErrorDisplay())
	if f == nil {
		return ""
	}
	return m.styles.errorBar.Render(f.Message)
}

// renderBar draws fraction of width cells with eighth-block precision.
func renderBar(fraction float64, width int) string {
	if fraction <= 0 || width <= 0 {
		return ""
	}
	if fraction > 1 {
		fraction = 1
	}
	eighths := int(math.Round(fraction * float64(width*8)))
	if eighths == 0 {
		eighths = 1
	}
	full, rest := eighths/8, eighths%8
	s := strings.Repeat(string(barChars[8]), full)
	if rest > 0 {
		s += string(barChars[rest])
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// sum totals transaction amounts.
func sum(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}
