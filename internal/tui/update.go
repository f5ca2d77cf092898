package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"cashboard/internal/chart"
	"cashboard/internal/filter"
	"cashboard/internal/log"
	"cashboard/internal/store"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snap = store.Snapshot(msg)
		cmds = append(cmds, waitForSnapshot(m.snapshots))

	case paneMsg:
		m.pane = int(msg)
		cmds = append(cmds, waitForPane(m.carousel.Changes()))

	case refreshDoneMsg:
		if msg.err == nil {
			m.setStatus("Data refreshed")
		}

	case exportDoneMsg:
		if msg.err != nil {
			m.logger.Error("Export failed", log.FieldOperation, log.OpExport, log.FieldError, msg.err.Error())
			m.setStatus("Failed to export data")
		} else {
			m.logger.Info("Export stored", log.FieldOperation, log.OpExport, log.FieldLocation, msg.location)
			m.setStatus("Exported to " + msg.location)
		}

	case clockMsg:
		if m.status != "" && m.now().Sub(m.statusAt) >= statusDisplay {
			m.status = ""
		}
		cmds = append(cmds, clockTick())
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quit = true
		m.carousel.Stop()
		m.unsubscribe()
		return m, tea.Quit

	case key.Matches(msg, keys.Prev):
		m.pane = m.carousel.Prev()

	case key.Matches(msg, keys.Next):
		m.pane = m.carousel.Next()

	case key.Matches(msg, keys.Jump):
		if r := msg.Runes; len(r) == 1 {
			idx := int(r[0] - '1')
			if idx < m.carousel.Panes() {
				m.pane = m.carousel.Jump(idx)
			}
		}

	case key.Matches(msg, keys.ToggleView):
		if m.chart.View() == chart.ViewPie {
			m.chart.SetView(chart.ViewBar)
		} else {
			m.chart.SetView(chart.ViewPie)
		}

	case key.Matches(msg, keys.Category):
		m.filter = m.filter.Next(filter.Categories(m.snap.Categories))

	case key.Matches(msg, keys.ResetFilter):
		m.filter = filter.Reset()

	case key.Matches(msg, keys.Select):
		m.selectNext()

	case key.Matches(msg, keys.Hide):
		m.hideSelected()

	case key.Matches(msg, keys.Refresh):
		m.setStatus("Refreshing…")
		return m, refresh(m.store)

	case key.Matches(msg, keys.Export):
		if m.sink == nil {
			m.setStatus("No export destination is configured")
			return m, nil
		}
		m.setStatus("Exporting…")
		return m, exportTo(m.store, m.sink, m.format)
	}
	return m, nil
}

// selectNext moves the selection to the next visible category, clearing it
// after the last one.
func (m *Model) selectNext() {
	frame := m.frame()
	if len(frame.Points) == 0 {
		return
	}
	next := 0
	if frame.Selected != nil {
		for i, p := range frame.Points {
			if p.Category.ID == frame.Selected.Category.ID {
				next = i + 1
				break
			}
		}
	}
	if next >= len(frame.Points) {
		m.chart.Select(frame.Selected.Category.ID)
		return
	}
	m.chart.Select(frame.Points[next].Category.ID)
}

// hideSelected hides the selected category. With nothing selected it shows
// every hidden category again.
func (m *Model) hideSelected() {
	if sel := m.chart.Selected(); sel != nil {
		m.chart.ToggleHidden(*sel)
		return
	}
	for id := range m.chart.Hidden() {
		m.chart.ToggleHidden(id)
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusAt = m.now()
}

func (m Model) frame() chart.Frame {
	return m.chart.Frame(m.snap.Categories, chart.Total(m.snap.Categories))
}
