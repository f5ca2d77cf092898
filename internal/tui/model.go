// Package tui is the terminal dashboard: the same store, chart and
// carousel as the web pages, drawn with lipgloss.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"cashboard/internal/carousel"
	"cashboard/internal/chart"
	"cashboard/internal/export"
	"cashboard/internal/filter"
	"cashboard/internal/format"
	"cashboard/internal/log"
	"cashboard/internal/store"
)

// Panes in carousel order.
var paneTitles = [...]string{"Overview", "Categories", "Transactions"}

// PaneCount is the number of carousel panes.
const PaneCount = len(paneTitles)

const (
	refreshTimeout = 15 * time.Second
	exportTimeout  = 2 * time.Minute
	clockInterval  = time.Second
	statusDisplay  = 4 * time.Second
)

// Options wires the model to the shared components.
type Options struct {
	Store    *store.Store
	Carousel *carousel.Carousel
	Sink     export.Sink
	Money    *format.Money
	Logger   *log.Logger
	Format   export.Format
	Now      func() time.Time
}

type Model struct {
	store    *store.Store
	carousel *carousel.Carousel
	sink     export.Sink
	money    *format.Money
	logger   *log.Logger
	format   export.Format
	now      func() time.Time

	snapshots   <-chan store.Snapshot
	unsubscribe func()

	// Data
	snap store.Snapshot

	// View state
	chart  *chart.Session
	filter filter.Filter
	pane   int

	status   string
	statusAt time.Time

	width  int
	height int
	ready  bool
	quit   bool

	help   help.Model
	styles styles
}

// Messages

type snapshotMsg store.Snapshot

type paneMsg int

type refreshDoneMsg struct {
	err error
}

type exportDoneMsg struct {
	location string
	err      error
}

type clockMsg time.Time

func NewModel(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Money == nil {
		opts.Money = format.MustMoney("ko-KR", "KRW")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Format == "" {
		opts.Format = export.JSON
	}
	if opts.Carousel == nil {
		opts.Carousel = carousel.New(carousel.Config{Panes: PaneCount})
	}
	ch, cancel := opts.Store.Subscribe()
	return Model{
		store:       opts.Store,
		carousel:    opts.Carousel,
		sink:        opts.Sink,
		money:       opts.Money,
		logger:      opts.Logger.WithComponent(log.ComponentTUI),
		format:      opts.Format,
		now:         opts.Now,
		snapshots:   ch,
		unsubscribe: cancel,
		snap:        opts.Store.Snapshot(),
		chart:       chart.NewSession(),
		filter:      filter.Reset(),
		pane:        opts.Carousel.Index(),
		help:        help.New(),
		styles:      newStyles(defaultTheme),
	}
}

func (m Model) Init() tea.Cmd {
	m.carousel.Start(context.Background())
	return tea.Batch(
		waitForSnapshot(m.snapshots),
		waitForPane(m.carousel.Changes()),
		refresh(m.store),
		clockTick(),
	)
}

// Commands

func waitForSnapshot(ch <-chan store.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func waitForPane(ch <-chan int) tea.Cmd {
	return func() tea.Msg {
		idx, ok := <-ch
		if !ok {
			return nil
		}
		return paneMsg(idx)
	}
}

func refresh(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		_, err := st.Dispatch(ctx, store.RefreshIntent{})
		return refreshDoneMsg{err: err}
	}
}

func exportTo(st *store.Store, sink export.Sink, f export.Format) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		out, err := st.Dispatch(ctx, store.ExportIntent{Format: f})
		if err != nil {
			return exportDoneMsg{err: err}
		}
		loc, err := sink.Put(ctx, *out.Artifact)
		return exportDoneMsg{location: loc, err: err}
	}
}

func clockTick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}
