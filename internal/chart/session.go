package chart

import (
	"sync"

	"github.com/shopspring/decimal"

	"cashboard/internal/core"
)

// View selects the chart rendering.
type View string

const (
	ViewPie View = "pie"
	ViewBar View = "bar"
)

// ParseView maps unknown input to the pie view.
func ParseView(s string) View {
	if View(s) == ViewBar {
		return ViewBar
	}
	return ViewPie
}

// Session holds one viewer's chart choices: the view type, the hidden set
// and at most one selected category. Safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	view     View
	hidden   Hidden
	selected *int64
}

func NewSession() *Session {
	return &Session{view: ViewPie, hidden: Hidden{}}
}

func (s *Session) SetView(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// ToggleHidden hides or shows a category. Hiding the selected category
// clears the selection.
func (s *Session) ToggleHidden(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden.Toggle(id)
	if s.hidden.Has(id) && s.selected != nil && *s.selected == id {
		s.selected = nil
	}
}

// Hidden returns a copy of the hidden set.
func (s *Session) Hidden() Hidden {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden.Clone()
}

// Select makes id the selected category, or clears the selection when id
// is already selected.
func (s *Session) Select(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != nil && *s.selected == id {
		s.selected = nil
		return
	}
	s.selected = &id
}

// Selected returns the selected category ID, or nil.
func (s *Session) Selected() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	id := *s.selected
	return &id
}

// Frame is everything a renderer needs for one draw.
type Frame struct {
	View     View
	Points   []Point
	Slices   []Slice
	Bars     []Bar
	Selected *Point
	Hidden   Hidden
	Stats    Stats
	All      []core.Category
}

// Frame derives the current drawing from the session state.
func (s *Session) Frame(categories []core.Category, total decimal.Decimal) Frame {
	s.mu.Lock()
	view := s.view
	hidden := s.hidden.Clone()
	var selected *int64
	if s.selected != nil {
		id := *s.selected
		selected = &id
	}
	s.mu.Unlock()

	points := Aggregate(categories, total, hidden)
	f := Frame{
		View:   view,
		Points: points,
		Slices: Pie(points, DefaultGeometry),
		Bars:   Bars(points),
		Hidden: hidden,
		Stats:  Summarize(categories, total),
		All:    categories,
	}
	if selected != nil {
		for i := range points {
			if points[i].Category.ID == *selected {
				p := points[i]
				f.Selected = &p
				break
			}
		}
	}
	return f
}
