package chart

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
)

// Geometry places the pie inside its viewBox.
type Geometry struct {
	Radius  float64
	CenterX float64
	CenterY float64
}

// DefaultGeometry fits a 300x300 viewBox.
var DefaultGeometry = Geometry{Radius: 120, CenterX: 150, CenterY: 150}

// Slice is a pie sector. Angles are in degrees, clockwise from the positive
// x axis in SVG coordinates.
type Slice struct {
	Point
	StartAngle float64
	Sweep      float64
	X1, Y1     float64
	X2, Y2     float64
	LargeArc   bool
	Path       string // empty for zero-sweep slices
}

// Pie walks the points in order accumulating the running angle from 0.
func Pie(points []Point, g Geometry) []Slice {
	slices := make([]Slice, 0, len(points))
	angle := 0.0
	for _, p := range points {
		sweep := p.Percentage / 100 * 360
		s := Slice{
			Point:      p,
			StartAngle: angle,
			Sweep:      sweep,
			LargeArc:   sweep > 180,
		}
		s.X1, s.Y1 = g.pointAt(angle)
		s.X2, s.Y2 = g.pointAt(angle + sweep)
		s.Path = g.path(s)
		slices = append(slices, s)
		angle += sweep
	}
	return slices
}

func (g Geometry) pointAt(deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return g.CenterX + g.Radius*math.Cos(rad), g.CenterY + g.Radius*math.Sin(rad)
}

func (g Geometry) path(s Slice) string {
	if s.Sweep <= 0 {
		return ""
	}
	r := num(g.Radius)
	if s.Sweep >= 360-1e-9 {
		// An arc whose endpoints coincide draws nothing; split the full
		// circle into two half arcs.
		mx, my := g.pointAt(s.StartAngle + 180)
		return fmt.Sprintf("M %s %s A %s %s 0 1 1 %s %s A %s %s 0 1 1 %s %s Z",
			num(s.X1), num(s.Y1), r, r, num(mx), num(my), r, r, num(s.X1), num(s.Y1))
	}
	large := 0
	if s.LargeArc {
		large = 1
	}
	return fmt.Sprintf("M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
		num(g.CenterX), num(g.CenterY), num(s.X1), num(s.Y1), r, r, large, num(s.X2), num(s.Y2))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SVG renders the slices as an inline <svg>. The selected category, if
// any, gets the "selected" class. Titles are escaped.
func SVG(slices []Slice, g Geometry, selected *int64) template.HTML {
	var b strings.Builder
	w := num(2 * g.CenterX)
	h := num(2 * g.CenterY)
	fmt.Fprintf(&b, `<svg class="pie-chart-svg" viewBox="0 0 %s %s" role="img">`, w, h)
	for _, s := range slices {
		if s.Path == "" {
			continue
		}
		class := "pie-slice"
		if selected != nil && *selected == s.Category.ID {
			class += " selected"
		}
		fmt.Fprintf(&b, `<path d="%s" fill="%s" class="%s" data-category="%d"><title>%s</title></path>`,
			s.Path, s.Color, class, s.Category.ID, template.HTMLEscapeString(s.Category.BigCategory))
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}
