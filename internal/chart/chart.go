// Package chart turns category spending into display-ready pie slices and
// bars.
package chart

import (
	"sort"

	"github.com/shopspring/decimal"

	"cashboard/internal/core"
)

// Palette colours are assigned by a category's position in the full input
// list, so chart and legend agree and hiding one category never repaints
// the others.
var Palette = []string{
	"#667eea", "#764ba2", "#f093fb", "#f5576c",
	"#4facfe", "#00f2fe", "#43e97b", "#38f9d7",
	"#fa709a", "#fee140", "#a8edea", "#fed6e3",
}

// ColorFor returns the palette colour for input position i.
func ColorFor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Point is one visible category with its share of the total.
type Point struct {
	Category   core.Category
	Magnitude  decimal.Decimal // |spending|
	Percentage float64
	Color      string
	Index      int // position in the input list
}

// Hidden is the set of category IDs excluded from the chart.
type Hidden map[int64]struct{}

// Has reports whether id is hidden. A nil set hides nothing.
func (h Hidden) Has(id int64) bool {
	_, ok := h[id]
	return ok
}

// Toggle hides id, or shows it again when already hidden.
func (h Hidden) Toggle(id int64) {
	if h.Has(id) {
		delete(h, id)
		return
	}
	h[id] = struct{}{}
}

// Clone copies the set.
func (h Hidden) Clone() Hidden {
	out := make(Hidden, len(h))
	for id := range h {
		out[id] = struct{}{}
	}
	return out
}

// Aggregate drops hidden categories, computes each share of |total| and
// sorts by magnitude, largest first. Every share is 0 when total is 0.
// Categories of equal magnitude keep their input order.
func Aggregate(categories []core.Category, total decimal.Decimal, hidden Hidden) []Point {
	denom := total.Abs()
	points := make([]Point, 0, len(categories))
	for i, c := range categories {
		if hidden.Has(c.ID) {
			continue
		}
		mag := c.Spending.Abs()
		pct := 0.0
		if !denom.IsZero() {
			pct = mag.Div(denom).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		points = append(points, Point{
			Category:   c,
			Magnitude:  mag,
			Percentage: pct,
			Color:      ColorFor(i),
			Index:      i,
		})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Magnitude.GreaterThan(points[j].Magnitude)
	})
	return points
}

// Total is the grand total shares are taken of: the sum of every
// category's |spending|. Income never enters it, so visible shares add up to
// 100 and the pie closes at 360 degrees.
func Total(categories []core.Category) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range categories {
		sum = sum.Add(c.Spending.Abs())
	}
	return sum
}

// Stats is the footer under the chart.
type Stats struct {
	Total              decimal.Decimal
	Count              int
	AveragePerCategory decimal.Decimal
}

// Summarize reports |total|, the category count and the mean per category.
func Summarize(categories []core.Category, total decimal.Decimal) Stats {
	s := Stats{
		Total:              total.Abs(),
		Count:              len(categories),
		AveragePerCategory: decimal.Zero,
	}
	if s.Count > 0 {
		s.AveragePerCategory = s.Total.Div(decimal.NewFromInt(int64(s.Count)))
	}
	return s
}
