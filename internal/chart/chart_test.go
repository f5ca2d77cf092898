package chart

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashboard/internal/core"
)

func cat(id int64, name string, spending int64) core.Category {
	return core.Category{ID: id, BigCategory: name, SubCategory: "-", Spending: decimal.NewFromInt(spending)}
}

func TestAggregateSortsByMagnitude(t *testing.T) {
	cats := []core.Category{cat(1, "Food", -6000), cat(2, "Transport", -4000)}
	points := Aggregate(cats, decimal.NewFromInt(-10000), nil)

	require.Len(t, points, 2)
	assert.InDelta(t, 60, points[0].Percentage, 1e-9)
	assert.InDelta(t, 40, points[1].Percentage, 1e-9)
	assert.Equal(t, int64(1), points[0].Category.ID)

	reversed := Aggregate([]core.Category{cat(2, "Transport", -4000), cat(1, "Food", -6000)}, decimal.NewFromInt(-10000), nil)
	assert.Equal(t, int64(1), reversed[0].Category.ID)
	assert.Equal(t, Palette[1], reversed[0].Color, "colour follows input position")
}

func TestAggregateZeroTotal(t *testing.T) {
	points := Aggregate([]core.Category{cat(1, "Food", -6000), cat(2, "Fun", 0)}, decimal.Zero, nil)
	for _, p := range points {
		assert.Zero(t, p.Percentage)
	}
}

func TestAggregateStableForTies(t *testing.T) {
	cats := []core.Category{cat(1, "A", 100), cat(2, "B", -100), cat(3, "C", 100)}
	points := Aggregate(cats, decimal.NewFromInt(300), nil)
	assert.Equal(t, []int64{1, 2, 3}, []int64{points[0].Category.ID, points[1].Category.ID, points[2].Category.ID})
}

func TestAggregateHidden(t *testing.T) {
	cats := []core.Category{cat(1, "Food", -6000), cat(2, "Transport", -4000)}
	hidden := Hidden{}
	hidden.Toggle(1)
	points := Aggregate(cats, decimal.NewFromInt(-10000), hidden)
	require.Len(t, points, 1)
	assert.Equal(t, int64(2), points[0].Category.ID)
	assert.Equal(t, Palette[1], points[0].Color)

	hidden.Toggle(1)
	assert.Len(t, Aggregate(cats, decimal.NewFromInt(-10000), hidden), 2)
}

func TestPercentagesSumTo100(t *testing.T) {
	cats := []core.Category{cat(1, "A", -333), cat(2, "B", -333), cat(3, "C", -334), cat(4, "D", -1)}
	points := Aggregate(cats, Total(cats), nil)
	sum := 0.0
	for _, p := range points {
		sum += p.Percentage
	}
	assert.InDelta(t, 100, sum, 1e-9)
}

func TestTotalUsesCategoryMagnitudes(t *testing.T) {
	cats := []core.Category{cat(1, "A", -6000), cat(2, "B", -4000)}
	assert.True(t, Total(cats).Equal(decimal.NewFromInt(10000)))

	// A refund category must not shrink the denominator.
	mixed := []core.Category{cat(1, "A", -6000), cat(2, "B", -3000), cat(3, "Refunds", 1000)}
	points := Aggregate(mixed, Total(mixed), nil)
	pct, sweep := 0.0, 0.0
	for _, p := range points {
		pct += p.Percentage
	}
	for _, s := range Pie(points, DefaultGeometry) {
		sweep += s.Sweep
	}
	assert.InDelta(t, 100, pct, 1e-9)
	assert.InDelta(t, 360, sweep, 1e-9)
	assert.InDelta(t, 60, points[0].Percentage, 1e-9)
}

func TestPieAnglesSumTo360(t *testing.T) {
	cats := []core.Category{cat(1, "A", -50), cat(2, "B", -30), cat(3, "C", -20)}
	slices := Pie(Aggregate(cats, Total(cats), nil), DefaultGeometry)
	sum := 0.0
	for _, s := range slices {
		sum += s.Sweep
	}
	assert.InDelta(t, 360, sum, 1e-9)
	assert.InDelta(t, 0, slices[0].StartAngle, 1e-12)
	assert.InDelta(t, 180, slices[1].StartAngle, 1e-9)
}

func TestPieGeometry(t *testing.T) {
	cats := []core.Category{cat(1, "A", -75), cat(2, "B", -25)}
	slices := Pie(Aggregate(cats, decimal.NewFromInt(-100), nil), DefaultGeometry)
	require.Len(t, slices, 2)

	first := slices[0]
	assert.True(t, first.LargeArc)
	assert.InDelta(t, 270, first.Sweep, 1e-9)
	assert.InDelta(t, 270, first.X1, 1e-9)
	assert.InDelta(t, 150, first.Y1, 1e-9)
	assert.InDelta(t, 150, first.X2, 1e-9)
	assert.InDelta(t, 30, first.Y2, 1e-9)
	assert.True(t, strings.HasPrefix(first.Path, "M 150 150 L 270 150 A 120 120 0 1 1 "))
	assert.True(t, strings.HasSuffix(first.Path, " Z"))

	second := slices[1]
	assert.False(t, second.LargeArc)
	assert.Contains(t, second.Path, "A 120 120 0 0 1 ")
}

func TestPieFullCircle(t *testing.T) {
	slices := Pie(Aggregate([]core.Category{cat(1, "All", -10)}, decimal.NewFromInt(-10), nil), DefaultGeometry)
	require.Len(t, slices, 1)
	assert.InDelta(t, 360, slices[0].Sweep, 1e-9)
	assert.Equal(t, 2, strings.Count(slices[0].Path, " A "))
}

func TestPieZeroSweep(t *testing.T) {
	slices := Pie(Aggregate([]core.Category{cat(1, "A", -10), cat(2, "B", 0)}, decimal.NewFromInt(-10), nil), DefaultGeometry)
	require.Len(t, slices, 2)
	assert.Empty(t, slices[1].Path)

	svg := string(SVG(slices, DefaultGeometry, nil))
	assert.Equal(t, 1, strings.Count(svg, "<path"))
}

func TestSVGMarksSelectionAndEscapes(t *testing.T) {
	cats := []core.Category{cat(1, "<b>Food</b>", -6), cat(2, "Fun", -4)}
	slices := Pie(Aggregate(cats, decimal.NewFromInt(-10), nil), DefaultGeometry)
	sel := int64(2)
	svg := string(SVG(slices, DefaultGeometry, &sel))
	assert.Contains(t, svg, `class="pie-slice selected" data-category="2"`)
	assert.NotContains(t, svg, "<b>")
	assert.Contains(t, svg, `viewBox="0 0 300 300"`)
}

func TestBars(t *testing.T) {
	bars := Bars(Aggregate([]core.Category{cat(1, "A", -50), cat(2, "B", 25)}, decimal.NewFromInt(-25), nil))
	require.Len(t, bars, 2)
	assert.InDelta(t, 1.0, bars[0].Fraction, 1e-12)
	assert.InDelta(t, 0.5, bars[1].Fraction, 1e-12)
	assert.InDelta(t, 50, bars[1].WidthPercent(), 1e-9)

	zero := Bars(Aggregate([]core.Category{cat(1, "A", 0)}, decimal.Zero, nil))
	assert.Zero(t, zero[0].Fraction)
	assert.False(t, math.IsNaN(zero[0].Fraction))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]core.Category{cat(1, "A", -6000), cat(2, "B", -4000)}, decimal.NewFromInt(-10000))
	assert.True(t, s.Total.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, 2, s.Count)
	assert.True(t, s.AveragePerCategory.Equal(decimal.NewFromInt(5000)))

	empty := Summarize(nil, decimal.Zero)
	assert.True(t, empty.AveragePerCategory.IsZero())
}

func TestSessionSelection(t *testing.T) {
	s := NewSession()
	assert.Nil(t, s.Selected())

	s.Select(1)
	require.NotNil(t, s.Selected())
	assert.Equal(t, int64(1), *s.Selected())

	s.Select(2)
	assert.Equal(t, int64(2), *s.Selected())

	s.Select(2)
	assert.Nil(t, s.Selected())
}

func TestSessionHidingSelectedClearsIt(t *testing.T) {
	s := NewSession()
	s.Select(1)
	s.ToggleHidden(1)
	assert.Nil(t, s.Selected())
	assert.True(t, s.Hidden().Has(1))
}

func TestSessionFrame(t *testing.T) {
	s := NewSession()
	s.SetView(ParseView("bar"))
	s.Select(2)
	cats := []core.Category{cat(1, "A", -60), cat(2, "B", -40)}
	f := s.Frame(cats, decimal.NewFromInt(-100))
	assert.Equal(t, ViewBar, f.View)
	require.NotNil(t, f.Selected)
	assert.Equal(t, "B", f.Selected.Category.BigCategory)
	assert.InDelta(t, 40, f.Selected.Percentage, 1e-9)
	assert.Len(t, f.Slices, 2)
	assert.Len(t, f.Bars, 2)
	assert.Equal(t, ViewPie, ParseView("donut"))
}
