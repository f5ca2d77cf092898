package chart

// Bar is a horizontal bar scaled against the largest visible category.
type Bar struct {
	Point
	Fraction float64 // 0..1 of the widest bar
}

// WidthPercent is Fraction as a CSS percentage.
func (b Bar) WidthPercent() float64 { return b.Fraction * 100 }

// Bars scales each point by |spending| / max |spending|. All fractions are
// 0 when every visible category is 0.
func Bars(points []Point) []Bar {
	bars := make([]Bar, 0, len(points))
	var max float64
	for _, p := range points {
		if m := p.Magnitude.InexactFloat64(); m > max {
			max = m
		}
	}
	for _, p := range points {
		frac := 0.0
		if max > 0 {
			frac = p.Magnitude.InexactFloat64() / max
		}
		bars = append(bars, Bar{Point: p, Fraction: frac})
	}
	return bars
}
