package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// PhasePlot draws y against x on a braille canvas, autoscaled with a
// small margin, connecting consecutive samples.
func PhasePlot(xs, ys []float64, width, height int) *Canvas {
	c := NewCanvas(width, height)
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n == 0 {
		return c
	}

	minX, maxX := bounds(xs[:n])
	minY, maxY := bounds(ys[:n])
	spanX := pad(&minX, &maxX)
	spanY := pad(&minY, &maxY)

	toDot := func(x, y float64) (int, int) {
		dx := int(math.Round((x - minX) / spanX * float64(c.DotWidth()-1)))
		dy := int(math.Round((1 - (y-minY)/spanY) * float64(c.DotHeight()-1)))
		return dx, dy
	}

	px, py := toDot(xs[0], ys[0])
	c.Set(px, py)
	for i := 1; i < n; i++ {
		nx, ny := toDot(xs[i], ys[i])
		c.Line(px, py, nx, ny)
		px, py = nx, ny
	}
	return c
}

// PhasePlotString renders the plot with axis range captions.
func PhasePlotString(xs, ys []float64, width, height int, xLabel, yLabel string) string {
	c := PhasePlot(xs, ys, width, height)
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}

	var b strings.Builder
	b.WriteString(c.String())
	if n > 0 {
		minX, maxX := bounds(xs[:n])
		minY, maxY := bounds(ys[:n])
		fmt.Fprintf(&b, "%s: [%.3g, %.3g]  %s: [%.3g, %.3g]\n",
			xLabel, minX, maxX, yLabel, minY, maxY)
	}
	return b.String()
}

// TimeSeries renders one signal as a line chart.
func TimeSeries(values []float64, width, height int, caption string) string {
	if len(values) == 0 {
		return ""
	}
	return asciigraph.Plot(values,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Caption(caption),
	)
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// pad widens a degenerate or tight range by 5 percent a side and returns
// the span.
func pad(lo, hi *float64) float64 {
	span := *hi - *lo
	if span == 0 {
		span = 1
	}
	*lo -= span * 0.05
	*hi += span * 0.05
	return *hi - *lo
}
