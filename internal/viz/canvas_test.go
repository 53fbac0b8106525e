package viz

import (
	"math"
	"strings"
	"testing"
)

func TestCanvasSetAndString(t *testing.T) {
	c := NewCanvas(2, 1)

	if c.DotWidth() != 4 || c.DotHeight() != 4 {
		t.Fatalf("unexpected dot sizes %dx%d", c.DotWidth(), c.DotHeight())
	}

	c.Set(0, 0)
	if !c.At(0, 0) {
		t.Error("dot (0,0) not set")
	}
	if c.At(1, 0) {
		t.Error("dot (1,0) set unexpectedly")
	}
	if c.Cell(0, 0) != brailleBase|0x01 {
		t.Errorf("unexpected cell rune %U", c.Cell(0, 0))
	}

	// Out-of-range dots are dropped silently.
	c.Set(-1, 0)
	c.Set(100, 100)

	out := c.String()
	if len(strings.Split(strings.TrimRight(out, "\n"), "\n")) != 1 {
		t.Errorf("expected 1 row, got %q", out)
	}

	c.Clear()
	if c.At(0, 0) {
		t.Error("clear left dots set")
	}
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Line(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.At(i, i) {
			t.Errorf("diagonal dot (%d,%d) not set", i, i)
		}
	}
}

func TestPhasePlotCoversCorners(t *testing.T) {
	xs := []float64{-1, 1}
	ys := []float64{-1, 1}
	c := PhasePlot(xs, ys, 10, 5)

	var count int
	for y := 0; y < c.DotHeight(); y++ {
		for x := 0; x < c.DotWidth(); x++ {
			if c.At(x, y) {
				count++
			}
		}
	}
	if count == 0 {
		t.Fatal("plot drew nothing")
	}
}

func TestPhasePlotString(t *testing.T) {
	xs := make([]float64, 100)
	ys := make([]float64, 100)
	for i := range xs {
		xs[i] = math.Cos(float64(i) * 0.1)
		ys[i] = math.Sin(float64(i) * 0.1)
	}

	out := PhasePlotString(xs, ys, 20, 10, "theta", "omega")
	if !strings.Contains(out, "theta") || !strings.Contains(out, "omega") {
		t.Errorf("missing axis captions:\n%s", out)
	}
	if len(out) == 0 {
		t.Fatal("empty render")
	}
}

func TestTimeSeries(t *testing.T) {
	if TimeSeries(nil, 40, 10, "x") != "" {
		t.Error("expected empty chart for no data")
	}

	values := []float64{0, 1, 2, 1, 0}
	out := TimeSeries(values, 40, 10, "position")
	if !strings.Contains(out, "position") {
		t.Errorf("missing caption:\n%s", out)
	}
}
