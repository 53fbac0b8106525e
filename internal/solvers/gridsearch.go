package solvers

import (
	"github.com/san-kum/optlab/internal/mathprog"
)

// GridSearch is a derivative-free method: it scores a grid of candidate
// points in a box around the guess, then recenters and shrinks the box
// around the best candidate for a number of refinement levels. Useful for
// small programs whose gradients mislead a descent method.
type GridSearch struct {
	Radius float64
	Points int
	Levels int
	BigM   float64
}

func NewGridSearch() *GridSearch {
	return &GridSearch{
		Radius: 10.0,
		Points: 11,
		Levels: 12,
		BigM:   1e6,
	}
}

func (g *GridSearch) Name() string { return "grid-search" }

func (g *GridSearch) Solve(prog *mathprog.Program, guess []float64, opts Options) (*mathprog.Result, error) {
	o, x, err := newObjective(prog, guess)
	if err != nil {
		return nil, err
	}

	center := append([]float64(nil), x...)
	radius := g.Radius
	best := append([]float64(nil), x...)
	bestScore := g.score(o, x)

	evals := 0
	point := make([]float64, len(x))
	for level := 0; level < g.Levels; level++ {
		improved := false
		g.enumerate(0, center, radius, point, func(candidate []float64) {
			evals++
			s := g.score(o, candidate)
			if s < bestScore {
				bestScore = s
				copy(best, candidate)
				improved = true
			}
		})

		if improved {
			prog.CallCallbacks(o.env(best))
		}
		copy(center, best)
		radius /= 2
		if radius < opts.Tolerance {
			break
		}
	}

	copy(x, best)
	return finish(o, g.Name(), x, evals, classify(o, x, true, opts)), nil
}

// score is the cost plus a large multiple of the constraint violation.
func (g *GridSearch) score(o *objective, x []float64) float64 {
	env := o.env(x)
	viol := o.prog.MaxViolation(env)
	return o.cost(env) + g.BigM*viol
}

// enumerate walks the full grid one dimension at a time.
func (g *GridSearch) enumerate(depth int, center []float64, radius float64, point []float64, visit func([]float64)) {
	if depth == len(center) {
		visit(point)
		return
	}

	if g.Points == 1 {
		point[depth] = center[depth]
		g.enumerate(depth+1, center, radius, point, visit)
		return
	}

	step := 2 * radius / float64(g.Points-1)
	for i := 0; i < g.Points; i++ {
		point[depth] = center[depth] - radius + float64(i)*step
		g.enumerate(depth+1, center, radius, point, visit)
	}
}
