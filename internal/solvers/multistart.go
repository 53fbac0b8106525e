package solvers

import (
	"math/rand"
	"sync"

	"github.com/san-kum/optlab/internal/mathprog"
)

// MultiStart runs an inner solver from several perturbed starting points
// in parallel and keeps the best outcome. Visualization callbacks fire
// from all starts and may interleave.
type MultiStart struct {
	Inner  Solver
	Starts int
	Spread float64
	Seed   int64
}

func NewMultiStart(inner Solver, starts int, seed int64) *MultiStart {
	return &MultiStart{
		Inner:  inner,
		Starts: starts,
		Spread: 5.0,
		Seed:   seed,
	}
}

func (m *MultiStart) Name() string { return "multi-start/" + m.Inner.Name() }

func (m *MultiStart) Solve(prog *mathprog.Program, guess []float64, opts Options) (*mathprog.Result, error) {
	if guess == nil {
		guess = prog.InitialGuess()
	}
	if len(guess) != len(prog.Variables()) {
		return nil, ErrBadGuess
	}

	results := make([]*mathprog.Result, m.Starts)
	errs := make([]error, m.Starts)

	var wg sync.WaitGroup
	for i := 0; i < m.Starts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(m.Seed + int64(idx)))
			start := make([]float64, len(guess))
			copy(start, guess)
			if idx > 0 {
				for j := range start {
					start[j] += m.Spread * rng.NormFloat64()
				}
			}

			results[idx], errs[idx] = m.Inner.Solve(prog, start, opts)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	best := results[0]
	for _, r := range results[1:] {
		if better(r, best) {
			best = r
		}
	}
	out := *best
	out.Solver = m.Name()
	return &out, nil
}

// better prefers successful results, then lower cost.
func better(a, b *mathprog.Result) bool {
	if a.Success() != b.Success() {
		return a.Success()
	}
	return a.Cost < b.Cost
}
