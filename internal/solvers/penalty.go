package solvers

import (
	"github.com/san-kum/optlab/internal/mathprog"
)

// Penalty minimizes cost plus a quadratic penalty on constraint
// violation, increasing the penalty weight across outer rounds.
type Penalty struct {
	InitialWeight float64
	WeightGrowth  float64
	Rounds        int
}

func NewPenalty() *Penalty {
	return &Penalty{
		InitialWeight: 10.0,
		WeightGrowth:  10.0,
		Rounds:        6,
	}
}

func (p *Penalty) Name() string { return "penalty" }

func (p *Penalty) Solve(prog *mathprog.Program, guess []float64, opts Options) (*mathprog.Result, error) {
	o, x, err := newObjective(prog, guess)
	if err != nil {
		return nil, err
	}

	mu := p.InitialWeight
	perRound := opts.MaxIterations / p.Rounds
	if perRound < 1 {
		perRound = 1
	}

	onStep := func(x []float64) {
		prog.CallCallbacks(o.env(x))
	}
	if prog.NumCallbacks() == 0 {
		onStep = nil
	}

	total := 0
	converged := false
	for round := 0; round < p.Rounds; round++ {
		f := func(x []float64) float64 {
			env := o.env(x)
			v := o.cost(env)
			for _, c := range o.cons {
				d := excess(c, env)
				v += mu * d * d
			}
			return v
		}
		grad := func(x []float64, out []float64) {
			env := o.env(x)
			o.addCostGrad(env, out)
			for _, c := range o.cons {
				d := excess(c, env)
				if d == 0 {
					continue
				}
				for i, g := range c.grad {
					out[i] += 2 * mu * d * g.Eval(env)
				}
			}
		}

		iters, ok := descend(f, grad, x, perRound, opts.Tolerance, onStep)
		total += iters
		converged = ok

		if prog.MaxViolation(o.env(x)) <= opts.FeasTolerance && ok {
			break
		}
		mu *= p.WeightGrowth
	}

	return finish(o, p.Name(), x, total, classify(o, x, converged, opts)), nil
}
