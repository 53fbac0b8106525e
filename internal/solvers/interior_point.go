package solvers

import (
	"math"

	"github.com/san-kum/optlab/internal/mathprog"
	"github.com/san-kum/optlab/internal/symbolic"
)

// InteriorPoint minimizes cost with a logarithmic barrier on inequality
// constraints and a quadratic penalty on equalities. Iterates that sit
// outside an inequality fall back to the penalty term for that bound, so
// the method does not require a strictly feasible start.
type InteriorPoint struct {
	InitialBarrier float64
	BarrierGrowth  float64
	InitialWeight  float64
	WeightGrowth   float64
	Rounds         int
}

func NewInteriorPoint() *InteriorPoint {
	return &InteriorPoint{
		InitialBarrier: 1.0,
		BarrierGrowth:  10.0,
		InitialWeight:  10.0,
		WeightGrowth:   10.0,
		Rounds:         8,
	}
}

func (ip *InteriorPoint) Name() string { return "interior-point" }

func (ip *InteriorPoint) Solve(prog *mathprog.Program, guess []float64, opts Options) (*mathprog.Result, error) {
	o, x, err := newObjective(prog, guess)
	if err != nil {
		return nil, err
	}

	t := ip.InitialBarrier
	mu := ip.InitialWeight
	perRound := opts.MaxIterations / ip.Rounds
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
	for round := 0; round < ip.Rounds; round++ {
		f := func(x []float64) float64 {
			env := o.env(x)
			v := o.cost(env)
			for _, c := range o.cons {
				v += ip.merit(c, env, t, mu)
			}
			return v
		}
		grad := func(x []float64, out []float64) {
			env := o.env(x)
			o.addCostGrad(env, out)
			for _, c := range o.cons {
				ip.addMeritGrad(c, env, t, mu, out)
			}
		}

		iters, ok := descend(f, grad, x, perRound, opts.Tolerance, onStep)
		total += iters
		converged = ok

		if prog.MaxViolation(o.env(x)) <= opts.FeasTolerance && ok && 1/t < opts.FeasTolerance {
			break
		}
		t *= ip.BarrierGrowth
		mu *= ip.WeightGrowth
	}

	return finish(o, ip.Name(), x, total, classify(o, x, converged, opts)), nil
}

// merit evaluates the barrier/penalty contribution of one constraint.
func (ip *InteriorPoint) merit(c conData, env symbolic.Env, t, mu float64) float64 {
	v := c.expr.Eval(env)

	if c.lb == c.ub {
		d := v - c.lb
		return mu * d * d
	}

	total := 0.0
	if !math.IsInf(c.ub, 1) {
		slack := c.ub - v
		if slack > 0 {
			total += -math.Log(slack) / t
		} else {
			total += mu * slack * slack
		}
	}
	if !math.IsInf(c.lb, -1) {
		slack := v - c.lb
		if slack > 0 {
			total += -math.Log(slack) / t
		} else {
			total += mu * slack * slack
		}
	}
	return total
}

func (ip *InteriorPoint) addMeritGrad(c conData, env symbolic.Env, t, mu float64, out []float64) {
	v := c.expr.Eval(env)

	// scale multiplies the constraint gradient in the chain rule.
	scale := 0.0
	if c.lb == c.ub {
		scale = 2 * mu * (v - c.lb)
	} else {
		if !math.IsInf(c.ub, 1) {
			slack := c.ub - v
			if slack > 0 {
				scale += 1 / (t * slack)
			} else {
				scale += 2 * mu * (v - c.ub)
			}
		}
		if !math.IsInf(c.lb, -1) {
			slack := v - c.lb
			if slack > 0 {
				scale += -1 / (t * slack)
			} else {
				scale += 2 * mu * (v - c.lb)
			}
		}
	}
	if scale == 0 {
		return
	}
	for i, g := range c.grad {
		out[i] += scale * g.Eval(env)
	}
}
