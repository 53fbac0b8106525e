// Package solvers implements numerical methods for mathprog programs.
//
// Each solver is a local method: the result depends on the initial guess,
// and a nonconvex program may fail from one starting point and succeed
// from another. [Solve] picks a default method for the program; a specific
// solver can be constructed and invoked directly.
package solvers

import (
	"errors"
	"math"

	"github.com/san-kum/optlab/internal/mathprog"
	"github.com/san-kum/optlab/internal/symbolic"
)

var (
	// ErrNoVariables indicates a program without decision variables.
	ErrNoVariables = errors.New("solvers: program has no decision variables")

	// ErrBadGuess indicates an initial guess of the wrong dimension.
	ErrBadGuess = errors.New("solvers: initial guess dimension mismatch")
)

// Options controls iteration budgets and tolerances.
type Options struct {
	MaxIterations int
	Tolerance     float64
	FeasTolerance float64
}

func DefaultOptions() Options {
	return Options{
		MaxIterations: 4000,
		Tolerance:     1e-8,
		FeasTolerance: 1e-4,
	}
}

// Solver solves a program starting from guess. A nil guess means the
// program's own initial guess.
type Solver interface {
	Name() string
	Solve(prog *mathprog.Program, guess []float64, opts Options) (*mathprog.Result, error)
}

// Solve runs the default solver for the program: interior-point when any
// inequality constraint is present, the penalty method otherwise.
func Solve(prog *mathprog.Program) (*mathprog.Result, error) {
	var s Solver
	if prog.HasInequalities() {
		s = NewInteriorPoint()
	} else {
		s = NewPenalty()
	}
	return s.Solve(prog, nil, DefaultOptions())
}

// objective caches the program's cost and constraint gradients so the
// iteration loops evaluate expressions, not re-derive them.
type objective struct {
	prog     *mathprog.Program
	vars     []symbolic.Variable
	costs    []symbolic.Expr
	costGrad [][]symbolic.Expr
	cons     []conData
}

type conData struct {
	expr   symbolic.Expr
	grad   []symbolic.Expr
	lb, ub float64
}

func newObjective(prog *mathprog.Program, guess []float64) (*objective, []float64, error) {
	vars := prog.Variables()
	if len(vars) == 0 {
		return nil, nil, ErrNoVariables
	}
	if guess == nil {
		guess = prog.InitialGuess()
	}
	if len(guess) != len(vars) {
		return nil, nil, ErrBadGuess
	}

	o := &objective{prog: prog, vars: vars}
	for _, c := range prog.Costs() {
		o.costs = append(o.costs, c.Expr())
		o.costGrad = append(o.costGrad, symbolic.Gradient(c.Expr(), vars))
	}
	for _, c := range prog.Constraints() {
		lb, ub := c.Bounds()
		o.cons = append(o.cons, conData{
			expr: c.Expr(),
			grad: symbolic.Gradient(c.Expr(), vars),
			lb:   lb,
			ub:   ub,
		})
	}

	x0 := make([]float64, len(guess))
	copy(x0, guess)
	return o, x0, nil
}

func (o *objective) env(x []float64) symbolic.Env {
	return o.prog.Env(x)
}

// excess is the signed distance of the constraint value past its bounds:
// negative below lb, positive above ub, zero inside.
func excess(c conData, env symbolic.Env) float64 {
	v := c.expr.Eval(env)
	if v < c.lb {
		return v - c.lb
	}
	if v > c.ub {
		return v - c.ub
	}
	return 0
}

func (o *objective) cost(env symbolic.Env) float64 {
	total := 0.0
	for _, c := range o.costs {
		total += c.Eval(env)
	}
	return total
}

func (o *objective) addCostGrad(env symbolic.Env, out []float64) {
	for _, grad := range o.costGrad {
		for i, g := range grad {
			out[i] += g.Eval(env)
		}
	}
}

// descend runs gradient descent with backtracking line search. onStep is
// invoked at every accepted iterate.
func descend(
	f func(x []float64) float64,
	grad func(x []float64, out []float64),
	x []float64,
	maxIter int,
	tol float64,
	onStep func(x []float64),
) (iters int, converged bool) {
	n := len(x)
	g := make([]float64, n)
	trial := make([]float64, n)

	fx := f(x)
	for iters = 0; iters < maxIter; iters++ {
		for i := range g {
			g[i] = 0
		}
		grad(x, g)

		gnorm := 0.0
		for _, v := range g {
			gnorm += v * v
		}
		gnorm = math.Sqrt(gnorm)
		if gnorm < tol {
			return iters, true
		}

		alpha := 1.0
		accepted := false
		for alpha > 1e-14 {
			for i := range trial {
				trial[i] = x[i] - alpha*g[i]
			}
			ft := f(trial)
			if ft < fx-1e-4*alpha*gnorm*gnorm {
				copy(x, trial)
				fx = ft
				accepted = true
				break
			}
			alpha *= 0.5
		}
		if !accepted {
			// No descent direction at machine precision.
			return iters, true
		}

		if onStep != nil {
			onStep(x)
		}
	}
	return iters, false
}

// classify turns a terminal iterate into a solution result. A point
// within the feasibility tolerance counts as found; an infeasible point
// where iteration stalled is reported infeasible, and one where the
// budget ran out while still moving is an iteration limit.
func classify(o *objective, x []float64, converged bool, opts Options) mathprog.SolutionResult {
	env := o.env(x)
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e10 {
			return mathprog.ResultUnbounded
		}
	}
	if o.prog.MaxViolation(env) <= opts.FeasTolerance {
		return mathprog.ResultFound
	}
	if !converged {
		return mathprog.ResultIterationLimit
	}
	return mathprog.ResultInfeasible
}

func finish(o *objective, name string, x []float64, iters int, status mathprog.SolutionResult) *mathprog.Result {
	env := o.env(x)
	return &mathprog.Result{
		Status:     status,
		Solver:     name,
		Values:     env,
		Cost:       o.cost(env),
		Iterations: iters,
	}
}
