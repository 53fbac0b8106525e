// Package mathprog formulates constrained optimization problems over
// symbolic decision variables. A Program collects variables, constraints,
// costs and callbacks; solving is delegated to the solvers package.
package mathprog

import (
	"fmt"
	"math"

	"github.com/san-kum/optlab/internal/symbolic"
)

type Program struct {
	vars        []symbolic.Variable
	constraints []*Binding
	costs       []*Binding
	callbacks   []visualization
	guess       symbolic.Env
}

type visualization struct {
	fn   func([]float64)
	vars []symbolic.Variable
}

func New() *Program {
	return &Program{guess: make(symbolic.Env)}
}

// NewContinuousVariables adds n scalar decision variables printed as
// x(0)..x(n-1).
func (p *Program) NewContinuousVariables(n int) []symbolic.Variable {
	return p.NewNamedContinuousVariables(n, "x")
}

// NewNamedContinuousVariables adds n scalar decision variables with a
// custom display name.
func (p *Program) NewNamedContinuousVariables(n int, name string) []symbolic.Variable {
	vs := make([]symbolic.Variable, n)
	for i := range vs {
		vs[i] = symbolic.NewVariable(fmt.Sprintf("%s(%d)", name, i))
		p.vars = append(p.vars, vs[i])
	}
	return vs
}

// NewVariableMatrix adds a rows-by-cols matrix of decision variables
// printed as name(i,j).
func (p *Program) NewVariableMatrix(rows, cols int, name string) [][]symbolic.Variable {
	m := make([][]symbolic.Variable, rows)
	for i := range m {
		m[i] = make([]symbolic.Variable, cols)
		for j := range m[i] {
			m[i][j] = symbolic.NewVariable(fmt.Sprintf("%s(%d,%d)", name, i, j))
			p.vars = append(p.vars, m[i][j])
		}
	}
	return m
}

// AddConstraint adds a formula as a constraint and returns its binding.
func (p *Program) AddConstraint(f Formula) *Binding {
	b := &Binding{expr: f.expr, lb: f.lb, ub: f.ub, kind: kindConstraint}
	p.constraints = append(p.constraints, b)
	return b
}

// AddCost adds a scalar cost term. The program objective is the sum of
// all cost terms.
func (p *Program) AddCost(e symbolic.Expr) *Binding {
	b := &Binding{expr: e, kind: kindCost}
	p.costs = append(p.costs, b)
	return b
}

// AddVisualizationCallback registers fn to be invoked with the current
// value of vars at every solver iterate.
func (p *Program) AddVisualizationCallback(fn func([]float64), vars []symbolic.Variable) {
	p.callbacks = append(p.callbacks, visualization{fn: fn, vars: vars})
}

// SetInitialGuess sets the starting value for a single variable.
func (p *Program) SetInitialGuess(v symbolic.Variable, value float64) {
	p.guess[v] = value
}

// SetInitialGuessVector sets starting values for a variable vector.
func (p *Program) SetInitialGuessVector(vs []symbolic.Variable, values []float64) error {
	if len(vs) != len(values) {
		return fmt.Errorf("mathprog: guess length %d does not match %d variables", len(values), len(vs))
	}
	for i, v := range vs {
		p.guess[v] = values[i]
	}
	return nil
}

func (p *Program) Variables() []symbolic.Variable { return p.vars }
func (p *Program) Constraints() []*Binding        { return p.constraints }
func (p *Program) Costs() []*Binding              { return p.costs }

// NumCallbacks reports how many visualization callbacks are registered.
func (p *Program) NumCallbacks() int { return len(p.callbacks) }

// InitialGuess returns the starting point aligned with Variables().
// Variables without an explicit guess start at zero.
func (p *Program) InitialGuess() []float64 {
	x0 := make([]float64, len(p.vars))
	for i, v := range p.vars {
		x0[i] = p.guess[v]
	}
	return x0
}

// Env builds an environment from a point aligned with Variables().
func (p *Program) Env(x []float64) symbolic.Env {
	env := make(symbolic.Env, len(p.vars))
	for i, v := range p.vars {
		if i < len(x) {
			env[v] = x[i]
		}
	}
	return env
}

// TotalCost evaluates the sum of all cost terms at env.
func (p *Program) TotalCost(env symbolic.Env) float64 {
	total := 0.0
	for _, c := range p.costs {
		total += c.expr.Eval(env)
	}
	return total
}

// MaxViolation returns the worst constraint violation at env. Zero means
// the point is feasible.
func (p *Program) MaxViolation(env symbolic.Env) float64 {
	worst := 0.0
	for _, c := range p.constraints {
		worst = math.Max(worst, c.Violation(env))
	}
	return worst
}

// CallCallbacks invokes every visualization callback at env.
func (p *Program) CallCallbacks(env symbolic.Env) {
	for _, cb := range p.callbacks {
		vals := make([]float64, len(cb.vars))
		for i, v := range cb.vars {
			vals[i] = env[v]
		}
		cb.fn(vals)
	}
}

// HasInequalities reports whether any constraint is not a pure equality.
func (p *Program) HasInequalities() bool {
	for _, c := range p.constraints {
		if c.lb != c.ub {
			return true
		}
	}
	return false
}
