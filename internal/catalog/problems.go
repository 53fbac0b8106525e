// Package catalog names the built-in demo problems and diagram rigs so
// the CLI can look them up.
package catalog

import (
	"fmt"
	"sort"

	"github.com/san-kum/optlab/internal/mathprog"
	"github.com/san-kum/optlab/internal/symbolic"
)

// Problem is a named optimization program with its default initial guess
// already set.
type Problem struct {
	Name        string
	Description string
	Build       func() (*mathprog.Program, []symbolic.Variable)
}

var problems = map[string]Problem{
	"feasible": {
		Name:        "feasible",
		Description: "min x(0) s.t. x(0)+x(1)=1, 0<=x(1)<=1",
		Build: func() (*mathprog.Program, []symbolic.Variable) {
			prog := mathprog.New()
			x := prog.NewContinuousVariables(2)
			prog.AddConstraint(mathprog.Eq(symbolic.Add(x[0], x[1]), 1))
			prog.AddConstraint(mathprog.Between(0, x[1], 1))
			prog.AddCost(x[0])
			prog.SetInitialGuess(x[0], 1)
			prog.SetInitialGuess(x[1], 1)
			return prog, x
		},
	},
	"quadratic": {
		Name:        "quadratic",
		Description: "min x(0)^2+x(1)^2 s.t. x(0)+x(1)=1, x(0)<=x(1)",
		Build: func() (*mathprog.Program, []symbolic.Variable) {
			prog := mathprog.New()
			x := prog.NewContinuousVariables(2)
			prog.AddConstraint(mathprog.Eq(symbolic.Add(x[0], x[1]), 1))
			prog.AddConstraint(mathprog.Le(symbolic.Sub(x[0], x[1]), 0))
			prog.AddCost(symbolic.Add(symbolic.Pow(x[0], 2), symbolic.Pow(x[1], 2)))
			return prog, x
		},
	},
	"infeasible": {
		Name:        "infeasible",
		Description: "min x s.t. x+y>=1, x+y<=0 (no feasible point)",
		Build: func() (*mathprog.Program, []symbolic.Variable) {
			prog := mathprog.New()
			x := prog.NewNamedContinuousVariables(1, "x")[0]
			y := prog.NewNamedContinuousVariables(1, "y")[0]
			prog.AddConstraint(mathprog.Ge(symbolic.Add(x, y), 1))
			prog.AddConstraint(mathprog.Le(symbolic.Add(x, y), 0))
			prog.AddCost(x)
			return prog, []symbolic.Variable{x, y}
		},
	},
	"circle": {
		Name:        "circle",
		Description: "min x(0)^2-x(1)^2 on the circle x(0)^2+x(1)^2=100",
		Build: func() (*mathprog.Program, []symbolic.Variable) {
			prog := mathprog.New()
			x := prog.NewContinuousVariables(2)
			prog.AddConstraint(mathprog.Eq(
				symbolic.Add(symbolic.Pow(x[0], 2), symbolic.Pow(x[1], 2)), 100))
			prog.AddCost(symbolic.Sub(symbolic.Pow(x[0], 2), symbolic.Pow(x[1], 2)))
			prog.SetInitialGuess(x[0], -5)
			prog.SetInitialGuess(x[1], 0)
			return prog, x
		},
	},
	"product": {
		Name:        "product",
		Description: "min x(0)^2+x(1)^2 s.t. x(0)*x(1)=9",
		Build: func() (*mathprog.Program, []symbolic.Variable) {
			prog := mathprog.New()
			x := prog.NewContinuousVariables(2)
			prog.AddConstraint(mathprog.Eq(symbolic.Mul(x[0], x[1]), 9))
			prog.AddCost(symbolic.Add(symbolic.Pow(x[0], 2), symbolic.Pow(x[1], 2)))
			prog.SetInitialGuess(x[0], 4)
			prog.SetInitialGuess(x[1], 5)
			return prog, x
		},
	},
}

// LookupProblem finds a demo problem by name.
func LookupProblem(name string) (Problem, error) {
	p, ok := problems[name]
	if !ok {
		return Problem{}, fmt.Errorf("catalog: unknown problem %q", name)
	}
	return p, nil
}

// ProblemNames lists the demo problems in sorted order.
func ProblemNames() []string {
	names := make([]string, 0, len(problems))
	for name := range problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
