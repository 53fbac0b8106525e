package mathprog

import "github.com/san-kum/optlab/internal/symbolic"

// SolutionResult classifies a solver outcome.
type SolutionResult int

const (
	ResultFound SolutionResult = iota
	ResultInfeasible
	ResultIterationLimit
	ResultUnbounded
	ResultInvalid
)

func (r SolutionResult) String() string {
	switch r {
	case ResultFound:
		return "solution found"
	case ResultInfeasible:
		return "infeasible constraints"
	case ResultIterationLimit:
		return "iteration limit"
	case ResultUnbounded:
		return "unbounded"
	default:
		return "invalid input"
	}
}

// Result holds the outcome of solving a program.
type Result struct {
	Status     SolutionResult
	Solver     string
	Values     symbolic.Env
	Cost       float64
	Iterations int
}

// Success reports whether a feasible optimum was found.
func (r *Result) Success() bool {
	return r.Status == ResultFound
}

// GetSolution returns the solved value of a single variable.
func (r *Result) GetSolution(v symbolic.Variable) float64 {
	return r.Values[v]
}

// GetSolutionVector returns solved values for a variable vector.
func (r *Result) GetSolutionVector(vs []symbolic.Variable) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = r.Values[v]
	}
	return out
}
