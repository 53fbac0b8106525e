package blocks

import (
	"fmt"

	"github.com/san-kum/optlab/internal/symbolic"
	"github.com/san-kum/optlab/internal/systems"
)

// SymbolicVectorSystem is a leaf system whose dynamics and outputs are
// symbolic expressions over its state and input variables.
type SymbolicVectorSystem struct {
	systems.LeafSystem
	stateVars []symbolic.Variable
	inputVars []symbolic.Variable
	dynamics  []symbolic.Expr
	output    []symbolic.Expr
}

// SymbolicVectorSystemBuilder assembles a SymbolicVectorSystem.
type SymbolicVectorSystemBuilder struct {
	stateVars []symbolic.Variable
	inputVars []symbolic.Variable
	dynamics  []symbolic.Expr
	output    []symbolic.Expr
}

func NewSymbolicVectorSystemBuilder() *SymbolicVectorSystemBuilder {
	return &SymbolicVectorSystemBuilder{}
}

func (b *SymbolicVectorSystemBuilder) State(vars ...symbolic.Variable) *SymbolicVectorSystemBuilder {
	b.stateVars = vars
	return b
}

func (b *SymbolicVectorSystemBuilder) Input(vars ...symbolic.Variable) *SymbolicVectorSystemBuilder {
	b.inputVars = vars
	return b
}

func (b *SymbolicVectorSystemBuilder) Dynamics(exprs ...symbolic.Expr) *SymbolicVectorSystemBuilder {
	b.dynamics = exprs
	return b
}

func (b *SymbolicVectorSystemBuilder) Output(exprs ...symbolic.Expr) *SymbolicVectorSystemBuilder {
	b.output = exprs
	return b
}

func (b *SymbolicVectorSystemBuilder) Build() (*SymbolicVectorSystem, error) {
	if len(b.dynamics) != len(b.stateVars) {
		return nil, fmt.Errorf("blocks: %d dynamics expressions for %d state variables",
			len(b.dynamics), len(b.stateVars))
	}

	var inputSizes []int
	if len(b.inputVars) > 0 {
		inputSizes = []int{len(b.inputVars)}
	}

	return &SymbolicVectorSystem{
		LeafSystem: systems.NewLeafSystem("symbolic",
			inputSizes, []int{len(b.output)}, len(b.stateVars)),
		stateVars: b.stateVars,
		inputVars: b.inputVars,
		dynamics:  b.dynamics,
		output:    b.output,
	}, nil
}

func (s *SymbolicVectorSystem) OutputPort() systems.OutputPort {
	return systems.OutputPort{Sys: s, Port: 0}
}

func (s *SymbolicVectorSystem) InputPort() systems.InputPort {
	return systems.InputPort{Sys: s, Port: 0}
}

func (s *SymbolicVectorSystem) env(x systems.State, inputs []systems.State) symbolic.Env {
	env := make(symbolic.Env, len(s.stateVars)+len(s.inputVars))
	for i, v := range s.stateVars {
		if i < len(x) {
			env[v] = x[i]
		}
	}
	for i, v := range s.inputVars {
		if len(inputs) > 0 && i < len(inputs[0]) {
			env[v] = inputs[0][i]
		}
	}
	return env
}

func (s *SymbolicVectorSystem) Derivatives(t float64, x systems.State, inputs []systems.State) systems.State {
	env := s.env(x, inputs)
	xdot := make(systems.State, len(s.dynamics))
	for i, e := range s.dynamics {
		xdot[i] = e.Eval(env)
	}
	return xdot
}

func (s *SymbolicVectorSystem) CalcOutput(port int, t float64, x systems.State, inputs []systems.State) systems.State {
	env := s.env(x, inputs)
	y := make(systems.State, len(s.output))
	for i, e := range s.output {
		y[i] = e.Eval(env)
	}
	return y
}

// DirectFeedthrough is true when any output expression mentions an input
// variable.
func (s *SymbolicVectorSystem) DirectFeedthrough(port int) bool {
	for _, e := range s.output {
		for _, v := range symbolic.Vars(e) {
			for _, in := range s.inputVars {
				if v == in {
					return true
				}
			}
		}
	}
	return false
}
