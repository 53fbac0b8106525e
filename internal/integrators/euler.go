package integrators

import "github.com/san-kum/optlab/internal/systems"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(f systems.ODE, x systems.State, t float64, dt float64) systems.State {
	dx := f.Derive(t, x)
	result := make(systems.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
