// Package blocks implements the leaf systems used in diagram rigs:
// physical plants, controllers and signal primitives.
package blocks

import (
	"math"

	"github.com/san-kum/optlab/internal/systems"
)

// PendulumPlant is a damped rigid pendulum with a torque input and a
// [theta, omega] state output.
type PendulumPlant struct {
	systems.LeafSystem
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulumPlant() *PendulumPlant {
	return &PendulumPlant{
		LeafSystem: systems.NewLeafSystem("pendulum", []int{1}, []int{2}, 2),
		Mass:       1.0,
		Length:     1.0,
		Damping:    0.1,
		Gravity:    9.81,
	}
}

func (p *PendulumPlant) TorqueInputPort() systems.InputPort {
	return systems.InputPort{Sys: p, Port: 0}
}

func (p *PendulumPlant) StateOutputPort() systems.OutputPort {
	return systems.OutputPort{Sys: p, Port: 0}
}

func (p *PendulumPlant) Derivatives(t float64, x systems.State, inputs []systems.State) systems.State {
	theta := x[0]
	omega := x[1]

	torque := 0.0
	if len(inputs) > 0 && len(inputs[0]) > 0 {
		torque = inputs[0][0]
	}
	alpha := (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta) + torque) /
		(p.Mass * p.Length * p.Length)

	return systems.State{omega, alpha}
}

func (p *PendulumPlant) CalcOutput(port int, t float64, x systems.State, inputs []systems.State) systems.State {
	return x.Clone()
}

func (p *PendulumPlant) DirectFeedthrough(port int) bool { return false }

func (p *PendulumPlant) Energy(x systems.State) float64 {
	// KE = 0.5 * m * (L*omega)^2
	// PE = m * g * L * (1 - cos(theta))
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
	return ke + pe
}
