package blocks

import "github.com/san-kum/optlab/internal/systems"

// PIDController regulates a plant toward a desired state. Both state
// inputs carry [q, v] pairs of width 2n; the control output has width n.
// The continuous state holds the integral of the position error.
type PIDController struct {
	systems.LeafSystem
	Kp []float64
	Ki []float64
	Kd []float64
}

func NewPIDController(kp, ki, kd []float64) *PIDController {
	n := len(kp)
	return &PIDController{
		LeafSystem: systems.NewLeafSystem("controller",
			[]int{2 * n, 2 * n}, []int{n}, n),
		Kp: kp,
		Ki: ki,
		Kd: kd,
	}
}

func (c *PIDController) EstimatedStateInputPort() systems.InputPort {
	return systems.InputPort{Sys: c, Port: 0}
}

func (c *PIDController) DesiredStateInputPort() systems.InputPort {
	return systems.InputPort{Sys: c, Port: 1}
}

func (c *PIDController) ControlOutputPort() systems.OutputPort {
	return systems.OutputPort{Sys: c, Port: 0}
}

// Derivatives integrates the position error.
func (c *PIDController) Derivatives(t float64, x systems.State, inputs []systems.State) systems.State {
	n := len(c.Kp)
	xdot := make(systems.State, n)
	for i := 0; i < n; i++ {
		xdot[i] = value(inputs, 1, i) - value(inputs, 0, i)
	}
	return xdot
}

func (c *PIDController) CalcOutput(port int, t float64, x systems.State, inputs []systems.State) systems.State {
	n := len(c.Kp)
	u := make(systems.State, n)
	for i := 0; i < n; i++ {
		ePos := value(inputs, 1, i) - value(inputs, 0, i)
		eVel := value(inputs, 1, n+i) - value(inputs, 0, n+i)
		u[i] = c.Kp[i]*ePos + c.Ki[i]*x[i] + c.Kd[i]*eVel
	}
	return u
}

func (c *PIDController) DirectFeedthrough(port int) bool { return true }

func value(inputs []systems.State, port, index int) float64 {
	if port < len(inputs) && index < len(inputs[port]) {
		return inputs[port][index]
	}
	return 0
}
