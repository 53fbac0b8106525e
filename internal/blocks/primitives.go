package blocks

import "github.com/san-kum/optlab/internal/systems"

// Gain scales its input vector by a constant.
type Gain struct {
	systems.LeafSystem
	K float64
}

func NewGain(k float64, width int) *Gain {
	return &Gain{
		LeafSystem: systems.NewLeafSystem("gain", []int{width}, []int{width}, 0),
		K:          k,
	}
}

func (g *Gain) InputPort() systems.InputPort   { return systems.InputPort{Sys: g, Port: 0} }
func (g *Gain) OutputPort() systems.OutputPort { return systems.OutputPort{Sys: g, Port: 0} }

func (g *Gain) Derivatives(t float64, x systems.State, inputs []systems.State) systems.State {
	return nil
}

func (g *Gain) CalcOutput(port int, t float64, x systems.State, inputs []systems.State) systems.State {
	out := make(systems.State, g.OutputPortSize(0))
	if len(inputs) > 0 {
		for i := range out {
			if i < len(inputs[0]) {
				out[i] = g.K * inputs[0][i]
			}
		}
	}
	return out
}

func (g *Gain) DirectFeedthrough(port int) bool { return true }

// Adder sums a fixed number of equally wide input vectors.
type Adder struct {
	systems.LeafSystem
}

func NewAdder(numInputs, width int) *Adder {
	sizes := make([]int, numInputs)
	for i := range sizes {
		sizes[i] = width
	}
	return &Adder{
		LeafSystem: systems.NewLeafSystem("adder", sizes, []int{width}, 0),
	}
}

func (a *Adder) InputPort(i int) systems.InputPort {
	return systems.InputPort{Sys: a, Port: i}
}

func (a *Adder) OutputPort() systems.OutputPort {
	return systems.OutputPort{Sys: a, Port: 0}
}

func (a *Adder) Derivatives(t float64, x systems.State, inputs []systems.State) systems.State {
	return nil
}

func (a *Adder) CalcOutput(port int, t float64, x systems.State, inputs []systems.State) systems.State {
	out := make(systems.State, a.OutputPortSize(0))
	for _, in := range inputs {
		for i := range out {
			if i < len(in) {
				out[i] += in[i]
			}
		}
	}
	return out
}

func (a *Adder) DirectFeedthrough(port int) bool { return true }

// ConstantSource emits a fixed vector.
type ConstantSource struct {
	systems.LeafSystem
	Value systems.State
}

func NewConstantSource(value systems.State) *ConstantSource {
	return &ConstantSource{
		LeafSystem: systems.NewLeafSystem("constant", nil, []int{len(value)}, 0),
		Value:      value,
	}
}

func (c *ConstantSource) OutputPort() systems.OutputPort {
	return systems.OutputPort{Sys: c, Port: 0}
}

func (c *ConstantSource) Derivatives(t float64, x systems.State, inputs []systems.State) systems.State {
	return nil
}

func (c *ConstantSource) CalcOutput(port int, t float64, x systems.State, inputs []systems.State) systems.State {
	return c.Value.Clone()
}

func (c *ConstantSource) DirectFeedthrough(port int) bool { return false }
