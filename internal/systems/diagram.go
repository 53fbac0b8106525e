package systems

import (
	"fmt"
	"sort"
	"strings"
)

// Diagram is a validated assembly of systems. Its continuous state is the
// concatenation of the subsystem states in the order they were added.
type Diagram struct {
	name        string
	systems     []System
	offsets     []int
	stateSize   int
	connections map[inputKey]OutputPort
	exported    []exportedInput
	sinks       []*VectorLogSink
}

func (d *Diagram) Name() string        { return d.name }
func (d *Diagram) SetName(name string) { d.name = name }

func (d *Diagram) NumStates() int          { return d.stateSize }
func (d *Diagram) NumInputs() int          { return len(d.exported) }
func (d *Diagram) Sinks() []*VectorLogSink { return d.sinks }

// InputSize returns the width of an exported diagram input.
func (d *Diagram) InputSize(index int) int {
	if index < 0 || index >= len(d.exported) {
		return -1
	}
	exp := d.exported[index]
	return exp.in.Sys.InputPortSize(exp.in.Port)
}

// Context holds the diagram's time, continuous state and fixed values for
// exported inputs.
type Context struct {
	diagram *Diagram
	time    float64
	state   State
	fixed   []State
}

// CreateDefaultContext returns a context with zero state and no fixed
// inputs.
func (d *Diagram) CreateDefaultContext() *Context {
	return &Context{
		diagram: d,
		state:   make(State, d.stateSize),
		fixed:   make([]State, len(d.exported)),
	}
}

func (ctx *Context) Time() float64 { return ctx.time }

func (ctx *Context) SetTime(t float64) { ctx.time = t }

// State returns the full diagram state vector (not a copy).
func (ctx *Context) State() State { return ctx.state }

// SetContinuousState replaces the full diagram state.
func (ctx *Context) SetContinuousState(x State) error {
	if len(x) != ctx.diagram.stateSize {
		return fmt.Errorf("systems: state size %d, diagram has %d", len(x), ctx.diagram.stateSize)
	}
	copy(ctx.state, x)
	return nil
}

// SetSubsystemState sets the state slice belonging to one subsystem.
func (ctx *Context) SetSubsystemState(s System, x State) error {
	idx := ctx.diagram.indexOf(s)
	if idx < 0 {
		return fmt.Errorf("systems: %s is not part of this diagram", s.Name())
	}
	if len(x) != s.NumStates() {
		return fmt.Errorf("systems: %s has %d states, got %d", s.Name(), s.NumStates(), len(x))
	}
	copy(ctx.state[ctx.diagram.offsets[idx]:], x)
	return nil
}

// SubsystemState returns a copy of one subsystem's state slice.
func (ctx *Context) SubsystemState(s System) (State, error) {
	idx := ctx.diagram.indexOf(s)
	if idx < 0 {
		return nil, fmt.Errorf("systems: %s is not part of this diagram", s.Name())
	}
	off := ctx.diagram.offsets[idx]
	return ctx.state[off : off+s.NumStates()].Clone(), nil
}

// FixInput assigns a constant value to an exported diagram input.
func (ctx *Context) FixInput(index int, value State) error {
	size := ctx.diagram.InputSize(index)
	if size < 0 {
		return fmt.Errorf("%w: diagram input %d", ErrPortBounds, index)
	}
	if len(value) != size {
		return fmt.Errorf("%w: diagram input %d wants %d values, got %d",
			ErrPortWidth, index, size, len(value))
	}
	ctx.fixed[index] = value.Clone()
	return nil
}

func (d *Diagram) indexOf(s System) int {
	for i, have := range d.systems {
		if have == s {
			return i
		}
	}
	return -1
}

func (d *Diagram) subState(x State, idx int) State {
	off := d.offsets[idx]
	return x[off : off+d.systems[idx].NumStates()]
}

// evalCache memoizes output port values during one evaluation pass.
type evalCache map[OutputPort]State

// EvalOutput computes the current value on an output port under ctx.
func (d *Diagram) EvalOutput(ctx *Context, out OutputPort) (State, error) {
	return d.evalOutput(ctx.time, ctx.state, ctx.fixed, out, make(evalCache))
}

func (d *Diagram) evalOutput(t float64, x State, fixed []State, out OutputPort, cache evalCache) (State, error) {
	if v, ok := cache[out]; ok {
		return v, nil
	}
	idx := d.indexOf(out.Sys)
	if idx < 0 {
		return nil, fmt.Errorf("systems: %s is not part of this diagram", out.Sys.Name())
	}

	var inputs []State
	if out.Sys.DirectFeedthrough(out.Port) {
		var err error
		inputs, err = d.gatherInputs(t, x, fixed, out.Sys, cache)
		if err != nil {
			return nil, err
		}
	}

	v := out.Sys.CalcOutput(out.Port, t, d.subState(x, idx), inputs)
	cache[out] = v
	return v, nil
}

func (d *Diagram) gatherInputs(t float64, x State, fixed []State, s System, cache evalCache) ([]State, error) {
	inputs := make([]State, s.NumInputPorts())
	for port := range inputs {
		key := inputKey{sys: s, port: port}
		if src, ok := d.connections[key]; ok {
			v, err := d.evalOutput(t, x, fixed, src, cache)
			if err != nil {
				return nil, err
			}
			inputs[port] = v
			continue
		}
		if idx := d.exportIndex(s, port); idx >= 0 && fixed[idx] != nil {
			inputs[port] = fixed[idx]
			continue
		}
		// Unfixed exported input reads as zero.
		inputs[port] = make(State, s.InputPortSize(port))
	}
	return inputs, nil
}

func (d *Diagram) exportIndex(s System, port int) int {
	for i, exp := range d.exported {
		if exp.in.Sys == s && exp.in.Port == port {
			return i
		}
	}
	return -1
}

// Derivatives computes the full diagram state derivative.
func (d *Diagram) Derivatives(t float64, x State, fixed []State) (State, error) {
	cache := make(evalCache)
	xdot := make(State, d.stateSize)
	for i, s := range d.systems {
		if s.NumStates() == 0 {
			continue
		}
		inputs, err := d.gatherInputs(t, x, fixed, s, cache)
		if err != nil {
			return nil, err
		}
		sub := s.Derivatives(t, d.subState(x, i), inputs)
		copy(xdot[d.offsets[i]:], sub)
	}
	return xdot, nil
}

// Graphviz renders the diagram topology in DOT format.
func (d *Diagram) Graphviz() string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", d.name)
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	for _, s := range d.systems {
		fmt.Fprintf(&b, "  %q;\n", s.Name())
	}

	type edge struct{ from, to, label string }
	edges := make([]edge, 0, len(d.connections))
	for key, out := range d.connections {
		edges = append(edges, edge{
			from:  out.Sys.Name(),
			to:    key.sys.Name(),
			label: fmt.Sprintf("y%d -> u%d", out.Port, key.port),
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for _, e := range edges {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", e.from, e.to, e.label)
	}

	for i, exp := range d.exported {
		id := fmt.Sprintf("input_%d", i)
		fmt.Fprintf(&b, "  %q [shape=plaintext, label=%q];\n", id, exp.name)
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", id, exp.in.Sys.Name(),
			fmt.Sprintf("u%d", exp.in.Port))
	}

	for i, sink := range d.sinks {
		id := fmt.Sprintf("log_%d", i)
		fmt.Fprintf(&b, "  %q [shape=note, label=%q];\n", id, sink.Name())
		fmt.Fprintf(&b, "  %q -> %q;\n", sink.src.Sys.Name(), id)
	}

	b.WriteString("}\n")
	return b.String()
}
