package systems

import (
	"fmt"
)

type inputKey struct {
	sys  System
	port int
}

// DiagramBuilder wires systems together into a Diagram. Systems must be
// added before their ports are connected; Build validates the wiring.
type DiagramBuilder struct {
	systems     []System
	connections map[inputKey]OutputPort
	exported    []exportedInput
	sinks       []*VectorLogSink
	err         error
}

type exportedInput struct {
	in   InputPort
	name string
}

func NewDiagramBuilder() *DiagramBuilder {
	return &DiagramBuilder{connections: make(map[inputKey]OutputPort)}
}

// AddSystem adds a system to the diagram under its current name.
func (b *DiagramBuilder) AddSystem(s System) System {
	b.systems = append(b.systems, s)
	return s
}

// AddNamedSystem adds a system and names it.
func (b *DiagramBuilder) AddNamedSystem(name string, s System) System {
	s.SetName(name)
	return b.AddSystem(s)
}

// Connect routes an output port to an input port. Errors are deferred to
// Build so call sites can wire the whole diagram without checking each
// connection.
func (b *DiagramBuilder) Connect(out OutputPort, in InputPort) {
	if b.err != nil {
		return
	}
	if !b.contains(out.Sys) || !b.contains(in.Sys) {
		b.err = fmt.Errorf("systems: connect %s -> %s: system not added to builder",
			portLabel(out.Sys, out.Port), portLabel(in.Sys, in.Port))
		return
	}
	outSize := out.Sys.OutputPortSize(out.Port)
	inSize := in.Sys.InputPortSize(in.Port)
	if outSize < 0 || inSize < 0 {
		b.err = fmt.Errorf("%w: %s -> %s", ErrPortBounds,
			portLabel(out.Sys, out.Port), portLabel(in.Sys, in.Port))
		return
	}
	if outSize != inSize {
		b.err = fmt.Errorf("%w: %s (%d) -> %s (%d)", ErrPortWidth,
			portLabel(out.Sys, out.Port), outSize, portLabel(in.Sys, in.Port), inSize)
		return
	}
	key := inputKey{sys: in.Sys, port: in.Port}
	if _, dup := b.connections[key]; dup {
		b.err = fmt.Errorf("systems: input %s connected twice", portLabel(in.Sys, in.Port))
		return
	}
	b.connections[key] = out
}

// ExportInput makes an unconnected input port an input of the diagram and
// returns its diagram-level index.
func (b *DiagramBuilder) ExportInput(in InputPort, name string) int {
	b.exported = append(b.exported, exportedInput{in: in, name: name})
	return len(b.exported) - 1
}

// LogVectorOutput attaches a log sink to an output port. The sink records
// a sample per simulation step.
func (b *DiagramBuilder) LogVectorOutput(out OutputPort) *VectorLogSink {
	sink := newVectorLogSink(out)
	b.sinks = append(b.sinks, sink)
	return sink
}

func (b *DiagramBuilder) contains(s System) bool {
	for _, have := range b.systems {
		if have == s {
			return true
		}
	}
	return false
}

// Build validates the wiring and produces the diagram. Every input port
// must be connected or exported, and feedthrough paths must not form a
// cycle.
func (b *DiagramBuilder) Build() (*Diagram, error) {
	if b.err != nil {
		return nil, b.err
	}

	for _, exp := range b.exported {
		if !b.contains(exp.in.Sys) {
			return nil, fmt.Errorf("systems: exported input %s: system not added to builder",
				portLabel(exp.in.Sys, exp.in.Port))
		}
		if _, connected := b.connections[inputKey{sys: exp.in.Sys, port: exp.in.Port}]; connected {
			return nil, fmt.Errorf("systems: input %s both connected and exported",
				portLabel(exp.in.Sys, exp.in.Port))
		}
	}

	for _, s := range b.systems {
		for port := 0; port < s.NumInputPorts(); port++ {
			if _, ok := b.connections[inputKey{sys: s, port: port}]; ok {
				continue
			}
			if b.isExported(s, port) {
				continue
			}
			return nil, fmt.Errorf("%w: %s", ErrUnconnectedInput, portLabel(s, port))
		}
	}

	if err := b.checkAlgebraicLoops(); err != nil {
		return nil, err
	}

	d := &Diagram{
		name:        "diagram",
		systems:     b.systems,
		connections: b.connections,
		exported:    b.exported,
		sinks:       b.sinks,
	}
	d.offsets = make([]int, len(b.systems))
	total := 0
	for i, s := range b.systems {
		d.offsets[i] = total
		total += s.NumStates()
	}
	d.stateSize = total
	return d, nil
}

func (b *DiagramBuilder) isExported(s System, port int) bool {
	for _, exp := range b.exported {
		if exp.in.Sys == s && exp.in.Port == port {
			return true
		}
	}
	return false
}

// checkAlgebraicLoops rejects cycles along connections whose destination
// has any direct-feedthrough output. A cycle through only non-feedthrough
// blocks (an integrator in the loop) is fine.
func (b *DiagramBuilder) checkAlgebraicLoops() error {
	edges := make(map[System][]System)
	for key, out := range b.connections {
		if feedsThrough(key.sys) {
			edges[out.Sys] = append(edges[out.Sys], key.sys)
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[System]int)

	var visit func(s System) error
	visit = func(s System) error {
		switch marks[s] {
		case visiting:
			return fmt.Errorf("%w: through %s", ErrAlgebraicLoop, s.Name())
		case done:
			return nil
		}
		marks[s] = visiting
		for _, next := range edges[s] {
			if err := visit(next); err != nil {
				return err
			}
		}
		marks[s] = done
		return nil
	}

	for _, s := range b.systems {
		if err := visit(s); err != nil {
			return err
		}
	}
	return nil
}

func feedsThrough(s System) bool {
	for port := 0; port < s.NumOutputPorts(); port++ {
		if s.DirectFeedthrough(port) {
			return true
		}
	}
	return false
}
