package systems

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"
)

// decay implements xdot = -x with a state output and a width-1 input it
// ignores.
type decay struct {
	LeafSystem
}

func newDecay() *decay {
	return &decay{LeafSystem: NewLeafSystem("decay", nil, []int{1}, 1)}
}

func (d *decay) Derivatives(t float64, x State, inputs []State) State {
	return State{-x[0]}
}

func (d *decay) CalcOutput(port int, t float64, x State, inputs []State) State {
	return x.Clone()
}

func (d *decay) DirectFeedthrough(port int) bool { return false }

// passthrough has a feedthrough output equal to its input.
type passthrough struct {
	LeafSystem
}

func newPassthrough(width int) *passthrough {
	return &passthrough{LeafSystem: NewLeafSystem("pass", []int{width}, []int{width}, 0)}
}

func (p *passthrough) Derivatives(t float64, x State, inputs []State) State { return nil }

func (p *passthrough) CalcOutput(port int, t float64, x State, inputs []State) State {
	if len(inputs) > 0 {
		return inputs[0].Clone()
	}
	return make(State, p.InputPortSize(0))
}

func (p *passthrough) DirectFeedthrough(port int) bool { return true }

type eulerStep struct{}

func (eulerStep) Step(f ODE, x State, t, dt float64) State {
	dx := f.Derive(t, x)
	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt*dx[i]
	}
	return out
}

func TestBuildRejectsWidthMismatch(t *testing.T) {
	b := NewDiagramBuilder()
	src := b.AddSystem(newDecay()).(*decay)
	dst := b.AddSystem(newPassthrough(3)).(*passthrough)

	b.Connect(OutputPort{Sys: src, Port: 0}, InputPort{Sys: dst, Port: 0})
	if _, err := b.Build(); err == nil {
		t.Error("expected width mismatch error")
	}
}

func TestBuildRejectsUnconnectedInput(t *testing.T) {
	b := NewDiagramBuilder()
	b.AddSystem(newPassthrough(1))
	if _, err := b.Build(); err == nil {
		t.Error("expected unconnected input error")
	}
}

func TestBuildRejectsAlgebraicLoop(t *testing.T) {
	b := NewDiagramBuilder()
	p1 := b.AddSystem(newPassthrough(1)).(*passthrough)
	p2 := b.AddSystem(newPassthrough(1)).(*passthrough)

	b.Connect(OutputPort{Sys: p1, Port: 0}, InputPort{Sys: p2, Port: 0})
	b.Connect(OutputPort{Sys: p2, Port: 0}, InputPort{Sys: p1, Port: 0})
	if _, err := b.Build(); err == nil {
		t.Error("expected algebraic loop error")
	}
}

// drivenDecay implements xdot = -x + u.
type drivenDecay struct {
	LeafSystem
}

func newDrivenDecay() *drivenDecay {
	return &drivenDecay{LeafSystem: NewLeafSystem("driven", []int{1}, []int{1}, 1)}
}

func (d *drivenDecay) Derivatives(t float64, x State, inputs []State) State {
	return State{-x[0] + inputs[0][0]}
}

func (d *drivenDecay) CalcOutput(port int, t float64, x State, inputs []State) State {
	return x.Clone()
}

func (d *drivenDecay) DirectFeedthrough(port int) bool { return false }

func TestLoopThroughStateIsAllowed(t *testing.T) {
	// A feedback cycle is fine as long as one system in it has state
	// between its input and output.
	b := NewDiagramBuilder()
	d := b.AddSystem(newDrivenDecay()).(*drivenDecay)
	p := b.AddSystem(newPassthrough(1)).(*passthrough)

	b.Connect(OutputPort{Sys: d, Port: 0}, InputPort{Sys: p, Port: 0})
	b.Connect(OutputPort{Sys: p, Port: 0}, InputPort{Sys: d, Port: 0})
	if _, err := b.Build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}
}

func TestSimulateDecayWithLog(t *testing.T) {
	b := NewDiagramBuilder()
	d := b.AddNamedSystem("plant", newDecay()).(*decay)
	log := b.LogVectorOutput(OutputPort{Sys: d, Port: 0})

	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx := diagram.CreateDefaultContext()
	if err := ctx.SetContinuousState(State{1.0}); err != nil {
		t.Fatalf("set state: %v", err)
	}

	sim, err := NewSimulator(diagram, ctx, eulerStep{}, Config{Dt: 0.001, ValidateState: true})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := sim.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := sim.AdvanceTo(context.Background(), 1.0); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if log.NumSamples() != sim.StepsTaken()+1 {
		t.Errorf("expected %d samples, got %d", sim.StepsTaken()+1, log.NumSamples())
	}

	final := log.Signal(0)[log.NumSamples()-1]
	expected := math.Exp(-1.0)
	if math.Abs(final-expected) > 1e-2 {
		t.Errorf("expected final ~%.4f, got %.4f", expected, final)
	}
}

func TestExportedInputFeedsSubsystem(t *testing.T) {
	b := NewDiagramBuilder()
	p := b.AddSystem(newPassthrough(2)).(*passthrough)
	idx := b.ExportInput(InputPort{Sys: p, Port: 0}, "command")
	log := b.LogVectorOutput(OutputPort{Sys: p, Port: 0})

	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx := diagram.CreateDefaultContext()
	if err := ctx.FixInput(idx, State{3, 4}); err != nil {
		t.Fatalf("fix input: %v", err)
	}

	v, err := diagram.EvalOutput(ctx, log.Source())
	if err != nil {
		t.Fatalf("eval output: %v", err)
	}
	if v[0] != 3 || v[1] != 4 {
		t.Errorf("expected [3 4], got %v", v)
	}

	if err := ctx.FixInput(idx, State{1}); err == nil {
		t.Error("expected width error fixing a 2-wide input with 1 value")
	}
}

func TestSimulatorCancellation(t *testing.T) {
	b := NewDiagramBuilder()
	b.AddSystem(newDecay())
	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx := diagram.CreateDefaultContext()
	sim, err := NewSimulator(diagram, ctx, eulerStep{}, Config{Dt: 1e-7})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := sim.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	goCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := sim.AdvanceTo(goCtx, 1e6); err != context.DeadlineExceeded {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestGraphviz(t *testing.T) {
	b := NewDiagramBuilder()
	d := b.AddNamedSystem("plant", newDecay()).(*decay)
	p := b.AddNamedSystem("relay", newPassthrough(1)).(*passthrough)
	b.Connect(OutputPort{Sys: d, Port: 0}, InputPort{Sys: p, Port: 0})
	b.LogVectorOutput(OutputPort{Sys: p, Port: 0})

	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	diagram.SetName("test")

	dot := diagram.Graphviz()
	for _, want := range []string{"digraph \"test\"", "\"plant\"", "\"relay\"", "\"plant\" -> \"relay\"", "log_0"} {
		if !strings.Contains(dot, want) {
			t.Errorf("dot output missing %q:\n%s", want, dot)
		}
	}
}

func TestSubsystemStateAccess(t *testing.T) {
	b := NewDiagramBuilder()
	d1 := b.AddNamedSystem("a", newDecay()).(*decay)
	d2 := b.AddNamedSystem("b", newDecay()).(*decay)
	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx := diagram.CreateDefaultContext()
	if err := ctx.SetSubsystemState(d2, State{7}); err != nil {
		t.Fatalf("set subsystem state: %v", err)
	}

	got, err := ctx.SubsystemState(d2)
	if err != nil {
		t.Fatalf("subsystem state: %v", err)
	}
	if got[0] != 7 {
		t.Errorf("expected 7, got %v", got)
	}

	first, err := ctx.SubsystemState(d1)
	if err != nil {
		t.Fatalf("subsystem state: %v", err)
	}
	if first[0] != 0 {
		t.Errorf("expected untouched state, got %v", first)
	}
}
