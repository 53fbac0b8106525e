package blocks

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/optlab/internal/integrators"
	"github.com/san-kum/optlab/internal/symbolic"
	"github.com/san-kum/optlab/internal/systems"
)

func TestPendulumDerivatives(t *testing.T) {
	p := NewPendulumPlant()
	p.Damping = 0

	// At the stable equilibrium with no torque nothing moves.
	dx := p.Derivatives(0, systems.State{0, 0}, []systems.State{{0}})
	if dx[0] != 0 || dx[1] != 0 {
		t.Errorf("expected rest at equilibrium, got %v", dx)
	}

	// Horizontal, at rest: angular acceleration is -g/l.
	dx = p.Derivatives(0, systems.State{math.Pi / 2, 0}, []systems.State{{0}})
	want := -p.Gravity / p.Length
	if math.Abs(dx[1]-want) > 1e-12 {
		t.Errorf("expected alpha %.4f, got %.4f", want, dx[1])
	}

	// Gravity torque at the horizontal is m*g*l; applying it holds the arm.
	hold := p.Mass * p.Gravity * p.Length
	dx = p.Derivatives(0, systems.State{math.Pi / 2, 0}, []systems.State{{hold}})
	if math.Abs(dx[1]) > 1e-12 {
		t.Errorf("expected balanced arm, got alpha %.4f", dx[1])
	}
}

func TestPendulumEnergyConservation(t *testing.T) {
	p := NewPendulumPlant()
	p.Damping = 0

	b := systems.NewDiagramBuilder()
	b.AddSystem(p)
	idx := b.ExportInput(p.TorqueInputPort(), "torque")

	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx := diagram.CreateDefaultContext()
	if err := ctx.FixInput(idx, systems.State{0}); err != nil {
		t.Fatalf("fix input: %v", err)
	}
	if err := ctx.SetContinuousState(systems.State{1.0, 0}); err != nil {
		t.Fatalf("set state: %v", err)
	}

	sim, err := systems.NewSimulator(diagram, ctx, integrators.NewRK4(), systems.Config{Dt: 0.001})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := sim.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := sim.AdvanceTo(context.Background(), 10.0); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if drift := sim.EnergyDrift(); drift > 1e-6 {
		t.Errorf("energy drift %.2e too large", drift)
	}
}

func TestPIDOutput(t *testing.T) {
	c := NewPIDController([]float64{10}, []float64{1}, []float64{2})

	estimated := systems.State{1.0, 0.5}
	desired := systems.State{2.0, 0.0}
	integral := systems.State{3.0}

	u := c.CalcOutput(0, 0, integral, []systems.State{estimated, desired})
	// kp*(2-1) + ki*3 + kd*(0-0.5)
	want := 10.0*1.0 + 1.0*3.0 + 2.0*(-0.5)
	if math.Abs(u[0]-want) > 1e-12 {
		t.Errorf("expected u=%.4f, got %.4f", want, u[0])
	}

	dx := c.Derivatives(0, integral, []systems.State{estimated, desired})
	if math.Abs(dx[0]-1.0) > 1e-12 {
		t.Errorf("expected integral rate 1.0, got %.4f", dx[0])
	}
}

func TestPendulumPIDRegulation(t *testing.T) {
	pendulum := NewPendulumPlant()
	controller := NewPIDController([]float64{10}, []float64{1}, []float64{1})

	b := systems.NewDiagramBuilder()
	b.AddNamedSystem("pendulum", pendulum)
	b.AddNamedSystem("controller", controller)

	b.Connect(pendulum.StateOutputPort(), controller.EstimatedStateInputPort())
	b.Connect(controller.ControlOutputPort(), pendulum.TorqueInputPort())
	desired := b.ExportInput(controller.DesiredStateInputPort(), "desired_state")
	log := b.LogVectorOutput(pendulum.StateOutputPort())

	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx := diagram.CreateDefaultContext()
	target := math.Pi / 2
	if err := ctx.FixInput(desired, systems.State{target, 0}); err != nil {
		t.Fatalf("fix input: %v", err)
	}
	if err := ctx.SetSubsystemState(pendulum, systems.State{target + 0.1, 0.2}); err != nil {
		t.Fatalf("set state: %v", err)
	}

	sim, err := systems.NewSimulator(diagram, ctx, integrators.NewRK4(), systems.Config{Dt: 0.01, ValidateState: true})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := sim.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := sim.AdvanceTo(context.Background(), 40.0); err != nil {
		t.Fatalf("advance: %v", err)
	}

	angles := log.Signal(0)
	final := angles[len(angles)-1]
	if math.Abs(final-target) > 0.1 {
		t.Errorf("expected angle near %.4f after regulation, got %.4f", target, final)
	}

	rates := log.Signal(1)
	if rate := rates[len(rates)-1]; math.Abs(rate) > 0.1 {
		t.Errorf("expected rate near zero, got %.4f", rate)
	}
}

func TestSymbolicVectorSystem(t *testing.T) {
	x := symbolic.NewVariable("x")
	sys, err := NewSymbolicVectorSystemBuilder().
		State(x).
		Dynamics(symbolic.Add(symbolic.Neg(x), symbolic.Pow(x, 3))).
		Output(x).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	dx := sys.Derivatives(0, systems.State{0.5}, nil)
	want := -0.5 + 0.125
	if math.Abs(dx[0]-want) > 1e-12 {
		t.Errorf("expected xdot=%.4f, got %.4f", want, dx[0])
	}

	if sys.DirectFeedthrough(0) {
		t.Error("output over state only must not be feedthrough")
	}
}

func TestSymbolicVectorSystemFeedthrough(t *testing.T) {
	x := symbolic.NewVariable("x")
	u := symbolic.NewVariable("u")
	sys, err := NewSymbolicVectorSystemBuilder().
		State(x).
		Input(u).
		Dynamics(symbolic.Add(symbolic.Neg(x), u)).
		Output(u).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !sys.DirectFeedthrough(0) {
		t.Error("output over input must be feedthrough")
	}

	y := sys.CalcOutput(0, 0, systems.State{1}, []systems.State{{7}})
	if y[0] != 7 {
		t.Errorf("expected output 7, got %v", y)
	}
}

func TestSymbolicVectorSystemCubicDecay(t *testing.T) {
	x := symbolic.NewVariable("x")
	sys, err := NewSymbolicVectorSystemBuilder().
		State(x).
		Dynamics(symbolic.Add(symbolic.Neg(x), symbolic.Pow(x, 3))).
		Output(x).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	b := systems.NewDiagramBuilder()
	b.AddSystem(sys)
	log := b.LogVectorOutput(sys.OutputPort())

	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ctx := diagram.CreateDefaultContext()
	if err := ctx.SetContinuousState(systems.State{0.9}); err != nil {
		t.Fatalf("set state: %v", err)
	}

	sim, err := systems.NewSimulator(diagram, ctx, integrators.NewRK4(), systems.Config{Dt: 0.01})
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	if err := sim.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := sim.AdvanceTo(context.Background(), 10.0); err != nil {
		t.Fatalf("advance: %v", err)
	}

	samples := log.Signal(0)
	final := samples[len(samples)-1]
	if math.Abs(final) > 0.01 {
		t.Errorf("expected decay toward zero, got %.4f", final)
	}
	// Inside the attraction basin the trajectory is monotone.
	for i := 1; i < len(samples); i++ {
		if samples[i] > samples[i-1]+1e-9 {
			t.Fatalf("trajectory not monotone at sample %d: %.6f -> %.6f",
				i-1, samples[i-1], samples[i])
		}
	}
}

func TestPrimitives(t *testing.T) {
	g := NewGain(3, 2)
	y := g.CalcOutput(0, 0, nil, []systems.State{{1, 2}})
	if y[0] != 3 || y[1] != 6 {
		t.Errorf("gain: expected [3 6], got %v", y)
	}

	a := NewAdder(2, 2)
	y = a.CalcOutput(0, 0, nil, []systems.State{{1, 2}, {10, 20}})
	if y[0] != 11 || y[1] != 22 {
		t.Errorf("adder: expected [11 22], got %v", y)
	}

	c := NewConstantSource(systems.State{4, 5})
	y = c.CalcOutput(0, 0, nil, nil)
	if y[0] != 4 || y[1] != 5 {
		t.Errorf("constant: expected [4 5], got %v", y)
	}
	if c.DirectFeedthrough(0) {
		t.Error("constant source must not be feedthrough")
	}
}
