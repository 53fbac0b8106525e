package catalog

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/optlab/internal/blocks"
	"github.com/san-kum/optlab/internal/config"
	"github.com/san-kum/optlab/internal/integrators"
	"github.com/san-kum/optlab/internal/symbolic"
	"github.com/san-kum/optlab/internal/systems"
)

// Run is a built diagram ready to simulate, with its log sink.
type Run struct {
	Diagram *systems.Diagram
	Context *systems.Context
	Log     *systems.VectorLogSink
}

// Rig is a named diagram wiring with its default initial conditions.
type Rig struct {
	Name        string
	Description string
	StateLabels []string
	Build       func(cfg *config.Config) (*Run, error)
}

var rigs = map[string]Rig{
	"pendulum": {
		Name:        "pendulum",
		Description: "damped pendulum, free swing",
		StateLabels: []string{"theta", "omega"},
		Build:       buildPendulum,
	},
	"pendulum-pid": {
		Name:        "pendulum-pid",
		Description: "pendulum under PID regulation toward a desired angle",
		StateLabels: []string{"theta", "omega"},
		Build:       buildPendulumPID,
	},
	"cubic": {
		Name:        "cubic",
		Description: "scalar xdot = -x + x^3",
		StateLabels: []string{"x"},
		Build:       buildCubic,
	},
}

// LookupRig finds a diagram rig by name.
func LookupRig(name string) (Rig, error) {
	r, ok := rigs[name]
	if !ok {
		return Rig{}, fmt.Errorf("catalog: unknown diagram %q", name)
	}
	return r, nil
}

// RigNames lists the diagram rigs in sorted order.
func RigNames() []string {
	names := make([]string, 0, len(rigs))
	for name := range rigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewIntegrator maps a config name to an integrator.
func NewIntegrator(name string) (systems.Integrator, error) {
	switch name {
	case "euler":
		return integrators.NewEuler(), nil
	case "rk4", "":
		return integrators.NewRK4(), nil
	case "rk45":
		return integrators.NewRK45(), nil
	}
	return nil, fmt.Errorf("catalog: unknown integrator %q", name)
}

func initState(cfg *config.Config, fallback []float64) (systems.State, error) {
	if len(cfg.InitState) == 0 {
		return systems.State(fallback).Clone(), nil
	}
	if len(cfg.InitState) != len(fallback) {
		return nil, fmt.Errorf("catalog: init state has %d values, want %d",
			len(cfg.InitState), len(fallback))
	}
	return systems.State(cfg.InitState).Clone(), nil
}

func buildPendulum(cfg *config.Config) (*Run, error) {
	plant := blocks.NewPendulumPlant()

	b := systems.NewDiagramBuilder()
	b.AddNamedSystem("pendulum", plant)
	idx := b.ExportInput(plant.TorqueInputPort(), "torque")
	log := b.LogVectorOutput(plant.StateOutputPort())

	diagram, err := b.Build()
	if err != nil {
		return nil, err
	}
	diagram.SetName("pendulum")

	ctx := diagram.CreateDefaultContext()
	if err := ctx.FixInput(idx, systems.State{0}); err != nil {
		return nil, err
	}
	x0, err := initState(cfg, []float64{0.5, 0})
	if err != nil {
		return nil, err
	}
	if err := ctx.SetContinuousState(x0); err != nil {
		return nil, err
	}
	return &Run{Diagram: diagram, Context: ctx, Log: log}, nil
}

func buildPendulumPID(cfg *config.Config) (*Run, error) {
	plant := blocks.NewPendulumPlant()
	controller := blocks.NewPIDController(
		[]float64{cfg.Gains.Kp}, []float64{cfg.Gains.Ki}, []float64{cfg.Gains.Kd})

	b := systems.NewDiagramBuilder()
	b.AddNamedSystem("pendulum", plant)
	b.AddNamedSystem("controller", controller)
	b.Connect(plant.StateOutputPort(), controller.EstimatedStateInputPort())
	b.Connect(controller.ControlOutputPort(), plant.TorqueInputPort())
	idx := b.ExportInput(controller.DesiredStateInputPort(), "desired_state")
	log := b.LogVectorOutput(plant.StateOutputPort())

	diagram, err := b.Build()
	if err != nil {
		return nil, err
	}
	diagram.SetName("pendulum-pid")

	ctx := diagram.CreateDefaultContext()
	desired := systems.State{math.Pi / 2, 0}
	if len(cfg.Desired) == 2 {
		desired = systems.State(cfg.Desired).Clone()
	}
	if err := ctx.FixInput(idx, desired); err != nil {
		return nil, err
	}
	x0, err := initState(cfg, []float64{math.Pi/2 + 0.1, 0.2})
	if err != nil {
		return nil, err
	}
	if err := ctx.SetSubsystemState(plant, x0); err != nil {
		return nil, err
	}
	return &Run{Diagram: diagram, Context: ctx, Log: log}, nil
}

func buildCubic(cfg *config.Config) (*Run, error) {
	x := symbolic.NewVariable("x")
	sys, err := blocks.NewSymbolicVectorSystemBuilder().
		State(x).
		Dynamics(symbolic.Add(symbolic.Neg(x), symbolic.Pow(x, 3))).
		Output(x).
		Build()
	if err != nil {
		return nil, err
	}
	sys.SetName("cubic")

	b := systems.NewDiagramBuilder()
	b.AddSystem(sys)
	log := b.LogVectorOutput(sys.OutputPort())

	diagram, err := b.Build()
	if err != nil {
		return nil, err
	}
	diagram.SetName("cubic")

	ctx := diagram.CreateDefaultContext()
	x0, err := initState(cfg, []float64{0.9})
	if err != nil {
		return nil, err
	}
	if err := ctx.SetContinuousState(x0); err != nil {
		return nil, err
	}
	return &Run{Diagram: diagram, Context: ctx, Log: log}, nil
}
