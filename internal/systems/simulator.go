package systems

import (
	"context"
	"fmt"
	"math"
)

// ODE exposes a state derivative to an integrator.
type ODE interface {
	Derive(t float64, x State) State
}

// Integrator advances an ODE by one step.
type Integrator interface {
	Step(f ODE, x State, t, dt float64) State
}

// AdaptiveIntegrator additionally proposes the next step size.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(f ODE, x State, t, dt, tol float64) (State, float64, error)
}

// Config controls a simulation run.
type Config struct {
	Dt            float64
	Adaptive      bool
	Tolerance     float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Tolerance:     1e-6,
		ValidateState: true,
	}
}

// Monitor observes every accepted simulation step.
type Monitor func(t float64, x State)

// Simulator integrates a diagram's context forward in time, recording
// log sinks along the way.
type Simulator struct {
	diagram    *Diagram
	ctx        *Context
	integrator Integrator
	cfg        Config
	monitor    Monitor

	initialEnergy float64
	energyDrift   float64
	steps         int
}

func NewSimulator(d *Diagram, ctx *Context, integ Integrator, cfg Config) (*Simulator, error) {
	if d == nil || ctx == nil {
		return nil, ErrNotBuilt
	}
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("systems: dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return nil, fmt.Errorf("systems: tolerance must be positive for adaptive stepping")
	}
	return &Simulator{diagram: d, ctx: ctx, integrator: integ, cfg: cfg}, nil
}

// SetMonitor registers a per-step observer.
func (s *Simulator) SetMonitor(m Monitor) { s.monitor = m }

// Initialize resets the log sinks and records the initial sample.
func (s *Simulator) Initialize() error {
	for _, sink := range s.diagram.sinks {
		sink.reset()
	}
	s.steps = 0
	s.initialEnergy = s.totalEnergy()
	s.energyDrift = 0
	return s.recordSinks()
}

// AdvanceTo integrates until the context time reaches tFinal. The passed
// context cancels a long run between steps.
func (s *Simulator) AdvanceTo(goCtx context.Context, tFinal float64) error {
	ode := &diagramODE{diagram: s.diagram, fixed: s.ctx.fixed}

	dt := s.cfg.Dt
	// Tolerate accumulated rounding so tFinal is not overshot by a sliver
	// step.
	eps := 1e-9 * math.Max(1, math.Abs(tFinal))
	for tFinal-s.ctx.time > eps {
		select {
		case <-goCtx.Done():
			return goCtx.Err()
		default:
		}

		step := math.Min(dt, tFinal-s.ctx.time)

		var next State
		if s.cfg.Adaptive {
			adaptive, ok := s.integrator.(AdaptiveIntegrator)
			if !ok {
				return fmt.Errorf("systems: integrator %T is not adaptive", s.integrator)
			}
			var err error
			next, dt, err = adaptive.StepAdaptive(ode, s.ctx.state, s.ctx.time, step, s.cfg.Tolerance)
			if err != nil {
				return err
			}
		} else {
			next = s.integrator.Step(ode, s.ctx.state, s.ctx.time, step)
		}

		if s.cfg.ValidateState && !next.IsValid() {
			return fmt.Errorf("%w at t=%.4f", ErrInvalidState, s.ctx.time)
		}

		s.ctx.state = next
		s.ctx.time += step
		s.steps++

		if err := s.recordSinks(); err != nil {
			return err
		}
		if s.monitor != nil {
			s.monitor(s.ctx.time, s.ctx.state)
		}
	}

	if s.initialEnergy != 0 {
		s.energyDrift = math.Abs(s.totalEnergy()-s.initialEnergy) / math.Abs(s.initialEnergy)
	}
	return nil
}

// StepsTaken reports the number of accepted integration steps.
func (s *Simulator) StepsTaken() int { return s.steps }

// EnergyDrift reports the relative energy drift over the run, summed over
// energy-reporting blocks. Zero when no block reports energy.
func (s *Simulator) EnergyDrift() float64 { return s.energyDrift }

func (s *Simulator) totalEnergy() float64 {
	total := 0.0
	for i, sys := range s.diagram.systems {
		if er, ok := sys.(EnergyReporter); ok {
			total += er.Energy(s.diagram.subState(s.ctx.state, i))
		}
	}
	return total
}

func (s *Simulator) recordSinks() error {
	for _, sink := range s.diagram.sinks {
		v, err := s.diagram.EvalOutput(s.ctx, sink.src)
		if err != nil {
			return err
		}
		sink.record(s.ctx.time, v)
	}
	return nil
}

// diagramODE adapts a diagram with fixed inputs to the integrator
// interface. Evaluation errors surface as NaN states and are caught by
// state validation.
type diagramODE struct {
	diagram *Diagram
	fixed   []State
}

func (o *diagramODE) Derive(t float64, x State) State {
	xdot, err := o.diagram.Derivatives(t, x, o.fixed)
	if err != nil {
		bad := make(State, len(x))
		for i := range bad {
			bad[i] = math.NaN()
		}
		return bad
	}
	return xdot
}
