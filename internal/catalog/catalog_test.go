package catalog

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/optlab/internal/config"
	"github.com/san-kum/optlab/internal/solvers"
	"github.com/san-kum/optlab/internal/systems"
)

func TestProblemNames(t *testing.T) {
	names := ProblemNames()
	want := []string{"circle", "feasible", "infeasible", "product", "quadratic"}
	if len(names) != len(want) {
		t.Fatalf("expected %d problems, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, names[i])
		}
	}

	if _, err := LookupProblem("nonexistent"); err == nil {
		t.Error("expected error for unknown problem")
	}
}

func TestProblemsSolve(t *testing.T) {
	cases := []struct {
		name        string
		wantSuccess bool
		checkCost   bool
		wantCost    float64
		costTol     float64
	}{
		{"feasible", true, true, 0.0, 1e-3},
		{"quadratic", true, true, 0.5, 1e-3},
		{"infeasible", false, false, 0, 0},
		{"circle", true, false, 0, 0},
		{"product", true, true, 18, 0.1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := LookupProblem(tc.name)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}
			prog, _ := p.Build()

			result, err := solvers.Solve(prog)
			if err != nil {
				t.Fatalf("solve: %v", err)
			}
			if result.Success() != tc.wantSuccess {
				t.Fatalf("success=%v (%v), want %v", result.Success(), result.Status, tc.wantSuccess)
			}
			if tc.checkCost && math.Abs(result.Cost-tc.wantCost) > tc.costTol {
				t.Errorf("cost %v, want ~%v", result.Cost, tc.wantCost)
			}
			if tc.wantSuccess {
				env := result.Values
				if v := prog.MaxViolation(env); v > 1e-3 {
					t.Errorf("solution violates constraints by %v", v)
				}
			}
		})
	}
}

func TestRigNames(t *testing.T) {
	names := RigNames()
	want := []string{"cubic", "pendulum", "pendulum-pid"}
	if len(names) != len(want) {
		t.Fatalf("expected %d rigs, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %q at %d, got %q", want[i], i, names[i])
		}
	}

	if _, err := LookupRig("nonexistent"); err == nil {
		t.Error("expected error for unknown rig")
	}
}

func TestRigsBuildAndRun(t *testing.T) {
	for _, name := range RigNames() {
		t.Run(name, func(t *testing.T) {
			rig, err := LookupRig(name)
			if err != nil {
				t.Fatalf("lookup: %v", err)
			}

			cfg := config.DefaultConfig()
			cfg.Diagram = name
			run, err := rig.Build(cfg)
			if err != nil {
				t.Fatalf("build: %v", err)
			}

			integ, err := NewIntegrator(cfg.Integrator)
			if err != nil {
				t.Fatalf("integrator: %v", err)
			}
			sim, err := systems.NewSimulator(run.Diagram, run.Context, integ,
				systems.Config{Dt: cfg.Dt, ValidateState: true})
			if err != nil {
				t.Fatalf("simulator: %v", err)
			}
			if err := sim.Initialize(); err != nil {
				t.Fatalf("initialize: %v", err)
			}
			if err := sim.AdvanceTo(context.Background(), 1.0); err != nil {
				t.Fatalf("advance: %v", err)
			}
			if run.Log.NumSamples() < 2 {
				t.Errorf("log has %d samples", run.Log.NumSamples())
			}
		})
	}
}

func TestRigRejectsBadInitState(t *testing.T) {
	rig, err := LookupRig("cubic")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	cfg := config.DefaultConfig()
	cfg.InitState = []float64{1, 2, 3}
	if _, err := rig.Build(cfg); err == nil {
		t.Error("expected error for wrong init state width")
	}
}

func TestNewIntegrator(t *testing.T) {
	for _, name := range []string{"euler", "rk4", "rk45", ""} {
		if _, err := NewIntegrator(name); err != nil {
			t.Errorf("integrator %q: %v", name, err)
		}
	}
	if _, err := NewIntegrator("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
