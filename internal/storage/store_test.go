package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/san-kum/optlab/internal/integrators"
	"github.com/san-kum/optlab/internal/systems"
)

type decay struct {
	systems.LeafSystem
}

func newDecay() *decay {
	return &decay{LeafSystem: systems.NewLeafSystem("decay", nil, []int{1}, 1)}
}

func (d *decay) Derivatives(t float64, x systems.State, inputs []systems.State) systems.State {
	return systems.State{-x[0]}
}

func (d *decay) CalcOutput(port int, t float64, x systems.State, inputs []systems.State) systems.State {
	return x.Clone()
}

func (d *decay) DirectFeedthrough(port int) bool { return false }

func runDecay(t *testing.T) *systems.VectorLogSink {
	t.Helper()

	b := systems.NewDiagramBuilder()
	d := b.AddSystem(newDecay()).(*decay)
	log := b.LogVectorOutput(systems.OutputPort{Sys: d, Port: 0})

	diagram, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	ctx := diagram.CreateDefaultContext()
	if err := ctx.SetContinuousState(systems.State{1}); err != nil {
		t.Fatalf("set state: %v", err)
	}

	sim, err := systems.NewSimulator(diagram, ctx, integrators.NewRK4(), systems.Config{Dt: 0.1})
	if err != nil {
		t.Fatalf("simulator: %v", err)
	}
	if err := sim.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := sim.AdvanceTo(context.Background(), 1.0); err != nil {
		t.Fatalf("advance: %v", err)
	}
	return log
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	log := runDecay(t)
	runID, err := store.Save(RunMetadata{
		Diagram:    "decay",
		Dt:         0.1,
		Duration:   1.0,
		Integrator: "rk4",
		Metrics:    map[string]float64{"final": log.Signal(0)[log.NumSamples()-1]},
	}, log)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := store.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Diagram != "decay" || meta.Integrator != "rk4" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Steps != 11 {
		t.Errorf("expected 11 samples, got %d", meta.Steps)
	}

	states, times, err := store.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states: %v", err)
	}
	if len(states) != 11 || len(times) != 11 {
		t.Fatalf("expected 11 rows, got %d/%d", len(states), len(times))
	}
	if times[0] != 0 {
		t.Errorf("expected first sample at t=0, got %v", times[0])
	}
	if math.Abs(states[10][0]-math.Exp(-1)) > 1e-3 {
		t.Errorf("expected final state ~%.4f, got %v", math.Exp(-1), states[10][0])
	}

	runs, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Errorf("unexpected listing %+v", runs)
	}
}

func TestListEmpty(t *testing.T) {
	store := New(t.TempDir() + "/missing")
	runs, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestExportJSON(t *testing.T) {
	store := New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	log := runDecay(t)
	runID, err := store.Save(RunMetadata{Diagram: "decay", Dt: 0.1, Duration: 1, Integrator: "rk4"}, log)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	var buf bytes.Buffer
	if err := store.ExportJSON(runID, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	var doc struct {
		Metadata RunMetadata `json:"metadata"`
		Times    []float64   `json:"times"`
		States   [][]float64 `json:"states"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Metadata.ID != runID || len(doc.Times) != 11 || len(doc.States) != 11 {
		t.Errorf("unexpected export %+v", doc.Metadata)
	}
}
