package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	yaml := `diagram: pendulum-pid
integrator: euler
dt: 0.002
duration: 25
init_state: [1.5, -0.5]
desired: [1.5707, 0]
gains:
  kp: 20
  ki: 0.5
  kd: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Diagram != "pendulum-pid" || cfg.Integrator != "euler" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Dt != 0.002 || cfg.Duration != 25 {
		t.Errorf("unexpected numeric fields %+v", cfg)
	}
	if len(cfg.InitState) != 2 || cfg.InitState[0] != 1.5 {
		t.Errorf("unexpected init state %v", cfg.InitState)
	}
	if cfg.Gains.Kp != 20 || cfg.Gains.Ki != 0.5 || cfg.Gains.Kd != 2 {
		t.Errorf("unexpected gains %+v", cfg.Gains)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("diagram: cubic\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Diagram != "cubic" {
		t.Errorf("unexpected diagram %q", cfg.Diagram)
	}
	if cfg.Dt != DefaultDt || cfg.Duration != DefaultDuration {
		t.Errorf("defaults not kept: %+v", cfg)
	}
	if cfg.Gains.Kp != DefaultKp {
		t.Errorf("default gains not kept: %+v", cfg.Gains)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	want := DefaultConfig()
	want.InitState = []float64{0.3, 0}
	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Diagram != want.Diagram || got.Dt != want.Dt || got.InitState[0] != 0.3 {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestPresets(t *testing.T) {
	cfg := GetPreset("pendulum-pid", "hold-horizontal")
	if cfg == nil {
		t.Fatal("missing preset")
	}
	if cfg.Duration != 40 || cfg.Gains.Kp != 10 {
		t.Errorf("unexpected preset %+v", cfg)
	}

	if GetPreset("pendulum", "nonexistent") != nil {
		t.Error("expected nil for unknown preset")
	}
	if GetPreset("nonexistent", "small") != nil {
		t.Error("expected nil for unknown diagram")
	}

	names := ListPresets("pendulum")
	if len(names) != 3 {
		t.Errorf("expected 3 pendulum presets, got %v", names)
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil preset list")
	}
}
