package config

import "math"

var Presets = map[string]map[string]*Config{
	"pendulum": {
		"small": {
			Diagram: "pendulum", Integrator: "rk4", Dt: 0.01, Duration: 20.0,
			InitState: []float64{0.2, 0.0},
		},
		"large": {
			Diagram: "pendulum", Integrator: "rk4", Dt: 0.01, Duration: 20.0,
			InitState: []float64{2.5, 0.0},
		},
		"spinning": {
			Diagram: "pendulum", Integrator: "rk45", Dt: 0.01, Duration: 30.0,
			InitState: []float64{0.1, 8.0},
		},
	},
	"pendulum-pid": {
		"hold-horizontal": {
			Diagram: "pendulum-pid", Integrator: "rk4", Dt: 0.01, Duration: 40.0,
			InitState: []float64{math.Pi/2 + 0.1, 0.2},
			Desired:   []float64{math.Pi / 2, 0.0},
			Gains:     Gains{Kp: 10, Ki: 1, Kd: 1},
		},
		"swing-up": {
			Diagram: "pendulum-pid", Integrator: "rk4", Dt: 0.005, Duration: 60.0,
			InitState: []float64{0.0, 0.0},
			Desired:   []float64{math.Pi, 0.0},
			Gains:     Gains{Kp: 25, Ki: 2, Kd: 4},
		},
	},
	"cubic": {
		"default": {
			Diagram: "cubic", Integrator: "rk4", Dt: 0.01, Duration: 10.0,
			InitState: []float64{0.9},
		},
		"near-unstable": {
			Diagram: "cubic", Integrator: "rk45", Dt: 0.001, Duration: 10.0,
			InitState: []float64{0.999},
		},
	},
}

func GetPreset(diagram, preset string) *Config {
	diagramPresets, ok := Presets[diagram]
	if !ok {
		return nil
	}
	cfg, ok := diagramPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(diagram string) []string {
	diagramPresets, ok := Presets[diagram]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(diagramPresets))
	for name := range diagramPresets {
		names = append(names, name)
	}
	return names
}
