package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultKp       = 10.0
	DefaultKi       = 1.0
	DefaultKd       = 1.0
)

// Config describes one simulation scenario: which diagram to run, how to
// integrate it, and where it starts.
type Config struct {
	Diagram    string    `yaml:"diagram"`
	Integrator string    `yaml:"integrator"`
	Dt         float64   `yaml:"dt"`
	Duration   float64   `yaml:"duration"`
	InitState  []float64 `yaml:"init_state"`
	Desired    []float64 `yaml:"desired"`
	Gains      Gains     `yaml:"gains"`
}

// Gains are the PID parameters for diagrams that carry a controller.
type Gains struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

func DefaultConfig() *Config {
	return &Config{
		Diagram:    "pendulum",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Gains:      Gains{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
