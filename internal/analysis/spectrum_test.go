package analysis

import (
	"errors"
	"math"
	"testing"
)

func TestPowerSpectrumFindsSine(t *testing.T) {
	const (
		dt      = 0.01
		samples = 1024
		hz      = 2.5
	)
	values := make([]float64, samples)
	for i := range values {
		values[i] = 3.0 + math.Sin(2*math.Pi*hz*float64(i)*dt)
	}

	s, err := PowerSpectrum(values, dt)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}

	freq, power := s.DominantFrequency()
	// Bin resolution is 1/(N*dt) ~ 0.1 Hz.
	if math.Abs(freq-hz) > 0.2 {
		t.Errorf("expected dominant frequency ~%.1f Hz, got %.3f", hz, freq)
	}
	if power <= 0 {
		t.Errorf("expected positive peak power, got %v", power)
	}

	period := s.OscillationPeriod()
	if math.Abs(period-1/hz) > 0.05 {
		t.Errorf("expected period ~%.3f, got %.3f", 1/hz, period)
	}
}

func TestPowerSpectrumRemovesDC(t *testing.T) {
	values := make([]float64, 256)
	for i := range values {
		values[i] = 42.0
	}

	s, err := PowerSpectrum(values, 0.1)
	if err != nil {
		t.Fatalf("spectrum: %v", err)
	}
	if total := s.TotalPower(); total > 1e-18 {
		t.Errorf("constant signal has power %v", total)
	}
	if !math.IsNaN(s.OscillationPeriod()) {
		t.Error("expected NaN period for constant signal")
	}
}

func TestSampleSpacing(t *testing.T) {
	uniform := make([]float64, 100)
	for i := range uniform {
		uniform[i] = float64(i) * 0.01
	}
	dt, err := SampleSpacing(uniform)
	if err != nil {
		t.Fatalf("uniform times: %v", err)
	}
	if math.Abs(dt-0.01) > 1e-12 {
		t.Errorf("expected dt 0.01, got %v", dt)
	}

	// Step doubling partway through, as an adaptive integrator produces.
	adaptive := []float64{0, 0.01, 0.02, 0.04, 0.08, 0.16}
	if _, err := SampleSpacing(adaptive); !errors.Is(err, ErrNonUniform) {
		t.Errorf("expected ErrNonUniform, got %v", err)
	}

	if _, err := SampleSpacing([]float64{1}); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestPowerSpectrumErrors(t *testing.T) {
	if _, err := PowerSpectrum([]float64{1, 2}, 0.1); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
	if _, err := PowerSpectrum(make([]float64, 16), 0); err == nil {
		t.Error("expected error for zero dt")
	}
}
