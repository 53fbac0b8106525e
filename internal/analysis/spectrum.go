// Package analysis extracts frequency-domain summaries from logged
// trajectories.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var (
	ErrTooShort   = errors.New("analysis: need at least 4 samples")
	ErrNonUniform = errors.New("analysis: sample times are not uniformly spaced")
)

// SampleSpacing returns the timestep of a uniformly sampled time series.
// Runs recorded with an adaptive integrator have uneven spacing and get
// ErrNonUniform, since an FFT over them would report skewed frequencies.
func SampleSpacing(times []float64) (float64, error) {
	if len(times) < 2 {
		return 0, ErrTooShort
	}
	dt := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	if dt <= 0 {
		return 0, ErrNonUniform
	}
	tol := 1e-9 + 1e-3*dt
	for i := 1; i < len(times); i++ {
		if math.Abs(times[i]-times[i-1]-dt) > tol {
			return 0, ErrNonUniform
		}
	}
	return dt, nil
}

// Spectrum is a one-sided power spectrum of a uniformly sampled signal.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum computes the one-sided spectrum of values sampled every
// dt seconds. The mean is removed first so a DC offset does not mask the
// oscillation.
func PowerSpectrum(values []float64, dt float64) (*Spectrum, error) {
	if len(values) < 4 {
		return nil, ErrTooShort
	}
	if dt <= 0 {
		return nil, errors.New("analysis: dt must be positive")
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	centered := make([]float64, len(values))
	for i, v := range values {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	n := len(coeffs) / 2

	s := &Spectrum{
		Freqs: make([]float64, n),
		Power: make([]float64, n),
	}
	sampleRate := 1.0 / dt
	for i := 0; i < n; i++ {
		s.Freqs[i] = float64(i) * sampleRate / float64(len(coeffs))
		mag := cmplx.Abs(coeffs[i]) / float64(len(coeffs))
		s.Power[i] = mag * mag
	}
	return s, nil
}

// DominantFrequency returns the peak of the spectrum above DC, in Hz,
// with its power.
func (s *Spectrum) DominantFrequency() (freq, power float64) {
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > power {
			power = s.Power[i]
			freq = s.Freqs[i]
		}
	}
	return freq, power
}

// TotalPower sums the spectrum above DC.
func (s *Spectrum) TotalPower() float64 {
	total := 0.0
	for _, p := range s.Power[1:] {
		total += p
	}
	return total
}

// OscillationPeriod converts the dominant frequency to a period, or NaN
// when the signal shows no oscillation.
func (s *Spectrum) OscillationPeriod() float64 {
	freq, power := s.DominantFrequency()
	if freq == 0 || power == 0 {
		return math.NaN()
	}
	return 1 / freq
}
