package sweep

import (
	"errors"
	"math"
)

// Errors returned by chirp generation.
var (
	ErrInvalidFrequency  = errors.New("sweep: frequency must be positive")
	ErrFrequencyOrder    = errors.New("sweep: start frequency must be less than end frequency")
	ErrInvalidDuration   = errors.New("sweep: duration must be positive")
	ErrInvalidSampleRate = errors.New("sweep: sample rate must be positive")
)

// FullScale is the peak amplitude of the generated excitation,
// matching the positive range of a 16-bit signed integer.
const FullScale = 32767.0

// Chirp describes a logarithmic sweep excitation for impulse response
// measurement. The instantaneous frequency rises exponentially from
// StartFreq to EndFreq over Duration seconds.
type Chirp struct {
	StartFreq  float64 // start frequency in Hz
	EndFreq    float64 // end frequency in Hz
	Duration   float64 // sweep duration in seconds
	SampleRate float64 // sample rate in Hz
}

// Validate checks that the chirp parameters are valid.
func (c *Chirp) Validate() error {
	if c.StartFreq <= 0 || c.EndFreq <= 0 {
		return ErrInvalidFrequency
	}
	if c.StartFreq >= c.EndFreq {
		return ErrFrequencyOrder
	}
	if c.Duration <= 0 {
		return ErrInvalidDuration
	}
	if c.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	return nil
}

// samples returns the total number of samples for the sweep.
func (c *Chirp) samples() int {
	return int(math.Round(c.Duration * c.SampleRate))
}

// Generate creates the logarithmic sweep signal.
//
// With f1 = StartFreq, f2 = EndFreq and T = Duration, the
// instantaneous frequency is
//
//	f(t) = f1 * exp(t/T * ln(f2/f1))
//
// and integrating it from zero initial phase gives the waveform
//
//	x(t) = cos(2π * f1 * T / ln(f2/f1) * (exp(t/T * ln(f2/f1)) - 1))
//
// Samples are scaled by FullScale and truncated to integer values, so
// the first sample is exactly 32767 and every sample fits a 16-bit
// signed integer. The sequence is bit-exact with its 16-bit WAV
// rendition, which keeps the deconvolution reference aligned with the
// signal the playback device actually emits.
func (c *Chirp) Generate() ([]float64, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	n := c.samples()
	out := make([]float64, n)

	T := c.Duration
	lnRatio := math.Log(c.EndFreq / c.StartFreq)

	for i := range out {
		t := float64(i) / c.SampleRate
		phase := 2 * math.Pi * c.StartFreq * T / lnRatio * (math.Exp(t/T*lnRatio) - 1)
		out[i] = math.Trunc(math.Cos(phase) * FullScale)
	}

	return out, nil
}

// FrequencyAt returns the instantaneous sweep frequency in Hz at time
// t seconds, for t in [0, Duration]. The result is StartFreq at t=0
// and EndFreq at t=Duration. The parameters must be valid.
func (c *Chirp) FrequencyAt(t float64) float64 {
	lnRatio := math.Log(c.EndFreq / c.StartFreq)
	return c.StartFreq * math.Exp(t/c.Duration*lnRatio)
}
