// Package decay computes Schroeder energy decay curves from room
// impulse responses.
//
// The decay curve is the basis for reverberation time estimation: the
// backward-integrated energy falls off linearly in decibels for an
// ideal exponential decay, so package rt can fit a line to it.
package decay

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by decay analysis.
var (
	ErrEmptyIR           = errors.New("decay: impulse response is empty")
	ErrInvalidSampleRate = errors.New("decay: sample rate must be positive")
	ErrZeroEnergy        = errors.New("decay: impulse response carries no energy")
)

// floorDB is the level assigned where the remaining energy underflows
// to zero, which happens across trailing all-zero samples.
const floorDB = -200

// Curve is a Schroeder energy decay curve: the total remaining signal
// energy from each time point onward, in decibels relative to the
// total energy. Level[0] is exactly 0 dB and Time is uniformly spaced
// starting at zero.
type Curve struct {
	Time  []float64 // seconds
	Level []float64 // dB, <= 0
}

// Compute derives the energy decay curve of an impulse response.
//
// Every sample is squared, the squared sequence is cumulatively summed
// backward from the tail (Schroeder integration), and the result is
// normalized by the total energy and converted to decibels:
//
//	L(t_i) = 10 * log10( Σ_{j>=i} h²(j) / Σ_j h²(j) )
//
// The backward integration smooths per-sample energy fluctuations into
// a monotonically falling curve suitable for regression. An impulse
// response with zero total energy has no decay curve and fails with
// ErrZeroEnergy.
func Compute(ir []float64, sampleRate float64) (Curve, error) {
	if len(ir) == 0 {
		return Curve{}, ErrEmptyIR
	}
	if sampleRate <= 0 {
		return Curve{}, ErrInvalidSampleRate
	}

	n := len(ir)

	squared := make([]float64, n)
	vecmath.MulBlock(squared, ir, ir)

	level := make([]float64, n)
	cumulative := 0.0
	for i := n - 1; i >= 0; i-- {
		cumulative += squared[i]
		level[i] = cumulative
	}

	total := level[0]
	if total <= 0 {
		return Curve{}, ErrZeroEnergy
	}

	for i := range level {
		ratio := level[i] / total
		if ratio <= 0 {
			level[i] = floorDB
		} else {
			level[i] = 10 * math.Log10(ratio)
		}
	}

	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / sampleRate
	}

	return Curve{Time: times, Level: level}, nil
}
