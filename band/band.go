// Package band provides octave-band filtering of impulse responses for
// per-band reverberation analysis.
//
// A bandpass is realized as a Butterworth highpass cascade at the low
// edge followed by a Butterworth lowpass cascade at the high edge, both
// built from biquad sections in Direct Form II Transposed. Octave
// returns the conventional band edges around a center frequency.
package band

import (
	"errors"
	"math"
)

// Errors returned by bandpass construction.
var (
	ErrInvalidFrequency  = errors.New("band: frequency must be positive and below Nyquist")
	ErrFrequencyOrder    = errors.New("band: low edge must be less than high edge")
	ErrInvalidSampleRate = errors.New("band: sample rate must be positive")
	ErrInvalidOrder      = errors.New("band: order must be positive")
)

// DefaultOrder is the Butterworth order applied to each bandpass edge,
// giving 24 dB/octave skirts.
const DefaultOrder = 4

// Octave returns the edges of the octave band centered at center:
// center/√2 and center·√2.
func Octave(center float64) (low, high float64) {
	return center / math.Sqrt2, center * math.Sqrt2
}

// Filter is a Butterworth bandpass between two edge frequencies.
type Filter struct {
	sections []Section
}

// NewBandpass constructs a Butterworth bandpass with the given edge
// frequencies in Hz. order is the Butterworth order of each edge.
func NewBandpass(low, high float64, order int, sampleRate float64) (*Filter, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	nyquist := sampleRate / 2
	if low <= 0 || high <= 0 || low >= nyquist || high >= nyquist {
		return nil, ErrInvalidFrequency
	}
	if low >= high {
		return nil, ErrFrequencyOrder
	}
	if order <= 0 {
		return nil, ErrInvalidOrder
	}

	coeffs := butterworthHighpass(low, order, sampleRate)
	coeffs = append(coeffs, butterworthLowpass(high, order, sampleRate)...)

	sections := make([]Section, len(coeffs))
	for i, c := range coeffs {
		sections[i] = Section{Coefficients: c}
	}

	return &Filter{sections: sections}, nil
}

// Process filters the signal through all sections, returning a new
// slice. The filter keeps state across calls; call Reset between
// independent signals.
func (f *Filter) Process(signal []float64) []float64 {
	out := make([]float64, len(signal))
	copy(out, signal)
	for i := range f.sections {
		f.sections[i].ProcessBlock(out)
	}
	return out
}

// Reset clears the state of every section.
func (f *Filter) Reset() {
	for i := range f.sections {
		f.sections[i].Reset()
	}
}

// butterworthQ returns the quality factor of the section at the given
// index within a Butterworth cascade of the given order.
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	s := math.Sin(theta)
	if s == 0 {
		return 1 / math.Sqrt2
	}
	return 1 / (2 * s)
}

// butterworthLowpass designs a lowpass Butterworth cascade. Odd orders
// end in a first-order section.
func butterworthLowpass(freq float64, order int, sampleRate float64) []Coefficients {
	sections := make([]Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, lowpass(freq, butterworthQ(order, i), sampleRate))
	}
	if order%2 != 0 {
		sections = append(sections, firstOrderLowpass(freq, sampleRate))
	}
	return sections
}

// butterworthHighpass designs a highpass Butterworth cascade. Odd
// orders end in a first-order section.
func butterworthHighpass(freq float64, order int, sampleRate float64) []Coefficients {
	sections := make([]Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		sections = append(sections, highpass(freq, butterworthQ(order, i), sampleRate))
	}
	if order%2 != 0 {
		sections = append(sections, firstOrderHighpass(freq, sampleRate))
	}
	return sections
}
