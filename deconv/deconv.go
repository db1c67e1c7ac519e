package deconv

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Errors returned by deconvolution.
var (
	ErrEmptyInput        = errors.New("deconv: empty input signal")
	ErrLengthMismatch    = errors.New("deconv: recorded and reference lengths differ")
	ErrInvalidFrequency  = errors.New("deconv: frequency must be positive")
	ErrFrequencyOrder    = errors.New("deconv: band start must be less than band end")
	ErrInvalidSampleRate = errors.New("deconv: sample rate must be positive")
	ErrInvalidEpsilon    = errors.New("deconv: epsilon must be positive")
	ErrUnknownMethod     = errors.New("deconv: unknown deconvolution method")
)

// fullScale is the peak amplitude of normalized impulse responses.
const fullScale = 32767.0

// Strategy recovers an impulse response from a recorded sweep response
// and the reference excitation.
//
// Both signals must have the same length; callers truncate to the
// shared minimum beforehand. The result has the recording's length and
// is peak-normalized to 16-bit integer scale. Implementations are
// stateless and safe for concurrent use.
type Strategy interface {
	Extract(recorded, reference []float64) ([]float64, error)
}

// Method selects a deconvolution strategy.
type Method int

const (
	// MethodSpectral is frequency-domain inverse filtering with band
	// masking and regularized spectral division.
	MethodSpectral Method = iota

	// MethodMatched is time-domain matched filtering with the
	// time-reversed reference.
	MethodMatched
)

// String returns the method name as accepted by ParseMethod.
func (m Method) String() string {
	switch m {
	case MethodSpectral:
		return "spectral"
	case MethodMatched:
		return "matched"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod converts a method name to a Method. Valid names are
// "spectral" and "matched".
func ParseMethod(s string) (Method, error) {
	switch s {
	case "spectral":
		return MethodSpectral, nil
	case "matched":
		return MethodMatched, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// SpectralInverse deconvolves in the frequency domain using a
// regularized inverse of the reference spectrum, restricted to the
// swept band.
//
// With X the reference spectrum, the inverse transfer function is
//
//	H_inv(f) = conj(X(f)) / (|X(f)|² + ε)
//
// Bins whose absolute frequency lies outside [StartFreq, EndFreq] are
// zeroed, including the negative-frequency mirrors.
type SpectralInverse struct {
	SampleRate float64 // sample rate of both signals in Hz
	StartFreq  float64 // band start in Hz
	EndFreq    float64 // band end in Hz
	Epsilon    float64 // regularization constant, typically 1e-12
}

// Validate checks the deconvolution parameters.
func (d *SpectralInverse) Validate() error {
	if d.SampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if d.StartFreq <= 0 || d.EndFreq <= 0 {
		return ErrInvalidFrequency
	}
	if d.StartFreq >= d.EndFreq {
		return ErrFrequencyOrder
	}
	if d.Epsilon <= 0 {
		return ErrInvalidEpsilon
	}
	return nil
}

// Extract recovers the impulse response from a recorded sweep response.
func (d *SpectralInverse) Extract(recorded, reference []float64) ([]float64, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if len(recorded) == 0 || len(reference) == 0 {
		return nil, ErrEmptyInput
	}
	if len(recorded) != len(reference) {
		return nil, ErrLengthMismatch
	}

	n := len(recorded)
	fftSize := nextPowerOf2(n)

	recFreq, refFreq, plan, err := transformPair(recorded, reference, fftSize)
	if err != nil {
		return nil, err
	}

	// Y * conj(X) / (|X|² + ε) inside the band, zero outside.
	resultFreq := make([]complex128, fftSize)
	for i := range resultFreq {
		if !d.inBand(binFrequency(i, fftSize, d.SampleRate)) {
			continue
		}
		re, im := real(refFreq[i]), imag(refFreq[i])
		magSq := re*re + im*im
		resultFreq[i] = recFreq[i] * cmplx.Conj(refFreq[i]) / complex(magSq+d.Epsilon, 0)
	}

	resultTime := make([]complex128, fftSize)
	if err := plan.Inverse(resultTime, resultFreq); err != nil {
		return nil, fmt.Errorf("deconv: inverse FFT failed: %w", err)
	}

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = real(resultTime[i])
	}

	return normalize16(raw), nil
}

// inBand reports whether the absolute frequency lies inside the swept
// band, bounds inclusive.
func (d *SpectralInverse) inBand(f float64) bool {
	af := math.Abs(f)
	return af >= d.StartFreq && af <= d.EndFreq
}

// MatchedFilter deconvolves by cross-correlating the recording with
// the reference excitation, which equals convolving with the
// time-reversed reference.
//
// The correlation is evaluated for non-negative lags only, so a
// recording containing the reference delayed by d samples yields an
// impulse response peaking at index d, time-aligned with the spectral
// strategy.
type MatchedFilter struct{}

// Extract recovers the impulse response from a recorded sweep response.
func (MatchedFilter) Extract(recorded, reference []float64) ([]float64, error) {
	if len(recorded) == 0 || len(reference) == 0 {
		return nil, ErrEmptyInput
	}
	if len(recorded) != len(reference) {
		return nil, ErrLengthMismatch
	}

	n := len(recorded)

	// Padding past 2n-1 leaves no circular wrap: bin k of the inverse
	// transform is the linear cross-correlation at lag k.
	fftSize := nextPowerOf2(2*n - 1)

	recFreq, refFreq, plan, err := transformPair(recorded, reference, fftSize)
	if err != nil {
		return nil, err
	}

	resultFreq := make([]complex128, fftSize)
	for i := range resultFreq {
		resultFreq[i] = recFreq[i] * cmplx.Conj(refFreq[i])
	}

	resultTime := make([]complex128, fftSize)
	if err := plan.Inverse(resultTime, resultFreq); err != nil {
		return nil, fmt.Errorf("deconv: inverse FFT failed: %w", err)
	}

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = real(resultTime[i])
	}

	return normalize16(raw), nil
}

// transformPair forward-transforms two signals zero-padded to fftSize
// and returns their spectra together with the plan for the inverse.
func transformPair(a, b []float64, fftSize int) ([]complex128, []complex128, *algofft.Plan[complex128], error) {
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("deconv: failed to create FFT plan: %w", err)
	}

	aPadded := make([]complex128, fftSize)
	for i, v := range a {
		aPadded[i] = complex(v, 0)
	}
	bPadded := make([]complex128, fftSize)
	for i, v := range b {
		bPadded[i] = complex(v, 0)
	}

	aFreq := make([]complex128, fftSize)
	if err := plan.Forward(aFreq, aPadded); err != nil {
		return nil, nil, nil, fmt.Errorf("deconv: forward FFT failed: %w", err)
	}
	bFreq := make([]complex128, fftSize)
	if err := plan.Forward(bFreq, bPadded); err != nil {
		return nil, nil, nil, fmt.Errorf("deconv: forward FFT failed: %w", err)
	}

	return aFreq, bFreq, plan, nil
}

// FindPeak returns the index and value of the sample with the largest
// absolute amplitude, the direct-sound arrival of an impulse response.
// Returns (-1, 0) for an empty signal.
func FindPeak(signal []float64) (int, float64) {
	if len(signal) == 0 {
		return -1, 0
	}

	index := 0
	peak := math.Abs(signal[0])
	for i, v := range signal {
		if av := math.Abs(v); av > peak {
			peak = av
			index = i
		}
	}

	return index, signal[index]
}

// normalize16 peak-normalizes a raw impulse response into 16-bit
// integer scale, truncating toward zero. An all-zero signal is
// returned unscaled: degenerate but not an error here, the decay
// analysis rejects it downstream.
func normalize16(raw []float64) []float64 {
	peak := 0.0
	for _, v := range raw {
		if av := math.Abs(v); av > peak {
			peak = av
		}
	}
	if peak == 0 {
		return raw
	}

	for i := range raw {
		raw[i] = math.Trunc(raw[i] / peak * fullScale)
	}
	return raw
}

// binFrequency returns the signed center frequency of FFT bin k for an
// fftSize-point transform at the given sample rate.
func binFrequency(k, fftSize int, sampleRate float64) float64 {
	if k <= fftSize/2 {
		return float64(k) * sampleRate / float64(fftSize)
	}
	return float64(k-fftSize) * sampleRate / float64(fftSize)
}

// nextPowerOf2 returns the smallest power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
