// Package rt estimates reverberation times from energy decay curves.
//
// A reverberation time is obtained by fitting a line to the decay
// curve inside a level window and extrapolating the fitted rate to the
// standard 60 dB decay. Several windows are fitted side by side so
// measurements with an early noise floor still yield an estimate from
// a shallower window.
package rt

import (
	"errors"

	"github.com/cwbudde/algo-rir/decay"
)

// Errors returned by decay fitting.
var (
	ErrEmptyCurve    = errors.New("rt: decay curve is empty")
	ErrCurveMismatch = errors.New("rt: curve time and level lengths differ")
	ErrInvalidRange  = errors.New("rt: fit range must satisfy end < start <= 0")
)

// Range names a level window on the decay curve, bounded by a start
// and end level in dB. Start lies closer to 0 than End.
//
// The conventional windows skip the first 5 dB of decay, which is
// dominated by the direct sound, and span the next 20 to 30 dB:
//
//	T20: -5 to -25 dB
//	T30: -5 to -35 dB
type Range struct {
	Name  string
	Start float64 // upper window bound in dB, closer to 0
	End   float64 // lower window bound in dB
}

// Validate checks that the fit range is well-formed.
func (r Range) Validate() error {
	if r.Start > 0 || r.End >= r.Start {
		return ErrInvalidRange
	}
	return nil
}

// DefaultRanges returns the standard fit windows: the ISO 3382 T20 and
// T30 windows plus a T25 midpoint for comparison.
func DefaultRanges() []Range {
	return []Range{
		{Name: "T20", Start: -5, End: -25},
		{Name: "T30", Start: -5, End: -35},
		{Name: "T25", Start: -5, End: -30},
	}
}

// Result holds one fitted decay rate. Valid reports whether the window
// contained enough genuinely decaying samples to fit; when false the
// numeric fields are meaningless and must not be reported.
type Result struct {
	T60       float64 // extrapolated 60 dB decay time in seconds
	Slope     float64 // fitted decay rate in dB/s, negative
	Intercept float64 // fitted level at t=0 in dB
	Valid     bool
}

// Fit performs a least-squares linear fit of the decay curve inside
// one level window and extrapolates the rate to a full 60 dB decay:
//
//	T60 = 60 / |slope|
//
// Every sample whose level lies inside [End, Start] participates,
// wherever it occurs on the curve; a noisy curve that re-enters the
// window contributes all its qualifying samples. The fit is undefined
// (Valid false) when fewer than two samples qualify or when the fitted
// slope is not negative: a flat or rising window cannot yield a decay
// time.
func Fit(c decay.Curve, r Range) (Result, error) {
	if len(c.Level) == 0 {
		return Result{}, ErrEmptyCurve
	}
	if len(c.Level) != len(c.Time) {
		return Result{}, ErrCurveMismatch
	}
	if err := r.Validate(); err != nil {
		return Result{}, err
	}

	count := 0
	var sumX, sumY, sumXX, sumXY float64
	for i, level := range c.Level {
		if level < r.End || level > r.Start {
			continue
		}
		x := c.Time[i]
		count++
		sumX += x
		sumY += level
		sumXX += x * x
		sumXY += x * level
	}

	if count < 2 {
		return Result{}, nil
	}

	n := float64(count)
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Result{}, nil
	}

	slope := (n*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return Result{}, nil
	}

	return Result{
		T60:       -60 / slope,
		Slope:     slope,
		Intercept: (sumY - slope*sumX) / n,
		Valid:     true,
	}, nil
}

// FitAll fits every range against the curve, keyed by range name. A
// window that fails to fit reports Valid false; one window's failure
// never blocks another's.
func FitAll(c decay.Curve, ranges []Range) (map[string]Result, error) {
	results := make(map[string]Result, len(ranges))
	for _, r := range ranges {
		res, err := Fit(c, r)
		if err != nil {
			return nil, err
		}
		results[r.Name] = res
	}
	return results, nil
}
