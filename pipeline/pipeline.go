package pipeline

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-rir/band"
	"github.com/cwbudde/algo-rir/decay"
	"github.com/cwbudde/algo-rir/deconv"
	"github.com/cwbudde/algo-rir/rt"
	"github.com/cwbudde/algo-rir/sweep"
)

// Errors returned by the pipeline.
var (
	ErrEmptyRecording = errors.New("pipeline: recording is empty")
	ErrNoRanges       = errors.New("pipeline: no fit ranges configured")
	ErrInvalidBand    = errors.New("pipeline: octave band does not fit below Nyquist")
)

// Config holds the immutable measurement parameters for one session.
type Config struct {
	SampleRate float64 // Hz
	Duration   float64 // excitation length in seconds
	StartFreq  float64 // swept band start in Hz
	EndFreq    float64 // swept band end in Hz

	// Method selects the deconvolution strategy.
	Method deconv.Method

	// Epsilon regularizes the spectral inverse. Ignored by the matched
	// filter strategy.
	Epsilon float64

	// Ranges are the decay windows fitted for every recording.
	Ranges []rt.Range

	// Bands holds octave band center frequencies in Hz for band-limited
	// analysis. Empty means broadband only.
	Bands []float64
}

// DefaultConfig returns the measurement parameters for a small-room
// survey: a 5 s sweep from 500 Hz to 4 kHz at 16 kHz, spectral
// deconvolution, and the standard fit windows.
func DefaultConfig() Config {
	return Config{
		SampleRate: 16000,
		Duration:   5,
		StartFreq:  500,
		EndFreq:    4000,
		Method:     deconv.MethodSpectral,
		Epsilon:    1e-12,
		Ranges:     rt.DefaultRanges(),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	chirp := sweep.Chirp{
		StartFreq:  c.StartFreq,
		EndFreq:    c.EndFreq,
		Duration:   c.Duration,
		SampleRate: c.SampleRate,
	}
	if err := chirp.Validate(); err != nil {
		return err
	}

	if c.Method == deconv.MethodSpectral && c.Epsilon <= 0 {
		return deconv.ErrInvalidEpsilon
	}

	if len(c.Ranges) == 0 {
		return ErrNoRanges
	}
	for _, r := range c.Ranges {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: %q", err, r.Name)
		}
	}

	for _, center := range c.Bands {
		low, high := band.Octave(center)
		if low <= 0 || high >= c.SampleRate/2 {
			return fmt.Errorf("%w: %g Hz", ErrInvalidBand, center)
		}
	}

	return nil
}

// Pipeline analyzes recorded sweep responses under a fixed
// configuration. The reference chirp is generated once at construction
// and shared by all recordings.
type Pipeline struct {
	cfg      Config
	chirp    []float64
	strategy deconv.Strategy
}

// New validates the configuration, generates the reference chirp, and
// builds the configured deconvolution strategy.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := sweep.Chirp{
		StartFreq:  cfg.StartFreq,
		EndFreq:    cfg.EndFreq,
		Duration:   cfg.Duration,
		SampleRate: cfg.SampleRate,
	}
	chirp, err := c.Generate()
	if err != nil {
		return nil, err
	}

	var strategy deconv.Strategy
	switch cfg.Method {
	case deconv.MethodMatched:
		strategy = deconv.MatchedFilter{}
	default:
		strategy = &deconv.SpectralInverse{
			SampleRate: cfg.SampleRate,
			StartFreq:  cfg.StartFreq,
			EndFreq:    cfg.EndFreq,
			Epsilon:    cfg.Epsilon,
		}
	}

	return &Pipeline{cfg: cfg, chirp: chirp, strategy: strategy}, nil
}

// Chirp returns a copy of the reference excitation signal, at 16-bit
// integer scale, for playback or WAV export.
func (p *Pipeline) Chirp() []float64 {
	out := make([]float64, len(p.chirp))
	copy(out, p.chirp)
	return out
}

// BandResult holds the fit results of one octave band.
type BandResult struct {
	Center float64 // band center frequency in Hz
	Fits   map[string]rt.Result
}

// Best selects the reporting fit for this band: T30 when valid, else
// T20.
func (b *BandResult) Best() (string, rt.Result, bool) {
	return bestFit(b.Fits)
}

// Result holds everything derived from one recording.
type Result struct {
	ImpulseResponse []float64
	PeakIndex       int     // index of the strongest arrival
	PeakValue       float64 // amplitude at PeakIndex
	Curve           decay.Curve
	Fits            map[string]rt.Result

	// Bands holds band-limited results for each configured octave that
	// carried enough energy to analyze; silent bands are skipped.
	Bands []BandResult
}

// Best selects the reporting fit: T30 when valid, else T20. The
// preference is a reporting policy, not a validity rule. Deeper
// windows average more of the decay, but a noise floor truncates them
// first; per-range validity in Fits stays authoritative for each
// window.
func (r *Result) Best() (string, rt.Result, bool) {
	return bestFit(r.Fits)
}

func bestFit(fits map[string]rt.Result) (string, rt.Result, bool) {
	if res, ok := fits["T30"]; ok && res.Valid {
		return "T30", res, true
	}
	if res, ok := fits["T20"]; ok && res.Valid {
		return "T20", res, true
	}
	return "", rt.Result{}, false
}

// Process analyzes one recorded sweep response.
//
// The recording and the reference are truncated to their shared
// minimum length, deconvolved into an impulse response, integrated
// into an energy decay curve, and fitted over every configured range.
// A recording whose impulse response carries no energy fails with
// decay.ErrZeroEnergy.
func (p *Pipeline) Process(recorded []float64) (*Result, error) {
	if len(recorded) == 0 {
		return nil, ErrEmptyRecording
	}

	n := min(len(recorded), len(p.chirp))
	rir, err := p.strategy.Extract(recorded[:n], p.chirp[:n])
	if err != nil {
		return nil, err
	}

	curve, err := decay.Compute(rir, p.cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	fits, err := rt.FitAll(curve, p.cfg.Ranges)
	if err != nil {
		return nil, err
	}

	peakIdx, peakVal := deconv.FindPeak(rir)

	result := &Result{
		ImpulseResponse: rir,
		PeakIndex:       peakIdx,
		PeakValue:       peakVal,
		Curve:           curve,
		Fits:            fits,
	}

	for _, center := range p.cfg.Bands {
		br, err := p.analyzeBand(rir, center)
		if err != nil {
			if errors.Is(err, decay.ErrZeroEnergy) {
				continue
			}
			return nil, err
		}
		result.Bands = append(result.Bands, br)
	}

	return result, nil
}

// analyzeBand fits the decay of the impulse response restricted to one
// octave band.
func (p *Pipeline) analyzeBand(rir []float64, center float64) (BandResult, error) {
	low, high := band.Octave(center)

	f, err := band.NewBandpass(low, high, band.DefaultOrder, p.cfg.SampleRate)
	if err != nil {
		return BandResult{}, err
	}

	curve, err := decay.Compute(f.Process(rir), p.cfg.SampleRate)
	if err != nil {
		return BandResult{}, err
	}

	fits, err := rt.FitAll(curve, p.cfg.Ranges)
	if err != nil {
		return BandResult{}, err
	}

	return BandResult{Center: center, Fits: fits}, nil
}
