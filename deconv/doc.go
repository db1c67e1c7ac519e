// Package deconv recovers room impulse responses from recorded sweep
// responses by deconvolving the reference excitation.
//
// Two interchangeable strategies are provided:
//
//   - SpectralInverse divides by the regularized reference spectrum in
//     the frequency domain, zeroing every bin outside the swept band.
//     Preferred for real recordings: outside the band the excitation
//     carries no energy, so those bins hold only noise that an
//     unmasked inverse would amplify.
//   - MatchedFilter cross-correlates the recording with the reference
//     in the time domain. More tolerant of a poorly known excitation
//     spectrum, at the cost of a broader impulse peak.
//
// Both strategies align the direct-sound peak identically: a playback
// of the reference delayed by d samples produces an impulse response
// peaking at index d. Results are peak-normalized to 16-bit integer
// scale so they can be written as WAV files without further scaling.
//
// # Usage
//
//	strategy := &deconv.SpectralInverse{
//	    SampleRate: 16000,
//	    StartFreq:  500,
//	    EndFreq:    4000,
//	    Epsilon:    1e-12,
//	}
//	rir, err := strategy.Extract(recorded, reference)
//	if err != nil {
//	    return err
//	}
//	peak, _ := deconv.FindPeak(rir)
package deconv
