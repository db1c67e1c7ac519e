// Package sweep generates the logarithmic chirp excitation signal used
// for room impulse response measurement.
//
// The chirp sweeps from a start to an end frequency with exponentially
// rising instantaneous frequency, so each octave receives equal time
// and equal energy. Samples are emitted at 16-bit integer scale: the
// generated sequence is the exact reference waveform for deconvolving
// a recording of its WAV rendition played back through a loudspeaker.
//
// # Usage
//
//	c := &sweep.Chirp{
//	    StartFreq: 500, EndFreq: 4000,
//	    Duration: 5, SampleRate: 16000,
//	}
//	excitation, err := c.Generate()
//	// play excitation through the system, record the response,
//	// then recover the impulse response with package deconv
package sweep
