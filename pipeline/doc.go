// Package pipeline runs the full reverberation measurement chain:
// reference sweep generation, deconvolution of the recorded response,
// Schroeder decay integration, and multi-range T60 fitting.
//
// A Pipeline is built once from an immutable Config and applied to any
// number of recordings, so every recording in a session is analyzed
// under identical parameters and the resulting decay times are
// directly comparable. Process calls share only immutable state and
// are safe to run concurrently.
//
// # Usage
//
//	p, err := pipeline.New(pipeline.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	res, err := p.Process(recorded)
//	if err != nil {
//	    return err
//	}
//	if name, fit, ok := res.Best(); ok {
//	    fmt.Printf("T60 = %.3f s (%s)\n", fit.T60, name)
//	}
package pipeline
