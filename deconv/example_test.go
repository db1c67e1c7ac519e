package deconv_test

import (
	"fmt"

	"github.com/cwbudde/algo-rir/deconv"
	"github.com/cwbudde/algo-rir/sweep"
)

func ExampleMatchedFilter_Extract() {
	c := &sweep.Chirp{StartFreq: 500, EndFreq: 4000, Duration: 0.5, SampleRate: 16000}
	reference, err := c.Generate()
	if err != nil {
		panic(err)
	}

	// Simulate a recording: the excitation arrives 48 samples later at
	// half amplitude.
	recorded := make([]float64, len(reference))
	for i := 48; i < len(recorded); i++ {
		recorded[i] = 0.5 * reference[i-48]
	}

	rir, err := deconv.MatchedFilter{}.Extract(recorded, reference)
	if err != nil {
		panic(err)
	}

	idx, val := deconv.FindPeak(rir)
	fmt.Printf("Peak index: %d\n", idx)
	fmt.Printf("Peak amplitude: %.0f\n", val)

	// Output:
	// Peak index: 48
	// Peak amplitude: 32767
}
