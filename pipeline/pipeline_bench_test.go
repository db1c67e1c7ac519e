package pipeline

import "testing"

func BenchmarkPipelineProcess(b *testing.B) {
	cfg := testConfig()
	cfg.Duration = 0.5

	p, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}

	ref := p.Chirp()
	recorded := make([]float64, len(ref))
	for i := 100; i < len(recorded); i++ {
		recorded[i] = 0.5 * ref[i-100]
	}

	b.ResetTimer()
	for b.Loop() {
		if _, err := p.Process(recorded); err != nil {
			b.Fatal(err)
		}
	}
}
