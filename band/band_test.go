package band

import (
	"math"
	"testing"
)

func TestOctave(t *testing.T) {
	low, high := Octave(1000)

	if math.Abs(low-707.10678) > 1e-4 {
		t.Errorf("low = %v, want 707.10678", low)
	}
	if math.Abs(high-1414.21356) > 1e-4 {
		t.Errorf("high = %v, want 1414.21356", high)
	}

	// Edges span exactly one octave.
	if math.Abs(high/low-2) > 1e-12 {
		t.Errorf("high/low = %v, want 2", high/low)
	}
}

func TestNewBandpassValidation(t *testing.T) {
	tests := []struct {
		name       string
		low, high  float64
		order      int
		sampleRate float64
		wantErr    error
	}{
		{"valid", 707, 1414, 4, 16000, nil},
		{"zero sample rate", 707, 1414, 4, 0, ErrInvalidSampleRate},
		{"zero low edge", 0, 1414, 4, 16000, ErrInvalidFrequency},
		{"high edge at Nyquist", 707, 8000, 4, 16000, ErrInvalidFrequency},
		{"edges reversed", 1414, 707, 4, 16000, ErrFrequencyOrder},
		{"zero order", 707, 1414, 0, 16000, ErrInvalidOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBandpass(tt.low, tt.high, tt.order, tt.sampleRate)
			if err != tt.wantErr {
				t.Errorf("NewBandpass() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// steadyStateGain measures the filter's gain for a sine at freq,
// comparing RMS over the second half of a two-second excitation.
func steadyStateGain(t *testing.T, f *Filter, freq, sampleRate float64) float64 {
	t.Helper()

	n := int(2 * sampleRate)
	input := make([]float64, n)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	f.Reset()
	output := f.Process(input)

	var inPower, outPower float64
	for i := n / 2; i < n; i++ {
		inPower += input[i] * input[i]
		outPower += output[i] * output[i]
	}
	if inPower == 0 {
		t.Fatal("silent test input")
	}
	return 10 * math.Log10(outPower/inPower)
}

func TestBandpassSelectivity(t *testing.T) {
	low, high := Octave(1000)
	f, err := NewBandpass(low, high, DefaultOrder, 16000)
	if err != nil {
		t.Fatalf("NewBandpass() failed: %v", err)
	}

	tests := []struct {
		name  string
		freq  float64
		minDB float64
		maxDB float64
	}{
		{"center passes", 1000, -3, 1},
		{"1.5 octaves below is rejected", 250, -120, -20},
		{"1.5 octaves above is rejected", 4000, -120, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gain := steadyStateGain(t, f, tt.freq, 16000)
			if gain < tt.minDB || gain > tt.maxDB {
				t.Errorf("gain at %v Hz = %.1f dB, want within [%v, %v]", tt.freq, gain, tt.minDB, tt.maxDB)
			}
		})
	}
}

func TestBandpassOddOrder(t *testing.T) {
	low, high := Octave(1000)
	f, err := NewBandpass(low, high, 3, 16000)
	if err != nil {
		t.Fatalf("NewBandpass() failed: %v", err)
	}

	if gain := steadyStateGain(t, f, 1000, 16000); gain < -3 || gain > 1 {
		t.Errorf("center gain = %.1f dB, want within [-3, 1]", gain)
	}
	if gain := steadyStateGain(t, f, 125, 16000); gain > -20 {
		t.Errorf("stopband gain = %.1f dB, want below -20", gain)
	}
}

func TestSectionProcessSample(t *testing.T) {
	s := Section{Coefficients: Coefficients{B0: 0.5, B1: 0.2, A1: -0.3}}

	// Impulse response worked through the Direct Form II Transposed
	// recurrence by hand.
	want := []float64{0.5, 0.35, 0.105}
	input := []float64{1, 0, 0}
	for i, x := range input {
		got := s.ProcessSample(x)
		if math.Abs(got-want[i]) > 1e-12 {
			t.Errorf("sample %d = %v, want %v", i, got, want[i])
		}
	}
}

func TestFilterReset(t *testing.T) {
	low, high := Octave(1000)
	f, err := NewBandpass(low, high, DefaultOrder, 16000)
	if err != nil {
		t.Fatalf("NewBandpass() failed: %v", err)
	}

	impulse := make([]float64, 256)
	impulse[0] = 1

	first := f.Process(impulse)

	f.Reset()
	second := f.Process(impulse)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("output differs at %d after Reset: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestProcessLeavesInputIntact(t *testing.T) {
	low, high := Octave(1000)
	f, err := NewBandpass(low, high, DefaultOrder, 16000)
	if err != nil {
		t.Fatalf("NewBandpass() failed: %v", err)
	}

	input := []float64{1, 0.5, -0.5, 0.25}
	saved := append([]float64(nil), input...)

	f.Process(input)

	for i := range input {
		if input[i] != saved[i] {
			t.Fatalf("input mutated at %d: %v vs %v", i, input[i], saved[i])
		}
	}
}
