package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-rir/decay"
	"github.com/cwbudde/algo-rir/rt"
)

func testCurve() decay.Curve {
	n := 200
	c := decay.Curve{
		Time:  make([]float64, n),
		Level: make([]float64, n),
	}
	for i := range c.Time {
		t := float64(i) / 100
		c.Time[i] = t
		c.Level[i] = -40 * t
	}
	return c
}

func TestSaveDecayPlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "edc.png")
	r := rt.Range{Name: "T30", Start: -5, End: -35}
	fit := rt.Result{T60: 1.5, Slope: -40, Intercept: 0, Valid: true}

	if err := SaveDecayPlot(path, "Energy decay for RIR_test", testCurve(), r, fit); err != nil {
		t.Fatalf("SaveDecayPlot() failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestSaveDecayPlotInvalidFit(t *testing.T) {
	// Without a valid fit the bare curve is still rendered.
	path := filepath.Join(t.TempDir(), "edc.png")

	err := SaveDecayPlot(path, "Energy decay", testCurve(), rt.Range{Name: "T30", Start: -5, End: -35}, rt.Result{})
	if err != nil {
		t.Fatalf("SaveDecayPlot() failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("plot missing: %v", err)
	}
}
