package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/cwbudde/algo-rir/decay"
)

func TestWriteDecayCSV(t *testing.T) {
	c := decay.Curve{
		Time:  []float64{0, 0.0000625, 0.000125},
		Level: []float64{0, -3.0103, -200},
	}

	path := filepath.Join(t.TempDir(), "nested", "edc.csv")
	if err := WriteDecayCSV(path, c); err != nil {
		t.Fatalf("WriteDecayCSV() failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("row count = %d, want 4", len(rows))
	}
	if rows[0][0] != "Time (s)" || rows[0][1] != "Energy Decay (dB)" {
		t.Errorf("header = %v", rows[0])
	}

	for i := 1; i < len(rows); i++ {
		gotTime, err := strconv.ParseFloat(rows[i][0], 64)
		if err != nil {
			t.Fatalf("row %d time: %v", i, err)
		}
		gotLevel, err := strconv.ParseFloat(rows[i][1], 64)
		if err != nil {
			t.Fatalf("row %d level: %v", i, err)
		}
		if gotTime != c.Time[i-1] || gotLevel != c.Level[i-1] {
			t.Errorf("row %d = (%v, %v), want (%v, %v)", i, gotTime, gotLevel, c.Time[i-1], c.Level[i-1])
		}
	}
}
