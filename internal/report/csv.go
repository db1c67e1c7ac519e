// Package report persists analysis artifacts: decay-curve CSV files,
// energy decay plots, and the cross-recording summary database.
package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cwbudde/algo-rir/decay"
)

// WriteDecayCSV writes the decay curve as CSV with one row per sample
// under a "Time (s),Energy Decay (dB)" header.
func WriteDecayCSV(path string, c decay.Curve) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Time (s)", "Energy Decay (dB)"}); err != nil {
		return err
	}

	row := make([]string, 2)
	for i := range c.Time {
		row[0] = strconv.FormatFloat(c.Time[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(c.Level[i], 'g', -1, 64)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
