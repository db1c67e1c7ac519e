package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-rir/decay"
	"github.com/cwbudde/algo-rir/rt"
)

// SaveDecayPlot renders the energy decay curve with the chosen fit
// overlaid and writes it as an image; the format follows the file
// extension (.png, .svg, .pdf).
//
// The fit line is extrapolated across the whole time axis, with dotted
// guides at the fit window bounds. The vertical axis is clamped to
// [-70, 5] dB so the floor of silent tails does not flatten the
// visible decay. An invalid fit plots the bare curve.
func SaveDecayPlot(path, title string, c decay.Curve, r rt.Range, fit rt.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Energy Decay (dB)"
	p.Y.Min = -70
	p.Y.Max = 5
	p.Add(plotter.NewGrid())

	curvePts := make(plotter.XYs, len(c.Time))
	for i := range c.Time {
		curvePts[i].X = c.Time[i]
		curvePts[i].Y = c.Level[i]
	}
	curveLine, err := plotter.NewLine(curvePts)
	if err != nil {
		return err
	}
	curveLine.Color = color.RGBA{B: 255, A: 255}
	p.Add(curveLine)
	p.Legend.Add("Schroeder decay", curveLine)

	if fit.Valid && len(c.Time) > 0 {
		end := c.Time[len(c.Time)-1]

		fitLine, err := plotter.NewLine(plotter.XYs{
			{X: 0, Y: fit.Intercept},
			{X: end, Y: fit.Intercept + fit.Slope*end},
		})
		if err != nil {
			return err
		}
		fitLine.Color = color.RGBA{R: 255, A: 255}
		fitLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(fitLine)
		p.Legend.Add(fmt.Sprintf("%s fit (%.1f dB/s)", r.Name, fit.Slope), fitLine)

		for _, bound := range []float64{r.Start, r.End} {
			guide, err := plotter.NewLine(plotter.XYs{
				{X: 0, Y: bound},
				{X: end, Y: bound},
			})
			if err != nil {
				return err
			}
			guide.Color = color.RGBA{G: 160, A: 255}
			guide.Dashes = []vg.Length{vg.Points(1), vg.Points(3)}
			p.Add(guide)
		}
	}

	return p.Save(10*vg.Inch, 5*vg.Inch, path)
}
