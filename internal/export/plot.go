// Package export renders stored energy series as image files.
package export

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/mdsim/internal/metrics"
)

var (
	potentialColor   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	kineticColor     = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	totalColor       = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	temperatureColor = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
)

type series struct {
	name  string
	color color.Color
	value func(metrics.Report) float64
}

func newPlot(title, ylabel string, reports []metrics.Report, ss ...series) (*plot.Plot, error) {
	if len(reports) < 2 {
		return nil, fmt.Errorf("export: need at least 2 reports, got %d", len(reports))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "step"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for _, s := range ss {
		pts := make(plotter.XYs, len(reports))
		for i, r := range reports {
			pts[i].X = float64(r.Step)
			pts[i].Y = s.value(r)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = s.color
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true
	return p, nil
}

// EnergyPlot draws potential, kinetic and total energy per atom against step.
func EnergyPlot(reports []metrics.Report) (*plot.Plot, error) {
	return newPlot("Energy per atom", "eV", reports,
		series{"Epot", potentialColor, func(r metrics.Report) float64 { return r.PotentialPerAtom }},
		series{"Ekin", kineticColor, func(r metrics.Report) float64 { return r.KineticPerAtom }},
		series{"Etot", totalColor, func(r metrics.Report) float64 { return r.TotalPerAtom }},
	)
}

func TemperaturePlot(reports []metrics.Report) (*plot.Plot, error) {
	return newPlot("Temperature", "K", reports,
		series{"T", temperatureColor, func(r metrics.Report) float64 { return r.Temperature }},
	)
}

// Save writes p to path. The format follows the extension (png, svg, pdf, ...).
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return fmt.Errorf("export: %s has no file extension", path)
	}
	return p.Save(width, height, path)
}

// SaveEnergies is EnergyPlot followed by Save at 6x4 inches.
func SaveEnergies(path string, reports []metrics.Report) error {
	p, err := EnergyPlot(reports)
	if err != nil {
		return err
	}
	return Save(p, path, 6*vg.Inch, 4*vg.Inch)
}
