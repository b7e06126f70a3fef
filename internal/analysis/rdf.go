package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// RDF histograms all pair distances below rmax under the minimum image
// convention and normalises by the ideal gas shell count. It returns the bin
// centres and g(r). rmax must not exceed half the shortest cell edge.
func RDF(positions []r3.Vec, cell r3.Vec, rmax float64, bins int) (r, g []float64, err error) {
	n := len(positions)
	if n < 2 {
		return nil, nil, fmt.Errorf("analysis: rdf needs at least 2 atoms, got %d", n)
	}
	if bins < 1 || rmax <= 0 {
		return nil, nil, fmt.Errorf("analysis: invalid rdf range %g with %d bins", rmax, bins)
	}
	if half := 0.5 * math.Min(cell.X, math.Min(cell.Y, cell.Z)); rmax > half {
		return nil, nil, fmt.Errorf("analysis: rdf range %g exceeds half the cell (%g)", rmax, half)
	}

	dr := rmax / float64(bins)
	hist := make([]float64, bins)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := r3.Sub(positions[j], positions[i])
			d.X -= cell.X * math.Round(d.X/cell.X)
			d.Y -= cell.Y * math.Round(d.Y/cell.Y)
			d.Z -= cell.Z * math.Round(d.Z/cell.Z)
			dist := r3.Norm(d)
			if dist >= rmax {
				continue
			}
			// dist/dr may round up to bins just below rmax.
			if k := int(dist / dr); k < bins {
				hist[k] += 2
			} else {
				hist[bins-1] += 2
			}
		}
	}

	rho := float64(n) / (cell.X * cell.Y * cell.Z)
	r = make([]float64, bins)
	g = make([]float64, bins)
	for k := range hist {
		lo, hi := float64(k)*dr, float64(k+1)*dr
		shell := 4.0 / 3.0 * math.Pi * (hi*hi*hi - lo*lo*lo)
		r[k] = lo + 0.5*dr
		g[k] = hist[k] / (float64(n) * rho * shell)
	}
	return r, g, nil
}

// Coordination integrates g(r) up to rcut, giving the mean neighbour count.
func Coordination(r, g []float64, rcut float64, density float64) float64 {
	if len(r) < 2 {
		return 0
	}
	dr := r[1] - r[0]
	sum := 0.0
	for k := range r {
		if r[k]+0.5*dr > rcut {
			break
		}
		lo, hi := r[k]-0.5*dr, r[k]+0.5*dr
		sum += g[k] * density * 4.0 / 3.0 * math.Pi * (hi*hi*hi - lo*lo*lo)
	}
	return sum
}
