package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mdsim/internal/lattice"
	"github.com/san-kum/mdsim/internal/metrics"
)

func TestDominantPeriod(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*float64(i)/8)
	}
	assert.InDelta(t, 8, DominantPeriod(data), 1e-9)

	flat := []float64{1, 1, 1, 1}
	assert.Equal(t, 0.0, DominantPeriod(flat))
	assert.Equal(t, 0.0, DominantPeriod([]float64{1}))
}

func TestSummarize(t *testing.T) {
	reports := make([]metrics.Report, 64)
	for i := range reports {
		ekin := 0.04 + 0.01*math.Sin(2*math.Pi*float64(i)*5/40)
		reports[i] = metrics.Report{
			Step:           5 * i,
			KineticPerAtom: ekin,
			Temperature:    300 + float64(i%2),
			TotalPerAtom:   0.035 + 1e-6*float64(i),
		}
	}

	s, err := Summarize(reports, 5)
	require.NoError(t, err)
	assert.Equal(t, 64, s.Reports)
	assert.InDelta(t, 300.5, s.MeanTemperature, 1e-12)
	assert.Greater(t, s.StdTemperature, 0.0)
	assert.InDelta(t, 63e-6, s.MaxDrift, 1e-12)
	assert.InDelta(t, 40, s.KineticPeriod, 1e-9)

	_, err = Summarize(reports[:1], 5)
	assert.Error(t, err)
	_, err = Summarize(reports, 0)
	assert.Error(t, err)
}

func TestRDF_FCC(t *testing.T) {
	atoms, err := lattice.FCC(lattice.Spec{Symbol: "Cu", Size: [3]int{3, 3, 3}, PBC: [3]bool{true, true, true}})
	require.NoError(t, err)

	r, g, err := RDF(atoms.Positions, atoms.Cell, 5.4, 108)
	require.NoError(t, err)
	require.Len(t, r, 108)

	rho := float64(atoms.Len()) / (atoms.Cell.X * atoms.Cell.Y * atoms.Cell.Z)
	assert.InDelta(t, 12, Coordination(r, g, 3.0, rho), 1e-9)
	assert.InDelta(t, 18, Coordination(r, g, 4.0, rho), 1e-9)

	// Nothing closer than the nearest neighbour distance.
	for k := range r {
		if r[k] < 2.4 {
			assert.Zero(t, g[k], "r=%g", r[k])
		}
	}
}

func TestRDF_DistanceJustBelowRange(t *testing.T) {
	positions := []r3.Vec{{}, {X: 1.9696951891448455}}
	cell := r3.Vec{X: 10, Y: 10, Z: 10}

	r, g, err := RDF(positions, cell, 1.9696951891448458, 301)
	require.NoError(t, err)
	require.Len(t, r, 301)
	assert.Greater(t, g[300], 0.0)
}

func TestRDF_Errors(t *testing.T) {
	atoms, err := lattice.FCC(lattice.Spec{Symbol: "Cu", Size: [3]int{2, 2, 2}})
	require.NoError(t, err)

	_, _, err = RDF(atoms.Positions[:1], atoms.Cell, 3, 10)
	assert.Error(t, err)
	_, _, err = RDF(atoms.Positions, atoms.Cell, 5, 10)
	assert.Error(t, err)
	_, _, err = RDF(atoms.Positions, atoms.Cell, 3, 0)
	assert.Error(t, err)
}
