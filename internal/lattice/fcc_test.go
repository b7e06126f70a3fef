package lattice

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mdsim/internal/dynamo"
)

func TestFCC_CountsAndCell(t *testing.T) {
	atoms, err := FCC(Spec{Symbol: "Cu", Size: [3]int{10, 10, 10}, PBC: [3]bool{true, true, true}})
	require.NoError(t, err)

	assert.Equal(t, 4000, atoms.Len())
	assert.InDelta(t, 36.1, atoms.Cell.X, 1e-12)
	assert.InDelta(t, 36.1, atoms.Cell.Y, 1e-12)
	assert.InDelta(t, 36.1, atoms.Cell.Z, 1e-12)
	assert.Equal(t, [3]bool{true, true, true}, atoms.PBC)
	require.NoError(t, atoms.Validate())

	for i := range atoms.Masses {
		assert.Equal(t, 63.546, atoms.Masses[i])
		assert.Equal(t, "Cu", atoms.Symbols[i])
		assert.Equal(t, r3.Vec{}, atoms.Velocities[i])
	}
}

func TestFCC_NearestNeighbourDistance(t *testing.T) {
	atoms, err := FCC(Spec{Symbol: "Cu", Size: [3]int{2, 2, 2}})
	require.NoError(t, err)

	minDist := math.Inf(1)
	for i := 0; i < atoms.Len(); i++ {
		for j := i + 1; j < atoms.Len(); j++ {
			d := r3.Norm(r3.Sub(atoms.Positions[i], atoms.Positions[j]))
			minDist = math.Min(minDist, d)
		}
	}
	assert.InDelta(t, 3.61/math.Sqrt2, minDist, 1e-12)
}

func TestFCC_Deterministic(t *testing.T) {
	spec := Spec{Symbol: "Cu", Size: [3]int{3, 2, 1}, PBC: [3]bool{true, true, false}}
	a, err := FCC(spec)
	require.NoError(t, err)
	b, err := FCC(spec)
	require.NoError(t, err)

	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, 24, a.Len())
}

func TestFCC_CustomLatticeConstant(t *testing.T) {
	atoms, err := FCC(Spec{Symbol: "Cu", Size: [3]int{1, 1, 1}, LatticeConstant: 4})
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 4, Y: 4, Z: 4}, atoms.Cell)
	assert.Equal(t, r3.Vec{X: 0, Y: 2, Z: 2}, atoms.Positions[1])
}

func TestFCC_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"unknown element", Spec{Symbol: "Xx", Size: [3]int{1, 1, 1}}, ErrUnknownElement},
		{"zero size", Spec{Symbol: "Cu", Size: [3]int{0, 1, 1}}, dynamo.ErrParameterBounds},
		{"negative constant", Spec{Symbol: "Cu", Size: [3]int{1, 1, 1}, LatticeConstant: -1}, dynamo.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FCC(tt.spec)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
