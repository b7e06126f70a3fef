package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/mdsim/internal/lattice"
	"github.com/san-kum/mdsim/internal/physics"
)

func TestGridSearch(t *testing.T) {
	g := NewGridSearch([]string{"x", "y"}, [][]float64{Linspace(-2, 2, 9), Linspace(0, 3, 4)})

	calls := 0
	best, val, err := g.Search(context.Background(), func(_ context.Context, p map[string]float64) (float64, error) {
		calls++
		return math.Pow(p["x"]-0.5, 2) + math.Pow(p["y"]-2, 2), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 36, calls)
	assert.Equal(t, map[string]float64{"x": 0.5, "y": 2}, best)
	assert.Equal(t, 0.0, val)
}

func TestGridSearch_Errors(t *testing.T) {
	boom := errors.New("boom")
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	_, _, err := g.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	_, _, err = NewGridSearch([]string{"x"}, [][]float64{{}}).Search(context.Background(),
		func(context.Context, map[string]float64) (float64, error) { return 0, nil })
	assert.Error(t, err)

	_, _, err = NewGridSearch([]string{"x", "y"}, [][]float64{{1}}).Search(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = g.Search(ctx, func(context.Context, map[string]float64) (float64, error) { return 0, nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{1, 1.5, 2}, Linspace(1, 2, 3))
	assert.Equal(t, []float64{4}, Linspace(4, 9, 1))
}

func TestEquilibriumLatticeConstant_Copper(t *testing.T) {
	eq, err := EquilibriumLatticeConstant(context.Background(), "Cu", physics.NewReferenceEMT())
	require.NoError(t, err)

	assert.InDelta(t, 3.6, eq.LatticeConstant, 0.05)
	assert.Greater(t, eq.Evaluations, 21)

	// The refined minimum is no higher than the tabulated constant.
	atoms, err := lattice.FCC(lattice.Spec{Symbol: "Cu", Size: [3]int{3, 3, 3}, PBC: [3]bool{true, true, true}})
	require.NoError(t, err)
	ev, err := physics.NewReferenceEMT().Calculate(context.Background(), atoms)
	require.NoError(t, err)
	assert.LessOrEqual(t, eq.EnergyPerAtom, ev.Energy/float64(atoms.Len())+1e-12)
}

func TestEquilibriumLatticeConstant_UnknownElement(t *testing.T) {
	_, err := EquilibriumLatticeConstant(context.Background(), "Xx", physics.NewReferenceEMT())
	assert.ErrorIs(t, err, lattice.ErrUnknownElement)
}
