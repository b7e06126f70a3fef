package optim

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/lattice"
)

// Equilibrium is the static minimum of the energy per atom of a perfect
// crystal with respect to its lattice constant.
type Equilibrium struct {
	LatticeConstant float64
	EnergyPerAtom   float64
	Evaluations     int
}

// EquilibriumLatticeConstant scans lattice constants within ±10% of the
// tabulated value for symbol, then refines the best grid point with
// Nelder-Mead.
func EquilibriumLatticeConstant(ctx context.Context, symbol string, calc dynamo.Calculator) (*Equilibrium, error) {
	a0, ok := lattice.LatticeConstant(symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", lattice.ErrUnknownElement, symbol)
	}

	evals := 0
	energy := func(ctx context.Context, a float64) (float64, error) {
		evals++
		atoms, err := lattice.FCC(lattice.Spec{
			Symbol:          symbol,
			Size:            [3]int{3, 3, 3},
			LatticeConstant: a,
			PBC:             [3]bool{true, true, true},
		})
		if err != nil {
			return 0, err
		}
		ev, err := calc.Calculate(ctx, atoms)
		if err != nil {
			return 0, err
		}
		return ev.Energy / float64(atoms.Len()), nil
	}

	grid := NewGridSearch([]string{"a"}, [][]float64{Linspace(0.9*a0, 1.1*a0, 21)})
	best, _, err := grid.Search(ctx, func(ctx context.Context, p map[string]float64) (float64, error) {
		return energy(ctx, p["a"])
	})
	if err != nil {
		return nil, err
	}

	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			e, err := energy(ctx, x[0])
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return e
		},
	}
	res, err := optimize.Minimize(problem, []float64{best["a"]}, nil, &optimize.NelderMead{SimplexSize: 0.01 * a0})
	if evalErr != nil {
		return nil, evalErr
	}
	if err != nil {
		return nil, fmt.Errorf("optim: %w", err)
	}

	return &Equilibrium{LatticeConstant: res.X[0], EnergyPerAtom: res.F, Evaluations: evals}, nil
}
