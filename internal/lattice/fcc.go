// Package lattice builds crystal configurations.
package lattice

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mdsim/internal/dynamo"
)

var ErrUnknownElement = errors.New("lattice: unknown element")

// Spec describes a cubic crystal block.
type Spec struct {
	Symbol string
	Size   [3]int
	// LatticeConstant in Å. Zero selects the reference value for Symbol.
	LatticeConstant float64
	PBC             [3]bool
}

var fccBasis = [4]r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 0, Y: 0.5, Z: 0.5},
	{X: 0.5, Y: 0, Z: 0.5},
	{X: 0.5, Y: 0.5, Z: 0},
}

// FCC builds a face-centered cubic block oriented along [100], [010], [001].
// Atoms are ordered by unit cell (i, j, k) and then by basis index; the
// velocities are zero and no calculator is attached.
func FCC(s Spec) (*dynamo.Atoms, error) {
	mass, ok := Mass(s.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, s.Symbol)
	}
	a := s.LatticeConstant
	if a == 0 {
		a, _ = LatticeConstant(s.Symbol)
	}
	if a <= 0 {
		return nil, fmt.Errorf("%w: lattice constant %g", dynamo.ErrParameterBounds, a)
	}
	for axis, n := range s.Size {
		if n < 1 {
			return nil, fmt.Errorf("%w: size[%d] = %d", dynamo.ErrParameterBounds, axis, n)
		}
	}

	n := 4 * s.Size[0] * s.Size[1] * s.Size[2]
	atoms := &dynamo.Atoms{
		Symbols:    make([]string, 0, n),
		Positions:  make([]r3.Vec, 0, n),
		Velocities: make([]r3.Vec, n),
		Masses:     make([]float64, 0, n),
		Cell: r3.Vec{
			X: a * float64(s.Size[0]),
			Y: a * float64(s.Size[1]),
			Z: a * float64(s.Size[2]),
		},
		PBC: s.PBC,
	}

	for i := 0; i < s.Size[0]; i++ {
		for j := 0; j < s.Size[1]; j++ {
			for k := 0; k < s.Size[2]; k++ {
				origin := r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}
				for _, b := range fccBasis {
					atoms.Positions = append(atoms.Positions, r3.Scale(a, r3.Add(origin, b)))
					atoms.Symbols = append(atoms.Symbols, s.Symbol)
					atoms.Masses = append(atoms.Masses, mass)
				}
			}
		}
	}
	return atoms, nil
}
