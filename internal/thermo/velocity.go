// Package thermo sets and measures thermal velocities.
package thermo

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/mdsim/internal/dynamo"
)

// NewSource returns a seeded random source for the samplers.
func NewSource(seed int64) rand.Source {
	return rand.NewSource(uint64(seed))
}

// MaxwellBoltzmann draws every momentum component from a normal distribution
// with variance m·kB·T and stores the resulting velocities. The sampled
// temperature fluctuates around temperatureK with relative spread ~sqrt(2/3N).
func MaxwellBoltzmann(a *dynamo.Atoms, temperatureK float64, src rand.Source) error {
	if temperatureK < 0 || math.IsNaN(temperatureK) {
		return fmt.Errorf("%w: temperature %g K", dynamo.ErrParameterBounds, temperatureK)
	}
	if len(a.Velocities) != len(a.Masses) {
		return fmt.Errorf("%w: %d velocities, %d masses", dynamo.ErrDimensionMismatch, len(a.Velocities), len(a.Masses))
	}

	xi := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	kT := dynamo.KB * temperatureK
	for i, m := range a.Masses {
		// p = ξ·sqrt(m·kT), v = p/m
		scale := math.Sqrt(m*kT) / m
		a.Velocities[i] = r3.Vec{
			X: xi.Rand() * scale,
			Y: xi.Rand() * scale,
			Z: xi.Rand() * scale,
		}
	}
	return nil
}

// Stationary removes the centre-of-mass velocity.
func Stationary(a *dynamo.Atoms) {
	total := a.TotalMass()
	if total == 0 {
		return
	}
	vcm := r3.Scale(1/total, a.Momentum())
	for i := range a.Velocities {
		a.Velocities[i] = r3.Sub(a.Velocities[i], vcm)
	}
}

// Temperature returns the instantaneous temperature assuming three degrees
// of freedom per atom.
func Temperature(a *dynamo.Atoms) float64 {
	n := a.Len()
	if n == 0 {
		return 0
	}
	return a.KineticEnergy() / (1.5 * float64(n) * dynamo.KB)
}
