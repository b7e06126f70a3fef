package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/lattice"
	"github.com/san-kum/mdsim/internal/physics"
	"github.com/san-kum/mdsim/internal/thermo"
)

// spring pulls every atom towards the origin with stiffness k.
type spring struct{ k float64 }

func (s spring) Name() string { return "spring" }

func (s spring) Calculate(ctx context.Context, a *dynamo.Atoms) (*dynamo.Evaluation, error) {
	ev := &dynamo.Evaluation{Energies: make([]float64, a.Len()), Forces: make([]r3.Vec, a.Len())}
	for i, p := range a.Positions {
		ev.Energies[i] = 0.5 * s.k * r3.Norm2(p)
		ev.Energy += ev.Energies[i]
		ev.Forces[i] = r3.Scale(-s.k, p)
	}
	return ev, nil
}

func TestVerletHarmonicAccuracy(t *testing.T) {
	atoms := &dynamo.Atoms{
		Symbols:    []string{"X"},
		Positions:  []r3.Vec{{X: 1}},
		Velocities: []r3.Vec{{}},
		Masses:     []float64{1},
	}
	atoms.SetCalculator(spring{k: 1})

	integ, err := NewVelocityVerlet(0.01)
	if err != nil {
		t.Fatal(err)
	}

	steps := 100
	for i := 0; i < steps; i++ {
		if err := integ.Step(context.Background(), atoms); err != nil {
			t.Fatal(err)
		}
	}

	expectedX := math.Cos(float64(steps) * 0.01)
	expectedV := -math.Sin(float64(steps) * 0.01)

	if math.Abs(atoms.Positions[0].X-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", atoms.Positions[0].X, expectedX)
	}
	if math.Abs(atoms.Velocities[0].X-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", atoms.Velocities[0].X, expectedV)
	}
}

func TestVerletConservesEnergy(t *testing.T) {
	ctx := context.Background()
	atoms, err := lattice.FCC(lattice.Spec{Symbol: "Cu", Size: [3]int{3, 3, 3}, PBC: [3]bool{true, true, true}})
	if err != nil {
		t.Fatal(err)
	}
	if err := thermo.MaxwellBoltzmann(atoms, 300, thermo.NewSource(3)); err != nil {
		t.Fatal(err)
	}
	atoms.SetCalculator(physics.NewReferenceEMT())

	total := func() float64 {
		epot, err := atoms.PotentialEnergy(ctx)
		if err != nil {
			t.Fatal(err)
		}
		return (epot + atoms.KineticEnergy()) / float64(atoms.Len())
	}

	integ, _ := NewVelocityVerlet(dynamo.Fs)
	e0 := total()
	for i := 0; i < 100; i++ {
		if err := integ.Step(ctx, atoms); err != nil {
			t.Fatal(err)
		}
	}
	e1 := total()

	// Kinetic energy per atom is ~0.039 eV; drift must stay far below that.
	if math.Abs(e1-e0) > 1e-4 {
		t.Errorf("energy drift too large: %.6f -> %.6f", e0, e1)
	}
}

func TestVerletInvalidTimestep(t *testing.T) {
	for _, dt := range []float64{0, -1} {
		if _, err := NewVelocityVerlet(dt); !errors.Is(err, dynamo.ErrParameterBounds) {
			t.Errorf("dt=%g: expected ErrParameterBounds, got %v", dt, err)
		}
	}
}

func TestVerletWithoutCalculator(t *testing.T) {
	atoms := &dynamo.Atoms{Symbols: []string{"Cu"}, Positions: []r3.Vec{{}}, Velocities: []r3.Vec{{}}, Masses: []float64{1}}
	integ, _ := NewVelocityVerlet(1)
	if err := integ.Step(context.Background(), atoms); !errors.Is(err, dynamo.ErrNoCalculator) {
		t.Errorf("expected ErrNoCalculator, got %v", err)
	}
}
