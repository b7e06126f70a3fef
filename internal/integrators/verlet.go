// Package integrators advances atomic configurations in time.
package integrators

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mdsim/internal/dynamo"
)

// VelocityVerlet integrates Newton's equations at constant energy.
//
// Forces of the current positions come from the calculator cache, so after
// the first step every step costs one force evaluation.
type VelocityVerlet struct {
	Dt float64
}

func NewVelocityVerlet(dt float64) (*VelocityVerlet, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: timestep %g", dynamo.ErrParameterBounds, dt)
	}
	return &VelocityVerlet{Dt: dt}, nil
}

func (v *VelocityVerlet) Name() string { return "velocity-verlet" }

func (v *VelocityVerlet) Step(ctx context.Context, a *dynamo.Atoms) error {
	forces, err := a.Forces(ctx)
	if err != nil {
		return err
	}
	halfDt := 0.5 * v.Dt

	for i := range a.Positions {
		a.Velocities[i] = r3.Add(a.Velocities[i], r3.Scale(halfDt/a.Masses[i], forces[i]))
		a.Positions[i] = r3.Add(a.Positions[i], r3.Scale(v.Dt, a.Velocities[i]))
	}
	a.Invalidate()

	forces, err = a.Forces(ctx)
	if err != nil {
		return err
	}
	for i := range a.Velocities {
		a.Velocities[i] = r3.Add(a.Velocities[i], r3.Scale(halfDt/a.Masses[i], forces[i]))
	}
	return nil
}
