package dynamo

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Atoms is an ordered atomic configuration in an orthorhombic cell.
type Atoms struct {
	Symbols    []string
	Positions  []r3.Vec
	Velocities []r3.Vec
	Masses     []float64
	Cell       r3.Vec
	PBC        [3]bool

	calc  Calculator
	cache *Evaluation
}

// Evaluation is the output of one Calculator call.
type Evaluation struct {
	Energy   float64
	Energies []float64
	Forces   []r3.Vec
}

type Calculator interface {
	Name() string
	Calculate(ctx context.Context, a *Atoms) (*Evaluation, error)
}

type Integrator interface {
	Name() string
	Step(ctx context.Context, a *Atoms) error
}

// Observer is invoked by the driver every Interval steps. Observers must not
// mutate the atoms.
type Observer interface {
	Observe(ctx context.Context, step int, a *Atoms) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, step int, a *Atoms) error

func (f ObserverFunc) Observe(ctx context.Context, step int, a *Atoms) error {
	return f(ctx, step, a)
}

func (a *Atoms) Len() int { return len(a.Positions) }

func (a *Atoms) Validate() error {
	n := len(a.Positions)
	if len(a.Velocities) != n || len(a.Masses) != n || len(a.Symbols) != n {
		return fmt.Errorf("%w: %d positions, %d velocities, %d masses, %d symbols",
			ErrDimensionMismatch, n, len(a.Velocities), len(a.Masses), len(a.Symbols))
	}
	for i := range a.Positions {
		if !finite(a.Positions[i]) || !finite(a.Velocities[i]) {
			return fmt.Errorf("%w: atom %d", ErrInvalidState, i)
		}
		if a.Masses[i] <= 0 {
			return fmt.Errorf("%w: atom %d has mass %g", ErrParameterBounds, i, a.Masses[i])
		}
	}
	return nil
}

// Clone deep-copies the configuration. The calculator is shared, the cache is not.
func (a *Atoms) Clone() *Atoms {
	c := &Atoms{
		Symbols:    append([]string(nil), a.Symbols...),
		Positions:  append([]r3.Vec(nil), a.Positions...),
		Velocities: append([]r3.Vec(nil), a.Velocities...),
		Masses:     append([]float64(nil), a.Masses...),
		Cell:       a.Cell,
		PBC:        a.PBC,
		calc:       a.calc,
	}
	return c
}

func (a *Atoms) SetCalculator(c Calculator) {
	a.calc = c
	a.cache = nil
}

func (a *Atoms) Calculator() Calculator { return a.calc }

// Invalidate drops the cached evaluation. Call it after moving atoms.
func (a *Atoms) Invalidate() { a.cache = nil }

// Evaluate returns the cached evaluation, computing it when stale.
func (a *Atoms) Evaluate(ctx context.Context) (*Evaluation, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	if a.calc == nil {
		return nil, ErrNoCalculator
	}
	ev, err := a.calc.Calculate(ctx, a)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(ev.Energy) || math.IsInf(ev.Energy, 0) {
		return nil, fmt.Errorf("%w: %s energy %g", ErrInvalidState, a.calc.Name(), ev.Energy)
	}
	a.cache = ev
	return ev, nil
}

func (a *Atoms) PotentialEnergy(ctx context.Context) (float64, error) {
	ev, err := a.Evaluate(ctx)
	if err != nil {
		return 0, err
	}
	return ev.Energy, nil
}

func (a *Atoms) Forces(ctx context.Context) ([]r3.Vec, error) {
	ev, err := a.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	return ev.Forces, nil
}

// KineticEnergy returns Σ ½·m·v².
func (a *Atoms) KineticEnergy() float64 {
	ke := 0.0
	for i, v := range a.Velocities {
		ke += 0.5 * a.Masses[i] * r3.Norm2(v)
	}
	return ke
}

// Momentum returns the total linear momentum.
func (a *Atoms) Momentum() r3.Vec {
	var p r3.Vec
	for i, v := range a.Velocities {
		p = r3.Add(p, r3.Scale(a.Masses[i], v))
	}
	return p
}

func (a *Atoms) TotalMass() float64 {
	m := 0.0
	for _, mi := range a.Masses {
		m += mi
	}
	return m
}

// Wrapped returns the positions folded into the cell along periodic axes.
func (a *Atoms) Wrapped() []r3.Vec {
	out := make([]r3.Vec, len(a.Positions))
	for i, p := range a.Positions {
		if a.PBC[0] {
			p.X = wrap(p.X, a.Cell.X)
		}
		if a.PBC[1] {
			p.Y = wrap(p.Y, a.Cell.Y)
		}
		if a.PBC[2] {
			p.Z = wrap(p.Z, a.Cell.Z)
		}
		out[i] = p
	}
	return out
}

func wrap(x, l float64) float64 {
	x = math.Mod(x, l)
	if x < 0 {
		x += l
	}
	if x >= l {
		x = 0
	}
	return x
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
