package physics

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/mdsim/internal/compute"
	"github.com/san-kum/mdsim/internal/dynamo"
)

// EMT evaluates the Effective Medium Theory potential.
type EMT struct {
	name     string
	backend  compute.Backend
	binned   bool
	cut      cutoff
	elements map[string]*element

	lastPairs int
}

// NewEMT returns the fast evaluator: binned neighbour search and kernels
// spread over all CPUs.
func NewEMT() *EMT {
	return newEMT("emt", compute.NewCPUBackend(), true)
}

// NewReferenceEMT returns the serial brute-force evaluator.
func NewReferenceEMT() *EMT {
	return newEMT("emt-reference", compute.NewSerialBackend(), false)
}

func newEMT(name string, b compute.Backend, binned bool) *EMT {
	return &EMT{
		name:     name,
		backend:  b,
		binned:   binned,
		cut:      newCutoff(),
		elements: make(map[string]*element),
	}
}

func (e *EMT) Name() string { return e.name }

// Cutoff returns the neighbour list radius in Å.
func (e *EMT) Cutoff() float64 { return e.cut.list }

// LastPairs returns the pair count of the most recent evaluation.
func (e *EMT) LastPairs() int { return e.lastPairs }

func (e *EMT) params(symbols []string) ([]*element, error) {
	out := make([]*element, len(symbols))
	for i, s := range symbols {
		el, ok := e.elements[s]
		if !ok {
			var err error
			el, err = newElement(s, e.cut)
			if err != nil {
				return nil, err
			}
			e.elements[s] = el
		}
		out[i] = el
	}
	return out, nil
}

func (e *EMT) Calculate(ctx context.Context, a *dynamo.Atoms) (*dynamo.Evaluation, error) {
	n := a.Len()
	if n == 0 {
		return nil, dynamo.ErrNoAtoms
	}
	if len(a.Symbols) != n {
		return nil, fmt.Errorf("%w: %d symbols for %d atoms", dynamo.ErrDimensionMismatch, len(a.Symbols), n)
	}
	par, err := e.params(a.Symbols)
	if err != nil {
		return nil, err
	}

	nl, err := BuildNeighbors(ctx, e.backend, a, e.cut.list, e.binned)
	if err != nil {
		return nil, err
	}
	e.lastPairs = nl.Pairs()

	sigma1 := make([]float64, n)
	deds := make([]float64, n)
	energies := make([]float64, n)
	forces := make([]r3.Vec, n)

	// Pair repulsion and neutral sphere densities, then the embedding energy.
	err = e.backend.ParallelFor(ctx, n, func(start, end int) error {
		for i := start; i < end; i++ {
			pi := par[i]
			for _, nb := range nl[i] {
				pj := par[nb.J]
				ksi := pj.n0 / pi.n0
				theta, x := e.cut.theta(nb.R)

				y1 := 0.5 * pi.v0 * math.Exp(-pj.kappa*(nb.R/beta-pj.s0)) * ksi / pi.gamma2 * theta
				y2 := 0.5 * pj.v0 * math.Exp(-pi.kappa*(nb.R/beta-pi.s0)) / ksi / pj.gamma2 * theta
				energies[i] -= (y1 + y2) / 2

				f := ((y1*pj.kappa+y2*pi.kappa)/beta + (y1+y2)*e.cut.acut*theta*x) / nb.R
				forces[i] = r3.Add(forces[i], r3.Scale(f, nb.D))

				sigma1[i] += math.Exp(-pj.eta2*(nb.R-beta*pj.s0)) * ksi * theta / pi.gamma1
			}

			if sigma1[i] <= 0 {
				// Isolated atom: no embedding, energy of the free atom.
				energies[i] -= pi.e0
				continue
			}
			ds := -math.Log(sigma1[i]/12) / (beta * pi.eta2)
			x := pi.lambda * ds
			y := math.Exp(-x)
			z := 6 * pi.v0 * math.Exp(-pi.kappa*ds)
			deds[i] = (x*y*pi.e0*pi.lambda + pi.kappa*z) / (sigma1[i] * beta * pi.eta2)
			energies[i] += pi.e0*((1+x)*y-1) + z
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Forces from the density dependence of the embedding energy.
	err = e.backend.ParallelFor(ctx, n, func(start, end int) error {
		for i := start; i < end; i++ {
			pi := par[i]
			for _, nb := range nl[i] {
				pj := par[nb.J]
				ksi := pj.n0 / pi.n0
				theta, x := e.cut.theta(nb.R)

				y1 := math.Exp(-pj.eta2*(nb.R-beta*pj.s0)) * ksi / pi.gamma1 * theta * deds[i]
				y2 := math.Exp(-pi.eta2*(nb.R-beta*pi.s0)) / ksi / pj.gamma1 * theta * deds[nb.J]

				f := ((y1*pj.eta2 + y2*pi.eta2) + (y1+y2)*e.cut.acut*theta*x) / nb.R
				forces[i] = r3.Sub(forces[i], r3.Scale(f, nb.D))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := floats.Sum(energies)
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: %s energy %g", dynamo.ErrInvalidState, e.name, total)
	}
	return &dynamo.Evaluation{Energy: total, Energies: energies, Forces: forces}, nil
}
