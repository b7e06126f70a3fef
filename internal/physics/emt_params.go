package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/mdsim/internal/dynamo"
)

var ErrUnknownElement = errors.New("physics: no EMT parameters for element")

// beta is (16π/3)^(1/3)/√2 with its historical rounding.
const beta = 1.809

// Columns: E0 [eV], s0 [bohr], V0 [eV], eta2 [1/bohr], kappa [1/bohr],
// lambda [1/bohr], n0 [1/bohr³].
var emtTable = map[string][7]float64{
	"Al": {-3.28, 3.00, 1.493, 1.240, 2.000, 1.169, 0.00700},
	"Cu": {-3.51, 2.67, 2.476, 1.652, 2.740, 1.906, 0.00910},
	"Ag": {-2.96, 3.01, 2.132, 1.652, 2.790, 1.892, 0.00547},
	"Au": {-3.80, 3.00, 2.321, 1.674, 2.873, 2.182, 0.00703},
	"Ni": {-4.44, 2.60, 3.673, 1.669, 2.757, 1.948, 0.01030},
	"Pd": {-3.90, 2.87, 2.773, 1.818, 3.107, 2.155, 0.00688},
	"Pt": {-5.85, 2.90, 4.067, 1.812, 3.145, 2.192, 0.00802},
}

// element holds the parameters of one species in Å and eV.
type element struct {
	e0, s0, v0     float64
	eta2, kappa    float64
	lambda, n0     float64
	gamma1, gamma2 float64
}

// cutoff is the smooth Fermi cutoff shared by every species.
type cutoff struct {
	rc   float64
	acut float64
	list float64
}

func newCutoff() cutoff {
	maxS0 := 0.0
	for _, p := range emtTable {
		maxS0 = math.Max(maxS0, p[1])
	}
	maxS0 *= dynamo.Bohr

	// Halfway between the third and fourth FCC shells.
	rc := beta * maxS0 * 0.5 * (math.Sqrt(3) + math.Sqrt(4))
	rr := rc * 2 * math.Sqrt(4) / (math.Sqrt(3) + math.Sqrt(4))
	return cutoff{
		rc:   rc,
		acut: math.Log(9999.0) / (rr - rc),
		list: rc + 0.5,
	}
}

func (c cutoff) theta(r float64) (theta, x float64) {
	x = math.Exp(c.acut * (r - c.rc))
	return 1.0 / (1.0 + x), x
}

func newElement(symbol string, c cutoff) (*element, error) {
	p, ok := emtTable[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownElement, symbol)
	}
	el := &element{
		e0:     p[0],
		s0:     p[1] * dynamo.Bohr,
		v0:     p[2],
		eta2:   p[3] / dynamo.Bohr,
		kappa:  p[4] / dynamo.Bohr,
		lambda: p[5] / dynamo.Bohr,
		n0:     p[6] / (dynamo.Bohr * dynamo.Bohr * dynamo.Bohr),
	}

	// Normalize so that the first three shells of the ideal crystal give sigma = 12.
	for i, n := range [3]float64{12, 6, 24} {
		r := el.s0 * beta * math.Sqrt(float64(i+1))
		w := n / (12 * (1.0 + math.Exp(c.acut*(r-c.rc))))
		el.gamma1 += w * math.Exp(-el.eta2*(r-beta*el.s0))
		el.gamma2 += w * math.Exp(-el.kappa/beta*(r-beta*el.s0))
	}
	return el, nil
}
