// Package metrics turns atomic configurations into energy reports and
// aggregates reports over a run.
package metrics

import (
	"context"
	"fmt"

	"github.com/san-kum/mdsim/internal/dynamo"
)

// Report holds per-atom energies in eV and the instantaneous temperature in K.
type Report struct {
	Step             int     `json:"step"`
	PotentialPerAtom float64 `json:"epot"`
	KineticPerAtom   float64 `json:"ekin"`
	Temperature      float64 `json:"temperature"`
	TotalPerAtom     float64 `json:"etot"`
}

func (r Report) String() string {
	return fmt.Sprintf("Energy per atom: Epot =%6.3feV  Ekin = %.3feV (T=%3.0fK) Etot = %.3feV",
		r.PotentialPerAtom, r.KineticPerAtom, r.Temperature, r.TotalPerAtom)
}

// Accountant computes energy reports. KB must be in the energy unit of the
// attached calculator.
type Accountant struct {
	KB float64
}

func NewAccountant() Accountant {
	return Accountant{KB: dynamo.KB}
}

// Account reads the potential energy from the attached calculator and the
// kinetic energy from the velocities. It does not modify the atoms.
func (ac Accountant) Account(ctx context.Context, a *dynamo.Atoms) (Report, error) {
	n := a.Len()
	if n == 0 {
		return Report{}, dynamo.ErrNoAtoms
	}
	epot, err := a.PotentialEnergy(ctx)
	if err != nil {
		return Report{}, err
	}
	return ac.FromTotals(epot, a.KineticEnergy(), n), nil
}

// FromTotals builds a report from total energies of n atoms.
func (ac Accountant) FromTotals(epot, ekin float64, n int) Report {
	r := Report{
		PotentialPerAtom: epot / float64(n),
		KineticPerAtom:   ekin / float64(n),
	}
	r.Temperature = r.KineticPerAtom / (1.5 * ac.KB)
	r.TotalPerAtom = r.PotentialPerAtom + r.KineticPerAtom
	return r
}
