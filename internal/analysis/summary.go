package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/mdsim/internal/metrics"
)

type Summary struct {
	Reports         int
	MeanTemperature float64
	StdTemperature  float64
	MeanTotal       float64
	StdTotal        float64
	// MaxDrift is the largest |Etot - Etot(0)| per atom in eV.
	MaxDrift float64
	// KineticPeriod is the dominant period of the kinetic energy in fs, 0 if
	// none is resolved.
	KineticPeriod float64
}

// Summarize reduces a report series sampled every sampleFs femtoseconds.
func Summarize(reports []metrics.Report, sampleFs float64) (Summary, error) {
	if len(reports) < 2 {
		return Summary{}, fmt.Errorf("analysis: need at least 2 reports, got %d", len(reports))
	}
	if sampleFs <= 0 {
		return Summary{}, fmt.Errorf("analysis: sample spacing must be positive, got %g", sampleFs)
	}

	n := len(reports)
	temps := make([]float64, n)
	totals := make([]float64, n)
	kinetic := make([]float64, n)
	s := Summary{Reports: n}
	for i, r := range reports {
		temps[i] = r.Temperature
		totals[i] = r.TotalPerAtom
		kinetic[i] = r.KineticPerAtom
		s.MaxDrift = math.Max(s.MaxDrift, math.Abs(r.TotalPerAtom-reports[0].TotalPerAtom))
	}

	s.MeanTemperature, s.StdTemperature = stat.MeanStdDev(temps, nil)
	s.MeanTotal, s.StdTotal = stat.MeanStdDev(totals, nil)
	s.KineticPeriod = DominantPeriod(kinetic) * sampleFs
	return s, nil
}
