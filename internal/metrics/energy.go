package metrics

import "math"

// Metric aggregates energy reports over a run.
type Metric interface {
	Name() string
	Observe(r Report)
	Value() float64
	Reset()
}

// EnergyDrift tracks the largest relative deviation of the total energy per
// atom from the first observed report.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(r Report) {
	if e.samples == 0 {
		e.initialEnergy = r.TotalPerAtom
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(r.TotalPerAtom-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

type MeanTemperature struct {
	name    string
	sum     float64
	samples int
}

func NewMeanTemperature() *MeanTemperature {
	return &MeanTemperature{name: "mean_temperature"}
}

func (m *MeanTemperature) Name() string { return m.name }

func (m *MeanTemperature) Observe(r Report) {
	m.sum += r.Temperature
	m.samples++
}

func (m *MeanTemperature) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanTemperature) Reset() {
	m.sum = 0
	m.samples = 0
}

// DefaultMetrics returns the metrics every run records.
func DefaultMetrics() []Metric {
	return []Metric{NewEnergyDrift(), NewMeanTemperature()}
}
