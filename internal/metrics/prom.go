package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RunMetrics exposes the state of one run as Prometheus collectors on a
// private registry.
type RunMetrics struct {
	Registry *prometheus.Registry

	potential   prometheus.Gauge
	kinetic     prometheus.Gauge
	temperature prometheus.Gauge
	total       prometheus.Gauge
	steps       prometheus.Counter
	frames      prometheus.Counter
	reports     prometheus.Counter
}

func NewRunMetrics(labels prometheus.Labels) *RunMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: "mdsim", Name: name, Help: help, ConstLabels: labels})
	}
	counter := func(name, help string) prometheus.Counter {
		return f.NewCounter(prometheus.CounterOpts{Namespace: "mdsim", Name: name, Help: help, ConstLabels: labels})
	}

	return &RunMetrics{
		Registry:    reg,
		potential:   gauge("potential_energy_per_atom_ev", "Potential energy per atom of the last report."),
		kinetic:     gauge("kinetic_energy_per_atom_ev", "Kinetic energy per atom of the last report."),
		temperature: gauge("temperature_kelvin", "Instantaneous temperature of the last report."),
		total:       gauge("total_energy_per_atom_ev", "Total energy per atom of the last report."),
		steps:       counter("steps_total", "Integrator steps taken."),
		frames:      counter("trajectory_frames_total", "Trajectory frames appended."),
		reports:     counter("energy_reports_total", "Energy reports emitted."),
	}
}

func (m *RunMetrics) ObserveReport(r Report) {
	m.potential.Set(r.PotentialPerAtom)
	m.kinetic.Set(r.KineticPerAtom)
	m.temperature.Set(r.Temperature)
	m.total.Set(r.TotalPerAtom)
	m.reports.Inc()
}

func (m *RunMetrics) IncStep()  { m.steps.Inc() }
func (m *RunMetrics) IncFrame() { m.frames.Inc() }

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
