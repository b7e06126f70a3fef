package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/integrators"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/physics"
)

const DefaultIntegrator = "velocity-verlet"

// Registry maps configuration names to fresh calculators and integrators.
type Registry struct {
	potentials  map[string]func() dynamo.Calculator
	integrators map[string]func(dt float64) (dynamo.Integrator, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		potentials:  make(map[string]func() dynamo.Calculator),
		integrators: make(map[string]func(float64) (dynamo.Integrator, error)),
	}

	r.potentials["emt"] = func() dynamo.Calculator { return physics.NewEMT() }
	r.potentials["emt-reference"] = func() dynamo.Calculator { return physics.NewReferenceEMT() }

	r.integrators[DefaultIntegrator] = func(dt float64) (dynamo.Integrator, error) {
		return integrators.NewVelocityVerlet(dt)
	}

	return r
}

// GetPotential returns a new calculator; calculators keep per-run caches and
// must not be shared between concurrent runs.
func (r *Registry) GetPotential(name string) (dynamo.Calculator, error) {
	fn, ok := r.potentials[name]
	if !ok {
		return nil, fmt.Errorf("unknown potential: %s", name)
	}
	return fn(), nil
}

// GetIntegrator returns the named integrator with timestep dt in internal
// time units.
func (r *Registry) GetIntegrator(name string, dt float64) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(dt)
}

func (r *Registry) ListPotentials() []string {
	names := make([]string, 0, len(r.potentials))
	for name := range r.potentials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []metrics.Metric {
	return metrics.DefaultMetrics()
}
