package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/sim"
)

// Experiment wires a configuration to a driver through the registry.
type Experiment struct {
	cfg      *config.Config
	registry *Registry
	driver   *sim.Driver
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, registry: NewRegistry()}
}

// Setup resolves the evaluator and integrator and creates the driver with the
// default metrics attached.
func (e *Experiment) Setup(opts sim.Options) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	calc, err := e.registry.GetPotential(e.cfg.Evaluator)
	if err != nil {
		return err
	}
	integ, err := e.registry.GetIntegrator(DefaultIntegrator, e.cfg.TimestepFs*dynamo.Fs)
	if err != nil {
		return err
	}

	e.driver = sim.New(e.cfg, calc, integ, opts)
	for _, m := range e.registry.DefaultMetrics() {
		e.driver.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.driver.Run(ctx)
}

// GetDriver returns the underlying driver for adding observers
func (e *Experiment) GetDriver() *sim.Driver {
	return e.driver
}

// Factory returns a sim.Factory that sets up a fresh experiment per member.
func Factory(opts sim.Options) sim.Factory {
	return func(cfg *config.Config) (*sim.Driver, error) {
		e := New(cfg)
		if err := e.Setup(opts); err != nil {
			return nil, err
		}
		return e.GetDriver(), nil
	}
}
