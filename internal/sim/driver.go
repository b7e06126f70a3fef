package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/lattice"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/thermo"
	"github.com/san-kum/mdsim/internal/traj"
)

// Driver runs one NVE simulation: it builds the crystal, samples velocities,
// integrates for a fixed number of steps and dispatches periodic observers.
type Driver struct {
	cfg        config.Config
	calc       dynamo.Calculator
	integrator dynamo.Integrator

	out        io.Writer
	log        *slog.Logger
	prom       *metrics.RunMetrics
	accountant metrics.Accountant
	metrics    []metrics.Metric
	extra      []Attachment

	phase   Phase
	atoms   *dynamo.Atoms
	seed    int64
	reports []metrics.Report
}

func New(cfg *config.Config, calc dynamo.Calculator, integrator dynamo.Integrator, opts Options) *Driver {
	out := opts.Stdout
	if out == nil {
		out = io.Discard
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Driver{
		cfg:        *cfg,
		calc:       calc,
		integrator: integrator,
		out:        out,
		log:        log,
		prom:       opts.Prom,
		accountant: metrics.NewAccountant(),
	}
}

func (d *Driver) AddMetric(m metrics.Metric) { d.metrics = append(d.metrics, m) }

// AddObserver registers o to run every interval steps, after the trajectory
// writer and the energy printer.
func (d *Driver) AddObserver(interval int, o dynamo.Observer) {
	d.extra = append(d.extra, Attachment{Interval: interval, Observer: o})
}

// AddBaselineObserver is AddObserver, but o also sees step 0 right after the
// baseline report.
func (d *Driver) AddBaselineObserver(interval int, o dynamo.Observer) {
	d.extra = append(d.extra, Attachment{Interval: interval, Observer: o, Baseline: true})
}

func (d *Driver) Phase() Phase         { return d.phase }
func (d *Driver) Atoms() *dynamo.Atoms { return d.atoms }

func (d *Driver) fail(step int, err error) error {
	return &dynamo.SimulationError{Phase: d.phase.String(), Step: step, Wrapped: err}
}

// interrupted reports err at step, unless ctx is done: kernels that notice a
// cancellation first surface it as the run being canceled after steps.
func (d *Driver) interrupted(ctx context.Context, steps, step int, err error) error {
	if ctx.Err() == nil {
		return d.fail(step, err)
	}
	if errors.Is(err, dynamo.ErrContextCanceled) {
		return d.fail(steps, err)
	}
	return d.fail(steps, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()))
}

// Initialize builds the lattice, attaches the calculator and draws
// Maxwell-Boltzmann velocities. A zero seed is replaced by one from the clock.
func (d *Driver) Initialize() error {
	d.phase = PhaseInitializing
	if err := d.cfg.Validate(); err != nil {
		return d.fail(0, err)
	}
	if d.calc == nil {
		return d.fail(0, dynamo.ErrNoCalculator)
	}
	if d.integrator == nil {
		return d.fail(0, fmt.Errorf("%w: no integrator", dynamo.ErrParameterBounds))
	}

	atoms, err := lattice.FCC(lattice.Spec{
		Symbol:          d.cfg.Species,
		Size:            d.cfg.Size,
		LatticeConstant: d.cfg.LatticeConstant,
		PBC:             d.cfg.PBC,
	})
	if err != nil {
		return d.fail(0, err)
	}
	atoms.SetCalculator(d.calc)

	d.seed = d.cfg.Seed
	if d.seed == 0 {
		d.seed = time.Now().UnixNano()
	}
	if err := thermo.MaxwellBoltzmann(atoms, d.cfg.TemperatureK, thermo.NewSource(d.seed)); err != nil {
		return d.fail(0, err)
	}
	if d.cfg.ZeroMomentum {
		thermo.Stationary(atoms)
	}
	if err := atoms.Validate(); err != nil {
		return d.fail(0, err)
	}

	d.atoms = atoms
	d.log.Info("initialized",
		"species", d.cfg.Species,
		"atoms", atoms.Len(),
		"evaluator", d.calc.Name(),
		"integrator", d.integrator.Name(),
		"seed", d.seed,
	)
	return nil
}

// report computes, records and prints the energy report for step.
func (d *Driver) report(ctx context.Context, step int, a *dynamo.Atoms) error {
	r, err := d.accountant.Account(ctx, a)
	if err != nil {
		return err
	}
	r.Step = step
	d.reports = append(d.reports, r)
	for _, m := range d.metrics {
		m.Observe(r)
	}
	if d.prom != nil {
		d.prom.ObserveReport(r)
	}
	_, err = fmt.Fprintln(d.out, r.String())
	return err
}

// Run opens the trajectory, prints the baseline report and integrates
// cfg.Steps steps. Every cfg.Interval steps it appends a frame and then prints
// a report. The trajectory is closed on every return path.
func (d *Driver) Run(ctx context.Context) (res *Result, err error) {
	if d.phase == PhaseNew {
		if err := d.Initialize(); err != nil {
			return nil, err
		}
	}
	if d.phase != PhaseInitializing || d.atoms == nil {
		return nil, fmt.Errorf("%w: driver is %s", dynamo.ErrInvalidState, d.phase)
	}

	start := time.Now()
	d.phase = PhaseRunning
	d.reports = d.reports[:0]
	for _, m := range d.metrics {
		m.Reset()
	}

	w, err := traj.Create(d.cfg.Output, d.atoms, traj.WriterOptions{Dt: d.cfg.TimestepFs * dynamo.Fs})
	if err != nil {
		return nil, d.fail(0, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			res, err = nil, d.fail(d.cfg.Steps, cerr)
		}
	}()

	frames := dynamo.ObserverFunc(func(ctx context.Context, step int, a *dynamo.Atoms) error {
		if err := w.Append(ctx, step, a); err != nil {
			return err
		}
		if d.prom != nil {
			d.prom.IncFrame()
		}
		return nil
	})
	attachments := append([]Attachment{
		{Interval: d.cfg.Interval, Observer: frames},
		{Interval: d.cfg.Interval, Observer: dynamo.ObserverFunc(d.report)},
	}, d.extra...)

	d.log.Info("running", "steps", d.cfg.Steps, "interval", d.cfg.Interval, "trajectory", d.cfg.Output)

	if err := d.report(ctx, 0, d.atoms); err != nil {
		return nil, d.interrupted(ctx, 0, 0, err)
	}
	for _, at := range d.extra {
		if at.Baseline {
			if err := at.Observer.Observe(ctx, 0, d.atoms); err != nil {
				return nil, d.interrupted(ctx, 0, 0, err)
			}
		}
	}
	if pc, ok := d.calc.(interface{ LastPairs() int }); ok {
		d.log.Debug("neighbour list", "pairs", pc.LastPairs(), "per_atom", 2*float64(pc.LastPairs())/float64(d.atoms.Len()))
	}

	steps := 0
	for step := 1; step <= d.cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return nil, d.fail(steps, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err()))
		default:
		}

		if err := d.integrator.Step(ctx, d.atoms); err != nil {
			return nil, d.interrupted(ctx, steps, step, err)
		}
		steps = step
		if d.prom != nil {
			d.prom.IncStep()
		}

		for _, at := range attachments {
			if at.Interval > 0 && step%at.Interval == 0 {
				if err := at.Observer.Observe(ctx, step, d.atoms); err != nil {
					return nil, d.interrupted(ctx, steps, step, err)
				}
			}
		}
	}

	d.phase = PhaseFinished
	res = &Result{
		Reports:    append([]metrics.Report(nil), d.reports...),
		Frames:     w.Frames(),
		StepsTaken: steps,
		Seed:       d.seed,
		Trajectory: d.cfg.Output,
		Elapsed:    time.Since(start),
		Metrics:    make(map[string]float64, len(d.metrics)),
	}
	for _, m := range d.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	d.log.Info("finished", "steps", res.StepsTaken, "frames", res.Frames, "elapsed", res.Elapsed)
	return res, nil
}
