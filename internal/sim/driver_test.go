package sim_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/integrators"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/physics"
	"github.com/san-kum/mdsim/internal/sim"
	"github.com/san-kum/mdsim/internal/traj"
)

const reportPattern = `^Energy per atom: Epot =[ -]\d+\.\d{3}eV  Ekin = \d+\.\d{3}eV \(T=[ \d]{2}\d+K\) Etot = -?\d+\.\d{3}eV$`

func smallConfig(dir string, seed int64) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Size = [3]int{2, 2, 2}
	cfg.Steps = 20
	cfg.Interval = 5
	cfg.Seed = seed
	cfg.Evaluator = "emt-reference"
	cfg.Output = filepath.Join(dir, "cu.traj")
	return cfg
}

func newDriver(cfg *config.Config, calc dynamo.Calculator, out *bytes.Buffer) *sim.Driver {
	integ, err := integrators.NewVelocityVerlet(cfg.TimestepFs * dynamo.Fs)
	Expect(err).NotTo(HaveOccurred())
	return sim.New(cfg, calc, integ, sim.Options{
		Stdout: out,
		Logger: slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
	})
}

// cancelingCalculator cancels the run on its nth evaluation and then lets the
// wrapped calculator see the canceled context.
type cancelingCalculator struct {
	dynamo.Calculator
	cancel context.CancelFunc
	n      int
	calls  int
}

func (c *cancelingCalculator) Calculate(ctx context.Context, a *dynamo.Atoms) (*dynamo.Evaluation, error) {
	c.calls++
	if c.calls == c.n {
		c.cancel()
	}
	return c.Calculator.Calculate(ctx, a)
}

func lines(out *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

var _ = Describe("Driver", func() {
	var (
		dir string
		out *bytes.Buffer
		ctx context.Context
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		ctx = context.Background()
	})

	It("prints a baseline report and one report per frame", func() {
		cfg := smallConfig(dir, 7)
		d := newDriver(cfg, physics.NewReferenceEMT(), out)
		Expect(d.Phase()).To(Equal(sim.PhaseNew))

		res, err := d.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Phase()).To(Equal(sim.PhaseFinished))

		Expect(res.Reports).To(HaveLen(5))
		Expect(res.Frames).To(Equal(4))
		Expect(res.StepsTaken).To(Equal(20))
		Expect(res.Seed).To(Equal(int64(7)))
		Expect(res.Trajectory).To(Equal(cfg.Output))
		for i, r := range res.Reports {
			Expect(r.Step).To(Equal(5 * i))
			Expect(r.TotalPerAtom).To(BeNumerically("~", r.PotentialPerAtom+r.KineticPerAtom, 1e-12))
		}

		printed := lines(out)
		Expect(printed).To(HaveLen(5))
		for _, l := range printed {
			Expect(l).To(MatchRegexp(reportPattern))
		}

		n, err := traj.CountFrames(cfg.Output)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(4))
	})

	It("draws a seed from the clock when none is configured", func() {
		d := newDriver(smallConfig(dir, 0), physics.NewReferenceEMT(), out)
		res, err := d.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Seed).NotTo(BeZero())
	})

	It("starts different seeds from the same lattice with different velocities", func() {
		cfgA := smallConfig(dir, 1)
		cfgB := smallConfig(dir, 2)
		cfgB.Output = filepath.Join(dir, "b.traj")

		a := newDriver(cfgA, physics.NewReferenceEMT(), &bytes.Buffer{})
		b := newDriver(cfgB, physics.NewReferenceEMT(), &bytes.Buffer{})
		Expect(a.Initialize()).To(Succeed())
		Expect(b.Initialize()).To(Succeed())
		Expect(a.Atoms().Positions).To(Equal(b.Atoms().Positions))
		Expect(a.Atoms().Velocities).NotTo(Equal(b.Atoms().Velocities))

		resA, err := a.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		resB, err := b.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(resA.Reports).NotTo(Equal(resB.Reports))
	})

	It("repeats a run exactly for a fixed seed", func() {
		first, err := newDriver(smallConfig(dir, 5), physics.NewReferenceEMT(), &bytes.Buffer{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		second, err := newDriver(smallConfig(dir, 5), physics.NewReferenceEMT(), &bytes.Buffer{}).Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Reports).To(Equal(second.Reports))
	})

	It("calls extra observers after the printer at their own interval", func() {
		cfg := smallConfig(dir, 3)
		d := newDriver(cfg, physics.NewReferenceEMT(), out)

		var steps []int
		var printedBefore []int
		d.AddObserver(10, dynamo.ObserverFunc(func(_ context.Context, step int, _ *dynamo.Atoms) error {
			steps = append(steps, step)
			printedBefore = append(printedBefore, len(lines(out)))
			return nil
		}))

		_, err := d.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(steps).To(Equal([]int{10, 20}))
		Expect(printedBefore).To(Equal([]int{3, 5}))
	})

	It("feeds metrics and prometheus gauges", func() {
		cfg := smallConfig(dir, 4)
		prom := metrics.NewRunMetrics(nil)
		integ, err := integrators.NewVelocityVerlet(cfg.TimestepFs * dynamo.Fs)
		Expect(err).NotTo(HaveOccurred())
		d := sim.New(cfg, physics.NewReferenceEMT(), integ, sim.Options{Prom: prom})
		for _, m := range metrics.DefaultMetrics() {
			d.AddMetric(m)
		}

		res, err := d.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(HaveKey("energy_drift"))
		Expect(res.Metrics).To(HaveKey("mean_temperature"))
		Expect(res.Metrics["mean_temperature"]).To(BeNumerically(">", 0))

		path := filepath.Join(dir, "metrics.prom")
		Expect(prom.WriteTextfile(path)).To(Succeed())
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("mdsim_steps_total 20"))
		Expect(string(data)).To(ContainSubstring("mdsim_trajectory_frames_total 4"))
		Expect(string(data)).To(ContainSubstring("mdsim_energy_reports_total 5"))
	})

	It("wraps observer failures and keeps the frames written so far", func() {
		cfg := smallConfig(dir, 9)
		d := newDriver(cfg, physics.NewReferenceEMT(), out)
		boom := errors.New("boom")
		d.AddObserver(10, dynamo.ObserverFunc(func(context.Context, int, *dynamo.Atoms) error {
			return boom
		}))

		_, err := d.Run(ctx)
		Expect(err).To(MatchError(boom))
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Step).To(Equal(10))
		Expect(simErr.Phase).To(Equal("running"))

		n, err := traj.CountFrames(cfg.Output)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("stops when the context is canceled", func() {
		cfg := smallConfig(dir, 9)
		d := newDriver(cfg, physics.NewReferenceEMT(), out)
		cctx, cancel := context.WithCancel(ctx)
		d.AddObserver(5, dynamo.ObserverFunc(func(_ context.Context, step int, _ *dynamo.Atoms) error {
			if step == 5 {
				cancel()
			}
			return nil
		}))

		_, err := d.Run(cctx)
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())

		n, err := traj.CountFrames(cfg.Output)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("reports a cancellation noticed inside a force evaluation as canceled", func() {
		cfg := smallConfig(dir, 9)
		cctx, cancel := context.WithCancel(ctx)
		calc := &cancelingCalculator{Calculator: physics.NewReferenceEMT(), cancel: cancel, n: 4}
		d := newDriver(cfg, calc, out)

		_, err := d.Run(cctx)
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Phase).To(Equal("running"))
		Expect(simErr.Step).To(BeNumerically("<", cfg.Steps))
	})

	It("shows the baseline to observers that ask for it", func() {
		cfg := smallConfig(dir, 4)
		d := newDriver(cfg, physics.NewReferenceEMT(), out)
		var baseline, plain []int
		d.AddBaselineObserver(10, dynamo.ObserverFunc(func(_ context.Context, step int, _ *dynamo.Atoms) error {
			baseline = append(baseline, step)
			return nil
		}))
		d.AddObserver(10, dynamo.ObserverFunc(func(_ context.Context, step int, _ *dynamo.Atoms) error {
			plain = append(plain, step)
			return nil
		}))

		res, err := d.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(baseline).To(Equal([]int{0, 10, 20}))
		Expect(plain).To(Equal([]int{10, 20}))
		Expect(res.Frames).To(Equal(4))
	})

	It("rejects invalid configurations before touching the output", func() {
		cfg := smallConfig(dir, 1)
		cfg.Steps = 0
		d := newDriver(cfg, physics.NewReferenceEMT(), out)

		_, err := d.Run(ctx)
		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Phase).To(Equal("initializing"))
		Expect(cfg.Output).NotTo(BeAnExistingFile())
	})

	It("rejects a driver without calculator", func() {
		d := newDriver(smallConfig(dir, 1), nil, out)
		Expect(d.Initialize()).To(MatchError(dynamo.ErrNoCalculator))
	})

	It("runs the default copper system end to end", func() {
		if testing.Short() {
			Skip("4000-atom run skipped in short mode")
		}
		cfg := config.DefaultConfig()
		cfg.Seed = 12
		cfg.Output = filepath.Join(dir, "cu.traj")
		d := newDriver(cfg, physics.NewEMT(), out)

		res, err := d.Run(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Reports).To(HaveLen(51))
		Expect(res.Frames).To(Equal(50))
		Expect(lines(out)).To(HaveLen(51))

		info, err := os.Stat(cfg.Output)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(BeNumerically(">", 0))
		n, err := traj.CountFrames(cfg.Output)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(50))

		base := res.Reports[0]
		Expect(base.PotentialPerAtom).To(BeNumerically("<", 0))
		Expect(base.KineticPerAtom).To(BeNumerically(">", 0))
		Expect(base.Temperature).To(BeNumerically("~", 300, 15))
		Expect(res.Final().TotalPerAtom).To(BeNumerically("~", base.TotalPerAtom, 1e-3))
	})
})

var _ = Describe("Ensemble", func() {
	It("runs members with consecutive seeds into separate files", func() {
		dir := GinkgoT().TempDir()
		cfg := smallConfig(dir, 0)

		build := func(c *config.Config) (*sim.Driver, error) {
			integ, err := integrators.NewVelocityVerlet(c.TimestepFs * dynamo.Fs)
			if err != nil {
				return nil, err
			}
			return sim.New(c, physics.NewReferenceEMT(), integ, sim.Options{}), nil
		}

		results, err := sim.NewEnsemble(cfg, build, 3, 100).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for i, res := range results {
			Expect(res.Seed).To(Equal(int64(100 + i)))
			Expect(res.Trajectory).To(Equal(sim.MemberOutput(cfg.Output, res.Seed)))
			Expect(res.Trajectory).To(BeAnExistingFile())
			Expect(res.Frames).To(Equal(4))
		}
		Expect(results[0].Reports).NotTo(Equal(results[1].Reports))
	})

	It("names member outputs after their seed", func() {
		Expect(sim.MemberOutput("runs/cu.traj", 7)).To(Equal("runs/cu-seed7.traj"))
		Expect(sim.MemberOutput("cu", 2)).To(Equal("cu-seed2"))
	})

	It("rejects empty ensembles and seed ranges that include zero", func() {
		cfg := smallConfig(GinkgoT().TempDir(), 0)
		_, err := sim.NewEnsemble(cfg, nil, 0, 1).Run(context.Background())
		Expect(err).To(HaveOccurred())
		_, err = sim.NewEnsemble(cfg, nil, 2, 0).Run(context.Background())
		Expect(err).To(HaveOccurred())
		_, err = sim.NewEnsemble(cfg, nil, 3, -2).Run(context.Background())
		Expect(err).To(MatchError(ContainSubstring("-2..0")))
		Expect(cfg.Output).NotTo(BeAnExistingFile())
	})

	It("accepts a negative seed range that stops short of zero", func() {
		dir := GinkgoT().TempDir()
		cfg := smallConfig(dir, 0)
		cfg.Steps = 5
		build := func(c *config.Config) (*sim.Driver, error) {
			integ, err := integrators.NewVelocityVerlet(c.TimestepFs * dynamo.Fs)
			if err != nil {
				return nil, err
			}
			return sim.New(c, physics.NewReferenceEMT(), integ, sim.Options{}), nil
		}

		results, err := sim.NewEnsemble(cfg, build, 2, -3).Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Seed).To(Equal(int64(-3)))
		Expect(results[1].Seed).To(Equal(int64(-2)))
	})
})
