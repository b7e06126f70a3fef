package experiment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/sim"
)

func TestRegistry_Potentials(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"emt", "emt-reference"} {
		calc, err := r.GetPotential(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if calc.Name() != name {
			t.Errorf("expected %s, got %s", name, calc.Name())
		}
	}

	a, _ := r.GetPotential("emt")
	b, _ := r.GetPotential("emt")
	if a == b {
		t.Error("registry must return a fresh calculator per call")
	}

	if _, err := r.GetPotential("lj"); err == nil {
		t.Error("expected error for unknown potential")
	}

	names := r.ListPotentials()
	if len(names) != 2 || names[0] != "emt" || names[1] != "emt-reference" {
		t.Errorf("unexpected potentials: %v", names)
	}
}

func TestRegistry_Integrators(t *testing.T) {
	r := NewRegistry()

	integ, err := r.GetIntegrator(DefaultIntegrator, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if integ.Name() != DefaultIntegrator {
		t.Errorf("expected %s, got %s", DefaultIntegrator, integ.Name())
	}

	if _, err := r.GetIntegrator(DefaultIntegrator, 0); err == nil {
		t.Error("expected error for zero timestep")
	}
	if _, err := r.GetIntegrator("rk4", 0.1); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestExperiment_Run(t *testing.T) {
	cfg := config.GetPreset("small")
	cfg.Size = [3]int{2, 2, 2}
	cfg.Steps = 20
	cfg.Interval = 5
	cfg.Seed = 3
	cfg.Output = filepath.Join(t.TempDir(), "small.traj")

	e := New(cfg)
	if _, err := e.Run(context.Background()); err == nil {
		t.Error("expected error before setup")
	}
	if err := e.Setup(sim.Options{}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Reports) != 5 || res.Frames != 4 {
		t.Errorf("expected 5 reports and 4 frames, got %d and %d", len(res.Reports), res.Frames)
	}
	if _, ok := res.Metrics["energy_drift"]; !ok {
		t.Error("energy_drift metric missing")
	}
}

func TestExperiment_SetupInvalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Evaluator = "lj"
	if err := New(cfg).Setup(sim.Options{}); err == nil {
		t.Error("expected error for unknown evaluator")
	}
}
