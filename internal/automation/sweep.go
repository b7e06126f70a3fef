package automation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/experiment"
	"github.com/san-kum/mdsim/internal/sim"
)

// ParameterSweep runs the base configuration once per value of Param.
type ParameterSweep struct {
	Base     *config.Config
	Param    string // timestep_fs or temperature_k
	ParamMin float64
	ParamMax float64
	NumSteps int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue      float64
	EnergyDrift     float64
	MeanTemperature float64
	Final           float64
}

func (s *ParameterSweep) apply(cfg *config.Config, v float64) error {
	switch s.Param {
	case "timestep_fs":
		cfg.TimestepFs = v
	case "temperature_k":
		cfg.TemperatureK = v
	default:
		return fmt.Errorf("sweep: unsupported parameter %q", s.Param)
	}
	return nil
}

// RunSweep executes a parameter sweep. Each point writes its trajectory to
// dir/sweep-<i>.traj.
func RunSweep(ctx context.Context, sweep *ParameterSweep, dir string, opts sim.Options) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep: need at least 2 points, got %d", sweep.NumSteps)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := *sweep.Base
		if err := sweep.apply(&cfg, paramVal); err != nil {
			return nil, err
		}
		cfg.Output = filepath.Join(dir, fmt.Sprintf("sweep-%d.traj", i))

		exp := experiment.New(&cfg)
		if err := exp.Setup(opts); err != nil {
			return nil, err
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue:      paramVal,
			EnergyDrift:     result.Metrics["energy_drift"],
			MeanTemperature: result.Metrics["mean_temperature"],
			Final:           result.Final().TotalPerAtom,
		})
		log.Info("sweep point", "index", i+1, "of", sweep.NumSteps, sweep.Param, paramVal)
	}

	return results, nil
}
