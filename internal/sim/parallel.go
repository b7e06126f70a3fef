package sim

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/mdsim/internal/config"
)

// Factory builds an independent driver for one ensemble member. Each call must
// return its own calculator; calculators are not shared between runs.
type Factory func(cfg *config.Config) (*Driver, error)

// Ensemble runs the same configuration with consecutive seeds concurrently.
type Ensemble struct {
	cfg       config.Config
	build     Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(cfg *config.Config, build Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{cfg: *cfg, build: build, numRuns: numRuns, seedStart: seedStart}
}

// MemberOutput returns the trajectory path of the member with the given seed.
func MemberOutput(output string, seed int64) string {
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s-seed%d%s", strings.TrimSuffix(output, ext), seed, ext)
}

// Run returns one result per member in seed order. The first failure cancels
// the remaining members.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("ensemble: need at least one run, got %d", e.numRuns)
	}
	// Seed 0 would silently fall back to a clock seed.
	if last := e.seedStart + int64(e.numRuns) - 1; e.seedStart <= 0 && last >= 0 {
		return nil, fmt.Errorf("ensemble: seeds %d..%d include 0", e.seedStart, last)
	}

	results := make([]*Result, e.numRuns)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		i := i
		cfg := e.cfg
		cfg.Seed = e.seedStart + int64(i)
		cfg.Output = MemberOutput(e.cfg.Output, cfg.Seed)

		g.Go(func() error {
			d, err := e.build(&cfg)
			if err != nil {
				return err
			}
			res, err := d.Run(ctx)
			if err != nil {
				return fmt.Errorf("ensemble seed %d: %w", cfg.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
