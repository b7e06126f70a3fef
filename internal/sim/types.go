package sim

import (
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/mdsim/internal/dynamo"
	"github.com/san-kum/mdsim/internal/metrics"
)

// Phase is the lifecycle state of a Driver.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseInitializing
	PhaseRunning
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseInitializing:
		return "initializing"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Attachment calls Observer after every step divisible by Interval, and at
// step 0 when Baseline is set.
type Attachment struct {
	Interval int
	Observer dynamo.Observer
	Baseline bool
}

type Options struct {
	// Stdout receives one energy line per report. Nil discards them.
	Stdout io.Writer
	Logger *slog.Logger
	// Prom, when set, is updated with every report, step and frame.
	Prom *metrics.RunMetrics
}

type Result struct {
	Reports    []metrics.Report
	Frames     int
	StepsTaken int
	Seed       int64
	Trajectory string
	Elapsed    time.Duration
	Metrics    map[string]float64
}

// Final returns the last report, or the zero report when there is none.
func (r *Result) Final() metrics.Report {
	if len(r.Reports) == 0 {
		return metrics.Report{}
	}
	return r.Reports[len(r.Reports)-1]
}
