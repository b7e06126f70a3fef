package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/mdsim/internal/config"
	"github.com/san-kum/mdsim/internal/metrics"
	"github.com/san-kum/mdsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	energiesFile = "energies.csv"
	MetricsFile  = "metrics.prom"
)

var energiesHeader = []string{"step", "epot", "ekin", "temperature", "etot"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Config     config.Config      `json:"config"`
	Seed       int64              `json:"seed"`
	Evaluator  string             `json:"evaluator"`
	Steps      int                `json:"steps"`
	Frames     int                `json:"frames"`
	Trajectory string             `json:"trajectory"`
	Elapsed    float64            `json:"elapsed_seconds"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Save writes the metadata and the energy series of a finished run and
// returns its new ID.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := s.RunDir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	traj, err := filepath.Abs(result.Trajectory)
	if err != nil {
		traj = result.Trajectory
	}
	meta := RunMetadata{
		ID:         runID,
		Timestamp:  time.Now(),
		Config:     *cfg,
		Seed:       result.Seed,
		Evaluator:  cfg.Evaluator,
		Steps:      result.StepsTaken,
		Frames:     result.Frames,
		Trajectory: traj,
		Elapsed:    result.Elapsed.Seconds(),
		Metrics:    result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeReports(filepath.Join(runDir, energiesFile), result.Reports); err != nil {
		return "", err
	}
	return runID, nil
}

// SavePrometheus dumps m next to the run's metadata.
func (s *Store) SavePrometheus(runID string, m *metrics.RunMetrics) error {
	return m.WriteTextfile(filepath.Join(s.RunDir(runID), MetricsFile))
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func writeReports(path string, reports []metrics.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(energiesHeader); err != nil {
		return err
	}
	for _, r := range reports {
		row := []string{
			strconv.Itoa(r.Step),
			ftoa(r.PotentialPerAtom),
			ftoa(r.KineticPerAtom),
			ftoa(r.Temperature),
			ftoa(r.TotalPerAtom),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadReports(runID string) ([]metrics.Report, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), energiesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(energiesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []metrics.Report{}, nil
	}

	reports := make([]metrics.Report, 0, len(records)-1)
	for i, rec := range records[1:] {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("run %s: row %d: %w", runID, i+1, err)
		}
		var vals [4]float64
		for k := range vals {
			if vals[k], err = strconv.ParseFloat(rec[k+1], 64); err != nil {
				return nil, fmt.Errorf("run %s: row %d: %w", runID, i+1, err)
			}
		}
		reports = append(reports, metrics.Report{
			Step:             step,
			PotentialPerAtom: vals[0],
			KineticPerAtom:   vals[1],
			Temperature:      vals[2],
			TotalPerAtom:     vals[3],
		})
	}
	return reports, nil
}
