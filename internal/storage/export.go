package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/mdsim/internal/metrics"
)

type ExportData struct {
	RunMetadata
	Reports []metrics.Report `json:"reports"`
}

// ExportJSON writes the metadata and energy series of a stored run to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	reports, err := s.LoadReports(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{RunMetadata: *meta, Reports: reports})
}

func (s *Store) ExportJSONFile(path, runID string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := s.ExportJSON(file, runID); err != nil {
		return err
	}
	return file.Close()
}
