package store

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/pavelanni/karne/internal/analysis"
	"github.com/pavelanni/karne/internal/model"
)

// ImportStats summarizes an ImportHistory run.
type ImportStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Invalid  int `json:"invalid"`
}

// ExportHistory writes every stored analysis as a JSON array, newest first.
// The format matches the browser history the dashboard used to keep.
func (s *Store) ExportHistory(w io.Writer) error {
	history, err := s.List()
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	if history == nil {
		history = []model.AnalysisResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(history)
}

// ImportHistory reads a JSON array of analyses. Every element is sanitized;
// elements whose id is already stored are skipped and elements that are not
// objects are counted as invalid.
func (s *Store) ImportHistory(r io.Reader) (ImportStats, error) {
	var stats ImportStats

	dec := json.NewDecoder(r)
	dec.UseNumber()
	var items []any
	if err := dec.Decode(&items); err != nil {
		return stats, fmt.Errorf("decode history: %w", err)
	}

	for i, item := range items {
		result, err := analysis.Sanitize(item)
		if err != nil {
			slog.Warn("skipping invalid history entry", "index", i, "error", err)
			stats.Invalid++
			continue
		}
		if result.ID != "" {
			exists, err := s.Exists(result.ID)
			if err != nil {
				return stats, fmt.Errorf("check analysis %s: %w", result.ID, err)
			}
			if exists {
				stats.Skipped++
				continue
			}
		}
		if _, err := s.Save(result); err != nil {
			return stats, err
		}
		stats.Imported++
	}
	slog.Info("history imported", "imported", stats.Imported, "skipped", stats.Skipped, "invalid", stats.Invalid)
	return stats, nil
}
