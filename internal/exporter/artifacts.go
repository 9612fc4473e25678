package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"mavecli/pkg/contracts/domain"
)

// WriteSummaries persists the per-mutation analysis table.
func (w *CSVWriter) WriteSummaries(name string, summaries []domain.MutationSummary) error {
	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, []string{
			s.Mutation,
			strconv.FormatFloat(s.MeanEffect, 'f', 6, 64),
			strconv.FormatFloat(s.StdEffect, 'f', 6, 64),
			strconv.FormatFloat(s.Consistency, 'f', 6, 64),
			string(s.Category),
			strconv.FormatBool(s.HighConsistency),
		})
	}
	return w.WriteCSV(name, WriteOptions{
		Headers: []string{"mutation", "mean_effect", "std_effect", "consistency_score", "effect_category", "high_consistency"},
		Records: records,
	})
}

// WriteJSON persists any report artifact as indented JSON.
func (w *CSVWriter) WriteJSON(name string, v any) error {
	fullPath := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	w.logger.Info("wrote JSON artifact", "path", fullPath)
	return nil
}

// ReadJSON loads a JSON artifact into v.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
