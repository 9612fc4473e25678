package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"mavecli/internal/effect"
)

// Artifact file names, shared by the stage binaries and the web service.
const (
	MatrixFile        = "normalized_heatmap_data.csv"
	UnpivotedFile     = "unpivoted_data.csv"
	ImputedFile       = "imputed_data.csv"
	CoverageFile      = "coverage_report.json"
	ValidationFile    = "validation_results.json"
	AnalysisFile      = "analysis_results.csv"
	SummaryFile       = "analysis_summary.json"
	NormalizationFile = "normalization_report.json"
)

// WriteMatrix persists a matrix in wide form: one row per mutation, one
// column per experiment, empty cells for absent values.
func (w *CSVWriter) WriteMatrix(name string, m *effect.Matrix) error {
	headers := append([]string{"mutation"}, m.Experiments...)
	records := make([][]string, 0, m.Rows())
	for row := range m.Values {
		record := make([]string, 0, m.Cols()+1)
		record = append(record, m.Mutations[row])
		for col := range m.Values[row] {
			if m.Present(row, col) {
				record = append(record, strconv.FormatFloat(m.Values[row][col], 'g', -1, 64))
			} else {
				record = append(record, "")
			}
		}
		records = append(records, record)
	}
	return w.WriteCSV(name, WriteOptions{Headers: headers, Records: records})
}

// WriteUnpivoted persists a matrix in long form (mutation, experiment_id,
// z_score), one row per present cell.
func (w *CSVWriter) WriteUnpivoted(name string, m *effect.Matrix) error {
	cells := effect.Unpivot(m)
	records := make([][]string, 0, len(cells))
	for _, cell := range cells {
		records = append(records, []string{
			cell.Mutation,
			cell.Experiment,
			strconv.FormatFloat(cell.ZScore, 'g', -1, 64),
		})
	}
	return w.WriteCSV(name, WriteOptions{
		Headers: []string{"mutation", "experiment_id", "z_score"},
		Records: records,
	})
}

// ReadMatrix loads a wide-form matrix CSV written by WriteMatrix. Empty
// cells become absent values.
func ReadMatrix(path string) (*effect.Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read matrix header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("matrix file %s has no experiment columns", path)
	}

	experiments := header[1:]
	var mutations []string
	var values [][]float64

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read matrix line %d: %w", line+1, err)
		}
		line++
		if len(row) != len(header) {
			return nil, fmt.Errorf("matrix line %d has %d fields, want %d", line, len(row), len(header))
		}

		mutations = append(mutations, row[0])
		rowValues := make([]float64, len(experiments))
		for i, cell := range row[1:] {
			if cell == "" {
				rowValues[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("matrix line %d column %q: %w", line, experiments[i], err)
			}
			rowValues[i] = v
		}
		values = append(values, rowValues)
	}

	return &effect.Matrix{Mutations: mutations, Experiments: experiments, Values: values}, nil
}
