package effect

import (
	"math"
	"sort"

	"mavecli/pkg/contracts/domain"
)

// NewMatrix assembles the sparse effect matrix from exploded mutation records.
// Cells are the arithmetic mean of the z-scores a mutation received within one
// experiment; records with undefined z-scores (degenerate experiments) are
// excluded so they read as absent. Row and column labels are sorted, making
// the result independent of input order.
func NewMatrix(records []domain.MutationRecord) *Matrix {
	type cellKey struct {
		mutation   string
		experiment string
	}
	type cellAgg struct {
		sum   float64
		count int
	}

	cells := make(map[cellKey]*cellAgg)
	mutationSet := make(map[string]struct{})
	experimentSet := make(map[string]struct{})

	for _, rec := range records {
		if rec.Mutation == "" || rec.ExperimentID == "" {
			continue
		}
		mutationSet[rec.Mutation] = struct{}{}
		experimentSet[rec.ExperimentID] = struct{}{}
		if math.IsNaN(rec.ZScore) || math.IsInf(rec.ZScore, 0) {
			continue
		}
		key := cellKey{mutation: rec.Mutation, experiment: rec.ExperimentID}
		agg, ok := cells[key]
		if !ok {
			agg = &cellAgg{}
			cells[key] = agg
		}
		agg.sum += rec.ZScore
		agg.count++
	}

	mutations := make([]string, 0, len(mutationSet))
	for mutation := range mutationSet {
		mutations = append(mutations, mutation)
	}
	sort.Strings(mutations)

	experiments := make([]string, 0, len(experimentSet))
	for experiment := range experimentSet {
		experiments = append(experiments, experiment)
	}
	sort.Strings(experiments)

	m := NewEmptyMatrix(mutations, experiments)
	for i, mutation := range mutations {
		for j, experiment := range experiments {
			if agg, ok := cells[cellKey{mutation: mutation, experiment: experiment}]; ok {
				m.Values[i][j] = agg.sum / float64(agg.count)
			}
		}
	}
	return m
}

// FilterCoverage returns the submatrix of rows observed in at least threshold
// experiments, plus a coverage report. An empty retained set is a valid
// outcome and still produces a complete report.
func FilterCoverage(m *Matrix, threshold int) (*Matrix, domain.CoverageReport) {
	var retained []int
	for row := range m.Values {
		if m.PresentInRow(row) >= threshold {
			retained = append(retained, row)
		}
	}

	mutations := make([]string, len(retained))
	values := make([][]float64, len(retained))
	for i, row := range retained {
		mutations[i] = m.Mutations[row]
		values[i] = make([]float64, len(m.Values[row]))
		copy(values[i], m.Values[row])
	}
	experiments := make([]string, len(m.Experiments))
	copy(experiments, m.Experiments)

	filtered := &Matrix{Mutations: mutations, Experiments: experiments, Values: values}

	report := domain.CoverageReport{
		TotalMutations:    m.Rows(),
		RetainedMutations: filtered.Rows(),
		CoverageThreshold: threshold,
		TotalCoverage:     m.CoverageFraction() * 100,
		RetainedCoverage:  filtered.CoverageFraction() * 100,
		ExperimentCount:   m.Cols(),
	}
	return filtered, report
}
