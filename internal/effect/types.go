package effect

import (
	"math"
)

// Defaults for the analysis configuration surface. Callers pass explicit
// values; these exist so every layer agrees on the fallbacks.
const (
	// DefaultCoverageThreshold is the minimum number of experiments a
	// mutation must appear in to be considered well covered.
	DefaultCoverageThreshold = 5

	// DefaultFolds is the number of hide-and-recover cross-validation folds.
	DefaultFolds = 5

	// DefaultHideFraction is the probability of hiding a known cell per fold.
	DefaultHideFraction = 0.2

	// DefaultHighConsistency is the consistency score at or above which a
	// mutation is flagged as highly consistent across experiments.
	DefaultHighConsistency = 0.7

	// DefaultMaxConcurrency bounds parallel candidate evaluation.
	DefaultMaxConcurrency = 4
)

// DefaultNeighborCandidates is the default neighbor-count candidate list for
// imputation validation.
func DefaultNeighborCandidates() []int { return []int{3, 5, 7, 10} }

// Matrix is a dense-storage mutation-by-experiment table of z-scores where
// NaN marks "mutation not observed in that experiment". Rows and columns are
// label-sorted so construction is independent of input order.
type Matrix struct {
	Mutations   []string
	Experiments []string
	Values      [][]float64
}

// NewEmptyMatrix allocates a matrix of the given shape with every cell absent.
func NewEmptyMatrix(mutations, experiments []string) *Matrix {
	values := make([][]float64, len(mutations))
	for i := range values {
		row := make([]float64, len(experiments))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}
	return &Matrix{Mutations: mutations, Experiments: experiments, Values: values}
}

// Rows returns the number of mutation rows.
func (m *Matrix) Rows() int { return len(m.Mutations) }

// Cols returns the number of experiment columns.
func (m *Matrix) Cols() int { return len(m.Experiments) }

// Present reports whether the cell at (row, col) holds an observed value.
func (m *Matrix) Present(row, col int) bool {
	return !math.IsNaN(m.Values[row][col])
}

// PresentInRow counts observed cells in a row, i.e. the mutation's coverage.
func (m *Matrix) PresentInRow(row int) int {
	count := 0
	for col := range m.Values[row] {
		if m.Present(row, col) {
			count++
		}
	}
	return count
}

// PresentTotal counts observed cells in the whole matrix.
func (m *Matrix) PresentTotal() int {
	count := 0
	for row := range m.Values {
		count += m.PresentInRow(row)
	}
	return count
}

// CoverageFraction returns the fraction of cells holding observed values.
// An empty matrix has coverage 0 rather than NaN.
func (m *Matrix) CoverageFraction() float64 {
	size := m.Rows() * m.Cols()
	if size == 0 {
		return 0
	}
	return float64(m.PresentTotal()) / float64(size)
}

// MissingTotal counts absent cells.
func (m *Matrix) MissingTotal() int {
	return m.Rows()*m.Cols() - m.PresentTotal()
}

// Clone returns a deep copy sharing no storage with the receiver.
func (m *Matrix) Clone() *Matrix {
	mutations := make([]string, len(m.Mutations))
	copy(mutations, m.Mutations)
	experiments := make([]string, len(m.Experiments))
	copy(experiments, m.Experiments)
	values := make([][]float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]float64, len(row))
		copy(values[i], row)
	}
	return &Matrix{Mutations: mutations, Experiments: experiments, Values: values}
}

// Equal reports whether two matrices have identical labels and bit-identical
// cell values, treating NaN as equal to NaN.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.Rows() != other.Rows() || m.Cols() != other.Cols() {
		return false
	}
	for i, label := range m.Mutations {
		if other.Mutations[i] != label {
			return false
		}
	}
	for j, label := range m.Experiments {
		if other.Experiments[j] != label {
			return false
		}
	}
	for i := range m.Values {
		for j := range m.Values[i] {
			a, b := m.Values[i][j], other.Values[i][j]
			if math.IsNaN(a) != math.IsNaN(b) {
				return false
			}
			if !math.IsNaN(a) && a != b {
				return false
			}
		}
	}
	return true
}

// Thresholds configures effect categorization and the high-consistency flag.
// The category partition of the real line is:
//
//	mean <= StrongDeleteriousMax            -> Strong Deleterious
//	StrongDeleteriousMax < mean <= DeleteriousMax -> Deleterious
//	DeleteriousMax < mean < BeneficialMin   -> Neutral
//	BeneficialMin <= mean < StrongBeneficialMin -> Beneficial
//	mean >= StrongBeneficialMin             -> Strong Beneficial
type Thresholds struct {
	StrongDeleteriousMax float64
	DeleteriousMax       float64
	BeneficialMin        float64
	StrongBeneficialMin  float64
	HighConsistency      float64
}

// DefaultThresholds returns the standard z-score category boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		StrongDeleteriousMax: -1.0,
		DeleteriousMax:       -0.5,
		BeneficialMin:        0.5,
		StrongBeneficialMin:  1.0,
		HighConsistency:      DefaultHighConsistency,
	}
}

// IsValid checks that the boundaries partition the real line in order.
func (t Thresholds) IsValid() bool {
	return t.StrongDeleteriousMax < t.DeleteriousMax &&
		t.DeleteriousMax < t.BeneficialMin &&
		t.BeneficialMin < t.StrongBeneficialMin &&
		t.HighConsistency > 0 && t.HighConsistency <= 1
}
