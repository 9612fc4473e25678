package effect

import (
	"log/slog"
	"math"
	"sort"
)

// Imputer fills missing matrix cells by k-nearest-neighbor estimation over
// rows. Similarity is NaN-aware Euclidean distance on the columns present in
// both rows, scaled by totalColumns/overlapColumns so distances over small
// overlaps are comparable to distances over large ones (the convention of
// standard kNN imputers). Rows sharing no column with the target are
// ineligible as donors.
type Imputer struct {
	neighbors int
	logger    *slog.Logger
}

// NewImputer creates an imputer with the given neighbor count.
func NewImputer(neighbors int, logger *slog.Logger) *Imputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Imputer{neighbors: neighbors, logger: logger}
}

// Neighbors returns the configured neighbor count.
func (im *Imputer) Neighbors() int { return im.neighbors }

// Impute returns a matrix of identical shape with missing cells filled from
// the k most similar rows that observe the same column. Donor values are
// averaged with equal weight; when fewer than k eligible donors exist all of
// them are used. Cells with zero eligible donors stay undefined and are
// reported in the returned gap list. Filled values are always computed from
// the input matrix, never from previously imputed cells.
func (im *Imputer) Impute(m *Matrix) (*Matrix, []Gap) {
	result := m.Clone()
	if m.MissingTotal() == 0 {
		return result, nil
	}

	var gaps []Gap
	for row := range m.Values {
		if m.PresentInRow(row) == m.Cols() {
			continue
		}
		// Distances from this row to every other row are shared by all of
		// its missing cells, so compute them once.
		distances := im.rowDistances(m, row)
		for col := range m.Values[row] {
			if m.Present(row, col) {
				continue
			}
			value, ok := im.estimateCell(m, distances, col)
			if !ok {
				gaps = append(gaps, Gap{
					Mutation:   m.Mutations[row],
					Experiment: m.Experiments[col],
				})
				continue
			}
			result.Values[row][col] = value
		}
	}

	if len(gaps) > 0 {
		im.logger.Warn("imputation left cells undefined",
			slog.Int("gap_count", len(gaps)),
			slog.Int("neighbors", im.neighbors))
	}
	return result, gaps
}

// rowDistances computes the scaled Euclidean distance from row to every other
// row. Pairs with no jointly present column get +Inf.
func (im *Imputer) rowDistances(m *Matrix, row int) []float64 {
	distances := make([]float64, m.Rows())
	for other := range m.Values {
		if other == row {
			distances[other] = math.Inf(1)
			continue
		}
		distances[other] = nanEuclidean(m.Values[row], m.Values[other])
	}
	return distances
}

// estimateCell averages column col over the k nearest finite-distance rows
// that observe col. Ties in distance resolve by row index so the result is
// deterministic.
func (im *Imputer) estimateCell(m *Matrix, distances []float64, col int) (float64, bool) {
	var donors []int
	for other := range m.Values {
		if m.Present(other, col) && !math.IsInf(distances[other], 1) {
			donors = append(donors, other)
		}
	}
	if len(donors) == 0 {
		return 0, false
	}

	sort.Slice(donors, func(i, j int) bool {
		if distances[donors[i]] != distances[donors[j]] {
			return distances[donors[i]] < distances[donors[j]]
		}
		return donors[i] < donors[j]
	})

	k := im.neighbors
	if k > len(donors) {
		k = len(donors)
	}

	sum := 0.0
	for _, donor := range donors[:k] {
		sum += m.Values[donor][col]
	}
	return sum / float64(k), true
}

// nanEuclidean is the Euclidean distance over jointly present coordinates,
// scaled up by len/overlap. Returns +Inf when the rows share no coordinate.
func nanEuclidean(a, b []float64) float64 {
	sumSq := 0.0
	overlap := 0
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sumSq += d * d
		overlap++
	}
	if overlap == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sumSq * float64(len(a)) / float64(overlap))
}
