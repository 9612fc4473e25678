package effect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMatrix is a test helper assembling a matrix from literal rows, with
// math.NaN() marking absent cells.
func buildMatrix(mutations, experiments []string, rows [][]float64) *Matrix {
	m := NewEmptyMatrix(mutations, experiments)
	for i, row := range rows {
		copy(m.Values[i], row)
	}
	return m
}

func TestImputeDenseMatrixUnchanged(t *testing.T) {
	m := buildMatrix(
		[]string{"Ala10Gly", "Val57Gln"},
		[]string{"exp_a", "exp_b"},
		[][]float64{
			{0.5, -0.5},
			{1.2, 0.8},
		},
	)

	imputer := NewImputer(3, nil)
	result, gaps := imputer.Impute(m)

	assert.Empty(t, gaps)
	assert.True(t, m.Equal(result), "dense input must come back unchanged")
	assert.NotSame(t, m, result, "result must be a copy, not the input")
}

func TestImputeNearestNeighborEstimate(t *testing.T) {
	// Row A matches B exactly on the shared columns (distance 0) and sits
	// sqrt(3) from C, so B is the nearest donor for A's missing cell.
	build := func() *Matrix {
		return buildMatrix(
			[]string{"A", "B", "C"},
			[]string{"e1", "e2", "e3"},
			[][]float64{
				{1, 2, math.NaN()},
				{1, 2, 3},
				{2, 3, 4},
			},
		)
	}

	tests := []struct {
		name      string
		neighbors int
		want      float64
	}{
		{name: "single nearest donor", neighbors: 1, want: 3.0},
		{name: "two donors averaged", neighbors: 2, want: 3.5},
		{name: "more neighbors than donors uses all", neighbors: 10, want: 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imputer := NewImputer(tt.neighbors, nil)
			result, gaps := imputer.Impute(build())

			require.Empty(t, gaps)
			assert.InDelta(t, tt.want, result.Values[0][2], 1e-12)
		})
	}
}

func TestImputeDoesNotChainFilledCells(t *testing.T) {
	// Both rows miss a cell. Each estimate must come from the original
	// matrix, so filling row 0 first cannot influence row 1.
	m := buildMatrix(
		[]string{"A", "B", "C"},
		[]string{"e1", "e2"},
		[][]float64{
			{1, math.NaN()},
			{math.NaN(), 4},
			{1, 2},
		},
	)

	imputer := NewImputer(5, nil)
	result, gaps := imputer.Impute(m)

	require.Empty(t, gaps)
	// Donors for (A, e2) are B and C from the input, values 4 and 2.
	assert.InDelta(t, 3.0, result.Values[0][1], 1e-12)
	// Donor for (B, e1) is C only; A has no overlap with B in the input.
	assert.InDelta(t, 1.0, result.Values[1][0], 1e-12)
	// Input itself is untouched.
	assert.True(t, math.IsNaN(m.Values[0][1]))
	assert.True(t, math.IsNaN(m.Values[1][0]))
}

func TestImputeReportsGapForUnobservedColumn(t *testing.T) {
	m := buildMatrix(
		[]string{"A", "B"},
		[]string{"e1", "e2"},
		[][]float64{
			{1, math.NaN()},
			{2, math.NaN()},
		},
	)

	imputer := NewImputer(3, nil)
	result, gaps := imputer.Impute(m)

	require.Len(t, gaps, 2)
	assert.Equal(t, Gap{Mutation: "A", Experiment: "e2"}, gaps[0])
	assert.Equal(t, Gap{Mutation: "B", Experiment: "e2"}, gaps[1])
	assert.True(t, math.IsNaN(result.Values[0][1]))
	assert.True(t, math.IsNaN(result.Values[1][1]))
}

func TestImputeZeroOverlapRowIneligibleAsDonor(t *testing.T) {
	// X observes only e3, Y only e1 and e2. X is the sole row with a value
	// in e3, but it shares no column with Y, so (Y, e3) stays a gap.
	m := buildMatrix(
		[]string{"X", "Y"},
		[]string{"e1", "e2", "e3"},
		[][]float64{
			{math.NaN(), math.NaN(), 5},
			{1, 2, math.NaN()},
		},
	)

	imputer := NewImputer(1, nil)
	result, gaps := imputer.Impute(m)

	require.NotEmpty(t, gaps)
	assert.Contains(t, gaps, Gap{Mutation: "Y", Experiment: "e3"})
	assert.True(t, math.IsNaN(result.Values[1][2]))
}

func TestImputeDistanceTieBreaksByRowIndex(t *testing.T) {
	// B and C are equidistant from A; with k=1 the lower row index wins.
	m := buildMatrix(
		[]string{"A", "B", "C"},
		[]string{"e1", "e2"},
		[][]float64{
			{1, math.NaN()},
			{2, 10},
			{0, 20},
		},
	)

	imputer := NewImputer(1, nil)
	result, gaps := imputer.Impute(m)

	require.Empty(t, gaps)
	assert.InDelta(t, 10.0, result.Values[0][1], 1e-12)
}

func TestNanEuclidean(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{
			name: "full overlap",
			a:    []float64{1, 2, 3},
			b:    []float64{1, 2, 3},
			want: 0,
		},
		{
			name: "partial overlap scales by length over overlap",
			a:    []float64{1, 2, math.NaN()},
			b:    []float64{2, 3, 4},
			want: math.Sqrt(2 * 3.0 / 2.0),
		},
		{
			name: "no overlap is infinite",
			a:    []float64{1, math.NaN()},
			b:    []float64{math.NaN(), 2},
			want: math.Inf(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nanEuclidean(tt.a, tt.b)
			if math.IsInf(tt.want, 1) {
				assert.True(t, math.IsInf(got, 1))
				return
			}
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}
