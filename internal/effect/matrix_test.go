package effect

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavecli/pkg/contracts/domain"
)

func TestNewMatrixGroupsAndAverages(t *testing.T) {
	records := []domain.MutationRecord{
		{Mutation: "Val57Gln", ExperimentID: "exp_b", ZScore: 1.0},
		{Mutation: "Ala10Gly", ExperimentID: "exp_a", ZScore: -0.5},
		// Duplicate cell observations average.
		{Mutation: "Val57Gln", ExperimentID: "exp_b", ZScore: 3.0},
	}

	m := NewMatrix(records)

	require.Equal(t, []string{"Ala10Gly", "Val57Gln"}, m.Mutations)
	require.Equal(t, []string{"exp_a", "exp_b"}, m.Experiments)

	assert.InDelta(t, -0.5, m.Values[0][0], 1e-12)
	assert.True(t, math.IsNaN(m.Values[0][1]))
	assert.True(t, math.IsNaN(m.Values[1][0]))
	assert.InDelta(t, 2.0, m.Values[1][1], 1e-12)
}

func TestNewMatrixIndependentOfInputOrder(t *testing.T) {
	forward := []domain.MutationRecord{
		{Mutation: "a", ExperimentID: "e1", ZScore: 1},
		{Mutation: "b", ExperimentID: "e2", ZScore: 2},
		{Mutation: "c", ExperimentID: "e1", ZScore: 3},
	}
	reversed := []domain.MutationRecord{forward[2], forward[1], forward[0]}

	assert.True(t, NewMatrix(forward).Equal(NewMatrix(reversed)))
}

func TestNewMatrixSkipsUndefinedZScores(t *testing.T) {
	records := []domain.MutationRecord{
		{Mutation: "a", ExperimentID: "e1", ZScore: math.NaN()},
		{Mutation: "a", ExperimentID: "e2", ZScore: 0.25},
	}

	m := NewMatrix(records)

	// The degenerate observation still registers its labels; the cell stays
	// absent.
	require.Equal(t, []string{"a"}, m.Mutations)
	require.Equal(t, []string{"e1", "e2"}, m.Experiments)
	assert.True(t, math.IsNaN(m.Values[0][0]))
	assert.InDelta(t, 0.25, m.Values[0][1], 1e-12)
}

func TestNewMatrixIgnoresUnlabeledRecords(t *testing.T) {
	records := []domain.MutationRecord{
		{Mutation: "", ExperimentID: "e1", ZScore: 1},
		{Mutation: "a", ExperimentID: "", ZScore: 1},
	}

	m := NewMatrix(records)
	assert.Zero(t, m.Rows())
	assert.Zero(t, m.Cols())
}

func TestFilterCoverage(t *testing.T) {
	m := buildMatrix(
		[]string{"full", "partial", "sparse"},
		[]string{"e1", "e2", "e3"},
		[][]float64{
			{1, 2, 3},
			{1, math.NaN(), 3},
			{math.NaN(), math.NaN(), 3},
		},
	)

	filtered, report := FilterCoverage(m, 2)

	require.Equal(t, []string{"full", "partial"}, filtered.Mutations)
	assert.Equal(t, m.Experiments, filtered.Experiments)

	assert.Equal(t, 3, report.TotalMutations)
	assert.Equal(t, 2, report.RetainedMutations)
	assert.Equal(t, 2, report.CoverageThreshold)
	assert.Equal(t, 3, report.ExperimentCount)
	assert.InDelta(t, 100.0*6.0/9.0, report.TotalCoverage, 1e-9)
	assert.InDelta(t, 100.0*5.0/6.0, report.RetainedCoverage, 1e-9)
}

func TestFilterCoverageIsIdempotent(t *testing.T) {
	m := buildMatrix(
		[]string{"a", "b", "c"},
		[]string{"e1", "e2"},
		[][]float64{
			{1, 2},
			{1, math.NaN()},
			{math.NaN(), math.NaN()},
		},
	)

	once, _ := FilterCoverage(m, 1)
	twice, _ := FilterCoverage(once, 1)
	assert.True(t, once.Equal(twice))
}

func TestFilterCoverageEmptyRetainedSet(t *testing.T) {
	m := buildMatrix(
		[]string{"a", "b"},
		[]string{"e1", "e2"},
		[][]float64{
			{1, math.NaN()},
			{math.NaN(), 2},
		},
	)

	filtered, report := FilterCoverage(m, 2)

	assert.Zero(t, filtered.Rows())
	assert.Equal(t, 2, filtered.Cols())
	assert.Equal(t, 2, report.TotalMutations)
	assert.Zero(t, report.RetainedMutations)
	assert.Zero(t, report.RetainedCoverage)
}

func TestFilterCoverageCopiesValues(t *testing.T) {
	m := buildMatrix(
		[]string{"a"},
		[]string{"e1"},
		[][]float64{{1}},
	)

	filtered, _ := FilterCoverage(m, 1)
	filtered.Values[0][0] = 99
	assert.InDelta(t, 1.0, m.Values[0][0], 1e-12)
}

func TestMatrixEqualTreatsNaNAsEqual(t *testing.T) {
	a := buildMatrix([]string{"m"}, []string{"e1", "e2"}, [][]float64{{1, math.NaN()}})
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Values[0][1] = 0
	assert.False(t, a.Equal(b))
}

func TestMatrixCoverageFraction(t *testing.T) {
	empty := NewEmptyMatrix(nil, nil)
	assert.Zero(t, empty.CoverageFraction())

	m := buildMatrix([]string{"a", "b"}, []string{"e1", "e2"},
		[][]float64{{1, math.NaN()}, {1, 2}})
	assert.InDelta(t, 0.75, m.CoverageFraction(), 1e-12)
	assert.Equal(t, 1, m.MissingTotal())
}
