package effect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// denseTestMatrix builds a fully observed 8x5 matrix with distinct row
// profiles, enough density that every cross-validation fold hides cells and
// recovers them.
func denseTestMatrix() *Matrix {
	mutations := []string{"m01", "m02", "m03", "m04", "m05", "m06", "m07", "m08"}
	experiments := []string{"e1", "e2", "e3", "e4", "e5"}
	m := NewEmptyMatrix(mutations, experiments)
	for i := range m.Values {
		for j := range m.Values[i] {
			m.Values[i][j] = float64(i+1) + 0.1*float64(j)
		}
	}
	return m
}

func TestNewValidatorRejectsBadParameters(t *testing.T) {
	tests := []struct {
		name         string
		candidates   []int
		folds        int
		hideFraction float64
	}{
		{name: "empty candidates", candidates: nil, folds: 5, hideFraction: 0.2},
		{name: "zero neighbor count", candidates: []int{3, 0}, folds: 5, hideFraction: 0.2},
		{name: "zero folds", candidates: []int{3}, folds: 0, hideFraction: 0.2},
		{name: "hide fraction zero", candidates: []int{3}, folds: 5, hideFraction: 0},
		{name: "hide fraction one", candidates: []int{3}, folds: 5, hideFraction: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewValidator(tt.candidates, tt.folds, tt.hideFraction, nil)
			assert.Error(t, err)
		})
	}
}

func TestValidatorRunIsDeterministic(t *testing.T) {
	validator, err := NewValidator([]int{1, 2, 3}, 5, 0.5, nil)
	require.NoError(t, err)

	first, err := validator.Run(context.Background(), denseTestMatrix())
	require.NoError(t, err)
	second, err := validator.Run(context.Background(), denseTestMatrix())
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must reproduce bit-identical results")
}

func TestValidatorRunConcurrencyDoesNotChangeResult(t *testing.T) {
	serial, err := NewValidator([]int{1, 2, 3}, 5, 0.5, nil)
	require.NoError(t, err)
	serial.SetMaxConcurrency(1)
	serialResult, err := serial.Run(context.Background(), denseTestMatrix())
	require.NoError(t, err)

	parallel, err := NewValidator([]int{1, 2, 3}, 5, 0.5, nil)
	require.NoError(t, err)
	parallel.SetMaxConcurrency(8)
	parallelResult, err := parallel.Run(context.Background(), denseTestMatrix())
	require.NoError(t, err)

	assert.Equal(t, serialResult, parallelResult)
}

func TestValidatorRunReportsAllCandidatesInOrder(t *testing.T) {
	candidates := []int{2, 1, 3}
	validator, err := NewValidator(candidates, 5, 0.5, nil)
	require.NoError(t, err)

	result, err := validator.Run(context.Background(), denseTestMatrix())
	require.NoError(t, err)

	require.Len(t, result.Candidates, len(candidates))
	for i, k := range candidates {
		assert.Equal(t, k, result.Candidates[i].Neighbors)
		assert.Positive(t, result.Candidates[i].ValidFolds)
	}

	best := result.Candidates[0]
	for _, candidate := range result.Candidates[1:] {
		if candidate.MSE < best.MSE {
			best = candidate
		}
	}
	assert.Equal(t, best.Neighbors, result.BestNeighbors, "winner must minimize MSE")
	assert.Equal(t, best.MSE, result.BestMSE)
	assert.Equal(t, best.R2, result.BestR2)
}

func TestValidatorRunInfeasibleOnEmptyMatrix(t *testing.T) {
	validator, err := NewValidator([]int{3, 5}, 4, 0.2, nil)
	require.NoError(t, err)

	// No present cells means no fold can hide anything, so every candidate
	// ends with zero valid folds.
	m := NewEmptyMatrix([]string{"m1", "m2"}, []string{"e1", "e2"})

	_, err = validator.Run(context.Background(), m)
	require.Error(t, err)

	var infeasible *ValidationInfeasibleError
	require.ErrorAs(t, err, &infeasible)
	assert.Equal(t, []int{3, 5}, infeasible.Candidates)
	assert.Equal(t, 4, infeasible.Folds)
	assert.Equal(t, 2, infeasible.Rows)
}

func TestValidatorRunHonorsCancellation(t *testing.T) {
	validator, err := NewValidator([]int{1, 2}, 5, 0.5, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = validator.Run(ctx, denseTestMatrix())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
