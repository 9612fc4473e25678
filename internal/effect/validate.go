package effect

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"mavecli/pkg/contracts/domain"
)

// Validator selects a neighbor count for imputation by repeated
// hide-and-recover cross-validation. Each fold hides a fraction of the known
// cells, imputes the rest, and scores recovery accuracy; candidates are
// compared on mean squared error averaged over their valid folds.
type Validator struct {
	candidates     []int
	folds          int
	hideFraction   float64
	maxConcurrency int
	logger         *slog.Logger
}

// NewValidator creates a validator over the given neighbor-count candidates.
func NewValidator(candidates []int, folds int, hideFraction float64, logger *slog.Logger) (*Validator, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no neighbor-count candidates provided")
	}
	for _, k := range candidates {
		if k < 1 {
			return nil, fmt.Errorf("invalid neighbor count %d: must be >= 1", k)
		}
	}
	if folds < 1 {
		return nil, fmt.Errorf("invalid fold count %d: must be >= 1", folds)
	}
	if hideFraction <= 0 || hideFraction >= 1 {
		return nil, fmt.Errorf("invalid hide fraction %.3f: must be in (0, 1)", hideFraction)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		candidates:     candidates,
		folds:          folds,
		hideFraction:   hideFraction,
		maxConcurrency: DefaultMaxConcurrency,
		logger:         logger,
	}, nil
}

// SetMaxConcurrency bounds how many candidates are evaluated in parallel.
func (v *Validator) SetMaxConcurrency(n int) {
	if n > 0 {
		v.maxConcurrency = n
	}
}

// Run evaluates every candidate and returns the winner by minimum average
// MSE, ties resolved by candidate list order. Candidates run in parallel but
// results aggregate by candidate index, so concurrency cannot change the
// winner. If no candidate produces a single valid fold the matrix cannot
// support validation and a ValidationInfeasibleError is returned.
func (v *Validator) Run(ctx context.Context, m *Matrix) (*domain.ValidationResult, error) {
	v.logger.InfoContext(ctx, "starting imputation validation",
		slog.Any("candidates", v.candidates),
		slog.Int("folds", v.folds),
		slog.Float64("hide_fraction", v.hideFraction),
		slog.Int("matrix_rows", m.Rows()),
		slog.Int("matrix_cols", m.Cols()))

	// The hide masks depend only on the fold index and the matrix, so every
	// candidate scores against identical folds.
	masks := make([][][2]int, v.folds)
	for fold := 0; fold < v.folds; fold++ {
		masks[fold] = v.hiddenCells(m, fold)
	}

	metrics := make([]domain.CandidateMetrics, len(v.candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxConcurrency)

	for i, k := range v.candidates {
		g.Go(func() error {
			candidate, err := v.evaluateCandidate(gctx, m, k, masks)
			if err != nil {
				return err
			}
			metrics[i] = candidate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate candidates: %w", err)
	}

	best := -1
	for i, candidate := range metrics {
		if candidate.ValidFolds == 0 {
			v.logger.WarnContext(ctx, "candidate produced no valid folds",
				slog.Int("neighbors", candidate.Neighbors))
			continue
		}
		if best == -1 || candidate.MSE < metrics[best].MSE {
			best = i
		}
	}
	if best == -1 {
		return nil, &ValidationInfeasibleError{
			Candidates: v.candidates,
			Folds:      v.folds,
			Rows:       m.Rows(),
		}
	}

	result := &domain.ValidationResult{
		BestNeighbors: metrics[best].Neighbors,
		BestMSE:       metrics[best].MSE,
		BestR2:        metrics[best].R2,
		Candidates:    metrics,
	}
	v.logger.InfoContext(ctx, "imputation validation complete",
		slog.Int("best_neighbors", result.BestNeighbors),
		slog.Float64("best_mse", result.BestMSE),
		slog.Float64("best_r2", result.BestR2))
	return result, nil
}

// evaluateCandidate averages recovery accuracy for one neighbor count across
// all folds, skipping folds that yield zero comparable pairs.
func (v *Validator) evaluateCandidate(ctx context.Context, m *Matrix, neighbors int, masks [][][2]int) (domain.CandidateMetrics, error) {
	imputer := NewImputer(neighbors, v.logger)

	mseSum, r2Sum := 0.0, 0.0
	validFolds := 0

	for fold := 0; fold < v.folds; fold++ {
		select {
		case <-ctx.Done():
			return domain.CandidateMetrics{}, ctx.Err()
		default:
		}

		hidden := masks[fold]
		if len(hidden) == 0 {
			continue
		}

		masked := m.Clone()
		for _, cell := range hidden {
			masked.Values[cell[0]][cell[1]] = math.NaN()
		}

		dense, _ := imputer.Impute(masked)

		var truth, predicted []float64
		for _, cell := range hidden {
			trueValue := m.Values[cell[0]][cell[1]]
			imputedValue := dense.Values[cell[0]][cell[1]]
			if math.IsNaN(trueValue) || math.IsNaN(imputedValue) {
				continue
			}
			truth = append(truth, trueValue)
			predicted = append(predicted, imputedValue)
		}

		mse, ok := meanSquaredError(truth, predicted)
		if !ok {
			v.logger.Debug("fold produced no comparable pairs",
				slog.Int("neighbors", neighbors),
				slog.Int("fold", fold))
			continue
		}
		r2, _ := rSquared(truth, predicted)

		mseSum += mse
		r2Sum += r2
		validFolds++
	}

	candidate := domain.CandidateMetrics{Neighbors: neighbors, ValidFolds: validFolds}
	if validFolds > 0 {
		candidate.MSE = mseSum / float64(validFolds)
		candidate.R2 = r2Sum / float64(validFolds)
	}
	return candidate, nil
}

// hiddenCells marks each present cell hidden with probability hideFraction,
// using a PRNG seeded purely by the fold index. Cells are visited in
// row-major order so the mask is a deterministic function of (matrix, fold).
func (v *Validator) hiddenCells(m *Matrix, fold int) [][2]int {
	rng := rand.New(rand.NewSource(foldSeed(fold)))
	var hidden [][2]int
	for row := range m.Values {
		for col := range m.Values[row] {
			// Draw for every cell so the mask shape matches the full matrix;
			// only presently known cells can actually be hidden.
			draw := rng.Float64()
			if draw < v.hideFraction && m.Present(row, col) {
				hidden = append(hidden, [2]int{row, col})
			}
		}
	}
	return hidden
}

// foldSeed maps a fold index to its PRNG seed. Kept trivial on purpose: the
// seed must be a pure function of the fold index so re-runs reproduce the
// exact hide masks.
func foldSeed(fold int) int64 {
	return int64(fold)
}
