package effect

import (
	"fmt"
)

// ValidationInfeasibleError is returned when no cross-validation candidate
// produced a single fold with comparable pairs: the matrix is too sparse to
// validate an imputation parameter. Callers must surface it rather than fall
// back to an arbitrary neighbor count.
type ValidationInfeasibleError struct {
	Candidates []int
	Folds      int
	Rows       int
}

// Error implements the error interface.
func (e *ValidationInfeasibleError) Error() string {
	return fmt.Sprintf(
		"imputation validation infeasible: no candidate in %v produced a valid fold over %d folds and %d matrix rows",
		e.Candidates, e.Folds, e.Rows,
	)
}

// Gap identifies a cell the imputation engine could not fill because no
// eligible neighbor row exists.
type Gap struct {
	Mutation   string `json:"mutation"`
	Experiment string `json:"experiment_id"`
}

// GapError reports the cells left undefined after imputation. The caller
// decides whether a non-dense result is fatal or warrants re-running with a
// lower coverage threshold.
type GapError struct {
	Gaps []Gap
}

// Error implements the error interface.
func (e *GapError) Error() string {
	if len(e.Gaps) == 1 {
		return fmt.Sprintf("imputation gap: no eligible neighbors for %s in %s",
			e.Gaps[0].Mutation, e.Gaps[0].Experiment)
	}
	return fmt.Sprintf("imputation gaps: %d cells have no eligible neighbors", len(e.Gaps))
}
