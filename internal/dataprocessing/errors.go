package dataprocessing

import (
	"fmt"
)

// InputError marks a fatal problem with the raw input: nothing to load, or a
// record missing a required field. It is surfaced before any computation.
type InputError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("input error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("input error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error {
	return e.Cause
}

// NewInputError creates an InputError with a formatted message.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// DegenerateExperimentError identifies an experiment whose scores have zero
// variance (or a single record), so z-scores cannot be defined for it.
// Non-fatal: normalization continues and the experiment's values are treated
// as absent by every downstream statistic.
type DegenerateExperimentError struct {
	ExperimentID string
	Records      int
}

// Error implements the error interface.
func (e *DegenerateExperimentError) Error() string {
	return fmt.Sprintf("degenerate experiment %q: %d records with zero score variance",
		e.ExperimentID, e.Records)
}
