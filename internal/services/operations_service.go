package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"mavecli/internal/operations"
)

// ErrRunInProgress indicates a pipeline run is already executing.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// OperationsService serializes pipeline runs: at most one run executes at a
// time, and the latest result stays available for the status endpoint.
type OperationsService struct {
	manager *operations.Manager
	logger  *slog.Logger

	mu         sync.Mutex
	running    bool
	lastResult *operations.RunResult
}

// NewOperationsService creates the run coordination service.
func NewOperationsService(manager *operations.Manager, logger *slog.Logger) *OperationsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OperationsService{
		manager: manager,
		logger:  logger.With(slog.String("service", "operations")),
	}
}

// StepIDs returns the registered pipeline step ids in execution order.
func (s *OperationsService) StepIDs() []string {
	return s.manager.StepIDs()
}

// Start launches a run in the background. It returns ErrRunInProgress if a
// run is already executing.
func (s *OperationsService) Start(stepIDs ...string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		result, err := s.manager.Run(context.Background(), stepIDs...)
		if err != nil {
			s.logger.Error("pipeline run failed", slog.String("error", err.Error()))
		}

		s.mu.Lock()
		s.running = false
		if result != nil {
			s.lastResult = result
		}
		s.mu.Unlock()
	}()
	return nil
}

// Run executes a pipeline run synchronously. Used by the CLI binaries.
func (s *OperationsService) Run(ctx context.Context, stepIDs ...string) (*operations.RunResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	result, err := s.manager.Run(ctx, stepIDs...)

	s.mu.Lock()
	s.running = false
	if result != nil {
		s.lastResult = result
	}
	s.mu.Unlock()

	return result, err
}

// Status reports whether a run is executing and the most recent result.
func (s *OperationsService) Status() (bool, *operations.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, s.lastResult
}
