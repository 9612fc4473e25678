package operations

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"mavecli/internal/infrastructure"
)

// Broadcaster receives step progress updates during a run. The WebSocket hub
// implements it; a nil broadcaster disables progress streaming.
type Broadcaster interface {
	BroadcastUpdate(runID, stepID string, status StepStatus, message string)
}

// RunResult describes a finished (or aborted) pipeline run.
type RunResult struct {
	RunID     string       `json:"run_id"`
	Steps     []StepState  `json:"steps"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Succeeded bool         `json:"succeeded"`
}

// Manager executes registered steps in order.
type Manager struct {
	steps       []Step
	logger      *slog.Logger
	broadcaster Broadcaster
}

// NewManager creates a manager over the given steps, which run in the order
// provided.
func NewManager(steps []Step, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{steps: steps, logger: logger}
}

// SetBroadcaster attaches a progress observer.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

// StepIDs returns the registered step ids in execution order.
func (m *Manager) StepIDs() []string {
	ids := make([]string, len(m.steps))
	for i, step := range m.steps {
		ids[i] = step.ID()
	}
	return ids
}

// Run executes the selected steps in registration order. An empty selection
// runs every step. The first failing step aborts the run; remaining steps are
// marked skipped. The run id doubles as the trace id on the context so all
// log lines of a run correlate.
func (m *Manager) Run(ctx context.Context, stepIDs ...string) (*RunResult, error) {
	selected, err := m.selectSteps(stepIDs)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	ctx = infrastructure.WithTraceID(ctx, runID)
	tracer := otel.Tracer("mavecli/operations")
	ctx, span := tracer.Start(ctx, "pipeline.run")
	span.SetAttributes(attribute.String("run_id", runID))
	defer span.End()

	state := NewState(runID)
	result := &RunResult{RunID: runID, StartTime: time.Now()}
	states := make([]*StepState, len(selected))
	for i, step := range selected {
		states[i] = NewStepState(step.ID(), step.Name())
	}

	m.logger.InfoContext(ctx, "pipeline run started",
		slog.String("run_id", runID),
		slog.Int("steps", len(selected)))

	var runErr error
	for i, step := range selected {
		stepState := states[i]

		if runErr != nil {
			stepState.Skip()
			m.broadcast(runID, step.ID(), StepStatusSkipped, "")
			continue
		}
		if err := ctx.Err(); err != nil {
			runErr = NewCancellationError(step.ID())
			stepState.Fail(runErr)
			m.broadcast(runID, step.ID(), StepStatusFailed, runErr.Error())
			continue
		}

		stepState.Start()
		m.broadcast(runID, step.ID(), StepStatusActive, "")
		m.logger.InfoContext(ctx, "step started", slog.String("step", step.ID()))

		stepCtx, stepSpan := tracer.Start(ctx, "pipeline.step."+step.ID())
		start := time.Now()
		err := step.Execute(stepCtx, state)
		elapsed := time.Since(start)

		if err != nil {
			stepSpan.SetStatus(codes.Error, err.Error())
			stepSpan.End()
			stepDuration.WithLabelValues(step.ID(), string(StepStatusFailed)).Observe(elapsed.Seconds())

			runErr = NewExecutionError(step.ID(), err)
			stepState.Fail(err)
			m.broadcast(runID, step.ID(), StepStatusFailed, err.Error())
			m.logger.ErrorContext(ctx, "step failed",
				slog.String("step", step.ID()),
				slog.Duration("duration", elapsed),
				slog.String("error", err.Error()))
			continue
		}

		stepSpan.End()
		stepDuration.WithLabelValues(step.ID(), string(StepStatusCompleted)).Observe(elapsed.Seconds())
		stepState.Complete("")
		m.broadcast(runID, step.ID(), StepStatusCompleted, "")
		m.logger.InfoContext(ctx, "step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", elapsed))
	}

	result.EndTime = time.Now()
	result.Succeeded = runErr == nil
	for _, stepState := range states {
		result.Steps = append(result.Steps, stepState.Snapshot())
	}

	if runErr != nil {
		runsTotal.WithLabelValues("failed").Inc()
		span.SetStatus(codes.Error, runErr.Error())
		m.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("run_id", runID),
			slog.String("error", runErr.Error()))
		return result, runErr
	}

	runsTotal.WithLabelValues("completed").Inc()
	m.logger.InfoContext(ctx, "pipeline run completed",
		slog.String("run_id", runID),
		slog.Duration("duration", result.EndTime.Sub(result.StartTime)))
	return result, nil
}

// selectSteps resolves a step id selection against the registered steps,
// preserving registration order.
func (m *Manager) selectSteps(stepIDs []string) ([]Step, error) {
	if len(stepIDs) == 0 {
		return m.steps, nil
	}
	wanted := make(map[string]bool, len(stepIDs))
	for _, id := range stepIDs {
		wanted[id] = true
	}
	var selected []Step
	for _, step := range m.steps {
		if wanted[step.ID()] {
			selected = append(selected, step)
			delete(wanted, step.ID())
		}
	}
	for id := range wanted {
		return nil, ErrUnknownStep(id)
	}
	return selected, nil
}

func (m *Manager) broadcast(runID, stepID string, status StepStatus, message string) {
	if m.broadcaster != nil {
		m.broadcaster.BroadcastUpdate(runID, stepID, status, message)
	}
}
