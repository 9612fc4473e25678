package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mavecli/internal/config"
	"mavecli/internal/dataprocessing"
	"mavecli/internal/effect"
	"mavecli/internal/exporter"
	"mavecli/internal/operations"
	"mavecli/pkg/contracts/domain"
)

// Step identifiers, in pipeline order.
const (
	StepIDProcess  = "process"
	StepIDValidate = "validate"
	StepIDImpute   = "impute"
	StepIDAnalyze  = "analyze"
)

// Run state keys shared between steps.
const (
	stateKeyMatrix     = "matrix"
	stateKeyValidation = "validation"
	stateKeyImputed    = "imputed"
	stateKeyGaps       = "gaps"
)

// NewPipelineSteps builds the four pipeline steps in execution order.
func NewPipelineSteps(cfg *config.Config, writer *exporter.CSVWriter, logger *slog.Logger) []operations.Step {
	return []operations.Step{
		NewProcessStep(cfg, writer, logger),
		NewValidateStep(cfg.Analysis, writer, logger),
		NewImputeStep(cfg.Analysis, writer, logger),
		NewAnalyzeStep(cfg.Analysis, writer, logger),
	}
}

// ProcessStep ingests score files, normalizes per experiment, pivots into the
// mutation by experiment matrix, and applies the coverage filter.
type ProcessStep struct {
	dataDir    string
	threshold  int
	loader     *dataprocessing.Loader
	normalizer *dataprocessing.Normalizer
	writer     *exporter.CSVWriter
	logger     *slog.Logger
}

// NewProcessStep creates the ingestion step.
func NewProcessStep(cfg *config.Config, writer *exporter.CSVWriter, logger *slog.Logger) *ProcessStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessStep{
		dataDir:    cfg.Paths.DataDir,
		threshold:  cfg.Analysis.CoverageThreshold,
		loader:     dataprocessing.NewLoader(logger),
		normalizer: dataprocessing.NewNormalizer(logger),
		writer:     writer,
		logger:     logger.With(slog.String("step", StepIDProcess)),
	}
}

func (s *ProcessStep) ID() string   { return StepIDProcess }
func (s *ProcessStep) Name() string { return "Process Scores" }

// Execute runs ingestion through coverage filtering and persists the matrix,
// its long form, the coverage report, and the normalization report.
func (s *ProcessStep) Execute(ctx context.Context, state *operations.State) error {
	records, err := s.loader.LoadDir(s.dataDir)
	if err != nil {
		return err
	}

	exploded := dataprocessing.Explode(records)
	normalized, report := s.normalizer.Normalize(exploded)

	matrix := effect.NewMatrix(normalized)
	filtered, coverage := effect.FilterCoverage(matrix, s.threshold)
	if filtered.Rows() == 0 {
		// An empty retained set is not an ingestion failure. It persists
		// like any other matrix and the validate step reports it as
		// infeasible, pointing the operator at the coverage threshold.
		s.logger.WarnContext(ctx, "no mutation reaches the coverage threshold",
			slog.Int("threshold", s.threshold),
			slog.Int("mutations", matrix.Rows()))
	}

	s.logger.InfoContext(ctx, "matrix built",
		slog.Int("raw_records", len(records)),
		slog.Int("atomic_records", len(exploded)),
		slog.Int("mutations", matrix.Rows()),
		slog.Int("retained_mutations", filtered.Rows()),
		slog.Int("experiments", filtered.Cols()))

	if err := s.writer.WriteJSON(exporter.NormalizationFile, report); err != nil {
		return err
	}
	if err := s.writer.WriteMatrix(exporter.MatrixFile, filtered); err != nil {
		return err
	}
	if err := s.writer.WriteUnpivoted(exporter.UnpivotedFile, filtered); err != nil {
		return err
	}
	if err := s.writer.WriteJSON(exporter.CoverageFile, coverage); err != nil {
		return err
	}

	state.Set(stateKeyMatrix, filtered)
	return nil
}

// ValidateStep selects the neighbor count by cross-validated imputation error.
type ValidateStep struct {
	cfg    config.AnalysisConfig
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewValidateStep creates the parameter selection step.
func NewValidateStep(cfg config.AnalysisConfig, writer *exporter.CSVWriter, logger *slog.Logger) *ValidateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateStep{
		cfg:    cfg,
		writer: writer,
		logger: logger.With(slog.String("step", StepIDValidate)),
	}
}

func (s *ValidateStep) ID() string   { return StepIDValidate }
func (s *ValidateStep) Name() string { return "Validate Parameters" }

func (s *ValidateStep) Execute(ctx context.Context, state *operations.State) error {
	m, err := matrixFromState(state, stateKeyMatrix, s.writer.Path(exporter.MatrixFile))
	if err != nil {
		return err
	}

	validator, err := effect.NewValidator(s.cfg.NeighborCandidates, s.cfg.Folds, s.cfg.HideFraction, s.logger)
	if err != nil {
		return err
	}
	validator.SetMaxConcurrency(s.cfg.MaxConcurrency)

	result, err := validator.Run(ctx, m)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "parameter selection complete",
		slog.Int("best_neighbors", result.BestNeighbors),
		slog.Float64("best_mse", result.BestMSE),
		slog.Float64("best_r2", result.BestR2))

	if err := s.writer.WriteJSON(exporter.ValidationFile, result); err != nil {
		return err
	}

	state.Set(stateKeyMatrix, m)
	state.Set(stateKeyValidation, result)
	return nil
}

// ImputeStep fills missing cells using the selected neighbor count.
type ImputeStep struct {
	cfg    config.AnalysisConfig
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewImputeStep creates the imputation step.
func NewImputeStep(cfg config.AnalysisConfig, writer *exporter.CSVWriter, logger *slog.Logger) *ImputeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImputeStep{
		cfg:    cfg,
		writer: writer,
		logger: logger.With(slog.String("step", StepIDImpute)),
	}
}

func (s *ImputeStep) ID() string   { return StepIDImpute }
func (s *ImputeStep) Name() string { return "Impute Missing Values" }

func (s *ImputeStep) Execute(ctx context.Context, state *operations.State) error {
	m, err := matrixFromState(state, stateKeyMatrix, s.writer.Path(exporter.MatrixFile))
	if err != nil {
		return err
	}

	neighbors, err := s.selectedNeighbors(state)
	if err != nil {
		return err
	}

	imputer := effect.NewImputer(neighbors, s.logger)
	imputed, gaps := imputer.Impute(m)

	if len(gaps) > 0 {
		operations.ImputationGaps.Add(float64(len(gaps)))
		s.logger.WarnContext(ctx, "imputation left gaps",
			slog.Int("gaps", len(gaps)),
			slog.Int("neighbors", neighbors))
	} else {
		s.logger.InfoContext(ctx, "imputation complete",
			slog.Int("filled_cells", m.MissingTotal()),
			slog.Int("neighbors", neighbors))
	}

	if err := s.writer.WriteMatrix(exporter.ImputedFile, imputed); err != nil {
		return err
	}

	state.Set(stateKeyImputed, imputed)
	state.Set(stateKeyGaps, gaps)
	return nil
}

// selectedNeighbors takes the validated neighbor count from the run state or,
// for a standalone run, from the persisted validation artifact.
func (s *ImputeStep) selectedNeighbors(state *operations.State) (int, error) {
	if value, ok := state.Get(stateKeyValidation); ok {
		result, ok := value.(*domain.ValidationResult)
		if !ok {
			return 0, fmt.Errorf("run state: unexpected validation payload %T", value)
		}
		return result.BestNeighbors, nil
	}

	var result domain.ValidationResult
	if err := exporter.ReadJSON(s.writer.Path(exporter.ValidationFile), &result); err != nil {
		return 0, fmt.Errorf("no validation result available, run the validate step first: %w", err)
	}
	if result.BestNeighbors < 1 {
		return 0, fmt.Errorf("persisted validation result has no usable neighbor count")
	}
	return result.BestNeighbors, nil
}

// AnalyzeStep computes per-mutation summaries and the aggregate views.
type AnalyzeStep struct {
	cfg    config.AnalysisConfig
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewAnalyzeStep creates the summary step.
func NewAnalyzeStep(cfg config.AnalysisConfig, writer *exporter.CSVWriter, logger *slog.Logger) *AnalyzeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyzeStep{
		cfg:    cfg,
		writer: writer,
		logger: logger.With(slog.String("step", StepIDAnalyze)),
	}
}

func (s *AnalyzeStep) ID() string   { return StepIDAnalyze }
func (s *AnalyzeStep) Name() string { return "Analyze Effects" }

func (s *AnalyzeStep) Execute(ctx context.Context, state *operations.State) error {
	m, err := matrixFromState(state, stateKeyImputed, s.writer.Path(exporter.ImputedFile))
	if err != nil {
		return err
	}

	if gaps := matrixGaps(state, m); len(gaps) > 0 {
		return &effect.GapError{Gaps: gaps}
	}

	summaries, err := effect.Summarize(m, thresholdsFromConfig(s.cfg))
	if err != nil {
		return err
	}

	distribution := effect.Distribution(summaries)
	significant := effect.Significant(summaries, s.cfg.TopN)

	s.logger.InfoContext(ctx, "analysis complete",
		slog.Int("mutations", distribution.TotalMutations),
		slog.Int("deleterious", distribution.DeleteriousCount),
		slog.Int("neutral", distribution.NeutralCount),
		slog.Int("beneficial", distribution.BeneficialCount),
		slog.Int("high_consistency", distribution.HighConsistencyCount))

	if err := s.writer.WriteSummaries(exporter.AnalysisFile, summaries); err != nil {
		return err
	}

	summary := AnalysisSummary{
		GeneratedAt:  time.Now().UTC(),
		Distribution: distribution,
		Significant:  significant,
	}
	return s.writer.WriteJSON(exporter.SummaryFile, summary)
}

// AnalysisSummary is the persisted aggregate view of one analysis.
type AnalysisSummary struct {
	GeneratedAt  time.Time                    `json:"generated_at"`
	Distribution domain.EffectDistribution    `json:"distribution"`
	Significant  domain.SignificantMutations  `json:"significant_mutations"`
}

// thresholdsFromConfig maps the config section onto the numeric thresholds.
func thresholdsFromConfig(cfg config.AnalysisConfig) effect.Thresholds {
	return effect.Thresholds{
		StrongDeleteriousMax: cfg.StrongDeleteriousMax,
		DeleteriousMax:       cfg.DeleteriousMax,
		BeneficialMin:        cfg.BeneficialMin,
		StrongBeneficialMin:  cfg.StrongBeneficialMin,
		HighConsistency:      cfg.HighConsistency,
	}
}

// matrixFromState resolves a matrix from the run state, falling back to the
// persisted artifact so a step can run without its predecessors in the same
// process.
func matrixFromState(state *operations.State, key, path string) (*effect.Matrix, error) {
	if value, ok := state.Get(key); ok {
		m, ok := value.(*effect.Matrix)
		if !ok {
			return nil, fmt.Errorf("run state: unexpected matrix payload %T under %q", value, key)
		}
		return m, nil
	}
	m, err := exporter.ReadMatrix(path)
	if err != nil {
		return nil, fmt.Errorf("no matrix available, run the process step first: %w", err)
	}
	return m, nil
}

// matrixGaps returns the recorded imputation gaps, recomputing them from the
// matrix when the impute step ran in another process.
func matrixGaps(state *operations.State, m *effect.Matrix) []effect.Gap {
	if value, ok := state.Get(stateKeyGaps); ok {
		if gaps, ok := value.([]effect.Gap); ok {
			return gaps
		}
	}
	var gaps []effect.Gap
	for row := range m.Values {
		for col := range m.Values[row] {
			if !m.Present(row, col) {
				gaps = append(gaps, effect.Gap{
					Mutation:   m.Mutations[row],
					Experiment: m.Experiments[col],
				})
			}
		}
	}
	return gaps
}
