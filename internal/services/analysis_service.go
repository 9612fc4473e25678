package services

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"mavecli/internal/config"
	"mavecli/internal/effect"
	"mavecli/internal/exporter"
	"mavecli/pkg/contracts/domain"
)

// ErrResultNotReady indicates a requested artifact has not been produced yet.
var ErrResultNotReady = errors.New("analysis results are not available yet")

// AnalysisService serves pipeline artifacts to the transport layer. It reads
// from the results directory on each call; the artifacts are small and this
// keeps the service consistent with runs triggered from other processes.
type AnalysisService struct {
	cfg    config.AnalysisConfig
	writer *exporter.CSVWriter
	logger *slog.Logger
}

// NewAnalysisService creates the artifact access service.
func NewAnalysisService(cfg config.AnalysisConfig, writer *exporter.CSVWriter, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		cfg:    cfg,
		writer: writer,
		logger: logger.With(slog.String("service", "analysis")),
	}
}

// Coverage returns the coverage report of the last process step.
func (s *AnalysisService) Coverage() (*domain.CoverageReport, error) {
	var report domain.CoverageReport
	if err := s.readJSON(exporter.CoverageFile, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Validation returns the parameter selection result of the last validate step.
func (s *AnalysisService) Validation() (*domain.ValidationResult, error) {
	var result domain.ValidationResult
	if err := s.readJSON(exporter.ValidationFile, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Summary returns the aggregate view of the last analyze step.
func (s *AnalysisService) Summary() (*AnalysisSummary, error) {
	var summary AnalysisSummary
	if err := s.readJSON(exporter.SummaryFile, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Summaries recomputes the per-mutation summaries from the imputed matrix.
func (s *AnalysisService) Summaries() ([]domain.MutationSummary, error) {
	m, err := s.readMatrix(exporter.ImputedFile)
	if err != nil {
		return nil, err
	}
	summaries, err := effect.Summarize(m, thresholdsFromConfig(s.cfg))
	if err != nil {
		return nil, fmt.Errorf("summarize imputed matrix: %w", err)
	}
	return summaries, nil
}

// Top returns the n highest-ranked mutations for the given metric.
func (s *AnalysisService) Top(metric effect.RankMetric, n int) ([]domain.MutationSummary, error) {
	summaries, err := s.Summaries()
	if err != nil {
		return nil, err
	}
	return effect.TopN(summaries, metric, n)
}

// Heatmap returns the filtered matrix in long form for the web chart.
func (s *AnalysisService) Heatmap() ([]effect.HeatmapCell, error) {
	m, err := s.readMatrix(exporter.MatrixFile)
	if err != nil {
		return nil, err
	}
	return effect.Unpivot(m), nil
}

func (s *AnalysisService) readJSON(name string, v any) error {
	if err := exporter.ReadJSON(s.writer.Path(name), v); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", name, ErrResultNotReady)
		}
		return err
	}
	return nil
}

func (s *AnalysisService) readMatrix(name string) (*effect.Matrix, error) {
	m, err := exporter.ReadMatrix(s.writer.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrResultNotReady)
		}
		return nil, err
	}
	return m, nil
}
