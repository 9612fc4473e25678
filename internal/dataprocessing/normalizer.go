package dataprocessing

import (
	"log/slog"
	"math"

	"mavecli/pkg/contracts/domain"
)

// ExperimentStats describes one experiment's score distribution as seen by
// the normalizer.
type ExperimentStats struct {
	ExperimentID string  `json:"experiment_id"`
	Records      int     `json:"records"`
	Mean         float64 `json:"mean"`
	Std          float64 `json:"std"`
	Degenerate   bool    `json:"degenerate"`
}

// NormalizationReport summarizes a normalization pass: per-experiment
// statistics plus the degenerate experiments whose z-scores are undefined.
type NormalizationReport struct {
	Experiments []ExperimentStats
	Degenerate  []*DegenerateExperimentError
}

// Normalizer rescales raw scores into within-experiment z-scores.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize sets each record's z-score to (score - mean) / std, with mean and
// sample (n-1) standard deviation computed over all records sharing the
// record's experiment id. Scores are never compared in raw form across
// experiments.
//
// Two passes: experiments are first reduced to (mean, std), then every member
// is mapped through the formula. Experiments with fewer than two records or
// zero variance get NaN z-scores for all members; they are logged as warnings
// and listed in the report, and NaN reads as absent everywhere downstream.
func (n *Normalizer) Normalize(records []domain.MutationRecord) ([]domain.MutationRecord, NormalizationReport) {
	byExperiment := make(map[string][]int)
	var order []string
	for i, rec := range records {
		if _, seen := byExperiment[rec.ExperimentID]; !seen {
			order = append(order, rec.ExperimentID)
		}
		byExperiment[rec.ExperimentID] = append(byExperiment[rec.ExperimentID], i)
	}

	normalized := make([]domain.MutationRecord, len(records))
	copy(normalized, records)

	var report NormalizationReport
	for _, experimentID := range order {
		indices := byExperiment[experimentID]

		scores := make([]float64, len(indices))
		for i, idx := range indices {
			scores[i] = records[idx].Score
		}
		m := scoreMean(scores)
		std := scoreSampleStd(scores, m)

		stats := ExperimentStats{
			ExperimentID: experimentID,
			Records:      len(indices),
			Mean:         m,
			Std:          std,
		}

		if len(indices) < 2 || std == 0 {
			stats.Degenerate = true
			degErr := &DegenerateExperimentError{ExperimentID: experimentID, Records: len(indices)}
			report.Degenerate = append(report.Degenerate, degErr)
			n.logger.Warn("degenerate experiment: z-scores undefined",
				slog.String("experiment_id", experimentID),
				slog.Int("records", len(indices)))
			for _, idx := range indices {
				normalized[idx].ZScore = math.NaN()
			}
		} else {
			for _, idx := range indices {
				normalized[idx].ZScore = (records[idx].Score - m) / std
			}
		}
		report.Experiments = append(report.Experiments, stats)
	}

	n.logger.Info("z-scores calculated within each experiment",
		slog.Int("experiments", len(order)),
		slog.Int("degenerate", len(report.Degenerate)),
		slog.Int("records", len(records)))
	return normalized, report
}

func scoreMean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

func scoreSampleStd(scores []float64, mean float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, s := range scores {
		d := s - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(scores)-1))
}
