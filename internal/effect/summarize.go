package effect

import (
	"fmt"
	"sort"

	"mavecli/pkg/contracts/domain"
)

// Summarize computes per-mutation effect statistics and categorical calls
// from a dense matrix. The matrix must contain no undefined cells; if
// imputation left gaps the caller gets an error naming how many, never a
// silently skewed summary.
func Summarize(m *Matrix, thresholds Thresholds) ([]domain.MutationSummary, error) {
	if !thresholds.IsValid() {
		return nil, fmt.Errorf("invalid effect thresholds: %+v", thresholds)
	}
	if missing := m.MissingTotal(); missing > 0 {
		return nil, fmt.Errorf("matrix is not dense: %d undefined cells remain", missing)
	}

	summaries := make([]domain.MutationSummary, 0, m.Rows())
	for row := range m.Values {
		meanEffect, _ := mean(m.Values[row])
		stdEffect, ok := sampleStd(m.Values[row])
		if !ok {
			stdEffect = 0
		}
		consistency := 1 / (1 + stdEffect)
		summaries = append(summaries, domain.MutationSummary{
			Mutation:        m.Mutations[row],
			MeanEffect:      meanEffect,
			StdEffect:       stdEffect,
			Consistency:     consistency,
			Category:        Categorize(meanEffect, thresholds),
			HighConsistency: consistency >= thresholds.HighConsistency,
		})
	}
	return summaries, nil
}

// Categorize maps a mean effect onto exactly one of the five categories.
// Boundary semantics are part of the consumer contract: the strong-deleterious
// and strong-beneficial boundaries are inclusive, the neutral band is open.
func Categorize(meanEffect float64, t Thresholds) domain.EffectCategory {
	switch {
	case meanEffect <= t.StrongDeleteriousMax:
		return domain.CategoryStrongDeleterious
	case meanEffect <= t.DeleteriousMax:
		return domain.CategoryDeleterious
	case meanEffect < t.BeneficialMin:
		return domain.CategoryNeutral
	case meanEffect < t.StrongBeneficialMin:
		return domain.CategoryBeneficial
	default:
		return domain.CategoryStrongBeneficial
	}
}

// Distribution aggregates summaries into headline counts and averages.
func Distribution(summaries []domain.MutationSummary) domain.EffectDistribution {
	dist := domain.EffectDistribution{TotalMutations: len(summaries)}
	if len(summaries) == 0 {
		return dist
	}

	meanSum, stdSum := 0.0, 0.0
	for _, s := range summaries {
		switch s.Category {
		case domain.CategoryStrongDeleterious, domain.CategoryDeleterious:
			dist.DeleteriousCount++
		case domain.CategoryNeutral:
			dist.NeutralCount++
		default:
			dist.BeneficialCount++
		}
		if s.HighConsistency {
			dist.HighConsistencyCount++
		}
		meanSum += s.MeanEffect
		stdSum += s.StdEffect
	}
	dist.MeanEffect = meanSum / float64(len(summaries))
	dist.MeanStdEffect = stdSum / float64(len(summaries))
	return dist
}

// RankMetric selects the statistic a top-N extraction ranks by.
type RankMetric string

const (
	RankMostDeleterious RankMetric = "most_deleterious"
	RankMostBeneficial  RankMetric = "most_beneficial"
	RankMostVariable    RankMetric = "most_variable"
	RankMostConsistent  RankMetric = "most_consistent"
)

// TopN returns the n highest-ranked summaries for the given metric. Ranking
// is stable: ties keep their original row order. The input is not modified.
func TopN(summaries []domain.MutationSummary, metric RankMetric, n int) ([]domain.MutationSummary, error) {
	var less func(a, b domain.MutationSummary) bool
	switch metric {
	case RankMostDeleterious:
		less = func(a, b domain.MutationSummary) bool { return a.MeanEffect < b.MeanEffect }
	case RankMostBeneficial:
		less = func(a, b domain.MutationSummary) bool { return a.MeanEffect > b.MeanEffect }
	case RankMostVariable:
		less = func(a, b domain.MutationSummary) bool { return a.StdEffect > b.StdEffect }
	case RankMostConsistent:
		less = func(a, b domain.MutationSummary) bool { return a.Consistency > b.Consistency }
	default:
		return nil, fmt.Errorf("unknown rank metric %q", metric)
	}

	ranked := make([]domain.MutationSummary, len(summaries))
	copy(ranked, summaries)
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })

	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	return ranked[:n], nil
}

// Significant extracts all four ranked top-N views in one call.
func Significant(summaries []domain.MutationSummary, n int) domain.SignificantMutations {
	deleterious, _ := TopN(summaries, RankMostDeleterious, n)
	beneficial, _ := TopN(summaries, RankMostBeneficial, n)
	variable, _ := TopN(summaries, RankMostVariable, n)
	consistent, _ := TopN(summaries, RankMostConsistent, n)
	return domain.SignificantMutations{
		MostDeleterious: deleterious,
		MostBeneficial:  beneficial,
		MostVariable:    variable,
		MostConsistent:  consistent,
	}
}

// HeatmapCell is one present value of the matrix in long form, the shape the
// web chart consumes.
type HeatmapCell struct {
	Mutation   string  `json:"mutation"`
	Experiment string  `json:"experiment_id"`
	ZScore     float64 `json:"z_score"`
}

// Unpivot flattens a matrix into long-form cells, skipping absent entries.
// Rows stream out in row-major label order.
func Unpivot(m *Matrix) []HeatmapCell {
	var cells []HeatmapCell
	for row := range m.Values {
		for col := range m.Values[row] {
			if !m.Present(row, col) {
				continue
			}
			cells = append(cells, HeatmapCell{
				Mutation:   m.Mutations[row],
				Experiment: m.Experiments[col],
				ZScore:     m.Values[row][col],
			})
		}
	}
	return cells
}
