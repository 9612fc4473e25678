package domain

// RawRecord is one row of an assay score file: a (possibly compound) protein
// notation and its raw score, tagged with the experiment that produced it.
type RawRecord struct {
	ExperimentID string  `json:"experiment_id" validate:"required"`
	Notation     string  `json:"hgvs_pro"`
	Score        float64 `json:"score"`
}

// MutationRecord is a RawRecord exploded to a single atomic mutation and
// carrying the within-experiment z-score of its raw score.
type MutationRecord struct {
	Mutation     string  `json:"mutation" validate:"required"`
	ExperimentID string  `json:"experiment_id" validate:"required"`
	Score        float64 `json:"score"`
	ZScore       float64 `json:"z_score"`
}

// CoverageReport describes how densely mutations are observed across
// experiments, before and after coverage filtering.
type CoverageReport struct {
	TotalMutations     int     `json:"total_mutations"`
	RetainedMutations  int     `json:"well_covered_mutations"`
	CoverageThreshold  int     `json:"coverage_threshold"`
	TotalCoverage      float64 `json:"total_coverage_pct"`
	RetainedCoverage   float64 `json:"well_covered_coverage_pct"`
	ExperimentCount    int     `json:"experiment_count"`
}

// CandidateMetrics holds cross-validation accuracy for one neighbor count.
type CandidateMetrics struct {
	Neighbors  int     `json:"n_neighbors"`
	MSE        float64 `json:"mse"`
	R2         float64 `json:"r2"`
	ValidFolds int     `json:"valid_folds"`
}

// ValidationResult is the outcome of imputation parameter selection: the
// winning neighbor count and the full per-candidate metric table.
type ValidationResult struct {
	BestNeighbors int                `json:"best_n_neighbors"`
	BestMSE       float64            `json:"best_mse"`
	BestR2        float64            `json:"best_r2"`
	Candidates    []CandidateMetrics `json:"candidates"`
}

// EffectCategory labels a mutation by the size of its mean effect.
type EffectCategory string

const (
	CategoryStrongDeleterious EffectCategory = "Strong Deleterious"
	CategoryDeleterious       EffectCategory = "Deleterious"
	CategoryNeutral           EffectCategory = "Neutral"
	CategoryBeneficial        EffectCategory = "Beneficial"
	CategoryStrongBeneficial  EffectCategory = "Strong Beneficial"
)

// MutationSummary is the per-mutation output of the pipeline: reconciled
// effect statistics and a categorical call. Immutable once computed.
type MutationSummary struct {
	Mutation        string         `json:"mutation"`
	MeanEffect      float64        `json:"mean_effect"`
	StdEffect       float64        `json:"std_effect"`
	Consistency     float64        `json:"consistency_score"`
	Category        EffectCategory `json:"effect_category"`
	HighConsistency bool           `json:"high_consistency"`
}

// EffectDistribution aggregates summaries into the headline counts used by
// reporting consumers.
type EffectDistribution struct {
	TotalMutations       int     `json:"total_mutations"`
	DeleteriousCount     int     `json:"deleterious_count"`
	NeutralCount         int     `json:"neutral_count"`
	BeneficialCount      int     `json:"beneficial_count"`
	HighConsistencyCount int     `json:"high_consistency_count"`
	MeanEffect           float64 `json:"mean_effect"`
	MeanStdEffect        float64 `json:"std_effect"`
}

// SignificantMutations holds the ranked top-N extracts consumers display.
type SignificantMutations struct {
	MostDeleterious []MutationSummary `json:"most_deleterious"`
	MostBeneficial  []MutationSummary `json:"most_beneficial"`
	MostVariable    []MutationSummary `json:"most_variable"`
	MostConsistent  []MutationSummary `json:"most_consistent"`
}
