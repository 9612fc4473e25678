// Package effect implements the numeric core of the variant effect pipeline:
// assembling the sparse mutation-by-experiment z-score matrix, coverage
// filtering, cross-validated selection of the kNN imputation parameter,
// missing-value imputation, and per-mutation effect summarization.
//
// Every component is a stateless transformation over an in-memory Matrix;
// callers own all I/O. Fold seeding is a pure function of the fold index so
// repeated runs are bit-reproducible.
package effect
