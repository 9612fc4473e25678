// Package exporter persists pipeline artifacts: the normalized effect matrix
// (wide and long form), the imputed dense matrix, coverage and validation
// reports, and the per-mutation analysis summary. On-disk encoding lives
// entirely here; the numeric core only ever sees typed in-memory values.
package exporter
