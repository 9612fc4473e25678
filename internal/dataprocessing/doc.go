// Package dataprocessing turns raw assay score files into normalized atomic
// mutation records ready for matrix assembly.
//
// It discovers CSV and Excel score files, tags every row with an experiment
// id derived from its filename, explodes compound HGVS notation into atomic
// mutations, and rescales raw scores into within-experiment z-scores.
// Zero-variance experiments are reported as degenerate rather than failing
// the run; their z-scores stay undefined and read as absent downstream.
package dataprocessing
