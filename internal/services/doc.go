// Package services wires the numeric pipeline into runnable steps and exposes
// the resulting artifacts to the transport layer. The four steps (process,
// validate, impute, analyze) pass intermediate matrices through the run state
// and persist every artifact to the results directory, so each step can also
// run standalone against the previous step's files.
package services
