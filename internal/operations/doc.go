// Package operations runs the variant effect pipeline as an ordered sequence
// of named steps: process, validate, impute, analyze. A Manager executes the
// steps of a run, records per-step state, exposes Prometheus counters, traces
// each step, and broadcasts progress to any attached observer (the WebSocket
// hub in the web server). Steps exchange intermediate results through the
// run's shared state, never through package globals.
package operations
