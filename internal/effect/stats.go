package effect

import (
	"math"
)

// mean returns the arithmetic mean. ok is false for an empty input.
func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// sampleStd returns the sample (n-1) standard deviation. ok is false when
// fewer than two values are available.
func sampleStd(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	m, _ := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1)), true
}

// meanSquaredError returns the MSE between paired slices. ok is false for
// empty input; the slices must be the same length.
func meanSquaredError(truth, predicted []float64) (float64, bool) {
	if len(truth) == 0 || len(truth) != len(predicted) {
		return 0, false
	}
	sum := 0.0
	for i := range truth {
		d := truth[i] - predicted[i]
		sum += d * d
	}
	return sum / float64(len(truth)), true
}

// rSquared returns the coefficient of determination of predicted against
// truth. A zero-variance truth vector yields 0 (a defined sentinel, not NaN);
// ok is false only for empty input.
func rSquared(truth, predicted []float64) (float64, bool) {
	if len(truth) == 0 || len(truth) != len(predicted) {
		return 0, false
	}
	m, _ := mean(truth)
	ssRes, ssTot := 0.0, 0.0
	for i := range truth {
		r := truth[i] - predicted[i]
		d := truth[i] - m
		ssRes += r * r
		ssTot += d * d
	}
	if ssTot == 0 {
		return 0, true
	}
	return 1 - ssRes/ssTot, true
}
