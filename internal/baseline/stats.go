package baseline

import (
	"math"
	"sort"
)

// percentile calculates the p-th percentile of sorted data using
// linear interpolation. p should be between 0 and 100.
func percentile(sortedData []float64, p float64) float64 {
	if len(sortedData) == 0 {
		return 0
	}
	if len(sortedData) == 1 {
		return sortedData[0]
	}

	index := (p / 100) * float64(len(sortedData)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedData) {
		return sortedData[len(sortedData)-1]
	}

	// Linear interpolation between the two nearest ranks
	weight := index - float64(lower)
	return sortedData[lower]*(1-weight) + sortedData[upper]*weight
}

// quartiles returns Q1 and Q3 for a slice of values.
// The input slice is not modified.
func quartiles(values []float64) (q1, q3 float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 = percentile(sorted, 25)
	q3 = percentile(sorted, 75)
	return q1, q3
}

// meanStdDev calculates mean and population standard deviation
// (divisor N, not N-1) for a slice of values.
func meanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var varianceSum float64
	for _, v := range values {
		diff := v - mean
		varianceSum += diff * diff
	}
	stdDev = math.Sqrt(varianceSum / float64(len(values)))

	return mean, stdDev
}
