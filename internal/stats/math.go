package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Summary describes the spread of one sampled attribute across a cohort.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := mstats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// CalculateMedianContinuous finds the median value in a slice of floats.
func CalculateMedianContinuous(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, err := mstats.Median(values)
	if err != nil {
		return 0
	}
	return m
}

// Summarize computes the descriptive statistics used by charts and narratives.
// The input slice is never reordered.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{
		Count:  len(values),
		Mean:   Mean(values),
		Median: CalculateMedianContinuous(values),
	}

	// Sample deviation is undefined for a single observation.
	if len(values) > 1 {
		if sd, err := mstats.StandardDeviationSample(values); err == nil && !math.IsNaN(sd) {
			s.StdDev = sd
		}
	}
	if p, err := mstats.Percentile(values, 10); err == nil {
		s.P10 = p
	}
	if p, err := mstats.Percentile(values, 90); err == nil {
		s.P90 = p
	}
	if v, err := mstats.Min(values); err == nil {
		s.Min = v
	}
	if v, err := mstats.Max(values); err == nil {
		s.Max = v
	}
	return s
}

// Ratio divides numerator by denominator, returning 0 when the denominator is 0.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
