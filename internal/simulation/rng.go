package simulation

import (
	"errors"
	"math"
	"math/rand"
)

// ErrInvalidParameter is returned when a simulation input is outside its domain.
var ErrInvalidParameter = errors.New("invalid simulation parameter")

// newRand returns the pseudorandom stream for one simulation run.
// Identical seeds always produce identical streams.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func drawNormal(rng *rand.Rand, mean, stddev float64) float64 {
	return mean + stddev*rng.NormFloat64()
}

// drawLogNormal samples exp(mu + sigma*Z).
func drawLogNormal(rng *rand.Rand, mu, sigma float64) float64 {
	return math.Exp(mu + sigma*rng.NormFloat64())
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
