package session

import (
	"errors"
	"fmt"
	"math/rand"
)

// MaxOffset bounds the random increment applied on re-simulation.
const MaxOffset = 10000

// ErrUnknownComponent is returned for a component name that has no seed.
var ErrUnknownComponent = errors.New("unknown component")

// Component identifies which stochastic demonstration a seed belongs to.
type Component string

const (
	RiskPool Component = "risk_pool"
	Cohorts  Component = "cohorts"
)

// ParseComponent validates a component name coming from a client.
func ParseComponent(name string) (Component, error) {
	switch Component(name) {
	case RiskPool, Cohorts:
		return Component(name), nil
	default:
		return "", fmt.Errorf("%w %q (expected %q or %q)", ErrUnknownComponent, name, RiskPool, Cohorts)
	}
}

// RiskPoolBaseSeed derives the deterministic part of the risk pool seed.
func RiskPoolBaseSeed(accidentProbability float64, populationSize int) int64 {
	return int64(accidentProbability*10000 + float64(populationSize))
}

// CohortBaseSeed derives the deterministic part of the cohort comparison seed.
func CohortBaseSeed(baseFrequency, baseSeverity, freqMultiplier, severityMultiplier float64) int64 {
	return int64(baseFrequency*10000 + baseSeverity + freqMultiplier*100 + severityMultiplier*100)
}

// SeedInfo records how a simulation seed was assembled.
type SeedInfo struct {
	Seed   int64 `json:"seed"`
	Base   int64 `json:"base"`
	Offset int64 `json:"offset"`
}

// SeedOffset is the user-controlled perturbation of a seed. The zero value is a
// valid, unperturbed offset.
type SeedOffset struct {
	value int64
}

// Value returns the current offset.
func (o SeedOffset) Value() int64 {
	return o.value
}

// Seed combines a parameter-derived base with the offset.
func (o SeedOffset) Seed(base int64) SeedInfo {
	return SeedInfo{Seed: base + o.value, Base: base, Offset: o.value}
}

// Resimulate returns a new offset drawn uniformly from [1, MaxOffset].
func (o SeedOffset) Resimulate(r *rand.Rand) SeedOffset {
	return SeedOffset{value: int64(r.Intn(MaxOffset)) + 1}
}
