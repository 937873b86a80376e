package simulation

import (
	"fmt"
	"math"
)

// ClaimAmount is the fixed cost of a single loss event in the risk pool.
const ClaimAmount = 20000.0

// MaxPopulation bounds the number of simulated members of a single run.
const MaxPopulation = 1_000_000

// z-score of the one-sided 99% normal bound.
const confidenceZ99 = 2.576

// PolicyholderOutcome is one simulated individual in the pool.
type PolicyholderOutcome struct {
	HadLoss bool    `json:"had_loss"`
	Cost    float64 `json:"cost"`
}

// RiskPoolResult holds the outcome of a single risk pooling simulation.
type RiskPoolResult struct {
	AccidentProbability float64               `json:"accident_probability"`
	PopulationSize      int                   `json:"population_size"`
	Seed                int64                 `json:"seed"`
	Outcomes            []PolicyholderOutcome `json:"-"`

	NumWithLoss       int     `json:"num_with_loss"`
	PercentWithLoss   float64 `json:"percent_with_loss"`
	FairPremium       float64 `json:"fair_premium"`
	TotalLosses       float64 `json:"total_losses"`
	PoolPremiumTotal  float64 `json:"pool_premium_total"`
	PoolPerformance   float64 `json:"pool_performance"`
	MaxExpectedClaims float64 `json:"max_expected_claims"`
}

// SimulateRiskPool draws one loss/no-loss outcome per policyholder and compares
// the pooled premium income against the realised claims.
func SimulateRiskPool(accidentProbability float64, populationSize int, seed int64) (RiskPoolResult, error) {
	if math.IsNaN(accidentProbability) || accidentProbability <= 0 || accidentProbability > 1 {
		return RiskPoolResult{}, fmt.Errorf("%w: accident probability must be in (0, 1], got %v", ErrInvalidParameter, accidentProbability)
	}
	if populationSize <= 0 || populationSize > MaxPopulation {
		return RiskPoolResult{}, fmt.Errorf("%w: population size must be between 1 and %d, got %d", ErrInvalidParameter, MaxPopulation, populationSize)
	}

	rng := newRand(seed)

	outcomes := make([]PolicyholderOutcome, populationSize)
	numWithLoss := 0
	totalLosses := 0.0
	for i := range outcomes {
		if rng.Float64() < accidentProbability {
			outcomes[i] = PolicyholderOutcome{HadLoss: true, Cost: ClaimAmount}
			numWithLoss++
			totalLosses += ClaimAmount
		}
	}

	fairPremium := accidentProbability * ClaimAmount
	poolPremiumTotal := fairPremium * float64(populationSize)

	return RiskPoolResult{
		AccidentProbability: accidentProbability,
		PopulationSize:      populationSize,
		Seed:                seed,
		Outcomes:            outcomes,
		NumWithLoss:         numWithLoss,
		PercentWithLoss:     float64(numWithLoss) / float64(populationSize) * 100,
		FairPremium:         fairPremium,
		TotalLosses:         totalLosses,
		PoolPremiumTotal:    poolPremiumTotal,
		PoolPerformance:     totalLosses / poolPremiumTotal,
		MaxExpectedClaims:   MaxExpectedClaims(populationSize, accidentProbability),
	}, nil
}

// MaxExpectedClaims is the 99% one-sided bound on the number of claims, using the
// normal approximation to the binomial with continuity correction.
// It only scales charts; no statistic depends on it.
func MaxExpectedClaims(n int, p float64) float64 {
	fn := float64(n)
	return fn*p + confidenceZ99*math.Sqrt(fn*p*(1-p)) + 0.5
}

// MaxExpectedLoss converts the claim bound into currency.
func (r RiskPoolResult) MaxExpectedLoss() float64 {
	return r.MaxExpectedClaims * ClaimAmount
}

// ChartCeiling is the y-axis maximum of the insurer perspective chart.
func (r RiskPoolResult) ChartCeiling() float64 {
	return math.Max(r.MaxExpectedLoss(), r.TotalLosses) * 1.1
}

// Surplus is premium income minus claims; negative values are a deficit.
func (r RiskPoolResult) Surplus() float64 {
	return r.PoolPremiumTotal - r.TotalLosses
}

// InSurplus reports whether the pool collected more than it paid out.
func (r RiskPoolResult) InSurplus() bool {
	return r.PoolPerformance < 1
}

// Stats returns the named statistics consumed by the presentation layer.
// Key names are a compatibility contract.
func (r RiskPoolResult) Stats() map[string]any {
	return map[string]any{
		"num_with_loss":               r.NumWithLoss,
		"percent_with_loss":           r.PercentWithLoss,
		"displayed_num_with_loss":     r.NumWithLoss,
		"displayed_percent_with_loss": r.PercentWithLoss,
		"display_n":                   r.PopulationSize,
		"fair_premium":                r.FairPremium,
		"total_losses":                r.TotalLosses,
		"pool_premium_total":          r.PoolPremiumTotal,
		"pool_performance":            r.PoolPerformance,
		"max_expected_claims":         r.MaxExpectedClaims,
		"max_expected_loss":           r.MaxExpectedLoss(),
		"surplus":                     r.Surplus(),
		"seed":                        r.Seed,
	}
}
