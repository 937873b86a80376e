package simulation

import (
	"fmt"
	"math"
	"math/rand"

	"insurance-mcp/internal/stats"
)

const (
	// CohortPopulation is the number of simulated members per cohort.
	CohortPopulation = 200

	// MinFrequency floors sampled frequencies to keep rates physical.
	MinFrequency = 0.001

	// FrequencySpread is the standard deviation of member frequencies as a share of the target.
	FrequencySpread = 0.3

	// FirstCohortSigma and SecondCohortSigma shape the severity distributions.
	// Riskier members show more claim-cost variance.
	FirstCohortSigma  = 0.4
	SecondCohortSigma = 0.6
)

// CohortParams are the inputs of a two-cohort comparison.
// The first cohort uses the base rates, the second scales them by the multipliers.
type CohortParams struct {
	BaseFrequency      float64 `json:"base_frequency"`
	BaseSeverity       float64 `json:"base_severity"`
	FreqMultiplier     float64 `json:"freq_multiplier"`
	SeverityMultiplier float64 `json:"severity_multiplier"`
	Seed               int64   `json:"seed"`
	// Population overrides CohortPopulation when positive.
	Population int `json:"population,omitempty"`
}

// SecondTargetFrequency is the frequency the second cohort is drawn around.
func (p CohortParams) SecondTargetFrequency() float64 {
	return p.BaseFrequency * p.FreqMultiplier
}

// SecondTargetSeverity is the severity the second cohort is drawn around.
func (p CohortParams) SecondTargetSeverity() float64 {
	return p.BaseSeverity * p.SeverityMultiplier
}

func (p CohortParams) population() int {
	if p.Population > 0 {
		return p.Population
	}
	return CohortPopulation
}

// Validate checks that every parameter is inside its domain.
func (p CohortParams) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"base frequency", p.BaseFrequency},
		{"base severity", p.BaseSeverity},
		{"frequency multiplier", p.FreqMultiplier},
		{"severity multiplier", p.SeverityMultiplier},
	}
	for _, c := range checks {
		if !isFinite(c.value) || c.value <= 0 {
			return fmt.Errorf("%w: %s must be a positive number, got %v", ErrInvalidParameter, c.name, c.value)
		}
	}
	if p.Population < 0 || p.Population > MaxPopulation {
		return fmt.Errorf("%w: population must be between 0 and %d, got %d", ErrInvalidParameter, MaxPopulation, p.Population)
	}
	if !isFinite(p.SecondTargetFrequency()) || !isFinite(p.SecondTargetSeverity()) {
		return fmt.Errorf("%w: second cohort targets overflow (frequency %v, severity %v)",
			ErrInvalidParameter, p.SecondTargetFrequency(), p.SecondTargetSeverity())
	}
	return nil
}

// CohortStatistics aggregates the sampled members of one cohort.
type CohortStatistics struct {
	TargetFrequency float64 `json:"target_frequency"`
	TargetSeverity  float64 `json:"target_severity"`
	Sigma           float64 `json:"sigma"`
	Population      int     `json:"population"`

	// Per-member samples, kept for plotting.
	Frequencies []float64 `json:"frequencies"`
	Severities  []float64 `json:"severities"`

	AvgFrequency      float64       `json:"avg_frequency"`
	AvgSeverity       float64       `json:"avg_severity"`
	TotalExpectedLoss float64       `json:"total_expected_loss"`
	FrequencySummary  stats.Summary `json:"frequency_summary"`
	SeveritySummary   stats.Summary `json:"severity_summary"`
}

// ExpectedCostPerMember is the average frequency times the average severity.
func (c CohortStatistics) ExpectedCostPerMember() float64 {
	return c.AvgFrequency * c.AvgSeverity
}

// CohortComparison is the result of simulating both cohorts.
type CohortComparison struct {
	Params CohortParams     `json:"params"`
	First  CohortStatistics `json:"first"`
	Second CohortStatistics `json:"second"`

	// Observed sample ratios (second / first). They differ from the input
	// multipliers by sampling noise.
	FreqMultiplier     float64 `json:"freq_multiplier"`
	SeverityMultiplier float64 `json:"severity_multiplier"`
	LossMultiplier     float64 `json:"loss_multiplier"`
}

// CompareCohorts simulates two cohorts with distinct frequency and severity
// distributions from a single seeded stream.
func CompareCohorts(params CohortParams) (CohortComparison, error) {
	if err := params.Validate(); err != nil {
		return CohortComparison{}, err
	}

	n := params.population()
	rng := newRand(params.Seed)

	firstFreqTarget := params.BaseFrequency
	secondFreqTarget := params.SecondTargetFrequency()
	firstSevTarget := params.BaseSeverity
	secondSevTarget := params.SecondTargetSeverity()

	// Draw order is fixed: frequencies first, then severities.
	firstFreqs := sampleFrequencies(rng, firstFreqTarget, n)
	secondFreqs := sampleFrequencies(rng, secondFreqTarget, n)
	firstSevs := sampleSeverities(rng, firstSevTarget, FirstCohortSigma, n)
	secondSevs := sampleSeverities(rng, secondSevTarget, SecondCohortSigma, n)

	first := buildCohortStatistics(firstFreqTarget, firstSevTarget, FirstCohortSigma, firstFreqs, firstSevs)
	second := buildCohortStatistics(secondFreqTarget, secondSevTarget, SecondCohortSigma, secondFreqs, secondSevs)

	cmp := CohortComparison{
		Params:             params,
		First:              first,
		Second:             second,
		FreqMultiplier:     stats.Ratio(second.AvgFrequency, first.AvgFrequency),
		SeverityMultiplier: stats.Ratio(second.AvgSeverity, first.AvgSeverity),
		LossMultiplier:     stats.Ratio(second.TotalExpectedLoss, first.TotalExpectedLoss),
	}
	if err := cmp.checkFinite(); err != nil {
		return CohortComparison{}, err
	}
	return cmp, nil
}

// checkFinite rejects runs whose samples overflowed, which happens for
// severities near the float64 limit.
func (c CohortComparison) checkFinite() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"first total loss", c.First.TotalExpectedLoss},
		{"second total loss", c.Second.TotalExpectedLoss},
		{"first frequency spread", c.First.FrequencySummary.StdDev},
		{"first severity spread", c.First.SeveritySummary.StdDev},
		{"second frequency spread", c.Second.FrequencySummary.StdDev},
		{"second severity spread", c.Second.SeveritySummary.StdDev},
		{"observed frequency ratio", c.FreqMultiplier},
		{"observed severity ratio", c.SeverityMultiplier},
		{"observed loss ratio", c.LossMultiplier},
	}
	for _, check := range checks {
		if !isFinite(check.value) {
			return fmt.Errorf("%w: %s is not a finite number for these parameters", ErrInvalidParameter, check.name)
		}
	}
	return nil
}

func sampleFrequencies(rng *rand.Rand, target float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Max(drawNormal(rng, target, target*FrequencySpread), MinFrequency)
	}
	return out
}

// LogNormalMu returns the location parameter used for a cohort's severities.
func LogNormalMu(targetSeverity, sigma float64) float64 {
	return math.Log(targetSeverity) - 0.5*sigma*sigma
}

func sampleSeverities(rng *rand.Rand, target, sigma float64, n int) []float64 {
	mu := LogNormalMu(target, sigma)
	out := make([]float64, n)
	for i := range out {
		out[i] = drawLogNormal(rng, mu, sigma)
	}
	return out
}

func buildCohortStatistics(freqTarget, sevTarget, sigma float64, freqs, sevs []float64) CohortStatistics {
	fs := stats.Summarize(freqs)
	ss := stats.Summarize(sevs)
	return CohortStatistics{
		TargetFrequency:   freqTarget,
		TargetSeverity:    sevTarget,
		Sigma:             sigma,
		Population:        len(freqs),
		Frequencies:       freqs,
		Severities:        sevs,
		AvgFrequency:      fs.Mean,
		AvgSeverity:       ss.Mean,
		TotalExpectedLoss: fs.Mean * ss.Mean * float64(len(freqs)),
		FrequencySummary:  fs,
		SeveritySummary:   ss,
	}
}

// Stats returns the named statistics consumed by the presentation layer.
// "good" refers to the first cohort and "bad" to the second.
func (c CohortComparison) Stats() map[string]any {
	return map[string]any{
		"good_avg_frequency":            c.First.AvgFrequency,
		"bad_avg_frequency":             c.Second.AvgFrequency,
		"good_avg_severity":             c.First.AvgSeverity,
		"bad_avg_severity":              c.Second.AvgSeverity,
		"good_total_losses":             c.First.TotalExpectedLoss,
		"bad_total_losses":              c.Second.TotalExpectedLoss,
		"loss_multiplier":               c.LossMultiplier,
		"freq_multiplier":               c.FreqMultiplier,
		"severity_multiplier":           c.SeverityMultiplier,
		"good_target_frequency":         c.First.TargetFrequency,
		"bad_target_frequency":          c.Second.TargetFrequency,
		"good_target_severity":          c.First.TargetSeverity,
		"bad_target_severity":           c.Second.TargetSeverity,
		"good_expected_cost_per_member": c.First.ExpectedCostPerMember(),
		"bad_expected_cost_per_member":  c.Second.ExpectedCostPerMember(),
		"seed":                          c.Params.Seed,
	}
}
