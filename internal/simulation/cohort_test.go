package simulation

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func defaultCohortParams() CohortParams {
	return CohortParams{
		BaseFrequency:      0.03,
		BaseSeverity:       5000,
		FreqMultiplier:     3.0,
		SeverityMultiplier: 2.0,
		Seed:               42,
	}
}

func TestCompareCohorts_Determinism(t *testing.T) {
	a, err := CompareCohorts(defaultCohortParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := CompareCohorts(defaultCohortParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(a.Stats(), b.Stats()) {
		t.Errorf("same seed produced different statistics")
	}
	if !reflect.DeepEqual(a.First.Severities, b.First.Severities) || !reflect.DeepEqual(a.Second.Frequencies, b.Second.Frequencies) {
		t.Errorf("same seed produced different samples")
	}

	p := defaultCohortParams()
	p.Seed = 43
	c, _ := CompareCohorts(p)
	if reflect.DeepEqual(a.First.Frequencies, c.First.Frequencies) {
		t.Errorf("different seeds produced identical samples")
	}
}

func TestCompareCohorts_Targets(t *testing.T) {
	res, err := CompareCohorts(defaultCohortParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(res.Second.TargetFrequency-0.09) > 1e-12 {
		t.Errorf("second target frequency = %v, want 0.09", res.Second.TargetFrequency)
	}
	if res.Second.TargetSeverity != 10000 {
		t.Errorf("second target severity = %v, want 10000", res.Second.TargetSeverity)
	}
	if res.First.TargetFrequency != 0.03 || res.First.TargetSeverity != 5000 {
		t.Errorf("first targets changed: %v / %v", res.First.TargetFrequency, res.First.TargetSeverity)
	}
	if res.First.Population != CohortPopulation || len(res.Second.Severities) != CohortPopulation {
		t.Errorf("expected %d members per cohort", CohortPopulation)
	}
	if res.First.Sigma != FirstCohortSigma || res.Second.Sigma != SecondCohortSigma {
		t.Errorf("unexpected sigmas %v / %v", res.First.Sigma, res.Second.Sigma)
	}
}

func TestCompareCohorts_FrequencyFloor(t *testing.T) {
	// A wide spread around a tiny target forces the floor to engage.
	p := CohortParams{BaseFrequency: 0.002, BaseSeverity: 1000, FreqMultiplier: 1, SeverityMultiplier: 1, Seed: 5, Population: 5000}
	res, err := CompareCohorts(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, f := range append(res.First.Frequencies, res.Second.Frequencies...) {
		if f < MinFrequency {
			t.Fatalf("frequency %v below floor %v", f, MinFrequency)
		}
	}
	for _, s := range res.First.Severities {
		if s <= 0 {
			t.Fatalf("non-positive severity %v", s)
		}
	}
}

func TestCompareCohorts_DerivedStatistics(t *testing.T) {
	res, _ := CompareCohorts(defaultCohortParams())

	for _, c := range []CohortStatistics{res.First, res.Second} {
		sum := 0.0
		for _, f := range c.Frequencies {
			sum += f
		}
		if math.Abs(c.AvgFrequency-sum/float64(len(c.Frequencies))) > 1e-12 {
			t.Errorf("average frequency %v does not match samples", c.AvgFrequency)
		}
		want := c.AvgFrequency * c.AvgSeverity * float64(c.Population)
		if math.Abs(c.TotalExpectedLoss-want) > 1e-9*want {
			t.Errorf("total expected loss %v, want %v", c.TotalExpectedLoss, want)
		}
	}

	if res.FreqMultiplier != res.Second.AvgFrequency/res.First.AvgFrequency {
		t.Errorf("observed frequency multiplier must be a sample ratio")
	}
	if res.LossMultiplier != res.Second.TotalExpectedLoss/res.First.TotalExpectedLoss {
		t.Errorf("observed loss multiplier must be a sample ratio")
	}
	// Sampling noise keeps the observed ratio away from the exact input.
	if res.FreqMultiplier == 3.0 {
		t.Errorf("observed multiplier collapsed onto the input parameter")
	}
}

func TestCompareCohorts_Monotonicity(t *testing.T) {
	base := defaultCohortParams()
	prevFreq, prevSev := 0.0, 0.0
	for _, m := range []float64{1.5, 2.0, 3.0, 4.5, 5.0} {
		p := base
		p.FreqMultiplier = m
		p.SeverityMultiplier = m
		res, err := CompareCohorts(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Second.TargetFrequency <= prevFreq || res.Second.TargetSeverity <= prevSev {
			t.Errorf("multiplier %v did not increase targets (%v, %v)", m, res.Second.TargetFrequency, res.Second.TargetSeverity)
		}
		prevFreq, prevSev = res.Second.TargetFrequency, res.Second.TargetSeverity
	}
}

func TestCompareCohorts_LargePopulationConverges(t *testing.T) {
	p := defaultCohortParams()
	p.Population = 100000
	res, err := CompareCohorts(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	within := func(name string, got, want float64) {
		if math.Abs(got-want)/want > 0.05 {
			t.Errorf("%s = %v, want within 5%% of %v", name, got, want)
		}
	}
	within("first frequency", res.First.AvgFrequency, 0.03)
	within("second frequency", res.Second.AvgFrequency, 0.09)
	within("first severity", res.First.AvgSeverity, 5000)
	within("second severity", res.Second.AvgSeverity, 10000)
}

func TestCompareCohorts_InvalidInput(t *testing.T) {
	mutate := map[string]func(*CohortParams){
		"ZeroFrequency":             func(p *CohortParams) { p.BaseFrequency = 0 },
		"NegativeSeverity":          func(p *CohortParams) { p.BaseSeverity = -1 },
		"ZeroFreqMultiplier":        func(p *CohortParams) { p.FreqMultiplier = 0 },
		"NaNSevMultiplier":          func(p *CohortParams) { p.SeverityMultiplier = math.NaN() },
		"InfSeverity":               func(p *CohortParams) { p.BaseSeverity = math.Inf(1) },
		"NegativePopulation":        func(p *CohortParams) { p.Population = -1 },
		"PopulationAboveMax":        func(p *CohortParams) { p.Population = MaxPopulation + 1 },
		"OverflowingSecondSeverity": func(p *CohortParams) { p.BaseSeverity, p.SeverityMultiplier = 1e308, 2 },
		"OverflowingSecondFreq":     func(p *CohortParams) { p.BaseFrequency, p.FreqMultiplier = 1e308, 10 },
		"OverflowingSamples":        func(p *CohortParams) { p.BaseSeverity, p.SeverityMultiplier = 1e308, 1 },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			p := defaultCohortParams()
			fn(&p)
			if _, err := CompareCohorts(p); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestLogNormalMu(t *testing.T) {
	mu := LogNormalMu(8000, 0.4)
	want := math.Log(8000) - 0.08
	if math.Abs(mu-want) > 1e-12 {
		t.Errorf("LogNormalMu = %v, want %v", mu, want)
	}
}
