package premium

import (
	"fmt"
	"maps"

	"insurance-mcp/internal/simulation"
)

// SecondSuffix marks the keys of the second cohort in comparison statistics.
const SecondSuffix = "_bad"

// Cohort is one rated group in a comparison.
type Cohort struct {
	Label     string  `json:"label"`
	Frequency float64 `json:"frequency"`
	Severity  float64 `json:"severity"`
}

// Comparison rates an ordered pair of cohorts side by side.
type Comparison struct {
	FirstLabel  string    `json:"first_label"`
	SecondLabel string    `json:"second_label"`
	First       Breakdown `json:"first"`
	Second      Breakdown `json:"second"`
}

// Compare runs Calculate independently for both cohorts.
func Compare(first, second Cohort) (Comparison, error) {
	fb, err := Calculate(first.Frequency, first.Severity)
	if err != nil {
		return Comparison{}, fmt.Errorf("%s: %w", labelOr(first.Label, "first cohort"), err)
	}
	sb, err := Calculate(second.Frequency, second.Severity)
	if err != nil {
		return Comparison{}, fmt.Errorf("%s: %w", labelOr(second.Label, "second cohort"), err)
	}
	return Comparison{
		FirstLabel:  first.Label,
		SecondLabel: second.Label,
		First:       fb,
		Second:      sb,
	}, nil
}

// FromCohorts rates the observed averages of a cohort simulation, so the
// premiums carry the sampling noise of that simulation.
func FromCohorts(cmp simulation.CohortComparison, firstLabel, secondLabel string) (Comparison, error) {
	return Compare(
		Cohort{Label: firstLabel, Frequency: cmp.First.AvgFrequency, Severity: cmp.First.AvgSeverity},
		Cohort{Label: secondLabel, Frequency: cmp.Second.AvgFrequency, Severity: cmp.Second.AvgSeverity},
	)
}

// Ratio is second premium over first premium.
func (c Comparison) Ratio() (float64, error) {
	if c.First.Premium == 0 {
		return 0, fmt.Errorf("%w (%s)", ErrUndefinedRatio, labelOr(c.FirstLabel, "first cohort"))
	}
	return c.Second.Premium / c.First.Premium, nil
}

// Diff is second premium minus first premium.
func (c Comparison) Diff() float64 {
	return c.Second.Premium - c.First.Premium
}

// Stats returns the flat key set used by the premium comparison views.
func (c Comparison) Stats() (map[string]any, error) {
	out, err := c.First.Stats("")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", labelOr(c.FirstLabel, "first cohort"), err)
	}
	second, err := c.Second.Stats(SecondSuffix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", labelOr(c.SecondLabel, "second cohort"), err)
	}
	maps.Copy(out, second)

	ratio, err := c.Ratio()
	if err != nil {
		return nil, err
	}
	out["premium_ratio"] = ratio
	out["premium_diff"] = c.Diff()
	return out, nil
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
