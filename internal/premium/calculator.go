package premium

import (
	"errors"
	"fmt"
	"math"
)

const (
	// ExpenseRatio is the share of premium spent on administration and commissions.
	ExpenseRatio = 0.25
	// RiskMarginRatio is the share of premium held for profit and uncertainty.
	RiskMarginRatio = 0.05
)

var (
	// ErrInvalidInput is returned for negative or non-finite rating inputs.
	ErrInvalidInput = errors.New("invalid premium input")
	// ErrUndefinedLoading is returned when the loading factor of a zero expected loss is requested.
	ErrUndefinedLoading = errors.New("loading undefined for zero expected loss")
	// ErrUndefinedRatio is returned when two premiums are compared against a zero first premium.
	ErrUndefinedRatio = errors.New("premium ratio undefined for zero first premium")
)

// Denominator is 1 - ExpenseRatio - RiskMarginRatio.
func Denominator() float64 {
	return 1 - ExpenseRatio - RiskMarginRatio
}

// Breakdown splits a premium into its components for one rating cohort.
type Breakdown struct {
	Frequency    float64 `json:"frequency"`
	Severity     float64 `json:"severity"`
	ExpectedLoss float64 `json:"expected_loss"`
	Expenses     float64 `json:"expenses"`
	RiskMargin   float64 `json:"risk_margin"`
	Premium      float64 `json:"premium"`
}

// Calculate solves Premium = ExpectedLoss + ExpenseRatio*Premium + RiskMarginRatio*Premium.
func Calculate(frequency, severity float64) (Breakdown, error) {
	if err := checkInput("frequency", frequency); err != nil {
		return Breakdown{}, err
	}
	if err := checkInput("severity", severity); err != nil {
		return Breakdown{}, err
	}

	expectedLoss := frequency * severity
	premium := expectedLoss / Denominator()
	if math.IsInf(premium, 0) {
		return Breakdown{}, fmt.Errorf("%w: frequency %v times severity %v overflows the premium", ErrInvalidInput, frequency, severity)
	}

	return Breakdown{
		Frequency:    frequency,
		Severity:     severity,
		ExpectedLoss: expectedLoss,
		Expenses:     premium * ExpenseRatio,
		RiskMargin:   premium * RiskMarginRatio,
		Premium:      premium,
	}, nil
}

func checkInput(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a finite number >= 0, got %v", ErrInvalidInput, name, v)
	}
	return nil
}

// Loading returns Premium / ExpectedLoss.
func (b Breakdown) Loading() (float64, error) {
	if b.ExpectedLoss == 0 {
		return 0, ErrUndefinedLoading
	}
	return b.Premium / b.ExpectedLoss, nil
}

// Stats returns the named breakdown values. The suffix is appended to every key
// and distinguishes the second cohort ("_bad") in comparisons.
func (b Breakdown) Stats(suffix string) (map[string]any, error) {
	loading, err := b.Loading()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"expected_loss" + suffix:  b.ExpectedLoss,
		"expenses" + suffix:       b.Expenses,
		"risk_margin" + suffix:    b.RiskMargin,
		"premium" + suffix:        b.Premium,
		"loading_factor" + suffix: loading,
	}, nil
}
