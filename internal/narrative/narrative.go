// Package narrative turns simulation results into the interpretation text shown
// next to each chart.
package narrative

import (
	"fmt"
	"math"
	"strings"

	"insurance-mcp/internal/premium"
	"insurance-mcp/internal/session"
	"insurance-mcp/internal/simulation"
)

// SeedInfo renders "Seed: 5812 (Base: 5800, Offset: 12)".
func SeedInfo(info session.SeedInfo) string {
	return fmt.Sprintf("Seed: %d (Base: %d, Offset: %d)", info.Seed, info.Base, info.Offset)
}

// RiskPool explains a risk pooling run from the individual and insurer perspectives.
func RiskPool(r simulation.RiskPoolResult) string {
	claim := Money(simulation.ClaimAmount, 0)
	gap := Money(math.Abs(r.Surplus()), 0)

	var sb strings.Builder
	sb.WriteString("Insurance Interpretation:\n")
	bullet(&sb, "Individual Risk: Each person has a %s chance of a %s loss.", Percent(r.AccidentProbability, 1), claim)
	bullet(&sb, "Without Insurance: %d people (%.1f%%) faced a %s loss in this simulation.", r.NumWithLoss, r.PercentWithLoss, claim)
	bullet(&sb, "With Insurance: Everyone pays a premium of %s.", Money(r.FairPremium, 0))
	bullet(&sb, "Risk Pooling Result: The insurer collected %s and paid %s in claims.", Money(r.PoolPremiumTotal, 0), Money(r.TotalLosses, 0))
	if r.InSurplus() {
		bullet(&sb, "This year the insurance pool had a %s surplus.", gap)
		bullet(&sb, "The surplus can be held as capital to handle future years when claims exceed premiums.")
	} else {
		bullet(&sb, "This year the insurance pool had a %s deficit.", gap)
		bullet(&sb, "The deficit must be covered by the insurer's capital reserves.")
	}
	sb.WriteString("• Key Insight: As the number of policyholders increases, the 'Actual/Expected' ratio approaches 1.0, ")
	sb.WriteString("making the insurance pool's results more predictable and stable.")
	return sb.String()
}

// Cohorts explains a two-cohort risk profile comparison.
func Cohorts(c simulation.CohortComparison, firstLabel, secondLabel string) string {
	var sb strings.Builder
	sb.WriteString("Risk Profile Interpretation:\n")
	bullet(&sb, "%s has an average accident frequency of %s and an average claim amount of %s",
		firstLabel, Percent(c.First.AvgFrequency, 1), Money(c.First.AvgSeverity, 0))
	bullet(&sb, "%s has an average accident frequency of %s and an average claim amount of %s",
		secondLabel, Percent(c.Second.AvgFrequency, 1), Money(c.Second.AvgSeverity, 0))
	sb.WriteString("\n")

	bullet(&sb, "Frequency Difference: %s has %s more frequent accidents than %s",
		secondLabel, Multiple(c.FreqMultiplier), firstLabel)
	bullet(&sb, "Claim Amount Difference: %s's claims are %s more costly than %s's claims",
		secondLabel, Multiple(c.SeverityMultiplier), firstLabel)
	sb.WriteString("\n")

	bullet(&sb, "Expected Annual Cost - %s: %s per member", firstLabel, Money(c.First.ExpectedCostPerMember(), 0))
	bullet(&sb, "Expected Annual Cost - %s: %s per member", secondLabel, Money(c.Second.ExpectedCostPerMember(), 0))
	bullet(&sb, "Overall Risk Difference: %s generates %s more in expected losses", secondLabel, Multiple(c.LossMultiplier))
	sb.WriteString("\n")

	sb.WriteString("• Key Insight: The scatterplot illustrates why insurance companies segment policyholders into risk groups.\n")
	sb.WriteString("  Both frequency and claim amounts contribute to the overall cost differences between groups.\n")
	sb.WriteString("  Each dot represents an individual's risk profile, showing natural variation within groups.")
	return sb.String()
}

// Premium explains a single premium breakdown.
func Premium(b premium.Breakdown) string {
	var sb strings.Builder
	sb.WriteString("Insurance Interpretation:\n")
	writeBreakdown(&sb, "", b)
	sb.WriteString("\nThis is the base premium before applying individual rating factors like age, driving history, etc.")
	return sb.String()
}

// Premiums compares the premiums of two cohorts.
func Premiums(c premium.Comparison) (string, error) {
	ratio, err := c.Ratio()
	if err != nil {
		return "", err
	}
	first := labelOr(c.FirstLabel, "First cohort")
	second := labelOr(c.SecondLabel, "Second cohort")

	var sb strings.Builder
	sb.WriteString("Insurance Premium Comparison:\n")
	bullet(&sb, "%s:", first)
	writeBreakdown(&sb, "  - ", c.First)
	sb.WriteString("\n")
	bullet(&sb, "%s:", second)
	writeBreakdown(&sb, "  - ", c.Second)
	sb.WriteString("\n")

	bullet(&sb, "Premium Difference: %s (%s higher for %s)", Money(c.Diff(), 2), Multiple(ratio), second)
	sb.WriteString("\n")
	sb.WriteString("• Key Insights:\n")
	sb.WriteString("  1. The premium calculation formula is: Premium = Expected Loss / (1 - Expense Ratio - Risk Margin)\n")
	sb.WriteString("  2. Both frequency and severity directly affect the premium - if either doubles, expected loss doubles\n")
	fmt.Fprintf(&sb, "  3. A cohort with %s higher risk pays %s higher premium\n", Multiple(ratio), Multiple(ratio))
	sb.WriteString("  4. The expense and risk margin components are proportionally larger for higher-risk cohorts\n")
	return sb.String(), nil
}

func writeBreakdown(sb *strings.Builder, prefix string, b premium.Breakdown) {
	line := func(format string, args ...any) {
		if prefix == "" {
			bullet(sb, format, args...)
			return
		}
		sb.WriteString(prefix)
		fmt.Fprintf(sb, format, args...)
		sb.WriteString("\n")
	}
	line("Accident Frequency: %s (probability of claim per year)", Percent(b.Frequency, 1))
	line("Average Claim Severity: %s (average cost when a claim occurs)", Money(b.Severity, 0))
	line("Expected Loss: %s (frequency × severity)", Money(b.ExpectedLoss, 2))
	line("Expenses: %s (%s of premium)", Money(b.Expenses, 2), Percent(premium.ExpenseRatio, 0))
	line("Risk Margin: %s (%s of premium)", Money(b.RiskMargin, 2), Percent(premium.RiskMarginRatio, 0))
	line("Final Premium: %s", Money(b.Premium, 2))
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
