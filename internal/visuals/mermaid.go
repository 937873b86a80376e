package visuals

import (
	"fmt"
	"math"
	"strings"

	"insurance-mcp/internal/premium"
	"insurance-mcp/internal/simulation"
)

// maxScatterPoints caps the points drawn per cohort. Mermaid's layout engine
// becomes unreadable well before the full 200 members.
const maxScatterPoints = 60

// GenerateRiskPoolIndividualChart contrasts what one person risks alone with what
// they pay inside the pool.
func GenerateRiskPoolIndividualChart(r simulation.RiskPoolResult) string {
	if r.PopulationSize == 0 {
		return ""
	}
	avgCost := r.TotalLosses / float64(r.PopulationSize)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Individual Risk Outcomes vs Pooled Outcomes\"\n")
	sb.WriteString("    x-axis [\"Potential loss\", \"Average realised cost\", \"With insurance\"]\n")
	sb.WriteString(fmt.Sprintf("    y-axis \"Cost ($)\" 0 --> %d\n", int(math.Round(simulation.ClaimAmount*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%.0f, %.2f, %.2f]\n", simulation.ClaimAmount, avgCost, r.FairPremium))
	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("%d out of %d people experienced a $%.0f loss; everyone pays $%.0f with insurance.",
		r.NumWithLoss, r.PopulationSize, simulation.ClaimAmount, r.FairPremium))
	return sb.String()
}

// GenerateRiskPoolInsurerChart compares premiums collected with actual losses.
// The y-axis is fixed by the 99% claims bound so re-simulations stay comparable.
func GenerateRiskPoolInsurerChart(r simulation.RiskPoolResult) string {
	ceiling := r.ChartCeiling()
	if ceiling <= 0 {
		return ""
	}
	bound := r.MaxExpectedLoss()

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Insurer's Perspective\"\n")
	sb.WriteString("    x-axis [\"Premiums Collected\", \"Actual Losses\"]\n")
	sb.WriteString(fmt.Sprintf("    y-axis \"Amount ($)\" 0 --> %d\n", int(math.Ceil(ceiling))))
	sb.WriteString(fmt.Sprintf("    bar [%.0f, %.0f]\n", r.PoolPremiumTotal, r.TotalLosses))
	sb.WriteString(fmt.Sprintf("    line [%.0f, %.0f]\n", bound, bound))
	sb.WriteString("```\n")
	sb.WriteString(fmt.Sprintf("Actual/Expected: %.2f", r.PoolPerformance))
	return sb.String()
}

// GenerateCohortScatter plots each member's frequency against their claim amount
// as a quadrant chart, with the cohort averages marked.
func GenerateCohortScatter(c simulation.CohortComparison, style ChartStyle) string {
	if len(c.First.Frequencies) == 0 || len(c.Second.Frequencies) == 0 {
		return ""
	}

	maxX := math.Max(c.First.FrequencySummary.Max, c.Second.FrequencySummary.Max) * 1.05
	maxY := math.Max(c.First.SeveritySummary.Max, c.Second.SeveritySummary.Max) * 1.05
	if maxX <= 0 || maxY <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("quadrantChart\n")
	sb.WriteString("    title Risk Profiles - Frequency vs Claim Amount\n")
	sb.WriteString(fmt.Sprintf("    x-axis Low Frequency --> High Frequency (max %.1f%%)\n", maxX*100))
	sb.WriteString(fmt.Sprintf("    y-axis Low Claim Amount --> High Claim Amount (max $%.0f)\n", maxY))
	sb.WriteString("    quadrant-1 Frequent and costly\n")
	sb.WriteString("    quadrant-2 Rare but costly\n")
	sb.WriteString("    quadrant-3 Rare and cheap\n")
	sb.WriteString("    quadrant-4 Frequent but cheap\n")

	writeCohortPoints(&sb, initials(style.FirstLabel, "A"), style.FirstColor, c.First, maxX, maxY)
	writeCohortPoints(&sb, initials(style.SecondLabel, "B"), style.SecondColor, c.Second, maxX, maxY)

	sb.WriteString(fmt.Sprintf("    %s average: [%.3f, %.3f] radius: 10, color: %s\n",
		safeName(style.FirstLabel), clampUnit(c.First.AvgFrequency/maxX), clampUnit(c.First.AvgSeverity/maxY), style.FirstColor))
	sb.WriteString(fmt.Sprintf("    %s average: [%.3f, %.3f] radius: 10, color: %s\n",
		safeName(style.SecondLabel), clampUnit(c.Second.AvgFrequency/maxX), clampUnit(c.Second.AvgSeverity/maxY), style.SecondColor))
	sb.WriteString("```")
	return sb.String()
}

func writeCohortPoints(sb *strings.Builder, prefix, color string, c simulation.CohortStatistics, maxX, maxY float64) {
	step := 1
	if len(c.Frequencies) > maxScatterPoints {
		step = int(math.Ceil(float64(len(c.Frequencies)) / maxScatterPoints))
	}
	for i := 0; i < len(c.Frequencies); i += step {
		sb.WriteString(fmt.Sprintf("    %s%d: [%.3f, %.3f] radius: 3, color: %s\n",
			prefix, i+1, clampUnit(c.Frequencies[i]/maxX), clampUnit(c.Severities[i]/maxY), color))
	}
}

// GeneratePremiumComponentsChart shows expected loss, expenses and risk margin
// against the total premium.
func GeneratePremiumComponentsChart(b premium.Breakdown) string {
	if b.Premium <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Premium Components\"\n")
	sb.WriteString("    x-axis [\"Expected Loss\", \"Expenses\", \"Risk Margin\"]\n")
	sb.WriteString(fmt.Sprintf("    y-axis \"Amount ($)\" 0 --> %d\n", int(math.Ceil(b.Premium*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%.2f, %.2f, %.2f]\n", b.ExpectedLoss, b.Expenses, b.RiskMargin))
	sb.WriteString(fmt.Sprintf("    line [%.2f, %.2f, %.2f]\n", b.Premium, b.Premium, b.Premium))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePremiumPie shows the share of each component in the premium.
func GeneratePremiumPie(b premium.Breakdown) string {
	if b.Premium <= 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString(fmt.Sprintf("pie title Premium Breakdown (Total: $%.2f)\n", b.Premium))
	sb.WriteString(fmt.Sprintf("    \"Expected Loss\" : %.2f\n", b.ExpectedLoss))
	sb.WriteString(fmt.Sprintf("    \"Expenses\" : %.2f\n", b.Expenses))
	sb.WriteString(fmt.Sprintf("    \"Risk Margin\" : %.2f\n", b.RiskMargin))
	sb.WriteString("```")
	return sb.String()
}

// GeneratePremiumComparisonChart puts the components of both cohorts side by side.
func GeneratePremiumComparisonChart(c premium.Comparison, style ChartStyle) string {
	maxVal := math.Max(c.First.Premium, c.Second.Premium)
	if maxVal <= 0 {
		return ""
	}

	row := func(b premium.Breakdown) string {
		return fmt.Sprintf("[%.2f, %.2f, %.2f, %.2f]", b.ExpectedLoss, b.Expenses, b.RiskMargin, b.Premium)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Premium Comparison: %s vs %s\"\n", safeName(style.FirstLabel), safeName(style.SecondLabel)))
	sb.WriteString("    x-axis [\"Expected Loss\", \"Expenses\", \"Risk Margin\", \"Premium\"]\n")
	sb.WriteString(fmt.Sprintf("    y-axis \"Amount ($)\" 0 --> %d\n", int(math.Ceil(maxVal*1.1))))
	// The larger series is drawn first so the smaller one stays visible on top.
	if c.Second.Premium >= c.First.Premium {
		sb.WriteString(fmt.Sprintf("    bar %s\n", row(c.Second)))
		sb.WriteString(fmt.Sprintf("    bar %s\n", row(c.First)))
	} else {
		sb.WriteString(fmt.Sprintf("    bar %s\n", row(c.First)))
		sb.WriteString(fmt.Sprintf("    bar %s\n", row(c.Second)))
	}
	sb.WriteString("```")
	return sb.String()
}

func clampUnit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

// safeName strips characters that break Mermaid statements.
func safeName(s string) string {
	return strings.NewReplacer(":", "", "[", "(", "]", ")", "\"", "'", "\n", " ").Replace(s)
}

func initials(label, fallback string) string {
	var sb strings.Builder
	for _, word := range strings.Fields(label) {
		r := []rune(word)[0]
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return fallback
	}
	return strings.ToUpper(sb.String())
}
