// Package preview renders all three demonstrations into one standalone HTML page.
package preview

import (
	"context"
	"fmt"
	"html/template"
	"strings"

	"insurance-mcp/internal/narrative"
	"insurance-mcp/internal/premium"
	"insurance-mcp/internal/session"
	"insurance-mcp/internal/simulation"
	"insurance-mcp/internal/visuals"

	"golang.org/x/sync/errgroup"
)

// Input holds the parameters of the three demonstrations.
type Input struct {
	AccidentProbability float64
	NumPolicyholders    int
	Cohorts             simulation.CohortParams
	Style               visuals.ChartStyle
	// AssetsDir holds the cohort portraits named by Style.
	AssetsDir string
}

// DefaultInput mirrors the starting values of the teaching app.
func DefaultInput() Input {
	return Input{
		AccidentProbability: 0.05,
		NumPolicyholders:    1000,
		Cohorts: simulation.CohortParams{
			BaseFrequency:      0.03,
			BaseSeverity:       5000,
			FreqMultiplier:     3,
			SeverityMultiplier: 2,
		},
		Style: visuals.DefaultChartStyle(),
	}
}

// Chart is one Mermaid diagram with its optional caption.
type Chart struct {
	Source  string
	Caption string
}

// Portrait is a cohort image embedded as a data URI.
type Portrait struct {
	Label string
	Color string
	Src   template.URL
}

// Section is one demonstration on the page.
type Section struct {
	ID             string
	Title          string
	SeedText       string
	Portraits      []Portrait
	Charts         []Chart
	Interpretation string
}

// Page is everything the HTML template needs.
type Page struct {
	Title    string
	Sections []Section
}

// Build runs the simulations. The pool and cohort runs are independent and
// execute concurrently; premiums wait for the cohort averages.
func Build(ctx context.Context, state *session.State, in Input) (*Page, error) {
	var (
		pool    simulation.RiskPoolResult
		cmp     simulation.CohortComparison
		poolTag session.SeedInfo
		cohTag  session.SeedInfo
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		poolTag = state.Seed(session.RiskPool, session.RiskPoolBaseSeed(in.AccidentProbability, in.NumPolicyholders))
		res, err := simulation.SimulateRiskPool(in.AccidentProbability, in.NumPolicyholders, poolTag.Seed)
		if err != nil {
			return fmt.Errorf("risk pool: %w", err)
		}
		pool = res
		return gctx.Err()
	})
	g.Go(func() error {
		p := in.Cohorts
		cohTag = state.Seed(session.Cohorts, session.CohortBaseSeed(p.BaseFrequency, p.BaseSeverity, p.FreqMultiplier, p.SeverityMultiplier))
		p.Seed = cohTag.Seed
		res, err := simulation.CompareCohorts(p)
		if err != nil {
			return fmt.Errorf("cohorts: %w", err)
		}
		cmp = res
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pc, err := premium.FromCohorts(cmp, in.Style.FirstLabel, in.Style.SecondLabel)
	if err != nil {
		return nil, fmt.Errorf("premiums: %w", err)
	}
	premiumText, err := narrative.Premiums(pc)
	if err != nil {
		return nil, fmt.Errorf("premiums: %w", err)
	}

	return &Page{
		Title: "Insurance Fundamentals",
		Sections: []Section{
			{
				ID:       "risk-pool",
				Title:    "Risk Pooling",
				SeedText: narrative.SeedInfo(poolTag),
				Charts: charts(
					visuals.GenerateRiskPoolIndividualChart(pool),
					visuals.GenerateRiskPoolInsurerChart(pool),
				),
				Interpretation: narrative.RiskPool(pool),
			},
			{
				ID:             "cohorts",
				Title:          "Risk Profiles",
				SeedText:       narrative.SeedInfo(cohTag),
				Portraits:      portraits(in.Style, in.AssetsDir),
				Charts:         charts(visuals.GenerateCohortScatter(cmp, in.Style)),
				Interpretation: narrative.Cohorts(cmp, in.Style.FirstLabel, in.Style.SecondLabel),
			},
			{
				ID:    "premiums",
				Title: "Premium Calculation",
				Charts: charts(
					visuals.GeneratePremiumComparisonChart(pc, in.Style),
					visuals.GeneratePremiumPie(pc.First),
					visuals.GeneratePremiumPie(pc.Second),
				),
				Interpretation: premiumText,
			},
		},
	}, nil
}

func portraits(style visuals.ChartStyle, dir string) []Portrait {
	var out []Portrait
	for _, p := range visuals.LoadPortraits(style, dir) {
		// Data URIs built from sniffed image bytes are safe to embed.
		out = append(out, Portrait{Label: p.Label, Color: p.Color, Src: template.URL(p.DataURI())})
	}
	return out
}

func charts(rendered ...string) []Chart {
	out := make([]Chart, 0, len(rendered))
	for _, r := range rendered {
		if c, ok := splitFence(r); ok {
			out = append(out, c)
		}
	}
	return out
}

// splitFence pulls the diagram out of a ```mermaid block; text after the
// closing fence becomes the caption.
func splitFence(rendered string) (Chart, bool) {
	const open = "```mermaid\n"
	start := strings.Index(rendered, open)
	if start < 0 {
		return Chart{}, false
	}
	body := rendered[start+len(open):]
	end := strings.Index(body, "```")
	if end < 0 {
		return Chart{}, false
	}
	return Chart{
		Source:  strings.TrimSpace(body[:end]),
		Caption: strings.TrimSpace(body[end+3:]),
	}, true
}
