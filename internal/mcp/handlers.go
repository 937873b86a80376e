package mcp

import (
	"context"
	"fmt"

	"insurance-mcp/internal/cache"
	"insurance-mcp/internal/narrative"
	"insurance-mcp/internal/premium"
	"insurance-mcp/internal/session"
	"insurance-mcp/internal/simulation"
	"insurance-mcp/internal/visuals"

	"github.com/rs/zerolog/log"
)

// HandleRiskPool runs one year of the risk pool for the session.
func (s *Server) HandleRiskPool(ctx context.Context, sessionID string, args RiskPoolArgs) (ResponseEnvelope, error) {
	base := session.RiskPoolBaseSeed(args.AccidentProbability, args.NumPolicyholders)
	info := s.seedFor(sessionID, session.RiskPool, base, args.Seed)

	key := cache.Key("risk_pool", args.AccidentProbability, args.NumPolicyholders, info.Seed)
	res, err := cached(ctx, s, key, func() (simulation.RiskPoolResult, error) {
		return simulation.SimulateRiskPool(args.AccidentProbability, args.NumPolicyholders, info.Seed)
	})
	if err != nil {
		return ResponseEnvelope{}, err
	}
	log.Debug().Int64("seed", info.Seed).Int("n", res.PopulationSize).Float64("ratio", res.PoolPerformance).Msg("Simulated risk pool")

	env := ResponseEnvelope{
		Stats:          res.Stats(),
		Interpretation: narrative.RiskPool(res),
		SeedInfo:       &info,
		SeedText:       narrative.SeedInfo(info),
	}
	if s.cfg.EnableMermaidCharts {
		env.Charts = map[string]string{
			"individual": visuals.GenerateRiskPoolIndividualChart(res),
			"insurer":    visuals.GenerateRiskPoolInsurerChart(res),
		}
	}
	if res.PopulationSize < 100 {
		env.Guidance = append(env.Guidance, "Small pools swing widely from year to year. Try 1000 or more policyholders to see the ratio settle near 1.0.")
	}
	return env, nil
}

// HandleCohorts compares two simulated risk cohorts for the session.
func (s *Server) HandleCohorts(ctx context.Context, sessionID string, args CohortArgs) (ResponseEnvelope, error) {
	run, err := s.prepareCohorts(sessionID, args)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	cmp, err := s.simulateCohorts(ctx, run)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	info, style := run.info, run.style

	env := ResponseEnvelope{
		Stats: cmp.Stats(),
		Data: map[string]any{
			"first_frequency":  cmp.First.FrequencySummary,
			"first_severity":   cmp.First.SeveritySummary,
			"second_frequency": cmp.Second.FrequencySummary,
			"second_severity":  cmp.Second.SeveritySummary,
			"style":            style,
		},
		Interpretation: narrative.Cohorts(cmp, style.FirstLabel, style.SecondLabel),
		SeedInfo:       &info,
		SeedText:       narrative.SeedInfo(info),
		Portraits:      visuals.LoadPortraits(style, s.cfg.AssetsDir),
	}
	if s.cfg.EnableMermaidCharts {
		env.Charts = map[string]string{"scatter": visuals.GenerateCohortScatter(cmp, style)}
	}
	return env, nil
}

// HandleComparePremiums prices both cohorts from the averages the cohort
// simulation actually produced.
func (s *Server) HandleComparePremiums(ctx context.Context, sessionID string, args CohortArgs) (ResponseEnvelope, error) {
	run, err := s.prepareCohorts(sessionID, args)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	cmp, err := s.simulateCohorts(ctx, run)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	info, style := run.info, run.style

	pc, err := premium.FromCohorts(cmp, style.FirstLabel, style.SecondLabel)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	stats, err := pc.Stats()
	if err != nil {
		return ResponseEnvelope{}, err
	}
	text, err := narrative.Premiums(pc)
	if err != nil {
		return ResponseEnvelope{}, err
	}

	env := ResponseEnvelope{
		Stats: stats,
		Data: map[string]any{
			"cohort_stats": cmp.Stats(),
			"style":        style,
		},
		Interpretation: text,
		SeedInfo:       &info,
		SeedText:       narrative.SeedInfo(info),
		Guidance:       []string{"Premiums use the observed cohort averages of this simulation, not the target parameters."},
		Portraits:      visuals.LoadPortraits(style, s.cfg.AssetsDir),
	}
	if s.cfg.EnableMermaidCharts {
		env.Charts = map[string]string{
			"comparison": visuals.GeneratePremiumComparisonChart(pc, style),
			"first_pie":  visuals.GeneratePremiumPie(pc.First),
			"second_pie": visuals.GeneratePremiumPie(pc.Second),
		}
	}
	return env, nil
}

// HandlePremium builds a single premium. It is deterministic and needs no seed.
func (s *Server) HandlePremium(ctx context.Context, _ string, args PremiumArgs) (ResponseEnvelope, error) {
	key := cache.Key("premium", args.Frequency, args.Severity)
	b, err := cached(ctx, s, key, func() (premium.Breakdown, error) {
		return premium.Calculate(args.Frequency, args.Severity)
	})
	if err != nil {
		return ResponseEnvelope{}, err
	}
	stats, err := b.Stats("")
	if err != nil {
		return ResponseEnvelope{}, fmt.Errorf("frequency %v and severity %v give a zero expected loss: %w", args.Frequency, args.Severity, err)
	}

	env := ResponseEnvelope{
		Stats:          stats,
		Data:           b,
		Interpretation: narrative.Premium(b),
	}
	if s.cfg.EnableMermaidCharts {
		env.Charts = map[string]string{
			"components": visuals.GeneratePremiumComponentsChart(b),
			"breakdown":  visuals.GeneratePremiumPie(b),
		}
	}
	return env, nil
}

// HandleResimulate draws a new offset for one component of the session.
func (s *Server) HandleResimulate(_ context.Context, sessionID string, args ResimulateArgs) (ResponseEnvelope, error) {
	c, err := session.ParseComponent(args.Component)
	if err != nil {
		return ResponseEnvelope{}, err
	}
	offset := s.state(sessionID).Resimulate(c)
	log.Debug().Str("session", sessionID).Str("component", string(c)).Int64("offset", offset.Value()).Msg("Resimulated")

	return ResponseEnvelope{
		Stats: map[string]any{
			"component": string(c),
			"offset":    offset.Value(),
		},
		Interpretation: fmt.Sprintf("New random offset %d applied to %s. Run the simulation again with the same parameters to see a different outcome.", offset.Value(), c),
	}, nil
}

// cohortRun is a validated cohort request with its seed and presentation resolved.
type cohortRun struct {
	params simulation.CohortParams
	info   session.SeedInfo
	style  visuals.ChartStyle
}

func (s *Server) prepareCohorts(sessionID string, args CohortArgs) (cohortRun, error) {
	params := simulation.CohortParams{
		BaseFrequency:      args.BaseFrequency,
		BaseSeverity:       args.BaseSeverity,
		FreqMultiplier:     args.FreqMultiplier,
		SeverityMultiplier: args.SeverityMultiplier,
	}
	if err := params.Validate(); err != nil {
		return cohortRun{}, err
	}

	base := session.CohortBaseSeed(args.BaseFrequency, args.BaseSeverity, args.FreqMultiplier, args.SeverityMultiplier)
	info := s.seedFor(sessionID, session.Cohorts, base, args.Seed)
	params.Seed = info.Seed

	style := visuals.DefaultChartStyle().WithLabels(args.FirstLabel, args.SecondLabel)
	style.FirstImage, style.SecondImage = args.FirstImage, args.SecondImage
	style = visuals.ResolveImages(style, s.cfg.AssetsDir)

	return cohortRun{params: params, info: info, style: style}, nil
}

// simulateCohorts runs the comparison shared by compare_cohorts and
// compare_premiums. Labels are not part of the key: they never change the draws.
func (s *Server) simulateCohorts(ctx context.Context, run cohortRun) (simulation.CohortComparison, error) {
	p := run.params
	key := cache.Key("cohorts", p.BaseFrequency, p.BaseSeverity, p.FreqMultiplier, p.SeverityMultiplier, p.Seed)
	return cached(ctx, s, key, func() (simulation.CohortComparison, error) {
		return simulation.CompareCohorts(p)
	})
}
