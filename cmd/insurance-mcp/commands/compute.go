package commands

import (
	"context"
	"fmt"
	"io"
	"sort"

	"insurance-mcp/internal/mcp"
	"insurance-mcp/internal/session"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	asJSON bool

	poolArgs    mcp.RiskPoolArgs
	poolSeed    int64
	cohortArgs  mcp.CohortArgs
	cohortSeed  int64
	premiumArgs mcp.PremiumArgs
	fromCohorts bool
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Simulate one year of a risk pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("seed") {
			poolArgs.Seed = &poolSeed
		}
		return runOnce(cmd, func(ctx context.Context, svc *mcp.Server) (mcp.ResponseEnvelope, error) {
			return svc.HandleRiskPool(ctx, session.DefaultID, poolArgs)
		})
	},
}

var cohortsCmd = &cobra.Command{
	Use:   "cohorts",
	Short: "Compare the simulated risk profiles of two cohorts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("seed") {
			cohortArgs.Seed = &cohortSeed
		}
		return runOnce(cmd, func(ctx context.Context, svc *mcp.Server) (mcp.ResponseEnvelope, error) {
			return svc.HandleCohorts(ctx, session.DefaultID, cohortArgs)
		})
	},
}

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Build a premium from frequency and severity, or compare two cohorts with --from-cohorts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if fromCohorts {
			if cmd.Flags().Changed("seed") {
				cohortArgs.Seed = &cohortSeed
			}
			return runOnce(cmd, func(ctx context.Context, svc *mcp.Server) (mcp.ResponseEnvelope, error) {
				return svc.HandleComparePremiums(ctx, session.DefaultID, cohortArgs)
			})
		}
		return runOnce(cmd, func(ctx context.Context, svc *mcp.Server) (mcp.ResponseEnvelope, error) {
			return svc.HandlePremium(ctx, session.DefaultID, premiumArgs)
		})
	},
}

func runOnce(cmd *cobra.Command, run func(context.Context, *mcp.Server) (mcp.ResponseEnvelope, error)) error {
	svc, cleanup := newService(cmd.Context())
	defer cleanup()

	env, err := run(cmd.Context(), svc)
	if err != nil {
		return err
	}
	return printEnvelope(cmd.OutOrStdout(), env, asJSON)
}

func printEnvelope(w io.Writer, env mcp.ResponseEnvelope, raw bool) error {
	if raw {
		out, err := json.MarshalIndent(env, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	if env.SeedText != "" {
		fmt.Fprintln(w, env.SeedText)
		fmt.Fprintln(w)
	}
	keys := make([]string, 0, len(env.Stats))
	for k := range env.Stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-32s %v\n", k, env.Stats[k])
	}
	fmt.Fprintln(w)
	names := make([]string, 0, len(env.Charts))
	for name := range env.Charts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(w, env.Charts[name])
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintln(w, env.Interpretation)
	return err
}

func addCohortFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64Var(&cohortArgs.BaseFrequency, "base-frequency", 0.03, "annual accident probability of the lower-risk cohort")
	f.Float64Var(&cohortArgs.BaseSeverity, "base-severity", 5000, "average claim amount of the lower-risk cohort")
	f.Float64Var(&cohortArgs.FreqMultiplier, "freq-multiplier", 3, "frequency multiplier of the higher-risk cohort")
	f.Float64Var(&cohortArgs.SeverityMultiplier, "severity-multiplier", 2, "severity multiplier of the higher-risk cohort")
	f.StringVar(&cohortArgs.FirstLabel, "first-label", "", "display name of the lower-risk cohort")
	f.StringVar(&cohortArgs.SecondLabel, "second-label", "", "display name of the higher-risk cohort")
	f.StringVar(&cohortArgs.FirstImage, "first-image", "", "portrait of the lower-risk cohort, relative to ASSETS_DIR")
	f.StringVar(&cohortArgs.SecondImage, "second-image", "", "portrait of the higher-risk cohort, relative to ASSETS_DIR")
	f.Int64Var(&cohortSeed, "seed", 0, "explicit seed (default: derived from the parameters)")
}

func init() {
	poolCmd.Flags().Float64VarP(&poolArgs.AccidentProbability, "probability", "p", 0.05, "accident probability per policyholder, in (0, 1]")
	poolCmd.Flags().IntVarP(&poolArgs.NumPolicyholders, "policyholders", "n", 100, "number of policyholders")
	poolCmd.Flags().Int64Var(&poolSeed, "seed", 0, "explicit seed (default: derived from the parameters)")

	addCohortFlags(cohortsCmd)
	addCohortFlags(premiumCmd)
	premiumCmd.Flags().Float64Var(&premiumArgs.Frequency, "frequency", 0.05, "claim frequency")
	premiumCmd.Flags().Float64Var(&premiumArgs.Severity, "severity", 8000, "average claim severity")
	premiumCmd.Flags().BoolVar(&fromCohorts, "from-cohorts", false, "price two simulated cohorts from their observed averages")

	for _, c := range []*cobra.Command{poolCmd, cohortsCmd, premiumCmd} {
		c.Flags().BoolVar(&asJSON, "json", false, "print the raw result envelope as JSON")
		rootCmd.AddCommand(c)
	}
}
