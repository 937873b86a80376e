package commands

import (
	"fmt"

	"insurance-mcp/internal/preview"
	"insurance-mcp/internal/session"
	"insurance-mcp/internal/visuals"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	noOpen       bool
	previewInput = preview.DefaultInput()
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render all three demonstrations into an HTML page and open it",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := previewInput
		in.Style = visuals.ResolveImages(in.Style, cfg.AssetsDir)
		in.AssetsDir = cfg.AssetsDir

		state := session.NewStore(0).Get(session.DefaultID)
		page, err := preview.Build(cmd.Context(), state, in)
		if err != nil {
			return err
		}

		path, err := preview.Write(page, cfg.PreviewDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)

		if noOpen {
			return nil
		}
		if err := preview.Open(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Could not open browser")
		}
		return nil
	},
}

func init() {
	f := previewCmd.Flags()
	f.BoolVar(&noOpen, "no-open", false, "write the page without opening a browser")
	f.Float64Var(&previewInput.AccidentProbability, "probability", previewInput.AccidentProbability, "accident probability per policyholder")
	f.IntVar(&previewInput.NumPolicyholders, "policyholders", previewInput.NumPolicyholders, "number of policyholders")
	f.Float64Var(&previewInput.Cohorts.BaseFrequency, "base-frequency", previewInput.Cohorts.BaseFrequency, "annual accident probability of the lower-risk cohort")
	f.Float64Var(&previewInput.Cohorts.BaseSeverity, "base-severity", previewInput.Cohorts.BaseSeverity, "average claim amount of the lower-risk cohort")
	f.Float64Var(&previewInput.Cohorts.FreqMultiplier, "freq-multiplier", previewInput.Cohorts.FreqMultiplier, "frequency multiplier of the higher-risk cohort")
	f.Float64Var(&previewInput.Cohorts.SeverityMultiplier, "severity-multiplier", previewInput.Cohorts.SeverityMultiplier, "severity multiplier of the higher-risk cohort")
	f.StringVar(&previewInput.Style.FirstLabel, "first-label", previewInput.Style.FirstLabel, "display name of the lower-risk cohort")
	f.StringVar(&previewInput.Style.SecondLabel, "second-label", previewInput.Style.SecondLabel, "display name of the higher-risk cohort")
	f.StringVar(&previewInput.Style.FirstImage, "first-image", "", "portrait of the lower-risk cohort, relative to ASSETS_DIR")
	f.StringVar(&previewInput.Style.SecondImage, "second-image", "", "portrait of the higher-risk cohort, relative to ASSETS_DIR")
	rootCmd.AddCommand(previewCmd)
}
