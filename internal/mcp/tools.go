package mcp

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"insurance-mcp/internal/session"
	"insurance-mcp/internal/simulation"
)

func (s *Server) registerTools(server *mcpsdk.Server) {
	poolSchema := mustSchema[RiskPoolArgs]()
	if prop, ok := poolSchema.Properties["num_policyholders"]; ok {
		prop.Minimum = jsonschema.Ptr(1.0)
		prop.Maximum = jsonschema.Ptr(float64(simulation.MaxPopulation))
	}
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "simulate_risk_pool",
		Description: "Simulate one year of a pool of identical policyholders, each facing the same chance of a $20,000 loss. " +
			"Returns how many people had a loss, the fair premium, premiums collected vs. losses paid and the Actual/Expected ratio. " +
			"Guidance: increase num_policyholders to show the law of large numbers; call 'resimulate' with component 'risk_pool' to draw a different year.",
		InputSchema: poolSchema,
	}, toolHandler(s.HandleRiskPool))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "compare_cohorts",
		Description: "Simulate two cohorts of 200 members with different risk profiles. The second cohort's targets are the base values times the multipliers. " +
			"Returns observed averages, total expected losses and the observed frequency, severity and loss multipliers, plus a frequency vs. claim amount scatter.",
		InputSchema: mustSchema[CohortArgs](),
	}, toolHandler(s.HandleCohorts))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "calculate_premium",
		Description: "Build a premium from a claim frequency and severity: Premium = Expected Loss / (1 - 0.25 expense ratio - 0.05 risk margin). " +
			"Returns every component and the loading factor.",
		InputSchema: mustSchema[PremiumArgs](),
	}, toolHandler(s.HandlePremium))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "compare_premiums",
		Description: "Run the cohort comparison and price both cohorts from their OBSERVED average frequency and severity, " +
			"so the premiums carry that simulation's sampling noise. Returns both breakdowns, the premium ratio and the difference.",
		InputSchema: mustSchema[CohortArgs](),
	}, toolHandler(s.HandleComparePremiums))

	resimulateSchema := mustSchema[ResimulateArgs]()
	if prop, ok := resimulateSchema.Properties["component"]; ok {
		prop.Enum = []any{string(session.RiskPool), string(session.Cohorts)}
	}
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: "resimulate",
		Description: "Draw a new random offset for one demonstration in the calling session. " +
			"The next call with the same parameters produces a different, but still reproducible, outcome.",
		InputSchema: resimulateSchema,
	}, toolHandler(s.HandleResimulate))
}

// mustSchema derives the input schema of a tool from its argument struct.
func mustSchema[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("failed to derive schema for %T: %v", *new(T), err))
	}
	return schema
}

// toolHandler adapts a handler to the SDK. Failures become tool errors carrying
// the descriptive message, so the client can correct its arguments.
func toolHandler[In any](h func(ctx context.Context, sessionID string, args In) (ResponseEnvelope, error)) mcpsdk.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, args In) (*mcpsdk.CallToolResult, any, error) {
		sessionID := ""
		if req != nil && req.Session != nil {
			sessionID = req.Session.ID()
		}

		env, err := h(ctx, sessionID, args)
		if err != nil {
			if !IsInputError(err) {
				log.Error().Err(err).Msg("Tool call failed")
			}
			return errorResult(err), nil, nil
		}

		out, err := json.Marshal(env)
		if err != nil {
			return errorResult(fmt.Errorf("failed to encode result: %w", err)), nil, nil
		}
		content := []mcpsdk.Content{&mcpsdk.TextContent{Text: string(out)}}
		for _, p := range env.Portraits {
			content = append(content, &mcpsdk.ImageContent{Data: p.Data, MIMEType: p.MIMEType})
		}
		return &mcpsdk.CallToolResult{Content: content}, nil, nil
	}
}

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}
}
