package mcp

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"insurance-mcp/internal/cache"
	"insurance-mcp/internal/config"
	"insurance-mcp/internal/premium"
	"insurance-mcp/internal/session"
	"insurance-mcp/internal/simulation"

	json "github.com/goccy/go-json"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, charts bool, c cache.Cache) *Server {
	t.Helper()
	cfg := &config.AppConfig{EnableMermaidCharts: charts, AssetsDir: t.TempDir(), SessionTTL: time.Hour}
	return NewServer(cfg, session.NewStore(time.Hour), c)
}

func TestHandleRiskPool_DerivedSeed(t *testing.T) {
	s := newTestServer(t, true, nil)
	ctx := context.Background()

	env, err := s.HandleRiskPool(ctx, "", RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 100})
	require.NoError(t, err)

	require.NotNil(t, env.SeedInfo)
	assert.Equal(t, session.SeedInfo{Seed: 600, Base: 600, Offset: 0}, *env.SeedInfo)
	assert.Equal(t, "Seed: 600 (Base: 600, Offset: 0)", env.SeedText)
	assert.Equal(t, int64(600), env.Stats["seed"])
	assert.Contains(t, env.Charts, "individual")
	assert.Contains(t, env.Charts, "insurer")
	assert.Contains(t, env.Interpretation, "Insurance Interpretation:")

	again, err := s.HandleRiskPool(ctx, "", RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 100})
	require.NoError(t, err)
	assert.Equal(t, env.Stats["num_with_loss"], again.Stats["num_with_loss"])
}

func TestHandleRiskPool_ExplicitSeed(t *testing.T) {
	s := newTestServer(t, false, nil)
	seed := int64(42)

	env, err := s.HandleRiskPool(context.Background(), "", RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 100, Seed: &seed})
	require.NoError(t, err)

	want, err := simulation.SimulateRiskPool(0.05, 100, 42)
	require.NoError(t, err)
	assert.Equal(t, want.NumWithLoss, env.Stats["num_with_loss"])
	assert.Empty(t, env.Charts)
}

func TestHandleRiskPool_InvalidInput(t *testing.T) {
	s := newTestServer(t, true, nil)

	_, err := s.HandleRiskPool(context.Background(), "", RiskPoolArgs{AccidentProbability: 1.5, NumPolicyholders: 100})
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	_, err = s.HandleRiskPool(context.Background(), "", RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 0})
	assert.True(t, IsInputError(err))

	_, err = s.HandleRiskPool(context.Background(), "", RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 1 << 62})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
}

func TestResimulate_IsSessionScoped(t *testing.T) {
	s := newTestServer(t, false, nil)
	ctx := context.Background()
	args := RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 100}

	res, err := s.HandleResimulate(ctx, "alice", ResimulateArgs{Component: "risk_pool"})
	require.NoError(t, err)
	offset := res.Stats["offset"].(int64)
	assert.GreaterOrEqual(t, offset, int64(1))
	assert.LessOrEqual(t, offset, int64(session.MaxOffset))

	alice, err := s.HandleRiskPool(ctx, "alice", args)
	require.NoError(t, err)
	assert.Equal(t, 600+offset, alice.SeedInfo.Seed)

	bob, err := s.HandleRiskPool(ctx, "bob", args)
	require.NoError(t, err)
	assert.Equal(t, int64(600), bob.SeedInfo.Seed)

	// The cohort offset is independent of the risk pool one.
	cohorts, err := s.HandleCohorts(ctx, "alice", CohortArgs{BaseFrequency: 0.03, BaseSeverity: 5000, FreqMultiplier: 3, SeverityMultiplier: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(0), cohorts.SeedInfo.Offset)
	assert.Equal(t, int64(5800), cohorts.SeedInfo.Seed)

	_, err = s.HandleResimulate(ctx, "alice", ResimulateArgs{Component: "premium"})
	assert.True(t, IsInputError(err))
}

func TestHandleCohorts(t *testing.T) {
	s := newTestServer(t, true, nil)

	env, err := s.HandleCohorts(context.Background(), "", CohortArgs{
		BaseFrequency: 0.03, BaseSeverity: 5000, FreqMultiplier: 3, SeverityMultiplier: 2,
		FirstLabel: "Drake", SecondLabel: "Kendrick", FirstImage: "missing.jpeg",
	})
	require.NoError(t, err)

	for _, key := range []string{"good_avg_frequency", "bad_avg_frequency", "good_avg_severity", "bad_avg_severity",
		"good_total_losses", "bad_total_losses", "loss_multiplier", "freq_multiplier", "severity_multiplier"} {
		assert.Contains(t, env.Stats, key)
	}
	assert.Contains(t, env.Charts["scatter"], "Drake average")
	assert.Contains(t, env.Interpretation, "Kendrick")

	_, err = s.HandleCohorts(context.Background(), "", CohortArgs{BaseFrequency: 0, BaseSeverity: 5000, FreqMultiplier: 3, SeverityMultiplier: 2})
	assert.True(t, IsInputError(err))
}

func TestHandleComparePremiums_UsesObservedAverages(t *testing.T) {
	s := newTestServer(t, true, nil)
	seed := int64(7)
	args := CohortArgs{BaseFrequency: 0.03, BaseSeverity: 5000, FreqMultiplier: 3, SeverityMultiplier: 2, Seed: &seed}

	env, err := s.HandleComparePremiums(context.Background(), "", args)
	require.NoError(t, err)

	cmp, err := simulation.CompareCohorts(simulation.CohortParams{
		BaseFrequency: 0.03, BaseSeverity: 5000, FreqMultiplier: 3, SeverityMultiplier: 2, Seed: 7,
	})
	require.NoError(t, err)
	want, err := premium.FromCohorts(cmp, "", "")
	require.NoError(t, err)

	assert.InDelta(t, want.First.Premium, env.Stats["premium"].(float64), 1e-9)
	assert.InDelta(t, want.Second.Premium, env.Stats["premium_bad"].(float64), 1e-9)
	assert.Contains(t, env.Stats, "premium_ratio")
	assert.Contains(t, env.Charts, "comparison")
}

func TestHandlePremium(t *testing.T) {
	s := newTestServer(t, true, nil)

	env, err := s.HandlePremium(context.Background(), "", PremiumArgs{Frequency: 0.05, Severity: 8000})
	require.NoError(t, err)
	assert.InDelta(t, 571.43, env.Stats["premium"].(float64), 0.01)
	assert.InDelta(t, 1/0.7, env.Stats["loading_factor"].(float64), 1e-9)

	_, err = s.HandlePremium(context.Background(), "", PremiumArgs{Frequency: 0, Severity: 8000})
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	_, err = s.HandlePremium(context.Background(), "", PremiumArgs{Frequency: -1, Severity: 8000})
	assert.True(t, IsInputError(err))
}

func TestHandlers_UseCache(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	s := newTestServer(t, true, mem)
	ctx := context.Background()
	args := RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 100}

	first, err := s.HandleRiskPool(ctx, "", args)
	require.NoError(t, err)
	assert.Equal(t, 1, mem.Len())

	cached, err := s.HandleRiskPool(ctx, "", args)
	require.NoError(t, err)
	assert.Equal(t, first.SeedText, cached.SeedText)
	assert.Equal(t, first.Interpretation, cached.Interpretation)
	assert.Equal(t, 1, mem.Len())

	_, err = s.HandleResimulate(ctx, "", ResimulateArgs{Component: "risk_pool"})
	require.NoError(t, err)
	_, err = s.HandleRiskPool(ctx, "", args)
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len())
}

func TestHandlers_CachedResultMatchesFirstCall(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	s := newTestServer(t, true, mem)
	ctx := context.Background()
	seed := int64(1<<53 + 1)

	pool := RiskPoolArgs{AccidentProbability: 0.05, NumPolicyholders: 100, Seed: &seed}
	first, err := s.HandleRiskPool(ctx, "", pool)
	require.NoError(t, err)
	hit, err := s.HandleRiskPool(ctx, "", pool)
	require.NoError(t, err)
	require.Equal(t, first, hit)
	assert.Equal(t, seed, hit.Stats["seed"])

	cohorts := CohortArgs{BaseFrequency: 0.03, BaseSeverity: 5000, FreqMultiplier: 3, SeverityMultiplier: 2, Seed: &seed}
	first, err = s.HandleCohorts(ctx, "", cohorts)
	require.NoError(t, err)
	hit, err = s.HandleCohorts(ctx, "", cohorts)
	require.NoError(t, err)
	require.Equal(t, first, hit)

	premiums, err := s.HandleComparePremiums(ctx, "", cohorts)
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len(), "compare_premiums reuses the cohort simulation")
	assert.Equal(t, first.Stats, premiums.Data.(map[string]any)["cohort_stats"])

	single := PremiumArgs{Frequency: 0.05, Severity: 8000}
	first, err = s.HandlePremium(ctx, "", single)
	require.NoError(t, err)
	hit, err = s.HandlePremium(ctx, "", single)
	require.NoError(t, err)
	require.Equal(t, first, hit)
}

func TestHandlers_LabelsDoNotChangeTheNumbers(t *testing.T) {
	seed := int64(11)
	base := CohortArgs{BaseFrequency: 0.03, BaseSeverity: 5000, FreqMultiplier: 3, SeverityMultiplier: 2, Seed: &seed}
	labelled := base
	labelled.FirstLabel, labelled.SecondLabel = "Drake", "Kendrick"
	swapped := base
	swapped.FirstLabel, swapped.SecondLabel = "Kendrick", "Drake"

	for _, mem := range []cache.Cache{nil, cache.NewMemory(time.Minute)} {
		s := newTestServer(t, true, mem)
		ctx := context.Background()

		plain, err := s.HandleCohorts(ctx, "", base)
		require.NoError(t, err)
		for _, args := range []CohortArgs{labelled, swapped} {
			env, err := s.HandleCohorts(ctx, "", args)
			require.NoError(t, err)
			assert.Equal(t, plain.Stats, env.Stats)
			assert.Equal(t, plain.SeedInfo, env.SeedInfo)
		}

		plainPremiums, err := s.HandleComparePremiums(ctx, "", base)
		require.NoError(t, err)
		for _, args := range []CohortArgs{labelled, swapped} {
			env, err := s.HandleComparePremiums(ctx, "", args)
			require.NoError(t, err)
			assert.Equal(t, plainPremiums.Stats, env.Stats)
		}

		env, err := s.HandleCohorts(ctx, "", swapped)
		require.NoError(t, err)
		assert.Contains(t, env.Charts["scatter"], "Kendrick average")
	}
}

func TestMCP_InMemoryClient(t *testing.T) {
	s := newTestServer(t, true, nil)
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.MCP("test").Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"simulate_risk_pool", "compare_cohorts", "calculate_premium", "compare_premiums", "resimulate"}, names)

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "simulate_risk_pool",
		Arguments: map[string]any{"accident_probability": 0.05, "num_policyholders": 100},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	var env ResponseEnvelope
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*mcpsdk.TextContent).Text), &env))
	assert.Equal(t, 600.0, env.Stats["seed"])
	assert.Equal(t, 100.0, env.Stats["display_n"])

	bad, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "simulate_risk_pool",
		Arguments: map[string]any{"accident_probability": 1.5, "num_policyholders": 100},
	})
	require.NoError(t, err)
	assert.True(t, bad.IsError)
	assert.Contains(t, bad.Content[0].(*mcpsdk.TextContent).Text, "accident probability")

	// Oversized pools are rejected before any allocation happens.
	huge, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      "simulate_risk_pool",
		Arguments: map[string]any{"accident_probability": 0.05, "num_policyholders": int64(1 << 62)},
	})
	if err == nil {
		assert.True(t, huge.IsError)
	}
}

func TestMCP_RiskPoolSchemaBoundsPopulation(t *testing.T) {
	s := newTestServer(t, false, nil)
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.MCP("test").Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	cs, err := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	for _, tool := range tools.Tools {
		if tool.Name != "simulate_risk_pool" {
			continue
		}
		raw, err := json.Marshal(tool.InputSchema)
		require.NoError(t, err)
		var schema struct {
			Properties map[string]struct {
				Minimum *float64 `json:"minimum"`
				Maximum *float64 `json:"maximum"`
			} `json:"properties"`
		}
		require.NoError(t, json.Unmarshal(raw, &schema))
		prop := schema.Properties["num_policyholders"]
		require.NotNil(t, prop.Maximum)
		assert.Equal(t, float64(simulation.MaxPopulation), *prop.Maximum)
		require.NotNil(t, prop.Minimum)
		assert.Equal(t, 1.0, *prop.Minimum)
		return
	}
	t.Fatal("simulate_risk_pool not listed")
}

func TestMCP_CohortPortraitsAreImageContent(t *testing.T) {
	s := newTestServer(t, false, nil)
	ctx := context.Background()
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	require.NoError(t, os.WriteFile(filepath.Join(s.cfg.AssetsDir, "drake.png"), png, 0644))

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.MCP("test").Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	cs, err := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{
		Name: "compare_cohorts",
		Arguments: map[string]any{
			"base_frequency": 0.03, "base_severity": 5000, "freq_multiplier": 3, "severity_multiplier": 2,
			"first_label": "Drake", "first_image": "drake.png", "second_image": "../drake.png",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 2)

	img, ok := res.Content[1].(*mcpsdk.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, png, img.Data)

	var env ResponseEnvelope
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(*mcpsdk.TextContent).Text), &env))
	style := env.Data.(map[string]any)["style"].(map[string]any)
	assert.Equal(t, "drake.png", style["first_image"])
	assert.Empty(t, style["second_image"])
}

func TestIsInputError(t *testing.T) {
	assert.False(t, IsInputError(nil))
	assert.False(t, IsInputError(context.Canceled))
	_, err := premium.Calculate(math.NaN(), 1)
	assert.True(t, IsInputError(err))
}
