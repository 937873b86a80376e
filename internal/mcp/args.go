package mcp

// The argument structs double as REST request bodies: json and jsonschema tags
// serve the MCP tools, binding tags serve gin's validator.

// RiskPoolArgs are the inputs of simulate_risk_pool.
type RiskPoolArgs struct {
	AccidentProbability float64 `json:"accident_probability" jsonschema:"Probability that a policyholder suffers a $20,000 loss this year, in (0, 1]" binding:"required,probability"`
	NumPolicyholders    int     `json:"num_policyholders" jsonschema:"Number of policyholders in the pool, between 1 and 1000000" binding:"required,gt=0,lte=1000000"`
	Seed                *int64  `json:"seed,omitempty" jsonschema:"Explicit seed. When omitted it is derived from the parameters and the session offset"`
}

// CohortArgs are the inputs of compare_cohorts and compare_premiums.
type CohortArgs struct {
	BaseFrequency      float64 `json:"base_frequency" jsonschema:"Annual accident probability of the lower-risk cohort, e.g. 0.03" binding:"required,gt=0"`
	BaseSeverity       float64 `json:"base_severity" jsonschema:"Average claim amount of the lower-risk cohort in dollars, e.g. 5000" binding:"required,gt=0"`
	FreqMultiplier     float64 `json:"freq_multiplier" jsonschema:"How many times more often the higher-risk cohort has accidents" binding:"required,gt=0"`
	SeverityMultiplier float64 `json:"severity_multiplier" jsonschema:"How many times more costly the higher-risk cohort's claims are" binding:"required,gt=0"`
	FirstLabel         string  `json:"first_label,omitempty" jsonschema:"Display name of the lower-risk cohort"`
	SecondLabel        string  `json:"second_label,omitempty" jsonschema:"Display name of the higher-risk cohort"`
	FirstImage         string  `json:"first_image,omitempty" jsonschema:"Optional portrait file for the lower-risk cohort, relative to the assets directory"`
	SecondImage        string  `json:"second_image,omitempty" jsonschema:"Optional portrait file for the higher-risk cohort, relative to the assets directory"`
	Seed               *int64  `json:"seed,omitempty" jsonschema:"Explicit seed. When omitted it is derived from the parameters and the session offset"`
}

// PremiumArgs are the inputs of calculate_premium.
type PremiumArgs struct {
	Frequency float64 `json:"frequency" jsonschema:"Annual claim probability, e.g. 0.05" binding:"gte=0"`
	Severity  float64 `json:"severity" jsonschema:"Average claim amount in dollars, e.g. 8000" binding:"gte=0"`
}

// ResimulateArgs are the inputs of resimulate.
type ResimulateArgs struct {
	Component string `json:"component" jsonschema:"Which demonstration to re-randomise: risk_pool or cohorts" binding:"required,oneof=risk_pool cohorts"`
}
