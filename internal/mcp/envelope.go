package mcp

import (
	"errors"

	"insurance-mcp/internal/premium"
	"insurance-mcp/internal/session"
	"insurance-mcp/internal/simulation"
	"insurance-mcp/internal/visuals"
)

// ResponseEnvelope is the common shape of every tool result: the statistics
// mapping, optional chart sources and the interpretation shown next to them.
type ResponseEnvelope struct {
	Stats          map[string]any    `json:"stats"`
	Data           any               `json:"data,omitempty"`
	Charts         map[string]string `json:"charts,omitempty"`
	Interpretation string            `json:"interpretation,omitempty"`
	SeedInfo       *session.SeedInfo `json:"seed_info,omitempty"`
	SeedText       string            `json:"seed_text,omitempty"`
	Guidance       []string          `json:"guidance,omitempty"`
	// Portraits travel as MCP image content, not inside the JSON text.
	Portraits []visuals.Portrait `json:"-"`
}

// IsInputError reports whether err was caused by the caller's arguments rather
// than by the server.
func IsInputError(err error) bool {
	return errors.Is(err, simulation.ErrInvalidParameter) ||
		errors.Is(err, premium.ErrInvalidInput) ||
		errors.Is(err, premium.ErrUndefinedLoading) ||
		errors.Is(err, premium.ErrUndefinedRatio) ||
		errors.Is(err, session.ErrUnknownComponent)
}
