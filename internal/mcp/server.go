package mcp

import (
	"context"
	"net/http"

	"insurance-mcp/internal/cache"
	"insurance-mcp/internal/config"
	"insurance-mcp/internal/session"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// ServerName is announced to MCP clients.
const ServerName = "insurance-mcp"

// Server holds the state shared by every tool call: configuration, the
// session offsets and the result cache.
type Server struct {
	cfg      *config.AppConfig
	sessions *session.Store
	cache    cache.Cache
}

// NewServer creates a new MCP server. A nil cache disables memoisation.
func NewServer(cfg *config.AppConfig, sessions *session.Store, c cache.Cache) *Server {
	if cfg == nil {
		cfg = &config.AppConfig{EnableMermaidCharts: true}
	}
	if sessions == nil {
		sessions = session.NewStore(cfg.SessionTTL)
	}
	return &Server{cfg: cfg, sessions: sessions, cache: c}
}

// Sessions exposes the session store so other transports share offsets.
func (s *Server) Sessions() *session.Store {
	return s.sessions
}

// MCP builds a protocol server with every tool registered.
func (s *Server) MCP(version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: ServerName, Version: version}, nil)
	s.registerTools(server)
	return server
}

// ServeStdio runs the protocol over stdin/stdout until the client disconnects
// or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, version string) error {
	log.Info().Str("version", version).Msg("Serving MCP over stdio")
	return s.MCP(version).Run(ctx, &mcpsdk.StdioTransport{})
}

// HTTPHandler serves the streamable HTTP transport. Each HTTP session gets its
// own seed offsets, keyed by the MCP session id.
func (s *Server) HTTPHandler(version string) http.Handler {
	server := s.MCP(version)
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, nil)
}

func (s *Server) state(sessionID string) *session.State {
	if sessionID == "" {
		sessionID = session.DefaultID
	}
	return s.sessions.Get(sessionID)
}

// seedFor resolves the seed of a stochastic component. An explicit seed wins
// over the session-derived one.
func (s *Server) seedFor(sessionID string, c session.Component, base int64, explicit *int64) session.SeedInfo {
	if explicit != nil {
		return session.SeedInfo{Seed: *explicit, Base: *explicit}
	}
	return s.state(sessionID).Seed(c, base)
}

// cached returns the result stored under key, computing and storing it on a
// miss. Results are cached in their typed form so a hit renders exactly the
// envelope the first call produced.
func cached[T any](ctx context.Context, s *Server, key string, compute func() (T, error)) (T, error) {
	if v, ok := cache.GetJSON[T](ctx, s.cache, key); ok {
		log.Debug().Str("key", key).Msg("Serving cached result")
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache result")
	}
	return v, nil
}
