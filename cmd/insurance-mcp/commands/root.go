package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insurance-mcp/internal/cache"
	"insurance-mcp/internal/config"
	"insurance-mcp/internal/logging"
	"insurance-mcp/internal/mcp"
	"insurance-mcp/internal/session"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "insurance-mcp",
	Short: "Insurance fundamentals simulations served over MCP",
	Long: `An MCP server and CLI that demonstrates risk pooling, risk segmentation
and premium building with reproducible Monte Carlo simulations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("insurance-mcp starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, cleanup := newService(ctx)
		defer cleanup()
		return svc.ServeStdio(ctx, Version)
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// newService wires the session store and the result cache shared by every
// transport. The returned cleanup stops background work.
func newService(ctx context.Context) (*mcp.Server, func()) {
	sessions := session.NewStore(cfg.SessionTTL)
	sessions.Start(sweepInterval(cfg.SessionTTL))

	memory := cache.NewMemory(cfg.CacheTTL)
	var resultCache cache.Cache = memory
	var closeCache func() error
	if cfg.RedisAddr != "" {
		r := cache.NewRedis(cfg.RedisAddr, cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := r.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, using in-memory cache")
			_ = r.Close()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis result cache")
			resultCache, closeCache = r, r.Close
		}
	}
	if closeCache == nil {
		memory.Start(sweepInterval(cfg.CacheTTL))
	}

	return mcp.NewServer(cfg, sessions, resultCache), func() {
		sessions.Stop()
		memory.Stop()
		if closeCache != nil {
			_ = closeCache()
		}
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Minute
	}
	return max(ttl/4, time.Second)
}
