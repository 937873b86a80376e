package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insurance-mcp/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var httpAddr string

var serveCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Serve the REST API and the streamable MCP endpoint over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		svc, cleanup := newService(ctx)
		defer cleanup()

		limiter := api.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
		defer limiter.Stop()

		addr := cfg.HTTPAddr
		if httpAddr != "" {
			addr = httpAddr
		}

		server := &http.Server{
			Addr:         addr,
			Handler:      api.NewRouter(svc, limiter, Version),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErr := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Msg("HTTP server listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()

		select {
		case err := <-serverErr:
			return err
		case <-ctx.Done():
			log.Info().Msg("Shutting down server...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error during server shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (overrides HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
