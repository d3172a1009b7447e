package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/s0up4200/libgate/api"
	"github.com/s0up4200/libgate/watchlist"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the /api/lib JSON API. Students authenticate with HTTP basic auth
using their library student id and password.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := watchlist.Open(cfg.Watchlist.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open watch list: %w", err)
	}
	defer store.Close()

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := api.NewHandler(service, store, logger,
		api.WithPerPage(cfg.API.PerPage),
		api.WithWatchConcurrency(cfg.API.WatchConcurrency),
		api.WithFilters(cfg.Filter),
	)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler: api.NewRouter(handler, api.RouterConfig{
			CORSOrigins: cfg.Server.CORSOrigins,
			Profiling:   cfg.Server.Pprof,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info().Int("sessions", service.Sessions()).Msg("Server stopped")
	return nil
}
