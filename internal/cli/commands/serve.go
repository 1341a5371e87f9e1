package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/web"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the cleaning pipeline over HTTP",
		Long: `Start an HTTP server exposing:

  POST /api/clean     clean a CSV body and return the result
  POST /api/profile   profile a CSV body (JSON, or HTML with Accept: text/html)
  GET  /healthz       liveness
  GET  /metrics       Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  csvclean serve --port 9000 --max-workers 10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)
			return serve(ctx, web.NewServer(cfg), cfg.Server)
		},
	}

	cmd.Flags().String("host", "", "Interface to bind (default: 0.0.0.0)")
	cmd.Flags().Int("port", 0, "Port to listen on (default: 8080)")
	cmd.Flags().Int("max-workers", 0, "Maximum files cleaned in parallel (default: 5)")

	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down within the
// configured timeout.
func serve(ctx context.Context, srv *web.Server, sc config.ServerConfig) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
