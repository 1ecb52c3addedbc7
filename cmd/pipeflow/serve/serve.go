package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/pipeflow/internal/app"
)

// NewCmd creates the `pipeflow serve` command.
func NewCmd() *cobra.Command {
	var addr, root string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve files as streamed concatenations over HTTP",
		Long: `Serve files below a root directory over HTTP.

  GET /concat?path=a&path=b   stream the files one after another
  PUT /files/*path            store the request body
  GET /health                 liveness
  GET /metrics                Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app.FromContext(cmd.Context())
			if addr != "" {
				a.Config.Serve.Addr = addr
			}
			if root != "" {
				a.Config.Serve.Root = root
			}
			return Serve(cmd.Context(), a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides serve.addr)")
	cmd.Flags().StringVar(&root, "root", "", "Directory files are served from (overrides serve.root)")
	return cmd
}

// Serve listens on the configured address until ctx is done, then shuts the
// server down gracefully.
func Serve(ctx context.Context, a *app.App) error {
	cfg := a.Config.Serve

	handler, err := NewHandler(a)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", cfg.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.Logger.Info().Str("addr", ln.Addr().String()).Str("root", cfg.Root).Msg("HTTP server started")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.Logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	<-errCh
	return nil
}
