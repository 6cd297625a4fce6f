package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/transport/socketio"
)

func newServeCommand(opts *options) *cobra.Command {
	var (
		addr     string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the core and the Socket.io server",
		Long: `Run the playback core and serve it to Socket.io clients.

The server handles graceful shutdown on SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = opts.cfg.Server.Addr
			}
			return runServe(cmd.Context(), opts, addr, debounce)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.addr)")
	cmd.Flags().DurationVar(&debounce, "debounce", 50*time.Millisecond, "coalesce state pushes within this window (0 disables)")

	return cmd
}

func runServe(ctx context.Context, opts *options, addr string, debounce time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := opts.newApplication()
	if err != nil {
		return err
	}
	defer application.Shutdown()

	logger := application.Logger()

	socketServer, err := socketio.NewServer(
		logger,
		application.EventBus(),
		application.Session(),
		application.Player(),
		application.History(),
		socketio.Config{Debounce: debounce},
	)
	if err != nil {
		return fmt.Errorf("failed to create socket.io server: %w", err)
	}
	defer socketServer.Close()

	application.Start()

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", socketServer)
	mux.Handle("/health", healthHandler(application.Player(), socketServer))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	logger.Info("server stopped")
	return nil
}

type lifecycleSource interface {
	State() domain.LifecycleState
}

type clientCounter interface {
	ClientCount() int
}

// healthHandler reports the player lifecycle state and the connected clients.
func healthHandler(player lifecycleSource, clients clientCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","player":%q,"clients":%d}`, player.State(), clients.ClientCount())
	}
}
