package cli

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sshsshje/sshsshje/internal/api"
	"github.com/sshsshje/sshsshje/internal/auth"
	"github.com/sshsshje/sshsshje/internal/broadcast"
	"github.com/sshsshje/sshsshje/internal/config"
	"github.com/sshsshje/sshsshje/internal/errors"
	"github.com/sshsshje/sshsshje/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket gateway",
	Long: `Start the gateway: REST endpoints under /api, liveness at /health and
periodic system updates on /ws. Stops cleanly on SIGINT or SIGTERM.

Examples:
  SSH_HOST=10.0.0.5 sshsshje serve
  TELEMETRY_SOURCE=mock sshsshje serve
  sshsshje serve --config /etc/sshsshje.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCommand(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveCommand(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stdout)

	src, err := telemetry.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("closing source", "error", errors.Summary(err))
		}
	}()

	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot listen on "+cfg.Server.Listen,
			"Pick a free address with LISTEN_ADDR or server.listen")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, ln, cfg, src, log)
}

// serve runs the broadcast loop and the HTTP server on ln until ctx is
// cancelled or the server fails, then shuts the server down within
// server.shutdown_timeout.
func serve(ctx context.Context, ln net.Listener, cfg *config.Config, src telemetry.Source, log *slog.Logger) error {
	reg := broadcast.NewRegistry(log)
	loop := broadcast.NewLoop(reg, systemSnapshot(src), broadcast.LoopOptions{
		Interval:     cfg.Broadcast.Interval,
		ErrorBackoff: cfg.Broadcast.ErrorBackoff,
		Logger:       log,
	})

	srv := &http.Server{
		Handler: api.NewRouter(api.Options{
			Source:         src,
			Registry:       reg,
			Loop:           loop,
			Auth:           auth.New(cfg.Auth.Enabled, cfg.Auth.Mode, cfg.Auth.APIKey),
			CORSOrigins:    cfg.Server.CORSOrigins,
			WSWriteTimeout: cfg.Broadcast.WriteTimeout,
			Logger:         log,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Info("gateway listening",
		"addr", ln.Addr().String(),
		"source", src.Name(),
		"target", targetLabel(cfg),
		"auth", cfg.Auth.Enabled)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapWithCode(err, errors.ErrConfig, "HTTP server failed", "")
		}
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	log.Info("gateway stopped")
	return err
}

// systemSnapshot is the payload of every system_update push.
func systemSnapshot(src telemetry.Source) broadcast.SnapshotFunc {
	return func(ctx context.Context) (any, error) {
		return src.System(ctx)
	}
}
