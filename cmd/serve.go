package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BlackMission/fedisub/internal/handler"
	"github.com/BlackMission/fedisub/internal/metrics"
	"github.com/BlackMission/fedisub/internal/observability/logger"
	"github.com/BlackMission/fedisub/internal/ratelimit"
	"github.com/BlackMission/fedisub/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	initLogger(cfg, opts)
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	m := metrics.New()
	b, err := newBroker(cfg, m, opts.httpClient)
	if err != nil {
		return err
	}
	views, err := handler.NewViews()
	if err != nil {
		return err
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.PerMinute > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			RequestsPerWindow: cfg.RateLimit.PerMinute,
			Window:            time.Minute,
			Burst:             cfg.RateLimit.Burst,
		}, m.RateLimited)
	}

	srv := server.New(server.Config{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		CookieTTL:         cfg.Cookies.TTL,
		TrustProxyHeaders: cfg.RateLimit.TrustProxyHeaders,
	}, server.Deps{
		Broker:  b,
		Views:   views,
		Metrics: m,
		Limiter: limiter,
	})

	log.Info("broker configured",
		logger.String("app_base", cfg.Server.AppBase),
		logger.String("flavor", cfg.App.Flavor),
		logger.Int("allowlist_size", len(cfg.Instances.Allowlist)),
	)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
