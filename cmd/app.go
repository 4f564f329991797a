package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/BlackMission/fedisub/internal/auth"
	"github.com/BlackMission/fedisub/internal/broker"
	"github.com/BlackMission/fedisub/internal/config"
	"github.com/BlackMission/fedisub/internal/instance"
	"github.com/BlackMission/fedisub/internal/metrics"
	"github.com/BlackMission/fedisub/internal/observability/logger"
	"github.com/BlackMission/fedisub/internal/providers/mastodon"
	"github.com/BlackMission/fedisub/internal/providers/pleroma"
)

// loadConfig applies the dotenv file, if any, then reads the environment.
// Variables already set in the environment win over the file.
func loadConfig(opts *options) (*config.Config, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", opts.envFile, err)
		}
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.Config, opts *options) {
	logger.Init(logger.Config{
		Env:         cfg.Log.Env,
		Level:       cfg.Log.Level,
		ServiceName: "fedisub",
		Version:     opts.version,
	})
}

// newProviders registers every supported API flavor.
func newProviders(cfg *config.Config, httpClient *http.Client) (*auth.Registry, error) {
	pcfg := pleroma.Config{
		AppName:    cfg.App.Name,
		Website:    cfg.App.Website,
		HTTPClient: httpClient,
	}
	providers := auth.NewRegistry()
	for _, p := range []auth.Provider{pleroma.New(pcfg), mastodon.New(pcfg)} {
		if err := providers.Register(p); err != nil {
			return nil, err
		}
	}
	return providers, nil
}

// newBroker builds the broker for the configured API flavor.
func newBroker(cfg *config.Config, m *metrics.Metrics, httpClient *http.Client) (*broker.Broker, error) {
	providers, err := newProviders(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	provider, err := providers.Get(cfg.App.Flavor)
	if err != nil {
		return nil, fmt.Errorf("API_FLAVOR %q: %w (available: %v)", cfg.App.Flavor, err, providers.Names())
	}

	opts := []broker.Option{broker.WithMetrics(m)}
	if len(cfg.Instances.Allowlist) > 0 {
		opts = append(opts, broker.WithAllowlist(instance.NewAllowlist(cfg.Instances.Allowlist)))
	}
	return broker.New(broker.Config{AppBase: cfg.Server.AppBase}, provider, opts...), nil
}
