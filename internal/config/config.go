package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BlackMission/fedisub/internal/domain"
)

// API flavors understood by the broker.
const (
	FlavorPleroma  = "pleroma"
	FlavorMastodon = "mastodon"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Instances InstanceConfig
	Cookies   CookieConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
	// AppBase is the public origin instances redirect back to.
	AppBase string
}

// AppConfig describes the application registered with each instance.
type AppConfig struct {
	Name    string
	Website string
	Flavor  string
}

// InstanceConfig restricts which instances users may sign in with.
type InstanceConfig struct {
	// Allowlist is empty when any instance is accepted.
	Allowlist []string
}

// CookieConfig holds carrier cookie settings.
type CookieConfig struct {
	TTL time.Duration
}

// RateLimitConfig throttles /register-app per client IP.
type RateLimitConfig struct {
	PerMinute int
	Burst     int

	// TrustProxyHeaders keys on X-Forwarded-For. Enable only behind a proxy that sets it.
	TrustProxyHeaders bool
}

// LogConfig selects the logger encoding and level.
type LogConfig struct {
	Env   string
	Level string
}

// LoadFromEnv reads configuration purely from environment variables.
func LoadFromEnv() (*Config, error) {
	port, err := getenvInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	ttl, err := getenvDuration("COOKIE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	perMinute, err := getenvInt("REGISTER_RATE_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	burst, err := getenvInt("REGISTER_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}
	trustProxy, err := getenvBool("TRUST_PROXY_HEADERS", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    port,
			Host:    getenvDefault("HOST", "0.0.0.0"),
			AppBase: strings.TrimRight(getenvDefault("APP_BASE", fmt.Sprintf("http://localhost:%d", port)), "/"),
		},
		App: AppConfig{
			Name:    getenvDefault("APP_NAME", "Pleroma Subscription App"),
			Website: os.Getenv("APP_WEBSITE"),
			Flavor:  strings.ToLower(getenvDefault("API_FLAVOR", FlavorPleroma)),
		},
		Instances: InstanceConfig{
			Allowlist: splitComma(os.Getenv("INSTANCE_ALLOWLIST")),
		},
		Cookies: CookieConfig{TTL: ttl},
		RateLimit: RateLimitConfig{
			PerMinute:         perMinute,
			Burst:             burst,
			TrustProxyHeaders: trustProxy,
		},
		Log: LogConfig{
			Env:   getenvDefault("APP_ENV", "dev"),
			Level: getenvDefault("LOG_LEVEL", "info"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("%w: PORT out of range: %d", domain.ErrInvalidConfig, cfg.Server.Port)
	}
	u, err := url.Parse(cfg.Server.AppBase)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: APP_BASE must be an absolute http(s) URL, got %q", domain.ErrInvalidConfig, cfg.Server.AppBase)
	}
	if u.Path != "" || u.RawQuery != "" {
		return fmt.Errorf("%w: APP_BASE must not have a path or query, got %q", domain.ErrInvalidConfig, cfg.Server.AppBase)
	}
	if cfg.App.Name == "" {
		return fmt.Errorf("%w: APP_NAME is required", domain.ErrMissingConfig)
	}
	switch cfg.App.Flavor {
	case FlavorPleroma, FlavorMastodon:
	default:
		return fmt.Errorf("%w: API_FLAVOR must be %q or %q, got %q", domain.ErrInvalidConfig, FlavorPleroma, FlavorMastodon, cfg.App.Flavor)
	}
	if cfg.Cookies.TTL <= 0 {
		return fmt.Errorf("%w: COOKIE_TTL must be positive", domain.ErrInvalidConfig)
	}
	if cfg.RateLimit.PerMinute < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number: %v", domain.ErrInvalidConfig, key, err)
	}
	return n, nil
}

func getenvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean: %v", domain.ErrInvalidConfig, key, err)
	}
	return b, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a duration: %v", domain.ErrInvalidConfig, key, err)
	}
	return d, nil
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
