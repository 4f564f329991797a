package config

import (
	"errors"
	"testing"
	"time"

	"github.com/BlackMission/fedisub/internal/domain"
)

// clearEnv blanks every variable LoadFromEnv reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "HOST", "APP_BASE", "APP_NAME", "APP_WEBSITE", "API_FLAVOR",
		"INSTANCE_ALLOWLIST", "COOKIE_TTL", "REGISTER_RATE_PER_MINUTE",
		"REGISTER_RATE_BURST", "TRUST_PROXY_HEADERS", "APP_ENV", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Server.AppBase != "http://localhost:8080" {
		t.Errorf("expected default app base, got %s", cfg.Server.AppBase)
	}
	if cfg.App.Name != "Pleroma Subscription App" {
		t.Errorf("unexpected app name %q", cfg.App.Name)
	}
	if cfg.App.Flavor != FlavorPleroma {
		t.Errorf("expected pleroma flavor, got %s", cfg.App.Flavor)
	}
	if cfg.Cookies.TTL != 24*time.Hour {
		t.Errorf("expected 24h cookie ttl, got %s", cfg.Cookies.TTL)
	}
	if cfg.RateLimit.TrustProxyHeaders {
		t.Error("proxy headers must not be trusted by default")
	}
	if cfg.RateLimit.PerMinute != 10 || cfg.RateLimit.Burst != 5 {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if len(cfg.Instances.Allowlist) != 0 {
		t.Errorf("expected empty allowlist, got %v", cfg.Instances.Allowlist)
	}
	if cfg.Log.Env != "dev" || cfg.Log.Level != "info" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadFromEnv_FullConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("APP_BASE", "https://subs.example.com/")
	t.Setenv("APP_NAME", "Subs")
	t.Setenv("APP_WEBSITE", "https://subs.example.com/about")
	t.Setenv("API_FLAVOR", "Mastodon")
	t.Setenv("INSTANCE_ALLOWLIST", "pleroma.example, *.akkoma.example ,")
	t.Setenv("COOKIE_TTL", "2h")
	t.Setenv("REGISTER_RATE_PER_MINUTE", "30")
	t.Setenv("REGISTER_RATE_BURST", "1")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.AppBase != "https://subs.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Server.AppBase)
	}
	if cfg.App.Website != "https://subs.example.com/about" {
		t.Errorf("unexpected website %s", cfg.App.Website)
	}
	if cfg.App.Flavor != FlavorMastodon {
		t.Errorf("expected mastodon flavor, got %s", cfg.App.Flavor)
	}
	if len(cfg.Instances.Allowlist) != 2 || cfg.Instances.Allowlist[1] != "*.akkoma.example" {
		t.Errorf("unexpected allowlist %v", cfg.Instances.Allowlist)
	}
	if cfg.Cookies.TTL != 2*time.Hour {
		t.Errorf("expected 2h, got %s", cfg.Cookies.TTL)
	}
	if !cfg.RateLimit.TrustProxyHeaders {
		t.Error("expected TRUST_PROXY_HEADERS to be honoured")
	}
	if cfg.RateLimit.PerMinute != 30 || cfg.RateLimit.Burst != 1 {
		t.Errorf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if cfg.Log.Env != "prod" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"port not a number": {"PORT", "abc"},
		"port out of range": {"PORT", "70000"},
		"bad ttl":           {"COOKIE_TTL", "tomorrow"},
		"negative ttl":      {"COOKIE_TTL", "-1h"},
		"bad flavor":        {"API_FLAVOR", "misskey"},
		"relative base":     {"APP_BASE", "subs.example.com"},
		"base with path":    {"APP_BASE", "https://subs.example.com/app"},
		"bad rate":          {"REGISTER_RATE_BURST", "many"},
		"negative rate":     {"REGISTER_RATE_PER_MINUTE", "-3"},
		"bad proxy flag":    {"TRUST_PROXY_HEADERS", "sometimes"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := LoadFromEnv()
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSplitComma(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},
		{"a,b,c", 3},
		{" a , b , c ", 3},
		{"a,,b", 2},
	}

	for _, tt := range tests {
		got := splitComma(tt.input)
		if len(got) != tt.want {
			t.Errorf("splitComma(%q) = %v (len %d), want len %d", tt.input, got, len(got), tt.want)
		}
	}
}
