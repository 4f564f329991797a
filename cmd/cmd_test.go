package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BlackMission/fedisub/internal/config"
	"github.com/BlackMission/fedisub/internal/observability/logger"
	"github.com/BlackMission/fedisub/pkg/testutil"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "***", mask("abc"))
	assert.Equal(t, "abcd****", mask("abcdefgh"))
}

func TestNewBroker_Flavors(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{AppBase: "https://subs.example"},
		App:    config.AppConfig{Name: "Subs", Flavor: config.FlavorMastodon},
	}
	b, err := newBroker(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://subs.example/registration-callback", b.CallbackURL())

	cfg.App.Flavor = "misskey"
	_, err = newBroker(cfg, nil, nil)
	assert.Error(t, err)
}

func TestRegisterCommand(t *testing.T) {
	fake := testutil.NewFakeInstance(t)
	fake.ClientSecret = "supersecretvalue"

	t.Setenv("APP_BASE", "https://subs.example")
	t.Setenv("API_FLAVOR", "")
	t.Setenv("INSTANCE_ALLOWLIST", "")
	t.Setenv("PORT", "")
	t.Setenv("COOKIE_TTL", "")
	t.Setenv("REGISTER_RATE_PER_MINUTE", "")
	t.Setenv("REGISTER_RATE_BURST", "")
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	root := newRootCmd(&options{version: "test", httpClient: fake.Client()})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"register", "--env-file", "", fake.Domain})

	require.NoError(t, root.ExecuteContext(context.Background()))

	printed := out.String()
	assert.Contains(t, printed, fake.ClientID)
	assert.Contains(t, printed, "https://"+fake.Domain+"/oauth/authorize?")
	assert.Contains(t, printed, "supe************")
	assert.False(t, strings.Contains(printed, fake.ClientSecret), "secret must be masked")
	assert.Len(t, fake.RequestsTo("/api/v1/apps"), 1)
}

func TestRegisterCommand_UsesInjectedClientOnly(t *testing.T) {
	fake := testutil.NewFakeInstance(t)
	t.Setenv("APP_BASE", "https://subs.example")
	t.Setenv("API_FLAVOR", "")
	t.Setenv("INSTANCE_ALLOWLIST", "")
	t.Cleanup(func() { logger.Set(zap.NewNop()) })

	// Without the fake's client its self-signed certificate is rejected.
	root := newRootCmd(&options{version: "test"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"register", "--env-file", "", fake.Domain})

	assert.Error(t, root.ExecuteContext(context.Background()))
	assert.Empty(t, fake.RequestsTo("/api/v1/apps"))
}

func TestVersionFlag(t *testing.T) {
	root := newRootCmd(&options{version: "1.2.3"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "fedisub version 1.2.3\n", out.String())
}
