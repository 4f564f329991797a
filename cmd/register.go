package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BlackMission/fedisub/internal/metrics"
	"github.com/BlackMission/fedisub/internal/observability/logger"
)

func newRegisterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "register <domain>",
		Short: "Register an application with an instance and print its authorization URL",
		Long: `Register an application with an instance the same way /register-app does,
then print the client id and the authorization URL. Useful to check that an
instance accepts dynamic registration. The client secret is masked.

Examples:
  fedisub register pleroma.example
  API_FLAVOR=mastodon fedisub register mastodon.example`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, opts, args[0])
		},
	}
}

func runRegister(cmd *cobra.Command, opts *options, rawDomain string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	initLogger(cfg, opts)
	defer func() { _ = logger.Sync() }()

	b, err := newBroker(cfg, metrics.New(), opts.httpClient)
	if err != nil {
		return err
	}

	reg, err := b.Begin(cmd.Context(), rawDomain)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Instance:          %s\n", reg.Instance.Domain)
	fmt.Fprintf(out, "Client ID:         %s\n", reg.ClientID)
	fmt.Fprintf(out, "Client secret:     %s\n", mask(reg.ClientSecret))
	fmt.Fprintf(out, "Redirect URI:      %s\n", b.CallbackURL())
	fmt.Fprintf(out, "Authorization URL: %s\n", reg.AuthorizationURL)
	return nil
}

// mask keeps the first four characters of a secret.
func mask(secret string) string {
	const visible = 4
	if len(secret) <= visible {
		return strings.Repeat("*", len(secret))
	}
	return secret[:visible] + strings.Repeat("*", len(secret)-visible)
}
