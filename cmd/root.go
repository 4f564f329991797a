package cmd

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// options carries what every subcommand needs beyond the environment.
type options struct {
	envFile string
	version string
	// httpClient is used for every call to remote instances. Nil means http.DefaultClient.
	httpClient *http.Client
}

// newRootCmd builds the command tree. The root runs the web server when called
// without a subcommand.
func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "fedisub",
		Short: "Manage post subscriptions on Pleroma and Mastodon instances",
		Long: `fedisub signs users in to any Pleroma, Akkoma or Mastodon instance by
registering itself with that instance on the fly, then lets them subscribe to
or unsubscribe from the accounts they follow.`,
		Version:      opts.version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	root.SetVersionTemplate(`{{printf "fedisub version %s\n" .Version}}`)
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newRegisterCmd(opts))
	return root
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(&options{version: version}).Execute(); err != nil {
		os.Exit(1)
	}
}
