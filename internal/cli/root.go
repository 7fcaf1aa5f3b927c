// Package cli wires the keyship commands. Commands are thin: they parse
// flags, prompt where a terminal is available, and delegate to the keys,
// deploy, and check packages.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configFlag is the global --config override.
var configFlag string

var rootCmd = &cobra.Command{
	Use:   "keyship",
	Short: "Bootstrap password-less SSH logins",
	Long: `keyship sets up public-key SSH authentication to a remote host.

It makes sure a local key pair exists (generating one with ssh-keygen on
first use), installs the public key into the remote account's
authorized_keys over a password-authenticated session, and then proves the
deployment worked by opening a second session with the key alone.

Examples:
  keyship deploy user@203.0.113.10
  keyship deploy web1 --port 2222
  keyship check user@203.0.113.10
  keyship audit user@203.0.113.10`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// SetVersionInfo stores build-time version information.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"config file (default: .keyship.yaml, then ~/.config/keyship/config.yaml)")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("keyship %s (commit %s, built %s)\n", version, commit, date)
	},
}
