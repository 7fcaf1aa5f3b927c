package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomhartley/keyship/internal/check"
	"github.com/tomhartley/keyship/internal/ui"
	"github.com/tomhartley/keyship/pkg/sshx"
)

var (
	auditUserFlag string
	auditPortFlag int
)

var auditCmd = &cobra.Command{
	Use:   "audit [user@]host[:port]",
	Short: "Inspect the remote server's authentication policy",
	Long: `Read the authentication directives from the remote sshd configuration.

Useful when a deployment ends up deployed-but-unverified: if the server has
PubkeyAuthentication disabled, installing a key can never be enough. This
command only reads the policy; server configuration is never changed.

Examples:
  keyship audit admin@203.0.113.10`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		return auditCommand(arg)
	},
}

func init() {
	auditCmd.Flags().StringVarP(&auditUserFlag, "user", "u", "", "remote username")
	auditCmd.Flags().IntVarP(&auditPortFlag, "port", "p", 0, "SSH port")
}

func auditCommand(arg string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t, err := resolveTarget(cfg, arg, auditUserFlag, auditPortFlag)
	if err != nil {
		return err
	}

	t.Password, err = passwordFor(t)
	if err != nil {
		return err
	}

	session, err := sshx.DialPassword(t, cfg.Timeouts.Dial)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Command)
	defer cancel()

	policy, err := check.AuditAuthPolicy(ctx, session)
	if err != nil {
		return err
	}

	fmt.Printf("Authentication policy on %s:\n\n", t.String())
	printDirective("PubkeyAuthentication", policy.PubkeyAuthentication, policy.PubkeyEnabled())
	printDirective("PasswordAuthentication", policy.PasswordAuthentication, policy.PasswordEnabled())
	if policy.PermitRootLogin != "" {
		fmt.Printf("  %s PermitRootLogin %s\n", ui.Muted("·"), policy.PermitRootLogin)
	}

	if !policy.PubkeyEnabled() {
		fmt.Printf("\n%s Key deployments to this server can't be verified until PubkeyAuthentication is enabled in sshd_config.\n",
			ui.Warn(ui.SymbolWarning))
	}
	return nil
}

func printDirective(name, value string, enabled bool) {
	display := value
	if display == "" {
		display = "unset (server default)"
	}
	symbol := ui.Success(ui.SymbolSuccess)
	if !enabled {
		symbol = ui.Warn(ui.SymbolWarning)
	}
	fmt.Printf("  %s %s %s\n", symbol, name, display)
}
