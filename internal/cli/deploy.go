package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomhartley/keyship/internal/deploy"
	"github.com/tomhartley/keyship/internal/logger"
	"github.com/tomhartley/keyship/internal/target"
	"github.com/tomhartley/keyship/internal/ui"
	"github.com/tomhartley/keyship/pkg/sshx"
)

var (
	deployUserFlag string
	deployPortFlag int
)

var deployCmd = &cobra.Command{
	Use:   "deploy [user@]host[:port]",
	Short: "Install the public key on a remote host and verify it",
	Long: `Deploy the local public key to a remote account's authorized_keys.

The host argument may be a hostname, user@host, host:port, or an alias from
~/.ssh/config. The bootstrap session authenticates with a password (prompted,
or taken from KEYSHIP_PASSWORD); afterwards a separate key-only session
proves the server accepts the key.

Deploying the same key twice appends a duplicate line; authorized_keys is
never rewritten or deduplicated.

Examples:
  keyship deploy admin@203.0.113.10
  keyship deploy web1 --port 2222`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		return deployCommand(arg)
	},
}

func init() {
	deployCmd.Flags().StringVarP(&deployUserFlag, "user", "u", "", "remote username")
	deployCmd.Flags().IntVarP(&deployPortFlag, "port", "p", 0, "SSH port")
}

func deployCommand(arg string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t, err := resolveTarget(cfg, arg, deployUserFlag, deployPortFlag)
	if err != nil {
		return err
	}

	t.Password, err = passwordFor(t)
	if err != nil {
		return err
	}

	progress := ui.NewProgress()
	defer progress.Finish()

	progress.Step("Provisioning local key pair")
	pair, err := provisionerFor(cfg).EnsureKeyPair()
	if err != nil {
		progress.StepFail("")
		progress.Finish()
		return err
	}
	progress.StepSuccess(pair.PrivatePath)
	t.KeyPath = pair.PrivatePath

	orch := deploy.New(sshx.NetDialer{}, logger.NewEnvLogger("[deploy]"))
	orch.DialTimeout = cfg.Timeouts.Dial
	orch.CommandTimeout = cfg.Timeouts.Command
	orch.VerifyTimeout = cfg.Timeouts.Verify

	progress.Step(fmt.Sprintf("Deploying public key to %s", t.String()))
	result := orch.Deploy(context.Background(), t, pair.PublicKey)

	switch result.Status {
	case deploy.StatusDeployedVerified:
		progress.StepSuccess("")
	case deploy.StatusDeployedUnverified:
		progress.StepWarn("key installed, verification failed")
	default:
		progress.StepFail("")
	}
	progress.Finish()

	for _, w := range result.Reports.Warnings() {
		fmt.Println(ui.Muted(fmt.Sprintf("  warning: %s", w)))
	}

	switch result.Status {
	case deploy.StatusDeployedVerified:
		fmt.Printf("\n%s %s\n", ui.Success(ui.SymbolSuccess), result.Message)
		fmt.Printf("\nLog in with:\n  %s\n", sshHint(t))
	case deploy.StatusDeployedUnverified:
		fmt.Printf("\n%s %s\n", ui.Warn(ui.SymbolWarning), result.Message)
		fmt.Println(ui.Muted("The server may have PubkeyAuthentication disabled; check with: keyship audit " + t.String()))
	default:
		return result.Err
	}
	return nil
}

// sshHint renders the command line the operator can use after deployment,
// omitting the port flag for the default port.
func sshHint(t target.Target) string {
	hint := fmt.Sprintf("ssh %s@%s", t.User, t.Host)
	if t.Port != 0 && t.Port != 22 {
		hint += fmt.Sprintf(" -p %d", t.Port)
	}
	return hint
}
