package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tomhartley/keyship/internal/check"
	"github.com/tomhartley/keyship/internal/ui"
	"github.com/tomhartley/keyship/pkg/sshx"
)

var (
	checkUserFlag string
	checkPortFlag int
)

var checkCmd = &cobra.Command{
	Use:   "check [user@]host[:port]",
	Short: "Test network and SSH connectivity to a host",
	Long: `Test that a host is reachable and that password authentication works.

Runs a TCP reachability probe first, then opens and closes a full
password-authenticated SSH session. Nothing is deployed.

Examples:
  keyship check admin@203.0.113.10
  keyship check web1 --port 2222`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) > 0 {
			arg = args[0]
		}
		return checkCommand(arg)
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkUserFlag, "user", "u", "", "remote username")
	checkCmd.Flags().IntVarP(&checkPortFlag, "port", "p", 0, "SSH port")
}

func checkCommand(arg string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t, err := resolveTarget(cfg, arg, checkUserFlag, checkPortFlag)
	if err != nil {
		return err
	}

	tcpLatency, err := check.ProbeTCP(t.Addr(), cfg.Timeouts.Dial)
	if err != nil {
		fmt.Printf("%s TCP connection to %s\n", ui.Error(ui.SymbolFail), t.Addr())
		return err
	}
	fmt.Printf("%s TCP connection to %s %s\n",
		ui.Success(ui.SymbolSuccess), t.Addr(), ui.Muted(tcpLatency.Round(time.Millisecond).String()))

	t.Password, err = passwordFor(t)
	if err != nil {
		return err
	}

	authLatency, err := check.ProbeAuth(sshx.NetDialer{}, t, cfg.Timeouts.Dial)
	if err != nil {
		fmt.Printf("%s SSH authentication as %s\n", ui.Error(ui.SymbolFail), t.User)
		return err
	}
	fmt.Printf("%s SSH authentication as %s %s\n",
		ui.Success(ui.SymbolSuccess), t.User, ui.Muted(authLatency.Round(time.Millisecond).String()))
	return nil
}
