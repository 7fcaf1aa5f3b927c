package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tomhartley/keyship/internal/config"
	"github.com/tomhartley/keyship/internal/ui"
)

var (
	initForceFlag  bool
	initGlobalFlag bool
	initHostFlag   string
	initUserFlag   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a keyship configuration file",
	Long: `Write a starter configuration file with the default key settings.

Writes .keyship.yaml in the current directory, or the global
~/.config/keyship/config.yaml with --global. Passwords are never part of
the configuration.

Examples:
  keyship init
  keyship init --host 203.0.113.10 --user admin
  keyship init --global`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand()
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForceFlag, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initGlobalFlag, "global", false, "write the global config instead of a local one")
	initCmd.Flags().StringVar(&initHostFlag, "host", "", "default remote host")
	initCmd.Flags().StringVar(&initUserFlag, "user", "", "default remote username")
}

func initCommand() error {
	path := config.ConfigFileName
	if initGlobalFlag {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile)
	}

	if _, err := os.Stat(path); err == nil && !initForceFlag {
		overwrite, err := ui.Confirm(
			fmt.Sprintf("%s already exists. Overwrite?", path),
			"The existing file will be replaced with defaults", false)
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Keeping the existing config.")
			return nil
		}
	}

	cfg := config.Default()
	cfg.Remote.Host = initHostFlag
	cfg.Remote.User = initUserFlag

	if err := cfg.Write(path); err != nil {
		return err
	}

	fmt.Printf("%s Wrote %s\n", ui.Success(ui.SymbolSuccess), path)
	return nil
}
