package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tomhartley/keyship/internal/check"
	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local workstation is ready to deploy keys",
	Long: `Run local environment checks: the key-generation tool must be installed
and the key directory, if it exists, must have safe permissions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand()
	},
}

func doctorCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	keyDir := cfg.Key.Dir
	if keyDir == "" {
		home, _ := os.UserHomeDir()
		keyDir = filepath.Join(home, ".ssh")
	}

	results := check.Environment(keyDir)
	for _, r := range results {
		symbol := ui.Success(ui.SymbolSuccess)
		if !r.Passed {
			symbol = ui.Error(ui.SymbolFail)
		}
		fmt.Printf("%s %s %s\n", symbol, r.Name, ui.Muted(r.Detail))
	}

	if !check.AllPassed(results) {
		return errors.New(errors.ErrConfig,
			"Some environment checks failed",
			"Fix the items marked above and run doctor again")
	}
	return nil
}
