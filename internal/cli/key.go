package cli

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/ui"
)

var keyShowCopyFlag bool

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the local key pair",
}

var keyEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Generate the local key pair if it doesn't exist",
	Long: `Make sure the configured key pair exists, generating it on first use.

Generation uses ssh-keygen with an empty passphrase so deployments can
authenticate non-interactively. Once the pair exists this command changes
nothing, no matter how often it runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyEnsureCommand()
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the public key",
	Long: `Print the public key for pasting into an authorized_keys file.

With --copy the key is also placed on the system clipboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return keyShowCommand(keyShowCopyFlag)
	},
}

func init() {
	keyShowCmd.Flags().BoolVar(&keyShowCopyFlag, "copy", false, "copy the public key to the clipboard")
	keyCmd.AddCommand(keyEnsureCmd)
	keyCmd.AddCommand(keyShowCmd)
}

func keyEnsureCommand() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := provisionerFor(cfg)

	pair, err := p.EnsureKeyPair()
	if err != nil {
		return err
	}

	fmt.Printf("%s Key pair ready\n", ui.Success(ui.SymbolSuccess))
	fmt.Printf("  private: %s\n", pair.PrivatePath)
	fmt.Printf("  public:  %s\n", pair.PublicPath)
	return nil
}

func keyShowCommand(copyToClipboard bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p := provisionerFor(cfg)

	pair, err := p.EnsureKeyPair()
	if err != nil {
		return err
	}

	fmt.Println(pair.PublicKey)

	if copyToClipboard {
		if err := clipboard.WriteAll(pair.PublicKey); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't copy the key to the clipboard",
				"Copy the printed line manually")
		}
		fmt.Fprintf(os.Stderr, "%s Copied to clipboard\n", ui.Success(ui.SymbolSuccess))
	}
	return nil
}
