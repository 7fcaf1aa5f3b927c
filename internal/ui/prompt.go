package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/tomhartley/keyship/internal/errors"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin is attached to a terminal; prompts
// are skipped entirely otherwise.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// PromptPassword reads a password from the terminal without echoing it.
// The password is returned to the caller and never logged or stored.
func PromptPassword(label string) (string, error) {
	if !IsInteractive() {
		return "", errors.New(errors.ErrConfig,
			"Can't prompt for a password without a terminal",
			"Set the password via the KEYSHIP_PASSWORD environment variable")
	}

	fmt.Fprintf(os.Stderr, "%s: ", label)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read password",
			"")
	}
	return string(pw), nil
}

// Confirm asks a yes/no question. Non-interactive sessions get the
// fallback answer without prompting.
func Confirm(title, description string, fallback bool) (bool, error) {
	if !IsInteractive() {
		return fallback, nil
	}

	answer := fallback
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&answer),
		),
	)
	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"")
	}
	return answer, nil
}
