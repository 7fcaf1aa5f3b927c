package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomhartley/keyship/internal/errors"
)

// go test runs without a TTY on stdin, so the non-interactive paths are the
// ones exercised here.

func TestPromptPasswordNonInteractive(t *testing.T) {
	if IsInteractive() {
		t.Skip("stdin is a terminal")
	}

	_, err := PromptPassword("Password")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "KEYSHIP_PASSWORD")
}

func TestConfirmNonInteractiveFallback(t *testing.T) {
	if IsInteractive() {
		t.Skip("stdin is a terminal")
	}

	yes, err := Confirm("Overwrite?", "", true)
	require.NoError(t, err)
	assert.True(t, yes)

	no, err := Confirm("Overwrite?", "", false)
	require.NoError(t, err)
	assert.False(t, no)
}
