package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderHelpersKeepContent(t *testing.T) {
	// Styling may or may not apply depending on the terminal, but the text
	// itself must always survive.
	assert.Contains(t, Success("done"), "done")
	assert.Contains(t, Error("broken"), "broken")
	assert.Contains(t, Warn("careful"), "careful")
	assert.Contains(t, Muted("aside"), "aside")
}
