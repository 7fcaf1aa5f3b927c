package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/tomhartley/keyship/internal/errors"
	"gopkg.in/yaml.v3"
)

const fileHeader = `# keyship configuration
#
# key:      local key pair settings (never regenerated once the pair exists)
# remote:   default deployment target; the password is always prompted,
#           never stored
# timeouts: bounds on remote operations
`

// Write marshals the config to YAML and writes it to path, creating parent
// directories as needed. Used by 'keyship init'.
func (c *Config) Write(path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	buf.WriteString("\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't serialize configuration",
			"")
	}
	if err := enc.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't serialize configuration",
			"")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't create config directory: "+dir,
				"Check permissions")
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write config file: "+path,
			"Check permissions on the target directory")
	}

	return nil
}
