// Package config loads and writes the keyship configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"github.com/tomhartley/keyship/internal/errors"
)

const (
	// ConfigFileName is the per-directory config file name.
	ConfigFileName = ".keyship.yaml"
	// GlobalConfigDir is the directory for global config, under $HOME.
	GlobalConfigDir = ".config/keyship"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'keyship init' to create one, or specify a path with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Config file has invalid values",
			"Compare against the template written by 'keyship init'")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find locates the config file using the search order:
//  1. Explicit path (from --config flag)
//  2. .keyship.yaml in the current directory
//  3. ~/.config/keyship/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Specified config file not found: "+explicit,
				"Check the path is correct")
		}
		return explicit, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults when
// no config file exists anywhere.
func LoadOrDefault(explicit string) (*Config, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the configuration for values that can't work.
func (c *Config) Validate() error {
	switch c.Key.Type {
	case "rsa", "ed25519", "ecdsa":
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid key type: %s", c.Key.Type),
			"Supported types: rsa, ed25519, ecdsa")
	}

	if c.Key.Type == "rsa" && c.Key.Bits != 0 && c.Key.Bits < 2048 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("RSA key size %d is too small", c.Key.Bits),
			"Use at least 2048 bits; 4096 is the default")
	}

	if c.Remote.Port < 0 || c.Remote.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid port: %d", c.Remote.Port),
			"Ports range from 1 to 65535")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("key.file", d.Key.File)
	v.SetDefault("key.type", d.Key.Type)
	v.SetDefault("key.bits", d.Key.Bits)
	v.SetDefault("remote.port", d.Remote.Port)
	v.SetDefault("timeouts.dial", d.Timeouts.Dial)
	v.SetDefault("timeouts.command", d.Timeouts.Command)
	v.SetDefault("timeouts.verify", d.Timeouts.Verify)
}
