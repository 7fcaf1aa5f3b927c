package config

import "time"

// Config is the complete keyship configuration. It is loaded once, passed
// by value into the components that need it, and never mutated globally.
type Config struct {
	Key      KeyConfig     `yaml:"key" mapstructure:"key"`
	Remote   RemoteConfig  `yaml:"remote" mapstructure:"remote"`
	Timeouts TimeoutConfig `yaml:"timeouts" mapstructure:"timeouts"`
}

// KeyConfig controls local key pair provisioning.
type KeyConfig struct {
	// Dir is the key directory. Empty means ~/.ssh.
	Dir string `yaml:"dir" mapstructure:"dir"`

	// File is the private key filename; the public key is File + ".pub".
	File string `yaml:"file" mapstructure:"file"`

	// Type is the algorithm passed to ssh-keygen -t.
	Type string `yaml:"type" mapstructure:"type"`

	// Bits is the key size, used for RSA keys only.
	Bits int `yaml:"bits" mapstructure:"bits"`

	// Comment is an optional ssh-keygen -C comment.
	Comment string `yaml:"comment,omitempty" mapstructure:"comment"`
}

// RemoteConfig provides defaults for the deployment target. The password is
// deliberately not part of the configuration; it is prompted per request
// and held only for the duration of the operation.
type RemoteConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	User string `yaml:"user" mapstructure:"user"`
}

// TimeoutConfig bounds the remote operations.
type TimeoutConfig struct {
	// Dial bounds opening a session.
	Dial time.Duration `yaml:"dial" mapstructure:"dial"`

	// Command bounds each remote command in the bootstrap sequence.
	Command time.Duration `yaml:"command" mapstructure:"command"`

	// Verify bounds the whole key-only verification attempt.
	Verify time.Duration `yaml:"verify" mapstructure:"verify"`
}

// Default returns the built-in configuration: a 4096-bit RSA pair named
// id_rsa under ~/.ssh, port 22, and the standard timeouts.
func Default() *Config {
	return &Config{
		Key: KeyConfig{
			File: "id_rsa",
			Type: "rsa",
			Bits: 4096,
		},
		Remote: RemoteConfig{
			Port: 22,
		},
		Timeouts: TimeoutConfig{
			Dial:    10 * time.Second,
			Command: 30 * time.Second,
			Verify:  10 * time.Second,
		},
	}
}
