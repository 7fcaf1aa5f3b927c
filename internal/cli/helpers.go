package cli

import (
	"fmt"
	"os"

	"github.com/tomhartley/keyship/internal/config"
	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/keys"
	"github.com/tomhartley/keyship/internal/logger"
	"github.com/tomhartley/keyship/internal/target"
	"github.com/tomhartley/keyship/internal/ui"
)

func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configFlag)
}

// provisionerFor builds a key provisioner from the configuration.
func provisionerFor(cfg *config.Config) *keys.Provisioner {
	p := keys.New(logger.NewEnvLogger("[keys]"))
	if cfg.Key.Dir != "" {
		p.Dir = cfg.Key.Dir
	}
	if cfg.Key.File != "" {
		p.Filename = cfg.Key.File
	}
	if cfg.Key.Type != "" {
		p.Type = cfg.Key.Type
	}
	if cfg.Key.Bits != 0 {
		p.Bits = cfg.Key.Bits
	}
	p.Comment = cfg.Key.Comment
	return p
}

// resolveTarget builds the connection target for this request from the
// host argument, the config defaults, and the flag overrides, in that
// order of precedence (flags win).
func resolveTarget(cfg *config.Config, arg, userFlag string, portFlag int) (target.Target, error) {
	resolver := target.Resolver{}

	var t target.Target
	switch {
	case arg != "":
		t = resolver.Resolve(arg)
	case cfg.Remote.Host != "":
		t = resolver.Resolve(cfg.Remote.Host)
		if cfg.Remote.User != "" {
			t.User = cfg.Remote.User
		}
		if cfg.Remote.Port != 0 {
			t.Port = cfg.Remote.Port
		}
	default:
		return target.Target{}, errors.New(errors.ErrConfig,
			"No host specified",
			"Pass a host argument ([user@]host[:port]) or set remote.host in the config")
	}

	if userFlag != "" {
		t.User = userFlag
	}
	if portFlag != 0 {
		t.Port = portFlag
	}
	return t, nil
}

// passwordFor obtains the bootstrap password: from the environment when
// set, otherwise by prompting. The password lives only for this request.
func passwordFor(t target.Target) (string, error) {
	if pw := os.Getenv("KEYSHIP_PASSWORD"); pw != "" {
		return pw, nil
	}
	return ui.PromptPassword(fmt.Sprintf("Password for %s", t.String()))
}
