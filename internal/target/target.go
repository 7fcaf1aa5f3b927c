// Package target defines the connection parameters for a single deployment
// request. A Target is constructed fresh per operation and passed by value
// into the components that need it; nothing in this package is persisted.
package target

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// Target holds everything needed to reach one remote account.
// Password is only used for the bootstrap session; KeyPath is only used
// for the key-only verification session.
type Target struct {
	Host     string
	Port     int
	User     string
	Password string
	KeyPath  string
}

// Addr returns the host:port string for dialing.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// String renders the target as user@host[:port] for display. The password
// is never included.
func (t Target) String() string {
	s := t.User + "@" + t.Host
	if t.Port != 0 && t.Port != 22 {
		s += ":" + strconv.Itoa(t.Port)
	}
	return s
}

// Resolver parses host arguments and fills in defaults from an OpenSSH
// client config file.
type Resolver struct {
	// ConfigPath is the ssh_config file consulted for aliases.
	// Defaults to ~/.ssh/config when empty.
	ConfigPath string
}

// Resolve parses a host argument of the form [user@]host[:port] and
// resolves remaining settings (hostname, port, user, identity file) from
// the SSH client config when the argument matches an alias.
func (r Resolver) Resolve(arg string) Target {
	t := Target{Port: 22, User: currentUser()}

	// Explicit user@ takes precedence over config and defaults.
	explicitUser := false
	if atIdx := strings.Index(arg, "@"); atIdx != -1 {
		t.User = arg[:atIdx]
		arg = arg[atIdx+1:]
		explicitUser = true
	}

	explicitPort := false
	if colonIdx := strings.LastIndex(arg, ":"); colonIdx != -1 {
		if port, err := strconv.Atoi(arg[colonIdx+1:]); err == nil && port > 0 {
			t.Port = port
			arg = arg[:colonIdx]
			explicitPort = true
		}
	}

	t.Host = arg

	cfg := r.load()
	if cfg == nil {
		return t
	}

	if hostname, _ := cfg.Get(arg, "HostName"); hostname != "" {
		t.Host = hostname
	}
	if !explicitPort {
		if port, _ := cfg.Get(arg, "Port"); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				t.Port = p
			}
		}
	}
	if !explicitUser {
		if user, _ := cfg.Get(arg, "User"); user != "" {
			t.User = user
		}
	}
	if identity, _ := cfg.Get(arg, "IdentityFile"); identity != "" {
		t.KeyPath = expandPath(identity)
	}

	return t
}

func (r Resolver) load() *ssh_config.Config {
	path := r.ConfigPath
	if path == "" {
		path = filepath.Join(homeDir(), ".ssh", "config")
	}

	f, err := os.Open(path)
	if err != nil {
		// No client config is fine; defaults apply.
		return nil
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil
	}
	return cfg
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
