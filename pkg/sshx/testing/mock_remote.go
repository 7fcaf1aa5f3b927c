// Package testing provides a mock SSH remote for exercising the deployment
// orchestrator without a network. The mock emulates the slice of a POSIX
// home directory the installation sequence touches: ~, ~/.ssh, and the
// authorized_keys file, including their permission bits.
package testing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tomhartley/keyship/internal/target"
	"github.com/tomhartley/keyship/pkg/sshx"
)

// CommandResponse defines a canned response for a specific command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Err      error
}

// MockRemote simulates one SSH session to a remote account. It parses the
// shell commands the orchestrator issues and applies them to an in-memory
// model of the account's home directory.
type MockRemote struct {
	mu      sync.Mutex
	address string
	closed  bool

	// Virtual filesystem state. Modes are octal strings ("700") because
	// that is how they appear in the commands and listings.
	HomeMode             string
	SSHDirExists         bool
	SSHDirMode           string
	AuthorizedKeys       string
	AuthorizedKeysExists bool
	AuthorizedKeysMode   string
	BackupContent        string
	BackupExists         bool

	// SSHDConfig is what the sshd_config grep returns.
	SSHDConfig string

	// Executed records every command in order.
	Executed []string

	responses map[string]CommandResponse
}

// NewMockRemote creates a mock session for a fresh account: home directory
// at 0755, no ~/.ssh, no authorized_keys.
func NewMockRemote(address string) *MockRemote {
	return &MockRemote{
		address:    address,
		HomeMode:   "755",
		SSHDirMode: "755",
		SSHDConfig: "PubkeyAuthentication yes\nPasswordAuthentication yes",
		responses:  make(map[string]CommandResponse),
	}
}

var _ sshx.Session = (*MockRemote)(nil)

// SetResponse registers a canned response for a command pattern.
// The pattern can be an exact string or a regex pattern, matched before the
// built-in command emulation.
func (m *MockRemote) SetResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[pattern] = resp
}

// Exec parses and applies a shell command against the virtual home.
func (m *MockRemote) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	return m.ExecContext(context.Background(), cmd)
}

// ExecContext is Exec with cancellation support.
func (m *MockRemote) ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error) {
	select {
	case <-ctx.Done():
		return nil, nil, -1, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}

	m.Executed = append(m.Executed, cmd)

	if resp, ok := m.responses[cmd]; ok {
		return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Err
	}
	for pattern, resp := range m.responses {
		if matched, _ := regexp.MatchString(pattern, cmd); matched {
			return resp.Stdout, resp.Stderr, resp.ExitCode, resp.Err
		}
	}

	return m.apply(cmd)
}

// Close marks the connection as closed.
func (m *MockRemote) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether the session was closed.
func (m *MockRemote) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Addr returns the mock host:port address.
func (m *MockRemote) Addr() string {
	return m.address
}

// AuthorizedKeyLines returns the authorized_keys content split into
// non-empty lines.
func (m *MockRemote) AuthorizedKeyLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var lines []string
	for _, l := range strings.Split(m.AuthorizedKeys, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

var (
	chmodRe      = regexp.MustCompile(`^chmod (\d+) (\S+)`)
	echoAppendRe = regexp.MustCompile(`^echo "(.*)" >> ~/\.ssh/authorized_keys$`)
	echoRe       = regexp.MustCompile(`^echo "(.*)"$`)
	grepSSHDRe   = regexp.MustCompile(`^grep .* /etc/ssh/sshd_config$`)
)

// apply emulates the command set the orchestrator uses. Tolerant suffixes
// (2>/dev/null, || true) match real shell behavior: stderr is swallowed by
// the redirect and the exit code forced to zero by the || true.
func (m *MockRemote) apply(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	tolerant := strings.HasSuffix(cmd, "|| true")
	quiet := strings.Contains(cmd, "2>/dev/null")
	base := strings.TrimSuffix(cmd, " || true")
	base = strings.TrimSpace(strings.ReplaceAll(base, "2>/dev/null", ""))

	fail := func(msg string, code int) ([]byte, []byte, int, error) {
		var errOut []byte
		if !quiet {
			errOut = []byte(msg)
		}
		if tolerant {
			code = 0
		}
		return nil, errOut, code, nil
	}

	switch {
	case base == "mkdir -p ~/.ssh":
		m.SSHDirExists = true
		return nil, nil, 0, nil

	case strings.HasPrefix(base, "chmod "):
		match := chmodRe.FindStringSubmatch(base)
		if match == nil {
			return fail("chmod: invalid mode", 1)
		}
		mode, path := match[1], match[2]
		switch path {
		case "~":
			m.HomeMode = mode
		case "~/.ssh":
			if !m.SSHDirExists {
				return fail("chmod: cannot access '~/.ssh': No such file or directory", 1)
			}
			m.SSHDirMode = mode
		case "~/.ssh/authorized_keys":
			if !m.AuthorizedKeysExists {
				return fail("chmod: cannot access '~/.ssh/authorized_keys': No such file or directory", 1)
			}
			m.AuthorizedKeysMode = mode
		default:
			return fail(fmt.Sprintf("chmod: cannot access '%s': No such file or directory", path), 1)
		}
		return nil, nil, 0, nil

	case strings.HasPrefix(base, "cp ~/.ssh/authorized_keys ~/.ssh/authorized_keys.bak"):
		if !m.AuthorizedKeysExists {
			return fail("cp: cannot stat '~/.ssh/authorized_keys': No such file or directory", 1)
		}
		m.BackupContent = m.AuthorizedKeys
		m.BackupExists = true
		return nil, nil, 0, nil

	case echoAppendRe.MatchString(cmd):
		if !m.SSHDirExists {
			return fail("bash: ~/.ssh/authorized_keys: No such file or directory", 1)
		}
		key := echoAppendRe.FindStringSubmatch(cmd)[1]
		m.AuthorizedKeys += key + "\n"
		if !m.AuthorizedKeysExists {
			m.AuthorizedKeysExists = true
			m.AuthorizedKeysMode = "644"
		}
		return nil, nil, 0, nil

	case strings.HasPrefix(base, "command -v restorecon"):
		// Pretend restorecon is absent; && short-circuits, || true recovers.
		return nil, nil, 0, nil

	case base == "cat ~/.ssh/authorized_keys":
		if !m.AuthorizedKeysExists {
			return fail("cat: ~/.ssh/authorized_keys: No such file or directory", 1)
		}
		return []byte(m.AuthorizedKeys), nil, 0, nil

	case base == "ls -la ~/.ssh/authorized_keys":
		if !m.AuthorizedKeysExists {
			return fail("ls: cannot access '~/.ssh/authorized_keys': No such file or directory", 2)
		}
		return []byte(listing(m.AuthorizedKeysMode, "authorized_keys", false)), nil, 0, nil

	case base == "ls -la ~/.ssh":
		if !m.SSHDirExists {
			return fail("ls: cannot access '~/.ssh': No such file or directory", 2)
		}
		return []byte(listing(m.SSHDirMode, ".ssh", true)), nil, 0, nil

	case base == "ls -ld ~":
		return []byte(listing(m.HomeMode, "/home/mock", true)), nil, 0, nil

	case grepSSHDRe.MatchString(base):
		if m.SSHDConfig == "" {
			return nil, nil, 1, nil // grep: no match
		}
		return []byte(m.SSHDConfig), nil, 0, nil

	case echoRe.MatchString(base):
		return []byte(echoRe.FindStringSubmatch(base)[1] + "\n"), nil, 0, nil
	}

	return fail(fmt.Sprintf("bash: %s: command not found", strings.Fields(base)[0]), 127)
}

// reopen simulates dialing a fresh connection to the same host state.
func (m *MockRemote) reopen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = false
}

// listing renders a minimal ls -l style line from an octal mode string.
func listing(mode, name string, dir bool) string {
	bits := "?????????"
	if len(mode) == 3 {
		var b strings.Builder
		for _, c := range mode {
			n := int(c - '0')
			flags := []byte{'-', '-', '-'}
			if n&4 != 0 {
				flags[0] = 'r'
			}
			if n&2 != 0 {
				flags[1] = 'w'
			}
			if n&1 != 0 {
				flags[2] = 'x'
			}
			b.Write(flags)
		}
		bits = b.String()
	}
	kind := "-"
	if dir {
		kind = "d"
	}
	return fmt.Sprintf("%s%s 1 mock mock 0 Jan  1 00:00 %s", kind, bits, name)
}

// MockDialer implements sshx.Dialer against mock remotes. The bootstrap and
// verification sessions can be pointed at the same remote or split apart,
// and either dial path can be forced to fail.
type MockDialer struct {
	mu sync.Mutex

	// Remote is the session handed out for password dials.
	Remote *MockRemote

	// VerifyRemote, when set, is handed out for key dials instead of Remote.
	VerifyRemote *MockRemote

	// PasswordErr / KeyErr force the corresponding dial to fail.
	PasswordErr error
	KeyErr      error

	// KeyDelay simulates a slow verification handshake.
	KeyDelay time.Duration

	PasswordDials int
	KeyDials      int
}

var _ sshx.Dialer = (*MockDialer)(nil)

// DialPassword returns the bootstrap mock session.
func (d *MockDialer) DialPassword(t target.Target, timeout time.Duration) (sshx.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PasswordDials++
	if d.PasswordErr != nil {
		return nil, d.PasswordErr
	}
	if d.Remote == nil {
		d.Remote = NewMockRemote(t.Addr())
	}
	d.Remote.reopen()
	return d.Remote, nil
}

// DialKey returns the verification mock session.
func (d *MockDialer) DialKey(t target.Target, keyPath string, timeout time.Duration) (sshx.Session, error) {
	d.mu.Lock()
	d.KeyDials++
	delay := d.KeyDelay
	keyErr := d.KeyErr
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if keyErr != nil {
		return nil, keyErr
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.VerifyRemote != nil {
		d.VerifyRemote.reopen()
		return d.VerifyRemote, nil
	}
	if d.Remote == nil {
		d.Remote = NewMockRemote(t.Addr())
	}
	d.Remote.reopen()
	return d.Remote, nil
}
