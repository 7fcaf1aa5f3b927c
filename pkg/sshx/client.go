// Package sshx provides the authenticated remote session capability used by
// the deployment orchestrator. It wraps golang.org/x/crypto/ssh with two
// dial paths: password authentication for the bootstrap session and key-only
// authentication for the verification session.
package sshx

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/target"
	"golang.org/x/crypto/ssh"
)

// Client wraps an SSH connection with its resolved address.
type Client struct {
	conn    *ssh.Client
	address string
}

// NetDialer is the production Dialer implementation. It opens real TCP
// connections and performs SSH handshakes.
type NetDialer struct{}

var _ Dialer = NetDialer{}

// DialPassword opens a password-authenticated session to the target.
// Unknown host keys are accepted without interaction (trust-on-first-use);
// this tool exists to bootstrap hosts that are not yet in known_hosts.
func (NetDialer) DialPassword(t target.Target, timeout time.Duration) (Session, error) {
	config := &ssh.ClientConfig{
		User:            t.User,
		Auth:            []ssh.AuthMethod{ssh.Password(t.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // bootstrap is trust-on-first-use
		Timeout:         timeout,
	}
	return dial(t.Addr(), config, timeout)
}

// DialKey opens a session authenticated with the private key at keyPath and
// nothing else. There is deliberately no password or interactive fallback:
// a successful handshake here proves the server accepted the key.
func (NetDialer) DialKey(t target.Target, keyPath string, timeout time.Duration) (Session, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't read private key: %s", keyPath),
			"Check that the file exists and is readable")
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't parse private key: %s", keyPath),
			"The key may be corrupt or passphrase protected")
	}

	config := &ssh.ClientConfig{
		User:            t.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // host key was already accepted during bootstrap
		Timeout:         timeout,
	}
	return dial(t.Addr(), config, timeout)
}

// DialPassword opens a password-authenticated session using the default dialer.
func DialPassword(t target.Target, timeout time.Duration) (Session, error) {
	return NetDialer{}.DialPassword(t, timeout)
}

// DialKey opens a key-only session using the default dialer.
func DialKey(t target.Target, keyPath string, timeout time.Duration) (Session, error) {
	return NetDialer{}.DialKey(t, keyPath, timeout)
}

func dial(address string, config *ssh.ClientConfig, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach %s", address),
			suggestionForDialError(err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		if IsAuthError(err) {
			return nil, errors.WrapWithCode(err, errors.ErrAuth,
				fmt.Sprintf("Authentication to %s failed", address),
				"Double-check the credentials and try again")
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with %s didn't go through", address),
			"Try connecting manually first: ssh <host>")
	}

	return &Client{
		conn:    ssh.NewClient(sshConn, chans, reqs),
		address: address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Addr returns the resolved host:port address.
func (c *Client) Addr() string {
	return c.address
}

// IsAuthError reports whether err looks like an authentication rejection
// rather than a transport or protocol failure.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsCode(err, errors.ErrAuth) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unable to authenticate") ||
		strings.Contains(errStr, "no supported methods") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "authentication failed")
}

// IsTimeout reports whether err represents an exceeded deadline anywhere in
// its chain.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.IsCode(err, errors.ErrTimeout) {
		return true
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Try: ssh <host>"
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	return "Make sure the host is reachable: ping <host>"
}
