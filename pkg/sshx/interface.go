package sshx

import (
	"context"
	"time"

	"github.com/tomhartley/keyship/internal/target"
)

// Session defines the interface for SSH command execution over one
// authenticated connection. Both the real Client and mock implementations
// satisfy this interface.
//
// This interface enables testing of SSH-dependent code without requiring
// actual SSH connections.
type Session interface {
	// Exec runs a command and returns stdout, stderr, and exit code.
	// Exit code is -1 if the command couldn't be executed at all.
	// A non-zero exit code with nil error means the command ran but failed.
	Exec(cmd string) (stdout, stderr []byte, exitCode int, err error)

	// ExecContext runs a command, abandoning it when ctx is done.
	ExecContext(ctx context.Context, cmd string) (stdout, stderr []byte, exitCode int, err error)

	// Close closes the SSH connection.
	Close() error

	// Addr returns the host:port address of the remote end.
	Addr() string
}

// Dialer opens authenticated sessions to a remote account. The bootstrap
// path authenticates with the target's password; the verification path
// authenticates with a private key only, with no password or interactive
// fallback.
type Dialer interface {
	DialPassword(t target.Target, timeout time.Duration) (Session, error)
	DialKey(t target.Target, keyPath string, timeout time.Duration) (Session, error)
}
