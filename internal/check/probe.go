package check

import (
	"net"
	"time"

	"github.com/tomhartley/keyship/internal/target"
	"github.com/tomhartley/keyship/pkg/sshx"
)

// ProbeTCP performs a TCP connection test without an SSH handshake.
// Useful for quick reachability checks before attempting authentication.
func ProbeTCP(address string, timeout time.Duration) (time.Duration, error) {
	start := time.Now()

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	return time.Since(start), nil
}

// ProbeAuth opens and immediately closes a password-authenticated session,
// returning the handshake latency. This is the "test connection" operation:
// it proves the credentials work before anything is deployed.
func ProbeAuth(dialer sshx.Dialer, t target.Target, timeout time.Duration) (time.Duration, error) {
	start := time.Now()

	session, err := dialer.DialPassword(t, timeout)
	if err != nil {
		return 0, err
	}
	session.Close()

	return time.Since(start), nil
}
