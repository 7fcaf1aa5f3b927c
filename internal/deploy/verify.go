package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomhartley/keyship/internal/target"
)

// VerifyState is the state of the post-deployment verification machine:
//
//	NotStarted → SessionAttempted → {Verified, Unverified}
//
// Verification opens a new session separate from the bootstrap one,
// authenticating with the private key alone. It is the only proof that the
// server will actually accept the deployed key under its own policy; this
// tool installs authorized_keys entries but cannot touch sshd_config.
type VerifyState int

const (
	VerifyNotStarted VerifyState = iota
	VerifySessionAttempted
	VerifyVerified
	VerifyUnverified
)

// String returns the name of the verification state.
func (s VerifyState) String() string {
	switch s {
	case VerifySessionAttempted:
		return "session-attempted"
	case VerifyVerified:
		return "verified"
	case VerifyUnverified:
		return "unverified"
	default:
		return "not-started"
	}
}

// verifyProbe is echoed back over the key-only session; receiving it intact
// proves command execution worked end to end.
const verifyProbe = "keyship: connection ok"

// verify runs the verification session within the configured bound. Every
// failure mode (auth rejection, protocol error, timeout) lands in
// Unverified; a deployed-but-unverified key is a reportable outcome, not a
// fault.
func (o *Orchestrator) verify(t target.Target, keyPath string) VerifyState {
	bound := o.VerifyTimeout
	if bound <= 0 {
		bound = DefaultVerifyTimeout
	}

	done := make(chan bool, 1)

	go func() {
		session, err := o.Dialer.DialKey(t, keyPath, bound)
		if err != nil {
			o.log().Debug("verification dial failed: %v", err)
			done <- false
			return
		}
		defer session.Close()

		ctx, cancel := context.WithTimeout(context.Background(), bound)
		defer cancel()

		stdout, _, exitCode, err := session.ExecContext(ctx, fmt.Sprintf("echo %q", verifyProbe))
		if err != nil || exitCode != 0 {
			o.log().Debug("verification probe failed: exit %d, err %v", exitCode, err)
			done <- false
			return
		}
		done <- strings.Contains(string(stdout), verifyProbe)
	}()

	select {
	case ok := <-done:
		if ok {
			return VerifyVerified
		}
		return VerifyUnverified
	case <-time.After(bound):
		o.log().Warn("verification session exceeded %s, abandoning", bound)
		return VerifyUnverified
	}
}
