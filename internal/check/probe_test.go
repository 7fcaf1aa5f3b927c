package check

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/target"
	sshxtest "github.com/tomhartley/keyship/pkg/sshx/testing"
)

func TestProbeTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	latency, err := ProbeTCP(ln.Addr().String(), 2*time.Second)
	require.NoError(t, err)
	assert.Greater(t, latency, time.Duration(0))
}

func TestProbeTCPRefused(t *testing.T) {
	// Grab a port, then close it so the dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = ProbeTCP(addr, 500*time.Millisecond)
	assert.Error(t, err)
}

func TestProbeAuth(t *testing.T) {
	dialer := &sshxtest.MockDialer{Remote: sshxtest.NewMockRemote("203.0.113.10:22")}
	tgt := target.Target{Host: "203.0.113.10", Port: 22, User: "admin", Password: "hunter2"}

	latency, err := ProbeAuth(dialer, tgt, 2*time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latency, time.Duration(0))
	assert.Equal(t, 1, dialer.PasswordDials)
	assert.True(t, dialer.Remote.Closed(), "probe session must not be left open")
}

func TestProbeAuthFailure(t *testing.T) {
	dialer := &sshxtest.MockDialer{
		PasswordErr: errors.New(errors.ErrAuth, "Authentication failed", ""),
	}
	tgt := target.Target{Host: "203.0.113.10", Port: 22, User: "admin", Password: "wrong"}

	_, err := ProbeAuth(dialer, tgt, 2*time.Second)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAuth))
}
