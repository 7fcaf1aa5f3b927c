package check

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomhartley/keyship/internal/errors"
	sshxtest "github.com/tomhartley/keyship/pkg/sshx/testing"
)

func TestAuditAuthPolicy(t *testing.T) {
	tests := []struct {
		name         string
		sshdConfig   string
		wantPubkey   string
		wantPassword string
		wantRoot     string
	}{
		{
			name:         "explicit directives",
			sshdConfig:   "PubkeyAuthentication yes\nPasswordAuthentication no\nPermitRootLogin prohibit-password",
			wantPubkey:   "yes",
			wantPassword: "no",
			wantRoot:     "prohibit-password",
		},
		{
			name:       "all directives commented out",
			sshdConfig: "",
		},
		{
			name:       "pubkey disabled",
			sshdConfig: "PubkeyAuthentication no",
			wantPubkey: "no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := sshxtest.NewMockRemote("203.0.113.10:22")
			remote.SSHDConfig = tt.sshdConfig

			policy, err := AuditAuthPolicy(context.Background(), remote)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPubkey, policy.PubkeyAuthentication)
			assert.Equal(t, tt.wantPassword, policy.PasswordAuthentication)
			assert.Equal(t, tt.wantRoot, policy.PermitRootLogin)
		})
	}
}

func TestAuditAuthPolicyUnreadableConfig(t *testing.T) {
	remote := sshxtest.NewMockRemote("203.0.113.10:22")
	remote.SetResponse(`^grep`, sshxtest.CommandResponse{
		Stderr:   []byte("grep: /etc/ssh/sshd_config: Permission denied"),
		ExitCode: 2,
	})

	_, err := AuditAuthPolicy(context.Background(), remote)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "Permission denied")
}

func TestAuthPolicyDefaults(t *testing.T) {
	// Unset directives fall back to the OpenSSH compiled-in defaults.
	var p AuthPolicy
	assert.True(t, p.PubkeyEnabled())
	assert.True(t, p.PasswordEnabled())

	p.PubkeyAuthentication = "no"
	assert.False(t, p.PubkeyEnabled())

	p.PubkeyAuthentication = "Yes"
	assert.True(t, p.PubkeyEnabled(), "directive arguments are case-insensitive")

	p.PasswordAuthentication = "no"
	assert.False(t, p.PasswordEnabled())
}
