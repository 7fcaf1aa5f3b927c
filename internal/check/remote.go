package check

import (
	"context"
	"strings"

	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/pkg/sshx"
)

// sshdPolicyQuery extracts the authentication directives this tool cares
// about from the server's sshd configuration.
const sshdPolicyQuery = `grep -E '^(PubkeyAuthentication|PasswordAuthentication|PermitRootLogin)' /etc/ssh/sshd_config`

// AuthPolicy is the remote SSH daemon's authentication policy as far as it
// can be observed from a shell. Values are the literal directive arguments,
// or empty when the directive is commented out (OpenSSH then applies its
// compiled-in default).
type AuthPolicy struct {
	PubkeyAuthentication   string
	PasswordAuthentication string
	PermitRootLogin        string
}

// PubkeyEnabled reports whether the server will consider public keys.
// An unset directive means the OpenSSH default, which is yes.
func (p AuthPolicy) PubkeyEnabled() bool {
	return p.PubkeyAuthentication == "" || strings.EqualFold(p.PubkeyAuthentication, "yes")
}

// PasswordEnabled reports whether password logins are allowed.
// The OpenSSH default is yes.
func (p AuthPolicy) PasswordEnabled() bool {
	return p.PasswordAuthentication == "" || strings.EqualFold(p.PasswordAuthentication, "yes")
}

// AuditAuthPolicy reads the server's sshd authentication directives over an
// already-open session. Reading /etc/ssh/sshd_config may require privileges
// the account doesn't have; that surfaces as an EXEC error with the
// server's stderr attached.
func AuditAuthPolicy(ctx context.Context, session sshx.Session) (AuthPolicy, error) {
	var policy AuthPolicy

	stdout, stderr, exitCode, err := session.ExecContext(ctx, sshdPolicyQuery)
	if err != nil {
		return policy, err
	}
	// grep exits 1 on no match, which just means every directive is unset.
	if exitCode > 1 {
		return policy, errors.New(errors.ErrExec,
			"Couldn't read sshd configuration: "+strings.TrimSpace(string(stderr)),
			"The account may not be allowed to read /etc/ssh/sshd_config")
	}

	for _, line := range strings.Split(string(stdout), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "PubkeyAuthentication":
			policy.PubkeyAuthentication = fields[1]
		case "PasswordAuthentication":
			policy.PasswordAuthentication = fields[1]
		case "PermitRootLogin":
			policy.PermitRootLogin = fields[1]
		}
	}

	return policy, nil
}
