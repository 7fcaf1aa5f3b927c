// Package deploy implements the deployment-and-verification orchestrator:
// the idempotent-by-construction command sequence that installs a public key
// into a remote account's authorized_keys store without corrupting the
// account's existing SSH configuration, plus the verification state machine
// that proves the server accepts the key.
package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/logger"
	"github.com/tomhartley/keyship/internal/target"
	"github.com/tomhartley/keyship/pkg/sshx"
)

// Default bounds. The verification bound mirrors the 10 second limit the
// surrounding tooling has always used; the per-command bound keeps a hung
// remote command from blocking the bootstrap sequence forever.
const (
	DefaultDialTimeout    = 10 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultVerifyTimeout  = 10 * time.Second
)

// Orchestrator deploys a public key over one bootstrap session and then
// verifies it over a second, independent key-only session. The two sessions
// are strictly sequential and never overlap.
type Orchestrator struct {
	Dialer sshx.Dialer
	Log    logger.Logger

	// DialTimeout bounds opening either session.
	DialTimeout time.Duration

	// CommandTimeout bounds each remote command in the bootstrap sequence.
	CommandTimeout time.Duration

	// VerifyTimeout bounds the whole verification attempt. Exceeding it
	// yields Unverified, never an error.
	VerifyTimeout time.Duration
}

// New creates an orchestrator with default timeouts.
func New(dialer sshx.Dialer, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		Dialer:         dialer,
		Log:            log,
		DialTimeout:    DefaultDialTimeout,
		CommandTimeout: DefaultCommandTimeout,
		VerifyTimeout:  DefaultVerifyTimeout,
	}
}

// installCommands is the fixed, ordered installation sequence. Commands that
// are expected to fail benignly on a fresh account (no authorized_keys to
// chmod or back up yet) carry their own tolerance so a first-run deployment
// proceeds cleanly. The append does not deduplicate: deploying the same key
// twice leaves two identical lines.
func installCommands(publicKey string) []string {
	return []string{
		"mkdir -p ~/.ssh",

		// sshd refuses key auth when ancestor directories are too open.
		"chmod 700 ~",
		"chmod 700 ~/.ssh",
		"chmod 600 ~/.ssh/authorized_keys 2>/dev/null || true",

		// Best-effort safety net, not a transactional backup.
		"cp ~/.ssh/authorized_keys ~/.ssh/authorized_keys.bak 2>/dev/null || true",

		fmt.Sprintf(`echo "%s" >> ~/.ssh/authorized_keys`, publicKey),
		"chmod 600 ~/.ssh/authorized_keys",

		// Reset the SELinux context when restorecon exists; absence is fine.
		"command -v restorecon >/dev/null && restorecon -R -v ~/.ssh 2>/dev/null || true",

		// Final permission listings for operator-visible logging.
		"ls -la ~/.ssh/authorized_keys",
		"ls -la ~/.ssh",
		"ls -ld ~",
	}
}

// confirmCommand re-reads the authorized_keys store after the sequence.
const confirmCommand = "cat ~/.ssh/authorized_keys"

// Deploy installs publicKey into the target account's authorized_keys store
// and verifies the server accepts it. The returned Result is tri-state:
//
//   - StatusFailed: bootstrap auth failed, a command could not be executed,
//     or the confirmation read did not contain the key.
//   - StatusDeployedUnverified: installed and confirmed, but the key-only
//     session was rejected or timed out.
//   - StatusDeployedVerified: installed, confirmed, and accepted.
//
// There are no retries; every failure is reported once for the caller to
// decide on.
func (o *Orchestrator) Deploy(ctx context.Context, t target.Target, publicKey string) *Result {
	publicKey = strings.TrimSpace(publicKey)
	result := &Result{Status: StatusFailed, Verification: VerifyNotStarted}

	if publicKey == "" {
		result.Err = errors.New(errors.ErrDeploy,
			"No public key material to deploy",
			"Run key provisioning first")
		result.Message = "no public key material to deploy"
		return result
	}

	// Step A: bootstrap session, password authenticated.
	session, err := o.Dialer.DialPassword(t, o.dialTimeout())
	if err != nil {
		result.Err = err
		result.Message = fmt.Sprintf("bootstrap session to %s failed", t.String())
		return result
	}
	defer session.Close()

	// Step B: ordered installation sequence. Non-zero exits and stderr are
	// downgraded to warnings; only a command that cannot run at all (dead
	// session, exceeded bound) aborts.
	for _, cmd := range installCommands(publicKey) {
		report, err := o.run(ctx, session, cmd)
		result.Reports = append(result.Reports, report)
		if err != nil {
			result.Err = err
			result.Message = fmt.Sprintf("remote command could not be executed: %s", cmd)
			return result
		}
	}

	// Step C: confirmation read. The append may have silently failed (disk
	// full, write refused despite the chmod), so absence of the key here is
	// fatal even though every command "ran".
	report, err := o.run(ctx, session, confirmCommand)
	result.Reports = append(result.Reports, report)
	if err != nil {
		result.Err = err
		result.Message = "could not re-read authorized_keys"
		return result
	}
	if !strings.Contains(report.Stdout, publicKey) {
		result.Err = errors.New(errors.ErrDeploy,
			"Public key missing from authorized_keys after append",
			"Check remote disk space and write permissions")
		result.Message = "public key was not written to authorized_keys"
		return result
	}

	// Step D: close the bootstrap session before verification; the two
	// sessions must never overlap.
	session.Close()

	o.log().Info("public key deployed to %s, verifying", t.String())

	result.Verification = VerifySessionAttempted
	result.Verification = o.verify(t, t.KeyPath)

	if result.Verification == VerifyVerified {
		result.Status = StatusDeployedVerified
		result.Message = "public key deployed and verified"
	} else {
		result.Status = StatusDeployedUnverified
		result.Message = "public key deployed but key authentication was not accepted"
	}
	return result
}

// run executes one command under the per-command bound and produces its
// typed report.
func (o *Orchestrator) run(ctx context.Context, session sshx.Session, cmd string) (CommandReport, error) {
	cctx, cancel := context.WithTimeout(ctx, o.commandTimeout())
	defer cancel()

	stdout, stderr, exitCode, err := session.ExecContext(cctx, cmd)
	report := CommandReport{
		Cmd:      cmd,
		Stdout:   strings.TrimSpace(string(stdout)),
		Stderr:   strings.TrimSpace(string(stderr)),
		ExitCode: exitCode,
		Severity: SeverityInfo,
	}

	if err != nil {
		report.Severity = SeverityFatal
		return report, err
	}

	if exitCode != 0 || report.Stderr != "" {
		report.Severity = SeverityWarning
		o.log().Warn("remote command warning: %s (exit %d) %s", cmd, exitCode, report.Stderr)
	}
	if report.Stdout != "" {
		o.log().Debug("remote command output: %s\n%s", cmd, report.Stdout)
	}

	return report, nil
}

func (o *Orchestrator) dialTimeout() time.Duration {
	if o.DialTimeout > 0 {
		return o.DialTimeout
	}
	return DefaultDialTimeout
}

func (o *Orchestrator) commandTimeout() time.Duration {
	if o.CommandTimeout > 0 {
		return o.CommandTimeout
	}
	return DefaultCommandTimeout
}

func (o *Orchestrator) log() logger.Logger {
	if o.Log != nil {
		return o.Log
	}
	return logger.Noop()
}
