package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "fatal", SeverityFatal.String())
	assert.Equal(t, "unknown", Severity(99).String())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "deployed-unverified", StatusDeployedUnverified.String())
	assert.Equal(t, "deployed-and-verified", StatusDeployedVerified.String())
}

func TestVerifyStateString(t *testing.T) {
	assert.Equal(t, "not-started", VerifyNotStarted.String())
	assert.Equal(t, "session-attempted", VerifySessionAttempted.String())
	assert.Equal(t, "verified", VerifyVerified.String())
	assert.Equal(t, "unverified", VerifyUnverified.String())
}

func TestCommandReportString(t *testing.T) {
	r := CommandReport{Cmd: "chmod 700 ~", ExitCode: 1, Severity: SeverityWarning}
	assert.Equal(t, "[warning] chmod 700 ~ (exit 1)", r.String())
}

func TestReportWarnings(t *testing.T) {
	report := Report{
		{Cmd: "mkdir -p ~/.ssh", Severity: SeverityInfo},
		{Cmd: "chmod 700 ~", Severity: SeverityWarning, Stderr: "operation not permitted"},
		{Cmd: "ls -ld ~", Severity: SeverityInfo},
		{Cmd: "cp a b", Severity: SeverityWarning},
	}

	warnings := report.Warnings()
	assert.Len(t, warnings, 2)
	assert.Equal(t, "chmod 700 ~", warnings[0].Cmd)
	assert.Equal(t, "cp a b", warnings[1].Cmd)
}

func TestResultVerified(t *testing.T) {
	assert.True(t, (&Result{Status: StatusDeployedVerified}).Verified())
	assert.False(t, (&Result{Status: StatusDeployedUnverified}).Verified())
	assert.False(t, (&Result{Status: StatusFailed}).Verified())
}
