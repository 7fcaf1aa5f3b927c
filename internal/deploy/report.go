package deploy

import "fmt"

// Severity tags the outcome of one remote command. The installation
// sequence deliberately tolerates benign failures (backing up a file that
// doesn't exist yet), so a command's stderr alone never decides whether the
// deployment aborts; the tag does.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityFatal
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CommandReport records one executed remote command with its captured
// streams, exit status, and severity.
type CommandReport struct {
	Cmd      string
	Stdout   string
	Stderr   string
	ExitCode int
	Severity Severity
}

// String renders a one-line summary for operator-visible logging.
func (r CommandReport) String() string {
	return fmt.Sprintf("[%s] %s (exit %d)", r.Severity, r.Cmd, r.ExitCode)
}

// Report is the ordered collection of command reports from one deployment.
type Report []CommandReport

// Warnings returns the reports tagged as warnings.
func (r Report) Warnings() []CommandReport {
	var warnings []CommandReport
	for _, cr := range r {
		if cr.Severity == SeverityWarning {
			warnings = append(warnings, cr)
		}
	}
	return warnings
}
