package deploy

// Status is the tri-state outcome of one deployment request.
type Status int

const (
	// StatusFailed means the key was not (provably) installed: the
	// bootstrap session failed, a fatal command error occurred, or the
	// confirmation read did not contain the key.
	StatusFailed Status = iota

	// StatusDeployedUnverified means the key was installed and confirmed by
	// re-reading authorized_keys, but the independent key-only session did
	// not succeed. The server may have key authentication disabled.
	StatusDeployedUnverified

	// StatusDeployedVerified means the key was installed and the server
	// accepted it on a fresh key-only session.
	StatusDeployedVerified
)

// String returns the canonical name of the status.
func (s Status) String() string {
	switch s {
	case StatusDeployedVerified:
		return "deployed-and-verified"
	case StatusDeployedUnverified:
		return "deployed-unverified"
	default:
		return "failed"
	}
}

// Result is produced once per Deploy invocation and not mutated afterwards.
type Result struct {
	Status  Status
	Message string

	// Err carries the underlying failure for StatusFailed.
	Err error

	// Reports holds the per-command record of the installation sequence,
	// in execution order.
	Reports Report

	// Verification is the final state of the verification machine.
	Verification VerifyState
}

// Verified reports whether the deployment was proven end to end.
func (r *Result) Verified() bool {
	return r.Status == StatusDeployedVerified
}
