// Package check implements the diagnostic checks surrounding a deployment:
// local workstation readiness, remote reachability, and the remote server's
// authentication policy.
package check

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Result is the outcome of one named check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Environment runs the local workstation checks: the key-generation tool
// must be on PATH and the key directory, if present, must be locked down.
func Environment(keyDir string) []Result {
	return []Result{
		checkKeygenTool(),
		checkKeyDir(keyDir),
		checkExistingPair(keyDir),
	}
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func checkKeygenTool() Result {
	path, err := exec.LookPath("ssh-keygen")
	if err != nil {
		return Result{
			Name:   "ssh-keygen available",
			Detail: "not found on PATH; install OpenSSH client tools",
		}
	}
	return Result{Name: "ssh-keygen available", Passed: true, Detail: path}
}

func checkKeyDir(keyDir string) Result {
	name := "key directory permissions"
	info, err := os.Stat(keyDir)
	if err != nil {
		if os.IsNotExist(err) {
			// Created on first provisioning; nothing to flag yet.
			return Result{Name: name, Passed: true, Detail: keyDir + " does not exist yet"}
		}
		return Result{Name: name, Detail: err.Error()}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: keyDir + " is not a directory"}
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s is %04o, want 0700", keyDir, mode),
		}
	}
	return Result{Name: name, Passed: true, Detail: keyDir}
}

func checkExistingPair(keyDir string) Result {
	name := "existing key pair"
	for _, base := range []string{"id_ed25519", "id_rsa", "id_ecdsa"} {
		priv := filepath.Join(keyDir, base)
		if _, err := os.Stat(priv); err != nil {
			continue
		}
		if _, err := os.Stat(priv + ".pub"); err != nil {
			return Result{
				Name:   name,
				Detail: priv + " exists but its public half is missing",
			}
		}
		return Result{Name: name, Passed: true, Detail: priv}
	}
	// No pair is fine; one will be generated on deploy.
	return Result{Name: name, Passed: true, Detail: "none found, will generate on first deploy"}
}
