// Package keys guarantees a local SSH key pair exists. Generation is
// delegated to ssh-keygen; this package never implements cryptographic
// primitives of its own.
package keys

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/logger"
)

// Permission bits for key material. Private keys must never be group or
// world readable; sshd also refuses keys under a loose ~/.ssh.
const (
	DirMode        = 0o700
	PrivateKeyMode = 0o600
	PublicKeyMode  = 0o644
)

// KeyPair describes a provisioned local key pair. Paths are deterministic
// functions of the configured directory and filename; the pair is created
// once and never mutated or deleted by this tool.
type KeyPair struct {
	PrivatePath string
	PublicPath  string
	Type        string
	Bits        int

	// PublicKey is the trimmed content of the public key file, ready to be
	// appended to a remote authorized_keys store.
	PublicKey string
}

// Provisioner ensures a key pair exists at a fixed location, generating one
// on first use. EnsureKeyPair is idempotent: once the pair exists, repeated
// calls read the same material and write nothing.
type Provisioner struct {
	Dir      string // key directory, typically ~/.ssh
	Filename string // private key filename, e.g. id_rsa
	Type     string // key algorithm passed to ssh-keygen -t
	Bits     int    // key size passed to ssh-keygen -b (rsa only)
	Comment  string // optional ssh-keygen -C comment

	Log logger.Logger

	// runKeygen invokes the key-generation tool. Overridable in tests.
	runKeygen func(args ...string) ([]byte, error)
}

// New creates a Provisioner with the original tool's defaults: a 4096-bit
// RSA pair named id_rsa under ~/.ssh.
func New(log logger.Logger) *Provisioner {
	home, _ := os.UserHomeDir()
	return &Provisioner{
		Dir:      filepath.Join(home, ".ssh"),
		Filename: "id_rsa",
		Type:     "rsa",
		Bits:     4096,
		Log:      log,
	}
}

// PrivatePath returns the deterministic private key path.
func (p *Provisioner) PrivatePath() string {
	return filepath.Join(p.Dir, p.Filename)
}

// PublicPath returns the deterministic public key path.
func (p *Provisioner) PublicPath() string {
	return p.PrivatePath() + ".pub"
}

// EnsureKeyPair returns the local key pair, generating one if none exists.
//
// When the private key file already exists the adjacent public key is read
// and returned as-is: no regeneration, no writes. Otherwise ssh-keygen is
// invoked with an empty passphrase (the deployment must later authenticate
// non-interactively) and the resulting files are locked down to owner-only
// permissions. A permission failure is fatal and removes the fresh files so
// no half-provisioned pair is left behind.
func (p *Provisioner) EnsureKeyPair() (KeyPair, error) {
	pair := KeyPair{
		PrivatePath: p.PrivatePath(),
		PublicPath:  p.PublicPath(),
		Type:        p.Type,
		Bits:        p.Bits,
	}

	if _, err := os.Stat(pair.PrivatePath); err == nil {
		p.log().Debug("key pair already exists at %s", pair.PrivatePath)
		material, err := readPublicKey(pair.PublicPath)
		if err != nil {
			return KeyPair{}, err
		}
		pair.PublicKey = material
		return pair, nil
	}

	if err := p.ensureDir(); err != nil {
		return KeyPair{}, err
	}

	args := []string{
		"-t", p.Type,
		"-f", pair.PrivatePath,
		"-N", "", // empty passphrase
	}
	if p.Type == "rsa" && p.Bits > 0 {
		args = append(args, "-b", strconv.Itoa(p.Bits))
	}
	if p.Comment != "" {
		args = append(args, "-C", p.Comment)
	}

	output, err := p.keygen(args...)
	if err != nil {
		p.removePartial(pair)
		return KeyPair{}, errors.WrapWithCode(err, errors.ErrKeygen,
			fmt.Sprintf("ssh-keygen failed: %s", strings.TrimSpace(string(output))),
			"Ensure ssh-keygen is installed and accessible")
	}

	if err := os.Chmod(pair.PrivatePath, PrivateKeyMode); err != nil {
		p.removePartial(pair)
		return KeyPair{}, errors.WrapWithCode(err, errors.ErrKeygen,
			"Couldn't restrict private key permissions",
			"Key material must not be group or world readable")
	}
	if err := os.Chmod(pair.PublicPath, PublicKeyMode); err != nil {
		p.removePartial(pair)
		return KeyPair{}, errors.WrapWithCode(err, errors.ErrKeygen,
			"Couldn't set public key permissions",
			"Check ownership of the key directory")
	}

	material, err := readPublicKey(pair.PublicPath)
	if err != nil {
		return KeyPair{}, err
	}
	pair.PublicKey = material

	p.log().Info("generated new %s key pair at %s", p.Type, pair.PrivatePath)
	return pair, nil
}

// ensureDir creates the key directory if needed and keeps it owner-only.
func (p *Provisioner) ensureDir() error {
	if err := os.MkdirAll(p.Dir, DirMode); err != nil {
		return errors.WrapWithCode(err, errors.ErrDir,
			fmt.Sprintf("Couldn't create key directory: %s", p.Dir),
			"Check permissions on the home directory")
	}
	if err := os.Chmod(p.Dir, DirMode); err != nil {
		return errors.WrapWithCode(err, errors.ErrDir,
			fmt.Sprintf("Couldn't restrict key directory permissions: %s", p.Dir),
			"The directory must be accessible by the owner only")
	}
	return nil
}

// removePartial deletes freshly written key files after a failed
// provisioning so a later call never mistakes them for a valid pair.
func (p *Provisioner) removePartial(pair KeyPair) {
	os.Remove(pair.PrivatePath)
	os.Remove(pair.PublicPath)
}

func (p *Provisioner) keygen(args ...string) ([]byte, error) {
	if p.runKeygen != nil {
		return p.runKeygen(args...)
	}
	return exec.Command("ssh-keygen", args...).CombinedOutput()
}

func (p *Provisioner) log() logger.Logger {
	if p.Log != nil {
		return p.Log
	}
	return logger.Noop()
}

func readPublicKey(pubPath string) (string, error) {
	data, err := os.ReadFile(pubPath)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrKeygen,
			fmt.Sprintf("Failed to read public key: %s", pubPath),
			"The private key exists but its public half is missing; regenerate with ssh-keygen -y")
	}
	return strings.TrimSpace(string(data)), nil
}
