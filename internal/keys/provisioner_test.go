package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomhartley/keyship/internal/errors"
	"github.com/tomhartley/keyship/internal/logger"
)

const fakePublicKey = "ssh-rsa AAAAB3NzaC1yc2Efake== test@keyship"

// fakeKeygen returns a runKeygen stub that writes plausible key files the way
// ssh-keygen would, honoring the -f argument.
func fakeKeygen(t *testing.T, called *int) func(args ...string) ([]byte, error) {
	return func(args ...string) ([]byte, error) {
		*called++
		path := argValue(args, "-f")
		require.NotEmpty(t, path, "keygen invoked without -f")
		// ssh-keygen writes 0600/0644 itself; write looser modes here so the
		// test proves the provisioner enforces them afterwards.
		require.NoError(t, os.WriteFile(path, []byte("PRIVATE KEY MATERIAL"), 0o666))
		require.NoError(t, os.WriteFile(path+".pub", []byte(fakePublicKey+"\n"), 0o666))
		return []byte("Generating public/private rsa key pair."), nil
	}
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestEnsureKeyPairGeneratesOnFirstUse(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".ssh")
	called := 0
	p := &Provisioner{
		Dir:       dir,
		Filename:  "id_rsa",
		Type:      "rsa",
		Bits:      4096,
		Log:       logger.Noop(),
		runKeygen: fakeKeygen(t, &called),
	}

	pair, err := p.EnsureKeyPair()
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Equal(t, filepath.Join(dir, "id_rsa"), pair.PrivatePath)
	assert.Equal(t, filepath.Join(dir, "id_rsa.pub"), pair.PublicPath)
	assert.Equal(t, fakePublicKey, pair.PublicKey, "material must be trimmed")

	// Owner-only permissions on everything, whatever keygen wrote.
	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(DirMode), dirInfo.Mode().Perm())

	privInfo, err := os.Stat(pair.PrivatePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(PrivateKeyMode), privInfo.Mode().Perm())

	pubInfo, err := os.Stat(pair.PublicPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(PublicKeyMode), pubInfo.Mode().Perm())
}

func TestEnsureKeyPairIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_rsa"), []byte("existing private"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_rsa.pub"), []byte(fakePublicKey+"\n"), 0o644))

	p := &Provisioner{
		Dir:      dir,
		Filename: "id_rsa",
		Type:     "rsa",
		Bits:     4096,
		runKeygen: func(args ...string) ([]byte, error) {
			t.Fatal("keygen must not run when the pair already exists")
			return nil, nil
		},
	}

	first, err := p.EnsureKeyPair()
	require.NoError(t, err)
	second, err := p.EnsureKeyPair()
	require.NoError(t, err)

	assert.Equal(t, fakePublicKey, first.PublicKey)
	assert.Equal(t, first, second)

	// The private key was never rewritten.
	data, err := os.ReadFile(filepath.Join(dir, "id_rsa"))
	require.NoError(t, err)
	assert.Equal(t, "existing private", string(data))
}

func TestEnsureKeyPairMissingPublicHalf(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_rsa"), []byte("orphaned private"), 0o600))

	p := &Provisioner{Dir: dir, Filename: "id_rsa", Type: "rsa"}

	_, err := p.EnsureKeyPair()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrKeygen))

	// The existing private key is left alone; it is not ours to delete.
	_, statErr := os.Stat(filepath.Join(dir, "id_rsa"))
	assert.NoError(t, statErr)
}

func TestEnsureKeyPairKeygenFailureCleansUp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".ssh")
	p := &Provisioner{
		Dir:      dir,
		Filename: "id_rsa",
		Type:     "rsa",
		Bits:     4096,
		runKeygen: func(args ...string) ([]byte, error) {
			// Leave a partial file behind, the way an interrupted keygen can.
			path := argValue(args, "-f")
			_ = os.WriteFile(path, []byte("partial"), 0o600)
			return []byte("Saving key failed: No space left on device"), os.ErrPermission
		},
	}

	_, err := p.EnsureKeyPair()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrKeygen))
	assert.Contains(t, err.Error(), "No space left on device")

	// No half-provisioned pair remains.
	_, statErr := os.Stat(filepath.Join(dir, "id_rsa"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestKeygenArguments(t *testing.T) {
	tests := []struct {
		name     string
		keyType  string
		bits     int
		comment  string
		wantArgs []string
		skipArgs []string
	}{
		{
			name:     "rsa carries bits",
			keyType:  "rsa",
			bits:     4096,
			wantArgs: []string{"-t", "rsa", "-N", "", "-b", "4096"},
		},
		{
			name:     "ed25519 has no bits flag",
			keyType:  "ed25519",
			bits:     4096,
			wantArgs: []string{"-t", "ed25519"},
			skipArgs: []string{"-b"},
		},
		{
			name:     "comment is passed through",
			keyType:  "rsa",
			bits:     2048,
			comment:  "keyship@workstation",
			wantArgs: []string{"-C", "keyship@workstation"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), ".ssh")
			var got []string
			called := 0
			inner := fakeKeygen(t, &called)

			p := &Provisioner{
				Dir:      dir,
				Filename: "id_" + tt.keyType,
				Type:     tt.keyType,
				Bits:     tt.bits,
				Comment:  tt.comment,
				runKeygen: func(args ...string) ([]byte, error) {
					got = args
					return inner(args...)
				},
			}

			_, err := p.EnsureKeyPair()
			require.NoError(t, err)

			joined := " " + join(got) + " "
			for i := 0; i+1 < len(tt.wantArgs); i += 2 {
				assert.Equal(t, tt.wantArgs[i+1], argValue(got, tt.wantArgs[i]),
					"flag %s", tt.wantArgs[i])
			}
			for _, flag := range tt.skipArgs {
				assert.NotContains(t, joined, " "+flag+" ")
			}
		})
	}
}

func join(args []string) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += " "
		}
		s += a
	}
	return s
}
