package keystore

import (
	"crypto/sha256"
	"errors"
	"os"
	"strings"
)

// PassphraseEnv names the environment variable holding the keystore
// passphrase.
const PassphraseEnv = "SCRIBE_KEYSTORE_PASSPHRASE"

// MasterKeySource supplies the secret from which the file encryption key
// is derived.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// MasterKeyFunc adapts a function to MasterKeySource.
type MasterKeyFunc func() ([]byte, error)

// GetMasterKey calls f.
func (f MasterKeyFunc) GetMasterKey() ([]byte, error) { return f() }

// EnvSource reads the master key from an environment variable.
type EnvSource struct {
	Var string
}

// GetMasterKey returns the variable's value.
func (s EnvSource) GetMasterKey() ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(s.Var))
	if v == "" {
		return nil, errors.New("keystore: " + s.Var + " is not set")
	}
	return []byte(v), nil
}

// MachineSource derives the master key from the host and user names. It
// keeps keys off disk in plaintext but is predictable to anyone with the
// same identity on the same machine; set PassphraseEnv for stronger
// protection.
type MachineSource struct{}

// GetMasterKey returns a digest of the machine identity.
func (MachineSource) GetMasterKey() ([]byte, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	username := os.Getenv("USER")
	if username == "" {
		username = os.Getenv("USERNAME")
	}
	sum := sha256.Sum256([]byte(hostname + ":" + username + ":scribe-keystore"))
	return sum[:], nil
}

// DefaultMasterKeySource returns EnvSource when PassphraseEnv is set and
// MachineSource otherwise.
func DefaultMasterKeySource() MasterKeySource {
	if strings.TrimSpace(os.Getenv(PassphraseEnv)) != "" {
		return EnvSource{Var: PassphraseEnv}
	}
	return MachineSource{}
}
