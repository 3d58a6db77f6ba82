// Package keystore provides encrypted storage for provider API keys.
package keystore

import (
	"path/filepath"
	"strings"

	"github.com/petal-labs/scribe/cli/config"
	"github.com/petal-labs/scribe/core"
)

// Keystore defines the interface for secure key storage.
type Keystore interface {
	// Set stores a key-value pair.
	Set(name, value string) error
	// Get retrieves a value by name. Returns error if not found.
	Get(name string) (string, error)
	// Delete removes a key by name.
	Delete(name string) error
	// List returns all stored key names.
	List() ([]string, error)
}

// ErrKeyNotFound is returned when a requested key does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// DefaultKeystorePath returns the default keystore file path,
// ~/.scribe/keys.enc.
func DefaultKeystorePath() string {
	return filepath.Join(config.Dir(), "keys.enc")
}

// NewKeystore opens the default keystore. The master key comes from
// PassphraseEnv when set and from machine identity otherwise.
func NewKeystore() (Keystore, error) {
	return NewFileKeystoreWithSource(DefaultKeystorePath(), DefaultMasterKeySource())
}

// Settings exposes stored keys as provider credentials: the key stored
// under "openai" answers "providers.openai.api_key". Other settings keys
// are never answered. Lookup failures are treated as absent so a damaged
// keystore falls through to the next settings source.
func Settings(ks Keystore) core.Settings {
	return core.SettingsFunc(func(key string) (string, bool) {
		parts := strings.Split(key, ".")
		if len(parts) != 3 || parts[0] != "providers" || parts[2] != "api_key" {
			return "", false
		}
		v, err := ks.Get(parts[1])
		if err != nil {
			return "", false
		}
		return v, v != ""
	})
}
