package core

import "strings"

// Secret holds a credential and keeps it out of logs, %v/%#v output, JSON and
// YAML. Expose is the only way to read the value back.
type Secret struct {
	value string
}

// NewSecret wraps value. Surrounding whitespace is trimmed since keys pasted
// into config files and prompts frequently carry a trailing newline.
func NewSecret(value string) Secret {
	return Secret{value: strings.TrimSpace(value)}
}

const redacted = "[REDACTED]"

// String implements fmt.Stringer.
func (s Secret) String() string { return redacted }

// GoString implements fmt.GoStringer.
func (s Secret) GoString() string { return "core.Secret{" + redacted + "}" }

// MarshalJSON always emits the redaction placeholder.
func (s Secret) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// MarshalText always emits the redaction placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Expose returns the raw credential for use in an auth header or query string.
func (s Secret) Expose() string { return s.value }

// IsEmpty reports whether no credential is held.
func (s Secret) IsEmpty() bool { return s.value == "" }

// Settings is a read-only key/value lookup for credentials and provider
// configuration. Keys are dotted paths such as "providers.openai.api_key".
type Settings interface {
	Get(key string) (string, bool)
}

// SettingsFunc adapts a function to Settings.
type SettingsFunc func(key string) (string, bool)

// Get calls f.
func (f SettingsFunc) Get(key string) (string, bool) { return f(key) }

// CredentialKey returns the settings key under which a provider's API key is
// looked up.
func CredentialKey(provider string) string {
	return "providers." + provider + ".api_key"
}

// SettingKey returns the settings key for a provider-scoped option.
func SettingKey(provider, name string) string {
	return "providers." + provider + "." + name
}

// ResolveCredential returns explicit when non-empty, otherwise the value of
// CredentialKey(provider) in s. A *MissingCredentialError is returned when
// neither yields a value. s may be nil.
func ResolveCredential(provider, explicit string, s Settings) (Secret, error) {
	if secret := NewSecret(explicit); !secret.IsEmpty() {
		return secret, nil
	}
	key := CredentialKey(provider)
	if s != nil {
		if v, ok := s.Get(key); ok {
			if secret := NewSecret(v); !secret.IsEmpty() {
				return secret, nil
			}
		}
	}
	return Secret{}, &MissingCredentialError{Provider: provider, Key: key}
}

// Lookup returns the provider-scoped setting name, or "" when s is nil or the
// key is absent.
func Lookup(s Settings, provider, name string) string {
	if s == nil {
		return ""
	}
	v, _ := s.Get(SettingKey(provider, name))
	return strings.TrimSpace(v)
}
