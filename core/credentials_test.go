package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	s := NewSecret("  sk-test-123\n")

	if s.Expose() != "sk-test-123" {
		t.Errorf("Expose() = %q, want trimmed key", s.Expose())
	}
	for _, got := range []string{
		s.String(),
		fmt.Sprintf("%v", s),
		fmt.Sprintf("%+v", struct{ Key Secret }{s}),
	} {
		if got == "sk-test-123" || !contains(got, "[REDACTED]") {
			t.Errorf("formatted secret = %q, want redacted", got)
		}
	}
	if got := fmt.Sprintf("%#v", s); got != "core.Secret{[REDACTED]}" {
		t.Errorf("GoString = %q", got)
	}

	data, err := json.Marshal(map[string]Secret{"key": s})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"key":"[REDACTED]"}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestSecretIsEmpty(t *testing.T) {
	if !NewSecret("   ").IsEmpty() {
		t.Error("whitespace-only secret should be empty")
	}
	if NewSecret("k").IsEmpty() {
		t.Error("non-empty secret reported empty")
	}
}

func TestResolveCredential(t *testing.T) {
	settings := SettingsFunc(func(key string) (string, bool) {
		if key == "providers.pexels.api_key" {
			return "from-settings", true
		}
		return "", false
	})

	tests := []struct {
		name     string
		provider string
		explicit string
		settings Settings
		want     string
		wantErr  bool
	}{
		{"explicit wins", "pexels", "explicit", settings, "explicit", false},
		{"settings fallback", "pexels", "", settings, "from-settings", false},
		{"missing", "pixabay", "", settings, "", true},
		{"nil settings", "pexels", "", nil, "", true},
		{"blank explicit falls back", "pexels", "  ", settings, "from-settings", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCredential(tt.provider, tt.explicit, tt.settings)
			if tt.wantErr {
				var mce *MissingCredentialError
				if !errors.As(err, &mce) {
					t.Fatalf("ResolveCredential() error = %v, want MissingCredentialError", err)
				}
				if mce.Key != CredentialKey(tt.provider) {
					t.Errorf("Key = %q, want %q", mce.Key, CredentialKey(tt.provider))
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveCredential() error = %v", err)
			}
			if got.Expose() != tt.want {
				t.Errorf("ResolveCredential() = %q, want %q", got.Expose(), tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	s := SettingsFunc(func(key string) (string, bool) {
		if key == "providers.openai.model" {
			return " gpt-4o ", true
		}
		return "", false
	})

	if got := Lookup(s, "openai", "model"); got != "gpt-4o" {
		t.Errorf("Lookup() = %q, want gpt-4o", got)
	}
	if got := Lookup(s, "openai", "base_url"); got != "" {
		t.Errorf("Lookup() missing = %q, want empty", got)
	}
	if got := Lookup(nil, "openai", "model"); got != "" {
		t.Errorf("Lookup(nil) = %q, want empty", got)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
