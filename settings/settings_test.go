package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petal-labs/scribe/core"
)

func TestMapGet(t *testing.T) {
	m := Map{"a.b": "1", "empty": ""}
	if v, ok := m.Get("a.b"); !ok || v != "1" {
		t.Errorf("Get(a.b) = %q, %v", v, ok)
	}
	if _, ok := m.Get("empty"); ok {
		t.Error("empty values should be absent")
	}
	if _, ok := Map(nil).Get("x"); ok {
		t.Error("nil map should be empty")
	}

	m2 := m.With("c", "3")
	if _, ok := m.Get("c"); ok {
		t.Error("With must not modify the receiver")
	}
	if v, _ := m2.Get("c"); v != "3" {
		t.Errorf("With() lost value")
	}
}

func TestChainFirstHitWins(t *testing.T) {
	c := Chain{
		nil,
		Map{"providers.openai.model": "gpt-4o"},
		Map{"providers.openai.model": "gpt-4o-mini", "providers.openai.api_key": "sk-yaml"},
	}
	if v, _ := c.Get("providers.openai.model"); v != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", v)
	}
	if v, _ := c.Get("providers.openai.api_key"); v != "sk-yaml" {
		t.Errorf("api_key = %q", v)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("missing key found")
	}
}

func TestEnvNames(t *testing.T) {
	e := NewEnv("")
	got := e.Names("providers.openai.api_key")
	want := []string{"SCRIBE_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got := NewEnv("app").Names("providers.openai.base_url"); len(got) != 1 || got[0] != "APP_PROVIDERS_OPENAI_BASE_URL" {
		t.Errorf("Names() = %v", got)
	}
}

func TestEnvGet(t *testing.T) {
	t.Setenv("PEXELS_API_KEY", "px-conventional")
	t.Setenv("SCRIBE_PROVIDERS_PIXABAY_API_KEY", "pb-prefixed")
	t.Setenv("PIXABAY_API_KEY", "pb-conventional")
	t.Setenv("SCRIBE_PROVIDERS_YOUTUBE_API_KEY", "   ")
	t.Setenv("YOUTUBE_API_KEY", "")

	e := NewEnv("")
	if v, _ := e.Get("providers.pexels.api_key"); v != "px-conventional" {
		t.Errorf("pexels = %q", v)
	}
	if v, _ := e.Get("providers.pixabay.api_key"); v != "pb-prefixed" {
		t.Errorf("pixabay = %q, prefixed variable should win", v)
	}
	if _, ok := e.Get("providers.youtube.api_key"); ok {
		t.Error("blank variables should be absent")
	}
}

func TestEnvResolvesCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	secret, err := core.ResolveCredential("openai", "", NewEnv(""))
	if err != nil {
		t.Fatal(err)
	}
	if secret.Expose() != "sk-env" {
		t.Errorf("secret = %q", secret.Expose())
	}
}

func TestFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	data := "# provider keys\nOPENAI_API_KEY=sk-dotenv\nSCRIBE_PROVIDERS_OPENAI_MODEL=\"gpt-4o\"\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := FromDotEnv("", path)
	if err != nil {
		t.Fatalf("FromDotEnv() error = %v", err)
	}
	if v, _ := e.Get("providers.openai.api_key"); v != "sk-dotenv" {
		t.Errorf("api_key = %q", v)
	}
	if v, _ := e.Get("providers.openai.model"); v != "gpt-4o" {
		t.Errorf("model = %q", v)
	}

	if _, err := FromDotEnv("", filepath.Join(dir, "missing.env")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromYAML(t *testing.T) {
	doc := []byte(`
providers:
  openai:
    model: gpt-4o-mini
    rate_limit: 2.5
    api_key: ""
  pexels:
    per_page: 30
pool:
  concurrency: 8
  enabled: true
tags: [a, b]
empty:
`)
	m, err := FromYAML(doc)
	if err != nil {
		t.Fatalf("FromYAML() error = %v", err)
	}

	tests := map[string]string{
		"providers.openai.model":      "gpt-4o-mini",
		"providers.openai.rate_limit": "2.5",
		"providers.pexels.per_page":   "30",
		"pool.concurrency":            "8",
		"pool.enabled":                "true",
		"tags":                        "a,b",
	}
	for key, want := range tests {
		if got, _ := m.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if _, ok := m.Get("providers.openai.api_key"); ok {
		t.Error("empty string should be absent")
	}
	if _, ok := m.Get("empty"); ok {
		t.Error("null should be absent")
	}
	if got := core.Lookup(m, "openai", "model"); got != "gpt-4o-mini" {
		t.Errorf("Lookup() = %q", got)
	}
}

func TestFromYAMLInvalid(t *testing.T) {
	if _, err := FromYAML([]byte("providers: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	os.WriteFile(path, []byte("providers:\n  youtube:\n    api_key: yt-key\n"), 0o600)

	m, err := LoadYAML(path)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := m.Get("providers.youtube.api_key"); v != "yt-key" {
		t.Errorf("api_key = %q", v)
	}
}
