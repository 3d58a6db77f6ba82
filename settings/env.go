package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/petal-labs/scribe/core"
)

// DefaultEnvPrefix is prepended to derived environment variable names.
const DefaultEnvPrefix = "SCRIBE_"

// Env resolves settings from environment variables. A key maps to the
// prefix plus the key upper-cased with dots replaced by underscores, so
// "providers.openai.model" reads SCRIBE_PROVIDERS_OPENAI_MODEL.
//
// Provider API keys additionally fall back to the provider's conventional
// variable: "providers.openai.api_key" also reads OPENAI_API_KEY.
type Env struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnv returns an Env reading the process environment. An empty prefix
// uses DefaultEnvPrefix.
func NewEnv(prefix string) *Env {
	return &Env{prefix: normalizePrefix(prefix), lookup: os.LookupEnv}
}

// FromDotEnv returns an Env reading variables from .env files instead of
// the process environment. Later files do not override earlier ones.
func FromDotEnv(prefix string, paths ...string) (*Env, error) {
	vars, err := godotenv.Read(paths...)
	if err != nil {
		return nil, fmt.Errorf("settings: read .env: %w", err)
	}
	return &Env{
		prefix: normalizePrefix(prefix),
		lookup: func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		},
	}, nil
}

func normalizePrefix(prefix string) string {
	if prefix == "" {
		return DefaultEnvPrefix
	}
	prefix = strings.ToUpper(prefix)
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}

// Get returns the environment value for key.
func (e *Env) Get(key string) (string, bool) {
	for _, name := range e.Names(key) {
		if v, ok := e.lookup(name); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
	}
	return "", false
}

// Names returns the variable names consulted for key, in order.
func (e *Env) Names(key string) []string {
	names := []string{EnvName(e.prefix, key)}
	if provider, ok := credentialProvider(key); ok {
		names = append(names, EnvName("", provider+".api_key"))
	}
	return names
}

// EnvName derives an environment variable name from a dotted key.
func EnvName(prefix, key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return prefix + strings.ToUpper(r.Replace(key))
}

func credentialProvider(key string) (string, bool) {
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != "providers" || parts[2] != "api_key" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

var _ core.Settings = (*Env)(nil)
