// Package settings implements core.Settings lookups over maps, environment
// variables, .env files and YAML documents. Chain layers them so that, for
// example, the environment overrides a config file.
//
// Keys are dotted paths such as "providers.openai.api_key".
package settings

import (
	"strings"

	"github.com/petal-labs/scribe/core"
)

// Map is a fixed set of settings.
type Map map[string]string

// Get returns the value stored under key. Empty values count as absent.
func (m Map) Get(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Chain consults each Settings in order and returns the first hit.
type Chain []core.Settings

// Get returns the first value found for key.
func (c Chain) Get(key string) (string, bool) {
	for _, s := range c {
		if s == nil {
			continue
		}
		if v, ok := s.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

// Keys returns the keys present in m in no particular order.
func (m Map) Keys() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// With returns a copy of m with key set to value.
func (m Map) With(key, value string) Map {
	out := make(Map, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[strings.TrimSpace(key)] = value
	return out
}

var (
	_ core.Settings = Map(nil)
	_ core.Settings = Chain(nil)
)
