package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromYAML flattens a YAML document into a Map. Nested mappings become
// dotted keys and scalars keep their textual form:
//
//	providers:
//	  openai:
//	    model: gpt-4o-mini
//	    rate_limit: 2
//
// yields "providers.openai.model" and "providers.openai.rate_limit".
// Sequences are joined with commas.
func FromYAML(data []byte) (Map, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("settings: parse yaml: %w", err)
	}
	out := make(Map)
	flatten(out, "", root)
	return out, nil
}

// LoadYAML reads and flattens a YAML file.
func LoadYAML(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	return FromYAML(data)
}

func flatten(out Map, prefix string, v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flatten(out, join(prefix, k), child)
		}
	case map[any]any:
		for k, child := range val {
			flatten(out, join(prefix, fmt.Sprint(k)), child)
		}
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, scalar(item))
		}
		out[prefix] = strings.Join(parts, ",")
	case nil:
	default:
		out[prefix] = scalar(val)
	}
}

func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
