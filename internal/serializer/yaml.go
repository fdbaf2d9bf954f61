package serializer

import (
	"encoding/json"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// NameYAML identifies the YAML serializer
const NameYAML = "yaml"

// YAML encodes values with gopkg.in/yaml.v3. Struct fields are matched by
// their yaml tag, or the lowercased field name when untagged.
type YAML struct{}

// Marshal serializes v into a YAML document
func (YAML) Marshal(v any) (string, error) {
	b, err := yaml.Marshal(yamlNumbers(v))
	if err != nil {
		return "", encodeErr(NameYAML, err)
	}
	return string(b), nil
}

// Unmarshal parses a YAML document into v
func (YAML) Unmarshal(text string, v any) error {
	if text == "" {
		return decodeErr(NameYAML, errors.New("empty input"))
	}
	if err := yaml.Unmarshal([]byte(text), v); err != nil {
		return decodeErr(NameYAML, err)
	}
	return nil
}

// Name returns "yaml"
func (YAML) Name() string { return NameYAML }

// yamlNumbers rewrites json.Number values, as produced by the JSON serializer
// and by request decoding, into numeric YAML scalars. Left alone they would be
// emitted as quoted strings.
func yamlNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(t), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = yamlNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = yamlNumbers(e)
		}
		return out
	}
	return v
}
