package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// Config files may be JSON or YAML. Both funnel through the strict JSON
// decoder so unknown-field rejection works the same either way; YAML input
// is decoded loosely here and re-encoded as JSON first.
func readAsJSON(path string, data []byte) ([]byte, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return data, "json", nil
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, "yaml", fmt.Errorf("parsing yaml: %w", err)
	}
	out, err := json.Marshal(stringifyKeys(doc))
	if err != nil {
		return nil, "yaml", fmt.Errorf("re-encoding yaml: %w", err)
	}
	return out, "yaml", nil
}

// stringifyKeys rewrites map keys to strings. YAML permits non-string keys
// that json.Marshal would reject.
func stringifyKeys(v any) any {
	switch vv := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, val := range vv {
			out[fmt.Sprint(k)] = stringifyKeys(val)
		}
		return out
	case map[string]any:
		for k, val := range vv {
			vv[k] = stringifyKeys(val)
		}
		return vv
	case []any:
		for i, val := range vv {
			vv[i] = stringifyKeys(val)
		}
		return vv
	}
	return v
}
