package i18n

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadCatalog reads a locale JSON file and flattens nested objects into
// dot-path keys, e.g. {"home":{"title":"..."}} becomes "home.title".
func LoadCatalog(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var nested map[string]any
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	flat := make(map[string]string)
	flatten("", nested, flat)
	return flat, nil
}

func flatten(prefix string, value map[string]any, out map[string]string) {
	for key, v := range value {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch typed := v.(type) {
		case map[string]any:
			flatten(path, typed, out)
		case string:
			out[path] = typed
		default:
			out[path] = fmt.Sprintf("%v", typed)
		}
	}
}
