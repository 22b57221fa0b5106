package construct

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EntriesFromMap flattens a nested map into layer entries with dot-notation
// keys and typed literal values.
func EntriesFromMap(nested map[string]any) map[string]Input {
	flat := flattenMap(nested, "")
	entries := make(map[string]Input, len(flat))
	for path, value := range flat {
		entries[path] = Literal{Raw: value}
	}
	return entries
}

// PresetFile reads a TOML, JSON, or YAML preset file into layer entries. The
// extension picks the codec; without a recognized extension each codec is
// probed in turn.
func PresetFile(path string) (map[string]Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read preset %q: %w", path, err)
	}

	nested := make(map[string]any)
	if err := unmarshalPreset(path, data, &nested); err != nil {
		return nil, fmt.Errorf("preset %q: %w", path, err)
	}
	return EntriesFromMap(nested), nil
}

// unmarshalPreset decodes preset bytes into a nested map. Unrecognized
// extensions fall back to trying JSON (the strictest syntax), then YAML (a
// JSON superset), then TOML; the map is reset between attempts so a failed
// partial decode leaves nothing behind.
func unmarshalPreset(path string, data []byte, nested *map[string]any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", ".tml":
		return toml.Unmarshal(data, nested)
	case ".json":
		return unmarshalJSON(data, nested)
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, nested)
	}

	attempts := []func() error{
		func() error { return unmarshalJSON(data, nested) },
		func() error { return yaml.Unmarshal(data, nested) },
		func() error { return toml.Unmarshal(data, nested) },
	}
	for _, attempt := range attempts {
		*nested = make(map[string]any)
		if attempt() == nil {
			return nil
		}
	}
	return errors.New("unrecognized format (tried JSON, YAML, TOML)")
}

// unmarshalJSON decodes with UseNumber so numeric precision survives until
// casting.
func unmarshalJSON(data []byte, nested *map[string]any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(nested)
}
