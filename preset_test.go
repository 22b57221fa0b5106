package construct

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePreset(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEntriesFromMap(t *testing.T) {
	entries := EntriesFromMap(map[string]any{
		"hidden": 128,
		"optim": map[string]any{
			"lr": 0.01,
		},
	})

	assert.Equal(t, Literal{Raw: 128}, entries["hidden"])
	assert.Equal(t, Literal{Raw: 0.01}, entries["optim.lr"])
	assert.Len(t, entries, 2)
}

func TestPresetFile(t *testing.T) {
	t.Run("TOML", func(t *testing.T) {
		path := writePreset(t, "preset.toml", `
hidden = 128

[optim]
lr = 0.01
`)
		entries, err := PresetFile(path)
		require.NoError(t, err)
		assert.Equal(t, Literal{Raw: int64(128)}, entries["hidden"])
		assert.Equal(t, Literal{Raw: 0.01}, entries["optim.lr"])
	})

	t.Run("YAML", func(t *testing.T) {
		path := writePreset(t, "preset.yaml", `
hidden: 128
optim:
  lr: 0.01
`)
		entries, err := PresetFile(path)
		require.NoError(t, err)
		assert.Equal(t, Literal{Raw: 128}, entries["hidden"])
		assert.Equal(t, Literal{Raw: 0.01}, entries["optim.lr"])
	})

	t.Run("JSON", func(t *testing.T) {
		path := writePreset(t, "preset.json", `{"optim": {"name": "adam"}}`)
		entries, err := PresetFile(path)
		require.NoError(t, err)
		assert.Equal(t, Literal{Raw: "adam"}, entries["optim.name"])
	})

	t.Run("ContentDetectionWithoutExtension", func(t *testing.T) {
		path := writePreset(t, "preset", `{"hidden": 1}`)
		entries, err := PresetFile(path)
		require.NoError(t, err)
		assert.Contains(t, entries, "hidden")
	})

	t.Run("UndetectableFormat", func(t *testing.T) {
		_, err := PresetFile(writePreset(t, "noext", "not: [valid"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unrecognized format")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := PresetFile(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := PresetFile(writePreset(t, "broken.json", `{"a": `))
		assert.Error(t, err)
	})
}
