package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	t.Run("StatusPerParameter", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"...hidden": Literal{Raw: 50},
		}, "overrides")
		require.NoError(t, err)

		report, err := Inspect(MustFromStruct(cfgSpec{}), args)
		require.NoError(t, err)

		byPath := make(map[string]ParamInfo)
		for _, p := range report.Params {
			byPath[p.Path] = p
		}

		hidden := byPath["model.hidden"]
		assert.Equal(t, StatusSupplied, hidden.Status)
		assert.Equal(t, "...hidden", hidden.Key)
		assert.Equal(t, "overrides", hidden.Layer)

		assert.Equal(t, StatusDefault, byPath["model.layers"].Status)
		assert.Equal(t, StatusSupplied, byPath["model"].Status)
	})

	t.Run("SucceedsOnIncompleteInput", func(t *testing.T) {
		report, err := Inspect(MustFromStruct(pairSpec{}), NewArgMap())
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, report.Missing())
	})

	t.Run("MissingSkipsTransformFields", func(t *testing.T) {
		s := NewSchema("holder", []Field{
			{Name: "payload", Transform: func(v any) (any, error) { return v, nil }},
			{Name: "size"},
		}, func(values map[string]any) (any, error) { return values, nil })

		report, err := Inspect(s, NewArgMap())
		require.NoError(t, err)
		assert.Equal(t, []string{"size"}, report.Missing())
	})

	t.Run("WalkOrderIsDeclarationOrder", func(t *testing.T) {
		report, err := Inspect(MustFromStruct(pairSpec{}), NewArgMap())
		require.NoError(t, err)

		paths := make([]string, 0, len(report.Params))
		for _, p := range report.Params {
			paths = append(paths, p.Path)
		}
		assert.Equal(t, []string{"a", "b"}, paths)
	})

	t.Run("StringRendering", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"b": Literal{Raw: 7},
		}, "cli")
		require.NoError(t, err)

		report, err := Inspect(MustFromStruct(pairSpec{}), args)
		require.NoError(t, err)

		out := report.String()
		assert.Contains(t, out, "a")
		assert.Contains(t, out, "default")
		assert.Contains(t, out, `"b" in layer "cli"`)
	})
}
