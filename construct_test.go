package construct

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pairSpec struct {
	A int `conf:"a,default=1"`
	B int `conf:"b"`
}

type netSpec struct {
	Hidden int `conf:"hidden,default=16"`
	Layers int `conf:"layers,default=2"`
}

type cfgSpec struct {
	Model netSpec `conf:"model"`
}

type hostSpec struct {
	Enc any `conf:"encoder,ns=encoders,factory=lstm"`
}

func makePair(t *testing.T, entries map[string]Input, opts ...Option) (*pairSpec, error) {
	t.Helper()
	args, err := NewArgMap().AddLayer(entries, "test")
	require.NoError(t, err)
	v, err := Make(MustFromStruct(pairSpec{}), args, opts...)
	if err != nil {
		return nil, err
	}
	return v.(*pairSpec), nil
}

func encoderRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.MustRegister("encoders", "lstm", MustFromStruct(lstmSpec{}))
	r.MustRegister("encoders", "transformer", MustFromStruct(transformerSpec{}))
	return r
}

func TestMake(t *testing.T) {
	t.Run("LiteralsAndDefaults", func(t *testing.T) {
		p, err := makePair(t, map[string]Input{"b": Literal{Raw: 7}})
		require.NoError(t, err)
		assert.Equal(t, 1, p.A)
		assert.Equal(t, 7, p.B)
	})

	t.Run("MissingRequired", func(t *testing.T) {
		_, err := makePair(t, map[string]Input{})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindMissingRequired))

		var ce *Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "b", ce.Path)
	})

	t.Run("Extraneous", func(t *testing.T) {
		_, err := makePair(t, map[string]Input{
			"b": Literal{Raw: 7},
			"c": Literal{Raw: 9},
		})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindExtraneous))

		var ce *Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "c", ce.Key)
	})

	t.Run("ExtraneousSuggestsNearMiss", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"model.hiden": Literal{Raw: 10},
		}, "")
		require.NoError(t, err)

		_, err = Make(MustFromStruct(cfgSpec{}), args)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindExtraneous))

		var ce *Error
		require.ErrorAs(t, err, &ce)
		assert.Contains(t, ce.Suggestions, "model.hidden")
	})

	t.Run("WildcardReachesNestedDefaultedSchema", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"...hidden": Literal{Raw: 50},
		}, "")
		require.NoError(t, err)

		v, err := Make(MustFromStruct(cfgSpec{}), args)
		require.NoError(t, err)
		cfg := v.(*cfgSpec)
		assert.Equal(t, 50, cfg.Model.Hidden)
		assert.Equal(t, 2, cfg.Model.Layers)
	})

	t.Run("WildcardReachesRequiredNestedField", func(t *testing.T) {
		type strictNet struct {
			Hidden int `conf:"hidden"`
		}
		type strictCfg struct {
			Model strictNet `conf:"model"`
		}
		args, err := NewArgMap().AddLayer(map[string]Input{
			"...hidden": Literal{Raw: 50},
		}, "")
		require.NoError(t, err)

		v, err := Make(MustFromStruct(strictCfg{}), args)
		require.NoError(t, err)
		assert.Equal(t, 50, v.(*strictCfg).Model.Hidden)
	})

	t.Run("WildcardReachesDeeplyNestedRequiredField", func(t *testing.T) {
		type inner struct {
			Hidden int `conf:"hidden"`
		}
		type outer struct {
			Inner inner `conf:"inner"`
		}
		type top struct {
			Model outer `conf:"model"`
		}
		args, err := NewArgMap().AddLayer(map[string]Input{
			"...hidden": Literal{Raw: 50},
		}, "")
		require.NoError(t, err)

		v, err := Make(MustFromStruct(top{}), args)
		require.NoError(t, err)
		assert.Equal(t, 50, v.(*top).Model.Inner.Hidden)
	})

	t.Run("UnmatchedWildcardIsExtraneous", func(t *testing.T) {
		_, err := makePair(t, map[string]Input{
			"b":       Literal{Raw: 7},
			"...nope": Literal{Raw: 1},
		})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindExtraneous))
	})

	t.Run("Reference", func(t *testing.T) {
		p, err := makePair(t, map[string]Input{
			"a": Literal{Raw: 5},
			"b": Reference{Target: "a"},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, p.A)
		assert.Equal(t, 5, p.B)
	})

	t.Run("SelfReferenceFallsBackToDefault", func(t *testing.T) {
		p, err := makePair(t, map[string]Input{
			"a": Reference{Target: "a"},
			"b": Literal{Raw: 7},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, p.A)
	})

	t.Run("DanglingReferenceReportedBeforeMissing", func(t *testing.T) {
		_, err := makePair(t, map[string]Input{
			"b": Reference{Target: "a.typo"},
		})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInvalidReference))
		assert.Contains(t, err.Error(), `"a.typo"`)
	})

	t.Run("ReferenceCycle", func(t *testing.T) {
		_, err := makePair(t, map[string]Input{
			"a": Reference{Target: "b"},
			"b": Reference{Target: "a"},
		})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindCycle))
		assert.Contains(t, err.Error(), "a -> b -> a")
	})

	t.Run("Computed", func(t *testing.T) {
		p, err := makePair(t, map[string]Input{
			"a": Literal{Raw: 5},
			"b": Computed{
				Sources: map[string]string{"x": "a"},
				Fn: func(args map[string]any) (any, error) {
					return args["x"].(int) * 2, nil
				},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 10, p.B)
	})

	t.Run("CastError", func(t *testing.T) {
		_, err := makePair(t, map[string]Input{
			"b": Literal{Raw: "abc"},
		})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindCastError))

		var ce *Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "b", ce.Path)
		assert.Equal(t, "b", ce.Key)
	})

	t.Run("CompleteNestedInstance", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"model": Literal{Raw: &netSpec{Hidden: 99, Layers: 3}},
		}, "")
		require.NoError(t, err)

		v, err := Make(MustFromStruct(cfgSpec{}), args)
		require.NoError(t, err)
		assert.Equal(t, 99, v.(*cfgSpec).Model.Hidden)
	})

	t.Run("LaterLayerOverridesEarlier", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{"b": Literal{Raw: 1}}, "defaults")
		require.NoError(t, err)
		args, err = args.AddLayer(map[string]Input{"b": Literal{Raw: 2}}, "cli")
		require.NoError(t, err)

		v, err := Make(MustFromStruct(pairSpec{}), args)
		require.NoError(t, err)
		assert.Equal(t, 2, v.(*pairSpec).B)
	})

	t.Run("ValidatorFailure", func(t *testing.T) {
		bad := errors.New("b out of range")
		_, err := makePair(t, map[string]Input{"b": Literal{Raw: 7}},
			WithValidator(func(root any) error {
				if root.(*pairSpec).B > 5 {
					return bad
				}
				return nil
			}))
		require.Error(t, err)
		assert.True(t, IsKind(err, KindValidation))
		assert.ErrorIs(t, err, bad)
	})

	t.Run("ValidatorSuccess", func(t *testing.T) {
		p, err := makePair(t, map[string]Input{"b": Literal{Raw: 3}},
			WithValidator(func(any) error { return nil }))
		require.NoError(t, err)
		assert.Equal(t, 3, p.B)
	})
}

func TestMakePolymorphic(t *testing.T) {
	schema := MustFromStruct(hostSpec{})

	t.Run("NamedTypeWithOverride", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"encoder":       Literal{Raw: "transformer"},
			"encoder.heads": Literal{Raw: 16},
		}, "")
		require.NoError(t, err)

		v, err := Make(schema, args, WithRegistry(encoderRegistry(t)))
		require.NoError(t, err)
		enc, ok := v.(*hostSpec).Enc.(*transformerSpec)
		require.True(t, ok)
		assert.Equal(t, 16, enc.Heads)
	})

	t.Run("UnspecifiedFallsBackToFactoryEntry", func(t *testing.T) {
		v, err := Make(schema, NewArgMap(), WithRegistry(encoderRegistry(t)))
		require.NoError(t, err)
		enc, ok := v.(*hostSpec).Enc.(*lstmSpec)
		require.True(t, ok)
		assert.Equal(t, 64, enc.Hidden)
	})

	t.Run("UnknownTypeName", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"encoder": Literal{Raw: "gru"},
		}, "")
		require.NoError(t, err)

		_, err = Make(schema, args, WithRegistry(encoderRegistry(t)))
		require.Error(t, err)
		assert.True(t, IsKind(err, KindInvalidValue))

		var ce *Error
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "encoder", ce.Path)
	})

	t.Run("ExplicitFactoryBeatsRegistry", func(t *testing.T) {
		s := NewSchema("host", []Field{{
			Name:        "encoder",
			Embed:       EmbedOne,
			Polymorphic: true,
			Factory:     NewTableFactory(nil, MustFromStruct(transformerSpec{})),
		}}, func(values map[string]any) (any, error) {
			return values["encoder"], nil
		})

		v, err := Make(s, NewArgMap())
		require.NoError(t, err)
		enc, ok := v.(*transformerSpec)
		require.True(t, ok)
		assert.Equal(t, 8, enc.Heads)
	})
}

func TestMakeEmbedMany(t *testing.T) {
	type stageSpec struct {
		Size int `conf:"size"`
	}
	type pipeSpec struct {
		Stages []stageSpec `conf:"stages"`
	}
	schema := MustFromStruct(pipeSpec{})

	t.Run("SparseIndicesCollectInOrder", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"stages.0.size": Literal{Raw: 1},
			"stages.2.size": Literal{Raw: 3},
		}, "")
		require.NoError(t, err)

		v, err := Make(schema, args)
		require.NoError(t, err)
		p := v.(*pipeSpec)
		require.Len(t, p.Stages, 2)
		assert.Equal(t, 1, p.Stages[0].Size)
		assert.Equal(t, 3, p.Stages[1].Size)
	})

	t.Run("CompleteListInstance", func(t *testing.T) {
		args, err := NewArgMap().AddLayer(map[string]Input{
			"stages": Literal{Raw: []stageSpec{{Size: 9}}},
		}, "")
		require.NoError(t, err)

		v, err := Make(schema, args)
		require.NoError(t, err)
		p := v.(*pipeSpec)
		require.Len(t, p.Stages, 1)
		assert.Equal(t, 9, p.Stages[0].Size)
	})
}

func TestMakeTransform(t *testing.T) {
	s := NewSchema("holder", []Field{{
		Name:      "payload",
		Transform: func(v any) (any, error) { return v, nil },
	}}, func(values map[string]any) (any, error) {
		return values["payload"], nil
	})

	v, err := Make(s, NewArgMap())
	require.NoError(t, err)
	assert.Nil(t, v)
}
