package construct

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// CastFunc converts a raw supplied value (often a cast-pending string) to the
// field type. The default implementation is mapstructure-based; Make accepts
// a replacement through WithCaster.
type CastFunc func(raw any, t reflect.Type) (any, error)

// castValue is the default caster: weakly-typed mapstructure decoding with
// the usual hooks, so "50" casts to int, "5s" to time.Duration, "a,b" to
// []string, and already-typed values pass through.
func castValue(raw any, t reflect.Type) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if rt := reflect.TypeOf(raw); rt == t || rt.AssignableTo(t) {
		return raw, nil
	}

	out := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("cannot cast %T to %s: %w", raw, t, err)
	}
	return out.Elem().Interface(), nil
}
