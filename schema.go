package construct

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// EmbedKind says how a field nests further schemas.
type EmbedKind int

const (
	// EmbedNone marks a scalar (leaf) field.
	EmbedNone EmbedKind = iota
	// EmbedOne marks a single nested schema.
	EmbedOne
	// EmbedMany marks an indexed list of nested schemas.
	EmbedMany
)

// Field describes one constructible parameter of a schema. Descriptors are
// immutable once the schema is built.
type Field struct {
	Name    string
	Type    reflect.Type
	RawType string

	// Default and HasDefault carry a static default; DefaultFactory builds
	// one per construction. A field with neither is required.
	Default        any
	HasDefault     bool
	DefaultFactory func() any

	Embed EmbedKind

	// Elem is the nested schema for non-polymorphic embed fields.
	Elem Schema

	// Polymorphic fields resolve their concrete schema through a Factory: an
	// explicit one if set, otherwise the registry namespace.
	Polymorphic bool
	Namespace   string

	// Unspecified names the factory entry used when no type name is
	// supplied.
	Unspecified string

	// Factory overrides namespace resolution with an explicit resolver.
	Factory Factory

	// Transform is an external post-construction transform. Its presence
	// lets a missing value pass through as a nil placeholder instead of a
	// missing-required error.
	Transform func(any) (any, error)
}

// Required reports whether the field has no default of any sort.
func (f Field) Required() bool {
	return !f.HasDefault && f.DefaultFactory == nil
}

// Schema is the construction engine's view of a constructible type: an
// ordered field list and an instantiation function over resolved values.
type Schema interface {
	Name() string
	Fields() []Field
	Instantiate(values map[string]any) (any, error)
}

// IsSchema is the "is this a schema" predicate.
func IsSchema(v any) bool {
	_, ok := v.(Schema)
	return ok
}

// funcSchema is a programmatically assembled schema.
type funcSchema struct {
	name        string
	fields      []Field
	instantiate func(values map[string]any) (any, error)
}

// NewSchema assembles a schema from explicit field descriptors and an
// instantiation function. Useful when reflection-derived schemas cannot
// express a descriptor detail (factories, transforms).
func NewSchema(name string, fields []Field, instantiate func(values map[string]any) (any, error)) Schema {
	return &funcSchema{name: name, fields: fields, instantiate: instantiate}
}

func (s *funcSchema) Name() string    { return s.name }
func (s *funcSchema) Fields() []Field { return s.fields }
func (s *funcSchema) Instantiate(values map[string]any) (any, error) {
	return s.instantiate(values)
}

// structSchema derives fields from a tagged struct via reflection.
type structSchema struct {
	typ    reflect.Type // the struct type, not a pointer
	fields []Field
	index  map[string]int // field name -> struct field index
}

var timeType = reflect.TypeOf(time.Time{})

// FromStruct derives a schema from a struct prototype (a struct value or
// pointer to one). Field paths come from `conf:"..."` tags, or the lowercased
// field name. Defaults come from `default=` tag options or non-zero prototype
// values; zero-valued untagged fields are required. Recognized options:
//
//	conf:"-"             skip the field
//	conf:"name,required" no default even if the prototype value is non-zero
//	conf:"name,default=8080"
//	conf:"name,ns=models"     polymorphic, resolved in namespace "models"
//	conf:"name,factory=lstm"  factory entry used when no type name is given
//
// Nested structs become embed-one fields; slices of structs (or of
// interfaces, with ns=) become embed-many fields; interface fields with ns=
// are polymorphic.
func FromStruct(proto any) (Schema, error) {
	v := reflect.ValueOf(proto)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("FromStruct requires a non-nil struct or struct pointer")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("FromStruct requires a struct, got %T", proto)
	}
	return fromStructValue(v)
}

// MustFromStruct is FromStruct that panics on error, for package-level vars.
func MustFromStruct(proto any) Schema {
	s, err := FromStruct(proto)
	if err != nil {
		panic(fmt.Sprintf("construct: %v", err))
	}
	return s
}

func fromStructValue(v reflect.Value) (*structSchema, error) {
	t := v.Type()
	s := &structSchema{typ: t, index: make(map[string]int)}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("conf")
		if tag == "-" {
			continue
		}

		f, err := buildField(sf, v.Field(i), tag)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t.Name(), sf.Name, err)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("field %s.%s: duplicate parameter name %q", t.Name(), sf.Name, f.Name)
		}
		s.index[f.Name] = i
		s.fields = append(s.fields, f)
	}
	return s, nil
}

func buildField(sf reflect.StructField, proto reflect.Value, tag string) (Field, error) {
	f := Field{
		Name:    strings.ToLower(sf.Name),
		Type:    sf.Type,
		RawType: sf.Type.String(),
	}

	var required bool
	var defaultStr string
	var hasDefaultTag bool

	for i, part := range strings.Split(tag, ",") {
		if i == 0 {
			if part != "" {
				f.Name = part
			}
			continue
		}
		switch {
		case part == "required":
			required = true
		case strings.HasPrefix(part, "default="):
			defaultStr = strings.TrimPrefix(part, "default=")
			hasDefaultTag = true
		case strings.HasPrefix(part, "ns="):
			f.Namespace = strings.TrimPrefix(part, "ns=")
			f.Polymorphic = true
		case strings.HasPrefix(part, "factory="):
			f.Unspecified = strings.TrimPrefix(part, "factory=")
		case part == "":
		default:
			return Field{}, fmt.Errorf("unknown tag option %q", part)
		}
	}

	ft := sf.Type
	elem := ft
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	switch {
	case elem == timeType || ft == reflect.TypeOf(time.Duration(0)):
		// scalar despite being a struct / named int64
	case ft.Kind() == reflect.Interface && f.Polymorphic:
		f.Embed = EmbedOne
	case elem.Kind() == reflect.Struct:
		f.Embed = EmbedOne
		if !f.Polymorphic {
			sub := proto
			if sub.Kind() == reflect.Ptr {
				if sub.IsNil() {
					sub = reflect.New(elem).Elem()
				} else {
					sub = sub.Elem()
				}
			}
			es, err := fromStructValue(sub)
			if err != nil {
				return Field{}, err
			}
			f.Elem = es
		}
	case ft.Kind() == reflect.Slice && isEmbedElem(ft.Elem(), f.Polymorphic):
		f.Embed = EmbedMany
		if !f.Polymorphic {
			et := ft.Elem()
			if et.Kind() == reflect.Ptr {
				et = et.Elem()
			}
			es, err := fromStructValue(reflect.New(et).Elem())
			if err != nil {
				return Field{}, err
			}
			f.Elem = es
		}
	}

	if f.Polymorphic && f.Embed == EmbedNone {
		return Field{}, fmt.Errorf("ns= requires an interface, struct, or slice field")
	}

	switch {
	case required:
		// no default
	case hasDefaultTag:
		if f.Embed != EmbedNone {
			return Field{}, fmt.Errorf("default= is only valid on scalar fields")
		}
		cast, err := castValue(defaultStr, f.Type)
		if err != nil {
			return Field{}, fmt.Errorf("bad default %q: %w", defaultStr, err)
		}
		f.Default = cast
		f.HasDefault = true
	case f.Embed == EmbedNone && !proto.IsZero():
		f.Default = proto.Interface()
		f.HasDefault = true
	}

	return f, nil
}

// isEmbedElem reports whether a slice element type makes the slice an
// embed-many field rather than a plain scalar list.
func isEmbedElem(et reflect.Type, polymorphic bool) bool {
	if et.Kind() == reflect.Ptr {
		et = et.Elem()
	}
	if et == timeType {
		return false
	}
	if et.Kind() == reflect.Struct {
		return true
	}
	return et.Kind() == reflect.Interface && polymorphic
}

func (s *structSchema) Name() string    { return s.typ.Name() }
func (s *structSchema) Fields() []Field { return s.fields }

// Instantiate assembles a new struct from resolved field values and returns a
// pointer to it. Nil values leave the field at its zero value (missing
// placeholders and pending transforms).
func (s *structSchema) Instantiate(values map[string]any) (any, error) {
	ptr := reflect.New(s.typ)
	sv := ptr.Elem()

	for _, f := range s.fields {
		v, ok := values[f.Name]
		if !ok || v == nil {
			continue
		}
		fv := sv.Field(s.index[f.Name])
		if err := assign(fv, v); err != nil {
			return nil, fmt.Errorf("field %q of %s: %w", f.Name, s.typ.Name(), err)
		}
	}
	return ptr.Interface(), nil
}

// assign stores v into the addressable destination, dereferencing and
// allocating pointers, unpacking []any lists, and falling back to weak
// casting for convertible scalars.
func assign(dst reflect.Value, v any) error {
	rv := reflect.ValueOf(v)

	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}

	// *T into T
	if rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Type().Elem().AssignableTo(dst.Type()) {
		dst.Set(rv.Elem())
		return nil
	}

	// T into *T
	if dst.Kind() == reflect.Ptr && rv.Type().AssignableTo(dst.Type().Elem()) {
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(rv)
		dst.Set(p)
		return nil
	}

	// []any into []T, element-wise
	if dst.Kind() == reflect.Slice {
		if list, ok := v.([]any); ok {
			out := reflect.MakeSlice(dst.Type(), len(list), len(list))
			for i, item := range list {
				if item == nil {
					continue
				}
				if err := assign(out.Index(i), item); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			dst.Set(out)
			return nil
		}
	}

	cast, err := castValue(v, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(reflect.ValueOf(cast))
	return nil
}
