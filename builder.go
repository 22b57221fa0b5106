package construct

import (
	"fmt"
	"reflect"
)

// Builder provides a fluent interface for assembling an argument map and
// running a construction. Layers are appended in call order, so later calls
// take precedence over earlier ones.
type Builder struct {
	schema Schema
	args   *ArgMap
	opts   []Option
	err    error
}

// NewBuilder creates an empty construction builder.
func NewBuilder() *Builder {
	return &Builder{args: NewArgMap()}
}

// WithSchema sets the root schema.
func (b *Builder) WithSchema(s Schema) *Builder {
	b.schema = s
	return b
}

// WithStruct derives the root schema from a struct prototype via FromStruct.
func (b *Builder) WithStruct(proto any) *Builder {
	if b.err != nil {
		return b
	}
	s, err := FromStruct(proto)
	if err != nil {
		b.err = err
		return b
	}
	b.schema = s
	return b
}

// WithRegistry sets the registry used for polymorphic fields.
func (b *Builder) WithRegistry(r *Registry) *Builder {
	b.opts = append(b.opts, WithRegistry(r))
	return b
}

// WithLayer appends a layer of raw entries.
func (b *Builder) WithLayer(entries map[string]Input, name string) *Builder {
	if b.err != nil {
		return b
	}
	args, err := b.args.AddLayer(entries, name)
	if err != nil {
		b.err = err
		return b
	}
	b.args = args
	return b
}

// WithValues appends a layer built from a nested map of typed values.
func (b *Builder) WithValues(nested map[string]any, name string) *Builder {
	return b.WithLayer(EntriesFromMap(nested), name)
}

// WithPresetFile appends a layer loaded from a TOML, JSON, or YAML file.
func (b *Builder) WithPresetFile(path string) *Builder {
	if b.err != nil {
		return b
	}
	entries, err := PresetFile(path)
	if err != nil {
		b.err = err
		return b
	}
	return b.WithLayer(entries, path)
}

// WithArgs appends a layer tokenized from command-line style arguments.
func (b *Builder) WithArgs(argv []string) *Builder {
	if b.err != nil {
		return b
	}
	entries, err := ParseArgs(argv)
	if err != nil {
		b.err = err
		return b
	}
	return b.WithLayer(entries, "cli")
}

// WithNested appends a retained layer rewritten beneath prefix, for applying
// a saved layer to a nested target.
func (b *Builder) WithNested(layer *Layer, prefix string) *Builder {
	if b.err != nil {
		return b
	}
	nested, err := layer.Nest(prefix)
	if err != nil {
		b.err = err
		return b
	}
	b.args = b.args.Push(nested)
	return b
}

// WithValidator adds a post-construction validator. Multiple validators run
// in the order they are added.
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	b.opts = append(b.opts, WithValidator(fn))
	return b
}

// WithCaster replaces the default caster.
func (b *Builder) WithCaster(fn CastFunc) *Builder {
	b.opts = append(b.opts, WithCaster(fn))
	return b
}

// Args returns the argument map assembled so far. The map may be retained
// and reused across constructions.
func (b *Builder) Args() *ArgMap { return b.args }

// Build runs the construction and returns the resolved root value.
func (b *Builder) Build() (any, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.schema == nil {
		return nil, fmt.Errorf("no schema configured: use WithSchema or WithStruct")
	}
	return Make(b.schema, b.args, b.opts...)
}

// BuildInto runs the construction and stores the result into out, a non-nil
// pointer to the constructed type. A pointer-valued result is dereferenced
// into a value target.
func (b *Builder) BuildInto(out any) error {
	v, err := b.Build()
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("BuildInto requires a non-nil pointer, got %T", out)
	}
	return assign(rv.Elem(), v)
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() any {
	v, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("construct: build failed: %v", err))
	}
	return v
}

// Inspect runs the dry-run report over the assembled arguments.
func (b *Builder) Inspect() (*Report, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.schema == nil {
		return nil, fmt.Errorf("no schema configured: use WithSchema or WithStruct")
	}
	return Inspect(b.schema, b.args, b.opts...)
}

// Quick derives a schema from a struct prototype, tokenizes argv, and runs a
// construction in one call. The result is a pointer to a freshly built
// struct of the prototype's type.
func Quick(proto any, argv []string) (any, error) {
	return NewBuilder().WithStruct(proto).WithArgs(argv).Build()
}
