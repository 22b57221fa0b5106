package construct

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps short names to schemas, per namespace, plus fully-qualified
// "pkg/path:Attr" names. It is an explicit, passed-in lookup table: build one
// once and hand it to every construction that needs polymorphic fields.
type Registry struct {
	namespaces map[string]map[string]Schema
	qualified  map[string]Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		namespaces: make(map[string]map[string]Schema),
		qualified:  make(map[string]Schema),
	}
}

// Register adds a schema under a short name inside a namespace. Duplicate
// registrations are an error.
func (r *Registry) Register(namespace, name string, s Schema) error {
	ns, ok := r.namespaces[namespace]
	if !ok {
		ns = make(map[string]Schema)
		r.namespaces[namespace] = ns
	}
	if _, exists := ns[name]; exists {
		return fmt.Errorf("name %q already registered in namespace %q", name, namespace)
	}
	ns[name] = s
	return nil
}

// MustRegister is Register that panics on error, for package init blocks.
func (r *Registry) MustRegister(namespace, name string, s Schema) {
	if err := r.Register(namespace, name, s); err != nil {
		panic(fmt.Sprintf("construct: %v", err))
	}
}

// RegisterQualified adds a schema under a fully-qualified name of the form
// "module:attribute" (attribute may be dotted). Qualified names resolve in
// any namespace.
func (r *Registry) RegisterQualified(qname string, s Schema) error {
	if !strings.Contains(qname, ":") {
		return fmt.Errorf("qualified name %q must contain \":\"", qname)
	}
	if _, exists := r.qualified[qname]; exists {
		return fmt.Errorf("qualified name %q already registered", qname)
	}
	r.qualified[qname] = s
	return nil
}

// Resolve turns a name into a schema: fully-qualified names (containing ":")
// resolve against the qualified table, anything else against the namespace.
func (r *Registry) Resolve(namespace, name string) (Schema, error) {
	if strings.Contains(name, ":") {
		if s, ok := r.qualified[name]; ok {
			return s, nil
		}
		return nil, fmt.Errorf("unknown qualified name %q", name)
	}
	if ns, ok := r.namespaces[namespace]; ok {
		if s, ok := ns[name]; ok {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown name %q in namespace %q", name, namespace)
}

// Names lists the short names registered in a namespace, sorted. Used for
// suggestion ranking on unresolvable names.
func (r *Registry) Names(namespace string) []string {
	ns := r.namespaces[namespace]
	names := make([]string, 0, len(ns))
	for name := range ns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Factory resolves the concrete schema of a polymorphic field. Two concrete
// variants exist here (namespace-backed and static table), plus a distinct
// function-valued variant; schema-producing and callable-producing factories
// stay separate kinds on purpose.
type Factory interface {
	// Unspecified returns the schema used when no type name is supplied.
	Unspecified() (Schema, bool)

	// Resolve turns a supplied type name into a schema.
	Resolve(name string) (Schema, error)
}

// namespaceFactory resolves through a registry namespace.
type namespaceFactory struct {
	reg         *Registry
	namespace   string
	unspecified string
}

// Factory returns a registry-backed factory for one namespace. unspecified
// may be empty when the field always requires an explicit name.
func (r *Registry) Factory(namespace, unspecified string) Factory {
	return &namespaceFactory{reg: r, namespace: namespace, unspecified: unspecified}
}

func (f *namespaceFactory) Unspecified() (Schema, bool) {
	if f.unspecified == "" {
		return nil, false
	}
	s, err := f.reg.Resolve(f.namespace, f.unspecified)
	if err != nil {
		return nil, false
	}
	return s, true
}

func (f *namespaceFactory) Resolve(name string) (Schema, error) {
	s, err := f.reg.Resolve(f.namespace, name)
	if err != nil {
		return nil, suggestName(err, name, f.reg.Names(f.namespace))
	}
	return s, nil
}

// tableFactory resolves through an explicitly registered table, the
// closed-world counterpart of open namespace lookup.
type tableFactory struct {
	table       map[string]Schema
	unspecified Schema
}

// NewTableFactory builds a factory over an explicit name-to-schema table.
// unspecified may be nil.
func NewTableFactory(table map[string]Schema, unspecified Schema) Factory {
	t := make(map[string]Schema, len(table))
	for k, v := range table {
		t[k] = v
	}
	return &tableFactory{table: t, unspecified: unspecified}
}

func (f *tableFactory) Unspecified() (Schema, bool) {
	return f.unspecified, f.unspecified != nil
}

func (f *tableFactory) Resolve(name string) (Schema, error) {
	if s, ok := f.table[name]; ok {
		return s, nil
	}
	names := make([]string, 0, len(f.table))
	for k := range f.table {
		names = append(names, k)
	}
	sort.Strings(names)
	return nil, suggestName(fmt.Errorf("unknown name %q", name), name, names)
}

// FuncEntry declares one function-valued construction target: its parameter
// fields and the function called with their resolved values.
type FuncEntry struct {
	Fields []Field
	Fn     func(args map[string]any) (any, error)
}

// NewFuncFactory wraps named construction functions as a Factory. Resolving a
// name yields a schema whose Instantiate calls the function; the entries stay
// a distinct factory kind rather than being folded into type registration.
func NewFuncFactory(entries map[string]FuncEntry, unspecified string) Factory {
	table := make(map[string]Schema, len(entries))
	for name, e := range entries {
		table[name] = NewSchema(name, e.Fields, e.Fn)
	}
	var def Schema
	if unspecified != "" {
		def = table[unspecified]
	}
	return &tableFactory{table: table, unspecified: def}
}

// suggestName wraps a resolution error with ranked close-name suggestions.
func suggestName(err error, name string, known []string) error {
	if suggs := rankSuggestions(name, known, 3); len(suggs) > 0 {
		return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggs, ", "))
	}
	return err
}
