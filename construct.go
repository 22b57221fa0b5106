package construct

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ValidatorFunc validates the fully constructed root value. Validators run
// after evaluation; a non-nil return surfaces as a validation error.
type ValidatorFunc func(root any) error

// Option adjusts one construction pass.
type Option func(*options)

type options struct {
	reg        *Registry
	cast       CastFunc
	validators []ValidatorFunc
}

// WithRegistry supplies the registry used to resolve polymorphic fields.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.reg = r }
}

// WithCaster replaces the default mapstructure-based caster.
func WithCaster(fn CastFunc) Option {
	return func(o *options) { o.cast = fn }
}

// WithValidator appends a post-construction validator. Multiple validators
// run in the order they were added.
func WithValidator(fn ValidatorFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.validators = append(o.validators, fn)
		}
	}
}

// usedKey identifies one consumed layer entry: the raw key and the ordinal of
// the layer that supplied it.
type usedKey struct {
	key   string
	layer int
}

// construction is the working state of one pass. It is exclusively owned by
// one Make or Inspect call and never shared.
type construction struct {
	args *ArgMap
	opts options

	all     map[string]Field // path -> descriptor
	order   []string         // paths in visit order
	used    map[usedKey]bool
	missing []string
	graph   map[string]Expr
	origins map[string]paramOrigin
}

type paramOrigin struct {
	status Status
	layer  string
	key    string
}

func newConstruction(args *ArgMap, opts []Option) *construction {
	c := &construction{
		args:    args,
		opts:    options{cast: castValue},
		all:     make(map[string]Field),
		used:    make(map[usedKey]bool),
		graph:   make(map[string]Expr),
		origins: make(map[string]paramOrigin),
	}
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// Make constructs an instance of schema s from the argument map: it walks the
// schema tree, builds the dependency graph, then runs the post-construction
// checks in fixed order (extraneous, reference targets, missing, evaluation)
// and returns the evaluated root. Exactly one error is returned per failed
// construction.
func Make(s Schema, args *ArgMap, opts ...Option) (any, error) {
	c := newConstruction(args, opts)
	if err := c.walkSchema(s, ""); err != nil {
		return nil, err
	}

	if err := c.checkExtraneous(); err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(c.all)+len(c.graph))
	for p := range c.all {
		known[p] = struct{}{}
	}
	for p := range c.graph {
		known[p] = struct{}{}
	}
	if err := CheckReferences(c.graph, known); err != nil {
		return nil, err
	}

	if len(c.missing) > 0 {
		return nil, newError(KindMissingRequired, c.missing[0], "no value supplied and no default")
	}

	root, err := Evaluate(c.graph)
	if err != nil {
		return nil, err
	}

	for _, validate := range c.opts.validators {
		if err := validate(root); err != nil {
			return nil, &Error{Kind: KindValidation, Msg: "validation failed", Err: err}
		}
	}
	return root, nil
}

// walkSchema constructs every declared field beneath path p, then inserts the
// instantiation thunk at p wiring each field name to its child path.
func (c *construction) walkSchema(s Schema, p string) error {
	fields := s.Fields()
	kwargs := make(map[string]string, len(fields))
	for _, f := range fields {
		q := joinPath(p, f.Name)
		if err := c.walkField(f, q); err != nil {
			return err
		}
		kwargs[f.Name] = q
	}
	c.graph[p] = ThunkOf(s.Instantiate, kwargs)
	return nil
}

// walkField constructs one field at path q.
func (c *construction) walkField(f Field, q string) error {
	c.all[q] = f
	c.order = append(c.order, q)

	hit, found := c.args.Lookup(q, false)
	subs := c.args.Subpaths(q, true)

	switch f.Embed {
	case EmbedOne:
		if f.Polymorphic {
			c.recordOrigin(q, hit, found, len(subs) > 0)
			return c.walkPolymorphic(f, q)
		}
		return c.walkEmbedOne(f, q, hit, found, subs)
	case EmbedMany:
		return c.walkEmbedMany(f, q, hit, found, subs)
	default:
		return c.walkScalar(f, q, hit, found)
	}
}

func (c *construction) walkScalar(f Field, q string, hit Hit, found bool) error {
	if !found {
		c.fallback(f, q)
		return nil
	}

	switch in := hit.Value.(type) {
	case Reference:
		c.consume(hit)
		if in.Target == q {
			// Self-reference cannot resolve; fall back to the default.
			c.fallback(f, q)
			return nil
		}
		c.graph[q] = RefTo(in.Target)
	case Computed:
		c.consume(hit)
		c.graph[q] = ThunkOf(in.Fn, cloneSources(in.Sources))
	case Literal:
		c.consume(hit)
		v, err := c.opts.cast(in.Raw, f.Type)
		if err != nil {
			return &Error{Kind: KindCastError, Path: q, Key: hit.Key, Msg: "cannot cast supplied value", Err: err}
		}
		c.graph[q] = ValueOf(v)
	default:
		return newError(KindInvalidValue, q, "unsupported input type %T", hit.Value)
	}

	c.setOrigin(q, StatusSupplied, hit)
	return nil
}

func (c *construction) walkEmbedOne(f Field, q string, hit Hit, found bool, subs map[string]struct{}) error {
	if found && !hit.Wildcard && len(subs) == 0 {
		// An exact assignment with nothing beneath it is a complete
		// instance.
		return c.useComplete(f, q, hit)
	}

	if f.Elem != nil && len(subs) > 0 {
		c.setOriginStatus(q, StatusSupplied)
		return c.walkSchema(f.Elem, q)
	}

	if f.Elem != nil && c.subtreeSupplied(f.Elem, q) {
		// No derivable subpath, but a wildcard reaches a descendant.
		c.setOriginStatus(q, StatusSupplied)
		return c.walkSchema(f.Elem, q)
	}

	if f.Elem != nil && allDefaulted(f.Elem) {
		// Every nested field defaults, so the nested object materializes
		// with zero input.
		c.setOriginStatus(q, StatusDefault)
		return c.walkSchema(f.Elem, q)
	}

	c.fallback(f, q)
	return nil
}

// subtreeSupplied reports whether any declared descendant path of schema s
// beneath p has a supplied value. Catches wildcard assignments that yield no
// derivable subpath.
func (c *construction) subtreeSupplied(s Schema, p string) bool {
	for _, f := range s.Fields() {
		q := joinPath(p, f.Name)
		if _, ok := c.args.Lookup(q, false); ok {
			return true
		}
		if f.Embed == EmbedOne && !f.Polymorphic && f.Elem != nil && c.subtreeSupplied(f.Elem, q) {
			return true
		}
	}
	return false
}

func (c *construction) walkEmbedMany(f Field, q string, hit Hit, found bool, subs map[string]struct{}) error {
	if found && !hit.Wildcard && len(subs) == 0 {
		return c.useComplete(f, q, hit)
	}

	indices := indexSegments(subs)
	if len(indices) == 0 {
		c.fallback(f, q)
		return nil
	}

	kwargs := make(map[string]string, len(indices))
	names := make([]string, 0, len(indices))
	for _, idx := range indices {
		name := strconv.Itoa(idx)
		qi := joinPath(q, name)
		if f.Polymorphic {
			if err := c.walkPolymorphic(f, qi); err != nil {
				return err
			}
		} else if f.Elem != nil {
			if err := c.walkSchema(f.Elem, qi); err != nil {
				return err
			}
		} else {
			return newError(KindInvalidValue, qi, "list field %q has no element schema", f.Name)
		}
		kwargs[name] = qi
		names = append(names, name)
	}

	// Collect in sorted-index order.
	c.graph[q] = ThunkOf(func(args map[string]any) (any, error) {
		out := make([]any, 0, len(names))
		for _, name := range names {
			out = append(out, args[name])
		}
		return out, nil
	}, kwargs)
	c.setOriginStatus(q, StatusSupplied)
	return nil
}

// walkPolymorphic resolves the concrete schema for a polymorphic target at
// path q (a field, or one element of a polymorphic list) and constructs it.
func (c *construction) walkPolymorphic(f Field, q string) error {
	hit, found := c.args.Lookup(q, false)
	subs := c.args.Subpaths(q, true)

	factory := f.Factory
	if factory == nil && c.opts.reg != nil {
		factory = c.opts.reg.Factory(f.Namespace, f.Unspecified)
	}

	if found {
		if name, ok := literalString(hit.Value); ok {
			c.consume(hit)
			if factory == nil {
				return newError(KindInvalidValue, q, "cannot resolve %q: no registry configured", name)
			}
			sub, err := factory.Resolve(name)
			if err != nil {
				return &Error{Kind: KindInvalidValue, Path: q, Key: hit.Key, Msg: fmt.Sprintf("cannot resolve type name %q", name), Err: err}
			}
			return c.walkSchema(sub, q)
		}
		if !hit.Wildcard && len(subs) == 0 {
			return c.useComplete(f, q, hit)
		}
	}

	if factory != nil {
		if sub, ok := factory.Unspecified(); ok {
			return c.walkSchema(sub, q)
		}
	}

	if len(subs) > 0 {
		// Arguments target this subtree but nothing says which concrete
		// type to build.
		return newError(KindInvalidValue, q, "polymorphic field has no type name and no default factory")
	}
	c.fallback(f, q)
	return nil
}

// useComplete consumes an exact assignment as a fully built instance.
func (c *construction) useComplete(f Field, q string, hit Hit) error {
	c.consume(hit)
	switch in := hit.Value.(type) {
	case Reference:
		if in.Target == q {
			c.fallback(f, q)
			return nil
		}
		c.graph[q] = RefTo(in.Target)
	case Computed:
		c.graph[q] = ThunkOf(in.Fn, cloneSources(in.Sources))
	case Literal:
		c.graph[q] = ValueOf(in.Raw)
	}
	c.setOrigin(q, StatusSupplied, hit)
	return nil
}

// fallback fills a path that received no usable value: static default,
// factory default, nil placeholder for transform-bearing fields, or a
// missing-parameter record. The graph entry is always present so the value
// mapping stays well-formed.
func (c *construction) fallback(f Field, q string) {
	switch {
	case f.HasDefault:
		c.graph[q] = ValueOf(f.Default)
		c.setOriginStatus(q, StatusDefault)
	case f.DefaultFactory != nil:
		factory := f.DefaultFactory
		c.graph[q] = ThunkOf(func(map[string]any) (any, error) {
			return factory(), nil
		}, nil)
		c.setOriginStatus(q, StatusDefault)
	case f.Transform != nil:
		// The external transform fills this in afterwards.
		c.graph[q] = ValueOf(nil)
		c.setOriginStatus(q, StatusMissing)
	default:
		c.missing = append(c.missing, q)
		c.graph[q] = ValueOf(nil)
		c.setOriginStatus(q, StatusMissing)
	}
}

func (c *construction) consume(hit Hit) {
	c.used[usedKey{key: hit.Key, layer: hit.LayerIndex}] = true
}

func (c *construction) setOrigin(q string, s Status, hit Hit) {
	c.origins[q] = paramOrigin{status: s, layer: hit.LayerName, key: hit.Key}
}

func (c *construction) setOriginStatus(q string, s Status) {
	c.origins[q] = paramOrigin{status: s}
}

func (c *construction) recordOrigin(q string, hit Hit, found, hasSubs bool) {
	switch {
	case found:
		c.setOrigin(q, StatusSupplied, hit)
	case hasSubs:
		c.setOriginStatus(q, StatusSupplied)
	default:
		c.setOriginStatus(q, StatusDefault)
	}
}

// checkExtraneous scans layers and keys in deterministic order for supplied
// entries that were never consumed and address no declared parameter,
// stopping at the first offense.
func (c *construction) checkExtraneous() error {
	for _, l := range c.args.Layers() {
		for _, key := range l.Keys() {
			if c.used[usedKey{key: key, layer: l.ordinal}] {
				continue
			}
			if HasWildcard(key) {
				if c.wildcardAddressesAny(l, key) {
					continue
				}
			} else if _, declared := c.all[key]; declared {
				continue
			}
			return &Error{
				Kind:        KindExtraneous,
				Key:         key,
				Msg:         fmt.Sprintf("supplied argument matches no parameter (layer %s)", layerLabel(l)),
				Suggestions: rankSuggestions(key, c.order, 3),
			}
		}
	}
	return nil
}

func (c *construction) wildcardAddressesAny(l *Layer, key string) bool {
	for _, w := range l.wildcards {
		if w.key != key {
			continue
		}
		for _, p := range c.order {
			if w.matcher.Matches(p) {
				return true
			}
		}
	}
	return false
}

func layerLabel(l *Layer) string {
	if l.name != "" {
		return fmt.Sprintf("%d %q", l.ordinal, l.name)
	}
	return strconv.Itoa(l.ordinal)
}

// allDefaulted reports whether every field of s (recursively) can
// materialize with zero input.
func allDefaulted(s Schema) bool {
	for _, f := range s.Fields() {
		if !f.Required() || f.Transform != nil {
			continue
		}
		if f.Embed == EmbedOne && !f.Polymorphic && f.Elem != nil && allDefaulted(f.Elem) {
			continue
		}
		return false
	}
	return true
}

// indexSegments extracts the numeric first segments from a subpath set,
// deduped and sorted ascending.
func indexSegments(subs map[string]struct{}) []int {
	seen := make(map[int]bool)
	var out []int
	for sub := range subs {
		first := sub
		if i := strings.IndexByte(sub, '.'); i >= 0 {
			first = sub[:i]
		}
		n, err := strconv.Atoi(first)
		if err != nil || n < 0 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func literalString(in Input) (string, bool) {
	l, ok := in.(Literal)
	if !ok {
		return "", false
	}
	s, ok := l.Raw.(string)
	return s, ok
}

func cloneSources(sources map[string]string) map[string]string {
	out := make(map[string]string, len(sources))
	for name, target := range sources {
		out[name] = target
	}
	return out
}
