package construct

import (
	"fmt"
	"sort"
)

// wildcardEntry is one precompiled wildcard assignment inside a layer.
type wildcardEntry struct {
	key     string
	matcher *Matcher
	value   Input
}

// Layer is one immutable, ordered batch of key-to-input assignments. Keys are
// partitioned at creation into qualified (exact-path) and wildcard subsets,
// with every wildcard key precompiled. A layer is never mutated after
// creation; its ordinal is assigned when it is appended to an ArgMap.
type Layer struct {
	ordinal   int
	name      string
	keys      []string // all raw keys, sorted for deterministic scans
	qualified map[string]Input
	wildcards []wildcardEntry
}

// NewLayer builds a layer from raw entries. Malformed keys, including
// patterns ending in "...", are rejected here rather than at lookup time.
func NewLayer(entries map[string]Input, name string) (*Layer, error) {
	l := &Layer{
		ordinal:   -1,
		name:      name,
		keys:      make([]string, 0, len(entries)),
		qualified: make(map[string]Input),
	}
	for key := range entries {
		l.keys = append(l.keys, key)
	}
	sort.Strings(l.keys)

	for _, key := range l.keys {
		if err := validateKey(key); err != nil {
			return nil, fmt.Errorf("layer %q: %w", name, err)
		}
		value := entries[key]
		if !HasWildcard(key) {
			l.qualified[key] = value
			continue
		}
		m, err := Compile(key)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", name, err)
		}
		l.wildcards = append(l.wildcards, wildcardEntry{key: key, matcher: m, value: value})
	}
	return l, nil
}

// Name returns the optional layer name given at creation.
func (l *Layer) Name() string { return l.name }

// Ordinal returns the layer's append index inside its ArgMap, or -1 for a
// layer not yet appended.
func (l *Layer) Ordinal() int { return l.ordinal }

// Keys returns the raw keys of the layer in sorted order. The caller must not
// modify the returned slice.
func (l *Layer) Keys() []string { return l.keys }

// Entry returns the input stored under a raw key.
func (l *Layer) Entry(key string) (Input, bool) {
	if v, ok := l.qualified[key]; ok {
		return v, true
	}
	for _, w := range l.wildcards {
		if w.key == key {
			return w.value, true
		}
	}
	return nil, false
}

// Nest returns a copy of the layer with every key rewritten beneath prefix,
// wildcard matchers recompiled. Used when applying a retained layer to a
// nested target ("model" + "...lr" -> "model....lr" semantics are avoided by
// plain dot joining: "model.<key>").
func (l *Layer) Nest(prefix string) (*Layer, error) {
	if prefix == "" {
		return l, nil
	}
	entries := make(map[string]Input, len(l.keys))
	for _, key := range l.keys {
		v, _ := l.Entry(key)
		entries[joinPath(prefix, key)] = v
	}
	return NewLayer(entries, l.name)
}

// clone returns a shallow copy with a new ordinal. Layers are immutable once
// inside an ArgMap, so sharing the partition maps is safe.
func (l *Layer) clone(ordinal int) *Layer {
	c := *l
	c.ordinal = ordinal
	return &c
}
