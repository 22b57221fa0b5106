package construct

import "strings"

// qualRef is the consolidated winner for one exact path: the value and
// ordinal of the highest layer defining it.
type qualRef struct {
	value   Input
	ordinal int
}

// wildRef is one consolidated wildcard assignment.
type wildRef struct {
	key     string
	matcher *Matcher
	value   Input
	ordinal int
}

// consolidated is the derived lookup view over a layer list. It is a pure
// function of the layers: recomputing it never reorders anything.
type consolidated struct {
	qualified map[string]qualRef
	wildcards []wildRef // reverse-append order, most recent first
}

// ArgMap stores ordered layers of key-to-input assignments and answers
// "effective value at path" and "known sub-keys under a prefix". Appending is
// copy-on-write: prior references stay valid and keep their own consolidated
// cache, so a built ArgMap is read-only safe for concurrent constructions.
type ArgMap struct {
	layers []*Layer
	cons   *consolidated
}

// NewArgMap returns an empty argument map.
func NewArgMap() *ArgMap {
	return &ArgMap{cons: &consolidated{qualified: map[string]qualRef{}}}
}

// AddLayer builds a layer from entries and appends it, returning the new map.
// The receiver is left untouched.
func (m *ArgMap) AddLayer(entries map[string]Input, name string) (*ArgMap, error) {
	l, err := NewLayer(entries, name)
	if err != nil {
		return nil, err
	}
	return m.Push(l), nil
}

// Push appends a prebuilt (possibly retained or nested) layer, returning the
// new map. The layer is re-stamped with the next ordinal; ordinals strictly
// increase in append order.
func (m *ArgMap) Push(l *Layer) *ArgMap {
	next := &ArgMap{layers: make([]*Layer, len(m.layers), len(m.layers)+1)}
	copy(next.layers, m.layers)
	next.layers = append(next.layers, l.clone(len(next.layers)))
	next.cons = next.consolidate()
	return next
}

// Layers returns the layer list in append order. The caller must not modify
// the returned slice.
func (m *ArgMap) Layers() []*Layer { return m.layers }

// consolidate recomputes the qualified lookup table and the
// reverse-chronological wildcard list. Idempotent.
func (m *ArgMap) consolidate() *consolidated {
	c := &consolidated{qualified: make(map[string]qualRef)}
	for _, l := range m.layers {
		for path, v := range l.qualified {
			if prev, ok := c.qualified[path]; !ok || l.ordinal > prev.ordinal {
				c.qualified[path] = qualRef{value: v, ordinal: l.ordinal}
			}
		}
	}
	for i := len(m.layers) - 1; i >= 0; i-- {
		l := m.layers[i]
		for _, w := range l.wildcards {
			c.wildcards = append(c.wildcards, wildRef{
				key:     w.key,
				matcher: w.matcher,
				value:   w.value,
				ordinal: l.ordinal,
			})
		}
	}
	return c
}

// Hit describes the effective assignment found for a path.
type Hit struct {
	// Key is the raw key that supplied the value (a pattern for wildcard
	// hits).
	Key string

	// Value is the supplied input.
	Value Input

	// LayerIndex is the ordinal of the supplying layer; LayerName its name.
	LayerIndex int
	LayerName  string

	// Wildcard reports whether the hit came from a wildcard key.
	Wildcard bool
}

// Lookup returns the effective assignment at path. A wildcard beats a
// qualified match only when its layer ordinal is strictly greater; otherwise
// the qualified match wins.
func (m *ArgMap) Lookup(path string, ignoreWildcards bool) (Hit, bool) {
	c := m.cons

	qOrd := -1
	q, haveQ := c.qualified[path]
	if haveQ {
		qOrd = q.ordinal
	}

	if !ignoreWildcards {
		for _, w := range c.wildcards {
			if w.ordinal <= qOrd {
				// The list is most-recent first; nothing further can win.
				break
			}
			if w.matcher.Matches(path) {
				return Hit{
					Key:        w.key,
					Value:      w.value,
					LayerIndex: w.ordinal,
					LayerName:  m.layers[w.ordinal].name,
					Wildcard:   true,
				}, true
			}
		}
	}

	if haveQ {
		return Hit{
			Key:        path,
			Value:      q.value,
			LayerIndex: q.ordinal,
			LayerName:  m.layers[q.ordinal].name,
		}, true
	}
	return Hit{}, false
}

// Subpaths returns every known sub-key under path: the suffix (after "path.")
// of each qualified key at or below path, plus the suffixes derivable from
// wildcard patterns that can apply below path. With strict set, the empty
// suffix (an assignment at path itself) is omitted. Drives "does anything
// exist under this prefix" decisions even when path itself has no value.
func (m *ArgMap) Subpaths(path string, strict bool) map[string]struct{} {
	c := m.cons
	subs := make(map[string]struct{})

	for key := range c.qualified {
		switch {
		case path == "":
			if key != "" {
				subs[key] = struct{}{}
			}
		case key == path:
			if !strict {
				subs[""] = struct{}{}
			}
		case strings.HasPrefix(key, path+"."):
			subs[key[len(path)+1:]] = struct{}{}
		}
	}

	for _, w := range c.wildcards {
		if path == "" {
			subs[w.key] = struct{}{}
			continue
		}
		if !strict && w.matcher.Matches(path) {
			subs[""] = struct{}{}
			continue
		}
		if suffix, ok := wildcardSuffix(w, path); ok {
			subs[suffix] = struct{}{}
		}
	}
	return subs
}

// wildcardSuffix derives the sub-key a wildcard pattern can supply below
// path: locate the longest literal segment of path occurring
// (segment-aligned) inside the pattern, and if the pattern prefix through
// that occurrence itself matches path, the remaining pattern suffix applies
// below it. Trailing wildcards in the suffix are preserved.
func wildcardSuffix(w wildRef, path string) (string, bool) {
	segs := splitPath(path)

	// Longest segment first; ties keep path order.
	order := make([]int, len(segs))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && len(segs[order[j]]) > len(segs[order[j-1]]); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	for _, si := range order {
		seg := segs[si]
		from := 0
		found := false
		for {
			idx := strings.Index(w.key[from:], seg)
			if idx < 0 {
				break
			}
			idx += from
			from = idx + 1
			if !segmentAligned(w.key, idx, len(seg)) {
				continue
			}
			found = true
			prefix := w.key[:idx+len(seg)]
			pm, err := Compile(prefix)
			if err != nil {
				continue // unreachable: prefix ends in a literal segment
			}
			if !pm.Matches(path) {
				continue
			}
			suffix := w.key[idx+len(seg):]
			if !strings.HasPrefix(suffix, Wildcard) {
				// The leading dot is a separator unless it starts a
				// wildcard token.
				suffix = strings.TrimPrefix(suffix, ".")
			}
			if suffix == "" {
				return "", false
			}
			return suffix, true
		}
		if found {
			// Only the longest occurring segment is consulted.
			return "", false
		}
	}
	return "", false
}

// segmentAligned reports whether pattern[idx:idx+n] sits on segment
// boundaries (adjacent to dots, the ends of the pattern, or nothing else).
func segmentAligned(pattern string, idx, n int) bool {
	if idx > 0 && pattern[idx-1] != '.' {
		return false
	}
	if end := idx + n; end < len(pattern) && pattern[end] != '.' {
		return false
	}
	return true
}
