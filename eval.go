package construct

import (
	"fmt"
	"sort"
	"strings"
)

// Expr is one node of a value mapping: a concrete value, a reference to
// another path, or a deferred call (thunk) over named path references.
// Thunks are explicit data rather than opaque closures so the graph stays
// introspectable: cycle detection and reference validation see every edge
// before any function runs.
type Expr interface {
	isExpr()
}

type valueExpr struct {
	v any
}

type refExpr struct {
	target string
}

type thunkExpr struct {
	fn     func(args map[string]any) (any, error)
	kwargs map[string]string // argument name -> referenced path
}

func (valueExpr) isExpr() {}
func (refExpr) isExpr()   {}
func (thunkExpr) isExpr() {}

// ValueOf wraps a concrete value as an expression.
func ValueOf(v any) Expr { return valueExpr{v: v} }

// RefTo points at the value resolved at another path.
func RefTo(path string) Expr { return refExpr{target: path} }

// ThunkOf defers a call until evaluation; each kwarg names the path whose
// resolved value it receives.
func ThunkOf(fn func(args map[string]any) (any, error), kwargs map[string]string) Expr {
	return thunkExpr{fn: fn, kwargs: kwargs}
}

// evaluator holds the per-call state of one Evaluate run. The cache and
// in-progress arena are keyed by path so diamond-shaped reference graphs
// resolve each node once, not once per edge.
type evaluator struct {
	graph  map[string]Expr
	cache  map[string]any
	active map[string]bool
	stack  []string
}

// Evaluate resolves a value mapping to the concrete root value (the entry at
// path ""). Every node is computed at most once per call; thunks run after
// all their kwargs resolve. A path requested while still in progress is a
// cycle and is reported with the readable chain.
func Evaluate(graph map[string]Expr) (any, error) {
	if _, ok := graph[""]; !ok {
		return nil, ErrEmptyGraph
	}
	ev := &evaluator{
		graph:  graph,
		cache:  make(map[string]any, len(graph)),
		active: make(map[string]bool),
	}
	return ev.resolve("")
}

func (ev *evaluator) resolve(path string) (any, error) {
	if v, ok := ev.cache[path]; ok {
		return v, nil
	}
	if ev.active[path] {
		return nil, &Error{Kind: KindCycle, Path: path, Msg: "circular reference", Chain: ev.chain(path)}
	}

	expr, ok := ev.graph[path]
	if !ok {
		return nil, newError(KindInvalidReference, path, "reference target not found")
	}

	ev.active[path] = true
	ev.stack = append(ev.stack, path)
	defer func() {
		delete(ev.active, path)
		ev.stack = ev.stack[:len(ev.stack)-1]
	}()

	var v any
	var err error
	switch e := expr.(type) {
	case valueExpr:
		v = e.v
	case refExpr:
		v, err = ev.resolve(e.target)
	case thunkExpr:
		args := make(map[string]any, len(e.kwargs))
		for _, name := range sortedKwargNames(e.kwargs) {
			args[name], err = ev.resolve(e.kwargs[name])
			if err != nil {
				return nil, err
			}
		}
		v, err = e.fn(args)
		if err != nil {
			err = fmt.Errorf("deferred call at %q failed: %w", path, err)
		}
	}
	if err != nil {
		return nil, err
	}

	ev.cache[path] = v
	return v, nil
}

// chain reconstructs the readable cycle from the in-progress stack:
// "a -> b -> c -> a".
func (ev *evaluator) chain(repeat string) []string {
	start := 0
	for i, p := range ev.stack {
		if p == repeat {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(ev.stack)-start+1)
	for _, p := range ev.stack[start:] {
		chain = append(chain, displayPath(p))
	}
	return append(chain, displayPath(repeat))
}

func displayPath(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}

func sortedKwargNames(kwargs map[string]string) []string {
	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckReferences is the order-independent pre-flight pass over a value
// mapping: every reference and thunk-kwarg target must appear in known. All
// dangling targets are aggregated into one KindInvalidReference error naming
// the target, every referrer, and a best-guess suggestion.
func CheckReferences(graph map[string]Expr, known map[string]struct{}) error {
	referrers := make(map[string][]string) // dangling target -> referrer paths
	record := func(target, referrer string) {
		if _, ok := known[target]; ok {
			return
		}
		referrers[target] = append(referrers[target], referrer)
	}

	for path, expr := range graph {
		switch e := expr.(type) {
		case refExpr:
			record(e.target, path)
		case thunkExpr:
			for _, target := range e.kwargs {
				record(target, path)
			}
		}
	}
	if len(referrers) == 0 {
		return nil
	}

	candidates := make([]string, 0, len(known))
	for p := range known {
		if p != "" {
			candidates = append(candidates, p)
		}
	}

	targets := make([]string, 0, len(referrers))
	for target := range referrers {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	var lines []string
	var allSuggestions []string
	for _, target := range targets {
		from := referrers[target]
		sort.Strings(from)
		line := fmt.Sprintf("%q (referenced from %s)", target, strings.Join(quoteAll(from), ", "))
		if suggs := rankSuggestions(target, candidates, 1); len(suggs) > 0 {
			line += fmt.Sprintf(", closest known path %q", suggs[0])
			allSuggestions = append(allSuggestions, suggs[0])
		}
		lines = append(lines, line)
	}

	return &Error{
		Kind:        KindInvalidReference,
		Msg:         "unknown reference target(s): " + strings.Join(lines, "; "),
		Suggestions: allSuggestions,
	}
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", displayPath(s))
	}
	return out
}
