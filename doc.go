// Package construct resolves typed configuration trees from layered,
// partially-overlapping inputs: CLI-style key assignments, programmatic maps,
// and preset files.
//
// Inputs are dot-delimited path assignments ("model.layers.0.size") collected
// into ordered, immutable layers. Later layers take precedence, and keys may
// contain the "..." wildcard to bulk-assign every matching path
// ("...dropout" sets dropout wherever it appears). Values may be literals,
// references to other paths ("@encoder.size"), or deferred computations over
// named references.
//
// Construction walks a schema tree (usually derived from a tagged struct via
// FromStruct), consults the argument map per field, builds a lazy dependency
// graph, resolves polymorphic fields through a registry of named schemas, and
// evaluates the graph with memoization and cycle detection.
//
// Quick Start:
//
//	type Model struct {
//	    Hidden int `conf:"hidden,default=10"`
//	    Layers int `conf:"layers,default=2"`
//	}
//	type Cfg struct {
//	    Name  string `conf:"name,required"`
//	    Model Model  `conf:"model"`
//	}
//
//	v, err := construct.Quick(&Cfg{}, []string{"--name", "x", "--...hidden", "50"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg := v.(*Cfg) // cfg.Model.Hidden == 50, cfg.Model.Layers == 2
//
// Failed constructions return a single *Error with a Kind (missing required,
// extraneous, cast error, invalid reference, cycle, ...) and, where useful,
// ranked did-you-mean suggestions.
//
// Everything here is synchronous. An argument map is read-only safe for
// concurrent constructions once built; appending layers to a shared handle
// must be serialized by the caller.
package construct
