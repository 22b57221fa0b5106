package construct

import (
	"fmt"
	"strings"
)

// Status says where a parameter's value came from during a pass.
type Status int

const (
	// StatusSupplied: an argument (exact or wildcard) provided the value,
	// or arguments populate the subtree.
	StatusSupplied Status = iota
	// StatusDefault: the field default (static or factory) applies.
	StatusDefault
	// StatusMissing: nothing supplied and no default.
	StatusMissing
)

func (s Status) String() string {
	switch s {
	case StatusSupplied:
		return "supplied"
	case StatusDefault:
		return "default"
	default:
		return "missing"
	}
}

// ParamInfo is the dry-run record for one parameter path.
type ParamInfo struct {
	Path   string
	Field  Field
	Status Status

	// Layer and Key identify the supplying layer entry for supplied
	// parameters.
	Layer string
	Key   string
}

// Report is the result of an Inspect dry run: every discovered parameter
// path, in walk order, with its resolution status. It drives usage and help
// rendering without requiring a complete argument set.
type Report struct {
	Params []ParamInfo
}

// Missing lists the paths of required parameters that received no value.
func (r *Report) Missing() []string {
	var out []string
	for _, p := range r.Params {
		if p.Status == StatusMissing && p.Field.Transform == nil {
			out = append(out, p.Path)
		}
	}
	return out
}

// String renders one line per parameter.
func (r *Report) String() string {
	var b strings.Builder
	for _, p := range r.Params {
		fmt.Fprintf(&b, "%-40s %-20s %s", displayPath(p.Path), p.Field.RawType, p.Status)
		switch {
		case p.Status == StatusSupplied && p.Key != "":
			fmt.Fprintf(&b, " (from %q", p.Key)
			if p.Layer != "" {
				fmt.Fprintf(&b, " in layer %q", p.Layer)
			}
			b.WriteString(")")
		case p.Status == StatusDefault && p.Field.HasDefault:
			fmt.Fprintf(&b, " (%v)", p.Field.Default)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Inspect performs a dry construction pass: it walks the schema and argument
// map exactly like Make but skips the extraneous, reference, missing, and
// evaluation stages, so it succeeds on incomplete input. Cast and factory
// resolution failures still fail the walk.
func Inspect(s Schema, args *ArgMap, opts ...Option) (*Report, error) {
	c := newConstruction(args, opts)
	if err := c.walkSchema(s, ""); err != nil {
		return nil, err
	}

	report := &Report{Params: make([]ParamInfo, 0, len(c.order))}
	for _, path := range c.order {
		origin := c.origins[path]
		report.Params = append(report.Params, ParamInfo{
			Path:   path,
			Field:  c.all[path],
			Status: origin.status,
			Layer:  origin.layer,
			Key:    origin.key,
		})
	}
	return report, nil
}
