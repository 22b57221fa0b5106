package construct

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for conditions detected before a construction pass runs.
var (
	// ErrTrailingWildcard reports a pattern that ends in "...". There is no
	// sensible trailing-wildcard semantics, so compilation refuses it.
	ErrTrailingWildcard = errors.New("pattern must not end in \"...\"")

	// ErrEmptyGraph reports a value mapping without a root ("") entry.
	ErrEmptyGraph = errors.New("value mapping has no root entry")
)

// Kind classifies a construction failure.
type Kind int

const (
	KindUnknown Kind = iota
	// KindMissingRequired: a field without a default received no value.
	KindMissingRequired
	// KindExtraneous: a supplied key was never consumed and addresses no
	// declared parameter.
	KindExtraneous
	// KindInvalidValue: a polymorphic type name could not be resolved.
	KindInvalidValue
	// KindCastError: a raw value could not be cast to the field type.
	KindCastError
	// KindInvalidReference: one or more references point at absent paths.
	KindInvalidReference
	// KindCycle: the dependency graph contains a reference cycle.
	KindCycle
	// KindValidation: a post-construction validator rejected the result.
	KindValidation
)

// String returns the wire-stable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMissingRequired:
		return "missing_required"
	case KindExtraneous:
		return "extraneous"
	case KindInvalidValue:
		return "invalid_value"
	case KindCastError:
		return "cast_error"
	case KindInvalidReference:
		return "invalid_reference"
	case KindCycle:
		return "cycle"
	case KindValidation:
		return "validation_error"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by a failed construction.
// Exactly one Error is returned per failed Make call; reference-target
// validation aggregates all dangling references into one Error.
type Error struct {
	Kind Kind

	// Path is the parameter path the failure is about, where applicable.
	Path string

	// Key is the raw supplied key involved, where applicable (extraneous,
	// cast errors from a layer entry).
	Key string

	// Msg is the human-readable description.
	Msg string

	// Suggestions holds ranked did-you-mean candidates, best first.
	Suggestions []string

	// Chain holds the reference cycle ("a -> b -> a") for KindCycle.
	Chain []string

	// Err is the underlying cause, if any.
	Err error
}

// Error formats the failure as one readable line (aggregated reference
// errors may span a short paragraph inside the same string).
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Path != "" {
		fmt.Fprintf(&b, " at %q", e.Path)
	} else if e.Key != "" {
		fmt.Fprintf(&b, " for key %q", e.Key)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Chain) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Chain, " -> "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is (or wraps) a construction Error of kind k.
func IsKind(err error, k Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == k
	}
	return false
}

func newError(k Kind, path, format string, args ...any) *Error {
	return &Error{Kind: k, Path: path, Msg: fmt.Sprintf(format, args...)}
}
