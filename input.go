package construct

// Input is a value supplied for an argument key, before construction. The
// three variants mirror what callers can express: a plain value, a pointer at
// another path, or a deferred computation over named references.
type Input interface {
	isInput()
}

// Literal is a concrete supplied value: either an already-typed Go value
// (from a programmatic map or a preset file) or a cast-pending string (from
// the CLI tokenizer). Casting to the field type happens during construction.
type Literal struct {
	Raw any
}

// Reference means "use the value resolved at another path".
type Reference struct {
	Target string
}

// Computed means "call Fn with the named, reference-resolved arguments".
// Sources maps argument names to the paths whose resolved values they carry.
type Computed struct {
	Sources map[string]string
	Fn      func(args map[string]any) (any, error)
}

func (Literal) isInput()   {}
func (Reference) isInput() {}
func (Computed) isInput()  {}
