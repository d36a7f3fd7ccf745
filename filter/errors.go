package filter

import "fmt"

// TypeMismatchError reports that a value's type does not match the type
// required by its destination: a field assignment, a map insert, or a
// path traversal step.
type TypeMismatchError struct {
	Expected Type
	Actual   Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected value of type %s, but got %s", e.Expected, e.Actual)
}

// VoidableTypeError reports that no placeholder value can be produced
// for a type. Only Map types can materialize an empty placeholder; a
// scalar field cannot host a nested path. This is a structural failure,
// distinct from a type mismatch.
type VoidableTypeError struct {
	Type Type
}

func (e *VoidableTypeError) Error() string {
	return fmt.Sprintf("cannot produce a placeholder value for type %s", e.Type)
}
