package filter

import "fmt"

// ExecutionContext binds runtime values to the fields of a scheme for
// one evaluation. It acts like a map in its public API but stores
// values in a slot array indexed by the fields' stable indices, so a
// compiled filter reads them in constant time.
//
// A context is populated by a single owner and then handed read-only to
// the evaluator; it is not safe for concurrent mutation. Any number of
// contexts may share one scheme, which is never mutated after
// construction.
type ExecutionContext struct {
	scheme *Scheme
	values []LhsValue // nil slot = unset
}

// NewExecutionContext creates a context against a scheme. The scheme is
// used to resolve all field names and indices and must outlive the
// context.
func NewExecutionContext(scheme *Scheme) *ExecutionContext {
	return &ExecutionContext{
		scheme: scheme,
		values: make([]LhsValue, scheme.FieldCount()),
	}
}

// Scheme returns the associated scheme.
func (ctx *ExecutionContext) Scheme() *Scheme {
	return ctx.scheme
}

// mustGetField resolves a field name. Setting a value for a field the
// scheme never declared is a programmer error, not a runtime condition.
func (ctx *ExecutionContext) mustGetField(name string) Field {
	field, ok := ctx.scheme.GetField(name)
	if !ok {
		panic(fmt.Sprintf("field %s is not registered in the scheme", name))
	}
	return field
}

// SetFieldValue stores a runtime value for a field. The value's type
// must equal the field's declared type; on mismatch the slot keeps its
// prior state and a TypeMismatchError is returned.
func (ctx *ExecutionContext) SetFieldValue(name string, value LhsValue) error {
	field := ctx.mustGetField(name)

	fieldType := field.GetType()
	valueType := value.GetType()

	if !fieldType.Equal(valueType) {
		return &TypeMismatchError{
			Expected: fieldType,
			Actual:   valueType,
		}
	}
	ctx.values[field.Index()] = value
	return nil
}

// SetFieldValueWithPath stores a runtime value under a nested path
// inside a field. An empty path behaves exactly like SetFieldValue.
//
// For a non-empty path, an unset slot is first materialized as an empty
// placeholder of the field's declared type; a scalar declared type
// cannot host a sub-path and fails with a VoidableTypeError. The path
// is then walked one segment at a time, narrowing the expected type via
// Type.Next and creating missing intermediate maps on demand. At the
// last segment the value is inserted through the map's checked insert.
//
// A failure at the final segment does not roll back intermediate maps
// created along the way: partial materialization is a visible side
// effect of a failed multi-segment set.
func (ctx *ExecutionContext) SetFieldValueWithPath(name string, path []FieldPathItem, value LhsValue) error {
	if len(path) == 0 {
		return ctx.SetFieldValue(name, value)
	}

	field := ctx.mustGetField(name)

	currentType := field.GetType()
	valueType := value.GetType()

	slot := field.Index()
	if ctx.values[slot] == nil {
		placeholder, err := valueFromType(currentType)
		if err != nil {
			return err
		}
		ctx.values[slot] = placeholder
	}

	node := ctx.values[slot]
	for i, item := range path {
		next, ok := currentType.Next()
		if !ok {
			return &TypeMismatchError{
				Expected: currentType,
				Actual:   typeFromPath(valueType, len(path)-i),
			}
		}
		currentType = next

		if i < len(path)-1 {
			child, err := getOrInsertDefault(node, item, currentType)
			if err != nil {
				return err
			}
			node = child
			continue
		}

		if !currentType.Equal(valueType) {
			return &TypeMismatchError{
				Expected: currentType,
				Actual:   valueType,
			}
		}
		_, err := SetPath(node, item, value)
		return err
	}
	return nil
}

// getOrInsertDefault descends one path segment into node, materializing
// an empty placeholder of the expected type when the key is missing.
func getOrInsertDefault(node LhsValue, item FieldPathItem, ty Type) (LhsValue, error) {
	child, found, err := GetPath(node, item, ty)
	if err != nil {
		return nil, err
	}
	if found {
		return child, nil
	}
	placeholder, err := valueFromType(ty)
	if err != nil {
		return nil, err
	}
	if _, err := SetPath(node, item, placeholder); err != nil {
		return nil, err
	}
	return placeholder, nil
}

// typeFromPath reconstructs the type a value would need to have for the
// remaining path segments to succeed, for diagnostics: a path with n
// segments left requires n levels of Map nesting around the value.
func typeFromPath(valueType Type, remaining int) Type {
	ty := valueType
	for i := 0; i < remaining; i++ {
		ty = MapType(ty)
	}
	return ty
}

// GetFieldValue returns the value currently bound to a field slot, or
// ok=false when the slot is unset. It is a diagnostic accessor for
// tooling; the evaluator uses GetFieldValueUnchecked.
func (ctx *ExecutionContext) GetFieldValue(field Field) (LhsValue, bool) {
	assertSameScheme(ctx.scheme, field.Scheme())
	value := ctx.values[field.Index()]
	if value == nil {
		return nil, false
	}
	return value.Ref(), true
}

// GetFieldValueUnchecked returns the value bound to a compiled field
// reference, walking the reference's path into nested maps. It is the
// evaluator's read entry point: the compiled filter has already proven
// against the shared scheme that the field exists and is well typed, so
// no recoverable errors remain. Reading a field that was never given a
// value is a broken contract between the filter and whoever populated
// the context, and panics rather than silently substituting a default.
func (ctx *ExecutionContext) GetFieldValueUnchecked(field Field) LhsValue {
	// Reachable only from filter execution, which has performed the
	// scheme compatibility check already.
	assertSameScheme(ctx.scheme, field.Scheme())

	value := ctx.values[field.Index()]
	if value == nil {
		panic(fmt.Sprintf("field %s was registered but not given a value", field.Name()))
	}

	currentType := field.GetType()
	for _, item := range field.Path() {
		next, ok := currentType.Next()
		if !ok {
			panic(fmt.Sprintf("field %s: path descends below type %s", field.Name(), currentType))
		}
		currentType = next

		child, found, err := GetPath(value, item, currentType)
		if err != nil {
			panic(fmt.Sprintf("field %s: %s", field.Name(), err))
		}
		if !found {
			panic(fmt.Sprintf("field %s was registered but not given a value", field.Name()))
		}
		value = child
	}
	return value.Ref()
}
