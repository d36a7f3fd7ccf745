package filter

import (
	"fmt"
	"sort"
	"strings"
)

// MapValue is a homogeneous map from string keys to values of a single
// declared type. The declared type is fixed at construction and every
// insert is checked against it, so lookups never need to re-validate.
type MapValue struct {
	valueType Type
	entries   map[string]LhsValue
}

// NewMapValue creates an empty map whose values must all have the given
// type.
func NewMapValue(valueType Type) *MapValue {
	return &MapValue{
		valueType: valueType,
		entries:   make(map[string]LhsValue),
	}
}

// ValueType returns the declared type of the map's values.
func (m *MapValue) ValueType() Type {
	return m.valueType
}

// GetType returns Map(valueType).
func (m *MapValue) GetType() Type {
	return MapType(m.valueType)
}

// Len returns the number of entries.
func (m *MapValue) Len() int {
	return len(m.entries)
}

// Get returns the value stored under key, if any. No type check is
// needed: the insert-time invariant guarantees every stored value has
// the declared type.
func (m *MapValue) Get(key string) (LhsValue, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Keys returns the map's keys in sorted order.
func (m *MapValue) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Insert stores value under key and returns the value it displaced, if
// any. It fails with a TypeMismatchError when value's type differs from
// the map's declared value type; on failure the map is unchanged.
func (m *MapValue) Insert(key string, value LhsValue) (LhsValue, error) {
	valueType := value.GetType()
	if !m.valueType.Equal(valueType) {
		return nil, &TypeMismatchError{
			Expected: m.valueType,
			Actual:   valueType,
		}
	}
	prev := m.entries[key]
	m.entries[key] = value
	return prev, nil
}

// Ref returns a view of the map. Map values are reference types in Go,
// so the view shares the underlying entries.
func (m *MapValue) Ref() LhsValue {
	return m
}

// Equal reports deep equality: same declared value type, same keys,
// equal values.
func (m *MapValue) Equal(other LhsValue) bool {
	o, ok := other.(*MapValue)
	if !ok || !m.valueType.Equal(o.valueType) || len(m.entries) != len(o.entries) {
		return false
	}
	for k, v := range m.entries {
		ov, ok := o.entries[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the map entries in key order.
func (m *MapValue) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range m.Keys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		v, _ := m.Get(k)
		fmt.Fprintf(&sb, "%q: %s", k, v)
	}
	sb.WriteString("}")
	return sb.String()
}
