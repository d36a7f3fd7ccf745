package filter

import (
	"bytes"
	"fmt"
	"net/netip"
	"strconv"
	"unicode"
)

// LhsValue is a runtime field value supplied to an execution context
// and read back by a compiled filter during execution. Exactly one
// variant exists per kind: IPValue, BytesValue, IntValue, BoolValue and
// *MapValue.
type LhsValue interface {
	GetType

	// Ref returns a view of the value that shares any underlying
	// buffer instead of owning it. Views are safe to hand out as long
	// as the source value outlives them.
	Ref() LhsValue

	// Equal reports deep value equality, including the kind.
	Equal(other LhsValue) bool

	String() string
}

// Constructors. The kind is implied by the Go type of the argument, so
// no explicit Type is needed.

// IP wraps a network address as a runtime value.
func IP(addr netip.Addr) LhsValue { return IPValue{Addr: addr} }

// Bytes wraps a byte buffer as a runtime value without copying it. The
// caller keeps ownership; the buffer must outlive the value and every
// context it is stored in.
func Bytes(b []byte) LhsValue { return BytesValue{data: b} }

// OwnedBytes copies a byte buffer into a runtime value that owns its
// memory and has no lifetime tie to the input.
func OwnedBytes(b []byte) LhsValue {
	data := make([]byte, len(b))
	copy(data, b)
	return BytesValue{data: data, owned: true}
}

// String wraps a string's bytes as a runtime value. Strings and raw
// bytes are interchangeable at runtime and differ only in syntax.
func String(s string) LhsValue { return BytesValue{data: []byte(s), owned: true} }

// Int wraps a 32-bit integer as a runtime value.
func Int(i int32) LhsValue { return IntValue(i) }

// Bool wraps a boolean as a runtime value.
func Bool(b bool) LhsValue { return BoolValue(b) }

// IPValue is the runtime form of an IPv4 or IPv6 address. Both families
// share one kind so that values remain comparable across notation.
type IPValue struct {
	Addr netip.Addr
}

func (v IPValue) GetType() Type  { return TypeIP }
func (v IPValue) Ref() LhsValue  { return v }
func (v IPValue) String() string { return v.Addr.String() }

func (v IPValue) Equal(other LhsValue) bool {
	o, ok := other.(IPValue)
	return ok && v.Addr == o.Addr
}

// BytesValue is the runtime form of a byte buffer or string field. The
// buffer is either borrowed from caller-supplied memory (zero-copy) or
// owned by the value; Ref always produces a borrowed view.
type BytesValue struct {
	data  []byte
	owned bool
}

func (v BytesValue) GetType() Type { return TypeBytes }

// Bytes returns the underlying buffer. The buffer must not be mutated
// while any context holds the value.
func (v BytesValue) Bytes() []byte { return v.data }

// Owned reports whether the value owns its buffer rather than borrowing
// caller memory.
func (v BytesValue) Owned() bool { return v.owned }

func (v BytesValue) Ref() LhsValue {
	return BytesValue{data: v.data}
}

func (v BytesValue) Equal(other LhsValue) bool {
	o, ok := other.(BytesValue)
	return ok && bytes.Equal(v.data, o.data)
}

func (v BytesValue) String() string {
	if isPrintable(v.data) {
		return strconv.Quote(string(v.data))
	}
	var sb bytes.Buffer
	for i, b := range v.data {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

func isPrintable(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 || !unicode.IsPrint(rune(b)) {
			return false
		}
	}
	return true
}

// IntValue is the runtime form of a 32-bit signed integer field.
type IntValue int32

func (v IntValue) GetType() Type  { return TypeInt }
func (v IntValue) Ref() LhsValue  { return v }
func (v IntValue) String() string { return strconv.FormatInt(int64(v), 10) }

func (v IntValue) Equal(other LhsValue) bool {
	o, ok := other.(IntValue)
	return ok && v == o
}

// BoolValue is the runtime form of a boolean field.
type BoolValue bool

func (v BoolValue) GetType() Type  { return TypeBool }
func (v BoolValue) Ref() LhsValue  { return v }
func (v BoolValue) String() string { return strconv.FormatBool(bool(v)) }

func (v BoolValue) Equal(other LhsValue) bool {
	o, ok := other.(BoolValue)
	return ok && v == o
}

// GetPath retrieves a nested element of a value given a path item and
// the expected type at that position. Only Map values support nested
// elements; asking any other kind for a keyed element is a type
// mismatch. A Map that simply lacks the key is not an error: the result
// is (nil, false, nil), which callers distinguish from a wrongly shaped
// container.
func GetPath(v LhsValue, item FieldPathItem, ty Type) (LhsValue, bool, error) {
	name, ok := item.(PathName)
	if !ok {
		return nil, false, fmt.Errorf("unsupported path item %T", item)
	}
	m, ok := v.(*MapValue)
	if !ok {
		return nil, false, &TypeMismatchError{
			Expected: MapType(ty),
			Actual:   v.GetType(),
		}
	}
	elem, ok := m.Get(string(name))
	return elem, ok, nil
}

// SetPath sets a nested element of a value given a path item, returning
// any displaced previous element. Only Map values support nested
// elements; the map's checked insert enforces the declared value type.
func SetPath(v LhsValue, item FieldPathItem, value LhsValue) (LhsValue, error) {
	name, ok := item.(PathName)
	if !ok {
		return nil, fmt.Errorf("unsupported path item %T", item)
	}
	m, ok := v.(*MapValue)
	if !ok {
		return nil, &TypeMismatchError{
			Expected: MapType(value.GetType()),
			Actual:   v.GetType(),
		}
	}
	return m.Insert(string(name), value)
}

// valueFromType materializes a placeholder value for a declared type
// when no concrete value exists yet. Only Map types have a meaningful
// empty placeholder; every scalar type fails with a VoidableTypeError.
func valueFromType(ty Type) (LhsValue, error) {
	if inner, ok := ty.Next(); ok {
		return NewMapValue(inner), nil
	}
	return nil, &VoidableTypeError{Type: ty}
}
