package filter

import (
	"fmt"
	"strings"
)

// Kind enumerates the value categories a field can hold.
type Kind byte

const (
	KindIP Kind = iota
	KindBytes
	KindInt
	KindBool
	KindMap
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindIP:
		return "Ip"
	case KindBytes:
		return "Bytes"
	case KindInt:
		return "Int"
	case KindBool:
		return "Bool"
	case KindMap:
		return "Map"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

// Type describes the declared type of a field value. It is a recursive
// descriptor: a Map type carries the type of its values, which may itself
// be a Map to any depth. Types carry no runtime payload and are compared
// structurally.
type Type struct {
	kind  Kind
	inner *Type // non-nil only for KindMap
}

// The four scalar types. These are fixed values; use MapType to build
// container types.
var (
	TypeIP    = Type{kind: KindIP}
	TypeBytes = Type{kind: KindBytes}
	TypeInt   = Type{kind: KindInt}
	TypeBool  = Type{kind: KindBool}
)

// MapType returns the type of a map whose values all have type inner.
func MapType(inner Type) Type {
	t := inner
	return Type{kind: KindMap, inner: &t}
}

// Kind returns the top-level kind tag.
func (t Type) Kind() Kind {
	return t.kind
}

// Next returns the inner type when one exists (i.e. for a Map).
// It is used to walk a declared type alongside a field path one
// segment at a time.
func (t Type) Next() (Type, bool) {
	if t.kind == KindMap {
		return *t.inner, true
	}
	return Type{}, false
}

// Equal reports whether two types are structurally identical.
// Map(Map(Int)) and Map(Int) are different types.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	if t.kind == KindMap {
		return t.inner.Equal(*other.inner)
	}
	return true
}

// String renders the type in scheme syntax, e.g. "Int" or "Map(Bytes)".
func (t Type) String() string {
	if t.kind == KindMap {
		return fmt.Sprintf("Map(%s)", t.inner)
	}
	return t.kind.String()
}

// ParseType parses a type written in scheme syntax: one of Ip, Bytes,
// Int, Bool, or Map(T) where T is itself a type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "Ip":
		return TypeIP, nil
	case "Bytes":
		return TypeBytes, nil
	case "Int":
		return TypeInt, nil
	case "Bool":
		return TypeBool, nil
	}
	if strings.HasPrefix(s, "Map(") && strings.HasSuffix(s, ")") {
		inner, err := ParseType(s[len("Map(") : len(s)-1])
		if err != nil {
			return Type{}, err
		}
		return MapType(inner), nil
	}
	return Type{}, fmt.Errorf("unknown type %q", s)
}

// GetType is implemented by anything that can report its value type.
type GetType interface {
	GetType() Type
}
