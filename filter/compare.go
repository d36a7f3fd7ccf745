package filter

import "bytes"

// Ordering is the result of a definite three-way comparison.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// String returns the ordering name
func (o Ordering) String() string {
	switch o {
	case Less:
		return "Less"
	case Equal:
		return "Equal"
	case Greater:
		return "Greater"
	}
	return "Unordered"
}

// Compare is a strict partial order between a runtime value and a
// literal. When both sides have the same kind it returns the per-kind
// ordering (address bytes for IP, lexicographic for Bytes, numeric for
// Int) and ok=true. Values of different kinds are unordered: the result
// is ok=false, never an error or a panic. Bool and Map runtime values
// are always unordered since no literal of those kinds exists.
func Compare(lhs LhsValue, rhs RhsValue) (Ordering, bool) {
	switch l := lhs.(type) {
	case IPValue:
		if r, ok := rhs.(RhsIP); ok {
			return Ordering(l.Addr.Compare(r.Addr)), true
		}
	case BytesValue:
		if r, ok := rhs.(RhsBytes); ok {
			return Ordering(bytes.Compare(l.data, r.Data)), true
		}
	case IntValue:
		if r, ok := rhs.(RhsInt); ok {
			return compareInt32(int32(l), int32(r)), true
		}
	}
	return 0, false
}

// EqualRhs reports whether a runtime value equals a literal. Equality
// is defined exactly as strict comparison yielding Equal, so values of
// different kinds are never equal.
func EqualRhs(lhs LhsValue, rhs RhsValue) bool {
	ord, ok := Compare(lhs, rhs)
	return ok && ord == Equal
}

func compareInt32(a, b int32) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	}
	return Equal
}
