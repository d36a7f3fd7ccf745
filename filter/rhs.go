package filter

import (
	"bytes"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// RhsValue is a single literal parsed from filter source text, used on
// the right-hand side of a relational comparison. Only three kinds have
// literal syntax: IP, Bytes and Int. Bool and Map deliberately have no
// implementor, so a literal of those kinds cannot be constructed at all.
type RhsValue interface {
	GetType

	// AsLhs converts the literal to a runtime value view, borrowing
	// any underlying buffer.
	AsLhs() LhsValue

	String() string

	isRhsValue()
}

// RhsIP is an address literal.
type RhsIP struct {
	Addr netip.Addr
}

func (RhsIP) isRhsValue()       {}
func (r RhsIP) GetType() Type   { return TypeIP }
func (r RhsIP) AsLhs() LhsValue { return IPValue{Addr: r.Addr} }
func (r RhsIP) String() string  { return r.Addr.String() }

// RhsBytes is a byte-string literal.
type RhsBytes struct {
	Data []byte
}

func (RhsBytes) isRhsValue()       {}
func (r RhsBytes) GetType() Type   { return TypeBytes }
func (r RhsBytes) AsLhs() LhsValue { return BytesValue{data: r.Data} }
func (r RhsBytes) String() string  { return BytesValue{data: r.Data}.String() }

// RhsInt is an integer literal.
type RhsInt int32

func (RhsInt) isRhsValue()       {}
func (r RhsInt) GetType() Type   { return TypeInt }
func (r RhsInt) AsLhs() LhsValue { return IntValue(r) }
func (r RhsInt) String() string  { return strconv.FormatInt(int64(r), 10) }

// LexRhsValue consumes one literal of the expected type from the front
// of the input and returns the unconsumed remainder. Bool and Map have
// no literal syntax and are rejected outright.
func LexRhsValue(input string, ty Type) (RhsValue, string, error) {
	switch ty.Kind() {
	case KindIP:
		addr, rest, err := lexIP(input)
		if err != nil {
			return nil, input, err
		}
		return RhsIP{Addr: addr}, rest, nil
	case KindBytes:
		data, rest, err := lexBytes(input)
		if err != nil {
			return nil, input, err
		}
		return RhsBytes{Data: data}, rest, nil
	case KindInt:
		n, rest, err := lexInt(input)
		if err != nil {
			return nil, input, err
		}
		return RhsInt(n), rest, nil
	default:
		return nil, input, fmt.Errorf("type %s has no literal syntax", ty)
	}
}

// IPRange is an inclusive address range. Bare addresses, CIDR blocks
// and explicit lo..hi spans all normalize to this form.
type IPRange struct {
	Lo netip.Addr
	Hi netip.Addr
}

// Contains reports whether addr falls inside the range. Ranges never
// span address families.
func (r IPRange) Contains(addr netip.Addr) bool {
	return addr.Is4() == r.Lo.Is4() && r.Lo.Compare(addr) <= 0 && addr.Compare(r.Hi) <= 0
}

func (r IPRange) String() string {
	if r.Lo == r.Hi {
		return r.Lo.String()
	}
	return fmt.Sprintf("%s..%s", r.Lo, r.Hi)
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Lo int32
	Hi int32
}

// Contains reports whether n falls inside the range.
func (r IntRange) Contains(n int32) bool {
	return r.Lo <= n && n <= r.Hi
}

func (r IntRange) String() string {
	if r.Lo == r.Hi {
		return strconv.FormatInt(int64(r.Lo), 10)
	}
	return fmt.Sprintf("%d..%d", r.Lo, r.Hi)
}

// RhsValues is a typed group of literals parsed from an `in { ... }`
// expression. Membership is range-based for IP and Int (so CIDR blocks
// and spans work) and exact for Bytes. As with RhsValue, Bool and Map
// have no implementor.
type RhsValues interface {
	GetType

	// Contains reports whether a runtime value is a member of the
	// group. A value of a different kind is never a member.
	Contains(v LhsValue) bool

	// Len returns the number of parsed elements.
	Len() int

	String() string

	isRhsValues()
}

// RhsIPs is a group of address ranges.
type RhsIPs []IPRange

func (RhsIPs) isRhsValues()    {}
func (r RhsIPs) GetType() Type { return TypeIP }
func (r RhsIPs) Len() int      { return len(r) }

func (r RhsIPs) Contains(v LhsValue) bool {
	ip, ok := v.(IPValue)
	if !ok {
		return false
	}
	for _, rng := range r {
		if rng.Contains(ip.Addr) {
			return true
		}
	}
	return false
}

func (r RhsIPs) String() string {
	return rhsValuesString(len(r), func(i int) string { return r[i].String() })
}

// RhsBytesList is a group of byte-string literals.
type RhsBytesList [][]byte

func (RhsBytesList) isRhsValues()    {}
func (r RhsBytesList) GetType() Type { return TypeBytes }
func (r RhsBytesList) Len() int      { return len(r) }

func (r RhsBytesList) Contains(v LhsValue) bool {
	b, ok := v.(BytesValue)
	if !ok {
		return false
	}
	for _, item := range r {
		if bytes.Equal(item, b.data) {
			return true
		}
	}
	return false
}

func (r RhsBytesList) String() string {
	return rhsValuesString(len(r), func(i int) string { return BytesValue{data: r[i]}.String() })
}

// RhsInts is a group of integer ranges.
type RhsInts []IntRange

func (RhsInts) isRhsValues()    {}
func (r RhsInts) GetType() Type { return TypeInt }
func (r RhsInts) Len() int      { return len(r) }

func (r RhsInts) Contains(v LhsValue) bool {
	n, ok := v.(IntValue)
	if !ok {
		return false
	}
	for _, rng := range r {
		if rng.Contains(int32(n)) {
			return true
		}
	}
	return false
}

func (r RhsInts) String() string {
	return rhsValuesString(len(r), func(i int) string { return r[i].String() })
}

func rhsValuesString(n int, item func(int) string) string {
	var sb strings.Builder
	sb.WriteString("{")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(item(i))
	}
	sb.WriteString("}")
	return sb.String()
}

// LexRhsValues consumes a brace-delimited group of literals of the
// expected type: `{` followed by whitespace-separated elements up to
// the closing `}`. Reaching end of input before the closing brace is a
// parse failure.
func LexRhsValues(input string, ty Type) (RhsValues, string, error) {
	switch ty.Kind() {
	case KindIP:
		var res RhsIPs
		rest, err := lexValueGroup(input, func(in string) (string, error) {
			rng, rest, err := lexIPRange(in)
			if err == nil {
				res = append(res, rng)
			}
			return rest, err
		})
		if err != nil {
			return nil, input, err
		}
		return res, rest, nil
	case KindBytes:
		var res RhsBytesList
		rest, err := lexValueGroup(input, func(in string) (string, error) {
			data, rest, err := lexBytes(in)
			if err == nil {
				res = append(res, data)
			}
			return rest, err
		})
		if err != nil {
			return nil, input, err
		}
		return res, rest, nil
	case KindInt:
		var res RhsInts
		rest, err := lexValueGroup(input, func(in string) (string, error) {
			rng, rest, err := lexIntRange(in)
			if err == nil {
				res = append(res, rng)
			}
			return rest, err
		})
		if err != nil {
			return nil, input, err
		}
		return res, rest, nil
	default:
		return nil, input, fmt.Errorf("type %s has no literal syntax", ty)
	}
}

// lexValueGroup drives the shared `{ elem elem ... }` loop, calling
// lexItem once per element.
func lexValueGroup(input string, lexItem func(string) (string, error)) (string, error) {
	rest, err := expect(input, "{")
	if err != nil {
		return input, err
	}
	for {
		rest = skipSpace(rest)
		if after, err := expect(rest, "}"); err == nil {
			return after, nil
		}
		if rest == "" {
			return input, fmt.Errorf("missing closing brace in value group")
		}
		rest, err = lexItem(rest)
		if err != nil {
			return input, err
		}
	}
}
