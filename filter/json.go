package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/netip"
	"strconv"
)

// UnmarshalLhsValue decodes a runtime value from its JSON interchange
// form. The kind is inferred from the JSON shape:
//
//   - a boolean becomes a Bool value
//   - an integer becomes an Int value (it must fit in 32 bits)
//   - a string is first tried as an IP address literal and otherwise
//     becomes a Bytes value of the decoded string, with any JSON
//     escape sequences resolved to their underlying bytes
//
// Map values do not round-trip through this form.
func UnmarshalLhsValue(data []byte) (LhsValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode value: %w", err)
	}

	switch v := raw.(type) {
	case bool:
		return Bool(v), nil
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid integer value %s: %w", v, err)
		}
		return Int(int32(n)), nil
	case string:
		if addr, err := netip.ParseAddr(v); err == nil {
			return IP(addr), nil
		}
		return String(v), nil
	default:
		return nil, fmt.Errorf("unsupported interchange value of type %T", raw)
	}
}

// MarshalJSON renders the address literal as a JSON string.
func (r RhsIP) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Addr.String())
}

// MarshalJSON renders the byte-string literal as a JSON string.
func (r RhsBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r.Data))
}

// MarshalJSON renders the integer literal as a JSON number.
func (r RhsInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int32(r))
}

// MarshalJSON renders the group as a JSON array of address strings,
// with non-degenerate ranges in lo..hi or CIDR-expanded form.
func (r RhsIPs) MarshalJSON() ([]byte, error) {
	items := make([]string, len(r))
	for i, rng := range r {
		items[i] = rng.String()
	}
	return json.Marshal(items)
}

// MarshalJSON renders the group as a JSON array of strings.
func (r RhsBytesList) MarshalJSON() ([]byte, error) {
	items := make([]string, len(r))
	for i, b := range r {
		items[i] = string(b)
	}
	return json.Marshal(items)
}

// MarshalJSON renders the group as a JSON array: single integers as
// numbers, spans as lo..hi strings.
func (r RhsInts) MarshalJSON() ([]byte, error) {
	items := make([]interface{}, len(r))
	for i, rng := range r {
		if rng.Lo == rng.Hi {
			items[i] = rng.Lo
		} else {
			items[i] = rng.String()
		}
	}
	return json.Marshal(items)
}
