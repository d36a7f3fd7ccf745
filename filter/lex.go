package filter

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Lexing helpers for literal syntax. Each function consumes a literal
// from the front of the input and returns the unconsumed remainder, so
// the filter parser can chain them while walking an expression.

// expect consumes a fixed prefix.
func expect(input, prefix string) (string, error) {
	if !strings.HasPrefix(input, prefix) {
		return input, fmt.Errorf("expected %q at %q", prefix, truncateInput(input))
	}
	return input[len(prefix):], nil
}

// skipSpace consumes leading whitespace.
func skipSpace(input string) string {
	return strings.TrimLeft(input, " \t\r\n")
}

func truncateInput(input string) string {
	if len(input) > 16 {
		return input[:16] + "..."
	}
	return input
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// lexInt consumes a 32-bit signed integer literal: decimal digits with
// an optional leading minus, or a 0x-prefixed hex form.
func lexInt(input string) (int32, string, error) {
	rest := input
	negative := false
	if strings.HasPrefix(rest, "-") {
		negative = true
		rest = rest[1:]
	}

	base := 10
	if strings.HasPrefix(rest, "0x") || strings.HasPrefix(rest, "0X") {
		base = 16
		rest = rest[2:]
	}

	i := 0
	for i < len(rest) {
		c := rest[i]
		if base == 16 && isHexDigit(c) || base == 10 && isDigit(c) {
			i++
			continue
		}
		break
	}
	if i == 0 {
		return 0, input, fmt.Errorf("expected integer at %q", truncateInput(input))
	}

	digits := rest[:i]
	if negative {
		digits = "-" + digits
	}
	n, err := strconv.ParseInt(digits, base, 32)
	if err != nil {
		return 0, input, fmt.Errorf("invalid integer %q: %w", digits, err)
	}
	return int32(n), rest[i:], nil
}

// lexIntRange consumes an inclusive integer range: either a single
// integer (a degenerate range) or two integers joined by "..".
func lexIntRange(input string) (IntRange, string, error) {
	lo, rest, err := lexInt(input)
	if err != nil {
		return IntRange{}, input, err
	}
	if !strings.HasPrefix(rest, "..") {
		return IntRange{Lo: lo, Hi: lo}, rest, nil
	}
	hi, rest, err := lexInt(rest[2:])
	if err != nil {
		return IntRange{}, input, err
	}
	if hi < lo {
		return IntRange{}, input, fmt.Errorf("invalid integer range %d..%d", lo, hi)
	}
	return IntRange{Lo: lo, Hi: hi}, rest, nil
}

// lexBytes consumes a byte-string literal: a double-quoted string with
// \", \\ and \xHH escapes, or a sequence of hex byte pairs joined by
// ':' or '-' (e.g. de:ad:be:ef).
func lexBytes(input string) ([]byte, string, error) {
	if strings.HasPrefix(input, `"`) {
		return lexQuotedBytes(input)
	}
	return lexHexBytes(input)
}

func lexQuotedBytes(input string) ([]byte, string, error) {
	rest := input[1:] // opening quote
	var out []byte
	for len(rest) > 0 {
		c := rest[0]
		switch c {
		case '"':
			return out, rest[1:], nil
		case '\\':
			if len(rest) < 2 {
				return nil, input, fmt.Errorf("unterminated escape in string literal")
			}
			switch rest[1] {
			case '"', '\\':
				out = append(out, rest[1])
				rest = rest[2:]
			case 'x':
				if len(rest) < 4 || !isHexDigit(rest[2]) || !isHexDigit(rest[3]) {
					return nil, input, fmt.Errorf("invalid \\x escape at %q", truncateInput(rest))
				}
				b, _ := strconv.ParseUint(rest[2:4], 16, 8)
				out = append(out, byte(b))
				rest = rest[4:]
			default:
				return nil, input, fmt.Errorf("unknown escape \\%c in string literal", rest[1])
			}
		default:
			out = append(out, c)
			rest = rest[1:]
		}
	}
	return nil, input, fmt.Errorf("missing closing quote in string literal")
}

func lexHexBytes(input string) ([]byte, string, error) {
	var out []byte
	rest := input
	for {
		if len(rest) < 2 || !isHexDigit(rest[0]) || !isHexDigit(rest[1]) {
			if len(out) == 0 {
				return nil, input, fmt.Errorf("expected byte string at %q", truncateInput(input))
			}
			return nil, input, fmt.Errorf("expected hex byte pair at %q", truncateInput(rest))
		}
		b, _ := strconv.ParseUint(rest[:2], 16, 8)
		out = append(out, byte(b))
		rest = rest[2:]
		if len(rest) > 0 && (rest[0] == ':' || rest[0] == '-') {
			rest = rest[1:]
			continue
		}
		return out, rest, nil
	}
}

// lexIP consumes an IPv4 or IPv6 address literal. A ".." range
// separator ends the literal; a single "." never does.
func lexIP(input string) (netip.Addr, string, error) {
	i := 0
	for i < len(input) {
		c := input[i]
		if c == '.' && i+1 < len(input) && input[i+1] == '.' {
			break
		}
		if isHexDigit(c) || c == '.' || c == ':' {
			i++
			continue
		}
		break
	}
	addr, err := netip.ParseAddr(input[:i])
	if err != nil {
		return netip.Addr{}, input, fmt.Errorf("expected IP address at %q", truncateInput(input))
	}
	return addr, input[i:], nil
}

// lexIPRange consumes an address range: a bare address (a degenerate
// range), CIDR notation (addr/len), or an explicit range (lo..hi).
func lexIPRange(input string) (IPRange, string, error) {
	lo, rest, err := lexIP(input)
	if err != nil {
		return IPRange{}, input, err
	}
	switch {
	case strings.HasPrefix(rest, "/"):
		bits, rest, err := lexCIDRBits(rest[1:])
		if err != nil {
			return IPRange{}, input, err
		}
		prefix, err := lo.Prefix(bits)
		if err != nil {
			return IPRange{}, input, fmt.Errorf("invalid prefix length /%d for %s", bits, lo)
		}
		return rangeFromPrefix(prefix), rest, nil
	case strings.HasPrefix(rest, ".."):
		hi, rest, err := lexIP(rest[2:])
		if err != nil {
			return IPRange{}, input, err
		}
		if lo.Is4() != hi.Is4() || hi.Less(lo) {
			return IPRange{}, input, fmt.Errorf("invalid IP range %s..%s", lo, hi)
		}
		return IPRange{Lo: lo, Hi: hi}, rest, nil
	default:
		return IPRange{Lo: lo, Hi: lo}, rest, nil
	}
}

func lexCIDRBits(input string) (int, string, error) {
	i := 0
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	if i == 0 {
		return 0, input, fmt.Errorf("expected prefix length at %q", truncateInput(input))
	}
	bits, err := strconv.Atoi(input[:i])
	if err != nil {
		return 0, input, err
	}
	return bits, input[i:], nil
}

// rangeFromPrefix expands CIDR notation into an inclusive lo..hi range.
func rangeFromPrefix(prefix netip.Prefix) IPRange {
	lo := prefix.Masked().Addr()
	hiBytes := lo.AsSlice()
	for i := prefix.Bits(); i < len(hiBytes)*8; i++ {
		hiBytes[i/8] |= 1 << (7 - i%8)
	}
	hi, _ := netip.AddrFromSlice(hiBytes)
	return IPRange{Lo: lo, Hi: hi}
}
