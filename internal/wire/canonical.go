package wire

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalField normalizes a field value for storage and comparison.
//
// Values are NFC-normalized so the same logical string always encodes to
// the same bytes, and hex digits are lowercased so "AB" and "ab" compare
// equal. Numeric fields pass through unchanged.
func CanonicalField(v string) string {
	v = norm.NFC.String(v)
	if isHex(v) {
		return strings.ToLower(v)
	}
	return v
}

// CanonicalFields renders a message's set fields as "name=value" pairs in
// schema order, joined by commas. Deterministic, so it is safe to use in
// golden files and error diagnostics.
func CanonicalFields(m *Message) string {
	var b strings.Builder
	first := true
	for _, name := range m.Type.Fields {
		v, ok := m.Fields[name]
		if !ok {
			continue
		}
		if !first {
			b.WriteString(",")
		}
		first = false
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(v)
	}
	return b.String()
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
