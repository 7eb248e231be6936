package wire

import (
	"encoding/hex"
	"fmt"
)

// Feature bitfields are hex strings in BOLT byte order: bit 0 is the least
// significant bit of the final byte.

// Bitfield returns the hex encoding of a bitfield with the given bits set.
func Bitfield(bits ...int) string {
	maxBit := 0
	for _, b := range bits {
		if b > maxBit {
			maxBit = b
		}
	}
	buf := make([]byte, maxBit/8+1)
	for _, b := range bits {
		buf[len(buf)-1-b/8] |= 1 << (uint(b) % 8)
	}
	return hex.EncodeToString(buf)
}

// HasBit reports whether the given bit is set in a hex bitfield.
func HasBit(field string, bit int) (bool, error) {
	buf, err := hex.DecodeString(field)
	if err != nil {
		return false, fmt.Errorf("bad bitfield %q: %w", field, err)
	}
	if bit/8 >= len(buf) {
		return false, nil
	}
	return buf[len(buf)-1-bit/8]&(1<<(uint(bit)%8)) != 0, nil
}

// BitfieldLen returns the number of bits a hex bitfield can address.
func BitfieldLen(field string) int {
	return hex.DecodedLen(len(field)) * 8
}
