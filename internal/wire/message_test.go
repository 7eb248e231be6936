package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_UnknownType(t *testing.T) {
	ns := Peer()

	_, err := NewMessage(ns, "no_such_message", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown message type")
}

func TestNewMessage_UnknownField(t *testing.T) {
	ns := Peer()

	_, err := NewMessage(ns, "init", map[string]string{"bogus": "00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no field "bogus"`)
}

func TestNewMessage_ValueTooLong(t *testing.T) {
	ns := Peer()

	// One byte past the u16 length prefix. Accepting it would encode a
	// wrapped length and desynchronize the stream.
	long := make([]byte, maxFieldLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err := NewMessage(ns, "error", map[string]string{"data": string(long)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the 65535-byte wire limit")

	// The boundary itself is fine.
	m, err := NewMessage(ns, "error", map[string]string{"data": string(long[:maxFieldLen])})
	require.NoError(t, err)

	got, err := Decode(ns, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, m.Fields, got.Fields)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	ns := Peer()

	m, err := NewMessage(ns, "open_channel", map[string]string{
		"funding_satoshis": "1000000",
		"channel_flags":    "01",
	})
	require.NoError(t, err)

	got, err := Decode(ns, m.Encode())
	require.NoError(t, err)
	assert.Equal(t, "open_channel", got.Type.Name)
	assert.Equal(t, m.Fields, got.Fields)
}

func TestEncode_PartialFieldsOmitted(t *testing.T) {
	ns := Peer()

	m, err := NewMessage(ns, "init", map[string]string{"features": ""})
	require.NoError(t, err)

	got, err := Decode(ns, m.Encode())
	require.NoError(t, err)

	_, ok := got.Get("globalfeatures")
	assert.False(t, ok, "unset field must not round-trip")
	v, ok := got.Get("features")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestDecode_UnknownTypeNumber(t *testing.T) {
	ns := Peer()

	_, err := Decode(ns, []byte{0xff, 0xff})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type number")
}

func TestDecode_Truncated(t *testing.T) {
	ns := Peer()

	_, err := Decode(ns, []byte{0x00})
	require.Error(t, err)

	// Valid type, mangled field header.
	_, err = Decode(ns, []byte{0x00, 0x10, 0x00})
	require.Error(t, err)
}

func TestCanonicalField_HexLowercased(t *testing.T) {
	ns := Peer()

	m, err := NewMessage(ns, "error", map[string]string{"channel_id": "AB12CD"})
	require.NoError(t, err)

	v, _ := m.Get("channel_id")
	assert.Equal(t, "ab12cd", v)
}

func TestCanonicalFields_SchemaOrder(t *testing.T) {
	ns := Peer()

	m, err := NewMessage(ns, "error", map[string]string{
		"data":       "deadbeef",
		"channel_id": "0011",
	})
	require.NoError(t, err)

	assert.Equal(t, "channel_id=0011,data=deadbeef", CanonicalFields(m))
	assert.Equal(t, "error(channel_id=0011,data=deadbeef)", m.String())
}

func TestNamespace_RegisterConflicts(t *testing.T) {
	ns := NewNamespace()
	require.NoError(t, ns.Register(MessageType{Name: "a", Number: 1}))

	err := ns.Register(MessageType{Name: "a", Number: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name already registered")

	err = ns.Register(MessageType{Name: "b", Number: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already used")
}

func TestBitfield(t *testing.T) {
	// BOLT 9: bit 13 (option_static_remotekey) lands in the second byte.
	assert.Equal(t, "2000", Bitfield(13))
	assert.Equal(t, "01", Bitfield(0))

	set, err := HasBit("2000", 13)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = HasBit("2000", 12)
	require.NoError(t, err)
	assert.False(t, set)

	// Bits past the end are simply absent.
	set, err = HasBit("01", 63)
	require.NoError(t, err)
	assert.False(t, set)

	assert.Equal(t, 16, BitfieldLen("2000"))
}
