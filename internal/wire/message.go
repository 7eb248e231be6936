package wire

import (
	"encoding/binary"
	"fmt"
)

// Message is one peer message: a type plus named field values.
//
// Field values are canonical strings (hex for byte fields, decimal for
// numeric fields), matching how test authors quote them from the BOLT
// documents. A Message may carry any subset of its schema's fields:
// expectation patterns match partially, and constructed messages only
// encode the fields the test set.
type Message struct {
	Type   *MessageType
	Fields map[string]string
}

// maxFieldLen is the largest encodable field value: the wire format
// carries a u16 value length.
const maxFieldLen = 65535

// NewMessage builds a message of the named type with the given fields.
// Every field must be declared by the type's schema, and every value
// must fit the encoding's u16 length prefix.
func NewMessage(ns *Namespace, name string, fields map[string]string) (*Message, error) {
	mt, ok := ns.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown message type %q", name)
	}
	for f := range fields {
		if !mt.HasField(f) {
			return nil, fmt.Errorf("message %q has no field %q", name, f)
		}
	}
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cv := CanonicalField(v)
		if len(cv) > maxFieldLen {
			return nil, fmt.Errorf("message %q field %q: value of %d bytes exceeds the %d-byte wire limit",
				name, k, len(cv), maxFieldLen)
		}
		cp[k] = cv
	}
	return &Message{Type: mt, Fields: cp}, nil
}

// Encode serializes the message:
//
//	u16 type number
//	for each set field, in schema order:
//	  u8  field index into the schema
//	  u16 value length
//	  value bytes (canonical UTF-8)
//
// Unset fields are omitted entirely. Schema-order iteration makes the
// encoding deterministic for a given field set. Values fit the u16
// length prefix; NewMessage enforces the limit.
func (m *Message) Encode() []byte {
	buf := make([]byte, 2, 64)
	binary.BigEndian.PutUint16(buf, m.Type.Number)
	for i, name := range m.Type.Fields {
		v, ok := m.Fields[name]
		if !ok {
			continue
		}
		buf = append(buf, byte(i))
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(v)))
		buf = append(buf, l[:]...)
		buf = append(buf, v...)
	}
	return buf
}

// Decode parses wire bytes back into a Message using the namespace's
// schemas. It is the inverse of Encode.
func Decode(ns *Namespace, b []byte) (*Message, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("decode message: short read (%d bytes)", len(b))
	}
	num := binary.BigEndian.Uint16(b[:2])
	mt, ok := ns.ByNumber(num)
	if !ok {
		return nil, fmt.Errorf("decode message: unknown type number %d", num)
	}
	fields := make(map[string]string)
	rest := b[2:]
	for len(rest) > 0 {
		if len(rest) < 3 {
			return nil, fmt.Errorf("decode %s: truncated field header", mt.Name)
		}
		idx := int(rest[0])
		vlen := int(binary.BigEndian.Uint16(rest[1:3]))
		rest = rest[3:]
		if idx >= len(mt.Fields) {
			return nil, fmt.Errorf("decode %s: field index %d out of range", mt.Name, idx)
		}
		if len(rest) < vlen {
			return nil, fmt.Errorf("decode %s: truncated value for %q", mt.Name, mt.Fields[idx])
		}
		fields[mt.Fields[idx]] = string(rest[:vlen])
		rest = rest[vlen:]
	}
	return &Message{Type: mt, Fields: fields}, nil
}

// Get returns a field value and whether it was set.
func (m *Message) Get(field string) (string, bool) {
	v, ok := m.Fields[field]
	return v, ok
}

// String renders the message for diagnostics, fields in schema order.
func (m *Message) String() string {
	return m.Type.Name + "(" + CanonicalFields(m) + ")"
}
