package event

import (
	"encoding/hex"
	"fmt"

	"github.com/lnconform/lnconform/internal/wire"
)

// Msg constructs a wire message and sends it to the node. Field values
// are resolved against the stash and runner at send time, so fields
// observed earlier in the path (via Rcvd) can parameterize the send.
type Msg struct {
	// ConnName selects the connection; empty means the current one.
	ConnName string

	// MsgType is the message's symbolic name in the namespace.
	MsgType string

	// Fields maps field names to their resolvable values.
	Fields map[string]Resolvable
}

// Action implements Event.
func (m *Msg) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(m.ConnName)
	if err != nil {
		return err
	}

	fields := make(map[string]string, len(m.Fields))
	for name, res := range m.Fields {
		v, err := res(ctx, r)
		if err != nil {
			return err
		}
		fields[name] = v
	}

	msg, err := wire.NewMessage(ctx.Namespace, m.MsgType, fields)
	if err != nil {
		return NewSpecError(m.String(), err.Error())
	}

	ctx.Logger.Debug("sending message", "conn", conn.Name, "msg", msg.String())
	return r.SendMessage(conn, msg.Encode())
}

// String implements Event.
func (m *Msg) String() string {
	return fmt.Sprintf("Msg(%s)", m.MsgType)
}

// RawMsg sends raw bytes with no construction or validation, for tests
// that deliberately send malformed or unknown messages.
type RawMsg struct {
	ConnName string
	Bytes    []byte
}

// Action implements Event.
func (m *RawMsg) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(m.ConnName)
	if err != nil {
		return err
	}
	ctx.Logger.Debug("sending raw message", "conn", conn.Name, "bytes", hex.EncodeToString(m.Bytes))
	return r.SendMessage(conn, m.Bytes)
}

// String implements Event.
func (m *RawMsg) String() string {
	return fmt.Sprintf("RawMsg(%d bytes)", len(m.Bytes))
}
