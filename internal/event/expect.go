package event

import (
	"fmt"
	"strings"

	"github.com/lnconform/lnconform/internal/wire"
)

// DefaultIgnore returns the message types skipped while waiting for an
// expected message: the asynchronous queries a node may emit at any time,
// which tests should not be coupled to.
func DefaultIgnore() []string {
	return []string{
		"gossip_timestamp_filter",
		"query_channel_range",
		"query_short_channel_ids",
		"reply_channel_range",
		"ping",
	}
}

// ExpectMsg waits for the next non-ignored inbound message and matches it
// against a partial pattern: the type must match exactly, pattern fields
// must match field-by-field, and fields absent from the pattern are
// wildcards. On a match every received field is stashed under its own
// name, making it available to later sends via Rcvd.
type ExpectMsg struct {
	// ConnName selects the connection; empty means the current one.
	ConnName string

	// MsgType is the required message type.
	MsgType string

	// Fields is the partial pattern; values resolve at match time.
	Fields map[string]Resolvable

	// IfMatch, if set, runs fine-grained checks (a specific bit set, a
	// value in range) after the structural match succeeds. A non-nil
	// return rejects the message.
	IfMatch func(ctx *Context, m *wire.Message) error

	// Ignore overrides the ignore-list; nil means DefaultIgnore.
	Ignore []string
}

// Action implements Event.
func (e *ExpectMsg) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(e.ConnName)
	if err != nil {
		return err
	}
	m, err := readNonIgnored(ctx, r, conn, e.ignoreList())
	if err != nil {
		return err
	}
	if err := e.match(ctx, r, m); err != nil {
		return err
	}
	e.stashFields(ctx, m)
	return nil
}

// match checks the message against the pattern without stashing. OneOf
// uses it to probe which alternative an inbound message selects.
func (e *ExpectMsg) match(ctx *Context, r Runner, m *wire.Message) error {
	if m.Type.Name != e.MsgType {
		return NewUnexpectedMsg(e.String(), e.pattern(ctx, r), m.String())
	}
	for name := range e.Fields {
		if !m.Type.HasField(name) {
			return NewSpecError(e.String(),
				fmt.Sprintf("message %q has no field %q", e.MsgType, name))
		}
	}
	// Field order follows the schema so diagnostics are deterministic.
	for _, name := range m.Type.Fields {
		res, ok := e.Fields[name]
		if !ok {
			continue
		}
		want, err := res(ctx, r)
		if err != nil {
			return err
		}
		want = wire.CanonicalField(want)
		got, ok := m.Get(name)
		if !ok || got != want {
			return NewUnexpectedMsg(e.String(),
				fmt.Sprintf("%s=%s", name, want), m.String())
		}
	}
	if e.IfMatch != nil {
		if err := e.IfMatch(ctx, m); err != nil {
			return NewUnexpectedMsg(e.String(),
				"if_match: "+err.Error(), m.String())
		}
	}
	return nil
}

// stashFields records every received field under its own name.
func (e *ExpectMsg) stashFields(ctx *Context, m *wire.Message) {
	for name, v := range m.Fields {
		ctx.Stash.Set(name, v)
	}
}

func (e *ExpectMsg) ignoreList() []string {
	if e.Ignore == nil {
		return DefaultIgnore()
	}
	return e.Ignore
}

// pattern renders the authored expectation for diagnostics.
func (e *ExpectMsg) pattern(ctx *Context, r Runner) string {
	parts := make([]string, 0, len(e.Fields))
	mt, ok := ctx.Namespace.ByName(e.MsgType)
	if ok {
		for _, name := range mt.Fields {
			res, set := e.Fields[name]
			if !set {
				continue
			}
			v, err := res(ctx, r)
			if err != nil {
				v = "<unresolved>"
			}
			parts = append(parts, name+"="+wire.CanonicalField(v))
		}
	}
	return e.MsgType + "(" + strings.Join(parts, ",") + ")"
}

// String implements Event.
func (e *ExpectMsg) String() string {
	return fmt.Sprintf("ExpectMsg(%s)", e.MsgType)
}

// readNonIgnored reads inbound messages, silently discarding ignored
// types, until a non-ignored one arrives or the receive times out.
func readNonIgnored(ctx *Context, r Runner, conn *Conn, ignore []string) (*wire.Message, error) {
	for {
		b, err := r.ReceiveMessage(conn)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, NewTimeoutError("ReceiveMessage(" + conn.Name + ")")
		}
		m, err := wire.Decode(ctx.Namespace, b)
		if err != nil {
			return nil, NewSpecError("ReceiveMessage("+conn.Name+")", err.Error())
		}
		if contains(ignore, m.Type.Name) {
			ctx.Logger.Debug("ignoring message", "conn", conn.Name, "msg", m.Type.Name)
			continue
		}
		return m, nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// MustNotMsg registers a forbidden pattern on the connection: if a
// matching message shows up before or during the final drain, the path
// fails. The check itself happens at disconnect time.
type MustNotMsg struct {
	ConnName string
	MsgType  string
	Fields   map[string]Resolvable
}

// Action implements Event.
func (e *MustNotMsg) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(e.ConnName)
	if err != nil {
		return err
	}
	conn.MustNot = append(conn.MustNot, e)
	return nil
}

// Matches reports whether a drained message violates this pattern.
func (e *MustNotMsg) Matches(ctx *Context, r Runner, m *wire.Message) bool {
	if m.Type.Name != e.MsgType {
		return false
	}
	for name, res := range e.Fields {
		want, err := res(ctx, r)
		if err != nil {
			return false
		}
		got, ok := m.Get(name)
		if !ok || got != wire.CanonicalField(want) {
			return false
		}
	}
	return true
}

// String implements Event.
func (e *MustNotMsg) String() string {
	return fmt.Sprintf("MustNotMsg(%s)", e.MsgType)
}

// CheckEq compares two resolvable values at action time, e.g. a stashed
// channel_id against a precomputed one.
type CheckEq struct {
	A, B Resolvable
	Desc string
}

// Action implements Event.
func (e *CheckEq) Action(ctx *Context, r Runner) error {
	a, err := e.A(ctx, r)
	if err != nil {
		return err
	}
	b, err := e.B(ctx, r)
	if err != nil {
		return err
	}
	if wire.CanonicalField(a) != wire.CanonicalField(b) {
		return NewCheckFailed(e.String(), a, b)
	}
	return nil
}

// String implements Event.
func (e *CheckEq) String() string {
	if e.Desc != "" {
		return fmt.Sprintf("CheckEq(%s)", e.Desc)
	}
	return "CheckEq"
}
