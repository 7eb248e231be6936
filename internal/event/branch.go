package event

import (
	"fmt"
	"strings"
)

// TryAll holds alternative sub-sequences, every one of which must be
// exercised. It is the only node that multiplies paths: the engine's
// enumerator substitutes each alternative in turn and never executes a
// TryAll directly.
type TryAll struct {
	Alternatives []*Sequence
}

// NewTryAll builds a TryAll over the given alternatives.
func NewTryAll(alternatives ...*Sequence) *TryAll {
	return &TryAll{Alternatives: alternatives}
}

// Action implements Event. Reaching it at runtime means the sequence was
// executed without enumeration, which is a harness bug.
func (t *TryAll) Action(ctx *Context, r Runner) error {
	return NewSpecError(t.String(), "branch point executed directly; paths must be enumerated first")
}

// String implements Event.
func (t *TryAll) String() string {
	return fmt.Sprintf("TryAll(%d alternatives)", len(t.Alternatives))
}

// OneOf runs exactly one of its alternatives, chosen at runtime by
// whichever one's leading ExpectMsg matches the next inbound message.
// Unlike TryAll it does not multiply enumerated paths.
type OneOf struct {
	Alternatives []*Sequence
}

// NewOneOf builds a OneOf. Every alternative must begin with an
// ExpectMsg; that is what the inbound message is matched against.
func NewOneOf(alternatives ...*Sequence) *OneOf {
	return &OneOf{Alternatives: alternatives}
}

// Action implements Event.
func (o *OneOf) Action(ctx *Context, r Runner) error {
	leads := make([]*ExpectMsg, len(o.Alternatives))
	ignore := make(map[string]bool)
	for i, alt := range o.Alternatives {
		if len(alt.Events) == 0 {
			return NewSpecError(o.String(), "empty alternative")
		}
		lead, ok := alt.Events[0].(*ExpectMsg)
		if !ok {
			return NewSpecError(o.String(),
				fmt.Sprintf("alternative %d does not begin with ExpectMsg", i))
		}
		leads[i] = lead
		for _, name := range lead.ignoreList() {
			ignore[name] = true
		}
	}

	// All leads must agree on the connection they read from.
	conn, err := ctx.Conn(leads[0].ConnName)
	if err != nil {
		return err
	}

	// A type some lead expects must never be swallowed by another
	// lead's ignore list, or that alternative could never win.
	for _, lead := range leads {
		delete(ignore, lead.MsgType)
	}
	ignoreList := make([]string, 0, len(ignore))
	for name := range ignore {
		ignoreList = append(ignoreList, name)
	}

	m, err := readNonIgnored(ctx, r, conn, ignoreList)
	if err != nil {
		return err
	}

	for i, lead := range leads {
		if lead.match(ctx, r, m) != nil {
			continue
		}
		ctx.Logger.Debug("branch selected", "alternative", i, "msg", m.Type.Name)
		lead.stashFields(ctx, m)
		rest := &Sequence{Events: o.Alternatives[i].Events[1:]}
		return rest.Action(ctx, r)
	}

	types := make([]string, len(leads))
	for i, lead := range leads {
		types[i] = lead.MsgType
	}
	return NewUnexpectedMsg(o.String(),
		"one of "+strings.Join(types, "|"), m.String())
}

// String implements Event.
func (o *OneOf) String() string {
	return fmt.Sprintf("OneOf(%d alternatives)", len(o.Alternatives))
}
