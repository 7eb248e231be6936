package event_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnconform/lnconform/internal/dummy"
	"github.com/lnconform/lnconform/internal/event"
	"github.com/lnconform/lnconform/internal/wire"
)

func encode(t *testing.T, name string, fields map[string]string) []byte {
	t.Helper()
	m, err := wire.NewMessage(wire.Peer(), name, fields)
	require.NoError(t, err)
	return m.Encode()
}

// connect starts the runner and opens a connection, returning a fresh
// per-path context.
func connect(t *testing.T, d *dummy.Runner, key string) *event.Context {
	t.Helper()
	require.NoError(t, d.Start())
	ctx := event.NewContext(wire.Peer(), nil)
	c := &event.Connect{ConnPrivKey: key}
	require.NoError(t, c.Action(ctx, d))
	return ctx
}

func TestExpectMsg_EmptyPatternIsWildcard(t *testing.T) {
	d := dummy.New()
	d.Script("03", encode(t, "init", map[string]string{"features": "2000", "globalfeatures": ""}))
	ctx := connect(t, d, "03")

	e := &event.ExpectMsg{MsgType: "init"}
	require.NoError(t, e.Action(ctx, d))

	// Every received field is stashed under its own name.
	v, ok := ctx.Stash.Get("features")
	assert.True(t, ok)
	assert.Equal(t, "2000", v)
}

func TestExpectMsg_WrongTypeFails(t *testing.T) {
	d := dummy.New()
	d.Script("03", encode(t, "pong", map[string]string{"ignored": ""}))
	ctx := connect(t, d, "03")

	e := &event.ExpectMsg{MsgType: "init"}
	err := e.Action(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsUnexpectedMsg(err))
	assert.Contains(t, err.Error(), "pong")
}

func TestExpectMsg_IgnoredTypesSkipped(t *testing.T) {
	d := dummy.New()
	d.Script("03",
		encode(t, "ping", map[string]string{"num_pong_bytes": "1"}),
		encode(t, "gossip_timestamp_filter", map[string]string{"first_timestamp": "0"}),
		encode(t, "init", nil),
	)
	ctx := connect(t, d, "03")

	e := &event.ExpectMsg{MsgType: "init"}
	assert.NoError(t, e.Action(ctx, d))
}

func TestExpectMsg_CustomIgnoreList(t *testing.T) {
	// With an explicit empty ignore-list, a ping is no longer transparent.
	d := dummy.New()
	d.Script("03", encode(t, "ping", map[string]string{"num_pong_bytes": "1"}))
	ctx := connect(t, d, "03")

	e := &event.ExpectMsg{MsgType: "init", Ignore: []string{}}
	err := e.Action(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsUnexpectedMsg(err))
}

func TestExpectMsg_IfMatchPredicate(t *testing.T) {
	d := dummy.New()
	script := func() {
		d.Script("03", encode(t, "init", map[string]string{"features": "2000"}))
	}

	requireBit := func(bit int) func(*event.Context, *wire.Message) error {
		return func(_ *event.Context, m *wire.Message) error {
			f, _ := m.Get("features")
			set, err := wire.HasBit(f, bit)
			if err != nil {
				return err
			}
			if !set {
				return fmt.Errorf("feature bit %d not set", bit)
			}
			return nil
		}
	}

	script()
	ctx := connect(t, d, "03")
	e := &event.ExpectMsg{MsgType: "init", IfMatch: requireBit(13)}
	assert.NoError(t, e.Action(ctx, d))

	script()
	ctx = connect(t, d, "03")
	e = &event.ExpectMsg{MsgType: "init", IfMatch: requireBit(12)}
	err := e.Action(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsUnexpectedMsg(err))
	assert.Contains(t, err.Error(), "feature bit 12")
}

func TestExpectMsg_PatternFieldAbsentInReceived(t *testing.T) {
	d := dummy.New()
	d.Script("03", encode(t, "error", map[string]string{"channel_id": "aa"}))
	ctx := connect(t, d, "03")

	e := &event.ExpectMsg{
		MsgType: "error",
		Fields:  event.LitFields(map[string]string{"data": "00"}),
	}
	err := e.Action(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsUnexpectedMsg(err))
}

func TestExpectMsg_UnknownPatternField(t *testing.T) {
	d := dummy.New()
	d.Script("03", encode(t, "error", map[string]string{"channel_id": "aa"}))
	ctx := connect(t, d, "03")

	e := &event.ExpectMsg{
		MsgType: "error",
		Fields:  event.LitFields(map[string]string{"bogus": "00"}),
	}
	err := e.Action(ctx, d)
	require.Error(t, err)
	assert.Equal(t, event.CodeSpec, event.CodeOf(err))
}

func TestExpectMsg_LateBoundPatternValue(t *testing.T) {
	// The pattern itself can reference earlier stashed fields.
	d := dummy.New()
	d.Script("03",
		encode(t, "funding_signed", map[string]string{"channel_id": "abcd"}),
		encode(t, "funding_locked", map[string]string{"channel_id": "abcd"}),
	)
	ctx := connect(t, d, "03")

	first := &event.ExpectMsg{MsgType: "funding_signed"}
	require.NoError(t, first.Action(ctx, d))

	second := &event.ExpectMsg{
		MsgType: "funding_locked",
		Fields:  map[string]event.Resolvable{"channel_id": event.Rcvd("channel_id")},
	}
	assert.NoError(t, second.Action(ctx, d))
}

func TestOneOf_SelectsMatchingAlternative(t *testing.T) {
	d := dummy.New()
	d.Script("03",
		encode(t, "accept_channel", map[string]string{"temporary_channel_id": "aa"}),
		encode(t, "funding_signed", map[string]string{"channel_id": "bb"}),
	)
	ctx := connect(t, d, "03")

	var chose string
	mark := func(name string) event.Event {
		return spy(func() { chose = name })
	}

	o := event.NewOneOf(
		event.Seq(&event.ExpectMsg{MsgType: "error"}, mark("error")),
		event.Seq(&event.ExpectMsg{MsgType: "accept_channel"}, mark("accept"),
			&event.ExpectMsg{MsgType: "funding_signed"}),
	)
	require.NoError(t, o.Action(ctx, d))
	assert.Equal(t, "accept", chose)

	// The chosen alternative's lead stashed its fields.
	v, ok := ctx.Stash.Get("temporary_channel_id")
	assert.True(t, ok)
	assert.Equal(t, "aa", v)
}

func TestOneOf_NoAlternativeMatches(t *testing.T) {
	d := dummy.New()
	d.Script("03", encode(t, "shutdown", map[string]string{"channel_id": "aa"}))
	ctx := connect(t, d, "03")

	o := event.NewOneOf(
		event.Seq(&event.ExpectMsg{MsgType: "error"}),
		event.Seq(&event.ExpectMsg{MsgType: "accept_channel"}),
	)
	err := o.Action(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsUnexpectedMsg(err))
	assert.Contains(t, err.Error(), "error|accept_channel")
	assert.Contains(t, err.Error(), "shutdown")
}

func TestOneOf_ExpectedTypeOverridesIgnore(t *testing.T) {
	// ping is on the default ignore list, but an alternative that
	// expects it must still be selectable when another alternative
	// would have skipped it.
	d := dummy.New()
	d.Script("03", encode(t, "ping", map[string]string{"num_pong_bytes": "1"}))
	ctx := connect(t, d, "03")

	var chose string
	o := event.NewOneOf(
		event.Seq(&event.ExpectMsg{MsgType: "error"},
			spy(func() { chose = "error" })),
		event.Seq(&event.ExpectMsg{MsgType: "ping"},
			spy(func() { chose = "ping" })),
	)
	require.NoError(t, o.Action(ctx, d))
	assert.Equal(t, "ping", chose)
}

func TestOneOf_RejectsNonExpectLead(t *testing.T) {
	d := dummy.New()
	ctx := connect(t, d, "03")

	o := event.NewOneOf(event.Seq(&event.Block{NumBlocks: 1}))
	err := o.Action(ctx, d)
	require.Error(t, err)
	assert.Equal(t, event.CodeSpec, event.CodeOf(err))
}

func TestMustNot_ViolationCaughtAtDrain(t *testing.T) {
	d := dummy.New()
	d.Script("03", encode(t, "shutdown", map[string]string{"channel_id": "aa"}))
	ctx := connect(t, d, "03")

	mn := &event.MustNotMsg{MsgType: "shutdown"}
	require.NoError(t, mn.Action(ctx, d))

	disc := &event.Disconnect{}
	err := disc.Action(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsUnexpectedMsg(err))
	assert.Contains(t, err.Error(), "shutdown")
}

func TestFinalDrain_NonErrorMessagesHarmless(t *testing.T) {
	d := dummy.New()
	d.Script("03",
		encode(t, "gossip_timestamp_filter", nil),
		encode(t, "pong", nil),
	)
	ctx := connect(t, d, "03")

	disc := &event.Disconnect{}
	assert.NoError(t, disc.Action(ctx, d))
}

func TestFinalDrain_PendingDiagnosticFails(t *testing.T) {
	d := dummy.New()
	ctx := connect(t, d, "03")
	d.FailConn("03", "internal error: bad funding_signed")

	disc := &event.Disconnect{}
	err := disc.Action(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsUnexpectedError(err))
	assert.Contains(t, err.Error(), "bad funding_signed")
}

func TestCheckEq(t *testing.T) {
	d := dummy.New()
	ctx := connect(t, d, "03")
	ctx.Stash.Set("channel_id", "AB12")

	eq := &event.CheckEq{A: event.Rcvd("channel_id"), B: event.Lit("ab12")}
	assert.NoError(t, eq.Action(ctx, d), "comparison is canonical, not byte-exact")

	ne := &event.CheckEq{A: event.Rcvd("channel_id"), B: event.Lit("cd34"), Desc: "channel_id"}
	err := ne.Action(ctx, d)
	require.Error(t, err)
	assert.Equal(t, event.CodeCheckFailed, event.CodeOf(err))
	assert.Contains(t, err.Error(), "channel_id")
}

// spyEvent is a minimal event for observing execution order.
type spyEvent struct{ fn func() }

func spy(fn func()) event.Event { return &spyEvent{fn: fn} }

func (s *spyEvent) String() string { return "spy" }

func (s *spyEvent) Action(*event.Context, event.Runner) error {
	s.fn()
	return nil
}
