package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnconform/lnconform/internal/dummy"
	"github.com/lnconform/lnconform/internal/event"
	"github.com/lnconform/lnconform/internal/keys"
	"github.com/lnconform/lnconform/internal/wire"
)

func TestStash(t *testing.T) {
	s := event.NewStash()

	_, ok := s.Get("channel_id")
	assert.False(t, ok)

	s.Set("channel_id", "aa")
	v, ok := s.Get("channel_id")
	assert.True(t, ok)
	assert.Equal(t, "aa", v)

	// Overwrite: the latest write wins.
	s.Set("channel_id", "bb")
	v, _ = s.Get("channel_id")
	assert.Equal(t, "bb", v)

	s.Wipe()
	assert.Equal(t, 0, s.Len())
	_, ok = s.Get("channel_id")
	assert.False(t, ok)
}

func TestRcvd_MissingKeyIsResolutionError(t *testing.T) {
	d := dummy.New()
	ctx := event.NewContext(wire.Peer(), nil)

	_, err := event.Rcvd("channel_id")(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsResolution(err))
	assert.Contains(t, err.Error(), "channel_id")
}

func TestRcvd_MessageQualifiedForm(t *testing.T) {
	d := dummy.New()
	ctx := event.NewContext(wire.Peer(), nil)
	ctx.Stash.Set("channel_id", "abcd")

	// The qualified spelling addresses the same stash entry as the bare
	// field name.
	v, err := event.Rcvd("funding_signed.channel_id")(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "abcd", v)

	v, err = event.Rcvd("channel_id")(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "abcd", v)

	_, err = event.Rcvd("funding_signed.signature")(ctx, d)
	require.Error(t, err)
	assert.True(t, event.IsResolution(err))
}

func TestContext_ConnTracking(t *testing.T) {
	ctx := event.NewContext(wire.Peer(), nil)

	_, err := ctx.Conn("")
	require.Error(t, err, "no connection established yet")

	c1, err := event.NewConn("02")
	require.NoError(t, err)
	c2, err := event.NewConn("03")
	require.NoError(t, err)
	ctx.AddConn(c1)
	ctx.AddConn(c2)

	// Empty name means the last connection used.
	got, err := ctx.Conn("")
	require.NoError(t, err)
	assert.Same(t, c2, got)

	got, err = ctx.Conn("02")
	require.NoError(t, err)
	assert.Same(t, c1, got)

	// Looking one up makes it current.
	got, err = ctx.Conn("")
	require.NoError(t, err)
	assert.Same(t, c1, got)

	ctx.RemoveConn(c1)
	_, err = ctx.Conn("02")
	require.Error(t, err)
	assert.Len(t, ctx.Conns(), 1)
}

func TestConn_KeyExpansion(t *testing.T) {
	c, err := event.NewConn("03")
	require.NoError(t, err)
	assert.Equal(t, "03", c.Name)
	assert.Len(t, c.PrivKey, 64)

	pub, err := c.PubKey()
	require.NoError(t, err)
	assert.Len(t, pub, 66)

	_, err = event.NewConn("zz")
	require.Error(t, err)
}

func TestKeysetResolvers(t *testing.T) {
	d := dummy.New()
	ctx := event.NewContext(wire.Peer(), nil)

	rev, err := event.RemoteRevocationBasepoint()(ctx, d)
	require.NoError(t, err)
	want, err := d.KeySet().RevocationBasepoint()
	require.NoError(t, err)
	assert.Equal(t, want, rev)

	point, err := event.RemotePerCommitPoint(0)(ctx, d)
	require.NoError(t, err)
	secret, err := event.RemotePerCommitSecret(0)(ctx, d)
	require.NoError(t, err)
	fromSecret, err := keys.Pubkey(secret)
	require.NoError(t, err)
	assert.Equal(t, fromSecret, point)

	fund, err := event.RemoteFundingPubkey()(ctx, d)
	require.NoError(t, err)
	wantFund, err := keys.Pubkey(d.NodeBitcoinKey())
	require.NoError(t, err)
	assert.Equal(t, wantFund, fund)
}

func TestNegotiated(t *testing.T) {
	d := dummy.New()
	ctx := event.NewContext(wire.Peer(), nil)

	both := event.Lit(wire.Bitfield(13))
	neither := event.Lit("")

	v, err := event.Negotiated(both, both, []int{13}, nil)(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	v, err = event.Negotiated(both, neither, []int{13}, nil)(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	v, err = event.Negotiated(both, both, nil, []int{13})(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, "false", v)
}

func TestEnabledIf(t *testing.T) {
	d := dummy.New()
	require.NoError(t, d.Start())
	ctx := event.NewContext(wire.Peer(), nil)

	ran := false
	ev := event.EnabledIf(spy(func() { ran = true }), event.OptionSupported("option_anchors"))

	require.NoError(t, ev.Action(ctx, d))
	assert.False(t, ran, "disabled event must be skipped, not run")

	d.SetOption("option_anchors", "supported")
	require.NoError(t, ev.Action(ctx, d))
	assert.True(t, ran)
}

func TestTryAll_DirectExecutionIsSpecError(t *testing.T) {
	d := dummy.New()
	ctx := event.NewContext(wire.Peer(), nil)

	ta := event.NewTryAll(event.Seq())
	err := ta.Action(ctx, d)
	require.Error(t, err)
	assert.Equal(t, event.CodeSpec, event.CodeOf(err))
}

func TestMsat(t *testing.T) {
	assert.Equal(t, uint64(1000000), event.Msat(1000))
}

func TestErrorRendering(t *testing.T) {
	err := event.NewUnexpectedMsg("ExpectMsg(init)", "init(features=01)", "pong(ignored=)")
	assert.Equal(t,
		"UNEXPECTED_MSG: ExpectMsg(init) (expected init(features=01), received pong(ignored=))",
		err.Error())

	timeout := event.NewTimeoutError("ExpectMsg(init)")
	assert.Contains(t, timeout.Error(), "TIMEOUT")
	assert.True(t, event.IsTimeout(timeout))
	assert.Equal(t, event.Code(""), event.CodeOf(assert.AnError))
}
