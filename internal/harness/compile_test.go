package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lnconform/lnconform/internal/event"
	"github.com/lnconform/lnconform/internal/wire"
)

func compileFile(t *testing.T, name string) *Compiled {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", name))
	require.NoError(t, err)
	c, err := Compile(s, "testdata")
	require.NoError(t, err)
	return c
}

func TestCompileScenario(t *testing.T) {
	c := compileFile(t, "feerate-variants.yaml")

	require.Len(t, c.Events, 5)

	connect, ok := c.Events[0].(*event.Connect)
	require.True(t, ok)
	assert.Equal(t, "03", connect.ConnPrivKey)

	msg, ok := c.Events[1].(*event.Msg)
	require.True(t, ok)
	assert.Equal(t, "init", msg.MsgType)
	assert.Len(t, msg.Fields, 2)

	expect, ok := c.Events[2].(*event.ExpectMsg)
	require.True(t, ok)
	assert.Equal(t, "init", expect.MsgType)
	assert.Nil(t, expect.Ignore, "absent ignore list must stay nil for the default")

	tryAll, ok := c.Events[3].(*event.TryAll)
	require.True(t, ok)
	require.Len(t, tryAll.Alternatives, 2)
	assert.Equal(t, "slow", tryAll.Alternatives[0].Name)
	assert.Len(t, tryAll.Alternatives[0].Events, 2)

	fund, ok := tryAll.Alternatives[0].Events[0].(*event.FundChannel)
	require.True(t, ok)
	assert.Equal(t, uint64(100000), fund.AmountSats)
	assert.Equal(t, uint32(253), fund.FeeratePerKw)

	_, ok = c.Events[4].(*event.Disconnect)
	assert.True(t, ok)

	// No namespace file, so the standard peer namespace applies.
	_, ok = c.Namespace.ByName("init")
	assert.True(t, ok)
}

func TestCompileRcvdPrefix(t *testing.T) {
	s := &Scenario{
		Name:        "rcvd",
		Description: "stash-backed field value",
		Steps: []map[string]any{
			{"msg": map[string]any{
				"type": "funding_created",
				"fields": map[string]any{
					"temporary_channel_id": "rcvd:temporary_channel_id",
					"funding_output_index": 0,
				},
			}},
		},
	}
	c, err := Compile(s, "")
	require.NoError(t, err)

	msg := c.Events[0].(*event.Msg)
	ctx := event.NewContext(wire.Peer(), nil)
	ctx.Stash.Set("temporary_channel_id", "abcd")

	v, err := msg.Fields["temporary_channel_id"](ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "abcd", v)

	// YAML integers become literal strings.
	v, err = msg.Fields["funding_output_index"](ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestCompileRcvdUnresolved(t *testing.T) {
	s := &Scenario{
		Name:        "rcvd-missing",
		Description: "stash miss resolves to an error",
		Steps: []map[string]any{
			{"check_eq": map[string]any{"a": "rcvd:channel_id", "b": "00"}},
		},
	}
	c, err := Compile(s, "")
	require.NoError(t, err)

	check := c.Events[0].(*event.CheckEq)
	ctx := event.NewContext(wire.Peer(), nil)
	_, err = check.A(ctx, nil)
	require.Error(t, err)
	assert.True(t, event.IsResolution(err))
}

func TestCompileNamespaceFile(t *testing.T) {
	s := &Scenario{
		Name:        "odd-messages",
		Description: "extended namespace",
		Namespace:   "extra.cue",
		Steps: []map[string]any{
			{"connect": map[string]any{"privkey": "03"}},
		},
	}
	c, err := Compile(s, "testdata")
	require.NoError(t, err)

	mt, ok := c.Namespace.ByName("odd_probe")
	require.True(t, ok)
	assert.Equal(t, uint16(40021), mt.Number)
}

func TestCompileUnknownStepKind(t *testing.T) {
	s := &Scenario{
		Name:        "bad",
		Description: "unknown step",
		Steps:       []map[string]any{{"teleport": map[string]any{}}},
	}
	_, err := Compile(s, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown step kind "teleport"`)
}

func TestCompileUnknownStepParam(t *testing.T) {
	s := &Scenario{
		Name:        "bad-param",
		Description: "typo in step body",
		Steps: []map[string]any{
			{"connect": map[string]any{"privkey": "03", "privkee": "04"}},
		},
	}
	_, err := Compile(s, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "privkee")
}

func TestCompileTryAllTooFewAlternatives(t *testing.T) {
	s := &Scenario{
		Name:        "lonely",
		Description: "try_all with one alternative",
		Steps: []map[string]any{
			{"try_all": []any{
				map[string]any{"steps": []map[string]any{
					{"connect": map[string]any{"privkey": "03"}},
				}},
			}},
		},
	}
	_, err := Compile(s, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two alternatives")
}

func TestCompileRawMsgBadHex(t *testing.T) {
	s := &Scenario{
		Name:        "raw",
		Description: "non-hex raw bytes",
		Steps: []map[string]any{
			{"raw_msg": map[string]any{"bytes": "zz"}},
		},
	}
	_, err := Compile(s, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bytes must be hex")
}
