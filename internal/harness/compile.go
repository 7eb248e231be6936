package harness

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/lnconform/lnconform/internal/compiler"
	"github.com/lnconform/lnconform/internal/event"
	"github.com/lnconform/lnconform/internal/wire"
)

// Compiled is a scenario lowered to engine input.
type Compiled struct {
	Name      string
	Events    []event.Event
	Namespace *wire.Namespace
}

// Compile lowers a loaded scenario into events and its message
// namespace. baseDir is the directory the scenario file was loaded
// from; the namespace file path resolves relative to it.
func Compile(s *Scenario, baseDir string) (*Compiled, error) {
	ns := wire.Peer()
	if s.Namespace != "" {
		path := s.Namespace
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		var err error
		ns, err = compiler.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}

	events, err := compileSteps(s.Steps)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	return &Compiled{Name: s.Name, Events: events, Namespace: ns}, nil
}

// Step parameter shapes. Decoded from the generic YAML maps with strict
// unused-key checking, so a typo in a step body fails the compile
// instead of silently dropping the field.

type connectStep struct {
	Privkey string `mapstructure:"privkey"`
}

type disconnectStep struct {
	Conn string `mapstructure:"conn"`
}

type msgStep struct {
	Conn   string            `mapstructure:"conn"`
	Type   string            `mapstructure:"type"`
	Fields map[string]string `mapstructure:"fields"`
}

type rawMsgStep struct {
	Conn  string `mapstructure:"conn"`
	Bytes string `mapstructure:"bytes"`
}

type expectMsgStep struct {
	Conn   string            `mapstructure:"conn"`
	Type   string            `mapstructure:"type"`
	Fields map[string]string `mapstructure:"fields"`
	Ignore []string          `mapstructure:"ignore"`
}

type mustNotMsgStep struct {
	Conn   string            `mapstructure:"conn"`
	Type   string            `mapstructure:"type"`
	Fields map[string]string `mapstructure:"fields"`
}

type expectErrorStep struct {
	Conn string `mapstructure:"conn"`
}

type checkEqStep struct {
	A    string `mapstructure:"a"`
	B    string `mapstructure:"b"`
	Desc string `mapstructure:"desc"`
}

type blockStep struct {
	Count int      `mapstructure:"count"`
	Txs   []string `mapstructure:"txs"`
}

type trimBlocksStep struct {
	Height uint64 `mapstructure:"height"`
}

type expectTxStep struct {
	Txid string `mapstructure:"txid"`
}

type fundChannelStep struct {
	Conn         string `mapstructure:"conn"`
	AmountSats   uint64 `mapstructure:"amount_sats"`
	FeeratePerKw uint32 `mapstructure:"feerate_per_kw"`
	ExpectFail   bool   `mapstructure:"expect_fail"`
}

type initRBFStep struct {
	Conn         string `mapstructure:"conn"`
	ChannelID    string `mapstructure:"channel_id"`
	AmountSats   uint64 `mapstructure:"amount_sats"`
	UtxoTxid     string `mapstructure:"utxo_txid"`
	UtxoOutnum   uint32 `mapstructure:"utxo_outnum"`
	FeeratePerKw uint32 `mapstructure:"feerate_per_kw"`
}

type invoiceStep struct {
	AmountMsat uint64 `mapstructure:"amount_msat"`
	Preimage   string `mapstructure:"preimage"`
}

type addHTLCStep struct {
	Conn       string `mapstructure:"conn"`
	AmountMsat uint64 `mapstructure:"amount_msat"`
	Preimage   string `mapstructure:"preimage"`
}

type alternativeStep struct {
	Name  string           `mapstructure:"name"`
	Steps []map[string]any `mapstructure:"steps"`
}

func compileSteps(steps []map[string]any) ([]event.Event, error) {
	var events []event.Event
	for i, step := range steps {
		if len(step) != 1 {
			return nil, fmt.Errorf("steps[%d]: each step must be a single-key map, got %d keys", i, len(step))
		}
		for kind, body := range step {
			ev, err := compileStep(kind, body)
			if err != nil {
				return nil, fmt.Errorf("steps[%d] %s: %w", i, kind, err)
			}
			events = append(events, ev)
		}
	}
	return events, nil
}

func compileStep(kind string, body any) (event.Event, error) {
	switch kind {
	case "connect":
		var p connectStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		if p.Privkey == "" {
			return nil, fmt.Errorf("privkey is required")
		}
		return &event.Connect{ConnPrivKey: p.Privkey}, nil

	case "disconnect":
		var p disconnectStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		return &event.Disconnect{ConnName: p.Conn}, nil

	case "msg":
		var p msgStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		if p.Type == "" {
			return nil, fmt.Errorf("type is required")
		}
		return &event.Msg{ConnName: p.Conn, MsgType: p.Type, Fields: resolveFields(p.Fields)}, nil

	case "raw_msg":
		var p rawMsgStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		raw, err := hex.DecodeString(p.Bytes)
		if err != nil {
			return nil, fmt.Errorf("bytes must be hex: %w", err)
		}
		return &event.RawMsg{ConnName: p.Conn, Bytes: raw}, nil

	case "expect_msg":
		var p expectMsgStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		if p.Type == "" {
			return nil, fmt.Errorf("type is required")
		}
		return &event.ExpectMsg{
			ConnName: p.Conn,
			MsgType:  p.Type,
			Fields:   resolveFields(p.Fields),
			Ignore:   p.Ignore,
		}, nil

	case "must_not_msg":
		var p mustNotMsgStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		if p.Type == "" {
			return nil, fmt.Errorf("type is required")
		}
		return &event.MustNotMsg{ConnName: p.Conn, MsgType: p.Type, Fields: resolveFields(p.Fields)}, nil

	case "expect_error":
		var p expectErrorStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		return &event.ExpectError{ConnName: p.Conn}, nil

	case "check_eq":
		var p checkEqStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		return &event.CheckEq{A: resolveValue(p.A), B: resolveValue(p.B), Desc: p.Desc}, nil

	case "block":
		var p blockStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		if p.Count <= 0 {
			p.Count = 1
		}
		return &event.Block{NumBlocks: p.Count, Txs: p.Txs}, nil

	case "trim_blocks":
		var p trimBlocksStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		return &event.TrimBlocks{Height: p.Height}, nil

	case "expect_tx":
		var p expectTxStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		if p.Txid == "" {
			return nil, fmt.Errorf("txid is required")
		}
		return &event.ExpectTx{TxID: resolveValue(p.Txid)}, nil

	case "fund_channel":
		var p fundChannelStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		return &event.FundChannel{
			ConnName:     p.Conn,
			AmountSats:   p.AmountSats,
			FeeratePerKw: p.FeeratePerKw,
			ExpectFail:   p.ExpectFail,
		}, nil

	case "init_rbf":
		var p initRBFStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		if p.ChannelID == "" {
			return nil, fmt.Errorf("channel_id is required")
		}
		return &event.InitRBF{
			ConnName:     p.Conn,
			ChannelID:    resolveValue(p.ChannelID),
			AmountSats:   p.AmountSats,
			UtxoTxID:     p.UtxoTxid,
			UtxoOutnum:   p.UtxoOutnum,
			FeeratePerKw: p.FeeratePerKw,
		}, nil

	case "invoice":
		var p invoiceStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		return &event.Invoice{AmountMsat: p.AmountMsat, Preimage: p.Preimage}, nil

	case "add_htlc":
		var p addHTLCStep
		if err := decodeStep(body, &p); err != nil {
			return nil, err
		}
		return &event.AddHTLC{ConnName: p.Conn, AmountMsat: p.AmountMsat, Preimage: p.Preimage}, nil

	case "dual_fund_accept":
		return &event.DualFundAccept{}, nil

	case "try_all":
		alts, err := compileAlternatives(body)
		if err != nil {
			return nil, err
		}
		return event.NewTryAll(alts...), nil

	case "one_of":
		alts, err := compileAlternatives(body)
		if err != nil {
			return nil, err
		}
		return event.NewOneOf(alts...), nil

	default:
		return nil, fmt.Errorf("unknown step kind %q", kind)
	}
}

func compileAlternatives(body any) ([]*event.Sequence, error) {
	var raw []alternativeStep
	if err := decodeStep(body, &raw); err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("at least two alternatives are required, got %d", len(raw))
	}

	alts := make([]*event.Sequence, 0, len(raw))
	for i, alt := range raw {
		events, err := compileSteps(alt.Steps)
		if err != nil {
			return nil, fmt.Errorf("alternative %d: %w", i, err)
		}
		if len(events) == 0 {
			return nil, fmt.Errorf("alternative %d: steps list is empty", i)
		}
		seq := event.Seq(events...)
		seq.Name = alt.Name
		alts = append(alts, seq)
	}
	return alts, nil
}

// decodeStep decodes a generic YAML step body into a typed parameter
// struct. Weak typing lets YAML integers serve as field value strings;
// unused keys are rejected.
func decodeStep(body any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(body)
}

// resolveFields converts YAML field values into resolvables.
func resolveFields(fields map[string]string) map[string]event.Resolvable {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]event.Resolvable, len(fields))
	for name, v := range fields {
		out[name] = resolveValue(v)
	}
	return out
}

// resolveValue interprets the "rcvd:" prefix as a stash lookup; anything
// else is a literal.
func resolveValue(v string) event.Resolvable {
	if field, ok := strings.CutPrefix(v, "rcvd:"); ok {
		return event.Rcvd(field)
	}
	return event.Lit(v)
}
