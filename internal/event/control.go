package event

import (
	"fmt"

	"github.com/lnconform/lnconform/internal/wire"
)

// Connect opens a peer connection using the given private key as this
// side's identity. Distinct keys are distinct simulated peers.
type Connect struct {
	ConnPrivKey string
}

// Action implements Event.
func (e *Connect) Action(ctx *Context, r Runner) error {
	conn, err := NewConn(e.ConnPrivKey)
	if err != nil {
		return NewSpecError(e.String(), err.Error())
	}
	if err := r.Connect(conn); err != nil {
		return err
	}
	ctx.AddConn(conn)
	ctx.Logger.Debug("connected", "conn", conn.Name)
	return nil
}

// String implements Event.
func (e *Connect) String() string {
	return fmt.Sprintf("Connect(%s)", e.ConnPrivKey)
}

// Disconnect closes the connection and runs the final-error drain: any
// leftover error message (or MustNotMsg violation) among the remaining
// inbound messages fails the path unless an error was expected.
type Disconnect struct {
	ConnName string
}

// Action implements Event.
func (e *Disconnect) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(e.ConnName)
	if err != nil {
		return err
	}
	if err := r.Disconnect(conn); err != nil {
		return err
	}
	err = FinalDrain(ctx, r, conn)
	ctx.RemoveConn(conn)
	return err
}

// String implements Event.
func (e *Disconnect) String() string { return "Disconnect" }

// FinalDrain reads every message still pending on a disconnected
// connection, failing on an unexpected error message or a MustNotMsg
// violation, then checks the runner's own pending error diagnostic.
//
// This lives in the core so adapters never duplicate the policy; the
// executor also runs it over connections left open at end of path.
func FinalDrain(ctx *Context, r Runner, conn *Conn) error {
	for {
		b, err := r.ReceiveMessage(conn)
		if err != nil {
			if IsTimeout(err) {
				break
			}
			return err
		}
		if b == nil {
			break
		}
		m, err := wire.Decode(ctx.Namespace, b)
		if err != nil {
			// Undecodable trailing bytes are transport noise, not a
			// protocol error from the node.
			ctx.Logger.Debug("discarding undecodable drain bytes", "conn", conn.Name)
			continue
		}
		for _, mn := range conn.MustNot {
			if mn.Matches(ctx, r, m) {
				return NewUnexpectedMsg(mn.String(), "absence of "+mn.MsgType, m.String())
			}
		}
		switch m.Type.Name {
		case "error", "warning":
			if conn.ExpectedError {
				ctx.Logger.Debug("drained expected error", "conn", conn.Name, "msg", m.String())
				continue
			}
			return NewUnexpectedError("FinalDrain", m.String())
		default:
			ctx.Logger.Debug("drained message", "conn", conn.Name, "msg", m.Type.Name)
		}
	}

	diag, err := r.CheckError(conn)
	if err != nil {
		return err
	}
	if diag != "" && !conn.ExpectedError {
		return NewUnexpectedError("FinalDrain", diag)
	}
	return nil
}

// ExpectError marks that an error from the node is anticipated on this
// connection, suppressing the end-of-path "no errors occurred" check.
type ExpectError struct {
	ConnName string
}

// Action implements Event.
func (e *ExpectError) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(e.ConnName)
	if err != nil {
		return err
	}
	conn.ExpectedError = true
	diag, err := r.CheckError(conn)
	if err != nil {
		return err
	}
	if diag != "" {
		ctx.Logger.Debug("expected error already pending", "conn", conn.Name, "diag", diag)
	}
	return nil
}

// String implements Event.
func (e *ExpectError) String() string { return "ExpectError" }

// Block mines NumBlocks blocks, the first carrying Txs, driving
// confirmation-dependent protocol states.
type Block struct {
	NumBlocks int
	Txs       []string
}

// Action implements Event.
func (e *Block) Action(ctx *Context, r Runner) error {
	return r.AddBlocks(e.Txs, e.NumBlocks)
}

// String implements Event.
func (e *Block) String() string {
	return fmt.Sprintf("Block(%d)", e.NumBlocks)
}

// TrimBlocks invalidates the chain back down to a height, simulating a
// reorg from the node's point of view.
type TrimBlocks struct {
	Height uint64
}

// Action implements Event.
func (e *TrimBlocks) Action(ctx *Context, r Runner) error {
	return r.TrimBlocks(e.Height)
}

// String implements Event.
func (e *TrimBlocks) String() string {
	return fmt.Sprintf("TrimBlocks(%d)", e.Height)
}

// ExpectTx waits for a transaction to appear in the chain node's mempool,
// the explicit wait primitive for the non-blocking channel operations.
type ExpectTx struct {
	TxID Resolvable
}

// Action implements Event.
func (e *ExpectTx) Action(ctx *Context, r Runner) error {
	txid, err := e.TxID(ctx, r)
	if err != nil {
		return err
	}
	return r.ExpectTx(txid)
}

// String implements Event.
func (e *ExpectTx) String() string { return "ExpectTx" }

// FundChannel initiates a channel open toward the peer. The runner
// returns immediately; the negotiation's messages arrive through the
// normal stream.
type FundChannel struct {
	ConnName     string
	AmountSats   uint64
	FeeratePerKw uint32
	ExpectFail   bool
}

// Action implements Event.
func (e *FundChannel) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(e.ConnName)
	if err != nil {
		return err
	}
	return r.FundChannel(conn, e.AmountSats, e.FeeratePerKw, e.ExpectFail)
}

// String implements Event.
func (e *FundChannel) String() string {
	return fmt.Sprintf("FundChannel(%d)", e.AmountSats)
}

// InitRBF initiates an RBF attempt on a pending funding transaction.
// Non-blocking, like FundChannel.
type InitRBF struct {
	ConnName     string
	ChannelID    Resolvable
	AmountSats   uint64
	UtxoTxID     string
	UtxoOutnum   uint32
	FeeratePerKw uint32
}

// Action implements Event.
func (e *InitRBF) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(e.ConnName)
	if err != nil {
		return err
	}
	channelID, err := e.ChannelID(ctx, r)
	if err != nil {
		return err
	}
	return r.InitRBF(conn, channelID, e.AmountSats, e.UtxoTxID, e.UtxoOutnum, e.FeeratePerKw)
}

// String implements Event.
func (e *InitRBF) String() string { return "InitRBF" }

// Invoice creates an invoice on the node for a known preimage.
type Invoice struct {
	AmountMsat uint64
	Preimage   string
}

// Action implements Event.
func (e *Invoice) Action(ctx *Context, r Runner) error {
	return r.Invoice(e.AmountMsat, e.Preimage)
}

// String implements Event.
func (e *Invoice) String() string {
	return fmt.Sprintf("Invoice(%d)", e.AmountMsat)
}

// AddHTLC pays an HTLC with a known preimage toward the peer.
type AddHTLC struct {
	ConnName   string
	AmountMsat uint64
	Preimage   string
}

// Action implements Event.
func (e *AddHTLC) Action(ctx *Context, r Runner) error {
	conn, err := ctx.Conn(e.ConnName)
	if err != nil {
		return err
	}
	return r.AddHTLC(conn, e.AmountMsat, e.Preimage)
}

// String implements Event.
func (e *AddHTLC) String() string {
	return fmt.Sprintf("AddHTLC(%d)", e.AmountMsat)
}

// DualFundAccept configures the node to contribute to inbound
// dual-funding opens automatically.
type DualFundAccept struct{}

// Action implements Event.
func (e *DualFundAccept) Action(ctx *Context, r Runner) error {
	return r.AcceptDualFund()
}

// String implements Event.
func (e *DualFundAccept) String() string { return "DualFundAccept" }
