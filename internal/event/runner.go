package event

import "github.com/lnconform/lnconform/internal/keys"

// Runner is the capability contract a node adapter must satisfy to be
// driven by the engine. The core only consumes this interface; concrete
// adapters (an implementation node plus its regtest chain node) live
// outside this module, with the in-memory DummyRunner standing in for
// them in the harness's own tests.
//
// One Runner instance is exclusively owned by the currently executing
// path. Restart is the only operation that resets that ownership, and it
// must fully quiesce before the next path begins.
type Runner interface {
	// Start brings the node and its chain node up.
	Start() error

	// Stop tears everything down at end of run.
	Stop() error

	// Restart discards connections and on-disk/chain state and
	// reinitializes the node, leaving it indistinguishable from a fresh
	// Start. The executor wipes the stash immediately after.
	Restart() error

	// Connect opens a peer connection to the node using conn's private
	// key as this side's identity.
	Connect(conn *Conn) error

	// Disconnect closes the connection. Pending inbound messages must
	// remain readable afterwards so the final drain can inspect them.
	Disconnect(conn *Conn) error

	// SendMessage delivers encoded wire bytes to the node.
	SendMessage(conn *Conn, msg []byte) error

	// ReceiveMessage returns the next inbound message, blocking up to an
	// implementation-defined timeout; on expiry it returns an event error
	// with CodeTimeout. After Disconnect it returns the remaining pending
	// messages and then (nil, nil) when the stream is exhausted.
	ReceiveMessage(conn *Conn) ([]byte, error)

	// BlockHeight reports the chain node's current height.
	BlockHeight() (uint64, error)

	// AddBlocks mines n blocks, the first including the given raw
	// transactions, then waits for the node to sync.
	AddBlocks(txs []string, n int) error

	// TrimBlocks invalidates the chain back down to height.
	TrimBlocks(height uint64) error

	// ExpectTx waits until the given txid appears in the mempool.
	ExpectTx(txid string) error

	// FundChannel initiates a channel open of amountSats to the peer on
	// conn. It must return once the attempt is in flight, running the
	// negotiation on a background execution unit so the path can keep
	// exchanging the messages the negotiation produces.
	FundChannel(conn *Conn, amountSats uint64, feeratePerKw uint32, expectFail bool) error

	// InitRBF initiates an RBF attempt on a pending funding transaction.
	// Non-blocking, like FundChannel.
	InitRBF(conn *Conn, channelID string, amountSats uint64, utxoTxID string, utxoOutnum uint32, feeratePerKw uint32) error

	// Invoice creates an invoice for amountMsat with the given payment
	// preimage. Non-blocking.
	Invoice(amountMsat uint64, preimage string) error

	// AddHTLC pays an invoice-less HTLC of amountMsat with the given
	// preimage toward the peer on conn. Non-blocking.
	AddHTLC(conn *Conn, amountMsat uint64, preimage string) error

	// AcceptDualFund configures the node to automatically contribute to
	// inbound dual-funding opens.
	AcceptDualFund() error

	// KeySet returns the node's deterministic channel key material, used
	// to precompute the basepoints and commitment points the node will
	// put on the wire.
	KeySet() keys.KeySet

	// NodePrivKey returns the node's identity private key (hex).
	NodePrivKey() string

	// NodeBitcoinKey returns the node's funding private key (hex).
	NodeBitcoinKey() string

	// HasOption probes feature support: "" if the feature is absent,
	// otherwise "required" or "supported".
	HasOption(name string) string

	// AddStartupFlag adds a node startup flag for the next (re)start.
	AddStartupFlag(flag string) error

	// CheckError returns the node's pending error diagnostic for conn, or
	// "" if none. Reading consumes it.
	CheckError(conn *Conn) (string, error)
}
