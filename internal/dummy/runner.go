// Package dummy provides an in-memory Runner that stands in for a real
// node adapter. It fabricates no protocol logic of its own: tests script
// the inbound messages per connection, and the runner replays them. Its
// job is to sanity-check scenarios and to drive the engine's own tests
// deterministically.
package dummy

import (
	"sync"

	"github.com/lnconform/lnconform/internal/event"
	"github.com/lnconform/lnconform/internal/keys"
)

// ReplyFunc fabricates inbound messages in response to a message the test
// sent, letting a script react instead of being a fixed replay.
type ReplyFunc func(connName string, sent []byte) [][]byte

// FundCall records one non-blocking channel operation for assertions.
type FundCall struct {
	Conn       string
	AmountSats uint64
	Feerate    uint32
	ExpectFail bool
}

// Runner is the in-memory dummy node adapter.
//
// Scripts are templates: Start and Restart reset every connection's live
// inbound queue from the configured script, so each enumerated path sees
// the same conversation.
type Runner struct {
	mu sync.Mutex

	started bool
	height  uint64

	scripts map[string][][]byte // per conn name, the per-path template
	reply   ReplyFunc

	conns map[string]*connState
	sent  map[string][][]byte // per conn name, survives Stop for assertions

	options      map[string]string
	startupFlags []string
	mempool      map[string]bool

	keySet         keys.KeySet
	nodePrivKey    string
	nodeBitcoinKey string

	// Recorded non-blocking operations.
	FundCalls    []FundCall
	RBFCalls     int
	Invoices     int
	HTLCs        int
	DualAccepted bool
}

type connState struct {
	open    bool
	inbound [][]byte
	errDiag string
}

const startHeight = 102

// New creates a dummy runner with trivial deterministic key material.
func New() *Runner {
	return &Runner{
		height:  startHeight,
		scripts: make(map[string][][]byte),
		conns:   make(map[string]*connState),
		sent:    make(map[string][][]byte),
		options: make(map[string]string),
		mempool: make(map[string]bool),
		keySet: keys.KeySet{
			RevocationBaseSecret:     "11",
			PaymentBaseSecret:        "12",
			DelayedPaymentBaseSecret: "13",
			HTLCBaseSecret:           "14",
			ShachainSeed:             "01",
		},
		nodePrivKey:    "01",
		nodeBitcoinKey: "02",
	}
}

// Script sets the inbound messages a connection will receive, replayed
// afresh on every path.
func (r *Runner) Script(connName string, msgs ...[]byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[connName] = msgs
}

// SetReply installs a ReplyFunc invoked after every SendMessage.
func (r *Runner) SetReply(fn ReplyFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reply = fn
}

// SetOption declares a feature as "supported" or "required".
func (r *Runner) SetOption(name, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[name] = state
}

// FailConn queues an error diagnostic, as a node signaling a protocol
// error would.
func (r *Runner) FailConn(connName, diag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cs, ok := r.conns[connName]; ok {
		cs.errDiag = diag
	}
}

// AddMempool marks a txid as present in the simulated mempool.
func (r *Runner) AddMempool(txid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mempool[txid] = true
}

// Sent returns the raw messages sent on a connection, in order. The
// record outlives the connection and Stop, so a finished run can still
// be asserted on; Restart clears it along with the other recorded ops.
func (r *Runner) Sent(connName string) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sent[connName]...)
}

// Start implements event.Runner.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	r.reset()
	return nil
}

// Stop implements event.Runner.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = false
	r.conns = make(map[string]*connState)
	return nil
}

// Restart implements event.Runner: connections, chain state and recorded
// operations are discarded, leaving the runner as freshly started.
func (r *Runner) Restart() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	return nil
}

func (r *Runner) reset() {
	r.conns = make(map[string]*connState)
	r.sent = make(map[string][][]byte)
	r.height = startHeight
	r.mempool = make(map[string]bool)
	r.FundCalls = nil
	r.RBFCalls = 0
	r.Invoices = 0
	r.HTLCs = 0
	r.DualAccepted = false
}

// Connect implements event.Runner.
func (r *Runner) Connect(conn *event.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs := &connState{open: true}
	cs.inbound = append(cs.inbound, r.scripts[conn.Name]...)
	r.conns[conn.Name] = cs
	return nil
}

// Disconnect implements event.Runner. Pending inbound messages stay
// readable for the final drain.
func (r *Runner) Disconnect(conn *event.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cs, ok := r.conns[conn.Name]; ok {
		cs.open = false
	}
	return nil
}

// SendMessage implements event.Runner.
func (r *Runner) SendMessage(conn *event.Conn, msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.conns[conn.Name]
	if !ok || !cs.open {
		return event.NewSpecError("SendMessage", "connection not open: "+conn.Name)
	}
	r.sent[conn.Name] = append(r.sent[conn.Name], msg)
	if r.reply != nil {
		cs.inbound = append(cs.inbound, r.reply(conn.Name, msg)...)
	}
	return nil
}

// ReceiveMessage implements event.Runner. An exhausted script on an open
// connection is a timeout; on a closed one it is end of stream.
func (r *Runner) ReceiveMessage(conn *event.Conn) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.conns[conn.Name]
	if !ok {
		return nil, event.NewSpecError("ReceiveMessage", "unknown connection "+conn.Name)
	}
	if len(cs.inbound) == 0 {
		if cs.open {
			return nil, event.NewTimeoutError("ReceiveMessage(" + conn.Name + ")")
		}
		return nil, nil
	}
	msg := cs.inbound[0]
	cs.inbound = cs.inbound[1:]
	return msg, nil
}

// BlockHeight implements event.Runner.
func (r *Runner) BlockHeight() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height, nil
}

// AddBlocks implements event.Runner.
func (r *Runner) AddBlocks(txs []string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.height += uint64(n)
	for _, tx := range txs {
		r.mempool[tx] = true
	}
	return nil
}

// TrimBlocks implements event.Runner.
func (r *Runner) TrimBlocks(height uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if height < r.height {
		r.height = height
	}
	return nil
}

// ExpectTx implements event.Runner.
func (r *Runner) ExpectTx(txid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.mempool[txid] {
		return event.NewTimeoutError("ExpectTx(" + txid + ")")
	}
	return nil
}

// FundChannel implements event.Runner.
func (r *Runner) FundChannel(conn *event.Conn, amountSats uint64, feeratePerKw uint32, expectFail bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FundCalls = append(r.FundCalls, FundCall{
		Conn:       conn.Name,
		AmountSats: amountSats,
		Feerate:    feeratePerKw,
		ExpectFail: expectFail,
	})
	return nil
}

// InitRBF implements event.Runner.
func (r *Runner) InitRBF(conn *event.Conn, channelID string, amountSats uint64, utxoTxID string, utxoOutnum uint32, feeratePerKw uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RBFCalls++
	return nil
}

// Invoice implements event.Runner.
func (r *Runner) Invoice(amountMsat uint64, preimage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Invoices++
	return nil
}

// AddHTLC implements event.Runner.
func (r *Runner) AddHTLC(conn *event.Conn, amountMsat uint64, preimage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.HTLCs++
	return nil
}

// AcceptDualFund implements event.Runner.
func (r *Runner) AcceptDualFund() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.DualAccepted = true
	return nil
}

// KeySet implements event.Runner.
func (r *Runner) KeySet() keys.KeySet { return r.keySet }

// NodePrivKey implements event.Runner.
func (r *Runner) NodePrivKey() string { return r.nodePrivKey }

// NodeBitcoinKey implements event.Runner.
func (r *Runner) NodeBitcoinKey() string { return r.nodeBitcoinKey }

// HasOption implements event.Runner.
func (r *Runner) HasOption(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.options[name]
}

// AddStartupFlag implements event.Runner.
func (r *Runner) AddStartupFlag(flag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startupFlags = append(r.startupFlags, flag)
	return nil
}

// CheckError implements event.Runner. Reading consumes the diagnostic.
func (r *Runner) CheckError(conn *event.Conn) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.conns[conn.Name]
	if !ok {
		return "", nil
	}
	diag := cs.errDiag
	cs.errDiag = ""
	return diag, nil
}

var _ event.Runner = (*Runner)(nil)
