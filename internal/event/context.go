package event

import (
	"io"
	"log/slog"

	"github.com/lnconform/lnconform/internal/keys"
	"github.com/lnconform/lnconform/internal/wire"
)

// Conn identifies one simulated peer connection to the node under test.
// The private key doubles as the connection's name: tests use trivial
// short keys ("02", "03") and each distinct key is a distinct peer.
type Conn struct {
	// Name is the key exactly as authored.
	Name string

	// PrivKey is the expanded 32-byte hex private key.
	PrivKey string

	// ExpectedError is set by ExpectError: an error on this connection is
	// anticipated and must not fail the path.
	ExpectedError bool

	// MustNot holds message patterns that must not appear on this
	// connection; checked during the final drain.
	MustNot []*MustNotMsg
}

// NewConn creates a connection identity from a (possibly short) hex
// private key.
func NewConn(connPrivKey string) (*Conn, error) {
	expanded, err := keys.PrivkeyExpand(connPrivKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Name: connPrivKey, PrivKey: expanded}, nil
}

// PubKey returns the compressed public key identifying this peer.
func (c *Conn) PubKey() (string, error) {
	return keys.Pubkey(c.PrivKey)
}

// Context is the per-path execution state threaded into every Action
// call: the stash, the live connections, the message namespace, and the
// logger. A fresh Context is created for every enumerated path; events
// themselves stay stateless.
type Context struct {
	Stash     *Stash
	Namespace *wire.Namespace
	Logger    *slog.Logger

	conns []*Conn
	last  *Conn
}

// NewContext creates a fresh per-path context.
// A nil logger discards output.
func NewContext(ns *wire.Namespace, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Context{
		Stash:     NewStash(),
		Namespace: ns,
		Logger:    logger,
	}
}

// AddConn registers a connection and makes it current.
func (c *Context) AddConn(conn *Conn) {
	c.conns = append(c.conns, conn)
	c.last = conn
}

// Conn finds a connection by name. The empty name means "the connection
// used last", which is how most single-peer tests address their peer.
func (c *Context) Conn(name string) (*Conn, error) {
	if name == "" {
		if c.last == nil {
			return nil, NewSpecError("Conn", "no connection established")
		}
		return c.last, nil
	}
	for _, conn := range c.conns {
		if conn.Name == name {
			c.last = conn
			return conn, nil
		}
	}
	return nil, NewSpecError("Conn", "unknown connection "+name)
}

// RemoveConn forgets a connection after disconnect.
func (c *Context) RemoveConn(conn *Conn) {
	for i, cn := range c.conns {
		if cn == conn {
			c.conns = append(c.conns[:i], c.conns[i+1:]...)
			break
		}
	}
	if c.last == conn {
		c.last = nil
	}
}

// Conns returns the live connections in the order they were opened.
// The executor's post-check disconnects them in this order.
func (c *Context) Conns() []*Conn {
	return append([]*Conn(nil), c.conns...)
}
