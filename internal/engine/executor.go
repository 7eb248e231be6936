package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lnconform/lnconform/internal/event"
	"github.com/lnconform/lnconform/internal/wire"
)

// Executor drives enumerated paths against a runner, one path at a time.
// Paths never run concurrently: they share the runner's connection
// identity and chain node, and the stash must not leak between them.
type Executor struct {
	runner event.Runner
	ns     *wire.Namespace
	logger *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithNamespace overrides the default peer-message namespace.
func WithNamespace(ns *wire.Namespace) Option {
	return func(x *Executor) { x.ns = ns }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Executor) { x.logger = logger }
}

// New creates an executor bound to a runner.
func New(r event.Runner, opts ...Option) *Executor {
	x := &Executor{
		runner: r,
		ns:     wire.Peer(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Run enumerates every path through the event graph and executes them in
// order against the runner. The runner is restarted (and the stash wiped
// with it) between paths; a failing path is a hard stop, recorded as the
// test's failure without attempting further paths.
func (x *Executor) Run(ctx context.Context, name string, events []event.Event) (*Result, error) {
	paths := Enumerate(events)

	res := NewResult(name)
	res.Enumerated = len(paths)
	x.logger.Info("starting test", "test", name, "paths", len(paths))

	if err := x.runner.Start(); err != nil {
		return nil, fmt.Errorf("start runner: %w", err)
	}
	defer func() {
		if err := x.runner.Stop(); err != nil {
			x.logger.Warn("stopping runner", "err", err)
		}
	}()

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if i > 0 {
			// Restart fully quiesces the node and chain; the fresh
			// context below is the mandated stash wipe.
			if err := x.runner.Restart(); err != nil {
				return res, fmt.Errorf("restart runner before path %d: %w", i, err)
			}
		}

		pr := x.runPath(ctx, i, path)
		res.AddPath(pr)
		if !pr.Pass {
			x.logger.Info("test failed", "test", name,
				"path", i, "event", pr.FailedEvent, "err", pr.Error)
			break
		}
	}

	if res.Pass {
		x.logger.Info("test passed", "test", name, "paths", len(res.Paths))
	}
	return res, nil
}

// runPath executes one linear path with a fresh context and stash,
// stopping at the first failing event, then post-checks that no
// connection holds an unexpected error.
func (x *Executor) runPath(ctx context.Context, index int, path Path) PathResult {
	pr := PathResult{Index: index, EventCount: len(path), Pass: true}
	ectx := event.NewContext(x.ns, x.logger)

	x.logger.Debug("executing path", "path", index, "events", len(path))

	for seq, ev := range path {
		if err := ctx.Err(); err != nil {
			pr.Pass = false
			pr.FailedEvent = ev.String()
			pr.Error = err.Error()
			return pr
		}
		pr.Trace = append(pr.Trace, TraceEvent{Seq: seq, Event: ev.String()})
		if err := ev.Action(ectx, x.runner); err != nil {
			pr.Pass = false
			pr.FailedEvent = ev.String()
			pr.Error = err.Error()
			return pr
		}
	}

	if err := x.postCheck(ectx); err != nil {
		pr.Pass = false
		pr.FailedEvent = "post-check"
		pr.Error = err.Error()
	}
	return pr
}

// postCheck disconnects every connection the path left open, running the
// final-error drain on each. A leftover unexpected error fails the path
// even though all its events succeeded.
func (x *Executor) postCheck(ectx *event.Context) error {
	for _, conn := range ectx.Conns() {
		if err := x.runner.Disconnect(conn); err != nil {
			return err
		}
		err := event.FinalDrain(ectx, x.runner, conn)
		ectx.RemoveConn(conn)
		if err != nil {
			return err
		}
	}
	return nil
}
