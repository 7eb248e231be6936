// Package event models a protocol conversation as a graph of events.
//
// An Event is one scripted action against the node under test: send a
// message, expect a reply, open a connection, mine blocks, mark an error
// as expected. Events are assembled into Sequences; a TryAll node holds
// alternative sub-sequences and is the only source of branching. The
// engine package flattens that graph into linear paths and drives each
// one against a Runner.
//
// Events are constructed once and executed many times: any per-run state
// lives in the Context (most importantly its Stash), never in the event
// itself, so the same event tree is safely replayed across every
// enumerated path.
package event
