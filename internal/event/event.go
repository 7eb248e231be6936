package event

import "fmt"

// Event is one scripted protocol action. Action is invoked once per path
// execution; implementations keep per-run state in the Context, never in
// themselves.
type Event interface {
	// Action performs the event against the runner. A nil return
	// continues the path; any error aborts it.
	Action(ctx *Context, r Runner) error

	// String names the event for traces and diagnostics.
	String() string
}

// Sequence is an ordered list of events. Sequences nest: a TryAll's
// alternatives are themselves sequences, which is what turns a test into
// a DAG rather than a flat list.
type Sequence struct {
	Name   string
	Events []Event
}

// Seq builds an anonymous sequence.
func Seq(events ...Event) *Sequence {
	return &Sequence{Events: events}
}

// Action runs the sequence's events in order, stopping at the first
// failure.
func (s *Sequence) Action(ctx *Context, r Runner) error {
	for _, ev := range s.Events {
		if !enabled(ev, r) {
			ctx.Logger.Debug("skipping disabled event", "event", ev.String())
			continue
		}
		if err := ev.Action(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// String implements Event.
func (s *Sequence) String() string {
	if s.Name != "" {
		return fmt.Sprintf("Sequence(%s)", s.Name)
	}
	return fmt.Sprintf("Sequence(%d events)", len(s.Events))
}

// conditional gates an event on a per-run predicate, typically a feature
// probe against the runner.
type conditional struct {
	ev   Event
	pred func(Runner) bool
}

// EnabledIf wraps an event so it only runs when pred holds for the
// runner; otherwise it is skipped, not failed.
func EnabledIf(ev Event, pred func(Runner) bool) Event {
	return &conditional{ev: ev, pred: pred}
}

func (c *conditional) Action(ctx *Context, r Runner) error {
	if !c.pred(r) {
		ctx.Logger.Debug("skipping disabled event", "event", c.ev.String())
		return nil
	}
	return c.ev.Action(ctx, r)
}

func (c *conditional) String() string { return c.ev.String() }

// OptionSupported is an EnabledIf predicate holding when the runner
// reports the feature as supported or required.
func OptionSupported(name string) func(Runner) bool {
	return func(r Runner) bool { return r.HasOption(name) != "" }
}

func enabled(ev Event, r Runner) bool {
	if c, ok := ev.(*conditional); ok {
		return c.pred(r)
	}
	return true
}
