package engine

import (
	"sort"

	"github.com/lnconform/lnconform/internal/event"
)

// Path is one fully linear, branch-resolved sequence of events ready for
// direct execution.
type Path []event.Event

// Names returns the events' names in order, for traces and golden files.
func (p Path) Names() []string {
	names := make([]string, len(p))
	for i, ev := range p {
		names[i] = ev.String()
	}
	return names
}

// Enumerate flattens an event graph into the ordered list of linear paths
// to execute. Pure: no I/O, no runner, so the combinatorial logic is
// testable on its own.
//
// Expansion is depth-first, leftmost alternative first. Every TryAll
// alternative is substituted in turn and combined with the enumeration of
// the remaining events, so multiple TryAll nodes yield the full cartesian
// product of branch choices. Nested sequences are inlined.
//
// The resulting paths are ordered by descending event count, so an
// interrupted run still exercised the richest paths first. Among paths of
// equal length the DFS enumeration order is preserved; that stable
// tie-break is a committed contract, not an accident.
func Enumerate(events []event.Event) []Path {
	paths := expand(events)
	sort.SliceStable(paths, func(i, j int) bool {
		return len(paths[i]) > len(paths[j])
	})
	return paths
}

// expand returns all linearizations of the event list in DFS order.
func expand(events []event.Event) []Path {
	if len(events) == 0 {
		return []Path{{}}
	}

	rest := expand(events[1:])

	switch head := events[0].(type) {
	case *event.TryAll:
		var out []Path
		for _, alt := range head.Alternatives {
			for _, ap := range expand(alt.Events) {
				out = append(out, cross(ap, rest)...)
			}
		}
		return out
	case *event.Sequence:
		var out []Path
		for _, hp := range expand(head.Events) {
			out = append(out, cross(hp, rest)...)
		}
		return out
	default:
		return cross(Path{events[0]}, rest)
	}
}

// cross prefixes head onto every tail, copying so paths never share
// backing arrays.
func cross(head Path, tails []Path) []Path {
	out := make([]Path, 0, len(tails))
	for _, tail := range tails {
		p := make(Path, 0, len(head)+len(tail))
		p = append(p, head...)
		p = append(p, tail...)
		out = append(out, p)
	}
	return out
}
