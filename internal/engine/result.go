package engine

// Result is the verdict of one test execution: every enumerated path's
// outcome plus the overall pass flag.
type Result struct {
	// Name identifies the test.
	Name string `json:"name"`

	// Pass is true only if every executed path passed.
	Pass bool `json:"pass"`

	// Paths holds per-path outcomes in execution order. A failing path is
	// a hard stop, so a failed Result may list fewer paths than were
	// enumerated.
	Paths []PathResult `json:"paths"`

	// Enumerated is the total number of paths the engine produced.
	Enumerated int `json:"enumerated"`
}

// PathResult is the outcome of one path execution.
type PathResult struct {
	// Index is the path's position in execution order.
	Index int `json:"index"`

	// EventCount is the path's total event count.
	EventCount int `json:"event_count"`

	// Pass indicates whether every event succeeded, including the
	// end-of-path error check.
	Pass bool `json:"pass"`

	// FailedEvent names the event that aborted the path, if any.
	FailedEvent string `json:"failed_event,omitempty"`

	// Error is the failure diagnostic, if any.
	Error string `json:"error,omitempty"`

	// Trace lists the executed events in order.
	Trace []TraceEvent `json:"trace"`
}

// TraceEvent records one executed event.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Event string `json:"event"`
}

// NewResult creates a passing result to accumulate into.
func NewResult(name string) *Result {
	return &Result{Name: name, Pass: true}
}

// AddPath records a path outcome, folding its verdict into the overall
// pass flag.
func (r *Result) AddPath(pr PathResult) {
	r.Paths = append(r.Paths, pr)
	if !pr.Pass {
		r.Pass = false
	}
}
