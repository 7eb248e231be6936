package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lnconform/lnconform/internal/engine"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// RunRecord is a persisted run: the result plus storage metadata.
type RunRecord struct {
	ID        string
	StartedAt time.Time
	Result    engine.Result
}

// RunSummary is one row of run history, without traces.
type RunSummary struct {
	ID        string
	Scenario  string
	StartedAt time.Time
	Pass      bool
}

// ReadRun loads a run and all of its path results and traces.
// Paths are ordered by index, traces by sequence number.
func (s *Store) ReadRun(ctx context.Context, id string) (*RunRecord, error) {
	rec := &RunRecord{ID: id}

	var startedAt int64
	var pass int
	err := s.db.QueryRowContext(ctx, `
		SELECT scenario, started_at, pass, enumerated
		FROM runs WHERE id = ?
	`, id).Scan(&rec.Result.Name, &startedAt, &pass, &rec.Result.Enumerated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	rec.StartedAt = time.Unix(startedAt, 0).UTC()
	rec.Result.Pass = pass != 0

	rows, err := s.db.QueryContext(ctx, `
		SELECT path_index, event_count, pass, failed_event, error
		FROM path_results
		WHERE run_id = ?
		ORDER BY path_index ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pr engine.PathResult
		var pathPass int
		if err := rows.Scan(&pr.Index, &pr.EventCount, &pathPass, &pr.FailedEvent, &pr.Error); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		pr.Pass = pathPass != 0

		pr.Trace, err = s.readTrace(ctx, id, pr.Index)
		if err != nil {
			return nil, err
		}

		rec.Result.Paths = append(rec.Result.Paths, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}

	return rec, nil
}

func (s *Store) readTrace(ctx context.Context, runID string, pathIndex int) ([]engine.TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, event
		FROM trace_events
		WHERE run_id = ? AND path_index = ?
		ORDER BY seq ASC
	`, runID, pathIndex)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	var trace []engine.TraceEvent
	for rows.Next() {
		var te engine.TraceEvent
		if err := rows.Scan(&te.Seq, &te.Event); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		trace = append(trace, te)
	}
	return trace, rows.Err()
}

// ListRuns returns run history ordered newest first. A non-empty scenario
// filters to that scenario's runs.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]RunSummary, error) {
	query := `
		SELECT id, scenario, started_at, pass
		FROM runs
	`
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY started_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var sum RunSummary
		var startedAt int64
		var pass int
		if err := rows.Scan(&sum.ID, &sum.Scenario, &startedAt, &pass); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.StartedAt = time.Unix(startedAt, 0).UTC()
		sum.Pass = pass != 0
		out = append(out, sum)
	}
	return out, rows.Err()
}
