package store

import (
	"context"
	"fmt"

	"github.com/lnconform/lnconform/internal/engine"
)

// WriteRun persists a run result and all of its path traces in a single
// transaction. Returns the generated run ID.
func (s *Store) WriteRun(ctx context.Context, res *engine.Result) (string, error) {
	id := s.newID()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, started_at, pass, enumerated)
		VALUES (?, ?, ?, ?, ?)
	`, id, res.Name, s.now().Unix(), boolInt(res.Pass), res.Enumerated)
	if err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	for _, pr := range res.Paths {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO path_results (run_id, path_index, event_count, pass, failed_event, error)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, pr.Index, pr.EventCount, boolInt(pr.Pass), pr.FailedEvent, pr.Error)
		if err != nil {
			return "", fmt.Errorf("write path %d: %w", pr.Index, err)
		}

		for _, te := range pr.Trace {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO trace_events (run_id, path_index, seq, event)
				VALUES (?, ?, ?, ?)
			`, id, pr.Index, te.Seq, te.Event)
			if err != nil {
				return "", fmt.Errorf("write trace %d/%d: %w", pr.Index, te.Seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write run: %w", err)
	}

	return id, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
