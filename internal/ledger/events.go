package ledger

import (
	"fmt"
	"time"
)

// #region log-event
// LogEvent writes an entry to the run_events table. The run must exist.
func (s *Store) LogEvent(ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO run_events (run_id, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		ev.RunID, ev.Kind, nullIfEmpty(ev.Detail), ev.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}
// #endregion log-event

// #region events
// Events returns the events of a run in insertion order.
func (s *Store) Events(runID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT run_id, kind, COALESCE(detail, ''), created_at FROM run_events WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var createdStr string
		if err := rows.Scan(&ev.RunID, &ev.Kind, &ev.Detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		events = append(events, ev)
	}
	return events, rows.Err()
}
// #endregion events

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
