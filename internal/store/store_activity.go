package store

import (
	"context"
	"fmt"
	"time"
)

// LogActivity appends one entry to the operational audit trail. Failures are
// returned but callers typically log and continue; the audit trail is
// advisory, not load-bearing.
func (s *Store) LogActivity(ctx context.Context, action, subject, detail string) error {
	return s.execWithRetry(ctx,
		"INSERT INTO activity_log (ts, action, subject, detail) VALUES (?, ?, ?, ?)",
		formatTime(time.Now().UTC()), action, subject, detail)
}

// RecentActivity returns the newest entries, most recent first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, ts, action, subject, detail FROM activity_log ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	defer rows.Close()

	var entries []Activity
	for rows.Next() {
		var entry Activity
		var ts string
		if err := rows.Scan(&entry.ID, &ts, &entry.Action, &entry.Subject, &entry.Detail); err != nil {
			return nil, err
		}
		entry.Timestamp = parseTime(ts)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
