package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"medialink/internal/media"
)

const matchColumns = "source_path, kind, media_id, canonical_name, year, season, episode, state, target_path, created_at, updated_at"

// SaveMatch inserts or updates the record for a source path. CreatedAt is
// preserved on update; UpdatedAt is always refreshed.
func (s *Store) SaveMatch(ctx context.Context, rec *MatchRecord) error {
	if rec == nil || strings.TrimSpace(rec.SourcePath) == "" {
		return errors.New("match record requires a source path")
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	return s.execWithRetry(ctx,
		`INSERT INTO match_records (`+matchColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(source_path) DO UPDATE SET
             kind = excluded.kind,
             media_id = excluded.media_id,
             canonical_name = excluded.canonical_name,
             year = excluded.year,
             season = excluded.season,
             episode = excluded.episode,
             state = excluded.state,
             target_path = excluded.target_path,
             updated_at = excluded.updated_at`,
		rec.SourcePath,
		string(rec.Kind),
		rec.MediaID,
		rec.CanonicalName,
		rec.Year,
		rec.Season,
		rec.Episode,
		string(rec.State),
		rec.TargetPath,
		formatTime(rec.CreatedAt),
		formatTime(rec.UpdatedAt),
	)
}

// GetMatch returns the record for a source path, or nil when absent.
func (s *Store) GetMatch(ctx context.Context, sourcePath string) (*MatchRecord, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+matchColumns+" FROM match_records WHERE source_path = ?", sourcePath)
	rec, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ListMatches returns records, optionally filtered by state.
func (s *Store) ListMatches(ctx context.Context, states ...media.MatchState) ([]*MatchRecord, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + matchColumns + " FROM match_records"
	args := make([]any, 0, len(states))
	if len(states) > 0 {
		placeholders := make([]string, len(states))
		for i, state := range states {
			placeholders[i] = "?"
			args = append(args, string(state))
		}
		query += " WHERE state IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY source_path"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var records []*MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteMatch removes the record for a source path.
func (s *Store) DeleteMatch(ctx context.Context, sourcePath string) error {
	return s.execWithRetry(ctx, "DELETE FROM match_records WHERE source_path = ?", sourcePath)
}

// CountMatchesByState returns totals per state for task reports.
func (s *Store) CountMatchesByState(ctx context.Context) (map[media.MatchState]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT state, COUNT(1) FROM match_records GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("count matches: %w", err)
	}
	defer rows.Close()

	counts := make(map[media.MatchState]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[media.MatchState(state)] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*MatchRecord, error) {
	var rec MatchRecord
	var kind, state, createdAt, updatedAt string
	if err := row.Scan(
		&rec.SourcePath,
		&kind,
		&rec.MediaID,
		&rec.CanonicalName,
		&rec.Year,
		&rec.Season,
		&rec.Episode,
		&state,
		&rec.TargetPath,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	rec.Kind = media.Kind(kind)
	rec.State = media.MatchState(state)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}
