package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const linkColumns = "target_path, source_path, link_target, created_at"

// SaveLink inserts or replaces the record for a target path. Exactly one
// record may exist per target path at a time.
func (s *Store) SaveLink(ctx context.Context, rec *LinkRecord) error {
	if rec == nil || strings.TrimSpace(rec.TargetPath) == "" {
		return errors.New("link record requires a target path")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO link_records (`+linkColumns+`) VALUES (?, ?, ?, ?)`,
		rec.TargetPath, rec.SourcePath, rec.LinkTarget, formatTime(rec.CreatedAt))
}

// ReplaceLink removes the previous link record for the same source and writes
// the new one in a single transaction, so no observer sees a source with two
// live targets.
func (s *Store) ReplaceLink(ctx context.Context, rec *LinkRecord) error {
	if rec == nil || strings.TrimSpace(rec.TargetPath) == "" {
		return errors.New("link record requires a target path")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin link tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM link_records WHERE source_path = ? AND target_path != ?",
			rec.SourcePath, rec.TargetPath); err != nil {
			return fmt.Errorf("remove stale link records: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO link_records (`+linkColumns+`) VALUES (?, ?, ?, ?)`,
			rec.TargetPath, rec.SourcePath, rec.LinkTarget, formatTime(rec.CreatedAt)); err != nil {
			return fmt.Errorf("save link record: %w", err)
		}
		return tx.Commit()
	})
}

// GetLink returns the record for a target path, or nil when absent.
func (s *Store) GetLink(ctx context.Context, targetPath string) (*LinkRecord, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+linkColumns+" FROM link_records WHERE target_path = ?", targetPath)
	rec, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// LinksBySource returns all link records derived from a source path.
// Media files have one; a media file plus sidecars may have several sources,
// so callers pass the exact source they care about.
func (s *Store) LinksBySource(ctx context.Context, sourcePath string) ([]*LinkRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+linkColumns+" FROM link_records WHERE source_path = ? ORDER BY target_path", sourcePath)
	if err != nil {
		return nil, fmt.Errorf("links by source: %w", err)
	}
	defer rows.Close()
	return collectLinks(rows)
}

// ListLinks returns every link record ordered by target path.
func (s *Store) ListLinks(ctx context.Context) ([]*LinkRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+linkColumns+" FROM link_records ORDER BY target_path")
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()
	return collectLinks(rows)
}

// DeleteLinksBySource removes all records derived from a source path.
func (s *Store) DeleteLinksBySource(ctx context.Context, sourcePath string) error {
	return s.execWithRetry(ctx, "DELETE FROM link_records WHERE source_path = ?", sourcePath)
}

func collectLinks(rows *sql.Rows) ([]*LinkRecord, error) {
	var records []*LinkRecord
	for rows.Next() {
		rec, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanLink(row rowScanner) (*LinkRecord, error) {
	var rec LinkRecord
	var createdAt string
	if err := row.Scan(&rec.TargetPath, &rec.SourcePath, &rec.LinkTarget, &createdAt); err != nil {
		return nil, err
	}
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}
