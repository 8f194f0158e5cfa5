package store

import (
	"time"

	"medialink/internal/media"
)

// MatchRecord is the durable resolution result for one source file, keyed by
// source path. Records in a sticky state (manual, ignored) survive automatic
// rescans untouched.
type MatchRecord struct {
	SourcePath    string
	Kind          media.Kind
	MediaID       int64
	CanonicalName string
	Year          int
	Season        int
	Episode       int
	State         media.MatchState
	TargetPath    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LinkRecord is the durable record of one materialized link, keyed by target
// path. LinkTarget is the remapped source string actually written into the
// symlink; SourcePath is the local path it was derived from.
type LinkRecord struct {
	TargetPath string
	SourcePath string
	LinkTarget string
	CreatedAt  time.Time
}

// Activity is one entry of the operational audit trail.
type Activity struct {
	ID        int64
	Timestamp time.Time
	Action    string
	Subject   string
	Detail    string
}
