// Package api is the operational surface shared by the CLI commands and the
// daemon: task status, record queries, manual matching, and link rebuilds.
package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"medialink/internal/aggregate"
	"medialink/internal/classify"
	"medialink/internal/config"
	"medialink/internal/faults"
	"medialink/internal/linker"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/metadata/tmdb"
	"medialink/internal/resolve"
	"medialink/internal/scanner"
	"medialink/internal/store"
	"medialink/internal/task"
)

// Service bundles the components behind the operational commands.
type Service struct {
	cfg          *config.Config
	store        *store.Store
	scanner      *scanner.Scanner
	searcher     tmdb.Searcher
	linker       *linker.Linker
	pipeline     *task.Pipeline
	orchestrator *task.Orchestrator
	logger       *slog.Logger
}

// New wires a Service.
func New(cfg *config.Config, st *store.Store, sc *scanner.Scanner, searcher tmdb.Searcher, lk *linker.Linker, pipeline *task.Pipeline, orch *task.Orchestrator, logger *slog.Logger) *Service {
	return &Service{
		cfg:          cfg,
		store:        st,
		scanner:      sc,
		searcher:     searcher,
		linker:       lk,
		pipeline:     pipeline,
		orchestrator: orch,
		logger:       logging.NewComponentLogger(logger, "api"),
	}
}

// TriggerScan requests a run; nil paths means a full scan.
func (s *Service) TriggerScan(ctx context.Context, paths []string) task.View {
	return s.orchestrator.Trigger(ctx, paths).View()
}

// TaskStatus returns the latest task, or ok=false before any run.
func (s *Service) TaskStatus() (task.View, bool) {
	t := s.orchestrator.Current()
	if t == nil {
		return task.View{}, false
	}
	return t.View(), true
}

// Records lists match records, optionally filtered by state.
func (s *Service) Records(ctx context.Context, states ...media.MatchState) ([]*store.MatchRecord, error) {
	return s.store.ListMatches(ctx, states...)
}

// StateCounts summarizes records per match state.
func (s *Service) StateCounts(ctx context.Context) (map[media.MatchState]int, error) {
	return s.store.CountMatchesByState(ctx)
}

// Activity returns the newest audit entries.
func (s *Service) Activity(ctx context.Context, limit int) ([]store.Activity, error) {
	return s.store.RecentActivity(ctx, limit)
}

// MatchRequest describes a manual match operation.
type MatchRequest struct {
	// Path is the source file the operator is fixing.
	Path string
	// Query searches metadata by title when TMDBID is zero.
	Query string
	// Year optionally narrows the query.
	Year int
	// TMDBID pins the identity directly.
	TMDBID int64
	// Kind forces movie or tv; uncertain defers to classification.
	Kind media.Kind
	// ApplyToGroup replays the match across every member of the owning
	// group. Members already manually fixed to a different identity are
	// left alone and counted as skipped.
	ApplyToGroup bool
}

// MatchResult reports what a manual match changed.
type MatchResult struct {
	CanonicalName string
	MediaID       int64
	Kind          media.Kind
	Year          int
	Updated       int
	SkippedManual int
	Linked        int
}

// ManualMatch pins an identity on a file (or its whole group) and records it
// in the sticky manual state so automatic scans never overwrite it.
func (s *Service) ManualMatch(ctx context.Context, req MatchRequest) (*MatchResult, error) {
	if _, err := os.Lstat(req.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, "api", "manual match", fmt.Errorf("no such file: %s", req.Path))
		}
		return nil, faults.Wrap(faults.ErrFilesystem, "api", "manual match", err)
	}

	group, sidecars, err := s.groupFor(req.Path)
	if err != nil {
		return nil, err
	}

	kind := req.Kind
	if kind == media.KindUncertain {
		kind = classify.Classify(group, media.KindUncertain)
	}

	resolver := resolve.New(s.searcher, s.cfg, s.logger)
	var res resolve.Resolution
	if req.TMDBID > 0 {
		res, err = resolver.ResolveForced(ctx, resolve.ForcedID{ID: req.TMDBID, Kind: req.Kind}, kind)
	} else {
		query := req.Query
		if query == "" {
			query = group.Title
		}
		year := req.Year
		if year == 0 {
			year = group.Year
		}
		// A query needs a concrete endpoint; default to movie search.
		if kind == media.KindUncertain {
			kind = media.KindMovie
		}
		res, err = resolver.Resolve(ctx, query, year, kind)
	}
	if err != nil && !errors.Is(err, faults.ErrAmbiguous) {
		return nil, err
	}
	if res.MediaID == 0 || res.State == media.StateNotFound {
		return nil, faults.Wrap(faults.ErrNotFound, "api", "manual match", errors.New("no metadata candidate found"))
	}
	// The operator chose this identity, so it wins even below the automatic
	// confidence threshold, and it sticks across future scans.
	res.State = media.StateManual

	members := []media.File{fileNamed(group, req.Path)}
	if req.ApplyToGroup {
		members = group.Files
	}

	result := &MatchResult{
		CanonicalName: res.CanonicalName,
		MediaID:       res.MediaID,
		Kind:          res.Kind,
		Year:          res.Year,
	}

	var apply []media.File
	for _, member := range members {
		existing, err := s.store.GetMatch(ctx, member.Path)
		if err != nil {
			return nil, faults.Wrap(faults.ErrFilesystem, "api", "load match", err)
		}
		if member.Path != req.Path && existing != nil &&
			existing.State == media.StateManual && existing.MediaID != res.MediaID {
			result.SkippedManual++
			continue
		}
		apply = append(apply, member)
	}

	counts, err := s.pipeline.ApplyResolution(ctx, group, apply, res, sidecars)
	if err != nil {
		return nil, err
	}
	result.Updated = len(apply)
	result.Linked = counts.Linked

	detail := fmt.Sprintf("%s (tmdb %d)", res.CanonicalName, res.MediaID)
	if logErr := s.store.LogActivity(ctx, "manual_match", req.Path, detail); logErr != nil {
		s.logger.Debug("activity log write failed", logging.Error(logErr))
	}
	return result, nil
}

// Ignore hides a source file from automatic processing and removes its links.
func (s *Service) Ignore(ctx context.Context, path string) error {
	rec, err := s.store.GetMatch(ctx, path)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, "api", "ignore", err)
	}
	if rec == nil {
		rec = &store.MatchRecord{SourcePath: path, Kind: media.KindUncertain}
	}
	rec.State = media.StateIgnored
	rec.TargetPath = ""
	if err := s.store.SaveMatch(ctx, rec); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "api", "ignore", err)
	}
	if err := s.linker.RemoveBySource(ctx, path); err != nil {
		return err
	}
	if logErr := s.store.LogActivity(ctx, "ignored", path, ""); logErr != nil {
		s.logger.Debug("activity log write failed", logging.Error(logErr))
	}
	return nil
}

// Unignore returns a source file to automatic processing on the next scan.
func (s *Service) Unignore(ctx context.Context, path string) error {
	rec, err := s.store.GetMatch(ctx, path)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, "api", "unignore", err)
	}
	if rec == nil || rec.State != media.StateIgnored {
		return faults.Wrap(faults.ErrNotFound, "api", "unignore", fmt.Errorf("not ignored: %s", path))
	}
	if err := s.store.DeleteMatch(ctx, path); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "api", "unignore", err)
	}
	if logErr := s.store.LogActivity(ctx, "unignored", path, ""); logErr != nil {
		s.logger.Debug("activity log write failed", logging.Error(logErr))
	}
	return nil
}

// RebuildLinks repopulates link records from the symlinks already present in
// the target tree. Match records are restored by the next full scan.
func (s *Service) RebuildLinks(ctx context.Context) (int, error) {
	count, err := s.linker.Rebuild(ctx)
	if err != nil {
		return count, err
	}
	if logErr := s.store.LogActivity(ctx, "rebuild", s.cfg.TargetDir, fmt.Sprintf("%d links recovered", count)); logErr != nil {
		s.logger.Debug("activity log write failed", logging.Error(logErr))
	}
	return count, nil
}

// groupFor rescans a file's directory and returns the group owning it.
func (s *Service) groupFor(path string) (*aggregate.Group, []media.File, error) {
	listing, err := s.scanner.ScanPaths([]string{filepath.Dir(path)})
	if err != nil {
		return nil, nil, faults.Wrap(faults.ErrFilesystem, "api", "scan directory", err)
	}
	groups := aggregate.Build(s.cfg.SourceDir, listing.Videos)
	for _, group := range groups {
		for _, file := range group.Files {
			if file.Path == path {
				return group, listing.Sidecars, nil
			}
		}
	}
	return nil, nil, faults.Wrap(faults.ErrNotFound, "api", "scan directory",
		fmt.Errorf("not a recognized media file: %s", path))
}

func fileNamed(group *aggregate.Group, path string) media.File {
	for _, file := range group.Files {
		if file.Path == path {
			return file
		}
	}
	return media.File{Path: path}
}
