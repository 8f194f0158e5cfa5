package task

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"medialink/internal/aggregate"
	"medialink/internal/classify"
	"medialink/internal/config"
	"medialink/internal/faults"
	"medialink/internal/linker"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/metadata/tmdb"
	"medialink/internal/plan"
	"medialink/internal/resolve"
	"medialink/internal/scanner"
	"medialink/internal/store"
	"medialink/internal/titles"
)

// Pipeline owns the components a run needs. A fresh resolver is created per
// run so the metadata cache stays scoped to one pass.
type Pipeline struct {
	cfg      *config.Config
	store    *store.Store
	scanner  *scanner.Scanner
	searcher tmdb.Searcher
	linker   *linker.Linker
	logger   *slog.Logger
}

// NewPipeline wires a pipeline.
func NewPipeline(cfg *config.Config, st *store.Store, sc *scanner.Scanner, searcher tmdb.Searcher, lk *linker.Linker, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		scanner:  sc,
		searcher: searcher,
		linker:   lk,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes one pass. Results commit per file: a failure partway leaves
// every already-processed file's records intact.
func (p *Pipeline) Run(ctx context.Context, t *Task, scope []string) error {
	full := scope == nil

	var (
		listing *scanner.Listing
		missing []string
		err     error
	)
	if full {
		listing, err = p.scanner.Scan()
		if err != nil {
			return faults.Wrap(faults.ErrFilesystem, "pipeline", "scan source", err)
		}
	} else {
		dirs, gone := scopeDirs(scope)
		missing = gone
		listing, err = p.scanner.ScanPaths(dirs)
		if err != nil {
			return faults.Wrap(faults.ErrFilesystem, "pipeline", "scan paths", err)
		}
	}

	if full {
		if err := p.removeMissing(ctx, t, listing); err != nil {
			return err
		}
	} else {
		for _, path := range missing {
			if err := p.removeSource(ctx, t, path); err != nil {
				return err
			}
		}
	}

	groups := aggregate.Build(p.cfg.SourceDir, listing.Videos)
	t.bump(func(c *Counts) {
		c.Files += len(listing.Videos)
		c.Groups += len(groups)
		c.Skipped += len(listing.Skipped)
	})

	resolver := resolve.New(p.searcher, p.cfg, p.logger)
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.processGroup(ctx, t, resolver, group, listing.Sidecars); err != nil {
			if errors.Is(err, context.Canceled) || faults.Fatal(err) {
				return err
			}
			t.bump(func(c *Counts) { c.Errors++ })
			p.logger.Warn("group failed, continuing",
				logging.String("group", group.Key),
				logging.Error(err))
		}
	}
	return ctx.Err()
}

func (p *Pipeline) processGroup(ctx context.Context, t *Task, resolver *resolve.Resolver, group *aggregate.Group, sidecars []media.File) error {
	forced, hasForced := groupForcedID(group)
	forcedKind := media.KindUncertain
	if hasForced {
		forcedKind = forced.Kind
	}
	kind := classify.Classify(group, forcedKind)

	// Sticky records are honored before any network work happens.
	var pendingFiles []media.File
	for _, file := range group.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		existing, err := p.store.GetMatch(ctx, file.Path)
		if err != nil {
			return faults.Wrap(faults.ErrFilesystem, "pipeline", "load match", err)
		}
		if existing != nil && existing.State.Sticky() {
			p.refreshSticky(ctx, t, file, existing, sidecars)
			continue
		}
		pendingFiles = append(pendingFiles, file)
	}
	if len(pendingFiles) == 0 {
		return nil
	}

	var (
		res resolve.Resolution
		err error
	)
	if hasForced {
		res, err = resolver.ResolveForced(ctx, forced, kind)
	} else {
		res, err = resolver.Resolve(ctx, group.Title, group.Year, kind)
	}
	// An ambiguous match is a normal outcome: the resolution carries the best
	// candidate and an uncertain state, recorded below like any other.
	if err != nil && !errors.Is(err, faults.ErrAmbiguous) {
		if errors.Is(err, context.Canceled) || faults.Fatal(err) {
			return err
		}
		// Provider failure after retries: record the outcome state and move on.
		state := faults.StateFor(err)
		for _, file := range pendingFiles {
			rec := &store.MatchRecord{SourcePath: file.Path, Kind: kind, State: state}
			if saveErr := p.saveMatch(ctx, t, rec); saveErr != nil {
				return saveErr
			}
		}
		return err
	}

	switch res.State {
	case media.StateMatched:
		return p.linkResolved(ctx, t, group, pendingFiles, res, sidecars)
	default:
		for _, file := range pendingFiles {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec := &store.MatchRecord{
				SourcePath:    file.Path,
				Kind:          res.Kind,
				MediaID:       res.MediaID,
				CanonicalName: res.CanonicalName,
				Year:          res.Year,
				State:         res.State,
			}
			if err := p.saveMatch(ctx, t, rec); err != nil {
				return err
			}
		}
		return nil
	}
}

// ApplyResolution links a chosen identity onto a set of group members and
// commits their records with the resolution's state. Used by the manual match
// surface; counts report what was linked.
func (p *Pipeline) ApplyResolution(ctx context.Context, group *aggregate.Group, files []media.File, res resolve.Resolution, sidecars []media.File) (Counts, error) {
	t := newTask(nil)
	err := p.linkResolved(ctx, t, group, files, res, sidecars)
	return t.View().Counts, err
}

// linkResolved plans a target for each file, materializes the link, and
// commits the match record. Episode numbers fall back to natural file order
// when the names carry no explicit markers.
func (p *Pipeline) linkResolved(ctx context.Context, t *Task, group *aggregate.Group, files []media.File, res resolve.Resolution, sidecars []media.File) error {
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec := &store.MatchRecord{
			SourcePath:    file.Path,
			Kind:          res.Kind,
			MediaID:       res.MediaID,
			CanonicalName: res.CanonicalName,
			Year:          res.Year,
			State:         res.State,
		}

		if res.Kind == media.KindTV {
			parsed := titles.ParsePath(file.Path, p.cfg.SourceDir)
			season := parsed.Season
			if season == 0 {
				season = group.Season
			}
			if season == 0 {
				season = 1
			}
			episode := parsed.Episode
			if episode == 0 {
				if n, ok := titles.TrailingNumber(file.Base()); ok {
					episode = n
				} else {
					episode = i + 1
				}
			}
			rec.Season = season
			rec.Episode = episode
			rec.TargetPath = plan.EpisodePath(p.cfg.TargetDir, res.CanonicalName, season, episode, file.Ext)
		} else {
			part := 0
			if group.MultiPart {
				if n, ok := titles.PartNumber(file.Base()); ok {
					part = n
				}
			}
			rec.TargetPath = plan.MoviePath(p.cfg.TargetDir, res.CanonicalName, res.Year, part, file.Ext)
		}

		if err := p.linker.Link(ctx, file.Path, rec.TargetPath); err != nil {
			rec.State = faults.StateFor(err)
			t.bump(func(c *Counts) { c.Errors++ })
			p.logger.Warn("link failed",
				logging.String("source", file.Path),
				logging.String("target", rec.TargetPath),
				logging.Error(err))
		} else {
			t.bump(func(c *Counts) { c.Linked++ })
			p.linkSidecars(ctx, t, file, rec.TargetPath, sidecars)
		}

		if err := p.saveMatch(ctx, t, rec); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) linkSidecars(ctx context.Context, t *Task, file media.File, videoTarget string, sidecars []media.File) {
	for _, sc := range scanner.SidecarsFor(file, sidecars) {
		target := plan.SidecarPath(videoTarget, file.Path, sc.Path)
		if err := p.linker.Link(ctx, sc.Path, target); err != nil {
			t.bump(func(c *Counts) { c.Errors++ })
			p.logger.Warn("sidecar link failed",
				logging.String("source", sc.Path),
				logging.Error(err))
			continue
		}
		t.bump(func(c *Counts) { c.Linked++ })
	}
}

// refreshSticky re-ensures links for manual records and skips ignored ones.
// Neither state is ever overwritten by an automatic pass.
func (p *Pipeline) refreshSticky(ctx context.Context, t *Task, file media.File, rec *store.MatchRecord, sidecars []media.File) {
	if rec.State == media.StateIgnored {
		t.bump(func(c *Counts) { c.Ignored++ })
		return
	}
	if rec.TargetPath != "" {
		if err := p.linker.Link(ctx, file.Path, rec.TargetPath); err != nil {
			t.bump(func(c *Counts) { c.Errors++ })
			p.logger.Warn("manual link refresh failed",
				logging.String("source", file.Path),
				logging.Error(err))
		} else {
			p.linkSidecars(ctx, t, file, rec.TargetPath, sidecars)
		}
	}
	t.bump(func(c *Counts) { c.Skipped++ })
}

func (p *Pipeline) saveMatch(ctx context.Context, t *Task, rec *store.MatchRecord) error {
	if err := p.store.SaveMatch(ctx, rec); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "pipeline", "save match", err)
	}
	t.bump(func(c *Counts) {
		switch rec.State {
		case media.StateMatched:
			c.Matched++
		case media.StateUncertain:
			c.Uncertain++
		case media.StateNotFound:
			c.NotFound++
		}
	})
	return nil
}

// removeMissing reconciles the store against a full listing: sources that
// vanished lose their links, records, and any empty target directories.
func (p *Pipeline) removeMissing(ctx context.Context, t *Task, listing *scanner.Listing) error {
	present := make(map[string]struct{}, len(listing.Videos)+len(listing.Sidecars))
	for _, f := range listing.Videos {
		present[f.Path] = struct{}{}
	}
	for _, f := range listing.Sidecars {
		present[f.Path] = struct{}{}
	}

	matches, err := p.store.ListMatches(ctx)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, "pipeline", "list matches", err)
	}
	for _, rec := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := present[rec.SourcePath]; ok {
			continue
		}
		if err := p.removeSource(ctx, t, rec.SourcePath); err != nil {
			return err
		}
	}

	// Sidecar links have no match record, so sweep link records too.
	links, err := p.store.ListLinks(ctx)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, "pipeline", "list links", err)
	}
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := present[link.SourcePath]; ok {
			continue
		}
		if _, statErr := os.Lstat(link.SourcePath); statErr == nil {
			continue
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			continue
		}
		if err := p.linker.RemoveBySource(ctx, link.SourcePath); err != nil {
			return err
		}
		t.bump(func(c *Counts) { c.Removed++ })
	}
	return nil
}

// removeSource drops a vanished source's links and match record.
func (p *Pipeline) removeSource(ctx context.Context, t *Task, sourcePath string) error {
	if err := p.linker.RemoveBySource(ctx, sourcePath); err != nil {
		return err
	}
	if err := p.store.DeleteMatch(ctx, sourcePath); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "pipeline", "delete match", err)
	}
	t.bump(func(c *Counts) { c.Removed++ })
	if err := p.store.LogActivity(ctx, "removed", sourcePath, "source deleted"); err != nil {
		p.logger.Debug("activity log write failed", logging.Error(err))
	}
	return nil
}

// groupForcedID finds an id marker on the group directory or any member file.
func groupForcedID(group *aggregate.Group) (resolve.ForcedID, bool) {
	if forced, ok := resolve.ParseForcedID(filepath.Base(group.Dir)); ok {
		return forced, true
	}
	for _, file := range group.Files {
		if forced, ok := resolve.ParseForcedID(file.Base()); ok {
			return forced, true
		}
	}
	return resolve.ForcedID{}, false
}

// scopeDirs converts changed paths into scan roots: parents of surviving
// paths (so sibling context regroups correctly) and the vanished paths
// themselves.
func scopeDirs(scope []string) (dirs, missing []string) {
	seen := make(map[string]struct{})
	for _, path := range scope {
		if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, path)
			continue
		}
		dir := filepath.Dir(path)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	sort.Strings(missing)
	return dirs, missing
}
