// Package watch detects source-tree changes by polling and fires a scan
// trigger once the tree has been quiet for a configured window.
package watch

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/scanner"
)

// Diff describes the paths that changed between two polls.
type Diff struct {
	Added    []string
	Modified []string
	Removed  []string
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

func (d Diff) merge(other Diff) Diff {
	return Diff{
		Added:    mergePaths(d.Added, other.Added),
		Modified: mergePaths(d.Modified, other.Modified),
		Removed:  mergePaths(d.Removed, other.Removed),
	}
}

// Paths returns every path in the diff, sorted and deduplicated.
func (d Diff) Paths() []string {
	all := mergePaths(mergePaths(d.Added, d.Modified), d.Removed)
	return all
}

type stamp struct {
	size    int64
	modTime time.Time
}

// TriggerFunc is invoked once per settled burst of changes.
type TriggerFunc func(ctx context.Context, diff Diff)

// Watcher polls the source tree and debounces changes through a quiet window.
type Watcher struct {
	scanner      *scanner.Scanner
	pollInterval time.Duration
	quietWindow  time.Duration
	trigger      TriggerFunc
	logger       *slog.Logger

	snapshot   map[string]stamp
	pending    Diff
	hasPending bool
	lastChange time.Time
}

// New creates a Watcher. The trigger fires after the quiet window elapses
// with no further changes; a burst of consecutive changes fires it once.
func New(cfg *config.Config, sc *scanner.Scanner, trigger TriggerFunc, logger *slog.Logger) *Watcher {
	return &Watcher{
		scanner:      sc,
		pollInterval: cfg.PollInterval(),
		quietWindow:  cfg.QuietWindow(),
		trigger:      trigger,
		logger:       logging.NewComponentLogger(logger, "watch"),
	}
}

// Run polls until the context is cancelled. The first poll establishes the
// baseline snapshot without firing the trigger.
func (w *Watcher) Run(ctx context.Context) error {
	baseline, err := w.poll()
	if err != nil {
		return err
	}
	w.snapshot = baseline

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx, time.Now())
		}
	}
}

// tick runs one poll cycle. Split out so tests can drive the clock.
func (w *Watcher) tick(ctx context.Context, now time.Time) {
	current, err := w.poll()
	if err != nil {
		w.logger.Warn("poll failed", logging.Error(err))
		return
	}

	diff := diffSnapshots(w.snapshot, current)
	w.snapshot = current

	if !diff.Empty() {
		w.pending = w.pending.merge(diff)
		w.hasPending = true
		w.lastChange = now
		w.logger.Debug("changes detected",
			logging.Int("added", len(diff.Added)),
			logging.Int("modified", len(diff.Modified)),
			logging.Int("removed", len(diff.Removed)))
		return
	}

	if w.hasPending && now.Sub(w.lastChange) >= w.quietWindow {
		settled := w.pending
		w.pending = Diff{}
		w.hasPending = false
		w.logger.Info("source tree settled, triggering scan",
			logging.Int("changed_paths", len(settled.Paths())))
		w.trigger(ctx, settled)
	}
}

func (w *Watcher) poll() (map[string]stamp, error) {
	listing, err := w.scanner.Scan()
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]stamp, len(listing.Videos)+len(listing.Sidecars))
	for _, file := range listing.Videos {
		snapshot[file.Path] = stamp{size: file.Size, modTime: file.ModTime}
	}
	for _, file := range listing.Sidecars {
		snapshot[file.Path] = stamp{size: file.Size, modTime: file.ModTime}
	}
	return snapshot, nil
}

func diffSnapshots(prev, current map[string]stamp) Diff {
	var diff Diff
	for path, cur := range current {
		old, ok := prev[path]
		switch {
		case !ok:
			diff.Added = append(diff.Added, path)
		case old.size != cur.size || !old.modTime.Equal(cur.modTime):
			diff.Modified = append(diff.Modified, path)
		}
	}
	for path := range prev {
		if _, ok := current[path]; !ok {
			diff.Removed = append(diff.Removed, path)
		}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Modified)
	sort.Strings(diff.Removed)
	return diff
}

func mergePaths(a, b []string) []string {
	if len(a) == 0 {
		return append([]string(nil), b...)
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, path := range list {
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
