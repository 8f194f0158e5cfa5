// Package linker maintains the symlink shadow tree and its link records.
// It never touches source files and never replaces a regular file in the
// target tree.
package linker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"medialink/internal/config"
	"medialink/internal/faults"
	"medialink/internal/logging"
	"medialink/internal/store"
)

// Linker creates and reconciles symlinks under the target directory.
type Linker struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
}

// New creates a Linker.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) *Linker {
	return &Linker{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "linker"),
	}
}

// RemapSource rewrites a source path through the configured path mappings.
// The longest matching prefix wins; unmatched paths pass through unchanged.
func (l *Linker) RemapSource(path string) string {
	var best *config.PathMapping
	for i := range l.cfg.PathMappings {
		mapping := &l.cfg.PathMappings[i]
		if !hasPathPrefix(path, mapping.From) {
			continue
		}
		if best == nil || len(mapping.From) > len(best.From) {
			best = mapping
		}
	}
	if best == nil {
		return path
	}
	rest := strings.TrimPrefix(path, best.From)
	rest = strings.TrimPrefix(rest, string(os.PathSeparator))
	return filepath.Join(best.To, rest)
}

// Link points targetPath at sourcePath, removing any stale target this source
// previously occupied. The symlink content is the remapped source path. It is
// idempotent: an existing correct link is left alone. A target already claimed
// by a different source is never stolen: the prior link stays and the call
// fails with ErrLinkConflict.
func (l *Linker) Link(ctx context.Context, sourcePath, targetPath string) error {
	linkTarget := l.RemapSource(sourcePath)

	claimed, err := l.store.GetLink(ctx, targetPath)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, "linker", "lookup target link", err)
	}
	if claimed != nil && claimed.SourcePath != sourcePath {
		// A record with a vanished symlink is stale and may be reclaimed.
		if _, statErr := os.Lstat(targetPath); statErr == nil {
			return faults.Wrap(faults.ErrLinkConflict, "linker", "create symlink",
				fmt.Errorf("target %s is already linked from %s", targetPath, claimed.SourcePath))
		}
	}

	prior, err := l.store.LinksBySource(ctx, sourcePath)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, "linker", "lookup prior links", err)
	}
	for _, rec := range prior {
		if rec.TargetPath == targetPath {
			continue
		}
		l.removeTarget(rec.TargetPath)
		l.pruneEmptyDirs(filepath.Dir(rec.TargetPath))
		l.logger.Info("removed stale link",
			logging.String("target", rec.TargetPath),
			logging.String("replaced_by", targetPath))
	}

	if err := l.ensure(targetPath, linkTarget); err != nil {
		return err
	}

	rec := &store.LinkRecord{
		TargetPath: targetPath,
		SourcePath: sourcePath,
		LinkTarget: linkTarget,
	}
	if err := l.store.ReplaceLink(ctx, rec); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "linker", "record link", err)
	}
	return nil
}

// RemoveBySource deletes every link derived from a source path and prunes
// directories left empty, stopping at the target root.
func (l *Linker) RemoveBySource(ctx context.Context, sourcePath string) error {
	records, err := l.store.LinksBySource(ctx, sourcePath)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, "linker", "lookup links", err)
	}
	for _, rec := range records {
		l.removeTarget(rec.TargetPath)
		l.pruneEmptyDirs(filepath.Dir(rec.TargetPath))
		l.logger.Info("removed link for deleted source",
			logging.String("source", sourcePath),
			logging.String("target", rec.TargetPath))
	}
	if err := l.store.DeleteLinksBySource(ctx, sourcePath); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "linker", "delete link records", err)
	}
	return nil
}

// Rebuild repopulates link records by walking the target tree and reading
// every symlink it finds. Used to recover a lost or reset database.
func (l *Linker) Rebuild(ctx context.Context) (int, error) {
	reverse := l.reverseMappings()
	count := 0
	err := filepath.WalkDir(l.cfg.TargetDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			l.logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(walkErr))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		linkTarget, err := os.Readlink(path)
		if err != nil {
			l.logger.Warn("unreadable symlink", logging.String("path", path), logging.Error(err))
			return nil
		}
		rec := &store.LinkRecord{
			TargetPath: path,
			SourcePath: unmapSource(linkTarget, reverse),
			LinkTarget: linkTarget,
		}
		if err := l.store.SaveLink(ctx, rec); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, faults.Wrap(faults.ErrFilesystem, "linker", "rebuild", err)
	}
	return count, nil
}

// ensure creates the symlink, tolerating an existing identical link and
// refusing to clobber anything that is not a symlink we can account for.
func (l *Linker) ensure(targetPath, linkTarget string) error {
	info, err := os.Lstat(targetPath)
	switch {
	case err == nil && info.Mode()&fs.ModeSymlink != 0:
		existing, readErr := os.Readlink(targetPath)
		if readErr == nil && existing == linkTarget {
			return nil
		}
		// A symlink we wrote earlier with a now-stale destination.
		if removeErr := os.Remove(targetPath); removeErr != nil {
			return faults.Wrap(faults.ErrFilesystem, "linker", "replace symlink", removeErr)
		}
	case err == nil:
		return faults.Wrap(faults.ErrLinkConflict, "linker", "create symlink",
			errors.New("target exists and is not a symlink: "+targetPath))
	case !errors.Is(err, fs.ErrNotExist):
		return faults.Wrap(faults.ErrFilesystem, "linker", "stat target", err)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "linker", "create target directory", err)
	}
	if err := os.Symlink(linkTarget, targetPath); err != nil {
		return faults.Wrap(faults.ErrFilesystem, "linker", "create symlink", err)
	}
	l.logger.Debug("created link",
		logging.String("target", targetPath),
		logging.String("points_to", linkTarget))
	return nil
}

func (l *Linker) removeTarget(targetPath string) {
	info, err := os.Lstat(targetPath)
	if err != nil {
		return
	}
	// Only symlinks are ours to remove.
	if info.Mode()&fs.ModeSymlink == 0 {
		l.logger.Warn("refusing to remove non-symlink target", logging.String("path", targetPath))
		return
	}
	if err := os.Remove(targetPath); err != nil {
		l.logger.Warn("failed to remove stale link", logging.String("path", targetPath), logging.Error(err))
	}
}

// pruneEmptyDirs removes empty directories upward from dir, stopping at the
// target root.
func (l *Linker) pruneEmptyDirs(dir string) {
	root := filepath.Clean(l.cfg.TargetDir)
	for {
		dir = filepath.Clean(dir)
		if dir == root || !hasPathPrefix(dir, root) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// reverseMappings inverts the configured path mappings for rebuild.
func (l *Linker) reverseMappings() []config.PathMapping {
	reversed := make([]config.PathMapping, 0, len(l.cfg.PathMappings))
	for _, mapping := range l.cfg.PathMappings {
		reversed = append(reversed, config.PathMapping{From: mapping.To, To: mapping.From})
	}
	return reversed
}

func unmapSource(linkTarget string, reverse []config.PathMapping) string {
	var best *config.PathMapping
	for i := range reverse {
		mapping := &reverse[i]
		if !hasPathPrefix(linkTarget, mapping.From) {
			continue
		}
		if best == nil || len(mapping.From) > len(best.From) {
			best = mapping
		}
	}
	if best == nil {
		return linkTarget
	}
	rest := strings.TrimPrefix(linkTarget, best.From)
	rest = strings.TrimPrefix(rest, string(os.PathSeparator))
	return filepath.Join(best.To, rest)
}

// hasPathPrefix reports whether path is prefix or lives under it, matching
// on whole path segments.
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}
