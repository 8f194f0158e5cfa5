package linker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"medialink/internal/config"
	"medialink/internal/faults"
	"medialink/internal/testsupport"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRemapSourceLongestPrefixWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.PathMappings = []config.PathMapping{
		{From: "/mnt/nas", To: "/volume1"},
		{From: "/mnt/nas/downloads", To: "/volume1/Media/Downloads"},
	}
	l := New(cfg, nil, testsupport.Logger())

	got := l.RemapSource("/mnt/nas/downloads/movie.mkv")
	want := "/volume1/Media/Downloads/movie.mkv"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got := l.RemapSource("/elsewhere/movie.mkv"); got != "/elsewhere/movie.mkv" {
		t.Fatalf("unmatched path must pass through, got %q", got)
	}

	// Prefix matching is per path segment, not per byte.
	if got := l.RemapSource("/mnt/nastier/movie.mkv"); got != "/mnt/nastier/movie.mkv" {
		t.Fatalf("partial segment matched: %q", got)
	}
}

func TestLinkCreatesAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())
	ctx := context.Background()

	source := filepath.Join(cfg.SourceDir, "avatar.mkv")
	target := filepath.Join(cfg.TargetDir, "Movies", "Avatar (2009)", "Avatar (2009).mkv")
	writeFile(t, source)

	for i := 0; i < 2; i++ {
		if err := l.Link(ctx, source, target); err != nil {
			t.Fatalf("link pass %d: %v", i, err)
		}
	}

	dest, err := os.Readlink(target)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if dest != source {
		t.Fatalf("link points at %q, want %q", dest, source)
	}

	records, err := st.LinksBySource(ctx, source)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d link records, want 1", len(records))
	}
}

func TestLinkUsesRemappedTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.PathMappings = []config.PathMapping{
		{From: cfg.SourceDir, To: "/volume1/Media/Downloads"},
	}
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())

	source := filepath.Join(cfg.SourceDir, "movie.mkv")
	target := filepath.Join(cfg.TargetDir, "Movies", "M", "M.mkv")
	writeFile(t, source)

	if err := l.Link(context.Background(), source, target); err != nil {
		t.Fatalf("link: %v", err)
	}
	dest, err := os.Readlink(target)
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	want := "/volume1/Media/Downloads/movie.mkv"
	if dest != want {
		t.Fatalf("symlink content %q, want remapped %q", dest, want)
	}
}

func TestLinkReplacesStaleTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())
	ctx := context.Background()

	source := filepath.Join(cfg.SourceDir, "film.mkv")
	oldTarget := filepath.Join(cfg.TargetDir, "Movies", "Old Name (2001)", "Old Name (2001).mkv")
	newTarget := filepath.Join(cfg.TargetDir, "Movies", "New Name (2001)", "New Name (2001).mkv")
	writeFile(t, source)

	if err := l.Link(ctx, source, oldTarget); err != nil {
		t.Fatalf("first link: %v", err)
	}
	if err := l.Link(ctx, source, newTarget); err != nil {
		t.Fatalf("second link: %v", err)
	}

	if _, err := os.Lstat(oldTarget); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale symlink still present at %s", oldTarget)
	}
	// The emptied movie folder is pruned, the target root survives.
	if _, err := os.Stat(filepath.Dir(oldTarget)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("empty folder %s not pruned", filepath.Dir(oldTarget))
	}
	if _, err := os.Stat(cfg.TargetDir); err != nil {
		t.Fatalf("target root must survive pruning: %v", err)
	}
	if _, err := os.Readlink(newTarget); err != nil {
		t.Fatalf("new link missing: %v", err)
	}

	records, err := st.LinksBySource(ctx, source)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(records) != 1 || records[0].TargetPath != newTarget {
		t.Fatalf("records = %+v", records)
	}
}

func TestLinkLeavesForeignLinkIntact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())
	ctx := context.Background()

	first := filepath.Join(cfg.SourceDir, "release-a", "film.mkv")
	second := filepath.Join(cfg.SourceDir, "release-b", "film.mkv")
	target := filepath.Join(cfg.TargetDir, "Movies", "Film (2020)", "Film (2020).mkv")
	writeFile(t, first)
	writeFile(t, second)

	if err := l.Link(ctx, first, target); err != nil {
		t.Fatalf("first link: %v", err)
	}

	err := l.Link(ctx, second, target)
	if !errors.Is(err, faults.ErrLinkConflict) {
		t.Fatalf("err = %v, want link conflict", err)
	}

	// The prior source keeps both its symlink and its record.
	if dest, readErr := os.Readlink(target); readErr != nil || dest != first {
		t.Fatalf("symlink %v -> %q, want %q", readErr, dest, first)
	}
	rec, getErr := st.GetLink(ctx, target)
	if getErr != nil || rec == nil || rec.SourcePath != first {
		t.Fatalf("claim record = %+v (%v), want source %q", rec, getErr, first)
	}
	stolen, listErr := st.LinksBySource(ctx, second)
	if listErr != nil {
		t.Fatalf("links: %v", listErr)
	}
	if len(stolen) != 0 {
		t.Fatalf("conflicting source recorded links: %+v", stolen)
	}
}

func TestLinkReclaimsTargetWithVanishedSymlink(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())
	ctx := context.Background()

	first := filepath.Join(cfg.SourceDir, "release-a", "film.mkv")
	second := filepath.Join(cfg.SourceDir, "release-b", "film.mkv")
	target := filepath.Join(cfg.TargetDir, "Movies", "Film (2020)", "Film (2020).mkv")
	writeFile(t, first)
	writeFile(t, second)

	if err := l.Link(ctx, first, target); err != nil {
		t.Fatalf("first link: %v", err)
	}
	// A record whose symlink is gone no longer claims the target.
	if err := os.Remove(target); err != nil {
		t.Fatalf("remove symlink: %v", err)
	}

	if err := l.Link(ctx, second, target); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if dest, err := os.Readlink(target); err != nil || dest != second {
		t.Fatalf("symlink %v -> %q, want %q", err, dest, second)
	}
}

func TestLinkRefusesToClobberRegularFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())

	source := filepath.Join(cfg.SourceDir, "film.mkv")
	target := filepath.Join(cfg.TargetDir, "occupied.mkv")
	writeFile(t, source)
	writeFile(t, target)

	err := l.Link(context.Background(), source, target)
	if !errors.Is(err, faults.ErrLinkConflict) {
		t.Fatalf("err = %v, want link conflict", err)
	}

	// The occupying file must be untouched.
	if info, statErr := os.Lstat(target); statErr != nil || !info.Mode().IsRegular() {
		t.Fatalf("occupying file was modified")
	}
}

func TestRemoveBySourcePrunesEmptyDirs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())
	ctx := context.Background()

	source := filepath.Join(cfg.SourceDir, "film.mkv")
	target := filepath.Join(cfg.TargetDir, "Movies", "Film (2020)", "Film (2020).mkv")
	writeFile(t, source)

	if err := l.Link(ctx, source, target); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := l.RemoveBySource(ctx, source); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := os.Lstat(target); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("symlink survived removal")
	}
	if _, err := os.Stat(filepath.Dir(target)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("empty movie folder not pruned")
	}
	if _, err := os.Stat(cfg.TargetDir); err != nil {
		t.Fatalf("target root must survive pruning: %v", err)
	}

	records, err := st.LinksBySource(ctx, source)
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records remain: %+v", records)
	}
}

func TestRebuildRecoversLinkRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	l := New(cfg, st, testsupport.Logger())
	ctx := context.Background()

	source := filepath.Join(cfg.SourceDir, "film.mkv")
	target := filepath.Join(cfg.TargetDir, "Movies", "Film (2020)", "Film (2020).mkv")
	writeFile(t, source)
	if err := l.Link(ctx, source, target); err != nil {
		t.Fatalf("link: %v", err)
	}

	// Simulate a lost database.
	if err := st.DeleteLinksBySource(ctx, source); err != nil {
		t.Fatalf("wipe: %v", err)
	}

	count, err := l.Rebuild(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if count != 1 {
		t.Fatalf("recovered %d links, want 1", count)
	}
	rec, err := st.GetLink(ctx, target)
	if err != nil || rec == nil {
		t.Fatalf("link record not recovered: %v %+v", err, rec)
	}
	if rec.SourcePath != source {
		t.Fatalf("source = %q, want %q", rec.SourcePath, source)
	}
}
