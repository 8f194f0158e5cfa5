// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/store"
)

// NewConfig returns a validated config rooted in temp directories.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.SourceDir = filepath.Join(base, "source")
	cfg.TargetDir = filepath.Join(base, "target")
	cfg.DatabasePath = filepath.Join(base, "state", "medialink.db")
	cfg.TMDB.APIKey = "test-key"
	cfg.TMDB.RateLimitMS = 0
	cfg.TMDB.RetryAttempts = 1
	for _, dir := range []string{cfg.SourceDir, cfg.TargetDir, filepath.Dir(cfg.DatabasePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a store on the config's database path and closes it
// when the test ends.
func MustOpenStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// Logger returns a silent logger for tests.
var Logger = logging.NewNop
