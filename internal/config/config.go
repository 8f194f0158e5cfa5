package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// PathMapping rewrites a source-path prefix before it is stored as a link
// target, so links remain valid from the player's view of the filesystem.
type PathMapping struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	Language            string  `toml:"language"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	RateLimitMS         int     `toml:"rate_limit_ms"`
	RetryAttempts       int     `toml:"retry_attempts"`
}

// Watch contains configuration for the polling change detector.
type Watch struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	QuietWindowSeconds  int `toml:"quiet_window_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the root configuration consumed by the pipeline.
type Config struct {
	SourceDir          string        `toml:"source_dir"`
	TargetDir          string        `toml:"target_dir"`
	DatabasePath       string        `toml:"database_path"`
	VideoExtensions    []string      `toml:"video_extensions"`
	SubtitleExtensions []string      `toml:"subtitle_extensions"`
	IgnoreNames        []string      `toml:"ignore_names"`
	PathMappings       []PathMapping `toml:"path_mappings"`
	TMDB               TMDB          `toml:"tmdb"`
	Watch              Watch         `toml:"watch"`
	Logging            Logging       `toml:"logging"`
}

// SampleConfig returns the embedded sample configuration file.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/medialink/config.toml")
}

// Load reads the config file at path, falling back to defaults for any
// omitted keys. A missing file at the default location yields pure defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := expandPath(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	}

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == "":
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PollInterval returns the change-detector polling period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Watch.PollIntervalSeconds) * time.Second
}

// QuietWindow returns the debounce window that must elapse without new
// filesystem differences before a scan is triggered.
func (c *Config) QuietWindow() time.Duration {
	return time.Duration(c.Watch.QuietWindowSeconds) * time.Second
}

// RateLimit returns the minimum spacing between outbound metadata queries.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.TMDB.RateLimitMS) * time.Millisecond
}

// EnsureDirectories creates the target root and the database directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.TargetDir, filepath.Dir(c.DatabasePath)}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
