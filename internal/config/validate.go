package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.SourceDir == "" {
		problems = append(problems, "source_dir must be set")
	}
	if c.TargetDir == "" {
		problems = append(problems, "target_dir must be set")
	}
	if c.SourceDir != "" && c.SourceDir == c.TargetDir {
		problems = append(problems, "source_dir and target_dir must differ")
	}
	if c.DatabasePath == "" {
		problems = append(problems, "database_path must be set")
	}
	if len(c.VideoExtensions) == 0 {
		problems = append(problems, "video_extensions must not be empty")
	}
	if c.TMDB.ConfidenceThreshold < 0 || c.TMDB.ConfidenceThreshold > 1 {
		problems = append(problems, "tmdb.confidence_threshold must be between 0 and 1")
	}
	if c.TMDB.RetryAttempts < 1 {
		problems = append(problems, "tmdb.retry_attempts must be at least 1")
	}
	if c.Watch.PollIntervalSeconds < 1 {
		problems = append(problems, "watch.poll_interval_seconds must be at least 1")
	}
	if c.Watch.QuietWindowSeconds < 0 {
		problems = append(problems, "watch.quiet_window_seconds must not be negative")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
