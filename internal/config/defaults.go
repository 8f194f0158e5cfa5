package config

const (
	defaultSourceDir           = "~/downloads"
	defaultTargetDir           = "~/library"
	defaultDatabasePath        = "~/.local/share/medialink/medialink.db"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultTMDBLanguage        = "en-US"
	defaultConfidenceThreshold = 0.58
	defaultRateLimitMS         = 250
	defaultRetryAttempts       = 3
	defaultPollSeconds         = 60
	defaultQuietSeconds        = 60
	defaultLogLevel            = "info"
	defaultLogFormat           = "console"
)

var defaultVideoExtensions = []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".ts", ".wmv"}

var defaultSubtitleExtensions = []string{".srt", ".ass", ".ssa", ".sub", ".vtt"}

// defaultIgnoreNames covers system clutter and in-progress download markers.
var defaultIgnoreNames = []string{"#recycle", "@eaDir", ".DS_Store", "Thumbs.db", "*.part", "*.!qB", "*.tmp"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		SourceDir:          defaultSourceDir,
		TargetDir:          defaultTargetDir,
		DatabasePath:       defaultDatabasePath,
		VideoExtensions:    append([]string(nil), defaultVideoExtensions...),
		SubtitleExtensions: append([]string(nil), defaultSubtitleExtensions...),
		IgnoreNames:        append([]string(nil), defaultIgnoreNames...),
		TMDB: TMDB{
			BaseURL:             defaultTMDBBaseURL,
			Language:            defaultTMDBLanguage,
			ConfidenceThreshold: defaultConfidenceThreshold,
			RateLimitMS:         defaultRateLimitMS,
			RetryAttempts:       defaultRetryAttempts,
		},
		Watch: Watch{
			PollIntervalSeconds: defaultPollSeconds,
			QuietWindowSeconds:  defaultQuietSeconds,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
