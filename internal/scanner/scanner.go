// Package scanner walks the source tree and yields candidate media and
// sidecar files. The walk is read-only and tolerates unreadable entries.
package scanner

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"medialink/internal/config"
	"medialink/internal/logging"
	"medialink/internal/media"
)

// Listing is the result of one scan pass.
type Listing struct {
	Videos   []media.File
	Sidecars []media.File
	// Skipped records entries that could not be read (permission errors,
	// broken mounts); the walk continues past them.
	Skipped []string
}

// Scanner walks a source root for media files matching configured extensions.
type Scanner struct {
	root         string
	videoExts    map[string]struct{}
	sidecarExts  map[string]struct{}
	ignoreNames  []string
	logger       *slog.Logger
}

// New builds a scanner from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Scanner {
	return &Scanner{
		root:        cfg.SourceDir,
		videoExts:   extensionSet(cfg.VideoExtensions),
		sidecarExts: extensionSet(cfg.SubtitleExtensions),
		ignoreNames: append([]string(nil), cfg.IgnoreNames...),
		logger:      logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks the root and collects all matching files. Unreadable entries are
// skipped and reported in the listing rather than aborting the walk.
func (s *Scanner) Scan() (*Listing, error) {
	listing := &Listing{}
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == s.root {
				return walkErr
			}
			s.logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(walkErr))
			listing.Skipped = append(listing.Skipped, path)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := entry.Name()
		if entry.IsDir() {
			if path != s.root && s.ignored(name) {
				return fs.SkipDir
			}
			return nil
		}
		if s.ignored(name) || hidden(name) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		_, isVideo := s.videoExts[ext]
		_, isSidecar := s.sidecarExts[ext]
		if !isVideo && !isSidecar {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("skipping unstattable file", logging.String("path", path), logging.Error(err))
			listing.Skipped = append(listing.Skipped, path)
			return nil
		}

		file := media.File{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Ext:     ext,
			Hidden:  hidden(name),
		}
		if isVideo {
			listing.Videos = append(listing.Videos, file)
		} else {
			listing.Sidecars = append(listing.Sidecars, file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// ScanPaths captures snapshots for an explicit set of paths; directories are
// walked, files are statted directly. Used for incremental scans driven by
// the change detector.
func (s *Scanner) ScanPaths(paths []string) (*Listing, error) {
	listing := &Listing{}
	for _, path := range paths {
		sub := &Scanner{
			root:        path,
			videoExts:   s.videoExts,
			sidecarExts: s.sidecarExts,
			ignoreNames: s.ignoreNames,
			logger:      s.logger,
		}
		partial, err := sub.Scan()
		if err != nil {
			s.logger.Warn("skipping unreadable path", logging.String("path", path), logging.Error(err))
			listing.Skipped = append(listing.Skipped, path)
			continue
		}
		listing.Videos = append(listing.Videos, partial.Videos...)
		listing.Sidecars = append(listing.Sidecars, partial.Sidecars...)
		listing.Skipped = append(listing.Skipped, partial.Skipped...)
	}
	return listing, nil
}

// SidecarsFor returns the sidecar files associated with a media file: same
// directory, and the sidecar base name begins with the media base name.
func SidecarsFor(file media.File, sidecars []media.File) []media.File {
	dir := filepath.Dir(file.Path)
	base := file.Base()
	var out []media.File
	for _, sc := range sidecars {
		if filepath.Dir(sc.Path) != dir {
			continue
		}
		if strings.HasPrefix(sc.Base(), base) {
			out = append(out, sc)
		}
	}
	return out
}

func (s *Scanner) ignored(name string) bool {
	for _, pattern := range s.ignoreNames {
		if pattern == name {
			return true
		}
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}
