// Package plan builds canonical target paths inside the shadow library tree.
package plan

import (
	"fmt"
	"path/filepath"
	"strings"

	"medialink/internal/textutil"
)

const (
	moviesDir = "Movies"
	tvDir     = "TV Shows"
)

// MoviePath returns the target path for a movie file relative to the library
// root: Movies/<Name> (<Year>)/<Name> (<Year>)[.partN].<ext>.
func MoviePath(root, name string, year, part int, ext string) string {
	folder := movieFolder(name, year)
	base := folder
	if part > 0 {
		base = fmt.Sprintf("%s.part%d", base, part)
	}
	return filepath.Join(root, moviesDir, folder, base+ext)
}

// EpisodePath returns the target path for a TV episode relative to the
// library root: TV Shows/<Name>/Season <S>/S<SS>E<EE> - <Name>.<ext>.
func EpisodePath(root, show string, season, episode int, ext string) string {
	show = textutil.SanitizeFileName(show)
	if season < 0 {
		season = 0
	}
	return filepath.Join(root, tvDir, show,
		fmt.Sprintf("Season %d", season),
		fmt.Sprintf("S%02dE%02d - %s%s", season, episode, show, ext))
}

// SidecarPath maps a sidecar file next to its video's target. The sidecar
// keeps everything after the video's base name, so "movie.en.srt" beside
// "movie.mkv" lands as "<target base>.en.srt".
func SidecarPath(videoTarget, videoSource, sidecarSource string) string {
	videoBase := strings.TrimSuffix(filepath.Base(videoSource), filepath.Ext(videoSource))
	sidecarName := filepath.Base(sidecarSource)
	suffix := strings.TrimPrefix(sidecarName, videoBase)
	if suffix == sidecarName {
		// Base names diverge; fall back to the sidecar's own extension chain.
		suffix = sidecarSuffix(sidecarName)
	}
	targetBase := strings.TrimSuffix(videoTarget, filepath.Ext(videoTarget))
	return targetBase + suffix
}

func movieFolder(name string, year int) string {
	name = textutil.SanitizeFileName(name)
	if year > 0 {
		return fmt.Sprintf("%s (%d)", name, year)
	}
	return name
}

// sidecarSuffix returns everything from the first dot that still leaves a
// non-empty stem, e.g. "foo.en.srt" yields ".en.srt".
func sidecarSuffix(name string) string {
	if idx := strings.Index(name, "."); idx > 0 {
		return name[idx:]
	}
	return filepath.Ext(name)
}
