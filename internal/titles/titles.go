// Package titles extracts normalized title, year, and season/episode tokens
// from noisy release-style file and directory names.
package titles

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Parsed is the result of tokenizing one name. Zero values mean "not found".
type Parsed struct {
	Title   string
	Year    int
	Season  int
	Episode int
}

// HasEpisode reports whether an explicit episode marker was present.
func (p Parsed) HasEpisode() bool { return p.Episode > 0 }

var (
	seasonEpisodePattern = regexp.MustCompile(`(?i)\bs(\d{1,2})[ ._-]?e(\d{1,3})\b`)
	episodeOnlyPattern   = regexp.MustCompile(`(?i)\b(?:e|ep|episode)[ ._-]?(\d{1,3})\b`)
	seasonDirPattern     = regexp.MustCompile(`(?i)^(?:season[ ._-]?(\d{1,2})|s(\d{1,2}))$`)
	seasonInlinePattern  = regexp.MustCompile(`(?i)\bseason[ ._-]?(\d{1,2})\b`)
	yearPattern          = regexp.MustCompile(`\b(19[2-9]\d|20\d{2})\b`)
	bracketPattern       = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\{[^}]*\}`)
)

// noiseTokens end the significant part of a title. Resolution, codec, source,
// audio, and platform tags accumulate after the title in release names.
var noiseTokens = []string{
	"2160p", "1080p", "1080i", "720p", "576p", "480p", "4k", "uhd",
	"x264", "x265", "h264", "h265", "h 264", "h 265", "hevc", "avc", "av1",
	"bluray", "blu ray", "bdrip", "brrip", "webrip", "web dl", "webdl", "web",
	"hdtv", "dvdrip", "dvd", "remux", "hdr", "hdr10", "dv", "dovi", "sdr",
	"atmos", "truehd", "dts", "ddp", "dd5", "aac", "ac3", "flac", "opus",
	"amzn", "nf", "hulu", "dsnp", "max", "proper", "repack", "extended",
	"remastered", "unrated", "limited", "internal", "multi", "dual audio",
}

var partPattern = regexp.MustCompile(`(?i)\b(?:cd|disc|disk|part|pt)[ ._-]?(\d{1,2})\b`)

var titleCaser = cases.Title(language.Und)

// Parse tokenizes a bare name (file base name or directory name).
func Parse(name string) Parsed {
	var p Parsed

	// Dots, underscores, and dashes act as separators in release names, but
	// underscores defeat \b matching, so normalize before marker extraction.
	name = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(name)

	if m := seasonEpisodePattern.FindStringSubmatch(name); m != nil {
		p.Season, _ = strconv.Atoi(m[1])
		p.Episode, _ = strconv.Atoi(m[2])
	} else if m := episodeOnlyPattern.FindStringSubmatch(name); m != nil {
		p.Episode, _ = strconv.Atoi(m[1])
	}
	if p.Season == 0 {
		if m := seasonInlinePattern.FindStringSubmatch(name); m != nil {
			p.Season, _ = strconv.Atoi(m[1])
		}
	}
	if m := yearPattern.FindStringSubmatch(name); m != nil {
		p.Year, _ = strconv.Atoi(m[1])
	}

	p.Title = extractTitle(name)
	return p
}

// ParsePath tokenizes the leaf name of path and merges season markers from
// ancestor directories up to (excluding) root. A season found in an ancestor
// directory name takes precedence over one parsed from the leaf, since season
// folders are authoritative about their contents.
func ParsePath(path, root string) Parsed {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	p := Parse(base)

	dir := filepath.Dir(path)
	for dir != "" && dir != "." && dir != "/" && dir != filepath.Clean(root) {
		name := filepath.Base(dir)
		if season, ok := SeasonFromDirName(name); ok {
			p.Season = season
			break
		}
		dir = filepath.Dir(dir)
	}
	return p
}

// SeasonFromDirName recognizes directory names that denote a season folder
// ("Season 2", "S02").
func SeasonFromDirName(name string) (int, bool) {
	if m := seasonDirPattern.FindStringSubmatch(strings.TrimSpace(name)); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		season, err := strconv.Atoi(digits)
		if err == nil && season > 0 {
			return season, true
		}
	}
	return 0, false
}

// PartNumber recognizes multi-part suffixes (CD1, Part 2, Disc 1) used to
// split one movie across several files.
func PartNumber(name string) (int, bool) {
	if m := partPattern.FindStringSubmatch(name); m != nil {
		part, err := strconv.Atoi(m[1])
		if err == nil && part > 0 {
			return part, true
		}
	}
	return 0, false
}

var trailingNumberPattern = regexp.MustCompile(`(\d{1,3})\s*$`)

// TrailingNumber recognizes a bare episode-like number at the end of a name
// ("Show - 03"). Years are not trailing numbers.
func TrailingNumber(name string) (int, bool) {
	cleaned := bracketPattern.ReplaceAllString(name, " ")
	cleaned = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	if yearPattern.MatchString(cleaned) {
		if loc := yearPattern.FindStringIndex(cleaned); loc != nil && loc[1] == len(cleaned) {
			return 0, false
		}
	}
	if m := trailingNumberPattern.FindStringSubmatch(cleaned); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// Display renders a parsed title for presentation when no canonical metadata
// name is available.
func Display(title string) string {
	return titleCaser.String(strings.TrimSpace(title))
}

// extractTitle returns the significant tokens before the first year,
// season/episode marker, or noise token.
func extractTitle(name string) string {
	cleaned := bracketPattern.ReplaceAllString(name, " ")
	cleaned = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")

	cut := len(cleaned)
	if loc := seasonEpisodePattern.FindStringIndex(cleaned); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if loc := episodeOnlyPattern.FindStringIndex(cleaned); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if loc := seasonInlinePattern.FindStringIndex(cleaned); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	if loc := yearPattern.FindStringIndex(cleaned); loc != nil && loc[0] < cut {
		cut = loc[0]
	}

	lowered := strings.ToLower(cleaned)
	for _, token := range noiseTokens {
		idx := indexToken(lowered, token)
		if idx >= 0 && idx < cut {
			cut = idx
		}
	}
	if loc := partPattern.FindStringIndex(cleaned); loc != nil && loc[0] < cut {
		cut = loc[0]
	}

	title := strings.TrimSpace(cleaned[:cut])
	title = strings.Trim(title, "-_. ")
	if title == "" {
		// Name was all markers; fall back to the cleaned form.
		title = strings.TrimSpace(cleaned)
	}
	return title
}

// indexToken finds token in s at a word boundary.
func indexToken(s, token string) int {
	from := 0
	for {
		idx := strings.Index(s[from:], token)
		if idx < 0 {
			return -1
		}
		idx += from
		startOK := idx == 0 || s[idx-1] == ' '
		end := idx + len(token)
		endOK := end == len(s) || s[end] == ' '
		if startOK && endOK {
			return idx
		}
		from = idx + 1
		if from >= len(s) {
			return -1
		}
	}
}
