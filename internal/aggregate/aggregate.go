// Package aggregate clusters scanned files into logical media groups: a
// movie's multi-part files, or a season's episode files.
package aggregate

import (
	"path/filepath"
	"sort"
	"strings"

	"medialink/internal/media"
	"medialink/internal/textutil"
	"medialink/internal/titles"
)

// sameTitleThreshold is the similarity above which co-located files are
// considered parts of the same work.
const sameTitleThreshold = 0.75

// Group is a cluster of files believed to represent a single logical work.
// Groups are recomputed on every scan pass; only the store remembers
// per-file identity across runs.
type Group struct {
	// Key derives from the parent directory plus the normalized title, so the
	// same cluster yields the same key on every pass.
	Key   string
	Dir   string
	Title string
	Year  int
	// Season is set when the group's directory is a season folder.
	Season int
	// Files are ordered naturally (digit runs compared numerically), which
	// seeds positional episode inference.
	Files []media.File
	// MultiPart marks CD1/CD2-style movie splits.
	MultiPart bool
	// SeasonDir reports whether a "Season N" ancestor anchors this group.
	SeasonDir bool
	// EpisodeMarkers counts members with explicit episode markers.
	EpisodeMarkers int
}

// Build clusters files into groups. Files sharing a parent directory are
// provisionally one group; clearly different titles in one directory split
// into separate groups, and multi-part movie files collapse into one.
func Build(root string, files []media.File) []*Group {
	byDir := make(map[string][]media.File)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], f)
	}
	sort.Strings(dirs)

	var groups []*Group
	for _, dir := range dirs {
		members := byDir[dir]
		sort.Slice(members, func(i, j int) bool {
			return naturalLess(members[i].Path, members[j].Path)
		})
		groups = append(groups, splitDirectory(root, dir, members)...)
	}
	return groups
}

// splitDirectory partitions one directory's files into groups by fuzzy title
// similarity, then finalizes titles and structural hints.
func splitDirectory(root, dir string, members []media.File) []*Group {
	type cluster struct {
		title string
		files []media.File
	}
	var clusters []*cluster

	for _, f := range members {
		parsed := titles.Parse(f.Base())
		// "Show - 1" and "Show - 2" are the same work; the trailing number
		// must not defeat clustering.
		clusterTitle := stripTrailingNumber(parsed.Title)
		placed := false
		for _, c := range clusters {
			if textutil.Similarity(c.title, clusterTitle) >= sameTitleThreshold {
				c.files = append(c.files, f)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{title: clusterTitle, files: []media.File{f}})
		}
	}

	groups := make([]*Group, 0, len(clusters))
	for _, c := range clusters {
		groups = append(groups, finalize(root, dir, c.files))
	}
	return groups
}

func finalize(root, dir string, files []media.File) *Group {
	g := &Group{Dir: dir, Files: files}

	season, seasonDir := titles.SeasonFromDirName(filepath.Base(dir))
	if seasonDir {
		g.Season = season
		g.SeasonDir = true
	}

	parts := 0
	for _, f := range files {
		parsed := titles.Parse(f.Base())
		if parsed.HasEpisode() {
			g.EpisodeMarkers++
		}
		if _, ok := titles.PartNumber(f.Base()); ok {
			parts++
		}
	}
	g.MultiPart = len(files) > 1 && parts == len(files) && g.EpisodeMarkers == 0

	g.Title, g.Year = groupTitle(root, dir, seasonDir, files)
	if g.Season == 0 {
		if parsed := titles.Parse(files[0].Base()); parsed.Season > 0 {
			g.Season = parsed.Season
		}
	}

	g.Key = dir + "|" + textutil.NormalizeTitle(g.Title)
	return g
}

// groupTitle picks the most reliable title source. The directory name is
// preferred over episode file names; for season folders the show folder above
// them names the work; for loose files in the source root only the file name
// is available.
func groupTitle(root, dir string, seasonDir bool, files []media.File) (string, int) {
	cleanRoot := filepath.Clean(root)
	titleDir := dir
	if seasonDir {
		titleDir = filepath.Dir(dir)
	}

	if filepath.Clean(titleDir) == cleanRoot {
		parsed := titles.Parse(files[0].Base())
		return parsed.Title, parsed.Year
	}

	parsed := titles.Parse(filepath.Base(titleDir))
	if parsed.Title == "" {
		parsed = titles.Parse(files[0].Base())
	}
	if parsed.Year == 0 {
		if fromFile := titles.Parse(files[0].Base()); fromFile.Year > 0 {
			parsed.Year = fromFile.Year
		}
	}
	return parsed.Title, parsed.Year
}

// stripTrailingNumber drops an episode-like number from the end of a title
// so sequentially numbered files cluster together.
func stripTrailingNumber(title string) string {
	if _, ok := titles.TrailingNumber(title); !ok {
		return title
	}
	trimmed := strings.TrimRight(strings.TrimRight(title, "0123456789"), " -_.")
	if trimmed == "" {
		return title
	}
	return trimmed
}

// naturalLess orders names treating digit runs as numbers, so ep2 sorts
// before ep10.
func naturalLess(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		aDigit, bDigit := isDigit(a[0]), isDigit(b[0])
		if aDigit && bDigit {
			aNum, aRest := takeDigits(a)
			bNum, bRest := takeDigits(b)
			if aNum != bNum {
				return aNum < bNum
			}
			a, b = aRest, bRest
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func takeDigits(s string) (int, string) {
	i := 0
	value := 0
	for i < len(s) && isDigit(s[i]) {
		value = value*10 + int(s[i]-'0')
		i++
	}
	return value, s[i:]
}
