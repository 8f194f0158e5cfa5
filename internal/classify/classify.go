// Package classify decides Movie vs TV per aggregated group using structural
// and parsed signals.
package classify

import (
	"medialink/internal/aggregate"
	"medialink/internal/media"
	"medialink/internal/titles"
)

// Classify determines the kind of a group. Decision order: an explicit forced
// kind wins unconditionally; season/episode structure means TV; a single or
// CD-split member with a year and no episode signal means Movie; anything
// else is Uncertain and routed to manual resolution without a metadata query.
func Classify(group *aggregate.Group, forced media.Kind) media.Kind {
	if forced == media.KindMovie || forced == media.KindTV {
		return forced
	}

	if group.SeasonDir || group.Season > 0 {
		return media.KindTV
	}
	if group.EpisodeMarkers > 0 {
		return media.KindTV
	}
	if len(group.Files) >= 2 && sequentialNumbering(group) {
		return media.KindTV
	}

	if len(group.Files) == 1 || group.MultiPart {
		if group.Year > 0 {
			return media.KindMovie
		}
		// No year and no episode signal: a bare title is not enough evidence
		// to burn a metadata query on.
		return media.KindUncertain
	}

	return media.KindUncertain
}

// sequentialNumbering reports whether at least two members carry episode-like
// sequential numbers, which distinguishes an episode dump from a folder of
// unrelated films.
func sequentialNumbering(group *aggregate.Group) bool {
	var numbers []int
	for _, f := range group.Files {
		parsed := titles.Parse(f.Base())
		switch {
		case parsed.Episode > 0:
			numbers = append(numbers, parsed.Episode)
		default:
			if n, ok := titles.TrailingNumber(f.Base()); ok {
				numbers = append(numbers, n)
			}
		}
	}
	if len(numbers) < 2 {
		return false
	}
	sequential := 0
	for i := 1; i < len(numbers); i++ {
		if numbers[i] == numbers[i-1]+1 {
			sequential++
		}
	}
	return sequential >= 1
}
