package media

import (
	"strings"
	"time"
)

// Kind classifies a logical media item.
type Kind string

const (
	KindMovie     Kind = "movie"
	KindTV        Kind = "tv"
	KindUncertain Kind = "uncertain"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindMovie:
		return KindMovie, true
	case KindTV:
		return KindTV, true
	case KindUncertain:
		return KindUncertain, true
	}
	return "", false
}

// MatchState is the persisted resolution state of a source file.
type MatchState string

const (
	StateMatched   MatchState = "matched"
	StateUncertain MatchState = "uncertain"
	StateNotFound  MatchState = "notfound"
	StateManual    MatchState = "manual"
	StateIgnored   MatchState = "ignored"
)

var allStates = []MatchState{
	StateMatched,
	StateUncertain,
	StateNotFound,
	StateManual,
	StateIgnored,
}

// AllStates returns the ordered list of known match states.
func AllStates() []MatchState {
	cp := make([]MatchState, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known MatchState.
func ParseState(value string) (MatchState, bool) {
	normalized := MatchState(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStates {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// Sticky reports whether a state must survive automatic rescans untouched.
// Manual fixes and ignores are operator decisions; the pipeline never
// overwrites them without an explicit clear.
func (s MatchState) Sticky() bool {
	return s == StateManual || s == StateIgnored
}

// File is an immutable snapshot of one physical file under the source root,
// captured at scan time.
type File struct {
	Path    string
	Size    int64
	ModTime time.Time
	Ext     string
	Hidden  bool
}

// Base returns the filename without its extension.
func (f File) Base() string {
	name := f.Path
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, f.Ext)
}
