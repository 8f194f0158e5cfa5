// Package faults defines the error taxonomy shared by the scan pipeline and
// maps failures onto persisted match states.
package faults

import (
	"errors"
	"fmt"
	"strings"

	"medialink/internal/media"
)

var (
	// ErrTransient marks provider/network failures that are retried with backoff.
	ErrTransient = errors.New("transient provider error")
	// ErrNotFound marks lookups with no acceptable candidate; awaits manual input.
	ErrNotFound = errors.New("no match found")
	// ErrAmbiguous marks candidate sets below the confidence threshold.
	ErrAmbiguous = errors.New("ambiguous match")
	// ErrFilesystem marks per-entry filesystem failures; the run continues.
	ErrFilesystem = errors.New("filesystem error")
	// ErrLinkConflict marks a planned target already claimed by a different source.
	ErrLinkConflict = errors.New("link conflict")
	// ErrConfiguration marks systemic misconfiguration fatal to the whole task.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap tags an error with one of the sentinel markers above plus component
// context for later classification.
func Wrap(marker error, component, operation string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := strings.TrimSpace(component)
	if op := strings.TrimSpace(operation); op != "" {
		if detail != "" {
			detail += ": "
		}
		detail += op
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StateFor maps a resolution failure onto the match state recorded for the
// file. Every file ends a run in exactly one state; failures never abort the
// scan unless Fatal reports true.
func StateFor(err error) media.MatchState {
	switch {
	case errors.Is(err, ErrAmbiguous), errors.Is(err, ErrLinkConflict):
		return media.StateUncertain
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTransient):
		return media.StateNotFound
	default:
		return media.StateNotFound
	}
}

// Fatal reports whether an error must abort the entire scan task rather than
// a single file.
func Fatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
