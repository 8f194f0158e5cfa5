// Package resolve turns parsed media groups into canonical metadata matches
// using TMDB, with per-scan caching, rate limiting, and confidence scoring.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"medialink/internal/config"
	"medialink/internal/faults"
	"medialink/internal/logging"
	"medialink/internal/media"
	"medialink/internal/metadata/tmdb"
	"medialink/internal/textutil"
)

// Resolution is the outcome of a metadata lookup for one group.
type Resolution struct {
	State         media.MatchState
	Kind          media.Kind
	MediaID       int64
	CanonicalName string
	Year          int
	Confidence    float64
}

// ForcedID is a TMDB ID embedded in a file or directory name.
type ForcedID struct {
	ID   int64
	Kind media.Kind
}

var forcedIDPattern = regexp.MustCompile(`(?i)\bid-(movie-|tv-)?(\d+)\b`)

// ParseForcedID extracts a forced TMDB ID marker from a name. Markers look
// like "id-603", "id-movie-603", or "id-tv-94605"; the untyped form leaves
// Kind as KindUncertain so the caller's classification decides the endpoint.
func ParseForcedID(name string) (ForcedID, bool) {
	m := forcedIDPattern.FindStringSubmatch(name)
	if m == nil {
		return ForcedID{}, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || id <= 0 {
		return ForcedID{}, false
	}
	forced := ForcedID{ID: id, Kind: media.KindUncertain}
	switch strings.ToLower(strings.TrimRight(m[1], "-")) {
	case "movie":
		forced.Kind = media.KindMovie
	case "tv":
		forced.Kind = media.KindTV
	}
	return forced, true
}

type cacheEntry struct {
	res Resolution
	err error
}

// Resolver performs metadata lookups for a single scan. The cache is scoped
// to the resolver's lifetime so identical groups within one scan make one
// network query.
type Resolver struct {
	searcher  tmdb.Searcher
	threshold float64
	rateLimit time.Duration
	attempts  int
	logger    *slog.Logger

	mu         sync.Mutex
	cache      map[string]cacheEntry
	lastLookup time.Time
}

// New creates a Resolver for one scan pass.
func New(searcher tmdb.Searcher, cfg *config.Config, logger *slog.Logger) *Resolver {
	attempts := cfg.TMDB.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Resolver{
		searcher:   searcher,
		threshold:  cfg.TMDB.ConfidenceThreshold,
		rateLimit:  cfg.RateLimit(),
		attempts:   attempts,
		logger:     logging.NewComponentLogger(logger, "resolve"),
		cache:      make(map[string]cacheEntry),
		lastLookup: time.Unix(0, 0),
	}
}

// Resolve looks up metadata for a title of the given kind. Results are
// cached per (title, year, kind) for the life of the resolver.
func (r *Resolver) Resolve(ctx context.Context, title string, year int, kind media.Kind) (Resolution, error) {
	if r.searcher == nil {
		return Resolution{State: media.StateNotFound}, faults.Wrap(faults.ErrConfiguration, "resolve", "lookup", errors.New("no metadata searcher configured"))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Resolution{State: media.StateNotFound}, nil
	}
	if kind == media.KindUncertain {
		// Uncertain groups are not queried; the operator resolves them.
		return Resolution{State: media.StateUncertain, Kind: kind}, nil
	}

	key := fmt.Sprintf("%s|%d|%s", textutil.NormalizeTitle(title), year, kind)
	r.mu.Lock()
	if entry, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return entry.res, entry.err
	}
	r.mu.Unlock()

	res, err := r.lookup(ctx, title, year, kind)
	if err == nil || !errors.Is(err, context.Canceled) {
		r.mu.Lock()
		r.cache[key] = cacheEntry{res: res, err: err}
		r.mu.Unlock()
	}
	return res, err
}

// ResolveForced fetches metadata for an explicit TMDB ID. An untyped marker
// falls back to the classified kind, and failing that tries movie then TV.
func (r *Resolver) ResolveForced(ctx context.Context, forced ForcedID, classified media.Kind) (Resolution, error) {
	if r.searcher == nil {
		return Resolution{}, faults.Wrap(faults.ErrConfiguration, "resolve", "forced", errors.New("no metadata searcher configured"))
	}
	kind := forced.Kind
	if kind == media.KindUncertain {
		kind = classified
	}

	switch kind {
	case media.KindMovie:
		return r.details(ctx, forced.ID, media.KindMovie)
	case media.KindTV:
		return r.details(ctx, forced.ID, media.KindTV)
	default:
		res, err := r.details(ctx, forced.ID, media.KindMovie)
		if err != nil && tmdb.IsNotFound(err) {
			return r.details(ctx, forced.ID, media.KindTV)
		}
		return res, err
	}
}

func (r *Resolver) details(ctx context.Context, id int64, kind media.Kind) (Resolution, error) {
	var (
		result *tmdb.Result
		err    error
	)
	for attempt := 0; attempt < r.attempts; attempt++ {
		if waitErr := r.throttle(ctx); waitErr != nil {
			return Resolution{}, waitErr
		}
		if kind == media.KindTV {
			result, err = r.searcher.GetTVDetails(ctx, id)
		} else {
			result, err = r.searcher.GetMovieDetails(ctx, id)
		}
		if err == nil || !tmdb.IsTransient(err) {
			break
		}
		if backoffErr := r.backoff(ctx, attempt); backoffErr != nil {
			return Resolution{}, backoffErr
		}
	}
	if err != nil {
		if tmdb.IsNotFound(err) {
			return Resolution{State: media.StateNotFound, Kind: kind}, nil
		}
		return Resolution{}, faults.Wrap(faults.ErrTransient, "resolve", "details", err)
	}
	return Resolution{
		State:         media.StateMatched,
		Kind:          kind,
		MediaID:       result.ID,
		CanonicalName: result.DisplayTitle(),
		Year:          result.Year(),
		Confidence:    1,
	}, nil
}

func (r *Resolver) lookup(ctx context.Context, title string, year int, kind media.Kind) (Resolution, error) {
	var (
		resp *tmdb.Response
		err  error
	)
	for attempt := 0; attempt < r.attempts; attempt++ {
		if waitErr := r.throttle(ctx); waitErr != nil {
			return Resolution{}, waitErr
		}
		if kind == media.KindTV {
			resp, err = r.searcher.SearchTV(ctx, title, year)
		} else {
			resp, err = r.searcher.SearchMovie(ctx, title, year)
		}
		if err == nil || !tmdb.IsTransient(err) {
			break
		}
		r.logger.Warn("metadata lookup failed, retrying",
			logging.String("title", title),
			logging.Int("attempt", attempt+1),
			logging.Error(err))
		if backoffErr := r.backoff(ctx, attempt); backoffErr != nil {
			return Resolution{}, backoffErr
		}
	}
	if err != nil {
		return Resolution{State: media.StateNotFound, Kind: kind}, faults.Wrap(faults.ErrTransient, "resolve", "search", err)
	}
	if resp == nil || len(resp.Results) == 0 {
		// Retry without the year constraint once before giving up.
		if year > 0 {
			return r.lookup(ctx, title, 0, kind)
		}
		return Resolution{State: media.StateNotFound, Kind: kind}, nil
	}

	best, confidence := r.pick(title, year, resp.Results)
	res := Resolution{
		Kind:          kind,
		MediaID:       best.ID,
		CanonicalName: best.DisplayTitle(),
		Year:          best.Year(),
		Confidence:    confidence,
	}
	var resErr error
	if confidence >= r.threshold {
		res.State = media.StateMatched
	} else {
		// The best candidate is kept on the resolution so the operator sees
		// what was almost chosen.
		res.State = media.StateUncertain
		resErr = faults.Wrap(faults.ErrAmbiguous, "resolve", "search",
			fmt.Errorf("best candidate %q scored %.2f below threshold %.2f", res.CanonicalName, confidence, r.threshold))
	}
	r.logger.Debug("resolved title",
		logging.String("title", title),
		logging.String("canonical", res.CanonicalName),
		logging.Int64("media_id", res.MediaID),
		logging.Float64("confidence", confidence),
		logging.String("state", string(res.State)))
	return res, resErr
}

// pick scores candidates by title similarity with a year adjustment and
// returns the best one.
func (r *Resolver) pick(title string, year int, candidates []tmdb.Result) (tmdb.Result, float64) {
	best := candidates[0]
	bestScore := -1.0
	for _, candidate := range candidates {
		score := textutil.Similarity(title, candidate.DisplayTitle())
		if alt := textutil.Similarity(title, candidate.Original()); alt > score {
			score = alt
		}
		if year > 0 && candidate.Year() > 0 {
			diff := year - candidate.Year()
			if diff < 0 {
				diff = -diff
			}
			switch {
			case diff == 0:
				score += 0.1
			case diff == 1:
				score += 0.04
			default:
				score -= 0.1
			}
		}
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		if score > bestScore || (score == bestScore && candidate.VoteCount > best.VoteCount) {
			best = candidate
			bestScore = score
		}
	}
	return best, bestScore
}

func (r *Resolver) throttle(ctx context.Context) error {
	now := time.Now()
	r.mu.Lock()
	wait := r.rateLimit - now.Sub(r.lastLookup)
	if wait > 0 {
		r.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		r.mu.Lock()
	}
	r.lastLookup = time.Now()
	r.mu.Unlock()
	return nil
}

func (r *Resolver) backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(attempt+1) * 500 * time.Millisecond
	if delay > 5*time.Second {
		delay = 5 * time.Second
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
