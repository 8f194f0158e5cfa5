package resolve

import (
	"context"
	"errors"
	"testing"

	"medialink/internal/faults"
	"medialink/internal/media"
	"medialink/internal/metadata/tmdb"
	"medialink/internal/testsupport"
)

type fakeSearcher struct {
	movieResults []tmdb.Result
	tvResults    []tmdb.Result
	movieCalls   int
	tvCalls      int
	detailCalls  int
	searchErr    error
}

func (f *fakeSearcher) SearchMovie(ctx context.Context, query string, year int) (*tmdb.Response, error) {
	f.movieCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &tmdb.Response{Results: f.movieResults, TotalResults: len(f.movieResults)}, nil
}

func (f *fakeSearcher) SearchTV(ctx context.Context, query string, year int) (*tmdb.Response, error) {
	f.tvCalls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &tmdb.Response{Results: f.tvResults, TotalResults: len(f.tvResults)}, nil
}

func (f *fakeSearcher) GetMovieDetails(ctx context.Context, movieID int64) (*tmdb.Result, error) {
	f.detailCalls++
	return &tmdb.Result{ID: movieID, Title: "Forced Movie", ReleaseDate: "2010-07-16", MediaType: "movie"}, nil
}

func (f *fakeSearcher) GetTVDetails(ctx context.Context, showID int64) (*tmdb.Result, error) {
	f.detailCalls++
	return &tmdb.Result{ID: showID, Name: "Forced Show", FirstAirDate: "2022-09-13", MediaType: "tv"}, nil
}

func newResolver(t *testing.T, searcher tmdb.Searcher) *Resolver {
	t.Helper()
	return New(searcher, testsupport.NewConfig(t), testsupport.Logger())
}

func TestParseForcedID(t *testing.T) {
	cases := []struct {
		name string
		id   int64
		kind media.Kind
		ok   bool
	}{
		{"Inception id-27205", 27205, media.KindUncertain, true},
		{"some.movie.id-movie-603", 603, media.KindMovie, true},
		{"Edgerunners id-tv-94605", 94605, media.KindTV, true},
		{"no marker here", 0, "", false},
		{"gridlock-101", 0, "", false},
	}
	for _, tc := range cases {
		forced, ok := ParseForcedID(tc.name)
		if ok != tc.ok {
			t.Fatalf("ParseForcedID(%q) ok = %v, want %v", tc.name, ok, tc.ok)
		}
		if !ok {
			continue
		}
		if forced.ID != tc.id || forced.Kind != tc.kind {
			t.Fatalf("ParseForcedID(%q) = %+v", tc.name, forced)
		}
	}
}

func TestResolveMatchesAboveThreshold(t *testing.T) {
	searcher := &fakeSearcher{movieResults: []tmdb.Result{
		{ID: 19995, Title: "Avatar", ReleaseDate: "2009-12-18"},
		{ID: 1, Title: "Abattoir", ReleaseDate: "2016-01-01"},
	}}
	r := newResolver(t, searcher)

	res, err := r.Resolve(context.Background(), "Avatar", 2009, media.KindMovie)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State != media.StateMatched {
		t.Fatalf("state = %s, want matched (confidence %v)", res.State, res.Confidence)
	}
	if res.MediaID != 19995 || res.CanonicalName != "Avatar" || res.Year != 2009 {
		t.Fatalf("picked wrong candidate: %+v", res)
	}
}

func TestResolveBelowThresholdIsAmbiguous(t *testing.T) {
	searcher := &fakeSearcher{movieResults: []tmdb.Result{
		{ID: 7, Title: "Completely Different Film", ReleaseDate: "1980-01-01"},
	}}
	r := newResolver(t, searcher)

	res, err := r.Resolve(context.Background(), "Obscure Home Video", 0, media.KindMovie)
	if !errors.Is(err, faults.ErrAmbiguous) {
		t.Fatalf("err = %v, want ErrAmbiguous", err)
	}
	if res.State != media.StateUncertain {
		t.Fatalf("state = %s, want uncertain", res.State)
	}
	// The best candidate is still reported for operator review.
	if res.MediaID != 7 || res.CanonicalName == "" {
		t.Fatalf("candidate not carried: %+v", res)
	}
}

func TestResolveCachesPerTitleYearKind(t *testing.T) {
	searcher := &fakeSearcher{movieResults: []tmdb.Result{
		{ID: 19995, Title: "Avatar", ReleaseDate: "2009-12-18"},
	}}
	r := newResolver(t, searcher)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := r.Resolve(ctx, "Avatar", 2009, media.KindMovie); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
	if searcher.movieCalls != 1 {
		t.Fatalf("made %d queries, want 1 per (title, year, kind)", searcher.movieCalls)
	}

	// Different year is a different cache key.
	if _, err := r.Resolve(ctx, "Avatar", 0, media.KindMovie); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if searcher.movieCalls != 2 {
		t.Fatalf("made %d queries, want 2", searcher.movieCalls)
	}
}

func TestResolveEmptyResultsRetriesWithoutYear(t *testing.T) {
	searcher := &fakeSearcher{}
	r := newResolver(t, searcher)

	res, err := r.Resolve(context.Background(), "Ghost Title", 1999, media.KindMovie)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State != media.StateNotFound {
		t.Fatalf("state = %s, want notfound", res.State)
	}
	if searcher.movieCalls != 2 {
		t.Fatalf("made %d queries, want yearless retry before notfound", searcher.movieCalls)
	}
}

func TestResolveUncertainKindSkipsQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	r := newResolver(t, searcher)

	res, err := r.Resolve(context.Background(), "Mystery", 0, media.KindUncertain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.State != media.StateUncertain {
		t.Fatalf("state = %s, want uncertain", res.State)
	}
	if searcher.movieCalls+searcher.tvCalls != 0 {
		t.Fatalf("uncertain groups must not burn queries")
	}
}

func TestResolveForcedTV(t *testing.T) {
	searcher := &fakeSearcher{}
	r := newResolver(t, searcher)

	res, err := r.ResolveForced(context.Background(), ForcedID{ID: 94605, Kind: media.KindTV}, media.KindUncertain)
	if err != nil {
		t.Fatalf("forced: %v", err)
	}
	if res.Kind != media.KindTV || res.MediaID != 94605 {
		t.Fatalf("got %+v", res)
	}
	if res.CanonicalName != "Forced Show" || res.Year != 2022 {
		t.Fatalf("details not applied: %+v", res)
	}
	if res.State != media.StateMatched {
		t.Fatalf("state = %s, want matched", res.State)
	}
	if searcher.movieCalls+searcher.tvCalls != 0 {
		t.Fatalf("forced id must bypass search")
	}
}

func TestResolveForcedUntypedUsesClassifiedKind(t *testing.T) {
	searcher := &fakeSearcher{}
	r := newResolver(t, searcher)

	res, err := r.ResolveForced(context.Background(), ForcedID{ID: 603, Kind: media.KindUncertain}, media.KindMovie)
	if err != nil {
		t.Fatalf("forced: %v", err)
	}
	if res.Kind != media.KindMovie || res.CanonicalName != "Forced Movie" {
		t.Fatalf("got %+v", res)
	}
}
