package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New("test-key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSearchMovieDecodesOriginalTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "Oldboy" || q.Get("primary_release_year") != "2003" {
			t.Fatalf("query params = %v", q)
		}
		if q.Get("api_key") != "test-key" || q.Get("language") != "en-US" {
			t.Fatalf("missing auth params: %v", q)
		}
		w.Write([]byte(`{"page":1,"total_results":1,"results":[
			{"id":670,"title":"Oldboy","original_title":"올드보이","release_date":"2003-11-21","vote_count":9000}
		]}`))
	})

	resp, err := client.SearchMovie(context.Background(), "Oldboy", 2003)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %+v", resp.Results)
	}
	got := resp.Results[0]
	if got.DisplayTitle() != "Oldboy" || got.Original() != "올드보이" {
		t.Fatalf("titles = %q / %q", got.DisplayTitle(), got.Original())
	}
	if got.Year() != 2003 {
		t.Fatalf("year = %d", got.Year())
	}
}

func TestSearchTVDecodesOriginalName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if year := r.URL.Query().Get("first_air_date_year"); year != "2016" {
			t.Fatalf("first_air_date_year = %q", year)
		}
		w.Write([]byte(`{"page":1,"total_results":1,"results":[
			{"id":65930,"name":"My Hero Academia","original_name":"僕のヒーローアカデミア","first_air_date":"2016-04-03"}
		]}`))
	})

	resp, err := client.SearchTV(context.Background(), "My Hero Academia", 2016)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	got := resp.Results[0]
	if got.DisplayTitle() != "My Hero Academia" {
		t.Fatalf("display title = %q", got.DisplayTitle())
	}
	// TV payloads spell the field original_name, not original_title.
	if got.Original() != "僕のヒーローアカデミア" {
		t.Fatalf("original = %q", got.Original())
	}
	if got.Year() != 2016 {
		t.Fatalf("year = %d", got.Year())
	}
}

func TestStatusErrorClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetMovieDetails(context.Background(), 99999999)
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
	if IsTransient(err) {
		t.Fatalf("404 classified transient")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		t.Fatalf("status = %+v", statusErr)
	}
	if !IsTransient(&StatusError{Code: http.StatusTooManyRequests}) {
		t.Fatalf("429 must be transient")
	}
}
