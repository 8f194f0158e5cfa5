package titles

import "testing"

func TestParseReleaseNames(t *testing.T) {
	cases := []struct {
		name string
		want Parsed
	}{
		{"Avatar.2009.1080p.BluRay.x264", Parsed{Title: "Avatar", Year: 2009}},
		{"The.Matrix.1999.REMUX", Parsed{Title: "The Matrix", Year: 1999}},
		{"Breaking.Bad.S01E02.720p.HDTV", Parsed{Title: "Breaking Bad", Season: 1, Episode: 2}},
		{"show_name_s2e11", Parsed{Title: "show name", Season: 2, Episode: 11}},
		{"Firefly - Episode 03", Parsed{Title: "Firefly", Episode: 3}},
		{"Some Show Season 2", Parsed{Title: "Some Show", Season: 2}},
		{"1917.2019.2160p", Parsed{Title: "1917", Year: 2019}},
		{"Plain Name", Parsed{Title: "Plain Name"}},
	}
	for _, tc := range cases {
		got := Parse(tc.name)
		if got != tc.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestParseStripsBracketedNoise(t *testing.T) {
	got := Parse("[Group] Cowboy Bebop - S01E05 [1080p]")
	if got.Title != "Cowboy Bebop" || got.Season != 1 || got.Episode != 5 {
		t.Fatalf("got %+v", got)
	}
}

func TestParsePathSeasonFromAncestor(t *testing.T) {
	p := ParsePath("/media/Shows/Cyberpunk Edgerunners/Season 1/Episode 04.mkv", "/media/Shows")
	if p.Season != 1 {
		t.Fatalf("season = %d, want 1 (from ancestor directory)", p.Season)
	}
	if p.Episode != 4 {
		t.Fatalf("episode = %d, want 4", p.Episode)
	}
}

func TestParsePathLeafSeasonOverridden(t *testing.T) {
	// A season folder is authoritative over the leaf name.
	p := ParsePath("/media/Shows/Show/S03/Show.S01E02.mkv", "/media/Shows")
	if p.Season != 3 || p.Episode != 2 {
		t.Fatalf("got S%02dE%02d, want S03E02", p.Season, p.Episode)
	}
}

func TestSeasonFromDirName(t *testing.T) {
	cases := []struct {
		name   string
		season int
		ok     bool
	}{
		{"Season 2", 2, true},
		{"season_10", 10, true},
		{"S03", 3, true},
		{"Extras", 0, false},
		{"Session 9", 0, false},
	}
	for _, tc := range cases {
		season, ok := SeasonFromDirName(tc.name)
		if season != tc.season || ok != tc.ok {
			t.Fatalf("SeasonFromDirName(%q) = %d,%v want %d,%v", tc.name, season, ok, tc.season, tc.ok)
		}
	}
}

func TestPartNumber(t *testing.T) {
	cases := []struct {
		name string
		part int
		ok   bool
	}{
		{"Lord of the Rings CD1", 1, true},
		{"movie.part.2", 2, true},
		{"Gettysburg Disc 2", 2, true},
		{"Regular Movie", 0, false},
	}
	for _, tc := range cases {
		part, ok := PartNumber(tc.name)
		if part != tc.part || ok != tc.ok {
			t.Fatalf("PartNumber(%q) = %d,%v want %d,%v", tc.name, part, ok, tc.part, tc.ok)
		}
	}
}

func TestTrailingNumber(t *testing.T) {
	cases := []struct {
		name string
		n    int
		ok   bool
	}{
		{"Show - 03", 3, true},
		{"Episode 12", 12, true},
		{"Movie 1999", 0, false},
		{"Nothing Here", 0, false},
	}
	for _, tc := range cases {
		n, ok := TrailingNumber(tc.name)
		if n != tc.n || ok != tc.ok {
			t.Fatalf("TrailingNumber(%q) = %d,%v want %d,%v", tc.name, n, ok, tc.n, tc.ok)
		}
	}
}
