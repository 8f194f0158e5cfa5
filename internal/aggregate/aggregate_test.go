package aggregate

import (
	"testing"

	"medialink/internal/media"
)

func file(path string) media.File {
	return media.File{Path: path, Ext: ".mkv"}
}

func TestBuildGroupsByDirectory(t *testing.T) {
	groups := Build("/src", []media.File{
		file("/src/Avatar.2009.1080p/Avatar.2009.1080p.mkv"),
		file("/src/The.Matrix.1999/The.Matrix.1999.mkv"),
	})
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Title != "Avatar" || groups[0].Year != 2009 {
		t.Fatalf("group 0 = %q (%d)", groups[0].Title, groups[0].Year)
	}
	if groups[1].Title != "The Matrix" || groups[1].Year != 1999 {
		t.Fatalf("group 1 = %q (%d)", groups[1].Title, groups[1].Year)
	}
}

func TestBuildSplitsUnrelatedTitlesInOneDirectory(t *testing.T) {
	groups := Build("/src", []media.File{
		file("/src/Alien.1979.mkv"),
		file("/src/Heat.1995.mkv"),
	})
	if len(groups) != 2 {
		t.Fatalf("unrelated titles in the root should split, got %d groups", len(groups))
	}
}

func TestBuildMultiPartMovie(t *testing.T) {
	groups := Build("/src", []media.File{
		file("/src/Gettysburg.1993/Gettysburg.1993.CD2.mkv"),
		file("/src/Gettysburg.1993/Gettysburg.1993.CD1.mkv"),
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if !g.MultiPart {
		t.Fatalf("expected MultiPart")
	}
	if g.Files[0].Path != "/src/Gettysburg.1993/Gettysburg.1993.CD1.mkv" {
		t.Fatalf("parts not in natural order: %q first", g.Files[0].Path)
	}
}

func TestBuildSeasonDirectory(t *testing.T) {
	groups := Build("/src", []media.File{
		file("/src/Breaking Bad/Season 1/Breaking.Bad.S01E01.mkv"),
		file("/src/Breaking Bad/Season 1/Breaking.Bad.S01E02.mkv"),
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if !g.SeasonDir || g.Season != 1 {
		t.Fatalf("season dir not detected: %+v", g)
	}
	if g.Title != "Breaking Bad" {
		t.Fatalf("title from show folder = %q", g.Title)
	}
	if g.EpisodeMarkers != 2 {
		t.Fatalf("episode markers = %d, want 2", g.EpisodeMarkers)
	}
}

func TestBuildNaturalEpisodeOrder(t *testing.T) {
	groups := Build("/src", []media.File{
		file("/src/Show/Show - 10.mkv"),
		file("/src/Show/Show - 2.mkv"),
		file("/src/Show/Show - 1.mkv"),
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	got := []string{}
	for _, f := range groups[0].Files {
		got = append(got, f.Path)
	}
	want := []string{"/src/Show/Show - 1.mkv", "/src/Show/Show - 2.mkv", "/src/Show/Show - 10.mkv"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestBuildStableKey(t *testing.T) {
	build := func() string {
		groups := Build("/src", []media.File{
			file("/src/Avatar.2009/Avatar.2009.mkv"),
		})
		return groups[0].Key
	}
	if build() != build() {
		t.Fatalf("group key must be stable across passes")
	}
}
