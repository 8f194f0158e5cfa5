package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Avatar: The Way of Water", "Avatar - The Way of Water"},
		{"What If...?", "What If"},
		{"AC/DC Live", "AC-DC Live"},
		{"Name <with> \"bad\" chars|", "Name with bad chars"},
		{"Trailing dots... ", "Trailing dots"},
		{"Already Clean", "Already Clean"},
	}
	for _, tc := range cases {
		got := SanitizeFileName(tc.in)
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameIdempotent(t *testing.T) {
	inputs := []string{
		"Avatar: The Way of Water",
		"Weird * Name ? <ok>",
		"dots....",
		"plain",
	}
	for _, in := range inputs {
		once := SanitizeFileName(in)
		twice := SanitizeFileName(once)
		if once != twice {
			t.Fatalf("sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The.Matrix", "the matrix"},
		{"  Spaced   Out  ", "spaced out"},
		{"Titlé-Cased!", "titlé cased"},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("The Matrix", "the.matrix"); got != 1 {
		t.Fatalf("identical titles score %v, want 1", got)
	}
	if got := Similarity("anything", ""); got != 0 {
		t.Fatalf("empty title scores %v, want 0", got)
	}
	partial := Similarity("The Lord of the Rings", "Lord of the Rings")
	if partial <= 0.5 || partial >= 1 {
		t.Fatalf("partial overlap scores %v, want in (0.5, 1)", partial)
	}
	if Similarity("Alien", "Heat") != 0 {
		t.Fatalf("disjoint titles should score 0")
	}
}
