package media

import "testing"

func TestParseState(t *testing.T) {
	tests := []struct {
		input string
		want  MatchState
		ok    bool
	}{
		{"matched", StateMatched, true},
		{" Manual ", StateManual, true},
		{"IGNORED", StateIgnored, true},
		{"linked", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseState(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseState(%q) = %q, %v, want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSticky(t *testing.T) {
	for _, state := range AllStates() {
		want := state == StateManual || state == StateIgnored
		if state.Sticky() != want {
			t.Errorf("%s.Sticky() = %v, want %v", state, state.Sticky(), want)
		}
	}
}

func TestFileBase(t *testing.T) {
	f := File{Path: "/media/incoming/show/episode.one.mkv", Ext: ".mkv"}
	if got := f.Base(); got != "episode.one" {
		t.Errorf("Base() = %q", got)
	}
}
