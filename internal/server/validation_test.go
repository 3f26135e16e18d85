package server

import (
	"strings"
	"testing"
)

func TestValidateSongID(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		index    int
		wantID   int
		wantCode string
	}{
		{"valid", []string{"api", "songs", "42"}, 2, 42, ""},
		{"missing segment", []string{"api", "songs"}, 2, 0, "MISSING_SONG_ID"},
		{"empty segment", []string{"api", "songs", ""}, 2, 0, "MISSING_SONG_ID"},
		{"not a number", []string{"api", "songs", "abc"}, 2, 0, "INVALID_SONG_ID_FORMAT"},
		{"zero", []string{"api", "songs", "0"}, 2, 0, "INVALID_SONG_ID_VALUE"},
		{"negative", []string{"api", "songs", "-3"}, 2, 0, "INVALID_SONG_ID_VALUE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, verr := validateSongID(tt.parts, tt.index)
			if tt.wantCode == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %+v", verr)
				}
				if id != tt.wantID {
					t.Errorf("got id %d, want %d", id, tt.wantID)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error, got nil")
			}
			if verr.Code != tt.wantCode {
				t.Errorf("got code %s, want %s", verr.Code, tt.wantCode)
			}
		})
	}
}

func TestValidatePlaylistID(t *testing.T) {
	if _, verr := validatePlaylistID([]string{"api", "users", "bob", "playlists", "7"}, 4); verr != nil {
		t.Fatalf("unexpected error: %+v", verr)
	}
	if _, verr := validatePlaylistID([]string{"api", "users", "bob", "playlists", "x"}, 4); verr == nil {
		t.Fatal("expected validation error for non-numeric id")
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantCode string
	}{
		{"valid", "alice_01", ""},
		{"valid with dash", "dj-bob", ""},
		{"empty", "", "MISSING_USERNAME"},
		{"too short", "ab", "INVALID_USERNAME_LENGTH"},
		{"too long", strings.Repeat("a", 33), "INVALID_USERNAME_LENGTH"},
		{"bad characters", "bob smith", "INVALID_USERNAME_CHARACTERS"},
		{"path traversal", "../etc", "INVALID_USERNAME_CHARACTERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := validateUsername(tt.username)
			if tt.wantCode == "" {
				if verr != nil {
					t.Fatalf("unexpected error: %+v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error, got nil")
			}
			if verr.Code != tt.wantCode {
				t.Errorf("got code %s, want %s", verr.Code, tt.wantCode)
			}
		})
	}
}

func TestValidateSearchQuery(t *testing.T) {
	if verr := validateSearchQuery("daft punk"); verr != nil {
		t.Fatalf("unexpected error: %+v", verr)
	}
	if verr := validateSearchQuery(strings.Repeat("q", 1001)); verr == nil {
		t.Fatal("expected error for oversized query")
	}
	if verr := validateSearchQuery("bad\x00query"); verr == nil {
		t.Fatal("expected error for null byte")
	}
}

func TestValidatePlaylistName(t *testing.T) {
	if verr := validatePlaylistName("Road Trip"); verr != nil {
		t.Fatalf("unexpected error: %+v", verr)
	}
	if verr := validatePlaylistName(""); verr == nil {
		t.Fatal("expected error for empty name")
	}
	if verr := validatePlaylistName("line\nbreak"); verr == nil {
		t.Fatal("expected error for control characters")
	}
	if verr := validatePlaylistName(strings.Repeat("n", 256)); verr == nil {
		t.Fatal("expected error for oversized name")
	}
}

func TestValidateVolume(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		if verr := validateVolume(v); verr != nil {
			t.Errorf("volume %v: unexpected error %+v", v, verr)
		}
	}
	for _, v := range []float64{-0.1, 1.1} {
		if verr := validateVolume(v); verr == nil {
			t.Errorf("volume %v: expected error", v)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  hello\x00world  "); got != "helloworld" {
		t.Errorf("got %q", got)
	}
}

func TestPathSegments(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/api/songs/3", []string{"api", "songs", "3"}},
		{"/", nil},
		{"/api/users/bob/playlists/1/songs", []string{"api", "users", "bob", "playlists", "1", "songs"}},
	}

	for _, tt := range tests {
		got := pathSegments(tt.path)
		if len(got) != len(tt.want) {
			t.Errorf("pathSegments(%q) = %v, want %v", tt.path, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("pathSegments(%q)[%d] = %q, want %q", tt.path, i, got[i], tt.want[i])
			}
		}
	}
}
