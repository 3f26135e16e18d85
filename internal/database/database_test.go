package database

import (
	"path/filepath"
	"testing"

	"revify/pkg/models"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSongs(t *testing.T) {
	db := newTestDB(t)

	song := models.Song{
		Title:    "Test Song",
		Artist:   "Test Artist",
		Genre:    "Electronic",
		Duration: 180,
		AudioURL: "http://assets.local/audio/test.mp3",
		CoverURL: "http://assets.local/covers/test.jpg",
	}

	id, err := db.InsertSong(song)
	if err != nil {
		t.Fatalf("Failed to insert song: %v", err)
	}

	t.Run("GetByID", func(t *testing.T) {
		got, err := db.GetSongByID(id)
		if err != nil {
			t.Fatalf("Failed to get song: %v", err)
		}
		if got.Title != song.Title {
			t.Errorf("Expected title %s, got %s", song.Title, got.Title)
		}
		if got.Duration != song.Duration {
			t.Errorf("Expected duration %d, got %d", song.Duration, got.Duration)
		}
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		_, err := db.GetSongByID(9999)
		if err == nil {
			t.Fatal("Expected error for missing song")
		}
	})

	t.Run("GetAll", func(t *testing.T) {
		songs, err := db.GetAllSongs()
		if err != nil {
			t.Fatalf("Failed to get all songs: %v", err)
		}
		if len(songs) != 1 {
			t.Errorf("Expected 1 song, got %d", len(songs))
		}
	})

	t.Run("Search", func(t *testing.T) {
		songs, err := db.SearchSongs("Test Art")
		if err != nil {
			t.Fatalf("Failed to search songs: %v", err)
		}
		if len(songs) != 1 {
			t.Errorf("Expected 1 match, got %d", len(songs))
		}

		songs, err = db.SearchSongs("no such thing")
		if err != nil {
			t.Fatalf("Failed to search songs: %v", err)
		}
		if len(songs) != 0 {
			t.Errorf("Expected 0 matches, got %d", len(songs))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := db.DeleteSong(id); err != nil {
			t.Fatalf("Failed to delete song: %v", err)
		}
		if _, err := db.GetSongByID(id); err == nil {
			t.Error("Expected error after deletion")
		}
	})
}

func TestLikes(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.CreateUser("alice", "hash"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	songID, err := db.InsertSong(models.Song{Title: "A", Artist: "B", AudioURL: "u"})
	if err != nil {
		t.Fatalf("Failed to insert song: %v", err)
	}

	if err := db.LikeSong("alice", songID); err != nil {
		t.Fatalf("Failed to like song: %v", err)
	}
	// Liking twice must not error or duplicate
	if err := db.LikeSong("alice", songID); err != nil {
		t.Fatalf("Second like failed: %v", err)
	}

	ids, err := db.GetLikedSongIDs("alice")
	if err != nil {
		t.Fatalf("Failed to get liked IDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != songID {
		t.Errorf("Expected [%d], got %v", songID, ids)
	}

	if err := db.UnlikeSong("alice", songID); err != nil {
		t.Fatalf("Failed to unlike song: %v", err)
	}
	ids, _ = db.GetLikedSongIDs("alice")
	if len(ids) != 0 {
		t.Errorf("Expected no likes, got %v", ids)
	}
}

func TestPlaylists(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.CreateUser("bob", "hash"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	songA, _ := db.InsertSong(models.Song{Title: "A", Artist: "X", AudioURL: "u"})
	songB, _ := db.InsertSong(models.Song{Title: "B", Artist: "Y", AudioURL: "u"})

	plID, err := db.CreatePlaylist("bob", "Mix")
	if err != nil {
		t.Fatalf("Failed to create playlist: %v", err)
	}

	t.Run("AddSongsKeepsOrder", func(t *testing.T) {
		if err := db.AddSongToPlaylist(plID, songA); err != nil {
			t.Fatalf("Failed to add song: %v", err)
		}
		if err := db.AddSongToPlaylist(plID, songB); err != nil {
			t.Fatalf("Failed to add song: %v", err)
		}
		// Re-adding is a no-op
		if err := db.AddSongToPlaylist(plID, songA); err != nil {
			t.Fatalf("Duplicate add failed: %v", err)
		}

		songs, err := db.GetPlaylistSongs(plID)
		if err != nil {
			t.Fatalf("Failed to get playlist songs: %v", err)
		}
		if len(songs) != 2 {
			t.Fatalf("Expected 2 songs, got %d", len(songs))
		}
		if songs[0].ID != songA || songs[1].ID != songB {
			t.Errorf("Expected order [%d %d], got [%d %d]", songA, songB, songs[0].ID, songs[1].ID)
		}
	})

	t.Run("OwnershipEnforced", func(t *testing.T) {
		if _, err := db.GetPlaylist("mallory", plID); err == nil {
			t.Error("Expected error for wrong owner")
		}
		if err := db.DeletePlaylist("mallory", plID); err == nil {
			t.Error("Expected error deleting someone else's playlist")
		}
	})

	t.Run("RenameAndDelete", func(t *testing.T) {
		if err := db.RenamePlaylist("bob", plID, "Road Trip"); err != nil {
			t.Fatalf("Failed to rename playlist: %v", err)
		}
		pl, err := db.GetPlaylist("bob", plID)
		if err != nil {
			t.Fatalf("Failed to get playlist: %v", err)
		}
		if pl.Name != "Road Trip" {
			t.Errorf("Expected renamed playlist, got %s", pl.Name)
		}

		if err := db.DeletePlaylist("bob", plID); err != nil {
			t.Fatalf("Failed to delete playlist: %v", err)
		}
		if _, err := db.GetPlaylist("bob", plID); err == nil {
			t.Error("Expected error after deletion")
		}
	})
}

func TestPlayerState(t *testing.T) {
	db := newTestDB(t)

	t.Run("MissingProfile", func(t *testing.T) {
		state, err := db.GetPlayerState("unknown")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if state != nil {
			t.Errorf("Expected nil state, got %+v", state)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := db.SavePlayerCurrent("dev1", 7, 42.5); err != nil {
			t.Fatalf("Failed to save current: %v", err)
		}
		if err := db.SavePlayerVolume("dev1", 0.3); err != nil {
			t.Fatalf("Failed to save volume: %v", err)
		}
		if err := db.SavePlayerAccount("dev1", "alice", []int{1, 2, 3}); err != nil {
			t.Fatalf("Failed to save account: %v", err)
		}

		state, err := db.GetPlayerState("dev1")
		if err != nil {
			t.Fatalf("Failed to load state: %v", err)
		}
		if state.SongID != 7 || state.Position != 42.5 || state.Volume != 0.3 {
			t.Errorf("Unexpected state: %+v", state)
		}
		if state.Username != "alice" || len(state.LikedIDs) != 3 {
			t.Errorf("Unexpected account state: %+v", state)
		}
	})

	t.Run("ClearAccountKeepsDeviceState", func(t *testing.T) {
		if err := db.ClearPlayerAccount("dev1"); err != nil {
			t.Fatalf("Failed to clear account: %v", err)
		}

		state, err := db.GetPlayerState("dev1")
		if err != nil {
			t.Fatalf("Failed to load state: %v", err)
		}
		if state.Username != "" || len(state.LikedIDs) != 0 {
			t.Errorf("Expected cleared account, got %+v", state)
		}
		if state.SongID != 7 || state.Volume != 0.3 {
			t.Errorf("Device state should survive account clear: %+v", state)
		}
	})
}

func TestIngestJobs(t *testing.T) {
	db := newTestDB(t)

	job := &IngestJob{
		ID:       "job-1",
		Filename: "track.mp3",
		Status:   "pending",
	}
	if err := db.UpsertIngestJob(job); err != nil {
		t.Fatalf("Failed to insert job: %v", err)
	}

	job.Status = "completed"
	job.Progress = 100
	job.SongID = 5
	if err := db.UpsertIngestJob(job); err != nil {
		t.Fatalf("Failed to update job: %v", err)
	}

	jobs, err := db.GetAllIngestJobs()
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Status != "completed" || jobs[0].Progress != 100 || jobs[0].SongID != 5 {
		t.Errorf("Unexpected job: %+v", jobs[0])
	}
}
