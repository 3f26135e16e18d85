package player

import (
	"testing"

	"revify/pkg/models"
)

func TestHistoryRecordDeduplicates(t *testing.T) {
	h := NewHistory(50, 6)
	songs := testSongs(3)

	h.Record(songs[0])
	h.Record(songs[1])
	h.Record(songs[0])

	all := h.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries after replay, got %d", len(all))
	}
	if all[0].ID != songs[0].ID {
		t.Errorf("replayed song should move to front, front is %d", all[0].ID)
	}
	if all[1].ID != songs[1].ID {
		t.Errorf("expected song %d second, got %d", songs[1].ID, all[1].ID)
	}
}

func TestHistoryCapped(t *testing.T) {
	h := NewHistory(50, 6)

	for i := 1; i <= 60; i++ {
		h.Record(models.Song{ID: i})
	}

	if h.Len() != 50 {
		t.Errorf("history should cap at 50, has %d", h.Len())
	}
	if front := h.All()[0]; front.ID != 60 {
		t.Errorf("most recent entry should be 60, got %d", front.ID)
	}
}

func TestHistoryRecentView(t *testing.T) {
	h := NewHistory(50, 6)

	for i := 1; i <= 10; i++ {
		h.Record(models.Song{ID: i})
	}

	recent := h.Recent()
	if len(recent) != 6 {
		t.Fatalf("recent view should cap at 6, has %d", len(recent))
	}
	for i, song := range recent {
		if want := 10 - i; song.ID != want {
			t.Errorf("recent[%d] = %d, want %d", i, song.ID, want)
		}
	}
}

func TestHistoryRecentSmallerThanCap(t *testing.T) {
	h := NewHistory(50, 6)
	h.Record(models.Song{ID: 1})

	if got := len(h.Recent()); got != 1 {
		t.Errorf("recent view of single entry should have 1, got %d", got)
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory(50, 6)
	h.Record(models.Song{ID: 1})
	h.Reset()

	if h.Len() != 0 {
		t.Errorf("reset history should be empty, has %d", h.Len())
	}
}
