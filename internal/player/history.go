package player

import "revify/pkg/models"

// History keeps a bounded, most-recent-first list of played songs.
// Replaying a song moves its entry to the front rather than duplicating it.
// A shorter recently-played view is derived from the same list.
type History struct {
	entries []models.Song
	cap     int
	recent  int
}

// NewHistory creates a history with the given full and recently-played caps.
func NewHistory(cap, recent int) *History {
	if cap <= 0 {
		cap = 50
	}
	if recent <= 0 || recent > cap {
		recent = 6
	}
	return &History{cap: cap, recent: recent}
}

// Record notes that a song started playing.
func (h *History) Record(song models.Song) {
	for i, entry := range h.entries {
		if entry.ID == song.ID {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append([]models.Song{song}, h.entries...)
	if len(h.entries) > h.cap {
		h.entries = h.entries[:h.cap]
	}
}

// All returns the full history, most recent first.
func (h *History) All() []models.Song {
	out := make([]models.Song, len(h.entries))
	copy(out, h.entries)
	return out
}

// Recent returns the recently-played view.
func (h *History) Recent() []models.Song {
	n := h.recent
	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]models.Song, n)
	copy(out, h.entries[:n])
	return out
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Reset drops all entries.
func (h *History) Reset() {
	h.entries = nil
}
