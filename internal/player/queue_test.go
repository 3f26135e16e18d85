package player

import (
	"math/rand"
	"testing"

	"revify/pkg/models"
)

func newTestQueue() *Queue {
	return NewQueue(rand.New(rand.NewSource(1)))
}

func TestQueueManualBeatsEverything(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(3)
	current := &catalog[0]

	queued := models.Song{ID: 99, Title: "Queued"}
	q.Enqueue(queued)
	q.ToggleShuffle(current, catalog)

	next, err := q.Next(current, catalog)
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	if next.ID != 99 {
		t.Errorf("expected manual queue entry 99, got %d", next.ID)
	}
	if len(q.Manual()) != 0 {
		t.Errorf("manual queue should be drained, has %d entries", len(q.Manual()))
	}
}

func TestQueueEnqueueDeduplicates(t *testing.T) {
	q := newTestQueue()
	song := models.Song{ID: 7}

	q.Enqueue(song)
	q.Enqueue(song)

	if got := len(q.Manual()); got != 1 {
		t.Errorf("expected 1 queued entry after duplicate enqueue, got %d", got)
	}
}

func TestQueueDequeue(t *testing.T) {
	q := newTestQueue()
	q.Enqueue(models.Song{ID: 1})
	q.Enqueue(models.Song{ID: 2})
	q.Enqueue(models.Song{ID: 3})

	q.Dequeue(1)

	manual := q.Manual()
	if len(manual) != 2 || manual[0].ID != 1 || manual[1].ID != 3 {
		t.Errorf("unexpected queue after dequeue: %v", manual)
	}

	// Out of range indexes are ignored
	q.Dequeue(-1)
	q.Dequeue(10)
	if len(q.Manual()) != 2 {
		t.Errorf("out-of-range dequeue should be a no-op")
	}
}

func TestQueueSequentialAdvanceAndWrap(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(3)

	cases := []struct {
		current int
		want    int
	}{
		{1, 2},
		{2, 3},
		{3, 1}, // wraps past the end
	}
	for _, tc := range cases {
		current := findSong(t, catalog, tc.current)
		next, err := q.Next(&current, catalog)
		if err != nil {
			t.Fatalf("Next from %d: %v", tc.current, err)
		}
		if next.ID != tc.want {
			t.Errorf("Next from %d = %d, want %d", tc.current, next.ID, tc.want)
		}
	}
}

func TestQueueSequentialIsCyclic(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(5)
	current := catalog[2]

	for i := 0; i < len(catalog); i++ {
		next, err := q.Next(&current, catalog)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		current = next
	}
	if current.ID != catalog[2].ID {
		t.Errorf("after %d advances expected to return to song %d, got %d",
			len(catalog), catalog[2].ID, current.ID)
	}
}

func TestQueuePreviousWrapsToEnd(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(3)
	current := catalog[0]

	prev, err := q.Previous(&current, catalog)
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if prev.ID != 3 {
		t.Errorf("Previous from first song = %d, want 3 (wrap)", prev.ID)
	}
}

func TestQueueRepeatOneReturnsCurrent(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(3)
	current := catalog[1]

	q.CycleRepeat() // all
	q.CycleRepeat() // one

	next, err := q.Next(&current, catalog)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.ID != current.ID {
		t.Errorf("repeat one should replay song %d, got %d", current.ID, next.ID)
	}
}

func TestQueueCycleRepeat(t *testing.T) {
	q := newTestQueue()

	want := []RepeatMode{RepeatAll, RepeatOne, RepeatOff, RepeatAll}
	for i, expected := range want {
		if got := q.CycleRepeat(); got != expected {
			t.Errorf("cycle %d = %v, want %v", i, got, expected)
		}
	}
}

func TestQueueShuffleExcludesCurrent(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(10)
	current := catalog[4]

	q.ToggleShuffle(&current, catalog)

	seen := make(map[int]bool)
	for i := 0; i < len(catalog)-1; i++ {
		next, err := q.Next(&current, catalog)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if next.ID == current.ID {
			t.Errorf("shuffle order contains the current song")
		}
		if seen[next.ID] {
			t.Errorf("shuffle order repeated song %d within one pass", next.ID)
		}
		seen[next.ID] = true
	}
}

func TestQueueShuffleExhaustionFallsBackToRandom(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(2)
	current := catalog[0]

	q.ToggleShuffle(&current, catalog)

	// One entry in the projection, then it is exhausted
	for i := 0; i < 5; i++ {
		next, err := q.Next(&current, catalog)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if next.ID == current.ID {
			t.Errorf("random fallback picked the current song")
		}
	}
}

func TestQueueToggleShuffleOffClearsOrder(t *testing.T) {
	q := newTestQueue()
	catalog := testSongs(4)
	current := catalog[0]

	if on := q.ToggleShuffle(&current, catalog); !on {
		t.Fatal("first toggle should enable shuffle")
	}
	if on := q.ToggleShuffle(&current, catalog); on {
		t.Fatal("second toggle should disable shuffle")
	}

	// Back to sequential semantics
	next, err := q.Next(&current, catalog)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if next.ID != 2 {
		t.Errorf("sequential next after shuffle off = %d, want 2", next.ID)
	}
}

func TestQueueEmptyCatalog(t *testing.T) {
	q := newTestQueue()

	_, err := q.Next(nil, nil)
	if _, ok := err.(*QueueEmptyError); !ok {
		t.Errorf("expected QueueEmptyError, got %v", err)
	}

	_, err = q.Previous(nil, nil)
	if _, ok := err.(*QueueEmptyError); !ok {
		t.Errorf("expected QueueEmptyError from Previous, got %v", err)
	}
}

func findSong(t *testing.T, catalog []models.Song, id int) models.Song {
	t.Helper()
	for _, song := range catalog {
		if song.ID == id {
			return song
		}
	}
	t.Fatalf("song %d not in test catalog", id)
	return models.Song{}
}
