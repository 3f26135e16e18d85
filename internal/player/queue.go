package player

import (
	"math/rand"

	"revify/pkg/models"
)

// RepeatMode controls what happens when a track finishes.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// Queue decides what plays next. Priority order on advance: repeat-one,
// then the manual queue, then the shuffle projection, then catalog order.
// It never touches playback state itself; callers feed the returned song
// back into the engine.
type Queue struct {
	manual       []models.Song
	shuffleOrder []models.Song
	repeatMode   RepeatMode
	shuffleOn    bool
	rng          *rand.Rand
}

// NewQueue creates an empty queue with the given random source.
func NewQueue(rng *rand.Rand) *Queue {
	return &Queue{rng: rng}
}

// Next resolves the next song to play. The only mutation is draining
// consumed manual-queue and shuffle-order entries.
func (q *Queue) Next(current *models.Song, catalog []models.Song) (models.Song, error) {
	if q.repeatMode == RepeatOne && current != nil {
		return *current, nil
	}

	// Manual queue beats shuffle and sequential order
	if len(q.manual) > 0 {
		next := q.manual[0]
		q.manual = q.manual[1:]
		return next, nil
	}

	if len(catalog) == 0 {
		return models.Song{}, &QueueEmptyError{}
	}

	if q.shuffleOn {
		if len(q.shuffleOrder) > 0 {
			next := q.shuffleOrder[0]
			q.shuffleOrder = q.shuffleOrder[1:]
			return next, nil
		}
		// Projection exhausted: uniform random excluding the current
		// track, so no two consecutive plays are identical
		return q.randomExcluding(current, catalog), nil
	}

	return q.neighbor(current, catalog, 1), nil
}

// Previous resolves the song before the current one. Sequential mode walks
// backwards through the catalog, wrapping at the front.
func (q *Queue) Previous(current *models.Song, catalog []models.Song) (models.Song, error) {
	if q.repeatMode == RepeatOne && current != nil {
		return *current, nil
	}

	if len(catalog) == 0 {
		return models.Song{}, &QueueEmptyError{}
	}

	if q.shuffleOn {
		return q.randomExcluding(current, catalog), nil
	}

	return q.neighbor(current, catalog, -1), nil
}

// neighbor returns the catalog-order neighbor of current, wrapping modulo
// catalog length in both directions. Repeat off and all both wrap; no
// stop-at-end state is modeled.
func (q *Queue) neighbor(current *models.Song, catalog []models.Song, step int) models.Song {
	if current == nil {
		return catalog[0]
	}
	idx := -1
	for i, song := range catalog {
		if song.ID == current.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return catalog[0]
	}
	n := len(catalog)
	return catalog[((idx+step)%n+n)%n]
}

// randomExcluding picks a uniformly random song that is not the current one.
func (q *Queue) randomExcluding(current *models.Song, catalog []models.Song) models.Song {
	if current == nil || len(catalog) == 1 {
		return catalog[q.rng.Intn(len(catalog))]
	}
	candidates := make([]models.Song, 0, len(catalog)-1)
	for _, song := range catalog {
		if song.ID != current.ID {
			candidates = append(candidates, song)
		}
	}
	if len(candidates) == 0 {
		return catalog[0]
	}
	return candidates[q.rng.Intn(len(candidates))]
}

// Enqueue appends a song to the manual queue. Re-enqueueing an id already
// present is a no-op.
func (q *Queue) Enqueue(song models.Song) {
	for _, queued := range q.manual {
		if queued.ID == song.ID {
			return
		}
	}
	q.manual = append(q.manual, song)
}

// Dequeue removes the manual-queue entry at the given position.
func (q *Queue) Dequeue(index int) {
	if index < 0 || index >= len(q.manual) {
		return
	}
	q.manual = append(q.manual[:index], q.manual[index+1:]...)
}

// ToggleShuffle flips shuffle mode. Turning it on computes a fresh random
// permutation of the catalog excluding the current track.
func (q *Queue) ToggleShuffle(current *models.Song, catalog []models.Song) bool {
	q.shuffleOn = !q.shuffleOn
	if q.shuffleOn {
		q.reshuffle(current, catalog)
	} else {
		q.shuffleOrder = nil
	}
	return q.shuffleOn
}

func (q *Queue) reshuffle(current *models.Song, catalog []models.Song) {
	order := make([]models.Song, 0, len(catalog))
	for _, song := range catalog {
		if current != nil && song.ID == current.ID {
			continue
		}
		order = append(order, song)
	}
	q.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	q.shuffleOrder = order
}

// CycleRepeat advances off -> all -> one -> off.
func (q *Queue) CycleRepeat() RepeatMode {
	switch q.repeatMode {
	case RepeatOff:
		q.repeatMode = RepeatAll
	case RepeatAll:
		q.repeatMode = RepeatOne
	default:
		q.repeatMode = RepeatOff
	}
	return q.repeatMode
}

// Manual returns a copy of the manual queue contents.
func (q *Queue) Manual() []models.Song {
	out := make([]models.Song, len(q.manual))
	copy(out, q.manual)
	return out
}

// ShuffleEnabled reports whether shuffle mode is on.
func (q *Queue) ShuffleEnabled() bool {
	return q.shuffleOn
}

// Repeat returns the current repeat mode.
func (q *Queue) Repeat() RepeatMode {
	return q.repeatMode
}

// Reset clears queue contents and modes back to defaults.
func (q *Queue) Reset() {
	q.manual = nil
	q.shuffleOrder = nil
	q.shuffleOn = false
	q.repeatMode = RepeatOff
}
