package player

import (
	"sync"

	"github.com/sirupsen/logrus"

	"revify/pkg/models"
)

// Engine owns the single audio resource and translates intents into
// resource operations. Every exported method must be called with the
// owning coordinator's lock held; resource callbacks re-acquire that same
// lock before touching engine state, which is why the locker is shared.
type Engine struct {
	locker  sync.Locker
	factory ResourceFactory
	logger  *logrus.Entry

	// events is the upstream observer (the coordinator). Fired with the
	// shared lock held.
	events Events

	current   *models.Song
	resource  AudioResource
	isPlaying bool
	position  float64
	duration  float64
	volume    float64
	scrubbing bool
	lastErr   *PlaybackError

	// generation invalidates callbacks from abandoned resources. A play()
	// completion that resolves after the target has changed is ignored.
	generation uint64
	endedFired bool
}

// NewEngine creates an engine sharing the caller's lock. Observer callbacks
// in events fire with that lock held.
func NewEngine(locker sync.Locker, factory ResourceFactory, events Events, logger *logrus.Entry) *Engine {
	return &Engine{
		locker:  locker,
		factory: factory,
		events:  events,
		logger:  logger,
		volume:  1.0,
	}
}

// Play starts the given song, or resumes if it is already current.
func (e *Engine) Play(song models.Song) {
	// A failed track never resumes; retrying reloads from scratch
	if e.current != nil && e.current.ID == song.ID && e.lastErr == nil {
		if e.resource != nil {
			e.resource.Resume()
			e.isPlaying = true
			return
		}
		// Restored state has a saved offset but no resource yet. Load
		// fresh, then put the playhead back.
		offset := e.position
		e.load(song)
		if offset > 0 {
			e.Seek(offset)
		}
		return
	}
	e.load(song)
}

// Restart reloads the current-or-given song from position zero even when it
// is already current. Used for repeat-one advances.
func (e *Engine) Restart(song models.Song) {
	e.load(song)
}

// load swaps the resource source to a new song and begins playback. The old
// resource is detached before the new one attaches so stale events cannot
// leak across the switch.
func (e *Engine) load(song models.Song) {
	e.generation++
	gen := e.generation

	if e.resource != nil {
		e.resource.Detach()
		e.resource.Close()
		e.resource = nil
	}

	e.current = &song
	e.position = 0
	e.duration = float64(song.Duration)
	e.endedFired = false
	e.lastErr = nil
	e.isPlaying = true

	res := e.factory.Open(song, Events{
		OnProgress: func(pos, dur float64) {
			e.locker.Lock()
			defer e.locker.Unlock()
			if gen != e.generation {
				return
			}
			e.position = pos
			if dur > 0 {
				e.duration = dur
			}
			if e.events.OnProgress != nil {
				e.events.OnProgress(pos, e.duration)
			}
		},
		OnEnded: func() {
			e.locker.Lock()
			defer e.locker.Unlock()
			// At most one ended per play session, and never from a
			// resource that is no longer current
			if gen != e.generation || e.endedFired {
				return
			}
			e.endedFired = true
			e.isPlaying = false
			if e.events.OnEnded != nil {
				e.events.OnEnded()
			}
		},
		OnError: func(err error) {
			e.locker.Lock()
			defer e.locker.Unlock()
			if gen != e.generation {
				return
			}
			e.fail(song.ID, err)
		},
	})

	e.resource = res
	res.SetVolume(e.volume)
	res.Start(func(err error) {
		if err == nil {
			return
		}
		e.locker.Lock()
		defer e.locker.Unlock()
		if gen != e.generation {
			return
		}
		e.fail(song.ID, err)
	})
}

// fail converts a resource error into the non-fatal error state. Caller
// holds the lock.
func (e *Engine) fail(songID int, err error) {
	e.isPlaying = false
	e.lastErr = &PlaybackError{SongID: songID, Err: err}
	e.logger.WithError(err).WithField("song_id", songID).Warn("Playback failed")
	if e.events.OnError != nil {
		e.events.OnError(e.lastErr)
	}
}

// Pause pauses playback. Idempotent if already paused.
func (e *Engine) Pause() {
	if e.resource != nil {
		e.resource.Pause()
	}
	e.isPlaying = false
}

// Seek moves the playhead, clamped to [0, duration].
func (e *Engine) Seek(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.position = seconds
	if e.resource != nil {
		e.resource.Seek(seconds)
	}
}

// BeginScrub mutes output for the duration of a drag-seek gesture so rapid
// position changes do not produce audio artifacts. Playback continues.
func (e *Engine) BeginScrub() {
	e.scrubbing = true
	if e.resource != nil {
		e.resource.SetMuted(true)
	}
}

// EndScrub unmutes after a drag-seek gesture.
func (e *Engine) EndScrub() {
	e.scrubbing = false
	if e.resource != nil {
		e.resource.SetMuted(false)
	}
}

// SetVolume clamps to [0,1], applies to the resource and returns the
// clamped value so the caller can persist it.
func (e *Engine) SetVolume(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.volume = v
	if e.resource != nil {
		e.resource.SetVolume(v)
	}
	return v
}

// Restore rehydrates the engine with a previously current song without
// starting playback: paused, playhead at the saved offset.
func (e *Engine) Restore(song models.Song, position float64) {
	e.generation++
	if e.resource != nil {
		e.resource.Detach()
		e.resource.Close()
		e.resource = nil
	}
	e.current = &song
	e.duration = float64(song.Duration)
	if position < 0 {
		position = 0
	}
	if e.duration > 0 && position > e.duration {
		position = e.duration
	}
	e.position = position
	e.isPlaying = false
	e.endedFired = false
	e.lastErr = nil
}

// Current returns the current song, nil when nothing is loaded.
func (e *Engine) Current() *models.Song {
	return e.current
}

// IsPlaying reports whether playback is active.
func (e *Engine) IsPlaying() bool {
	return e.isPlaying
}

// Position returns the playhead in seconds.
func (e *Engine) Position() float64 {
	return e.position
}

// Duration returns the current track length in seconds.
func (e *Engine) Duration() float64 {
	return e.duration
}

// Volume returns the current volume in [0,1].
func (e *Engine) Volume() float64 {
	return e.volume
}

// LastError returns the sticky playback error, nil when healthy.
func (e *Engine) LastError() *PlaybackError {
	return e.lastErr
}

// Close releases the audio resource.
func (e *Engine) Close() {
	e.generation++
	if e.resource != nil {
		e.resource.Detach()
		e.resource.Close()
		e.resource = nil
	}
	e.isPlaying = false
}
