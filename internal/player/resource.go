package player

import (
	"sync"
	"time"

	"revify/pkg/models"
)

// Events is the observer interface a resource reports through. Callbacks
// are always invoked from the resource's own goroutine, never synchronously
// from inside Start, so callers may hold their own locks around resource
// method calls.
type Events struct {
	OnProgress func(position, duration float64)
	OnEnded    func()
	OnError    func(err error)
}

// AudioResource is a single playable audio output. Exactly one resource is
// live per engine at a time; the engine mediates every mutation so nothing
// else touches source, volume or position directly.
type AudioResource interface {
	// Start begins playback asynchronously. The ready callback fires once
	// from the resource goroutine with nil on success or the load error.
	Start(ready func(err error))
	Resume()
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	SetMuted(muted bool)
	Position() float64
	// Detach stops event delivery. Called before abandoning a resource so
	// a late event from the old track cannot leak into the new one.
	Detach()
	Close()
}

// ResourceFactory opens a resource for a song. Swappable so tests can
// substitute a controllable fake.
type ResourceFactory interface {
	Open(song models.Song, events Events) AudioResource
}

// ClockFactory produces clock-driven resources: the server-side playhead
// each connected frontend mirrors. Position advances on a wall-clock
// ticker at 1x speed until the song's duration is reached.
type ClockFactory struct {
	// Tick overrides the progress cadence. Zero means one second.
	Tick time.Duration
}

func (f *ClockFactory) Open(song models.Song, events Events) AudioResource {
	tick := f.Tick
	if tick == 0 {
		tick = time.Second
	}
	return &clockResource{
		duration: float64(song.Duration),
		events:   events,
		tick:     tick,
		volume:   1.0,
		stop:     make(chan struct{}),
	}
}

type clockResource struct {
	mu       sync.Mutex
	duration float64
	events   Events
	tick     time.Duration

	position float64
	playing  bool
	muted    bool
	volume   float64
	detached bool
	ended    bool
	started  bool
	closed   bool
	stop     chan struct{}
}

func (r *clockResource) Start(ready func(err error)) {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.playing = true
	r.mu.Unlock()

	go r.run(ready)
}

func (r *clockResource) run(ready func(err error)) {
	if ready != nil {
		ready(nil)
	}

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.advance()
		}
	}
}

// advance moves the playhead by one tick and fires events. Callbacks run
// without the resource lock held.
func (r *clockResource) advance() {
	r.mu.Lock()
	if !r.playing || r.ended {
		r.mu.Unlock()
		return
	}
	r.position += r.tick.Seconds()
	finished := r.duration > 0 && r.position >= r.duration
	if finished {
		r.position = r.duration
		r.playing = false
		r.ended = true
	}
	pos := r.position
	dur := r.duration
	events, detached := r.events, r.detached
	r.mu.Unlock()

	if detached {
		return
	}
	if events.OnProgress != nil {
		events.OnProgress(pos, dur)
	}
	if finished && events.OnEnded != nil {
		events.OnEnded()
	}
}

func (r *clockResource) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		// Resuming a finished track restarts it from the top
		r.position = 0
		r.ended = false
	}
	r.playing = true
}

func (r *clockResource) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playing = false
}

func (r *clockResource) Seek(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if r.duration > 0 && seconds > r.duration {
		seconds = r.duration
	}
	r.position = seconds
	if seconds < r.duration {
		r.ended = false
	}
}

func (r *clockResource) SetVolume(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = v
}

func (r *clockResource) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = muted
}

func (r *clockResource) Position() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *clockResource) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detached = true
}

func (r *clockResource) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.detached = true
	close(r.stop)
}
