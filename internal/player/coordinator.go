package player

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"revify/pkg/models"
)

// updatePhase tracks an optimistic account mutation through its lifecycle.
type updatePhase int

const (
	phasePending updatePhase = iota
	phaseCommitted
	phaseRolledBack
)

type likeUpdate struct {
	songID int
	liking bool
	phase  updatePhase
}

// Snapshot is the read-only view of coordinator state handed to callers.
type Snapshot struct {
	Current        *models.Song  `json:"current,omitempty"`
	IsPlaying      bool          `json:"isPlaying"`
	Position       float64       `json:"position"`
	Duration       float64       `json:"duration"`
	Volume         float64       `json:"volume"`
	Queue          []models.Song `json:"queue"`
	ShuffleEnabled bool          `json:"shuffleEnabled"`
	RepeatMode     string        `json:"repeatMode"`
	LikedIDs       []int         `json:"likedIds"`
	RecentlyPlayed []models.Song `json:"recentlyPlayed"`
	History        []models.Song `json:"history"`
	Username       string        `json:"username,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// Coordinator owns playback, queue, history and durable state for one
// session. It is constructed explicitly and injected where needed; there
// is exactly one per session and a single owner managing its lifetime.
// All methods are safe for concurrent use.
type Coordinator struct {
	mu sync.Mutex

	engine  *Engine
	queue   *Queue
	history *History
	bridge  *Bridge
	catalog Catalog
	users   UserService
	logger  *logrus.Entry

	username string
	liked    map[int]bool
	pending  map[int]*likeUpdate
}

// Options configures a coordinator.
type Options struct {
	Factory     ResourceFactory
	Store       Store
	Catalog     Catalog
	Users       UserService
	Profile     string
	HistorySize int
	RecentSize  int
	Logger      *logrus.Logger
	Rand        *rand.Rand
}

// NewCoordinator wires up a coordinator for one session profile. Call
// Rehydrate afterwards to restore persisted state.
func NewCoordinator(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	entry := logger.WithField("profile", opts.Profile)

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	c := &Coordinator{
		queue:   NewQueue(rng),
		history: NewHistory(opts.HistorySize, opts.RecentSize),
		bridge:  NewBridge(opts.Store, opts.Profile, entry),
		catalog: opts.Catalog,
		users:   opts.Users,
		logger:  entry,
		liked:   make(map[int]bool),
		pending: make(map[int]*likeUpdate),
	}

	// Engine callbacks fire with c.mu held, so the handlers below must
	// only call lock-free internals.
	c.engine = NewEngine(&c.mu, opts.Factory, Events{
		OnProgress: c.onProgress,
		OnEnded:    c.onEnded,
		OnError:    c.onError,
	}, entry)

	return c
}

// Rehydrate restores persisted device and account state: volume, the last
// current track paused at its saved offset, and the liked-set mirror.
// Playback is never auto-started.
func (c *Coordinator) Rehydrate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.bridge.Load()
	if state == nil {
		return
	}

	c.engine.SetVolume(state.Volume)
	c.username = state.Username
	for _, id := range state.LikedIDs {
		c.liked[id] = true
	}

	if state.SongID != 0 && c.catalog != nil {
		song, err := c.catalog.GetSong(state.SongID)
		if err != nil {
			c.logger.WithError(err).WithField("song_id", state.SongID).
				Warn("Persisted current song no longer in catalog")
			return
		}
		c.engine.Restore(*song, state.Position)
	}
}

// Play starts the song with the given id, or resumes it if already current.
func (c *Coordinator) Play(songID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	song, err := c.catalog.GetSong(songID)
	if err != nil {
		return fmt.Errorf("song %d: %w", songID, err)
	}
	c.startLocked(*song, false)
	return nil
}

// startLocked hands a song to the engine and records the transition. The
// resume path (same song, still healthy) does not re-record history.
func (c *Coordinator) startLocked(song models.Song, restart bool) {
	current := c.engine.Current()
	resuming := !restart && current != nil && current.ID == song.ID && c.engine.LastError() == nil

	if restart {
		c.engine.Restart(song)
	} else {
		c.engine.Play(song)
	}

	if !resuming {
		c.history.Record(song)
		c.bridge.SaveCurrent(song.ID, 0)
	}
}

// Pause pauses playback. Idempotent.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Pause()
	if current := c.engine.Current(); current != nil {
		c.bridge.SaveCurrent(current.ID, c.engine.Position())
	}
}

// Seek moves the playhead, clamped to the track bounds.
func (c *Coordinator) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Seek(seconds)
	if current := c.engine.Current(); current != nil {
		c.bridge.SaveCurrent(current.ID, c.engine.Position())
	}
}

// BeginScrub mutes output while a drag-seek gesture is in progress.
func (c *Coordinator) BeginScrub() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.BeginScrub()
}

// EndScrub restores output after a drag-seek gesture.
func (c *Coordinator) EndScrub() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.EndScrub()
}

// SetVolume clamps and applies the volume, persisting it immediately.
func (c *Coordinator) SetVolume(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	applied := c.engine.SetVolume(v)
	c.bridge.SaveVolume(applied)
}

// Next advances to whatever the queue resolves and plays it.
func (c *Coordinator) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.advanceLocked(false)
}

// Previous steps back to the prior track and plays it.
func (c *Coordinator) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	catalog, err := c.listCatalogLocked()
	if err != nil {
		return err
	}
	prev, err := c.queue.Previous(c.engine.Current(), catalog)
	if err != nil {
		return err
	}
	c.playResolvedLocked(prev)
	return nil
}

// advanceLocked resolves and plays the next track. Reached from both a
// user pressing next and the engine's ended signal.
func (c *Coordinator) advanceLocked(auto bool) error {
	current := c.engine.Current()

	if c.queue.Repeat() == RepeatOne && current != nil {
		c.startLocked(*current, true)
		return nil
	}

	catalog, err := c.listCatalogLocked()
	if err != nil {
		return err
	}
	next, err := c.queue.Next(current, catalog)
	if err != nil {
		var empty *QueueEmptyError
		if auto && errors.As(err, &empty) {
			// Nothing to advance to; stay in the no-track state
			return nil
		}
		return err
	}
	c.playResolvedLocked(next)
	return nil
}

// playResolvedLocked plays a queue-resolved song, forcing a restart when it
// is the same id as the current one so the position resets to zero.
func (c *Coordinator) playResolvedLocked(song models.Song) {
	current := c.engine.Current()
	restart := current != nil && current.ID == song.ID
	c.startLocked(song, restart)
}

func (c *Coordinator) listCatalogLocked() ([]models.Song, error) {
	if c.catalog == nil {
		return nil, &QueueEmptyError{}
	}
	songs, err := c.catalog.ListSongs()
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	return songs, nil
}

// Enqueue appends a song to the manual queue, ignoring duplicates.
func (c *Coordinator) Enqueue(songID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	song, err := c.catalog.GetSong(songID)
	if err != nil {
		return fmt.Errorf("song %d: %w", songID, err)
	}
	c.queue.Enqueue(*song)
	return nil
}

// Dequeue removes the manual-queue entry at the given position.
func (c *Coordinator) Dequeue(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Dequeue(index)
}

// ToggleShuffle flips shuffle mode and reports the new state.
func (c *Coordinator) ToggleShuffle() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	catalog, err := c.listCatalogLocked()
	if err != nil {
		var empty *QueueEmptyError
		if !errors.As(err, &empty) {
			return false, err
		}
		catalog = nil
	}
	return c.queue.ToggleShuffle(c.engine.Current(), catalog), nil
}

// CycleRepeat advances the repeat mode off -> all -> one -> off.
func (c *Coordinator) CycleRepeat() RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.CycleRepeat()
}

// Login binds the coordinator to an account and pulls its liked set.
func (c *Coordinator) Login(username string) error {
	c.mu.Lock()
	c.username = username
	c.mu.Unlock()

	return c.SyncLikes()
}

// SyncLikes pulls the server-side liked set and replaces the local mirror.
// Entries with an in-flight optimistic toggle keep their tentative value.
func (c *Coordinator) SyncLikes() error {
	c.mu.Lock()
	username := c.username
	c.mu.Unlock()
	if username == "" || c.users == nil {
		return nil
	}

	ids, err := c.users.LikedSongIDs(username)
	if err != nil {
		return &ServiceError{Op: "sync likes", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fresh := make(map[int]bool, len(ids))
	for _, id := range ids {
		fresh[id] = true
	}
	for id, upd := range c.pending {
		if upd.phase == phasePending {
			if upd.liking {
				fresh[id] = true
			} else {
				delete(fresh, id)
			}
		}
	}
	c.liked = fresh
	c.bridge.SaveAccount(username, c.likedIDsLocked())
	return nil
}

// ToggleLike flips the like state for a song using a two-phase optimistic
// update: the local set changes immediately, then commits or rolls back on
// the service call's outcome.
func (c *Coordinator) ToggleLike(songID int) error {
	c.mu.Lock()
	if c.username == "" {
		c.mu.Unlock()
		return &ServiceError{Op: "toggle like", Err: errors.New("not logged in")}
	}
	username := c.username
	liking := !c.liked[songID]

	upd := &likeUpdate{songID: songID, liking: liking, phase: phasePending}
	c.pending[songID] = upd
	if liking {
		c.liked[songID] = true
	} else {
		delete(c.liked, songID)
	}
	c.mu.Unlock()

	// Collaborator call happens outside the lock
	var err error
	if c.users != nil {
		err = c.users.SetLike(username, songID, liking)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, songID)

	if err != nil {
		upd.phase = phaseRolledBack
		if liking {
			delete(c.liked, songID)
		} else {
			c.liked[songID] = true
		}
		c.logger.WithError(err).WithField("song_id", songID).Warn("Like toggle rolled back")
		return &ServiceError{Op: "toggle like", Err: err}
	}

	upd.phase = phaseCommitted
	c.bridge.SaveAccount(username, c.likedIDsLocked())
	return nil
}

// IsLiked reports whether a song is in the local liked set.
func (c *Coordinator) IsLiked(songID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liked[songID]
}

// Logout resets session state to defaults. Account-level entries are
// cleared from durable storage; playback position and volume are
// device-level preferences and stay.
func (c *Coordinator) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.username = ""
	c.liked = make(map[int]bool)
	c.pending = make(map[int]*likeUpdate)
	c.queue.Reset()
	c.history.Reset()
	c.engine.Close()
	c.bridge.ClearAccount()
}

// Username returns the bound account name, empty when anonymous.
func (c *Coordinator) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Snapshot returns a consistent copy of the full coordinator state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		IsPlaying:      c.engine.IsPlaying(),
		Position:       c.engine.Position(),
		Duration:       c.engine.Duration(),
		Volume:         c.engine.Volume(),
		Queue:          c.queue.Manual(),
		ShuffleEnabled: c.queue.ShuffleEnabled(),
		RepeatMode:     c.queue.Repeat().String(),
		LikedIDs:       c.likedIDsLocked(),
		RecentlyPlayed: c.history.Recent(),
		History:        c.history.All(),
		Username:       c.username,
	}
	if current := c.engine.Current(); current != nil {
		song := *current
		snap.Current = &song
	}
	if err := c.engine.LastError(); err != nil {
		snap.Error = err.Error()
	}
	return snap
}

// Close releases the audio resource. The coordinator is unusable after.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Close()
}

func (c *Coordinator) likedIDsLocked() []int {
	ids := make([]int, 0, len(c.liked))
	for id := range c.liked {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// onProgress runs with c.mu held via the engine's callback wrapper.
func (c *Coordinator) onProgress(position, duration float64) {
	if current := c.engine.Current(); current != nil {
		c.bridge.SaveCurrent(current.ID, position)
	}
}

// onEnded runs with c.mu held. The ended signal is the sole trigger for
// automatic advance.
func (c *Coordinator) onEnded() {
	if err := c.advanceLocked(true); err != nil {
		c.logger.WithError(err).Warn("Auto-advance failed")
	}
}

// onError runs with c.mu held. The engine has already moved to the paused
// error state; nothing to do beyond logging.
func (c *Coordinator) onError(err error) {
	c.logger.WithError(err).Debug("Playback error surfaced")
}
