package player

import (
	"fmt"
	"sync"

	"revify/pkg/models"
)

// fakeResource is a hand-controlled AudioResource. Tests resolve starts
// and fire events explicitly, which makes completion-ordering cases easy
// to reproduce.
type fakeResource struct {
	song   models.Song
	events Events

	ready    func(err error)
	started  bool
	resumed  int
	paused   int
	seeked   float64
	volume   float64
	muted    bool
	detached bool
	closed   bool
}

func (r *fakeResource) Start(ready func(err error)) {
	r.started = true
	r.ready = ready
}

func (r *fakeResource) Resume()              { r.resumed++ }
func (r *fakeResource) Pause()               { r.paused++ }
func (r *fakeResource) Seek(seconds float64) { r.seeked = seconds }
func (r *fakeResource) SetVolume(v float64)  { r.volume = v }
func (r *fakeResource) SetMuted(muted bool)  { r.muted = muted }
func (r *fakeResource) Position() float64    { return r.seeked }
func (r *fakeResource) Detach()              { r.detached = true }
func (r *fakeResource) Close()               { r.closed = true }

// resolveStart invokes the ready callback the way a real resource would,
// from outside the caller's critical section.
func (r *fakeResource) resolveStart(err error) {
	if r.ready != nil {
		r.ready(err)
	}
}

func (r *fakeResource) fireProgress(pos, dur float64) {
	if r.events.OnProgress != nil {
		r.events.OnProgress(pos, dur)
	}
}

func (r *fakeResource) fireEnded() {
	if r.events.OnEnded != nil {
		r.events.OnEnded()
	}
}

func (r *fakeResource) fireError(err error) {
	if r.events.OnError != nil {
		r.events.OnError(err)
	}
}

type fakeFactory struct {
	opened []*fakeResource
}

func (f *fakeFactory) Open(song models.Song, events Events) AudioResource {
	r := &fakeResource{song: song, events: events}
	f.opened = append(f.opened, r)
	return r
}

func (f *fakeFactory) last() *fakeResource {
	return f.opened[len(f.opened)-1]
}

// memStore is an in-memory Store for persistence round-trip tests.
type memStore struct {
	mu     sync.Mutex
	states map[string]*PersistedState
	fail   bool
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]*PersistedState)}
}

func (s *memStore) get(profile string) *PersistedState {
	if state, ok := s.states[profile]; ok {
		return state
	}
	state := &PersistedState{Volume: 1.0}
	s.states[profile] = state
	return state
}

func (s *memStore) SaveCurrent(profile string, songID int, position float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("store unavailable")
	}
	state := s.get(profile)
	state.SongID = songID
	state.Position = position
	return nil
}

func (s *memStore) SaveVolume(profile string, volume float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("store unavailable")
	}
	s.get(profile).Volume = volume
	return nil
}

func (s *memStore) SaveAccount(profile, username string, likedIDs []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("store unavailable")
	}
	state := s.get(profile)
	state.Username = username
	state.LikedIDs = append([]int(nil), likedIDs...)
	return nil
}

func (s *memStore) ClearAccount(profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("store unavailable")
	}
	state := s.get(profile)
	state.Username = ""
	state.LikedIDs = nil
	return nil
}

func (s *memStore) Load(profile string) (*PersistedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, fmt.Errorf("store unavailable")
	}
	state, ok := s.states[profile]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

// fakeCatalog serves songs from a fixed slice.
type fakeCatalog struct {
	songs []models.Song
}

func (c *fakeCatalog) ListSongs() ([]models.Song, error) {
	return append([]models.Song(nil), c.songs...), nil
}

func (c *fakeCatalog) GetSong(id int) (*models.Song, error) {
	for _, song := range c.songs {
		if song.ID == id {
			copied := song
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("song %d not found", id)
}

// fakeUsers simulates the account collaborator, optionally failing calls.
type fakeUsers struct {
	mu    sync.Mutex
	likes map[string]map[int]bool
	fail  bool
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{likes: make(map[string]map[int]bool)}
}

func (u *fakeUsers) SetLike(username string, songID int, liked bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return fmt.Errorf("service down")
	}
	if u.likes[username] == nil {
		u.likes[username] = make(map[int]bool)
	}
	if liked {
		u.likes[username][songID] = true
	} else {
		delete(u.likes[username], songID)
	}
	return nil
}

func (u *fakeUsers) LikedSongIDs(username string) ([]int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return nil, fmt.Errorf("service down")
	}
	var ids []int
	for id := range u.likes[username] {
		ids = append(ids, id)
	}
	return ids, nil
}

func testSongs(n int) []models.Song {
	songs := make([]models.Song, n)
	for i := range songs {
		songs[i] = models.Song{
			ID:       i + 1,
			Title:    fmt.Sprintf("Song %d", i+1),
			Artist:   "Test Artist",
			Genre:    "Test",
			Duration: 180,
		}
	}
	return songs
}
