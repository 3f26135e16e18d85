package player

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"

	"revify/pkg/models"
)

type coordFixture struct {
	coord   *Coordinator
	factory *fakeFactory
	store   *memStore
	catalog *fakeCatalog
	users   *fakeUsers
}

func newCoordFixture(songs []models.Song) *coordFixture {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	f := &coordFixture{
		factory: &fakeFactory{},
		store:   newMemStore(),
		catalog: &fakeCatalog{songs: songs},
		users:   newFakeUsers(),
	}
	f.coord = NewCoordinator(Options{
		Factory:     f.factory,
		Store:       f.store,
		Catalog:     f.catalog,
		Users:       f.users,
		Profile:     "device-1",
		HistorySize: 50,
		RecentSize:  6,
		Logger:      logger,
		Rand:        rand.New(rand.NewSource(1)),
	})
	return f
}

// reload builds a second coordinator over the same store, simulating an
// application restart on the same device.
func (f *coordFixture) reload() *Coordinator {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	c := NewCoordinator(Options{
		Factory: &fakeFactory{},
		Store:   f.store,
		Catalog: f.catalog,
		Users:   f.users,
		Profile: "device-1",
		Logger:  logger,
		Rand:    rand.New(rand.NewSource(2)),
	})
	c.Rehydrate()
	return c
}

func TestCoordinatorVolumeSurvivesReload(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	f.coord.SetVolume(0.3)

	reloaded := f.reload()
	if got := reloaded.Snapshot().Volume; got != 0.3 {
		t.Errorf("rehydrated volume = %.2f, want 0.3", got)
	}
}

func TestCoordinatorRehydratesCurrentTrackPaused(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	if err := f.coord.Play(2); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.factory.last().fireProgress(30, 180)

	snap := f.reload().Snapshot()
	if snap.Current == nil || snap.Current.ID != 2 {
		t.Fatalf("rehydrated current = %+v, want song 2", snap.Current)
	}
	if snap.IsPlaying {
		t.Error("rehydration must not auto-start playback")
	}
	if snap.Position != 30 {
		t.Errorf("rehydrated position = %.0f, want 30", snap.Position)
	}
}

func TestCoordinatorManualQueueBeatsShuffle(t *testing.T) {
	f := newCoordFixture(testSongs(5))

	if err := f.coord.Play(1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if _, err := f.coord.ToggleShuffle(); err != nil {
		t.Fatalf("ToggleShuffle: %v", err)
	}
	if err := f.coord.Enqueue(5); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := f.coord.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}

	snap := f.coord.Snapshot()
	if snap.Current.ID != 5 {
		t.Errorf("next played song %d, want queued song 5", snap.Current.ID)
	}
	if len(snap.Queue) != 0 {
		t.Errorf("manual queue should be drained, has %d", len(snap.Queue))
	}
}

func TestCoordinatorRepeatOneReplaysOnEnded(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	if err := f.coord.Play(2); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.coord.CycleRepeat() // all
	f.coord.CycleRepeat() // one

	f.factory.last().fireProgress(180, 180)
	f.factory.last().fireEnded()

	snap := f.coord.Snapshot()
	if snap.Current.ID != 2 {
		t.Errorf("repeat one advanced to song %d, want 2", snap.Current.ID)
	}
	if !snap.IsPlaying {
		t.Error("repeat one should keep playing")
	}
	if snap.Position != 0 {
		t.Errorf("repeat one should reset position, got %.0f", snap.Position)
	}
	if len(f.factory.opened) != 2 {
		t.Errorf("repeat one should reload the resource, opened %d", len(f.factory.opened))
	}
}

func TestCoordinatorEndedAdvancesSequentially(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	if err := f.coord.Play(1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.factory.last().fireEnded()

	snap := f.coord.Snapshot()
	if snap.Current.ID != 2 {
		t.Errorf("auto-advance played song %d, want 2", snap.Current.ID)
	}
	if !snap.IsPlaying {
		t.Error("auto-advance should continue playing")
	}
}

func TestCoordinatorHistoryTracksPlays(t *testing.T) {
	f := newCoordFixture(testSongs(10))

	for _, id := range []int{1, 2, 3, 1} {
		if err := f.coord.Play(id); err != nil {
			t.Fatalf("Play(%d): %v", id, err)
		}
	}

	snap := f.coord.Snapshot()
	if len(snap.History) != 3 {
		t.Fatalf("history has %d entries, want 3", len(snap.History))
	}
	if snap.History[0].ID != 1 {
		t.Errorf("replayed song should lead history, front is %d", snap.History[0].ID)
	}
	if snap.RecentlyPlayed[0].ID != 1 {
		t.Errorf("recently played should lead with 1, got %d", snap.RecentlyPlayed[0].ID)
	}
}

func TestCoordinatorToggleLikeCommits(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	if err := f.coord.Login("alice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.coord.ToggleLike(3); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}

	if !f.coord.IsLiked(3) {
		t.Error("song 3 should be liked locally")
	}
	if !f.users.likes["alice"][3] {
		t.Error("like should be committed server-side")
	}

	state, _ := f.store.Load("device-1")
	if len(state.LikedIDs) != 1 || state.LikedIDs[0] != 3 {
		t.Errorf("liked mirror not persisted: %v", state.LikedIDs)
	}
}

func TestCoordinatorToggleLikeRollsBackOnFailure(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	if err := f.coord.Login("alice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	f.users.fail = true

	err := f.coord.ToggleLike(3)
	var serr *ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if f.coord.IsLiked(3) {
		t.Error("failed like toggle should roll back the local set")
	}
}

func TestCoordinatorToggleLikeRequiresLogin(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	err := f.coord.ToggleLike(1)
	var serr *ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServiceError for anonymous like, got %v", err)
	}
}

func TestCoordinatorLogoutKeepsDevicePreferences(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	f.coord.SetVolume(0.5)
	if err := f.coord.Login("alice"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := f.coord.ToggleLike(2); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if err := f.coord.Play(1); err != nil {
		t.Fatalf("Play: %v", err)
	}

	f.coord.Logout()

	snap := f.coord.Snapshot()
	if snap.Username != "" {
		t.Error("logout should clear the bound account")
	}
	if len(snap.LikedIDs) != 0 {
		t.Error("logout should clear the liked set")
	}
	if len(snap.History) != 0 {
		t.Error("logout should reset history")
	}

	state, _ := f.store.Load("device-1")
	if state.Username != "" || state.LikedIDs != nil {
		t.Errorf("account entries should be cleared from storage: %+v", state)
	}
	if state.Volume != 0.5 {
		t.Errorf("volume is device-level and must survive logout, got %.2f", state.Volume)
	}
}

func TestCoordinatorPersistenceFailureIsNonFatal(t *testing.T) {
	f := newCoordFixture(testSongs(3))
	f.store.fail = true

	f.coord.SetVolume(0.4)
	if err := f.coord.Play(1); err != nil {
		t.Fatalf("Play with failing store: %v", err)
	}

	snap := f.coord.Snapshot()
	if snap.Volume != 0.4 {
		t.Errorf("in-memory volume should stay authoritative, got %.2f", snap.Volume)
	}
	if snap.Current == nil || snap.Current.ID != 1 {
		t.Error("playback should proceed despite storage failure")
	}
}

func TestCoordinatorNextOnEmptyCatalog(t *testing.T) {
	f := newCoordFixture(nil)

	err := f.coord.Next()
	var empty *QueueEmptyError
	if !errors.As(err, &empty) {
		t.Errorf("expected QueueEmptyError, got %v", err)
	}
}

func TestCoordinatorPlayUnknownSong(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	if err := f.coord.Play(42); err == nil {
		t.Error("playing an unknown song id should fail")
	}
}

func TestCoordinatorPlaybackErrorSurfacedInSnapshot(t *testing.T) {
	f := newCoordFixture(testSongs(3))

	if err := f.coord.Play(1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	f.factory.last().resolveStart(errors.New("stream unavailable"))

	snap := f.coord.Snapshot()
	if snap.IsPlaying {
		t.Error("failed playback should report paused")
	}
	if snap.Error == "" {
		t.Error("snapshot should surface the playback error")
	}

	// Retry clears the error once it succeeds
	if err := f.coord.Play(1); err != nil {
		t.Fatalf("retry Play: %v", err)
	}
	if snap := f.coord.Snapshot(); snap.Error != "" {
		t.Errorf("error state should clear on successful retry, got %q", snap.Error)
	}
}
