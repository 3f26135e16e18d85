package player

import (
	"github.com/sirupsen/logrus"
)

// PersistedState is the durable slice of player state for one device
// profile: what survives a reload.
type PersistedState struct {
	SongID   int
	Position float64
	Volume   float64
	Username string
	LikedIDs []int
}

// Store is the durable backing for player state. Implementations may write
// to SQLite, a file, or anything else reachable from the process.
type Store interface {
	SaveCurrent(profile string, songID int, position float64) error
	SaveVolume(profile string, volume float64) error
	SaveAccount(profile, username string, likedIDs []int) error
	ClearAccount(profile string) error
	Load(profile string) (*PersistedState, error)
}

// Bridge writes tracked state through to the store as it changes and reads
// it back on startup. Storage failures are logged and swallowed: in-memory
// state stays authoritative for the session.
type Bridge struct {
	store   Store
	profile string
	logger  *logrus.Entry
}

// NewBridge creates a bridge scoped to one device profile.
func NewBridge(store Store, profile string, logger *logrus.Entry) *Bridge {
	return &Bridge{store: store, profile: profile, logger: logger}
}

// SaveCurrent writes the current song and playhead position.
func (b *Bridge) SaveCurrent(songID int, position float64) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveCurrent(b.profile, songID, position); err != nil {
		b.report("save current", err)
	}
}

// SaveVolume writes the volume immediately on change.
func (b *Bridge) SaveVolume(volume float64) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveVolume(b.profile, volume); err != nil {
		b.report("save volume", err)
	}
}

// SaveAccount mirrors the account-level identity and liked set.
func (b *Bridge) SaveAccount(username string, likedIDs []int) {
	if b.store == nil {
		return
	}
	if err := b.store.SaveAccount(b.profile, username, likedIDs); err != nil {
		b.report("save account", err)
	}
}

// ClearAccount removes only the account-level entries. Playback position
// and volume are device-level preferences and survive logout.
func (b *Bridge) ClearAccount() {
	if b.store == nil {
		return
	}
	if err := b.store.ClearAccount(b.profile); err != nil {
		b.report("clear account", err)
	}
}

// Load reads back the persisted state, nil when none exists yet.
func (b *Bridge) Load() *PersistedState {
	if b.store == nil {
		return nil
	}
	state, err := b.store.Load(b.profile)
	if err != nil {
		b.report("load", err)
		return nil
	}
	return state
}

func (b *Bridge) report(op string, err error) {
	perr := &PersistenceError{Op: op, Err: err}
	b.logger.WithError(perr).Warn("Durable state operation failed")
}
