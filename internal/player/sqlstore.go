package player

import (
	"revify/internal/database"
)

// SQLStore persists player state in the application database.
type SQLStore struct {
	db *database.Database
}

// NewSQLStore wraps the database as a player state store.
func NewSQLStore(db *database.Database) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) SaveCurrent(profile string, songID int, position float64) error {
	return s.db.SavePlayerCurrent(profile, songID, position)
}

func (s *SQLStore) SaveVolume(profile string, volume float64) error {
	return s.db.SavePlayerVolume(profile, volume)
}

func (s *SQLStore) SaveAccount(profile, username string, likedIDs []int) error {
	return s.db.SavePlayerAccount(profile, username, likedIDs)
}

func (s *SQLStore) ClearAccount(profile string) error {
	return s.db.ClearPlayerAccount(profile)
}

func (s *SQLStore) Load(profile string) (*PersistedState, error) {
	state, err := s.db.GetPlayerState(profile)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	return &PersistedState{
		SongID:   state.SongID,
		Position: state.Position,
		Volume:   state.Volume,
		Username: state.Username,
		LikedIDs: state.LikedIDs,
	}, nil
}
