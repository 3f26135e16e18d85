package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// PlayerState is the durable snapshot of a device profile's player:
// the fields the coordinator writes through on every tracked change and
// reads back at startup.
type PlayerState struct {
	Profile   string    `json:"profile"`
	SongID    int       `json:"songId"` // 0 when no current song
	Position  float64   `json:"position"`
	Volume    float64   `json:"volume"`
	Username  string    `json:"username"`
	LikedIDs  []int     `json:"likedIds"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SavePlayerCurrent upserts the current song reference and position for
// a profile without touching the other columns.
func (db *Database) SavePlayerCurrent(profile string, songID int, position float64) error {
	_, err := db.conn.Exec(`
		INSERT INTO player_state (profile, song_id, position, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			song_id=excluded.song_id,
			position=excluded.position,
			updated_at=excluded.updated_at`,
		profile, songID, position, time.Now())
	return err
}

// SavePlayerVolume upserts the volume for a profile.
func (db *Database) SavePlayerVolume(profile string, volume float64) error {
	_, err := db.conn.Exec(`
		INSERT INTO player_state (profile, volume, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			volume=excluded.volume,
			updated_at=excluded.updated_at`,
		profile, volume, time.Now())
	return err
}

// SavePlayerAccount upserts the account-level mirror (username and
// liked song IDs) for a profile.
func (db *Database) SavePlayerAccount(profile, username string, likedIDs []int) error {
	encoded, err := json.Marshal(likedIDs)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(`
		INSERT INTO player_state (profile, username, liked_ids, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(profile) DO UPDATE SET
			username=excluded.username,
			liked_ids=excluded.liked_ids,
			updated_at=excluded.updated_at`,
		profile, username, string(encoded), time.Now())
	return err
}

// ClearPlayerAccount removes the account-level mirror for a profile.
// Playback and volume columns are left intact; they are device-level
// preferences, not account-level state.
func (db *Database) ClearPlayerAccount(profile string) error {
	_, err := db.conn.Exec(`
		UPDATE player_state
		SET username = NULL, liked_ids = NULL, updated_at = ?
		WHERE profile = ?`, time.Now(), profile)
	return err
}

// GetPlayerState returns the saved state for a profile, or (nil, nil)
// when nothing has been persisted yet.
func (db *Database) GetPlayerState(profile string) (*PlayerState, error) {
	var state PlayerState
	var songID sql.NullInt64
	var username, likedIDs sql.NullString

	err := db.conn.QueryRow(`
		SELECT profile, song_id, position, volume, username, liked_ids, updated_at
		FROM player_state WHERE profile = ?`, profile).Scan(
		&state.Profile, &songID, &state.Position, &state.Volume,
		&username, &likedIDs, &state.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if songID.Valid {
		state.SongID = int(songID.Int64)
	}
	if username.Valid {
		state.Username = username.String
	}
	if likedIDs.Valid && likedIDs.String != "" {
		if err := json.Unmarshal([]byte(likedIDs.String), &state.LikedIDs); err != nil {
			db.logger.WithError(err).WithField("profile", profile).Warn("Failed to decode liked IDs, ignoring")
			state.LikedIDs = nil
		}
	}

	return &state, nil
}
