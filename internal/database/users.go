package database

import (
	"database/sql"
	"fmt"

	"revify/pkg/models"
)

// CreateUser inserts a new user row with an already-hashed password and
// returns its ID. Fails if the username is taken.
func (db *Database) CreateUser(username, passwordHash string) (int, error) {
	result, err := db.conn.Exec(`
		INSERT INTO users (username, password_hash)
		VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	return int(id), err
}

// GetUserCredentials returns the user ID and stored password hash for a
// username, or an error if the user does not exist.
func (db *Database) GetUserCredentials(username string) (int, string, error) {
	var id int
	var hash string
	err := db.conn.QueryRow(`
		SELECT id, password_hash FROM users WHERE username = ?`, username).Scan(&id, &hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, "", fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return 0, "", err
	}
	return id, hash, nil
}

// UserExists returns true if a user with the given username exists.
func (db *Database) UserExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUser returns the full user record: identity, liked song IDs and
// playlists with their songs populated.
func (db *Database) GetUser(username string) (*models.User, error) {
	var user models.User
	err := db.conn.QueryRow(`
		SELECT id, username, created_at FROM users WHERE username = ?`,
		username).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return nil, err
	}

	likes, err := db.GetLikedSongIDs(username)
	if err != nil {
		return nil, err
	}
	user.Likes = likes

	playlists, err := db.GetPlaylists(username)
	if err != nil {
		return nil, err
	}
	user.Playlists = playlists

	return &user, nil
}

// LikeSong records that a user likes a song. Idempotent.
func (db *Database) LikeSong(username string, songID int) error {
	_, err := db.conn.Exec(`
		INSERT INTO likes (username, song_id)
		VALUES (?, ?)
		ON CONFLICT(username, song_id) DO NOTHING`, username, songID)
	return err
}

// UnlikeSong removes a user's like for a song. Idempotent.
func (db *Database) UnlikeSong(username string, songID int) error {
	_, err := db.conn.Exec(`
		DELETE FROM likes WHERE username = ? AND song_id = ?`, username, songID)
	return err
}

// GetLikedSongIDs returns the IDs of all songs liked by a user, most
// recently liked first.
func (db *Database) GetLikedSongIDs(username string) ([]int, error) {
	rows, err := db.conn.Query(`
		SELECT song_id FROM likes
		WHERE username = ?
		ORDER BY liked_at DESC`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetLikedSongs returns the full song records liked by a user.
func (db *Database) GetLikedSongs(username string) ([]models.Song, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, s.title, s.artist, s.genre, s.duration, s.audio_url, s.cover_url, s.created_at
		FROM songs s
		JOIN likes l ON s.id = l.song_id
		WHERE l.username = ?
		ORDER BY l.liked_at DESC`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}
