package database

import (
	"database/sql"
	"fmt"

	"revify/pkg/models"
)

// CreatePlaylist inserts a new playlist for a user and returns its ID.
func (db *Database) CreatePlaylist(username, name string) (int, error) {
	result, err := db.conn.Exec(`
		INSERT INTO playlists (username, name)
		VALUES (?, ?)`, username, name)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	return int(id), err
}

// GetPlaylists returns all playlists owned by a user, songs populated,
// newest playlist first.
func (db *Database) GetPlaylists(username string) ([]models.Playlist, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, created_at
		FROM playlists
		WHERE username = ?
		ORDER BY created_at DESC`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var playlist models.Playlist
		if err := rows.Scan(&playlist.ID, &playlist.Name, &playlist.CreatedAt); err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range playlists {
		songs, err := db.GetPlaylistSongs(playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Songs = songs
	}

	return playlists, nil
}

// GetPlaylist returns a single playlist by ID if owned by the user.
func (db *Database) GetPlaylist(username string, playlistID int) (*models.Playlist, error) {
	var playlist models.Playlist
	err := db.conn.QueryRow(`
		SELECT id, name, created_at
		FROM playlists
		WHERE id = ? AND username = ?`, playlistID, username).Scan(
		&playlist.ID, &playlist.Name, &playlist.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("playlist %d for user %s: %w", playlistID, username, ErrNotFound)
		}
		return nil, err
	}

	songs, err := db.GetPlaylistSongs(playlist.ID)
	if err != nil {
		return nil, err
	}
	playlist.Songs = songs

	return &playlist, nil
}

// GetPlaylistSongs returns songs for a playlist ordered by stored position.
func (db *Database) GetPlaylistSongs(playlistID int) ([]models.Song, error) {
	rows, err := db.conn.Query(`
		SELECT s.id, s.title, s.artist, s.genre, s.duration, s.audio_url, s.cover_url, s.created_at
		FROM songs s
		JOIN playlist_songs ps ON s.id = ps.song_id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSongRows(rows)
}

// AddSongToPlaylist appends a song to the end of a playlist (if not already present).
func (db *Database) AddSongToPlaylist(playlistID, songID int) error {
	// Get the next position
	var maxPosition sql.NullInt64
	err := db.conn.QueryRow(`
		SELECT MAX(position) FROM playlist_songs WHERE playlist_id = ?`,
		playlistID).Scan(&maxPosition)

	if err != nil && err != sql.ErrNoRows {
		return err
	}

	position := 1
	if maxPosition.Valid {
		position = int(maxPosition.Int64) + 1
	}

	_, err = db.conn.Exec(`
		INSERT INTO playlist_songs (playlist_id, song_id, position)
		VALUES (?, ?, ?)
		ON CONFLICT(playlist_id, song_id) DO NOTHING`,
		playlistID, songID, position)

	return err
}

// RemoveSongFromPlaylist removes a specific song from the given playlist.
func (db *Database) RemoveSongFromPlaylist(playlistID, songID int) error {
	_, err := db.conn.Exec(`
		DELETE FROM playlist_songs
		WHERE playlist_id = ? AND song_id = ?`,
		playlistID, songID)

	return err
}

// RenamePlaylist updates a playlist's name if owned by the user.
func (db *Database) RenamePlaylist(username string, playlistID int, name string) error {
	result, err := db.conn.Exec(`
		UPDATE playlists SET name = ?
		WHERE id = ? AND username = ?`, name, playlistID, username)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("playlist %d for user %s: %w", playlistID, username, ErrNotFound)
	}
	return nil
}

// DeletePlaylist deletes the playlist and any playlist_songs entries
// referencing it, if owned by the user.
func (db *Database) DeletePlaylist(username string, playlistID int) error {
	result, err := db.conn.Exec(`
		DELETE FROM playlists WHERE id = ? AND username = ?`, playlistID, username)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("playlist %d for user %s: %w", playlistID, username, ErrNotFound)
	}
	return nil
}
