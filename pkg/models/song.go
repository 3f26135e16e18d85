package models

import "time"

// Song represents a song in the catalog. Songs are immutable once
// created; media lives on the asset host and is referenced by URL.
type Song struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Genre     string    `json:"genre"`
	Duration  int       `json:"duration"`
	AudioURL  string    `json:"audioUrl"`
	CoverURL  string    `json:"coverUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// User represents a registered listener account.
type User struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	CreatedAt time.Time  `json:"createdAt"`
	Likes     []int      `json:"likedSongs"`
	Playlists []Playlist `json:"playlists"`
}

// Playlist represents a user-created playlist
type Playlist struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Songs     []Song    `json:"songs"`
}

// PlaylistSong represents the relationship between playlists and songs
type PlaylistSong struct {
	PlaylistID int `json:"playlistId"`
	SongID     int `json:"songId"`
	Position   int `json:"position"`
}
