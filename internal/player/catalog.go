package player

import "revify/pkg/models"

// Catalog is the read-only song source the coordinator resolves tracks
// against. The coordinator never mutates catalog entries.
type Catalog interface {
	ListSongs() ([]models.Song, error)
	GetSong(id int) (*models.Song, error)
}

// UserService is the collaborator for account-level mutations. Like
// toggles go through it with optimistic local state that commits or rolls
// back on the call's outcome.
type UserService interface {
	SetLike(username string, songID int, liked bool) error
	LikedSongIDs(username string) ([]int, error)
}
