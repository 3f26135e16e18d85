package server

import (
	"fmt"

	"revify/internal/cache"
	"revify/internal/database"
	"revify/pkg/models"
)

// catalogService serves song lookups through a short-lived memory cache
// so per-session coordinators and list endpoints do not hammer SQLite.
type catalogService struct {
	db    *database.Database
	cache *cache.SongCache
}

func newCatalogService(db *database.Database, songCache *cache.SongCache) *catalogService {
	return &catalogService{db: db, cache: songCache}
}

// ListSongs returns the full catalog, cached.
func (cs *catalogService) ListSongs() ([]models.Song, error) {
	if songs, ok := cs.cache.GetSongs("all"); ok {
		return songs, nil
	}

	songs, err := cs.db.GetAllSongs()
	if err != nil {
		return nil, err
	}

	cs.cache.SetSongs("all", songs)
	return songs, nil
}

// GetSong returns a single song by ID, cached.
func (cs *catalogService) GetSong(id int) (*models.Song, error) {
	key := fmt.Sprintf("song:%d", id)
	if song, ok := cs.cache.GetSong(key); ok {
		return song, nil
	}

	song, err := cs.db.GetSongByID(id)
	if err != nil {
		return nil, err
	}

	cs.cache.SetSong(key, song)
	return song, nil
}

// Search bypasses the cache; search result sets are too varied to be
// worth caching.
func (cs *catalogService) Search(query string) ([]models.Song, error) {
	return cs.db.SearchSongs(query)
}

// Invalidate drops cached entries after a catalog mutation.
func (cs *catalogService) Invalidate() {
	cs.cache.Clear()
}

// userService adapts the database to the coordinator's account
// operations.
type userService struct {
	db *database.Database
}

func (us *userService) SetLike(username string, songID int, liked bool) error {
	if liked {
		return us.db.LikeSong(username, songID)
	}
	return us.db.UnlikeSong(username, songID)
}

func (us *userService) LikedSongIDs(username string) ([]int, error) {
	return us.db.GetLikedSongIDs(username)
}
