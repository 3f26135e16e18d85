package cache

import (
	"sync"
	"time"

	"revify/pkg/models"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Value      interface{}
	Expiration time.Time
}

// IsExpired checks if the cache entry has expired
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expiration)
}

// MemoryCache implements a simple in-memory cache
type MemoryCache struct {
	items map[string]*CacheEntry
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items: make(map[string]*CacheEntry),
		mutex: sync.RWMutex{},
		ttl:   ttl,
	}

	// Start cleanup goroutine
	go cache.cleanupExpired()

	return cache
}

// Set stores a value in the cache
func (c *MemoryCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &CacheEntry{
		Value:      value,
		Expiration: time.Now().Add(c.ttl),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.items[key]
	if !exists || entry.IsExpired() {
		return nil, false
	}

	return entry.Value, true
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*CacheEntry)
}

// Size returns the number of items in the cache
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}

// cleanupExpired removes expired entries periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(time.Minute * 5)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		for key, entry := range c.items {
			if entry.IsExpired() {
				delete(c.items, key)
			}
		}
		c.mutex.Unlock()
	}
}

// SongCache provides convenience methods for caching catalog queries.
// Catalog responses stay fresh for five minutes before hitting the
// database again, matching how often new uploads typically land.
type SongCache struct {
	*MemoryCache
}

// NewSongCache creates a new song cache
func NewSongCache() *SongCache {
	return &SongCache{
		MemoryCache: NewMemoryCache(5 * time.Minute),
	}
}

// SetSongs caches a slice of songs
func (sc *SongCache) SetSongs(key string, songs []models.Song) {
	sc.Set(key, songs)
}

// GetSongs retrieves cached songs
func (sc *SongCache) GetSongs(key string) ([]models.Song, bool) {
	value, exists := sc.Get(key)
	if !exists {
		return nil, false
	}

	songs, ok := value.([]models.Song)
	return songs, ok
}

// SetSong caches a single song
func (sc *SongCache) SetSong(key string, song *models.Song) {
	sc.Set(key, song)
}

// GetSong retrieves a cached song
func (sc *SongCache) GetSong(key string) (*models.Song, bool) {
	value, exists := sc.Get(key)
	if !exists {
		return nil, false
	}

	song, ok := value.(*models.Song)
	return song, ok
}
