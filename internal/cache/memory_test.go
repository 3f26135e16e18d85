package cache

import (
	"testing"
	"time"

	"revify/pkg/models"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(50 * time.Millisecond)

	c.Set("key", "value")
	if v, ok := c.Get("key"); !ok || v.(string) != "value" {
		t.Errorf("Expected cached value, got %v ok=%v", v, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	c.Delete("key")
	if _, ok := c.Get("key"); ok {
		t.Error("Expected miss after delete")
	}

	c.Set("a", 1)
	c.Set("b", 2)
	if c.Size() != 2 {
		t.Errorf("Expected size 2, got %d", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Expected empty cache, got size %d", c.Size())
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(20 * time.Millisecond)

	c.Set("key", "value")
	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestSongCache(t *testing.T) {
	sc := NewSongCache()

	songs := []models.Song{
		{ID: 1, Title: "One"},
		{ID: 2, Title: "Two"},
	}
	sc.SetSongs("all", songs)

	got, ok := sc.GetSongs("all")
	if !ok || len(got) != 2 {
		t.Fatalf("Expected 2 cached songs, got %v ok=%v", got, ok)
	}

	song := &models.Song{ID: 3, Title: "Three"}
	sc.SetSong("song:3", song)
	if got, ok := sc.GetSong("song:3"); !ok || got.ID != 3 {
		t.Errorf("Expected cached song 3, got %v ok=%v", got, ok)
	}

	if _, ok := sc.GetSong("song:9"); ok {
		t.Error("Expected miss for uncached song")
	}
}
