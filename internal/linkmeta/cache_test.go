package linkmeta

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(maxSize int, ttl time.Duration) (*TitleCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewTitleCache(maxSize, ttl)
	cache.now = clock.now
	return cache, clock
}

func TestTitleCacheFreshness(t *testing.T) {
	cache, clock := newTestCache(10, time.Hour)

	cache.Set("https://example.com", "Example Domain")

	if title, ok := cache.Get("https://example.com"); !ok || title != "Example Domain" {
		t.Fatalf("Get() = (%q, %v), want fresh hit", title, ok)
	}

	clock.t = clock.t.Add(59 * time.Minute)
	if _, ok := cache.Get("https://example.com"); !ok {
		t.Fatal("entry should still be fresh before the TTL")
	}

	clock.t = clock.t.Add(time.Minute)
	if _, ok := cache.Get("https://example.com"); ok {
		t.Fatal("entry should be stale once the TTL has elapsed")
	}
}

func TestTitleCacheSetRefreshesTimestamp(t *testing.T) {
	cache, clock := newTestCache(10, time.Hour)

	cache.Set("u", "old")
	clock.t = clock.t.Add(50 * time.Minute)
	cache.Set("u", "new")
	clock.t = clock.t.Add(50 * time.Minute)

	if title, ok := cache.Get("u"); !ok || title != "new" {
		t.Fatalf("Get() = (%q, %v), want refreshed entry", title, ok)
	}
}

func TestTitleCacheSweepExpired(t *testing.T) {
	cache, clock := newTestCache(10, time.Hour)

	cache.Set("a", "A")
	clock.t = clock.t.Add(30 * time.Minute)
	cache.Set("b", "B")
	clock.t = clock.t.Add(45 * time.Minute)

	if removed := cache.SweepExpired(); removed != 1 {
		t.Fatalf("SweepExpired() = %d, want 1", removed)
	}
	if cache.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", cache.Size())
	}
	if _, ok := cache.Get("b"); !ok {
		t.Fatal("fresh entry should survive the sweep")
	}
}

func TestTitleCacheEvictsOldestWhenFull(t *testing.T) {
	cache, clock := newTestCache(2, time.Hour)

	cache.Set("a", "A")
	clock.t = clock.t.Add(time.Minute)
	cache.Set("b", "B")
	clock.t = clock.t.Add(time.Minute)
	cache.Set("c", "C")

	if cache.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", cache.Size())
	}
	if _, ok := cache.Get("a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok := cache.Get(k); !ok {
			t.Fatalf("entry %q should still be cached", k)
		}
	}
}

func TestTitleCacheEvictsStaleBeforeFresh(t *testing.T) {
	cache, clock := newTestCache(2, time.Hour)

	cache.Set("stale", "S")
	clock.t = clock.t.Add(2 * time.Hour)
	cache.Set("fresh", "F")
	cache.Set("new", "N")

	if _, ok := cache.Get("fresh"); !ok {
		t.Fatal("fresh entry should not be evicted while a stale one exists")
	}
	if cache.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", cache.Size())
	}
}
