package application

import (
	"testing"
	"time"
)

func TestWarningCacheStoresAndReturnsCopies(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newWarningCache(time.Minute, 4, func() time.Time { return current })

	original := []ConflictWarning{{EventID: "evt-1", Title: "Kalkulus"}}
	cache.Store("user-1", "key", 0, original)
	original[0].EventID = "mutated"

	cached, ok := cache.Get("key", 0)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if cached[0].EventID != "evt-1" {
		t.Fatalf("expected cached event id to remain unchanged, got %s", cached[0].EventID)
	}

	cached[0].EventID = "changed"
	again, ok := cache.Get("key", 0)
	if !ok || again[0].EventID != "evt-1" {
		t.Fatalf("expected cache to return independent copy, got %+v", again)
	}
}

func TestWarningCacheExpiresEntries(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newWarningCache(time.Second, 4, func() time.Time { return current })

	cache.Store("user-1", "key", 0, []ConflictWarning{{EventID: "evt-1"}})
	if _, ok := cache.Get("key", 0); !ok {
		t.Fatalf("expected cache hit before expiry")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Get("key", 0); ok {
		t.Fatalf("expected cache entry to expire")
	}
}

func TestWarningCacheInvalidateUser(t *testing.T) {
	cache := newWarningCache(time.Minute, 4, time.Now)
	monday := time.Monday
	cache.Store("user-1", buildWarningCacheKey("user-1", nil), 0, nil)
	cache.Store("user-1", buildWarningCacheKey("user-1", &monday), 0, nil)
	cache.Store("user-2", buildWarningCacheKey("user-2", nil), 0, nil)

	cache.InvalidateUser("user-1")

	if _, ok := cache.Get(buildWarningCacheKey("user-1", nil), 0); ok {
		t.Fatal("expected user-1 listing to be invalidated")
	}
	if _, ok := cache.Get(buildWarningCacheKey("user-1", &monday), 0); ok {
		t.Fatal("expected user-1 Monday listing to be invalidated")
	}
	if _, ok := cache.Get(buildWarningCacheKey("user-2", nil), 0); !ok {
		t.Fatal("expected user-2 listing to survive")
	}
}

func TestWarningCacheEvictsOldestWhenFull(t *testing.T) {
	current := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	cache := newWarningCache(time.Minute, 2, func() time.Time { return current })

	cache.Store("u", "first", 0, nil)
	current = current.Add(time.Second)
	cache.Store("u", "second", 0, nil)
	current = current.Add(time.Second)
	cache.Store("u", "third", 0, nil)

	if _, ok := cache.Get("first", 0); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
	if _, ok := cache.Get("third", 0); !ok {
		t.Fatal("expected newest entry to be present")
	}
}

func TestWarningCacheDropsWarningsComputedBeforeInvalidation(t *testing.T) {
	cache := newWarningCache(time.Minute, 4, time.Now)
	key := buildWarningCacheKey("user-1", nil)

	before := cache.Generation("user-1")
	cache.InvalidateUser("user-1")
	cache.Store("user-1", key, before, nil)

	after := cache.Generation("user-1")
	if after == before {
		t.Fatal("expected InvalidateUser to advance the generation")
	}
	if _, ok := cache.Get(key, before); ok {
		t.Fatal("expected stale listing to be discarded")
	}
	if _, ok := cache.Get(key, after); ok {
		t.Fatal("expected no entry for the current generation")
	}

	cache.Store("user-1", key, after, []ConflictWarning{{EventID: "evt-1"}})
	if got, ok := cache.Get(key, after); !ok || len(got) != 1 {
		t.Fatalf("expected fresh listing to be cached, got %+v %v", got, ok)
	}
	if cache.Generation("user-2") != 0 {
		t.Fatal("expected other users to keep their generation")
	}
}
