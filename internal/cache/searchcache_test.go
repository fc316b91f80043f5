package cache

import (
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/search"
)

// newTestCache creates a cache backed by a temporary database file.
func newTestCache(t *testing.T, ttl time.Duration) *SearchCache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "search.db")
	c, err := NewSearchCache(dbPath, ttl)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSearchCache_PutGet(t *testing.T) {
	c := newTestCache(t, 0)

	if _, ok, err := c.Get("go"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	want := []search.Result{{Title: "Go", URL: "https://go.dev", Description: "The Go language"}}
	if err := c.Put("go", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := c.Get("go")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSearchCache_Overwrite(t *testing.T) {
	c := newTestCache(t, 0)

	if err := c.Put("go", []search.Result{{URL: "http://old"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := c.Put("go", []search.Result{{URL: "http://new"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, _, _ := c.Get("go")
	if len(got) != 1 || got[0].URL != "http://new" {
		t.Fatalf("expected overwrite, got %+v", got)
	}
}

func TestSearchCache_Expiry(t *testing.T) {
	c := newTestCache(t, time.Hour)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	if err := c.Put("go", []search.Result{{URL: "http://go"}}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if _, ok, _ := c.Get("go"); !ok {
		t.Fatal("expected fresh entry to hit")
	}

	now = now.Add(2 * time.Hour)
	if _, ok, _ := c.Get("go"); ok {
		t.Fatal("expected expired entry to miss")
	}

	n, err := c.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned entry, got %d", n)
	}
}
