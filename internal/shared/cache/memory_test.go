package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory(4)
	ctx := context.Background()

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatal("expected miss on empty cache")
	}
	m.Set(ctx, "a", []byte("one"), time.Minute)
	got, ok := m.Get(ctx, "a")
	if !ok || string(got) != "one" {
		t.Fatalf("expected hit with %q, got %q ok=%v", "one", got, ok)
	}
	m.Set(ctx, "a", []byte("two"), time.Minute)
	got, _ = m.Get(ctx, "a")
	if string(got) != "two" {
		t.Fatalf("overwrite did not stick, got %q", got)
	}
	m.Delete(ctx, "a")
	if _, ok := m.Get(ctx, "a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory(4)
	ctx := context.Background()

	base := time.Now()
	m.now = func() time.Time { return base }
	m.Set(ctx, "a", []byte("one"), 5*time.Minute)

	m.now = func() time.Time { return base.Add(4 * time.Minute) }
	if _, ok := m.Get(ctx, "a"); !ok {
		t.Fatal("entry expired early")
	}
	m.now = func() time.Time { return base.Add(6 * time.Minute) }
	if _, ok := m.Get(ctx, "a"); ok {
		t.Fatal("entry should have expired")
	}
	if m.Len() != 0 {
		t.Fatalf("expired entry not removed, len=%d", m.Len())
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	m := NewMemory(3)
	ctx := context.Background()

	m.Set(ctx, "a", []byte("1"), time.Minute)
	m.Set(ctx, "b", []byte("2"), time.Minute)
	m.Set(ctx, "c", []byte("3"), time.Minute)

	// Touch "a" so "b" becomes the eviction candidate.
	if _, ok := m.Get(ctx, "a"); !ok {
		t.Fatal("expected hit for a")
	}
	m.Set(ctx, "d", []byte("4"), time.Minute)

	if _, ok := m.Get(ctx, "b"); ok {
		t.Fatal("least recently used entry survived eviction")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := m.Get(ctx, key); !ok {
			t.Fatalf("expected %s to survive eviction", key)
		}
	}
}

func TestMemoryCapacityBound(t *testing.T) {
	m := NewMemory(8)
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		m.Set(ctx, fmt.Sprintf("key-%d", i), []byte("v"), time.Minute)
	}
	if m.Len() > 8 {
		t.Fatalf("cache grew past capacity: %d", m.Len())
	}
}

func TestMemoryZeroTTLIgnored(t *testing.T) {
	m := NewMemory(4)
	ctx := context.Background()
	m.Set(ctx, "a", []byte("1"), 0)
	if _, ok := m.Get(ctx, "a"); ok {
		t.Fatal("zero-TTL set should not store")
	}
}
