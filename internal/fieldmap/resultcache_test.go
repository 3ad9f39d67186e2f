package fieldmap

import (
	"context"
	"strings"
	"testing"
	"time"

	"autofill-backend/internal/shared/cache"
)

func TestCacheKeyStable(t *testing.T) {
	fields := []Field{{Label: "Email", Type: "email", Index: 0}}

	k1 := CacheKey(fields, map[string]string{"email": "ada@example.com"}, nil, "resume")
	k2 := CacheKey(fields, map[string]string{"email": "ada@example.com"}, nil, "resume")
	if k1 == "" || k1 != k2 {
		t.Fatalf("identical inputs must produce identical keys: %q vs %q", k1, k2)
	}
	if !strings.HasPrefix(k1, "fieldmap:") {
		t.Fatalf("key %q lacks namespace prefix", k1)
	}

	k3 := CacheKey(fields, map[string]string{"email": "other@example.com"}, nil, "resume")
	if k1 == k3 {
		t.Fatalf("different profiles must produce different keys")
	}

	k4 := CacheKey(fields, map[string]string{"email": "ada@example.com"}, map[string]string{"q": "a"}, "resume")
	if k1 == k4 {
		t.Fatalf("custom answers must influence the key")
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	rc := NewResultCache(cache.NewMemory(4), time.Minute)
	ctx := context.Background()

	out := ResolveOutput{
		Mappings: map[string]MappingResult{
			"fp-1": {Value: strPtr("ada@example.com"), Confidence: 0.9, Reason: "matched profile.email"},
		},
		UnfilledKeys: []string{"github"},
		Source:       "cascade",
	}
	rc.Put(ctx, "k1", out)

	got, ok := rc.Get(ctx, "k1")
	if !ok {
		t.Fatalf("expected a cache hit")
	}
	m := got.Mappings["fp-1"]
	if m.Value == nil || *m.Value != "ada@example.com" || m.Confidence != 0.9 {
		t.Fatalf("cached mapping mismatch: %+v", m)
	}
	if len(got.UnfilledKeys) != 1 || got.UnfilledKeys[0] != "github" {
		t.Fatalf("unfilled keys mismatch: %v", got.UnfilledKeys)
	}

	if _, ok := rc.Get(ctx, "k2"); ok {
		t.Fatalf("unexpected hit for an unknown key")
	}
}

func TestResultCacheNilSafe(t *testing.T) {
	var rc *ResultCache
	ctx := context.Background()

	if _, ok := rc.Get(ctx, "k"); ok {
		t.Fatalf("nil cache must miss")
	}
	rc.Put(ctx, "k", ResolveOutput{})

	rc = NewResultCache(cache.NewMemory(4), time.Minute)
	if _, ok := rc.Get(ctx, ""); ok {
		t.Fatalf("empty key must miss")
	}
}
