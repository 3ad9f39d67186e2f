package fieldmap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"autofill-backend/internal/shared/cache"
)

// ResolveOutput is the full result of one mapping request. Mappings are keyed
// by field fingerprint and, for positional consumers, by the stringified
// field index.
type ResolveOutput struct {
	Mappings     map[string]MappingResult `json:"mappings"`
	UnfilledKeys []string                 `json:"unfilled_profile_keys"`
	Source       string                   `json:"source"`
}

// ResultCache memoizes whole resolution outputs so an identical request never
// repeats the generative call. Short TTL: profiles change.
type ResultCache struct {
	store cache.Cache
	ttl   time.Duration
}

func NewResultCache(store cache.Cache, ttl time.Duration) *ResultCache {
	return &ResultCache{store: store, ttl: ttl}
}

// Declared so the serialized keys come out alphabetical; the key must be
// stable across processes sharing a cache backend.
type cacheKeyPayload struct {
	CustomAnswers map[string]string `json:"custom_answers"`
	Fields        []Field           `json:"fields"`
	Profile       map[string]string `json:"profile"`
	ResumeText    string            `json:"resume_text"`
}

// CacheKey builds the canonical request key over everything that influences
// the resolution result.
func CacheKey(fields []Field, profile, customAnswers map[string]string, resumeText string) string {
	payload := cacheKeyPayload{
		CustomAnswers: customAnswers,
		Fields:        fields,
		Profile:       profile,
		ResumeText:    resumeText,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return "fieldmap:" + hex.EncodeToString(sum[:])
}

func (c *ResultCache) Get(ctx context.Context, key string) (ResolveOutput, bool) {
	if c == nil || key == "" {
		return ResolveOutput{}, false
	}
	raw, ok := c.store.Get(ctx, key)
	if !ok {
		return ResolveOutput{}, false
	}
	var out ResolveOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return ResolveOutput{}, false
	}
	return out, true
}

func (c *ResultCache) Put(ctx context.Context, key string, out ResolveOutput) {
	if c == nil || key == "" {
		return
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	c.store.Set(ctx, key, raw, c.ttl)
}
