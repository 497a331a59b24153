package services

import (
	"context"
	"os"
	"strings"
	"testing"

	"docqa-platform/internal/config"
	"docqa-platform/models"

	"github.com/redis/go-redis/v9"
)

func TestCacheKeyNormalizesQuestion(t *testing.T) {
	base := cacheKey("u1", "texthash", "What is Go?")

	if got := cacheKey("u1", "texthash", "  what is go?  "); got != base {
		t.Error("case and surrounding whitespace should not change the key")
	}
	if got := cacheKey("u1", "texthash", "what is rust?"); got == base {
		t.Error("different questions must not collide")
	}
	if got := cacheKey("u2", "texthash", "What is Go?"); got == base {
		t.Error("keys must be user-scoped")
	}
	if got := cacheKey("u1", "otherhash", "What is Go?"); got == base {
		t.Error("keys must be bound to the document text")
	}
	if !strings.HasPrefix(base, "answer:u1:texthash:") {
		t.Errorf("unexpected key shape: %s", base)
	}
}

func TestDisabledCacheReadsAsMiss(t *testing.T) {
	ctx := context.Background()

	// Nil Redis client
	cache := NewAnswerCache(nil, &config.Config{AnswerCacheTTL: 600})
	if _, ok := cache.Get(ctx, "u", "h", "q"); ok {
		t.Error("nil client should read as a miss")
	}
	cache.Put(ctx, "u", "h", "q", &CachedAnswer{Kind: models.KindAnswered, Answer: "x"})

	// Zero TTL
	zero := NewAnswerCache(nil, &config.Config{})
	if zero.enabled() {
		t.Error("zero TTL cache reports enabled")
	}

	// Nil receiver
	var none *AnswerCache
	if none.enabled() {
		t.Error("nil cache reports enabled")
	}
	if _, ok := none.Get(ctx, "u", "h", "q"); ok {
		t.Error("nil cache should read as a miss")
	}
}

func TestAnswerCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })

	cache := NewAnswerCache(rdb, &config.Config{AnswerCacheTTL: 60})
	ctx := context.Background()

	entry := &CachedAnswer{
		Kind:      models.KindAnswered,
		Answer:    "The deadline is March 3.",
		BestScore: 0.61,
		Matches:   []models.MatchInfo{{Text: "The deadline is March 3.", Score: 0.61}},
	}
	cache.Put(ctx, "user-a", "texthash", "When is the deadline?", entry)

	got, ok := cache.Get(ctx, "user-a", "texthash", "when is the deadline?")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.Answer != entry.Answer || got.Kind != entry.Kind || got.BestScore != entry.BestScore {
		t.Errorf("cached entry mutated: %+v", got)
	}

	// Transient outcomes must never be stored
	cache.Put(ctx, "user-a", "texthash", "broken question", &CachedAnswer{Kind: models.KindError, Answer: "boom"})
	if _, ok := cache.Get(ctx, "user-a", "texthash", "broken question"); ok {
		t.Error("error outcomes must not be cached")
	}

	cache.Put(ctx, "user-a", "texthash", "empty state", &CachedAnswer{Kind: models.KindNoDocument})
	if _, ok := cache.Get(ctx, "user-a", "texthash", "empty state"); ok {
		t.Error("no-document outcomes must not be cached")
	}
}
