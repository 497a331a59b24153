package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/models"

	"github.com/redis/go-redis/v9"
)

// AnswerCache memoizes answer results in Redis. A key binds the user, the
// document text hash and the normalized question, so re-uploading a
// document invalidates its cached answers without explicit eviction.
type AnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAnswerCache creates the cache. A nil client or zero TTL disables it;
// every lookup is then a miss and writes are dropped.
func NewAnswerCache(rdb *redis.Client, cfg *config.Config) *AnswerCache {
	return &AnswerCache{
		rdb: rdb,
		ttl: time.Duration(cfg.AnswerCacheTTL) * time.Second,
	}
}

// CachedAnswer is the stored form of one answered question
type CachedAnswer struct {
	Kind      string             `json:"kind"`
	Answer    string             `json:"answer"`
	BestScore float64            `json:"best_score"`
	Matches   []models.MatchInfo `json:"matches,omitempty"`
}

func (ac *AnswerCache) enabled() bool {
	return ac != nil && ac.rdb != nil && ac.ttl > 0
}

func cacheKey(userID, textHash, question string) string {
	questionHash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(question))))
	return "answer:" + userID + ":" + textHash + ":" + hex.EncodeToString(questionHash[:])
}

// Get returns the cached entry for a question. Redis being down or the key
// being absent are both plain misses; the caller recomputes.
func (ac *AnswerCache) Get(ctx context.Context, userID, textHash, question string) (*CachedAnswer, bool) {
	if !ac.enabled() || textHash == "" {
		return nil, false
	}

	data, err := ac.rdb.Get(ctx, cacheKey(userID, textHash, question)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Debug("answer cache read failed", "error", err)
		return nil, false
	}

	var entry CachedAnswer
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return &entry, true
}

// Put stores an answer result. Only answered and no-confident-match
// outcomes are worth keeping; everything else is either trivial to
// recompute or transient.
func (ac *AnswerCache) Put(ctx context.Context, userID, textHash, question string, entry *CachedAnswer) {
	if !ac.enabled() || textHash == "" {
		return
	}
	if entry.Kind != models.KindAnswered && entry.Kind != models.KindNoConfidentMatch {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	if err := ac.rdb.Set(ctx, cacheKey(userID, textHash, question), data, ac.ttl).Err(); err != nil {
		// Fail open, same as the rate limiter
		logger.Debug("answer cache write failed", "error", err)
	}
}
