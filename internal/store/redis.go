package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/ratelimit"
)

// DefaultLedgerTTL bounds how long a processed webhook event id is remembered.
const DefaultLedgerTTL = 72 * time.Hour

// RateLimitRedisStore is a sliding-window ratelimit.Store backed by one
// sorted set per key, scored by request time.
type RateLimitRedisStore struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRedisStore creates a new Redis-backed rate limit store.
func NewRateLimitRedisStore(client *redis.Client) *RateLimitRedisStore {
	return &RateLimitRedisStore{client: client, prefix: "ratelimit:"}
}

func (r *RateLimitRedisStore) Record(ctx context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()
	zkey := r.prefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	var card *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, zkey, "-inf", "("+cutoff)
		pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		card = pipe.ZCard(ctx, zkey)
		pipe.Expire(ctx, zkey, window)

		return nil
	})
	if err != nil {
		return 0, err
	}

	return card.Val(), nil
}

// LedgerRedisStore is a billing.EventLedger using SETNX with a TTL.
type LedgerRedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLedgerRedisStore creates a new Redis-backed webhook event ledger.
func NewLedgerRedisStore(client *redis.Client, ttl time.Duration) *LedgerRedisStore {
	if ttl <= 0 {
		ttl = DefaultLedgerTTL
	}

	return &LedgerRedisStore{client: client, prefix: "billing:event:", ttl: ttl}
}

func (r *LedgerRedisStore) Claim(ctx context.Context, eventID string) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+eventID, time.Now().Unix(), r.ttl).Result()
}

func (r *LedgerRedisStore) Release(ctx context.Context, eventID string) error {
	return r.client.Del(ctx, r.prefix+eventID).Err()
}

// Compile-time checks.
var (
	_ ratelimit.Store     = (*RateLimitRedisStore)(nil)
	_ billing.EventLedger = (*LedgerRedisStore)(nil)
)
