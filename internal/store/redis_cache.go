package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/linkmark/internal/shortener"
	"go.uber.org/zap"
)

// redisCache stores JSON snapshots keyed by short code. Cache failures are
// logged and never surface to callers.
type redisCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func (c redisCache[T]) get(ctx context.Context, code string) (*T, bool) {
	raw, err := c.client.Get(ctx, c.prefix+code).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.String("key", c.prefix+code), zap.Error(err))
		}

		return nil, false
	}

	var v T
	if err = json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}

	return &v, true
}

func (c redisCache[T]) put(ctx context.Context, code string, v *T) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}

	if err = c.client.Set(ctx, c.prefix+code, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", c.prefix+code), zap.Error(err))
	}
}

func (c redisCache[T]) evict(ctx context.Context, code string) {
	if err := c.client.Del(ctx, c.prefix+code).Err(); err != nil {
		c.logger.Warn("cache evict failed", zap.String("key", c.prefix+code), zap.Error(err))
	}
}

// LinkCacheRepository wraps a LinkRepository with a read-through cache for
// code lookups. Writes that can change resolution evict the entry.
type LinkCacheRepository struct {
	shortener.LinkRepository
	cache redisCache[shortener.Link]
}

// NewLinkCacheRepository creates a new Redis-cached link repository decorator.
func NewLinkCacheRepository(
	store shortener.LinkRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *LinkCacheRepository {
	return &LinkCacheRepository{
		LinkRepository: store,
		cache:          redisCache[shortener.Link]{client: client, prefix: "link:", ttl: ttl, logger: logger},
	}
}

func (r *LinkCacheRepository) GetByCode(ctx context.Context, code string) (*shortener.Link, error) {
	if link, ok := r.cache.get(ctx, code); ok {
		return link, nil
	}

	link, err := r.LinkRepository.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cache.put(ctx, code, link)

	return link, nil
}

func (r *LinkCacheRepository) Update(ctx context.Context, link *shortener.Link) error {
	if err := r.LinkRepository.Update(ctx, link); err != nil {
		return err
	}

	r.cache.evict(ctx, link.ShortCode)

	return nil
}

func (r *LinkCacheRepository) Delete(ctx context.Context, link *shortener.Link) error {
	if err := r.LinkRepository.Delete(ctx, link); err != nil {
		return err
	}

	r.cache.evict(ctx, link.ShortCode)

	return nil
}

// QRCacheRepository is the QR code counterpart of LinkCacheRepository.
type QRCacheRepository struct {
	shortener.QRRepository
	cache redisCache[shortener.QRCode]
}

// NewQRCacheRepository creates a new Redis-cached QR repository decorator.
func NewQRCacheRepository(
	store shortener.QRRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger,
) *QRCacheRepository {
	return &QRCacheRepository{
		QRRepository: store,
		cache:        redisCache[shortener.QRCode]{client: client, prefix: "qr:", ttl: ttl, logger: logger},
	}
}

func (r *QRCacheRepository) GetByCode(ctx context.Context, code string) (*shortener.QRCode, error) {
	if qr, ok := r.cache.get(ctx, code); ok {
		return qr, nil
	}

	qr, err := r.QRRepository.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cache.put(ctx, code, qr)

	return qr, nil
}

func (r *QRCacheRepository) Update(ctx context.Context, qr *shortener.QRCode) error {
	if err := r.QRRepository.Update(ctx, qr); err != nil {
		return err
	}

	r.cache.evict(ctx, qr.Code)

	return nil
}

func (r *QRCacheRepository) Delete(ctx context.Context, qr *shortener.QRCode) error {
	if err := r.QRRepository.Delete(ctx, qr); err != nil {
		return err
	}

	r.cache.evict(ctx, qr.Code)

	return nil
}

// Compile-time checks.
var (
	_ shortener.LinkRepository = (*LinkCacheRepository)(nil)
	_ shortener.QRRepository   = (*QRCacheRepository)(nil)
)
