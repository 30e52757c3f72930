// Package container wires the service with samber/do. Each *Package
// function registers the providers of one concern; binaries pick the
// packages they need.
package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/logger"
	"github.com/serroba/linkmark/internal/messaging"
	"github.com/serroba/linkmark/internal/metrics"
	"github.com/serroba/linkmark/internal/ratelimit"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/serroba/linkmark/internal/store"
	"go.uber.org/zap"
)

const (
	connectTimeout    = 10 * time.Second
	rateLimitSweep    = time.Minute
	rateLimitMaxAge   = time.Hour
	consumerGroupName = "linkmark-analytics"
)

var ErrRedisRequired = errors.New("the redis event bus needs a redis address")

// Redis holds the optional Redis client. Client is nil without RedisAddr.
type Redis struct {
	Client *redis.Client
}

func (r *Redis) Shutdown() error {
	if r.Client == nil {
		return nil
	}

	return r.Client.Close()
}

// Postgres holds the optional pool. Pool is nil without DatabaseURL.
type Postgres struct {
	Pool *pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	if p.Pool != nil {
		p.Pool.Close()
	}

	return nil
}

// Repositories are the storage backends chosen from the options.
type Repositories struct {
	Links     shortener.LinkRepository
	QRCodes   shortener.QRRepository
	Documents documents.Repository
	Shares    documents.ShareRepository
	Events    analytics.EventStore
	Profiles  billing.ProfileStore
	Ledger    billing.EventLedger
	Counters  analytics.AssetCounters
}

// RateLimit owns the policy limiter and the sweeper of the in-memory store.
type RateLimit struct {
	Limiter *ratelimit.PolicyLimiter
	stop    context.CancelFunc
}

func (r *RateLimit) Shutdown() error {
	if r.stop != nil {
		r.stop()
	}

	return nil
}

func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return logger.New(logger.Config{Format: opts.LogFormat, Level: opts.LogLevel})
	})
}

func MetricsPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
}

func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Redis, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return &Redis{}, nil
		}

		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		if err := client.Ping(ctx).Err(); err != nil {
			do.MustInvoke[*zap.Logger](i).Warn("redis not reachable at startup",
				zap.String("addr", opts.RedisAddr),
				zap.Error(err),
			)
		}

		return &Redis{Client: client}, nil
	})
}

// PostgresPackage connects and applies the schema when DatabaseURL is set.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.DatabaseURL == "" {
			return &Postgres{}, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := store.NewPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}

		if err = store.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}

		return &Postgres{Pool: pool}, nil
	})
}

// RepositoryPackage picks Postgres or memory stores, and puts the Redis
// cache in front of code lookups when Redis is configured.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*Repositories, error) {
		opts := do.MustInvoke[*Options](i)
		log := do.MustInvoke[*zap.Logger](i)
		pg := do.MustInvoke[*Postgres](i)
		rdb := do.MustInvoke[*Redis](i)

		var (
			links  shortener.LinkRepository
			qrs    shortener.QRRepository
			repos  = &Repositories{}
			counts analytics.AssetCounters
		)

		if pg.Pool != nil {
			linkStore := store.NewLinkPostgresStore(pg.Pool)
			qrStore := store.NewQRPostgresStore(pg.Pool)
			shares := store.NewSharePostgresStore(pg.Pool)

			links, qrs = linkStore, qrStore
			repos.Documents = store.NewDocumentPostgresStore(pg.Pool)
			repos.Shares = shares
			repos.Events = store.NewEventPostgresStore(pg.Pool)
			repos.Profiles = store.NewProfilePostgresStore(pg.Pool)
			counts = analytics.AssetCounters{Links: linkStore, QRCodes: qrStore, Documents: shares}
		} else {
			log.Warn("no database configured, data lives in memory")

			linkStore := store.NewLinkMemoryStore()
			qrStore := store.NewQRMemoryStore()
			shares := store.NewShareMemoryStore()

			links, qrs = linkStore, qrStore
			repos.Documents = store.NewDocumentMemoryStore(shares)
			repos.Shares = shares
			repos.Events = store.NewEventMemoryStore()
			repos.Profiles = store.NewProfileMemoryStore()
			counts = analytics.AssetCounters{Links: linkStore, QRCodes: qrStore, Documents: shares}
		}

		if rdb.Client != nil {
			links = store.NewLinkCacheRepository(links, rdb.Client, opts.cacheTTL(), log)
			qrs = store.NewQRCacheRepository(qrs, rdb.Client, opts.cacheTTL(), log)
			repos.Ledger = store.NewLedgerRedisStore(rdb.Client, store.DefaultLedgerTTL)
		} else {
			repos.Ledger = store.NewLedgerMemoryStore()
		}

		repos.Links = links
		repos.QRCodes = qrs
		repos.Counters = counts

		return repos, nil
	})
}

// RateLimitPackage shares limits through Redis when configured. The memory
// store is swept in the background.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RateLimit, error) {
		rdb := do.MustInvoke[*Redis](i)

		if rdb.Client != nil {
			limiter := ratelimit.NewPolicyLimiter(store.NewRateLimitRedisStore(rdb.Client), ratelimit.DefaultPolicy())

			return &RateLimit{Limiter: limiter}, nil
		}

		mem := store.NewRateLimitMemoryStore()
		ctx, cancel := context.WithCancel(context.Background())

		go sweep(ctx, mem, do.MustInvoke[*zap.Logger](i))

		return &RateLimit{
			Limiter: ratelimit.NewPolicyLimiter(mem, ratelimit.DefaultPolicy()),
			stop:    cancel,
		}, nil
	})
}

func sweep(ctx context.Context, mem *store.RateLimitMemoryStore, log *zap.Logger) {
	ticker := time.NewTicker(rateLimitSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := mem.Sweep(rateLimitMaxAge); n > 0 {
				log.Debug("rate limit keys swept", zap.Int("count", n))
			}
		}
	}
}

// EventBusPackage provides the in-process transport used when EventBus is
// memory. The server publishes and consumes through the same instance.
func EventBusPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*gochannel.GoChannel, error) {
		log := do.MustInvoke[*zap.Logger](i)

		return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1024}, messaging.NewZapLogger(log)), nil
	})
}

func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.EventBus {
		case EventBusMemory, "":
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		case EventBusRedis:
			rdb := do.MustInvoke[*Redis](i)
			if rdb.Client == nil {
				return nil, ErrRedisRequired
			}

			publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
				Client:     rdb.Client,
				Marshaller: redisstream.DefaultMarshallerUnmarshaller{},
			}, messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)))
			if err != nil {
				return nil, fmt.Errorf("create redis stream publisher: %w", err)
			}

			return messaging.NewPublisherGroup(publisher), nil
		default:
			return nil, fmt.Errorf("unknown event bus %q", opts.EventBus)
		}
	})
}

// ConsumerGroupPackage registers the analytics sink on TopicVisit.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		log := do.MustInvoke[*zap.Logger](i)

		subscriber, err := subscriber(i, log)
		if err != nil {
			return nil, err
		}

		repos := do.MustInvoke[*Repositories](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		sink := analytics.NewSink(repos.Counters, repos.Events, log, analyticsObserver(m))

		group := messaging.NewConsumerGroup(subscriber, log)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicVisit, sink.Handle, log))

		return group, nil
	})
}

func subscriber(i *do.Injector, log *zap.Logger) (message.Subscriber, error) {
	opts := do.MustInvoke[*Options](i)

	switch opts.EventBus {
	case EventBusMemory, "":
		return do.MustInvoke[*gochannel.GoChannel](i), nil
	case EventBusRedis:
		rdb := do.MustInvoke[*Redis](i)
		if rdb.Client == nil {
			return nil, ErrRedisRequired
		}

		sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        rdb.Client,
			Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
			ConsumerGroup: consumerGroupName,
		}, messaging.NewZapLogger(log))
		if err != nil {
			return nil, fmt.Errorf("create redis stream subscriber: %w", err)
		}

		return sub, nil
	default:
		return nil, fmt.Errorf("unknown event bus %q", opts.EventBus)
	}
}

func analyticsObserver(m *metrics.Metrics) analytics.StageObserver {
	return func(stage string, kind analytics.AssetKind) {
		m.ObserveAnalytics(stage, string(kind))
	}
}
