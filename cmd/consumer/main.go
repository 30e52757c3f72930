package main

import (
	"context"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/linkmark/internal/container"
	"github.com/serroba/linkmark/internal/logger"
	"github.com/serroba/linkmark/internal/messaging"
	"go.uber.org/zap"
)

// The consumer drains the Redis stream. The in-memory bus never reaches
// another process, so EventBus is always forced to redis here.
func main() {
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		options.EventBus = container.EventBusRedis

		injector := do.New()
		do.ProvideValue(injector, options)
		container.LoggerPackage(injector)
		container.MetricsPackage(injector)
		container.RedisPackage(injector)
		container.PostgresPackage(injector)
		container.RepositoryPackage(injector)
		container.ConsumerGroupPackage(injector)

		log := do.MustInvoke[*zap.Logger](injector)
		ctx, cancel := context.WithCancel(context.Background())

		hooks.OnStart(func() {
			if options.RedisAddr == "" {
				log.Fatal("consumer needs SERVICE_REDIS_ADDR")
			}

			if options.DatabaseURL == "" {
				log.Warn("no database configured, applied events are lost on exit")
			}

			group := do.MustInvoke[*messaging.ConsumerGroup](injector)
			if err := group.Start(ctx); err != nil {
				log.Fatal("failed to start consumer group", zap.Error(err))
			}

			log.Info("consumer running", zap.String("redis", options.RedisAddr))
			<-ctx.Done()
		})

		hooks.OnStop(func() {
			log.Info("shutting down")
			cancel()

			if err := injector.Shutdown(); err != nil {
				log.Error("shutdown error", zap.Error(err))
			}

			log.Info("shutdown complete")
			_ = logger.Sync(log)
		})
	})

	cli.Run()
}
