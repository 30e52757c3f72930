package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"github.com/serroba/linkmark/internal/container"
	"github.com/serroba/linkmark/internal/logger"
	"github.com/serroba/linkmark/internal/messaging"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.MetricsPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RepositoryPackage(injector)
	container.RateLimitPackage(injector)
	container.EventBusPackage(injector)
	container.PublisherGroupPackage(injector)
	container.ServicePackage(injector)
	container.HTTPPackage(injector)

	// The memory bus only reaches consumers in this process.
	if options.EventBus == container.EventBusMemory {
		container.ConsumerGroupPackage(injector)
	}
}

func main() {
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		log := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			if options.EventBus == container.EventBusMemory {
				group := do.MustInvoke[*messaging.ConsumerGroup](injector)
				if err := group.Start(context.Background()); err != nil {
					log.Fatal("failed to start in-process consumer", zap.Error(err))
				}
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			log.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("base_url", options.PublicURL()),
				zap.String("event_bus", options.EventBus),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			log.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					log.Error("server shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				log.Error("service shutdown error", zap.Error(err))
			}

			log.Info("shutdown complete")
			_ = logger.Sync(log)
		})
	})

	cli.Run()
}
