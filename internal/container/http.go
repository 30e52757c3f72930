package container

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do"
	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/handlers"
	"github.com/serroba/linkmark/internal/health"
	"github.com/serroba/linkmark/internal/markdown"
	"github.com/serroba/linkmark/internal/metrics"
	"github.com/serroba/linkmark/internal/middleware"
	"github.com/serroba/linkmark/internal/ratelimit"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/serroba/linkmark/internal/task"
	"go.uber.org/zap"
)

// HTTPPackage provides the chi router and the huma API. Invoking the API
// registers every route.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		router := chi.NewMux()
		router.Use(chimiddleware.RequestID, chimiddleware.Recoverer)
		router.Handle("/metrics", do.MustInvoke[*metrics.Metrics](i).Handler())

		return router, nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		log := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		handlers.UseErrorShape()

		api := humachi.New(router, huma.DefaultConfig("linkmark", "1.0.0"))
		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.Authenticate(do.MustInvoke[*auth.Verifier](i), log),
			middleware.PolicyRateLimiter(api,
				do.MustInvoke[*RateLimit](i).Limiter,
				ratelimit.NewOperationScopeResolver(),
				log,
			),
		)

		health.RegisterRoutes(api, healthHandler(i))
		handlers.RegisterRoutes(api, routeHandlers(i, opts.PublicURL(), log))

		return api, nil
	})
}

func routeHandlers(i *do.Injector, baseURL string, log *zap.Logger) handlers.Handlers {
	links := do.MustInvoke[*shortener.LinkService](i)
	qrs := do.MustInvoke[*shortener.QRService](i)
	docs := do.MustInvoke[*documents.Service](i)
	converter := do.MustInvoke[*markdown.Converter](i)
	reporter := do.MustInvoke[*analytics.Reporter](i)
	repos := do.MustInvoke[*Repositories](i)

	return handlers.Handlers{
		Links:    handlers.NewLinkHandler(links, reporter, baseURL, log),
		QR:       handlers.NewQRHandler(qrs, reporter, baseURL, log),
		Markdown: handlers.NewMarkdownHandler(converter, docs, baseURL, log),
		Account:  handlers.NewAccountHandler(do.MustInvoke[*billing.Gate](i), links, qrs, docs, log),
		Webhook:  handlers.NewWebhookHandler(do.MustInvoke[*billing.WebhookHandler](i)),
		Redirect: handlers.NewRedirectHandler(
			do.MustInvoke[*shortener.Resolver](i),
			docs,
			converter,
			do.MustInvoke[*analytics.Recorder](i),
			repos.QRCodes,
			do.MustInvoke[*task.Runner](i),
			do.MustInvoke[*metrics.Metrics](i).ObserveRedirect,
			log,
		),
	}
}

func healthHandler(i *do.Injector) *health.Handler {
	return health.NewHandler(
		health.Redis(do.MustInvoke[*Redis](i).Client),
		health.Postgres(do.MustInvoke[*Postgres](i).Pool),
	)
}
