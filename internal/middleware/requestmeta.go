package middleware

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkmark/internal/analytics"
)

type requestMetaKey struct{}

// countryHeaders are checked in order; edge proxies set one of them.
var countryHeaders = []string{"X-Vercel-IP-Country", "CF-IPCountry", "X-Country-Code"}

// RequestMeta is a middleware that adds client IP, user-agent, referrer and
// edge country to the request context.
func RequestMeta(_ huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		meta := analytics.RequestMeta{
			IP:        clientIP(ctx),
			UserAgent: ctx.Header("User-Agent"),
			Referer:   ctx.Header("Referer"),
		}

		for _, h := range countryHeaders {
			if v := ctx.Header(h); v != "" {
				meta.Country = v
				break
			}
		}

		next(huma.WithContext(ctx, ContextWithRequestMeta(ctx.Context(), meta)))
	}
}

func ContextWithRequestMeta(ctx context.Context, meta analytics.RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the request meta, or the zero value outside a
// request.
func RequestMetaFrom(ctx context.Context) analytics.RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(analytics.RequestMeta)

	return meta
}
