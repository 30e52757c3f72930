package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkmark/internal/ratelimit"
	"go.uber.org/zap"
)

// PolicyRateLimiter returns a Huma middleware that applies policy-based rate
// limiting. Operations may carry a ratelimit.EndpointConfig under
// ratelimit.MetadataKey to disable limiting, pick a scope, or replace the
// policy with their own limits. A failing store lets the request through.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		cfg, declared := ratelimit.EndpointConfigOf(ctx.Operation())
		if declared && cfg.Disabled {
			next(ctx)
			return
		}

		key := clientKey(ctx)
		route := operationPath(ctx)

		var (
			allowed  bool
			exceeded *ratelimit.LimitExceeded
			err      error
		)

		if declared && len(cfg.Limits) > 0 {
			allowed, exceeded, err = limiter.AllowEndpoint(ctx.Context(), key, route, cfg.Limits)
		} else {
			allowed, exceeded, err = limiter.Allow(ctx.Context(), key, resolver.Resolve(ctx))
		}

		if err != nil {
			logger.Warn("rate limit check failed, allowing request", zap.String("path", route), zap.Error(err))
			next(ctx)

			return
		}

		if !allowed {
			logger.Warn("rate limit exceeded",
				zap.String("path", route),
				zap.String("method", ctx.Method()),
				zap.String("scope", string(exceeded.Scope)),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Config.Max),
				zap.Duration("window", exceeded.Config.Window),
			)

			retry := int(math.Ceil(exceeded.RetryAfter().Seconds()))
			ctx.SetHeader("Retry-After", strconv.Itoa(retry))
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, exceeded.Message())

			return
		}

		next(ctx)
	}
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
