package middleware

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkmark/internal/auth"
	"go.uber.org/zap"
)

// AuthCookie carries the session token for browser requests.
const AuthCookie = "auth_token"

// Authenticate puts the verified user on the context. Requests without a
// token, or with an invalid one, continue anonymously; operations that need
// a user reject them.
func Authenticate(verifier *auth.Verifier, logger *zap.Logger) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := bearerToken(ctx)
		if token == "" || !verifier.Enabled() {
			next(ctx)
			return
		}

		user, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("ignoring invalid auth token", zap.Error(err))
			next(ctx)

			return
		}

		next(huma.WithContext(ctx, auth.ContextWithUser(ctx.Context(), user)))
	}
}

func bearerToken(ctx huma.Context) string {
	if h := ctx.Header("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if c, err := huma.ReadCookie(ctx, AuthCookie); err == nil {
		return c.Value
	}

	return ""
}
