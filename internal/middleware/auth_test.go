package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func captureUserID(t *testing.T, verifier *auth.Verifier, req *http.Request) string {
	t.Helper()

	router := chi.NewMux()
	api := humachi.New(router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.Authenticate(verifier, zap.NewNop()))

	var got string

	huma.Get(api, "/me", func(ctx context.Context, _ *struct{}) (*testOutput, error) {
		got = auth.UserID(ctx)

		return &testOutput{Body: "ok"}, nil
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	return got
}

func TestAuthenticate(t *testing.T) {
	verifier := auth.NewVerifier(testSecret)

	token, err := verifier.Sign(auth.User{ID: "user-1", Email: "a@example.com"}, time.Hour)
	require.NoError(t, err)

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		assert.Equal(t, "user-1", captureUserID(t, verifier, req))
	})

	t.Run("cookie token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookie, Value: token})

		assert.Equal(t, "user-1", captureUserID(t, verifier, req))
	})

	t.Run("no token is anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)

		assert.Empty(t, captureUserID(t, verifier, req))
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		other, err := auth.NewVerifier("another-secret").Sign(auth.User{ID: "user-2"}, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+other)

		assert.Empty(t, captureUserID(t, verifier, req))
	})

	t.Run("non-bearer scheme is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Basic "+token)

		assert.Empty(t, captureUserID(t, verifier, req))
	})

	t.Run("disabled verifier leaves every request anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		assert.Empty(t, captureUserID(t, auth.NewVerifier(""), req))
	})
}
