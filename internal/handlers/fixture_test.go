package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/handlers"
	"github.com/serroba/linkmark/internal/mail"
	"github.com/serroba/linkmark/internal/markdown"
	"github.com/serroba/linkmark/internal/middleware"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/serroba/linkmark/internal/slug"
	"github.com/serroba/linkmark/internal/store"
	"github.com/serroba/linkmark/internal/task"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testBaseURL       = "http://localhost:8888"
	testJWTSecret     = "jwt-test-secret"
	testWebhookSecret = "whsec_test"
)

// fixture is the whole API on memory stores. Published analytics events
// are applied by the sink on the runner, so Wait makes them visible.
type fixture struct {
	router    *chi.Mux
	links     *store.LinkMemoryStore
	qrs       *store.QRMemoryStore
	shares    *store.ShareMemoryStore
	events    *store.EventMemoryStore
	profiles  *store.ProfileMemoryStore
	runner    *task.Runner
	verifier  *auth.Verifier
	redirects map[string]int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := zap.NewNop()

	f := &fixture{
		router:    chi.NewMux(),
		links:     store.NewLinkMemoryStore(),
		qrs:       store.NewQRMemoryStore(),
		shares:    store.NewShareMemoryStore(),
		events:    store.NewEventMemoryStore(),
		profiles:  store.NewProfileMemoryStore(),
		runner:    task.NewRunner(logger, time.Second),
		verifier:  auth.NewVerifier(testJWTSecret),
		redirects: make(map[string]int),
	}

	gen, err := slug.NewGenerator(slug.DefaultLength)
	require.NoError(t, err)

	docs := store.NewDocumentMemoryStore(f.shares)
	converter := markdown.NewConverter(logger, nil)
	gate := billing.NewGate(f.profiles, logger)
	reporter := analytics.NewReporter(f.events)

	sink := analytics.NewSink(analytics.AssetCounters{
		Links:     f.links,
		QRCodes:   f.qrs,
		Documents: f.shares,
	}, f.events, logger, nil)
	recorder := analytics.NewRecorder(sink.Handle, f.runner, logger, nil)

	linkSvc := shortener.NewLinkService(f.links,
		shortener.NewAllocator(shortener.NamespaceLinks, f.links.CodeExists, gen), logger)
	qrSvc := shortener.NewQRService(f.qrs,
		shortener.NewAllocator(shortener.NamespaceQR, f.qrs.CodeExists, gen), gate, logger)
	docSvc := documents.NewService(docs, f.shares, converter,
		shortener.NewAllocator(shortener.NamespaceShares, f.shares.SlugExists, gen), logger)

	webhook := billing.NewWebhookHandler(
		billing.WebhookConfig{Secret: testWebhookSecret, BaseURL: testBaseURL},
		nil,
		f.profiles,
		store.NewLedgerMemoryStore(),
		mail.NewLogSender(logger),
		f.runner,
		logger,
		nil,
	)

	handlers.UseErrorShape()

	api := humachi.New(f.router, huma.DefaultConfig("Test", "1.0.0"))
	api.UseMiddleware(middleware.RequestMeta(api), middleware.Authenticate(f.verifier, logger))

	handlers.RegisterRoutes(api, handlers.Handlers{
		Links:    handlers.NewLinkHandler(linkSvc, reporter, testBaseURL, logger),
		QR:       handlers.NewQRHandler(qrSvc, reporter, testBaseURL, logger),
		Markdown: handlers.NewMarkdownHandler(converter, docSvc, testBaseURL, logger),
		Account:  handlers.NewAccountHandler(gate, linkSvc, qrSvc, docSvc, logger),
		Webhook:  handlers.NewWebhookHandler(webhook),
		Redirect: handlers.NewRedirectHandler(
			shortener.NewResolver(f.links, f.qrs),
			docSvc,
			converter,
			recorder,
			f.qrs,
			f.runner,
			func(surface, state string) { f.redirects[surface+":"+state]++ },
			logger,
		),
	})

	return f
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()

	token, err := f.verifier.Sign(auth.User{ID: userID, Email: userID + "@example.com"}, time.Hour)
	require.NoError(t, err)

	return token
}

func (f *fixture) grantAccess(t *testing.T, userID string) {
	t.Helper()

	require.NoError(t, f.profiles.Save(context.Background(), &billing.Profile{
		UserID:    userID,
		Email:     userID + "@example.com",
		HasAccess: true,
	}))
}

// do sends a request with an optional JSON body and bearer token.
func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("User-Agent", "HandlerTest/1.0")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func (f *fixture) createLink(t *testing.T, body map[string]any, token string) handlers.LinkBody {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/links", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[handlers.LinkBody](t, w)
}

func (f *fixture) createQR(t *testing.T, body map[string]any, token string) handlers.QRBody {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/qr", body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return decode[handlers.QRBody](t, w)
}

func (f *fixture) eventsFor(t *testing.T, asset analytics.AssetRef) []*analytics.VisitEvent {
	t.Helper()

	events, err := f.events.ListByAsset(context.Background(), asset, time.Time{})
	require.NoError(t, err)

	return events
}
