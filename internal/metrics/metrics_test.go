package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/serroba/linkmark/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	return string(body)
}

func TestMetrics(t *testing.T) {
	m := metrics.New()

	m.ObserveAllocation("links", "allocated", 1)
	m.ObserveAllocation("links", "invalid", 0)
	m.ObserveRender(3 * time.Millisecond)
	m.ObserveRedirect("link", "found")
	m.ObserveAnalytics("published", "short_url")
	m.ObserveWebhook("invoice.paid", true)

	body := scrape(t, m)

	assert.Contains(t, body, `linkmark_code_allocations_total{namespace="links",outcome="allocated"} 1`)
	assert.Contains(t, body, `linkmark_code_allocations_total{namespace="links",outcome="invalid"} 1`)
	assert.Contains(t, body, `linkmark_code_allocation_attempts_count{namespace="links"} 1`)
	assert.Contains(t, body, "linkmark_markdown_render_seconds_count 1")
	assert.Contains(t, body, `linkmark_redirects_total{state="found",surface="link"} 1`)
	assert.Contains(t, body, `linkmark_analytics_events_total{asset="short_url",stage="published"} 1`)
	assert.Contains(t, body, `linkmark_billing_webhook_events_total{result="true",type="invoice.paid"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New()
		metrics.New()
	})
}
