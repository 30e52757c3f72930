package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkmark/internal/ratelimit"
)

// maxMarkdownBodyBytes leaves room for 500000 multi-byte characters plus
// the JSON envelope.
const maxMarkdownBodyBytes = 4 << 20

// Handlers groups every operation handler served by the API.
type Handlers struct {
	Links    *LinkHandler
	QR       *QRHandler
	Markdown *MarkdownHandler
	Account  *AccountHandler
	Webhook  *WebhookHandler
	Redirect *RedirectHandler
}

// RegisterRoutes registers every route with its per-endpoint rate limit configuration.
func RegisterRoutes(api huma.API, h Handlers) {
	registerLinkRoutes(api, h.Links)
	registerQRRoutes(api, h.QR)
	registerMarkdownRoutes(api, h.Markdown)
	registerAccountRoutes(api, h.Account, h.Webhook)
	registerRedirectRoutes(api, h.Redirect)
}

func registerLinkRoutes(api huma.API, h *LinkHandler) {
	tags := []string{"Links"}

	// Creation is anonymous-friendly, so it carries the strict limits.
	huma.Register(api, huma.Operation{
		OperationID:   "create-link",
		Method:        http.MethodPost,
		Path:          "/api/links",
		Summary:       "Create short link",
		Description:   "Creates a short link with a generated or custom code.",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Metadata:      ratelimit.CreationLimits().Metadata(),
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/api/links",
		Summary:     "List own short links",
		Tags:        tags,
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-link",
		Method:      http.MethodGet,
		Path:        "/api/links/{id}",
		Summary:     "Get short link",
		Tags:        tags,
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "update-link",
		Method:      http.MethodPatch,
		Path:        "/api/links/{id}",
		Summary:     "Update short link",
		Tags:        tags,
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-link",
		Method:        http.MethodDelete,
		Path:          "/api/links/{id}",
		Summary:       "Delete short link",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "link-analytics",
		Method:      http.MethodGet,
		Path:        "/api/links/{id}/analytics",
		Summary:     "Short link analytics",
		Tags:        tags,
	}, h.Analytics)
}

func registerQRRoutes(api huma.API, h *QRHandler) {
	tags := []string{"QR codes"}

	huma.Register(api, huma.Operation{
		OperationID:   "create-qr",
		Method:        http.MethodPost,
		Path:          "/api/qr",
		Summary:       "Create QR code",
		Description:   "Creates a QR redirect code. Scan tracking requires an active subscription.",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Metadata:      ratelimit.CreationLimits().Metadata(),
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-qr",
		Method:      http.MethodGet,
		Path:        "/api/qr",
		Summary:     "List own QR codes",
		Tags:        tags,
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-qr",
		Method:      http.MethodGet,
		Path:        "/api/qr/{id}",
		Summary:     "Get QR code",
		Tags:        tags,
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID: "update-qr",
		Method:      http.MethodPatch,
		Path:        "/api/qr/{id}",
		Summary:     "Update QR code",
		Tags:        tags,
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-qr",
		Method:        http.MethodDelete,
		Path:          "/api/qr/{id}",
		Summary:       "Delete QR code",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "qr-image",
		Method:      http.MethodGet,
		Path:        "/api/qr/{id}/image.png",
		Summary:     "QR code image",
		Tags:        tags,
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}, h.Image)

	huma.Register(api, huma.Operation{
		OperationID: "qr-analytics",
		Method:      http.MethodGet,
		Path:        "/api/qr/{id}/analytics",
		Summary:     "QR code analytics",
		Tags:        tags,
	}, h.Analytics)
}

func registerMarkdownRoutes(api huma.API, h *MarkdownHandler) {
	tags := []string{"Markdown"}

	huma.Register(api, huma.Operation{
		OperationID:  "convert-markdown",
		Method:       http.MethodPost,
		Path:         "/api/markdown/convert",
		Summary:      "Convert markdown",
		Description:  "Converts markdown to sanitized HTML without storing it.",
		Tags:         tags,
		MaxBodyBytes: maxMarkdownBodyBytes,
	}, h.Convert)

	huma.Register(api, huma.Operation{
		OperationID:   "create-document",
		Method:        http.MethodPost,
		Path:          "/api/markdown",
		Summary:       "Save markdown document",
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  maxMarkdownBodyBytes,
		Metadata:      ratelimit.CreationLimits().Metadata(),
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/api/markdown",
		Summary:     "List own documents",
		Tags:        tags,
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/api/markdown/{id}",
		Summary:     "Get document",
		Tags:        tags,
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID:  "update-document",
		Method:       http.MethodPatch,
		Path:         "/api/markdown/{id}",
		Summary:      "Update document",
		Tags:         tags,
		MaxBodyBytes: maxMarkdownBodyBytes,
	}, h.Update)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-document",
		Method:        http.MethodDelete,
		Path:          "/api/markdown/{id}",
		Summary:       "Delete document",
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "share-document",
		Method:      http.MethodPost,
		Path:        "/api/markdown/{id}/share",
		Summary:     "Share document",
		Description: "Creates the document's share or changes its visibility. The slug never changes.",
		Tags:        tags,
	}, h.Share)
}

func registerAccountRoutes(api huma.API, account *AccountHandler, webhook *WebhookHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/api/account",
		Summary:     "Current account",
		Tags:        []string{"Account"},
	}, account.Account)

	huma.Register(api, huma.Operation{
		OperationID: "dashboard-summary",
		Method:      http.MethodGet,
		Path:        "/api/dashboard/summary",
		Summary:     "Dashboard totals",
		Description: "Totals of the user's assets. Requires an active subscription.",
		Tags:        []string{"Account"},
	}, account.Summary)

	// Deliveries are never rate limited.
	huma.Register(api, huma.Operation{
		OperationID: "stripe-webhook",
		Method:      http.MethodPost,
		Path:        "/api/webhooks/stripe",
		Summary:     "Billing webhook",
		Tags:        []string{"Billing"},
		Hidden:      true,
		Metadata:    ratelimit.EndpointConfig{Disabled: true}.Metadata(),
	}, webhook.Stripe)
}

func registerRedirectRoutes(api huma.API, h *RedirectHandler) {
	tags := []string{"Redirects"}

	huma.Register(api, huma.Operation{
		OperationID: "redirect-link",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Follow short link",
		Description: "Redirects to the target URL or renders the link's markdown. Terminal states render an HTML page.",
		Tags:        tags,
		Responses:   pageResponses(),
		Metadata:    ratelimit.RedirectLimits().Metadata(),
	}, h.Link)

	huma.Register(api, huma.Operation{
		OperationID: "redirect-qr",
		Method:      http.MethodGet,
		Path:        "/q/{code}",
		Summary:     "Follow QR code",
		Tags:        tags,
		Responses:   pageResponses(),
		Metadata:    ratelimit.RedirectLimits().Metadata(),
	}, h.QR)

	huma.Register(api, huma.Operation{
		OperationID: "view-share",
		Method:      http.MethodGet,
		Path:        "/p/{slug}",
		Summary:     "View shared document",
		Tags:        tags,
		Responses:   pageResponses(),
		Metadata:    ratelimit.RedirectLimits().Metadata(),
	}, h.Share)
}

// pageResponses documents the HTML and redirect outcomes. huma adds to the
// map, so each operation gets its own.
func pageResponses() map[string]*huma.Response {
	return map[string]*huma.Response{
		"200": {Description: "Rendered page", Content: map[string]*huma.MediaType{"text/html": {}}},
		"302": {Description: "Redirect to the target URL"},
	}
}
