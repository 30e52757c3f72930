package handlers

import (
	"time"

	"github.com/serroba/linkmark/internal/analytics"
)

// Pagination describes the page returned by a list endpoint.
type Pagination struct {
	Page       int `json:"page"       example:"1"`
	Limit      int `json:"limit"      example:"10"`
	Total      int `json:"total"      example:"42"`
	TotalPages int `json:"totalPages" example:"5"`
}

// ListRequest carries the uniform page parameters.
type ListRequest struct {
	Page  int `default:"1"  doc:"Page number, starting at 1"  query:"page"`
	Limit int `default:"10" doc:"Items per page, at most 100" query:"limit"`
}

// IDRequest addresses an owned resource by id.
type IDRequest struct {
	ID string `doc:"Resource id" path:"id"`
}

// AnalyticsRequest asks for an asset's event summary.
type AnalyticsRequest struct {
	ID   string `doc:"Resource id"                       path:"id"`
	Days int    `default:"30" doc:"Days to aggregate, 1-365" query:"days"`
}

// AnalyticsResponse is the read-time aggregation of an asset's events.
type AnalyticsResponse struct {
	Body analytics.Summary
}

// EmptyResponse is returned by deletes.
type EmptyResponse struct{}

// LinkBody is the API representation of a short link.
type LinkBody struct {
	ID              string     `json:"id"`
	ShortCode       string     `example:"aB3x_9Q"                             json:"shortCode"`
	ShortURL        string     `example:"http://localhost:8888/aB3x_9Q"       json:"shortUrl"`
	OriginalURL     string     `example:"https://example.com/very/long/path" json:"originalUrl"`
	Title           string     `json:"title,omitempty"`
	MarkdownContent string     `json:"markdownContent,omitempty"`
	IsActive        bool       `json:"isActive"`
	ClickCount      int64      `json:"clickCount"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	LastClickedAt   *time.Time `json:"lastClickedAt,omitempty"`
}

// CreateLinkRequest is the request body for creating a short link.
type CreateLinkRequest struct {
	Body struct {
		URL             string     `doc:"The URL to shorten, https:// is assumed when no scheme is given" example:"https://example.com/very/long/path" json:"url"`
		CustomSlug      string     `doc:"Optional custom code, 3-20 of [A-Za-z0-9_-]" example:"my-link" json:"customSlug,omitempty"`
		Title           string     `doc:"Optional title" json:"title,omitempty"`
		MarkdownContent string     `doc:"Markdown rendered instead of redirecting" json:"markdownContent,omitempty"`
		ExpiresAt       *time.Time `doc:"When the link stops redirecting" json:"expiresAt,omitempty"`
	}
}

// LinkResponse carries a single link.
type LinkResponse struct {
	Body LinkBody
}

// CreateLinkResponse is the response for a successfully created link.
type CreateLinkResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     LinkBody
}

// UpdateLinkRequest changes the given fields of an owned link.
type UpdateLinkRequest struct {
	ID   string `path:"id"`
	Body struct {
		URL       *string    `json:"url,omitempty"`
		Title     *string    `json:"title,omitempty"`
		IsActive  *bool      `json:"isActive,omitempty"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	}
}

// LinkListResponse is one page of links.
type LinkListResponse struct {
	Body struct {
		Data       []LinkBody `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
}

// QRBody is the API representation of a QR code.
type QRBody struct {
	ID              string    `json:"id"`
	Code            string    `example:"menu-qr"                             json:"code"`
	ScanURL         string    `example:"http://localhost:8888/q/menu-qr"     json:"scanUrl"`
	ImageURL        string    `json:"imageUrl"`
	TargetURL       string    `example:"https://example.com/menu"            json:"targetUrl"`
	Title           string    `json:"title,omitempty"`
	IsActive        bool      `json:"isActive"`
	TrackingEnabled bool      `json:"trackingEnabled"`
	ScanCount       int64     `json:"scanCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CreateQRRequest is the request body for creating a QR code.
type CreateQRRequest struct {
	Body struct {
		URL             string `doc:"The URL the code points at" example:"https://example.com/menu" json:"url"`
		CustomCode      string `doc:"Optional custom code" json:"customCode,omitempty"`
		Title           string `json:"title,omitempty"`
		TrackingEnabled bool   `doc:"Record scan analytics, requires a subscription" json:"trackingEnabled,omitempty"`
	}
}

// QRResponse carries a single QR code.
type QRResponse struct {
	Body QRBody
}

// UpdateQRRequest changes the given fields of an owned QR code.
type UpdateQRRequest struct {
	ID   string `path:"id"`
	Body struct {
		URL      *string `json:"url,omitempty"`
		Title    *string `json:"title,omitempty"`
		IsActive *bool   `json:"isActive,omitempty"`
	}
}

// QRListResponse is one page of QR codes.
type QRListResponse struct {
	Body struct {
		Data       []QRBody   `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
}

// QRImageRequest asks for the PNG of an owned QR code.
type QRImageRequest struct {
	ID   string `path:"id"`
	Size int    `default:"256" doc:"Edge length in pixels, clamped to 128-1024" query:"size"`
}

// BinaryResponse is a raw body with its content type.
type BinaryResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// MarkdownOptions are the conversion switches accepted by the API.
// Unset switches take their defaults.
type MarkdownOptions struct {
	OpenLinksInNewTab bool   `json:"openLinksInNewTab,omitempty"`
	LinkRel           string `doc:"rel written on rewritten anchors" json:"linkRel,omitempty"`
	AllowHTML         bool   `json:"allowHtml,omitempty"`
	SmartQuotes       bool   `json:"smartQuotes,omitempty"`
	HighlightCode     *bool  `doc:"Defaults to true" json:"highlightCode,omitempty"`
}

// ConvertRequest is a stateless conversion request.
type ConvertRequest struct {
	Body struct {
		Markdown string          `example:"# Hello" json:"markdown"`
		Options  MarkdownOptions `json:"options,omitempty"`
	}
}

// ConvertResponse is the sanitized HTML and the time it took.
type ConvertResponse struct {
	Body struct {
		HTML       string  `json:"html"`
		RenderTime float64 `doc:"Render time in milliseconds" json:"renderTime"`
	}
}

// ShareBody is the API representation of a document share.
type ShareBody struct {
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	IsPublic  bool      `json:"isPublic"`
	ViewCount int64     `json:"viewCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentBody is the API representation of a saved document.
type DocumentBody struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Markdown  string          `json:"markdown"`
	HTML      string          `json:"html"`
	IsPublic  bool            `json:"isPublic"`
	Settings  MarkdownOptions `json:"settings"`
	Share     *ShareBody      `json:"share,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CreateDocumentRequest saves a converted document.
type CreateDocumentRequest struct {
	Body struct {
		Title    string          `json:"title,omitempty"`
		Markdown string          `json:"markdown"`
		Settings MarkdownOptions `json:"settings,omitempty"`
		IsPublic bool            `json:"isPublic,omitempty"`
	}
}

// UpdateDocumentRequest changes the given fields of an owned document.
type UpdateDocumentRequest struct {
	ID   string `path:"id"`
	Body struct {
		Title    *string          `json:"title,omitempty"`
		Markdown *string          `json:"markdown,omitempty"`
		Settings *MarkdownOptions `json:"settings,omitempty"`
		IsPublic *bool            `json:"isPublic,omitempty"`
	}
}

// DocumentResponse carries a single document.
type DocumentResponse struct {
	Body DocumentBody
}

// DocumentListResponse is one page of documents.
type DocumentListResponse struct {
	Body struct {
		Data       []DocumentBody `json:"data"`
		Pagination Pagination     `json:"pagination"`
	}
}

// ShareRequest creates a document's share or changes its visibility.
type ShareRequest struct {
	ID   string `path:"id"`
	Body struct {
		IsPublic bool `json:"isPublic"`
	}
}

// ShareResponse carries a document share.
type ShareResponse struct {
	Body ShareBody
}

// AccountResponse is the signed-in user and their subscription state.
type AccountResponse struct {
	Body struct {
		ID         string `json:"id"`
		Email      string `json:"email,omitempty"`
		HasAccess  bool   `json:"hasAccess"`
		CustomerID string `json:"customerId,omitempty"`
		PriceID    string `json:"priceId,omitempty"`
	}
}

// AssetTotals counts one kind of asset and its hits.
type AssetTotals struct {
	Count int   `json:"count"`
	Hits  int64 `json:"hits"`
}

// DashboardResponse totals the user's assets.
type DashboardResponse struct {
	Body struct {
		Links     AssetTotals `json:"links"`
		QRCodes   AssetTotals `json:"qrCodes"`
		Documents struct {
			Count int `json:"count"`
		} `json:"documents"`
	}
}

// WebhookRequest is a raw billing webhook delivery.
type WebhookRequest struct {
	Signature string `header:"Stripe-Signature"`
	RawBody   []byte
}

// WebhookResponse acknowledges a delivery.
type WebhookResponse struct {
	Body struct {
		Received bool `json:"received"`
	}
}

// RedirectRequest is the request for resolving a short or QR code.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"aB3x_9Q" path:"code"`
}

// ShareViewRequest is the request for a public markdown share.
type ShareViewRequest struct {
	Slug string `doc:"The share slug" path:"slug"`
}

// PageResponse is either a redirect or a rendered HTML page.
type PageResponse struct {
	Status       int
	Location     string `header:"Location"`
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}
