package handlers

import (
	"context"

	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler handles short link management.
type LinkHandler struct {
	links    *shortener.LinkService
	reporter *analytics.Reporter
	baseURL  string
	logger   *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(
	links *shortener.LinkService,
	reporter *analytics.Reporter,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{links: links, reporter: reporter, baseURL: baseURL, logger: logger}
}

func (h *LinkHandler) Create(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	link, err := h.links.Create(ctx, shortener.CreateLinkInput{
		URL:             req.Body.URL,
		CustomSlug:      req.Body.CustomSlug,
		Title:           req.Body.Title,
		MarkdownContent: req.Body.MarkdownContent,
		OwnerID:         auth.UserID(ctx),
		ExpiresAt:       req.Body.ExpiresAt,
	})
	if err != nil {
		return nil, apiError(h.logger, err, "link")
	}

	resp := &CreateLinkResponse{Body: h.toBody(link)}
	resp.Location = resp.Body.ShortURL

	return resp, nil
}

func (h *LinkHandler) List(ctx context.Context, req *ListRequest) (*LinkListResponse, error) {
	page := domain.NewPage(req.Page, req.Limit)

	links, total, err := h.links.List(ctx, auth.UserID(ctx), page)
	if err != nil {
		return nil, apiError(h.logger, err, "link")
	}

	resp := &LinkListResponse{}
	resp.Body.Data = make([]LinkBody, 0, len(links))
	resp.Body.Pagination = pagination(page, total)

	for _, link := range links {
		resp.Body.Data = append(resp.Body.Data, h.toBody(link))
	}

	return resp, nil
}

func (h *LinkHandler) Get(ctx context.Context, req *IDRequest) (*LinkResponse, error) {
	link, err := h.links.Get(ctx, req.ID, auth.UserID(ctx))
	if err != nil {
		return nil, apiError(h.logger, err, "link")
	}

	return &LinkResponse{Body: h.toBody(link)}, nil
}

func (h *LinkHandler) Update(ctx context.Context, req *UpdateLinkRequest) (*LinkResponse, error) {
	link, err := h.links.Update(ctx, req.ID, auth.UserID(ctx), shortener.UpdateLinkInput{
		URL:       req.Body.URL,
		Title:     req.Body.Title,
		IsActive:  req.Body.IsActive,
		ExpiresAt: req.Body.ExpiresAt,
	})
	if err != nil {
		return nil, apiError(h.logger, err, "link")
	}

	return &LinkResponse{Body: h.toBody(link)}, nil
}

func (h *LinkHandler) Delete(ctx context.Context, req *IDRequest) (*EmptyResponse, error) {
	if err := h.links.Delete(ctx, req.ID, auth.UserID(ctx)); err != nil {
		return nil, apiError(h.logger, err, "link")
	}

	return &EmptyResponse{}, nil
}

func (h *LinkHandler) Analytics(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	link, err := h.links.Get(ctx, req.ID, auth.UserID(ctx))
	if err != nil {
		return nil, apiError(h.logger, err, "link")
	}

	summary, err := h.reporter.Report(ctx, analytics.ShortURL(link.ID), req.Days)
	if err != nil {
		return nil, apiError(h.logger, err, "link analytics")
	}

	return &AnalyticsResponse{Body: summary}, nil
}

func (h *LinkHandler) toBody(link *shortener.Link) LinkBody {
	return LinkBody{
		ID:              link.ID,
		ShortCode:       link.ShortCode,
		ShortURL:        h.baseURL + "/" + link.ShortCode,
		OriginalURL:     link.OriginalURL,
		Title:           link.Title,
		MarkdownContent: link.MarkdownContent,
		IsActive:        link.IsActive,
		ClickCount:      link.ClickCount,
		CreatedAt:       link.CreatedAt,
		ExpiresAt:       link.ExpiresAt,
		LastClickedAt:   link.LastClickedAt,
	}
}

func pagination(page domain.Page, total int) Pagination {
	return Pagination{
		Page:       page.Number,
		Limit:      page.Limit,
		Total:      total,
		TotalPages: page.TotalPages(total),
	}
}
