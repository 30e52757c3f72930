package handlers

import (
	"context"

	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/markdown"
	"go.uber.org/zap"
)

// MarkdownHandler handles stateless conversion and saved documents.
type MarkdownHandler struct {
	converter *markdown.Converter
	docs      *documents.Service
	baseURL   string
	logger    *zap.Logger
}

func NewMarkdownHandler(
	converter *markdown.Converter,
	docs *documents.Service,
	baseURL string,
	logger *zap.Logger,
) *MarkdownHandler {
	return &MarkdownHandler{converter: converter, docs: docs, baseURL: baseURL, logger: logger}
}

// Convert renders markdown without storing anything.
func (h *MarkdownHandler) Convert(ctx context.Context, req *ConvertRequest) (*ConvertResponse, error) {
	res, err := h.converter.Convert(ctx, req.Body.Markdown, req.Body.Options.toOptions())
	if err != nil {
		return nil, apiError(h.logger, err, "markdown")
	}

	resp := &ConvertResponse{}
	resp.Body.HTML = res.HTML
	resp.Body.RenderTime = res.RenderTimeMillis()

	return resp, nil
}

func (h *MarkdownHandler) Create(ctx context.Context, req *CreateDocumentRequest) (*DocumentResponse, error) {
	doc, err := h.docs.Create(ctx, documents.CreateInput{
		OwnerID:  auth.UserID(ctx),
		Title:    req.Body.Title,
		Markdown: req.Body.Markdown,
		Settings: req.Body.Settings.toOptions(),
		IsPublic: req.Body.IsPublic,
	})
	if err != nil {
		return nil, apiError(h.logger, err, "document")
	}

	return &DocumentResponse{Body: toDocumentBody(doc)}, nil
}

func (h *MarkdownHandler) List(ctx context.Context, req *ListRequest) (*DocumentListResponse, error) {
	page := domain.NewPage(req.Page, req.Limit)

	docs, total, err := h.docs.List(ctx, auth.UserID(ctx), page)
	if err != nil {
		return nil, apiError(h.logger, err, "document")
	}

	resp := &DocumentListResponse{}
	resp.Body.Data = make([]DocumentBody, 0, len(docs))
	resp.Body.Pagination = pagination(page, total)

	for _, doc := range docs {
		resp.Body.Data = append(resp.Body.Data, toDocumentBody(doc))
	}

	return resp, nil
}

// Get returns the document with its share, if it has one.
func (h *MarkdownHandler) Get(ctx context.Context, req *IDRequest) (*DocumentResponse, error) {
	doc, err := h.docs.Get(ctx, req.ID, auth.UserID(ctx))
	if err != nil {
		return nil, apiError(h.logger, err, "document")
	}

	body := toDocumentBody(doc)

	share, err := h.docs.ShareOf(ctx, doc.ID)
	if err != nil {
		return nil, apiError(h.logger, err, "share")
	}

	if share != nil {
		sb := h.toShareBody(share)
		body.Share = &sb
	}

	return &DocumentResponse{Body: body}, nil
}

func (h *MarkdownHandler) Update(ctx context.Context, req *UpdateDocumentRequest) (*DocumentResponse, error) {
	in := documents.UpdateInput{
		Title:    req.Body.Title,
		Markdown: req.Body.Markdown,
		IsPublic: req.Body.IsPublic,
	}

	if req.Body.Settings != nil {
		opts := req.Body.Settings.toOptions()
		in.Settings = &opts
	}

	doc, err := h.docs.Update(ctx, req.ID, auth.UserID(ctx), in)
	if err != nil {
		return nil, apiError(h.logger, err, "document")
	}

	return &DocumentResponse{Body: toDocumentBody(doc)}, nil
}

func (h *MarkdownHandler) Delete(ctx context.Context, req *IDRequest) (*EmptyResponse, error) {
	if err := h.docs.Delete(ctx, req.ID, auth.UserID(ctx)); err != nil {
		return nil, apiError(h.logger, err, "document")
	}

	return &EmptyResponse{}, nil
}

func (h *MarkdownHandler) Share(ctx context.Context, req *ShareRequest) (*ShareResponse, error) {
	share, err := h.docs.Share(ctx, req.ID, auth.UserID(ctx), req.Body.IsPublic)
	if err != nil {
		return nil, apiError(h.logger, err, "document")
	}

	return &ShareResponse{Body: h.toShareBody(share)}, nil
}

func (h *MarkdownHandler) toShareBody(share *documents.Share) ShareBody {
	return ShareBody{
		Slug:      share.Slug,
		URL:       h.baseURL + "/p/" + share.Slug,
		IsPublic:  share.IsPublic,
		ViewCount: share.ViewCount,
		CreatedAt: share.CreatedAt,
	}
}

func toDocumentBody(doc *documents.Document) DocumentBody {
	return DocumentBody{
		ID:        doc.ID,
		Title:     doc.Title,
		Markdown:  doc.Markdown,
		HTML:      doc.HTML,
		IsPublic:  doc.IsPublic,
		Settings:  fromOptions(doc.Settings),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (o MarkdownOptions) toOptions() markdown.Options {
	opts := markdown.DefaultOptions()
	opts.OpenLinksInNewTab = o.OpenLinksInNewTab
	opts.AllowHTML = o.AllowHTML
	opts.SmartQuotes = o.SmartQuotes

	if o.LinkRel != "" {
		opts.LinkRel = o.LinkRel
	}

	if o.HighlightCode != nil {
		opts.HighlightCode = *o.HighlightCode
	}

	return opts
}

func fromOptions(opts markdown.Options) MarkdownOptions {
	highlight := opts.HighlightCode

	return MarkdownOptions{
		OpenLinksInNewTab: opts.OpenLinksInNewTab,
		LinkRel:           opts.LinkRel,
		AllowHTML:         opts.AllowHTML,
		SmartQuotes:       opts.SmartQuotes,
		HighlightCode:     &highlight,
	}
}
