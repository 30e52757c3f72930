package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/serroba/linkmark/internal/analytics"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/markdown"
	"github.com/serroba/linkmark/internal/middleware"
	"github.com/serroba/linkmark/internal/shortener"
	"github.com/serroba/linkmark/internal/task"
	"github.com/serroba/linkmark/internal/view"
	"go.uber.org/zap"
)

// Redirect surfaces reported to a RedirectObserver.
const (
	SurfaceLink  = "link"
	SurfaceQR    = "qr"
	SurfaceShare = "share"
)

const stateError = "error"

// RedirectObserver is told the terminal state of every resolution.
type RedirectObserver func(surface, state string)

// ScanCounter bumps the scan count of QR codes without tracking.
type ScanCounter interface {
	IncrementScans(ctx context.Context, id string) error
}

// RedirectHandler serves the public short link, QR and share surfaces.
// Every outcome is an HTML page or a redirect, never a JSON error.
type RedirectHandler struct {
	resolver  *shortener.Resolver
	docs      *documents.Service
	converter *markdown.Converter
	recorder  *analytics.Recorder
	scans     ScanCounter
	runner    *task.Runner
	observe   RedirectObserver
	logger    *zap.Logger
}

// NewRedirectHandler creates a redirect handler. A nil observer is allowed.
func NewRedirectHandler(
	resolver *shortener.Resolver,
	docs *documents.Service,
	converter *markdown.Converter,
	recorder *analytics.Recorder,
	scans ScanCounter,
	runner *task.Runner,
	observe RedirectObserver,
	logger *zap.Logger,
) *RedirectHandler {
	if observe == nil {
		observe = func(string, string) {}
	}

	return &RedirectHandler{
		resolver:  resolver,
		docs:      docs,
		converter: converter,
		recorder:  recorder,
		scans:     scans,
		runner:    runner,
		observe:   observe,
		logger:    logger,
	}
}

// Link redirects a short code, or renders its markdown content.
func (h *RedirectHandler) Link(ctx context.Context, req *RedirectRequest) (*PageResponse, error) {
	res, err := h.resolver.ResolveLink(ctx, req.Code)
	if err != nil {
		return h.failed(SurfaceLink, req.Code, err), nil
	}

	h.observe(SurfaceLink, string(res.State))

	if res.State != shortener.StateFound {
		return h.statePage(view.State(res.State), req.Code), nil
	}

	h.recorder.Track(ctx, analytics.ShortURL(res.AssetID), analytics.EventVisit, middleware.RequestMetaFrom(ctx))

	if res.Markdown == "" {
		return redirect(res.Target), nil
	}

	converted, err := h.converter.Convert(ctx, res.Markdown, markdown.DefaultOptions())
	if err != nil {
		return h.failed(SurfaceLink, req.Code, err), nil
	}

	return h.documentPage(res.Title, converted.HTML, req.Code), nil
}

// QR redirects a scanned code. Untracked codes only bump their counter.
func (h *RedirectHandler) QR(ctx context.Context, req *RedirectRequest) (*PageResponse, error) {
	res, err := h.resolver.ResolveQR(ctx, req.Code)
	if err != nil {
		return h.failed(SurfaceQR, req.Code, err), nil
	}

	h.observe(SurfaceQR, string(res.State))

	if res.State != shortener.StateFound {
		return h.statePage(view.State(res.State), req.Code), nil
	}

	if res.Tracking {
		h.recorder.Track(ctx, analytics.QRCode(res.AssetID), analytics.EventScan, middleware.RequestMetaFrom(ctx))
	} else {
		id := res.AssetID
		h.runner.Go("qr.scan", func(ctx context.Context) error {
			return h.scans.IncrementScans(ctx, id)
		})
	}

	return redirect(res.Target), nil
}

// Share renders a public markdown share. Private shares look missing.
func (h *RedirectHandler) Share(ctx context.Context, req *ShareViewRequest) (*PageResponse, error) {
	doc, _, err := h.docs.ViewShare(ctx, req.Slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.observe(SurfaceShare, string(view.StateNotFound))
			return h.statePage(view.StateNotFound, ""), nil
		}

		return h.failed(SurfaceShare, req.Slug, err), nil
	}

	h.observe(SurfaceShare, string(shortener.StateFound))
	h.recorder.Track(ctx, analytics.Markdown(doc.ID), analytics.EventVisit, middleware.RequestMetaFrom(ctx))

	return h.documentPage(doc.Title, doc.HTML, req.Slug), nil
}

func (h *RedirectHandler) failed(surface, code string, err error) *PageResponse {
	h.observe(surface, stateError)
	h.logger.Error("redirect resolution failed",
		zap.String("surface", surface),
		zap.String("code", code),
		zap.Error(err),
	)

	return h.statePage(view.StateError, "")
}

func (h *RedirectHandler) documentPage(title, html, code string) *PageResponse {
	body, err := view.DocumentPage(view.DocumentPageData{
		Title:      title,
		HTML:       html,
		StyleSheet: h.converter.StyleSheet(),
	})
	if err != nil {
		h.logger.Error("document page render failed", zap.String("code", code), zap.Error(err))
		return h.statePage(view.StateError, "")
	}

	return htmlPage(http.StatusOK, body)
}

func (h *RedirectHandler) statePage(state view.State, code string) *PageResponse {
	status, body, err := view.StatePage(state, code)
	if err != nil {
		h.logger.Error("state page render failed", zap.String("state", string(state)), zap.Error(err))

		return &PageResponse{
			Status:       http.StatusInternalServerError,
			ContentType:  "text/plain; charset=utf-8",
			CacheControl: "no-store",
			Body:         []byte(http.StatusText(http.StatusInternalServerError)),
		}
	}

	return htmlPage(status, body)
}

func htmlPage(status int, body []byte) *PageResponse {
	return &PageResponse{
		Status:       status,
		ContentType:  "text/html; charset=utf-8",
		CacheControl: "no-store",
		Body:         body,
	}
}

// redirect uses 302 so every visit reaches the server and is counted.
func redirect(target string) *PageResponse {
	return &PageResponse{
		Status:       http.StatusFound,
		Location:     target,
		CacheControl: "no-store",
	}
}
