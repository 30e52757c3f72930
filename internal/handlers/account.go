package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkmark/internal/auth"
	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/shortener"
	"go.uber.org/zap"
)

// AccountHandler serves the signed-in user's account and dashboard.
type AccountHandler struct {
	gate   *billing.Gate
	links  *shortener.LinkService
	qrs    *shortener.QRService
	docs   *documents.Service
	logger *zap.Logger
}

func NewAccountHandler(
	gate *billing.Gate,
	links *shortener.LinkService,
	qrs *shortener.QRService,
	docs *documents.Service,
	logger *zap.Logger,
) *AccountHandler {
	return &AccountHandler{gate: gate, links: links, qrs: qrs, docs: docs, logger: logger}
}

func (h *AccountHandler) Account(ctx context.Context, _ *struct{}) (*AccountResponse, error) {
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		return nil, apiError(h.logger, domain.ErrUnauthenticated, "account")
	}

	access := h.gate.CheckAccess(ctx, user.ID)

	resp := &AccountResponse{}
	resp.Body.ID = user.ID
	resp.Body.Email = user.Email
	resp.Body.HasAccess = access.HasAccess

	if access.Profile != nil {
		resp.Body.CustomerID = access.Profile.CustomerID
		resp.Body.PriceID = access.Profile.PriceID
	}

	return resp, nil
}

// Summary totals the user's assets. It needs an active subscription.
func (h *AccountHandler) Summary(ctx context.Context, _ *struct{}) (*DashboardResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, apiError(h.logger, domain.ErrUnauthenticated, "dashboard")
	}

	if !h.gate.HasAccess(ctx, userID) {
		return nil, huma.Error403Forbidden("an active subscription is required")
	}

	links, err := h.links.Stats(ctx, userID)
	if err != nil {
		return nil, apiError(h.logger, err, "dashboard")
	}

	qrs, err := h.qrs.Stats(ctx, userID)
	if err != nil {
		return nil, apiError(h.logger, err, "dashboard")
	}

	docs, err := h.docs.Count(ctx, userID)
	if err != nil {
		return nil, apiError(h.logger, err, "dashboard")
	}

	resp := &DashboardResponse{}
	resp.Body.Links = AssetTotals{Count: links.Count, Hits: links.Hits}
	resp.Body.QRCodes = AssetTotals{Count: qrs.Count, Hits: qrs.Hits}
	resp.Body.Documents.Count = docs

	return resp, nil
}
