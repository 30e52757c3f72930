package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linkmark/internal/billing"
)

// WebhookHandler receives billing provider deliveries.
type WebhookHandler struct {
	billing *billing.WebhookHandler
}

func NewWebhookHandler(h *billing.WebhookHandler) *WebhookHandler {
	return &WebhookHandler{billing: h}
}

// Stripe acknowledges every delivery whose signature verifies.
func (h *WebhookHandler) Stripe(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error) {
	if err := h.billing.Handle(ctx, req.RawBody, req.Signature); err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	resp := &WebhookResponse{}
	resp.Body.Received = true

	return resp, nil
}
