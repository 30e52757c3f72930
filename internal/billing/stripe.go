package billing

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// CheckoutSessions fetches a checkout session with its line items.
type CheckoutSessions interface {
	Get(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

// StripeSessions reads sessions from the Stripe API.
type StripeSessions struct {
	api *client.API
}

func NewStripeSessions(secretKey string) *StripeSessions {
	return &StripeSessions{api: client.New(secretKey, nil)}
}

func (s *StripeSessions) Get(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	return s.api.CheckoutSessions.Get(id, params)
}

func sessionPriceID(session *stripe.CheckoutSession) string {
	if session.LineItems == nil {
		return ""
	}

	for _, item := range session.LineItems.Data {
		if item != nil && item.Price != nil && item.Price.ID != "" {
			return item.Price.ID
		}
	}

	return ""
}

func sessionEmail(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}

	return session.CustomerEmail
}

func invoicePriceIDs(invoice *stripe.Invoice) []string {
	if invoice.Lines == nil {
		return nil
	}

	ids := make([]string, 0, len(invoice.Lines.Data))
	for _, line := range invoice.Lines.Data {
		if line != nil && line.Price != nil && line.Price.ID != "" {
			ids = append(ids, line.Price.ID)
		}
	}

	return ids
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}

	return c.ID
}
