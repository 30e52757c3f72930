package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/mail"
	"github.com/serroba/linkmark/internal/task"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Handled event types.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventInvoicePaid         = "invoice.paid"
)

// DefaultSettleDelay gives the auth provider time to create a profile row
// for a brand new user before checkout falls back to creating one.
const DefaultSettleDelay = time.Second

var (
	ErrInvalidSignature = domain.NewValidationError("", "Invalid webhook signature")
	errNoCustomer       = errors.New("event has no customer")
	errNoIdentity       = errors.New("checkout session has neither client reference nor email")
)

// EventLedger remembers processed event ids so redeliveries are skipped.
// Claim reports true the first time an id is seen. Release forgets an id
// whose processing failed so the provider's retry is applied.
type EventLedger interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// WebhookObserver is told the outcome of every verified event.
type WebhookObserver func(eventType string, handled bool)

// WebhookConfig carries the handler's settings.
type WebhookConfig struct {
	Secret      string
	BaseURL     string
	SettleDelay time.Duration
}

// WebhookHandler applies billing lifecycle events to profiles.
type WebhookHandler struct {
	cfg      WebhookConfig
	sessions CheckoutSessions
	profiles ProfileStore
	ledger   EventLedger
	mailer   mail.Sender
	runner   *task.Runner
	logger   *zap.Logger
	observe  WebhookObserver
	now      func() time.Time
}

// NewWebhookHandler creates a handler. sessions may be nil when no API key
// is configured; line items are then read from the event payload only.
func NewWebhookHandler(
	cfg WebhookConfig,
	sessions CheckoutSessions,
	profiles ProfileStore,
	ledger EventLedger,
	mailer mail.Sender,
	runner *task.Runner,
	logger *zap.Logger,
	observe WebhookObserver,
) *WebhookHandler {
	if observe == nil {
		observe = func(string, bool) {}
	}

	return &WebhookHandler{
		cfg:      cfg,
		sessions: sessions,
		profiles: profiles,
		ledger:   ledger,
		mailer:   mailer,
		runner:   runner,
		logger:   logger,
		observe:  observe,
		now:      time.Now,
	}
}

// Handle verifies and applies one delivery. Only a signature failure is
// returned; everything after verification is logged and swallowed so the
// provider gets an acknowledgement.
func (h *WebhookHandler) Handle(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, h.cfg.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		h.logger.Warn("webhook signature verification failed", zap.Error(err))
		return ErrInvalidSignature
	}

	eventType := string(event.Type)
	log := h.logger.With(zap.String("event_id", event.ID), zap.String("event_type", eventType))

	claimed, err := h.ledger.Claim(ctx, event.ID)
	if err != nil {
		log.Warn("event ledger unavailable, processing anyway", zap.Error(err))

		claimed = true
	}

	if !claimed {
		log.Info("duplicate webhook event skipped")
		return nil
	}

	handled, err := h.dispatch(ctx, eventType, event.Data, log)
	if err != nil {
		log.Error("webhook event handling failed", zap.Error(err))

		if relErr := h.ledger.Release(ctx, event.ID); relErr != nil {
			log.Warn("failed to release webhook event", zap.Error(relErr))
		}
	}

	h.observe(eventType, handled && err == nil)

	return nil
}

func (h *WebhookHandler) dispatch(ctx context.Context, eventType string, data *stripe.EventData, log *zap.Logger) (handled bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if data == nil {
		return false, errors.New("event has no data")
	}

	switch eventType {
	case EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err = json.Unmarshal(data.Raw, &session); err != nil {
			return false, fmt.Errorf("decode checkout session: %w", err)
		}

		return true, h.checkoutCompleted(ctx, &session, log)
	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err = json.Unmarshal(data.Raw, &sub); err != nil {
			return false, fmt.Errorf("decode subscription: %w", err)
		}

		return true, h.subscriptionDeleted(ctx, &sub, log)
	case EventInvoicePaid:
		var invoice stripe.Invoice
		if err = json.Unmarshal(data.Raw, &invoice); err != nil {
			return false, fmt.Errorf("decode invoice: %w", err)
		}

		return true, h.invoicePaid(ctx, &invoice, log)
	default:
		log.Info("unhandled webhook event type")

		return false, nil
	}
}

func (h *WebhookHandler) checkoutCompleted(ctx context.Context, session *stripe.CheckoutSession, log *zap.Logger) error {
	priceID := sessionPriceID(session)

	if priceID == "" && h.sessions != nil && session.ID != "" {
		full, err := h.sessions.Get(ctx, session.ID)
		if err != nil {
			log.Warn("checkout session lookup failed, price not recorded", zap.Error(err))
		} else if full != nil {
			priceID = sessionPriceID(full)
		}
	}

	email := strings.ToLower(strings.TrimSpace(sessionEmail(session)))

	profile, err := h.resolveProfile(ctx, session.ClientReferenceID, email)
	if err != nil {
		return err
	}

	profile.HasAccess = true
	if customer := customerID(session.Customer); customer != "" {
		profile.CustomerID = customer
	}

	if priceID != "" {
		profile.PriceID = priceID
	}

	if profile.Email == "" {
		profile.Email = email
	}

	profile.UpdatedAt = h.now().UTC()

	if err = h.profiles.Save(ctx, profile); err != nil {
		return domain.Upstream("save profile", err)
	}

	log.Info("subscription activated",
		zap.String("user_id", profile.UserID),
		zap.String("customer_id", profile.CustomerID),
	)

	if profile.Email != "" {
		h.sendWelcome(profile.Email)
	}

	return nil
}

// resolveProfile looks a profile up by reference id, then by email, then
// by email again after the settle delay, and finally creates one.
func (h *WebhookHandler) resolveProfile(ctx context.Context, referenceID, email string) (*Profile, error) {
	if referenceID != "" {
		profile, err := h.lookup(func() (*Profile, error) { return h.profiles.GetByUserID(ctx, referenceID) })
		if err != nil || profile != nil {
			return profile, err
		}
	}

	if email != "" {
		profile, err := h.lookup(func() (*Profile, error) { return h.profiles.GetByEmail(ctx, email) })
		if err != nil || profile != nil {
			return profile, err
		}

		if err = sleep(ctx, h.cfg.SettleDelay); err != nil {
			return nil, err
		}

		profile, err = h.lookup(func() (*Profile, error) { return h.profiles.GetByEmail(ctx, email) })
		if err != nil || profile != nil {
			return profile, err
		}
	}

	if referenceID == "" && email == "" {
		return nil, errNoIdentity
	}

	userID := referenceID
	if userID == "" {
		userID = uuid.NewString()
	}

	return &Profile{UserID: userID, Email: email}, nil
}

func (h *WebhookHandler) lookup(get func() (*Profile, error)) (*Profile, error) {
	profile, err := get()
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, domain.Upstream("lookup profile", err)
	}

	return profile, nil
}

func (h *WebhookHandler) subscriptionDeleted(ctx context.Context, sub *stripe.Subscription, log *zap.Logger) error {
	customer := customerID(sub.Customer)
	if customer == "" {
		return errNoCustomer
	}

	profile, err := h.profiles.GetByCustomerID(ctx, customer)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("no profile for cancelled subscription", zap.String("customer_id", customer))
		return nil
	}

	if err != nil {
		return domain.Upstream("lookup profile", err)
	}

	profile.HasAccess = false
	profile.UpdatedAt = h.now().UTC()

	if err = h.profiles.Save(ctx, profile); err != nil {
		return domain.Upstream("save profile", err)
	}

	log.Info("subscription cancelled", zap.String("user_id", profile.UserID))

	return nil
}

// invoicePaid restores access only for the price recorded at checkout.
func (h *WebhookHandler) invoicePaid(ctx context.Context, invoice *stripe.Invoice, log *zap.Logger) error {
	customer := customerID(invoice.Customer)
	if customer == "" {
		return errNoCustomer
	}

	profile, err := h.profiles.GetByCustomerID(ctx, customer)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info("no profile for paid invoice", zap.String("customer_id", customer))
		return nil
	}

	if err != nil {
		return domain.Upstream("lookup profile", err)
	}

	prices := invoicePriceIDs(invoice)

	matched := false

	for _, id := range prices {
		if profile.PriceID != "" && id == profile.PriceID {
			matched = true
			break
		}
	}

	if !matched {
		log.Info("invoice price does not match recorded price, access unchanged",
			zap.String("user_id", profile.UserID),
			zap.String("recorded_price", profile.PriceID),
			zap.Strings("invoice_prices", prices),
		)

		return nil
	}

	profile.HasAccess = true
	profile.UpdatedAt = h.now().UTC()

	if err = h.profiles.Save(ctx, profile); err != nil {
		return domain.Upstream("save profile", err)
	}

	log.Info("subscription renewed", zap.String("user_id", profile.UserID))

	return nil
}

func (h *WebhookHandler) sendWelcome(email string) {
	h.runner.Go("billing.welcome_email", func(ctx context.Context) error {
		msg, err := mail.WelcomeMessage(email, h.cfg.BaseURL)
		if err != nil {
			return err
		}

		return h.mailer.Send(ctx, msg)
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
