package billing_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/mail"
	"github.com/stripe/stripe-go/v76"
)

type mockProfiles struct {
	mu         sync.Mutex
	byUser     map[string]*billing.Profile
	getErr     error
	saveErr    error
	saves      int
	emailCalls int
	// onEmailLookup runs before every email lookup, letting tests
	// simulate a row that appears during the settle delay.
	onEmailLookup func(call int)
}

func newMockProfiles(profiles ...*billing.Profile) *mockProfiles {
	m := &mockProfiles{byUser: make(map[string]*billing.Profile)}
	for _, p := range profiles {
		m.byUser[p.UserID] = p
	}

	return m
}

func (m *mockProfiles) find(match func(*billing.Profile) bool) (*billing.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	for _, p := range m.byUser {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (m *mockProfiles) GetByUserID(_ context.Context, userID string) (*billing.Profile, error) {
	return m.find(func(p *billing.Profile) bool { return p.UserID == userID })
}

func (m *mockProfiles) GetByEmail(_ context.Context, email string) (*billing.Profile, error) {
	m.mu.Lock()
	m.emailCalls++
	call := m.emailCalls
	hook := m.onEmailLookup
	m.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	return m.find(func(p *billing.Profile) bool { return p.Email == email })
}

func (m *mockProfiles) GetByCustomerID(_ context.Context, customerID string) (*billing.Profile, error) {
	return m.find(func(p *billing.Profile) bool { return p.CustomerID == customerID })
}

func (m *mockProfiles) Save(_ context.Context, profile *billing.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}

	cp := *profile
	m.byUser[profile.UserID] = &cp
	m.saves++

	return nil
}

func (m *mockProfiles) get(userID string) *billing.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.byUser[userID]
}

func (m *mockProfiles) all() []*billing.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*billing.Profile, 0, len(m.byUser))
	for _, p := range m.byUser {
		out = append(out, p)
	}

	return out
}

type mockLedger struct {
	mu       sync.Mutex
	seen     map[string]bool
	released []string
	err      error
}

func newMockLedger() *mockLedger {
	return &mockLedger{seen: make(map[string]bool)}
}

func (l *mockLedger) Claim(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return false, l.err
	}

	if l.seen[id] {
		return false, nil
	}

	l.seen[id] = true

	return true, nil
}

func (l *mockLedger) Release(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.seen, id)
	l.released = append(l.released, id)

	return nil
}

type mockSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (s *mockSender) Send(_ context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, msg)

	return nil
}

type mockSessions struct {
	session *stripe.CheckoutSession
	err     error
	calls   int
}

func (m *mockSessions) Get(_ context.Context, _ string) (*stripe.CheckoutSession, error) {
	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	return m.session, nil
}

var errDB = errors.New("database unavailable")
