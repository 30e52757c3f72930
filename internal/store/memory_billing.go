package store

import (
	"context"
	"strings"
	"sync"

	"github.com/serroba/linkmark/internal/billing"
	"github.com/serroba/linkmark/internal/domain"
)

// ProfileMemoryStore is an in-memory implementation of billing.ProfileStore.
type ProfileMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*billing.Profile // user id -> profile
}

// NewProfileMemoryStore creates a new in-memory profile store.
func NewProfileMemoryStore() *ProfileMemoryStore {
	return &ProfileMemoryStore{profiles: make(map[string]*billing.Profile)}
}

func (m *ProfileMemoryStore) GetByUserID(_ context.Context, userID string) (*billing.Profile, error) {
	return m.find(func(p *billing.Profile) bool { return p.UserID == userID })
}

// GetByEmail matches case-insensitively.
func (m *ProfileMemoryStore) GetByEmail(_ context.Context, email string) (*billing.Profile, error) {
	return m.find(func(p *billing.Profile) bool { return strings.EqualFold(p.Email, email) })
}

func (m *ProfileMemoryStore) GetByCustomerID(_ context.Context, customerID string) (*billing.Profile, error) {
	if customerID == "" {
		return nil, domain.ErrNotFound
	}

	return m.find(func(p *billing.Profile) bool { return p.CustomerID == customerID })
}

func (m *ProfileMemoryStore) Save(_ context.Context, profile *billing.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *profile
	m.profiles[profile.UserID] = &stored

	return nil
}

func (m *ProfileMemoryStore) find(match func(*billing.Profile) bool) (*billing.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles {
		if match(p) {
			out := *p
			return &out, nil
		}
	}

	return nil, domain.ErrNotFound
}

// LedgerMemoryStore is an in-memory implementation of billing.EventLedger.
type LedgerMemoryStore struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewLedgerMemoryStore creates a new in-memory webhook event ledger.
func NewLedgerMemoryStore() *LedgerMemoryStore {
	return &LedgerMemoryStore{claimed: make(map[string]struct{})}
}

func (m *LedgerMemoryStore) Claim(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.claimed[eventID]; ok {
		return false, nil
	}

	m.claimed[eventID] = struct{}{}

	return true, nil
}

func (m *LedgerMemoryStore) Release(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.claimed, eventID)

	return nil
}

// Compile-time checks.
var (
	_ billing.ProfileStore = (*ProfileMemoryStore)(nil)
	_ billing.EventLedger  = (*LedgerMemoryStore)(nil)
)
