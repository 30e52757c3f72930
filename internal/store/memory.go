package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/shortener"
)

// LinkMemoryStore is an in-memory implementation of shortener.LinkRepository.
type LinkMemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*shortener.Link
	codes map[string]string // short code -> id
}

// NewLinkMemoryStore creates a new in-memory link store.
func NewLinkMemoryStore() *LinkMemoryStore {
	return &LinkMemoryStore{
		byID:  make(map[string]*shortener.Link),
		codes: make(map[string]string),
	}
}

func (m *LinkMemoryStore) Create(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.codes[link.ShortCode]; taken {
		return domain.ErrConflict
	}

	stored := *link
	m.byID[link.ID] = &stored
	m.codes[link.ShortCode] = link.ID

	return nil
}

func (m *LinkMemoryStore) GetByID(_ context.Context, id string) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	out := *link

	return &out, nil
}

func (m *LinkMemoryStore) GetByCode(ctx context.Context, code string) (*shortener.Link, error) {
	m.mu.RLock()
	id, ok := m.codes[code]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.ErrNotFound
	}

	return m.GetByID(ctx, id)
}

func (m *LinkMemoryStore) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.codes[code]

	return ok, nil
}

func (m *LinkMemoryStore) ListByOwner(
	_ context.Context, ownerID string, page domain.Page,
) ([]*shortener.Link, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var owned []*shortener.Link

	for _, link := range m.byID {
		if link.OwnerID == ownerID {
			out := *link
			owned = append(owned, &out)
		}
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	return paginate(owned, page), len(owned), nil
}

func (m *LinkMemoryStore) Update(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[link.ID]; !ok {
		return domain.ErrNotFound
	}

	stored := *link
	m.byID[link.ID] = &stored

	return nil
}

func (m *LinkMemoryStore) Delete(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[link.ID]
	if !ok {
		return domain.ErrNotFound
	}

	delete(m.codes, stored.ShortCode)
	delete(m.byID, link.ID)

	return nil
}

func (m *LinkMemoryStore) IncrementClicks(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}

	link.ClickCount++
	link.LastClickedAt = &at

	return nil
}

func (m *LinkMemoryStore) StatsByOwner(_ context.Context, ownerID string) (shortener.OwnerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats shortener.OwnerStats

	for _, link := range m.byID {
		if link.OwnerID == ownerID {
			stats.Count++
			stats.Hits += link.ClickCount
		}
	}

	return stats, nil
}

// QRMemoryStore is an in-memory implementation of shortener.QRRepository.
type QRMemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*shortener.QRCode
	codes map[string]string
}

// NewQRMemoryStore creates a new in-memory QR code store.
func NewQRMemoryStore() *QRMemoryStore {
	return &QRMemoryStore{
		byID:  make(map[string]*shortener.QRCode),
		codes: make(map[string]string),
	}
}

func (m *QRMemoryStore) Create(_ context.Context, qr *shortener.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.codes[qr.Code]; taken {
		return domain.ErrConflict
	}

	stored := *qr
	m.byID[qr.ID] = &stored
	m.codes[qr.Code] = qr.ID

	return nil
}

func (m *QRMemoryStore) GetByID(_ context.Context, id string) (*shortener.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	out := *qr

	return &out, nil
}

func (m *QRMemoryStore) GetByCode(ctx context.Context, code string) (*shortener.QRCode, error) {
	m.mu.RLock()
	id, ok := m.codes[code]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.ErrNotFound
	}

	return m.GetByID(ctx, id)
}

func (m *QRMemoryStore) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.codes[code]

	return ok, nil
}

func (m *QRMemoryStore) ListByOwner(
	_ context.Context, ownerID string, page domain.Page,
) ([]*shortener.QRCode, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var owned []*shortener.QRCode

	for _, qr := range m.byID {
		if qr.OwnerID == ownerID {
			out := *qr
			owned = append(owned, &out)
		}
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	return paginate(owned, page), len(owned), nil
}

func (m *QRMemoryStore) Update(_ context.Context, qr *shortener.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[qr.ID]; !ok {
		return domain.ErrNotFound
	}

	stored := *qr
	m.byID[qr.ID] = &stored

	return nil
}

func (m *QRMemoryStore) Delete(_ context.Context, qr *shortener.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.byID[qr.ID]
	if !ok {
		return domain.ErrNotFound
	}

	delete(m.codes, stored.Code)
	delete(m.byID, qr.ID)

	return nil
}

func (m *QRMemoryStore) IncrementScans(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}

	qr.ScanCount++

	return nil
}

func (m *QRMemoryStore) StatsByOwner(_ context.Context, ownerID string) (shortener.OwnerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats shortener.OwnerStats

	for _, qr := range m.byID {
		if qr.OwnerID == ownerID {
			stats.Count++
			stats.Hits += qr.ScanCount
		}
	}

	return stats, nil
}

func paginate[T any](items []T, page domain.Page) []T {
	start, end := page.Window(len(items))

	return items[start:end]
}

// Compile-time checks.
var (
	_ shortener.LinkRepository = (*LinkMemoryStore)(nil)
	_ shortener.QRRepository   = (*QRMemoryStore)(nil)
)
