package store

import (
	"context"
	"sort"
	"sync"

	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/domain"
)

// ShareMemoryStore is an in-memory implementation of documents.ShareRepository.
type ShareMemoryStore struct {
	mu     sync.RWMutex
	bySlug map[string]*documents.Share
	byDoc  map[string]string // document id -> slug
	views  map[string]int64  // document id -> views
}

// NewShareMemoryStore creates a new in-memory share store.
func NewShareMemoryStore() *ShareMemoryStore {
	return &ShareMemoryStore{
		bySlug: make(map[string]*documents.Share),
		byDoc:  make(map[string]string),
		views:  make(map[string]int64),
	}
}

func (m *ShareMemoryStore) Create(_ context.Context, share *documents.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.bySlug[share.Slug]; taken {
		return domain.ErrConflict
	}

	if _, shared := m.byDoc[share.DocumentID]; shared {
		return domain.ErrConflict
	}

	stored := *share
	m.bySlug[share.Slug] = &stored
	m.byDoc[share.DocumentID] = share.Slug

	return nil
}

func (m *ShareMemoryStore) GetBySlug(_ context.Context, slug string) (*documents.Share, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	share, ok := m.bySlug[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}

	out := *share
	out.ViewCount = m.views[share.DocumentID]

	return &out, nil
}

func (m *ShareMemoryStore) GetByDocumentID(ctx context.Context, documentID string) (*documents.Share, error) {
	m.mu.RLock()
	slug, ok := m.byDoc[documentID]
	m.mu.RUnlock()

	if !ok {
		return nil, domain.ErrNotFound
	}

	return m.GetBySlug(ctx, slug)
}

func (m *ShareMemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.bySlug[slug]

	return ok, nil
}

func (m *ShareMemoryStore) Update(_ context.Context, share *documents.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bySlug[share.Slug]; !ok {
		return domain.ErrNotFound
	}

	stored := *share
	m.bySlug[share.Slug] = &stored

	return nil
}

func (m *ShareMemoryStore) IncrementViews(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byDoc[documentID]; !ok {
		return domain.ErrNotFound
	}

	m.views[documentID]++

	return nil
}

func (m *ShareMemoryStore) deleteByDocument(documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if slug, ok := m.byDoc[documentID]; ok {
		delete(m.bySlug, slug)
		delete(m.byDoc, documentID)
		delete(m.views, documentID)
	}
}

// DocumentMemoryStore is an in-memory implementation of documents.Repository.
// Deletes cascade to the share store it was built with.
type DocumentMemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*documents.Document
	shares *ShareMemoryStore
}

// NewDocumentMemoryStore creates a new in-memory document store.
func NewDocumentMemoryStore(shares *ShareMemoryStore) *DocumentMemoryStore {
	return &DocumentMemoryStore{
		byID:   make(map[string]*documents.Document),
		shares: shares,
	}
}

func (m *DocumentMemoryStore) Create(_ context.Context, doc *documents.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[doc.ID]; ok {
		return domain.ErrConflict
	}

	stored := *doc
	m.byID[doc.ID] = &stored

	return nil
}

func (m *DocumentMemoryStore) GetByID(_ context.Context, id string) (*documents.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	out := *doc

	return &out, nil
}

func (m *DocumentMemoryStore) ListByOwner(
	_ context.Context, ownerID string, page domain.Page,
) ([]*documents.Document, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var owned []*documents.Document

	for _, doc := range m.byID {
		if doc.OwnerID == ownerID {
			out := *doc
			owned = append(owned, &out)
		}
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	return paginate(owned, page), len(owned), nil
}

func (m *DocumentMemoryStore) Update(_ context.Context, doc *documents.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[doc.ID]; !ok {
		return domain.ErrNotFound
	}

	stored := *doc
	m.byID[doc.ID] = &stored

	return nil
}

func (m *DocumentMemoryStore) Delete(_ context.Context, doc *documents.Document) error {
	m.mu.Lock()

	if _, ok := m.byID[doc.ID]; !ok {
		m.mu.Unlock()
		return domain.ErrNotFound
	}

	delete(m.byID, doc.ID)
	m.mu.Unlock()

	if m.shares != nil {
		m.shares.deleteByDocument(doc.ID)
	}

	return nil
}

func (m *DocumentMemoryStore) CountByOwner(_ context.Context, ownerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0

	for _, doc := range m.byID {
		if doc.OwnerID == ownerID {
			count++
		}
	}

	return count, nil
}

// Compile-time checks.
var (
	_ documents.Repository      = (*DocumentMemoryStore)(nil)
	_ documents.ShareRepository = (*ShareMemoryStore)(nil)
)
