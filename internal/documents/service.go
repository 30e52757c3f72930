package documents

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/markdown"
	"github.com/serroba/linkmark/internal/shortener"
	"go.uber.org/zap"
)

const MaxTitleLength = 200

// CreateInput captures a new document.
type CreateInput struct {
	OwnerID  string
	Title    string
	Markdown string
	Settings markdown.Options
	IsPublic bool
}

// UpdateInput holds the fields to change. Markdown or Settings changes
// re-render the stored HTML.
type UpdateInput struct {
	Title    *string
	Markdown *string
	Settings *markdown.Options
	IsPublic *bool
}

// Service manages documents and their shares.
type Service struct {
	docs      Repository
	shares    ShareRepository
	converter Converter
	allocator *shortener.Allocator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a document service. The allocator must serve the
// shares namespace.
func NewService(
	docs Repository,
	shares ShareRepository,
	converter Converter,
	allocator *shortener.Allocator,
	logger *zap.Logger,
) *Service {
	return &Service{
		docs:      docs,
		shares:    shares,
		converter: converter,
		allocator: allocator,
		logger:    logger,
		now:       time.Now,
	}
}

// Create converts and stores a document.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Document, error) {
	if in.OwnerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	res, err := s.converter.Convert(ctx, in.Markdown, in.Settings)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	doc := &Document{
		ID:        uuid.NewString(),
		OwnerID:   in.OwnerID,
		Title:     title,
		Markdown:  in.Markdown,
		HTML:      res.HTML,
		IsPublic:  in.IsPublic,
		Settings:  in.Settings,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err = s.docs.Create(ctx, doc); err != nil {
		return nil, domain.Upstream("store document", err)
	}

	return doc, nil
}

// Get returns a document owned by ownerID.
func (s *Service) Get(ctx context.Context, id, ownerID string) (*Document, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("load document", err)
	}

	if doc.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}

	return doc, nil
}

// List returns one page of the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string, page domain.Page) ([]*Document, int, error) {
	if ownerID == "" {
		return nil, 0, domain.ErrUnauthenticated
	}

	docs, total, err := s.docs.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, 0, domain.Upstream("list documents", err)
	}

	return docs, total, nil
}

// Update applies in and re-renders when content or settings changed.
func (s *Service) Update(ctx context.Context, id, ownerID string, in UpdateInput) (*Document, error) {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if doc.Title, err = normalizeTitle(*in.Title); err != nil {
			return nil, err
		}
	}

	rerender := false

	if in.Markdown != nil {
		doc.Markdown = *in.Markdown
		rerender = true
	}

	if in.Settings != nil {
		doc.Settings = *in.Settings
		rerender = true
	}

	if rerender {
		res, err := s.converter.Convert(ctx, doc.Markdown, doc.Settings)
		if err != nil {
			return nil, err
		}

		doc.HTML = res.HTML
	}

	if in.IsPublic != nil {
		doc.IsPublic = *in.IsPublic
	}

	doc.UpdatedAt = s.now().UTC()

	if err = s.docs.Update(ctx, doc); err != nil {
		return nil, lookupError("update document", err)
	}

	return doc, nil
}

// Delete removes a document and its share.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err = s.docs.Delete(ctx, doc); err != nil {
		return lookupError("delete document", err)
	}

	return nil
}

// Count returns how many documents the owner has.
func (s *Service) Count(ctx context.Context, ownerID string) (int, error) {
	n, err := s.docs.CountByOwner(ctx, ownerID)
	if err != nil {
		return 0, domain.Upstream("count documents", err)
	}

	return n, nil
}

// Share creates the document's share or updates its visibility. A
// document has at most one share, so the slug never changes.
func (s *Service) Share(ctx context.Context, id, ownerID string, isPublic bool) (*Share, error) {
	doc, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.shares.GetByDocumentID(ctx, doc.ID)

	switch {
	case err == nil:
		existing.IsPublic = isPublic
		if err = s.shares.Update(ctx, existing); err != nil {
			return nil, lookupError("update share", err)
		}

		return existing, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, domain.Upstream("load share", err)
	}

	share := &Share{
		DocumentID: doc.ID,
		IsPublic:   isPublic,
		CreatedAt:  s.now().UTC(),
	}

	if err = s.allocator.Claim(ctx, "", func(code string) error {
		share.Slug = code
		return s.shares.Create(ctx, share)
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("document shared", zap.String("code", share.Slug))

	return share, nil
}

// ShareOf returns the document's share, or nil when it has none.
func (s *Service) ShareOf(ctx context.Context, documentID string) (*Share, error) {
	share, err := s.shares.GetByDocumentID(ctx, documentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, domain.Upstream("load share", err)
	}

	return share, nil
}

// ViewShare returns the document behind a public share. Private shares
// look exactly like missing ones.
func (s *Service) ViewShare(ctx context.Context, slug string) (*Document, *Share, error) {
	share, err := s.shares.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, lookupError("load share", err)
	}

	if !share.IsPublic {
		return nil, nil, domain.ErrNotFound
	}

	doc, err := s.docs.GetByID(ctx, share.DocumentID)
	if err != nil {
		return nil, nil, lookupError("load shared document", err)
	}

	return doc, share, nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return DefaultTitle, nil
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", domain.NewValidationError("title", "must be at most 200 characters")
	}

	return title, nil
}

func lookupError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}

	return domain.Upstream(op, err)
}
