package shortener

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/serroba/linkmark/internal/domain"
	"go.uber.org/zap"
)

const (
	MaxTitleLength    = 200
	MaxMarkdownLength = 500_000
)

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	URL             string
	CustomSlug      string
	Title           string
	MarkdownContent string
	OwnerID         string
	ExpiresAt       *time.Time
}

// UpdateLinkInput captures fields that can be changed on an existing link.
type UpdateLinkInput struct {
	URL       *string
	Title     *string
	IsActive  *bool
	ExpiresAt *time.Time
}

// LinkService manages short links on behalf of their owners.
type LinkService struct {
	repo      LinkRepository
	allocator *Allocator
	logger    *zap.Logger
	now       func() time.Time
}

// NewLinkService creates a link service. The allocator must serve NamespaceLinks.
func NewLinkService(repo LinkRepository, allocator *Allocator, logger *zap.Logger) *LinkService {
	return &LinkService{
		repo:      repo,
		allocator: allocator,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates input, allocates a code and stores the link.
func (s *LinkService) Create(ctx context.Context, in CreateLinkInput) (*Link, error) {
	target, err := NormalizeTarget(in.URL)
	if err != nil {
		return nil, err
	}

	if err = validateTitle(in.Title); err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(in.MarkdownContent) > MaxMarkdownLength {
		return nil, domain.NewValidationError("markdownContent", "exceeds the maximum length of 500000 characters")
	}

	now := s.now().UTC()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, domain.NewValidationError("expiresAt", "must be in the future")
	}

	link := &Link{
		ID:              uuid.NewString(),
		OriginalURL:     target,
		Title:           strings.TrimSpace(in.Title),
		MarkdownContent: in.MarkdownContent,
		OwnerID:         in.OwnerID,
		IsActive:        true,
		CreatedAt:       now,
		ExpiresAt:       in.ExpiresAt,
	}

	if err = s.allocator.Claim(ctx, in.CustomSlug, func(code string) error {
		link.ShortCode = code
		return s.repo.Create(ctx, link)
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("short link created",
		zap.String("code", link.ShortCode),
		zap.Bool("custom", in.CustomSlug != ""),
	)

	return link, nil
}

// Get returns a link owned by ownerID.
func (s *LinkService) Get(ctx context.Context, id, ownerID string) (*Link, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("load link", err)
	}

	if link.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}

	return link, nil
}

// List returns one page of the owner's links, newest first.
func (s *LinkService) List(ctx context.Context, ownerID string, page domain.Page) ([]*Link, int, error) {
	if ownerID == "" {
		return nil, 0, domain.ErrUnauthenticated
	}

	links, total, err := s.repo.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, 0, domain.Upstream("list links", err)
	}

	return links, total, nil
}

// Update applies the non-nil fields of in.
func (s *LinkService) Update(ctx context.Context, id, ownerID string, in UpdateLinkInput) (*Link, error) {
	link, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if in.URL != nil {
		target, err := NormalizeTarget(*in.URL)
		if err != nil {
			return nil, err
		}

		link.OriginalURL = target
	}

	if in.Title != nil {
		if err = validateTitle(*in.Title); err != nil {
			return nil, err
		}

		link.Title = strings.TrimSpace(*in.Title)
	}

	if in.IsActive != nil {
		link.IsActive = *in.IsActive
	}

	if in.ExpiresAt != nil {
		link.ExpiresAt = in.ExpiresAt
	}

	if err = s.repo.Update(ctx, link); err != nil {
		return nil, lookupError("update link", err)
	}

	return link, nil
}

// Delete removes a link permanently.
func (s *LinkService) Delete(ctx context.Context, id, ownerID string) error {
	link, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, link); err != nil {
		return lookupError("delete link", err)
	}

	return nil
}

// Stats returns the owner's link count and total clicks.
func (s *LinkService) Stats(ctx context.Context, ownerID string) (OwnerStats, error) {
	stats, err := s.repo.StatsByOwner(ctx, ownerID)
	if err != nil {
		return OwnerStats{}, domain.Upstream("link stats", err)
	}

	return stats, nil
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(strings.TrimSpace(title)) > MaxTitleLength {
		return domain.NewValidationError("title", "must be at most 200 characters")
	}

	return nil
}

func lookupError(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotFound
	}

	return domain.Upstream(op, err)
}
