package shortener

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/linkmark/internal/domain"
	"go.uber.org/zap"
)

// CreateQRInput captures data required to create a QR code.
type CreateQRInput struct {
	URL             string
	CustomCode      string
	Title           string
	OwnerID         string
	TrackingEnabled bool
}

// UpdateQRInput captures fields that can be changed on an existing QR code.
// Tracking is fixed at creation time.
type UpdateQRInput struct {
	URL      *string
	Title    *string
	IsActive *bool
}

// QRService manages QR codes on behalf of their owners.
type QRService struct {
	repo      QRRepository
	allocator *Allocator
	access    AccessChecker
	logger    *zap.Logger
	now       func() time.Time
}

// NewQRService creates a QR service. The allocator must serve NamespaceQR.
func NewQRService(repo QRRepository, allocator *Allocator, access AccessChecker, logger *zap.Logger) *QRService {
	return &QRService{
		repo:      repo,
		allocator: allocator,
		access:    access,
		logger:    logger,
		now:       time.Now,
	}
}

// Create stores a new QR code. Tracking requires current paid access and is
// not re-validated later.
func (s *QRService) Create(ctx context.Context, in CreateQRInput) (*QRCode, error) {
	target, err := NormalizeTarget(in.URL)
	if err != nil {
		return nil, err
	}

	if err = validateTitle(in.Title); err != nil {
		return nil, err
	}

	if in.TrackingEnabled {
		if in.OwnerID == "" {
			return nil, domain.ErrUnauthenticated
		}

		if !s.access.HasAccess(ctx, in.OwnerID) {
			return nil, domain.ErrForbidden
		}
	}

	qr := &QRCode{
		ID:              uuid.NewString(),
		TargetURL:       target,
		Title:           strings.TrimSpace(in.Title),
		OwnerID:         in.OwnerID,
		IsActive:        true,
		TrackingEnabled: in.TrackingEnabled,
		CreatedAt:       s.now().UTC(),
	}

	if err = s.allocator.Claim(ctx, in.CustomCode, func(code string) error {
		qr.Code = code
		return s.repo.Create(ctx, qr)
	}); err != nil {
		return nil, err
	}

	s.logger.Debug("qr code created",
		zap.String("code", qr.Code),
		zap.Bool("tracking", qr.TrackingEnabled),
	)

	return qr, nil
}

// Get returns a QR code owned by ownerID.
func (s *QRService) Get(ctx context.Context, id, ownerID string) (*QRCode, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthenticated
	}

	qr, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError("load qr code", err)
	}

	if qr.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}

	return qr, nil
}

// List returns one page of the owner's QR codes, newest first.
func (s *QRService) List(ctx context.Context, ownerID string, page domain.Page) ([]*QRCode, int, error) {
	if ownerID == "" {
		return nil, 0, domain.ErrUnauthenticated
	}

	codes, total, err := s.repo.ListByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, 0, domain.Upstream("list qr codes", err)
	}

	return codes, total, nil
}

// Update applies the non-nil fields of in.
func (s *QRService) Update(ctx context.Context, id, ownerID string, in UpdateQRInput) (*QRCode, error) {
	qr, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if in.URL != nil {
		target, err := NormalizeTarget(*in.URL)
		if err != nil {
			return nil, err
		}

		qr.TargetURL = target
	}

	if in.Title != nil {
		if err = validateTitle(*in.Title); err != nil {
			return nil, err
		}

		qr.Title = strings.TrimSpace(*in.Title)
	}

	if in.IsActive != nil {
		qr.IsActive = *in.IsActive
	}

	if err = s.repo.Update(ctx, qr); err != nil {
		return nil, lookupError("update qr code", err)
	}

	return qr, nil
}

// Delete removes a QR code permanently.
func (s *QRService) Delete(ctx context.Context, id, ownerID string) error {
	qr, err := s.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err = s.repo.Delete(ctx, qr); err != nil {
		return lookupError("delete qr code", err)
	}

	return nil
}

// Stats returns the owner's QR count and total scans.
func (s *QRService) Stats(ctx context.Context, ownerID string) (OwnerStats, error) {
	stats, err := s.repo.StatsByOwner(ctx, ownerID)
	if err != nil {
		return OwnerStats{}, domain.Upstream("qr stats", err)
	}

	return stats, nil
}
