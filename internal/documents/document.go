// Package documents stores converted markdown and publishes it through
// share slugs.
package documents

import (
	"context"
	"time"

	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/markdown"
)

// DefaultTitle is used when a document is saved without a title.
const DefaultTitle = "Untitled"

// Document is a saved markdown conversion. HTML is always sanitized output.
type Document struct {
	ID        string
	OwnerID   string
	Title     string
	Markdown  string
	HTML      string
	IsPublic  bool
	Settings  markdown.Options
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Share publishes one document under a slug.
type Share struct {
	Slug       string
	DocumentID string
	IsPublic   bool
	ViewCount  int64
	CreatedAt  time.Time
}

// Repository stores documents. Lookups return domain.ErrNotFound.
// Deleting a document also deletes its share.
type Repository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	ListByOwner(ctx context.Context, ownerID string, page domain.Page) ([]*Document, int, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, doc *Document) error
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// ShareRepository stores shares. Create returns domain.ErrConflict when
// the slug is taken.
type ShareRepository interface {
	Create(ctx context.Context, share *Share) error
	GetBySlug(ctx context.Context, slug string) (*Share, error)
	GetByDocumentID(ctx context.Context, documentID string) (*Share, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Update(ctx context.Context, share *Share) error
	IncrementViews(ctx context.Context, documentID string) error
}

// Converter renders markdown.
type Converter interface {
	Convert(ctx context.Context, text string, opts markdown.Options) (markdown.Result, error)
}
