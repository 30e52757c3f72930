package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkmark/internal/documents"
	"github.com/serroba/linkmark/internal/domain"
)

const documentColumns = `id, owner_id, title, markdown, html, is_public, settings, created_at, updated_at`

// DocumentPostgresStore is a PostgreSQL implementation of documents.Repository.
// The share row goes with the document through ON DELETE CASCADE.
type DocumentPostgresStore struct {
	pool *pgxpool.Pool
}

// NewDocumentPostgresStore creates a new PostgreSQL-backed document store.
func NewDocumentPostgresStore(pool *pgxpool.Pool) *DocumentPostgresStore {
	return &DocumentPostgresStore{pool: pool}
}

func (p *DocumentPostgresStore) Create(ctx context.Context, doc *documents.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.pool.Exec(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.Title,
		doc.Markdown,
		doc.HTML,
		doc.IsPublic,
		doc.Settings,
		doc.CreatedAt,
		doc.UpdatedAt,
	)

	return mapError(err)
}

func (p *DocumentPostgresStore) GetByID(ctx context.Context, id string) (*documents.Document, error) {
	return scanDocument(p.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
}

func (p *DocumentPostgresStore) ListByOwner(
	ctx context.Context, ownerID string, page domain.Page,
) ([]*documents.Document, int, error) {
	total, err := p.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.pool.Query(ctx, query, ownerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := make([]*documents.Document, 0, page.Limit)

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}

		docs = append(docs, doc)
	}

	return docs, total, rows.Err()
}

func (p *DocumentPostgresStore) Update(ctx context.Context, doc *documents.Document) error {
	query := `
		UPDATE documents
		SET title = $2, markdown = $3, html = $4, is_public = $5, settings = $6, updated_at = $7
		WHERE id = $1
	`

	return affected(p.pool.Exec(ctx, query,
		doc.ID, doc.Title, doc.Markdown, doc.HTML, doc.IsPublic, doc.Settings, doc.UpdatedAt))
}

func (p *DocumentPostgresStore) Delete(ctx context.Context, doc *documents.Document) error {
	return affected(p.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, doc.ID))
}

func (p *DocumentPostgresStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var total int

	err := p.pool.QueryRow(ctx, `SELECT count(*) FROM documents WHERE owner_id = $1`, ownerID).Scan(&total)

	return total, err
}

func scanDocument(row rowScanner) (*documents.Document, error) {
	var doc documents.Document

	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.Title,
		&doc.Markdown,
		&doc.HTML,
		&doc.IsPublic,
		&doc.Settings,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return &doc, nil
}

const shareColumns = `slug, document_id, is_public, view_count, created_at`

// SharePostgresStore is a PostgreSQL implementation of documents.ShareRepository.
type SharePostgresStore struct {
	pool *pgxpool.Pool
}

// NewSharePostgresStore creates a new PostgreSQL-backed share store.
func NewSharePostgresStore(pool *pgxpool.Pool) *SharePostgresStore {
	return &SharePostgresStore{pool: pool}
}

func (p *SharePostgresStore) Create(ctx context.Context, share *documents.Share) error {
	query := `INSERT INTO document_shares (` + shareColumns + `) VALUES ($1, $2, $3, $4, $5)`

	_, err := p.pool.Exec(ctx, query,
		share.Slug, share.DocumentID, share.IsPublic, share.ViewCount, share.CreatedAt)

	return mapError(err)
}

func (p *SharePostgresStore) GetBySlug(ctx context.Context, slug string) (*documents.Share, error) {
	return scanShare(p.pool.QueryRow(ctx, `SELECT `+shareColumns+` FROM document_shares WHERE slug = $1`, slug))
}

func (p *SharePostgresStore) GetByDocumentID(ctx context.Context, documentID string) (*documents.Share, error) {
	return scanShare(p.pool.QueryRow(ctx,
		`SELECT `+shareColumns+` FROM document_shares WHERE document_id = $1`, documentID))
}

func (p *SharePostgresStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	return exists(ctx, p.pool, `SELECT EXISTS (SELECT 1 FROM document_shares WHERE slug = $1)`, slug)
}

// Update only changes visibility; the slug is permanent.
func (p *SharePostgresStore) Update(ctx context.Context, share *documents.Share) error {
	return affected(p.pool.Exec(ctx,
		`UPDATE document_shares SET is_public = $2 WHERE slug = $1`, share.Slug, share.IsPublic))
}

func (p *SharePostgresStore) IncrementViews(ctx context.Context, documentID string) error {
	return affected(p.pool.Exec(ctx,
		`UPDATE document_shares SET view_count = view_count + 1 WHERE document_id = $1`, documentID))
}

func scanShare(row rowScanner) (*documents.Share, error) {
	var share documents.Share

	if err := row.Scan(&share.Slug, &share.DocumentID, &share.IsPublic, &share.ViewCount, &share.CreatedAt); err != nil {
		return nil, mapError(err)
	}

	return &share, nil
}

// Compile-time checks.
var (
	_ documents.Repository      = (*DocumentPostgresStore)(nil)
	_ documents.ShareRepository = (*SharePostgresStore)(nil)
)
