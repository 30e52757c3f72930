package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkmark/internal/domain"
	"github.com/serroba/linkmark/internal/shortener"
)

const linkColumns = `id, short_code, original_url, title, markdown_content, owner_id,
	is_active, click_count, created_at, expires_at, last_clicked_at`

// LinkPostgresStore is a PostgreSQL implementation of shortener.LinkRepository.
type LinkPostgresStore struct {
	pool *pgxpool.Pool
}

// NewLinkPostgresStore creates a new PostgreSQL-backed link store.
func NewLinkPostgresStore(pool *pgxpool.Pool) *LinkPostgresStore {
	return &LinkPostgresStore{pool: pool}
}

func (p *LinkPostgresStore) Create(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.pool.Exec(ctx, query,
		link.ID,
		link.ShortCode,
		link.OriginalURL,
		link.Title,
		link.MarkdownContent,
		link.OwnerID,
		link.IsActive,
		link.ClickCount,
		link.CreatedAt,
		link.ExpiresAt,
		link.LastClickedAt,
	)

	return mapError(err)
}

func (p *LinkPostgresStore) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	return scanLink(p.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
}

func (p *LinkPostgresStore) GetByCode(ctx context.Context, code string) (*shortener.Link, error) {
	return scanLink(p.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE short_code = $1`, code))
}

func (p *LinkPostgresStore) CodeExists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, p.pool, `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`, code)
}

func (p *LinkPostgresStore) ListByOwner(
	ctx context.Context, ownerID string, page domain.Page,
) ([]*shortener.Link, int, error) {
	var total int

	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM links WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.pool.Query(ctx, query, ownerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	links := make([]*shortener.Link, 0, page.Limit)

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, 0, err
		}

		links = append(links, link)
	}

	return links, total, rows.Err()
}

func (p *LinkPostgresStore) Update(ctx context.Context, link *shortener.Link) error {
	query := `
		UPDATE links
		SET original_url = $2, title = $3, markdown_content = $4, is_active = $5, expires_at = $6
		WHERE id = $1
	`

	return affected(p.pool.Exec(ctx, query,
		link.ID, link.OriginalURL, link.Title, link.MarkdownContent, link.IsActive, link.ExpiresAt))
}

func (p *LinkPostgresStore) Delete(ctx context.Context, link *shortener.Link) error {
	return affected(p.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, link.ID))
}

func (p *LinkPostgresStore) IncrementClicks(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE links SET click_count = click_count + 1, last_clicked_at = $2 WHERE id = $1`

	return affected(p.pool.Exec(ctx, query, id, at))
}

func (p *LinkPostgresStore) StatsByOwner(ctx context.Context, ownerID string) (shortener.OwnerStats, error) {
	var stats shortener.OwnerStats

	err := p.pool.QueryRow(ctx,
		`SELECT count(*), COALESCE(sum(click_count), 0)::bigint FROM links WHERE owner_id = $1`, ownerID,
	).Scan(&stats.Count, &stats.Hits)

	return stats, err
}

func scanLink(row rowScanner) (*shortener.Link, error) {
	var link shortener.Link

	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.Title,
		&link.MarkdownContent,
		&link.OwnerID,
		&link.IsActive,
		&link.ClickCount,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.LastClickedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return &link, nil
}

const qrColumns = `id, qr_code, target_url, title, owner_id, is_active, tracking_enabled, scan_count, created_at`

// QRPostgresStore is a PostgreSQL implementation of shortener.QRRepository.
type QRPostgresStore struct {
	pool *pgxpool.Pool
}

// NewQRPostgresStore creates a new PostgreSQL-backed QR code store.
func NewQRPostgresStore(pool *pgxpool.Pool) *QRPostgresStore {
	return &QRPostgresStore{pool: pool}
}

func (p *QRPostgresStore) Create(ctx context.Context, qr *shortener.QRCode) error {
	query := `
		INSERT INTO qr_codes (` + qrColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := p.pool.Exec(ctx, query,
		qr.ID,
		qr.Code,
		qr.TargetURL,
		qr.Title,
		qr.OwnerID,
		qr.IsActive,
		qr.TrackingEnabled,
		qr.ScanCount,
		qr.CreatedAt,
	)

	return mapError(err)
}

func (p *QRPostgresStore) GetByID(ctx context.Context, id string) (*shortener.QRCode, error) {
	return scanQR(p.pool.QueryRow(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE id = $1`, id))
}

func (p *QRPostgresStore) GetByCode(ctx context.Context, code string) (*shortener.QRCode, error) {
	return scanQR(p.pool.QueryRow(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE qr_code = $1`, code))
}

func (p *QRPostgresStore) CodeExists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, p.pool, `SELECT EXISTS (SELECT 1 FROM qr_codes WHERE qr_code = $1)`, code)
}

func (p *QRPostgresStore) ListByOwner(
	ctx context.Context, ownerID string, page domain.Page,
) ([]*shortener.QRCode, int, error) {
	var total int

	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM qr_codes WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + qrColumns + `
		FROM qr_codes
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.pool.Query(ctx, query, ownerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	codes := make([]*shortener.QRCode, 0, page.Limit)

	for rows.Next() {
		qr, err := scanQR(rows)
		if err != nil {
			return nil, 0, err
		}

		codes = append(codes, qr)
	}

	return codes, total, rows.Err()
}

func (p *QRPostgresStore) Update(ctx context.Context, qr *shortener.QRCode) error {
	query := `
		UPDATE qr_codes
		SET target_url = $2, title = $3, is_active = $4, tracking_enabled = $5
		WHERE id = $1
	`

	return affected(p.pool.Exec(ctx, query, qr.ID, qr.TargetURL, qr.Title, qr.IsActive, qr.TrackingEnabled))
}

func (p *QRPostgresStore) Delete(ctx context.Context, qr *shortener.QRCode) error {
	return affected(p.pool.Exec(ctx, `DELETE FROM qr_codes WHERE id = $1`, qr.ID))
}

func (p *QRPostgresStore) IncrementScans(ctx context.Context, id string) error {
	return affected(p.pool.Exec(ctx, `UPDATE qr_codes SET scan_count = scan_count + 1 WHERE id = $1`, id))
}

func (p *QRPostgresStore) StatsByOwner(ctx context.Context, ownerID string) (shortener.OwnerStats, error) {
	var stats shortener.OwnerStats

	err := p.pool.QueryRow(ctx,
		`SELECT count(*), COALESCE(sum(scan_count), 0)::bigint FROM qr_codes WHERE owner_id = $1`, ownerID,
	).Scan(&stats.Count, &stats.Hits)

	return stats, err
}

func scanQR(row rowScanner) (*shortener.QRCode, error) {
	var qr shortener.QRCode

	err := row.Scan(
		&qr.ID,
		&qr.Code,
		&qr.TargetURL,
		&qr.Title,
		&qr.OwnerID,
		&qr.IsActive,
		&qr.TrackingEnabled,
		&qr.ScanCount,
		&qr.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return &qr, nil
}

// Compile-time checks.
var (
	_ shortener.LinkRepository = (*LinkPostgresStore)(nil)
	_ shortener.QRRepository   = (*QRPostgresStore)(nil)
)
