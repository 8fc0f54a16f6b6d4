// Package postgres implements the link store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/linkly/internal/entity"
)

type linkRecord struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	AccessCount int64     `db:"access_count"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *linkRecord) toLink() *entity.Link {
	return &entity.Link{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		AccessCount: r.AccessCount,
		CreatedAt:   r.CreatedAt,
	}
}

type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

// Save inserts a new link. Uniqueness of the short code is enforced by the
// database constraint; a violation is translated to entity.ErrShortCodeExists.
func (r *LinkRepository) Save(ctx context.Context, shortCode, originalURL string) (*entity.Link, error) {
	const op = "database.postgres.LinkRepository.Save"

	rec := new(linkRecord)
	query := `INSERT INTO links(short_code, original_url)
		VALUES ($1, $2)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, shortCode, originalURL)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to save link record: %w", op, err)
	}

	return rec.toLink(), nil
}

// ByShortCode retrieves a link without touching its access counter.
func (r *LinkRepository) ByShortCode(ctx context.Context, shortCode string) (*entity.Link, error) {
	const op = "database.postgres.LinkRepository.ByShortCode"

	rec := new(linkRecord)
	query := `SELECT * FROM links
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.toLink(), nil
}

// IncrementAccessCount bumps the access counter of one link. The arithmetic
// runs inside the database so concurrent hits on the same link never lose
// updates.
func (r *LinkRepository) IncrementAccessCount(ctx context.Context, id int64) error {
	const op = "database.postgres.LinkRepository.IncrementAccessCount"

	query := `UPDATE links
		SET access_count = access_count + 1
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to increment access count: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
	}

	return nil
}

// List returns one page of links, newest first. Pagination is purely
// offset-based; no total count is computed.
func (r *LinkRepository) List(ctx context.Context, page, pageSize int) ([]entity.Link, error) {
	const op = "database.postgres.LinkRepository.List"

	var recs []linkRecord
	query := `SELECT * FROM links
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	err := r.db.SelectContext(ctx, &recs, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list link records: %w", op, err)
	}

	links := make([]entity.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].toLink())
	}

	return links, nil
}

// Remove deletes the link with the given short code and reports the removed
// record's id. The code becomes available for reuse afterwards.
func (r *LinkRepository) Remove(ctx context.Context, shortCode string) (int64, error) {
	const op = "database.postgres.LinkRepository.Remove"

	var id int64
	query := `DELETE FROM links
		WHERE short_code = $1
		RETURNING id`

	err := r.db.GetContext(ctx, &id, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, entity.ErrLinkNotFound)
		}

		return 0, fmt.Errorf("%s: failed to remove link record: %w", op, err)
	}

	return id, nil
}

// All returns every link, newest first, for export.
func (r *LinkRepository) All(ctx context.Context) ([]entity.Link, error) {
	const op = "database.postgres.LinkRepository.All"

	var recs []linkRecord
	query := `SELECT * FROM links
		ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &recs, query)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get link records: %w", op, err)
	}

	links := make([]entity.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].toLink())
	}

	return links, nil
}
