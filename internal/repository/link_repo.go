package repository

import (
	"context"
	"fmt"

	"biolink/internal/apperr"
	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const msgLinkNotFound = "Link not found."

// LinkFields are the owner-editable columns of a link. On update, nil fields
// are left unchanged and an empty SectionID clears the section.
type LinkFields struct {
	Title         *string
	URL           *string
	Description   *string
	ThumbnailURL  *string
	CoverURL      *string
	IsActive      *bool
	IsFeatured    *bool
	RequiresEmail *bool
	SectionID     *string
}

type LinkRepository interface {
	Create(ctx context.Context, userID string, in LinkFields) (*model.Link, error)
	Get(ctx context.Context, userID, id string) (*model.Link, error)
	// GetPublic fetches a link without an owner predicate for visitor-facing flows.
	GetPublic(ctx context.Context, id string) (*model.Link, error)
	List(ctx context.Context, userID string) ([]model.Link, error)
	ListActive(ctx context.Context, userID string) ([]model.Link, error)
	Count(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, userID, id string, in LinkFields) (*model.Link, error)
	Delete(ctx context.Context, userID, id string) error
	Reorder(ctx context.Context, userID string, ids []string) error
	IncrementClick(ctx context.Context, id string) error
}

type linkRepo struct {
	pool  *pgxpool.Pool
	table orderedTable
}

func NewLinkRepo(pool *pgxpool.Pool) LinkRepository {
	return &linkRepo{
		pool:  pool,
		table: orderedTable{name: "links", ownerCol: "user_id", notFound: msgLinkNotFound},
	}
}

const linkColumns = `id, user_id, title, url, description, thumbnail_url, cover_url, position,
	is_active, is_featured, click_count, section_id, requires_email, created_at, updated_at`

func scanLink(row pgx.Row) (*model.Link, error) {
	var l model.Link
	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.Title,
		&l.URL,
		&l.Description,
		&l.ThumbnailURL,
		&l.CoverURL,
		&l.Position,
		&l.IsActive,
		&l.IsFeatured,
		&l.ClickCount,
		&l.SectionID,
		&l.RequiresEmail,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (r *linkRepo) Create(ctx context.Context, userID string, in LinkFields) (*model.Link, error) {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	var section *string
	if in.SectionID != nil && *in.SectionID != "" {
		section = in.SectionID
	}

	l, err := scanLink(r.pool.QueryRow(ctx, `
		INSERT INTO links (user_id, title, url, description, thumbnail_url, cover_url,
			is_active, is_featured, requires_email, section_id, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, `+r.table.nextPosition()+`)
		RETURNING `+linkColumns,
		userID,
		deref(in.Title),
		deref(in.URL),
		deref(in.Description),
		deref(in.ThumbnailURL),
		deref(in.CoverURL),
		active,
		deref(in.IsFeatured),
		deref(in.RequiresEmail),
		section,
	))
	if err != nil {
		return nil, mapErr(err, "creating link", msgLinkNotFound, "")
	}
	return l, nil
}

func (r *linkRepo) Get(ctx context.Context, userID, id string) (*model.Link, error) {
	l, err := scanLink(r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, mapErr(err, "getting link", msgLinkNotFound, "")
	}
	return l, nil
}

func (r *linkRepo) GetPublic(ctx context.Context, id string) (*model.Link, error) {
	l, err := scanLink(r.pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "getting link", msgLinkNotFound, "")
	}
	return l, nil
}

func (r *linkRepo) List(ctx context.Context, userID string) ([]model.Link, error) {
	return r.list(ctx, `SELECT `+linkColumns+` FROM links WHERE user_id = $1 ORDER BY position`, userID)
}

func (r *linkRepo) ListActive(ctx context.Context, userID string) ([]model.Link, error) {
	return r.list(ctx, `SELECT `+linkColumns+` FROM links WHERE user_id = $1 AND is_active ORDER BY position`, userID)
}

func (r *linkRepo) list(ctx context.Context, query, userID string) ([]model.Link, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying links: %w", err)
	}
	defer rows.Close()

	links := []model.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning link row: %w", err)
		}
		links = append(links, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating link rows: %w", err)
	}
	return links, nil
}

func (r *linkRepo) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting links: %w", err)
	}
	return n, nil
}

func (r *linkRepo) Update(ctx context.Context, userID, id string, in LinkFields) (*model.Link, error) {
	l, err := scanLink(r.pool.QueryRow(ctx, `
		UPDATE links
		SET title = COALESCE($3, title),
			url = COALESCE($4, url),
			description = COALESCE($5, description),
			thumbnail_url = COALESCE($6, thumbnail_url),
			cover_url = COALESCE($7, cover_url),
			is_active = COALESCE($8, is_active),
			is_featured = COALESCE($9, is_featured),
			requires_email = COALESCE($10, requires_email),
			section_id = CASE WHEN $11::text IS NULL THEN section_id ELSE NULLIF($11::text, '')::uuid END,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+linkColumns,
		id, userID,
		in.Title, in.URL, in.Description, in.ThumbnailURL, in.CoverURL,
		in.IsActive, in.IsFeatured, in.RequiresEmail, in.SectionID,
	))
	if err != nil {
		return nil, mapErr(err, "updating link", msgLinkNotFound, "")
	}
	return l, nil
}

func (r *linkRepo) Delete(ctx context.Context, userID, id string) error {
	return r.table.deleteCompact(ctx, r.pool, userID, id, nil)
}

func (r *linkRepo) Reorder(ctx context.Context, userID string, ids []string) error {
	return r.table.reorder(ctx, r.pool, userID, ids)
}

// IncrementClick bumps the counter of an active link.
func (r *linkRepo) IncrementClick(ctx context.Context, id string) error {
	var found bool
	if err := r.pool.QueryRow(ctx, `SELECT increment_click_count($1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("incrementing click count: %w", err)
	}
	if !found {
		return apperr.New(apperr.NotFound, msgLinkNotFound)
	}
	return nil
}
