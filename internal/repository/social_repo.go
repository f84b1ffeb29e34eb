package repository

import (
	"context"
	"fmt"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const msgSocialNotFound = "Social link not found."

type SocialLinkRepository interface {
	Create(ctx context.Context, profileID, platform, url string) (*model.SocialLink, error)
	List(ctx context.Context, profileID string) ([]model.SocialLink, error)
	// Update changes platform and url; nil leaves a field unchanged.
	Update(ctx context.Context, profileID, id string, platform, url *string) (*model.SocialLink, error)
	Delete(ctx context.Context, profileID, id string) error
	Reorder(ctx context.Context, profileID string, ids []string) error
}

type socialRepo struct {
	pool  *pgxpool.Pool
	table orderedTable
}

func NewSocialLinkRepo(pool *pgxpool.Pool) SocialLinkRepository {
	return &socialRepo{
		pool:  pool,
		table: orderedTable{name: "social_links", ownerCol: "profile_id", notFound: msgSocialNotFound},
	}
}

const socialColumns = `id, profile_id, platform, url, position, created_at`

func scanSocial(row pgx.Row) (*model.SocialLink, error) {
	var s model.SocialLink
	if err := row.Scan(&s.ID, &s.ProfileID, &s.Platform, &s.URL, &s.Position, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *socialRepo) Create(ctx context.Context, profileID, platform, url string) (*model.SocialLink, error) {
	s, err := scanSocial(r.pool.QueryRow(ctx, `
		INSERT INTO social_links (profile_id, platform, url, position)
		VALUES ($1, $2, $3, `+r.table.nextPosition()+`)
		RETURNING `+socialColumns,
		profileID, platform, url,
	))
	if err != nil {
		return nil, mapErr(err, "creating social link", msgSocialNotFound, "")
	}
	return s, nil
}

func (r *socialRepo) List(ctx context.Context, profileID string) ([]model.SocialLink, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+socialColumns+` FROM social_links WHERE profile_id = $1 ORDER BY position`, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying social links: %w", err)
	}
	links, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SocialLink, error) {
		s, err := scanSocial(row)
		if err != nil {
			return model.SocialLink{}, err
		}
		return *s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning social link rows: %w", err)
	}
	return links, nil
}

func (r *socialRepo) Update(ctx context.Context, profileID, id string, platform, url *string) (*model.SocialLink, error) {
	s, err := scanSocial(r.pool.QueryRow(ctx, `
		UPDATE social_links
		SET platform = COALESCE($3, platform), url = COALESCE($4, url)
		WHERE id = $1 AND profile_id = $2
		RETURNING `+socialColumns,
		id, profileID, platform, url,
	))
	if err != nil {
		return nil, mapErr(err, "updating social link", msgSocialNotFound, "")
	}
	return s, nil
}

func (r *socialRepo) Delete(ctx context.Context, profileID, id string) error {
	return r.table.deleteCompact(ctx, r.pool, profileID, id, nil)
}

func (r *socialRepo) Reorder(ctx context.Context, profileID string, ids []string) error {
	return r.table.reorder(ctx, r.pool, profileID, ids)
}
