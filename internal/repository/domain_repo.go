package repository

import (
	"context"
	"fmt"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	msgDomainNotFound = "Domain not found."
	MsgDomainTaken    = "Domain is already taken."
)

type DomainRepository interface {
	Create(ctx context.Context, userID, domain, token string) (*model.CustomDomain, error)
	Get(ctx context.Context, userID, id string) (*model.CustomDomain, error)
	List(ctx context.Context, userID string) ([]model.CustomDomain, error)
	MarkVerified(ctx context.Context, userID, id string) (*model.CustomDomain, error)
	Delete(ctx context.Context, userID, id string) error
}

type domainRepo struct {
	pool *pgxpool.Pool
}

func NewDomainRepo(pool *pgxpool.Pool) DomainRepository {
	return &domainRepo{pool: pool}
}

const domainColumns = `id, user_id, domain, verification_token, is_verified, created_at`

func scanDomain(row pgx.Row) (*model.CustomDomain, error) {
	var d model.CustomDomain
	if err := row.Scan(&d.ID, &d.UserID, &d.Domain, &d.VerificationToken, &d.IsVerified, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *domainRepo) Create(ctx context.Context, userID, domain, token string) (*model.CustomDomain, error) {
	d, err := scanDomain(r.pool.QueryRow(ctx, `
		INSERT INTO custom_domains (user_id, domain, verification_token)
		VALUES ($1, $2, $3)
		RETURNING `+domainColumns,
		userID, domain, token,
	))
	if err != nil {
		return nil, mapErr(err, "creating domain", msgDomainNotFound, MsgDomainTaken)
	}
	return d, nil
}

func (r *domainRepo) Get(ctx context.Context, userID, id string) (*model.CustomDomain, error) {
	d, err := scanDomain(r.pool.QueryRow(ctx, `SELECT `+domainColumns+` FROM custom_domains WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, mapErr(err, "getting domain", msgDomainNotFound, "")
	}
	return d, nil
}

func (r *domainRepo) List(ctx context.Context, userID string) ([]model.CustomDomain, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+domainColumns+` FROM custom_domains WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying domains: %w", err)
	}
	domains, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CustomDomain, error) {
		d, err := scanDomain(row)
		if err != nil {
			return model.CustomDomain{}, err
		}
		return *d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning domain rows: %w", err)
	}
	return domains, nil
}

func (r *domainRepo) MarkVerified(ctx context.Context, userID, id string) (*model.CustomDomain, error) {
	d, err := scanDomain(r.pool.QueryRow(ctx, `
		UPDATE custom_domains SET is_verified = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING `+domainColumns,
		id, userID,
	))
	if err != nil {
		return nil, mapErr(err, "verifying domain", msgDomainNotFound, "")
	}
	return d, nil
}

func (r *domainRepo) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM custom_domains WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting domain: %w", err)
	}
	return requireAffected(tag, msgDomainNotFound)
}
