package repository

import (
	"context"
	"fmt"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	msgProfileNotFound = "Profile not found."
	MsgUsernameTaken   = "That username is already taken."
)

// ProfileUpdate holds the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	Username    *string
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

type ProfileRepository interface {
	// Onboard creates the profile together with its default settings, flags and subscription rows.
	Onboard(ctx context.Context, p model.Profile, settings model.PageSettings, flags model.FeatureFlags, planType string) (*model.Profile, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	GetByVerifiedDomain(ctx context.Context, domain string) (*model.Profile, error)
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)
	Update(ctx context.Context, id string, in ProfileUpdate) (*model.Profile, error)
	Delete(ctx context.Context, id string) error
}

type profileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) ProfileRepository {
	return &profileRepo{pool: pool}
}

const profileColumns = `id, username, display_name, bio, avatar_url, created_at, updated_at`

func scanProfile(row pgx.Row) (*model.Profile, error) {
	var p model.Profile
	if err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) Onboard(ctx context.Context, p model.Profile, settings model.PageSettings, flags model.FeatureFlags, planType string) (*model.Profile, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin onboarding: %w", err)
	}
	defer tx.Rollback(ctx)

	created, err := scanProfile(tx.QueryRow(ctx, `
		INSERT INTO profiles (id, username, display_name, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+profileColumns,
		p.ID, p.Username, p.DisplayName, p.Bio, p.AvatarURL,
	))
	if err != nil {
		return nil, mapErr(err, "creating profile", msgProfileNotFound, MsgUsernameTaken)
	}

	if _, err := upsertSettings(ctx, tx, settings); err != nil {
		return nil, err
	}
	if err := replaceFlags(ctx, tx, flags); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO subscriptions (user_id, plan_type, status)
		VALUES ($1, $2, 'active')
		ON CONFLICT (user_id) DO NOTHING
	`, p.ID, planType); err != nil {
		return nil, fmt.Errorf("creating subscription row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit onboarding: %w", err)
	}
	return created, nil
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr(err, "getting profile", msgProfileNotFound, "")
	}
	return p, nil
}

// GetByUsername matches usernames case-insensitively.
func (r *profileRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(username) = lower($1)`, username))
	if err != nil {
		return nil, mapErr(err, "getting profile by username", msgProfileNotFound, "")
	}
	return p, nil
}

func (r *profileRepo) GetByVerifiedDomain(ctx context.Context, domain string) (*model.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `
		SELECT p.id, p.username, p.display_name, p.bio, p.avatar_url, p.created_at, p.updated_at
		FROM profiles p
		JOIN custom_domains d ON d.user_id = p.id
		WHERE lower(d.domain) = lower($1) AND d.is_verified
	`, domain))
	if err != nil {
		return nil, mapErr(err, "getting profile by domain", msgProfileNotFound, "")
	}
	return p, nil
}

func (r *profileRepo) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM profiles WHERE lower(username) = lower($1) AND id::text <> $2
		)
	`, username, exceptID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking username: %w", err)
	}
	return exists, nil
}

func (r *profileRepo) Update(ctx context.Context, id string, in ProfileUpdate) (*model.Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `
		UPDATE profiles
		SET username = COALESCE($2, username),
			display_name = COALESCE($3, display_name),
			bio = COALESCE($4, bio),
			avatar_url = COALESCE($5, avatar_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns,
		id, in.Username, in.DisplayName, in.Bio, in.AvatarURL,
	))
	if err != nil {
		return nil, mapErr(err, "updating profile", msgProfileNotFound, MsgUsernameTaken)
	}
	return p, nil
}

// Delete removes the profile. Every owned row cascades.
func (r *profileRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return requireAffected(tag, msgProfileNotFound)
}

