package repository

import (
	"context"
	"fmt"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	msgSubscriberNotFound = "Subscriber not found."
	MsgAlreadySubscribed  = "You are already subscribed."
)

type SubscriberRepository interface {
	// Create fails with Conflict when email is already subscribed to the profile.
	Create(ctx context.Context, profileID, email, name string) (*model.Subscriber, error)
	// CreateIgnoringDuplicate succeeds silently when the email is already present.
	CreateIgnoringDuplicate(ctx context.Context, profileID, email, name string) error
	List(ctx context.Context, profileID string) ([]model.Subscriber, error)
	Delete(ctx context.Context, profileID, id string) error
}

type subscriberRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriberRepo(pool *pgxpool.Pool) SubscriberRepository {
	return &subscriberRepo{pool: pool}
}

const subscriberColumns = `id, profile_id, email, name, created_at`

func scanSubscriber(row pgx.Row) (*model.Subscriber, error) {
	var s model.Subscriber
	if err := row.Scan(&s.ID, &s.ProfileID, &s.Email, &s.Name, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriberRepo) Create(ctx context.Context, profileID, email, name string) (*model.Subscriber, error) {
	s, err := scanSubscriber(r.pool.QueryRow(ctx, `
		INSERT INTO subscribers (profile_id, email, name)
		VALUES ($1, $2, $3)
		RETURNING `+subscriberColumns,
		profileID, email, name,
	))
	if err != nil {
		return nil, mapErr(err, "creating subscriber", msgSubscriberNotFound, MsgAlreadySubscribed)
	}
	return s, nil
}

func (r *subscriberRepo) CreateIgnoringDuplicate(ctx context.Context, profileID, email, name string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscribers (profile_id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (profile_id, lower(email)) DO NOTHING
	`, profileID, email, name)
	if err != nil {
		return fmt.Errorf("capturing lead for profile %s: %w", profileID, err)
	}
	return nil
}

func (r *subscriberRepo) List(ctx context.Context, profileID string) ([]model.Subscriber, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE profile_id = $1 ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Subscriber, error) {
		s, err := scanSubscriber(row)
		if err != nil {
			return model.Subscriber{}, err
		}
		return *s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning subscriber rows: %w", err)
	}
	return subs, nil
}

func (r *subscriberRepo) Delete(ctx context.Context, profileID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscribers WHERE id = $1 AND profile_id = $2`, id, profileID)
	if err != nil {
		return fmt.Errorf("deleting subscriber: %w", err)
	}
	return requireAffected(tag, msgSubscriberNotFound)
}
