package repository

import (
	"context"
	"fmt"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const msgSubscriptionNotFound = "Subscription not found."

// SubscriptionRepository stores the mirror of the payment provider's subscription state.
type SubscriptionRepository interface {
	// Get returns nil, nil when the user has no subscription row.
	Get(ctx context.Context, userID string) (*model.Subscription, error)
	GetByCustomerID(ctx context.Context, customerID string) (*model.Subscription, error)
	SetCustomerID(ctx context.Context, userID, customerID string) error
	// Sync upserts sub and, when flags is non-nil, overwrites the user's flags
	// row in the same transaction.
	Sync(ctx context.Context, sub model.Subscription, flags *model.FeatureFlags) error
	// SetStatusByCustomer changes only the status column.
	SetStatusByCustomer(ctx context.Context, customerID, status string) error
}

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepo creates a new SubscriptionRepository.
func NewSubscriptionRepo(pool *pgxpool.Pool) SubscriptionRepository {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `user_id, stripe_customer_id, stripe_subscription_id, plan_type, status,
	current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.UserID,
		&s.StripeCustomerID,
		&s.StripeSubscriptionID,
		&s.PlanType,
		&s.Status,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.CancelAtPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepo) Get(ctx context.Context, userID string) (*model.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch subscription for user %s: %w", userID, err)
	}
	return s, nil
}

func (r *subscriptionRepo) GetByCustomerID(ctx context.Context, customerID string) (*model.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE stripe_customer_id = $1`, customerID))
	if err != nil {
		return nil, mapErr(err, "fetch subscription for customer "+customerID, msgSubscriptionNotFound, "")
	}
	return s, nil
}

func (r *subscriptionRepo) SetCustomerID(ctx context.Context, userID, customerID string) error {
	const q = `
		INSERT INTO subscriptions (user_id, stripe_customer_id, plan_type, status)
		VALUES ($1, $2, 'free', 'active')
		ON CONFLICT (user_id) DO UPDATE
		SET stripe_customer_id = EXCLUDED.stripe_customer_id,
			updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, q, userID, customerID); err != nil {
		return fmt.Errorf("storing customer id for user %s: %w", userID, err)
	}
	return nil
}

func (r *subscriptionRepo) Sync(ctx context.Context, sub model.Subscription, flags *model.FeatureFlags) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin subscription sync: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `
		INSERT INTO subscriptions (user_id, stripe_customer_id, stripe_subscription_id, plan_type, status,
			current_period_start, current_period_end, cancel_at_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, subscriptions.stripe_customer_id),
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			plan_type = EXCLUDED.plan_type,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			updated_at = NOW()
	`
	_, err = tx.Exec(ctx, q,
		sub.UserID,
		sub.StripeCustomerID,
		sub.StripeSubscriptionID,
		sub.PlanType,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription for user %s: %w", sub.UserID, err)
	}

	if flags != nil {
		if err := replaceFlags(ctx, tx, *flags); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit subscription sync: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) SetStatusByCustomer(ctx context.Context, customerID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET status = $2, updated_at = NOW()
		WHERE stripe_customer_id = $1
	`, customerID, status)
	if err != nil {
		return fmt.Errorf("set status for customer %s: %w", customerID, err)
	}
	return requireAffected(tag, msgSubscriptionNotFound)
}
