// Package revalidate signals that views derived from a user's data are stale.
package revalidate

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Invalidator is told after every successful mutation of a user's page data.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Noop discards invalidations.
type Noop struct{}

func (Noop) Invalidate(context.Context, string) error { return nil }

// Multi fans an invalidation out to every member and joins their errors.
type Multi []Invalidator

func (m Multi) Invalidate(ctx context.Context, userID string) error {
	var errs []error
	for _, inv := range m {
		if err := inv.Invalidate(ctx, userID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Event is the payload broadcast to external renderers.
type Event struct {
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

func encodeEvent(userID string) ([]byte, error) {
	return json.Marshal(Event{UserID: userID, At: time.Now().UTC()})
}
