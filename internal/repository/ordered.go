package repository

import (
	"context"
	"fmt"

	"biolink/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// orderedTable is an owner-scoped table whose rows carry a dense zero-based position.
type orderedTable struct {
	name     string
	ownerCol string
	notFound string
}

// nextPosition is the SQL fragment yielding max(position)+1, or 0, for owner $1.
func (t orderedTable) nextPosition() string {
	return fmt.Sprintf(`(SELECT COALESCE(MAX(position) + 1, 0) FROM %s WHERE %s = $1)`, t.name, t.ownerCol)
}

// deleteCompact removes one owned row and shifts the rows after it down by one.
func (t orderedTable) deleteCompact(ctx context.Context, pool *pgxpool.Pool, ownerID, id string, before func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete from %s: %w", t.name, err)
	}
	defer tx.Rollback(ctx)

	if before != nil {
		if err := before(ctx, tx); err != nil {
			return err
		}
	}

	var pos int
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND %s = $2 RETURNING position`, t.name, t.ownerCol)
	if err := tx.QueryRow(ctx, q, id, ownerID).Scan(&pos); err != nil {
		return mapErr(err, "deleting from "+t.name, t.notFound, "")
	}

	q = fmt.Sprintf(`UPDATE %s SET position = position - 1 WHERE %s = $1 AND position > $2`, t.name, t.ownerCol)
	if _, err := tx.Exec(ctx, q, ownerID, pos); err != nil {
		return fmt.Errorf("compacting %s positions: %w", t.name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete from %s: %w", t.name, err)
	}
	return nil
}

// reorder assigns position i to ids[i]. ids must be exactly the owner's rows.
// Updates run concurrently without a transaction and every one runs to
// completion; a failure is reported after all have settled and the rows
// already updated stay in place.
func (t orderedTable) reorder(ctx context.Context, pool *pgxpool.Pool, ownerID string, ids []string) error {
	q := fmt.Sprintf(`SELECT id FROM %s WHERE %s = $1`, t.name, t.ownerCol)
	rows, err := pool.Query(ctx, q, ownerID)
	if err != nil {
		return fmt.Errorf("listing %s ids: %w", t.name, err)
	}
	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("scanning %s ids: %w", t.name, err)
	}
	if err := checkOrder(existing, ids); err != nil {
		return err
	}

	update := fmt.Sprintf(`UPDATE %s SET position = $1 WHERE id = $2 AND %s = $3`, t.name, t.ownerCol)
	return applyOrder(ids, func(i int, id string) error {
		tag, err := pool.Exec(ctx, update, i, id, ownerID)
		if err != nil {
			return fmt.Errorf("updating %s position: %w", t.name, err)
		}
		return requireAffected(tag, t.notFound)
	})
}

// applyOrder runs set for every id concurrently and returns the first error
// once all of them have returned. A failure never cancels the others.
func applyOrder(ids []string, set func(i int, id string) error) error {
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error { return set(i, id) })
	}
	return g.Wait()
}

// checkOrder reports whether ids is a permutation of existing.
func checkOrder(existing, ids []string) error {
	invalid := apperr.New(apperr.ValidationFailed, "The new order must list every item exactly once.")
	if len(existing) != len(ids) {
		return invalid
	}
	owned := make(map[string]bool, len(existing))
	for _, id := range existing {
		owned[id] = false
	}
	for _, id := range ids {
		seen, ok := owned[id]
		if !ok || seen {
			return invalid
		}
		owned[id] = true
	}
	return nil
}
