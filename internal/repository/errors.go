package repository

import (
	"errors"
	"fmt"

	"biolink/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// mapErr translates driver errors into apperr kinds. notFound and conflict are
// the user-facing messages for missing rows and unique violations.
func mapErr(err error, action, notFound, conflict string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.Wrap(apperr.NotFound, notFound, err)
	case conflict != "" && isUniqueViolation(err):
		return apperr.Wrap(apperr.Conflict, conflict, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

// requireAffected reports NotFound when an owner-scoped statement touched nothing.
func requireAffected(tag pgconn.CommandTag, notFound string) error {
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, notFound)
	}
	return nil
}

// IsNoRows reports whether err came from a query that matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
