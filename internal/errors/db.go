package errors

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError converts driver-level Postgres errors into the application
// taxonomy. Constraint violations indicate a bug in our write paths, so they
// map to internal; connection-class failures map to upstream_unavailable so
// callers can treat the audit store like any other flaky dependency.
func MapDBError(err error) *AppError {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code):
			return Wrap(err, ErrCodeUpstreamUnavailable, "database unavailable")
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return Wrap(err, ErrCodeInternal, "constraint violation")
		}
	}
	return Wrap(err, ErrCodeInternal, "database error")
}
