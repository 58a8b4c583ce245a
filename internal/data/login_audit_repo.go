// Package data contains Postgres-backed repositories.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/casgate/casgate/internal/data/pgxutil"
	apperrors "github.com/casgate/casgate/internal/errors"
	"github.com/casgate/casgate/internal/ports"
)

// LoginAuditRepo persists authentication lifecycle events.
type LoginAuditRepo struct {
	DB *sql.DB
}

// NewLoginAuditRepo creates a new login audit repository.
func NewLoginAuditRepo(db *sql.DB) *LoginAuditRepo {
	return &LoginAuditRepo{DB: db}
}

// Record inserts one audit entry. Callers treat failures as non-fatal.
func (r *LoginAuditRepo) Record(ctx context.Context, entry ports.AuditEntry) error {
	if entry.Event == "" {
		return errors.New("audit event is required")
	}
	occurredAt := entry.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO login_audit (user_id, event, remote_addr, occurred_at)
			VALUES ($1, $2, $3, $4)`,
			entry.UserID, string(entry.Event), entry.RemoteAddr, occurredAt)
		return execErr
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// RecentForUser returns the most recent entries for a user, newest first.
func (r *LoginAuditRepo) RecentForUser(ctx context.Context, userID string, limit int) ([]ports.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT user_id, event, remote_addr, occurred_at
		FROM login_audit
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	var entries []ports.AuditEntry
	for rows.Next() {
		var e ports.AuditEntry
		var event string
		if scanErr := rows.Scan(&e.UserID, &event, &e.RemoteAddr, &e.OccurredAt); scanErr != nil {
			return nil, fmt.Errorf("scan audit entry: %w", scanErr)
		}
		e.Event = ports.AuditEvent(event)
		entries = append(entries, e)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapDBError(rowsErr)
	}
	return entries, nil
}

var _ ports.AuditLog = (*LoginAuditRepo)(nil)
