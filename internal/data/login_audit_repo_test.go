package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casgate/casgate/internal/ports"
	"github.com/casgate/casgate/internal/testutil"
)

func TestLoginAuditRepo_RecordAndList(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewLoginAuditRepo(db)
		ctx := context.Background()

		base := time.Now().Add(-time.Hour).Truncate(time.Second)
		for i, event := range []ports.AuditEvent{ports.AuditLogin, ports.AuditLogout} {
			err := repo.Record(ctx, ports.AuditEntry{
				UserID:     "alice",
				Event:      event,
				RemoteAddr: "203.0.113.9",
				OccurredAt: base.Add(time.Duration(i) * time.Minute),
			})
			require.NoError(t, err)
		}
		require.NoError(t, repo.Record(ctx, ports.AuditEntry{
			UserID: "bob",
			Event:  ports.AuditLogin,
		}))

		entries, err := repo.RecentForUser(ctx, "alice", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		// Newest first.
		assert.Equal(t, ports.AuditLogout, entries[0].Event)
		assert.Equal(t, ports.AuditLogin, entries[1].Event)
		assert.Equal(t, "203.0.113.9", entries[0].RemoteAddr)
	})
}

func TestLoginAuditRepo_RecordRequiresEvent(t *testing.T) {
	repo := NewLoginAuditRepo(nil)
	err := repo.Record(context.Background(), ports.AuditEntry{UserID: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event is required")
}

func TestLoginAuditRepo_RejectsUnknownEvent(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewLoginAuditRepo(db)
		err := repo.Record(context.Background(), ports.AuditEntry{
			UserID: "alice",
			Event:  ports.AuditEvent("bogus"),
		})
		require.Error(t, err)
	})
}
