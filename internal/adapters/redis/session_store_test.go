package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	"github.com/casgate/casgate/internal/ports"
	"github.com/casgate/casgate/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSession(id string) domainauth.Session {
	now := time.Now()
	return domainauth.Session{
		ID: id,
		Principal: domainauth.Principal{
			ExternalID:  "alice",
			DisplayName: "alice",
			Roles:       []domainauth.Role{domainauth.RoleUser},
		},
		CSRFToken:      "csrf-" + id,
		TicketID:       "ST-" + id,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      now.Add(30 * time.Minute),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("test-session-1")
	require.NoError(t, store.Save(ctx, session))

	retrieved, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, retrieved.ID)
	assert.Equal(t, session.Principal, retrieved.Principal)
	assert.Equal(t, session.CSRFToken, retrieved.CSRFToken)
	assert.Equal(t, session.TicketID, retrieved.TicketID)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "non-existent")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("test-session-delete")))

	_, err := store.Get(ctx, "test-session-delete")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "test-session-delete"))

	_, err = store.Get(ctx, "test-session-delete")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("test-session-ttl")
	session.ExpiresAt = time.Now().Add(100 * time.Millisecond)
	require.NoError(t, store.Save(ctx, session))

	time.Sleep(200 * time.Millisecond)

	_, err := store.Get(ctx, "test-session-ttl")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_SaveEmptyID(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	session := testSession("")
	err := store.Save(context.Background(), session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID cannot be empty")
}

func TestSessionStore_SaveExpiredSession(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)

	session := testSession("expired-session")
	session.ExpiresAt = time.Now().Add(-time.Hour)
	err := store.Save(context.Background(), session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session is expired")
}

func TestSessionStore_Rotate(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	old := testSession("rotate-old")
	require.NoError(t, store.Save(ctx, old))

	next := testSession("rotate-new")
	require.NoError(t, store.Rotate(ctx, "rotate-old", next))

	// The new session is live.
	got, err := store.Get(ctx, "rotate-new")
	require.NoError(t, err)
	assert.Equal(t, "rotate-new", got.ID)

	// The old id is gone, and its tombstone names the successor.
	_, err = store.Get(ctx, "rotate-old")
	var rotated *ports.RotatedError
	require.True(t, errors.As(err, &rotated))
	assert.Equal(t, "rotate-new", rotated.NewID)
}

func TestSessionStore_RotateWithoutPriorSession(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	// First login: no presented session id.
	require.NoError(t, store.Rotate(ctx, "", testSession("fresh")))
	_, err := store.Get(ctx, "fresh")
	require.NoError(t, err)

	// Rotating an unknown id saves the new session and leaves no tombstone.
	require.NoError(t, store.Rotate(ctx, "never-existed", testSession("fresh-2")))
	_, err = store.Get(ctx, "never-existed")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}

func TestSessionStore_ConcurrentRotationSingleWinner(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("contested")))

	// Two rotations of the same pre-rotation id. Whichever GETDELs the value
	// first plants the tombstone; the second must not overwrite it.
	require.NoError(t, store.Rotate(ctx, "contested", testSession("winner")))
	require.NoError(t, store.Rotate(ctx, "contested", testSession("loser")))

	_, err := store.Get(ctx, "contested")
	var rotated *ports.RotatedError
	require.True(t, errors.As(err, &rotated))
	assert.Equal(t, "winner", rotated.NewID)
}

func TestTicketIndex_MarkExchanged(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	idx := NewTicketIndex(client)
	ctx := context.Background()

	ok, err := idx.MarkExchanged(ctx, "ST-123", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Replay.
	ok, err = idx.MarkExchanged(ctx, "ST-123", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTicketIndex_BindAndLookup(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	idx := NewTicketIndex(client)
	ctx := context.Background()

	require.NoError(t, idx.BindSession(ctx, "ST-456", "sess-1", time.Minute))

	id, err := idx.SessionForTicket(ctx, "ST-456")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", id)

	require.NoError(t, idx.Unbind(ctx, "ST-456"))

	_, err = idx.SessionForTicket(ctx, "ST-456")
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}
