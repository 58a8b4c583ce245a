package redis

// Package redis provides Redis-backed adapters for session and ticket state.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	"github.com/casgate/casgate/internal/ports"
)

// movedSuffix marks a rotated session id. The tombstone carries the successor
// id so a request racing the rotation can recover instead of being bounced to
// the login flow.
const movedSuffix = ":moved"

// movedTTL bounds how long a rotation tombstone stays around. Anything still
// holding the old id after this window re-authenticates.
const movedTTL = time.Minute

// SessionStore is a Redis-based session store. TTL semantics follow the
// session's ExpiresAt; rotation is atomic per pre-rotation id.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: "session:",
	}
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
	}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	return s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, s.missing(ctx, id)
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	// Redis TTL should have evicted this already, but double-check.
	if time.Now().After(sess.ExpiresAt) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ports.ErrSessionNotFound
	}

	return sess, nil
}

// missing distinguishes a rotated id from a genuinely unknown one.
func (s *SessionStore) missing(ctx context.Context, id string) error {
	next, err := s.client.Get(ctx, s.prefix+id+movedSuffix).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.ErrSessionNotFound
		}
		return fmt.Errorf("redis get tombstone: %w", err)
	}
	return &ports.RotatedError{NewID: next}
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// Rotate saves next and invalidates the session identified by oldID. GETDEL
// on the old key decides the single winner of concurrent rotations; only the
// winner plants the tombstone, so every racing reader converges on one
// successor id.
func (s *SessionStore) Rotate(ctx context.Context, oldID string, next domainauth.Session) error {
	if err := s.Save(ctx, next); err != nil {
		return err
	}
	if oldID == "" || oldID == next.ID {
		return nil
	}

	_, err := s.client.GetDel(ctx, s.prefix+oldID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Lost the race (or the old session was already gone). The
			// winner's tombstone stands; our orphaned session ages out via TTL.
			return nil
		}
		return fmt.Errorf("redis getdel: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+oldID+movedSuffix, next.ID, movedTTL).Err(); err != nil {
		return fmt.Errorf("redis set tombstone: %w", err)
	}
	return nil
}

var _ ports.SessionStore = (*SessionStore)(nil)
