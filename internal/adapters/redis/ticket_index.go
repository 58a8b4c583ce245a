package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/casgate/casgate/internal/ports"
)

// TicketIndex tracks service-ticket state in Redis: a single-use mark set at
// exchange time and a ticket-to-session mapping consumed by single logout.
type TicketIndex struct {
	client redis.UniversalClient
}

func NewTicketIndex(client redis.UniversalClient) *TicketIndex {
	return &TicketIndex{client: client}
}

func usedKey(ticket string) string    { return "ticket:used:" + ticket }
func sessionKey(ticket string) string { return "ticket:session:" + ticket }

// MarkExchanged records the ticket as consumed. SETNX makes the first caller
// the only winner; a false return means the ticket was already exchanged.
func (t *TicketIndex) MarkExchanged(ctx context.Context, ticket string, ttl time.Duration) (bool, error) {
	if ticket == "" {
		return false, errors.New("ticket cannot be empty")
	}
	ok, err := t.client.SetNX(ctx, usedKey(ticket), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (t *TicketIndex) BindSession(ctx context.Context, ticket, sessionID string, ttl time.Duration) error {
	if ticket == "" || sessionID == "" {
		return errors.New("ticket and session id required")
	}
	return t.client.Set(ctx, sessionKey(ticket), sessionID, ttl).Err()
}

func (t *TicketIndex) SessionForTicket(ctx context.Context, ticket string) (string, error) {
	id, err := t.client.Get(ctx, sessionKey(ticket)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ports.ErrSessionNotFound
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return id, nil
}

func (t *TicketIndex) Unbind(ctx context.Context, ticket string) error {
	if ticket == "" {
		return nil
	}
	return t.client.Del(ctx, sessionKey(ticket)).Err()
}

var _ ports.TicketIndex = (*TicketIndex)(nil)
