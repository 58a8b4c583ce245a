package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
)

func TestSessionContextRoundTrip(t *testing.T) {
	session := &domainauth.Session{ID: "s1"}
	ctx := SetSessionInContext(context.Background(), session)

	got, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "s1", got.ID)
}

func TestSessionContextAbsent(t *testing.T) {
	_, ok := GetUserSessionFromContext(context.Background())
	assert.False(t, ok)
}

func TestSetSessionInContextNil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, SetSessionInContext(ctx, nil))
}
