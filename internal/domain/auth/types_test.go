package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrincipalHasRole(t *testing.T) {
	p := Principal{ExternalID: "alice", Roles: []Role{RoleUser, RoleAdmin}}
	assert.True(t, p.HasRole(RoleUser))
	assert.True(t, p.HasRole(RoleAdmin))

	p = Principal{ExternalID: "bob", Roles: []Role{RoleUser}}
	assert.False(t, p.HasRole(RoleAdmin))

	assert.False(t, Principal{}.HasRole(RoleUser))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(2*time.Hour)))
	assert.False(t, s.Expired(s.ExpiresAt))
}
