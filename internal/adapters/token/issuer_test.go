package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func testPrincipal() domainauth.Principal {
	return domainauth.Principal{
		ExternalID:  "alice",
		DisplayName: "Alice Example",
		Roles:       []domainauth.Role{domainauth.RoleUser, domainauth.RoleAdmin},
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer(testKey, "casgate", 2*time.Minute)
	require.NoError(t, err)

	raw, err := issuer.Issue(testPrincipal())
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "Alice Example", claims.Name)
	assert.Equal(t, []string{"user", "admin"}, claims.Roles)
	assert.Equal(t, "casgate", claims.Issuer)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	issuer, err := NewIssuer(testKey, "casgate", 2*time.Minute)
	require.NoError(t, err)
	other, err := NewIssuer([]byte("ffffffffffffffffffffffffffffffff"), "casgate", 2*time.Minute)
	require.NoError(t, err)

	raw, err := issuer.Issue(testPrincipal())
	require.NoError(t, err)

	_, err = other.Verify(raw)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer, err := NewIssuer(testKey, "casgate", 2*time.Minute)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	issuer.now = func() time.Time { return past }
	raw, err := issuer.Issue(testPrincipal())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(raw)
	assert.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	minter, err := NewIssuer(testKey, "someone-else", 2*time.Minute)
	require.NoError(t, err)
	verifier, err := NewIssuer(testKey, "casgate", 2*time.Minute)
	require.NoError(t, err)

	raw, err := minter.Issue(testPrincipal())
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	assert.Error(t, err)
}
