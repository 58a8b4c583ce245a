// Package token mints the signed bearer tokens injected toward backends.
package token

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	"github.com/casgate/casgate/internal/ports"
)

// Claims is the payload backends verify. Roles travel as plain strings so
// consumers need no shared type.
type Claims struct {
	jwt.Claims
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// Issuer signs short-lived HS256 tokens over a shared secret.
type Issuer struct {
	signer jose.Signer
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. key is the HMAC secret shared with backends.
func NewIssuer(key []byte, issuer string, ttl time.Duration) (*Issuer, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	return &Issuer{
		signer: signer,
		key:    key,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a fresh token for the principal. Tokens are minted per request;
// their lifetime only needs to cover one backend hop.
func (i *Issuer) Issue(principal domainauth.Principal) (string, error) {
	now := i.now()
	roles := make([]string, len(principal.Roles))
	for n, r := range principal.Roles {
		roles[n] = string(r)
	}

	claims := Claims{
		Claims: jwt.Claims{
			Issuer:   i.issuer,
			Subject:  principal.ExternalID,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name:  principal.DisplayName,
		Roles: roles,
	}

	signed, err := jwt.Signed(i.signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and checks a token the way a backend would. Used by tests and
// by operators debugging token handoff.
func (i *Issuer) Verify(raw string) (Claims, error) {
	parsed, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	var claims Claims
	if err := parsed.Claims(i.key, &claims); err != nil {
		return Claims{}, fmt.Errorf("verify signature: %w", err)
	}

	if err := claims.Validate(jwt.Expected{
		Issuer: i.issuer,
		Time:   i.now(),
	}); err != nil {
		return Claims{}, fmt.Errorf("validate claims: %w", err)
	}
	return claims, nil
}

var _ ports.TokenIssuer = (*Issuer)(nil)
