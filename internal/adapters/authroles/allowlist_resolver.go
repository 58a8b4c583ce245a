// Package authroles maps validated assertions to internal principals.
package authroles

import (
	"strings"

	domainauth "github.com/casgate/casgate/internal/domain/auth"
	apperrors "github.com/casgate/casgate/internal/errors"
	"github.com/casgate/casgate/internal/ports"
)

// builtinAdmin is always an administrator, independent of configuration.
const builtinAdmin = "admin"

// AllowListResolver grants every authenticated user the base role and adds
// admin for usernames on the configured allow-list. Matching is
// case-insensitive on the external id.
type AllowListResolver struct {
	admins map[string]struct{}
}

// NewAllowListResolver builds a resolver from the configured admin usernames.
func NewAllowListResolver(adminUsers []string) *AllowListResolver {
	admins := map[string]struct{}{builtinAdmin: {}}
	for _, u := range adminUsers {
		u = strings.ToLower(strings.TrimSpace(u))
		if u != "" {
			admins[u] = struct{}{}
		}
	}
	return &AllowListResolver{admins: admins}
}

func (r *AllowListResolver) Resolve(assertion domainauth.Assertion) (domainauth.Principal, error) {
	user := strings.TrimSpace(assertion.User)
	if user == "" {
		return domainauth.Principal{}, apperrors.AssertionMalformed("assertion carries no user")
	}

	display := assertion.Attributes["displayName"]
	if display == "" {
		display = user
	}

	roles := []domainauth.Role{domainauth.RoleUser}
	if _, ok := r.admins[strings.ToLower(user)]; ok {
		roles = append(roles, domainauth.RoleAdmin)
	}

	return domainauth.Principal{
		ExternalID:  user,
		DisplayName: display,
		Roles:       roles,
	}, nil
}

var _ ports.PrincipalResolver = (*AllowListResolver)(nil)
