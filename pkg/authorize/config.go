package authorize

import (
	"fmt"

	"github.com/Alijeyrad/spa_backend/config"
)

// FromCentralConfig builds the policy from config.AuthorizationConfig. Roles
// missing from the config fall back to DefaultRolePermissions.
func FromCentralConfig(c config.AuthorizationConfig) (*Policy, error) {
	roles := map[Role][]Permission{}
	for r, perms := range DefaultRolePermissions {
		roles[r] = perms
	}
	for name, perms := range c.Roles {
		roles[Role(name)] = toPermissions(perms)
	}

	overrides := map[string]StaffOverride{}
	for staffID, o := range c.Overrides {
		overrides[staffID] = StaffOverride{
			Added:   toPermissions(o.Added),
			Removed: toPermissions(o.Removed),
		}
	}

	p, err := NewPolicy(roles, overrides)
	if err != nil {
		return nil, fmt.Errorf("authorization config: %w", err)
	}
	return p, nil
}

func toPermissions(in []string) []Permission {
	out := make([]Permission, len(in))
	for i, s := range in {
		out[i] = Permission(s)
	}
	return out
}
