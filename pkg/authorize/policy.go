package authorize

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrUnknownRole       = errors.New("unknown role")
	ErrInvalidPermission = errors.New("invalid permission")
)

// Authorizer is the only thing handlers and middleware should depend on.
type Authorizer interface {
	// Permissions resolves the effective permissions of a staff member.
	Permissions(staffID string, role Role) (Set, error)

	// Enforce returns ErrForbidden unless the staff member holds perm.
	Enforce(staffID string, role Role, perm Permission) error
}

// StaffOverride is a sparse change to one staff member's role permissions.
type StaffOverride struct {
	Added   []Permission
	Removed []Permission
}

// policyModel grants a request when the caller's role or the caller
// themselves holds an allow rule and no deny rule of the staff member
// matches. Removed permissions are stored as deny rules.
const policyModel = `
[request_definition]
r = role, staff, obj, act

[policy_definition]
p = sub, obj, act, eft

[policy_effect]
e = some(where (p.eft == allow)) && !some(where (p.eft == deny))

[matchers]
m = (p.sub == r.role || p.sub == r.staff) && keyMatch(r.obj, p.obj) && keyMatch(r.act, p.act)
`

const (
	effectAllow = "allow"
	effectDeny  = "deny"
)

func roleSubject(r Role) string     { return "role:" + string(r) }
func staffSubject(id string) string { return "staff:" + id }

// Policy enforces role bases plus per-staff overrides through an in-memory
// casbin enforcer. It is not modified after construction.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
	roles    map[Role]struct{}
}

var _ Authorizer = (*Policy)(nil)

// NewPolicy validates every permission up front so typos fail at start-up
// instead of silently denying.
func NewPolicy(roles map[Role][]Permission, overrides map[string]StaffOverride) (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	p := &Policy{enforcer: e, roles: map[Role]struct{}{}}

	for role, perms := range roles {
		if err := validate(perms); err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
		p.roles[role] = struct{}{}
		if err := p.addRules(roleSubject(role), NewSet(perms...), effectAllow); err != nil {
			return nil, fmt.Errorf("role %s: %w", role, err)
		}
	}
	for staffID, o := range overrides {
		if err := validate(o.Added); err != nil {
			return nil, fmt.Errorf("staff %s: %w", staffID, err)
		}
		if err := validate(o.Removed); err != nil {
			return nil, fmt.Errorf("staff %s: %w", staffID, err)
		}
		ov := Overrides{Added: NewSet(o.Added...), Removed: NewSet(o.Removed...)}
		if err := p.addRules(staffSubject(staffID), ov.Resolve(), effectAllow); err != nil {
			return nil, fmt.Errorf("staff %s: %w", staffID, err)
		}
		if err := p.addRules(staffSubject(staffID), ov.Removed, effectDeny); err != nil {
			return nil, fmt.Errorf("staff %s: %w", staffID, err)
		}
	}
	return p, nil
}

func (p *Policy) addRules(subject string, perms Set, effect string) error {
	for _, perm := range perms.Sorted() {
		res, act, _ := perm.Split()
		if _, err := p.enforcer.AddPolicy(subject, string(res), string(act), effect); err != nil {
			return fmt.Errorf("add %s rule %s: %w", effect, perm, err)
		}
	}
	return nil
}

func validate(perms []Permission) error {
	for _, perm := range perms {
		if !perm.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidPermission, perm)
		}
	}
	return nil
}

// Permissions lists every concrete resource:action the staff member is
// granted.
func (p *Policy) Permissions(staffID string, role Role) (Set, error) {
	if _, ok := p.roles[role]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	out := Set{}
	for _, res := range slices.Sorted(maps.Keys(KnownResources)) {
		for _, act := range slices.Sorted(maps.Keys(KnownActions)) {
			perm := NewPermission(res, act)
			ok, err := p.allowed(staffID, role, res, act)
			if err != nil {
				return nil, err
			}
			if ok {
				out[perm] = struct{}{}
			}
		}
	}
	return out, nil
}

func (p *Policy) Enforce(staffID string, role Role, perm Permission) error {
	if _, ok := p.roles[role]; !ok {
		return fmt.Errorf("%w: %w: %q", ErrForbidden, ErrUnknownRole, role)
	}
	res, act, ok := perm.Split()
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrForbidden, ErrInvalidPermission, perm)
	}
	allowed, err := p.allowed(staffID, role, res, act)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s lacks %s", ErrForbidden, role, perm)
	}
	return nil
}

func (p *Policy) allowed(staffID string, role Role, res Resource, act Action) (bool, error) {
	ok, err := p.enforcer.Enforce(roleSubject(role), staffSubject(staffID), string(res), string(act))
	if err != nil {
		return false, fmt.Errorf("enforce %s:%s: %w", res, act, err)
	}
	return ok, nil
}
