package authorize

import (
	"fmt"
	"strings"
)

type Action string
type Resource string
type Role string

// Permission is a "resource:action" pair, e.g. "appointment:create".
// "resource:*" grants every action on a resource and "*" grants everything.
type Permission string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Lifecycle actions
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionCancel: {}, ActionComplete: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	// Catalog
	ResourceProduct Resource = "product"
	ResourceStock   Resource = "stock"

	// Sales
	ResourceCustomer Resource = "customer"
	ResourceOrder    Resource = "order"
	ResourcePackage  Resource = "treatment_package"

	// Scheduling
	ResourceAppointment  Resource = "appointment"
	ResourceAvailability Resource = "availability"

	// Communication
	ResourceNotification Resource = "notification"

	// System / platform admin
	ResourceSystem Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceProduct: {}, ResourceStock: {},
	ResourceCustomer: {}, ResourceOrder: {}, ResourcePackage: {},
	ResourceAppointment: {}, ResourceAvailability: {},
	ResourceNotification: {},
	ResourceSystem: {},
}

// ----------------------------
// Roles
// ----------------------------

const (
	RoleOwner        Role = "owner"
	RoleManager      Role = "manager"
	RoleReceptionist Role = "receptionist"
	RoleTechnician   Role = "technician"
)

var KnownRoles = map[Role]struct{}{
	RoleOwner:        {},
	RoleManager:      {},
	RoleReceptionist: {},
	RoleTechnician:   {},
}

// Display names
var RoleDisplayNames = map[Role]string{
	RoleOwner:        "Owner",
	RoleManager:      "Manager",
	RoleReceptionist: "Receptionist",
	RoleTechnician:   "Technician",
}

// DefaultRolePermissions is the base permission set of each role when the
// configuration does not define one.
var DefaultRolePermissions = map[Role][]Permission{
	RoleOwner: {"*"},
	RoleManager: {
		"product:*", "stock:*", "customer:*", "order:*", "treatment_package:*",
		"appointment:*", "availability:*", "notification:*",
	},
	RoleReceptionist: {
		"product:read", "product:list",
		"customer:*", "order:create", "order:read", "order:list",
		"treatment_package:read", "treatment_package:list",
		"appointment:create", "appointment:read", "appointment:list", "appointment:update", "appointment:cancel",
		"availability:read", "notification:*",
	},
	RoleTechnician: {
		"appointment:read", "appointment:list", "appointment:complete",
		"treatment_package:read", "availability:read", "notification:*",
	},
}

// ----------------------------
// Permission helpers
// ----------------------------

// NewPermission builds a permission from its parts.
func NewPermission(r Resource, a Action) Permission {
	return Permission(fmt.Sprintf("%s:%s", r, a))
}

// Split returns the resource and action of p. The bare wildcard "*" splits
// into two wildcards.
func (p Permission) Split() (Resource, Action, bool) {
	if p == "*" {
		return WildcardResource, WildcardAction, true
	}
	r, a, ok := strings.Cut(string(p), ":")
	if !ok || r == "" || a == "" {
		return "", "", false
	}
	return Resource(r), Action(a), true
}

// Valid reports whether p only uses known resources and actions, or
// wildcards.
func (p Permission) Valid() bool {
	r, a, ok := p.Split()
	if !ok {
		return false
	}
	if _, known := KnownResources[r]; !known && r != WildcardResource {
		return false
	}
	if _, known := KnownActions[a]; !known && a != WildcardAction {
		return false
	}
	return true
}
