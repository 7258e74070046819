package authorize

import (
	"context"
	"errors"

	"github.com/Alijeyrad/spa_backend/pkg/reqctx"
)

var (
	ErrNoSubjectInContext = errors.New("no staff member found in context")
)

// SubjectFromContext extracts the calling staff member's id and role.
func SubjectFromContext(ctx context.Context) (string, Role, error) {
	staff := reqctx.StaffFromContext(ctx)
	if staff == nil || staff.ID == "" || staff.Role == "" {
		return "", "", ErrNoSubjectInContext
	}
	return staff.ID, Role(staff.Role), nil
}

// EnforceContext checks perm for the staff member in ctx.
func EnforceContext(ctx context.Context, a Authorizer, perm Permission) error {
	staffID, role, err := SubjectFromContext(ctx)
	if err != nil {
		return err
	}
	return a.Enforce(staffID, role, perm)
}
