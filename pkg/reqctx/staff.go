package reqctx

import "context"

// Staff identifies the spa employee behind a request.
type Staff struct {
	// ID is the staff member's user id. Technicians receive notifications
	// under this id.
	ID string

	// Role is the staff role name, e.g. "receptionist".
	Role string
}

// WithStaff stores the calling staff member in the context.
func WithStaff(ctx context.Context, staff *Staff) context.Context {
	return context.WithValue(ctx, keyStaff, staff)
}

// StaffFromContext retrieves the calling staff member.
// Returns nil if the request is anonymous.
func StaffFromContext(ctx context.Context) *Staff {
	v := ctx.Value(keyStaff)
	if v == nil {
		return nil
	}
	staff, ok := v.(*Staff)
	if !ok {
		return nil
	}
	return staff
}

// StaffIDFromContext returns the staff id, or empty string if not set.
func StaffIDFromContext(ctx context.Context) string {
	if s := StaffFromContext(ctx); s != nil {
		return s.ID
	}
	return ""
}
