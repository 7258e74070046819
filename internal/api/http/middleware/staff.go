package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/pkg/reqctx"
)

const (
	HeaderStaffID   = "X-Staff-Id"
	HeaderStaffRole = "X-Staff-Role"
)

// StaffContext copies the staff identity set by the upstream gateway into
// the request context. Requests without both headers stay anonymous and are
// rejected by RequirePermission.
func StaffContext() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := strings.TrimSpace(c.Get(HeaderStaffID))
		role := strings.ToLower(strings.TrimSpace(c.Get(HeaderStaffRole)))
		if id != "" && role != "" {
			c.SetContext(reqctx.WithStaff(c.Context(), &reqctx.Staff{ID: id, Role: role}))
		}
		return c.Next()
	}
}
