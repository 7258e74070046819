package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

// RequirePermission checks that the calling staff member holds
// resource:action after role base and per-staff overrides are applied.
func RequirePermission(auth authorize.Authorizer, resource authorize.Resource, action authorize.Action) fiber.Handler {
	perm := authorize.NewPermission(resource, action)
	return func(c fiber.Ctx) error {
		err := authorize.EnforceContext(c.Context(), auth, perm)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, authorize.ErrNoSubjectInContext):
			return fiber.ErrUnauthorized
		case errors.Is(err, authorize.ErrForbidden), errors.Is(err, authorize.ErrUnknownRole):
			return fiber.ErrForbidden
		default:
			return err
		}
	}
}
