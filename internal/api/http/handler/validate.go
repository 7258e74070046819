package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bindJSON decodes the body into out and validates its struct tags. The
// returned map holds field -> failed tag for validation errors.
func bindJSON(c fiber.Ctx, out any) (map[string]string, error) {
	if err := c.Bind().JSON(out); err != nil {
		return nil, err
	}
	if err := validate.Struct(out); err != nil {
		return validationErrors(err), err
	}
	return nil, nil
}

func validationErrors(err error) map[string]string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return nil
	}
	fields := make(map[string]string, len(ves))
	for _, ve := range ves {
		fields[ve.Namespace()] = ve.Tag()
	}
	return fields
}

func invalidBody(c fiber.Ctx, fields map[string]string) error {
	if len(fields) == 0 {
		return badRequest(c, "invalid request body")
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}
