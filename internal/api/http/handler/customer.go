package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/service/customer"
)

type CustomerHandler struct {
	svc customer.Service
}

func NewCustomerHandler(svc customer.Service) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func mapCustomerError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, customer.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, customer.ErrInvalidPhone), errors.Is(err, customer.ErrPhoneRequired):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// GET /customers?search=&phone=
func (h *CustomerHandler) List(c fiber.Ctx) error {
	var q struct {
		Search string `query:"search"`
		Phone  string `query:"phone"`
	}
	_ = c.Bind().Query(&q)

	if q.Phone != "" {
		cus, err := h.svc.FindByPhone(c.Context(), q.Phone)
		if err != nil {
			return mapCustomerError(c, err)
		}
		return ok(c, cus)
	}
	return ok(c, h.svc.List(c.Context(), q.Search))
}

// GET /customers/:id
func (h *CustomerHandler) GetByID(c fiber.Ctx) error {
	cus, err := h.svc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return mapCustomerError(c, err)
	}
	return ok(c, cus)
}

// POST /customers
// Matches an existing customer by phone before creating a new one.
func (h *CustomerHandler) Resolve(c fiber.Ctx) error {
	var body struct {
		Name  string `json:"name" validate:"max=200"`
		Phone string `json:"phone" validate:"required"`
	}
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	cus, err := h.svc.Resolve(c.Context(), customer.ResolveRequest{Name: body.Name, Phone: body.Phone})
	if err != nil {
		return mapCustomerError(c, err)
	}
	return ok(c, cus)
}
