package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
)

type PackageHandler struct {
	svc treatment.Service
}

func NewPackageHandler(svc treatment.Service) *PackageHandler {
	return &PackageHandler{svc: svc}
}

type packageItemBody struct {
	SessionNumber int    `json:"sessionNumber" validate:"gte=1"`
	ProductID     string `json:"productId" validate:"required"`
}

// GET /packages/:id
func (h *PackageHandler) GetByID(c fiber.Ctx) error {
	pkg, err := h.svc.GetByID(c.Context(), c.Params("id"))
	if errors.Is(err, treatment.ErrNotFound) {
		return notFound(c, err.Error())
	}
	if err != nil {
		return internalError(c, err)
	}
	return ok(c, pkg)
}

// GET /customers/:id/packages?active=true
func (h *PackageHandler) ListForCustomer(c fiber.Ctx) error {
	var q struct {
		Active bool `query:"active"`
	}
	_ = c.Bind().Query(&q)

	if q.Active {
		return ok(c, h.svc.ListActiveForCustomer(c.Context(), c.Params("id")))
	}
	return ok(c, h.svc.ListForCustomer(c.Context(), c.Params("id")))
}

// POST /packages/:id/consume
// Unknown packages and already used items are accepted without change.
func (h *PackageHandler) Consume(c fiber.Ctx) error {
	var body packageItemBody
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}
	if err := h.svc.ConsumeItem(c.Context(), c.Params("id"), body.SessionNumber, body.ProductID); err != nil {
		return internalError(c, err)
	}
	return noContent(c)
}

// POST /packages/:id/return
func (h *PackageHandler) Return(c fiber.Ctx) error {
	var body packageItemBody
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}
	if err := h.svc.ReturnItem(c.Context(), c.Params("id"), body.SessionNumber, body.ProductID); err != nil {
		return internalError(c, err)
	}
	return noContent(c)
}
