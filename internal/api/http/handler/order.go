package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/spa_backend/internal/service/customer"
	"github.com/Alijeyrad/spa_backend/internal/service/order"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
)

type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func mapOrderError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, order.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, customer.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, order.ErrProductNotFound), errors.Is(err, treatment.ErrProductNotFound):
		return unprocessable(c, err.Error())
	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, customer.ErrInvalidPhone),
		errors.Is(err, customer.ErrPhoneRequired),
		errors.Is(err, treatment.ErrNotTreatment),
		errors.Is(err, treatment.ErrInvalidSessions):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// POST /orders
func (h *OrderHandler) Complete(c fiber.Ctx) error {
	var body struct {
		Customer struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Phone string `json:"phone" validate:"required_without=ID"`
		} `json:"customer"`
		Items []struct {
			ProductID string           `json:"productId" validate:"required"`
			Quantity  int              `json:"quantity" validate:"gte=1"`
			UnitPrice *decimal.Decimal `json:"unitPrice"`
		} `json:"items" validate:"required,min=1,dive"`
	}
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	req := order.CompleteRequest{
		Customer: customer.ResolveRequest{
			CustomerID: body.Customer.ID,
			Name:       body.Customer.Name,
			Phone:      body.Customer.Phone,
		},
	}
	for _, it := range body.Items {
		req.Items = append(req.Items, order.LineItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	receipt, err := h.svc.Complete(c.Context(), req)
	if err != nil {
		return mapOrderError(c, err)
	}
	return created(c, receipt)
}

// POST /orders/treatment-purchases
// Records packages for a treatment sold through another channel.
func (h *OrderHandler) PurchaseTreatment(c fiber.Ctx) error {
	var body struct {
		CustomerID string `json:"customerId" validate:"required"`
		ProductID  string `json:"productId" validate:"required"`
		Quantity   int    `json:"quantity" validate:"gte=1"`
		OrderID    string `json:"orderId"`
	}
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	pkgs, err := h.svc.PurchaseTreatment(c.Context(), body.CustomerID, body.ProductID, body.Quantity, body.OrderID)
	if err != nil {
		return mapOrderError(c, err)
	}
	return created(c, pkgs)
}

// GET /orders/:id
func (h *OrderHandler) GetByID(c fiber.Ctx) error {
	o, err := h.svc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return mapOrderError(c, err)
	}
	return ok(c, o)
}

// GET /customers/:id/orders
func (h *OrderHandler) ListForCustomer(c fiber.Ctx) error {
	return ok(c, h.svc.ListForCustomer(c.Context(), c.Params("id")))
}
