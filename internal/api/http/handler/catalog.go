package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/spa_backend/internal/service/catalog"
	"github.com/Alijeyrad/spa_backend/internal/store"
)

type CatalogHandler struct {
	svc catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func mapCatalogError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, catalog.ErrInvalidProduct), errors.Is(err, catalog.ErrInvalidStockChange):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type sessionRefBody struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

type sessionDetailBody struct {
	SessionNumber int              `json:"sessionNumber" validate:"gte=1"`
	Name          string           `json:"name"`
	Products      []sessionRefBody `json:"products" validate:"dive"`
	Services      []sessionRefBody `json:"services" validate:"dive"`
}

type productBody struct {
	Name           string              `json:"name" validate:"required,max=200"`
	Type           string              `json:"type" validate:"required,oneof=product service treatment"`
	Price          decimal.Decimal     `json:"price"`
	Duration       int                 `json:"duration" validate:"gte=0"`
	Stock          int                 `json:"stock"`
	Sessions       int                 `json:"sessions" validate:"gte=0"`
	SessionDetails []sessionDetailBody `json:"sessionDetails" validate:"dive"`
}

func (b productBody) toRequest(id string) catalog.UpsertRequest {
	req := catalog.UpsertRequest{
		ID:       id,
		Name:     b.Name,
		Type:     store.ProductType(b.Type),
		Price:    b.Price,
		Duration: b.Duration,
		Stock:    b.Stock,
		Sessions: b.Sessions,
	}
	for _, d := range b.SessionDetails {
		req.SessionDetails = append(req.SessionDetails, store.SessionDetail{
			SessionNumber: d.SessionNumber,
			Name:          d.Name,
			Products:      toRefs(d.Products),
			Services:      toRefs(d.Services),
		})
	}
	return req
}

func toRefs(in []sessionRefBody) []store.SessionDetailRef {
	if len(in) == 0 {
		return nil
	}
	out := make([]store.SessionDetailRef, len(in))
	for i, r := range in {
		out[i] = store.SessionDetailRef{ProductID: r.ProductID, Quantity: r.Quantity}
	}
	return out
}

// GET /products
func (h *CatalogHandler) List(c fiber.Ctx) error {
	var q struct {
		Type   string `query:"type"`
		Search string `query:"search"`
	}
	_ = c.Bind().Query(&q)

	req := catalog.ListRequest{Search: q.Search}
	if q.Type != "" {
		t := store.ProductType(q.Type)
		req.Type = &t
	}
	return ok(c, h.svc.List(c.Context(), req))
}

// GET /products/:id
func (h *CatalogHandler) GetByID(c fiber.Ctx) error {
	p, err := h.svc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return mapCatalogError(c, err)
	}
	return ok(c, p)
}

// POST /products
func (h *CatalogHandler) Create(c fiber.Ctx) error {
	var body productBody
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	p, err := h.svc.Upsert(c.Context(), body.toRequest(""))
	if err != nil {
		return mapCatalogError(c, err)
	}
	return created(c, p)
}

// PUT /products/:id
func (h *CatalogHandler) Update(c fiber.Ctx) error {
	var body productBody
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	p, err := h.svc.Upsert(c.Context(), body.toRequest(c.Params("id")))
	if err != nil {
		return mapCatalogError(c, err)
	}
	return ok(c, p)
}

// POST /products/:id/stock
func (h *CatalogHandler) AdjustStock(c fiber.Ctx) error {
	var body struct {
		Change   string `json:"change" validate:"required,oneof=sale receipt return"`
		Quantity int    `json:"quantity" validate:"gte=1"`
	}
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	p, err := h.svc.AdjustStock(c.Context(), c.Params("id"), catalog.StockChange(body.Change), body.Quantity)
	if err != nil {
		return mapCatalogError(c, err)
	}
	return ok(c, p)
}
