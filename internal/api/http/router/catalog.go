package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/api/http/handler"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

func (r *Router) registerCatalogRoutes(api fiber.Router, ch *handler.CatalogHandler, requirePerm permFunc) {
	products := api.Group("/products")

	products.Get("/", requirePerm(authorize.ResourceProduct, authorize.ActionList), ch.List)
	products.Post("/", requirePerm(authorize.ResourceProduct, authorize.ActionCreate), ch.Create)

	p := products.Group("/:id")
	p.Get("/", requirePerm(authorize.ResourceProduct, authorize.ActionRead), ch.GetByID)
	p.Put("/", requirePerm(authorize.ResourceProduct, authorize.ActionUpdate), ch.Update)
	p.Post("/stock", requirePerm(authorize.ResourceStock, authorize.ActionUpdate), ch.AdjustStock)
}
