package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/api/http/handler"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

func (r *Router) registerSalesRoutes(
	api fiber.Router,
	cush *handler.CustomerHandler,
	oh *handler.OrderHandler,
	ph *handler.PackageHandler,
	requirePerm permFunc,
) {
	customers := api.Group("/customers")
	customers.Get("/", requirePerm(authorize.ResourceCustomer, authorize.ActionList), cush.List)
	customers.Post("/", requirePerm(authorize.ResourceCustomer, authorize.ActionCreate), cush.Resolve)
	customers.Get("/:id", requirePerm(authorize.ResourceCustomer, authorize.ActionRead), cush.GetByID)
	customers.Get("/:id/orders", requirePerm(authorize.ResourceOrder, authorize.ActionList), oh.ListForCustomer)
	customers.Get("/:id/packages", requirePerm(authorize.ResourcePackage, authorize.ActionList), ph.ListForCustomer)

	orders := api.Group("/orders")
	orders.Post("/", requirePerm(authorize.ResourceOrder, authorize.ActionCreate), oh.Complete)
	orders.Post("/treatment-purchases", requirePerm(authorize.ResourcePackage, authorize.ActionCreate), oh.PurchaseTreatment)
	orders.Get("/:id", requirePerm(authorize.ResourceOrder, authorize.ActionRead), oh.GetByID)

	packages := api.Group("/packages/:id")
	packages.Get("/", requirePerm(authorize.ResourcePackage, authorize.ActionRead), ph.GetByID)
	packages.Post("/consume", requirePerm(authorize.ResourcePackage, authorize.ActionUpdate), ph.Consume)
	packages.Post("/return", requirePerm(authorize.ResourcePackage, authorize.ActionUpdate), ph.Return)
}
