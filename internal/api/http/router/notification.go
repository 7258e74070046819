package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/api/http/handler"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

func (r *Router) registerNotificationRoutes(api fiber.Router, nh *handler.NotificationHandler, requirePerm permFunc) {
	notifs := api.Group("/notifications", requirePerm(authorize.ResourceNotification, authorize.ActionRead))

	notifs.Get("/", nh.List)
	notifs.Patch("/read-all", nh.MarkAllRead)
	notifs.Patch("/:id/read", nh.MarkRead)
}
