package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/service/notification"
	"github.com/Alijeyrad/spa_backend/pkg/reqctx"
)

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// GET /notifications
func (h *NotificationHandler) List(c fiber.Ctx) error {
	userID := reqctx.StaffIDFromContext(c.Context())
	if userID == "" {
		return unauthorized(c)
	}

	var q struct {
		UnreadOnly bool `query:"unread_only"`
		Page       int  `query:"page"`
		PerPage    int  `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	return ok(c, h.svc.List(c.Context(), userID, q.UnreadOnly, q.Page, q.PerPage))
}

// PATCH /notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	userID := reqctx.StaffIDFromContext(c.Context())
	if userID == "" {
		return unauthorized(c)
	}

	err := h.svc.MarkRead(c.Context(), c.Params("id"), userID)
	switch {
	case err == nil:
		return noContent(c)
	case errors.Is(err, notification.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, notification.ErrUnauthorized):
		return forbidden(c)
	default:
		return internalError(c, err)
	}
}

// PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	userID := reqctx.StaffIDFromContext(c.Context())
	if userID == "" {
		return unauthorized(c)
	}
	return ok(c, fiber.Map{"updated": h.svc.MarkAllRead(c.Context(), userID)})
}
