package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/api/http/handler"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	avh *handler.AvailabilityHandler,
	requirePerm permFunc,
) {
	appts := api.Group("/appointments")

	appts.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionList), ah.List)
	appts.Post("/", requirePerm(authorize.ResourceAppointment, authorize.ActionCreate), ah.Create)

	a := appts.Group("/:id")
	a.Get("/", requirePerm(authorize.ResourceAppointment, authorize.ActionRead), ah.GetByID)
	a.Patch("/", requirePerm(authorize.ResourceAppointment, authorize.ActionUpdate), ah.Update)
	a.Delete("/", requirePerm(authorize.ResourceAppointment, authorize.ActionDelete), ah.Delete)
	a.Patch("/status", ah.SetStatus)

	avail := api.Group("/availability", requirePerm(authorize.ResourceAvailability, authorize.ActionRead))
	avail.Get("/technicians/:id", avh.TechnicianBusy)
	avail.Get("/technicians/:id/bookings", avh.TechnicianBookings)
	avail.Get("/beds/:id", avh.BedBusy)
	avail.Get("/beds/:id/bookings", avh.BedBookings)
}
