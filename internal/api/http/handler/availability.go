package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/internal/service/scheduling"
)

type AvailabilityHandler struct {
	svc scheduling.Service
}

func NewAvailabilityHandler(svc scheduling.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

type slotQuery struct {
	Date     string `query:"date" validate:"required,datetime=2006-01-02"`
	Start    string `query:"start" validate:"required"`
	Duration int    `query:"duration" validate:"gte=1"`
	// Exclude skips the appointment being edited.
	Exclude string `query:"exclude"`
}

func bindSlot(c fiber.Ctx) (slotQuery, map[string]string, error) {
	var q slotQuery
	if err := c.Bind().Query(&q); err != nil {
		return q, nil, err
	}
	if err := validate.Struct(q); err != nil {
		return q, validationErrors(err), err
	}
	return q, nil, nil
}

// GET /availability/technicians/:id?date=&start=&duration=&exclude=
func (h *AvailabilityHandler) TechnicianBusy(c fiber.Ctx) error {
	q, fields, err := bindSlot(c)
	if err != nil {
		return invalidBody(c, fields)
	}

	busy := h.svc.IsTechnicianBusy(c.Context(), scheduling.TechnicianQuery{
		TechnicianID:         c.Params("id"),
		Date:                 q.Date,
		StartTime:            q.Start,
		DurationMinutes:      q.Duration,
		ExcludeAppointmentID: q.Exclude,
	})
	return ok(c, fiber.Map{"busy": busy})
}

// GET /availability/beds/:id?date=&start=&duration=&exclude=
func (h *AvailabilityHandler) BedBusy(c fiber.Ctx) error {
	q, fields, err := bindSlot(c)
	if err != nil {
		return invalidBody(c, fields)
	}

	busy := h.svc.IsBedBusy(c.Context(), scheduling.BedQuery{
		BedID:                c.Params("id"),
		Date:                 q.Date,
		StartTime:            q.Start,
		DurationMinutes:      q.Duration,
		ExcludeAppointmentID: q.Exclude,
	})
	return ok(c, fiber.Map{"busy": busy})
}

// GET /availability/technicians/:id/bookings?date=
func (h *AvailabilityHandler) TechnicianBookings(c fiber.Ctx) error {
	date := c.Query("date")
	if !scheduling.ValidDate(date) {
		return badRequest(c, scheduling.ErrInvalidDate.Error())
	}
	return ok(c, h.svc.TechnicianBookings(c.Context(), c.Params("id"), date))
}

// GET /availability/beds/:id/bookings?date=
func (h *AvailabilityHandler) BedBookings(c fiber.Ctx) error {
	date := c.Query("date")
	if !scheduling.ValidDate(date) {
		return badRequest(c, scheduling.ErrInvalidDate.Error())
	}
	return ok(c, h.svc.BedBookings(c.Context(), c.Params("id"), date))
}
