package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/spa_backend/internal/service/appointment"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

type AppointmentHandler struct {
	svc  appointment.Service
	auth authorize.Authorizer
}

// NewAppointmentHandler builds the handler. auth guards status transitions by
// target status; nil disables the check.
func NewAppointmentHandler(svc appointment.Service, auth authorize.Authorizer) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, auth: auth}
}

// statusAction is the permission needed to move an appointment into status.
func statusAction(status store.AppointmentStatus) authorize.Action {
	switch status {
	case store.StatusCancelled:
		return authorize.ActionCancel
	case store.StatusCompleted:
		return authorize.ActionComplete
	default:
		return authorize.ActionUpdate
	}
}

func mapAppointmentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, appointment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, appointment.ErrTechnicianBusy), errors.Is(err, appointment.ErrBedBusy):
		return conflict(c, err.Error())
	case errors.Is(err, treatment.ErrPackageItemInUse):
		return conflict(c, err.Error())
	case errors.Is(err, appointment.ErrCustomerNotFound), errors.Is(err, appointment.ErrProductNotFound):
		return unprocessable(c, err.Error())
	case errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrInvalidDate),
		errors.Is(err, appointment.ErrInvalidTime),
		errors.Is(err, appointment.ErrNoServices),
		errors.Is(err, appointment.ErrInvalidPackageLink):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

type serviceLineBody struct {
	ProductID     string           `json:"productId" validate:"required"`
	Duration      int              `json:"duration" validate:"gte=0"`
	Price         *decimal.Decimal `json:"price"`
	StartTime     string           `json:"startTime"`
	EndTime       string           `json:"endTime"`
	TechnicianIDs []string         `json:"technicianIds" validate:"dive,required"`
	// Older clients send a single technician.
	TechnicianID string `json:"technicianId"`
	BedID        string `json:"bedId"`

	UseTreatmentPackage bool   `json:"useTreatmentPackage"`
	TreatmentPackageID  string `json:"treatmentPackageId" validate:"required_if=UseTreatmentPackage true"`
	SessionNumber       int    `json:"sessionNumber" validate:"gte=0"`
}

func toServices(in []serviceLineBody) []store.AppointmentService {
	out := make([]store.AppointmentService, len(in))
	for i, b := range in {
		out[i] = store.AppointmentService{
			ProductID:           b.ProductID,
			Duration:            b.Duration,
			StartTime:           b.StartTime,
			EndTime:             b.EndTime,
			TechnicianIDs:       b.TechnicianIDs,
			TechnicianID:        b.TechnicianID,
			BedID:               b.BedID,
			UseTreatmentPackage: b.UseTreatmentPackage,
			TreatmentPackageID:  b.TreatmentPackageID,
			SessionNumber:       b.SessionNumber,
		}
		if b.Price != nil {
			out[i].Price = *b.Price
		}
	}
	return out
}

// GET /appointments
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	var q struct {
		Date         string `query:"date"`
		CustomerID   string `query:"customer_id"`
		TechnicianID string `query:"technician_id"`
		Status       string `query:"status"`
		Page         int    `query:"page"`
		PerPage      int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	req := appointment.ListRequest{
		Date:         q.Date,
		CustomerID:   q.CustomerID,
		TechnicianID: q.TechnicianID,
		Page:         q.Page,
		PerPage:      q.PerPage,
	}
	if q.Status != "" {
		s := store.AppointmentStatus(q.Status)
		if !s.Valid() {
			return badRequest(c, appointment.ErrInvalidStatus.Error())
		}
		req.Status = &s
	}

	return ok(c, h.svc.List(c.Context(), req))
}

// GET /appointments/:id
func (h *AppointmentHandler) GetByID(c fiber.Ctx) error {
	a, err := h.svc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}

// POST /appointments
func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	var body struct {
		CustomerID      string            `json:"customerId" validate:"required"`
		AppointmentDate string            `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
		StartTime       string            `json:"startTime" validate:"required"`
		EndTime         string            `json:"endTime"`
		Services        []serviceLineBody `json:"services" validate:"required,min=1,dive"`
		Status          string            `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
		Notes           string            `json:"notes" validate:"max=2000"`
	}
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	a, err := h.svc.Create(c.Context(), appointment.CreateRequest{
		CustomerID:      body.CustomerID,
		AppointmentDate: body.AppointmentDate,
		StartTime:       body.StartTime,
		EndTime:         body.EndTime,
		Services:        toServices(body.Services),
		Status:          store.AppointmentStatus(body.Status),
		Notes:           body.Notes,
	})
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return created(c, a)
}

// PATCH /appointments/:id
func (h *AppointmentHandler) Update(c fiber.Ctx) error {
	var body struct {
		AppointmentDate *string           `json:"appointmentDate" validate:"omitempty,datetime=2006-01-02"`
		StartTime       *string           `json:"startTime"`
		EndTime         *string           `json:"endTime"`
		Notes           *string           `json:"notes" validate:"omitempty,max=2000"`
		Services        []serviceLineBody `json:"services" validate:"omitempty,min=1,dive"`
	}
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	req := appointment.UpdateRequest{
		AppointmentDate: body.AppointmentDate,
		StartTime:       body.StartTime,
		EndTime:         body.EndTime,
		Notes:           body.Notes,
	}
	if body.Services != nil {
		req.Services = toServices(body.Services)
	}

	a, err := h.svc.Update(c.Context(), c.Params("id"), req)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}

// PATCH /appointments/:id/status
// Cancelling needs appointment:cancel and completing appointment:complete.
func (h *AppointmentHandler) SetStatus(c fiber.Ctx) error {
	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if fields, err := bindJSON(c, &body); err != nil {
		return invalidBody(c, fields)
	}

	status := store.AppointmentStatus(body.Status)
	if h.auth != nil {
		perm := authorize.NewPermission(authorize.ResourceAppointment, statusAction(status))
		err := authorize.EnforceContext(c.Context(), h.auth, perm)
		switch {
		case errors.Is(err, authorize.ErrNoSubjectInContext):
			return unauthorized(c)
		case err != nil:
			return forbidden(c)
		}
	}

	a, err := h.svc.SetStatus(c.Context(), c.Params("id"), status)
	if err != nil {
		return mapAppointmentError(c, err)
	}
	return ok(c, a)
}

// DELETE /appointments/:id
// Package items consumed by the appointment stay consumed; cancel first to
// give them back.
func (h *AppointmentHandler) Delete(c fiber.Ctx) error {
	if err := h.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapAppointmentError(c, err)
	}
	return noContent(c)
}
