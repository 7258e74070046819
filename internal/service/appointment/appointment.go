package appointment

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/spa_backend/internal/service/notification"
	"github.com/Alijeyrad/spa_backend/internal/service/scheduling"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/reqctx"
	"github.com/Alijeyrad/spa_backend/pkg/util/codes"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	Date         string
	CustomerID   string
	TechnicianID string
	Status       *store.AppointmentStatus
	Page         int
	PerPage      int
}

type CreateRequest struct {
	CustomerID      string
	AppointmentDate string
	StartTime       string
	// EndTime defaults to StartTime plus the summed service durations.
	EndTime  string
	Services []store.AppointmentService
	Status   store.AppointmentStatus
	Notes    string
}

// UpdateRequest patches an appointment; nil fields are left unchanged.
type UpdateRequest struct {
	AppointmentDate *string
	StartTime       *string
	EndTime         *string
	Notes           *string
	Services        []store.AppointmentService // nil = unchanged
}

// Notifier receives appointment notifications after a write commits.
type Notifier interface {
	Notify(ctx context.Context, req notification.NotifyRequest)
}

type Config struct {
	CodePrefix       string
	CodeDigits       int
	EnforceConflicts bool
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*store.Appointment, error)
	Update(ctx context.Context, apptID string, req UpdateRequest) (*store.Appointment, error)
	Delete(ctx context.Context, apptID string) error
	SetStatus(ctx context.Context, apptID string, status store.AppointmentStatus) (*store.Appointment, error)

	GetByID(ctx context.Context, apptID string) (*store.Appointment, error)
	List(ctx context.Context, req ListRequest) []*store.Appointment
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	db       *store.Store
	notifier Notifier
	cfg      Config
	seq      codes.Sequence
	log      *slog.Logger
}

func New(db *store.Store, notifier Notifier, cfg Config, log *slog.Logger) Service {
	seq, err := codes.NewSequence(cfg.CodePrefix, cfg.CodeDigits)
	if err != nil {
		seq = codes.Sequence{Prefix: codes.AppointmentPrefix, Digits: codes.DefaultDigits}
	}
	return &appointmentService{db: db, notifier: notifier, cfg: cfg, seq: seq, log: log}
}

func (s *appointmentService) Create(ctx context.Context, req CreateRequest) (*store.Appointment, error) {
	status := req.Status
	if status == "" {
		status = store.StatusPending
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var (
		out    *store.Appointment
		notify []notification.NotifyRequest
	)
	err := s.db.Write(ctx, func(st *store.State) error {
		if _, ok := st.Customers[req.CustomerID]; !ok {
			return ErrCustomerNotFound
		}
		now := time.Now().UTC()
		a := &store.Appointment{
			ID:              uuid.NewString(),
			CustomerID:      req.CustomerID,
			AppointmentDate: req.AppointmentDate,
			StartTime:       req.StartTime,
			EndTime:         req.EndTime,
			Services:        cloneServices(req.Services),
			Status:          status,
			Notes:           req.Notes,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := prepare(st, a); err != nil {
			return err
		}
		if err := s.checkConflicts(st, a); err != nil {
			return err
		}
		if err := reconcileLinks(st, nil, consumedLinks(a), a.CustomerID, true); err != nil {
			return err
		}

		a.Code = nextCode(st, s.seq)
		st.Appointments[a.ID] = a

		out = a.Clone()
		notify = messages(a, a.Technicians(), notification.KindNew)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.log.With(reqctx.LogAttrs(ctx)...).Info("appointment created", "appointment_id", out.ID, "code", out.Code, "customer_id", out.CustomerID)
	s.dispatch(ctx, notify)
	return out, nil
}

func (s *appointmentService) Update(ctx context.Context, apptID string, req UpdateRequest) (*store.Appointment, error) {
	var (
		out    *store.Appointment
		notify []notification.NotifyRequest
	)
	err := s.db.Write(ctx, func(st *store.State) error {
		cur, ok := st.Appointments[apptID]
		if !ok {
			return ErrNotFound
		}

		next := cur.Clone()
		if req.AppointmentDate != nil {
			next.AppointmentDate = *req.AppointmentDate
		}
		if req.StartTime != nil {
			next.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			next.EndTime = *req.EndTime
		}
		if req.Notes != nil {
			next.Notes = *req.Notes
		}
		if req.Services != nil {
			next.Services = cloneServices(req.Services)
		}
		if err := prepare(st, next); err != nil {
			return err
		}
		if err := s.checkConflicts(st, next); err != nil {
			return err
		}
		if err := reconcileLinks(st, consumedLinks(cur), consumedLinks(next), next.CustomerID, true); err != nil {
			return err
		}

		next.UpdatedAt = time.Now().UTC()
		st.Appointments[apptID] = next

		out = next.Clone()
		if req.Services != nil {
			notify = messages(next, next.Technicians(), notification.KindUpdated)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.log.With(reqctx.LogAttrs(ctx)...).Info("appointment updated", "appointment_id", apptID, "services_changed", req.Services != nil)
	s.dispatch(ctx, notify)
	return out, nil
}

// Delete removes the appointment. Package items it consumed stay consumed;
// cancel first to give them back.
func (s *appointmentService) Delete(ctx context.Context, apptID string) error {
	var notify []notification.NotifyRequest
	err := s.db.Write(ctx, func(st *store.State) error {
		a, ok := st.Appointments[apptID]
		if !ok {
			return ErrNotFound
		}
		delete(st.Appointments, apptID)
		notify = messages(a, a.Technicians(), notification.KindCancelled)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.log.With(reqctx.LogAttrs(ctx)...).Info("appointment deleted", "appointment_id", apptID)
	s.dispatch(ctx, notify)
	return nil
}

func (s *appointmentService) SetStatus(ctx context.Context, apptID string, status store.AppointmentStatus) (*store.Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var (
		out    *store.Appointment
		notify []notification.NotifyRequest
	)
	err := s.db.Write(ctx, func(st *store.State) error {
		a, ok := st.Appointments[apptID]
		if !ok {
			return ErrNotFound
		}
		if a.Status == status {
			out = a.Clone()
			return nil
		}

		before := consumedLinks(a)
		prev := a.Status
		a.Status = status
		if prev == store.StatusCancelled {
			// Reviving can collide with bookings made while it was cancelled.
			if err := s.checkConflicts(st, a); err != nil {
				a.Status = prev
				return err
			}
		}
		// Revival never fails on package state.
		if err := reconcileLinks(st, before, consumedLinks(a), a.CustomerID, false); err != nil {
			a.Status = prev
			return err
		}
		a.UpdatedAt = time.Now().UTC()

		out = a.Clone()
		if status == store.StatusCancelled {
			notify = messages(a, a.Technicians(), notification.KindCancelled)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set appointment status: %w", err)
	}

	s.log.With(reqctx.LogAttrs(ctx)...).Info("appointment status changed", "appointment_id", apptID, "status", status)
	s.dispatch(ctx, notify)
	return out, nil
}

func (s *appointmentService) GetByID(ctx context.Context, apptID string) (*store.Appointment, error) {
	var out *store.Appointment
	s.db.Read(func(st *store.State) {
		if a, ok := st.Appointments[apptID]; ok {
			out = a.Clone()
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *appointmentService) List(ctx context.Context, req ListRequest) []*store.Appointment {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > 100 {
		req.PerPage = 20
	}
	offset := (req.Page - 1) * req.PerPage

	var out []*store.Appointment
	s.db.Read(func(st *store.State) {
		for _, a := range st.Appointments {
			if req.Date != "" && a.AppointmentDate != req.Date {
				continue
			}
			if req.CustomerID != "" && a.CustomerID != req.CustomerID {
				continue
			}
			if req.Status != nil && a.Status != *req.Status {
				continue
			}
			if req.TechnicianID != "" && !slices.Contains(a.Technicians(), req.TechnicianID) {
				continue
			}
			out = append(out, a.Clone())
		}
	})

	slices.SortFunc(out, func(x, y *store.Appointment) int {
		return cmp.Or(
			cmp.Compare(x.AppointmentDate, y.AppointmentDate),
			cmp.Compare(x.StartTime, y.StartTime),
			cmp.Compare(x.Code, y.Code),
		)
	})
	if offset >= len(out) {
		return nil
	}
	return out[offset:min(offset+req.PerPage, len(out))]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// prepare validates a and fills derived fields: service defaults from the
// catalog, technician lists and the end time.
func prepare(st *store.State, a *store.Appointment) error {
	if !scheduling.ValidDate(a.AppointmentDate) {
		return ErrInvalidDate
	}
	if len(a.Services) == 0 {
		return ErrNoServices
	}

	total := 0
	seen := map[store.PackageLink]bool{}
	for i := range a.Services {
		svc := &a.Services[i]
		p, ok := st.Products[svc.ProductID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrProductNotFound, svc.ProductID)
		}
		if svc.Duration <= 0 {
			svc.Duration = p.Duration
		}
		if svc.Price.IsZero() && !svc.UseTreatmentPackage {
			svc.Price = p.Price
		}
		if svc.StartTime != "" || svc.EndTime != "" {
			if _, err := scheduling.WindowFromRange(svc.StartTime, svc.EndTime); err != nil {
				return fmt.Errorf("%w: service %s: %w", ErrInvalidTime, svc.ProductID, err)
			}
		}
		svc.TechnicianIDs = distinct(svc.Technicians())
		if len(svc.TechnicianIDs) > 0 {
			svc.TechnicianID = svc.TechnicianIDs[0]
		}
		if l, ok := svc.Link(); ok {
			if seen[l] {
				return fmt.Errorf("%w: session %d item %s linked twice", ErrInvalidPackageLink, l.SessionNumber, l.ProductID)
			}
			seen[l] = true
		} else if svc.UseTreatmentPackage {
			return fmt.Errorf("%w: service %s", ErrInvalidPackageLink, svc.ProductID)
		}
		total += svc.Duration
	}

	start, err := scheduling.ParseClock(a.StartTime)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTime, err)
	}
	if a.EndTime == "" {
		if total <= 0 {
			return ErrInvalidTime
		}
		a.EndTime = scheduling.FormatClock(start + total)
	}
	if _, err := scheduling.WindowFromRange(a.StartTime, a.EndTime); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTime, err)
	}
	return nil
}

// checkConflicts rejects a when any of its technicians or beds is booked by
// another live appointment in an overlapping window.
func (s *appointmentService) checkConflicts(st *store.State, a *store.Appointment) error {
	if !s.cfg.EnforceConflicts || a.Status == store.StatusCancelled {
		return nil
	}
	w, err := scheduling.WindowFromRange(a.StartTime, a.EndTime)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTime, err)
	}

	sameDay := st.AppointmentsOn(a.AppointmentDate)
	for _, tech := range a.Technicians() {
		q := scheduling.TechnicianQuery{
			TechnicianID:         tech,
			Date:                 a.AppointmentDate,
			StartTime:            a.StartTime,
			DurationMinutes:      w.End - w.Start,
			ExcludeAppointmentID: a.ID,
		}
		if scheduling.TechnicianBusy(sameDay, q) {
			return fmt.Errorf("%w: %s", ErrTechnicianBusy, tech)
		}
	}
	for _, svc := range a.Services {
		if svc.BedID == "" || svc.StartTime == "" || svc.EndTime == "" {
			continue
		}
		sw, err := scheduling.WindowFromRange(svc.StartTime, svc.EndTime)
		if err != nil {
			continue
		}
		q := scheduling.BedQuery{
			BedID:                svc.BedID,
			Date:                 a.AppointmentDate,
			StartTime:            svc.StartTime,
			DurationMinutes:      sw.End - sw.Start,
			ExcludeAppointmentID: a.ID,
		}
		if scheduling.BedBusy(sameDay, q) {
			return fmt.Errorf("%w: %s", ErrBedBusy, svc.BedID)
		}
	}
	return nil
}

// consumedLinks returns the package items a holds. Cancelled appointments
// hold none.
func consumedLinks(a *store.Appointment) []store.PackageLink {
	if a.Status == store.StatusCancelled {
		return nil
	}
	return a.PackageLinks()
}

// reconcileLinks returns items held only in before and consumes items held
// only in after. With strict set, new items are validated before anything is
// touched and any invalid item rejects the change. Without it, items that no
// longer validate (already used, package or session gone) are skipped.
func reconcileLinks(st *store.State, before, after []store.PackageLink, customerID string, strict bool) error {
	var added []store.PackageLink
	for _, l := range after {
		if slices.Contains(before, l) {
			continue
		}
		if err := treatment.ValidateLink(st, l, customerID); err != nil {
			if !strict {
				continue
			}
			return fmt.Errorf("%w: %w", ErrInvalidPackageLink, err)
		}
		added = append(added, l)
	}

	for _, l := range before {
		if !slices.Contains(after, l) {
			treatment.Return(st, l)
		}
	}
	for _, l := range added {
		treatment.Consume(st, l)
	}
	return nil
}

// nextCode issues the next appointment code and advances the high-water
// mark.
func nextCode(st *store.State, seq codes.Sequence) string {
	code, n := seq.Next(st.AppointmentCodeSeq, st.AppointmentCodes())
	st.AppointmentCodeSeq = n
	return code
}

func messages(a *store.Appointment, technicians []string, kind notification.Kind) []notification.NotifyRequest {
	var title, verb string
	switch kind {
	case notification.KindNew:
		title, verb = "New appointment", "booked"
	case notification.KindUpdated:
		title, verb = "Appointment updated", "updated"
	default:
		title, verb = "Appointment cancelled", "cancelled"
	}

	out := make([]notification.NotifyRequest, 0, len(technicians))
	for _, tech := range technicians {
		out = append(out, notification.NotifyRequest{
			UserID:          tech,
			AppointmentID:   a.ID,
			AppointmentCode: a.Code,
			Title:           title,
			Message:         fmt.Sprintf("Appointment %s on %s at %s was %s", a.Code, a.AppointmentDate, a.StartTime, verb),
			Kind:            kind,
		})
	}
	return out
}

func (s *appointmentService) dispatch(ctx context.Context, reqs []notification.NotifyRequest) {
	if s.notifier == nil {
		return
	}
	for _, r := range reqs {
		s.notifier.Notify(ctx, r)
	}
}

func cloneServices(in []store.AppointmentService) []store.AppointmentService {
	if in == nil {
		return nil
	}
	out := make([]store.AppointmentService, len(in))
	for i, svc := range in {
		svc.TechnicianIDs = slices.Clone(svc.TechnicianIDs)
		out[i] = svc
	}
	return out
}

func distinct(ids []string) []string {
	var out []string
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
