package scheduling

import (
	"cmp"
	"context"
	"slices"

	"github.com/Alijeyrad/spa_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Booking is one occupied window of a technician or bed.
type Booking struct {
	AppointmentID   string `json:"appointmentId"`
	AppointmentCode string `json:"appointmentCode"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	IsTechnicianBusy(ctx context.Context, q TechnicianQuery) bool
	IsBedBusy(ctx context.Context, q BedQuery) bool

	// Occupied windows, sorted by start time.
	TechnicianBookings(ctx context.Context, technicianID, date string) []Booking
	BedBookings(ctx context.Context, bedID, date string) []Booking
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	db *store.Store
}

func New(db *store.Store) Service {
	return &schedulingService{db: db}
}

func (s *schedulingService) IsTechnicianBusy(ctx context.Context, q TechnicianQuery) bool {
	var busy bool
	s.db.Read(func(st *store.State) {
		busy = TechnicianBusy(st.AppointmentsOn(q.Date), q)
	})
	return busy
}

func (s *schedulingService) IsBedBusy(ctx context.Context, q BedQuery) bool {
	var busy bool
	s.db.Read(func(st *store.State) {
		busy = BedBusy(st.AppointmentsOn(q.Date), q)
	})
	return busy
}

func (s *schedulingService) TechnicianBookings(ctx context.Context, technicianID, date string) []Booking {
	var out []Booking
	s.db.Read(func(st *store.State) {
		for _, a := range st.AppointmentsOn(date) {
			if a.Status == store.StatusCancelled || !hasTechnician(a, technicianID) {
				continue
			}
			out = append(out, Booking{AppointmentID: a.ID, AppointmentCode: a.Code, StartTime: a.StartTime, EndTime: a.EndTime})
		}
	})
	sortBookings(out)
	return out
}

func (s *schedulingService) BedBookings(ctx context.Context, bedID, date string) []Booking {
	var out []Booking
	s.db.Read(func(st *store.State) {
		for _, a := range st.AppointmentsOn(date) {
			if a.Status == store.StatusCancelled {
				continue
			}
			for _, svc := range a.Services {
				if svc.BedID == bedID && svc.StartTime != "" && svc.EndTime != "" {
					out = append(out, Booking{AppointmentID: a.ID, AppointmentCode: a.Code, StartTime: svc.StartTime, EndTime: svc.EndTime})
				}
			}
		}
	})
	sortBookings(out)
	return out
}

func sortBookings(b []Booking) {
	slices.SortFunc(b, func(x, y Booking) int {
		return cmp.Or(cmp.Compare(x.StartTime, y.StartTime), cmp.Compare(x.AppointmentCode, y.AppointmentCode))
	})
}
