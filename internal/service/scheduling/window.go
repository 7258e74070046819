package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Alijeyrad/spa_backend/internal/store"
)

const DateLayout = "2006-01-02"

// Window is a half-open [Start, End) interval in minutes since midnight.
type Window struct {
	Start int
	End   int
}

// Overlaps reports whether w and o share any minute. Windows that only touch
// (w.End == o.Start) do not overlap, so back-to-back bookings are allowed.
func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && w.End > o.Start
}

func (w Window) Valid() bool {
	return w.End > w.Start
}

// ParseClock parses "HH:MM" (or "HH:MM:SS") into minutes since midnight.
// Seconds must be valid but are truncated.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	sec, errS := 0, error(nil)
	if len(parts) == 3 {
		sec, errS = strconv.Atoi(parts[2])
	}
	if errH != nil || errM != nil || errS != nil ||
		h < 0 || h > 24 || m < 0 || m > 59 || sec < 0 || sec > 59 ||
		(h == 24 && (m != 0 || sec != 0)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// WindowFromDuration builds [start, start+duration).
func WindowFromDuration(start string, durationMinutes int) (Window, error) {
	if durationMinutes <= 0 {
		return Window{}, ErrInvalidTimeRange
	}
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: s + durationMinutes}, nil
}

// WindowFromRange builds [start, end).
func WindowFromRange(start, end string) (Window, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	w := Window{Start: s, End: e}
	if !w.Valid() {
		return Window{}, ErrInvalidTimeRange
	}
	return w, nil
}

// ---------------------------------------------------------------------------
// Conflict predicates
// ---------------------------------------------------------------------------

type TechnicianQuery struct {
	TechnicianID         string
	Date                 string
	StartTime            string
	DurationMinutes      int
	ExcludeAppointmentID string
}

type BedQuery struct {
	BedID                string
	Date                 string
	StartTime            string
	DurationMinutes      int
	ExcludeAppointmentID string
}

func considered(a *store.Appointment, date, excludeID string) bool {
	return a.AppointmentDate == date && a.ID != excludeID && a.Status != store.StatusCancelled
}

// TechnicianBusy reports whether any live appointment on the query date that
// lists the technician overlaps the requested window. The appointment-level
// window is used. Malformed queries report false.
func TechnicianBusy(appointments []*store.Appointment, q TechnicianQuery) bool {
	if q.TechnicianID == "" || q.Date == "" {
		return false
	}
	want, err := WindowFromDuration(q.StartTime, q.DurationMinutes)
	if err != nil {
		return false
	}

	for _, a := range appointments {
		if !considered(a, q.Date, q.ExcludeAppointmentID) || !hasTechnician(a, q.TechnicianID) {
			continue
		}
		got, err := WindowFromRange(a.StartTime, a.EndTime)
		if err != nil {
			continue
		}
		if want.Overlaps(got) {
			return true
		}
	}
	return false
}

// BedBusy reports whether any live service on the query date that uses the
// bed overlaps the requested window. Each service's own window is used, and
// services without both times are skipped. Malformed queries report false.
func BedBusy(appointments []*store.Appointment, q BedQuery) bool {
	if q.BedID == "" || q.Date == "" {
		return false
	}
	want, err := WindowFromDuration(q.StartTime, q.DurationMinutes)
	if err != nil {
		return false
	}

	for _, a := range appointments {
		if !considered(a, q.Date, q.ExcludeAppointmentID) {
			continue
		}
		for _, svc := range a.Services {
			if svc.BedID != q.BedID || svc.StartTime == "" || svc.EndTime == "" {
				continue
			}
			got, err := WindowFromRange(svc.StartTime, svc.EndTime)
			if err != nil {
				continue
			}
			if want.Overlaps(got) {
				return true
			}
		}
	}
	return false
}

func hasTechnician(a *store.Appointment, technicianID string) bool {
	for _, svc := range a.Services {
		if svc.HasTechnician(technicianID) {
			return true
		}
	}
	return false
}
