package store

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type ProductType string

const (
	ProductTypeProduct   ProductType = "product"
	ProductTypeService   ProductType = "service"
	ProductTypeTreatment ProductType = "treatment"
)

// SessionDetailRef points at a catalog product used inside a treatment session.
type SessionDetailRef struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// SessionDetail is the catalog template of one treatment session.
type SessionDetail struct {
	SessionNumber int                `json:"sessionNumber"`
	Name          string             `json:"name,omitempty"`
	Products      []SessionDetailRef `json:"products,omitempty"`
	Services      []SessionDetailRef `json:"services,omitempty"`
}

type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           ProductType     `json:"type"`
	Price          decimal.Decimal `json:"price"`
	Duration       int             `json:"duration,omitempty"` // minutes
	Stock          int             `json:"stock"`
	Sessions       int             `json:"sessions,omitempty"`
	SessionDetails []SessionDetail `json:"sessionDetails,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (p *Product) Clone() *Product {
	c := *p
	c.SessionDetails = make([]SessionDetail, len(p.SessionDetails))
	for i, d := range p.SessionDetails {
		d.Products = slices.Clone(d.Products)
		d.Services = slices.Clone(d.Services)
		c.SessionDetails[i] = d
	}
	return &c
}

// ---------------------------------------------------------------------------
// Customers & orders
// ---------------------------------------------------------------------------

type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	ProductType ProductType     `json:"productType"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	CustomerID string          `json:"customerId"`
	Items      []OrderItem     `json:"items"`
	Total      decimal.Decimal `json:"total"`
	PackageIDs []string        `json:"packageIds,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (o *Order) Clone() *Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	c.PackageIDs = slices.Clone(o.PackageIDs)
	return &c
}

// ---------------------------------------------------------------------------
// Appointments
// ---------------------------------------------------------------------------

type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type AppointmentService struct {
	ProductID     string          `json:"productId"`
	Duration      int             `json:"duration"`
	Price         decimal.Decimal `json:"price"`
	StartTime     string          `json:"startTime,omitempty"`
	EndTime       string          `json:"endTime,omitempty"`
	TechnicianIDs []string        `json:"technicianIds,omitempty"`
	// Deprecated: use TechnicianIDs. Read only as a fallback.
	TechnicianID string `json:"technicianId,omitempty"`
	BedID        string `json:"bedId,omitempty"`

	UseTreatmentPackage bool   `json:"useTreatmentPackage,omitempty"`
	TreatmentPackageID  string `json:"treatmentPackageId,omitempty"`
	SessionNumber       int    `json:"sessionNumber,omitempty"`
}

// Technicians returns the assigned technicians. The deprecated single field
// counts as assigned even when TechnicianIDs disagrees with it.
func (s AppointmentService) Technicians() []string {
	if s.TechnicianID == "" || slices.Contains(s.TechnicianIDs, s.TechnicianID) {
		return s.TechnicianIDs
	}
	return append(slices.Clone(s.TechnicianIDs), s.TechnicianID)
}

// HasTechnician reports whether technicianID is assigned to this service.
func (s AppointmentService) HasTechnician(technicianID string) bool {
	return slices.Contains(s.Technicians(), technicianID)
}

// PackageLink identifies the package item consumed by a service line.
type PackageLink struct {
	PackageID     string
	SessionNumber int
	ProductID     string
}

// Link returns the package item this service consumes, if any.
func (s AppointmentService) Link() (PackageLink, bool) {
	if !s.UseTreatmentPackage || s.TreatmentPackageID == "" || s.SessionNumber <= 0 || s.ProductID == "" {
		return PackageLink{}, false
	}
	return PackageLink{
		PackageID:     s.TreatmentPackageID,
		SessionNumber: s.SessionNumber,
		ProductID:     s.ProductID,
	}, true
}

type Appointment struct {
	ID              string               `json:"id"`
	Code            string               `json:"code"`
	CustomerID      string               `json:"customerId"`
	AppointmentDate string               `json:"appointmentDate"` // YYYY-MM-DD
	StartTime       string               `json:"startTime"`       // HH:MM
	EndTime         string               `json:"endTime"`         // HH:MM
	Services        []AppointmentService `json:"services"`
	Status          AppointmentStatus    `json:"status"`
	Notes           string               `json:"notes,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func (a *Appointment) Clone() *Appointment {
	c := *a
	c.Services = make([]AppointmentService, len(a.Services))
	for i, s := range a.Services {
		s.TechnicianIDs = slices.Clone(s.TechnicianIDs)
		c.Services[i] = s
	}
	return &c
}

// Technicians returns the distinct technicians across all services, in
// first-seen order.
func (a *Appointment) Technicians() []string {
	var out []string
	for _, s := range a.Services {
		for _, t := range s.Technicians() {
			if t != "" && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// PackageLinks returns the package items consumed by this appointment.
func (a *Appointment) PackageLinks() []PackageLink {
	var out []PackageLink
	for _, s := range a.Services {
		if l, ok := s.Link(); ok {
			out = append(out, l)
		}
	}
	return out
}
