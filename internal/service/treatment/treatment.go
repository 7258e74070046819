package treatment

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreatePackageRequest struct {
	CustomerID         string
	TreatmentProductID string
	OrderID            string
	// SessionDetails overrides the catalog template when non-nil.
	SessionDetails []store.SessionDetail
	// TotalSessions overrides the catalog session count when positive.
	TotalSessions int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	CreatePackage(ctx context.Context, req CreatePackageRequest) (*store.TreatmentPackage, error)
	ConsumeItem(ctx context.Context, packageID string, sessionNumber int, productID string) error
	ReturnItem(ctx context.Context, packageID string, sessionNumber int, productID string) error

	GetByID(ctx context.Context, packageID string) (*store.TreatmentPackage, error)
	ListForCustomer(ctx context.Context, customerID string) []*store.TreatmentPackage
	ListActiveForCustomer(ctx context.Context, customerID string) []*store.TreatmentPackage
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type treatmentService struct {
	db  *store.Store
	log *slog.Logger
}

func New(db *store.Store, log *slog.Logger) Service {
	return &treatmentService{db: db, log: log}
}

func (s *treatmentService) CreatePackage(ctx context.Context, req CreatePackageRequest) (*store.TreatmentPackage, error) {
	var pkg *store.TreatmentPackage
	err := s.db.Write(ctx, func(st *store.State) error {
		p, err := Create(st, req, time.Now().UTC())
		if err != nil {
			return err
		}
		pkg = p.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create treatment package: %w", err)
	}
	s.log.With(reqctx.LogAttrs(ctx)...).Info("treatment package created",
		"package_id", pkg.ID,
		"customer_id", pkg.CustomerID,
		"treatment_id", pkg.TreatmentProductID,
		"sessions", pkg.TotalSessions,
	)
	return pkg, nil
}

// ConsumeItem is a silent no-op for unknown packages, out-of-range sessions
// and already used items.
func (s *treatmentService) ConsumeItem(ctx context.Context, packageID string, sessionNumber int, productID string) error {
	return s.db.Write(ctx, func(st *store.State) error {
		if Consume(st, store.PackageLink{PackageID: packageID, SessionNumber: sessionNumber, ProductID: productID}) {
			s.log.Debug("package item consumed", "package_id", packageID, "session", sessionNumber, "product_id", productID)
		}
		return nil
	})
}

// ReturnItem is a silent no-op for unknown packages and unused items.
func (s *treatmentService) ReturnItem(ctx context.Context, packageID string, sessionNumber int, productID string) error {
	return s.db.Write(ctx, func(st *store.State) error {
		if Return(st, store.PackageLink{PackageID: packageID, SessionNumber: sessionNumber, ProductID: productID}) {
			s.log.Debug("package item returned", "package_id", packageID, "session", sessionNumber, "product_id", productID)
		}
		return nil
	})
}

func (s *treatmentService) GetByID(ctx context.Context, packageID string) (*store.TreatmentPackage, error) {
	var pkg *store.TreatmentPackage
	s.db.Read(func(st *store.State) {
		if p, ok := st.Packages[packageID]; ok {
			pkg = p.Clone()
		}
	})
	if pkg == nil {
		return nil, ErrNotFound
	}
	return pkg, nil
}

func (s *treatmentService) ListForCustomer(ctx context.Context, customerID string) []*store.TreatmentPackage {
	return s.list(func(p *store.TreatmentPackage) bool { return p.CustomerID == customerID })
}

func (s *treatmentService) ListActiveForCustomer(ctx context.Context, customerID string) []*store.TreatmentPackage {
	return s.list(func(p *store.TreatmentPackage) bool {
		return p.CustomerID == customerID && p.IsActive && p.RemainingSessions > 0
	})
}

func (s *treatmentService) list(keep func(*store.TreatmentPackage) bool) []*store.TreatmentPackage {
	var out []*store.TreatmentPackage
	s.db.Read(func(st *store.State) {
		for _, p := range st.Packages {
			if keep(p) {
				out = append(out, p.Clone())
			}
		}
	})
	slices.SortFunc(out, func(a, b *store.TreatmentPackage) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// ---------------------------------------------------------------------------
// State operations, used inside other services' writes
// ---------------------------------------------------------------------------

// Create expands the treatment's session template into a new package and
// stores it. Names and durations are copied from the catalog so later catalog
// edits do not alter a sold package.
func Create(st *store.State, req CreatePackageRequest, now time.Time) (*store.TreatmentPackage, error) {
	treatment, ok := st.Products[req.TreatmentProductID]
	if !ok {
		return nil, ErrProductNotFound
	}
	if treatment.Type != store.ProductTypeTreatment {
		return nil, ErrNotTreatment
	}

	details := req.SessionDetails
	if details == nil {
		details = treatment.SessionDetails
	}
	total := req.TotalSessions
	if total <= 0 {
		total = treatment.Sessions
	}

	sessions := expandSessions(st, treatment, details, total)
	if len(sessions) == 0 {
		return nil, ErrInvalidSessions
	}

	pkg := &store.TreatmentPackage{
		ID:                 uuid.NewString(),
		CustomerID:         req.CustomerID,
		TreatmentProductID: treatment.ID,
		OrderID:            req.OrderID,
		TotalSessions:      len(sessions),
		Sessions:           sessions,
		UsedSessionItems:   map[int][]string{},
		RemainingSessions:  len(sessions),
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	st.Packages[pkg.ID] = pkg
	return pkg, nil
}

// expandSessions numbers sessions densely from 1 in template order, one per
// template entry. An entry without items holds the treatment's base service.
// A template shorter than total is padded with base-service sessions; a
// longer one raises the total.
func expandSessions(st *store.State, treatment *store.Product, details []store.SessionDetail, total int) []store.TreatmentSession {
	ordered := slices.Clone(details)
	slices.SortStableFunc(ordered, func(a, b store.SessionDetail) int {
		return cmp.Compare(a.SessionNumber, b.SessionNumber)
	})

	var sessions []store.TreatmentSession
	for _, d := range ordered {
		n := len(sessions) + 1
		items := expandItems(st, d)
		if len(items) == 0 {
			items = []store.TreatmentSessionItem{baseItem(treatment)}
		}
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("Session %d", n)
		}
		sessions = append(sessions, store.TreatmentSession{SessionNumber: n, SessionName: name, Items: items})
	}

	for len(sessions) < total {
		n := len(sessions) + 1
		sessions = append(sessions, store.TreatmentSession{
			SessionNumber: n,
			SessionName:   fmt.Sprintf("Session %d", n),
			Items:         []store.TreatmentSessionItem{baseItem(treatment)},
		})
	}
	return sessions
}

func baseItem(treatment *store.Product) store.TreatmentSessionItem {
	return store.TreatmentSessionItem{
		ProductID:   treatment.ID,
		ProductName: treatment.Name,
		ProductType: store.SessionItemService,
		Quantity:    1,
		Duration:    treatment.Duration,
	}
}

// expandItems lists products then services. Repeated product IDs are merged
// into one line with the summed quantity, so each template line is a distinct
// product and a session is fully used once every line is used.
func expandItems(st *store.State, d store.SessionDetail) []store.TreatmentSessionItem {
	var items []store.TreatmentSessionItem
	add := func(ref store.SessionDetailRef, typ store.SessionItemType) {
		if ref.ProductID == "" {
			return
		}
		qty := max(ref.Quantity, 1)
		if i := slices.IndexFunc(items, func(it store.TreatmentSessionItem) bool { return it.ProductID == ref.ProductID }); i >= 0 {
			items[i].Quantity += qty
			return
		}
		item := store.TreatmentSessionItem{
			ProductID:   ref.ProductID,
			ProductName: ref.ProductID,
			ProductType: typ,
			Quantity:    qty,
		}
		if p, ok := st.Products[ref.ProductID]; ok {
			item.ProductName = p.Name
			item.Duration = p.Duration
		}
		items = append(items, item)
	}
	for _, ref := range d.Products {
		add(ref, store.SessionItemProduct)
	}
	for _, ref := range d.Services {
		add(ref, store.SessionItemService)
	}
	return items
}

// Consume marks a package item used. It reports whether the package changed.
func Consume(st *store.State, l store.PackageLink) bool {
	p, ok := st.Packages[l.PackageID]
	if !ok || !p.ConsumeItem(l.SessionNumber, l.ProductID) {
		return false
	}
	p.UpdatedAt = time.Now().UTC()
	return true
}

// Return reverses Consume. It reports whether the package changed.
func Return(st *store.State, l store.PackageLink) bool {
	p, ok := st.Packages[l.PackageID]
	if !ok || !p.ReturnItem(l.SessionNumber, l.ProductID) {
		return false
	}
	p.UpdatedAt = time.Now().UTC()
	return true
}

// ValidateLink checks that l points at an unused item of a package owned by
// customerID.
func ValidateLink(st *store.State, l store.PackageLink, customerID string) error {
	p, ok := st.Packages[l.PackageID]
	if !ok {
		return ErrNotFound
	}
	if customerID != "" && p.CustomerID != customerID {
		return ErrPackageOwner
	}
	s, ok := p.Session(l.SessionNumber)
	if !ok || !s.HasProduct(l.ProductID) {
		return ErrInvalidLink
	}
	if p.IsItemUsed(l.SessionNumber, l.ProductID) {
		return ErrPackageItemInUse
	}
	return nil
}
