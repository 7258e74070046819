package customer

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// ResolveRequest identifies a customer by id, or by phone when the id is
// empty. Unknown phones create a new customer named Name.
type ResolveRequest struct {
	CustomerID string `json:"customerId"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Resolve(ctx context.Context, req ResolveRequest) (*store.Customer, error)
	GetByID(ctx context.Context, customerID string) (*store.Customer, error)
	FindByPhone(ctx context.Context, phone string) (*store.Customer, error)
	List(ctx context.Context, search string) []*store.Customer
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type customerService struct {
	db     *store.Store
	region string
	log    *slog.Logger
}

// New builds the customer directory. region is the ISO country code used to
// parse phone numbers written without an international prefix.
func New(db *store.Store, region string, log *slog.Logger) Service {
	return &customerService{db: db, region: region, log: log}
}

func (s *customerService) Resolve(ctx context.Context, req ResolveRequest) (*store.Customer, error) {
	var (
		out     *store.Customer
		created bool
	)
	err := s.db.Write(ctx, func(st *store.State) error {
		c, isNew, err := Resolve(st, req, s.region, time.Now().UTC())
		if err != nil {
			return err
		}
		cp := *c
		out, created = &cp, isNew
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve customer: %w", err)
	}
	if created {
		s.log.With(reqctx.LogAttrs(ctx)...).Info("customer created", "customer_id", out.ID)
	}
	return out, nil
}

func (s *customerService) GetByID(ctx context.Context, customerID string) (*store.Customer, error) {
	var out *store.Customer
	s.db.Read(func(st *store.State) {
		if c, ok := st.Customers[customerID]; ok {
			cp := *c
			out = &cp
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *customerService) FindByPhone(ctx context.Context, phone string) (*store.Customer, error) {
	e164, err := NormalizePhone(phone, s.region)
	if err != nil {
		return nil, err
	}
	var out *store.Customer
	s.db.Read(func(st *store.State) {
		if c := findByPhone(st, e164); c != nil {
			cp := *c
			out = &cp
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *customerService) List(ctx context.Context, search string) []*store.Customer {
	search = strings.ToLower(strings.TrimSpace(search))

	var out []*store.Customer
	s.db.Read(func(st *store.State) {
		for _, c := range st.Customers {
			if search != "" && !strings.Contains(strings.ToLower(c.Name), search) && !strings.Contains(c.Phone, search) {
				continue
			}
			cp := *c
			out = append(out, &cp)
		}
	})
	slices.SortFunc(out, func(a, b *store.Customer) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// ---------------------------------------------------------------------------
// State-level operations
// ---------------------------------------------------------------------------

// Resolve finds or creates the customer described by req inside a write. It
// reports whether a customer was created.
func Resolve(st *store.State, req ResolveRequest, region string, now time.Time) (*store.Customer, bool, error) {
	if req.CustomerID != "" {
		c, ok := st.Customers[req.CustomerID]
		if !ok {
			return nil, false, ErrNotFound
		}
		return c, false, nil
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, false, ErrPhoneRequired
	}

	e164, err := NormalizePhone(req.Phone, region)
	if err != nil {
		return nil, false, err
	}
	if c := findByPhone(st, e164); c != nil {
		if c.Name == "" && req.Name != "" {
			c.Name = strings.TrimSpace(req.Name)
			c.UpdatedAt = now
		}
		return c, false, nil
	}

	c := &store.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Phone:     e164,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.Customers[c.ID] = c
	return c, true, nil
}

// NormalizePhone parses raw in region and returns it in E.164 form.
func NormalizePhone(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func findByPhone(st *store.State, e164 string) *store.Customer {
	for _, c := range st.Customers {
		if c.Phone == e164 {
			return c
		}
	}
	return nil
}
