package catalog

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/spa_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UpsertRequest struct {
	ID             string // empty creates a new product
	Name           string
	Type           store.ProductType
	Price          decimal.Decimal
	Duration       int
	Stock          int
	Sessions       int
	SessionDetails []store.SessionDetail
}

type ListRequest struct {
	Type   *store.ProductType
	Search string
}

// StockChange is the reason stock moves.
type StockChange string

const (
	// StockSale may drive stock negative; that signals a restock.
	StockSale StockChange = "sale"
	// StockReceipt and StockReturn never take stock below zero.
	StockReceipt StockChange = "receipt"
	StockReturn  StockChange = "return"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Upsert(ctx context.Context, req UpsertRequest) (*store.Product, error)
	GetByID(ctx context.Context, productID string) (*store.Product, error)
	List(ctx context.Context, req ListRequest) []*store.Product
	AdjustStock(ctx context.Context, productID string, change StockChange, delta int) (*store.Product, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type catalogService struct {
	db  *store.Store
	log *slog.Logger
}

func New(db *store.Store, log *slog.Logger) Service {
	return &catalogService{db: db, log: log}
}

func (s *catalogService) Upsert(ctx context.Context, req UpsertRequest) (*store.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var out *store.Product
	err := s.db.Write(ctx, func(st *store.State) error {
		if err := validateSessionRefs(st, req); err != nil {
			return err
		}
		id := req.ID
		if id == "" {
			id = uuid.NewString()
		}
		p := &store.Product{
			ID:             id,
			Name:           strings.TrimSpace(req.Name),
			Type:           req.Type,
			Price:          req.Price,
			Duration:       req.Duration,
			Stock:          req.Stock,
			Sessions:       req.Sessions,
			SessionDetails: req.SessionDetails,
			UpdatedAt:      time.Now().UTC(),
		}
		if p.Type == store.ProductTypeTreatment && p.Sessions == 0 {
			p.Sessions = len(p.SessionDetails)
		}
		st.Products[id] = p.Clone()
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert product: %w", err)
	}
	return out, nil
}

func (s *catalogService) GetByID(ctx context.Context, productID string) (*store.Product, error) {
	var out *store.Product
	s.db.Read(func(st *store.State) {
		if p, ok := st.Products[productID]; ok {
			out = p.Clone()
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *catalogService) List(ctx context.Context, req ListRequest) []*store.Product {
	search := strings.ToLower(strings.TrimSpace(req.Search))

	var out []*store.Product
	s.db.Read(func(st *store.State) {
		for _, p := range st.Products {
			if req.Type != nil && p.Type != *req.Type {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
				continue
			}
			out = append(out, p.Clone())
		}
	})
	slices.SortFunc(out, func(a, b *store.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (s *catalogService) AdjustStock(ctx context.Context, productID string, change StockChange, delta int) (*store.Product, error) {
	var out *store.Product
	err := s.db.Write(ctx, func(st *store.State) error {
		p, ok := st.Products[productID]
		if !ok {
			return ErrNotFound
		}
		if err := ApplyStock(p, change, delta); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	if out.Stock < 0 {
		s.log.Warn("product stock is negative", "product_id", productID, "stock", out.Stock)
	}
	return out, nil
}

// ApplyStock moves p's stock. A sale subtracts delta with no floor; a receipt
// adds delta and a return subtracts it, both clamped at zero.
func ApplyStock(p *store.Product, change StockChange, delta int) error {
	if delta < 0 {
		return fmt.Errorf("%w: negative quantity %d", ErrInvalidStockChange, delta)
	}
	switch change {
	case StockSale:
		p.Stock -= delta
	case StockReceipt:
		p.Stock = max(p.Stock+delta, 0)
	case StockReturn:
		p.Stock = max(p.Stock-delta, 0)
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStockChange, change)
	}
	return nil
}

func validate(req UpsertRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	switch req.Type {
	case store.ProductTypeProduct, store.ProductTypeService, store.ProductTypeTreatment:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidProduct, req.Type)
	}
	if req.Price.IsNegative() || req.Duration < 0 || req.Sessions < 0 {
		return fmt.Errorf("%w: price, duration and sessions must not be negative", ErrInvalidProduct)
	}
	if req.Type != store.ProductTypeTreatment && (req.Sessions > 0 || len(req.SessionDetails) > 0) {
		return fmt.Errorf("%w: only treatments have sessions", ErrInvalidProduct)
	}
	return nil
}

// validateSessionRefs checks that every session item points at a product or
// service in the catalog.
func validateSessionRefs(st *store.State, req UpsertRequest) error {
	for _, d := range req.SessionDetails {
		if d.SessionNumber < 1 {
			return fmt.Errorf("%w: session number %d", ErrInvalidProduct, d.SessionNumber)
		}
		for _, ref := range slices.Concat(d.Products, d.Services) {
			p, ok := st.Products[ref.ProductID]
			if !ok || p.Type == store.ProductTypeTreatment {
				return fmt.Errorf("%w: session %d references %q", ErrInvalidProduct, d.SessionNumber, ref.ProductID)
			}
		}
	}
	return nil
}
