package order

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/spa_backend/internal/service/catalog"
	"github.com/Alijeyrad/spa_backend/internal/service/customer"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/reqctx"
	"github.com/Alijeyrad/spa_backend/pkg/util/codes"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type LineItem struct {
	ProductID string
	Quantity  int
	// UnitPrice overrides the catalog price when set.
	UnitPrice *decimal.Decimal
}

type CompleteRequest struct {
	Customer customer.ResolveRequest
	Items    []LineItem
}

// Receipt is the result of completing an order.
type Receipt struct {
	Order           *store.Order              `json:"order"`
	Customer        *store.Customer           `json:"customer"`
	Packages        []*store.TreatmentPackage `json:"packages"`
	CustomerCreated bool                      `json:"customerCreated"`
}

type Config struct {
	CodePrefix string
	CodeDigits int
	// Region parses customer phones written without a country prefix.
	Region string
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Complete records an order, decrements stock for every line and creates
	// one treatment package per purchased unit of every treatment line.
	Complete(ctx context.Context, req CompleteRequest) (*Receipt, error)
	// PurchaseTreatment creates quantity packages for an order recorded
	// elsewhere. Stock is left alone.
	PurchaseTreatment(ctx context.Context, customerID, productID string, quantity int, orderID string) ([]*store.TreatmentPackage, error)

	GetByID(ctx context.Context, orderID string) (*store.Order, error)
	ListForCustomer(ctx context.Context, customerID string) []*store.Order
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type orderService struct {
	db  *store.Store
	cfg Config
	seq codes.Sequence
	log *slog.Logger
}

func New(db *store.Store, cfg Config, log *slog.Logger) Service {
	seq, err := codes.NewSequence(cfg.CodePrefix, cfg.CodeDigits)
	if err != nil {
		seq = codes.Sequence{Prefix: codes.OrderPrefix, Digits: codes.DefaultDigits}
	}
	return &orderService{db: db, cfg: cfg, seq: seq, log: log}
}

func (s *orderService) Complete(ctx context.Context, req CompleteRequest) (*Receipt, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, it.ProductID)
		}
	}

	var (
		receipt  *Receipt
		negative []string
	)
	err := s.db.Write(ctx, func(st *store.State) error {
		now := time.Now().UTC()

		items := make([]store.OrderItem, 0, len(req.Items))
		total := decimal.Zero
		for _, it := range req.Items {
			p, ok := st.Products[it.ProductID]
			if !ok {
				return fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
			}
			price := p.Price
			if it.UnitPrice != nil {
				price = *it.UnitPrice
			}
			items = append(items, store.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				ProductType: p.Type,
				Quantity:    it.Quantity,
				UnitPrice:   price,
			})
			total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}

		c, created, err := customer.Resolve(st, req.Customer, s.cfg.Region, now)
		if err != nil {
			return err
		}

		o := &store.Order{
			ID:         uuid.NewString(),
			CustomerID: c.ID,
			Items:      items,
			Total:      total,
			CreatedAt:  now,
		}

		pkgs, err := createPackages(st, o, now)
		if err != nil {
			if created {
				delete(st.Customers, c.ID)
			}
			return err
		}

		for _, it := range items {
			p := st.Products[it.ProductID]
			if err := catalog.ApplyStock(p, catalog.StockSale, it.Quantity); err != nil {
				return err
			}
			p.UpdatedAt = now
			if p.Stock < 0 {
				negative = append(negative, p.ID)
			}
		}

		code, n := s.seq.Next(st.OrderCodeSeq, st.OrderCodes())
		o.Code = code
		st.OrderCodeSeq = n
		st.Orders[o.ID] = o

		cp := *c
		receipt = &Receipt{Order: o.Clone(), Customer: &cp, CustomerCreated: created}
		for _, p := range pkgs {
			receipt.Packages = append(receipt.Packages, p.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete order: %w", err)
	}

	s.log.With(reqctx.LogAttrs(ctx)...).Info("order completed",
		"order_id", receipt.Order.ID,
		"code", receipt.Order.Code,
		"customer_id", receipt.Customer.ID,
		"packages", len(receipt.Packages),
		"total", receipt.Order.Total.String(),
	)
	for _, id := range negative {
		s.log.Warn("product stock is negative", "product_id", id)
	}
	return receipt, nil
}

// createPackages births one package per unit of every treatment line. On
// failure the packages created so far are removed again.
func createPackages(st *store.State, o *store.Order, now time.Time) ([]*store.TreatmentPackage, error) {
	var pkgs []*store.TreatmentPackage
	for _, it := range o.Items {
		if it.ProductType != store.ProductTypeTreatment {
			continue
		}
		for range it.Quantity {
			p, err := treatment.Create(st, treatment.CreatePackageRequest{
				CustomerID:         o.CustomerID,
				TreatmentProductID: it.ProductID,
				OrderID:            o.ID,
			}, now)
			if err != nil {
				for _, done := range pkgs {
					delete(st.Packages, done.ID)
				}
				return nil, fmt.Errorf("create package for %s: %w", it.ProductID, err)
			}
			pkgs = append(pkgs, p)
			o.PackageIDs = append(o.PackageIDs, p.ID)
		}
	}
	return pkgs, nil
}

func (s *orderService) PurchaseTreatment(ctx context.Context, customerID, productID string, quantity int, orderID string) ([]*store.TreatmentPackage, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var out []*store.TreatmentPackage
	err := s.db.Write(ctx, func(st *store.State) error {
		if _, ok := st.Customers[customerID]; !ok {
			return customer.ErrNotFound
		}
		p, ok := st.Products[productID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		o := &store.Order{
			ID:         orderID,
			CustomerID: customerID,
			Items:      []store.OrderItem{{ProductID: p.ID, ProductName: p.Name, ProductType: p.Type, Quantity: quantity}},
		}
		pkgs, err := createPackages(st, o, time.Now().UTC())
		if err != nil {
			return err
		}
		if existing, ok := st.Orders[orderID]; ok {
			existing.PackageIDs = append(existing.PackageIDs, o.PackageIDs...)
		}
		for _, pkg := range pkgs {
			out = append(out, pkg.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purchase treatment: %w", err)
	}
	return out, nil
}

func (s *orderService) GetByID(ctx context.Context, orderID string) (*store.Order, error) {
	var out *store.Order
	s.db.Read(func(st *store.State) {
		if o, ok := st.Orders[orderID]; ok {
			out = o.Clone()
		}
	})
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *orderService) ListForCustomer(ctx context.Context, customerID string) []*store.Order {
	var out []*store.Order
	s.db.Read(func(st *store.State) {
		for _, o := range st.Orders {
			if o.CustomerID == customerID {
				out = append(out, o.Clone())
			}
		}
	})
	slices.SortFunc(out, func(a, b *store.Order) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.Code, b.Code))
	})
	return out
}
