package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/spa_backend/internal/store"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	return New(store.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestApplyStock(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		change  StockChange
		delta   int
		want    int
		wantErr bool
	}{
		{"sale", 5, StockSale, 3, 2, false},
		{"sale below zero is allowed", 1, StockSale, 4, -3, false},
		{"receipt", -3, StockReceipt, 2, 0, false},
		{"receipt restocks", -3, StockReceipt, 10, 7, false},
		{"return clamps at zero", 2, StockReturn, 5, 0, false},
		{"return", 9, StockReturn, 4, 5, false},
		{"negative delta", 5, StockSale, -1, 5, true},
		{"unknown kind", 5, "theft", 1, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &store.Product{Stock: tt.start}
			err := ApplyStock(p, tt.change, tt.delta)
			if tt.wantErr != (err != nil) {
				t.Fatalf("ApplyStock err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidStockChange) {
				t.Errorf("ApplyStock err = %v, want ErrInvalidStockChange", err)
			}
			if p.Stock != tt.want {
				t.Errorf("Stock = %d, want %d", p.Stock, tt.want)
			}
		})
	}
}

func TestUpsertAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	serum, err := svc.Upsert(ctx, UpsertRequest{Name: "Serum", Type: store.ProductTypeProduct, Price: decimal.RequireFromString("150000"), Stock: 10})
	if err != nil {
		t.Fatalf("Upsert serum: %v", err)
	}
	massage, err := svc.Upsert(ctx, UpsertRequest{ID: "massage", Name: "Massage", Type: store.ProductTypeService, Duration: 60})
	if err != nil {
		t.Fatalf("Upsert massage: %v", err)
	}

	course, err := svc.Upsert(ctx, UpsertRequest{
		Name: "Body course",
		Type: store.ProductTypeTreatment,
		SessionDetails: []store.SessionDetail{
			{SessionNumber: 1, Products: []store.SessionDetailRef{{ProductID: serum.ID, Quantity: 1}}, Services: []store.SessionDetailRef{{ProductID: massage.ID, Quantity: 1}}},
			{SessionNumber: 2, Services: []store.SessionDetailRef{{ProductID: massage.ID, Quantity: 1}}},
		},
	})
	if err != nil {
		t.Fatalf("Upsert course: %v", err)
	}
	if course.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2 derived from details", course.Sessions)
	}

	treatments := store.ProductTypeTreatment
	if got := svc.List(ctx, ListRequest{Type: &treatments}); len(got) != 1 || got[0].ID != course.ID {
		t.Errorf("List(treatment) = %+v", got)
	}
	if got := svc.List(ctx, ListRequest{Search: "MASS"}); len(got) != 1 || got[0].ID != "massage" {
		t.Errorf("List(search) = %+v", got)
	}
	if got := svc.List(ctx, ListRequest{}); len(got) != 3 || got[0].Name != "Body course" {
		t.Errorf("List() = %d products, first %q", len(got), got[0].Name)
	}

	renamed, err := svc.Upsert(ctx, UpsertRequest{ID: "massage", Name: "Hot stone massage", Type: store.ProductTypeService, Duration: 90})
	if err != nil {
		t.Fatalf("Upsert rename: %v", err)
	}
	if got, _ := svc.GetByID(ctx, "massage"); got.Name != renamed.Name || got.Duration != 90 {
		t.Errorf("GetByID after upsert = %+v", got)
	}
}

func TestUpsert_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  UpsertRequest
	}{
		{"no name", UpsertRequest{Type: store.ProductTypeProduct}},
		{"unknown type", UpsertRequest{Name: "x", Type: "voucher"}},
		{"negative price", UpsertRequest{Name: "x", Type: store.ProductTypeProduct, Price: decimal.NewFromInt(-1)}},
		{"sessions on a service", UpsertRequest{Name: "x", Type: store.ProductTypeService, Sessions: 3}},
		{"dangling session ref", UpsertRequest{Name: "x", Type: store.ProductTypeTreatment, SessionDetails: []store.SessionDetail{{SessionNumber: 1, Services: []store.SessionDetailRef{{ProductID: "ghost"}}}}}},
		{"zero session number", UpsertRequest{Name: "x", Type: store.ProductTypeTreatment, SessionDetails: []store.SessionDetail{{SessionNumber: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Upsert(ctx, tt.req); !errors.Is(err, ErrInvalidProduct) {
				t.Errorf("Upsert err = %v, want ErrInvalidProduct", err)
			}
		})
	}
}

func TestAdjustStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Upsert(ctx, UpsertRequest{ID: "serum", Name: "Serum", Type: store.ProductTypeProduct, Stock: 1})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if p, err = svc.AdjustStock(ctx, p.ID, StockSale, 3); err != nil || p.Stock != -2 {
		t.Fatalf("AdjustStock sale = %+v, %v; want stock -2", p, err)
	}
	if p, err = svc.AdjustStock(ctx, p.ID, StockReturn, 1); err != nil || p.Stock != 0 {
		t.Fatalf("AdjustStock return = %+v, %v; want stock 0", p, err)
	}
	if _, err := svc.AdjustStock(ctx, "missing", StockReceipt, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("AdjustStock missing err = %v, want ErrNotFound", err)
	}
}
