package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/spa_backend/config"
	"github.com/Alijeyrad/spa_backend/internal/api/http/router"
	"github.com/Alijeyrad/spa_backend/internal/service/appointment"
	"github.com/Alijeyrad/spa_backend/internal/service/catalog"
	"github.com/Alijeyrad/spa_backend/internal/service/customer"
	"github.com/Alijeyrad/spa_backend/internal/service/notification"
	"github.com/Alijeyrad/spa_backend/internal/service/order"
	"github.com/Alijeyrad/spa_backend/internal/service/scheduling"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

type staff struct{ id, role string }

var (
	manager      = staff{"mgr-1", "manager"}
	receptionist = staff{"rec-1", "receptionist"}
	technician   = staff{"tech-1", "technician"}
	anonymous    = staff{}
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := &config.Config{
		Server:        config.ServerConfig{Port: 8080, Environment: "test"},
		Authorization: config.AuthorizationConfig{Enabled: true},
		Customers:     config.CustomersConfig{DefaultRegion: "US"},
	}
	policy, err := authorize.FromCentralConfig(cfg.Authorization)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := store.New(store.WithLogger(log))
	notif := notification.New(nil, "spa", log)

	r := router.NewRouter(router.Params{
		Cfg:             cfg,
		Auth:            policy,
		CatalogSvc:      catalog.New(db, log),
		CustomerSvc:     customer.New(db, "US", log),
		OrderSvc:        order.New(db, order.Config{Region: "US"}, log),
		TreatmentSvc:    treatment.New(db, log),
		SchedulingSvc:   scheduling.New(db),
		AppointmentSvc:  appointment.New(db, notif, appointment.Config{EnforceConflicts: true}, log),
		NotificationSvc: notif,
	})

	app := NewApp(cfg, nil, false)
	r.Register(app)
	return app
}

// call sends a JSON request as who and returns the status and the "data"
// member of the response.
func call(t *testing.T, app *fiber.App, who staff, method, path string, body any) (int, json.RawMessage) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if who.id != "" {
		req.Header.Set("X-Staff-Id", who.id)
		req.Header.Set("X-Staff-Role", who.role)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env.Data
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

type idOnly struct {
	ID string `json:"id"`
}

func TestAPI_PackageSaleBookingAndCancellation(t *testing.T) {
	app := newTestApp(t)

	status, raw := call(t, app, manager, "POST", "/api/v1/products", fiber.Map{
		"name": "Hot stone massage", "type": "service", "price": "200000", "duration": 30,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create service status = %d", status)
	}
	massage := decode[idOnly](t, raw)

	status, raw = call(t, app, manager, "POST", "/api/v1/products", fiber.Map{
		"name": "Relax course", "type": "treatment", "price": "1500000", "sessions": 1,
		"sessionDetails": []fiber.Map{{
			"sessionNumber": 1,
			"services":      []fiber.Map{{"productId": massage.ID, "quantity": 1}},
		}},
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create treatment status = %d", status)
	}
	course := decode[idOnly](t, raw)

	status, raw = call(t, app, receptionist, "POST", "/api/v1/orders", fiber.Map{
		"customer": fiber.Map{"name": "Mai", "phone": "(650) 253-0000"},
		"items":    []fiber.Map{{"productId": course.ID, "quantity": 1}},
	})
	if status != fiber.StatusCreated {
		t.Fatalf("complete order status = %d", status)
	}
	receipt := decode[struct {
		Customer idOnly   `json:"customer"`
		Packages []idOnly `json:"packages"`
	}](t, raw)
	if len(receipt.Packages) != 1 {
		t.Fatalf("packages = %d, want 1", len(receipt.Packages))
	}
	pkgID := receipt.Packages[0].ID

	booking := func(start string, line fiber.Map) fiber.Map {
		return fiber.Map{
			"customerId":      receipt.Customer.ID,
			"appointmentDate": "2026-03-02",
			"startTime":       start,
			"services":        []fiber.Map{line},
		}
	}

	status, raw = call(t, app, receptionist, "POST", "/api/v1/appointments", booking("10:00", fiber.Map{
		"productId": massage.ID, "technicianIds": []string{"tech-1"}, "bedId": "B1",
		"useTreatmentPackage": true, "treatmentPackageId": pkgID, "sessionNumber": 1,
	}))
	if status != fiber.StatusCreated {
		t.Fatalf("create appointment status = %d", status)
	}
	appt := decode[struct {
		ID      string `json:"id"`
		Code    string `json:"code"`
		EndTime string `json:"endTime"`
	}](t, raw)
	if appt.Code != "LH000001" || appt.EndTime != "10:30" {
		t.Errorf("appointment code/end = %s/%s, want LH000001/10:30", appt.Code, appt.EndTime)
	}

	type pkgView struct {
		RemainingSessions int  `json:"remainingSessions"`
		IsActive          bool `json:"isActive"`
	}
	_, raw = call(t, app, receptionist, "GET", "/api/v1/packages/"+pkgID, nil)
	if p := decode[pkgView](t, raw); p.RemainingSessions != 0 || p.IsActive {
		t.Errorf("after booking package = %+v, want exhausted", p)
	}

	status, _ = call(t, app, receptionist, "POST", "/api/v1/appointments", booking("10:15", fiber.Map{
		"productId": massage.ID, "technicianIds": []string{"tech-1"},
	}))
	if status != fiber.StatusConflict {
		t.Errorf("double-booked technician status = %d, want 409", status)
	}

	status, raw = call(t, app, technician, "GET", "/api/v1/notifications", nil)
	if status != fiber.StatusOK || len(decode[[]idOnly](t, raw)) != 1 {
		t.Errorf("technician notifications status = %d body = %s", status, raw)
	}

	status, _ = call(t, app, technician, "PATCH", "/api/v1/appointments/"+appt.ID+"/status", fiber.Map{"status": "cancelled"})
	if status != fiber.StatusForbidden {
		t.Errorf("technician cancel status = %d, want 403", status)
	}
	status, _ = call(t, app, receptionist, "PATCH", "/api/v1/appointments/"+appt.ID+"/status", fiber.Map{"status": "cancelled"})
	if status != fiber.StatusOK {
		t.Fatalf("receptionist cancel status = %d", status)
	}

	_, raw = call(t, app, receptionist, "GET", "/api/v1/packages/"+pkgID, nil)
	if p := decode[pkgView](t, raw); p.RemainingSessions != 1 || !p.IsActive {
		t.Errorf("after cancel package = %+v, want one session back", p)
	}

	status, raw = call(t, app, technician, "GET", "/api/v1/availability/technicians/tech-1?date=2026-03-02&start=10:00&duration=30", nil)
	if status != fiber.StatusOK || decode[struct{ Busy bool }](t, raw).Busy {
		t.Errorf("availability after cancel status = %d body = %s", status, raw)
	}
}

func TestAPI_AccessAndValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		who    staff
		method string
		path   string
		body   any
		want   int
	}{
		{"anonymous", anonymous, "GET", "/api/v1/products", nil, fiber.StatusUnauthorized},
		{"technician cannot create products", technician, "POST", "/api/v1/products", fiber.Map{"name": "x", "type": "product"}, fiber.StatusForbidden},
		{"unknown role", staff{"x", "janitor"}, "GET", "/api/v1/appointments", nil, fiber.StatusForbidden},
		{"invalid product type", manager, "POST", "/api/v1/products", fiber.Map{"name": "x", "type": "gift"}, fiber.StatusBadRequest},
		{"empty appointment", receptionist, "POST", "/api/v1/appointments", fiber.Map{}, fiber.StatusBadRequest},
		{"bad status filter", receptionist, "GET", "/api/v1/appointments?status=done", nil, fiber.StatusBadRequest},
		{"missing appointment", receptionist, "GET", "/api/v1/appointments/nope", nil, fiber.StatusNotFound},
		{"missing package", receptionist, "GET", "/api/v1/packages/nope", nil, fiber.StatusNotFound},
		{"bookings need a date", technician, "GET", "/api/v1/availability/beds/B1/bookings", nil, fiber.StatusBadRequest},
		{"liveness", anonymous, "GET", "/livez", nil, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := call(t, app, tt.who, tt.method, tt.path, tt.body); status != tt.want {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, status, tt.want)
			}
		})
	}
}
