package appointment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alijeyrad/spa_backend/internal/service/notification"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
	"github.com/Alijeyrad/spa_backend/internal/store"
)

const day = "2026-01-20"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.NotifyRequest
}

func (r *recordingNotifier) Notify(_ context.Context, req notification.NotifyRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, req)
}

func (r *recordingNotifier) take() []notification.NotifyRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

type fixture struct {
	svc      Service
	db       *store.Store
	notifier *recordingNotifier
	pkgID    string
}

// newFixture seeds a catalog, two customers and a facial package for cus-1:
// session 1 = {productY, serviceX}, session 2 = {prod-9}, session 3 = {serviceZ}.
func newFixture(t *testing.T, enforce bool) *fixture {
	t.Helper()
	db := store.New()
	f := &fixture{db: db, notifier: &recordingNotifier{}}

	err := db.Write(context.Background(), func(st *store.State) error {
		st.Customers["cus-1"] = &store.Customer{ID: "cus-1", Name: "Lan"}
		st.Customers["cus-2"] = &store.Customer{ID: "cus-2", Name: "Minh"}
		st.Products["serviceX"] = &store.Product{ID: "serviceX", Name: "Cleansing", Type: store.ProductTypeService, Duration: 30, Price: decimal.NewFromInt(200000)}
		st.Products["serviceZ"] = &store.Product{ID: "serviceZ", Name: "Massage", Type: store.ProductTypeService, Duration: 60, Price: decimal.NewFromInt(350000)}
		st.Products["productY"] = &store.Product{ID: "productY", Name: "Serum", Type: store.ProductTypeProduct}
		st.Products["prod-9"] = &store.Product{ID: "prod-9", Name: "Mask", Type: store.ProductTypeService, Duration: 20}
		st.Products["facial"] = &store.Product{
			ID:       "facial",
			Name:     "Facial course",
			Type:     store.ProductTypeTreatment,
			Sessions: 3,
			SessionDetails: []store.SessionDetail{
				{SessionNumber: 1, Products: []store.SessionDetailRef{{ProductID: "productY", Quantity: 1}}, Services: []store.SessionDetailRef{{ProductID: "serviceX", Quantity: 1}}},
				{SessionNumber: 2, Services: []store.SessionDetailRef{{ProductID: "prod-9", Quantity: 1}}},
				{SessionNumber: 3, Services: []store.SessionDetailRef{{ProductID: "serviceZ", Quantity: 1}}},
			},
		}
		p, err := treatment.Create(st, treatment.CreatePackageRequest{CustomerID: "cus-1", TreatmentProductID: "facial", OrderID: "ord-1"}, time.Now().UTC())
		if err != nil {
			return err
		}
		f.pkgID = p.ID
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	f.svc = New(db, f.notifier, Config{EnforceConflicts: enforce}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *fixture) pkg(t *testing.T) *store.TreatmentPackage {
	t.Helper()
	var p *store.TreatmentPackage
	f.db.Read(func(st *store.State) { p = st.Packages[f.pkgID].Clone() })
	return p
}

func (f *fixture) link(session int, productID string) store.AppointmentService {
	return store.AppointmentService{
		ProductID:           productID,
		UseTreatmentPackage: true,
		TreatmentPackageID:  f.pkgID,
		SessionNumber:       session,
	}
}

func booking(start string, services ...store.AppointmentService) CreateRequest {
	return CreateRequest{CustomerID: "cus-1", AppointmentDate: day, StartTime: start, Services: services}
}

func withTech(svc store.AppointmentService, techs ...string) store.AppointmentService {
	svc.TechnicianIDs = techs
	return svc
}

func TestCreate_AssignsCodesAndDerivesFields(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00",
		store.AppointmentService{ProductID: "serviceX"},
		store.AppointmentService{ProductID: "serviceZ", TechnicianID: "T"},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Code != "LH000001" {
		t.Errorf("Code = %q, want LH000001", a.Code)
	}
	if a.Status != store.StatusPending {
		t.Errorf("Status = %q, want pending", a.Status)
	}
	if a.EndTime != "10:30" {
		t.Errorf("EndTime = %q, want 10:30 (30+60 minutes)", a.EndTime)
	}
	if a.Services[0].Duration != 30 || !a.Services[0].Price.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("service defaults = %+v", a.Services[0])
	}
	if got := a.Services[1].TechnicianIDs; !reflect.DeepEqual(got, []string{"T"}) {
		t.Errorf("legacy technician folded = %v, want [T]", got)
	}
}

func TestCreate_CodesNeverReused(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	var ids []string
	for range 5 {
		a, err := f.svc.Create(ctx, booking("09:00", store.AppointmentService{ProductID: "serviceX"}))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, a.ID)
	}
	if err := f.svc.Delete(ctx, ids[2]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := f.svc.Delete(ctx, ids[4]); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	a, err := f.svc.Create(ctx, booking("11:00", store.AppointmentService{ProductID: "serviceX"}))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Code != "LH000006" {
		t.Errorf("Code after deletions = %q, want LH000006", a.Code)
	}
}

func TestCreate_CodeHonoursImportedSuffixes(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_ = f.db.Write(ctx, func(st *store.State) error {
		st.Appointments["legacy"] = &store.Appointment{ID: "legacy", Code: "LH000041", CustomerID: "cus-1", AppointmentDate: "2025-12-01", StartTime: "09:00", EndTime: "10:00", Status: store.StatusCompleted}
		st.Appointments["foreign"] = &store.Appointment{ID: "foreign", Code: "XX999999", CustomerID: "cus-1", AppointmentDate: "2025-12-01", StartTime: "09:00", EndTime: "10:00", Status: store.StatusCompleted}
		return nil
	})

	a, err := f.svc.Create(ctx, booking("09:00", store.AppointmentService{ProductID: "serviceX"}))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.Code != "LH000042" {
		t.Errorf("Code = %q, want LH000042", a.Code)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"unknown customer", CreateRequest{CustomerID: "nobody", AppointmentDate: day, StartTime: "09:00", Services: []store.AppointmentService{{ProductID: "serviceX"}}}, ErrCustomerNotFound},
		{"bad date", CreateRequest{CustomerID: "cus-1", AppointmentDate: "20/01/2026", StartTime: "09:00", Services: []store.AppointmentService{{ProductID: "serviceX"}}}, ErrInvalidDate},
		{"no services", CreateRequest{CustomerID: "cus-1", AppointmentDate: day, StartTime: "09:00"}, ErrNoServices},
		{"unknown product", booking("09:00", store.AppointmentService{ProductID: "ghost"}), ErrProductNotFound},
		{"bad start", booking("nine", store.AppointmentService{ProductID: "serviceX"}), ErrInvalidTime},
		{"end before start", CreateRequest{CustomerID: "cus-1", AppointmentDate: day, StartTime: "10:00", EndTime: "09:00", Services: []store.AppointmentService{{ProductID: "serviceX"}}}, ErrInvalidTime},
		{"half service window", booking("09:00", store.AppointmentService{ProductID: "serviceX", StartTime: "09:00"}), ErrInvalidTime},
		{"invalid status", CreateRequest{CustomerID: "cus-1", AppointmentDate: day, StartTime: "09:00", Status: "no-show", Services: []store.AppointmentService{{ProductID: "serviceX"}}}, ErrInvalidStatus},
		{"package flag without target", booking("09:00", store.AppointmentService{ProductID: "serviceX", UseTreatmentPackage: true}), ErrInvalidPackageLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Create err = %v, want %v", err, tt.want)
			}
		})
	}

	if got := f.svc.List(ctx, ListRequest{}); len(got) != 0 {
		t.Errorf("rejected creates left %d appointments", len(got))
	}
}

func TestCreate_ConsumesLinkedPackageItems(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, booking("09:00", f.link(1, "serviceX"), f.link(1, "productY")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p := f.pkg(t)
	if !p.IsSessionFullyUsed(1) || p.RemainingSessions != 2 {
		t.Errorf("after create: used=%v remaining=%d, want session 1 used, 2 remaining", p.UsedSessionItems, p.RemainingSessions)
	}
}

func TestCreate_RejectsBadPackageLinks(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, booking("09:00", f.link(2, "prod-9"))); err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := f.pkg(t)

	other := booking("11:00", f.link(1, "serviceX"))
	other.CustomerID = "cus-2"

	tests := []struct {
		name  string
		req   CreateRequest
		cause error
	}{
		{"item already used", booking("11:00", f.link(1, "serviceX"), f.link(2, "prod-9")), treatment.ErrPackageItemInUse},
		{"product not in session", booking("11:00", f.link(2, "serviceX")), treatment.ErrInvalidLink},
		{"session out of range", booking("11:00", f.link(7, "serviceX")), treatment.ErrInvalidLink},
		{"unknown package", booking("11:00", store.AppointmentService{ProductID: "serviceX", UseTreatmentPackage: true, TreatmentPackageID: "nope", SessionNumber: 1}), treatment.ErrNotFound},
		{"other customer's package", other, treatment.ErrPackageOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req)
			if !errors.Is(err, ErrInvalidPackageLink) || !errors.Is(err, tt.cause) {
				t.Errorf("Create err = %v, want ErrInvalidPackageLink wrapping %v", err, tt.cause)
			}
		})
	}

	if got := f.pkg(t); !reflect.DeepEqual(got.UsedSessionItems, before.UsedSessionItems) {
		t.Errorf("rejected creates changed the package: %v -> %v", before.UsedSessionItems, got.UsedSessionItems)
	}

	if _, err := f.svc.Create(ctx, booking("12:00", f.link(1, "serviceX"), f.link(1, "serviceX"))); !errors.Is(err, ErrInvalidPackageLink) {
		t.Errorf("duplicate link err = %v, want ErrInvalidPackageLink", err)
	}
}

func TestSetStatus_CancellationReturnsItems(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00", withTech(f.link(2, "prod-9"), "T")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	consumed := f.pkg(t)
	if consumed.RemainingSessions != 2 {
		t.Fatalf("remaining after consume = %d, want 2", consumed.RemainingSessions)
	}
	f.notifier.take()

	if _, err := f.svc.SetStatus(ctx, a.ID, store.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	p := f.pkg(t)
	if p.IsItemUsed(2, "prod-9") || p.RemainingSessions != 3 || !p.IsActive {
		t.Errorf("after cancel: used=%v remaining=%d active=%v", p.UsedSessionItems, p.RemainingSessions, p.IsActive)
	}
	sent := f.notifier.take()
	if len(sent) != 1 || sent[0].Kind != notification.KindCancelled || sent[0].UserID != "T" {
		t.Errorf("cancel notifications = %+v", sent)
	}

	if _, err := f.svc.SetStatus(ctx, a.ID, store.StatusPending); err != nil {
		t.Fatalf("revive: %v", err)
	}
	p = f.pkg(t)
	if !reflect.DeepEqual(p.UsedSessionItems, consumed.UsedSessionItems) || p.RemainingSessions != consumed.RemainingSessions || p.IsActive != consumed.IsActive {
		t.Errorf("pending -> cancelled -> pending: got used=%v remaining=%d, want used=%v remaining=%d",
			p.UsedSessionItems, p.RemainingSessions, consumed.UsedSessionItems, consumed.RemainingSessions)
	}
}

func TestSetStatus_RevivalSkipsVanishedLinks(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00", f.link(2, "prod-9")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, a.ID, store.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := f.db.Write(ctx, func(st *store.State) error {
		delete(st.Packages, f.pkgID)
		return nil
	}); err != nil {
		t.Fatalf("drop package: %v", err)
	}

	got, err := f.svc.SetStatus(ctx, a.ID, store.StatusPending)
	if err != nil {
		t.Fatalf("revive with vanished package: %v", err)
	}
	if got.Status != store.StatusPending {
		t.Errorf("Status = %s, want pending", got.Status)
	}
}

func TestSetStatus_OtherTransitionsLeavePackageAlone(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00", f.link(3, "serviceZ")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := f.pkg(t)

	for _, s := range []store.AppointmentStatus{store.StatusInProgress, store.StatusCompleted, store.StatusPending, store.StatusPending} {
		if _, err := f.svc.SetStatus(ctx, a.ID, s); err != nil {
			t.Fatalf("SetStatus(%s): %v", s, err)
		}
	}
	if got := f.pkg(t); !reflect.DeepEqual(got.UsedSessionItems, before.UsedSessionItems) {
		t.Errorf("package changed: %v -> %v", before.UsedSessionItems, got.UsedSessionItems)
	}

	if _, err := f.svc.SetStatus(ctx, a.ID, "no-show"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("invalid status err = %v, want ErrInvalidStatus", err)
	}
	if _, err := f.svc.SetStatus(ctx, "missing", store.StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing appointment err = %v, want ErrNotFound", err)
	}
}

func TestCreate_CancelledDoesNotConsume(t *testing.T) {
	f := newFixture(t, true)
	req := booking("09:00", f.link(3, "serviceZ"))
	req.Status = store.StatusCancelled

	if _, err := f.svc.Create(context.Background(), req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.pkg(t).IsItemUsed(3, "serviceZ") {
		t.Error("cancelled appointment consumed a package item")
	}
}

func TestDelete_KeepsConsumption(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00", withTech(f.link(2, "prod-9"), "T", "U")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.notifier.take()

	if err := f.svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !f.pkg(t).IsItemUsed(2, "prod-9") {
		t.Error("delete returned the package item; only cancellation should")
	}
	if _, err := f.svc.GetByID(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete err = %v, want ErrNotFound", err)
	}
	sent := f.notifier.take()
	if len(sent) != 2 || sent[0].Kind != notification.KindCancelled {
		t.Errorf("delete notifications = %+v, want two cancelled", sent)
	}
	if err := f.svc.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_ReconcilesPackageLinks(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00", f.link(1, "serviceX"), f.link(1, "productY")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	services := []store.AppointmentService{f.link(1, "serviceX"), withTech(f.link(2, "prod-9"), "T")}
	got, err := f.svc.Update(ctx, a.ID, UpdateRequest{Services: services})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Code != a.Code {
		t.Errorf("Code changed on update: %s -> %s", a.Code, got.Code)
	}

	p := f.pkg(t)
	want := map[int][]string{1: {"serviceX"}, 2: {"prod-9"}}
	if !reflect.DeepEqual(p.UsedSessionItems, want) {
		t.Errorf("UsedSessionItems = %v, want %v", p.UsedSessionItems, want)
	}
	if p.RemainingSessions != 2 {
		t.Errorf("RemainingSessions = %d, want 2", p.RemainingSessions)
	}

	sent := f.notifier.take()
	if len(sent) != 1 || sent[0].Kind != notification.KindUpdated || sent[0].UserID != "T" {
		t.Errorf("update notifications = %+v", sent)
	}
}

func TestUpdate_NotifiesOnlyWhenServicesChange(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00", withTech(store.AppointmentService{ProductID: "serviceX"}, "T")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f.notifier.take()

	notes := "bring towel"
	later := "2026-01-21"
	if _, err := f.svc.Update(ctx, a.ID, UpdateRequest{Notes: &notes, AppointmentDate: &later}); err != nil {
		t.Fatalf("Update notes: %v", err)
	}
	if sent := f.notifier.take(); len(sent) != 0 {
		t.Errorf("notes/date update sent %+v, want none", sent)
	}

	services := []store.AppointmentService{withTech(store.AppointmentService{ProductID: "serviceX"}, "U")}
	if _, err := f.svc.Update(ctx, a.ID, UpdateRequest{Services: services}); err != nil {
		t.Fatalf("Update services: %v", err)
	}
	sent := f.notifier.take()
	if len(sent) != 1 || sent[0].UserID != "U" || sent[0].Kind != notification.KindUpdated {
		t.Errorf("services update sent %+v, want one updated to U", sent)
	}
}

func TestUpdate_RejectedChangeLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, booking("09:00", f.link(1, "serviceX")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := f.pkg(t)

	bad := "31-31-2026"
	if _, err := f.svc.Update(ctx, a.ID, UpdateRequest{AppointmentDate: &bad, Services: []store.AppointmentService{f.link(3, "serviceZ")}}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("Update err = %v, want ErrInvalidDate", err)
	}
	if got := f.pkg(t); !reflect.DeepEqual(got.UsedSessionItems, before.UsedSessionItems) {
		t.Errorf("package changed by rejected update: %v", got.UsedSessionItems)
	}
	cur, _ := f.svc.GetByID(ctx, a.ID)
	if cur.AppointmentDate != day || cur.Services[0].ProductID != "serviceX" {
		t.Errorf("appointment changed by rejected update: %+v", cur)
	}
}

func TestConflicts(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, booking("09:00",
		store.AppointmentService{ProductID: "serviceZ", TechnicianIDs: []string{"T"}, BedID: "B1", StartTime: "09:00", EndTime: "10:00"}))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"technician overlap", booking("09:30", store.AppointmentService{ProductID: "serviceX", TechnicianIDs: []string{"T"}}), ErrTechnicianBusy},
		{"bed overlap", booking("09:30", store.AppointmentService{ProductID: "serviceX", BedID: "B1", StartTime: "09:30", EndTime: "10:00"}), ErrBedBusy},
		{"back to back", booking("10:00", store.AppointmentService{ProductID: "serviceX", TechnicianIDs: []string{"T"}, BedID: "B1", StartTime: "10:00", EndTime: "10:30"}), nil},
		{"other technician", booking("09:30", store.AppointmentService{ProductID: "serviceX", TechnicianIDs: []string{"U"}}), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req)
			if tt.want == nil && err != nil {
				t.Fatalf("Create err = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Create err = %v, want %v", err, tt.want)
			}
		})
	}

	// Moving the first appointment onto itself is not a conflict.
	start := "09:15"
	end := "09:45"
	if _, err := f.svc.Update(ctx, first.ID, UpdateRequest{StartTime: &start, EndTime: &end}); err != nil {
		t.Errorf("Update within own window: %v", err)
	}

	// Cancelled bookings free the slot.
	if _, err := f.svc.SetStatus(ctx, first.ID, store.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.Create(ctx, booking("09:15", store.AppointmentService{ProductID: "serviceX", TechnicianIDs: []string{"T"}})); err != nil {
		t.Fatalf("Create in freed slot: %v", err)
	}
	if _, err := f.svc.SetStatus(ctx, first.ID, store.StatusPending); !errors.Is(err, ErrTechnicianBusy) {
		t.Errorf("revive into taken slot err = %v, want ErrTechnicianBusy", err)
	}
	if got, _ := f.svc.GetByID(ctx, first.ID); got.Status != store.StatusCancelled {
		t.Errorf("rejected revive left status %q", got.Status)
	}
}

func TestConflicts_NotEnforced(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	tech := store.AppointmentService{ProductID: "serviceX", TechnicianIDs: []string{"T"}}

	if _, err := f.svc.Create(ctx, booking("09:00", tech)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Create(ctx, booking("09:00", tech)); err != nil {
		t.Errorf("double booking with enforcement off: %v", err)
	}
}

func TestCreate_NotifiesEachTechnicianOnce(t *testing.T) {
	f := newFixture(t, true)

	a, err := f.svc.Create(context.Background(), booking("09:00",
		withTech(store.AppointmentService{ProductID: "serviceX"}, "T", "U"),
		withTech(store.AppointmentService{ProductID: "serviceZ"}, "T", "")))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sent := f.notifier.take()
	var users []string
	for _, n := range sent {
		if n.Kind != notification.KindNew || n.AppointmentCode != a.Code || n.AppointmentID != a.ID {
			t.Errorf("unexpected notification %+v", n)
		}
		users = append(users, n.UserID)
	}
	if !reflect.DeepEqual(users, []string{"T", "U"}) {
		t.Errorf("notified = %v, want [T U]", users)
	}
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	mk := func(req CreateRequest) *store.Appointment {
		t.Helper()
		a, err := f.svc.Create(ctx, req)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return a
	}
	late := mk(booking("14:00", withTech(store.AppointmentService{ProductID: "serviceX"}, "T")))
	early := mk(booking("08:00", store.AppointmentService{ProductID: "serviceX"}))
	other := booking("09:00", store.AppointmentService{ProductID: "serviceX"})
	other.CustomerID = "cus-2"
	other.AppointmentDate = "2026-01-21"
	mk(other)
	if _, err := f.svc.SetStatus(ctx, early.ID, store.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	completed := store.StatusCompleted
	tests := []struct {
		name string
		req  ListRequest
		want int
	}{
		{"all", ListRequest{}, 3},
		{"by date", ListRequest{Date: day}, 2},
		{"by customer", ListRequest{CustomerID: "cus-2"}, 1},
		{"by status", ListRequest{Status: &completed}, 1},
		{"by technician", ListRequest{TechnicianID: "T"}, 1},
		{"past last page", ListRequest{Page: 2, PerPage: 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.svc.List(ctx, tt.req); len(got) != tt.want {
				t.Errorf("List = %d, want %d", len(got), tt.want)
			}
		})
	}

	sorted := f.svc.List(ctx, ListRequest{Date: day})
	if sorted[0].ID != early.ID || sorted[1].ID != late.ID {
		t.Errorf("List order = [%s %s], want early then late", sorted[0].Code, sorted[1].Code)
	}
}
