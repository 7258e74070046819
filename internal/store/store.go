package store

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

// State is the whole mutable application state. It is only reachable through
// Store.Read and Store.Write.
type State struct {
	Revision     int64
	Products     map[string]*Product
	Customers    map[string]*Customer
	Orders       map[string]*Order
	Packages     map[string]*TreatmentPackage
	Appointments map[string]*Appointment

	// High-water marks of issued codes; codes are never reused after deletion.
	AppointmentCodeSeq int
	OrderCodeSeq       int
}

func newState() *State {
	return &State{
		Products:     map[string]*Product{},
		Customers:    map[string]*Customer{},
		Orders:       map[string]*Order{},
		Packages:     map[string]*TreatmentPackage{},
		Appointments: map[string]*Appointment{},
	}
}

// AppointmentsOn returns the appointments booked on date.
func (st *State) AppointmentsOn(date string) []*Appointment {
	var out []*Appointment
	for _, a := range st.Appointments {
		if a.AppointmentDate == date {
			out = append(out, a)
		}
	}
	return out
}

// AppointmentCodes yields the code of every stored appointment.
func (st *State) AppointmentCodes() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, a := range st.Appointments {
			if !yield(a.Code) {
				return
			}
		}
	}
}

// OrderCodes yields the code of every stored order.
func (st *State) OrderCodes() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, o := range st.Orders {
			if !yield(o.Code) {
				return
			}
		}
	}
}

// Locker serializes writers across processes.
type Locker interface {
	Lock(ctx context.Context) (unlock func(context.Context) error, err error)
}

// Persister stores and loads serialized snapshots.
type Persister interface {
	Save(ctx context.Context, data []byte) error
	Load(ctx context.Context) ([]byte, error)
}

// WriteObserver is told how long each Write took and whether it failed.
type WriteObserver interface {
	ObserveWrite(ctx context.Context, took time.Duration, err error)
}

type Option func(*Store)

func WithObserver(o WriteObserver) Option {
	return func(s *Store) { s.observer = o }
}

func WithLocker(l Locker) Option {
	return func(s *Store) { s.locker = l }
}

func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Store is the single writer over State. Every Write runs under one mutex, and
// under the distributed lock when a Locker is configured, so check-then-mutate
// sequences inside a Write are atomic.
type Store struct {
	mu        sync.RWMutex
	state     *State
	locker    Locker
	persister Persister
	observer  WriteObserver
	log       *slog.Logger
}

func New(opts ...Option) *Store {
	s := &Store{state: newState(), log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Read runs fn with a read lock. fn must not retain or mutate state.
func (s *Store) Read(fn func(st *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Write runs fn as one atomic mutation. fn must validate before mutating:
// a returned error does not roll back changes already applied.
func (s *Store) Write(ctx context.Context, fn func(st *State) error) (err error) {
	if s.observer != nil {
		start := time.Now()
		defer func() { s.observer.ObserveWrite(ctx, time.Since(start), err) }()
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx)
		if err != nil {
			return fmt.Errorf("obtain store lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				s.log.Warn("store: release lock failed", "err", err)
			}
		}()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil && s.persister != nil {
		// Another process may have written since our last snapshot.
		if err := s.refreshLocked(ctx); err != nil {
			s.log.Warn("store: refresh from snapshot failed", "err", err)
		}
	}

	if err := fn(s.state); err != nil {
		return err
	}
	s.state.Revision++

	if s.persister != nil {
		if err := s.saveLocked(ctx); err != nil {
			s.log.Error("store: persist snapshot failed", "revision", s.state.Revision, "err", err)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

const SnapshotVersion = 1

// Snapshot is the serialized form of State.
type Snapshot struct {
	Version            int                 `json:"version"`
	Revision           int64               `json:"revision"`
	TakenAt            time.Time           `json:"takenAt"`
	Products           []*Product          `json:"products"`
	Customers          []*Customer         `json:"customers"`
	Orders             []*Order            `json:"orders"`
	Packages           []*TreatmentPackage `json:"packages"`
	Appointments       []*Appointment      `json:"appointments"`
	AppointmentCodeSeq int                 `json:"appointmentCodeSeq"`
	OrderCodeSeq       int                 `json:"orderCodeSeq"`
}

func sortedValues[T any](m map[string]T) []T {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:            SnapshotVersion,
		Revision:           s.state.Revision,
		TakenAt:            time.Now().UTC(),
		Products:           sortedValues(s.state.Products),
		Customers:          sortedValues(s.state.Customers),
		Orders:             sortedValues(s.state.Orders),
		Packages:           sortedValues(s.state.Packages),
		Appointments:       sortedValues(s.state.Appointments),
		AppointmentCodeSeq: s.state.AppointmentCodeSeq,
		OrderCodeSeq:       s.state.OrderCodeSeq,
	}
}

// Export serializes the current state.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.snapshotLocked())
}

// Import replaces the current state with a serialized snapshot.
func (s *Store) Import(data []byte) error {
	st, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	return nil
}

// Restore replaces the current state with a serialized snapshot as one
// Write, so it is locked and persisted like any other mutation.
func (s *Store) Restore(ctx context.Context, data []byte) error {
	next, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	return s.Write(ctx, func(st *State) error {
		*st = *next
		return nil
	})
}

// Load replaces the current state with the persisted snapshot, if any.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	data, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	return s.Import(data)
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.persister.Save(ctx, data)
}

func (s *Store) refreshLocked(ctx context.Context) error {
	data, err := s.persister.Load(ctx)
	if err != nil || len(data) == 0 {
		return err
	}
	st, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	if st.Revision > s.state.Revision {
		s.state = st
	}
	return nil
}

func decodeSnapshot(data []byte) (*State, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", snap.Version)
	}

	st := newState()
	st.Revision = snap.Revision
	st.AppointmentCodeSeq = snap.AppointmentCodeSeq
	st.OrderCodeSeq = snap.OrderCodeSeq
	for _, p := range snap.Products {
		st.Products[p.ID] = p
	}
	for _, c := range snap.Customers {
		st.Customers[c.ID] = c
	}
	for _, o := range snap.Orders {
		st.Orders[o.ID] = o
	}
	for _, p := range snap.Packages {
		normalizePackage(p)
		st.Packages[p.ID] = p
	}
	for _, a := range snap.Appointments {
		NormalizeAppointment(a)
		st.Appointments[a.ID] = a
	}
	return st, nil
}

// NormalizeAppointment migrates legacy shapes: unknown statuses become
// pending and the single technician field is merged into TechnicianIDs.
func NormalizeAppointment(a *Appointment) {
	a.Status = AppointmentStatus(strings.TrimSpace(strings.ToLower(string(a.Status))))
	if !a.Status.Valid() {
		a.Status = StatusPending
	}
	for i := range a.Services {
		svc := &a.Services[i]
		svc.TechnicianIDs = svc.Technicians()
	}
}

// normalizePackage drops used items that are not part of their session
// template and re-derives the counters.
func normalizePackage(p *TreatmentPackage) {
	if p.UsedSessionItems == nil {
		p.UsedSessionItems = map[int][]string{}
	}
	for n, used := range p.UsedSessionItems {
		s, ok := p.Session(n)
		if !ok {
			delete(p.UsedSessionItems, n)
			continue
		}
		var kept []string
		for _, id := range used {
			if s.HasProduct(id) && !slices.Contains(kept, id) {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(p.UsedSessionItems, n)
			continue
		}
		slices.Sort(kept)
		p.UsedSessionItems[n] = kept
	}
	p.Recompute()
	p.IsActive = p.RemainingSessions > 0
}
