package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type Kind string

const (
	KindNew       Kind = "new"
	KindUpdated   Kind = "updated"
	KindCancelled Kind = "cancelled"
)

type NotifyRequest struct {
	UserID          string `json:"userId"`
	AppointmentID   string `json:"appointmentId"`
	AppointmentCode string `json:"appointmentCode"`
	Title           string `json:"title"`
	Message         string `json:"message"`
	Kind            Kind   `json:"kind"`
}

type Notification struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	AppointmentID   string    `json:"appointmentId"`
	AppointmentCode string    `json:"appointmentCode"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Kind            Kind      `json:"kind"`
	IsRead          bool      `json:"isRead"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Publisher is the subset of *nats.Conn used for fan-out.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Notify is fire-and-forget: failures are logged, never returned.
	Notify(ctx context.Context, req NotifyRequest)
	// Deliver stores a notification in the recipient's inbox.
	Deliver(ctx context.Context, req NotifyRequest) *Notification

	List(ctx context.Context, userID string, unreadOnly bool, page, perPage int) []*Notification
	MarkRead(ctx context.Context, notifID, userID string) error
	MarkAllRead(ctx context.Context, userID string) int
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	mu     sync.RWMutex
	inbox  map[string][]*Notification
	pub    Publisher
	prefix string
	log    *slog.Logger
}

// New builds the dispatcher. With a nil publisher notifications go straight
// to the inbox; otherwise they are published and a subscriber delivers them.
func New(pub Publisher, subjectPrefix string, log *slog.Logger) Service {
	return &notificationService{
		inbox:  map[string][]*Notification{},
		pub:    pub,
		prefix: subjectPrefix,
		log:    log,
	}
}

// Subject returns the subject a notification is published on,
// e.g. "spa.appointment.new.<userID>".
func Subject(prefix string, kind Kind, userID string) string {
	return fmt.Sprintf("%s.appointment.%s.%s", prefix, kind, userID)
}

// SubscriptionSubject matches every appointment notification.
func SubscriptionSubject(prefix string) string {
	return prefix + ".appointment.*.*"
}

func (s *notificationService) Notify(ctx context.Context, req NotifyRequest) {
	if req.UserID == "" {
		return
	}
	if s.pub == nil {
		s.Deliver(ctx, req)
		return
	}

	data, err := json.Marshal(req)
	if err != nil {
		s.log.Warn("notification: encode failed", "err", err)
		return
	}
	subject := Subject(s.prefix, req.Kind, req.UserID)
	if err := s.pub.Publish(subject, data); err != nil {
		s.log.Warn("notification: publish failed", "subject", subject, "err", err)
	}
}

func (s *notificationService) Deliver(ctx context.Context, req NotifyRequest) *Notification {
	n := &Notification{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		AppointmentID:   req.AppointmentID,
		AppointmentCode: req.AppointmentCode,
		Title:           req.Title,
		Message:         req.Message,
		Kind:            req.Kind,
		CreatedAt:       time.Now().UTC(),
	}

	s.mu.Lock()
	s.inbox[req.UserID] = append(s.inbox[req.UserID], n)
	s.mu.Unlock()

	s.log.Debug("notification delivered", "user_id", req.UserID, "kind", req.Kind, "appointment_code", req.AppointmentCode)
	c := *n
	return &c
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, page, perPage int) []*Notification {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	s.mu.RLock()
	defer s.mu.RUnlock()

	// newest first
	all := s.inbox[userID]
	var out []*Notification
	for i := len(all) - 1; i >= 0; i-- {
		if unreadOnly && all[i].IsRead {
			continue
		}
		c := *all[i]
		out = append(out, &c)
	}
	if offset >= len(out) {
		return nil
	}
	return slices.Clone(out[offset:min(offset+perPage, len(out))])
}

func (s *notificationService) MarkRead(ctx context.Context, notifID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.inbox[userID] {
		if n.ID == notifID {
			n.IsRead = true
			return nil
		}
	}
	for uid, list := range s.inbox {
		if uid == userID {
			continue
		}
		if slices.ContainsFunc(list, func(n *Notification) bool { return n.ID == notifID }) {
			return ErrUnauthorized
		}
	}
	return ErrNotFound
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.inbox[userID] {
		if !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count
}
