package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/Alijeyrad/spa_backend/internal/service/notification"
)

func TestNotificationHandler_DeliversToInbox(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := notification.New(nil, "spa", log)
	handle := notificationHandler(svc, log)

	data, err := json.Marshal(notification.NotifyRequest{
		UserID:          "tech-1",
		AppointmentID:   "a1",
		AppointmentCode: "LH000001",
		Kind:            notification.KindNew,
	})
	if err != nil {
		t.Fatal(err)
	}

	handle(&nats.Msg{Subject: notification.Subject("spa", notification.KindNew, "tech-1"), Data: data})
	handle(&nats.Msg{Subject: "spa.appointment.new.x", Data: []byte("not json")})
	handle(&nats.Msg{Subject: "spa.appointment.new.", Data: []byte(`{"kind":"new"}`)})

	got := svc.List(context.Background(), "tech-1", false, 1, 20)
	if len(got) != 1 || got[0].AppointmentCode != "LH000001" {
		t.Fatalf("inbox = %+v, want one LH000001 notification", got)
	}
}
