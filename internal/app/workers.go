package app

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/spa_backend/config"
	"github.com/Alijeyrad/spa_backend/internal/service/notification"
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	NC       *nats.Conn
	NotifSvc notification.Service
	Log      *slog.Logger
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		return
	}

	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			sub, err = startNotificationWorker(p.NC, p.Cfg.Nats.SubjectPrefix, p.NotifSvc, p.Log)
			return err
		},
		OnStop: func(ctx context.Context) error {
			// Drain of the connection is handled by ProvideNatsClient
			if sub != nil {
				return sub.Unsubscribe()
			}
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

func startNotificationWorker(nc *nats.Conn, prefix string, notifSvc notification.Service, log *slog.Logger) (*nats.Subscription, error) {
	subject := notification.SubscriptionSubject(prefix)
	// Queue group: with several instances each notification lands in one inbox.
	sub, err := nc.QueueSubscribe(subject, "notification_worker", notificationHandler(notifSvc, log))
	if err != nil {
		log.Error("notification_worker: subscribe failed", "subject", subject, "err", err)
		return nil, err
	}
	log.Info("notification_worker: started", "subject", subject)
	return sub, nil
}

// notificationHandler decodes a published notification and stores it in the
// recipient's inbox.
func notificationHandler(notifSvc notification.Service, log *slog.Logger) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var req notification.NotifyRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			log.Warn("notification_worker: bad payload", "subject", msg.Subject, "err", err)
			return
		}
		if req.UserID == "" {
			log.Warn("notification_worker: missing recipient", "subject", msg.Subject)
			return
		}
		notifSvc.Deliver(context.Background(), req)
	}
}
