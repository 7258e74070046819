package app

import (
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/spa_backend/config"
	"github.com/Alijeyrad/spa_backend/internal/service/appointment"
	"github.com/Alijeyrad/spa_backend/internal/service/catalog"
	"github.com/Alijeyrad/spa_backend/internal/service/customer"
	"github.com/Alijeyrad/spa_backend/internal/service/notification"
	"github.com/Alijeyrad/spa_backend/internal/service/order"
	"github.com/Alijeyrad/spa_backend/internal/service/scheduling"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
	"github.com/Alijeyrad/spa_backend/internal/store"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideCatalogService,
		ProvideCustomerService,
		ProvideTreatmentService,
		ProvideSchedulingService,
		ProvideOrderService,
		ProvideNotificationService,
		ProvideAppointmentService,
	),
)

func ProvideCatalogService(db *store.Store, log *slog.Logger) catalog.Service {
	return catalog.New(db, log.With("service", "catalog"))
}

func ProvideCustomerService(db *store.Store, cfg *config.Config, log *slog.Logger) customer.Service {
	return customer.New(db, cfg.Customers.DefaultRegion, log.With("service", "customer"))
}

func ProvideTreatmentService(db *store.Store, log *slog.Logger) treatment.Service {
	return treatment.New(db, log.With("service", "treatment"))
}

func ProvideSchedulingService(db *store.Store) scheduling.Service {
	return scheduling.New(db)
}

func ProvideOrderService(db *store.Store, cfg *config.Config, log *slog.Logger) order.Service {
	return order.New(db, order.Config{
		CodePrefix: cfg.Scheduling.OrderCodePrefix,
		CodeDigits: cfg.Scheduling.AppointmentCodeDigits,
		Region:     cfg.Customers.DefaultRegion,
	}, log.With("service", "order"))
}

// ProvideNotificationService publishes over NATS when connected, otherwise
// delivers straight to the inbox.
func ProvideNotificationService(nc *nats.Conn, cfg *config.Config, log *slog.Logger) notification.Service {
	var pub notification.Publisher
	if nc != nil {
		pub = nc
	}
	return notification.New(pub, cfg.Nats.SubjectPrefix, log.With("service", "notification"))
}

func ProvideAppointmentService(db *store.Store, notif notification.Service, cfg *config.Config, log *slog.Logger) appointment.Service {
	return appointment.New(db, notif, appointment.Config{
		CodePrefix:       cfg.Scheduling.AppointmentCodePrefix,
		CodeDigits:       cfg.Scheduling.AppointmentCodeDigits,
		EnforceConflicts: cfg.Scheduling.EnforceConflicts,
	}, log.With("service", "appointment"))
}
