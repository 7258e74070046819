package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/spa_backend/config"
	"github.com/Alijeyrad/spa_backend/internal/api/http/handler"
	"github.com/Alijeyrad/spa_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/spa_backend/internal/service/appointment"
	"github.com/Alijeyrad/spa_backend/internal/service/catalog"
	"github.com/Alijeyrad/spa_backend/internal/service/customer"
	"github.com/Alijeyrad/spa_backend/internal/service/notification"
	"github.com/Alijeyrad/spa_backend/internal/service/order"
	"github.com/Alijeyrad/spa_backend/internal/service/scheduling"
	"github.com/Alijeyrad/spa_backend/internal/service/treatment"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client `optional:"true"`
	Auth            authorize.Authorizer
	CatalogSvc      catalog.Service
	CustomerSvc     customer.Service
	OrderSvc        order.Service
	TreatmentSvc    treatment.Service
	SchedulingSvc   scheduling.Service
	AppointmentSvc  appointment.Service
	NotificationSvc notification.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

type permFunc func(authorize.Resource, authorize.Action) fiber.Handler

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Permission helper; a no-op when authorization is disabled
	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		if !r.p.Cfg.Authorization.Enabled {
			return func(c fiber.Ctx) error { return c.Next() }
		}
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	// 3. Initialize Handlers
	catalogH := handler.NewCatalogHandler(r.p.CatalogSvc)
	customerH := handler.NewCustomerHandler(r.p.CustomerSvc)
	orderH := handler.NewOrderHandler(r.p.OrderSvc)
	packageH := handler.NewPackageHandler(r.p.TreatmentSvc)
	var statusAuth authorize.Authorizer
	if r.p.Cfg.Authorization.Enabled {
		statusAuth = r.p.Auth
	}
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc, statusAuth)
	availabilityH := handler.NewAvailabilityHandler(r.p.SchedulingSvc)
	notificationH := handler.NewNotificationHandler(r.p.NotificationSvc)

	api := app.Group("/api/v1", middleware.StaffContext())

	// 4. Delegate to sub-files
	r.registerCatalogRoutes(api, catalogH, requirePerm)
	r.registerSalesRoutes(api, customerH, orderH, packageH, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, availabilityH, requirePerm)
	r.registerNotificationRoutes(api, notificationH, requirePerm)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			if r.p.Redis == nil {
				return true
			}
			return r.p.Redis.Ping(c.Context()).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
