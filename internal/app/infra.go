package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/spa_backend/config"
	"github.com/Alijeyrad/spa_backend/internal/store"
	"github.com/Alijeyrad/spa_backend/pkg/authorize"
	"github.com/Alijeyrad/spa_backend/pkg/observability"
	redispkg "github.com/Alijeyrad/spa_backend/pkg/redis"
)

// InfraModule provides all infrastructure dependencies. Redis, NATS and
// telemetry are optional; their providers return nil when disabled.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideStore),
	fx.Provide(ProvideNatsClient),
)

// ProvideLogger hands out the default logger configured by the command.
func ProvideLogger() *slog.Logger {
	return slog.Default()
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rdb, err := redispkg.NewRedisFromCentral(context.Background(), cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideAuthorization(cfg *config.Config) (authorize.Authorizer, error) {
	return authorize.FromCentralConfig(cfg.Authorization)
}

// ProvideStore builds the state store. With Redis, every write holds the
// distributed lock and snapshots the state; the last snapshot is loaded on
// start.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, rdb *redis.Client, otel *observability.Provider, log *slog.Logger) (*store.Store, error) {
	opts := []store.Option{store.WithLogger(log)}

	if rdb != nil {
		ttl := time.Duration(cfg.Persistence.LockTTLSeconds) * time.Second
		opts = append(opts,
			store.WithPersister(store.NewRedisPersister(rdb, cfg.Persistence.SnapshotKey)),
			store.WithLocker(store.NewRedisLocker(rdb, cfg.Persistence.LockKey, ttl)),
		)
	}

	if otel != nil {
		metrics, err := observability.NewStoreMetrics(nil)
		if err != nil {
			return nil, err
		}
		opts = append(opts, store.WithObserver(metrics))
	}

	db := store.New(opts...)
	if rdb != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := db.Load(ctx); err != nil {
					return err
				}
				log.Info("store snapshot loaded", "key", cfg.Persistence.SnapshotKey)
				return nil
			},
		})
	}
	return db, nil
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*nats.Conn, error) {
	if !cfg.Nats.Enabled {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(cfg.Observability.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(),
		observability.FromCentralConfig(cfg.Observability, cfg.Server.Environment))
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
