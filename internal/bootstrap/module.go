package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"fleetcheck/internal/bootstrap/config"
	"fleetcheck/internal/bootstrap/database"
	"fleetcheck/internal/bootstrap/logging"
	cacheinfra "fleetcheck/internal/infrastructure/cache"
	sqliterepo "fleetcheck/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "fleetcheck/internal/infrastructure/persistence/sqlite/uow"
	"fleetcheck/internal/infrastructure/telemetry"
	"fleetcheck/internal/ports"
	"fleetcheck/internal/usecase/nc"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewReferenceRepository,
			fx.As(new(ports.ReferenceRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewNCRepository,
			fx.As(new(ports.NCRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideTelemetry),
	fx.Provide(nc.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

// provideTelemetry falls back to the no-op provider when no gateway is
// configured, so non-conformities are still created without snapshots.
func provideTelemetry(ctx context.Context, cfg config.Config) ports.TelemetryProvider {
	if cfg.Telemetry.BaseURL == "" {
		logging.Info(logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx")),
			"telemetry gateway not configured, snapshots disabled")
		return telemetry.Noop{}
	}
	return telemetry.NewHTTPProvider(cfg.Telemetry.BaseURL, 5*time.Second)
}
