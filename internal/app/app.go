package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/storefront-backend/internal/clients/redis"
	"github.com/yungbote/storefront-backend/internal/data/aggregates"
	"github.com/yungbote/storefront-backend/internal/data/db"
	apphttp "github.com/yungbote/storefront-backend/internal/http"
	"github.com/yungbote/storefront-backend/internal/observability"
	"github.com/yungbote/storefront-backend/internal/platform/logger"
)

type App struct {
	Log     *logger.Logger
	DB      *gorm.DB
	Cfg     Config
	Metrics *observability.Metrics
	Cache   *redis.EntityCache
	Repos   Repos
	Aggs    Aggregates
	Server  *apphttp.Server

	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := Build(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// initOTel is swapped in tests to observe the returned shutdown.
var initOTel = observability.InitOTel

// Build wires every component from cfg: database, telemetry, cache, repos,
// aggregates, handlers and the HTTP server. On failure, whatever was already
// opened is closed again.
func Build(cfg Config, log *logger.Logger) (*App, error) {
	a := &App{
		Log:          log,
		Cfg:          cfg,
		otelShutdown: initOTel(context.Background(), log, cfg.Otel),
	}
	fail := func(err error) (*App, error) {
		a.release()
		return nil, err
	}
	if cfg.MetricsEnabled {
		a.Metrics = observability.Init(log)
	}

	theDB, err := openDB(cfg, log)
	if err != nil {
		return fail(err)
	}
	a.DB = theDB
	if err := db.Migrate(theDB); err != nil {
		return fail(fmt.Errorf("migrate: %w", err))
	}

	var cache aggregates.Cache
	if cfg.Cache.Addr != "" {
		ec, err := redis.NewEntityCache(log, cfg.Cache)
		if err != nil {
			log.Warn("Entity cache unavailable, continuing without it", "error", err)
		} else {
			a.Cache = ec
			cache = ec
		}
	}

	a.Repos, err = wireRepos(theDB, log)
	if err != nil {
		return fail(err)
	}
	a.Aggs, err = wireAggregates(theDB, log, cfg, a.Repos, a.Metrics, cache)
	if err != nil {
		return fail(err)
	}
	handlers := wireHandlers(theDB, log, cfg, a.Repos, a.Aggs)
	a.Server = apphttp.NewServer(routerConfig(log, cfg, handlers, a.Metrics))
	return a, nil
}

func openDB(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case DriverPostgres:
		pg, err := db.NewPostgresService(cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return pg.DB(), nil
	default:
		gdb, err := db.OpenSQLite(cfg.SQLiteDSN, log)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return gdb, nil
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests for
// up to ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	a.Metrics.StartDBCollector(gctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(gctx, a.Log, a.Cache.Client())

	addr := ":" + a.Cfg.Port
	g.Go(func() error {
		a.Log.Info("Server listening", "addr", addr)
		return a.Server.Run(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.Cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		a.Log.Info("Shutting down server...")
		return a.Server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.release()
	if a.Log != nil {
		a.Log.Sync()
	}
}

// release shuts down telemetry and closes the cache and database connections.
func (a *App) release() {
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
		a.otelShutdown = nil
	}
	if a.Cache != nil {
		_ = a.Cache.Close()
		a.Cache = nil
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		a.DB = nil
	}
}
