package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"MiniPOS/internal/app"
	"MiniPOS/internal/auth"
	"MiniPOS/internal/catalog"
	"MiniPOS/internal/config"
	"MiniPOS/internal/order"
	"MiniPOS/pkg/kit"
)

const (
	service     = "pos"
	redisPrefix = "pos:"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("pos stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	slot, orderLog, closer, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
	defer cancel()

	cat, err := catalog.NewService(loadCtx, catalog.NewStore(slot, cfg.Storage.CatalogKey, log.Named("catalog")))
	if err != nil {
		return errors.Wrap(err, "init catalog")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	wf, err := order.NewWorkflow(loadCtx, order.WorkflowDeps{
		Catalog: cat,
		Log:     orderLog,
		Logger:  log.Named("order"),
		Metrics: order.NewMetrics(reg),
	})
	if err != nil {
		return errors.Wrap(err, "init order workflow")
	}

	gate, err := auth.NewPinGate(cfg.Admin.PIN)
	if err != nil {
		return err
	}
	if cfg.WeakSecret() {
		log.Warn("JWT_SECRET is shorter than 32 chars; admin tokens are weakly signed")
	}

	h := app.NewHandler(
		app.Deps{
			Catalog:    cat,
			Workflow:   wf,
			Location:   cfg.Location(),
			Gate:       gate,
			JWT:        auth.NewTokenMaker(cfg.Admin.JWTSecret),
			TokenTTL:   cfg.Admin.TokenTTL,
			LoginLimit: cfg.Admin.LoginLimit,
		},
		app.HTTPDeps{
			Log:            log,
			Service:        service,
			Registry:       reg,
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsToken:   cfg.Metrics.Token,
			TrustProxy:     cfg.Server.TrustProxy,
		},
	)

	return kit.RunHTTPServer(ctx, ":"+cfg.Server.Port, h, log)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (catalog.Slot, order.Log, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return catalog.NewMemSlot(), order.NewMemLog(), closerFunc(func() error { return nil }), nil

	case config.DriverBolt:
		db, err := kit.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, nil, err
		}
		slot, err := catalog.NewBoltSlot(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		orders, err := order.NewBoltLog(db, log.Named("order"))
		if err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return slot, orders, db, nil

	case config.DriverPostgres:
		pool, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		slot := catalog.NewPostgresSlot(pool)
		orders := order.NewPostgresLog(pool, log.Named("order"))
		if err := slot.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		if err := orders.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return slot, orders, closerFunc(func() error { pool.Close(); return nil }), nil

	case config.DriverRedis:
		rdb, err := kit.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, nil, err
		}
		return catalog.NewRedisSlot(rdb, redisPrefix), order.NewRedisLog(rdb, redisPrefix, log.Named("order")), rdb, nil
	}

	return nil, nil, nil, errors.Newf("unknown storage driver %q", cfg.Driver)
}
