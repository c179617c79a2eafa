package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/securenet/dyngroups/audit"
	"github.com/securenet/dyngroups/config"
	"github.com/securenet/dyngroups/db"
	"github.com/securenet/dyngroups/metrics"
	"github.com/securenet/dyngroups/service"
	"github.com/securenet/dyngroups/util"
)

// application holds the wired components shared by the commands.
type application struct {
	db       *gorm.DB
	redis    *db.RedisStore
	services *service.Services
	eventBus *util.EventBus
	metrics  *metrics.Collector
	log      *zap.Logger
	cancel   context.CancelFunc
}

func newApplication(cfg *config.Configuration, log *zap.Logger) (*application, error) {
	conn, err := db.OpenSQLite(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn); err != nil {
		db.Close(conn, log)
		return nil, err
	}

	app := &application{db: conn, log: log, metrics: metrics.NewCollector()}

	var infra service.Infrastructure
	if cfg.Redis.Enabled() {
		store, err := db.NewRedisStore(cfg.Redis, log)
		if err != nil {
			app.close()
			return nil, err
		}
		app.redis = store
		infra.Cache = util.NewCacheService(store)
		infra.Locker = service.NewRedisLocker(store, cfg.Reconcile.LockTTL)
	}

	var auditRepo audit.Repository = audit.NewGormRepository(conn)
	if cfg.Elasticsearch.Enabled() {
		esRepo, err := audit.NewElasticsearchRepository(cfg.Elasticsearch.URL, cfg.Elasticsearch.Index)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to create Elasticsearch audit repository: %w", err)
		}
		auditRepo = audit.NewMirroredRepository(log, auditRepo, esRepo)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.eventBus = util.NewEventBus(log)
	app.eventBus.Start(ctx)
	util.NewNotificationService(log).Register(app.eventBus)

	infra.EventBus = app.eventBus
	infra.Metrics = app.metrics

	services, err := service.InitializeServices(conn, cfg, audit.NewService(auditRepo), util.NewValidationUtil(), infra, log)
	if err != nil {
		app.close()
		return nil, err
	}
	app.services = services
	return app, nil
}

func (a *application) close() {
	if a.eventBus != nil {
		a.eventBus.Wait()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	db.Close(a.db, a.log)
}
