package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/securenet/dyngroups/audit"
	"github.com/securenet/dyngroups/config"
	"github.com/securenet/dyngroups/db"
	"github.com/securenet/dyngroups/metrics"
	"github.com/securenet/dyngroups/model"
	"github.com/securenet/dyngroups/service"
	"github.com/securenet/dyngroups/util"
)

type env struct {
	ctx      context.Context
	conn     *gorm.DB
	services *service.Services
	metrics  *metrics.Collector
	audit    audit.Service
}

func newEnv(t *testing.T, locker service.Locker) *env {
	t.Helper()
	return newEnvWith(t, service.Infrastructure{Locker: locker})
}

// newEnvWith fills in the event bus and metrics of infra.
func newEnvWith(t *testing.T, infra service.Infrastructure) *env {
	t.Helper()
	conn, err := db.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(conn, nil) })
	require.NoError(t, db.Migrate(conn))

	log := zap.NewNop()
	cfg := &config.Configuration{Reconcile: config.ReconcileConfiguration{ExpirySentinelDays: 9999}}
	auditService := audit.NewService(audit.NewGormRepository(conn))
	collector := metrics.NewCollector()
	bus := util.NewEventBus(log)

	infra.EventBus = bus
	infra.Metrics = collector

	services, err := service.InitializeServices(conn, cfg, auditService, util.NewValidationUtil(), infra, log)
	require.NoError(t, err)
	t.Cleanup(bus.Wait)

	return &env{ctx: context.Background(), conn: conn, services: services, metrics: collector, audit: auditService}
}

func (e *env) group(t *testing.T, name string) *model.Group {
	t.Helper()
	g, err := e.services.Groups.CreateGroup(e.ctx, model.Group{Name: name})
	require.NoError(t, err)
	return g
}

func (e *env) user(t *testing.T, user model.User) *model.User {
	t.Helper()
	if user.Username == "" {
		user.Username = uuid.NewString()
	}
	u, err := e.services.Users.CreateUser(e.ctx, user)
	require.NoError(t, err)
	return u
}

func (e *env) rule(t *testing.T, rule model.Rule) *model.Rule {
	t.Helper()
	rule.IsActive = true
	r, err := e.services.Rule.CreateRule(e.ctx, rule)
	require.NoError(t, err)
	return r
}

func (e *env) member(t *testing.T, userID, groupID string) {
	t.Helper()
	_, err := e.services.Groups.AddMember(e.ctx, userID, groupID)
	require.NoError(t, err)
}

func inDays(days int) *time.Time {
	ts := time.Now().Add(time.Duration(days)*24*time.Hour + time.Hour)
	return &ts
}

// memoryCache is an AttributeCache that never expires entries.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]model.AttributeMap
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]model.AttributeMap)}
}

func (c *memoryCache) GetAttributes(ctx context.Context, userID string) (model.AttributeMap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[userID], nil
}

func (c *memoryCache) SetAttributes(ctx context.Context, userID string, attrs model.AttributeMap) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = attrs
	return nil
}

func (c *memoryCache) InvalidateAttributes(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}
