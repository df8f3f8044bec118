// Package burrow is a multi-tenant storage core for creator sites.
//
// Each tenant (one creator site) owns an isolated store. The core wires
// together the tenant registry, the connection pool that owns each
// tenant's live handle, and the federation engine that answers one query
// across several stores. The acting tenant is always an explicit argument;
// there is no process-wide current tenant.
package burrow

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/burrowcms/burrow/config"
	"github.com/burrowcms/burrow/federation"
	"github.com/burrowcms/burrow/pool"
	"github.com/burrowcms/burrow/tenant"
)

// Core is the top-level API surface over one base directory of tenant stores.
type Core struct {
	cfg      *config.Config
	logger   *zap.SugaredLogger
	registry *tenant.Registry
	pool     *pool.Manager
	engine   *federation.Engine

	watcher *tenant.Watcher
	cancel  context.CancelFunc
}

// New assembles a core from configuration. No I/O happens until a tenant
// store is first used.
func New(cfg *config.Config, logger *zap.SugaredLogger) *Core {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	registry := tenant.NewRegistry(cfg, logger)
	manager := pool.NewManager(registry, cfg, logger)
	engine := federation.NewEngine(registry, manager, cfg, logger)

	return &Core{
		cfg:      cfg,
		logger:   logger.Named("core"),
		registry: registry,
		pool:     manager,
		engine:   engine,
	}
}

// Registry exposes the tenant registry.
func (c *Core) Registry() *tenant.Registry { return c.registry }

// Pool exposes the connection pool manager.
func (c *Core) Pool() *pool.Manager { return c.pool }

// RegisterTenant registers an embedded (file-backed) tenant.
func (c *Core) RegisterTenant(id string) (*tenant.Descriptor, error) {
	return c.registry.Register(id, tenant.KindEmbedded)
}

// RegisterNetworkedTenant registers a tenant stored on the configured
// MySQL endpoint. Networked tenants cannot participate in federation.
func (c *Core) RegisterNetworkedTenant(id string) (*tenant.Descriptor, error) {
	return c.registry.Register(id, tenant.KindNetworked)
}

// GetConnection returns the live handle for a tenant, opening it if needed.
func (c *Core) GetConnection(ctx context.Context, id string) (*sql.DB, error) {
	return c.pool.Get(ctx, id)
}

// CloseConnection releases a tenant's handle. Idempotent.
func (c *Core) CloseConnection(id string) error {
	return c.pool.Close(id)
}

// Federate runs one query across the primary tenant's store and the given
// secondary stores. See federation.Request for template syntax.
func (c *Core) Federate(ctx context.Context, primary string, secondaries []string, template string) (*federation.Result, error) {
	return c.engine.Federate(ctx, federation.Request{
		Primary:     primary,
		Secondaries: secondaries,
		Template:    template,
	})
}

// StartDiscovery begins fsnotify-based auto-registration of tenant store
// files in the base directory. No-op unless storage.discovery is enabled.
func (c *Core) StartDiscovery() error {
	if !c.cfg.Storage.Discovery || c.watcher != nil {
		return nil
	}

	watcher, err := tenant.NewWatcher(c.registry, c.logger)
	if err != nil {
		return err
	}
	c.watcher = watcher

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			c.logger.Errorw("Store discovery stopped", "error", err.Error())
		}
	}()
	return nil
}

// Shutdown stops discovery and closes every tenant handle, best effort.
func (c *Core) Shutdown() error {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
	return c.pool.CloseAll()
}
