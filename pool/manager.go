// Package pool owns the live connection to each tenant's store.
//
// The manager is the only path in the system that opens a tenant store:
// at most one handle exists per tenant, concurrent requests for the same
// tenant serialize on a per-tenant lock, and unrelated tenants never
// contend on the same lock.
package pool

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/burrowcms/burrow/config"
	"github.com/burrowcms/burrow/db"
	"github.com/burrowcms/burrow/errors"
	"github.com/burrowcms/burrow/tenant"
)

// entry guards one tenant's handle. The per-tenant mutex serializes
// open/close for that tenant so check-then-create cannot interleave.
type entry struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool // set by Close/CloseAll; a closed entry is never reused
}

// Manager hands out tenant store handles, opening each store at most once.
type Manager struct {
	registry *tenant.Registry
	logger   *zap.SugaredLogger
	limiter  *rate.Limiter // damps reconnect storms; nil = unlimited

	mu      sync.Mutex
	entries map[string]*entry
}

// NewManager creates a pool manager over the given registry.
func NewManager(registry *tenant.Registry, cfg *config.Config, logger *zap.SugaredLogger) *Manager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	var limiter *rate.Limiter
	if cfg != nil && cfg.Pool.OpensPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Pool.OpensPerSecond), cfg.OpenBurst())
	}

	return &Manager{
		registry: registry,
		logger:   logger.Named("pool"),
		limiter:  limiter,
		entries:  make(map[string]*entry),
	}
}

// Get returns the live handle for a tenant, opening the store if needed.
// Two sequential calls return the same *sql.DB; concurrent calls for one
// tenant open exactly one underlying session.
func (m *Manager) Get(ctx context.Context, id string) (*sql.DB, error) {
	desc, err := m.registry.Resolve(id)
	if err != nil {
		return nil, err
	}

	// An entry torn down between lookup and lock is retried with a fresh
	// one so a handle is never opened into an entry the pool dropped.
	var e *entry
	for {
		e = m.entryFor(id)
		e.mu.Lock()
		if !e.closed {
			break
		}
		e.mu.Unlock()
	}
	defer e.mu.Unlock()

	if e.db != nil {
		return e.db, nil
	}

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "waiting to open store")
		}
	}

	handle, err := m.open(desc)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrConnectionFailure), "tenant %q", id)
	}

	e.db = handle
	m.logger.Infow("Opened tenant store", "tenant", id, "locator", desc.Locator)
	return handle, nil
}

// entryFor returns the tenant's entry, inserting one if absent.
// The manager lock covers only map mutation, never store I/O.
func (m *Manager) entryFor(id string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		e = &entry{}
		m.entries[id] = e
	}
	return e
}

// open opens the store a descriptor points at. Embedded stores also run
// pending schema migrations; networked stores manage schema server-side.
func (m *Manager) open(desc *tenant.Descriptor) (*sql.DB, error) {
	if desc.Kind == tenant.KindNetworked {
		return db.OpenMySQL(desc.Locator, m.logger)
	}

	handle, err := db.Open(desc.Locator, m.logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(handle, m.logger); err != nil {
		handle.Close()
		return nil, err
	}
	return handle, nil
}

// Close drains in-flight operations on a tenant's handle and releases it.
// Closing an absent tenant is a no-op, not an error.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	if ok {
		delete(m.entries, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.db == nil {
		return nil
	}

	// sql.DB.Close waits for in-use connections to be returned.
	if err := e.db.Close(); err != nil {
		return errors.Wrapf(err, "close tenant %q", id)
	}
	m.logger.Infow("Closed tenant store", "tenant", id)
	return nil
}

// CloseAll closes every tracked handle, best effort. Individual close
// failures are logged and do not abort closing the remaining handles; the
// combined error is returned so callers can surface the degraded shutdown.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	snapshot := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	var errs error
	for id, e := range snapshot {
		e.mu.Lock()
		e.closed = true
		if e.db != nil {
			if err := e.db.Close(); err != nil {
				m.logger.Errorw("Failed to close tenant store", "tenant", id, "error", err.Error())
				errs = errors.CombineErrors(errs, errors.Wrapf(err, "tenant %q", id))
			}
			e.db = nil
		}
		e.mu.Unlock()
	}

	if errs != nil {
		return errors.CombineErrors(errors.ErrShutdown, errs)
	}

	m.logger.Infow("Closed all tenant stores", "handles", len(snapshot))
	return nil
}

// Tenants returns the ids with a tracked handle, sorted.
func (m *Manager) Tenants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
